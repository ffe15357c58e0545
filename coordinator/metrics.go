package coordinator

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles Prometheus collectors for the coordinator.
type Metrics struct {
	Mode            prometheus.Gauge
	FallbacksTotal  *prometheus.CounterVec
	SimulatedWrites *prometheus.CounterVec
	StaleDropped    *prometheus.CounterVec
	RefreshRuns     prometheus.Counter
	RefreshSkipped  prometheus.Counter
}

// NewMetrics registers the coordinator collectors on registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	mode := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "librarian_connectivity_state",
		Help: "Connectivity state: 0 unknown, 1 live, 2 demo.",
	})
	fallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_fallbacks_total",
			Help: "Loads served from demo data after a live call failed.",
		},
		[]string{"kind"},
	)
	simulated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_simulated_writes_total",
			Help: "Writes accepted in demo mode without being stored.",
		},
		[]string{"op"},
	)
	stale := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarian_stale_results_dropped_total",
			Help: "Results discarded because a newer load already committed.",
		},
		[]string{"kind"},
	)
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "librarian_refresh_runs_total",
		Help: "Background dashboard refreshes started.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "librarian_refresh_skipped_total",
		Help: "Background refresh ticks skipped while the previous one was pending.",
	})

	registry.MustRegister(mode, fallbacks, simulated, stale, runs, skipped)

	return &Metrics{
		Mode:            mode,
		FallbacksTotal:  fallbacks,
		SimulatedWrites: simulated,
		StaleDropped:    stale,
		RefreshRuns:     runs,
		RefreshSkipped:  skipped,
	}
}

func (m *Metrics) setMode(s State) {
	if m == nil {
		return
	}
	m.Mode.Set(float64(s))
}

func (m *Metrics) incFallback(kind Kind) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) incSimulated(op Op) {
	if m == nil {
		return
	}
	m.SimulatedWrites.WithLabelValues(string(op)).Inc()
}

func (m *Metrics) incStale(kind Kind) {
	if m == nil {
		return
	}
	m.StaleDropped.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) incRefresh(ran bool) {
	if m == nil {
		return
	}
	if ran {
		m.RefreshRuns.Inc()
		return
	}
	m.RefreshSkipped.Inc()
}
