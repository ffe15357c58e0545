package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Refresher silently reloads the dashboard on an interval while the
// dashboard section is on screen. A tick is skipped while the previous
// tick's loads are still pending.
type Refresher struct {
	c        *Coordinator
	interval time.Duration
	running  atomic.Bool
	wg       sync.WaitGroup
}

// NewRefresher creates a refresher; call Run to start it.
func (c *Coordinator) NewRefresher(interval time.Duration) *Refresher {
	return &Refresher{c: c, interval: interval}
}

// Run ticks until ctx is done, then waits for the last refresh to finish.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.wg.Wait()
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick starts one refresh in the background and reports whether it did.
func (r *Refresher) Tick(ctx context.Context) bool {
	if r.c.view.Section() != SectionDashboard {
		return false
	}
	if !r.running.CompareAndSwap(false, true) {
		r.c.metrics.incRefresh(false)
		r.c.logger.Debug("refresh skipped, previous still pending")
		return false
	}
	r.c.metrics.incRefresh(true)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.running.Store(false)
		start := time.Now()
		r.c.Dashboard(ctx, true)
		r.c.logger.Debug("dashboard refreshed", slog.Duration("elapsed", time.Since(start)))
	}()
	return true
}

// Wait blocks until no refresh is in flight.
func (r *Refresher) Wait() {
	r.wg.Wait()
}
