package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/library-desk/config"
	"github.com/aluiziolira/library-desk/coordinator"
	"github.com/aluiziolira/library-desk/notify"
	"github.com/aluiziolira/library-desk/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, a := newRootCmd(os.Stdout, os.Stderr, nil)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		var shown reported
		if !errors.As(err, &shown) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app holds everything a subcommand needs. It is built once the flags are parsed.
type app struct {
	out, errOut io.Writer
	transport   http.RoundTripper

	configPath  string
	baseURL     string
	verbose     bool
	metricsAddr string

	cfg           *config.Config
	logger        *slog.Logger
	registry      *prometheus.Registry
	client        *remote.Client
	coord         *coordinator.Coordinator
	tray          *notify.Tray
	bus           *notify.Bus
	metricsServer *http.Server
}

// newRootCmd wires the command tree. transport replaces the HTTP transport
// of the backend client when non-nil.
func newRootCmd(out, errOut io.Writer, transport http.RoundTripper) (*cobra.Command, *app) {
	a := &app{out: out, errOut: errOut, transport: transport}

	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Library desk client with automatic demo fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.baseURL, "base-url", "", "Backend base URL (default from config)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")

	root.AddCommand(
		a.dashboardCmd(),
		a.collectionCmd(coordinator.KindBooks, "List the catalog"),
		a.collectionCmd(coordinator.KindUsers, "List library members"),
		a.collectionCmd(coordinator.KindStats, "Show catalog counts"),
		a.addBookCmd(),
		a.addUserCmd(),
		a.borrowCmd(),
		a.returnCmd(),
		a.searchCmd(),
		a.detailsCmd(),
		a.pathCmd(),
		a.recommendCmd(),
		a.exportCmd(),
		a.watchCmd(),
	)
	return root, a
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	logger, level := newLogger(a.errOut, cfg.Verbose)
	a.logger = logger
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	a.registry = prometheus.NewRegistry()
	a.client, err = remote.NewClient(cfg, remote.NewMetrics(a.registry))
	if err != nil {
		logger.Error("initialising backend client", slog.Any("error", err))
		return err
	}
	if a.transport != nil {
		a.client.WithTransport(a.transport)
	}

	a.tray = notify.NewTray(cfg.MaxNotifications, cfg.NotificationTTL)
	sinks := notify.FanOut{a.tray}
	if cfg.Verbose {
		a.bus = notify.NewBus(notify.LogSink{Logger: logger}, cfg.MaxNotifications*4)
		sinks = append(sinks, a.bus)
	}

	a.coord, err = coordinator.New(a.client,
		coordinator.WithSink(sinks),
		coordinator.WithMetrics(coordinator.NewMetrics(a.registry)),
		coordinator.WithLogger(logger),
		coordinator.WithDetailsCacheSize(cfg.DetailsCacheSize),
	)
	if err != nil {
		logger.Error("initialising coordinator", slog.Any("error", err))
		return err
	}

	a.startMetrics()

	state := a.coord.Probe(cmd.Context())
	logger.Debug("connectivity resolved",
		slog.String("base_url", a.client.BaseURL()),
		slog.String("state", state.String()),
	)
	return nil
}

// loadConfig layers defaults, the optional file, LIBRARIAN_* variables and
// explicitly set flags, in that order.
func (a *app) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if a.configPath != "" {
		loaded, err := config.LoadFile(a.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = a.metricsAddr
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	return cfg, cfg.Validate()
}

func (a *app) startMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}
	a.metricsServer = &http.Server{
		Addr:    a.cfg.MetricsAddr,
		Handler: promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	a.logger.Info("metrics server enabled", slog.String("addr", a.cfg.MetricsAddr))
}

// close releases whatever setup started. It is safe on a partially built app.
func (a *app) close() {
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.logger.Warn("notification bus close", slog.Any("error", err))
		}
	}
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}
}

func newLogger(w io.Writer, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelWarn)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
