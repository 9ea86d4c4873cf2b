package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/metrics"
	"github.com/jmylchreest/toastify/internal/server"
	"github.com/jmylchreest/toastify/internal/stack"
)

// Options configures a Daemon.
type Options struct {
	// Config is the configuration in force at startup. Nil means defaults.
	Config *config.Config

	// ConfigPath is watched for hot reload. Empty disables watching.
	ConfigPath string

	// Registry receives the metrics. Nil creates a private registry with
	// the Go and process collectors.
	Registry *prometheus.Registry

	Logger  *slog.Logger
	Version string

	// StackOptions are passed to the stack, mainly for tests.
	StackOptions []stack.Option
}

// Daemon owns the stack and everything that observes it.
type Daemon struct {
	cfg        *config.Config
	configPath string
	version    string
	logger     *slog.Logger

	resolver *config.Resolver
	stack    *stack.Stack
	history  *history.History
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	server   *server.Server
	notifier *InternalNotifier
	watcher  *config.Watcher
}

// New builds a daemon from opts. History is hydrated from disk when
// enabled; a corrupt history file is recovered once before giving up.
func New(opts Options) (*Daemon, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	d := &Daemon{
		cfg:        cfg,
		configPath: opts.ConfigPath,
		version:    version,
		logger:     logger,
		registry:   registry,
	}

	d.resolver = config.NewResolver(&cfg.Toasts)
	stackOpts := append([]stack.Option{stack.WithLogger(logger)}, opts.StackOptions...)
	d.stack = stack.New(d.resolver, stackOpts...)
	d.notifier = NewInternalNotifier(d.stack, logger)

	if cfg.History.Enabled {
		h, err := d.openHistory()
		if err != nil {
			d.stack.Close()
			return nil, err
		}
		d.history = h
	}

	d.metrics = metrics.New(metrics.WithRegistry(registry))

	serverOpts := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(d.metrics, registry),
		server.WithWSBuffer(cfg.Server.WSBuffer),
	}
	if d.history != nil {
		serverOpts = append(serverOpts, server.WithHistory(d.history))
	}
	d.server = server.New(d.stack, serverOpts...)

	return d, nil
}

func (d *Daemon) openHistory() (*history.History, error) {
	path := d.cfg.HistoryPath()
	persistence, err := history.NewJSONLPersistence(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	h := history.New(d.cfg.History.Limit,
		history.WithPersistence(persistence),
		history.WithLogger(d.logger),
		history.WithErrorHandler(func(err error) {
			d.notifier.NotifyHistoryError(err)
		}),
	)

	if err := h.Hydrate(); err != nil {
		d.logger.Warn("failed to hydrate history, attempting recovery", "path", path, "error", err)
		if rerr := history.RecoverFromCorruption(path); rerr != nil {
			d.logger.Warn("history recovery failed", "path", path, "error", rerr)
		} else if err := h.Hydrate(); err != nil {
			d.logger.Warn("failed to hydrate recovered history", "path", path, "error", err)
		}
	}
	d.logger.Info("history initialized", "path", path, "count", h.Count())
	return h, nil
}

// Stack returns the daemon's toast stack.
func (d *Daemon) Stack() *stack.Stack {
	return d.stack
}

// History returns the history, or nil when disabled.
func (d *Daemon) History() *history.History {
	return d.history
}

// Resolver returns the live toast configuration.
func (d *Daemon) Resolver() *config.Resolver {
	return d.resolver
}

// Notifier returns the internal notifier.
func (d *Daemon) Notifier() *InternalNotifier {
	return d.notifier
}

// Server returns the HTTP server.
func (d *Daemon) Server() *server.Server {
	return d.server
}

// Run listens on the configured address and serves until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	l, err := net.Listen("tcp", d.cfg.Server.Listen)
	if err != nil {
		d.Close()
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Server.Listen, err)
	}
	return d.Serve(ctx, l)
}

// Serve runs the daemon on l until ctx is done, then shuts everything
// down.
func (d *Daemon) Serve(ctx context.Context, l net.Listener) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer d.Close()

	if d.history != nil {
		d.history.Follow(ctx, d.stack)
	}
	d.metrics.Follow(ctx, d.stack)
	d.startWatcher(ctx)

	d.logger.Info("toastify ready", "version", d.version, "addr", l.Addr().String())
	d.notifier.NotifyStartup(d.version, l.Addr().String())

	err := d.server.Serve(ctx, l)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (d *Daemon) startWatcher(ctx context.Context) {
	if d.configPath == "" {
		return
	}

	w, err := config.NewWatcher(d.configPath, d.logger)
	if err != nil {
		d.logger.Warn("failed to create config watcher", "error", err)
		return
	}
	w.SetReloadCallback(d.ApplyConfig)
	w.SetErrorCallback(func(err error) {
		d.notifier.NotifyConfigError(err)
	})
	if err := w.Start(ctx, d.cfg); err != nil {
		d.logger.Warn("failed to start config watcher", "path", d.configPath, "error", err)
		_ = w.Stop()
		return
	}
	d.watcher = w
}

// ApplyConfig pushes a reloaded configuration into the running daemon.
// Environment overrides are re-applied on top of the file. Server
// settings only take effect on restart.
func (d *Daemon) ApplyConfig(newCfg *config.Config) {
	cfg := *newCfg
	if err := cfg.ApplyEnv(); err != nil {
		d.logger.Warn("ignoring invalid environment override", "error", err)
		cfg = *newCfg
	}

	d.resolver.Update(&cfg.Toasts)
	if d.history != nil {
		if err := d.history.SetLimit(cfg.History.Limit); err != nil {
			d.logger.Warn("failed to apply history limit", "limit", cfg.History.Limit, "error", err)
		}
	}
	if cfg.Server != d.cfg.Server {
		d.logger.Warn("server settings changed, restart to apply",
			"listen", cfg.Server.Listen, "ws_buffer", cfg.Server.WSBuffer)
	}

	d.logger.Info("configuration reloaded",
		"duration", cfg.Toasts.Duration.Duration(),
		"max_toasts", cfg.Toasts.MaxToasts,
		"show_icon", cfg.Toasts.ShowIcon,
	)
	d.notifier.NotifyConfigReloaded()
}

// Close stops the watcher and closes the stack and history. It is safe
// to call more than once.
func (d *Daemon) Close() {
	if d.watcher != nil {
		_ = d.watcher.Stop()
		d.watcher = nil
	}
	d.stack.Close()
	if d.history != nil {
		if err := d.history.Close(); err != nil {
			d.logger.Warn("error closing history", "error", err)
		}
	}
}
