package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/daemon"
)

var serveOpts struct {
	listen    string
	noWatch   bool
	noHistory bool
	quiet     bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the toast daemon",
	Long: `Run the toast daemon in the foreground.

The daemon owns the toast stack and serves it over HTTP:
  POST   /api/toasts          add a toast
  POST   /api/toasts/{kind}   add a success/error/info/warning toast
  GET    /api/toasts          list the stack
  DELETE /api/toasts/{id}     dismiss a toast
  DELETE /api/toasts          clear the stack
  GET    /api/history         removed toasts
  GET    /ws                  live stack stream
  GET    /metrics             Prometheus metrics

The config file is watched and toast settings are reloaded on change.

The daemon raises its own toasts on startup, config reload and errors.
They go on the same stack and count against max_toasts while visible
(5s, or 30s for errors), so they can evict older toasts. Use --quiet to
turn them off.

Examples:
  # Start with the default config
  toastify serve

  # Listen on another address, without history
  toastify serve --listen 0.0.0.0:9000 --no-history`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.listen, "listen", "",
		"Listen address (overrides server.listen)")
	serveCmd.Flags().BoolVar(&serveOpts.noWatch, "no-watch", false,
		"Do not watch the config file for changes")
	serveCmd.Flags().BoolVar(&serveOpts.noHistory, "no-history", false,
		"Disable toast history")
	serveCmd.Flags().BoolVarP(&serveOpts.quiet, "quiet", "q", false,
		"Do not raise toasts about the daemon's own events (they otherwise take stack slots for 5-30s)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveOpts.listen != "" {
		cfg.Server.Listen = serveOpts.listen
	}
	if serveOpts.noHistory {
		cfg.History.Enabled = false
	}

	configPath := ""
	if !serveOpts.noWatch {
		configPath = globalOpts.configPath
		if configPath == "" {
			configPath = config.ConfigPath()
		}
	}

	d, err := daemon.New(daemon.Options{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}
	if serveOpts.quiet {
		d.Notifier().SetEnabled(false)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting toastify", "version", version, "listen", cfg.Server.Listen)
	if err := d.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	if ctx.Err() == context.Canceled {
		logger.Info("shutting down")
	}
	return nil
}
