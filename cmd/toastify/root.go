// Package main provides the CLI entrypoint for toastify.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/client"
	"github.com/jmylchreest/toastify/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		server     string
		envFile    string
	}
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toastify",
	Short: "Toast notification stack daemon and client",
	Long: `toastify keeps a bounded, self-expiring stack of toast notifications.

Run "toastify serve" to start the daemon, then push toasts to it with
"toastify push" or the success/error/info/warning shortcuts. Renderers
follow the stack over the WebSocket stream at /ws.`,
	Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		if err := loadEnvFile(globalOpts.envFile); err != nil {
			return err
		}

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.ApplyEnv(); err != nil {
			return fmt.Errorf("invalid environment override: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/toastify/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.server, "server", "s", "",
		"Daemon address (default: server.listen from config)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.envFile, "env-file", ".env",
		"Environment file loaded before the config (missing file is ignored)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// loadEnvFile loads KEY=value pairs from path without overriding the
// real environment.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Debug("loaded environment file", "path", path)
	return nil
}

// serverAddr returns the daemon address from --server or the config.
func serverAddr() string {
	if globalOpts.server != "" {
		return globalOpts.server
	}
	if cfg != nil {
		return cfg.Server.Listen
	}
	return config.DefaultListen
}

// newClient returns a client for the configured daemon.
func newClient() *client.Client {
	return client.New(serverAddr())
}
