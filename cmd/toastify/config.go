package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/config"
)

var configOpts struct {
	remote bool
	force  bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Print the effective configuration as TOML: the config file with
.env and TOASTIFY_* environment overrides applied.

With --remote, print the toast settings the running daemon resolved.

Examples:
  toastify config
  TOASTIFY_MAX_TOASTS=3 toastify config
  toastify config --remote`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long: `Write the default configuration to the config path
(~/.config/toastify/config.toml unless --config is given).`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configCmd.Flags().BoolVar(&configOpts.remote, "remote", false,
		"Query the running daemon instead of reading local config")
	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing config file")
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configOpts.remote {
		ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
		defer cancel()

		resp, err := newClient().Config(ctx)
		if err != nil {
			return fmt.Errorf("failed to query daemon config: %w", err)
		}
		return writeTOML(cmd.OutOrStdout(), resp)
	}
	return writeTOML(cmd.OutOrStdout(), cfg)
}

func writeTOML(w io.Writer, v any) error {
	enc := toml.NewEncoder(w)
	enc.SetIndentTables(true)
	return enc.Encode(v)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := globalOpts.configPath
	if path == "" {
		path = config.ConfigPath()
	}

	if !configOpts.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to check config file: %w", err)
		}
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
