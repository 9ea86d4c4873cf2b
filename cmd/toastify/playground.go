package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/stack"
	"github.com/jmylchreest/toastify/internal/tui"
)

var playgroundOpts struct {
	maxToasts int
	clipboard string
	noHistory bool
}

var playgroundCmd = &cobra.Command{
	Use:     "playground",
	Aliases: []string{"tui"},
	Short:   "Try the toast stack interactively",
	Long: `Launch an interactive TUI over a local, in-process toast stack.

Nothing is sent to the daemon. Toasts use the effective configuration
(config file and environment), so duration and capacity changes can be
tried before restarting the daemon.

Keys:
  s/e/i/w     Add a success/error/info/warning toast
  t           Toggle sticky toasts
  d/x         Dismiss selected toast
  c           Clear the stack
  h           Toggle history
  y/Y         Copy selected toast as JSON / all as YAML
  ?           Help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runPlayground,
}

func init() {
	rootCmd.AddCommand(playgroundCmd)

	playgroundCmd.Flags().IntVar(&playgroundOpts.maxToasts, "max-toasts", 0,
		"Stack capacity (default: from config)")
	playgroundCmd.Flags().StringVar(&playgroundOpts.clipboard, "clipboard", "",
		"Clipboard command (default: auto-detect wl-copy, xclip, xsel, pbcopy)")
	playgroundCmd.Flags().BoolVar(&playgroundOpts.noHistory, "no-history", false,
		"Do not keep a history of removed toasts")
}

func runPlayground(cmd *cobra.Command, args []string) error {
	toasts := cfg.Toasts
	if playgroundOpts.maxToasts > 0 {
		toasts.MaxToasts = playgroundOpts.maxToasts
	}
	if err := toasts.Validate(); err != nil {
		return err
	}

	s := stack.New(config.NewResolver(&toasts), stack.WithLogger(logger))
	defer s.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var h *history.History
	if !playgroundOpts.noHistory {
		// In memory only; the playground never touches the daemon's file.
		h = history.New(cfg.History.Limit, history.WithLogger(logger))
		defer h.Close()
		h.Follow(ctx, s)
	}

	return tui.Run(tui.RunOptions{
		Stack:            s,
		History:          h,
		ClipboardCommand: playgroundOpts.clipboard,
	})
}
