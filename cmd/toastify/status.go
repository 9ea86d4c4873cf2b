package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/model"
)

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the toast stack in Waybar's custom module JSON format.

  "custom/toasts": {
    "exec": "toastify status",
    "interval": 2,
    "return-type": "json",
    "on-click": "toastify clear"
  }

The output includes:
  - text: Number of toasts on the stack
  - alt/class: The most severe color present (error, warning, other,
    empty), or "offline" when the daemon is unreachable
  - tooltip: One line per toast`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	toasts, err := newClient().Toasts(ctx)
	if err != nil {
		logger.Debug("daemon unreachable", "error", err)
		return outputStatus(cmd.OutOrStdout(), WaybarStatus{Alt: "offline", Class: "offline", Tooltip: "toastify is not running"})
	}
	return outputStatus(cmd.OutOrStdout(), generateStatus(toasts, time.Now()))
}

// generateStatus creates a WaybarStatus for the stack.
func generateStatus(toasts []model.Toast, now time.Time) WaybarStatus {
	if len(toasts) == 0 {
		return WaybarStatus{
			Text:  "",
			Alt:   "empty",
			Class: "empty",
		}
	}

	class := "other"
	for _, t := range toasts {
		switch t.Color {
		case model.ColorError:
			class = "error"
		case model.ColorWarning:
			if class != "error" {
				class = "warning"
			}
		}
	}

	return WaybarStatus{
		Text:       fmt.Sprintf("%d", len(toasts)),
		Alt:        class,
		Tooltip:    buildTooltip(toasts, now),
		Class:      class,
		Percentage: min(len(toasts), 100),
	}
}

// buildTooltip lists the toasts, newest first.
func buildTooltip(toasts []model.Toast, now time.Time) string {
	lines := make([]string, 0, len(toasts))
	for i := len(toasts) - 1; i >= 0; i-- {
		t := toasts[i]
		title := t.Title
		if title == "" {
			title = "(untitled)"
		}
		line := fmt.Sprintf("[%s] %s, %s", t.Color, title, humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
		if !t.AutoDismiss() {
			line += ", sticky"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(status)
}
