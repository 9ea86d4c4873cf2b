package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/adapter/output"
	"github.com/jmylchreest/toastify/internal/client"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// requestTimeout bounds every call to the daemon from a one-shot command.
const requestTimeout = 10 * time.Second

// outputFlags are shared by list and history.
type outputFlags struct {
	format   string
	field    string
	template string
	noColor  bool
	descLen  int
}

func (o *outputFlags) register(cmd *cobra.Command, defaultFormat output.FormatType) {
	cmd.Flags().StringVarP(&o.format, "format", "f", string(defaultFormat),
		fmt.Sprintf("Output format %v", output.ValidFormats()))
	cmd.Flags().StringVar(&o.template, "template", "",
		"Custom Go template for plain and dmenu output")
	cmd.Flags().BoolVar(&o.noColor, "no-color", false,
		"Do not style plain output by toast color")
	cmd.Flags().IntVar(&o.descLen, "desc-len", 80,
		"Truncate descriptions to this many characters (0 = unlimited)")
}

func (o *outputFlags) formatter() (output.Formatter, error) {
	format, err := output.ParseFormat(strings.ToLower(o.format))
	if err != nil {
		return nil, err
	}
	opts := output.DefaultFormatterOptions()
	opts.Template = o.template
	opts.Color = !o.noColor
	opts.DescMaxLen = o.descLen
	return output.NewFormatter(format, opts), nil
}

var listOpts struct {
	outputFlags
}

var listCmd = &cobra.Command{
	Use:     "list [index|id]",
	Aliases: []string{"ls"},
	Short:   "List the toasts on the stack",
	Long: `List the toasts currently on the stack, oldest first.

With an index (1-based) or id argument, outputs that toast only.

Examples:
  # Human readable
  toastify list

  # For fuzzel, walker, rofi...
  toastify list --format dmenu

  # Description of the oldest toast
  toastify list 1 --field description

  # Machine readable
  toastify list --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var historyOpts struct {
	outputFlags
	since  string
	reason string
	color  string
	filter string
	limit  int
	clear  bool
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show toasts that have left the stack",
	Long: `Show toasts that have left the stack, newest first, with the
reason they left: dismissed, expired, evicted or cleared.

Filter expressions are field<op>value conditions joined by commas.
Fields are title, description, color, reason and removed. Operators are
= != ~ (contains) ~= (regex), and > < >= <= on the removed age, e.g.
"color=error,title~deploy" or "removed<1h".

Examples:
  # The last hour
  toastify history --since 1h

  # Everything that was evicted by capacity
  toastify history --reason evicted --format json

  # Wipe history
  toastify history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(listCmd, historyCmd)

	listOpts.register(listCmd, output.FormatPlain)
	listCmd.Flags().StringVar(&listOpts.field, "field", "",
		"Output a single field of the selected toast (id, title, description, color, icon, all)")

	historyOpts.register(historyCmd, output.FormatPlain)
	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only entries removed within this duration (e.g., 30m, 1h, 7d, 1w)")
	historyCmd.Flags().StringVar(&historyOpts.reason, "reason", "",
		fmt.Sprintf("Only entries with this reason %v", history.ValidReasons()))
	historyCmd.Flags().StringVar(&historyOpts.color, "color", "",
		"Only entries with this toast color")
	historyCmd.Flags().StringVar(&historyOpts.filter, "filter", "",
		"Filter expression (e.g., \"title~deploy\")")
	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "n", 0,
		"Maximum number of entries (0 = unlimited)")
	historyCmd.Flags().BoolVar(&historyOpts.clear, "clear", false,
		"Remove all history entries")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	c := newClient()
	toasts, err := c.Toasts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list toasts: %w", err)
	}

	if len(args) > 0 {
		toast, err := lookupToast(toasts, args[0])
		if err != nil {
			return err
		}
		toasts = []model.Toast{toast}
	}

	if listOpts.field != "" {
		return writeFields(cmd.OutOrStdout(), toasts, listOpts.field)
	}

	f, err := listOpts.formatter()
	if err != nil {
		return err
	}
	return f.Format(cmd.OutOrStdout(), toasts)
}

// lookupToast selects a toast by 1-based index or id.
func lookupToast(toasts []model.Toast, arg string) (model.Toast, error) {
	if idx, err := strconv.Atoi(arg); err == nil {
		if idx < 1 || idx > len(toasts) {
			return model.Toast{}, fmt.Errorf("index %d out of range (1-%d)", idx, len(toasts))
		}
		return toasts[idx-1], nil
	}
	for _, t := range toasts {
		if t.ID == arg {
			return t, nil
		}
	}
	return model.Toast{}, fmt.Errorf("toast not found: %s", arg)
}

func writeFields(w io.Writer, toasts []model.Toast, field string) error {
	for i := range toasts {
		if _, err := fmt.Fprintln(w, output.FormatField(&toasts[i], field)); err != nil {
			return err
		}
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), requestTimeout)
	defer cancel()

	c := newClient()

	if historyOpts.clear {
		if err := c.ClearHistory(ctx); err != nil {
			return historyError(err)
		}
		return nil
	}

	q, err := historyQuery()
	if err != nil {
		return err
	}

	entries, err := c.History(ctx, q)
	if err != nil {
		return historyError(err)
	}

	f, err := historyOpts.formatter()
	if err != nil {
		return err
	}
	return f.FormatHistory(cmd.OutOrStdout(), entries)
}

// historyQuery validates the filter flags locally so typos fail before
// a round trip.
func historyQuery() (client.HistoryQuery, error) {
	q := client.HistoryQuery{
		Limit:  historyOpts.limit,
		Since:  historyOpts.since,
		Filter: historyOpts.filter,
	}

	if q.Since != "" {
		if _, err := history.ParseDuration(q.Since); err != nil {
			return q, err
		}
	}
	if historyOpts.reason != "" {
		r := history.Reason(strings.ToLower(historyOpts.reason))
		valid := false
		for _, v := range history.ValidReasons() {
			if r == v {
				valid = true
				break
			}
		}
		if !valid {
			return q, fmt.Errorf("invalid reason %q, must be one of: %v", historyOpts.reason, history.ValidReasons())
		}
		q.Reason = r
	}
	if historyOpts.color != "" {
		color := model.Color(strings.ToLower(historyOpts.color))
		if !color.Valid() {
			return q, fmt.Errorf("invalid color %q, must be one of: %s", historyOpts.color, joinColors())
		}
		q.Color = color
	}
	if q.Filter != "" {
		if _, err := history.ParseFilter(q.Filter); err != nil {
			return q, err
		}
	}
	return q, nil
}

func historyError(err error) error {
	if errors.Is(err, client.ErrNotFound) {
		return errors.New("history is disabled on the daemon")
	}
	return fmt.Errorf("failed to query history: %w", err)
}
