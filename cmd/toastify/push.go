package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toastify/internal/model"
)

var pushOpts struct {
	title       string
	description string
	color       string
	icon        string
	duration    time.Duration
	sticky      bool
	maxToasts   int
	noIcon      bool
	orientation string
	noClose     bool
	noProgress  bool
	actions     []string
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push a toast to the daemon",
	Long: `Push a toast to the running daemon and print its id.

Unset fields fall back to the daemon's configuration: duration and
capacity come from the config file, then the built-in defaults (5s, 5).

Examples:
  # A plain toast
  toastify push --title "Build finished"

  # Red, sticky, with two actions
  toastify push --title "Deploy failed" --color error --sticky \
    --action Retry --action Logs

  # Dismiss it later
  id=$(toastify push --title "Working..." --sticky)
  toastify dismiss "$id"`,
	Args: cobra.NoArgs,
	RunE: runPush,
}

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVarP(&pushOpts.title, "title", "t", "",
		"Toast title")
	pushCmd.Flags().StringVarP(&pushOpts.description, "description", "d", "",
		"Toast description")
	pushCmd.Flags().StringVarP(&pushOpts.color, "color", "c", "",
		fmt.Sprintf("Toast color (%s)", joinColors()))
	pushCmd.Flags().StringVar(&pushOpts.icon, "icon", "",
		"Icon glyph or name")
	pushCmd.Flags().StringVar(&pushOpts.orientation, "orientation", "",
		"Layout (vertical, horizontal)")
	pushCmd.Flags().StringSliceVar(&pushOpts.actions, "action", nil,
		"Action button label (repeatable)")
	pushCmd.Flags().BoolVar(&pushOpts.noClose, "no-close", false,
		"Hide the close button")
	pushCmd.Flags().BoolVar(&pushOpts.noProgress, "no-progress", false,
		"Hide the countdown bar")
	addTimingFlags(pushCmd)
}

// addTimingFlags registers the flags shared by push and the category
// shortcuts.
func addTimingFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&pushOpts.duration, "duration", 0,
		"Auto-dismiss after this long (default: from config)")
	cmd.Flags().BoolVar(&pushOpts.sticky, "sticky", false,
		"Never auto-dismiss")
	cmd.Flags().IntVar(&pushOpts.maxToasts, "max-toasts", 0,
		"Stack capacity for this insertion (default: from config)")
	cmd.Flags().BoolVar(&pushOpts.noIcon, "no-icon", false,
		"Do not show the category icon")
	cmd.MarkFlagsMutuallyExclusive("duration", "sticky")
}

func runPush(cmd *cobra.Command, args []string) error {
	opts, err := buildPushOptions(cmd)
	if err != nil {
		return err
	}
	opts.Title = pushOpts.title
	opts.Description = pushOpts.description

	id, err := newClient().Add(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("failed to push toast: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// buildPushOptions turns the flags that were actually set into toast
// options. Unset flags stay nil so the daemon's configuration applies.
func buildPushOptions(cmd *cobra.Command) (model.Options, error) {
	var opts model.Options
	flags := cmd.Flags()

	if flags.Changed("color") {
		c := model.Color(strings.ToLower(pushOpts.color))
		if !c.Valid() {
			return opts, fmt.Errorf("invalid color %q, must be one of: %s", pushOpts.color, joinColors())
		}
		opts.Color = c
	}
	if flags.Changed("orientation") {
		o := model.Orientation(strings.ToLower(pushOpts.orientation))
		if o != model.OrientationVertical && o != model.OrientationHorizontal {
			return opts, fmt.Errorf("invalid orientation %q, must be vertical or horizontal", pushOpts.orientation)
		}
		opts.Orientation = o
	}
	if flags.Changed("icon") {
		opts.Icon = pushOpts.icon
	}

	switch {
	case pushOpts.sticky:
		opts.Duration = model.Ptr(time.Duration(0))
	case flags.Changed("duration"):
		if pushOpts.duration < 0 {
			return opts, fmt.Errorf("duration must not be negative, use --sticky to disable auto-dismiss")
		}
		opts.Duration = model.Ptr(pushOpts.duration)
	}

	if flags.Changed("max-toasts") {
		if pushOpts.maxToasts < 1 {
			return opts, fmt.Errorf("max-toasts must be at least 1, got %d", pushOpts.maxToasts)
		}
		opts.MaxToasts = pushOpts.maxToasts
	}
	if pushOpts.noIcon {
		opts.ShowIcon = model.Ptr(false)
	}
	if pushOpts.noClose {
		opts.Close = &model.CloseButton{Enabled: false}
	}
	if pushOpts.noProgress {
		opts.Progress = &model.Progress{Enabled: false}
	}
	for _, label := range pushOpts.actions {
		opts.Actions = append(opts.Actions, model.Action{Label: label})
	}

	return opts, nil
}

func joinColors() string {
	colors := model.ValidColors()
	names := make([]string, len(colors))
	for i, c := range colors {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

// categoryCmd builds one of the success/error/info/warning shortcuts.
func categoryCmd(kind model.Color, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   string(kind) + " <title> [description]",
		Short: short,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := buildPushOptions(cmd)
			if err != nil {
				return err
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}

			id, err := newClient().Category(cmd.Context(), kind, args[0], description, &opts)
			if err != nil {
				return fmt.Errorf("failed to push %s toast: %w", kind, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	addTimingFlags(cmd)
	return cmd
}

func init() {
	rootCmd.AddCommand(
		categoryCmd(model.ColorSuccess, "Push a green success toast"),
		categoryCmd(model.ColorError, "Push a red error toast"),
		categoryCmd(model.ColorInfo, "Push a blue info toast"),
		categoryCmd(model.ColorWarning, "Push a yellow warning toast"),
	)
}
