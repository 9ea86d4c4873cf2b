package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

var dismissOpts struct {
	stdin bool
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [id...]",
	Short: "Dismiss toasts by id",
	Long: `Dismiss one or more toasts. Their callbacks run and they are
recorded in history as dismissed.

Unknown ids are ignored, so dismissing twice is harmless.

Examples:
  # Dismiss one toast
  toastify dismiss toast-01HZ3X2J5YFMK2V3P4Q6R7S8T9

  # Pick a toast with fuzzel and dismiss it
  toastify list --format dmenu | fuzzel -d | toastify dismiss --stdin`,
	RunE: runDismiss,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every toast from the stack",
	Long: `Remove every toast from the stack. Callbacks do not run; the
toasts are recorded in history as cleared.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newClient().Clear(cmd.Context()); err != nil {
			return fmt.Errorf("failed to clear stack: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dismissCmd, clearCmd)

	dismissCmd.Flags().BoolVar(&dismissOpts.stdin, "stdin", false,
		"Read ids from stdin (bare ids, dmenu lines or JSON; implied when piped)")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	ids := args
	if dismissOpts.stdin || (len(args) == 0 && stdinIsPipe()) {
		stdinIDs, err := readIDs(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		ids = append(ids, stdinIDs...)
	}
	ids = uniqueStrings(ids)

	if len(ids) == 0 {
		return errors.New("no toast ids provided")
	}

	c := newClient()
	var failed int
	for _, id := range ids {
		if err := c.Remove(cmd.Context(), id); err != nil {
			logger.Warn("failed to dismiss toast", "id", id, "error", err)
			failed++
			continue
		}
		logger.Debug("dismissed toast", "id", id)
	}

	if failed > 0 {
		return fmt.Errorf("failed to dismiss %d of %d toasts", failed, len(ids))
	}
	return nil
}

// idPattern matches a toast id: "toast-" and a 26 character ULID.
var idPattern = regexp.MustCompile(`toast-[0-9A-HJKMNP-TV-Z]{26}`)

// readIDs extracts toast ids from r. Lines may be bare ids, dmenu lines
// from "list --format dmenu" or JSON output; any id anywhere in a line
// counts.
func readIDs(r io.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ids = append(ids, idPattern.FindAllString(line, -1)...)
	}

	return ids, scanner.Err()
}

// uniqueStrings removes duplicates from a string slice.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(input))
	for _, s := range input {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			result = append(result, s)
		}
	}
	return result
}

// stdinIsPipe reports whether stdin has piped input.
func stdinIsPipe() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}
