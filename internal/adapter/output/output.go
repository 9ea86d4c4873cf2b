// Package output provides output formatters for toasts and history.
package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// Formatter formats toasts and history entries for output.
type Formatter interface {
	// Format writes formatted toasts to the writer.
	Format(w io.Writer, toasts []model.Toast) error

	// FormatHistory writes formatted history entries to the writer.
	FormatHistory(w io.Writer, entries []history.Entry) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatPlain FormatType = "plain"
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatDmenu FormatType = "dmenu"
	FormatIDs   FormatType = "ids"
)

// ValidFormats returns all valid format values.
func ValidFormats() []FormatType {
	return []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatDmenu, FormatIDs}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (FormatType, error) {
	for _, f := range ValidFormats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q, must be one of: %v", s, ValidFormats())
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatDmenu:
		return NewDmenuFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template   string           // Custom template for dmenu/plain format
	ShowIndex  bool             // Show 1-based index prefix
	ShowTime   bool             // Show relative time
	DescMaxLen int              // Maximum description length (0 = unlimited)
	Separator  string           // Field separator for dmenu format
	Color      bool             // Style plain output by toast color
	Now        func() time.Time // Clock for relative times (nil = time.Now)
}

// DefaultFormatterOptions returns sensible defaults.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:  true,
		ShowTime:   true,
		DescMaxLen: 80,
		Separator:  " | ",
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// templateData provides data for custom templates.
type templateData struct {
	Index     int
	Toast     *model.Toast
	Reason    history.Reason // Set for history entries only
	Time      string         // Relative creation or removal time
	Remaining string         // Time left before expiry, empty if sticky
}

func parseTemplate(name, text string) *template.Template {
	if text == "" {
		return nil
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil
	}
	return tmpl
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"reltime": func(t time.Time) string {
			return relativeTime(t, time.Now())
		},
		"upper": strings.ToUpper,
	}
}

// relativeTime returns a human-readable time relative to now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// remaining describes the time left before a toast expires.
func remaining(t *model.Toast, now time.Time) string {
	if !t.AutoDismiss() {
		return ""
	}
	left := t.Remaining(now)
	if left <= 0 {
		return "expiring"
	}
	return "expires in " + left.Round(100*time.Millisecond).String()
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// sanitize cleans up text for single-line display.
func sanitize(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, maxLen)
}
