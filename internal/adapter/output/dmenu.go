package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// DmenuFormatter formats one line per toast for dmenu/rofi/fuzzel. The
// id is always the last field so a picker's choice can be piped back to
// "toastify dismiss".
type DmenuFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewDmenuFormatter creates a new dmenu formatter.
func NewDmenuFormatter(opts FormatterOptions) *DmenuFormatter {
	return &DmenuFormatter{
		opts:     opts,
		template: parseTemplate("dmenu", opts.Template),
	}
}

// Format writes toasts in dmenu format (one per line).
func (f *DmenuFormatter) Format(w io.Writer, toasts []model.Toast) error {
	now := f.opts.now()
	for i := range toasts {
		data := templateData{
			Index: i + 1,
			Toast: &toasts[i],
			Time:  relativeTime(toasts[i].CreatedAt, now),
		}
		if _, err := fmt.Fprintln(w, f.formatLine(data)); err != nil {
			return err
		}
	}
	return nil
}

// FormatHistory writes history entries in dmenu format.
func (f *DmenuFormatter) FormatHistory(w io.Writer, entries []history.Entry) error {
	now := f.opts.now()
	for i := range entries {
		data := templateData{
			Index:  i + 1,
			Toast:  &entries[i].Toast,
			Reason: entries[i].Reason,
			Time:   relativeTime(entries[i].RemovedAt, now),
		}
		if _, err := fmt.Fprintln(w, f.formatLine(data)); err != nil {
			return err
		}
	}
	return nil
}

// formatLine formats: [index] [time] color [reason] title: description id
func (f *DmenuFormatter) formatLine(data templateData) string {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, data); err == nil {
			return buf.String()
		}
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = " | "
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", data.Index))
	}
	if f.opts.ShowTime {
		parts = append(parts, data.Time)
	}
	parts = append(parts, string(data.Toast.Color))
	if data.Reason != "" {
		parts = append(parts, string(data.Reason))
	}

	content := data.Toast.Title
	if desc := sanitize(data.Toast.Description, f.opts.DescMaxLen); desc != "" {
		content += ": " + desc
	}
	parts = append(parts, content, data.Toast.ID)

	return strings.Join(parts, sep)
}
