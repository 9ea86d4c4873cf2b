package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// Terminal colors per toast color.
var colorPalette = map[model.Color]lipgloss.Color{
	model.ColorPrimary:   lipgloss.Color("12"),
	model.ColorSecondary: lipgloss.Color("13"),
	model.ColorSuccess:   lipgloss.Color("10"),
	model.ColorInfo:      lipgloss.Color("14"),
	model.ColorWarning:   lipgloss.Color("11"),
	model.ColorError:     lipgloss.Color("9"),
	model.ColorNeutral:   lipgloss.Color("7"),
}

// ColorStyle returns the terminal style for a toast color.
func ColorStyle(c model.Color) lipgloss.Style {
	fg, ok := colorPalette[c]
	if !ok {
		fg = colorPalette[model.ColorNeutral]
	}
	return lipgloss.NewStyle().Foreground(fg).Bold(true)
}

// PlainFormatter formats toasts as plain text.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	return &PlainFormatter{
		opts:     opts,
		template: parseTemplate("plain", opts.Template),
	}
}

// Format writes toasts as plain text.
func (f *PlainFormatter) Format(w io.Writer, toasts []model.Toast) error {
	now := f.opts.now()
	for i := range toasts {
		t := &toasts[i]
		data := templateData{
			Index:     i + 1,
			Toast:     t,
			Time:      relativeTime(t.CreatedAt, now),
			Remaining: remaining(t, now),
		}
		if err := f.write(w, data); err != nil {
			return err
		}
	}
	return nil
}

// FormatHistory writes history entries as plain text.
func (f *PlainFormatter) FormatHistory(w io.Writer, entries []history.Entry) error {
	now := f.opts.now()
	for i := range entries {
		data := templateData{
			Index:  i + 1,
			Toast:  &entries[i].Toast,
			Reason: entries[i].Reason,
			Time:   relativeTime(entries[i].RemovedAt, now),
		}
		if err := f.write(w, data); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) write(w io.Writer, data templateData) error {
	if f.template != nil {
		return f.template.Execute(w, data)
	}

	t := data.Toast
	var sb strings.Builder

	if f.opts.ShowIndex {
		sb.WriteString(fmt.Sprintf("[%d] ", data.Index))
	}

	tag := fmt.Sprintf("<%s>", t.Color)
	if f.opts.Color {
		tag = ColorStyle(t.Color).Render(tag)
	}
	sb.WriteString(tag + " ")

	title := t.Title
	if title == "" {
		title = "(untitled)"
	}
	sb.WriteString(title)

	var meta []string
	if data.Reason != "" {
		meta = append(meta, string(data.Reason))
	}
	if f.opts.ShowTime {
		meta = append(meta, data.Time)
		if data.Remaining != "" {
			meta = append(meta, data.Remaining)
		}
	}
	if len(meta) > 0 {
		sb.WriteString(" (" + strings.Join(meta, ", ") + ")")
	}
	sb.WriteString("\n")

	sb.WriteString("    " + t.ID + "\n")
	if t.Description != "" {
		sb.WriteString("    " + sanitize(t.Description, f.opts.DescMaxLen) + "\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// FormatField outputs a specific field from a toast.
func FormatField(t *model.Toast, field string) string {
	switch strings.ToLower(field) {
	case "id":
		return t.ID
	case "title", "summary":
		return t.Title
	case "description", "body":
		return t.Description
	case "color", "kind":
		return string(t.Color)
	case "icon":
		return t.Icon
	case "all", "full":
		return fmt.Sprintf("%s\n%s", t.Title, t.Description)
	default:
		return t.Title
	}
}
