package output

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// YAMLFormatter formats toasts as YAML.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// yamlToast is the YAML view of a toast. Durations are written in
// milliseconds to match the JSON API.
type yamlToast struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Color       model.Color   `yaml:"color"`
	Icon        string        `yaml:"icon,omitempty"`
	Orientation string        `yaml:"orientation"`
	Close       bool          `yaml:"close"`
	Progress    bool          `yaml:"progress"`
	Actions     []string      `yaml:"actions,omitempty"`
	Duration    int64         `yaml:"duration"`
	CreatedAt   time.Time     `yaml:"created_at"`
	ExpiresAt   *time.Time    `yaml:"expires_at,omitempty"`
	Avatar      *model.Avatar `yaml:"avatar,omitempty"`
}

type yamlEntry struct {
	Toast     yamlToast      `yaml:"toast"`
	Reason    history.Reason `yaml:"reason"`
	RemovedAt time.Time      `yaml:"removed_at"`
}

func toYAMLToast(t model.Toast) yamlToast {
	y := yamlToast{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Color:       t.Color,
		Icon:        t.Icon,
		Orientation: string(t.Orientation),
		Close:       t.Close.Enabled,
		Progress:    t.Progress.Enabled,
		Duration:    t.Duration.Milliseconds(),
		CreatedAt:   t.CreatedAt,
		Avatar:      t.Avatar,
	}
	for _, a := range t.Actions {
		y.Actions = append(y.Actions, a.Label)
	}
	if !t.ExpiresAt.IsZero() {
		e := t.ExpiresAt
		y.ExpiresAt = &e
	}
	return y
}

// Format writes toasts as a YAML sequence.
func (f *YAMLFormatter) Format(w io.Writer, toasts []model.Toast) error {
	out := make([]yamlToast, 0, len(toasts))
	for _, t := range toasts {
		out = append(out, toYAMLToast(t))
	}
	return encodeYAML(w, out)
}

// FormatHistory writes history entries as a YAML sequence.
func (f *YAMLFormatter) FormatHistory(w io.Writer, entries []history.Entry) error {
	out := make([]yamlEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, yamlEntry{
			Toast:     toYAMLToast(e.Toast),
			Reason:    e.Reason,
			RemovedAt: e.RemovedAt,
		})
	}
	return encodeYAML(w, out)
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
