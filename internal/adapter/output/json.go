package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// JSONFormatter formats toasts as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes toasts as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, toasts []model.Toast) error {
	if toasts == nil {
		toasts = []model.Toast{}
	}
	return encodeJSON(w, toasts)
}

// FormatHistory writes history entries as a JSON array.
func (f *JSONFormatter) FormatHistory(w io.Writer, entries []history.Entry) error {
	if entries == nil {
		entries = []history.Entry{}
	}
	return encodeJSON(w, entries)
}

// FormatSingle writes a single value as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, v any) error {
	return encodeJSON(w, v)
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
