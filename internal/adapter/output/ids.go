package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// IDsFormatter outputs just the toast ids, one per line.
// Useful for piping to other commands (e.g., xargs toastify dismiss).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes toast ids to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, toasts []model.Toast) error {
	for _, t := range toasts {
		if _, err := fmt.Fprintln(w, t.ID); err != nil {
			return err
		}
	}
	return nil
}

// FormatHistory writes the ids of removed toasts, one per line.
func (f *IDsFormatter) FormatHistory(w io.Writer, entries []history.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.Toast.ID); err != nil {
			return err
		}
	}
	return nil
}
