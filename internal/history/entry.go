// Package history keeps a bounded record of toasts that have left the
// stack, optionally persisted to a JSONL file.
package history

import (
	"time"

	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/stack"
)

// Reason is why a toast left the stack.
type Reason string

const (
	ReasonDismissed Reason = "dismissed"
	ReasonExpired   Reason = "expired"
	ReasonEvicted   Reason = "evicted"
	ReasonCleared   Reason = "cleared"
)

// ValidReasons returns all valid reason values.
func ValidReasons() []Reason {
	return []Reason{ReasonDismissed, ReasonExpired, ReasonEvicted, ReasonCleared}
}

// ReasonFor maps a stack change to a removal reason. The second result is
// false for changes that remove nothing.
func ReasonFor(c stack.ChangeType) (Reason, bool) {
	switch c {
	case stack.ChangeRemove:
		return ReasonDismissed, true
	case stack.ChangeExpire:
		return ReasonExpired, true
	case stack.ChangeEvict:
		return ReasonEvicted, true
	case stack.ChangeClear:
		return ReasonCleared, true
	default:
		return "", false
	}
}

// Entry is one removed toast.
type Entry struct {
	Toast     model.Toast `json:"toast"`
	Reason    Reason      `json:"reason"`
	RemovedAt time.Time   `json:"removedAt"`
}

// Visible returns how long the toast was on the stack.
func (e Entry) Visible() time.Duration {
	if e.Toast.CreatedAt.IsZero() || e.RemovedAt.Before(e.Toast.CreatedAt) {
		return 0
	}
	return e.RemovedAt.Sub(e.Toast.CreatedAt)
}
