package history

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jmylchreest/toastify/internal/stack"
)

// recordBuffer sizes the stack subscription used by Follow.
const recordBuffer = 256

// ChangeEvent signals that history content changed.
type ChangeEvent struct {
	Count int
}

// History holds the most recent removed toasts, oldest first, capped at
// a limit. A zero limit keeps nothing.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	limit   int

	persistence Persistence
	logger      *slog.Logger
	now         func() time.Time
	onError     func(error)

	subscribers []chan ChangeEvent
	closed      bool
}

// Option configures a History.
type Option func(*History)

// WithPersistence backs the history with p.
func WithPersistence(p Persistence) Option {
	return func(h *History) {
		h.persistence = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		h.logger = l
	}
}

// WithErrorHandler sets a callback for errors recording followed changes.
func WithErrorHandler(fn func(error)) Option {
	return func(h *History) {
		h.onError = fn
	}
}

// WithClock sets the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		h.now = now
	}
}

// New creates a History holding at most limit entries.
func New(limit int, opts ...Option) *History {
	h := &History{
		entries: make([]Entry, 0),
		limit:   max(limit, 0),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record appends entries, dropping the oldest beyond the limit.
func (h *History) Record(es ...Entry) error {
	if len(es) == 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}

	h.entries = append(h.entries, es...)
	pruned := h.pruneLocked()

	if h.persistence != nil {
		var err error
		if pruned > 0 {
			err = h.persistence.Rewrite(h.entries)
		} else {
			err = h.persistence.Append(es...)
		}
		if err != nil {
			return err
		}
	}

	h.notifyChange(ChangeEvent{Count: len(es)})
	return nil
}

func (h *History) pruneLocked() int {
	excess := len(h.entries) - h.limit
	if excess <= 0 {
		return 0
	}
	h.entries = slices.Delete(h.entries, 0, excess)
	return excess
}

// RecordChange converts a stack change into entries and records them.
func (h *History) RecordChange(ev stack.ChangeEvent) error {
	reason, ok := ReasonFor(ev.Type)
	if !ok || len(ev.Toasts) == 0 {
		return nil
	}

	now := h.now()
	es := make([]Entry, 0, len(ev.Toasts))
	for _, t := range ev.Toasts {
		es = append(es, Entry{Toast: t, Reason: reason, RemovedAt: now})
	}
	return h.Record(es...)
}

// Follow records every removal from s until ctx is done or s is closed.
// The subscription is in place when Follow returns. More than
// recordBuffer unread events are dropped by the stack and never recorded;
// the stack logs each drop and counts it in Stack.Dropped.
func (h *History) Follow(ctx context.Context, s *stack.Stack) {
	events := s.SubscribeBuffered(recordBuffer)
	go func() {
		defer s.Unsubscribe(events)
		h.consume(ctx, events)
	}()
}

func (h *History) consume(ctx context.Context, events <-chan stack.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.RecordChange(ev); err != nil {
				h.logger.Warn("failed to record toast history", "type", ev.Type, "error", err)
				if h.onError != nil {
					h.onError(err)
				}
			}
		}
	}
}

// All returns all entries, newest first.
func (h *History) All() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := slices.Clone(h.entries)
	slices.Reverse(result)
	return result
}

// Filter returns entries matching opts, newest first.
func (h *History) Filter(opts FilterOptions) []Entry {
	return Filter(h.All(), opts, h.now())
}

// Get returns the most recent entry for a toast id.
func (h *History) Get(id string) (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Toast.ID == id {
			return h.entries[i], true
		}
	}
	return Entry{}, false
}

// Count returns the number of entries.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Limit returns the configured cap.
func (h *History) Limit() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.limit
}

// SetLimit changes the cap, pruning immediately if it shrank.
func (h *History) SetLimit(limit int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}
	h.limit = max(limit, 0)
	if h.pruneLocked() > 0 && h.persistence != nil {
		return h.persistence.Rewrite(h.entries)
	}
	return nil
}

// Clear removes all entries.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}

	count := len(h.entries)
	h.entries = make([]Entry, 0)
	if h.persistence != nil {
		if err := h.persistence.Clear(); err != nil {
			return err
		}
	}

	h.notifyChange(ChangeEvent{Count: count})
	return nil
}

// Hydrate loads entries from persistence, keeping the newest up to the
// limit.
func (h *History) Hydrate() error {
	if h.persistence == nil {
		return nil
	}

	entries, err := h.persistence.Load()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(entries, h.entries...)
	if h.pruneLocked() > 0 {
		if err := h.persistence.Rewrite(h.entries); err != nil {
			return err
		}
	}

	h.logger.Debug("history hydrated", "entries", len(h.entries))
	if len(entries) > 0 {
		h.notifyChange(ChangeEvent{Count: len(entries)})
	}
	return nil
}

// Subscribe returns a channel that receives change events.
func (h *History) Subscribe() <-chan ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ChangeEvent, 10)
	h.subscribers = append(h.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription.
func (h *History) Unsubscribe(ch <-chan ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subscribers {
		if sub == ch {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close releases resources and closes all subscriber channels.
func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, ch := range h.subscribers {
		close(ch)
	}
	h.subscribers = nil

	if h.persistence != nil {
		return h.persistence.Close()
	}
	return nil
}

// notifyChange sends a change event to all subscribers (non-blocking).
func (h *History) notifyChange(event ChangeEvent) {
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Errors
var (
	ErrHistoryClosed = historyError("history is closed")
)

type historyError string

func (e historyError) Error() string {
	return string(e)
}
