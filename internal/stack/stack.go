// Package stack implements the toast stack: the ordered, capacity-bounded
// collection of active toasts, their auto-dismiss timers, and the id-based
// mutation API that renderers subscribe to.
package stack

import (
	"log/slog"
	"slices"
	"sync"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/schedule"
)

// ChangeType indicates the type of stack change.
type ChangeType int

const (
	// ChangeAdd indicates a toast was appended.
	ChangeAdd ChangeType = iota
	// ChangeRemove indicates a toast was removed by id.
	ChangeRemove
	// ChangeExpire indicates a toast's auto-dismiss timer fired.
	ChangeExpire
	// ChangeEvict indicates the oldest toast was dropped to make room.
	ChangeEvict
	// ChangeClear indicates the stack was emptied.
	ChangeClear
)

// String returns the string representation of ChangeType.
func (c ChangeType) String() string {
	switch c {
	case ChangeAdd:
		return "add"
	case ChangeRemove:
		return "remove"
	case ChangeExpire:
		return "expire"
	case ChangeEvict:
		return "evict"
	case ChangeClear:
		return "clear"
	default:
		return "unknown"
	}
}

// MarshalText renders the change type by name.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ChangeEvent signals stack content changes. Snapshot is the stack as it
// stood right after the change, so a subscriber that dropped earlier
// events can still render the current state.
type ChangeEvent struct {
	Type     ChangeType    `json:"type"`
	ID       string        `json:"id,omitempty"`
	Count    int           `json:"count"`
	Toasts   []model.Toast `json:"-"`
	Snapshot []model.Toast `json:"toasts"`
}

// subscriberBuffer is the per-subscriber event buffer.
const subscriberBuffer = 16

// Stack is the toast store shared by every producer and renderer in a
// process. Construct one per application and hand the pointer around;
// there is no package-level instance.
type Stack struct {
	mu     sync.Mutex
	toasts []model.Toast

	resolver *config.Resolver
	sched    schedule.Scheduler
	newID    func() string
	logger   *slog.Logger

	timers      map[string]schedule.Timer
	subscribers []chan ChangeEvent
	dropped     uint64
	closed      bool
}

// Option configures a Stack.
type Option func(*Stack)

// WithScheduler sets the scheduler used for auto-dismiss timers.
func WithScheduler(s schedule.Scheduler) Option {
	return func(st *Stack) {
		st.sched = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(st *Stack) {
		st.logger = l
	}
}

// WithIDFunc replaces the id generator.
func WithIDFunc(fn func() string) Option {
	return func(st *Stack) {
		st.newID = fn
	}
}

// New creates an empty Stack. A nil resolver resolves every setting to
// its hardcoded fallback.
func New(resolver *config.Resolver, opts ...Option) *Stack {
	if resolver == nil {
		resolver = config.NewResolver(nil)
	}

	s := &Stack{
		toasts:   make([]model.Toast, 0),
		resolver: resolver,
		sched:    schedule.Real(),
		newID:    model.NewID,
		logger:   slog.Default(),
		timers:   make(map[string]schedule.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver returns the configuration resolver the stack reads from.
func (s *Stack) Resolver() *config.Resolver {
	return s.resolver
}

// Add enqueues a toast built from opts and returns its id. Missing
// fields are defaulted; Add never fails. The only case it returns an
// empty id is after Close.
func (s *Stack) Add(opts model.Options) string {
	duration := s.resolver.EffectiveDuration(opts.Duration)
	capacity := s.resolver.EffectiveMaxToasts(opts.MaxToasts)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ""
	}

	// Trim before insert so the post-insert length never exceeds capacity.
	var evicted []model.Toast
	for len(s.toasts) >= capacity {
		evicted = append(evicted, s.toasts[0])
		s.toasts = slices.Delete(s.toasts, 0, 1)
	}

	toast := opts.Build()
	toast.ID = s.uniqueIDLocked()
	toast.Duration = duration
	toast.CreatedAt = s.sched.Now()
	if duration > 0 {
		toast.ExpiresAt = toast.CreatedAt.Add(duration)
	}
	s.toasts = append(s.toasts, toast)

	for _, e := range evicted {
		s.notifyLocked(ChangeEvent{Type: ChangeEvict, ID: e.ID, Count: 1, Toasts: []model.Toast{e}})
	}

	if duration > 0 {
		id := toast.ID
		s.timers[id] = s.sched.AfterFunc(duration, func() {
			s.expire(id)
		})
	}

	s.notifyLocked(ChangeEvent{Type: ChangeAdd, ID: toast.ID, Count: 1, Toasts: []model.Toast{toast}})
	s.mu.Unlock()

	for _, e := range evicted {
		s.logger.Debug("toast evicted", "id", e.ID, "capacity", capacity)
	}
	s.logger.Debug("toast added", "id", toast.ID, "color", toast.Color, "duration", duration)

	return toast.ID
}

// uniqueIDLocked draws ids until one is not live on the stack.
func (s *Stack) uniqueIDLocked() string {
	for {
		id := s.newID()
		if s.indexLocked(id) < 0 {
			return id
		}
	}
}

// Remove deletes the toast with the given id and then runs its callback.
// Unknown ids are ignored, which makes Remove idempotent and lets a late
// timer race a manual dismissal harmlessly.
func (s *Stack) Remove(id string) {
	s.remove(id, ChangeRemove)
}

// expire is the auto-dismiss path; it shares Remove's mutation path.
func (s *Stack) expire(id string) {
	s.mu.Lock()
	delete(s.timers, id)
	s.mu.Unlock()

	s.remove(id, ChangeExpire)
}

func (s *Stack) remove(id string, reason ChangeType) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if s.closed || idx < 0 {
		s.mu.Unlock()
		return
	}

	toast := s.toasts[idx]
	s.toasts = slices.Delete(s.toasts, idx, idx+1)
	s.notifyLocked(ChangeEvent{Type: reason, ID: id, Count: 1, Toasts: []model.Toast{toast}})
	s.mu.Unlock()

	s.logger.Debug("toast removed", "id", id, "reason", reason)

	// The callback runs outside the lock so it may call back into the stack.
	if toast.Callback != nil {
		s.runCallback(id, toast.Callback)
	}
}

func (s *Stack) runCallback(id string, cb func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("toast callback panicked", "id", id, "panic", r)
		}
	}()
	cb()
}

// Clear empties the stack. Callbacks of the cleared toasts are not run;
// their pending timers fire later as no-ops.
func (s *Stack) Clear() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	cleared := s.toasts
	s.toasts = make([]model.Toast, 0)
	s.notifyLocked(ChangeEvent{Type: ChangeClear, Count: len(cleared), Toasts: cleared})
	s.mu.Unlock()

	s.logger.Debug("stack cleared", "count", len(cleared))
}

// Toasts returns a snapshot of the stack in display order.
func (s *Stack) Toasts() []model.Toast {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the toast with the given id.
func (s *Stack) Get(id string) (model.Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return model.Toast{}, false
	}
	return s.toasts[idx].Clone(), true
}

// Len returns the number of active toasts.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.toasts)
}

// Subscribe returns a channel that receives change events. Events are
// dropped for a subscriber whose buffer is full.
func (s *Stack) Subscribe() <-chan ChangeEvent {
	return s.SubscribeBuffered(subscriberBuffer)
}

// SubscribeBuffered is Subscribe with an explicit buffer size, for
// consumers that must see every event under bursts.
func (s *Stack) SubscribeBuffered(size int) <-chan ChangeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan ChangeEvent, max(size, 1))
	if s.closed {
		close(ch)
		return ch
	}
	s.subscribers = append(s.subscribers, ch)
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (s *Stack) Unsubscribe(ch <-chan ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sub := range s.subscribers {
		if sub == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close stops pending timers and closes all subscriber channels. Later
// mutations are ignored.
func (s *Stack) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for _, ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = nil
}

func (s *Stack) indexLocked(id string) int {
	return slices.IndexFunc(s.toasts, func(t model.Toast) bool {
		return t.ID == id
	})
}

func (s *Stack) snapshotLocked() []model.Toast {
	out := make([]model.Toast, len(s.toasts))
	for i := range s.toasts {
		out[i] = s.toasts[i].Clone()
	}
	return out
}

// notifyLocked sends a change event to all subscribers (non-blocking).
func (s *Stack) notifyLocked(event ChangeEvent) {
	if len(s.subscribers) == 0 {
		return
	}
	event.Snapshot = s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Channel full; the next event carries a fresh snapshot.
			s.dropped++
			s.logger.Debug("subscriber full, change event dropped",
				"type", event.Type, "id", event.ID, "dropped", s.dropped)
		}
	}
}

// Dropped returns how many change events have been dropped across all
// subscribers because their buffers were full.
func (s *Stack) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Stack errors.
const (
	ErrStackClosed = stackError("stack is closed")
)

type stackError string

func (e stackError) Error() string {
	return string(e)
}
