package daemon

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/stack"
)

// NotificationLevel indicates the severity of an internal toast.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages.
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for recoverable problems.
	NotificationLevelWarning
	// NotificationLevelError is for failures that need attention.
	NotificationLevelError
)

// String returns the string representation of the level.
func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelInfo:
		return "info"
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l NotificationLevel) color() model.Color {
	switch l {
	case NotificationLevelWarning:
		return model.ColorWarning
	case NotificationLevelError:
		return model.ColorError
	default:
		return model.ColorInfo
	}
}

// Internal toasts share the user's stack and count against its
// capacity, so none of them are sticky.
const (
	internalDuration = 5 * time.Second
	errorDuration    = 30 * time.Second
)

// InternalNotifier raises toasts about the daemon's own events on its
// stack. Repeats of the same key within minInterval are dropped.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	stack  *stack.Stack
	now    func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration

	enabled bool
}

// NewInternalNotifier creates a new InternalNotifier for s.
func NewInternalNotifier(s *stack.Stack, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:         logger,
		stack:          s,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    5 * time.Second,
		enabled:        true,
	}
}

// SetEnabled enables or disables internal toasts.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets the minimum interval between toasts with the same key.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// SetClock sets the clock used for rate limiting.
func (n *InternalNotifier) SetClock(now func() time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.now = now
}

// Notify raises an internal toast unless rate-limited, returning its id
// or "" when nothing was raised.
func (n *InternalNotifier) Notify(key, title, description string, level NotificationLevel) string {
	n.mu.Lock()
	if !n.enabled || n.stack == nil {
		n.mu.Unlock()
		return ""
	}

	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal toast rate-limited", "key", key, "title", title)
		return ""
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	d := internalDuration
	if level == NotificationLevelError {
		d = errorDuration
	}

	n.logger.Debug("raising internal toast", "key", key, "title", title, "level", level)
	return n.stack.Category(level.color(), title, description, model.Options{Duration: &d})
}

// NotifyConfigReloaded raises a toast about the config being reloaded.
func (n *InternalNotifier) NotifyConfigReloaded() string {
	return n.Notify(
		"config-reload",
		"Configuration Reloaded",
		"toastify configuration has been successfully reloaded.",
		NotificationLevelInfo,
	)
}

// NotifyConfigError raises a toast about an invalid config file.
func (n *InternalNotifier) NotifyConfigError(err error) string {
	return n.Notify(
		"config-error",
		"Configuration Error",
		"Failed to reload configuration: "+err.Error(),
		NotificationLevelWarning,
	)
}

// NotifyHistoryError raises a toast about history persistence failing.
func (n *InternalNotifier) NotifyHistoryError(err error) string {
	return n.Notify(
		"history-error",
		"History Error",
		"Failed to persist toast history: "+err.Error(),
		NotificationLevelError,
	)
}

// NotifyStartup raises a toast that the daemon has started.
func (n *InternalNotifier) NotifyStartup(version, addr string) string {
	return n.Notify(
		"startup",
		"toastify Started",
		"Toast daemon v"+version+" is listening on "+addr+".",
		NotificationLevelInfo,
	)
}
