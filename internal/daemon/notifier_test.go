package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/schedule/schedtest"
	"github.com/jmylchreest/toastify/internal/stack"
)

func newTestNotifier(t *testing.T) (*InternalNotifier, *stack.Stack, *schedtest.Fake) {
	t.Helper()
	fake := schedtest.New()
	s := stack.New(config.NewResolver(nil), stack.WithScheduler(fake))
	t.Cleanup(s.Close)

	n := NewInternalNotifier(s, nil)
	n.SetClock(fake.Now)
	return n, s, fake
}

func TestInternalNotifier_Levels(t *testing.T) {
	n, s, _ := newTestNotifier(t)

	tests := []struct {
		level    NotificationLevel
		color    model.Color
		duration time.Duration
	}{
		{NotificationLevelInfo, model.ColorInfo, internalDuration},
		{NotificationLevelWarning, model.ColorWarning, internalDuration},
		{NotificationLevelError, model.ColorError, errorDuration},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			id := n.Notify("key-"+tt.level.String(), "Title", "Body", tt.level)
			require.NotEmpty(t, id)

			toast, ok := s.Get(id)
			require.True(t, ok)
			assert.Equal(t, tt.color, toast.Color)
			assert.Equal(t, tt.duration, toast.Duration)
			assert.Equal(t, stack.CategoryIcon(tt.color), toast.Icon)
		})
	}
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	n, s, fake := newTestNotifier(t)
	n.SetMinInterval(10 * time.Second)

	require.NotEmpty(t, n.NotifyConfigReloaded())
	assert.Empty(t, n.NotifyConfigReloaded())

	// Different keys are limited independently.
	assert.NotEmpty(t, n.NotifyConfigError(errors.New("bad toml")))

	fake.Advance(10 * time.Second)
	assert.NotEmpty(t, n.NotifyConfigReloaded())

	var reloads int
	for _, toast := range s.Toasts() {
		if toast.Title == "Configuration Reloaded" {
			reloads++
		}
	}
	assert.Equal(t, 1, reloads, "first reload toast expired after 5s")
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n, s, _ := newTestNotifier(t)
	n.SetEnabled(false)

	assert.Empty(t, n.NotifyStartup("1.0.0", "127.0.0.1:7878"))
	assert.Zero(t, s.Len())

	n.SetEnabled(true)
	assert.NotEmpty(t, n.NotifyStartup("1.0.0", "127.0.0.1:7878"))
}

func TestInternalNotifier_Messages(t *testing.T) {
	n, s, _ := newTestNotifier(t)

	id := n.NotifyConfigError(errors.New("max_toasts must be positive"))
	toast, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Configuration Error", toast.Title)
	assert.Equal(t, "Failed to reload configuration: max_toasts must be positive", toast.Description)

	id = n.NotifyHistoryError(errors.New("disk full"))
	toast, ok = s.Get(id)
	require.True(t, ok)
	assert.Equal(t, model.ColorError, toast.Color)
	assert.True(t, toast.AutoDismiss())
}

func TestInternalNotifier_ErrorsDoNotHoldCapacity(t *testing.T) {
	n, s, fake := newTestNotifier(t)

	id := n.NotifyHistoryError(errors.New("disk full"))
	require.NotEmpty(t, id)

	fake.Advance(errorDuration)
	_, ok := s.Get(id)
	assert.False(t, ok, "error toast expires and frees its slot")
	assert.Zero(t, s.Len())
}

func TestInternalNotifier_NilStack(t *testing.T) {
	n := NewInternalNotifier(nil, nil)
	assert.Empty(t, n.NotifyConfigReloaded())
}
