package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestResolver_Fallbacks(t *testing.T) {
	r := NewResolver(nil)

	assert.Equal(t, FallbackDuration, r.EffectiveDuration(nil))
	assert.Equal(t, FallbackMaxToasts, r.EffectiveMaxToasts(0))
	assert.Equal(t, FallbackShowIcon, r.ShowIcon(nil))
	assert.Equal(t, DefaultToastConfig(), r.Current())
}

func TestResolver_Precedence(t *testing.T) {
	cfg := DefaultToastConfig()
	cfg.Duration = Duration(8 * time.Second)
	cfg.MaxToasts = 3
	cfg.ShowIcon = false
	r := NewResolver(&cfg)

	t.Run("configured values beat fallbacks", func(t *testing.T) {
		assert.Equal(t, 8*time.Second, r.EffectiveDuration(nil))
		assert.Equal(t, 3, r.EffectiveMaxToasts(0))
		assert.False(t, r.ShowIcon(nil))
	})

	t.Run("per-call overrides beat configuration", func(t *testing.T) {
		assert.Equal(t, time.Second, r.EffectiveDuration(ptr(time.Second)))
		assert.Equal(t, 7, r.EffectiveMaxToasts(7))
		assert.True(t, r.ShowIcon(ptr(true)))
	})

	t.Run("explicit zero duration is respected", func(t *testing.T) {
		assert.Zero(t, r.EffectiveDuration(ptr(time.Duration(0))))
	})

	t.Run("non-positive capacity override is ignored", func(t *testing.T) {
		assert.Equal(t, 3, r.EffectiveMaxToasts(-1))
	})
}

func TestResolver_ZeroConfiguredDuration(t *testing.T) {
	cfg := DefaultToastConfig()
	cfg.Duration = 0
	cfg.MaxToasts = 0
	r := NewResolver(&cfg)

	// A configured zero duration means never; a zero capacity falls back.
	assert.Zero(t, r.EffectiveDuration(nil))
	assert.Equal(t, FallbackMaxToasts, r.EffectiveMaxToasts(0))
}

func TestResolver_Update(t *testing.T) {
	cfg := DefaultToastConfig()
	r := NewResolver(&cfg)

	// Mutating the caller's struct does not leak into the resolver.
	cfg.MaxToasts = 9
	assert.Equal(t, 5, r.EffectiveMaxToasts(0))

	next := DefaultToastConfig()
	next.MaxToasts = 2
	next.Position = PositionBottomLeft
	next.Theme = ThemeLight
	r.Update(&next)

	assert.Equal(t, 2, r.EffectiveMaxToasts(0))
	assert.Equal(t, PositionBottomLeft, r.Position())
	assert.Equal(t, ThemeLight, r.Theme())
}
