package stack

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/model"
)

func TestStack_CategoryPresets(t *testing.T) {
	tests := []struct {
		name  string
		add   func(s *Stack) string
		color model.Color
		icon  string
	}{
		{"success", func(s *Stack) string { return s.Success("Saved", "") }, model.ColorSuccess, model.IconSuccess},
		{"error", func(s *Stack) string { return s.Error("Failed", "") }, model.ColorError, model.IconError},
		{"info", func(s *Stack) string { return s.Info("FYI", "") }, model.ColorInfo, model.IconInfo},
		{"warning", func(s *Stack) string { return s.Warning("Careful", "") }, model.ColorWarning, model.IconWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStack(t, nil)

			toast, ok := s.Get(tt.add(s))
			require.True(t, ok)
			assert.Equal(t, tt.color, toast.Color)
			assert.Equal(t, tt.icon, toast.Icon)
		})
	}
}

func TestStack_SuccessExample(t *testing.T) {
	s, _ := newTestStack(t, nil)

	toast, ok := s.Get(s.Success("Saved", ""))
	require.True(t, ok)
	assert.Equal(t, "Saved", toast.Title)
	assert.Empty(t, toast.Description)
	assert.Equal(t, model.ColorSuccess, toast.Color)
	assert.Equal(t, model.IconSuccess, toast.Icon)
}

func TestStack_CategoryIconsHidden(t *testing.T) {
	s, _ := newTestStack(t, toastConfig(func(c *config.ToastConfig) { c.ShowIcon = false }))

	toast, _ := s.Get(s.Error("Failed", "disk full"))
	assert.Empty(t, toast.Icon)
	assert.Equal(t, model.ColorError, toast.Color)

	toast, _ = s.Get(s.Error("Failed", "", model.Options{ShowIcon: model.Ptr(true)}))
	assert.Equal(t, model.IconError, toast.Icon)
}

func TestStack_CategoryOverrideHidesIcon(t *testing.T) {
	s, _ := newTestStack(t, nil)

	toast, _ := s.Get(s.Info("FYI", "", model.Options{ShowIcon: model.Ptr(false)}))
	assert.Empty(t, toast.Icon)
}

func TestStack_CategoryOverridesWin(t *testing.T) {
	s, fake := newTestStack(t, nil)

	id := s.Warning("Careful", "desc", model.Options{
		Color:    model.ColorNeutral,
		Icon:     "i-lucide-bell",
		Title:    "Overridden",
		Duration: model.Ptr(time.Second),
	})

	toast, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, model.ColorNeutral, toast.Color)
	assert.Equal(t, "i-lucide-bell", toast.Icon)
	assert.Equal(t, "Overridden", toast.Title)
	assert.Equal(t, "desc", toast.Description)

	fake.Advance(time.Second)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestStack_CategoryByColor(t *testing.T) {
	s, _ := newTestStack(t, nil)

	toast, _ := s.Get(s.Category(model.ColorSuccess, "ok", ""))
	assert.Equal(t, model.IconSuccess, toast.Icon)

	toast, _ = s.Get(s.Category(model.ColorNeutral, "plain", ""))
	assert.Equal(t, model.ColorNeutral, toast.Color)
	assert.Empty(t, toast.Icon)
}
