package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/schedule/schedtest"
	"github.com/jmylchreest/toastify/internal/stack"
)

func newTestModel(t *testing.T, opts ...func(*RunOptions)) (Model, *stack.Stack, *schedtest.Fake) {
	t.Helper()
	fake := schedtest.New()
	s := stack.New(config.NewResolver(nil), stack.WithScheduler(fake))
	t.Cleanup(s.Close)

	ro := RunOptions{Stack: s, Now: fake.Now}
	for _, opt := range opts {
		opt(&ro)
	}
	m := update(t, New(ro), tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, s, fake
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)})
}

func listTitles(m Model) []string {
	var out []string
	for _, item := range m.list.Items() {
		out = append(out, item.(toastItem).toast.Title)
	}
	return out
}

func TestModel_AddCategories(t *testing.T) {
	m, s, _ := newTestModel(t)

	for _, k := range []string{"s", "e", "i", "w"} {
		m = press(t, m, k)
	}

	toasts := s.Toasts()
	require.Len(t, toasts, 4)
	assert.Equal(t, model.ColorSuccess, toasts[0].Color)
	assert.Equal(t, model.ColorError, toasts[1].Color)
	assert.Equal(t, model.ColorInfo, toasts[2].Color)
	assert.Equal(t, model.ColorWarning, toasts[3].Color)
	assert.Equal(t, model.IconSuccess, toasts[0].Icon)
	assert.Equal(t, "Playground toast #4", toasts[3].Description)

	// Newest first.
	assert.Equal(t, []string{"Battery low", "3 new messages", "Connection lost", "Saved"}, listTitles(m))
}

func TestModel_Sticky(t *testing.T) {
	m, s, fake := newTestModel(t)

	m = press(t, m, "t")
	assert.True(t, m.sticky)
	m = press(t, m, "s")

	toasts := s.Toasts()
	require.Len(t, toasts, 1)
	assert.Zero(t, toasts[0].Duration)

	fake.Advance(time.Hour)
	assert.Equal(t, 1, s.Len())

	m = press(t, m, "t")
	assert.False(t, m.sticky)
}

func TestModel_DismissSelected(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = press(t, m, "s")
	m = press(t, m, "e")

	m = press(t, m, "d")
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "Saved", s.Toasts()[0].Title)
	assert.Equal(t, []string{"Saved"}, listTitles(m))
}

func TestModel_Clear(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = press(t, m, "s")
	m = press(t, m, "w")

	m = press(t, m, "c")
	assert.Zero(t, s.Len())
	assert.Empty(t, m.list.Items())
}

func TestModel_DetailMode(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = press(t, m, "i")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeDetail, m.mode)
	assert.Equal(t, s.Toasts()[0].ID, m.selected)
	assert.Contains(t, m.View(), "Toast Detail")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeList, m.mode)
	assert.Empty(t, m.selected)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, "d")
	assert.Equal(t, ModeList, m.mode)
	assert.Zero(t, s.Len())
}

func TestModel_DetailClosesWhenToastLeaves(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = press(t, m, "i")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ModeDetail, m.mode)

	s.Remove(m.selected)
	m = update(t, m, stackChangedMsg{event: stack.ChangeEvent{Type: stack.ChangeRemove}})
	assert.Equal(t, ModeList, m.mode)
	assert.Empty(t, m.list.Items())
}

func TestModel_WatchForChanges(t *testing.T) {
	m, s, _ := newTestModel(t)

	s.Add(model.Options{Title: "external"})
	msg := m.watchForChanges()
	changed, ok := msg.(stackChangedMsg)
	require.True(t, ok)
	assert.Equal(t, stack.ChangeAdd, changed.event.Type)

	m = update(t, m, changed)
	assert.Equal(t, []string{"external"}, listTitles(m))

	s.Close()
	for range 8 {
		if m.watchForChanges() == nil {
			return
		}
	}
	t.Fatal("watchForChanges did not stop after close")
}

func TestModel_HistoryMode(t *testing.T) {
	h := history.New(10)
	m, s, fake := newTestModel(t, func(o *RunOptions) { o.History = h })

	m = press(t, m, "h")
	require.Equal(t, ModeHistory, m.mode)
	assert.Contains(t, m.renderHistory(), "No toasts removed yet.")

	id := s.Success("Saved", "")
	toast, _ := s.Get(id)
	require.NoError(t, h.Record(history.Entry{Toast: toast, Reason: history.ReasonDismissed, RemovedAt: fake.Now()}))

	out := m.renderHistory()
	assert.Contains(t, out, "Saved")
	assert.Contains(t, out, "dismissed")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeList, m.mode)
}

func TestModel_HistoryDisabled(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Equal(t, "History is disabled.", m.renderHistory())
}

func TestModel_HelpToggle(t *testing.T) {
	m, _, _ := newTestModel(t)
	m = press(t, m, "?")
	assert.Equal(t, ModeHelp, m.mode)
	assert.Contains(t, m.View(), "add success")
	m = press(t, m, "?")
	assert.Equal(t, ModeList, m.mode)
}

func TestModel_StatusMessages(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = update(t, m, statusMsg{text: "hello"})
	assert.Contains(t, m.View(), "hello")

	m = update(t, m, clearStatusMsg{})
	assert.Empty(t, m.statusMsg)

	m = update(t, m, copyResultMsg{err: errors.New("boom")})
	assert.Empty(t, m.statusMsg) // arrives as a follow-up command
}

func TestModel_ViewNotReady(t *testing.T) {
	fake := schedtest.New()
	s := stack.New(nil, stack.WithScheduler(fake))
	t.Cleanup(s.Close)
	assert.Equal(t, "Initializing...", New(RunOptions{Stack: s}).View())
}

func TestDescribeChange(t *testing.T) {
	toasts := []model.Toast{{Title: "Saved"}}
	assert.Equal(t, "Expired: Saved", describeChange(stack.ChangeEvent{Type: stack.ChangeExpire, Toasts: toasts}))
	assert.Equal(t, "Evicted oldest: Saved", describeChange(stack.ChangeEvent{Type: stack.ChangeEvict, Toasts: toasts}))
	assert.Empty(t, describeChange(stack.ChangeEvent{Type: stack.ChangeAdd, Toasts: toasts}))
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", progressBar(time.Second, 2*time.Second, 10))
	assert.Equal(t, "░░░░", progressBar(0, time.Second, 4))
	assert.Equal(t, "████", progressBar(2*time.Second, time.Second, 4))
	assert.Empty(t, progressBar(time.Second, 0, 4))
}

func TestBuildKeybindBar_FitsWidth(t *testing.T) {
	m, _, _ := newTestModel(t)

	full := m.buildKeybindBar(0, "list")
	assert.Contains(t, full, "history")

	narrow := m.buildKeybindBar(20, "list")
	assert.Contains(t, narrow, "quit")
	assert.NotContains(t, narrow, "history")
	for _, line := range strings.Split(narrow, "\n") {
		assert.LessOrEqual(t, len([]rune(stripStyles(line))), 20)
	}
}

func stripStyles(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func TestDetectClipboardCommand(t *testing.T) {
	only := func(bin string) func(string) (string, error) {
		return func(name string) (string, error) {
			if name == bin {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		}
	}

	assert.Equal(t, "wl-copy", detectClipboardCommand(only("wl-copy")))
	assert.Equal(t, "xclip -selection clipboard", detectClipboardCommand(only("xclip")))
	assert.Equal(t, "xsel --clipboard --input", detectClipboardCommand(only("xsel")))
	assert.Empty(t, detectClipboardCommand(only("none")))
}
