package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/schedule/schedtest"
	"github.com/jmylchreest/toastify/internal/server"
	"github.com/jmylchreest/toastify/internal/stack"
)

func newTestClient(t *testing.T) (*Client, *stack.Stack, *schedtest.Fake) {
	t.Helper()

	fake := schedtest.New()
	st := stack.New(config.NewResolver(nil), stack.WithScheduler(fake))
	t.Cleanup(st.Close)

	h := history.New(10)
	t.Cleanup(func() { h.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.Follow(ctx, st)

	ts := httptest.NewServer(server.New(st, server.WithHistory(h)).Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL), st, fake
}

func TestNew_NormalizesURL(t *testing.T) {
	assert.Equal(t, "http://127.0.0.1:7878", New("127.0.0.1:7878").baseURL)
	assert.Equal(t, "https://example.com", New("https://example.com/").baseURL)
}

func TestClient_RoundTrip(t *testing.T) {
	c, st, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.HealthCheck(ctx))

	id, err := c.Add(ctx, model.Options{Title: "Hello", Duration: model.Ptr(time.Duration(0))})
	require.NoError(t, err)

	toast, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Hello", toast.Title)
	assert.Zero(t, toast.Duration)

	warn, err := c.Category(ctx, model.ColorWarning, "Careful", "disk at 90%", nil)
	require.NoError(t, err)

	toasts, err := c.Toasts(ctx)
	require.NoError(t, err)
	require.Len(t, toasts, 2)
	assert.Equal(t, model.IconWarning, toasts[1].Icon)

	require.NoError(t, c.Remove(ctx, warn))
	require.NoError(t, c.Remove(ctx, warn))
	assert.Equal(t, 1, st.Len())

	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, st.Len())
}

func TestClient_NotFound(t *testing.T) {
	c, _, _ := newTestClient(t)

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Category(context.Background(), model.ColorNeutral, "x", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Config(t *testing.T) {
	c, _, _ := newTestClient(t)

	cfg, err := c.Config(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cfg.Duration)
	assert.Equal(t, 5, cfg.MaxToasts)
	assert.True(t, cfg.ShowIcon)
}

func TestClient_History(t *testing.T) {
	c, st, fake := newTestClient(t)
	ctx := context.Background()

	id, err := c.Add(ctx, model.Options{Title: "short", Duration: model.Ptr(time.Second)})
	require.NoError(t, err)
	fake.Advance(time.Second)

	require.Eventually(t, func() bool {
		entries, err := c.History(ctx, HistoryQuery{Reason: history.ReasonExpired})
		return err == nil && len(entries) == 1 && entries[0].Toast.ID == id
	}, 5*time.Second, 20*time.Millisecond)
	assert.Zero(t, st.Len())

	require.NoError(t, c.ClearHistory(ctx))
	entries, err := c.History(ctx, HistoryQuery{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryQuery_Encode(t *testing.T) {
	assert.Empty(t, HistoryQuery{}.encode())
	assert.Equal(t, "?limit=5&reason=expired", HistoryQuery{Limit: 5, Reason: history.ReasonExpired}.encode())
}

func TestClient_Unreachable(t *testing.T) {
	c := New("127.0.0.1:1")
	assert.Error(t, c.HealthCheck(context.Background()))
}
