package daemon

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/client"
	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Listen = "127.0.0.1:0"
	cfg.History.Path = filepath.Join(t.TempDir(), "history.jsonl")
	return cfg
}

// startDaemon serves d on a loopback listener and returns a client for it.
func startDaemon(t *testing.T, d *Daemon) (*client.Client, string) {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Serve(ctx, l) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	base := "http://" + l.Addr().String()
	c := client.New(base)
	require.Eventually(t, func() bool {
		return c.HealthCheck(context.Background()) == nil
	}, 2*time.Second, 10*time.Millisecond)
	return c, base
}

func TestDaemon_EndToEnd(t *testing.T) {
	d, err := New(Options{Config: testConfig(t), Version: "test"})
	require.NoError(t, err)
	d.Notifier().SetEnabled(false)

	c, base := startDaemon(t, d)
	ctx := context.Background()

	id, err := c.Add(ctx, model.Options{Title: "Deploy", Duration: model.Ptr(time.Duration(0))})
	require.NoError(t, err)

	toasts, err := c.Toasts(ctx)
	require.NoError(t, err)
	require.Len(t, toasts, 1)
	assert.Equal(t, id, toasts[0].ID)

	require.NoError(t, c.Remove(ctx, id))

	require.Eventually(t, func() bool {
		return d.History().Count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	entries, err := c.History(ctx, client.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, history.ReasonDismissed, entries[0].Reason)
	assert.Equal(t, "Deploy", entries[0].Toast.Title)

	var body string
	require.Eventually(t, func() bool {
		body = scrape(base)
		return strings.Contains(body, `toastify_toasts_removed_total{reason="dismissed"} 1`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, body, `toastify_toasts_added_total{color="primary"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

// scrape fetches the metrics page, returning "" on any error so it can
// be polled.
func scrape(base string) string {
	resp, err := http.Get(base + "/metrics")
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(body)
}

func TestDaemon_StartupToast(t *testing.T) {
	d, err := New(Options{Config: testConfig(t), Version: "1.2.3"})
	require.NoError(t, err)

	c, _ := startDaemon(t, d)

	toasts, err := c.Toasts(context.Background())
	require.NoError(t, err)
	require.Len(t, toasts, 1)
	assert.Equal(t, "toastify Started", toasts[0].Title)
	assert.Contains(t, toasts[0].Description, "v1.2.3")
	assert.Equal(t, model.ColorInfo, toasts[0].Color)
}

func TestDaemon_HistoryHydrated(t *testing.T) {
	cfg := testConfig(t)

	p, err := history.NewJSONLPersistence(cfg.History.Path)
	require.NoError(t, err)
	require.NoError(t, p.Append(
		history.Entry{Toast: model.Toast{ID: "toast-1", Title: "one"}, Reason: history.ReasonExpired, RemovedAt: time.Now()},
		history.Entry{Toast: model.Toast{ID: "toast-2", Title: "two"}, Reason: history.ReasonCleared, RemovedAt: time.Now()},
	))
	require.NoError(t, p.Close())

	d, err := New(Options{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	assert.Equal(t, 2, d.History().Count())
	_, ok := d.History().Get("toast-2")
	assert.True(t, ok)
}

func TestDaemon_HistoryDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = false

	d, err := New(Options{Config: cfg})
	require.NoError(t, err)
	d.Notifier().SetEnabled(false)
	assert.Nil(t, d.History())

	_, base := startDaemon(t, d)
	resp, err := http.Get(base + "/api/history")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDaemon_ApplyConfig(t *testing.T) {
	t.Setenv(config.EnvMaxToasts, "")

	d, err := New(Options{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	next := config.DefaultConfig()
	next.Toasts.Duration = config.Duration(2 * time.Second)
	next.Toasts.MaxToasts = 2
	next.Toasts.ShowIcon = false
	next.History.Limit = 7

	d.ApplyConfig(next)

	r := d.Resolver()
	assert.Equal(t, 2*time.Second, r.EffectiveDuration(nil))
	assert.Equal(t, 2, r.EffectiveMaxToasts(0))
	assert.False(t, r.ShowIcon(nil))
	assert.Equal(t, 7, d.History().Limit())

	toasts := d.Stack().Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Configuration Reloaded", toasts[0].Title)
	assert.Empty(t, toasts[0].Icon, "show_icon=false applies to internal toasts too")
}

func TestDaemon_ApplyConfigKeepsEnvOverride(t *testing.T) {
	t.Setenv(config.EnvMaxToasts, "9")

	d, err := New(Options{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(d.Close)

	next := config.DefaultConfig()
	next.Toasts.MaxToasts = 2
	d.ApplyConfig(next)

	assert.Equal(t, 9, d.Resolver().EffectiveMaxToasts(0))
	assert.Equal(t, 2, next.Toasts.MaxToasts, "reloaded config is not mutated")
}

func TestDaemon_RunBadAddress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.Listen = "256.0.0.1:bad"

	d, err := New(Options{Config: cfg})
	require.NoError(t, err)

	err = d.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
