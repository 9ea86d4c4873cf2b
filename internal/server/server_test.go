package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastify/internal/api"
	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/metrics"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/schedule/schedtest"
	"github.com/jmylchreest/toastify/internal/stack"
)

type testEnv struct {
	stack   *stack.Stack
	fake    *schedtest.Fake
	history *history.History
	server  *Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fake := schedtest.New()
	cfg := config.DefaultToastConfig()
	cfg.MaxToasts = 3
	st := stack.New(config.NewResolver(&cfg), stack.WithScheduler(fake))
	t.Cleanup(st.Close)

	h := history.New(10)
	t.Cleanup(func() { h.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))

	return &testEnv{
		stack:   st,
		fake:    fake,
		history: h,
		server:  New(st, WithHistory(h), WithMetrics(m, reg)),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[api.HealthResponse](t, rec).Status)
}

func TestServer_AddAndList(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts", `{"title":"Hello","color":"info","duration":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[api.AddResponse](t, rec).ID
	require.NotEmpty(t, id)

	rec = env.do(t, http.MethodGet, "/api/toasts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ToastsResponse](t, rec)
	require.Len(t, resp.Toasts, 1)
	assert.Equal(t, id, resp.Toasts[0].ID)
	assert.Equal(t, "Hello", resp.Toasts[0].Title)
	assert.Equal(t, model.ColorInfo, resp.Toasts[0].Color)
	assert.Zero(t, resp.Toasts[0].Duration)

	// Duration 0 never expires.
	env.fake.Advance(time.Hour)
	assert.Equal(t, 1, env.stack.Len())
}

func TestServer_AddEmptyBodyDefaults(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	toast, ok := env.stack.Get(decode[api.AddResponse](t, rec).ID)
	require.True(t, ok)
	assert.Equal(t, model.ColorPrimary, toast.Color)
	assert.Equal(t, config.FallbackDuration, toast.Duration)
}

func TestServer_AddMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Bad Request", decode[api.ErrorResponse](t, rec).Error)
	assert.Zero(t, env.stack.Len())
}

func TestServer_Category(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts/success", `{"title":"Saved"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	toast, ok := env.stack.Get(decode[api.AddResponse](t, rec).ID)
	require.True(t, ok)
	assert.Equal(t, "Saved", toast.Title)
	assert.Equal(t, model.ColorSuccess, toast.Color)
	assert.Equal(t, model.IconSuccess, toast.Icon)
}

func TestServer_CategoryOverrides(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts/error",
		`{"title":"Failed","overrides":{"showIcon":false,"duration":1000}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[api.AddResponse](t, rec).ID

	toast, _ := env.stack.Get(id)
	assert.Empty(t, toast.Icon)

	env.fake.Advance(time.Second)
	_, ok := env.stack.Get(id)
	assert.False(t, ok)
}

func TestServer_CategoryUnknownKind(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/toasts/fancy", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_GetToast(t *testing.T) {
	env := newTestEnv(t)
	id := env.stack.Add(model.Options{Title: "x"})

	rec := env.do(t, http.MethodGet, "/api/toasts/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode[model.Toast](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/toasts/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RemoveIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	id := env.stack.Add(model.Options{})

	for range 2 {
		rec := env.do(t, http.MethodDelete, "/api/toasts/"+id, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	rec := env.do(t, http.MethodDelete, "/api/toasts/never-existed", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.stack.Len())
}

func TestServer_Clear(t *testing.T) {
	env := newTestEnv(t)
	env.stack.Add(model.Options{})
	env.stack.Add(model.Options{})

	rec := env.do(t, http.MethodDelete, "/api/toasts", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.stack.Len())
}

func TestServer_CapacityOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	for _, title := range []string{"A", "B", "C", "D"} {
		rec := env.do(t, http.MethodPost, "/api/toasts", `{"title":"`+title+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	resp := decode[api.ToastsResponse](t, env.do(t, http.MethodGet, "/api/toasts", ""))
	require.Len(t, resp.Toasts, 3)
	assert.Equal(t, "B", resp.Toasts[0].Title)
	assert.Equal(t, "D", resp.Toasts[2].Title)
}

func TestServer_Config(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cfg := decode[api.ConfigResponse](t, rec)
	assert.Equal(t, config.PositionTopRight, cfg.Position)
	assert.Equal(t, config.ThemeDark, cfg.Theme)
	assert.Equal(t, int64(5000), cfg.Duration)
	assert.Equal(t, 3, cfg.MaxToasts)
	assert.True(t, cfg.ShowIcon)
}

func TestServer_History(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, env.history.Record(
		history.Entry{Toast: model.Toast{ID: "a", Color: model.ColorError}, Reason: history.ReasonExpired, RemovedAt: time.Now()},
		history.Entry{Toast: model.Toast{ID: "b", Color: model.ColorInfo}, Reason: history.ReasonDismissed, RemovedAt: time.Now()},
	))

	rec := env.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.HistoryResponse](t, rec)
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "b", resp.Entries[0].Toast.ID)

	rec = env.do(t, http.MethodGet, "/api/history?reason=expired", "")
	resp = decode[api.HistoryResponse](t, rec)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "a", resp.Entries[0].Toast.ID)

	rec = env.do(t, http.MethodGet, "/api/history?filter=color%3Dinfo&limit=5", "")
	resp = decode[api.HistoryResponse](t, rec)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "b", resp.Entries[0].Toast.ID)

	rec = env.do(t, http.MethodGet, "/api/history?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, env.history.Count())
}

func TestServer_HistoryDisabled(t *testing.T) {
	st := stack.New(nil, stack.WithScheduler(schedtest.New()))
	defer st.Close()
	srv := New(st)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Metrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "toastify_toasts_active")
}

func TestServer_AddAfterClose(t *testing.T) {
	env := newTestEnv(t)
	env.stack.Close()

	rec := env.do(t, http.MethodPost, "/api/toasts", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func readFrame(t *testing.T, conn *websocket.Conn) api.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f api.Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServer_WebSocket(t *testing.T) {
	env := newTestEnv(t)
	existing := env.stack.Add(model.Options{Title: "existing"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.server.Hub().Follow(ctx, env.stack)

	ts := httptest.NewServer(env.server.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	f := readFrame(t, conn)
	assert.Equal(t, api.FrameSnapshot, f.Type)
	require.Len(t, f.Toasts, 1)
	assert.Equal(t, existing, f.Toasts[0].ID)

	require.Eventually(t, func() bool {
		return env.server.Hub().ClientCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	id := env.stack.Success("Saved", "")
	f = readFrame(t, conn)
	assert.Equal(t, api.FrameType("add"), f.Type)
	assert.Equal(t, id, f.ID)
	assert.Len(t, f.Toasts, 2)

	env.stack.Remove(existing)
	f = readFrame(t, conn)
	assert.Equal(t, api.FrameType("remove"), f.Type)
	require.Len(t, f.Toasts, 1)
	assert.Equal(t, id, f.Toasts[0].ID)
}

func TestServer_ServeShutsDown(t *testing.T) {
	env := newTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- env.server.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
