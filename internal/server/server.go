// Package server exposes a toast stack over HTTP and WebSocket.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmylchreest/toastify/internal/api"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/metrics"
	"github.com/jmylchreest/toastify/internal/stack"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Server serves the toast API.
type Server struct {
	stack    *stack.Stack
	history  *history.History
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	hub      *Hub
	logger   *slog.Logger
	wsBuffer int

	router chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables the history endpoint.
func WithHistory(h *history.History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithMetrics enables the metrics endpoint. m may be nil to serve g
// without tracking WebSocket clients.
func WithMetrics(m *metrics.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithWSBuffer sets the per-client WebSocket frame buffer.
func WithWSBuffer(n int) Option {
	return func(s *Server) {
		s.wsBuffer = n
	}
}

// New creates a Server for st.
func New(st *stack.Stack, opts ...Option) *Server {
	s := &Server{
		stack:    st,
		logger:   slog.Default(),
		wsBuffer: 16,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(s.wsBuffer, s.logger)
	if s.metrics != nil {
		s.hub.onConnect = s.metrics.WSClientConnected
		s.hub.onDisconnect = s.metrics.WSClientDisconnected
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get(api.PathHealth, s.handleHealth)

	r.Route(api.PathToasts, func(r chi.Router) {
		r.Get("/", s.handleListToasts)
		r.Post("/", s.handleAddToast)
		r.Delete("/", s.handleClearToasts)
		// One param name per segment; POST reads it as the category.
		r.Post("/{id}", s.handleAddCategory)
		r.Get("/{id}", s.handleGetToast)
		r.Delete("/{id}", s.handleRemoveToast)
	})

	r.Get(api.PathConfig, s.handleConfig)
	r.Get(api.PathHistory, s.handleHistory)
	r.Delete(api.PathHistory, s.handleClearHistory)

	r.Get(api.PathWS, s.handleWebSocket)

	if s.gatherer != nil {
		r.Handle(api.PathMetrics, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Serve broadcasts stack changes and serves HTTP on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.hub.Follow(ctx, s.stack)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(l)
	}()

	s.logger.Info("http server listening", "addr", l.Addr().String())

	select {
	case err := <-errCh:
		s.hub.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not closed by Shutdown.
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// requestLogger logs each request at debug level.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
