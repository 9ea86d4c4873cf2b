// Package api defines the JSON payloads shared by the HTTP server and
// its client.
package api

import (
	"github.com/jmylchreest/toastify/internal/config"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
)

// Route paths.
const (
	PathHealth  = "/health"
	PathToasts  = "/api/toasts"
	PathConfig  = "/api/config"
	PathHistory = "/api/history"
	PathWS      = "/ws"
	PathMetrics = "/metrics"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AddResponse is returned by the add endpoints.
type AddResponse struct {
	ID string `json:"id"`
}

// CategoryRequest is the body of POST /api/toasts/{kind}.
type CategoryRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Overrides   *model.Options `json:"overrides,omitempty"`
}

// ToastsResponse is the stack snapshot.
type ToastsResponse struct {
	Toasts []model.Toast `json:"toasts"`
	Count  int           `json:"count"`
}

// HistoryResponse lists removed toasts, newest first.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// ConfigResponse is the effective toast configuration.
type ConfigResponse struct {
	Position  config.Position `json:"position" toml:"position"`
	Theme     config.Theme    `json:"theme" toml:"theme"`
	Duration  int64           `json:"duration" toml:"duration"` // milliseconds, 0 = never
	MaxToasts int             `json:"maxToasts" toml:"max_toasts"`
	ShowIcon  bool            `json:"showIcon" toml:"show_icon"`
}

// NewConfigResponse resolves the effective values from r.
func NewConfigResponse(r *config.Resolver) ConfigResponse {
	return ConfigResponse{
		Position:  r.Position(),
		Theme:     r.Theme(),
		Duration:  r.EffectiveDuration(nil).Milliseconds(),
		MaxToasts: r.EffectiveMaxToasts(0),
		ShowIcon:  r.ShowIcon(nil),
	}
}

// FrameType identifies a WebSocket frame.
type FrameType string

const (
	// FrameSnapshot is sent once on connect.
	FrameSnapshot FrameType = "snapshot"
)

// Frame is one WebSocket message. Type is "snapshot" or a stack change
// name (add, remove, expire, evict, clear). Toasts is always the full
// stack after the change.
type Frame struct {
	Type   FrameType     `json:"type"`
	ID     string        `json:"id,omitempty"`
	Count  int           `json:"count"`
	Toasts []model.Toast `json:"toasts"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Toasts int    `json:"toasts"`
}
