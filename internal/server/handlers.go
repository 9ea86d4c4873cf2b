package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jmylchreest/toastify/internal/api"
	"github.com/jmylchreest/toastify/internal/history"
	"github.com/jmylchreest/toastify/internal/model"
	"github.com/jmylchreest/toastify/internal/stack"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, data any) error {
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func respondErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// decodeJSON decodes the body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.HealthResponse{Status: "ok", Toasts: s.stack.Len()})
}

func (s *Server) handleListToasts(w http.ResponseWriter, r *http.Request) {
	toasts := s.stack.Toasts()
	respondJSON(w, http.StatusOK, api.ToastsResponse{Toasts: toasts, Count: len(toasts)})
}

func (s *Server) handleGetToast(w http.ResponseWriter, r *http.Request) {
	toast, ok := s.stack.Get(chi.URLParam(r, "id"))
	if !ok {
		respondErrorJSON(w, http.StatusNotFound, "toast not found")
		return
	}
	respondJSON(w, http.StatusOK, toast)
}

func (s *Server) handleAddToast(w http.ResponseWriter, r *http.Request) {
	var opts model.Options
	if err := decodeJSON(w, r, &opts); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	s.added(w, s.stack.Add(opts))
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	color := model.Color(chi.URLParam(r, "id"))
	if stack.CategoryIcon(color) == "" {
		respondErrorJSON(w, http.StatusNotFound, "unknown toast kind: "+string(color))
		return
	}

	var req api.CategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var overrides []model.Options
	if req.Overrides != nil {
		overrides = append(overrides, *req.Overrides)
	}
	s.added(w, s.stack.Category(color, req.Title, req.Description, overrides...))
}

func (s *Server) added(w http.ResponseWriter, id string) {
	if id == "" {
		respondErrorJSON(w, http.StatusServiceUnavailable, stack.ErrStackClosed.Error())
		return
	}
	respondJSON(w, http.StatusCreated, api.AddResponse{ID: id})
}

func (s *Server) handleRemoveToast(w http.ResponseWriter, r *http.Request) {
	s.stack.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearToasts(w http.ResponseWriter, r *http.Request) {
	s.stack.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, api.NewConfigResponse(s.stack.Resolver()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondErrorJSON(w, http.StatusNotFound, "history is disabled")
		return
	}

	opts, err := historyOptions(r)
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, err.Error())
		return
	}

	entries := s.history.Filter(opts)
	respondJSON(w, http.StatusOK, api.HistoryResponse{Entries: entries, Count: len(entries)})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondErrorJSON(w, http.StatusNotFound, "history is disabled")
		return
	}
	if err := s.history.Clear(); err != nil {
		s.logger.Error("failed to clear history", "error", err)
		respondErrorJSON(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// historyOptions reads limit, reason, color, since and filter from the
// query string.
func historyOptions(r *http.Request) (history.FilterOptions, error) {
	q := r.URL.Query()
	opts := history.FilterOptions{
		Reason: history.Reason(q.Get("reason")),
		Color:  model.Color(q.Get("color")),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, errors.New("invalid limit: " + v)
		}
		opts.Limit = n
	}
	if v := q.Get("since"); v != "" {
		d, err := history.ParseDuration(v)
		if err != nil {
			return opts, err
		}
		opts.Since = d
	}
	if v := q.Get("filter"); v != "" {
		expr, err := history.ParseFilter(v)
		if err != nil {
			return opts, err
		}
		opts.Expr = expr
	}
	return opts, nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleWebSocket(w, r, func() api.Frame {
		toasts := s.stack.Toasts()
		return api.Frame{Type: api.FrameSnapshot, Count: len(toasts), Toasts: toasts}
	})
}
