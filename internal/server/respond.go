package server

import (
	"encoding/json"
	"net/http"

	"github.com/koustreak/DatServe/internal/errs"
)

// response is the JSON envelope every endpoint except /health returns.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func (s *Server) respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, response{Success: status < http.StatusBadRequest, Message: msg})
}

// respondError maps a classified error onto an HTTP status and the
// failure envelope. Server-side failures are logged; client mistakes are
// not worth the noise.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromKind(errs.KindOf(err))
	if status >= http.StatusInternalServerError {
		s.log.With().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger().
			Error("request failed")
	}
	writeJSON(w, status, response{Success: false, Message: err.Error()})
}

func statusFromKind(kind errs.ErrKind) int {
	switch kind {
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindBusy:
		return http.StatusConflict
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindUnavailable:
		return http.StatusServiceUnavailable
	default:
		// ConnectionFailed, Timeout, QueryFailed, Unknown
		return http.StatusInternalServerError
	}
}
