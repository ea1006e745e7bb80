package server

import (
	"net/http"

	"github.com/koustreak/DatServe/internal/database"
)

// healthPayload is served un-enveloped so dashboards get a fixed shape.
type healthPayload struct {
	Status   string             `json:"status"`
	Database string             `json:"database"`
	Storage  string             `json:"storage,omitempty"`
	Pool     *database.PoolStat `json:"pool,omitempty"`
}

// handleHealth probes the active pool on every call, so the health flag
// recovers as soon as the database is back. The database alone decides
// overall status; storage is reported but advisory.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	payload := healthPayload{Status: "healthy", Database: "connected"}
	if err := s.manager.Probe(ctx); err != nil {
		payload.Status = "unhealthy"
		payload.Database = "disconnected"
	}
	if stat, ok := s.manager.Stat(); ok {
		payload.Pool = &stat
	}

	if s.store != nil {
		payload.Storage = "connected"
		if err := s.store.Ping(ctx); err != nil {
			payload.Storage = "disconnected"
		}
	}

	status := http.StatusOK
	if payload.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, payload)
}
