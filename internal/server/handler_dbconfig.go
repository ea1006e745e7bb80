package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/koustreak/DatServe/internal/database"
	"github.com/koustreak/DatServe/internal/errs"
)

// connectionConfig is the wire shape of the reconfiguration API.
type connectionConfig struct {
	Driver        string `json:"driver,omitempty"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	Username      string `json:"username"`
	Password      string `json:"password,omitempty"`
	DatabaseName  string `json:"databaseName"`
	SSLMode       string `json:"sslmode,omitempty"`
	PoolSizeLimit int32  `json:"poolSizeLimit,omitempty"`
	QueueLimit    int32  `json:"queueLimit,omitempty"`
}

// requiredFields returns the names of mandatory fields missing from the
// request. Password is deliberately optional: an omitted password keeps
// the active one.
func (c connectionConfig) requiredFields() []string {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.Port <= 0 {
		missing = append(missing, "port")
	}
	if c.Username == "" {
		missing = append(missing, "username")
	}
	if c.DatabaseName == "" {
		missing = append(missing, "databaseName")
	}
	return missing
}

func (c connectionConfig) toConfig() database.Config {
	return database.Config{
		Driver:     database.Driver(c.Driver),
		Host:       c.Host,
		Port:       c.Port,
		User:       c.Username,
		Password:   c.Password,
		Database:   c.DatabaseName,
		SSLMode:    c.SSLMode,
		MaxConns:   c.PoolSizeLimit,
		QueueLimit: c.QueueLimit,
	}
}

// fromConfig builds the wire view of a config. The password is never
// copied onto the wire.
func fromConfig(cfg database.Config) connectionConfig {
	return connectionConfig{
		Driver:        string(cfg.Driver),
		Host:          cfg.Host,
		Port:          cfg.Port,
		Username:      cfg.User,
		DatabaseName:  cfg.Database,
		SSLMode:       cfg.SSLMode,
		PoolSizeLimit: cfg.MaxConns,
		QueueLimit:    cfg.QueueLimit,
	}
}

// handleGetConfig reports the active connection settings, redacted.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.manager.Config()
	if !ok {
		s.respondError(w, r, errs.New(errs.ErrKindUnavailable, "database not initialized"))
		return
	}
	s.respondData(w, http.StatusOK, fromConfig(cfg))
}

// handlePutConfig triggers the validate-then-swap reconfiguration. The
// request must name the connection target in full; credentials and pool
// sizing it omits carry over from the active config.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var req connectionConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, errs.Wrap(errs.ErrKindInvalidInput, "invalid request body", err))
		return
	}
	if missing := req.requiredFields(); len(missing) > 0 {
		s.respondError(w, r, errs.Newf(errs.ErrKindInvalidInput,
			"missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	if err := s.manager.Reload(r.Context(), req.toConfig()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondMessage(w, http.StatusOK, "database configuration updated")
}
