package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/config"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Pinger checks database reachability. *database.DB implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusResponse is the body of GET / and GET /health.
type StatusResponse struct {
	Status string `json:"status"`
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Service        string `json:"service"`
	GoVersion      string `json:"go_version"`
	Hostname       string `json:"hostname"`
	Environment    string `json:"environment"`
	BackendEnabled bool   `json:"backend_enabled"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg            *config.Config
	db             Pinger // nil in degraded mode
	backendEnabled bool
	logger         *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when the service runs without a database.
func NewHealthHandler(cfg *config.Config, db Pinger, backendEnabled bool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, db: db, backendEnabled: backendEnabled, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Root handles GET /.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, StatusResponse{Status: "ekaya-analyst is running"})
}

// Health handles GET /health. It reports degraded with 503 when the database
// is missing or unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db == nil {
		respondJSON(w, h.logger, http.StatusServiceUnavailable, StatusResponse{Status: StatusDegraded})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("Health check database ping failed", zap.String("error", logging.SanitizeError(err)))
		respondJSON(w, h.logger, http.StatusServiceUnavailable, StatusResponse{Status: StatusDegraded})
		return
	}

	respondJSON(w, h.logger, http.StatusOK, StatusResponse{Status: StatusHealthy})
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:         "ok",
		Version:        h.cfg.Version,
		Service:        "ekaya-analyst",
		GoVersion:      runtime.Version(),
		Hostname:       hostname,
		Environment:    h.cfg.Env,
		BackendEnabled: h.backendEnabled,
	}

	respondJSON(w, h.logger, http.StatusOK, response)
}
