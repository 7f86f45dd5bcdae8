package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// QueryRequest for POST /query
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryHandler answers natural-language questions.
type QueryHandler struct {
	queryService services.QueryService
	logger       *zap.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(queryService services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
// /api/chat-with-data is kept for the dashboard.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", h.Query)
	mux.HandleFunc("POST /api/chat-with-data", h.Query)
}

// Query handles POST /query. Execution errors are reported with 200 and a
// populated error field; only malformed requests are rejected.
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondError(w, h.logger, http.StatusBadRequest, "validation_error", "query is required")
		return
	}

	outcome, err := h.queryService.Ask(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmptyInput) {
			respondError(w, h.logger, http.StatusBadRequest, "validation_error", "query is required")
			return
		}
		h.logger.Error("Failed to answer query", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "query_failed", "Failed to process query")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, outcome)
}
