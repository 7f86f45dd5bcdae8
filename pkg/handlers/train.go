package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// TrainResponse for POST /train
type TrainResponse struct {
	Status  string                 `json:"status"`
	Results []services.FieldResult `json:"results"`
}

// TrainHandler adds training material to the knowledge base.
type TrainHandler struct {
	trainingService services.TrainingService
	logger          *zap.Logger
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(trainingService services.TrainingService, logger *zap.Logger) *TrainHandler {
	return &TrainHandler{
		trainingService: trainingService,
		logger:          logger,
	}
}

// RegisterRoutes registers the train handler's routes on the given mux.
func (h *TrainHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /train", h.Train)
}

// Train handles POST /train. Fields come from a JSON body, from query
// parameters, or both; a body field wins over the same query parameter.
func (h *TrainHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req services.TrainRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
			respondError(w, h.logger, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
	}
	mergeQueryParams(r, &req)

	result, err := h.trainingService.Train(r.Context(), req)
	switch {
	case errors.Is(err, apperrors.ErrNoUsableField):
		respondError(w, h.logger, http.StatusBadRequest, "validation_error",
			"Provide ddl, question and sql together, or documentation")
	case errors.Is(err, apperrors.ErrTrainingFailed):
		respondJSON(w, h.logger, http.StatusInternalServerError, TrainResponse{Status: "Training failed", Results: result.Results})
	case err != nil:
		h.logger.Error("Failed to train", zap.Error(err))
		respondError(w, h.logger, http.StatusInternalServerError, "train_failed", "Training failed")
	default:
		respondJSON(w, h.logger, http.StatusOK, TrainResponse{Status: "Training successful", Results: result.Results})
	}
}

func mergeQueryParams(r *http.Request, req *services.TrainRequest) {
	q := r.URL.Query()
	if req.DDL == "" {
		req.DDL = q.Get("ddl")
	}
	if req.Question == "" {
		req.Question = q.Get("question")
	}
	if req.SQL == "" {
		req.SQL = q.Get("sql")
	}
	if req.Documentation == "" {
		req.Documentation = q.Get("documentation")
	}
}
