package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
)

// KnowledgeWriter adds items to the knowledge base. Implemented by knowledge.Base.
type KnowledgeWriter interface {
	AddSchema(ctx context.Context, ddl string) error
	AddDocumentation(ctx context.Context, text string) error
	AddExemplar(ctx context.Context, question, sql string) error
}

// Training fields, as named in requests and results.
const (
	FieldDDL           = "ddl"
	FieldExemplar      = "question_sql"
	FieldDocumentation = "documentation"
	FieldQuestion      = "question"
	FieldSQL           = "sql"
)

// TrainRequest carries the optional training fields of one call.
type TrainRequest struct {
	DDL           string `json:"ddl,omitempty"`
	Question      string `json:"question,omitempty"`
	SQL           string `json:"sql,omitempty"`
	Documentation string `json:"documentation,omitempty"`
}

// FieldResult is the outcome of applying one training field.
type FieldResult struct {
	Field   string `json:"field"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// TrainResult lists the outcome of every field present in a request.
type TrainResult struct {
	Results []FieldResult `json:"results"`
}

// Succeeded returns how many fields were applied.
func (r *TrainResult) Succeeded() int {
	n := 0
	for _, f := range r.Results {
		if f.Success {
			n++
		}
	}
	return n
}

// TrainingService applies training requests to the knowledge base.
type TrainingService interface {
	// Train applies each present field in order: ddl, question+sql, documentation.
	// It returns ErrNoUsableField when no field could be applied and
	// ErrTrainingFailed, alongside the result, when every usable field failed.
	Train(ctx context.Context, req TrainRequest) (*TrainResult, error)
}

type trainingService struct {
	kb     KnowledgeWriter
	logger *zap.Logger
}

// NewTrainingService creates a new training service.
func NewTrainingService(kb KnowledgeWriter, logger *zap.Logger) TrainingService {
	return &trainingService{
		kb:     kb,
		logger: logger.Named("training"),
	}
}

var _ TrainingService = (*trainingService)(nil)

func (s *trainingService) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	ddl := strings.TrimSpace(req.DDL)
	question := strings.TrimSpace(req.Question)
	sqlText := strings.TrimSpace(req.SQL)
	doc := strings.TrimSpace(req.Documentation)

	result := &TrainResult{Results: make([]FieldResult, 0, 3)}
	usable := 0

	if ddl != "" {
		usable++
		result.Results = append(result.Results, fieldResult(FieldDDL, s.kb.AddSchema(ctx, ddl)))
	}

	switch {
	case question != "" && sqlText != "":
		usable++
		result.Results = append(result.Results, fieldResult(FieldExemplar, s.kb.AddExemplar(ctx, question, sqlText)))
	case question != "":
		result.Results = append(result.Results, fieldResult(FieldQuestion, apperrors.ErrIncompleteExemplar))
	case sqlText != "":
		result.Results = append(result.Results, fieldResult(FieldSQL, apperrors.ErrIncompleteExemplar))
	}

	if doc != "" {
		usable++
		result.Results = append(result.Results, fieldResult(FieldDocumentation, s.kb.AddDocumentation(ctx, doc)))
	}

	if usable == 0 {
		return result, apperrors.ErrNoUsableField
	}

	succeeded := result.Succeeded()
	s.logger.Info("Training request applied",
		zap.Int("fields", usable),
		zap.Int("succeeded", succeeded))

	if succeeded == 0 {
		return result, apperrors.ErrTrainingFailed
	}
	return result, nil
}

func fieldResult(field string, err error) FieldResult {
	if err == nil {
		return FieldResult{Field: field, Success: true}
	}
	return FieldResult{Field: field, Success: false, Error: logging.SanitizeError(err)}
}

// IsClientError reports whether a training error was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, apperrors.ErrNoUsableField)
}
