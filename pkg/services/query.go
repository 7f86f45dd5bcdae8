package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// Resolver turns question text into SQL. Implemented by resolver.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, text string) (*models.ResolvedQuery, error)
}

// Executor runs SQL and folds failures into the outcome.
// Implemented by the postgres query executor.
type Executor interface {
	Run(ctx context.Context, sqlQuery string) *models.QueryOutcome
}

// QueryService answers natural-language questions about the invoicing data.
type QueryService interface {
	// Ask resolves text to SQL and runs it. Execution failures are reported in
	// the outcome, not as an error; the outcome always carries the resolved SQL.
	Ask(ctx context.Context, text string) (*models.QueryOutcome, error)
}

type queryService struct {
	resolver Resolver
	executor Executor // nil when running without a database
	logger   *zap.Logger
}

// NewQueryService creates a new query service. executor may be nil in degraded mode.
func NewQueryService(resolver Resolver, executor Executor, logger *zap.Logger) QueryService {
	return &queryService{
		resolver: resolver,
		executor: executor,
		logger:   logger.Named("query"),
	}
}

var _ QueryService = (*queryService)(nil)

func (s *queryService) Ask(ctx context.Context, text string) (*models.QueryOutcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.ErrEmptyInput
	}

	start := time.Now()
	resolved, err := s.resolver.Resolve(ctx, text)
	if err != nil {
		return nil, err
	}

	var outcome *models.QueryOutcome
	if s.executor == nil {
		outcome = models.NewFailedOutcome(resolved.SQL, apperrors.ErrDatabaseUnavailable.Error())
	} else {
		outcome = s.executor.Run(ctx, resolved.SQL)
	}

	fields := []zap.Field{
		zap.String("origin", string(resolved.Origin)),
		zap.String("rule", resolved.Rule),
		zap.String("sql", logging.SanitizeQuery(resolved.SQL)),
		zap.Int("rows", len(outcome.Data)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if outcome.Failed() {
		s.logger.Info("Question answered with execution error", append(fields, zap.String("error", *outcome.Error))...)
	} else {
		s.logger.Info("Question answered", fields...)
	}

	return outcome, nil
}
