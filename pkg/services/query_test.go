package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

func TestQueryService_Ask(t *testing.T) {
	resolver := &mockResolver{resolved: &models.ResolvedQuery{
		SQL:    `SELECT 1 AS n`,
		Origin: models.OriginRuleTable,
		Rule:   "recent_invoices",
	}}
	row := models.NewRow()
	row.Set("n", int64(1))
	executor := &mockExecutor{outcome: &models.QueryOutcome{SQL: `SELECT 1 AS n`, Data: []models.Row{row}}}

	svc := NewQueryService(resolver, executor, zap.NewNop())
	outcome, err := svc.Ask(context.Background(), "Show recent invoices")

	require.NoError(t, err)
	assert.Equal(t, `SELECT 1 AS n`, outcome.SQL)
	assert.Len(t, outcome.Data, 1)
	assert.Nil(t, outcome.Error)
	assert.Equal(t, []string{"Show recent invoices"}, resolver.texts)
	assert.Equal(t, []string{`SELECT 1 AS n`}, executor.queries)
}

func TestQueryService_Ask_EmptyInput(t *testing.T) {
	resolver := &mockResolver{}
	svc := NewQueryService(resolver, &mockExecutor{}, zap.NewNop())

	_, err := svc.Ask(context.Background(), " \t ")

	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
	assert.Empty(t, resolver.texts)
}

func TestQueryService_Ask_ExecutionErrorIsNotAnError(t *testing.T) {
	resolver := &mockResolver{resolved: &models.ResolvedQuery{SQL: `SELECT * FROM "Nope"`, Origin: models.OriginBackend}}
	executor := &mockExecutor{outcome: models.NewFailedOutcome(`SELECT * FROM "Nope"`, "relation does not exist")}

	outcome, err := NewQueryService(resolver, executor, zap.NewNop()).Ask(context.Background(), "nope")

	require.NoError(t, err)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, `SELECT * FROM "Nope"`, outcome.SQL)
	assert.Empty(t, outcome.Data)
}

func TestQueryService_Ask_WithoutDatabase(t *testing.T) {
	resolver := &mockResolver{resolved: &models.ResolvedQuery{SQL: `SELECT 1`, Origin: models.OriginRuleTable}}

	outcome, err := NewQueryService(resolver, nil, zap.NewNop()).Ask(context.Background(), "anything")

	require.NoError(t, err)
	require.NotNil(t, outcome.Error)
	assert.Equal(t, apperrors.ErrDatabaseUnavailable.Error(), *outcome.Error)
	assert.Equal(t, `SELECT 1`, outcome.SQL)
	assert.NotNil(t, outcome.Data)
}

func TestQueryService_Ask_ResolverError(t *testing.T) {
	resolver := &mockResolver{err: errors.New("boom")}

	_, err := NewQueryService(resolver, &mockExecutor{}, zap.NewNop()).Ask(context.Background(), "x")

	assert.EqualError(t, err, "boom")
}
