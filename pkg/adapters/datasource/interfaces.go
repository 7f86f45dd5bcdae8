// Package datasource defines the contract for running resolved SQL against the invoicing store.
package datasource

import (
	"context"

	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// QueryExecutor runs read-only SQL.
type QueryExecutor interface {
	// ExecuteQuery runs one statement and returns its rows, capped at the configured maximum.
	ExecuteQuery(ctx context.Context, sqlQuery string) (*QueryExecutionResult, error)

	// Run executes sqlQuery and never returns an error: failures are reported
	// in the outcome's Error field with empty Data and the SQL unchanged.
	Run(ctx context.Context, sqlQuery string) *models.QueryOutcome
}

// ColumnInfo describes one result column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryExecutionResult contains the results of a SQL query execution.
type QueryExecutionResult struct {
	Columns   []ColumnInfo `json:"columns"`
	Rows      []models.Row `json:"rows"`
	RowCount  int          `json:"row_count"`
	Truncated bool         `json:"truncated"` // more rows existed than the cap allowed
}
