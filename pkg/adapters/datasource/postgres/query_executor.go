package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/models"
)

// Config bounds query execution.
type Config struct {
	QueryTimeout time.Duration
	MaxRows      int
}

// QueryExecutor runs SQL against PostgreSQL through database/sql. In production the
// *sql.DB is opened from the shared pgx pool with stdlib.OpenDBFromPool.
type QueryExecutor struct {
	db     *sql.DB
	cfg    Config
	logger *zap.Logger
}

// NewQueryExecutor creates an executor over db.
func NewQueryExecutor(db *sql.DB, cfg Config, logger *zap.Logger) *QueryExecutor {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 1000
	}
	return &QueryExecutor{db: db, cfg: cfg, logger: logger.Named("executor")}
}

var _ datasource.QueryExecutor = (*QueryExecutor)(nil)

// ExecuteQuery runs sqlQuery inside a read-only transaction bounded by the query
// timeout. Rows keep the result set's column order.
func (e *QueryExecutor) ExecuteQuery(ctx context.Context, sqlQuery string) (*datasource.QueryExecutionResult, error) {
	if e.db == nil {
		return nil, fmt.Errorf("database is not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	columns := make([]datasource.ColumnInfo, len(colTypes))
	for i, ct := range colTypes {
		columns[i] = datasource.ColumnInfo{Name: ct.Name(), Type: strings.ToUpper(ct.DatabaseTypeName())}
	}

	result := &datasource.QueryExecutionResult{Columns: columns, Rows: make([]models.Row, 0)}
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if len(result.Rows) >= e.cfg.MaxRows {
			result.Truncated = true
			break
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		row := models.NewRow()
		for i, col := range columns {
			row.Set(col.Name, normalizeValue(values[i], col.Type))
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// Run executes sqlQuery and folds any failure into the outcome.
func (e *QueryExecutor) Run(ctx context.Context, sqlQuery string) *models.QueryOutcome {
	start := time.Now()

	result, err := e.ExecuteQuery(ctx, sqlQuery)
	if err != nil {
		msg := logging.SanitizeError(err)
		e.logger.Warn("Query execution failed",
			zap.String("sql", logging.SanitizeQuery(sqlQuery)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", msg))
		return models.NewFailedOutcome(sqlQuery, msg)
	}

	if result.Truncated {
		e.logger.Info("Query result truncated",
			zap.String("sql", logging.SanitizeQuery(sqlQuery)),
			zap.Int("max_rows", e.cfg.MaxRows))
	}
	e.logger.Debug("Query executed",
		zap.Int("rows", result.RowCount),
		zap.Duration("elapsed", time.Since(start)))

	return &models.QueryOutcome{SQL: sqlQuery, Data: result.Rows}
}

// normalizeValue makes driver values JSON-friendly. NUMERIC arrives as text and
// becomes a float64; other byte slices become strings.
func normalizeValue(v any, dbType string) any {
	switch val := v.(type) {
	case []byte:
		return normalizeText(string(val), dbType)
	case string:
		return normalizeText(val, dbType)
	default:
		return v
	}
}

func normalizeText(s, dbType string) any {
	switch dbType {
	case "NUMERIC", "DECIMAL", "MONEY":
		if f, err := strconv.ParseFloat(strings.TrimLeft(s, "$"), 64); err == nil {
			return f
		}
	}
	return s
}
