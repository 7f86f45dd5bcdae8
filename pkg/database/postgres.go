package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/retry"
)

// Startup stages reported in StartupError.
const (
	StageConnect = "connect"
	StageMigrate = "migrate"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Retry controls connection attempts. Nil means a single attempt.
	Retry *retry.Config
}

// StartupError describes a startup stage that never succeeded.
type StartupError struct {
	Stage    string
	Attempts int
	Err      error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("database %s failed after %d attempt(s): %s", e.Stage, e.Attempts, logging.SanitizeError(e.Err))
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewConnection creates a new database connection pool and verifies it with a ping.
// Attempts are retried with backoff according to cfg.Retry; when all of them fail
// the result is a *StartupError.
func NewConnection(ctx context.Context, cfg *Config, logger *zap.Logger) (*DB, error) {
	logger = logger.Named("database")

	retryCfg := &retry.Config{MaxRetries: 0}
	if cfg.Retry != nil {
		copied := *cfg.Retry
		retryCfg = &copied
	}
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Database connection attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	attempts := 0
	db, err := retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		attempts++
		return open(ctx, cfg)
	})
	if err != nil {
		return nil, &StartupError{Stage: StageConnect, Attempts: attempts, Err: err}
	}

	logger.Info("Connected to database", zap.Int("attempts", attempts))
	return db, nil
}

func open(ctx context.Context, cfg *Config) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}

	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}

	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = time.Minute * 30
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// SQL returns a database/sql handle backed by the pool, for migrations and the query executor.
func (db *DB) SQL() *sql.DB {
	return stdlib.OpenDBFromPool(db.Pool)
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// OpenMigrationDB opens a standalone database/sql handle for RunMigrations, which closes it.
func OpenMigrationDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}
	return db, nil
}
