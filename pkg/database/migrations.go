package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/retry"
)

// Migrate applies pending migrations from migrationsPath to connStr, retrying with
// retryCfg (nil means a single attempt). Each attempt opens its own handle since
// RunMigrations closes it. When every attempt fails the result is a *StartupError
// with stage StageMigrate.
func Migrate(ctx context.Context, connStr, migrationsPath string, retryCfg *retry.Config, logger *zap.Logger) error {
	cfg := &retry.Config{MaxRetries: 0}
	if retryCfg != nil {
		copied := *retryCfg
		cfg = &copied
	}
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Named("database").Warn("Migration attempt failed",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.String("error", logging.SanitizeError(err)))
	}

	attempts := 0
	err := retry.Do(ctx, cfg, func() error {
		attempts++
		db, err := OpenMigrationDB(connStr)
		if err != nil {
			return err
		}
		return RunMigrations(db, migrationsPath, logger)
	})
	if err != nil {
		return &StartupError{Stage: StageMigrate, Attempts: attempts, Err: err}
	}
	return nil
}

// RunMigrations applies the pending invoicing and training_items migrations in
// migrationsPath. Only pending versions run. db is closed on return.
func RunMigrations(db *sql.DB, migrationsPath string, logger *zap.Logger) error {
	logger = logger.Named("database")

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"postgres", driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			logger.Warn("Failed to close migration source", zap.Error(srcErr))
		}
		if dbErr != nil {
			logger.Warn("Failed to close migration database", zap.Error(dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No migrations to apply (database up-to-date)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	logger.Info("Applied migrations successfully", zap.Uint("version", newVersion))
	return nil
}
