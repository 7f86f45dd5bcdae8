// seed-invoices loads the Analytics_Test_Data document export into the invoicing tables.
//
// Usage: go run ./scripts/seed-invoices --file data/Analytics_Test_Data.json [--reset] [--migrate]
//
// Database connection: same config.yaml / environment variables as the server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/config"
	"github.com/ekaya-inc/ekaya-analyst/pkg/database"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/retry"
	"github.com/ekaya-inc/ekaya-analyst/pkg/seeding"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file    string
		reset   bool
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "seed-invoices",
		Short: "Import the invoice document export into PostgreSQL",
		Long: `seed-invoices reads a JSON export of processed documents with their extracted
invoice data and writes documents, vendors, customers, invoices, payments and line
items. Each document is imported in its own transaction. Failures are counted and
reported without stopping the run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), file, seeding.Options{Reset: reset}, migrate)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "data/Analytics_Test_Data.json", "Path to the JSON export")
	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the invoicing tables before importing")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply database migrations before importing")

	return cmd
}

func run(ctx context.Context, file string, opts seeding.Options, migrate bool) error {
	cfg, err := config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	docs, err := seeding.ReadExportFile(file)
	if err != nil {
		return err
	}
	logger.Info("Read export", zap.String("file", file), zap.Int("documents", len(docs)))

	connStr := cfg.Database.ConnectionString()
	startupRetry := retry.StartupConfig(cfg.Startup.MaxRetries, cfg.Startup.InitialDelay, cfg.Startup.MaxDelay)
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
		Retry:          startupRetry,
	}, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, connStr, cfg.Database.MigrationsPath, startupRetry, logger); err != nil {
			return err
		}
	}

	summary, err := seeding.NewImporter(db, logger).Import(ctx, docs, opts)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
