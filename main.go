package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-analyst/pkg/adapters/datasource/postgres"
	"github.com/ekaya-inc/ekaya-analyst/pkg/audit"
	"github.com/ekaya-inc/ekaya-analyst/pkg/catalog"
	"github.com/ekaya-inc/ekaya-analyst/pkg/config"
	"github.com/ekaya-inc/ekaya-analyst/pkg/database"
	"github.com/ekaya-inc/ekaya-analyst/pkg/handlers"
	"github.com/ekaya-inc/ekaya-analyst/pkg/knowledge"
	"github.com/ekaya-inc/ekaya-analyst/pkg/llm"
	"github.com/ekaya-inc/ekaya-analyst/pkg/logging"
	"github.com/ekaya-inc/ekaya-analyst/pkg/mcp"
	"github.com/ekaya-inc/ekaya-analyst/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-analyst/pkg/middleware"
	"github.com/ekaya-inc/ekaya-analyst/pkg/rag"
	"github.com/ekaya-inc/ekaya-analyst/pkg/repositories"
	"github.com/ekaya-inc/ekaya-analyst/pkg/resolver"
	"github.com/ekaya-inc/ekaya-analyst/pkg/retry"
	"github.com/ekaya-inc/ekaya-analyst/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		var startupErr *database.StartupError
		if errors.As(err, &startupErr) {
			logger.Error("Startup failed",
				zap.String("stage", startupErr.Stage),
				zap.Int("attempts", startupErr.Attempts),
				zap.String("error", logging.SanitizeError(startupErr.Err)))
		} else {
			logger.Error("Server failed", zap.String("error", logging.SanitizeError(err)))
		}
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Bool("backend_enabled", cfg.Resolver.BackendEnabled),
		zap.Bool("knowledge_persist", cfg.Knowledge.Persist),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	db, err := connectDatabase(ctx, cfg, logger)
	if err != nil {
		var startupErr *database.StartupError
		if !errors.As(err, &startupErr) || !cfg.Startup.AllowDegraded {
			return err
		}
		logger.Warn("Serving in degraded mode without a database",
			zap.String("stage", startupErr.Stage),
			zap.Int("attempts", startupErr.Attempts),
			zap.String("error", logging.SanitizeError(startupErr.Err)))
	}
	if db != nil {
		defer db.Close()
	}

	// Retrieval backend
	var backend *rag.Backend
	if cfg.Resolver.BackendEnabled {
		clients, err := llm.NewClientsFromConfig(cfg.LLM, logger)
		if err != nil {
			return fmt.Errorf("failed to create llm clients: %w", err)
		}
		backend = rag.NewBackend(clients.Generator, clients.Embedder, rag.Config{
			TopK:           cfg.Resolver.TopK,
			Temperature:    cfg.LLM.Temperature,
			EmbeddingModel: cfg.LLM.EmbeddingModel,
		}, logger)
	}

	// Knowledge base
	var trainer knowledge.Trainer
	if backend != nil {
		trainer = backend
	}
	var trainingRepo repositories.TrainingItemRepository
	var store knowledge.Store
	if cfg.Knowledge.Persist && db != nil {
		trainingRepo = repositories.NewTrainingItemRepository(db)
		store = trainingRepo
	}
	kb := knowledge.NewBase(knowledge.NewCorpus(), trainer, store, logger)
	kb.Load(ctx, catalog.Seed())
	if trainingRepo != nil {
		items, err := trainingRepo.List(ctx)
		if err != nil {
			logger.Warn("Failed to load persisted training items",
				zap.String("error", logging.SanitizeError(err)))
		} else {
			kb.Replay(ctx, items)
		}
	}

	// Resolver
	rules, err := loadRules(cfg.Resolver.RulesFile)
	if err != nil {
		return err
	}
	var resolverBackend resolver.Backend
	if backend != nil {
		resolverBackend = backend
	}
	res := resolver.New(resolverBackend, kb, rules, resolver.Options{
		BackendEnabled: backend != nil,
		BackendTimeout: cfg.Resolver.BackendTimeout,
		Auditor:        audit.NewSecurityAuditor(logger),
	}, logger)

	// Execution and dashboard data
	var executor services.Executor
	var invoiceRepo repositories.InvoiceRepository
	var pinger handlers.Pinger
	if db != nil {
		executor = postgres.NewQueryExecutor(db.SQL(), postgres.Config{
			QueryTimeout: cfg.Executor.QueryTimeout,
			MaxRows:      cfg.Executor.MaxRows,
		}, logger)
		invoiceRepo = repositories.NewInvoiceRepository(db)
		pinger = db
	}

	queryService := services.NewQueryService(res, executor, logger)
	trainingService := services.NewTrainingService(kb, logger)
	analyticsService := services.NewAnalyticsService(invoiceRepo, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, pinger, res.BackendEnabled(), logger).RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux)
	handlers.NewTrainHandler(trainingService, logger).RegisterRoutes(mux)
	handlers.NewAnalyticsHandler(analyticsService, logger).RegisterRoutes(mux)

	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Recoverer)
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(middleware.CORS)

	if cfg.MCP.Enabled {
		mcpServer := mcp.NewServer("ekaya-analyst", cfg.Version, logger)
		mcpServer.RegisterTools(mcp.ToolDeps{
			Health: tools.HealthToolDeps{
				Version:        cfg.Version,
				Database:       db != nil,
				BackendEnabled: res.BackendEnabled(),
			},
			Query:    &tools.QueryToolDeps{QueryService: queryService},
			Training: &tools.TrainingToolDeps{TrainingService: trainingService},
		})
		router.Handle("/mcp", mcpServer.Handler())
	}
	router.Handle("/*", mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-analyst",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("degraded", db == nil))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// connectDatabase opens the pool with startup retries and applies migrations when enabled.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	connStr := cfg.Database.ConnectionString()
	startupRetry := retry.StartupConfig(cfg.Startup.MaxRetries, cfg.Startup.InitialDelay, cfg.Startup.MaxDelay)
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: cfg.Database.MaxConnections,
		Retry:          startupRetry,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.Database.RunMigrations {
		return db, nil
	}

	if err := database.Migrate(ctx, connStr, cfg.Database.MigrationsPath, startupRetry, logger); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func loadRules(path string) (*resolver.RuleTable, error) {
	rules := resolver.DefaultRules()
	if path != "" {
		loaded, err := resolver.LoadRulesFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load resolver rules: %w", err)
		}
		rules = loaded
	}
	table, err := resolver.CompileRules(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to compile resolver rules: %w", err)
	}
	return table, nil
}
