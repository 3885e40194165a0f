package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/mattn/go-sqlite3"

	"sqldesk/internal/api"
	"sqldesk/internal/config"
	"sqldesk/internal/conn"
	internaldb "sqldesk/internal/db"
	"sqldesk/internal/db/repository"
	"sqldesk/internal/domain"
	"sqldesk/internal/middleware"
	"sqldesk/internal/queue"
	"sqldesk/internal/results"
	"sqldesk/internal/service/security"
	"sqldesk/internal/service/sqllab"
)

// seedDemo populates an empty metadata store with a demo target database,
// an admin principal, and a granted analyst so the API is usable straight
// after first start. Idempotent: skips when databases already exist.
func seedDemo(ctx context.Context, databases *repository.DatabaseRepo, principals *repository.PrincipalRepo, grants *repository.GrantRepo, logger *slog.Logger) error {
	existing, err := databases.List(ctx)
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	targetPath := "sqldesk_demo.sqlite"
	target, err := sql.Open("sqlite3", targetPath)
	if err != nil {
		return fmt.Errorf("open demo target: %w", err)
	}
	defer target.Close() //nolint:errcheck

	_, err = target.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trips (
			id          INTEGER PRIMARY KEY,
			city        TEXT NOT NULL,
			distance_km REAL NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create demo table: %w", err)
	}
	_, err = target.ExecContext(ctx, `
		INSERT INTO trips (city, distance_km) VALUES
			('amsterdam', 4.2), ('berlin', 12.7), ('lisbon', 2.9)
	`)
	if err != nil {
		return fmt.Errorf("seed demo rows: %w", err)
	}

	demo, err := databases.Create(ctx, &domain.Database{
		Name:      "demo",
		Driver:    "sqlite3",
		DSN:       targetPath,
		AllowCTAS: true,
	})
	if err != nil {
		return fmt.Errorf("register demo database: %w", err)
	}

	if _, err := principals.Create(ctx, "admin", true); err != nil {
		return fmt.Errorf("create admin principal: %w", err)
	}
	if _, err := principals.Create(ctx, "analyst", false); err != nil {
		return fmt.Errorf("create analyst principal: %w", err)
	}
	if err := grants.Grant(ctx, "analyst", demo.ID, ""); err != nil {
		return fmt.Errorf("grant analyst: %w", err)
	}

	logger.Info("seeded demo database and principals", "database_id", demo.ID)
	return nil
}

func main() {
	ctx := context.Background()

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// Metadata store: single-connection write pool for serialized writes,
	// wider read pool for concurrent reads.
	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		logger.Error("open metadata store", "error", err)
		os.Exit(1)
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	if err := internaldb.RunMigrations(writeDB); err != nil {
		logger.Error("run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories: write pool for anything that mutates, read pool for
	// lookup-only paths.
	queryRepo := repository.NewQueryRepo(writeDB)
	databaseRepo := repository.NewDatabaseRepo(writeDB)
	principalRepo := repository.NewPrincipalRepo(writeDB)
	grantRepo := repository.NewGrantRepo(readDB)

	if !cfg.IsProduction() {
		if err := seedDemo(ctx, databaseRepo, principalRepo, repository.NewGrantRepo(writeDB), logger); err != nil {
			logger.Error("seed demo data", "error", err)
			os.Exit(1)
		}
	}

	authz := security.NewAuthorizationService(principalRepo, grantRepo, databaseRepo)

	provider := conn.NewProvider(databaseRepo, logger)
	defer provider.Close() //nolint:errcheck

	backend := results.NewMemoryBackend(logger)
	if err := backend.StartSweeper("@every 1m"); err != nil {
		logger.Error("start results sweeper", "error", err)
		os.Exit(1)
	}
	defer backend.Stop()

	workers := queue.NewWorkerPool(cfg.Queue.Workers, cfg.Queue.Depth, logger)

	dispatch := sqllab.NewDispatchService(
		sqllab.NewAccessValidator(authz),
		sqllab.NewRenderer(),
		queryRepo,
		provider,
		sqllab.NewSyncExecutor(queryRepo, backend, cfg.SQLLab.Timeout, cfg.SQLLab.ResultsTTL, cfg.SQLLab.BackendPersistence, logger),
		sqllab.NewAsyncExecutor(queryRepo, backend, workers, cfg.SQLLab.ResultsTTL, logger),
		cfg.SQLLab,
		logger,
	)
	resultsSvc := sqllab.NewResultsService(queryRepo, backend, cfg.SQLLab, logger)
	historySvc := sqllab.NewHistoryService(queryRepo)

	handler := api.NewHandler(dispatch, resultsSvc, historySvc, databaseRepo, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			JWTSecret:      cfg.JWTSecret,
			AllowDevHeader: !cfg.IsProduction(),
		}))
		r.Mount("/", handler.Routes())
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.ListenAddr, "env", cfg.Env)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	// Drain in-flight async queries before closing pools.
	if err := workers.Shutdown(shutdownCtx); err != nil {
		logger.Error("worker pool shutdown", "error", err)
	}
	logger.Info("shutdown complete")
}
