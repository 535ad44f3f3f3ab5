package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/branchstack/engine/internal/api"
	"github.com/branchstack/engine/internal/api/handlers"
	"github.com/branchstack/engine/internal/queue"
	"github.com/branchstack/engine/internal/repository"
	"github.com/branchstack/engine/internal/services"
	"github.com/branchstack/engine/internal/strategy"
	pgstrategy "github.com/branchstack/engine/internal/strategy/postgres"
	"github.com/branchstack/engine/pkg/config"
	"github.com/branchstack/engine/pkg/database"
	"github.com/branchstack/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting branchstack engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.Int("queue_concurrency", cfg.QueueConcurrency),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize repositories
	branchRepo := repository.NewBranchRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Register provisioning strategies
	registry := strategy.NewRegistry()
	registry.Register("postgres", "dbDumpRestore", pgstrategy.DumpRestore{})
	registry.Register("postgres", "templateClone", pgstrategy.TemplateClone{})

	// Task queue for long-running provisioning work
	q := queue.New(cfg.QueueConcurrency)

	branchSvc := services.NewBranchService(branchRepo, eventRepo, registry, q)

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		BranchesHandler:  handlers.NewBranchesHandler(branchSvc),
		ResourcesHandler: handlers.NewResourcesHandler(registry),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	// Stop accepting requests first, then wait for in-flight provisioning
	// tasks so no branch is abandoned mid-operation.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	// Provisioning work has no cancellation; wait it out.
	if err := q.Drain(context.Background()); err != nil {
		log.Error("queue drain error", zap.Error(err))
	} else {
		log.Info("queue drained, exiting")
	}
}
