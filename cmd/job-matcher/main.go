package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/handlers"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/logger"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New("job-matcher", cfg.Server.JSONLogs, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	dbs := config.NewDatabases(cfg)

	// The run queue lives in the home environment's database; per-request
	// environments only affect which data the run reads and writes.
	homeDB, err := dbs.For(cfg.DefaultEnvironment)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}

	jobRepo := repositories.NewJobRepository(dbs)
	userRepo := repositories.NewUserRepository(dbs)
	matchRepo := repositories.NewMatchRepository(dbs)
	runRepo := repositories.NewMatchRunRepository(homeDB)

	client, err := llm.New(cfg.LLM)
	if err != nil {
		zlog.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	client = llm.WithBreaker(client, cfg.LLM.BreakerThreshold, cfg.LLM.BreakerRecovery)

	var vectors services.VectorService
	if cfg.Qdrant.URL != "" {
		vectors, err = services.NewVectorService(cfg.Qdrant, zlog)
		if err != nil {
			zlog.Fatal("failed to initialize vector service", zap.Error(err))
		}
		if err := vectors.InitCollection(); err != nil {
			zlog.Fatal("failed to initialize vector collection", zap.Error(err))
		}
	}

	matcher := services.NewMatcherService(jobRepo, userRepo, matchRepo, client, vectors, cfg.LLM, zlog)

	worker := services.NewWorker(runRepo, matcher, cfg.Worker.Concurrency, cfg.Worker.PollInterval, zlog)
	worker.Start(context.Background())

	app := handlers.NewApp("job-matcher", zlog)
	handlers.NewMatchHandler(runRepo, jobRepo, userRepo, worker, cfg).Register(app)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zlog.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Fatal("failed to start server", zap.Error(err))
	}
}
