package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/fetch"
	"github.com/carematch/ai-services/internal/handlers"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/logger"
	"github.com/carematch/ai-services/internal/repositories"
	"github.com/carematch/ai-services/internal/services"
	"github.com/carematch/ai-services/internal/storage"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New("job-extractor", cfg.Server.JSONLogs, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		zlog.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	client = llm.WithBreaker(client, cfg.LLM.BreakerThreshold, cfg.LLM.BreakerRecovery)

	fetcher := fetch.NewFetcher(cfg.Fetch, zlog)
	store := storage.NewClient(cfg, zlog)
	dbs := config.NewDatabases(cfg)
	userRepo := repositories.NewUserRepository(dbs)

	extractor := services.NewExtractorService(fetcher, store, client, userRepo, cfg.LLM, zlog)

	app := handlers.NewApp("job-extractor", zlog)
	handlers.NewExtractHandler(extractor, cfg).Register(app)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("shutting down server")
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
