package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/carematch/ai-services/internal/config"
	"github.com/carematch/ai-services/internal/document"
	"github.com/carematch/ai-services/internal/handlers"
	"github.com/carematch/ai-services/internal/llm"
	"github.com/carematch/ai-services/internal/logger"
	"github.com/carematch/ai-services/internal/services"
	"github.com/carematch/ai-services/internal/storage"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New("resume-parser", cfg.Server.JSONLogs, cfg.Server.Debug)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	client, err := llm.New(cfg.LLM)
	if err != nil {
		zlog.Fatal("failed to initialize LLM client", zap.Error(err))
	}
	client = llm.WithBreaker(client, cfg.LLM.BreakerThreshold, cfg.LLM.BreakerRecovery)

	store := storage.NewClient(cfg, zlog)

	headshot := document.NewHeadshotFinder(cfg.Parser.FaceCascadePath)
	if !headshot.Enabled() {
		zlog.Warn("face cascade not found, headshot extraction disabled",
			zap.String("path", cfg.Parser.FaceCascadePath))
	}

	parser := services.NewParserService(store, client, headshot, cfg, zlog)

	app := handlers.NewApp("resume-parser", zlog)
	handlers.NewParseHandler(parser, cfg).Register(app)

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
