package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"onecoupon-console/internal/app"
	"onecoupon-console/internal/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.NewServer(cfg, logger).Run(ctx); err != nil {
		logger.Error("console stopped with error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("console stopped gracefully")
}
