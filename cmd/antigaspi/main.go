// Command antigaspi runs one anti-gaspi sweep and exits. Meant for cron.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"dz-fellah/app"
	"dz-fellah/config"
	"dz-fellah/utils"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.RunMigrations = false

	logger, err := utils.NewLogger(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to start", zap.Error(err))
	}
	defer application.Close()

	n, err := application.AntiGaspi.Sweep(ctx)
	if err != nil {
		logger.Error("sweep failed", zap.Error(err))
		application.Close()
		os.Exit(1)
	}
	logger.Info("sweep finished", zap.Int64("products_updated", n))
}
