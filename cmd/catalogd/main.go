package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"catalognorm/internal/app"
	"catalognorm/internal/config"
	"catalognorm/internal/logging"
	"catalognorm/internal/metrics"
	"catalognorm/internal/secrets"
	"catalognorm/internal/server"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := app.New(context.Background(), cfg, logger, secrets.EnvSource{})
	if err != nil {
		logger.Fatal("failed to initialize app", zap.Error(err))
	}
	defer func() { _ = a.Close() }()

	h := server.NewHandler(a.Standardize, a.Inventory, a.Usage, logger).WithMetrics(metrics.New())
	srv := server.New(cfg.Port, server.NewMux(h), logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server exiting")
}
