// Package main runs the background job worker (email index reconcile).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mystik-app/backend/config"
	"github.com/mystik-app/backend/internal/bootstrap"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/internal/worker"
	"github.com/mystik-app/backend/pkg/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := bootstrap.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if cfg.Redis.Addr == "" {
		logger.Fatal("worker requires REDIS_ADDR for the job queue")
	}
	if cfg.Store.Backend == config.BackendMemory {
		logger.Fatal("worker cannot reconcile an in-memory store owned by another process")
	}

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer infra.Close()

	regService := registrations.NewService(registrations.NewRepository(infra.Store), logger)
	jobQueue := queue.NewQueue(infra.Redis.Client, logger)
	processor := worker.NewReconcileProcessor(jobQueue, regService, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	go processor.Schedule(workerCtx, time.Duration(cfg.Worker.ReconcileIntervalMinutes)*time.Minute)
	logger.Info("worker started", zap.Int("reconcile_interval_min", cfg.Worker.ReconcileIntervalMinutes))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}
