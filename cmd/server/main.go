// Package main runs the lead-capture HTTP server with graceful shutdown.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mystik-app/backend/config"
	"github.com/mystik-app/backend/internal/admin"
	"github.com/mystik-app/backend/internal/auth"
	"github.com/mystik-app/backend/internal/bootstrap"
	"github.com/mystik-app/backend/internal/metrics"
	"github.com/mystik-app/backend/internal/registrations"
	"github.com/mystik-app/backend/internal/waitlist"
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

	ctx := context.Background()
	infra, err := bootstrap.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store", zap.Error(err))
	}
	defer infra.Close()

	m := metrics.New()

	regRepo := registrations.NewRepository(infra.Store)
	regService := registrations.NewService(regRepo, logger, registrations.WithMetrics(m))
	regHandler := registrations.NewHandler(regService, logger)

	waitlistService := waitlist.NewService(waitlist.NewRepository(infra.Store), m, logger)
	waitlistHandler := waitlist.NewHandler(waitlistService, logger)

	jwtService := auth.NewJWTService(cfg.Auth.ProjectSecret)
	authHandler := auth.NewHandler(jwtService, auth.AdminCredentials{
		Email:        cfg.Auth.AdminEmail,
		PasswordHash: cfg.Auth.AdminPasswordHash,
		TokenTTL:     time.Duration(cfg.Auth.AdminTokenHours) * time.Hour,
	}, logger)

	facade := admin.NewFacade(regService, time.Duration(cfg.Admin.CacheTTLSeconds)*time.Second)
	regService.OnChange(facade.Invalidate)

	adminDeps := admin.Deps{
		Facade:     facade,
		Waitlist:   waitlistService,
		Reconciler: regService,
		Location:   bootstrap.AdminLocation(cfg.Admin.Timezone, logger),
	}
	if infra.Redis != nil {
		adminDeps.Queue = queue.NewQueue(infra.Redis.Client, logger)
	}
	exporter, err := bootstrap.NewExporter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("s3", zap.Error(err))
	}
	if exporter != nil {
		adminDeps.Exporter = exporter
	} else {
		logger.Info("S3 export archive disabled (AWS_S3_EXPORTS_BUCKET not set)")
	}
	adminHandler := admin.NewHandler(adminDeps, logger)

	router := newRouter(routerDeps{
		JWT:            jwtService,
		Metrics:        m,
		Registrations:  regHandler,
		Waitlist:       waitlistHandler,
		Auth:           authHandler,
		Admin:          adminHandler,
		CORSOrigins:    cfg.Server.CORSAllowedOrigins,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("backend", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
