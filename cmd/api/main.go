package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hirelens-backend/internal/bootstrap"
	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/server"
	"hirelens-backend/internal/shared/storage/db"
	"hirelens-backend/internal/shared/telemetry"
)

func main() {
	logger := telemetry.Logger()
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		logger.Fatal("bootstrap build", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dev databases are migrated on boot; other environments run cmd/migrate.
	if app.DB != nil && cfg.IsDevLike() {
		version, err := db.Migrate(ctx, app.DB)
		if err != nil {
			logger.Fatal("run migrations", zap.Error(err))
		}
		logger.Info("schema ready", zap.Int64("version", version))
	}

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api started", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown requested", zap.Duration("timeout", cfg.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	if app.DB != nil {
		_ = app.DB.Close()
	}
}
