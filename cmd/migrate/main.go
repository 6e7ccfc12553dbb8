package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"go.uber.org/zap"

	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/storage/db"
	"hirelens-backend/internal/shared/telemetry"
)

func main() {
	logger := telemetry.Logger()
	cfg := config.Load()
	ctx := context.Background()

	opts := db.MigratePool().FromEnv()
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		logger.Error("failed to connect database", zap.Error(err))
		os.Exit(1)
	}
	defer sqlDB.Close()

	version, err := db.Migrate(ctx, sqlDB)
	if err != nil {
		logger.Error("failed to run migrations", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("migrations applied", zap.Int64("version", version))
}
