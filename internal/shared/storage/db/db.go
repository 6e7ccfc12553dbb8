// Package db opens the Postgres pool and applies the embedded schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"hirelens-backend/internal/shared/telemetry"
)

const driverName = "pgx"

// Pool sizes the connection pool for one kind of process.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
	PingTimeout time.Duration
}

var openDB = sql.Open

// ServerPool is used by the API and the worker.
func ServerPool() Pool {
	return Pool{
		MaxOpen:     10,
		MaxIdle:     5,
		MaxLifetime: time.Hour,
		MaxIdleTime: 2 * time.Minute,
		PingTimeout: 5 * time.Second,
	}
}

// MigratePool keeps a single connection so goose runs serially.
func MigratePool() Pool {
	p := ServerPool()
	p.MaxOpen = 1
	p.MaxIdle = 1
	return p
}

// FromEnv applies DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME,
// DB_CONN_MAX_IDLE_TIME and DB_PING_TIMEOUT on top of p. Invalid values are
// logged and ignored.
func (p Pool) FromEnv() Pool {
	envInt("DB_MAX_OPEN_CONNS", &p.MaxOpen)
	envInt("DB_MAX_IDLE_CONNS", &p.MaxIdle)
	envDuration("DB_CONN_MAX_LIFETIME", &p.MaxLifetime)
	envDuration("DB_CONN_MAX_IDLE_TIME", &p.MaxIdleTime)
	envDuration("DB_PING_TIMEOUT", &p.PingTimeout)
	return p
}

func (p Pool) apply(db *sql.DB) {
	defaults := ServerPool()
	if p.MaxOpen <= 0 {
		p.MaxOpen = defaults.MaxOpen
	}
	if p.MaxIdle <= 0 {
		p.MaxIdle = defaults.MaxIdle
	}
	if p.MaxLifetime <= 0 {
		p.MaxLifetime = defaults.MaxLifetime
	}
	db.SetMaxOpenConns(p.MaxOpen)
	db.SetMaxIdleConns(p.MaxIdle)
	db.SetConnMaxLifetime(p.MaxLifetime)
	if p.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

// Connect opens the pool for databaseURL and pings it before returning.
func Connect(ctx context.Context, databaseURL string, pool Pool) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB(driverName, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	pool.apply(db)

	timeout := pool.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return db, nil
}

func envInt(key string, dst *int) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return
	}
	*dst = v
}

func envDuration(key string, dst *time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		telemetry.Warn("db.env_invalid", map[string]any{"key": key, "error": err.Error()})
		return
	}
	*dst = v
}
