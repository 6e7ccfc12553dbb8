package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func stubOpen(t *testing.T, open func(driver, dsn string) (*sql.DB, error)) {
	t.Helper()
	prev := openDB
	openDB = open
	t.Cleanup(func() { openDB = prev })
}

func TestFromEnvOverridesPool(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "nope")

	p := ServerPool().FromEnv()
	if p.MaxOpen != 7 || p.MaxIdle != 3 {
		t.Fatalf("unexpected sizes %+v", p)
	}
	if p.MaxLifetime != 20*time.Minute || p.MaxIdleTime != 45*time.Second {
		t.Fatalf("unexpected lifetimes %+v", p)
	}
	if p.PingTimeout != 5*time.Second {
		t.Fatalf("invalid override should keep default, got %s", p.PingTimeout)
	}
}

func TestMigratePoolIsSerial(t *testing.T) {
	p := MigratePool()
	if p.MaxOpen != 1 || p.MaxIdle != 1 {
		t.Fatalf("unexpected migrate pool %+v", p)
	}
}

func TestConnectPingsAndSizesPool(t *testing.T) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	var gotDriver, gotDSN string
	stubOpen(t, func(driver, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = driver, dsn
		return mockDB, nil
	})
	mock.ExpectPing()

	conn, err := Connect(context.Background(), "postgres://hirelens", Pool{MaxOpen: 4})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if gotDriver != "pgx" || gotDSN != "postgres://hirelens" {
		t.Fatalf("unexpected open(%q, %q)", gotDriver, gotDSN)
	}
	if conn.Stats().MaxOpenConnections != 4 {
		t.Fatalf("expected max open 4, got %d", conn.Stats().MaxOpenConnections)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestConnectFailures(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", ServerPool()); err == nil {
		t.Fatalf("expected error for empty url")
	}

	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	stubOpen(t, func(string, string) (*sql.DB, error) { return mockDB, nil })
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	if _, err := Connect(context.Background(), "postgres://down", ServerPool()); err == nil {
		t.Fatalf("expected ping failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrateNilDatabase(t *testing.T) {
	v, err := Migrate(context.Background(), nil)
	if err != nil || v != 0 {
		t.Fatalf("expected no-op, got %d %v", v, err)
	}
}
