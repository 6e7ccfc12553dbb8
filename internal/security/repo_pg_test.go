package security

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoAppend(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO interview_security_logs")).
		WithArgs(int64(7), EventDevtoolsOpened, ts, "10.0.0.1", "agent", "", 2, false, []byte(`{"violations":2}`), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	e, err := repo.Append(context.Background(), Event{
		InterviewID:    7,
		EventType:      EventDevtoolsOpened,
		Timestamp:      ts,
		IPAddress:      "10.0.0.1",
		UserAgent:      "agent",
		ViolationCount: 2,
		Metadata:       map[string]any{"violations": 2},
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if e.ID != 11 {
		t.Fatalf("expected id 11, got %d", e.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoRecentCritical(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	ts := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "interview_id", "event_type", "occurred_at", "ip_address", "user_agent", "device_fingerprint", "violation_count", "auto_submitted", "metadata", "created_at"}).
		AddRow(int64(3), int64(7), EventMultiDevice, ts, "10.0.0.2", "", "", 0, false, []byte(`{"original_ip":"10.0.0.1","new_ip":"10.0.0.2"}`), ts)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE interview_id = $1 AND event_type IN ($2, $3, $4, $5, $6)")).
		WithArgs(int64(7), EventDevtoolsOpened, EventAutoSubmitTimeout, EventAutoSubmitIdle, EventIPAddressChanged, EventMultiDevice, 5).
		WillReturnRows(rows)

	events, err := repo.RecentCritical(context.Background(), 7, 5)
	if err != nil {
		t.Fatalf("RecentCritical: %v", err)
	}
	if len(events) != 1 || events[0].Metadata["original_ip"] != "10.0.0.1" {
		t.Fatalf("unexpected events %+v", events)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoCountByInterview(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM interview_security_logs")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := (&PGRepo{DB: db}).CountByInterview(context.Background(), 7)
	if err != nil || n != 4 {
		t.Fatalf("expected 4, got %d err=%v", n, err)
	}
}
