package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetByIDDecodesSkills(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "owner_id", "title", "description", "required_skills", "experience_required", "education_required", "created_at"}).
		AddRow(int64(7), "owner-1", "Backend Engineer", "Build APIs", []byte(`["Python","AWS"]`), "3+ years", "Bachelors", created)
	mock.ExpectQuery("SELECT id, owner_id, title").WithArgs(int64(7)).WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	job, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(job.RequiredSkills) != 2 || job.RequiredSkills[1] != "AWS" {
		t.Fatalf("unexpected skills %v", job.RequiredSkills)
	}
	if job.ExperienceRequired != "3+ years" || job.Education != "Bachelors" {
		t.Fatalf("unexpected job %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT id, owner_id, title").WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoCopiesSkills(t *testing.T) {
	repo := NewMemoryRepo()
	skills := []string{"Go"}
	repo.Put(Requirements{ID: 1, OwnerID: "u1", RequiredSkills: skills})
	skills[0] = "Rust"

	job, err := repo.GetByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if job.RequiredSkills[0] != "Go" {
		t.Fatalf("expected stored copy, got %v", job.RequiredSkills)
	}
	if !job.OwnedBy("u1") || job.OwnedBy("") {
		t.Fatalf("unexpected ownership result")
	}
	if _, err := repo.GetByID(context.Background(), 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
