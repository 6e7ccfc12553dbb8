package interviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const interviewColumns = `id, job_id, resume_id, access_code, interview_status, questions,
    ai_score, ai_feedback, analysis, notes, duration_minutes, scheduled_at, completed_at,
    version, created_at, updated_at`

// Create inserts a session at version 1.
func (r *PGRepo) Create(ctx context.Context, s Session) (Session, error) {
	const query = `
INSERT INTO interviews (
    job_id, resume_id, access_code, interview_status, questions,
    duration_minutes, scheduled_at, version, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
RETURNING id`

	if s.Status == "" {
		s.Status = StatusPending
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = s.CreatedAt
	s.Version = 1
	questions, err := encodeQuestions(s.Questions)
	if err != nil {
		return Session{}, err
	}

	err = r.DB.QueryRowContext(
		ctx,
		query,
		s.JobID,
		s.ResumeID,
		s.AccessCode,
		s.Status,
		questions,
		s.DurationMinutes,
		s.ScheduledAt,
		s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return Session{}, err
	}
	return s, nil
}

// GetByID returns a session by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Session, error) {
	query := `SELECT ` + interviewColumns + ` FROM interviews WHERE id = $1`
	var (
		s           Session
		questions   []byte
		aiScore     sql.NullFloat64
		analysis    []byte
		scheduledAt sql.NullTime
		completedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&s.ID,
		&s.JobID,
		&s.ResumeID,
		&s.AccessCode,
		&s.Status,
		&questions,
		&aiScore,
		&s.AIFeedback,
		&analysis,
		&s.Notes,
		&s.DurationMinutes,
		&scheduledAt,
		&completedAt,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if len(questions) > 0 {
		if err := json.Unmarshal(questions, &s.Questions); err != nil {
			return Session{}, fmt.Errorf("decode questions: %w", err)
		}
	}
	if len(analysis) > 0 && string(analysis) != "null" {
		var a Assessment
		if err := json.Unmarshal(analysis, &a); err != nil {
			return Session{}, fmt.Errorf("decode analysis: %w", err)
		}
		s.Analysis = &a
	}
	if aiScore.Valid {
		v := aiScore.Float64
		s.AIScore = &v
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		s.ScheduledAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		s.CompletedAt = &t
	}
	return s, nil
}

// Update writes the mutable session fields guarded on the version.
func (r *PGRepo) Update(ctx context.Context, s Session) (Session, error) {
	const query = `
UPDATE interviews
SET interview_status = $3,
    questions = $4,
    ai_score = $5,
    ai_feedback = $6,
    analysis = $7,
    completed_at = $8,
    version = version + 1,
    updated_at = $9
WHERE id = $1 AND version = $2`

	questions, err := encodeQuestions(s.Questions)
	if err != nil {
		return Session{}, err
	}
	var analysis any
	if s.Analysis != nil {
		raw, err := json.Marshal(s.Analysis)
		if err != nil {
			return Session{}, fmt.Errorf("encode analysis: %w", err)
		}
		analysis = raw
	}
	updatedAt := time.Now().UTC()

	result, err := r.DB.ExecContext(
		ctx,
		query,
		s.ID,
		s.Version,
		s.Status,
		questions,
		s.AIScore,
		s.AIFeedback,
		analysis,
		s.CompletedAt,
		updatedAt,
	)
	if err != nil {
		return Session{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return Session{}, err
	}
	if affected == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM interviews WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
			return Session{}, err
		}
		if !exists {
			return Session{}, ErrNotFound
		}
		return Session{}, ErrConflict
	}
	s.Version++
	s.UpdatedAt = updatedAt
	return s, nil
}

// AppendNote appends note to the recruiter notes.
func (r *PGRepo) AppendNote(ctx context.Context, id int64, note string) error {
	const query = `UPDATE interviews SET notes = notes || $2, updated_at = $3 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, note, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeQuestions(qs []Question) ([]byte, error) {
	if qs == nil {
		qs = []Question{}
	}
	raw, err := json.Marshal(qs)
	if err != nil {
		return nil, fmt.Errorf("encode questions: %w", err)
	}
	return raw, nil
}

var _ Repo = (*PGRepo)(nil)
