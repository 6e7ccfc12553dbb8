package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirelens-backend/internal/fields"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const resumeColumns = `id, job_id, owner_id, file_name, storage_key, size_bytes,
    submitted_name, submitted_email, submitted_phone, submitted_location,
    candidate_name, candidate_email, candidate_phone, location, experience_years, education_level, parsed_data,
    score, matched_skills, missing_skills, explanation, scoring_strategy,
    processing_status, processing_error, processing_time_seconds, status, created_at, updated_at`

// Create inserts a pending resume and returns it with its id.
func (r *PGRepo) Create(ctx context.Context, res Resume) (Resume, error) {
	const query = `
INSERT INTO resumes (
    job_id, owner_id, file_name, storage_key, size_bytes,
    submitted_name, submitted_email, submitted_phone, submitted_location,
    processing_status, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING id`

	if res.ProcessingStatus == "" {
		res.ProcessingStatus = StatusPending
	}
	if res.Status == "" {
		res.Status = StageNew
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	res.UpdatedAt = res.CreatedAt

	err := r.DB.QueryRowContext(
		ctx,
		query,
		res.JobID,
		res.OwnerID,
		res.FileName,
		res.StorageKey,
		res.SizeBytes,
		res.Submitted.Name,
		res.Submitted.Email,
		res.Submitted.Phone,
		res.Submitted.Location,
		res.ProcessingStatus,
		string(res.Status),
		res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return Resume{}, err
	}
	return res, nil
}

// GetByID returns a resume by id.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Resume, error) {
	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE id = $1`
	res, err := scanResume(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return res, nil
}

// TransitionStatus moves processing status from -> to if the row is still at from.
func (r *PGRepo) TransitionStatus(ctx context.Context, id int64, from, to string) error {
	const query = `
UPDATE resumes
SET processing_status = $3, updated_at = $4
WHERE id = $1 AND processing_status = $2`
	result, err := r.DB.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, id, result)
}

// SaveResult stores processing results and completes a processing resume.
func (r *PGRepo) SaveResult(ctx context.Context, id int64, u ResultUpdate) error {
	const query = `
UPDATE resumes
SET candidate_name = $2,
    candidate_email = $3,
    candidate_phone = $4,
    location = $5,
    experience_years = $6,
    education_level = $7,
    parsed_data = $8,
    score = $9,
    matched_skills = $10,
    missing_skills = $11,
    explanation = $12,
    scoring_strategy = $13,
    processing_time_seconds = $14,
    processing_status = 'completed',
    updated_at = $15
WHERE id = $1 AND processing_status = 'processing'`

	parsed, err := json.Marshal(u.ParsedData)
	if err != nil {
		return fmt.Errorf("encode parsed_data: %w", err)
	}
	matched, err := encodeList(u.MatchedSkills)
	if err != nil {
		return err
	}
	missing, err := encodeList(u.MissingSkills)
	if err != nil {
		return err
	}
	completedAt := u.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	result, err := r.DB.ExecContext(
		ctx,
		query,
		id,
		u.CandidateName,
		u.CandidateEmail,
		u.CandidatePhone,
		u.Location,
		u.ExperienceYears,
		string(u.EducationLevel),
		parsed,
		u.Score,
		matched,
		missing,
		u.Explanation,
		u.ScoringStrategy,
		u.ProcessingTimeSeconds,
		completedAt,
	)
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, id, result)
}

// MarkFailed fails a processing resume.
func (r *PGRepo) MarkFailed(ctx context.Context, id int64, message string) error {
	const query = `
UPDATE resumes
SET processing_status = 'failed', processing_error = $2, updated_at = $3
WHERE id = $1 AND processing_status = 'processing'`
	result, err := r.DB.ExecContext(ctx, query, id, message, time.Now().UTC())
	if err != nil {
		return err
	}
	return r.checkGuarded(ctx, id, result)
}

// UpdatePipelineStatus sets the recruiter stage.
func (r *PGRepo) UpdatePipelineStatus(ctx context.Context, id int64, stage Stage) error {
	const query = `UPDATE resumes SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, string(stage), time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes the resume row.
func (r *PGRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// ListByJob returns resumes for a job, newest first.
func (r *PGRepo) ListByJob(ctx context.Context, jobID int64, limit, offset int) ([]Resume, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + resumeColumns + `
FROM resumes
WHERE job_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, jobID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Resume, 0)
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// checkGuarded turns a zero-row guarded update into ErrNotFound or ErrStatusConflict.
func (r *PGRepo) checkGuarded(ctx context.Context, id int64, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusConflict
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResume(row rowScanner) (Resume, error) {
	var res Resume
	var education string
	var status string
	var parsed []byte
	var matched []byte
	var missing []byte
	var score sql.NullFloat64
	var seconds sql.NullFloat64
	err := row.Scan(
		&res.ID,
		&res.JobID,
		&res.OwnerID,
		&res.FileName,
		&res.StorageKey,
		&res.SizeBytes,
		&res.Submitted.Name,
		&res.Submitted.Email,
		&res.Submitted.Phone,
		&res.Submitted.Location,
		&res.CandidateName,
		&res.CandidateEmail,
		&res.CandidatePhone,
		&res.Location,
		&res.ExperienceYears,
		&education,
		&parsed,
		&score,
		&matched,
		&missing,
		&res.Explanation,
		&res.ScoringStrategy,
		&res.ProcessingStatus,
		&res.ProcessingError,
		&seconds,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return Resume{}, err
	}
	res.EducationLevel = fields.ParseEducation(education)
	res.Status = Stage(status)
	if score.Valid {
		res.Score = &score.Float64
	}
	if seconds.Valid {
		res.ProcessingTimeSeconds = &seconds.Float64
	}
	if len(parsed) > 0 && !strings.EqualFold(string(parsed), "null") {
		var fs fields.FieldSet
		if err := json.Unmarshal(parsed, &fs); err != nil {
			return Resume{}, fmt.Errorf("decode parsed_data for resume %d: %w", res.ID, err)
		}
		res.ParsedData = &fs
	}
	if res.MatchedSkills, err = decodeList(matched); err != nil {
		return Resume{}, err
	}
	if res.MissingSkills, err = decodeList(missing); err != nil {
		return Resume{}, err
	}
	return res, nil
}

func encodeList(items []string) ([]byte, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return b, nil
}

func decodeList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

var _ Repo = (*PGRepo)(nil)
