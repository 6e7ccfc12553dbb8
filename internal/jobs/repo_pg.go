package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// GetByID loads a job row. required_skills is stored as a JSONB array.
func (r *PGRepo) GetByID(ctx context.Context, id int64) (Requirements, error) {
	const query = `
SELECT id, owner_id, title, description, required_skills, experience_required, education_required, created_at
FROM jobs
WHERE id = $1`

	var job Requirements
	var description sql.NullString
	var skillsRaw []byte
	var experience sql.NullString
	var education sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.OwnerID,
		&job.Title,
		&description,
		&skillsRaw,
		&experience,
		&education,
		&job.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Requirements{}, ErrNotFound
		}
		return Requirements{}, err
	}
	job.Description = description.String
	job.ExperienceRequired = experience.String
	job.Education = education.String
	if len(skillsRaw) > 0 {
		if err := json.Unmarshal(skillsRaw, &job.RequiredSkills); err != nil {
			return Requirements{}, fmt.Errorf("decode required_skills for job %d: %w", id, err)
		}
	}
	return job, nil
}

var _ Repo = (*PGRepo)(nil)
