package resumes

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Resume
	now    func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64]Resume),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Create assigns an id and stores the resume.
func (m *MemoryRepo) Create(ctx context.Context, r Resume) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	if r.ProcessingStatus == "" {
		r.ProcessingStatus = StatusPending
	}
	if r.Status == "" {
		r.Status = StageNew
	}
	now := m.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	m.data[r.ID] = r
	return clone(r), nil
}

// GetByID returns the resume with id.
func (m *MemoryRepo) GetByID(ctx context.Context, id int64) (Resume, error) {
	if err := ctx.Err(); err != nil {
		return Resume{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.data[id]
	if !ok {
		return Resume{}, ErrNotFound
	}
	return clone(r), nil
}

// TransitionStatus moves processing status from -> to if the row is still at from.
func (m *MemoryRepo) TransitionStatus(ctx context.Context, id int64, from, to string) error {
	return m.mutate(ctx, id, from, func(r *Resume) {
		r.ProcessingStatus = to
	})
}

// SaveResult stores processing results and completes the resume.
func (m *MemoryRepo) SaveResult(ctx context.Context, id int64, u ResultUpdate) error {
	return m.mutate(ctx, id, StatusProcessing, func(r *Resume) {
		parsed := u.ParsedData
		score := u.Score
		seconds := u.ProcessingTimeSeconds
		r.CandidateName = u.CandidateName
		r.CandidateEmail = u.CandidateEmail
		r.CandidatePhone = u.CandidatePhone
		r.Location = u.Location
		r.ExperienceYears = u.ExperienceYears
		r.EducationLevel = u.EducationLevel
		r.ParsedData = &parsed
		r.Score = &score
		r.MatchedSkills = append([]string(nil), u.MatchedSkills...)
		r.MissingSkills = append([]string(nil), u.MissingSkills...)
		r.Explanation = u.Explanation
		r.ScoringStrategy = u.ScoringStrategy
		r.ProcessingTimeSeconds = &seconds
		r.ProcessingStatus = StatusCompleted
	})
}

// MarkFailed fails a resume that is processing.
func (m *MemoryRepo) MarkFailed(ctx context.Context, id int64, message string) error {
	return m.mutate(ctx, id, StatusProcessing, func(r *Resume) {
		r.ProcessingStatus = StatusFailed
		r.ProcessingError = message
	})
}

// UpdatePipelineStatus sets the recruiter stage.
func (m *MemoryRepo) UpdatePipelineStatus(ctx context.Context, id int64, stage Stage) error {
	return m.mutate(ctx, id, "", func(r *Resume) {
		r.Status = stage
	})
}

// Delete removes the resume.
func (m *MemoryRepo) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return ErrNotFound
	}
	delete(m.data, id)
	return nil
}

// ListByJob returns resumes for a job, newest first.
func (m *MemoryRepo) ListByJob(ctx context.Context, jobID int64, limit, offset int) ([]Resume, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	m.mu.RLock()
	out := make([]Resume, 0)
	for _, r := range m.data {
		if r.JobID == jobID {
			out = append(out, clone(r))
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if offset >= len(out) {
		return []Resume{}, nil
	}
	end := len(out)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return out[offset:end], nil
}

// mutate applies fn when the stored processing status equals from. An empty
// from skips the guard.
func (m *MemoryRepo) mutate(ctx context.Context, id int64, from string, fn func(*Resume)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[id]
	if !ok {
		return ErrNotFound
	}
	if from != "" && r.ProcessingStatus != from {
		return ErrStatusConflict
	}
	fn(&r)
	r.UpdatedAt = m.now()
	m.data[id] = r
	return nil
}

func clone(r Resume) Resume {
	r.MatchedSkills = append([]string(nil), r.MatchedSkills...)
	r.MissingSkills = append([]string(nil), r.MissingSkills...)
	if r.ParsedData != nil {
		parsed := *r.ParsedData
		r.ParsedData = &parsed
	}
	return r
}

var _ Repo = (*MemoryRepo)(nil)
