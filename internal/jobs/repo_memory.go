package jobs

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[int64]Requirements
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[int64]Requirements)}
}

// Put stores a job, replacing any existing entry with the same id.
func (r *MemoryRepo) Put(job Requirements) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.RequiredSkills = append([]string(nil), job.RequiredSkills...)
	r.data[job.ID] = job
}

// GetByID returns the job with the given id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Requirements, error) {
	if err := ctx.Err(); err != nil {
		return Requirements{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.data[id]
	if !ok {
		return Requirements{}, ErrNotFound
	}
	job.RequiredSkills = append([]string(nil), job.RequiredSkills...)
	return job, nil
}

var _ Repo = (*MemoryRepo)(nil)
