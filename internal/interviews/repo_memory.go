package interviews

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu       sync.RWMutex
	nextID   int64
	sessions map[int64]Session
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{sessions: make(map[int64]Session)}
}

// Create stores s with a new id at version 1.
func (m *MemoryRepo) Create(ctx context.Context, s Session) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.Version = 1
	if s.Status == "" {
		s.Status = StatusPending
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.sessions[s.ID] = clone(s)
	return clone(s), nil
}

// GetByID returns a copy of the stored session.
func (m *MemoryRepo) GetByID(ctx context.Context, id int64) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return clone(s), nil
}

// Update writes s when its version is current. Notes are left untouched.
func (m *MemoryRepo) Update(ctx context.Context, s Session) (Session, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.sessions[s.ID]
	if !ok {
		return Session{}, ErrNotFound
	}
	if current.Version != s.Version {
		return Session{}, ErrConflict
	}
	s.Notes = current.Notes
	s.AccessCode = current.AccessCode
	s.CreatedAt = current.CreatedAt
	s.Version = current.Version + 1
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.ID] = clone(s)
	return clone(s), nil
}

// AppendNote appends note to the session notes.
func (m *MemoryRepo) AppendNote(ctx context.Context, id int64, note string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Notes += note
	m.sessions[id] = s
	return nil
}

func clone(s Session) Session {
	out := s
	if s.Questions != nil {
		out.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			out.Questions[i] = cloneQuestion(q)
		}
	}
	if s.AIScore != nil {
		v := *s.AIScore
		out.AIScore = &v
	}
	if s.Analysis != nil {
		a := *s.Analysis
		a.Strengths = append([]string(nil), s.Analysis.Strengths...)
		a.Weaknesses = append([]string(nil), s.Analysis.Weaknesses...)
		out.Analysis = &a
	}
	if s.ScheduledAt != nil {
		v := *s.ScheduledAt
		out.ScheduledAt = &v
	}
	if s.CompletedAt != nil {
		v := *s.CompletedAt
		out.CompletedAt = &v
	}
	return out
}

func cloneQuestion(q Question) Question {
	out := q
	out.ExpectedPoints = append([]string(nil), q.ExpectedPoints...)
	out.CoveredPoints = append([]string(nil), q.CoveredPoints...)
	out.MissedPoints = append([]string(nil), q.MissedPoints...)
	out.Strengths = append([]string(nil), q.Strengths...)
	out.Improvements = append([]string(nil), q.Improvements...)
	if q.Answer != nil {
		v := *q.Answer
		out.Answer = &v
	}
	if q.AnsweredAt != nil {
		v := *q.AnsweredAt
		out.AnsweredAt = &v
	}
	if q.Score != nil {
		v := *q.Score
		out.Score = &v
	}
	return out
}

var _ Repo = (*MemoryRepo)(nil)
