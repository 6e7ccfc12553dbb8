package interviews

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/security"
	"hirelens-backend/internal/shared/cache"
)

const (
	defaultAccessWindow      = 5 * time.Minute
	defaultMaxFailedAttempts = 5
	defaultDurationMinutes   = 30
	maxUpdateAttempts        = 3
	aiTemperature            = 0.3
	accessCodeLength         = 6
)

// CandidateLookup resolves the resume an interview was scheduled for.
type CandidateLookup interface {
	GetByID(ctx context.Context, id int64) (resumes.Resume, error)
}

// SecurityRecorder appends security events raised by the session protocol.
type SecurityRecorder interface {
	Record(ctx context.Context, e security.Event) (security.Event, error)
}

// Service implements the interview session protocol.
type Service struct {
	Repo      Repo
	Resumes   CandidateLookup
	Jobs      jobs.Repo
	Cache     cache.Cache
	Generator llm.Generator
	Security  SecurityRecorder
	// Notifier is optional.
	Notifier notify.Notifier
	Now      func() time.Time

	AccessWindow      time.Duration
	MaxFailedAttempts int
	SessionTTL        time.Duration
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) accessWindow() time.Duration {
	if s.AccessWindow > 0 {
		return s.AccessWindow
	}
	return defaultAccessWindow
}

func (s *Service) maxFailedAttempts() int {
	if s.MaxFailedAttempts > 0 {
		return s.MaxFailedAttempts
	}
	return defaultMaxFailedAttempts
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return security.SessionTTL
}

func (s *Service) generator() llm.Generator {
	if s.Generator == nil {
		return llm.PlaceholderGenerator{}
	}
	return s.Generator
}

// ScheduleInput describes a new interview for a processed resume.
type ScheduleInput struct {
	ResumeID        int64
	DurationMinutes int
	ScheduledAt     *time.Time
}

// Schedule creates a pending interview with a fresh access code for a resume
// on a job owned by ownerID. The access code is returned on the session.
func (s *Service) Schedule(ctx context.Context, ownerID string, in ScheduleInput) (Session, error) {
	if in.ResumeID <= 0 {
		return Session{}, fmt.Errorf("%w: resume_id is required", ErrInvalidInput)
	}
	if in.DurationMinutes < 0 {
		return Session{}, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}
	res, err := s.Resumes.GetByID(ctx, in.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return Session{}, ErrCandidateNotFound
		}
		return Session{}, err
	}
	if _, err := s.ownedJob(ctx, ownerID, res.JobID); err != nil {
		return Session{}, err
	}
	code, err := NewAccessCode()
	if err != nil {
		return Session{}, fmt.Errorf("generate access code: %w", err)
	}
	duration := in.DurationMinutes
	if duration == 0 {
		duration = defaultDurationMinutes
	}
	return s.Repo.Create(ctx, Session{
		JobID:           res.JobID,
		ResumeID:        res.ID,
		AccessCode:      code,
		Status:          StatusPending,
		Questions:       []Question{},
		DurationMinutes: duration,
		ScheduledAt:     in.ScheduledAt,
		CreatedAt:       s.now(),
	})
}

// ownedJob loads the job and checks that ownerID owns it.
func (s *Service) ownedJob(ctx context.Context, ownerID string, jobID int64) (jobs.Requirements, error) {
	job, err := s.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return jobs.Requirements{}, ErrForbidden
		}
		return jobs.Requirements{}, err
	}
	if !job.OwnedBy(ownerID) {
		return jobs.Requirements{}, ErrForbidden
	}
	return job, nil
}

// update applies fn to the latest session and writes it, retrying on version
// conflicts.
func (s *Service) update(ctx context.Context, id int64, fn func(*Session) error) (Session, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		sess, err := s.Repo.GetByID(ctx, id)
		if err != nil {
			return Session{}, err
		}
		if err := fn(&sess); err != nil {
			return Session{}, err
		}
		saved, err := s.Repo.Update(ctx, sess)
		if err == nil {
			return saved, nil
		}
		if !errors.Is(err, ErrConflict) {
			return Session{}, err
		}
		lastErr = err
	}
	return Session{}, lastErr
}

const accessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewAccessCode returns a random uppercase access code.
func NewAccessCode() (string, error) {
	buf := make([]byte, accessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	for _, v := range buf {
		b.WriteByte(accessCodeAlphabet[int(v)%len(accessCodeAlphabet)])
	}
	return b.String(), nil
}

func normalizeLabel(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	return s
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
