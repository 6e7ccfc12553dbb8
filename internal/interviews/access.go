package interviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/security"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

// VerifyAccess checks a candidate's email and access code. Every attempt takes a
// slot in a per interview and client IP counter before credentials are checked,
// so parallel guesses cannot exceed the limit; a success clears the counter.
// Once the limit is reached every attempt is rejected until the window expires.
// A successful verification binds the interview to ip and records a
// multi-device event when another IP was bound.
func (s *Service) VerifyAccess(ctx context.Context, interviewID int64, email, accessCode, ip string) (AccessResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	accessCode = strings.ToUpper(strings.TrimSpace(accessCode))
	if email == "" || accessCode == "" {
		return AccessResult{}, ErrInvalidInput
	}

	attemptsKey := security.AttemptsKey(interviewID, ip)
	if !s.reserveAttempt(ctx, interviewID, attemptsKey) {
		s.logAccess(interviewID, ip, "rate_limited")
		return AccessResult{}, ErrRateLimited
	}

	sess, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return AccessResult{}, err
	}
	res, err := s.Resumes.GetByID(ctx, sess.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return AccessResult{}, ErrCandidateNotFound
		}
		return AccessResult{}, err
	}

	if strings.ToLower(strings.TrimSpace(res.CandidateEmail)) != email {
		s.logAccess(interviewID, ip, "invalid_email")
		return AccessResult{}, ErrInvalidEmail
	}
	if sess.AccessCode == "" || strings.ToUpper(sess.AccessCode) != accessCode {
		s.logAccess(interviewID, ip, "invalid_code")
		return AccessResult{}, ErrInvalidAccessCode
	}

	deviceKey := security.DeviceKey(interviewID)
	if boundIP, ok, err := s.Cache.Get(ctx, deviceKey); err != nil {
		s.cacheFailed("get_device", interviewID, err)
	} else if ok && boundIP != ip {
		s.recordMultiDevice(ctx, interviewID, boundIP, ip)
	}
	if err := s.Cache.Set(ctx, deviceKey, ip, s.sessionTTL()); err != nil {
		s.cacheFailed("set_device", interviewID, err)
	}
	if err := s.Cache.Delete(ctx, attemptsKey); err != nil {
		s.cacheFailed("clear_attempts", interviewID, err)
	}
	session := security.SessionRecord{
		Email:      email,
		IPAddress:  ip,
		VerifiedAt: s.now().Format(time.RFC3339),
		Violations: 0,
	}
	if err := security.SaveSession(ctx, s.Cache, interviewID, session, s.sessionTTL()); err != nil {
		s.cacheFailed("save_session", interviewID, err)
	}

	s.logAccess(interviewID, ip, "granted")
	return AccessResult{
		Message:       "Access verified",
		InterviewID:   interviewID,
		CandidateName: res.CandidateName,
	}, nil
}

// reserveAttempt counts one attempt and reports whether it is within the limit.
// A cache outage lets the attempt through.
func (s *Service) reserveAttempt(ctx context.Context, interviewID int64, key string) bool {
	n, err := s.Cache.Incr(ctx, key, s.accessWindow())
	if err != nil {
		s.cacheFailed("incr_attempts", interviewID, err)
		return true
	}
	return n <= int64(s.maxFailedAttempts())
}

func (s *Service) recordMultiDevice(ctx context.Context, interviewID int64, originalIP, newIP string) {
	if s.Security == nil {
		return
	}
	_, err := s.Security.Record(ctx, security.Event{
		InterviewID: interviewID,
		EventType:   security.EventMultiDevice,
		Timestamp:   s.now(),
		IPAddress:   newIP,
		Metadata: map[string]any{
			"original_ip": originalIP,
			"new_ip":      newIP,
		},
	})
	if err != nil {
		telemetry.Error("interview.security_record_failed", map[string]any{
			"interview_id": interviewID,
			"event_type":   security.EventMultiDevice,
			"error":        err.Error(),
		})
	}
}

func (s *Service) logAccess(interviewID int64, ip, outcome string) {
	metrics.IncInterviewAccess(outcome)
	fields := map[string]any{
		"interview_id": interviewID,
		"ip_address":   ip,
		"outcome":      outcome,
	}
	if outcome == "granted" {
		telemetry.Info("interview.access", fields)
		return
	}
	telemetry.Warn("interview.access", fields)
}

func (s *Service) cacheFailed(op string, interviewID int64, err error) {
	telemetry.Warn("interview.cache_failed", map[string]any{
		"op":           op,
		"interview_id": interviewID,
		"error":        err.Error(),
	})
}
