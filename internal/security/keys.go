package security

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hirelens-backend/internal/shared/cache"
)

// SessionTTL bounds every per-interview cache entry.
const SessionTTL = 24 * time.Hour

func SessionKey(interviewID int64) string   { return fmt.Sprintf("interview_session:%d", interviewID) }
func DeviceKey(interviewID int64) string    { return fmt.Sprintf("interview_device:%d", interviewID) }
func ViolationKey(interviewID int64) string { return fmt.Sprintf("interview_violations:%d", interviewID) }
func FlagKey(interviewID int64) string      { return fmt.Sprintf("interview_flagged:%d", interviewID) }

// AttemptsKey counts access attempts per interview and client IP since the last success.
func AttemptsKey(interviewID int64, ip string) string {
	return fmt.Sprintf("login_attempts:%d:%s", interviewID, ip)
}

// SessionRecord is the cached state of a verified candidate session.
type SessionRecord struct {
	Email        string `json:"email"`
	IPAddress    string `json:"ip_address"`
	VerifiedAt   string `json:"verified_at"`
	Violations   int    `json:"violations"`
	LastActivity string `json:"last_activity,omitempty"`
	LastEvent    string `json:"last_event,omitempty"`
}

// LoadSession reads the cached session. A missing or undecodable entry reports ok=false.
func LoadSession(ctx context.Context, c cache.Cache, interviewID int64) (SessionRecord, bool, error) {
	raw, ok, err := c.Get(ctx, SessionKey(interviewID))
	if err != nil || !ok {
		return SessionRecord{}, false, err
	}
	var rec SessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return SessionRecord{}, false, nil
	}
	return rec, true, nil
}

// SaveSession writes the session record. A zero ttl means SessionTTL.
func SaveSession(ctx context.Context, c cache.Cache, interviewID int64, rec SessionRecord, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.Set(ctx, SessionKey(interviewID), string(raw), ttl)
}
