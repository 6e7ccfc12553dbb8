package security

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/shared/cache"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

const recentCriticalLimit = 5

// InterviewInfo is the slice of an interview the monitor needs.
type InterviewInfo struct {
	ID      int64
	JobID   int64
	OwnerID string
	Status  string
}

// InterviewStore resolves interviews and annotates their recruiter notes.
type InterviewStore interface {
	// InterviewInfo returns ErrInterviewNotFound for an unknown id.
	InterviewInfo(ctx context.Context, id int64) (InterviewInfo, error)
	AppendNote(ctx context.Context, id int64, note string) error
}

// Monitor records interview security events. The cache holds the live view
// and is advisory: cache failures are logged and never fail an operation.
type Monitor struct {
	Repo       Repo
	Cache      cache.Cache
	Interviews InterviewStore
	// Notifier is optional. Critical events notify the job owner.
	Notifier notify.Notifier
	Now      func() time.Time
}

func (m *Monitor) now() time.Time {
	if m.Now != nil {
		return m.Now().UTC()
	}
	return time.Now().UTC()
}

// LogActivity records a client-reported event. The reported violation
// counter becomes the live gauge as-is. When the verified session is bound
// to another IP the event is recorded as ip_address_changed.
func (m *Monitor) LogActivity(ctx context.Context, a Activity) (Event, error) {
	if _, err := m.Interviews.InterviewInfo(ctx, a.InterviewID); err != nil {
		return Event{}, err
	}

	eventType := strings.TrimSpace(a.EventType)
	if eventType == "" {
		eventType = EventUnknown
	}
	metadata := make(map[string]any, len(a.Metadata)+2)
	for k, v := range a.Metadata {
		metadata[k] = v
	}
	occurredAt := m.parseTimestamp(a.Timestamp)
	violations := intValue(metadata["violations"])

	session, ok, err := LoadSession(ctx, m.Cache, a.InterviewID)
	if err != nil {
		m.cacheFailed("load_session", a.InterviewID, err)
	}
	if ok {
		session.Violations = violations
		session.LastActivity = occurredAt.Format(time.RFC3339)
		session.LastEvent = eventType
		if err := SaveSession(ctx, m.Cache, a.InterviewID, session, SessionTTL); err != nil {
			m.cacheFailed("save_session", a.InterviewID, err)
		}
	}
	if err := m.Cache.Set(ctx, ViolationKey(a.InterviewID), strconv.Itoa(violations), SessionTTL); err != nil {
		m.cacheFailed("set_violations", a.InterviewID, err)
	}
	if ok && session.IPAddress != "" && session.IPAddress != a.IPAddress {
		telemetry.Warn("security.ip_changed", map[string]any{
			"interview_id": a.InterviewID,
			"original_ip":  session.IPAddress,
			"new_ip":       a.IPAddress,
		})
		eventType = EventIPAddressChanged
		metadata["original_ip"] = session.IPAddress
		metadata["new_ip"] = a.IPAddress
	}

	return m.Record(ctx, Event{
		InterviewID:       a.InterviewID,
		EventType:         eventType,
		Timestamp:         occurredAt,
		IPAddress:         a.IPAddress,
		UserAgent:         a.UserAgent,
		DeviceFingerprint: fingerprint(metadata["deviceFingerprint"]),
		ViolationCount:    violations,
		Metadata:          metadata,
	})
}

// Record appends e to the log. Critical events also set the flag marker and
// append a security alert to the interview notes.
func (m *Monitor) Record(ctx context.Context, e Event) (Event, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = m.now()
	}
	e.AutoSubmitted = IsAutoSubmit(e.EventType)
	e.CreatedAt = m.now()

	saved, err := m.Repo.Append(ctx, e)
	if err != nil {
		return Event{}, fmt.Errorf("append security event: %w", err)
	}

	critical := IsCritical(saved.EventType)
	metrics.IncSecurityEvent(critical)
	telemetry.Warn("security.event", map[string]any{
		"interview_id": saved.InterviewID,
		"event_type":   saved.EventType,
		"violations":   saved.ViolationCount,
		"ip_address":   saved.IPAddress,
		"log_id":       saved.ID,
	})
	if !critical {
		return saved, nil
	}

	telemetry.Error("security.critical", map[string]any{
		"interview_id": saved.InterviewID,
		"event_type":   saved.EventType,
	})
	if err := m.Cache.Set(ctx, FlagKey(saved.InterviewID), saved.EventType, SessionTTL); err != nil {
		m.cacheFailed("set_flag", saved.InterviewID, err)
	}
	note := fmt.Sprintf("\n[SECURITY ALERT] %s at %s", saved.EventType, saved.Timestamp.Format(time.RFC3339))
	if err := m.Interviews.AppendNote(ctx, saved.InterviewID, note); err != nil {
		return saved, fmt.Errorf("append security note: %w", err)
	}
	if m.Notifier != nil {
		if info, err := m.Interviews.InterviewInfo(ctx, saved.InterviewID); err == nil && info.OwnerID != "" {
			notify.Dispatch(ctx, m.Notifier, notify.Notification{
				UserID:     info.OwnerID,
				Type:       notify.TypeInterviewFlagged,
				Title:      "Interview flagged for review",
				Message:    fmt.Sprintf("Interview %d raised %s", saved.InterviewID, saved.EventType),
				RelatedRef: fmt.Sprintf("interview:%d", saved.InterviewID),
			})
		}
	}
	return saved, nil
}

// GetSecurityStatus merges the live cache view with durable log counts for
// the recruiter who owns the interview.
func (m *Monitor) GetSecurityStatus(ctx context.Context, ownerID string, interviewID int64) (Status, error) {
	info, err := m.Interviews.InterviewInfo(ctx, interviewID)
	if err != nil {
		return Status{}, err
	}
	if info.OwnerID != ownerID {
		return Status{}, ErrForbidden
	}

	status := Status{
		InterviewID:     interviewID,
		InterviewStatus: info.Status,
		CriticalEvents:  []CriticalEventEntry{},
	}

	if raw, ok, err := m.Cache.Get(ctx, ViolationKey(interviewID)); err != nil {
		m.cacheFailed("get_violations", interviewID, err)
	} else if ok {
		status.Violations, _ = strconv.Atoi(raw)
	}
	if reason, ok, err := m.Cache.Get(ctx, FlagKey(interviewID)); err != nil {
		m.cacheFailed("get_flag", interviewID, err)
	} else if ok {
		status.IsFlagged = true
		status.FlagReason = reason
	}
	if ip, ok, err := m.Cache.Get(ctx, DeviceKey(interviewID)); err != nil {
		m.cacheFailed("get_device", interviewID, err)
	} else if ok {
		status.DeviceIP = &ip
	}
	session, ok, err := LoadSession(ctx, m.Cache, interviewID)
	if err != nil {
		m.cacheFailed("load_session", interviewID, err)
	}
	if ok {
		status.ActiveSession = true
		status.LastEvent = session.LastEvent
		if session.LastActivity != "" {
			last := session.LastActivity
			status.LastActivity = &last
		}
	}

	total, err := m.Repo.CountByInterview(ctx, interviewID)
	if err != nil {
		return Status{}, fmt.Errorf("count security events: %w", err)
	}
	status.TotalSecurityEvents = total

	recent, err := m.Repo.RecentCritical(ctx, interviewID, recentCriticalLimit)
	if err != nil {
		return Status{}, fmt.Errorf("recent critical events: %w", err)
	}
	for _, e := range recent {
		status.CriticalEvents = append(status.CriticalEvents, CriticalEventEntry{
			EventType: e.EventType,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			IPAddress: e.IPAddress,
		})
	}
	return status, nil
}

func (m *Monitor) parseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m.now()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return m.now()
}

func (m *Monitor) cacheFailed(op string, interviewID int64, err error) {
	telemetry.Warn("security.cache_failed", map[string]any{
		"op":           op,
		"interview_id": interviewID,
		"error":        err.Error(),
	})
}

func intValue(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	default:
		return 0
	}
}

func fingerprint(v any) string {
	switch f := v.(type) {
	case nil:
		return ""
	case string:
		return f
	default:
		raw, err := json.Marshal(f)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
