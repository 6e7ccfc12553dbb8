// Package security records anomaly events raised during candidate interviews
// and flags sessions for recruiter review.
package security

import (
	"strings"
	"time"
)

const (
	EventDevtoolsOpened    = "devtools_opened"
	EventAutoSubmitTimeout = "auto_submit_timeout"
	EventAutoSubmitIdle    = "auto_submit_idle"
	EventIPAddressChanged  = "ip_address_changed"
	EventMultiDevice       = "multi_device_detected"
	EventUnknown           = "unknown"
)

// CriticalEvents flag the session and annotate the interview notes.
var CriticalEvents = []string{
	EventDevtoolsOpened,
	EventAutoSubmitTimeout,
	EventAutoSubmitIdle,
	EventIPAddressChanged,
	EventMultiDevice,
}

// IsCritical reports whether eventType is in CriticalEvents.
func IsCritical(eventType string) bool {
	for _, e := range CriticalEvents {
		if e == eventType {
			return true
		}
	}
	return false
}

// IsAutoSubmit reports whether the event was raised by a client auto-submit.
func IsAutoSubmit(eventType string) bool {
	return strings.HasPrefix(eventType, "auto_submit")
}

// Event is one append-only security log entry.
type Event struct {
	ID                int64          `json:"id"`
	InterviewID       int64          `json:"interview_id"`
	EventType         string         `json:"event_type"`
	Timestamp         time.Time      `json:"timestamp"`
	IPAddress         string         `json:"ip_address"`
	UserAgent         string         `json:"user_agent,omitempty"`
	DeviceFingerprint string         `json:"device_fingerprint,omitempty"`
	ViolationCount    int            `json:"violation_count"`
	Metadata          map[string]any `json:"event_metadata,omitempty"`
	AutoSubmitted     bool           `json:"auto_submitted"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Activity is a client-reported signal from a running interview.
type Activity struct {
	InterviewID int64
	EventType   string
	Timestamp   string
	Metadata    map[string]any
	IPAddress   string
	UserAgent   string
}

// Status is the recruiter view of an interview's security state.
type Status struct {
	InterviewID         int64                `json:"interview_id"`
	InterviewStatus     string               `json:"interview_status"`
	Violations          int                  `json:"violations"`
	IsFlagged           bool                 `json:"is_flagged"`
	FlagReason          string               `json:"flag_reason,omitempty"`
	ActiveSession       bool                 `json:"active_session"`
	DeviceIP            *string              `json:"device_ip"`
	LastActivity        *string              `json:"last_activity"`
	LastEvent           string               `json:"last_event,omitempty"`
	TotalSecurityEvents int                  `json:"total_security_events"`
	CriticalEvents      []CriticalEventEntry `json:"critical_events"`
}

// CriticalEventEntry summarizes one critical event in Status.
type CriticalEventEntry struct {
	EventType string `json:"event_type"`
	Timestamp string `json:"timestamp"`
	IPAddress string `json:"ip_address"`
}
