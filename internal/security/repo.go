package security

import "context"

// Repo is the durable, append-only security event log.
type Repo interface {
	Append(ctx context.Context, e Event) (Event, error)
	CountByInterview(ctx context.Context, interviewID int64) (int, error)
	// RecentCritical returns the newest critical events first.
	RecentCritical(ctx context.Context, interviewID int64, limit int) ([]Event, error)
}
