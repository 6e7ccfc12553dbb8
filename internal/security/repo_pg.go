package security

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a security event.
func (r *PGRepo) Append(ctx context.Context, e Event) (Event, error) {
	const query = `
INSERT INTO interview_security_logs (
    interview_id, event_type, occurred_at, ip_address, user_agent,
    device_fingerprint, violation_count, auto_submitted, metadata, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id`

	metadata := e.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	rawMeta, err := json.Marshal(metadata)
	if err != nil {
		return Event{}, fmt.Errorf("encode event metadata: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	err = r.DB.QueryRowContext(
		ctx,
		query,
		e.InterviewID,
		e.EventType,
		e.Timestamp,
		e.IPAddress,
		e.UserAgent,
		e.DeviceFingerprint,
		e.ViolationCount,
		e.AutoSubmitted,
		rawMeta,
		e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return Event{}, err
	}
	return e, nil
}

// CountByInterview counts all events for an interview.
func (r *PGRepo) CountByInterview(ctx context.Context, interviewID int64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM interview_security_logs WHERE interview_id = $1`, interviewID).Scan(&n)
	return n, err
}

// RecentCritical returns up to limit critical events, newest first.
func (r *PGRepo) RecentCritical(ctx context.Context, interviewID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 5
	}

	args := []any{interviewID}
	placeholders := make([]string, 0, len(CriticalEvents))
	for _, e := range CriticalEvents {
		args = append(args, e)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}
	args = append(args, limit)
	query := fmt.Sprintf(`
SELECT id, interview_id, event_type, occurred_at, ip_address, user_agent, device_fingerprint, violation_count, auto_submitted, metadata, created_at
FROM interview_security_logs
WHERE interview_id = $1 AND event_type IN (%s)
ORDER BY occurred_at DESC, id DESC
LIMIT $%d`, strings.Join(placeholders, ", "), len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0)
	for rows.Next() {
		var e Event
		var rawMeta []byte
		if err := rows.Scan(
			&e.ID,
			&e.InterviewID,
			&e.EventType,
			&e.Timestamp,
			&e.IPAddress,
			&e.UserAgent,
			&e.DeviceFingerprint,
			&e.ViolationCount,
			&e.AutoSubmitted,
			&rawMeta,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &e.Metadata); err != nil {
				return nil, fmt.Errorf("decode event metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
