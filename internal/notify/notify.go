// Package notify delivers fire-and-forget notifications to job owners.
package notify

import (
	"context"
	"fmt"
	"time"

	"hirelens-backend/internal/shared/telemetry"
)

const (
	TypeResumeProcessed   = "resume_processed"
	TypeInterviewFlagged  = "interview_flagged"
	TypeInterviewComplete = "interview_completed"
)

// Notification is a message addressed to one user.
type Notification struct {
	UserID     string `json:"user_id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Message    string `json:"message"`
	RelatedRef string `json:"related_ref,omitempty"`
}

// Notifier delivers a notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	telemetry.Info("notify.sent", map[string]any{
		"user_id":     n.UserID,
		"type":        n.Type,
		"title":       n.Title,
		"related_ref": n.RelatedRef,
	})
	return nil
}

const dispatchTimeout = 10 * time.Second

// Dispatch sends n in the background. Failures and panics are logged and never
// reach the caller.
func Dispatch(ctx context.Context, notifier Notifier, n Notification) {
	if notifier == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				telemetry.Error("notify.failed", map[string]any{
					"user_id": n.UserID,
					"type":    n.Type,
					"error":   fmt.Sprintf("panic: %v", r),
				})
			}
		}()
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()
		if err := notifier.Notify(sendCtx, n); err != nil {
			telemetry.Error("notify.failed", map[string]any{
				"user_id": n.UserID,
				"type":    n.Type,
				"error":   err.Error(),
			})
		}
	}()
}

var _ Notifier = LogNotifier{}
