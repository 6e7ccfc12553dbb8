// Package queue carries resume processing jobs from the API to the worker.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// MessageVersion is bumped when the payload shape changes.
const MessageVersion = 1

// Client enqueues processing jobs.
type Client interface {
	Send(ctx context.Context, msg Message) error
}

// Message asks a worker to process one uploaded resume.
type Message struct {
	ResumeID   int64  `json:"resumeId"`
	RequestID  string `json:"requestId"`
	EnqueuedAt string `json:"enqueuedAt"`
	Version    int    `json:"version"`
}

// NewMessage stamps a message for resumeID with the current version.
func NewMessage(resumeID int64, requestID string, at time.Time) Message {
	return Message{
		ResumeID:   resumeID,
		RequestID:  requestID,
		EnqueuedAt: at.UTC().Format(time.RFC3339),
		Version:    MessageVersion,
	}
}

func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	err := json.Unmarshal(payload, &msg)
	return msg, err
}
