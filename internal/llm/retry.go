package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"hirelens-backend/internal/shared/telemetry"
)

var retryBaseDelay = 300 * time.Millisecond

type retryingGenerator struct {
	base Generator
}

// WithRetry retries a generator call once on transient failures.
func WithRetry(base Generator) Generator {
	if base == nil {
		return nil
	}
	return retryingGenerator{base: base}
}

func (r retryingGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	out, err := r.base.Generate(ctx, prompt, temperature)
	if err == nil || !shouldRetry(err) {
		return out, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"attempt": 1,
		"error":   sanitizeError(err),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return r.base.Generate(ctx, prompt, temperature)
}

type timeoutGenerator struct {
	base    Generator
	timeout time.Duration
}

// WithTimeout bounds every call to base by d.
func WithTimeout(base Generator, d time.Duration) Generator {
	if base == nil || d <= 0 {
		return base
	}
	return timeoutGenerator{base: base, timeout: d}
}

func (t timeoutGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	out, err := t.base.Generate(ctx, prompt, temperature)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", fmt.Errorf("llm timeout after %s: %w", t.timeout, context.DeadlineExceeded)
	}
	return out, err
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "unexpected eof") {
		return true
	}
	return false
}

func sanitizeError(err error) string {
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
