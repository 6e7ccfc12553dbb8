package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

// Context keys handlers set so the access log can name the entities a
// request touched.
const (
	JobIDKey            = "jobId"
	ResumeIDKey         = "resumeId"
	InterviewIDKey      = "interviewId"
	StatusTransitionKey = "statusTransition"
)

var logFieldKeys = map[string]string{
	userIDKey:           "user_id",
	JobIDKey:            "job_id",
	ResumeIDKey:         "resume_id",
	InterviewIDKey:      "interview_id",
	StatusTransitionKey: "status_transition",
}

// Logging writes one "request.complete" line per request and records its
// latency. Server errors log at error level, client errors at warn.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), status, elapsed)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      status,
			"duration_ms": float64(elapsed.Microseconds()) / 1000.0,
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for key, field := range logFieldKeys {
			if v, ok := c.Get(key); ok {
				fields[field] = v
			}
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		switch {
		case status >= http.StatusInternalServerError:
			telemetry.Error("request.complete", fields)
		case status >= http.StatusBadRequest:
			telemetry.Warn("request.complete", fields)
		default:
			telemetry.Info("request.complete", fields)
		}
	}
}
