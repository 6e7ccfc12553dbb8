package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/shared/telemetry"
)

func lastLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var payload map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	return payload
}

func TestLoggingIncludesEntityFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	telemetry.SetOutput(&buf)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	router := gin.New()
	router.Use(RequestID(), func(c *gin.Context) {
		c.Set(userIDKey, "recruiter-1")
		c.Next()
	}, Logging())
	router.POST("/api/interviews/:id/start", func(c *gin.Context) {
		c.Set(InterviewIDKey, int64(9))
		c.Set(StatusTransitionKey, "->in_progress")
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/interviews/9/start", nil))

	payload := lastLogLine(t, &buf)
	for _, key := range []string{"request_id", "user_id", "interview_id", "duration_ms", "status", "status_transition", "route"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if _, ok := payload["job_id"]; ok {
		t.Fatalf("unset entity should be omitted: %v", payload)
	}
	if payload["interview_id"] != float64(9) || payload["route"] != "/api/interviews/:id/start" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected info level, got %v", payload["level"])
	}
}

func TestLoggingLevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		status int
		level  string
	}{
		{status: http.StatusNotFound, level: "warn"},
		{status: http.StatusBadGateway, level: "error"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		telemetry.SetOutput(&buf)

		router := gin.New()
		router.Use(Logging())
		router.GET("/x", func(c *gin.Context) { c.Status(tt.status) })
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

		if got := lastLogLine(t, &buf)["level"]; got != tt.level {
			t.Fatalf("status %d: expected level %s, got %v", tt.status, tt.level, got)
		}
	}
	telemetry.SetOutput(os.Stdout)
}
