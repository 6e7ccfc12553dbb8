package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestHandlerExposesCounters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncProcessingStarted()
	IncProcessingCompleted()
	ObserveProcessingDurationMs(120)
	IncScoringStrategy("ai", "fallback")
	IncAICall("score", "ok")
	IncSecurityEvent(true)
	ObserveHTTPRequest("GET", "", 404, 3*time.Millisecond)

	r := gin.New()
	r.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{
		"resume_processing_started_total",
		"resume_processing_completed_total",
		"resume_processing_duration_ms_bucket",
		`scoring_strategy_total{outcome="fallback",strategy="ai"}`,
		`ai_calls_total{operation="score",outcome="ok"}`,
		`security_events_total{critical="true"}`,
		`http_request_duration_seconds_count{method="GET",route="unmatched",status="404"}`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in metrics output", name)
		}
	}
}
