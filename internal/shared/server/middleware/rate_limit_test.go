package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type manualClock struct{ now time.Time }

func (m *manualClock) Now() time.Time { return m.now }

func newLimitedRouter(clk *manualClock, rules map[string]RateLimitRule, groupFor func(*gin.Context) string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Rules:    rules,
		GroupFor: groupFor,
		Limiter:  NewRateLimiter(clk.Now),
	}))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.POST("/api/interviews/:id/log-activity", ok)
	r.POST("/api/interviews/:id/verify-access", ok)
	return r
}

func serve(r http.Handler, path, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitActivityGroupHasOwnBucket(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	groupFor := func(c *gin.Context) string {
		if c.FullPath() == "/api/interviews/:id/log-activity" {
			return "ACTIVITY"
		}
		return ""
	}
	r := newLimitedRouter(clk, map[string]RateLimitRule{
		"PUBLIC":   {Rate: 1, Burst: 2},
		"ACTIVITY": {Rate: 5, Burst: 10},
	}, groupFor)

	for i := 0; i < 3; i++ {
		if rec := serve(r, "/api/interviews/7/log-activity", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("activity request %d expected 200, got %d", i+1, rec.Code)
		}
	}
	for i := 0; i < 2; i++ {
		if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("public request %d expected 200, got %d", i+1, rec.Code)
		}
	}
	if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("public request 3 expected 429, got %d", rec.Code)
	}
}

func TestRateLimitKeysByClientIP(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(clk, map[string]RateLimitRule{"PUBLIC": {Rate: 1, Burst: 1}}, nil)

	if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.2:1000"); rec.Code != http.StatusOK {
		t.Fatalf("other client expected 200, got %d", rec.Code)
	}
	if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	clk.now = clk.now.Add(time.Second)
	if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusOK {
		t.Fatalf("expected refill after 1s, got %d", rec.Code)
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(clk, map[string]RateLimitRule{"PUBLIC": {Rate: 0.5, Burst: 1}}, nil)

	serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000")
	rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After 2, got %q", got)
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" || payload.Error.Details["retry_after_ms"] != float64(2000) {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestRateLimitPassesUnknownGroup(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)}
	r := newLimitedRouter(clk, map[string]RateLimitRule{}, nil)
	for i := 0; i < 5; i++ {
		if rec := serve(r, "/api/interviews/7/verify-access", "10.0.0.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
}
