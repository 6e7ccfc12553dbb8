package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	processingStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resume_processing_started_total",
		Help: "Total resumes that entered processing",
	})
	processingCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resume_processing_completed_total",
		Help: "Total resumes that completed processing",
	})
	processingFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resume_processing_failed_total",
		Help: "Total resumes that failed processing",
	})
	processingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resume_processing_duration_ms",
		Help:    "Resume processing duration in milliseconds",
		Buckets: []float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000},
	})
	scoringStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scoring_strategy_total",
		Help: "Scores produced per strategy and outcome",
	}, []string{"strategy", "outcome"})
	interviewAccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "interview_access_total",
		Help: "Interview access verification attempts by outcome",
	}, []string{"outcome"})
	securityEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "security_events_total",
		Help: "Interview security events recorded",
	}, []string{"critical"})
	aiCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ai_calls_total",
		Help: "AI text-generation calls by operation and outcome",
	}, []string{"operation", "outcome"})
	httpRequests = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	workerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_messages_total",
		Help: "Queue messages handled by the worker",
	}, []string{"outcome"})
)

// IncProcessingStarted increments the started counter.
func IncProcessingStarted() { processingStarted.Inc() }

// IncProcessingCompleted increments the completed counter.
func IncProcessingCompleted() { processingCompleted.Inc() }

// IncProcessingFailed increments the failed counter.
func IncProcessingFailed() { processingFailed.Inc() }

// ObserveProcessingDurationMs records a processing duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// IncScoringStrategy counts a score produced by strategy with outcome ok|fallback|error.
func IncScoringStrategy(strategy, outcome string) {
	scoringStrategy.WithLabelValues(strategy, outcome).Inc()
}

// IncInterviewAccess counts a verify-access outcome.
func IncInterviewAccess(outcome string) { interviewAccess.WithLabelValues(outcome).Inc() }

// IncSecurityEvent counts a recorded security event.
func IncSecurityEvent(critical bool) {
	label := "false"
	if critical {
		label = "true"
	}
	securityEvents.WithLabelValues(label).Inc()
}

// IncAICall counts a generator call.
func IncAICall(operation, outcome string) { aiCalls.WithLabelValues(operation, outcome).Inc() }

// IncWorkerMessage counts a worker message outcome (processed|retry|dropped).
func IncWorkerMessage(outcome string) { workerMessages.WithLabelValues(outcome).Inc() }

// ObserveHTTPRequest records one served request. Unmatched routes share the
// "unmatched" label to keep cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
