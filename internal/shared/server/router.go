package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/interviews"
	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/security"
	"hirelens-backend/internal/services/health"
	"hirelens-backend/internal/shared/auth"
	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/server/middleware"
	"hirelens-backend/internal/shared/server/respond"
	"hirelens-backend/internal/shared/telemetry"
)

const activityRateGroup = "ACTIVITY"

// RouterDeps are the handlers mounted by NewRouter. Nil handlers are skipped.
type RouterDeps struct {
	Config            config.Config
	DB                *sql.DB
	ResumesHandler    *resumes.Handler
	InterviewsHandler *interviews.Handler
	SecurityHandler   *security.Handler
	// Keys verify recruiter tokens. Without keys every recruiter route is 401.
	Keys *auth.Keys
	// Limiter is shared by the public rate-limit rules. Tests inject one with a fixed clock.
	Limiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	// Only listed proxies may supply X-Forwarded-For; otherwise ClientIP is the peer address.
	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		telemetry.Warn("server.trusted_proxies_invalid", map[string]any{"error": err.Error()})
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	// A nil *sql.DB must not reach the Pinger interface as a typed nil.
	healthSvc := health.NewService(nil)
	if deps.DB != nil {
		healthSvc = health.NewService(deps.DB)
	}
	r.GET("/healthz", func(c *gin.Context) {
		status := healthSvc.Check(c.Request.Context())
		code := http.StatusOK
		if !status.OK {
			code = http.StatusServiceUnavailable
		}
		respond.JSON(c, code, status)
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")

	public := api.Group("")
	public.Use(middleware.RateLimit(publicRateLimit(deps)))
	if deps.InterviewsHandler != nil {
		deps.InterviewsHandler.RegisterPublicRoutes(public)
	}
	if deps.SecurityHandler != nil {
		deps.SecurityHandler.RegisterPublicRoutes(public)
	}

	recruiter := api.Group("")
	recruiter.Use(middleware.Auth(deps.Keys))
	registerMeRoutes(recruiter)
	if deps.ResumesHandler != nil {
		deps.ResumesHandler.RegisterRoutes(recruiter)
	}
	if deps.InterviewsHandler != nil {
		deps.InterviewsHandler.RegisterRoutes(recruiter)
	}
	if deps.SecurityHandler != nil {
		deps.SecurityHandler.RegisterRoutes(recruiter)
	}

	return r
}

// publicRateLimit gives activity heartbeats a larger bucket than the other
// candidate endpoints.
func publicRateLimit(deps RouterDeps) middleware.RateLimitConfig {
	rate, burst := deps.Config.PublicRateLimit, deps.Config.PublicRateBurst
	return middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"PUBLIC":          {Rate: rate, Burst: burst},
			activityRateGroup: {Rate: rate * 5, Burst: burst * 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.FullPath() == "/api/interviews/:id/log-activity" {
				return activityRateGroup
			}
			return ""
		},
		Limiter: deps.Limiter,
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
