package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"hirelens-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	CORSAllowOrigin   []string
	TrustedProxies    []string
	DatabaseURL       string
	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	S3KMSKeyID        string
	SQSQueueURL       string
	SQSVisibility     time.Duration
	WorkerConcurrency int
	ShutdownTimeout   time.Duration
	CacheBackend      string
	RedisURL          string
	CacheMaxEntries   int
	AIProvider        string
	AIModel           string
	GeminiAPIKey      string
	OpenAIAPIKey      string
	AITimeout         time.Duration
	ScoringStrategy   string
	NotifyWebhookURL  string
	JWTSecret         string
	PublicRateLimit   float64
	PublicRateBurst   int
}

var defaults = map[string]any{
	"PORT":               "8080",
	"ENV":                "dev",
	"CORS_ALLOW_ORIGINS": "http://localhost:5173",
	"OBJECT_STORE":       "local",
	"LOCAL_STORE_DIR":    "./data",
	"CACHE_BACKEND":      "memory",
	"CACHE_MAX_ENTRIES":  10000,
	"AI_PROVIDER":        "gemini",
	"AI_TIMEOUT":         "60s",
	"SCORING_STRATEGY":   "ai",
	"SQS_VISIBILITY":     "20m",
	"WORKER_CONCURRENCY": 4,
	"SHUTDOWN_TIMEOUT":   "30s",
	"PUBLIC_RATE_LIMIT":  2.0,
	"PUBLIC_RATE_BURST":  20,
}

// Load reads configuration from the environment, after a best-effort load of local .env files.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		telemetry.Error("config.invalid", map[string]any{"error": "DATABASE_URL is required in production"})
	}

	timeout := v.GetDuration("AI_TIMEOUT")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return Config{
		Port:              v.GetString("PORT"),
		Env:               env,
		CORSAllowOrigin:   splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		TrustedProxies:    splitAndTrim(v.GetString("TRUSTED_PROXIES")),
		DatabaseURL:       dbURL,
		ObjectStoreType:   normalizeChoice(v.GetString("OBJECT_STORE"), "local", "s3"),
		LocalStoreDir:     v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:         v.GetString("AWS_REGION"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3Prefix:          v.GetString("S3_PREFIX"),
		S3KMSKeyID:        v.GetString("S3_SSE_KMS_KEY_ID"),
		SQSQueueURL:       strings.TrimSpace(v.GetString("SQS_QUEUE_URL")),
		SQSVisibility:     v.GetDuration("SQS_VISIBILITY"),
		WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		ShutdownTimeout:   v.GetDuration("SHUTDOWN_TIMEOUT"),
		CacheBackend:      normalizeChoice(v.GetString("CACHE_BACKEND"), "memory", "redis"),
		RedisURL:          v.GetString("REDIS_URL"),
		CacheMaxEntries:   v.GetInt("CACHE_MAX_ENTRIES"),
		AIProvider:        normalizeChoice(v.GetString("AI_PROVIDER"), "none", "gemini", "openai"),
		AIModel:           v.GetString("AI_MODEL"),
		GeminiAPIKey:      v.GetString("GEMINI_API_KEY"),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		AITimeout:         timeout,
		ScoringStrategy:   normalizeChoice(v.GetString("SCORING_STRATEGY"), "rule", "ai"),
		NotifyWebhookURL:  strings.TrimSpace(v.GetString("NOTIFY_WEBHOOK_URL")),
		JWTSecret:         v.GetString("JWT_SECRET"),
		PublicRateLimit:   v.GetFloat64("PUBLIC_RATE_LIMIT"),
		PublicRateBurst:   v.GetInt("PUBLIC_RATE_BURST"),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		// Missing files are fine; real environment variables always win.
		_ = godotenv.Load(path)
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeChoice lowercases raw and returns it when allowed, otherwise the first allowed value.
func normalizeChoice(raw string, allowed ...string) string {
	clean := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if clean == a {
			return a
		}
	}
	return allowed[0]
}
