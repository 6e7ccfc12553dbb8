package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected ai provider gemini, got %q", cfg.AIProvider)
	}
	if cfg.CacheBackend != "memory" {
		t.Fatalf("expected memory cache, got %q", cfg.CacheBackend)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev-like config")
	}
	if len(cfg.TrustedProxies) != 0 {
		t.Fatalf("no proxy should be trusted by default, got %v", cfg.TrustedProxies)
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "postgres://localhost/hirelens")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("AI_TIMEOUT", "15s")
	t.Setenv("SCORING_STRATEGY", "rule")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.5")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.AIProvider != "openai" {
		t.Fatalf("expected openai, got %q", cfg.AIProvider)
	}
	if cfg.AITimeout != 15*time.Second {
		t.Fatalf("expected 15s timeout, got %s", cfg.AITimeout)
	}
	if cfg.ScoringStrategy != "rule" {
		t.Fatalf("expected rule strategy, got %q", cfg.ScoringStrategy)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies: %v", cfg.TrustedProxies)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
}

func TestNormalizeChoiceFallsBackToFirst(t *testing.T) {
	if got := normalizeChoice("mystery", "local", "s3"); got != "local" {
		t.Fatalf("expected local, got %q", got)
	}
	if got := normalizeChoice(" S3 ", "local", "s3"); got != "s3" {
		t.Fatalf("expected s3, got %q", got)
	}
}
