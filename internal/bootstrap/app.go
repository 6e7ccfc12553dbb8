package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/interviews"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/llm/gemini"
	"hirelens-backend/internal/llm/openai"
	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/queue"
	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/scoring"
	"hirelens-backend/internal/security"
	"hirelens-backend/internal/shared/auth"
	"hirelens-backend/internal/shared/cache"
	"hirelens-backend/internal/shared/config"
	"hirelens-backend/internal/shared/server"
	"hirelens-backend/internal/shared/storage/db"
	"hirelens-backend/internal/shared/storage/object"
	localstore "hirelens-backend/internal/shared/storage/object/local"
	s3store "hirelens-backend/internal/shared/storage/object/s3"
	"hirelens-backend/internal/shared/telemetry"
)

const aiScoringTemperature = 0.3

// App holds shared dependencies and the wired router.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Queue     queue.Client
	Cache     cache.Cache
	Generator llm.Generator
	Scorer    scoring.Strategy
	Notifier  notify.Notifier
	Keys      *auth.Keys

	JobsRepo       jobs.Repo
	ResumesRepo    resumes.Repo
	InterviewsRepo interviews.Repo
	SecurityRepo   security.Repo

	ResumesService    *resumes.Service
	InterviewsService *interviews.Service
	SecurityMonitor   *security.Monitor

	ResumesHandler    *resumes.Handler
	InterviewsHandler *interviews.Handler
	SecurityHandler   *security.Handler
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := buildCache(ctx, cfg)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := buildNotifier(cfg)
	if err != nil {
		return nil, err
	}
	keys, err := auth.NewKeys(cfg.JWTSecret, !cfg.IsDevLike())
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Queue:     queueClient,
		Cache:     c,
		Generator: gen,
		Scorer:    NewScorer(cfg, gen),
		Notifier:  notifier,
		Keys:      keys,
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		DB:                sqlDB,
		ResumesHandler:    app.ResumesHandler,
		InterviewsHandler: app.InterviewsHandler,
		SecurityHandler:   app.SecurityHandler,
		Keys:              keys,
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.ServerPool().FromEnv())
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.S3KMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if cfg.SQSQueueURL == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.SQSQueueURL)
}

func buildCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if cfg.CacheBackend == "redis" {
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL)
		if err == nil {
			return rc, nil
		}
		if !cfg.IsDevLike() {
			return nil, err
		}
		telemetry.Warn("bootstrap.memory_cache", map[string]any{"reason": "redis unavailable", "error": err.Error()})
	}
	return cache.NewMemoryCache(cfg.CacheMaxEntries, nil), nil
}

// NewGenerator returns the configured AI provider wrapped with retry and a
// per-call timeout, or a placeholder when no provider or key is set.
func NewGenerator(ctx context.Context, cfg config.Config) (llm.Generator, error) {
	var base llm.Generator
	switch cfg.AIProvider {
	case "gemini":
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			telemetry.Warn("bootstrap.ai_disabled", map[string]any{"provider": "gemini", "reason": "GEMINI_API_KEY empty"})
			return llm.PlaceholderGenerator{}, nil
		}
		g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.AIModel)
		if err != nil {
			return nil, err
		}
		base = g
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			telemetry.Warn("bootstrap.ai_disabled", map[string]any{"provider": "openai", "reason": "OPENAI_API_KEY empty"})
			return llm.PlaceholderGenerator{}, nil
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.AIModel)
		if err != nil {
			return nil, err
		}
		base = client
	default:
		return llm.PlaceholderGenerator{}, nil
	}
	return llm.WithTimeout(llm.WithRetry(base), cfg.AITimeout), nil
}

// NewScorer returns the scoring engine for cfg.ScoringStrategy. The engine
// always falls back to the rule-based model.
func NewScorer(cfg config.Config, gen llm.Generator) scoring.Strategy {
	if cfg.ScoringStrategy == scoring.StrategyAI {
		return scoring.NewEngine(scoring.AIDelegated{
			Generator:   gen,
			Temperature: aiScoringTemperature,
			Timeout:     cfg.AITimeout,
		})
	}
	return scoring.NewEngine(scoring.RuleBased{})
}

func buildNotifier(cfg config.Config) (notify.Notifier, error) {
	if cfg.NotifyWebhookURL == "" {
		return notify.LogNotifier{}, nil
	}
	return notify.NewWebhookNotifier(cfg.NotifyWebhookURL, 0)
}

func buildServices(app *App) {
	if app.DB != nil {
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.InterviewsRepo = &interviews.PGRepo{DB: app.DB}
		app.SecurityRepo = &security.PGRepo{DB: app.DB}
	} else {
		app.JobsRepo = jobs.NewMemoryRepo()
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.InterviewsRepo = interviews.NewMemoryRepo()
		app.SecurityRepo = security.NewMemoryRepo()
	}

	app.ResumesService = &resumes.Service{
		Repo:     app.ResumesRepo,
		Jobs:     app.JobsRepo,
		Store:    app.Store,
		Scorer:   app.Scorer,
		Notifier: app.Notifier,
		Queue:    app.Queue,
	}
	app.SecurityMonitor = &security.Monitor{
		Repo:       app.SecurityRepo,
		Cache:      app.Cache,
		Interviews: interviews.SecurityStore{Repo: app.InterviewsRepo, Jobs: app.JobsRepo},
		Notifier:   app.Notifier,
	}
	app.InterviewsService = &interviews.Service{
		Repo:      app.InterviewsRepo,
		Resumes:   app.ResumesRepo,
		Jobs:      app.JobsRepo,
		Cache:     app.Cache,
		Generator: app.Generator,
		Security:  app.SecurityMonitor,
		Notifier:  app.Notifier,
	}

	app.ResumesHandler = resumes.NewHandler(app.ResumesService)
	app.InterviewsHandler = interviews.NewHandler(app.InterviewsService)
	app.SecurityHandler = security.NewHandler(app.SecurityMonitor)
}
