package scoring

import (
	"context"
	"errors"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

// Engine runs Primary and falls back to Fallback when Primary reports
// ErrStrategyUnavailable. Other errors propagate.
type Engine struct {
	Primary  Strategy
	Fallback Strategy
}

// NewEngine returns an engine that falls back to the rule-based model.
func NewEngine(primary Strategy) *Engine {
	if primary == nil {
		primary = RuleBased{}
	}
	return &Engine{Primary: primary, Fallback: RuleBased{}}
}

// Score implements Strategy.
func (e *Engine) Score(ctx context.Context, fs fields.FieldSet, job jobs.Requirements) (Result, error) {
	primary := e.Primary
	if primary == nil {
		primary = RuleBased{}
	}
	res, err := primary.Score(ctx, fs, job)
	if err == nil {
		metrics.IncScoringStrategy(primary.Name(), "ok")
		return res, nil
	}
	if !errors.Is(err, ErrStrategyUnavailable) {
		metrics.IncScoringStrategy(primary.Name(), "error")
		return Result{}, err
	}
	metrics.IncScoringStrategy(primary.Name(), "unavailable")

	fallback := e.Fallback
	if fallback == nil {
		fallback = RuleBased{}
	}
	telemetry.Warn("scoring.fallback", map[string]any{
		"job_id":   job.ID,
		"primary":  primary.Name(),
		"fallback": fallback.Name(),
		"error":    err.Error(),
	})
	res, ferr := fallback.Score(ctx, fs, job)
	if ferr != nil {
		metrics.IncScoringStrategy(fallback.Name(), "error")
		return Result{}, ferr
	}
	metrics.IncScoringStrategy(fallback.Name(), "ok")
	res.FellBack = true
	return res, nil
}

// Name reports the primary strategy.
func (e *Engine) Name() string {
	if e.Primary == nil {
		return StrategyRule
	}
	return e.Primary.Name()
}

var _ Strategy = (*Engine)(nil)
