package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/shared/metrics"
)

const defaultAIExplanation = "AI scoring completed"

var errMissingScore = errors.New("response has no numeric SCORE line")

// AIDelegated asks a text generator to score the match and parses its labeled reply.
// Any failure is reported as an UnavailableError.
type AIDelegated struct {
	Generator   llm.Generator
	Temperature float64
	Timeout     time.Duration
}

// Name returns the strategy label.
func (AIDelegated) Name() string { return StrategyAI }

// Score implements Strategy.
func (a AIDelegated) Score(ctx context.Context, fs fields.FieldSet, job jobs.Requirements) (Result, error) {
	if a.Generator == nil {
		return Result{}, &UnavailableError{Strategy: StrategyAI, Err: llm.ErrNotConfigured}
	}
	prompt, err := llm.ScoringPrompt(llm.ScoringInput{
		JobTitle:           job.Title,
		JobDescription:     job.Description,
		RequiredSkills:     job.RequiredSkills,
		ExperienceRequired: job.ExperienceRequired,
		EducationRequired:  job.Education,
		CandidateSkills:    fs.Skills,
		ExperienceYears:    fs.ExperienceYears,
		EducationLevel:     string(fs.EducationLevel),
		ProjectCount:       len(fs.Projects),
		Certifications:     fs.Certifications,
	})
	if err != nil {
		return Result{}, fmt.Errorf("render scoring prompt: %w", err)
	}

	callCtx := ctx
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}
	text, err := a.Generator.Generate(callCtx, prompt, a.Temperature)
	if err != nil {
		metrics.IncAICall("scoring", "error")
		return Result{}, &UnavailableError{Strategy: StrategyAI, Err: err}
	}

	result, err := parseLabeled(text)
	if err != nil {
		metrics.IncAICall("scoring", "malformed")
		return Result{}, &UnavailableError{Strategy: StrategyAI, Err: err}
	}
	metrics.IncAICall("scoring", "ok")
	result.Strategy = StrategyAI
	return result, nil
}

// parseLabeled reads SCORE:, MATCHED:, MISSING: and EXPLANATION: lines.
// The first occurrence of each label wins.
func parseLabeled(text string) (Result, error) {
	values := map[string]string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "*#- "))
		for _, label := range []string{"SCORE:", "MATCHED:", "MISSING:", "EXPLANATION:"} {
			if !strings.HasPrefix(strings.ToUpper(line), label) {
				continue
			}
			if _, seen := values[label]; !seen {
				values[label] = strings.TrimSpace(line[len(label):])
			}
		}
	}

	raw, ok := values["SCORE:"]
	if !ok {
		return Result{}, errMissingScore
	}
	raw = strings.TrimSpace(strings.Trim(raw, "[]*"))
	if slash := strings.Index(raw, "/"); slash > 0 {
		raw = strings.TrimSpace(raw[:slash])
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return Result{}, fmt.Errorf("%w: %q", errMissingScore, raw)
	}

	explanation := values["EXPLANATION:"]
	if explanation == "" {
		explanation = defaultAIExplanation
	}
	return Result{
		Score:         clamp(score),
		MatchedSkills: splitList(values["MATCHED:"]),
		MissingSkills: splitList(values["MISSING:"]),
		Explanation:   explanation,
	}, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.Trim(strings.TrimSpace(part), "[]"))
		if part == "" || strings.EqualFold(part, "none") {
			continue
		}
		out = append(out, part)
	}
	return out
}

var _ Strategy = AIDelegated{}
