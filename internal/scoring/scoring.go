// Package scoring computes a 0-100 match score between extracted candidate
// fields and a job's requirements.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
)

const (
	StrategyRule = "rule"
	StrategyAI   = "ai"
)

// ErrStrategyUnavailable marks a strategy failure that the engine may recover from.
var ErrStrategyUnavailable = errors.New("scoring strategy unavailable")

// UnavailableError wraps the cause of a recoverable strategy failure.
type UnavailableError struct {
	Strategy string
	Err      error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s scoring unavailable", e.Strategy)
	}
	return fmt.Sprintf("%s scoring unavailable: %v", e.Strategy, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrStrategyUnavailable }

// Result is the outcome of scoring one resume against one job.
type Result struct {
	Score         float64  `json:"score"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
	Explanation   string   `json:"explanation"`
	Strategy      string   `json:"strategy"`
	FellBack      bool     `json:"fell_back,omitempty"`
}

// Strategy scores a field set against job requirements.
type Strategy interface {
	Name() string
	Score(ctx context.Context, fs fields.FieldSet, job jobs.Requirements) (Result, error)
}

var firstIntPattern = regexp.MustCompile(`(\d+)`)

// ParseExperienceRequirement returns the first integer in s, or 0.
func ParseExperienceRequirement(s string) int {
	m := firstIntPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
