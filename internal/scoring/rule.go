package scoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
)

const (
	skillsWeight     = 50.0
	experienceWeight = 30.0
	educationWeight  = 10.0
	extrasWeight     = 10.0
)

// RuleBased is the deterministic weighted-sum model. It never fails.
type RuleBased struct{}

// Name returns the strategy label.
func (RuleBased) Name() string { return StrategyRule }

// Score implements Strategy.
func (r RuleBased) Score(ctx context.Context, fs fields.FieldSet, job jobs.Requirements) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return r.score(fs, job), nil
}

func (RuleBased) score(fs fields.FieldSet, job jobs.Requirements) Result {
	matched, missing := matchRequired(fs.Skills, job.RequiredSkills)

	total := skillsComponent(len(matched), len(matched)+len(missing))
	total += experienceComponent(fs.ExperienceYears, ParseExperienceRequirement(job.ExperienceRequired))
	if fs.EducationLevel.Rank() >= fields.EducationBachelors.Rank() {
		total += educationWeight
	}
	if len(fs.Projects) > 0 || len(fs.Certifications) > 0 {
		total += extrasWeight
	}

	education := fs.EducationLevel
	if education == "" {
		education = fields.EducationUnknown
	}
	explanation := fmt.Sprintf("Matched %d/%d required skills. %s years experience. Education: %s.",
		len(matched), len(matched)+len(missing),
		strconv.FormatFloat(fs.ExperienceYears, 'f', -1, 64),
		education)

	return Result{
		Score:         clamp(total),
		MatchedSkills: matched,
		MissingSkills: missing,
		Explanation:   explanation,
		Strategy:      StrategyRule,
	}
}

// matchRequired splits the job's required skills into matched and missing,
// keeping the job's own spelling. A required skill matches when it resolves
// to the same canonical taxonomy entry as a candidate skill, or equals one
// case-insensitively.
func matchRequired(candidate, required []string) ([]string, []string) {
	have := make(map[string]struct{}, len(candidate))
	for _, s := range candidate {
		have[canonicalKey(s)] = struct{}{}
	}
	matched := []string{}
	missing := []string{}
	for _, s := range required {
		if strings.TrimSpace(s) == "" {
			continue
		}
		if _, ok := have[canonicalKey(s)]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	return matched, missing
}

func canonicalKey(skill string) string {
	if canonical, ok := fields.Canonical(skill); ok {
		return strings.ToLower(canonical)
	}
	return strings.ToLower(strings.TrimSpace(skill))
}

func skillsComponent(matched, required int) float64 {
	if required == 0 {
		return skillsWeight
	}
	return float64(matched) / float64(required) * skillsWeight
}

func experienceComponent(candidateYears float64, requiredYears int) float64 {
	if requiredYears <= 0 {
		return experienceWeight
	}
	req := float64(requiredYears)
	switch {
	case candidateYears >= req:
		return experienceWeight
	case candidateYears >= req*0.7:
		return 20
	case candidateYears >= req*0.5:
		return 10
	default:
		return 0
	}
}

var _ Strategy = RuleBased{}
