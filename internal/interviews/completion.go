package interviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

const analysisUnavailable = "Analysis unavailable"

// completionClaimTTL bounds how long a crashed completion can block retries.
const completionClaimTTL = 10 * time.Minute

var (
	answerSchema     = llm.Schema{Kind: llm.Object, Required: []string{"score"}}
	assessmentSchema = llm.Schema{Kind: llm.Object, Required: []string{"recommendation"}}
)

type answerAnalysis struct {
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	CoveredPoints []string `json:"covered_points"`
	MissedPoints  []string `json:"missed_points"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
}

type aiAssessment struct {
	Recommendation    string   `json:"recommendation"`
	Summary           string   `json:"summary"`
	Strengths         []string `json:"strengths"`
	Weaknesses        []string `json:"weaknesses"`
	DecisionRationale string   `json:"decision_rationale"`
	NextSteps         string   `json:"next_steps"`
}

// Complete analyzes every answer and the interview as a whole, then marks the
// interview completed. Completing an already completed interview returns the
// stored result without new analysis. Only one caller at a time runs the
// analysis; others get ErrCompletionInProgress until it finishes.
func (s *Service) Complete(ctx context.Context, interviewID int64) (Completion, error) {
	sess, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return Completion{}, err
	}
	if sess.Status == StatusCompleted {
		return completionOf(sess), nil
	}

	release, err := s.claimCompletion(ctx, interviewID)
	if err != nil {
		return Completion{}, err
	}
	defer release()
	// The previous holder may have finished between the read and the claim.
	if sess, err = s.Repo.GetByID(ctx, interviewID); err != nil {
		return Completion{}, err
	}
	if sess.Status == StatusCompleted {
		return completionOf(sess), nil
	}

	if len(sess.Questions) == 0 {
		return Completion{}, ErrQuestionsNotGenerated
	}
	var unanswered []int
	for _, q := range sess.Questions {
		if !q.answered() {
			unanswered = append(unanswered, q.ID)
		}
	}
	if len(unanswered) > 0 {
		return Completion{}, &IncompleteError{Unanswered: unanswered}
	}

	for i := range sess.Questions {
		if sess.Questions[i].Score != nil {
			continue
		}
		s.analyzeAnswer(ctx, interviewID, &sess.Questions[i])
	}

	jobTitle := "Position"
	ownerID := ""
	if job, err := s.Jobs.GetByID(ctx, sess.JobID); err == nil {
		jobTitle = job.Title
		ownerID = job.OwnerID
	}
	assessment := s.assess(ctx, interviewID, jobTitle, sess.Questions)

	completedAt := s.now()
	score := assessment.Percentage
	sess.AIScore = &score
	sess.AIFeedback = assessment.Summary
	sess.Analysis = &assessment
	sess.Status = StatusCompleted
	sess.CompletedAt = &completedAt

	saved, err := s.Repo.Update(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			// A concurrent completion may have won.
			if current, getErr := s.Repo.GetByID(ctx, interviewID); getErr == nil && current.Status == StatusCompleted {
				return completionOf(current), nil
			}
		}
		return Completion{}, err
	}

	telemetry.Info("interview.complete", map[string]any{
		"interview_id":   interviewID,
		"ai_score":       score,
		"recommendation": string(assessment.Recommendation),
		"questions":      len(saved.Questions),
	})
	if ownerID != "" {
		notify.Dispatch(ctx, s.Notifier, notify.Notification{
			UserID:     ownerID,
			Type:       notify.TypeInterviewComplete,
			Title:      "Interview completed",
			Message:    fmt.Sprintf("Interview %d for %s scored %.1f%% (%s)", interviewID, jobTitle, score, assessment.Recommendation),
			RelatedRef: fmt.Sprintf("interview:%d", interviewID),
		})
	}
	return completionOf(saved), nil
}

func completionClaimKey(interviewID int64) string {
	return fmt.Sprintf("interview_completing:%d", interviewID)
}

// claimCompletion marks interviewID as being completed. The returned func
// drops the claim. Without a working cache the claim is skipped and the
// version-guarded update remains the only guard.
func (s *Service) claimCompletion(ctx context.Context, interviewID int64) (func(), error) {
	if s.Cache == nil {
		return func() {}, nil
	}
	key := completionClaimKey(interviewID)
	n, err := s.Cache.Incr(ctx, key, completionClaimTTL)
	if err != nil {
		s.cacheFailed("claim_completion", interviewID, err)
		return func() {}, nil
	}
	if n > 1 {
		telemetry.Warn("interview.complete_in_progress", map[string]any{"interview_id": interviewID})
		return nil, ErrCompletionInProgress
	}
	return func() {
		if err := s.Cache.Delete(context.WithoutCancel(ctx), key); err != nil {
			s.cacheFailed("release_completion", interviewID, err)
		}
	}, nil
}

func completionOf(sess Session) Completion {
	c := Completion{
		InterviewID:    sess.ID,
		TotalQuestions: len(sess.Questions),
	}
	if sess.AIScore != nil {
		c.AIScore = *sess.AIScore
	}
	if sess.Analysis != nil {
		c.Recommendation = sess.Analysis.Recommendation
	}
	return c
}

// analyzeAnswer scores one answer. A failed analysis scores 0 with a
// placeholder feedback so the aggregate step always has complete input.
func (s *Service) analyzeAnswer(ctx context.Context, interviewID int64, q *Question) {
	analysis, err := s.requestAnswerAnalysis(ctx, *q)
	if err != nil {
		telemetry.Warn("interview.answer_analysis_failed", map[string]any{
			"interview_id": interviewID,
			"question_id":  q.ID,
			"error":        err.Error(),
		})
		zero := 0.0
		q.Score = &zero
		q.Feedback = analysisUnavailable
		return
	}
	score := math.Max(0, math.Min(analysis.Score, q.maxScore()))
	q.Score = &score
	q.Feedback = analysis.Feedback
	q.CoveredPoints = analysis.CoveredPoints
	q.MissedPoints = analysis.MissedPoints
	q.Strengths = analysis.Strengths
	q.Improvements = analysis.Improvements
}

func (s *Service) requestAnswerAnalysis(ctx context.Context, q Question) (answerAnalysis, error) {
	answer := ""
	if q.Answer != nil {
		answer = *q.Answer
	}
	prompt, err := llm.AnswerAnalysisPrompt(llm.AnswerInput{
		Question:       q.Question,
		ExpectedPoints: q.ExpectedPoints,
		Answer:         answer,
		MaxScore:       q.maxScore(),
	})
	if err != nil {
		return answerAnalysis{}, err
	}
	raw, err := s.generator().Generate(ctx, prompt, aiTemperature)
	if err != nil {
		metrics.IncAICall("answer_analysis", "error")
		return answerAnalysis{}, err
	}
	analysis, err := llm.DecodeObject[answerAnalysis](raw, answerSchema)
	if err != nil {
		metrics.IncAICall("answer_analysis", "malformed")
		return answerAnalysis{}, err
	}
	metrics.IncAICall("answer_analysis", "ok")
	return analysis, nil
}

// assess produces the aggregate assessment. The label comes from the model;
// the percentage bands in the prompt are guidance only. When the call fails
// the label is derived from the percentage.
func (s *Service) assess(ctx context.Context, interviewID int64, jobTitle string, questions []Question) Assessment {
	var total, maxPossible float64
	summaryQuestions := make([]llm.SummaryQuestion, 0, len(questions))
	for _, q := range questions {
		score := 0.0
		if q.Score != nil {
			score = *q.Score
		}
		answer := ""
		if q.Answer != nil {
			answer = *q.Answer
		}
		total += score
		maxPossible += q.maxScore()
		summaryQuestions = append(summaryQuestions, llm.SummaryQuestion{
			Question: q.Question,
			Category: q.Category,
			Score:    score,
			MaxScore: q.maxScore(),
			Answer:   answer,
		})
	}
	percentage := 0.0
	if maxPossible > 0 {
		percentage = total / maxPossible * 100
	}

	assessment, err := s.requestAssessment(ctx, llm.SummaryInput{
		JobTitle:    jobTitle,
		TotalScore:  total,
		MaxPossible: maxPossible,
		Percentage:  percentage,
		Questions:   summaryQuestions,
	})
	if err != nil {
		telemetry.Warn("interview.assessment_fallback", map[string]any{
			"interview_id": interviewID,
			"error":        err.Error(),
		})
		assessment = fallbackAssessment(total, maxPossible, percentage)
	}
	assessment.OverallScore = total
	assessment.Percentage = percentage
	assessment.TotalScore = total
	assessment.MaxPossible = maxPossible
	assessment.QuestionsAnalyzed = len(questions)
	if assessment.Strengths == nil {
		assessment.Strengths = []string{}
	}
	if assessment.Weaknesses == nil {
		assessment.Weaknesses = []string{}
	}
	return assessment
}

func (s *Service) requestAssessment(ctx context.Context, in llm.SummaryInput) (Assessment, error) {
	prompt, err := llm.InterviewSummaryPrompt(in)
	if err != nil {
		return Assessment{}, err
	}
	raw, err := s.generator().Generate(ctx, prompt, aiTemperature)
	if err != nil {
		metrics.IncAICall("interview_summary", "error")
		return Assessment{}, err
	}
	decoded, err := llm.DecodeObject[aiAssessment](raw, assessmentSchema)
	if err != nil {
		metrics.IncAICall("interview_summary", "malformed")
		return Assessment{}, err
	}
	rec, ok := ParseRecommendation(decoded.Recommendation)
	if !ok {
		metrics.IncAICall("interview_summary", "malformed")
		return Assessment{}, fmt.Errorf("%w: unknown recommendation %q", llm.ErrMalformedResponse, decoded.Recommendation)
	}
	metrics.IncAICall("interview_summary", "ok")
	return Assessment{
		Recommendation:    rec,
		Summary:           decoded.Summary,
		Strengths:         decoded.Strengths,
		Weaknesses:        decoded.Weaknesses,
		DecisionRationale: decoded.DecisionRationale,
		NextSteps:         decoded.NextSteps,
	}, nil
}

func fallbackAssessment(total, maxPossible, percentage float64) Assessment {
	return Assessment{
		Recommendation:    RecommendationFor(percentage),
		Summary:           fmt.Sprintf("Score: %s/%s (%.1f%%)", formatScore(total), formatScore(maxPossible), percentage),
		Strengths:         []string{},
		Weaknesses:        []string{},
		DecisionRationale: "Automated analysis unavailable",
		NextSteps:         "Manual review recommended",
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GetAnalysis returns the completed interview for the owning recruiter.
func (s *Service) GetAnalysis(ctx context.Context, ownerID string, interviewID int64) (AnalysisView, error) {
	sess, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return AnalysisView{}, err
	}
	job, err := s.ownedJob(ctx, ownerID, sess.JobID)
	if err != nil {
		return AnalysisView{}, err
	}
	if sess.Status != StatusCompleted {
		return AnalysisView{}, ErrNotCompleted
	}

	view := AnalysisView{
		InterviewID:          interviewID,
		JobTitle:             job.Title,
		InterviewStatus:      sess.Status,
		CompletedAt:          sess.CompletedAt,
		QuestionsWithAnswers: sess.Questions,
		OverallAnalysis:      sess.Analysis,
		TotalQuestions:       len(sess.Questions),
	}
	if view.QuestionsWithAnswers == nil {
		view.QuestionsWithAnswers = []Question{}
	}
	if sess.AIScore != nil {
		view.AIScore = *sess.AIScore
	}
	if res, err := s.Resumes.GetByID(ctx, sess.ResumeID); err == nil {
		view.CandidateName = strPtr(res.CandidateName)
		view.CandidateEmail = strPtr(res.CandidateEmail)
	}
	return view, nil
}
