package interviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/telemetry"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
)

var questionSchema = llm.Schema{
	Kind:     llm.Array,
	Required: []string{"question", "expected_points"},
	MinItems: 1,
}

type generatedQuestion struct {
	Question       string   `json:"question"`
	Category       string   `json:"category"`
	Difficulty     string   `json:"difficulty"`
	ExpectedPoints []string `json:"expected_points"`
}

// GenerateQuestions asks the generator for count questions tailored to the
// job and candidate, then replaces the question set and resets the status to
// pending. count 0 means DefaultQuestionCount. There is no fallback: a failed
// or malformed generation returns ErrQuestionGeneration.
func (s *Service) GenerateQuestions(ctx context.Context, ownerID string, interviewID int64, count int) (Session, error) {
	if count == 0 {
		count = DefaultQuestionCount
	}
	if count < 1 || count > MaxQuestionCount {
		return Session{}, fmt.Errorf("%w: num_questions must be between 1 and %d", ErrInvalidInput, MaxQuestionCount)
	}

	sess, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return Session{}, err
	}
	job, err := s.ownedJob(ctx, ownerID, sess.JobID)
	if err != nil {
		return Session{}, err
	}
	if sess.Status == StatusCompleted {
		return Session{}, ErrAlreadyCompleted
	}
	res, err := s.Resumes.GetByID(ctx, sess.ResumeID)
	if err != nil {
		if errors.Is(err, resumes.ErrNotFound) {
			return Session{}, ErrCandidateNotFound
		}
		return Session{}, err
	}

	questions, err := s.generateQuestions(ctx, job, res, count)
	if err != nil {
		telemetry.Error("interview.questions_failed", map[string]any{
			"interview_id": interviewID,
			"error":        err.Error(),
		})
		return Session{}, err
	}

	sess.Questions = questions
	sess.Status = StatusPending
	saved, err := s.Repo.Update(ctx, sess)
	if err != nil {
		return Session{}, err
	}
	telemetry.Info("interview.questions_generated", map[string]any{
		"interview_id": interviewID,
		"count":        len(questions),
	})
	return saved, nil
}

func (s *Service) generateQuestions(ctx context.Context, job jobs.Requirements, res resumes.Resume, count int) ([]Question, error) {
	prompt, err := llm.QuestionsPrompt(llm.QuestionsInput{
		NumQuestions:   count,
		JobTitle:       job.Title,
		JobDescription: job.Description,
		RequiredSkills: job.RequiredSkills,
		ResumeSummary:  resumeSummary(res.ParsedData),
	})
	if err != nil {
		return nil, fmt.Errorf("render questions prompt: %w", err)
	}

	raw, err := s.generator().Generate(ctx, prompt, aiTemperature)
	if err != nil {
		metrics.IncAICall("questions", "error")
		return nil, fmt.Errorf("%w: %v", ErrQuestionGeneration, err)
	}
	generated, err := llm.DecodeArray[generatedQuestion](raw, questionSchema)
	if err != nil {
		metrics.IncAICall("questions", "malformed")
		return nil, fmt.Errorf("%w: %v", ErrQuestionGeneration, err)
	}
	metrics.IncAICall("questions", "ok")

	out := make([]Question, 0, len(generated))
	for i, g := range generated {
		text := strings.TrimSpace(g.Question)
		if text == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrQuestionGeneration, i+1)
		}
		out = append(out, Question{
			ID:             i + 1,
			Question:       text,
			Category:       strings.ToLower(strings.TrimSpace(g.Category)),
			Difficulty:     strings.ToLower(strings.TrimSpace(g.Difficulty)),
			ExpectedPoints: g.ExpectedPoints,
			MaxScore:       QuestionMaxScore,
		})
	}
	return out, nil
}

// resumeSummary condenses parsed resume fields for question tailoring.
func resumeSummary(fs *fields.FieldSet) string {
	if fs == nil {
		return ""
	}
	var parts []string
	if len(fs.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(fs.Skills, ", ")+".")
	}
	if fs.ExperienceYears > 0 {
		parts = append(parts, "Experience: "+strconv.FormatFloat(fs.ExperienceYears, 'f', -1, 64)+" years.")
	}
	if fs.EducationLevel != "" && fs.EducationLevel != fields.EducationUnknown {
		parts = append(parts, "Education: "+string(fs.EducationLevel)+".")
	}
	if len(fs.Certifications) > 0 {
		parts = append(parts, "Certifications: "+strings.Join(fs.Certifications, ", ")+".")
	}
	if len(fs.Projects) > 0 {
		parts = append(parts, "Projects: "+strings.Join(fs.Projects, "; ")+".")
	}
	return strings.Join(parts, " ")
}

// GetQuestions returns the candidate view of the question set.
func (s *Service) GetQuestions(ctx context.Context, interviewID int64) (QuestionSheet, error) {
	sess, err := s.Repo.GetByID(ctx, interviewID)
	if err != nil {
		return QuestionSheet{}, err
	}
	if len(sess.Questions) == 0 {
		return QuestionSheet{}, ErrQuestionsNotGenerated
	}

	sheet := QuestionSheet{
		InterviewID:     interviewID,
		InterviewStatus: sess.Status,
		Questions:       make([]CandidateQuestion, 0, len(sess.Questions)),
		TotalQuestions:  len(sess.Questions),
		DurationMinutes: sess.DurationMinutes,
		ScheduledDate:   sess.ScheduledAt,
	}
	for _, q := range sess.Questions {
		sheet.Questions = append(sheet.Questions, candidateView(q))
	}
	if job, err := s.Jobs.GetByID(ctx, sess.JobID); err == nil {
		sheet.JobTitle = strPtr(job.Title)
	}
	if res, err := s.Resumes.GetByID(ctx, sess.ResumeID); err == nil {
		sheet.CandidateName = strPtr(res.CandidateName)
	}
	return sheet, nil
}

// SubmitAnswer stores the answer for one question. Resubmitting overwrites
// the previous answer.
func (s *Service) SubmitAnswer(ctx context.Context, interviewID int64, questionID int, answer string) error {
	answer = strings.TrimSpace(answer)
	if questionID <= 0 || answer == "" {
		return fmt.Errorf("%w: question_id and answer are required", ErrInvalidInput)
	}

	_, err := s.update(ctx, interviewID, func(sess *Session) error {
		if sess.Status == StatusCompleted {
			return ErrAlreadyCompleted
		}
		if len(sess.Questions) == 0 {
			return ErrQuestionsNotGenerated
		}
		for i := range sess.Questions {
			if sess.Questions[i].ID != questionID {
				continue
			}
			answeredAt := s.now()
			a := answer
			sess.Questions[i].Answer = &a
			sess.Questions[i].AnsweredAt = &answeredAt
			sess.Status = StatusInProgress
			return nil
		}
		return ErrQuestionNotFound
	})
	if err != nil {
		return err
	}
	telemetry.Info("interview.answer", map[string]any{
		"interview_id": interviewID,
		"question_id":  questionID,
	})
	return nil
}
