// Package interviews runs the AI interview session protocol: candidate access,
// question generation, answer collection and completion analysis.
package interviews

import "time"

// Interview statuses. They only move forward.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// QuestionMaxScore is the fixed ceiling of every question.
const QuestionMaxScore = 20.0

// Recommendation is the hiring label of a completed interview.
type Recommendation string

const (
	StrongHire Recommendation = "STRONG_HIRE"
	Hire       Recommendation = "HIRE"
	Maybe      Recommendation = "MAYBE"
	NoHire     Recommendation = "NO_HIRE"
)

// RecommendationFor maps a percentage to the expected label.
func RecommendationFor(percentage float64) Recommendation {
	switch {
	case percentage >= 85:
		return StrongHire
	case percentage >= 70:
		return Hire
	case percentage >= 50:
		return Maybe
	default:
		return NoHire
	}
}

// ParseRecommendation accepts labels such as "strong hire" or "STRONG_HIRE".
func ParseRecommendation(s string) (Recommendation, bool) {
	r := Recommendation(normalizeLabel(s))
	switch r {
	case StrongHire, Hire, Maybe, NoHire:
		return r, true
	default:
		return "", false
	}
}

// Question is one generated question with the candidate's answer and its analysis.
type Question struct {
	ID             int        `json:"id"`
	Question       string     `json:"question"`
	Category       string     `json:"category"`
	Difficulty     string     `json:"difficulty"`
	ExpectedPoints []string   `json:"expected_points"`
	MaxScore       float64    `json:"max_score"`
	Answer         *string    `json:"answer"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	Score          *float64   `json:"score"`
	Feedback       string     `json:"feedback,omitempty"`
	CoveredPoints  []string   `json:"covered_points,omitempty"`
	MissedPoints   []string   `json:"missed_points,omitempty"`
	Strengths      []string   `json:"strengths,omitempty"`
	Improvements   []string   `json:"improvements,omitempty"`
}

func (q Question) answered() bool {
	return q.Answer != nil && *q.Answer != ""
}

func (q Question) maxScore() float64 {
	if q.MaxScore <= 0 {
		return QuestionMaxScore
	}
	return q.MaxScore
}

// CandidateQuestion is the candidate view of a question. Expected points and
// analysis never leave the server through it.
type CandidateQuestion struct {
	ID         int        `json:"id"`
	Question   string     `json:"question"`
	Category   string     `json:"category"`
	Difficulty string     `json:"difficulty"`
	MaxScore   float64    `json:"max_score"`
	Answer     *string    `json:"answer"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

func candidateView(q Question) CandidateQuestion {
	return CandidateQuestion{
		ID:         q.ID,
		Question:   q.Question,
		Category:   q.Category,
		Difficulty: q.Difficulty,
		MaxScore:   q.MaxScore,
		Answer:     q.Answer,
		AnsweredAt: q.AnsweredAt,
	}
}

// Assessment is the aggregate analysis stored on completion.
type Assessment struct {
	OverallScore      float64        `json:"overall_score"`
	Percentage        float64        `json:"percentage"`
	Recommendation    Recommendation `json:"recommendation"`
	Summary           string         `json:"summary"`
	Strengths         []string       `json:"strengths"`
	Weaknesses        []string       `json:"weaknesses"`
	DecisionRationale string         `json:"decision_rationale"`
	NextSteps         string         `json:"next_steps"`
	TotalScore        float64        `json:"total_score"`
	MaxPossible       float64        `json:"max_possible"`
	QuestionsAnalyzed int            `json:"questions_analyzed"`
}

// Session is an interview and its question set.
type Session struct {
	ID              int64       `json:"id"`
	JobID           int64       `json:"job_id"`
	ResumeID        int64       `json:"resume_id"`
	AccessCode      string      `json:"-"`
	Status          string      `json:"interview_status"`
	Questions       []Question  `json:"questions"`
	AIScore         *float64    `json:"ai_score"`
	AIFeedback      string      `json:"ai_feedback"`
	Analysis        *Assessment `json:"analysis,omitempty"`
	Notes           string      `json:"notes"`
	DurationMinutes int         `json:"duration_minutes"`
	ScheduledAt     *time.Time  `json:"scheduled_at"`
	CompletedAt     *time.Time  `json:"completed_at"`
	Version         int64       `json:"version"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// AccessResult is returned by a successful VerifyAccess.
type AccessResult struct {
	Message       string `json:"message"`
	InterviewID   int64  `json:"interview_id"`
	CandidateName string `json:"candidate_name"`
}

// QuestionSheet is what a candidate sees when opening an interview.
type QuestionSheet struct {
	InterviewID     int64               `json:"interview_id"`
	JobTitle        *string             `json:"job_title"`
	CandidateName   *string             `json:"candidate_name"`
	InterviewStatus string              `json:"interview_status"`
	Questions       []CandidateQuestion `json:"questions"`
	TotalQuestions  int                 `json:"total_questions"`
	DurationMinutes int                 `json:"duration_minutes"`
	ScheduledDate   *time.Time          `json:"scheduled_date"`
}

// Completion is returned by Complete.
type Completion struct {
	InterviewID    int64          `json:"interview_id"`
	AIScore        float64        `json:"ai_score"`
	Recommendation Recommendation `json:"recommendation"`
	TotalQuestions int            `json:"total_questions"`
}

// AnalysisView is the recruiter view of a completed interview.
type AnalysisView struct {
	InterviewID          int64       `json:"interview_id"`
	CandidateName        *string     `json:"candidate_name"`
	CandidateEmail       *string     `json:"candidate_email"`
	JobTitle             string      `json:"job_title"`
	InterviewStatus      string      `json:"interview_status"`
	CompletedAt          *time.Time  `json:"completed_at"`
	AIScore              float64     `json:"ai_score"`
	QuestionsWithAnswers []Question  `json:"questions_with_answers"`
	OverallAnalysis      *Assessment `json:"overall_analysis"`
	TotalQuestions       int         `json:"total_questions"`
}
