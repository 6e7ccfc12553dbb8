package resumes

import (
	"time"

	"hirelens-backend/internal/fields"
)

// Processing statuses. Transitions only move pending -> processing -> completed|failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Stage is the recruiter pipeline stage, independent of processing status.
type Stage string

const (
	StageNew         Stage = "new"
	StageShortlisted Stage = "shortlisted"
	StageRejected    Stage = "rejected"
	StageHired       Stage = "hired"
)

// ParseStage validates a pipeline stage.
func ParseStage(s string) (Stage, bool) {
	switch Stage(s) {
	case StageNew, StageShortlisted, StageRejected, StageHired:
		return Stage(s), true
	default:
		return "", false
	}
}

// SubmittedFields are candidate details typed into the upload form. They take
// precedence over values extracted from the document.
type SubmittedFields struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
}

// Resume is an uploaded resume and its processing results.
type Resume struct {
	ID         int64           `json:"id"`
	JobID      int64           `json:"job_id"`
	OwnerID    string          `json:"owner_id"`
	FileName   string          `json:"file_name"`
	StorageKey string          `json:"-"`
	SizeBytes  int64           `json:"size_bytes"`
	Submitted  SubmittedFields `json:"submitted"`

	CandidateName   string           `json:"candidate_name"`
	CandidateEmail  string           `json:"candidate_email"`
	CandidatePhone  string           `json:"candidate_phone"`
	Location        string           `json:"location"`
	ExperienceYears float64          `json:"experience_years"`
	EducationLevel  fields.Education `json:"education_level"`
	ParsedData      *fields.FieldSet `json:"parsed_data,omitempty"`

	Score           *float64 `json:"score"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	Explanation     string   `json:"explanation"`
	ScoringStrategy string   `json:"scoring_strategy,omitempty"`

	ProcessingStatus      string   `json:"processing_status"`
	ProcessingError       string   `json:"processing_error,omitempty"`
	ProcessingTimeSeconds *float64 `json:"processing_time_seconds,omitempty"`
	Status                Stage    `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultUpdate is written when processing completes.
type ResultUpdate struct {
	CandidateName         string
	CandidateEmail        string
	CandidatePhone        string
	Location              string
	ExperienceYears       float64
	EducationLevel        fields.Education
	ParsedData            fields.FieldSet
	Score                 float64
	MatchedSkills         []string
	MissingSkills         []string
	Explanation           string
	ScoringStrategy       string
	ProcessingTimeSeconds float64
	CompletedAt           time.Time
}
