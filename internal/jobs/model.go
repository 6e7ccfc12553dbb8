package jobs

import "time"

// Requirements is the read-only view of a job posting used for scoring and interviews.
type Requirements struct {
	ID                 int64     `json:"id"`
	OwnerID            string    `json:"owner_id"`
	Title              string    `json:"title"`
	Description        string    `json:"description"`
	RequiredSkills     []string  `json:"required_skills"`
	ExperienceRequired string    `json:"experience_required"`
	Education          string    `json:"education_required"`
	CreatedAt          time.Time `json:"created_at"`
}

// OwnedBy reports whether userID owns the job.
func (r Requirements) OwnedBy(userID string) bool {
	return userID != "" && r.OwnerID == userID
}
