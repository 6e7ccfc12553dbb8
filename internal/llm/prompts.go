package llm

import (
	"embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFiles embed.FS

var prompts = template.Must(template.New("prompts").Funcs(template.FuncMap{
	"join": func(items []string) string { return strings.Join(items, ", ") },
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if len(r) > n {
			return string(r[:n])
		}
		return s
	},
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"inc": func(i int) int { return i + 1 },
}).ParseFS(promptFiles, "prompts/*.tmpl"))

// QuestionsInput feeds the interview question prompt.
type QuestionsInput struct {
	NumQuestions   int
	JobTitle       string
	JobDescription string
	RequiredSkills []string
	ResumeSummary  string
}

// AnswerInput feeds the per-answer evaluation prompt.
type AnswerInput struct {
	Question       string
	ExpectedPoints []string
	Answer         string
	MaxScore       float64
}

// SummaryQuestion is one scored answer in the aggregate prompt.
type SummaryQuestion struct {
	Question string
	Category string
	Score    float64
	MaxScore float64
	Answer   string
}

// SummaryInput feeds the aggregate interview assessment prompt.
type SummaryInput struct {
	JobTitle    string
	TotalScore  float64
	MaxPossible float64
	Percentage  float64
	Questions   []SummaryQuestion
}

// ScoringInput feeds the resume scoring prompt.
type ScoringInput struct {
	JobTitle           string
	JobDescription     string
	RequiredSkills     []string
	ExperienceRequired string
	EducationRequired  string
	CandidateSkills    []string
	ExperienceYears    float64
	EducationLevel     string
	ProjectCount       int
	Certifications     []string
}

// QuestionsPrompt renders the question generation prompt.
func QuestionsPrompt(in QuestionsInput) (string, error) { return render("questions.tmpl", in) }

// AnswerAnalysisPrompt renders the answer evaluation prompt.
func AnswerAnalysisPrompt(in AnswerInput) (string, error) { return render("answer.tmpl", in) }

// InterviewSummaryPrompt renders the aggregate assessment prompt.
func InterviewSummaryPrompt(in SummaryInput) (string, error) { return render("summary.tmpl", in) }

// ScoringPrompt renders the resume scoring prompt.
func ScoringPrompt(in ScoringInput) (string, error) { return render("scoring.tmpl", in) }

func render(name string, data any) (string, error) {
	var b strings.Builder
	if err := prompts.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
