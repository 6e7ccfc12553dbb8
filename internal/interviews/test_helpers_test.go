package interviews

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/llm"
	"hirelens-backend/internal/resumes"
	"hirelens-backend/internal/security"
	"hirelens-backend/internal/shared/cache"
)

const (
	questionsReply = "```json\n[\n" +
		`{"question":"Explain Python generators","category":"Technical","difficulty":"medium","expected_points":["lazy evaluation","yield","memory"],"max_score":20},` + "\n" +
		`{“question”:“Describe an outage you handled”,“category”:“behavioral”,“difficulty”:“hard”,“expected_points”:[“impact”,“root cause”,“follow up”],“max_score”:20},` + "\n" +
		`{"question":"How do you design for AWS cost?","category":"situational","difficulty":"easy","expected_points":["sizing","reserved capacity","monitoring"],"max_score":20}` +
		"\n]\n```"
	answerReply  = `{"score": 15, "feedback": "Good coverage", "covered_points": ["yield"], "missed_points": ["memory"], "strengths": ["clear"], "improvements": ["depth"]}`
	summaryReply = "```json\n" + `{"overall_score": 45, "percentage": 75, "recommendation": "hire", "summary": "Solid candidate", "strengths": ["communication"], "weaknesses": ["depth"], "decision_rationale": "Good answers", "next_steps": "Onsite"}` + "\n```"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedGenerator answers each prompt kind with a canned reply.
type scriptedGenerator struct {
	questions string
	answer    string
	summary   string
	err       error
	calls     atomic.Int32
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{questions: questionsReply, answer: answerReply, summary: summaryReply}
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	g.calls.Add(1)
	switch {
	case strings.Contains(prompt, "expert technical recruiter"):
		if g.questions == "" {
			return "", g.errOr()
		}
		return g.questions, nil
	case strings.Contains(prompt, "expert interview evaluator"):
		if g.answer == "" {
			return "", g.errOr()
		}
		return g.answer, nil
	case strings.Contains(prompt, "senior hiring manager"):
		if g.summary == "" {
			return "", g.errOr()
		}
		return g.summary, nil
	default:
		return "", errors.New("unexpected prompt")
	}
}

func (g *scriptedGenerator) errOr() error {
	if g.err != nil {
		return g.err
	}
	return llm.ErrNotConfigured
}

type testEnv struct {
	svc         *Service
	repo        *MemoryRepo
	resumes     *resumes.MemoryRepo
	cache       *cache.MemoryCache
	securityLog *security.MemoryRepo
	monitor     *security.Monitor
	gen         *scriptedGenerator
	clock       *clock
	resumeID    int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}

	jobRepo := jobs.NewMemoryRepo()
	jobRepo.Put(jobs.Requirements{
		ID:                 1,
		OwnerID:            "owner-1",
		Title:              "Backend Engineer",
		Description:        "Build services",
		RequiredSkills:     []string{"Python", "AWS"},
		ExperienceRequired: "3 years",
		Education:          "Bachelors",
	})

	resumeRepo := resumes.NewMemoryRepo()
	parsed := fields.Extract("Jane Doe\nPython engineer with 2 years experience building on Amazon Web Services.")
	res, err := resumeRepo.Create(context.Background(), resumes.Resume{
		JobID:          1,
		OwnerID:        "owner-1",
		FileName:       "jane.pdf",
		CandidateName:  "Jane Doe",
		CandidateEmail: "Jane@Example.com",
		ParsedData:     &parsed,
	})
	if err != nil {
		t.Fatalf("seed resume: %v", err)
	}

	repo := NewMemoryRepo()
	c := cache.NewMemoryCache(100, clk.Now)
	securityLog := security.NewMemoryRepo()
	monitor := &security.Monitor{
		Repo:       securityLog,
		Cache:      c,
		Interviews: SecurityStore{Repo: repo, Jobs: jobRepo},
		Now:        clk.Now,
	}
	gen := newScriptedGenerator()

	svc := &Service{
		Repo:      repo,
		Resumes:   resumeRepo,
		Jobs:      jobRepo,
		Cache:     c,
		Generator: gen,
		Security:  monitor,
		Now:       clk.Now,
	}
	return &testEnv{
		svc:         svc,
		repo:        repo,
		resumes:     resumeRepo,
		cache:       c,
		securityLog: securityLog,
		monitor:     monitor,
		gen:         gen,
		clock:       clk,
		resumeID:    res.ID,
	}
}

func (e *testEnv) seed(t *testing.T, questions ...Question) Session {
	t.Helper()
	status := StatusPending
	for _, q := range questions {
		if q.answered() {
			status = StatusInProgress
		}
	}
	sess, err := e.repo.Create(context.Background(), Session{
		JobID:           1,
		ResumeID:        e.resumeID,
		AccessCode:      "ABC123",
		Status:          status,
		Questions:       questions,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("seed interview: %v", err)
	}
	return sess
}

func question(id int, answer string) Question {
	q := Question{
		ID:             id,
		Question:       "Question " + string(rune('A'+id-1)),
		Category:       "technical",
		Difficulty:     "medium",
		ExpectedPoints: []string{"one", "two", "three"},
		MaxScore:       QuestionMaxScore,
	}
	if answer != "" {
		q.Answer = &answer
	}
	return q
}
