package resumes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"strings"
	"sync"
	"testing"
	"time"

	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/queue"
	"hirelens-backend/internal/scoring"
	"hirelens-backend/internal/shared/storage/object/local"
)

const sampleResume = "Jane Doe\njane@example.com\nPython engineer with 2 years experience building on Amazon Web Services.\nBachelor's degree in Computer Science"

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>")
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			t.Fatalf("escape: %v", err)
		}
		body.WriteString("</w:t></w:r></w:p>")
	}
	body.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(body.String())); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type recordingNotifier struct {
	sent chan notify.Notification
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{sent: make(chan notify.Notification, 8)}
}

func (r *recordingNotifier) Notify(ctx context.Context, n notify.Notification) error {
	r.sent <- n
	return nil
}

type recordingQueue struct {
	mu   sync.Mutex
	msgs []queue.Message
	err  error
}

func (q *recordingQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *recordingQueue) messages() []queue.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.Message(nil), q.msgs...)
}

type testEnv struct {
	svc      *Service
	repo     *MemoryRepo
	jobs     *jobs.MemoryRepo
	store    *local.Store
	notifier *recordingNotifier
	queue    *recordingQueue
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	jobRepo := jobs.NewMemoryRepo()
	jobRepo.Put(jobs.Requirements{
		ID:                 1,
		OwnerID:            "owner-1",
		Title:              "Backend Engineer",
		RequiredSkills:     []string{"Python", "AWS"},
		ExperienceRequired: "3 years",
		Education:          "Bachelors",
	})
	env := testEnv{
		repo:     NewMemoryRepo(),
		jobs:     jobRepo,
		store:    local.New(t.TempDir()),
		notifier: newRecordingNotifier(),
		queue:    &recordingQueue{},
	}
	env.svc = &Service{
		Repo:     env.repo,
		Jobs:     env.jobs,
		Store:    env.store,
		Scorer:   scoring.NewEngine(scoring.RuleBased{}),
		Notifier: env.notifier,
		Queue:    env.queue,
	}
	return env
}

func (e testEnv) upload(t *testing.T, submitted SubmittedFields, paragraphs ...string) Resume {
	t.Helper()
	res, err := e.svc.Upload(context.Background(), "owner-1", 1, "jane.docx", bytes.NewReader(docxBytes(t, paragraphs...)), submitted)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	return res
}

func waitForStatus(t *testing.T, repo Repo, id int64, want string) Resume {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		res, err := repo.GetByID(context.Background(), id)
		if err == nil && res.ProcessingStatus == want {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("resume %d did not reach %s", id, want)
	return Resume{}
}
