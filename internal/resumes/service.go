package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"hirelens-backend/internal/extract"
	"hirelens-backend/internal/fields"
	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/notify"
	"hirelens-backend/internal/queue"
	"hirelens-backend/internal/scoring"
	"hirelens-backend/internal/shared/metrics"
	"hirelens-backend/internal/shared/storage/object"
	"hirelens-backend/internal/shared/telemetry"
)

// Service owns resume intake and the processing pipeline.
type Service struct {
	Repo     Repo
	Jobs     jobs.Repo
	Store    object.ObjectStore
	Scorer   scoring.Strategy
	Notifier notify.Notifier
	// Queue is optional. When nil, processing runs in a detached goroutine.
	Queue queue.Client
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload stores the file, records a pending resume and dispatches processing.
// It returns before processing completes.
func (s *Service) Upload(ctx context.Context, ownerID string, jobID int64, fileName string, r io.Reader, submitted SubmittedFields) (Resume, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Resume{}, fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if !extract.SupportedExtension(fileName) {
		return Resume{}, fmt.Errorf("%s: %w", fileName, extract.ErrUnsupportedFormat)
	}
	if _, err := s.ownedJob(ctx, ownerID, jobID); err != nil {
		return Resume{}, err
	}

	namespace := strconv.FormatInt(jobID, 10)
	key, size, _, err := s.Store.Save(ctx, namespace, fileName, r)
	if err != nil {
		return Resume{}, fmt.Errorf("store resume file: %w", err)
	}

	created, err := s.Repo.Create(ctx, Resume{
		JobID:            jobID,
		OwnerID:          ownerID,
		FileName:         fileName,
		StorageKey:       key,
		SizeBytes:        size,
		Submitted:        normalizeSubmitted(submitted),
		ProcessingStatus: StatusPending,
		Status:           StageNew,
		CreatedAt:        s.now(),
	})
	if err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			telemetry.Warn("resume.cleanup_failed", map[string]any{"storage_key": key, "error": delErr.Error()})
		}
		return Resume{}, err
	}

	s.dispatch(ctx, created)
	return created, nil
}

func (s *Service) dispatch(ctx context.Context, r Resume) {
	requestID := RequestIDFromContext(ctx)
	if s.Queue != nil {
		err := s.Queue.Send(ctx, queue.NewMessage(r.ID, requestID, s.now()))
		if err == nil {
			telemetry.Info("resume.enqueued", map[string]any{
				"request_id": requestID,
				"resume_id":  r.ID,
				"job_id":     r.JobID,
			})
			return
		}
		// The processing guard makes a duplicate run from a late delivery harmless.
		telemetry.Warn("resume.enqueue_failed", map[string]any{
			"request_id": requestID,
			"resume_id":  r.ID,
			"error":      err.Error(),
		})
	}
	go func() {
		_ = s.Process(backgroundWithRequestID(ctx), r.ID)
	}()
}

// Process runs extraction and scoring for one resume. A resume that is not
// pending is skipped. Failures after the resume enters processing are
// recorded as the failed status and are not returned; the returned error only
// reports that the terminal status could not be written.
func (s *Service) Process(ctx context.Context, id int64) (err error) {
	startedAt := s.now()
	requestID := RequestIDFromContext(ctx)

	if err := s.Repo.TransitionStatus(ctx, id, StatusPending, StatusProcessing); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			telemetry.Info("resume.process_skipped", map[string]any{
				"request_id": requestID,
				"resume_id":  id,
				"reason":     "not pending",
			})
			return nil
		}
		return fmt.Errorf("start processing resume %d: %w", id, err)
	}
	metrics.IncProcessingStarted()
	telemetry.Info("resume.status", map[string]any{
		"request_id":        requestID,
		"resume_id":         id,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})

	defer func() {
		if r := recover(); r != nil {
			err = s.fail(ctx, id, 0, fmt.Errorf("panic: %v", r), startedAt)
		}
	}()

	res, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return s.fail(ctx, id, 0, fmt.Errorf("resume lookup: %w", err), startedAt)
	}
	job, err := s.Jobs.GetByID(ctx, res.JobID)
	if err != nil {
		return s.fail(ctx, id, res.JobID, fmt.Errorf("job lookup id=%d: %w", res.JobID, err), startedAt)
	}

	text, err := extract.ExtractFromStore(ctx, s.Store, res.StorageKey, res.FileName)
	if err != nil {
		return s.fail(ctx, id, res.JobID, err, startedAt)
	}
	fs := fields.Extract(text)

	scorer := s.Scorer
	if scorer == nil {
		scorer = scoring.RuleBased{}
	}
	result, err := scorer.Score(ctx, fs, job)
	if err != nil {
		return s.fail(ctx, id, res.JobID, fmt.Errorf("score: %w", err), startedAt)
	}

	completedAt := s.now()
	update := mergeResult(res.Submitted, fs, result)
	update.ProcessingTimeSeconds = completedAt.Sub(startedAt).Seconds()
	update.CompletedAt = completedAt
	if err := s.Repo.SaveResult(ctx, id, update); err != nil {
		return s.fail(ctx, id, res.JobID, fmt.Errorf("save result: %w", err), startedAt)
	}

	duration := durationMs(startedAt, completedAt)
	metrics.IncProcessingCompleted()
	metrics.ObserveProcessingDurationMs(duration)
	telemetry.Info("resume.status", map[string]any{
		"request_id":        requestID,
		"resume_id":         id,
		"job_id":            res.JobID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"score":             result.Score,
		"strategy":          result.Strategy,
		"fell_back":         result.FellBack,
		"duration_ms":       duration,
	})

	notify.Dispatch(ctx, s.Notifier, notify.Notification{
		UserID:     job.OwnerID,
		Type:       notify.TypeResumeProcessed,
		Title:      "Resume processed",
		Message:    fmt.Sprintf("%s scored %.1f for %s", displayName(update.CandidateName), result.Score, job.Title),
		RelatedRef: fmt.Sprintf("resume:%d", id),
	})
	return nil
}

func (s *Service) fail(ctx context.Context, id, jobID int64, cause error, startedAt time.Time) error {
	completedAt := s.now()
	msg := sanitizeError(cause)
	metrics.IncProcessingFailed()
	metrics.ObserveProcessingDurationMs(durationMs(startedAt, completedAt))
	telemetry.Error("resume.status", map[string]any{
		"request_id":        RequestIDFromContext(ctx),
		"resume_id":         id,
		"job_id":            jobID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error":             msg,
		"duration_ms":       durationMs(startedAt, completedAt),
	})
	if err := s.Repo.MarkFailed(context.WithoutCancel(ctx), id, msg); err != nil {
		return fmt.Errorf("mark resume %d failed: %w (cause: %v)", id, err, cause)
	}
	return nil
}

// mergeResult builds the completion update. Values typed by the candidate win
// over values extracted from the document.
func mergeResult(submitted SubmittedFields, fs fields.FieldSet, result scoring.Result) ResultUpdate {
	return ResultUpdate{
		CandidateName:   firstNonEmpty(submitted.Name, fs.Name),
		CandidateEmail:  firstNonEmpty(submitted.Email, deref(fs.Email)),
		CandidatePhone:  firstNonEmpty(submitted.Phone, deref(fs.Phone)),
		Location:        firstNonEmpty(submitted.Location, deref(fs.Location)),
		ExperienceYears: fs.ExperienceYears,
		EducationLevel:  fs.EducationLevel,
		ParsedData:      fs,
		Score:           result.Score,
		MatchedSkills:   result.MatchedSkills,
		MissingSkills:   result.MissingSkills,
		Explanation:     result.Explanation,
		ScoringStrategy: result.Strategy,
	}
}

// Get returns a resume owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID string, id int64) (Resume, error) {
	res, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Resume{}, err
	}
	if res.OwnerID != ownerID {
		return Resume{}, ErrNotFound
	}
	return res, nil
}

// ListByJob lists resumes for a job owned by ownerID.
func (s *Service) ListByJob(ctx context.Context, ownerID string, jobID int64, limit, offset int) ([]Resume, error) {
	if _, err := s.ownedJob(ctx, ownerID, jobID); err != nil {
		return nil, err
	}
	return s.Repo.ListByJob(ctx, jobID, limit, offset)
}

// UpdateStatus moves a resume to another pipeline stage.
func (s *Service) UpdateStatus(ctx context.Context, ownerID string, id int64, raw string) (Resume, error) {
	stage, ok := ParseStage(strings.ToLower(strings.TrimSpace(raw)))
	if !ok {
		return Resume{}, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, raw)
	}
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return Resume{}, err
	}
	if err := s.Repo.UpdatePipelineStatus(ctx, id, stage); err != nil {
		return Resume{}, err
	}
	telemetry.Info("resume.pipeline_status", map[string]any{
		"request_id": RequestIDFromContext(ctx),
		"resume_id":  id,
		"status":     string(stage),
	})
	return s.Repo.GetByID(ctx, id)
}

// Delete removes a resume and its stored file.
func (s *Service) Delete(ctx context.Context, ownerID string, id int64) error {
	res, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if res.StorageKey != "" {
		if err := s.Store.Delete(ctx, res.StorageKey); err != nil {
			return fmt.Errorf("delete resume file: %w", err)
		}
	}
	return s.Repo.Delete(ctx, id)
}

func (s *Service) ownedJob(ctx context.Context, ownerID string, jobID int64) (jobs.Requirements, error) {
	job, err := s.Jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return jobs.Requirements{}, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
		}
		return jobs.Requirements{}, err
	}
	if !job.OwnedBy(ownerID) {
		return jobs.Requirements{}, fmt.Errorf("job %d: %w", jobID, ErrNotFound)
	}
	return job, nil
}

func normalizeSubmitted(in SubmittedFields) SubmittedFields {
	return SubmittedFields{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Phone:    strings.TrimSpace(in.Phone),
		Location: strings.TrimSpace(in.Location),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func displayName(name string) string {
	if name == "" {
		return "Candidate"
	}
	return name
}

func durationMs(startedAt, completedAt time.Time) float64 {
	return float64(completedAt.Sub(startedAt).Milliseconds())
}

// maxErrorMessageBytes bounds the failure message stored on a resume.
const maxErrorMessageBytes = 500

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToValidUTF8(strings.TrimSpace(err.Error()), "")
	if len(msg) > maxErrorMessageBytes {
		n := maxErrorMessageBytes
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n]
	}
	return msg
}
