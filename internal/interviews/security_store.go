package interviews

import (
	"context"
	"errors"

	"hirelens-backend/internal/jobs"
	"hirelens-backend/internal/security"
)

// SecurityStore exposes interviews to the security monitor.
type SecurityStore struct {
	Repo Repo
	Jobs jobs.Repo
}

// InterviewInfo resolves the interview and the owner of its job. A missing
// job leaves OwnerID empty so ownership checks fail closed.
func (st SecurityStore) InterviewInfo(ctx context.Context, id int64) (security.InterviewInfo, error) {
	sess, err := st.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return security.InterviewInfo{}, security.ErrInterviewNotFound
		}
		return security.InterviewInfo{}, err
	}
	info := security.InterviewInfo{
		ID:     sess.ID,
		JobID:  sess.JobID,
		Status: sess.Status,
	}
	job, err := st.Jobs.GetByID(ctx, sess.JobID)
	switch {
	case err == nil:
		info.OwnerID = job.OwnerID
	case !errors.Is(err, jobs.ErrNotFound):
		return security.InterviewInfo{}, err
	}
	return info, nil
}

// AppendNote appends to the interview notes.
func (st SecurityStore) AppendNote(ctx context.Context, id int64, note string) error {
	if err := st.Repo.AppendNote(ctx, id, note); err != nil {
		if errors.Is(err, ErrNotFound) {
			return security.ErrInterviewNotFound
		}
		return err
	}
	return nil
}

var _ security.InterviewStore = SecurityStore{}
