package resumes

import "context"

// Repo persists resumes. Processing status writes are guarded on the current
// status and return ErrStatusConflict when the row has moved on.
type Repo interface {
	Create(ctx context.Context, r Resume) (Resume, error)
	GetByID(ctx context.Context, id int64) (Resume, error)
	TransitionStatus(ctx context.Context, id int64, from, to string) error
	SaveResult(ctx context.Context, id int64, update ResultUpdate) error
	MarkFailed(ctx context.Context, id int64, message string) error
	UpdatePipelineStatus(ctx context.Context, id int64, stage Stage) error
	Delete(ctx context.Context, id int64) error
	ListByJob(ctx context.Context, jobID int64, limit, offset int) ([]Resume, error)
}
