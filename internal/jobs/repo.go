package jobs

import "context"

// Repo reads job requirements. Job CRUD lives outside this service.
type Repo interface {
	GetByID(ctx context.Context, id int64) (Requirements, error)
}
