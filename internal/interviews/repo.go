package interviews

import "context"

// Repo persists interview sessions. Update is optimistic: it succeeds only when
// the stored version equals s.Version and returns the session with the new
// version, or ErrConflict.
type Repo interface {
	Create(ctx context.Context, s Session) (Session, error)
	GetByID(ctx context.Context, id int64) (Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	// AppendNote appends to the recruiter notes without touching the version.
	AppendNote(ctx context.Context, id int64, note string) error
}
