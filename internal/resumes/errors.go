package resumes

import "errors"

var (
	ErrNotFound       = errors.New("resume not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrStatusConflict = errors.New("processing status conflict")
)
