package security

import "errors"

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrForbidden         = errors.New("forbidden")
)
