package interviews

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNotFound              = errors.New("interview not found")
	ErrCandidateNotFound     = errors.New("candidate not found")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("interview was modified concurrently")
	ErrInvalidInput          = errors.New("invalid input")
	ErrRateLimited           = errors.New("too many access attempts")
	ErrUnauthorized          = errors.New("invalid credentials")
	ErrInvalidEmail          = fmt.Errorf("%w: invalid email address", ErrUnauthorized)
	ErrInvalidAccessCode     = fmt.Errorf("%w: invalid access code", ErrUnauthorized)
	ErrQuestionsNotGenerated = errors.New("questions not generated yet")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrAlreadyCompleted      = errors.New("interview already completed")
	ErrNotCompleted          = errors.New("interview not completed yet")
	ErrQuestionGeneration    = errors.New("question generation failed")
	ErrIncompleteInterview   = errors.New("not all questions answered")
	ErrCompletionInProgress  = errors.New("interview completion already in progress")
)

// IncompleteError lists the questions that still lack an answer.
type IncompleteError struct {
	Unanswered []int
}

func (e *IncompleteError) Error() string {
	ids := make([]string, 0, len(e.Unanswered))
	for _, id := range e.Unanswered {
		ids = append(ids, strconv.Itoa(id))
	}
	return fmt.Sprintf("%v: unanswered questions %s", ErrIncompleteInterview, strings.Join(ids, ","))
}

// Is lets errors.Is(err, ErrIncompleteInterview) match.
func (e *IncompleteError) Is(target error) bool { return target == ErrIncompleteInterview }
