package workflow

import (
	"errors"
	"fmt"

	"adflow/internal/models"
)

// ErrNoAvailableReviewer rejects task creation when every compliance
// reviewer is inactive or absent today.
var ErrNoAvailableReviewer = errors.New("no available compliance reviewer")

// TransitionError reports a status change outside the lifecycle table.
type TransitionError struct {
	From models.Status
	To   models.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid task transition: %s -> %s", e.From, e.To)
}

// ValidationError reports a violated workflow rule, caught before any
// write happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
