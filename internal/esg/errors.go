package esg

import (
	"errors"
	"fmt"
)

// ErrNoData is returned when an entity has no submissions to score.
var ErrNoData = errors.New("no submissions to score")

// MalformedSubmissionError reports a submission field of the wrong shape.
type MalformedSubmissionError struct {
	Field string
	Err   error
}

func (e *MalformedSubmissionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed submission: %v", e.Err)
	}
	return fmt.Sprintf("malformed submission field %q: %v", e.Field, e.Err)
}

func (e *MalformedSubmissionError) Unwrap() error { return e.Err }
