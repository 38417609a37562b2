package entity

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	// Request errors
	ErrEmptyRequest   = errors.New("request has no user message")
	ErrMessageTooLong = errors.New("message too long")
	ErrTooManyTurns   = errors.New("too many history turns")

	// Generation errors
	ErrEmptyGeneration     = errors.New("model returned empty content")
	ErrMalformedGeneration = errors.New("model returned malformed structured output")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// UpstreamError is a failure of a generation call inside a pipeline stage.
// It is never turned into a rejection.
type UpstreamError struct {
	Stage StageName
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream failure in %s: %v", e.Stage, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsUpstreamFailure reports whether err came from a generation call
func IsUpstreamFailure(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr)
}
