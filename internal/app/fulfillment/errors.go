package fulfillment

import (
	"errors"

	"github.com/retailops/ticketworker/internal/domain/orders"
)

// ErrMalformedOrder marks gateway data that cannot be turned into an order
// (bad amount, bad date, bad quantity).
var ErrMalformedOrder = errors.New("fulfillment: malformed order data")

// StageError ties a failure to the pipeline stage that produced it.
type StageError struct {
	Stage orders.Stage
	Err   error
}

// Error returns the stage and the wrapped error's message.
func (e *StageError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

// Unwrap returns the wrapped error.
func (e *StageError) Unwrap() error {
	return e.Err
}

// AtStage wraps err with stage. A nil err stays nil.
func AtStage(stage orders.Stage, err error) error {
	if err == nil {
		return nil
	}

	return &StageError{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err carries none.
func StageOf(err error) orders.Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
