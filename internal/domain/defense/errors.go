package defense

import (
	"errors"
	"fmt"
)

// ErrInsufficientSamples is returned when the replay buffer holds fewer
// experiences than the requested batch size.
var ErrInsufficientSamples = errors.New("replay buffer holds fewer experiences than requested")

// ErrCheckpointMissing is returned when no checkpoint artifact exists at the
// configured path. Callers treat this as a signal to run fallback training,
// not as a fatal condition.
var ErrCheckpointMissing = errors.New("checkpoint artifact not found")

// AdapterInputError reports a malformed threat-state input at the inference
// boundary. It is never produced by the training loop.
type AdapterInputError struct {
	// Field is the offending threat-state field.
	Field string

	// Reason describes why the value was rejected.
	Reason string
}

// Error implements the error interface.
func (e *AdapterInputError) Error() string {
	return fmt.Sprintf("invalid threat state field %q: %s", e.Field, e.Reason)
}
