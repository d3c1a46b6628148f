package induction

import (
	"errors"
	"fmt"

	"github.com/kochimetro/inductd/core/model"
)

// DataIntegrityError mirrors the model type so callers can match it at the
// engine boundary.
type DataIntegrityError = model.DataIntegrityError

// ConfigurationError reports an invalid planning parameter. It is fatal at
// run start; the run never transitions to running.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}

// ErrCancelled marks a run cancelled mid-flight. The run resolves to the
// failed state and no partial result set is published.
var ErrCancelled = errors.New("optimization run cancelled")

// ErrRunInProgress is returned when a run is requested while another run is
// still executing on the same orchestrator.
var ErrRunInProgress = errors.New("optimization run already in progress")

// CancelledError wraps ErrCancelled with the interrupted run's identity.
type CancelledError struct {
	RunID string
	Cause error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("run %s: %v: %v", e.RunID, ErrCancelled, e.Cause)
}

// Is lets errors.Is(err, ErrCancelled) match.
func (e *CancelledError) Is(target error) bool { return target == ErrCancelled }

func (e *CancelledError) Unwrap() error { return e.Cause }
