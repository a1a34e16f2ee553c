package ode

import (
	"errors"
	"fmt"
)

// Domain errors for integration runs.
var (
	// ErrConvergence indicates the Newton iteration did not converge
	// within the configured iteration bound. Recoverable: the driver
	// retries with a smaller step.
	ErrConvergence = errors.New("ode: newton iteration failed to converge")

	// ErrSingularJacobian indicates the iteration matrix could not be
	// factorized. Recoverable like ErrConvergence.
	ErrSingularJacobian = errors.New("ode: singular iteration matrix")

	// ErrStepUnderflow indicates the step size shrank below the
	// minimum without an accepted step. Fatal.
	ErrStepUnderflow = errors.New("ode: step size underflow")

	// ErrIntegrationFailed indicates repeated recoverable failures
	// exhausted the retry budget, or the state diverged. Fatal.
	ErrIntegrationFailed = errors.New("ode: integration failed")

	// ErrHistoryUnavailable indicates a delay lookup requested a time
	// outside the recorded history with no initial history supplied.
	ErrHistoryUnavailable = errors.New("ode: history unavailable for requested time")

	// ErrInvalidBoundary indicates a boundary condition specifying
	// neither or both of value and flux.
	ErrInvalidBoundary = errors.New("ode: invalid boundary condition")

	// ErrInvalidConfig indicates a configuration rejected before the
	// run starts.
	ErrInvalidConfig = errors.New("ode: invalid configuration")
)

// IntegrationError wraps a fatal error with the step and time at
// which the run stopped.
type IntegrationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("step %d (t=%.6g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
