// Package method implements the pluggable step formulas: the
// explicit embedded Dormand-Prince pair, variable-order BDF, and the
// 3-stage Radau IIA collocation method. Each stepper produces a
// candidate next state plus an embedded local error estimate; it
// never decides acceptance itself, that is the controller's job.
package method

import (
	"fmt"

	"github.com/san-kum/odekit/internal/ode"
)

// Result is one candidate step. F0 and F1 are the solution
// derivatives at both ends of the step, consumed by the dense-output
// interpolant.
type Result struct {
	Y   ode.State
	Err ode.State
	F0  ode.State
	F1  ode.State
}

// Stepper advances the solution by one candidate step. Step must not
// commit any internal memory: the driver calls Accept only for steps
// that pass error control, and Reset after an event discontinuity.
type Stepper interface {
	Name() string
	Order() int
	Step(t float64, y ode.State, h float64) (*Result, error)
	Accept(t float64, y ode.State)
	Reset()
}

// New selects the stepper for cfg.Method. sys must be an ode.System
// or, for BDF only, an ode.ImplicitSystem.
func New(sys any, cfg *ode.Config, diag *ode.Diagnostics) (Stepper, error) {
	switch cfg.Method {
	case ode.ExplicitRK:
		es, ok := sys.(ode.System)
		if !ok {
			return nil, fmt.Errorf("%w: explicit RK requires the explicit system form", ode.ErrInvalidConfig)
		}
		if _, hasMass := sys.(ode.MassMatrixer); hasMass {
			return nil, fmt.Errorf("%w: explicit RK does not support a mass matrix", ode.ErrInvalidConfig)
		}
		return NewDormandPrince(es, diag), nil
	case ode.BDF:
		return NewBDF(sys, cfg, diag)
	case ode.Radau:
		es, ok := sys.(ode.System)
		if !ok {
			return nil, fmt.Errorf("%w: radau requires the explicit system form (use BDF for residual-form DAEs)", ode.ErrInvalidConfig)
		}
		return NewRadau(es, cfg, diag), nil
	}
	return nil, fmt.Errorf("%w: unknown method %d", ode.ErrInvalidConfig, cfg.Method)
}
