package ode

import "math"

// State is the solution vector of an ODE/DAE system.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// System is the explicit form M*y' = f(t, y). Implementations carry
// their parameters as immutable struct fields; Derive must not retain
// or mutate y.
type System interface {
	Dim() int
	Derive(t float64, y State) State
}

// ImplicitSystem is the residual form F(t, y, y') = 0 used for DAEs
// that cannot be written as an explicit right-hand side. Only the
// BDF method accepts this form.
type ImplicitSystem interface {
	Dim() int
	Residual(t float64, y, yp State) State
}

// MassMatrixer optionally supplies a constant mass matrix M for
// M*y' = f(t, y). M may be singular (DAE); Index classifies each
// equation (0 = algebraic, 1 = differential, ...). A nil Index means
// all equations are differential.
type MassMatrixer interface {
	MassMatrix() [][]float64
	Index() []int
}

// EventSystem adds root functions whose zero crossings trigger a
// discontinuous state reset.
type EventSystem interface {
	Roots(t float64, y State) []float64
	Reset(root int, t float64, y State) State
}

// Lookup evaluates past solution values, used by delay systems.
type Lookup interface {
	Value(t float64) (State, error)
	Derivative(t float64) (State, error)
}

// DelaySystem is a delay differential equation. Delays must all be
// strictly positive; past gives access to the solution at earlier
// times, including the initial history for t before the run start.
type DelaySystem interface {
	Dim() int
	Delays() []float64
	DeriveDelayed(t float64, y State, past Lookup) State
	InitialHistory(t float64) State
}

// Event is a located zero crossing of a root function component.
type Event struct {
	T     float64
	Index int
	Value float64
}

// Sample is one trajectory point. Event resets produce two samples
// with equal T and different Y.
type Sample struct {
	T float64
	Y State
}

// Diagnostics counts the work done during a run.
type Diagnostics struct {
	Accepted    int
	Rejected    int
	Evals       int
	JacEvals    int
	NewtonIters int
	NewtonFails int
	Events      int
}

// Result is the outcome of an integration run. On fatal errors the
// driver still returns the trajectory prefix and diagnostics
// accumulated so far.
type Result struct {
	Samples []Sample
	Events  []Event
	Diag    Diagnostics
}
