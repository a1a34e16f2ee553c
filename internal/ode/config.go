package ode

import (
	"fmt"
	"math"
)

// Method selects the step formula family. Selection is always
// explicit; the engine never switches methods mid-run.
type Method int

const (
	// ExplicitRK is the embedded Dormand-Prince 5(4) pair.
	ExplicitRK Method = iota
	// BDF is the variable-order backward differentiation family.
	BDF
	// Radau is the 3-stage Radau IIA collocation method, order 5.
	Radau
)

func (m Method) String() string {
	switch m {
	case ExplicitRK:
		return "rk45"
	case BDF:
		return "bdf"
	case Radau:
		return "radau"
	}
	return "unknown"
}

// ParseMethod maps a config/CLI name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "rk45", "dopri5", "rk":
		return ExplicitRK, nil
	case "bdf":
		return BDF, nil
	case "radau":
		return Radau, nil
	}
	return 0, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, name)
}

// Config holds the run options. Zero values are filled in by
// Validate with the defaults from DefaultConfig.
type Config struct {
	Method Method

	// Scalar tolerances, broadcast over all components unless the
	// per-component slices are set.
	Atol float64
	Rtol float64
	// Optional per-component tolerances; length must equal the
	// system dimension when set.
	AtolVec []float64
	RtolVec []float64

	// Step bounds. HInit <= 0 asks for an automatic estimate.
	HInit float64
	HMin  float64
	HMax  float64

	// RootTol is the event-location bracket tolerance.
	RootTol float64

	// MaxNewtonIter bounds the modified-Newton iteration inside
	// implicit steps.
	MaxNewtonIter int

	// MaxOrder bounds the BDF order (1..5).
	MaxOrder int

	// MaxSteps bounds the total number of attempted steps.
	MaxSteps int

	// MaxRetries bounds consecutive recoverable failures
	// (convergence, singular Jacobian) on a single step.
	MaxRetries int

	// ReportTimes, when set, selects the output sample times; values
	// are obtained from the dense interpolant, the stepper is never
	// forced to land on them. When nil every accepted step is
	// emitted.
	ReportTimes []float64

	// ValidateState rejects NaN/Inf states after each accepted step.
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Method:        ExplicitRK,
		Atol:          1e-8,
		Rtol:          1e-6,
		HMin:          1e-12,
		HMax:          math.Inf(1),
		RootTol:       1e-10,
		MaxNewtonIter: 8,
		MaxOrder:      5,
		MaxSteps:      1_000_000,
		MaxRetries:    12,
		ValidateState: true,
	}
}

// Validate fills defaults and rejects inconsistent options for a
// system of the given dimension.
func (c *Config) Validate(dim int) error {
	d := DefaultConfig()
	if c.Atol == 0 {
		c.Atol = d.Atol
	}
	if c.Rtol == 0 {
		c.Rtol = d.Rtol
	}
	if c.HMin == 0 {
		c.HMin = d.HMin
	}
	if c.HMax == 0 {
		c.HMax = d.HMax
	}
	if c.RootTol == 0 {
		c.RootTol = d.RootTol
	}
	if c.MaxNewtonIter == 0 {
		c.MaxNewtonIter = d.MaxNewtonIter
	}
	if c.MaxOrder == 0 {
		c.MaxOrder = d.MaxOrder
	}
	if c.MaxSteps == 0 {
		c.MaxSteps = d.MaxSteps
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}

	if c.Atol <= 0 || c.Rtol <= 0 {
		return fmt.Errorf("%w: tolerances must be positive (atol=%g rtol=%g)", ErrInvalidConfig, c.Atol, c.Rtol)
	}
	if len(c.AtolVec) > 0 && len(c.AtolVec) != dim {
		return fmt.Errorf("%w: atol vector length %d, system dimension %d", ErrInvalidConfig, len(c.AtolVec), dim)
	}
	if len(c.RtolVec) > 0 && len(c.RtolVec) != dim {
		return fmt.Errorf("%w: rtol vector length %d, system dimension %d", ErrInvalidConfig, len(c.RtolVec), dim)
	}
	for _, v := range c.AtolVec {
		if v <= 0 {
			return fmt.Errorf("%w: atol components must be positive", ErrInvalidConfig)
		}
	}
	for _, v := range c.RtolVec {
		if v <= 0 {
			return fmt.Errorf("%w: rtol components must be positive", ErrInvalidConfig)
		}
	}
	if c.HMin <= 0 || c.HMax <= c.HMin {
		return fmt.Errorf("%w: step bounds hMin=%g hMax=%g", ErrInvalidConfig, c.HMin, c.HMax)
	}
	if c.HInit < 0 {
		return fmt.Errorf("%w: hInit must be non-negative", ErrInvalidConfig)
	}
	if c.MaxOrder < 1 || c.MaxOrder > 5 {
		return fmt.Errorf("%w: maxOrder %d outside 1..5", ErrInvalidConfig, c.MaxOrder)
	}
	for i := 1; i < len(c.ReportTimes); i++ {
		if c.ReportTimes[i] <= c.ReportTimes[i-1] {
			return fmt.Errorf("%w: report times must be strictly increasing", ErrInvalidConfig)
		}
	}
	return nil
}

// Weights returns the per-component error weights atol_i + rtol_i*|y_i|.
func (c *Config) Weights(y State, w []float64) []float64 {
	if w == nil {
		w = make([]float64, len(y))
	}
	for i, v := range y {
		at, rt := c.Atol, c.Rtol
		if len(c.AtolVec) > 0 {
			at = c.AtolVec[i]
		}
		if len(c.RtolVec) > 0 {
			rt = c.RtolVec[i]
		}
		w[i] = at + rt*math.Abs(v)
	}
	return w
}

// ErrorNorm is the scaled RMS norm E = ||err/(atol+rtol*|y|)||.
// A step is acceptable when E <= 1.
func (c *Config) ErrorNorm(y, err State) float64 {
	if len(err) == 0 {
		return 0
	}
	sum := 0.0
	for i, e := range err {
		at, rt := c.Atol, c.Rtol
		if len(c.AtolVec) > 0 {
			at = c.AtolVec[i]
		}
		if len(c.RtolVec) > 0 {
			rt = c.RtolVec[i]
		}
		q := e / (at + rt*math.Abs(y[i]))
		sum += q * q
	}
	return math.Sqrt(sum / float64(len(err)))
}
