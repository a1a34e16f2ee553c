// Package problems supplies plug-in right-hand sides exercising the
// integration engine: plain ODEs, a stiff oscillator, an index-1 DAE,
// event-driven dynamics, a delay equation, and method-of-lines PDE
// semidiscretizations over the grid package. These play the role of
// user callbacks; the engine itself knows nothing about them.
package problems

import (
	"math"

	"github.com/san-kum/odekit/internal/ode"
)

// Logistic is y' = r*y*(1 - y/K), with the closed form available for
// accuracy checks.
type Logistic struct {
	R, K float64
}

func (l *Logistic) Dim() int { return 1 }

func (l *Logistic) Derive(t float64, y ode.State) ode.State {
	return ode.State{l.R * y[0] * (1 - y[0]/l.K)}
}

// Exact is the closed-form solution from y(0) = y0.
func (l *Logistic) Exact(y0, t float64) float64 {
	return l.K * y0 * math.Exp(l.R*t) / (l.K + y0*(math.Exp(l.R*t)-1))
}
