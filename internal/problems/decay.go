package problems

import "github.com/san-kum/odekit/internal/ode"

// Decay is y' = -lambda*y.
type Decay struct {
	Lambda float64
}

func (d *Decay) Dim() int { return 1 }

func (d *Decay) Derive(t float64, y ode.State) ode.State {
	return ode.State{-d.Lambda * y[0]}
}
