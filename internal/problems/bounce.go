package problems

import "github.com/san-kum/odekit/internal/ode"

// Bounce is a ball under gravity with an elastic floor: state
// (height, velocity), root function h(t) = height, and a reset that
// reflects the velocity scaled by the restitution coefficient.
type Bounce struct {
	Gravity     float64
	Restitution float64
}

func (b *Bounce) Dim() int { return 2 }

func (b *Bounce) Derive(t float64, y ode.State) ode.State {
	return ode.State{y[1], -b.Gravity}
}

func (b *Bounce) Roots(t float64, y ode.State) []float64 {
	return []float64{y[0]}
}

func (b *Bounce) Reset(root int, t float64, y ode.State) ode.State {
	return ode.State{0, -b.Restitution * y[1]}
}
