package problems

import "github.com/san-kum/odekit/internal/ode"

// VanDerPol is the stiff oscillator x'' = mu*(1-x^2)*x' - x. For
// large mu explicit methods need impractically small steps; this is
// the standard workout for BDF and Radau.
type VanDerPol struct {
	Mu float64
}

func (v *VanDerPol) Dim() int { return 2 }

func (v *VanDerPol) Derive(t float64, y ode.State) ode.State {
	return ode.State{
		y[1],
		v.Mu*(1-y[0]*y[0])*y[1] - y[0],
	}
}
