package problems

import "github.com/san-kum/odekit/internal/ode"

// DAEOscillator is the harmonic oscillator cast in index-1 form with
// the acceleration as an algebraic variable:
//
//	x' = v
//	v' = a
//	0  = a + omega^2 * x
//
// The mass matrix diag(1, 1, 0) is singular; the last equation is
// algebraic (index 0 in the classification vector).
type DAEOscillator struct {
	Omega float64
}

func (o *DAEOscillator) Dim() int { return 3 }

func (o *DAEOscillator) Derive(t float64, y ode.State) ode.State {
	return ode.State{
		y[1],
		y[2],
		-(y[2] + o.Omega*o.Omega*y[0]),
	}
}

func (o *DAEOscillator) MassMatrix() [][]float64 {
	return [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	}
}

func (o *DAEOscillator) Index() []int { return []int{1, 1, 0} }

// ResidualOscillator is the same system in residual form
// F(t, y, y') = 0, exercising the BDF path for fully implicit DAEs.
type ResidualOscillator struct {
	Omega float64
}

func (o *ResidualOscillator) Dim() int { return 3 }

func (o *ResidualOscillator) Residual(t float64, y, yp ode.State) ode.State {
	return ode.State{
		yp[0] - y[1],
		yp[1] - y[2],
		y[2] + o.Omega*o.Omega*y[0],
	}
}
