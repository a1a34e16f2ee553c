package problems

import "github.com/san-kum/odekit/internal/ode"

// DelayedLogistic is Hutchinson's equation
//
//	y'(t) = r * y(t) * (1 - y(t-tau)/K)
//
// with constant initial history Y0 for t <= t0.
type DelayedLogistic struct {
	R, K, Tau float64
	Y0        float64
}

func (d *DelayedLogistic) Dim() int { return 1 }

func (d *DelayedLogistic) Delays() []float64 { return []float64{d.Tau} }

func (d *DelayedLogistic) InitialHistory(t float64) ode.State {
	return ode.State{d.Y0}
}

func (d *DelayedLogistic) DeriveDelayed(t float64, y ode.State, past ode.Lookup) ode.State {
	lag, err := past.Value(t - d.Tau)
	if err != nil {
		// the driver guarantees t-tau is covered by history or the
		// initial history; reaching this is a programming error
		panic(err)
	}
	return ode.State{d.R * y[0] * (1 - lag[0]/d.K)}
}
