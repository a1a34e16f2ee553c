package driver

import (
	"fmt"

	"github.com/san-kum/odekit/internal/history"
	"github.com/san-kum/odekit/internal/ode"
)

// delayWrapper adapts a DelaySystem to the plain explicit form by
// routing past-time lookups through the run's history buffer, with
// the user-supplied initial history covering times before t0.
type delayWrapper struct {
	sys  ode.DelaySystem
	hist *history.Buffer
	t0   float64
}

func (w *delayWrapper) Dim() int { return w.sys.Dim() }

func (w *delayWrapper) Derive(t float64, y ode.State) ode.State {
	return w.sys.DeriveDelayed(t, y, (*delayLookup)(w))
}

type delayLookup delayWrapper

func (l *delayLookup) Value(t float64) (ode.State, error) {
	if t <= l.t0 {
		if y := l.sys.InitialHistory(t); y != nil {
			return y, nil
		}
		return nil, fmt.Errorf("%w: t=%g precedes run start and no initial history was supplied", ode.ErrHistoryUnavailable, t)
	}
	return l.hist.Value(t)
}

func (l *delayLookup) Derivative(t float64) (ode.State, error) {
	if t <= l.t0 {
		lo, err := l.Value(t - 1e-7)
		if err != nil {
			return nil, err
		}
		hi, err := l.Value(t)
		if err != nil {
			return nil, err
		}
		dy := make(ode.State, len(hi))
		for i := range dy {
			dy[i] = (hi[i] - lo[i]) / 1e-7
		}
		return dy, nil
	}
	return l.hist.Derivative(t)
}
