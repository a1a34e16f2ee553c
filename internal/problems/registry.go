package problems

import (
	"fmt"

	"github.com/san-kum/odekit/internal/grid"
	"github.com/san-kum/odekit/internal/ode"
)

// Names lists the problems the CLI can run.
var Names = []string{
	"logistic", "decay", "vanderpol", "oscillator", "bounce",
	"delayed_logistic", "heat", "advection",
}

// New builds a named demo system with its default initial state. The
// returned system is handed straight to driver.New.
func New(name string) (sys any, y0 ode.State, err error) {
	switch name {
	case "logistic":
		return &Logistic{R: 1.5, K: 10}, ode.State{0.1}, nil
	case "decay":
		return &Decay{Lambda: 1}, ode.State{1}, nil
	case "vanderpol":
		return &VanDerPol{Mu: 50}, ode.State{2, 0}, nil
	case "oscillator":
		// consistent initial values: a(0) = -omega^2 * x(0)
		return &DAEOscillator{Omega: 2}, ode.State{1, 0, -4}, nil
	case "bounce":
		return &Bounce{Gravity: 9.81, Restitution: 0.9}, ode.State{10, 0}, nil
	case "delayed_logistic":
		return &DelayedLogistic{R: 1.8, K: 1, Tau: 1, Y0: 0.1}, ode.State{0.1}, nil
	case "heat":
		g, err := grid.NewLine(0, 1, 50)
		if err != nil {
			return nil, nil, err
		}
		h, err := NewHeat(g, 0.01, grid.ValueBC(1), grid.ValueBC(0))
		if err != nil {
			return nil, nil, err
		}
		y0 := make(ode.State, g.Cells())
		return h, y0, nil
	case "advection":
		g, err := grid.NewLine(0, 1, 100)
		if err != nil {
			return nil, nil, err
		}
		a, err := NewAdvection(g, 1, grid.MUSCL, grid.ValueBC(0), grid.FluxBC(0))
		if err != nil {
			return nil, nil, err
		}
		y0 := make(ode.State, g.Cells())
		for i := range y0 {
			if i >= 10 && i < 30 {
				y0[i] = 1
			}
		}
		return a, y0, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown problem %q", ode.ErrInvalidConfig, name)
}
