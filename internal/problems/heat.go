package problems

import (
	"github.com/san-kum/odekit/internal/grid"
	"github.com/san-kum/odekit/internal/ode"
)

// Heat is the 1-D diffusion equation u_t = D*u_xx semidiscretized by
// finite volumes over a line grid. The state vector is the per-cell
// field; the derivative is the flux divergence.
type Heat struct {
	Grid        *grid.Grid
	Diff        float64
	Left, Right grid.Boundary
}

// NewHeat validates the boundary conditions up front so a bad
// configuration is rejected before integration starts.
func NewHeat(g *grid.Grid, diff float64, left, right grid.Boundary) (*Heat, error) {
	probe := make([]float64, g.Cells())
	if _, _, err := grid.Flux1D(g, probe, left, right, diff, 0, grid.Upwind); err != nil {
		return nil, err
	}
	return &Heat{Grid: g, Diff: diff, Left: left, Right: right}, nil
}

func (h *Heat) Dim() int { return h.Grid.Cells() }

func (h *Heat) Derive(t float64, y ode.State) ode.State {
	_, div, err := grid.Flux1D(h.Grid, y, h.Left, h.Right, h.Diff, 0, grid.Upwind)
	if err != nil {
		panic(err)
	}
	return div
}

// Advection is u_t + v*u_x = 0 over a line grid with a configurable
// flux limiter.
type Advection struct {
	Grid        *grid.Grid
	Vel         float64
	Lim         grid.Limiter
	Left, Right grid.Boundary
}

func NewAdvection(g *grid.Grid, vel float64, lim grid.Limiter, left, right grid.Boundary) (*Advection, error) {
	probe := make([]float64, g.Cells())
	if _, _, err := grid.Flux1D(g, probe, left, right, 0, vel, lim); err != nil {
		return nil, err
	}
	return &Advection{Grid: g, Vel: vel, Lim: lim, Left: left, Right: right}, nil
}

func (a *Advection) Dim() int { return a.Grid.Cells() }

func (a *Advection) Derive(t float64, y ode.State) ode.State {
	_, div, err := grid.Flux1D(a.Grid, y, a.Left, a.Right, 0, a.Vel, a.Lim)
	if err != nil {
		panic(err)
	}
	return div
}
