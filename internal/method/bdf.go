package method

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odekit/internal/newton"
	"github.com/san-kum/odekit/internal/ode"
)

// BDFStepper is the variable-order, variable-step backward
// differentiation family (orders 1..5). The derivative at the new
// point is expressed through Lagrange differentiation weights over
// the actual past step times, so no uniform-grid restart is needed
// when the controller changes the step size.
//
// It accepts either the explicit form M*y' = f(t,y) (mass matrix
// optional, possibly singular) or the residual form F(t,y,y') = 0.
type BDFStepper struct {
	explicit ode.System
	implicit ode.ImplicitSystem
	mass     [][]float64
	cfg      *ode.Config
	diag     *ode.Diagnostics
	nt       *newton.Solver

	n int

	// accepted history, most recent first
	ts []float64
	ys []ode.State

	order     int
	nextOrder int
	lastW0    float64
}

// NewBDF wraps sys, which must implement ode.System or
// ode.ImplicitSystem. A mass matrix is honored for the explicit form.
func NewBDF(sys any, cfg *ode.Config, diag *ode.Diagnostics) (*BDFStepper, error) {
	if diag == nil {
		diag = &ode.Diagnostics{}
	}
	b := &BDFStepper{cfg: cfg, diag: diag, order: 1, nextOrder: 1}
	switch s := sys.(type) {
	case ode.System:
		b.explicit = s
		b.n = s.Dim()
		if mm, ok := sys.(ode.MassMatrixer); ok {
			b.mass = mm.MassMatrix()
		}
	case ode.ImplicitSystem:
		b.implicit = s
		b.n = s.Dim()
	default:
		return nil, fmt.Errorf("%w: BDF requires an explicit or residual-form system", ode.ErrInvalidConfig)
	}
	b.nt = newton.New(b.n, diag)
	b.nt.MaxIter = cfg.MaxNewtonIter
	return b, nil
}

func (b *BDFStepper) Name() string { return "bdf" }
func (b *BDFStepper) Order() int   { return b.order }

func (b *BDFStepper) Reset() {
	b.ts = b.ts[:0]
	b.ys = b.ys[:0]
	b.order = 1
	b.nextOrder = 1
	b.nt.Invalidate()
}

func (b *BDFStepper) Accept(t float64, y ode.State) {
	b.ts = append([]float64{t}, b.ts...)
	b.ys = append([]ode.State{y.Clone()}, b.ys...)
	keep := b.cfg.MaxOrder + 2
	if len(b.ts) > keep {
		b.ts = b.ts[:keep]
		b.ys = b.ys[:keep]
	}
	b.order = b.nextOrder
}

func (b *BDFStepper) derive(t float64, y ode.State) ode.State {
	b.diag.Evals++
	return b.explicit.Derive(t, y)
}

func (b *BDFStepper) residual(t float64, y, yp ode.State) ode.State {
	b.diag.Evals++
	return b.implicit.Residual(t, y, yp)
}

func (b *BDFStepper) applyMass(v ode.State, out ode.State) {
	if b.mass == nil {
		copy(out, v)
		return
	}
	for i := range out {
		sum := 0.0
		for j, m := range b.mass[i] {
			sum += m * v[j]
		}
		out[i] = sum
	}
}

func (b *BDFStepper) Step(t float64, y ode.State, h float64) (*Result, error) {
	if len(b.ts) == 0 || b.ts[0] != t {
		// driver seeds via Accept; tolerate a direct first call
		b.Accept(t, y)
	}

	k := b.order
	if k > len(b.ts) {
		k = len(b.ts)
	}
	tNew := t + h

	// differentiation weights over {tNew, past...}:
	// y'(tNew) ~ w[0]*yNew + sum_j w[j+1]*y_past[j]
	nodes := make([]float64, k+1)
	nodes[0] = tNew
	copy(nodes[1:], b.ts[:k])
	w := derivWeights(nodes, tNew)

	c := make(ode.State, b.n)
	for j := 0; j < k; j++ {
		for i := 0; i < b.n; i++ {
			c[i] += w[j+1] * b.ys[j][i]
		}
	}

	// the iteration matrix scales with w[0] ~ 1/h; a material step
	// change invalidates the cached factorization
	if b.lastW0 != 0 && math.Abs(w[0]-b.lastW0) > 0.1*math.Abs(b.lastW0) {
		b.nt.Invalidate()
	}
	b.lastW0 = w[0]

	np := k + 1
	if np > len(b.ts) {
		np = len(b.ts)
	}
	pred := extrapolate(b.ts[:np], b.ys[:np], tNew)

	yp := make(ode.State, b.n)
	var g newton.Func
	var jac newton.JacFunc
	if b.implicit != nil {
		g = func(x ode.State) ode.State {
			for i := range yp {
				yp[i] = w[0]*x[i] + c[i]
			}
			return b.residual(tNew, x, yp)
		}
		// Jacobian by finite differences of the residual itself
		jac = nil
	} else {
		g = func(x ode.State) ode.State {
			f := b.derive(tNew, x)
			res := make(ode.State, b.n)
			for i := range yp {
				yp[i] = w[0]*x[i] + c[i]
			}
			b.applyMass(yp, res)
			for i := range res {
				res[i] -= f[i]
			}
			return res
		}
		jac = func(x ode.State) (*mat.Dense, error) {
			fx := b.derive(tNew, x)
			df := func(z ode.State) ode.State { return b.derive(tNew, z) }
			j := newton.FiniteDifference(df, x, fx)
			// W = w0*M - J
			wm := mat.NewDense(b.n, b.n, nil)
			for r := 0; r < b.n; r++ {
				for cc := 0; cc < b.n; cc++ {
					m := 0.0
					if b.mass == nil {
						if r == cc {
							m = 1
						}
					} else {
						m = b.mass[r][cc]
					}
					wm.Set(r, cc, w[0]*m-j.At(r, cc))
				}
			}
			return wm, nil
		}
	}

	weights := b.cfg.Weights(y, nil)
	x, err := b.nt.Solve(g, jac, pred, weights)
	if err != nil {
		return nil, err
	}

	// local error from predictor-corrector differences at candidate
	// orders; next order minimizes the scaled norm, ties toward the
	// lower (cheaper, more stable) order
	best := k
	bestNorm := math.Inf(1)
	var errEst ode.State
	for _, m := range []int{k + 1, k, k - 1} {
		if m < 1 || m > b.cfg.MaxOrder || m+1 > len(b.ts) {
			if m != k {
				continue
			}
		}
		np := m + 1
		if np > len(b.ts) {
			np = len(b.ts)
		}
		pm := extrapolate(b.ts[:np], b.ys[:np], tNew)
		est := make(ode.State, b.n)
		for i := range est {
			est[i] = (x[i] - pm[i]) / float64(m+1)
		}
		norm := b.cfg.ErrorNorm(x, est)
		if m == k {
			errEst = est
		}
		if norm < bestNorm || (norm == bestNorm && m < best) {
			best, bestNorm = m, norm
		}
	}
	b.nextOrder = best

	// collocation derivative at the old endpoint for dense output
	wt := derivWeights(nodes, t)
	f0 := make(ode.State, b.n)
	for i := range f0 {
		f0[i] = wt[0] * x[i]
	}
	for j := 0; j < k; j++ {
		for i := range f0 {
			f0[i] += wt[j+1] * b.ys[j][i]
		}
	}
	f1 := make(ode.State, b.n)
	for i := range f1 {
		f1[i] = w[0]*x[i] + c[i]
	}

	return &Result{Y: x, Err: errEst, F0: f0, F1: f1}, nil
}
