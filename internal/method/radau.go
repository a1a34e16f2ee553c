package method

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odekit/internal/newton"
	"github.com/san-kum/odekit/internal/ode"
)

// Radau IIA, 3 stages, order 5 (stiffly accurate: the last stage is
// the new solution). Stage increments Z_i = y(t+c_i*h) - y(t) solve
//
//	M*Z_i - h * sum_j A_ij * f(t+c_j*h, y+Z_j) = 0
//
// via modified Newton on the stacked 3n system with iteration matrix
// I(x)M - h*A(x)J assembled from a single Jacobian of f.
var (
	radauSq6 = math.Sqrt(6.0)

	radauC = [3]float64{(4 - radauSq6) / 10, (4 + radauSq6) / 10, 1}

	radauA = [3][3]float64{
		{(88 - 7*radauSq6) / 360, (296 - 169*radauSq6) / 1800, (-2 + 3*radauSq6) / 225},
		{(296 + 169*radauSq6) / 1800, (88 + 7*radauSq6) / 360, (-2 - 3*radauSq6) / 225},
		{(16 - radauSq6) / 36, (16 + radauSq6) / 36, 1.0 / 9},
	}

	// embedded order-3 error estimate coefficients and the real
	// eigenvalue of inv(A)
	radauD     = [3]float64{-(13 + 7*radauSq6) / 3, (-13 + 7*radauSq6) / 3, -1.0 / 3}
	radauGamma = 3.637834252744496
)

type RadauStepper struct {
	sys  ode.System
	mass [][]float64
	cfg  *ode.Config
	diag *ode.Diagnostics
	nt   *newton.Solver
	n    int

	lastH float64
}

func NewRadau(sys ode.System, cfg *ode.Config, diag *ode.Diagnostics) *RadauStepper {
	if diag == nil {
		diag = &ode.Diagnostics{}
	}
	r := &RadauStepper{sys: sys, cfg: cfg, diag: diag, n: sys.Dim()}
	if mm, ok := sys.(ode.MassMatrixer); ok {
		r.mass = mm.MassMatrix()
	}
	r.nt = newton.New(3*r.n, diag)
	r.nt.MaxIter = cfg.MaxNewtonIter
	return r
}

func (r *RadauStepper) Name() string { return "radau5" }
func (r *RadauStepper) Order() int   { return 5 }

func (r *RadauStepper) Reset() {
	r.nt.Invalidate()
	r.lastH = 0
}

func (r *RadauStepper) Accept(t float64, y ode.State) {}

func (r *RadauStepper) eval(t float64, y ode.State) ode.State {
	r.diag.Evals++
	return r.sys.Derive(t, y)
}

func (r *RadauStepper) massAt(i, j int) float64 {
	if r.mass == nil {
		if i == j {
			return 1
		}
		return 0
	}
	return r.mass[i][j]
}

func (r *RadauStepper) Step(t float64, y ode.State, h float64) (*Result, error) {
	n := r.n

	if r.lastH != 0 && math.Abs(h-r.lastH) > 0.1*math.Abs(r.lastH) {
		r.nt.Invalidate()
	}
	r.lastH = h

	f0 := r.eval(t, y)

	stage := make(ode.State, n)
	g := func(z ode.State) ode.State {
		res := make(ode.State, 3*n)
		var fs [3]ode.State
		for i := 0; i < 3; i++ {
			for c := 0; c < n; c++ {
				stage[c] = y[c] + z[i*n+c]
			}
			fs[i] = r.eval(t+radauC[i]*h, stage)
		}
		for i := 0; i < 3; i++ {
			for c := 0; c < n; c++ {
				mz := 0.0
				for cc := 0; cc < n; cc++ {
					mz += r.massAt(c, cc) * z[i*n+cc]
				}
				s := mz
				for j := 0; j < 3; j++ {
					s -= h * radauA[i][j] * fs[j][c]
				}
				res[i*n+c] = s
			}
		}
		return res
	}

	var jcache *mat.Dense
	jac := func(z ode.State) (*mat.Dense, error) {
		df := func(x ode.State) ode.State { return r.eval(t, x) }
		jcache = newton.FiniteDifference(df, y, f0)
		w := mat.NewDense(3*n, 3*n, nil)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				for rr := 0; rr < n; rr++ {
					for cc := 0; cc < n; cc++ {
						v := -h * radauA[i][j] * jcache.At(rr, cc)
						if i == j {
							v += r.massAt(rr, cc)
						}
						w.Set(i*n+rr, j*n+cc, v)
					}
				}
			}
		}
		return w, nil
	}

	weights := r.cfg.Weights(y, nil)
	z0 := make(ode.State, 3*n)
	z, err := r.nt.Solve(g, jac, z0, weights)
	if err != nil {
		return nil, err
	}

	yNew := make(ode.State, n)
	for c := 0; c < n; c++ {
		yNew[c] = y[c] + z[2*n+c]
	}

	errEst, err := r.errorEstimate(t, y, f0, z, h, jcache)
	if err != nil {
		return nil, err
	}

	// collocation derivatives at both endpoints for dense output
	nodes := []float64{0, radauC[0], radauC[1], 1}
	w0 := derivWeights(nodes, 0)
	w1 := derivWeights(nodes, 1)
	f0c := make(ode.State, n)
	f1c := make(ode.State, n)
	for c := 0; c < n; c++ {
		v0, v1 := 0.0, 0.0
		for i := 0; i < 3; i++ {
			v0 += w0[i+1] * z[i*n+c]
			v1 += w1[i+1] * z[i*n+c]
		}
		f0c[c] = v0 / h
		f1c[c] = v1 / h
	}

	return &Result{Y: yNew, Err: errEst, F0: f0c, F1: f1c}, nil
}

// errorEstimate solves ((gamma/h)M - J) est = f0 + (d1*Z1+d2*Z2+d3*Z3)/h,
// the standard embedded order-3 estimate with stiff damping.
func (r *RadauStepper) errorEstimate(t float64, y, f0, z ode.State, h float64, j *mat.Dense) (ode.State, error) {
	n := r.n
	if j == nil {
		df := func(x ode.State) ode.State { return r.eval(t, x) }
		j = newton.FiniteDifference(df, y, f0)
	}
	w := mat.NewDense(n, n, nil)
	for rr := 0; rr < n; rr++ {
		for cc := 0; cc < n; cc++ {
			w.Set(rr, cc, radauGamma/h*r.massAt(rr, cc)-j.At(rr, cc))
		}
	}
	rhs := mat.NewVecDense(n, nil)
	for c := 0; c < n; c++ {
		s := f0[c]
		for i := 0; i < 3; i++ {
			s += radauD[i] * z[i*n+c] / h
		}
		rhs.SetVec(c, s)
	}
	var lu mat.LU
	lu.Factorize(w)
	est := mat.NewVecDense(n, nil)
	if err := lu.SolveVecTo(est, false, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: error estimator: %v", ode.ErrSingularJacobian, err)
		}
	}
	out := make(ode.State, n)
	for c := 0; c < n; c++ {
		out[c] = est.AtVec(c)
	}
	return out, nil
}
