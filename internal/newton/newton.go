// Package newton implements the modified-Newton iteration used by the
// implicit step methods. The iteration matrix is factorized once and
// reused across iterations (and across steps until invalidated),
// which is what makes implicit steps affordable.
package newton

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/odekit/internal/ode"
)

// Func evaluates the stage residual G(x).
type Func func(x ode.State) ode.State

// JacFunc builds the iteration matrix dG/dx at x. When nil, Solve
// falls back to a finite-difference approximation of G.
type JacFunc func(x ode.State) (*mat.Dense, error)

// Solver holds the cached factorization and iteration limits. One
// Solver belongs to one stepper; it is not safe for concurrent use.
type Solver struct {
	MaxIter int
	// Tol is the convergence threshold on the weighted norm of the
	// Newton update; the caller supplies the weights per solve.
	Tol float64

	n       int
	lu      mat.LU
	haveFac bool
	diag    *ode.Diagnostics
}

// New builds a solver for systems of dimension n. diag may be nil;
// when set, iteration and Jacobian counts are accumulated into it.
func New(n int, diag *ode.Diagnostics) *Solver {
	if diag == nil {
		diag = &ode.Diagnostics{}
	}
	return &Solver{
		MaxIter: 8,
		Tol:     0.03,
		n:       n,
		diag:    diag,
	}
}

// Invalidate drops the cached factorization, forcing a fresh Jacobian
// on the next solve. Steppers call this after step-size changes or an
// event reset.
func (s *Solver) Invalidate() {
	s.haveFac = false
}

func (s *Solver) factorize(g Func, jac JacFunc, x ode.State) error {
	var j *mat.Dense
	var err error
	if jac != nil {
		j, err = jac(x)
		if err != nil {
			return err
		}
	} else {
		j = FiniteDifference(g, x, g(x))
	}
	s.diag.JacEvals++
	s.lu.Factorize(j)
	s.haveFac = true
	return nil
}

// Solve iterates x_{k+1} = x_k - J^{-1} G(x_k) from guess until the
// weighted norm of the update falls below Tol. weights are the error
// weights atol+rtol*|y| of the enclosing step. A stale cached
// Jacobian gets one refresh before the solve counts as failed.
func (s *Solver) Solve(g Func, jac JacFunc, guess ode.State, weights []float64) (ode.State, error) {
	x := guess.Clone()
	n := len(x)
	rhs := mat.NewVecDense(n, nil)
	dx := mat.NewVecDense(n, nil)

	refreshed := false
	if !s.haveFac {
		if err := s.factorize(g, jac, x); err != nil {
			return nil, err
		}
		refreshed = true
	}

	for iter := 0; iter < s.MaxIter; iter++ {
		res := g(x)
		for i := 0; i < n; i++ {
			rhs.SetVec(i, res[i])
		}
		if err := s.lu.SolveVecTo(dx, false, rhs); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				s.haveFac = false
				return nil, fmt.Errorf("%w: %v", ode.ErrSingularJacobian, err)
			}
		}
		s.diag.NewtonIters++

		norm := 0.0
		for i := 0; i < n; i++ {
			d := dx.AtVec(i)
			x[i] -= d
			q := d / weights[i%len(weights)]
			norm += q * q
		}
		norm = math.Sqrt(norm / float64(n))

		if norm <= s.Tol {
			return x, nil
		}
		if !x.IsValid() {
			break
		}
		// slow contraction with a stale matrix: re-linearize at the
		// current iterate, once
		if iter == s.MaxIter/2 && !refreshed {
			if err := s.factorize(g, jac, x); err != nil {
				return nil, err
			}
			refreshed = true
		}
	}
	s.haveFac = false
	return nil, ode.ErrConvergence
}

// FiniteDifference approximates dG/dx by forward differences with
// per-component increments scaled to sqrt(eps).
func FiniteDifference(g Func, x ode.State, gx ode.State) *mat.Dense {
	n := len(x)
	j := mat.NewDense(n, n, nil)
	eps := math.Sqrt(math.Nextafter(1, 2) - 1)
	pert := x.Clone()
	for c := 0; c < n; c++ {
		d := eps * math.Max(math.Abs(x[c]), 1e-5)
		pert[c] = x[c] + d
		gp := g(pert)
		pert[c] = x[c]
		for r := 0; r < n; r++ {
			j.Set(r, c, (gp[r]-gx[r])/d)
		}
	}
	return j
}
