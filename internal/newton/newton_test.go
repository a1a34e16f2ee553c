package newton

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/odekit/internal/ode"
)

var unitWeights = []float64{1e-10, 1e-10}

func TestSolve_QuadraticSystem(t *testing.T) {
	// x^2 + y^2 = 2, x - y = 0: root (1, 1) from a nearby guess
	g := func(x ode.State) ode.State {
		return ode.State{
			x[0]*x[0] + x[1]*x[1] - 2,
			x[0] - x[1],
		}
	}

	s := New(2, nil)
	s.MaxIter = 50
	x, err := s.Solve(g, nil, ode.State{1.3, 0.8}, unitWeights)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if math.Abs(x[0]-1) > 1e-8 || math.Abs(x[1]-1) > 1e-8 {
		t.Errorf("root = %v, want (1, 1)", x)
	}
}

func TestSolve_ResidualBelowToleranceOrFails(t *testing.T) {
	g := func(x ode.State) ode.State {
		return ode.State{math.Exp(x[0]) - 2, x[1] - 1}
	}
	s := New(2, nil)
	s.MaxIter = 60
	x, err := s.Solve(g, nil, ode.State{0, 0}, unitWeights)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	res := g(x)
	if math.Abs(res[0]) > 1e-8 || math.Abs(res[1]) > 1e-8 {
		t.Errorf("converged with residual %v above tolerance", res)
	}
}

func TestSolve_ConvergenceFailure(t *testing.T) {
	// no real root: x^2 + 1 = 0
	g := func(x ode.State) ode.State {
		return ode.State{x[0]*x[0] + 1, x[1]}
	}
	s := New(2, nil)
	s.MaxIter = 6
	if _, err := s.Solve(g, nil, ode.State{1, 0}, unitWeights); !errors.Is(err, ode.ErrConvergence) {
		t.Errorf("want ErrConvergence, got %v", err)
	}
}

func TestSolve_SingularJacobian(t *testing.T) {
	// inconsistent equations with a rank-1 Jacobian
	g := func(x ode.State) ode.State {
		return ode.State{x[0] + x[1], x[0] + x[1] - 1}
	}
	s := New(2, nil)
	_, err := s.Solve(g, nil, ode.State{0, 0}, unitWeights)
	if !errors.Is(err, ode.ErrSingularJacobian) && !errors.Is(err, ode.ErrConvergence) {
		t.Errorf("singular system: want ErrSingularJacobian or ErrConvergence, got %v", err)
	}
}

func TestSolve_CountsIntoDiagnostics(t *testing.T) {
	diag := &ode.Diagnostics{}
	g := func(x ode.State) ode.State { return ode.State{x[0] - 3, x[1] + 1} }
	s := New(2, diag)
	if _, err := s.Solve(g, nil, ode.State{0, 0}, unitWeights); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if diag.NewtonIters == 0 || diag.JacEvals == 0 {
		t.Errorf("diagnostics not updated: %+v", diag)
	}
}

func TestFiniteDifference_LinearExact(t *testing.T) {
	g := func(x ode.State) ode.State {
		return ode.State{2*x[0] + 3*x[1], -x[0] + 4*x[1]}
	}
	x := ode.State{1, 2}
	j := FiniteDifference(g, x, g(x))
	want := [2][2]float64{{2, 3}, {-1, 4}}
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if math.Abs(j.At(r, c)-want[r][c]) > 1e-5 {
				t.Errorf("J[%d][%d] = %g, want %g", r, c, j.At(r, c), want[r][c])
			}
		}
	}
}
