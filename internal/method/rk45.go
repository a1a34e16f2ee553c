package method

import "github.com/san-kum/odekit/internal/ode"

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DormandPrince is the explicit embedded 5(4) pair. The last stage is
// the derivative at the new point (FSAL), reused as the first stage
// of the next step when the step is accepted.
type DormandPrince struct {
	sys  ode.System
	diag *ode.Diagnostics

	fsal  ode.State
	fsalT float64

	candF1 ode.State
	candT  float64
}

func NewDormandPrince(sys ode.System, diag *ode.Diagnostics) *DormandPrince {
	if diag == nil {
		diag = &ode.Diagnostics{}
	}
	return &DormandPrince{sys: sys, diag: diag}
}

func (r *DormandPrince) Name() string { return "dopri5" }
func (r *DormandPrince) Order() int   { return 5 }

func (r *DormandPrince) Reset() {
	r.fsal = nil
	r.candF1 = nil
}

func (r *DormandPrince) Accept(t float64, y ode.State) {
	if r.candF1 != nil && t == r.candT {
		r.fsal = r.candF1
		r.fsalT = t
	} else {
		r.fsal = nil
	}
}

func (r *DormandPrince) eval(t float64, y ode.State) ode.State {
	r.diag.Evals++
	return r.sys.Derive(t, y)
}

func (r *DormandPrince) Step(t float64, y ode.State, h float64) (*Result, error) {
	n := len(y)

	var k1 ode.State
	if r.fsal != nil && r.fsalT == t {
		k1 = r.fsal
	} else {
		k1 = r.eval(t, y)
	}

	x2 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x2[i] = y[i] + h*b21*k1[i]
	}
	k2 := r.eval(t+a2*h, x2)

	x3 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x3[i] = y[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3 := r.eval(t+a3*h, x3)

	x4 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x4[i] = y[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4 := r.eval(t+a4*h, x4)

	x5 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x5[i] = y[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5 := r.eval(t+a5*h, x5)

	x6 := make(ode.State, n)
	for i := 0; i < n; i++ {
		x6[i] = y[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6 := r.eval(t+h, x6)

	yNew := make(ode.State, n)
	for i := 0; i < n; i++ {
		yNew[i] = y[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7 := r.eval(t+h, yNew)

	errEst := make(ode.State, n)
	for i := 0; i < n; i++ {
		errEst[i] = h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
	}

	r.candF1 = k7
	r.candT = t + h

	return &Result{Y: yNew, Err: errEst, F0: k1, F1: k7}, nil
}
