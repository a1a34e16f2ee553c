// Package stepctl implements the PI step-size controller that turns
// local error estimates into accept/reject decisions and the next
// step size.
package stepctl

import "math"

const (
	defaultSafety = 0.9
	defaultFacMin = 0.2
	defaultFacMax = 5.0
	defaultBeta   = 0.04
)

// Controller proposes step sizes from scaled error norms. The
// exponent -1/(p+1) gives asymptotically correct error control for a
// method of order p; the safety factor below 1 damps accept/reject
// oscillation, and the small PI gain on the previous error smooths
// the step-size sequence.
type Controller struct {
	Safety float64
	FacMin float64
	FacMax float64
	Beta   float64
	HMin   float64
	HMax   float64

	prevErr  float64
	rejected bool
}

func New(hMin, hMax float64) *Controller {
	return &Controller{
		Safety: defaultSafety,
		FacMin: defaultFacMin,
		FacMax: defaultFacMax,
		Beta:   defaultBeta,
		HMin:   hMin,
		HMax:   hMax,
		prevErr: 1.0,
	}
}

// Decide consumes the scaled error norm E of a candidate step of size
// h taken with a method of order p. It returns whether the step is
// accepted and the size to use next (the retry size on rejection,
// strictly smaller than h).
func (c *Controller) Decide(e, h float64, p int) (accept bool, hNext float64) {
	accept = e <= 1.0

	exp := 1.0 / float64(p+1)
	var fac float64
	if math.IsNaN(e) || math.IsInf(e, 1) {
		// a non-finite estimate means the step left the resolvable
		// region; back off as hard as allowed
		accept = false
		fac = c.FacMin
	} else if e == 0 {
		fac = c.FacMax
	} else {
		fac = c.Safety * math.Pow(e, -exp) * math.Pow(c.prevErr, c.Beta)
	}
	facMax := c.FacMax
	if c.rejected {
		// no growth right after a rejection
		facMax = 1.0
	}
	fac = math.Max(c.FacMin, math.Min(fac, facMax))

	hNext = h * fac
	if !accept && hNext >= h {
		hNext = 0.5 * h
	}
	hNext = math.Max(c.HMin, math.Min(hNext, c.HMax))

	if accept {
		c.rejected = false
		c.prevErr = math.Max(e, 1e-4)
	} else {
		c.rejected = true
	}
	return accept, hNext
}

// Shrink halves the step after a convergence failure inside an
// implicit solve, clamped to the bounds.
func (c *Controller) Shrink(h float64) float64 {
	c.rejected = true
	return math.Max(c.HMin, 0.5*h)
}

// Underflow reports whether h has collapsed below the resolvable step
// at time t: either the configured minimum or machine epsilon
// relative to t.
func (c *Controller) Underflow(h, t float64) bool {
	eps := math.Nextafter(1, 2) - 1
	return h <= c.HMin || h <= 16*eps*math.Abs(t)
}
