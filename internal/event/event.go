// Package event detects sign changes of root functions inside an
// accepted step and bisects the step's dense interpolant to locate
// the crossing time.
package event

import (
	"math"

	"github.com/san-kum/odekit/internal/ode"
)

// Phase is the detection state over one accepted step.
type Phase int

const (
	NoSignChange Phase = iota
	CandidateBracket
	EventLocated
)

// Finder locates the earliest zero crossing within a step. Later
// crossings in the same step are left for re-evaluation after the
// driver resumes from the reset state.
type Finder struct {
	Tol     float64
	MaxIter int
}

func New(tol float64) *Finder {
	return &Finder{Tol: tol, MaxIter: 128}
}

// Locate evaluates g at the bracket ends and bisects every component
// whose sign changes until the bracket width is below Tol. g
// evaluates the root functions on the step's dense interpolant.
func (f *Finder) Locate(g func(t float64) []float64, t0, t1 float64) (Phase, ode.Event) {
	g0 := g(t0)
	g1 := g(t1)
	if len(g0) == 0 {
		return NoSignChange, ode.Event{}
	}

	phase := NoSignChange
	best := ode.Event{T: math.Inf(1)}
	for i := range g0 {
		if !crosses(g0[i], g1[i]) {
			continue
		}
		phase = CandidateBracket
		tc := f.bisect(func(t float64) float64 { return g(t)[i] }, t0, t1, g0[i])
		if tc < best.T {
			best = ode.Event{T: tc, Index: i, Value: g(tc)[i]}
		}
	}
	if phase == NoSignChange {
		return phase, ode.Event{}
	}
	return EventLocated, best
}

// crosses reports a sign change over the bracket. An exact zero at
// the right end counts; one at the left end does not, so an event
// just handled at a step boundary is not re-triggered.
func crosses(a, b float64) bool {
	if a == 0 {
		return false
	}
	if b == 0 {
		return true
	}
	return math.Signbit(a) != math.Signbit(b)
}

func (f *Finder) bisect(g func(t float64) float64, lo, hi, glo float64) float64 {
	for iter := 0; iter < f.MaxIter && hi-lo > f.Tol; iter++ {
		mid := 0.5 * (lo + hi)
		gm := g(mid)
		if gm == 0 {
			return mid
		}
		if math.Signbit(gm) == math.Signbit(glo) {
			lo, glo = mid, gm
		} else {
			hi = mid
		}
	}
	return hi
}
