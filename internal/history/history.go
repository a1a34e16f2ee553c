// Package history stores per-step dense-output interpolants so that
// delay systems and report-time sampling can evaluate the solution at
// arbitrary times inside already-accepted steps.
package history

import (
	"fmt"
	"sort"

	"github.com/san-kum/odekit/internal/ode"
)

// Segment is the cubic Hermite interpolant over one accepted step
// [T0, T1], built from the endpoint states and derivatives. It is
// exact at both endpoints, which keeps the recorded trajectory
// continuous across step boundaries.
type Segment struct {
	T0, T1 float64
	Y0, Y1 ode.State
	F0, F1 ode.State
}

// Value evaluates the interpolant at t in [T0, T1].
func (s *Segment) Value(t float64) ode.State {
	h := s.T1 - s.T0
	u := (t - s.T0) / h
	// Hermite basis
	h00 := (1 + 2*u) * (1 - u) * (1 - u)
	h10 := u * (1 - u) * (1 - u)
	h01 := u * u * (3 - 2*u)
	h11 := u * u * (u - 1)
	y := make(ode.State, len(s.Y0))
	for i := range y {
		y[i] = h00*s.Y0[i] + h*h10*s.F0[i] + h01*s.Y1[i] + h*h11*s.F1[i]
	}
	return y
}

// Derivative evaluates the interpolant's time derivative at t.
func (s *Segment) Derivative(t float64) ode.State {
	h := s.T1 - s.T0
	u := (t - s.T0) / h
	d00 := 6 * u * (u - 1) / h
	d10 := (1 - u) * (1 - 3*u)
	d01 := -d00
	d11 := u * (3*u - 2)
	dy := make(ode.State, len(s.Y0))
	for i := range dy {
		dy[i] = d00*s.Y0[i] + d10*s.F0[i] + d01*s.Y1[i] + d11*s.F1[i]
	}
	return dy
}

// Buffer is the append-only log of accepted-step segments. Segments
// are contiguous and non-overlapping; only accepted steps are ever
// recorded.
type Buffer struct {
	segs []Segment
}

func New() *Buffer {
	return &Buffer{}
}

// Record appends a segment. It panics if the segment does not start
// where the previous one ended; the driver appends only accepted
// steps in order, so a gap is a programming error.
func (b *Buffer) Record(seg Segment) {
	if n := len(b.segs); n > 0 && seg.T0 != b.segs[n-1].T1 {
		panic(fmt.Sprintf("history: segment gap at t=%g (previous end %g)", seg.T0, b.segs[n-1].T1))
	}
	if seg.T1 <= seg.T0 {
		panic(fmt.Sprintf("history: empty segment [%g, %g]", seg.T0, seg.T1))
	}
	b.segs = append(b.segs, seg)
}

// Len reports the number of recorded segments.
func (b *Buffer) Len() int { return len(b.segs) }

// Span reports the covered time range; ok is false when empty.
func (b *Buffer) Span() (t0, t1 float64, ok bool) {
	if len(b.segs) == 0 {
		return 0, 0, false
	}
	return b.segs[0].T0, b.segs[len(b.segs)-1].T1, true
}

func (b *Buffer) locate(t float64) (*Segment, error) {
	if len(b.segs) == 0 {
		return nil, fmt.Errorf("%w: buffer empty at t=%g", ode.ErrHistoryUnavailable, t)
	}
	if t < b.segs[0].T0 {
		return nil, fmt.Errorf("%w: t=%g precedes run start %g", ode.ErrHistoryUnavailable, t, b.segs[0].T0)
	}
	if t < b.segs[0].T0 {
		return nil, fmt.Errorf("%w: t=%g precedes recorded start %g", ode.ErrHistoryUnavailable, t, b.segs[0].T0)
	}
	last := len(b.segs) - 1
	if t > b.segs[last].T1 {
		return nil, fmt.Errorf("%w: t=%g beyond recorded end %g", ode.ErrHistoryUnavailable, t, b.segs[last].T1)
	}
	i := sort.Search(len(b.segs), func(i int) bool { return b.segs[i].T1 >= t })
	return &b.segs[i], nil
}

// Value evaluates the recorded solution at t.
func (b *Buffer) Value(t float64) (ode.State, error) {
	seg, err := b.locate(t)
	if err != nil {
		return nil, err
	}
	return seg.Value(t), nil
}

// Derivative evaluates the recorded solution derivative at t.
func (b *Buffer) Derivative(t float64) (ode.State, error) {
	seg, err := b.locate(t)
	if err != nil {
		return nil, err
	}
	return seg.Derivative(t), nil
}
