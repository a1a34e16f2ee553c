package event

import (
	"math"
	"testing"
)

func TestLocate_NoSignChange(t *testing.T) {
	f := New(1e-10)
	g := func(tq float64) []float64 { return []float64{1 + tq} }
	phase, _ := f.Locate(g, 0, 1)
	if phase != NoSignChange {
		t.Errorf("phase = %v, want NoSignChange", phase)
	}
}

func TestLocate_NoRootFunctions(t *testing.T) {
	f := New(1e-10)
	g := func(tq float64) []float64 { return nil }
	phase, _ := f.Locate(g, 0, 1)
	if phase != NoSignChange {
		t.Errorf("phase = %v, want NoSignChange for empty root vector", phase)
	}
}

func TestLocate_SingleCrossingWithinTol(t *testing.T) {
	f := New(1e-12)
	// root at t = e
	g := func(tq float64) []float64 { return []float64{math.Log(tq) - 1} }
	phase, ev := f.Locate(g, 2, 3)
	if phase != EventLocated {
		t.Fatalf("phase = %v, want EventLocated", phase)
	}
	if math.Abs(ev.T-math.E) > 1e-11 {
		t.Errorf("crossing at %.15g, want %.15g", ev.T, math.E)
	}
	if ev.Index != 0 {
		t.Errorf("index = %d", ev.Index)
	}
}

func TestLocate_EarliestOfSeveral(t *testing.T) {
	f := New(1e-12)
	// component 0 crosses at 0.7, component 1 at 0.3
	g := func(tq float64) []float64 {
		return []float64{tq - 0.7, tq - 0.3}
	}
	phase, ev := f.Locate(g, 0, 1)
	if phase != EventLocated {
		t.Fatalf("phase = %v", phase)
	}
	if ev.Index != 1 || math.Abs(ev.T-0.3) > 1e-11 {
		t.Errorf("located (%d, %g), want earliest crossing (1, 0.3)", ev.Index, ev.T)
	}
}

func TestLocate_ZeroAtLeftEndIgnored(t *testing.T) {
	f := New(1e-10)
	// exactly zero at t0, positive after: the event just handled at a
	// step boundary must not re-trigger
	g := func(tq float64) []float64 { return []float64{tq} }
	phase, _ := f.Locate(g, 0, 1)
	if phase != NoSignChange {
		t.Errorf("phase = %v, zero at left end must not trigger", phase)
	}
}
