// Package driver orchestrates an integration run: it advances the
// solution through the selected step method, consults the step-size
// controller, records dense output into the history buffer, locates
// events, and emits trajectory samples.
package driver

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/odekit/internal/event"
	"github.com/san-kum/odekit/internal/history"
	"github.com/san-kum/odekit/internal/method"
	"github.com/san-kum/odekit/internal/ode"
	"github.com/san-kum/odekit/internal/stepctl"
)

// Driver owns the state vector for the duration of a run. It is
// single-threaded; independent runs get independent Drivers.
type Driver struct {
	cfg     ode.Config
	dim     int
	sys     ode.System
	events  ode.EventSystem
	stepper method.Stepper
	ctl     *stepctl.Controller
	finder  *event.Finder
	hist    *history.Buffer
	diag    ode.Diagnostics

	delays   []float64
	minDelay float64
	delayW   *delayWrapper
}

// New wires a driver for sys, which must implement ode.System,
// ode.ImplicitSystem, or ode.DelaySystem. Optional interfaces
// (ode.MassMatrixer, ode.EventSystem) are picked up when present.
func New(sys any, cfg ode.Config) (*Driver, error) {
	d := &Driver{cfg: cfg, hist: history.New()}

	var stepperSys any = sys
	switch s := sys.(type) {
	case ode.DelaySystem:
		if err := validateDelays(s.Delays()); err != nil {
			return nil, err
		}
		d.delays = s.Delays()
		d.minDelay = math.Inf(1)
		for _, tau := range d.delays {
			d.minDelay = math.Min(d.minDelay, tau)
		}
		d.dim = s.Dim()
		d.delayW = &delayWrapper{sys: s, hist: d.hist}
		d.sys = d.delayW
		stepperSys = d.delayW
	case ode.System:
		d.dim = s.Dim()
		d.sys = s
	case ode.ImplicitSystem:
		d.dim = s.Dim()
	default:
		return nil, fmt.Errorf("%w: unsupported system type %T", ode.ErrInvalidConfig, sys)
	}

	if err := d.cfg.Validate(d.dim); err != nil {
		return nil, err
	}
	if mm, ok := sys.(ode.MassMatrixer); ok {
		if err := validateMass(mm, d.dim); err != nil {
			return nil, err
		}
	}
	if ev, ok := sys.(ode.EventSystem); ok {
		d.events = ev
		d.finder = event.New(d.cfg.RootTol)
	}

	st, err := method.New(stepperSys, &d.cfg, &d.diag)
	if err != nil {
		return nil, err
	}
	d.stepper = st
	d.ctl = stepctl.New(d.cfg.HMin, d.cfg.HMax)
	return d, nil
}

// Diagnostics returns the counters accumulated so far. Valid after
// (or during, from the run goroutine only) Run.
func (d *Driver) Diagnostics() ode.Diagnostics { return d.diag }

// History exposes the recorded dense output of the run.
func (d *Driver) History() *history.Buffer { return d.hist }

func validateDelays(taus []float64) error {
	if len(taus) == 0 {
		return fmt.Errorf("%w: delay system declares no delays", ode.ErrInvalidConfig)
	}
	for _, tau := range taus {
		if tau <= 0 {
			return fmt.Errorf("%w: delay %g must be strictly positive", ode.ErrInvalidConfig, tau)
		}
	}
	return nil
}

// validateMass checks that the mass matrix is square and that the
// index vector is consistent with it: an all-zero row is an algebraic
// equation (index 0) and must be marked as such.
func validateMass(mm ode.MassMatrixer, dim int) error {
	m := mm.MassMatrix()
	if len(m) != dim {
		return fmt.Errorf("%w: mass matrix has %d rows, system dimension %d", ode.ErrInvalidConfig, len(m), dim)
	}
	for _, row := range m {
		if len(row) != dim {
			return fmt.Errorf("%w: mass matrix is not square", ode.ErrInvalidConfig)
		}
	}
	idx := mm.Index()
	if idx == nil {
		return nil
	}
	if len(idx) != dim {
		return fmt.Errorf("%w: index vector length %d, system dimension %d", ode.ErrInvalidConfig, len(idx), dim)
	}
	for i, row := range m {
		zero := true
		for _, v := range row {
			if v != 0 {
				zero = false
				break
			}
		}
		if zero && idx[i] != 0 {
			return fmt.Errorf("%w: equation %d has a zero mass row but index %d", ode.ErrInvalidConfig, i, idx[i])
		}
		if !zero && idx[i] == 0 {
			return fmt.Errorf("%w: equation %d marked algebraic but has mass entries", ode.ErrInvalidConfig, i)
		}
	}
	return nil
}

// Run integrates from (t0, y0) to tEnd. On fatal errors the partial
// trajectory and diagnostics are returned alongside the error;
// recoverable step failures are retried internally and never surface.
func (d *Driver) Run(ctx context.Context, y0 ode.State, t0, tEnd float64) (*ode.Result, error) {
	if len(y0) != d.dim {
		return nil, fmt.Errorf("%w: initial state length %d, system dimension %d", ode.ErrInvalidConfig, len(y0), d.dim)
	}
	if tEnd <= t0 {
		return nil, fmt.Errorf("%w: tEnd %g must exceed t0 %g", ode.ErrInvalidConfig, tEnd, t0)
	}

	res := &ode.Result{}
	t := t0
	y := y0.Clone()
	if d.delayW != nil {
		d.delayW.t0 = t0
	}

	reportIdx := 0
	if d.cfg.ReportTimes == nil {
		res.Samples = append(res.Samples, ode.Sample{T: t0, Y: y.Clone()})
	} else {
		for reportIdx < len(d.cfg.ReportTimes) && d.cfg.ReportTimes[reportIdx] <= t0 {
			res.Samples = append(res.Samples, ode.Sample{T: t0, Y: y.Clone()})
			reportIdx++
		}
	}

	h := d.cfg.HInit
	if h <= 0 {
		h = d.estimateH0(t0, y, tEnd)
	}
	h = math.Min(h, d.cfg.HMax)
	d.stepper.Accept(t0, y)

	attempts := 0
	retries := 0
	for t < tEnd {
		select {
		case <-ctx.Done():
			res.Diag = d.diag
			return res, ctx.Err()
		default:
		}

		attempts++
		if attempts > d.cfg.MaxSteps {
			return d.fail(res, t, fmt.Errorf("%w: step budget %d exhausted", ode.ErrIntegrationFailed, d.cfg.MaxSteps))
		}

		hTry := math.Min(h, tEnd-t)
		if d.minDelay > 0 && !math.IsInf(d.minDelay, 1) {
			// delay lookups must reference strictly earlier,
			// already-accepted time
			hTry = math.Min(hTry, d.minDelay)
		}

		stepRes, err := d.stepper.Step(t, y, hTry)
		if err != nil {
			d.diag.NewtonFails++
			retries++
			if retries > d.cfg.MaxRetries {
				return d.fail(res, t, fmt.Errorf("%w: %v after %d retries", ode.ErrIntegrationFailed, err, retries-1))
			}
			if d.ctl.Underflow(hTry, t) {
				return d.fail(res, t, ode.ErrStepUnderflow)
			}
			h = d.ctl.Shrink(hTry)
			continue
		}

		e := d.cfg.ErrorNorm(stepRes.Y, stepRes.Err)
		accept, hNext := d.ctl.Decide(e, hTry, d.stepper.Order())
		if !accept {
			d.diag.Rejected++
			if d.ctl.Underflow(hTry, t) {
				return d.fail(res, t, ode.ErrStepUnderflow)
			}
			h = hNext
			continue
		}
		retries = 0

		if d.cfg.ValidateState && !stepRes.Y.IsValid() {
			return d.fail(res, t, fmt.Errorf("%w: state diverged (NaN/Inf)", ode.ErrIntegrationFailed))
		}

		tNext := t + hTry
		if hTry == tEnd-t {
			tNext = tEnd
		}
		seg := history.Segment{
			T0: t, T1: tNext,
			Y0: y.Clone(), Y1: stepRes.Y.Clone(),
			F0: stepRes.F0, F1: stepRes.F1,
		}

		if d.events != nil {
			if done := d.handleEvents(res, &seg, &t, &y, &reportIdx); done {
				h = hNext
				continue
			}
		}

		d.hist.Record(seg)
		d.diag.Accepted++
		d.stepper.Accept(tNext, stepRes.Y)
		d.emit(res, &seg, &reportIdx, tNext, stepRes.Y)

		y = stepRes.Y
		t = tNext
		h = hNext
	}

	res.Diag = d.diag
	return res, nil
}

// handleEvents scans the accepted segment for root crossings. When
// one is located the step is truncated at the event time, the reset
// state replaces the remainder, and integration resumes from there.
// Returns true when an event consumed the step.
func (d *Driver) handleEvents(res *ode.Result, seg *history.Segment, t *float64, y *ode.State, reportIdx *int) bool {
	g := func(tq float64) []float64 {
		return d.events.Roots(tq, seg.Value(tq))
	}
	phase, ev := d.finder.Locate(g, seg.T0, seg.T1)
	if phase != event.EventLocated || ev.T <= seg.T0 {
		return false
	}

	ye := seg.Value(ev.T)
	trunc := history.Segment{
		T0: seg.T0, T1: ev.T,
		Y0: seg.Y0, Y1: ye.Clone(),
		F0: seg.F0, F1: seg.Derivative(ev.T),
	}
	d.hist.Record(trunc)
	d.diag.Accepted++
	d.emitReports(res, &trunc, reportIdx, ev.T)

	yr := d.events.Reset(ev.Index, ev.T, ye.Clone())
	d.diag.Events++
	res.Events = append(res.Events, ev)

	// the discontinuity: two samples at the same time
	res.Samples = append(res.Samples,
		ode.Sample{T: ev.T, Y: ye.Clone()},
		ode.Sample{T: ev.T, Y: yr.Clone()},
	)

	d.stepper.Reset()
	d.stepper.Accept(ev.T, yr)
	*y = yr.Clone()
	*t = ev.T
	return true
}

// emit appends output for an accepted step: every step endpoint when
// no report times are configured, otherwise the dense-interpolated
// report times the step covers.
func (d *Driver) emit(res *ode.Result, seg *history.Segment, reportIdx *int, tNext float64, yNext ode.State) {
	if d.cfg.ReportTimes == nil {
		res.Samples = append(res.Samples, ode.Sample{T: tNext, Y: yNext.Clone()})
		return
	}
	d.emitReports(res, seg, reportIdx, tNext)
}

func (d *Driver) emitReports(res *ode.Result, seg *history.Segment, reportIdx *int, tUpTo float64) {
	if d.cfg.ReportTimes == nil {
		return
	}
	for *reportIdx < len(d.cfg.ReportTimes) {
		tr := d.cfg.ReportTimes[*reportIdx]
		if tr > tUpTo {
			break
		}
		res.Samples = append(res.Samples, ode.Sample{T: tr, Y: seg.Value(tr)})
		*reportIdx++
	}
}

func (d *Driver) fail(res *ode.Result, t float64, err error) (*ode.Result, error) {
	res.Diag = d.diag
	return res, &ode.IntegrationError{Step: d.diag.Accepted, Time: t, Wrapped: err}
}

// estimateH0 chooses a first step from the magnitude of the right
// hand side, in the spirit of the classic h0 heuristic: small enough
// that an explicit Euler trial stays within tolerance.
func (d *Driver) estimateH0(t0 float64, y ode.State, tEnd float64) float64 {
	span := tEnd - t0
	fallback := math.Min(1e-3*span, d.cfg.HMax)
	if d.sys == nil {
		// residual-form system: no cheap derivative available
		return math.Max(fallback, d.cfg.HMin)
	}
	f := d.sys.Derive(t0, y)
	d.diag.Evals++
	dnf, dny := 0.0, 0.0
	for i := range y {
		w := d.cfg.Atol + d.cfg.Rtol*math.Abs(y[i])
		dnf += (f[i] / w) * (f[i] / w)
		dny += (y[i] / w) * (y[i] / w)
	}
	var h float64
	if math.Min(dnf, dny) < 1e-10 {
		h = 1e-6
	} else {
		h = 1e-2 * math.Sqrt(dny/dnf)
	}
	h = math.Min(h, 1e-1*span)
	return math.Max(math.Min(h, d.cfg.HMax), d.cfg.HMin)
}
