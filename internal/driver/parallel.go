package driver

import (
	"context"
	"sync"

	"github.com/san-kum/odekit/internal/ode"
)

// Ensemble runs independent integrations in parallel, one goroutine
// per run. Drivers are stateful, so each run gets a fresh one from
// the factory; nothing is shared across runs.
type Ensemble struct {
	factory func() (*Driver, error)
}

func NewEnsemble(factory func() (*Driver, error)) *Ensemble {
	return &Ensemble{factory: factory}
}

// Run integrates every initial state over [t0, tEnd] and returns the
// results in input order. The first error, if any, wins.
func (e *Ensemble) Run(ctx context.Context, x0s []ode.State, t0, tEnd float64) ([]*ode.Result, error) {
	results := make([]*ode.Result, len(x0s))
	errs := make([]error, len(x0s))

	var wg sync.WaitGroup
	for i := range x0s {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			d, err := e.factory()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = d.Run(ctx, x0s[idx], t0, tEnd)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
