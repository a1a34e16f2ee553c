package method

import "github.com/san-kum/odekit/internal/ode"

// extrapolate evaluates the interpolating polynomial through
// (ts[i], ys[i]) at t by Neville's scheme, component-wise. Used as
// the multistep predictor.
func extrapolate(ts []float64, ys []ode.State, t float64) ode.State {
	k := len(ts)
	if k == 0 {
		return nil
	}
	n := len(ys[0])
	work := make([]ode.State, k)
	for i := range work {
		work[i] = ys[i].Clone()
	}
	for lvl := 1; lvl < k; lvl++ {
		for i := 0; i < k-lvl; i++ {
			den := ts[i] - ts[i+lvl]
			for c := 0; c < n; c++ {
				work[i][c] = ((t-ts[i+lvl])*work[i][c] - (t-ts[i])*work[i+1][c]) / den
			}
		}
	}
	return work[0]
}

// derivWeights returns w such that p'(t) = sum_j w[j]*p(ts[j]) for
// the Lagrange interpolant p through the nodes ts. Nodes must be
// distinct.
func derivWeights(ts []float64, t float64) []float64 {
	k := len(ts)
	w := make([]float64, k)
	for j := 0; j < k; j++ {
		sum := 0.0
		for l := 0; l < k; l++ {
			if l == j {
				continue
			}
			prod := 1.0 / (ts[j] - ts[l])
			for m := 0; m < k; m++ {
				if m == j || m == l {
					continue
				}
				prod *= (t - ts[m]) / (ts[j] - ts[m])
			}
			sum += prod
		}
		w[j] = sum
	}
	return w
}
