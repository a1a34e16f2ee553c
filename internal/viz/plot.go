// Package viz renders trajectories as terminal plots.
package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/odekit/internal/ode"
)

// Component plots one state component over the trajectory samples.
func Component(samples []ode.Sample, comp, width, height int) string {
	if len(samples) == 0 {
		return "(empty trajectory)"
	}
	data := make([]float64, 0, len(samples))
	for _, s := range samples {
		if comp < len(s.Y) {
			data = append(data, s.Y[comp])
		}
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(fmt.Sprintf("y[%d] over t=[%.3g, %.3g]", comp, samples[0].T, samples[len(samples)-1].T)),
	)
}
