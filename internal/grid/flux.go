package grid

import "math"

// axis is the 1-D flux engine shared by all grid kinds. Face areas
// and cell volumes carry the metric terms, so cartesian and polar
// directions go through the same code.
type axis struct {
	centers []float64
	faces   []float64
	area    []float64 // per face
	vol     []float64 // per cell
	cyclic  bool
}

func cartesianAxis(centers, faces []float64) *axis {
	n := len(centers)
	a := &axis{centers: centers, faces: faces}
	a.area = make([]float64, n+1)
	a.vol = make([]float64, n)
	for i := range a.area {
		a.area[i] = 1
	}
	for i := 0; i < n; i++ {
		a.vol[i] = faces[i+1] - faces[i]
	}
	return a
}

// value reads the field with neighbor wrapping on cyclic axes; ok is
// false outside a non-cyclic axis.
func (a *axis) value(vals []float64, i int) (float64, bool) {
	n := len(vals)
	if a.cyclic {
		return vals[((i%n)+n)%n], true
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return vals[i], true
}

// advectFace reconstructs the limited face value between cells i-1
// and i (face index i) for velocity vel.
func (a *axis) advectFace(vals []float64, i int, vel float64, lim Limiter) float64 {
	var donor, down, upup int
	if vel >= 0 {
		donor, down, upup = i-1, i, i-2
	} else {
		donor, down, upup = i, i-1, i+1
	}
	cd, okD := a.value(vals, donor)
	cdown, okDown := a.value(vals, down)
	cuu, okUU := a.value(vals, upup)
	if !okD {
		// inflow face without a donor cell: fall back to the
		// downwind cell, the caller's boundary handling overrides
		return cdown
	}
	if !okDown {
		return cd
	}
	d := cdown - cd
	if !okUU || d == 0 {
		return cd
	}
	r := (cd - cuu) / d
	return cd + 0.5*lim.phi(r)*d
}

// flux computes per-face total fluxes (diffusive + advective) and the
// resulting divergence (rate of change) per cell.
func (a *axis) flux(vals []float64, left, right Boundary, diff, vel float64, lim Limiter) (faces, div []float64, err error) {
	n := len(vals)
	faces = make([]float64, n+1)

	if !a.cyclic {
		if err := left.validate(); err != nil {
			return nil, nil, err
		}
		if err := right.validate(); err != nil {
			return nil, nil, err
		}
	}

	for i := 1; i < n; i++ {
		dist := a.centers[i] - a.centers[i-1]
		f := -diff * (vals[i] - vals[i-1]) / dist
		f += vel * a.advectFace(vals, i, vel, lim)
		faces[i] = f
	}

	if a.cyclic {
		// the wrap face links the last cell back to the first
		dist := (a.faces[n] - a.centers[n-1]) + (a.centers[0] - a.faces[0])
		f := -diff * (vals[0] - vals[n-1]) / dist
		f += vel * a.advectFace(vals, 0, vel, lim)
		faces[0] = f
		faces[n] = f
	} else {
		faces[0] = a.boundaryFlux(vals, left, 0, diff, vel)
		faces[n] = a.boundaryFlux(vals, right, n, diff, vel)
	}

	div = make([]float64, n)
	for i := 0; i < n; i++ {
		div[i] = -(a.area[i+1]*faces[i+1] - a.area[i]*faces[i]) / a.vol[i]
	}
	return faces, div, nil
}

func (a *axis) boundaryFlux(vals []float64, bc Boundary, face int, diff, vel float64) float64 {
	if bc.Flux != nil {
		return *bc.Flux
	}
	n := len(vals)
	bv := *bc.Value
	if face == 0 {
		dist := a.centers[0] - a.faces[0]
		f := -diff * (vals[0] - bv) / dist
		if vel >= 0 {
			f += vel * bv
		} else {
			f += vel * vals[0]
		}
		return f
	}
	dist := a.faces[n] - a.centers[n-1]
	f := -diff * (bv - vals[n-1]) / dist
	if vel >= 0 {
		f += vel * vals[n-1]
	} else {
		f += vel * bv
	}
	return f
}

// Flux1D computes face fluxes and per-cell divergence on a Line grid.
func Flux1D(g *Grid, field []float64, left, right Boundary, diff, vel float64, lim Limiter) (faces, div []float64, err error) {
	a := cartesianAxis(g.Xc, g.Xf)
	return a.flux(field, left, right, diff, vel, lim)
}

// Flux2D computes the divergence on a Rect grid by directional
// splitting: the 1-D engine runs along each axis independently and
// the divergences are summed.
func Flux2D(g *Grid, field []float64, left, right, bottom, top Boundary, diff, velX, velY float64, lim Limiter) ([]float64, error) {
	div := make([]float64, g.Cells())

	row := make([]float64, g.Nx)
	ax := cartesianAxis(g.Xc, g.Xf)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			row[i] = field[g.At(i, j)]
		}
		_, d, err := ax.flux(row, left, right, diff, velX, lim)
		if err != nil {
			return nil, err
		}
		for i := 0; i < g.Nx; i++ {
			div[g.At(i, j)] += d[i]
		}
	}

	col := make([]float64, g.Ny)
	ay := cartesianAxis(g.Yc, g.Yf)
	for i := 0; i < g.Nx; i++ {
		for j := 0; j < g.Ny; j++ {
			col[j] = field[g.At(i, j)]
		}
		_, d, err := ay.flux(col, bottom, top, diff, velY, lim)
		if err != nil {
			return nil, err
		}
		for j := 0; j < g.Ny; j++ {
			div[g.At(i, j)] += d[j]
		}
	}
	return div, nil
}

// FluxPolar computes the divergence on a Polar grid. Radial faces
// carry the metric r in their areas; the angular direction is cyclic
// and needs no boundary conditions.
func FluxPolar(g *Grid, field []float64, inner, outer Boundary, diff, velR, velTheta float64, lim Limiter) ([]float64, error) {
	div := make([]float64, g.Cells())
	nr, nt := g.Nx, g.Ny

	// radial sweeps, one per angular row
	ar := &axis{centers: g.Xc, faces: g.Xf}
	ar.area = make([]float64, nr+1)
	ar.vol = make([]float64, nr)
	for i := 0; i <= nr; i++ {
		ar.area[i] = g.Xf[i]
	}
	for i := 0; i < nr; i++ {
		ar.vol[i] = g.Xc[i] * (g.Xf[i+1] - g.Xf[i])
	}
	row := make([]float64, nr)
	for j := 0; j < nt; j++ {
		for i := 0; i < nr; i++ {
			row[i] = field[g.At(i, j)]
		}
		_, d, err := ar.flux(row, inner, outer, diff, velR, lim)
		if err != nil {
			return nil, err
		}
		for i := 0; i < nr; i++ {
			div[g.At(i, j)] += d[i]
		}
	}

	// cyclic angular sweeps, one per radius; arc length scales the
	// center distances and cell volumes
	col := make([]float64, nt)
	for i := 0; i < nr; i++ {
		r := g.Xc[i]
		at := &axis{cyclic: true}
		at.centers = make([]float64, nt)
		at.faces = make([]float64, nt+1)
		for j := 0; j < nt; j++ {
			at.centers[j] = r * g.Yc[j]
		}
		for j := 0; j <= nt; j++ {
			at.faces[j] = r * g.Yf[j]
		}
		at.area = make([]float64, nt+1)
		at.vol = make([]float64, nt)
		for j := 0; j <= nt; j++ {
			at.area[j] = 1
		}
		for j := 0; j < nt; j++ {
			at.vol[j] = r * (g.Yf[j+1] - g.Yf[j])
		}
		for j := 0; j < nt; j++ {
			col[j] = field[g.At(i, j)]
		}
		_, d, err := at.flux(col, Boundary{}, Boundary{}, diff, velTheta, lim)
		if err != nil {
			return nil, err
		}
		for j := 0; j < nt; j++ {
			div[g.At(i, j)] += d[j]
		}
	}
	return div, nil
}

// TotalVariation is a diagnostic helper for limiter tests.
func TotalVariation(vals []float64) float64 {
	tv := 0.0
	for i := 1; i < len(vals); i++ {
		tv += math.Abs(vals[i] - vals[i-1])
	}
	return tv
}
