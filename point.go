package curvefit

import "slices"

// Polyline is an ordered sequence of points of Dims coordinates each, stored
// row-major in Points. The fitting functions never modify it.
type Polyline struct {
	Points []float64
	Dims   int
}

// NewPolyline validates points and dims and returns them as a Polyline.
func NewPolyline(points []float64, dims int) (Polyline, error) {
	p := Polyline{Points: points, Dims: dims}
	if err := p.validate(); err != nil {
		return Polyline{}, err
	}
	return p, nil
}

func (p Polyline) validate() error {
	if p.Dims < 1 {
		return invalidInput("dims", "must be at least 1, got %d", p.Dims)
	}
	if len(p.Points) == 0 {
		return invalidInput("points", "need at least one point")
	}
	if len(p.Points)%p.Dims != 0 {
		return invalidInput("points", "length %d is not a multiple of dims %d", len(p.Points), p.Dims)
	}
	for i, v := range p.Points {
		if !isFinite(v) {
			return invalidInput("points", "coordinate %d of point %d is not finite", i%p.Dims, i/p.Dims)
		}
	}
	return nil
}

// Len returns the number of points.
func (p Polyline) Len() int { return len(p.Points) / p.Dims }

// At returns point i. The returned slice aliases Points.
func (p Polyline) At(i int) []float64 {
	o := i * p.Dims
	return p.Points[o : o+p.Dims : o+p.Dims]
}

// span returns the points first through last, inclusive.
func (p Polyline) span(first, last int) Polyline {
	return Polyline{Points: p.Points[first*p.Dims : (last+1)*p.Dims], Dims: p.Dims}
}

// segmentLengths returns l with l[i] the distance from point i-1 to point i;
// l[0] is zero.
func segmentLengths(p Polyline) []float64 {
	n := p.Len()
	l := make([]float64, n)
	for i := 1; i < n; i++ {
		l[i] = dist(p.At(i-1), p.At(i))
	}
	return l
}

// cyclicPolyline returns the points of p twice in a row, so that any run of
// at most n points starting in the first copy can be read contiguously.
func cyclicPolyline(p Polyline) Polyline {
	pts := make([]float64, 0, 2*len(p.Points))
	pts = append(pts, p.Points...)
	pts = append(pts, p.Points...)
	return Polyline{Points: pts, Dims: p.Dims}
}

func validateThreshold(errorThreshold float64) error {
	if !isFinite(errorThreshold) || errorThreshold < 0 {
		return invalidInput("error threshold", "must be finite and non-negative, got %g", errorThreshold)
	}
	return nil
}

// validateCorners checks that corners is strictly ascending and in bounds.
func validateCorners(corners []int, n int) error {
	for i, c := range corners {
		if c < 0 || c >= n {
			return invalidInput("corners", "index %d out of range [0, %d)", c, n)
		}
		if i > 0 && c <= corners[i-1] {
			return invalidInput("corners", "not strictly ascending at position %d", i)
		}
	}
	return nil
}

// openBoundaries returns corners with the first and last point index added if
// they are missing.
func openBoundaries(corners []int, n int) []int {
	out := make([]int, 0, len(corners)+2)
	if len(corners) == 0 || corners[0] != 0 {
		out = append(out, 0)
	}
	out = append(out, corners...)
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return slices.Clip(out)
}
