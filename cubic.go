package curvefit

// cubic is a single Bézier segment with control points p0 (knot), p1 (handle
// out), p2 (handle in) and p3 (knot), stored contiguously.
type cubic struct {
	dims int
	pts  []float64
}

func newCubic(dims int) cubic {
	return cubic{dims: dims, pts: make([]float64, 4*dims)}
}

// pt returns control point i, aliasing the cubic's storage.
func (c cubic) pt(i int) []float64 {
	o := i * c.dims
	return c.pts[o : o+c.dims : o+c.dims]
}

func (c cubic) set(p0, p1, p2, p3 []float64) {
	copy(c.pt(0), p0)
	copy(c.pt(1), p1)
	copy(c.pt(2), p2)
	copy(c.pt(3), p3)
}

func (c cubic) copyFrom(o cubic) { copy(c.pts, o.pts) }

// eval sets dst to the point at parameter t.
func (c cubic) eval(t float64, dst []float64) {
	s := 1 - t
	b0 := s * s * s
	b1 := 3 * s * s * t
	b2 := 3 * s * t * t
	b3 := t * t * t
	p0, p1, p2, p3 := c.pt(0), c.pt(1), c.pt(2), c.pt(3)
	for j := range dst {
		dst[j] = p0[j]*b0 + p1[j]*b1 + p2[j]*b2 + p3[j]*b3
	}
}

// velocity sets dst to the first derivative at t.
func (c cubic) velocity(t float64, dst []float64) {
	s := 1 - t
	p0, p1, p2, p3 := c.pt(0), c.pt(1), c.pt(2), c.pt(3)
	for j := range dst {
		dst[j] = 3 * (s*s*(p1[j]-p0[j]) + 2*s*t*(p2[j]-p1[j]) + t*t*(p3[j]-p2[j]))
	}
}

// acceleration sets dst to the second derivative at t.
func (c cubic) acceleration(t float64, dst []float64) {
	s := 1 - t
	p0, p1, p2, p3 := c.pt(0), c.pt(1), c.pt(2), c.pt(3)
	for j := range dst {
		dst[j] = 6 * (s*(p2[j]-2*p1[j]+p0[j]) + t*(p3[j]-2*p2[j]+p1[j]))
	}
}

// cubicList accumulates fitted segments in curve order.
type cubicList struct {
	dims int
	pts  []float64
	// spans[i] is the number of input point steps segment i replaces.
	spans []int
}

func (l *cubicList) push(c cubic, span int) {
	l.pts = append(l.pts, c.pts...)
	l.spans = append(l.spans, span)
}

func (l *cubicList) len() int { return len(l.spans) }

func (l *cubicList) segment(i int) cubic {
	n := 4 * l.dims
	return cubic{dims: l.dims, pts: l.pts[i*n : (i+1)*n : (i+1)*n]}
}
