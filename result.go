package curvefit

// Result is a fitted curve: a sequence of knots, each with an incoming and an
// outgoing handle. Consecutive knots, together with the handle out of the
// first and the handle in of the second, form one cubic Bézier segment.
type Result struct {
	Dims int
	// Cubics holds Len triples of (handle in, knot, handle out), each
	// point Dims coordinates long.
	Cubics []float64
	// Len is the number of knots.
	Len int
	// OrigIndex maps each knot to the index of the input point it sits on.
	OrigIndex []int
	// CornerIndex lists, in ascending order, the knots whose handles are
	// not constrained to be collinear. For open curves this always includes
	// the first and last knot.
	CornerIndex []int
	// Cyclic reports whether the last knot connects back to the first.
	Cyclic bool
}

func newResult(dims, knots int, cyclic bool) *Result {
	return &Result{
		Dims:      dims,
		Cubics:    make([]float64, 3*knots*dims),
		Len:       knots,
		OrigIndex: make([]int, knots),
		Cyclic:    cyclic,
	}
}

func (r *Result) point(i, j int) []float64 {
	o := (3*i + j) * r.Dims
	return r.Cubics[o : o+r.Dims : o+r.Dims]
}

// HandleIn returns the handle controlling the approach to knot i. The slice
// aliases Cubics.
func (r *Result) HandleIn(i int) []float64 { return r.point(i, 0) }

// Knot returns the position of knot i. The slice aliases Cubics.
func (r *Result) Knot(i int) []float64 { return r.point(i, 1) }

// HandleOut returns the handle controlling the departure from knot i. The
// slice aliases Cubics.
func (r *Result) HandleOut(i int) []float64 { return r.point(i, 2) }

// Segments returns the number of cubic segments.
func (r *Result) Segments() int {
	if r.Cyclic {
		return r.Len
	}
	return r.Len - 1
}

// Segment returns the four control points of segment i.
func (r *Result) Segment(i int) (p0, p1, p2, p3 []float64) {
	j := i + 1
	if j == r.Len {
		j = 0
	}
	return r.Knot(i), r.HandleOut(i), r.HandleIn(j), r.Knot(j)
}

// Eval returns the point at parameter t ∈ [0, 1] of segment i.
func (r *Result) Eval(i int, t float64) []float64 {
	c := newCubic(r.Dims)
	c.set(r.Segment(i))
	out := make([]float64, r.Dims)
	c.eval(t, out)
	return out
}

// flipEnds synthesizes the outer handles of an open curve by mirroring the
// inner handle of each endpoint through it.
func (r *Result) flipEnds() {
	last := r.Len - 1
	flip(r.HandleIn(0), r.Knot(0), r.HandleOut(0))
	flip(r.HandleOut(last), r.Knot(last), r.HandleIn(last))
}

// singlePointResult is the degenerate curve through one point: two knots
// with every control point on that point.
func singlePointResult(p Polyline) *Result {
	r := newResult(p.Dims, 2, false)
	for i := range 2 {
		for j := range 3 {
			copyVec(r.point(i, j), p.At(0))
		}
	}
	r.CornerIndex = []int{0, 1}
	return r
}
