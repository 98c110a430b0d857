package curvefit

// FitOptions configures [FitCubics].
type FitOptions struct {
	// Cyclic treats the last point as connected to the first. Polylines of
	// fewer than three points are always fit as open curves.
	Cyclic bool
	// HighQuality makes every segment solve run all fallbacks and Newton
	// rounds before checking the result against the error threshold. It is
	// slower and produces marginally better fits.
	HighQuality bool
}

// DefaultFitOptions fits open curves at normal quality.
var DefaultFitOptions = FitOptions{}

type topology uint8

const (
	topologyOpen topology = iota
	topologyCyclic
)

// newTopology returns the topology of a curve through n points. Curves of
// fewer than three points are always open.
func newTopology(cyclic bool, n int) topology {
	if cyclic && n > 2 {
		return topologyCyclic
	}
	return topologyOpen
}

func (t topology) cyclic() bool { return t == topologyCyclic }

// fitTask is a pending run of points to fit with fixed end tangents.
type fitTask struct {
	first, last int
	tanL, tanR  []float64
}

type cubicFitter struct {
	dims        int
	thresholdSq float64
	solveSq     float64

	seg   *segmentFitter
	out   cubic
	list  cubicList
	stack []fitTask
	tmp   []float64
}

func newCubicFitter(dims int, errorThreshold float64, highQuality bool) *cubicFitter {
	f := &cubicFitter{
		dims:        dims,
		thresholdSq: errorThreshold * errorThreshold,
		seg:         newSegmentFitter(dims),
		out:         newCubic(dims),
		list:        cubicList{dims: dims},
		tmp:         make([]float64, dims),
	}
	f.solveSq = f.thresholdSq
	if highQuality {
		f.solveSq = highQualityErrorSq
	}
	return f
}

// centerTangent sets dst to the direction of a smooth curve passing through p
// between prev and next.
func centerTangent(dst, tmp, prev, p, next []float64) {
	normalizeSub(dst, p, prev)
	normalizeSub(tmp, next, p)
	add(dst, dst, tmp)
	if normalize(dst) == 0 {
		normalizeSub(dst, next, prev)
	}
}

// chainTangent sets dst to the direction from point i towards the first
// distinct point in direction step (+1 or -1), reversed when step is
// negative so that it always points along the direction of travel.
func chainTangent(dst []float64, pts Polyline, i, step, stop int) {
	zero(dst)
	for j := i + step; j != stop+step; j += step {
		if step > 0 {
			sub(dst, pts.At(j), pts.At(i))
		} else {
			sub(dst, pts.At(i), pts.At(j))
		}
		if normalize(dst) != 0 {
			return
		}
	}
	zero(dst)
}

// fitChain fits pts, whose end tangents are fixed, appending segments to the
// fitter's list. lengths[i] is the distance from point i-1 to point i.
func (f *cubicFitter) fitChain(pts Polyline, lengths []float64, tanL, tanR []float64) {
	f.fitTasks(pts, lengths, fitTask{0, pts.Len() - 1, tanL, tanR})
}

// fitTasks fits the given tasks, last one first.
func (f *cubicFitter) fitTasks(pts Polyline, lengths []float64, tasks ...fitTask) {
	f.stack = append(f.stack[:0], tasks...)
	for len(f.stack) > 0 {
		t := f.stack[len(f.stack)-1]
		f.stack = f.stack[:len(f.stack)-1]

		span := pts.span(t.first, t.last)
		errSq, split, ok := f.seg.fit(span, lengths[t.first:t.last+1], t.tanL, t.tanR, f.solveSq, f.out)
		if ok || errSq < f.thresholdSq || t.last-t.first < 2 {
			f.list.push(f.out, t.last-t.first)
			continue
		}

		split = max(t.first+1, min(t.last-1, t.first+split))
		tan := make([]float64, f.dims)
		centerTangent(tan, f.tmp, pts.At(split-1), pts.At(split), pts.At(split+1))
		// Right half first so the left half is fit next.
		f.stack = append(f.stack,
			fitTask{split, t.last, tan, t.tanR},
			fitTask{t.first, split, t.tanL, tan},
		)
	}
}

// FitCubics fits cubic Bézier segments to the polyline points, a flat array
// of points with dims coordinates each, such that no point is further than
// errorThreshold from the curve at its parameter.
//
// corners holds ascending indices of points at which the curve may change
// direction abruptly. The polyline is split at each corner and the pieces are
// fit independently; every corner appears as a knot in the result. For open
// curves the first and last point are implicitly corners.
func FitCubics(points []float64, dims int, errorThreshold float64, corners []int, opts FitOptions) (*Result, error) {
	p, err := NewPolyline(points, dims)
	if err != nil {
		return nil, err
	}
	if err := validateThreshold(errorThreshold); err != nil {
		return nil, err
	}
	if err := validateCorners(corners, p.Len()); err != nil {
		return nil, err
	}
	return fitCubics(p, errorThreshold, corners, opts), nil
}

func fitCubics(p Polyline, errorThreshold float64, corners []int, opts FitOptions) *Result {
	n := p.Len()
	if n == 1 {
		return singlePointResult(p)
	}
	topo := newTopology(opts.Cyclic, n)
	f := newCubicFitter(p.Dims, errorThreshold, opts.HighQuality)

	var r *Result
	var chains int
	switch topo {
	case topologyOpen:
		r, chains = f.fitOpen(p, corners)
	case topologyCyclic:
		r, chains = f.fitCyclic(p, corners)
	default:
		panic("unreachable")
	}
	Logger().Debug("fit cubics",
		"points", n,
		"dims", p.Dims,
		"cyclic", topo.cyclic(),
		"chains", chains,
		"knots", r.Len)
	return r
}

func (f *cubicFitter) fitOpen(p Polyline, corners []int) (*Result, int) {
	n := p.Len()
	lengths := segmentLengths(p)
	bounds := openBoundaries(corners, n)

	cornerKnots := []int{0}
	for i := 1; i < len(bounds); i++ {
		a, b := bounds[i-1], bounds[i]
		chain := p.span(a, b)
		tanL := make([]float64, f.dims)
		tanR := make([]float64, f.dims)
		chainTangent(tanL, chain, 0, 1, chain.Len()-1)
		chainTangent(tanR, chain, chain.Len()-1, -1, 0)
		f.fitChain(chain, lengths[a:b+1], tanL, tanR)
		cornerKnots = append(cornerKnots, f.list.len())
	}

	segs := f.list.len()
	r := newResult(f.dims, segs+1, false)
	f.emit(r, 0, n)
	r.flipEnds()
	r.CornerIndex = cornerKnots
	return r, len(bounds) - 1
}

func (f *cubicFitter) fitCyclic(p Polyline, corners []int) (*Result, int) {
	n := p.Len()
	seam := 0
	if len(corners) > 0 {
		seam = corners[0]
	}

	// Rotate so that the seam is point 0 and repeat it at the end.
	ext := make([]float64, 0, (n+1)*f.dims)
	for k := range n + 1 {
		ext = append(ext, p.At((seam+k)%n)...)
	}
	e := Polyline{Points: ext, Dims: f.dims}
	lengths := segmentLengths(e)

	bounds := make([]int, 0, len(corners)+1)
	for _, c := range corners {
		bounds = append(bounds, (c-seam+n)%n)
	}
	if len(bounds) == 0 {
		bounds = append(bounds, 0)
	}
	bounds = append(bounds, n)

	var seamTan []float64
	if len(corners) == 0 {
		seamTan = make([]float64, f.dims)
		centerTangent(seamTan, f.tmp, e.At(n-1), e.At(0), e.At(1))
	}

	var cornerKnots []int
	for i := 1; i < len(bounds); i++ {
		a, b := bounds[i-1], bounds[i]
		if seamTan == nil {
			cornerKnots = append(cornerKnots, f.list.len())
		}
		chain := e.span(a, b)
		tanL, tanR := seamTan, seamTan
		if seamTan == nil {
			tanL = make([]float64, f.dims)
			tanR = make([]float64, f.dims)
			chainTangent(tanL, chain, 0, 1, chain.Len()-1)
			chainTangent(tanR, chain, chain.Len()-1, -1, 0)
		}
		if len(bounds) > 2 {
			f.fitChain(chain, lengths[a:b+1], tanL, tanR)
			continue
		}
		// A single chain closes on itself; split it at the point furthest
		// from the seam so the loop has at least two knots.
		mid, farSq := 1, 0.0
		for j := 1; j < n; j++ {
			if d := distSq(e.At(0), e.At(j)); d > farSq {
				mid, farSq = j, d
			}
		}
		tan := make([]float64, f.dims)
		centerTangent(tan, f.tmp, e.At(mid-1), e.At(mid), e.At(mid+1))
		f.fitTasks(chain, lengths,
			fitTask{mid, n, tan, tanR},
			fitTask{0, mid, tanL, tan},
		)
	}

	segs := f.list.len()
	r := newResult(f.dims, segs, true)
	f.emit(r, seam, n)
	r.CornerIndex = cornerKnots
	return r, len(bounds) - 1
}

// emit writes the fitter's segments into r. Point indices are offset by
// start and taken modulo n.
func (f *cubicFitter) emit(r *Result, start, n int) {
	segs := f.list.len()
	idx := start
	for i := range segs {
		c := f.list.segment(i)
		copyVec(r.Knot(i), c.pt(0))
		copyVec(r.HandleOut(i), c.pt(1))
		j := i + 1
		if j == r.Len {
			j = 0
		}
		copyVec(r.HandleIn(j), c.pt(2))
		r.OrigIndex[i] = idx % n
		idx += f.list.spans[i]
	}
	if !r.Cyclic {
		copyVec(r.Knot(segs), f.list.segment(segs-1).pt(3))
		r.OrigIndex[segs] = idx % n
	}
}
