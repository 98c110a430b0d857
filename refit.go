package curvefit

import (
	"math"
	"slices"

	"honnef.co/go/curvefit/internal/heap"
)

// RefitOptions configures [Refit].
type RefitOptions struct {
	// Cyclic treats the last point as connected to the first. Polylines of
	// fewer than three points are always fit as open curves.
	Cyclic bool
	// HighQuality solves the corner and refit phases' segments as closely as
	// possible before checking them against the error threshold.
	HighQuality bool
	// CornerAngle is the angle in radians between the tangents of adjacent
	// knots beyond which a corner is inserted between them, if that fits
	// better. Zero and π disable corner insertion.
	CornerAngle float64
}

// DefaultRefitOptions fits open curves without inserting corners.
var DefaultRefitOptions = RefitOptions{CornerAngle: math.Pi}

func (o RefitOptions) validate() error {
	if !(o.CornerAngle >= 0 && o.CornerAngle <= math.Pi) {
		return invalidInput("corner angle", "must be in [0, π], got %g", o.CornerAngle)
	}
	return nil
}

func (o RefitOptions) cornersEnabled() bool {
	return o.CornerAngle > 0 && o.CornerAngle < math.Pi
}

// Refit fits cubic Bézier segments to points like [FitCubics], but instead of
// splitting the polyline top down it starts with a knot on every point and
// improves the curve incrementally: first removing knots whose removal keeps
// the curve within errorThreshold, cheapest first, then optionally inserting
// corners where adjacent tangents diverge sharply, and finally moving knots
// to wherever the error of their two segments is lowest.
//
// This usually produces fewer segments than [FitCubics] at the cost of more
// computation.
//
// corners holds ascending indices of points that must remain knots with
// independent tangents on either side.
func Refit(points []float64, dims int, errorThreshold float64, corners []int, opts RefitOptions) (*Result, error) {
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
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return refit(p, errorThreshold, corners, opts), nil
}

// spanFit is a solved segment between two knots.
type spanFit struct {
	// handles are the outgoing handle length of the first knot and the
	// incoming handle length of the last.
	handles [2]float64
	errorSq float64
	// split is the point with the largest error.
	split int
}

type refitter struct {
	// pts covers the input twice when cyclic, so that any span between two
	// knots can be read contiguously.
	pts     Polyline
	lengths []float64
	n       int
	topo    topology

	errorSqMax float64
	// solveSq is the early exit threshold of the corner and refit phases.
	solveSq float64

	knots knotList
	seg   *segmentFitter
	c     cubic
	tmp   []float64
	axis  []float64
	perp  []float64
}

func newRefitter(p Polyline, errorThreshold float64, opts RefitOptions) *refitter {
	n := p.Len()
	r := &refitter{
		pts:        p,
		n:          n,
		topo:       newTopology(opts.Cyclic, n),
		errorSqMax: errorThreshold * errorThreshold,
		knots:      newKnotList(n, p.Dims),
		seg:        newSegmentFitter(p.Dims),
		c:          newCubic(p.Dims),
		tmp:        make([]float64, p.Dims),
		axis:       make([]float64, p.Dims),
		perp:       make([]float64, p.Dims),
	}
	if r.topo.cyclic() {
		r.pts = cyclicPolyline(p)
	}
	r.lengths = segmentLengths(r.pts)
	r.solveSq = r.errorSqMax
	if opts.HighQuality {
		r.solveSq = 0
	}
	return r
}

func refit(p Polyline, errorThreshold float64, corners []int, opts RefitOptions) *Result {
	if p.Len() == 1 {
		return singlePointResult(p)
	}
	r := newRefitter(p, errorThreshold, opts)
	r.setupKnots(corners)

	removed := r.simplify()
	var inserted int
	if opts.cornersEnabled() {
		inserted = r.collapseCorners(opts.CornerAngle)
	}
	removedRefit, moved := r.refitKnots()

	res := r.emit()
	if debugEnabled() {
		Logger().Debug("refit",
			"points", r.n,
			"dims", p.Dims,
			"cyclic", r.topo.cyclic(),
			"removed", removed+removedRefit,
			"corners", inserted,
			"moved", moved,
			"knots", res.Len)
	}
	return res
}

// spanEnd returns last as an index into pts that is past first, wrapping
// around for cyclic curves.
func (r *refitter) spanEnd(first, last int) int {
	if last <= first {
		last += r.n
	}
	return last
}

// fitRange fits one segment to the points first through last, which index
// pts.
func (r *refitter) fitRange(first, last int, tanL, tanR []float64, solveSq float64) spanFit {
	span := r.pts.span(first, last)
	errSq, split, _ := r.seg.fit(span, r.lengths[first:last+1], tanL, tanR, solveSq, r.c)
	sub(r.tmp, r.c.pt(1), r.c.pt(0))
	h0 := dot(tanL, r.tmp)
	sub(r.tmp, r.c.pt(3), r.c.pt(2))
	h1 := dot(tanR, r.tmp)
	return spanFit{
		handles: [2]float64{h0, h1},
		errorSq: errSq,
		split:   first + split,
	}
}

// removable reports whether knot k has two neighbors it could be replaced by.
func (r *refitter) removable(k *knot) bool {
	return k.canRemove && !k.isCorner && !k.isRemoved && k.prev != noKnot && k.next != noKnot
}

// removalFit fits the segment that would replace the two segments of knot i.
func (r *refitter) removalFit(i int, solveSq float64) spanFit {
	k := r.knots.at(i)
	prev, next := r.knots.at(k.prev), r.knots.at(k.next)
	return r.fitRange(prev.index, r.spanEnd(prev.index, next.index), prev.tan[1], next.tan[0], solveSq)
}

// applyRemoval unlinks knot i and installs the replacing segment.
func (r *refitter) applyRemoval(i int, fit spanFit) (prev, next int) {
	k := r.knots.at(i)
	prev, next = k.prev, k.next
	r.knots.unlink(i)
	kp, kn := r.knots.at(prev), r.knots.at(next)
	kp.handles[1] = fit.handles[0]
	kn.handles[0] = fit.handles[1]
	kp.errorSqNext = fit.errorSq
	return prev, next
}

// removal is a queued knot removal.
type removal struct {
	knot int
	fit  spanFit
}

// simplify removes knots cheapest first while the replacing segment stays
// within the error threshold. The solve always runs to completion so the key
// is the true error.
func (r *refitter) simplify() int {
	h := heap.New[removal](r.n)
	recost := func(i int) {
		k := r.knots.at(i)
		if r.removable(k) {
			fit := r.removalFit(i, 0)
			if fit.errorSq < r.errorSqMax {
				h.InsertOrUpdate(&k.heapNode, fit.errorSq, removal{i, fit})
				return
			}
		}
		if !k.heapNode.IsZero() {
			h.Remove(k.heapNode)
			k.heapNode = heap.Handle{}
		}
	}
	for i := range r.n {
		recost(i)
	}

	var count int
	for !h.IsEmpty() {
		if r.knots.live <= 2 {
			break
		}
		op, _, _ := h.PopMin()
		r.knots.at(op.knot).heapNode = heap.Handle{}
		prev, next := r.applyRemoval(op.knot, op.fit)
		count++
		recost(prev)
		recost(next)
	}
	r.knots.clearHeapNodes()
	Logger().Debug("refit simplify", "removed", count, "knots", r.knots.live)
	return count
}

// cornerInsert is a queued corner insertion between a knot and its
// successor.
type cornerInsert struct {
	knot, next int
	split      int // index into pts
	fitPrev    spanFit
	fitNext    spanFit
}

// collapseCorners reinserts removed points as corners where the tangents of
// adjacent knots diverge by more than angle and a corner fits both sides.
func (r *refitter) collapseCorners(angle float64) int {
	h := heap.New[cornerInsert](r.knots.live)
	cosMax := math.Cos(angle)
	limitSq := 9 * r.errorSqMax

	first := r.knots.firstLive()
	start := first.unwrap()
	i := start
	for {
		k := r.knots.at(i)
		if k.next == noKnot {
			break
		}
		kn := r.knots.at(k.next)
		if dot(k.tan[1], kn.tan[0]) < cosMax {
			if op, ok := r.cornerCandidate(i, k.next, limitSq); ok {
				k.heapNode = h.Insert(max(op.fitPrev.errorSq, op.fitNext.errorSq), op)
			}
		}
		i = k.next
		if i == start {
			break
		}
	}

	var count int
	for !h.IsEmpty() {
		op, _, _ := h.PopMin()
		k := r.knots.at(op.knot)
		k.heapNode = heap.Handle{}
		kn := r.knots.at(op.next)
		s := op.split % r.n
		ks := r.knots.at(s)

		r.knots.insertAfter(op.knot, s)
		ks.isCorner = true
		ks.canRemove = false
		copyVec(ks.tan[0], k.tan[1])
		copyVec(ks.tan[1], kn.tan[0])
		k.handles[1] = op.fitPrev.handles[0]
		ks.handles[0] = op.fitPrev.handles[1]
		ks.handles[1] = op.fitNext.handles[0]
		kn.handles[0] = op.fitNext.handles[1]
		k.errorSqNext = op.fitPrev.errorSq
		ks.errorSqNext = op.fitNext.errorSq
		count++
	}
	r.knots.clearHeapNodes()
	Logger().Debug("refit corners", "inserted", count, "knots", r.knots.live)
	return count
}

// cornerCandidate evaluates inserting a corner between knots a and b.
func (r *refitter) cornerCandidate(a, b int, limitSq float64) (cornerInsert, bool) {
	ka, kb := r.knots.at(a), r.knots.at(b)
	first := ka.index
	last := r.spanEnd(first, kb.index)
	if last-first < 2 {
		return cornerInsert{}, false
	}

	// The corner is the removed point furthest along the direction the
	// tangents diverge in.
	sub(r.axis, ka.tan[1], kb.tan[0])
	split := first + 1
	best := math.Inf(-1)
	for j := first + 1; j < last; j++ {
		if d := dot(r.pts.At(j), r.axis); d > best {
			best, split = d, j
		}
	}

	// The corner must lie close to the lines the tangents point along.
	ps := r.pts.At(split)
	for _, side := range [2]struct {
		origin, dir []float64
	}{{r.pts.At(first), ka.tan[1]}, {r.pts.At(last), kb.tan[0]}} {
		sub(r.tmp, ps, side.origin)
		projectPlane(r.tmp, r.tmp, side.dir)
		if lenSq(r.tmp) >= limitSq {
			return cornerInsert{}, false
		}
	}

	fitPrev := r.fitRange(first, split, ka.tan[1], ka.tan[1], r.solveSq)
	if fitPrev.errorSq >= r.errorSqMax {
		return cornerInsert{}, false
	}
	fitNext := r.fitRange(split, last, kb.tan[0], kb.tan[0], r.solveSq)
	if fitNext.errorSq >= r.errorSqMax {
		return cornerInsert{}, false
	}
	return cornerInsert{
		knot:    a,
		next:    b,
		split:   split,
		fitPrev: fitPrev,
		fitNext: fitNext,
	}, true
}

// refitOp is a queued removal or relocation of a knot.
type refitOp struct {
	knot   int
	remove bool
	// fit replaces both segments of a removed knot.
	fit spanFit

	// split is the index into pts the knot moves to.
	split   int
	tan     []float64
	fitPrev spanFit
	fitNext spanFit
}

// refitKnots moves every knot to the split point of its span that minimizes
// the larger of its two segment errors. Removals that have become possible
// are applied first.
func (r *refitter) refitKnots() (removed, moved int) {
	h := heap.New[refitOp](r.knots.live)
	recost := func(i int) {
		k := r.knots.at(i)
		if r.removable(k) {
			if op, key, ok := r.refitCandidate(i); ok {
				h.InsertOrUpdate(&k.heapNode, key, op)
				return
			}
		}
		if !k.heapNode.IsZero() {
			h.Remove(k.heapNode)
			k.heapNode = heap.Handle{}
		}
	}
	for i := range r.n {
		if !r.knots.at(i).isRemoved {
			recost(i)
		}
	}

	for !h.IsEmpty() {
		op, _, _ := h.PopMin()
		r.knots.at(op.knot).heapNode = heap.Handle{}
		if op.remove {
			if r.knots.live <= 2 {
				continue
			}
			prev, next := r.applyRemoval(op.knot, op.fit)
			removed++
			recost(prev)
			recost(next)
			continue
		}
		prev, s, next := r.applyRelocation(op)
		moved++
		recost(prev)
		recost(s)
		recost(next)
	}
	r.knots.clearHeapNodes()
	Logger().Debug("refit knots", "removed", removed, "moved", moved, "knots", r.knots.live)
	return removed, moved
}

func (r *refitter) applyRelocation(op refitOp) (prev, s, next int) {
	k := r.knots.at(op.knot)
	prev, next = k.prev, k.next
	r.knots.unlink(op.knot)
	s = op.split % r.n
	r.knots.insertAfter(prev, s)

	kp, ks, kn := r.knots.at(prev), r.knots.at(s), r.knots.at(next)
	copyVec(ks.tan[0], op.tan)
	copyVec(ks.tan[1], op.tan)
	kp.handles[1] = op.fitPrev.handles[0]
	ks.handles[0] = op.fitPrev.handles[1]
	ks.handles[1] = op.fitNext.handles[0]
	kn.handles[0] = op.fitNext.handles[1]
	kp.errorSqNext = op.fitPrev.errorSq
	ks.errorSqNext = op.fitNext.errorSq
	return prev, s, next
}

// splitChoice is a candidate position for a relocated knot.
type splitChoice struct {
	split            int
	cost             float64
	fitPrev, fitNext spanFit
}

// refitCandidate finds the best operation for knot i. Removals get negative
// keys and relocations non-negative ones, so every removal is applied before
// any relocation.
func (r *refitter) refitCandidate(i int) (refitOp, float64, bool) {
	k := r.knots.at(i)
	kp, kn := r.knots.at(k.prev), r.knots.at(k.next)
	first := kp.index
	last := r.spanEnd(first, kn.index)
	self := r.spanEnd(first, k.index)

	whole := r.fitRange(first, last, kp.tan[1], kn.tan[0], r.solveSq)
	if whole.errorSq < r.errorSqMax && r.knots.live > 2 {
		return refitOp{knot: i, remove: true, fit: whole}, whole.errorSq - r.errorSqMax, true
	}

	srcMax := max(kp.errorSqNext, k.errorSqNext)
	tan := make([]float64, r.pts.Dims)
	eval := func(c int) splitChoice {
		centerTangent(r.tmp, r.axis, r.pts.At(c-1), r.pts.At(c), r.pts.At(c+1))
		copyVec(tan, r.tmp)
		fp := r.fitRange(first, c, kp.tan[1], tan, r.solveSq)
		fn := r.fitRange(c, last, tan, kn.tan[0], r.solveSq)
		return splitChoice{c, max(fp.errorSq, fn.errorSq), fp, fn}
	}
	valid := func(c int) bool { return c > first && c < last && c != self }

	var best option[splitChoice]
	cands := r.splitCandidates(first, last, whole.split)
	for j, c := range cands {
		if !valid(c) || slices.Contains(cands[:j], c) {
			continue
		}
		if ch := eval(c); !best.isSet || ch.cost < best.value.cost {
			best.set(ch)
		}
	}
	if !best.isSet {
		return refitOp{}, 0, false
	}

	// Walk towards whichever neighbor keeps lowering the cost.
	for _, step := range [2]int{-1, 1} {
		for c := best.value.split + step; valid(c); c += step {
			ch := eval(c)
			if ch.cost >= best.value.cost {
				break
			}
			best.set(ch)
		}
	}

	b := best.value
	if b.cost >= srcMax {
		return refitOp{}, 0, false
	}
	centerTangent(tan, r.axis, r.pts.At(b.split-1), r.pts.At(b.split), r.pts.At(b.split+1))
	op := refitOp{
		knot:    i,
		split:   b.split,
		tan:     tan,
		fitPrev: b.fitPrev,
		fitNext: b.fitNext,
	}
	return op, r.errorSqMax - (srcMax - b.cost), true
}

// splitCandidates returns the positions worth trying for a knot between
// first and last, in order of preference: the point of largest error of the
// single segment fit, the point furthest from the chord, the inflection
// point and the chord crossing closest to the middle.
func (r *refitter) splitCandidates(first, last, maxErr int) []int {
	cands := make([]int, 0, 4)
	cands = append(cands, maxErr)

	p0 := r.pts.At(first)
	dir := r.axis
	normalizeSub(dir, r.pts.At(last), p0)
	offsetSq := func(j int) float64 {
		sub(r.tmp, r.pts.At(j), p0)
		projectPlane(r.tmp, r.tmp, dir)
		return lenSq(r.tmp)
	}
	far, farSq := -1, 0.0
	for j := first + 1; j < last; j++ {
		if d := offsetSq(j); d > farSq {
			far, farSq = j, d
		}
	}
	if far == -1 {
		return cands
	}
	cands = append(cands, far)

	// Signed offsets from the chord, measured towards the furthest point.
	sub(r.perp, r.pts.At(far), p0)
	projectPlane(r.perp, r.perp, dir)
	normalize(r.perp)
	offset := func(j int) float64 {
		sub(r.tmp, r.pts.At(j), p0)
		return dot(r.tmp, r.perp)
	}
	middle := func(a, b int) bool {
		return b == -1 || abs(2*a-(first+last)) < abs(2*b-(first+last))
	}

	inflection, crossing := -1, -1
	var curveSign, sideSign float64
	for j := first + 1; j < last; j++ {
		o := offset(j)
		if s := sign(offset(j-1) - 2*o + offset(j+1)); s != 0 {
			if curveSign != 0 && s != curveSign && middle(j, inflection) {
				inflection = j
			}
			curveSign = s
		}
		if s := sign(o); s != 0 {
			if sideSign != 0 && s != sideSign && middle(j, crossing) {
				crossing = j
			}
			sideSign = s
		}
	}
	if inflection != -1 {
		cands = append(cands, inflection)
	}
	if crossing != -1 {
		cands = append(cands, crossing)
	}
	return cands
}

func sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
