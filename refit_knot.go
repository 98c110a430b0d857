package curvefit

import "honnef.co/go/curvefit/internal/heap"

const noKnot = -1

// knot is one input point of the refitter. Removed knots stay in the arena
// so that later phases can reinsert them.
type knot struct {
	prev, next int
	// heapNode is the knot's entry in the current phase's heap, zero when it
	// is not queued.
	heapNode heap.Handle

	// index of the point in the input.
	index int

	canRemove bool
	isRemoved bool
	isCorner  bool

	// handles are the lengths of the incoming and outgoing handle along
	// tan[0] and tan[1].
	handles [2]float64
	// errorSqNext is the error of the segment to the next live knot.
	errorSqNext float64
	// tan holds the incoming and outgoing unit tangent. They are equal unless
	// isCorner is set.
	tan [2][]float64
}

// knotList is the refitter's arena of knots, one per input point, linked
// into a list of the live ones.
type knotList struct {
	knots    []knot
	tangents []float64
	live     int
}

func newKnotList(n, dims int) knotList {
	l := knotList{
		knots:    make([]knot, n),
		tangents: make([]float64, 2*n*dims),
		live:     n,
	}
	for i := range l.knots {
		k := &l.knots[i]
		k.index = i
		k.prev, k.next = i-1, i+1
		o := 2 * i * dims
		k.tan[0] = l.tangents[o : o+dims : o+dims]
		k.tan[1] = l.tangents[o+dims : o+2*dims : o+2*dims]
	}
	return l
}

func (l *knotList) at(i int) *knot { return &l.knots[i] }

// unlink removes k from the live list and joins its neighbors.
func (l *knotList) unlink(i int) {
	k := &l.knots[i]
	l.knots[k.prev].next = k.next
	l.knots[k.next].prev = k.prev
	k.isRemoved = true
	k.prev, k.next = noKnot, noKnot
	l.live--
}

// insertAfter links the removed knot i in between prev and prev's successor.
func (l *knotList) insertAfter(prev, i int) {
	p := &l.knots[prev]
	k := &l.knots[i]
	k.prev, k.next = prev, p.next
	l.knots[p.next].prev = i
	p.next = i
	k.isRemoved = false
	l.live++
}

// firstLive returns the lowest indexed live knot.
func (l *knotList) firstLive() option[int] {
	for i := range l.knots {
		if !l.knots[i].isRemoved {
			return some(i)
		}
	}
	return option[int]{}
}

// clearHeapNodes forgets every heap entry. Handles from one phase's heap must
// never be used with another's.
func (l *knotList) clearHeapNodes() {
	for i := range l.knots {
		l.knots[i].heapNode = heap.Handle{}
	}
}

// setupKnots fills in the initial tangents and handles: every point is a
// knot, joined to its neighbors by exact two point segments.
func (r *refitter) setupKnots(corners []int) {
	dims := r.pts.Dims
	n := r.n
	tIn := make([]float64, dims)
	tOut := make([]float64, dims)

	isCorner := make([]bool, n)
	for _, c := range corners {
		isCorner[c] = true
	}

	for i := range n {
		k := r.knots.at(i)
		hasPrev := r.topo.cyclic() || i > 0
		hasNext := r.topo.cyclic() || i < n-1
		prev, next := (i+n-1)%n, (i+1)%n

		zero(tIn)
		zero(tOut)
		if hasPrev {
			// lengths is indexed by the end point of each step; the step
			// into point 0 of a cyclic curve is stored at index n.
			in := i
			if i == 0 {
				in = n
			}
			normalizeSub(tIn, r.pts.At(i), r.pts.At(prev))
			k.handles[0] = r.lengths[in] / 3
		}
		if hasNext {
			normalizeSub(tOut, r.pts.At(next), r.pts.At(i))
			k.handles[1] = r.lengths[i+1] / 3
		}

		if !r.topo.cyclic() {
			if !hasPrev {
				k.prev = noKnot
			}
			if !hasNext {
				k.next = noKnot
			}
		} else {
			k.prev, k.next = prev, next
		}
		k.canRemove = hasPrev && hasNext

		switch {
		case isCorner[i]:
			k.isCorner = true
			k.canRemove = false
			copyVec(k.tan[0], tIn)
			copyVec(k.tan[1], tOut)
			if !hasPrev {
				copyVec(k.tan[0], tOut)
			}
			if !hasNext {
				copyVec(k.tan[1], tIn)
			}
		default:
			add(k.tan[0], tIn, tOut)
			if normalize(k.tan[0]) == 0 {
				if lenSq(tOut) != 0 {
					copyVec(k.tan[0], tOut)
				} else {
					copyVec(k.tan[0], tIn)
				}
			}
			copyVec(k.tan[1], k.tan[0])
		}
	}
}

// emit walks the live knots and writes them out.
func (r *refitter) emit() *Result {
	start := 0
	if r.topo.cyclic() {
		first := r.knots.firstLive()
		start = first.unwrap()
	}
	res := newResult(r.pts.Dims, r.knots.live, r.topo.cyclic())
	i := start
	for j := range res.Len {
		k := r.knots.at(i)
		p := r.pts.At(k.index)
		copyVec(res.Knot(j), p)
		msub(res.HandleIn(j), p, k.tan[0], k.handles[0])
		madd(res.HandleOut(j), p, k.tan[1], k.handles[1])
		res.OrigIndex[j] = k.index
		if k.isCorner || (!r.topo.cyclic() && (j == 0 || j == res.Len-1)) {
			res.CornerIndex = append(res.CornerIndex, j)
		}
		i = k.next
	}
	if !r.topo.cyclic() {
		res.flipEnds()
	}
	return res
}
