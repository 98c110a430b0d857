package curvefit

import (
	"math"
	"slices"
)

// Tangent convention: tanL is the unit direction of travel leaving the first
// point of a span and tanR the unit direction of travel arriving at the last
// one, so p1 = p0 + tanL·αl and p2 = p3 − tanR·αr.

const (
	// reparamIterations bounds the Newton-Raphson rounds per segment.
	reparamIterations = 4
	// handleClampScale limits handles to this multiple of the span's radius
	// around its weighted center.
	handleClampScale = 3.0
	// circleScaleGain amplifies the relative excess of polyline length over
	// circular arc length when scaling circular handles. Empirical.
	circleScaleGain = 1.75
	// highQualityErrorSq is the target used when every fallback and Newton
	// round should run.
	highQualityErrorSq = math.SmallestNonzeroFloat64
)

// segmentFitter solves for a single cubic over a span of points. It owns the
// scratch buffers so repeated solves do not allocate per call.
type segmentFitter struct {
	dims int

	center, tmp, q0, q1, q2 []float64
	a0, a1                  []float64

	u, uPrime []float64
	test      cubic
}

func newSegmentFitter(dims int) *segmentFitter {
	buf := make([]float64, 7*dims)
	f := &segmentFitter{
		dims: dims,
		test: newCubic(dims),
	}
	vecs := []*[]float64{&f.center, &f.tmp, &f.q0, &f.q1, &f.q2, &f.a0, &f.a1}
	for i, v := range vecs {
		*v = buf[i*dims : (i+1)*dims : (i+1)*dims]
	}
	return f
}

func (f *segmentFitter) params(n int) ([]float64, []float64) {
	if cap(f.u) < n {
		f.u = make([]float64, n)
		f.uPrime = make([]float64, n)
	}
	return f.u[:n], f.uPrime[:n]
}

// chordParams fills u with the normalized cumulative length of the span and
// returns the total length. lengths[i] is the distance from point i-1 to i.
func chordParams(lengths []float64, u []float64) float64 {
	n := len(u)
	u[0] = 0
	for i := 1; i < n; i++ {
		u[i] = u[i-1] + lengths[i]
	}
	total := u[n-1]
	if total > 0 {
		inv := 1 / total
		for i := 1; i < n; i++ {
			u[i] *= inv
		}
	} else {
		for i := 1; i < n; i++ {
			u[i] = float64(i) / float64(n-1)
		}
	}
	u[n-1] = 1
	return total
}

// Bernstein blends used by the least-squares system.
func bern1(u float64) float64 {
	s := 1 - u
	return 3 * u * s * s
}

func bern2(u float64) float64 {
	return 3 * u * u * (1 - u)
}

func bern0plus1(u float64) float64 {
	s := 1 - u
	return s * s * (1 + 2*u)
}

func bern2plus3(u float64) float64 {
	return u * u * (3 - 2*u)
}

func chordHandle(p0, p3 []float64) float64 {
	return dist(p0, p3) / 3
}

// circleTangentFactor returns the handle length, relative to the chord, of a
// cubic approximating a circular arc whose end tangents are tanL and tanR.
func circleTangentFactor(tanL, tanR []float64) float64 {
	const eps = 1e-8
	d := dot(tanL, tanR)
	switch {
	case d > 1-eps:
		// Straight; the angle makes no difference.
		return (1.0 / 3.0) * 0.75
	case d < -1+eps:
		// Half circle.
		return 0.5
	default:
		angle := math.Acos(d) / 2
		s, c := math.Sincos(angle)
		return ((1 - c) / (s * 2)) / s
	}
}

// circularHandleLength estimates the handle length of an arc from p0 to p3
// with the given tangents, scaled by how much longer the polyline is than the
// arc itself.
func circularHandleLength(p0, p3, tanL, tanR []float64, coordsLength float64) float64 {
	chord := dist(p0, p3)
	handle := chord * (circleTangentFactor(tanL, tanR) / 0.75)

	theta := math.Acos(max(-1, min(1, dot(tanL, tanR))))
	arc := chord
	if half := theta / 2; half > 1e-8 {
		arc = chord * half / math.Sin(half)
	}
	scaleHandle := 1.0
	if arc > 0 {
		scaleHandle = coordsLength / arc
	}
	scaleHandle = (scaleHandle-1)*circleScaleGain + 1
	return handle * max(scaleHandle, 0)
}

// weightedCenter sets dst to the center of pts weighted by the length of the
// segments adjacent to each point.
func weightedCenter(pts Polyline, lengths []float64, dst []float64) {
	n := pts.Len()
	zero(dst)
	var total float64
	for i := range n {
		var w float64
		if i > 0 {
			w += lengths[i]
		}
		if i+1 < n {
			w += lengths[i+1]
		}
		madd(dst, dst, pts.At(i), w)
		total += w
	}
	if total > 0 {
		scale(dst, dst, 1/total)
	} else {
		copyVec(dst, pts.At(0))
	}
}

// leastSquares solves the normal equations for the handle lengths of the cubic
// through the span's end points, given the end tangents and parameters u.
func (f *segmentFitter) leastSquares(pts Polyline, lengths, u []float64, coordsLength float64, tanL, tanR []float64, out cubic) {
	n := pts.Len()
	p0, p3 := pts.At(0), pts.At(n-1)

	var x0, x1, c00, c01, c11 float64
	for i := range n {
		pt := pts.At(i)
		b1, b2 := bern1(u[i]), bern2(u[i])
		b01, b23 := bern0plus1(u[i]), bern2plus3(u[i])
		for j := range f.dims {
			a0 := tanL[j] * b1
			a1 := -tanR[j] * b2
			r := pt[j] - p0[j]*b01 - p3[j]*b23
			x0 += a0 * r
			x1 += a1 * r
			c00 += a0 * a0
			c01 += a0 * a1
			c11 += a1 * a1
		}
	}
	det := c00*c11 - c01*c01
	if isAlmostZero(det) {
		det = c00 * c11 * 10e-12
	}
	// May still divide by zero; the non-finite result fails the check below.
	alphaL := (x0*c11 - x1*c01) / det
	alphaR := (c00*x1 - c01*x0) / det

	useClamp := true
	if !(alphaL >= 0) || !(alphaR >= 0) {
		// Flipped or degenerate handles.
		alphaL = circularHandleLength(p0, p3, tanL, tanR, coordsLength)
		alphaR = alphaL
		useClamp = false
	}

	p1, p2 := out.pt(1), out.pt(2)
	copyVec(out.pt(0), p0)
	copyVec(out.pt(3), p3)
	madd(p1, p0, tanL, alphaL)
	msub(p2, p3, tanR, alphaR)

	if !useClamp {
		return
	}
	weightedCenter(pts, lengths, f.center)
	var radiusSq float64
	for i := range n {
		radiusSq = max(radiusSq, distSq(f.center, pts.At(i)))
	}
	radiusSq *= handleClampScale * handleClampScale
	if distSq(f.center, p1) > radiusSq || distSq(f.center, p2) > radiusSq {
		// Shorten along the tangents so the handles stay collinear at knots.
		alpha := circularHandleLength(p0, p3, tanL, tanR, coordsLength)
		alphaL := min(alpha, sphereExit(p0, tanL, f.center, radiusSq, f.tmp))
		scale(f.tmp, tanR, -1)
		alphaR := min(alpha, sphereExit(p3, f.tmp, f.center, radiusSq, f.q0))
		madd(p1, p0, tanL, alphaL)
		msub(p2, p3, tanR, alphaR)
	}
}

// sphereExit returns the distance from p along the unit direction dir to the
// surface of the sphere around center. p must lie inside the sphere.
func sphereExit(p, dir, center []float64, radiusSq float64, tmp []float64) float64 {
	sub(tmp, p, center)
	fd := dot(tmp, dir)
	disc := fd*fd - lenSq(tmp) + radiusSq
	if disc <= 0 {
		return 0
	}
	return max(0, -fd+math.Sqrt(disc))
}

// handleStrategy produces a candidate cubic for a span. Strategies are tried
// in order after the least-squares solve misses the threshold.
type handleStrategy func(f *segmentFitter, pts Polyline, coordsLength float64, tanL, tanR []float64, out cubic)

var fallbackStrategies = [...]handleStrategy{
	(*segmentFitter).circularFallback,
	(*segmentFitter).offsetFallback,
}

// circularFallback uses the circular-arc handle length for both handles.
func (f *segmentFitter) circularFallback(pts Polyline, coordsLength float64, tanL, tanR []float64, out cubic) {
	p0, p3 := pts.At(0), pts.At(pts.Len()-1)
	alpha := circularHandleLength(p0, p3, tanL, tanR, coordsLength)
	copyVec(out.pt(0), p0)
	copyVec(out.pt(3), p3)
	madd(out.pt(1), p0, tanL, alpha)
	msub(out.pt(2), p3, tanR, alpha)
}

// offsetFallback derives each handle length from the largest offset of the
// points from the chord on that handle's side. It fits S shapes better than
// the circular estimate.
func (f *segmentFitter) offsetFallback(pts Polyline, coordsLength float64, tanL, tanR []float64, out cubic) {
	n := pts.Len()
	p0, p3 := pts.At(0), pts.At(n-1)
	dir := f.tmp
	chord := normalizeSub(dir, p3, p0)

	// Directions in which each handle pulls the curve away from the chord.
	projectPlane(f.a0, tanL, dir)
	normalize(f.a0)
	scale(f.a1, tanR, -1)
	projectPlane(f.a1, f.a1, dir)
	normalize(f.a1)

	var dists [2]float64
	for i := 1; i < n-1; i++ {
		sub(f.q0, pts.At(i), p0)
		dists[0] = max(dists[0], dot(f.q0, f.a0))
		dists[1] = max(dists[1], dot(f.q0, f.a1))
	}
	alphaL := (dists[0] / 0.75) / math.Abs(dot(tanL, f.a0))
	alphaR := (dists[1] / 0.75) / math.Abs(dot(tanR, f.a1))
	if !(alphaL > 0) || math.IsInf(alphaL, 0) {
		alphaL = chord / 3
	}
	if !(alphaR > 0) || math.IsInf(alphaR, 0) {
		alphaR = chord / 3
	}
	copyVec(out.pt(0), p0)
	copyVec(out.pt(3), p3)
	madd(out.pt(1), p0, tanL, alphaL)
	msub(out.pt(2), p3, tanR, alphaR)
}

// maxError returns the largest squared distance between an interior point and
// the cubic evaluated at that point's parameter, and the index of that point.
func (f *segmentFitter) maxError(c cubic, pts Polyline, u []float64) (float64, int) {
	var errMax float64
	idx := 0
	for i := 1; i < pts.Len()-1; i++ {
		c.eval(u[i], f.q0)
		if e := distSq(pts.At(i), f.q0); e >= errMax {
			errMax = e
			idx = i
		}
	}
	return errMax, idx
}

// findRoot performs one Newton-Raphson step towards the parameter of the
// point on c closest to p, starting from u.
func (f *segmentFitter) findRoot(c cubic, p []float64, u float64) float64 {
	c.eval(u, f.q0)
	c.velocity(u, f.q1)
	c.acceleration(u, f.q2)
	sub(f.q0, f.q0, p)
	return u - dot(f.q0, f.q1)/(lenSq(f.q1)+dot(f.q0, f.q2))
}

// reparameterize computes improved parameters for every point. It reports
// false if any result is not finite or the sorted result leaves [0, 1].
func (f *segmentFitter) reparameterize(c cubic, pts Polyline, u, uPrime []float64) bool {
	for i := range uPrime {
		v := f.findRoot(c, pts.At(i), u[i])
		if !isFinite(v) {
			return false
		}
		uPrime[i] = v
	}
	slices.Sort(uPrime)
	return uPrime[0] >= 0 && uPrime[len(uPrime)-1] <= 1
}

// fit fits one cubic to pts with fixed end tangents. It returns the maximum
// squared error of the result, the index of the worst point (a valid split
// point when the span has at least three points) and whether the error is
// below errorSq.
func (f *segmentFitter) fit(pts Polyline, lengths []float64, tanL, tanR []float64, errorSq float64, out cubic) (float64, int, bool) {
	n := pts.Len()
	p0, p3 := pts.At(0), pts.At(n-1)
	if n == 2 {
		h := chordHandle(p0, p3)
		copyVec(out.pt(0), p0)
		copyVec(out.pt(3), p3)
		madd(out.pt(1), p0, tanL, h)
		msub(out.pt(2), p3, tanR, h)
		return 0, 0, true
	}

	u, uPrime := f.params(n)
	coordsLength := chordParams(lengths, u)

	f.leastSquares(pts, lengths, u, coordsLength, tanL, tanR, out)
	errMax, split := f.maxError(out, pts, u)

	// Keep the best candidate along with the split index computed for it.
	for _, strategy := range fallbackStrategies {
		if errMax < errorSq {
			break
		}
		strategy(f, pts, coordsLength, tanL, tanR, f.test)
		if e, s := f.maxError(f.test, pts, u); e < errMax {
			errMax, split = e, s
			out.copyFrom(f.test)
		}
	}
	if errMax < errorSq {
		return errMax, split, true
	}

	f.test.copyFrom(out)
	for range reparamIterations {
		if !f.reparameterize(f.test, pts, u, uPrime) {
			break
		}
		f.leastSquares(pts, lengths, uPrime, coordsLength, tanL, tanR, f.test)
		if e, s := f.maxError(f.test, pts, uPrime); e < errMax {
			errMax, split = e, s
			out.copyFrom(f.test)
			if errMax < errorSq {
				return errMax, split, true
			}
		}
		u, uPrime = uPrime, u
	}
	return errMax, split, false
}

// SingleFit is the result of [FitSingle].
type SingleFit struct {
	// HandleL and HandleR are the inner control points of the cubic.
	HandleL, HandleR []float64
	// ErrorSq is the largest squared distance between an interior point and
	// the cubic at that point's parameter.
	ErrorSq float64
	// ErrorIndex is the index of the point with the largest error. It is 0
	// when there are no interior points.
	ErrorIndex int
}

// FitSingle fits one cubic from the first to the last of points, leaving the
// first point in direction tanL and arriving at the last point in direction
// tanR. The tangents are normalized before use.
//
// The fit stops early once the error drops below errorThreshold; pass 0 to
// always run every refinement.
func FitSingle(points []float64, dims int, errorThreshold float64, tanL, tanR []float64) (SingleFit, error) {
	p, err := NewPolyline(points, dims)
	if err != nil {
		return SingleFit{}, err
	}
	if p.Len() < 2 {
		return SingleFit{}, invalidInput("points", "need at least two points, got %d", p.Len())
	}
	if err := validateThreshold(errorThreshold); err != nil {
		return SingleFit{}, err
	}
	for _, t := range [2]struct {
		name string
		v    []float64
	}{{"left tangent", tanL}, {"right tangent", tanR}} {
		if len(t.v) != dims {
			return SingleFit{}, invalidInput(t.name, "has %d coordinates, want %d", len(t.v), dims)
		}
		if !slicesFinite(t.v) {
			return SingleFit{}, invalidInput(t.name, "is not finite")
		}
	}

	tl := append([]float64(nil), tanL...)
	tr := append([]float64(nil), tanR...)
	normalize(tl)
	normalize(tr)

	f := newSegmentFitter(dims)
	out := newCubic(dims)
	errSq, idx, _ := f.fit(p, segmentLengths(p), tl, tr, errorThreshold*errorThreshold, out)
	return SingleFit{
		HandleL:    append([]float64(nil), out.pt(1)...),
		HandleR:    append([]float64(nil), out.pt(2)...),
		ErrorSq:    errSq,
		ErrorIndex: idx,
	}, nil
}

func slicesFinite(v []float64) bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}
