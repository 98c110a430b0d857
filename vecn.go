package curvefit

import "math"

// Vector primitives over slices of equal length. The length of the slices is
// the dimension; callers validate dimensions once at the API boundary, so
// these functions do not check.

// normalizeEpsilon is the squared length below which a vector is treated as
// zero and left unchanged by normalization.
const normalizeEpsilon = 1e-35

func dot(a, b []float64) float64 {
	var d float64
	for i := range a {
		d += a[i] * b[i]
	}
	return d
}

func lenSq(a []float64) float64 { return dot(a, a) }

func length(a []float64) float64 { return math.Sqrt(lenSq(a)) }

func distSq(a, b []float64) float64 {
	var d float64
	for i := range a {
		x := a[i] - b[i]
		d += x * x
	}
	return d
}

func dist(a, b []float64) float64 { return math.Sqrt(distSq(a, b)) }

// normalize scales v to unit length in place and returns its original length.
// A vector of (near) zero length is left as is and 0 is returned.
func normalize(v []float64) float64 {
	d := lenSq(v)
	if d <= normalizeEpsilon {
		return 0
	}
	d = math.Sqrt(d)
	inv := 1 / d
	for i := range v {
		v[i] *= inv
	}
	return d
}

// normalizeSub sets dst to the unit vector pointing from b to a, returning
// the distance between them.
func normalizeSub(dst, a, b []float64) float64 {
	sub(dst, a, b)
	return normalize(dst)
}

func copyVec(dst, a []float64) { copy(dst, a) }

func zero(dst []float64) { clear(dst) }

// sub sets dst = a - b.
func sub(dst, a, b []float64) {
	for i := range dst {
		dst[i] = a[i] - b[i]
	}
}

// add sets dst = a + b.
func add(dst, a, b []float64) {
	for i := range dst {
		dst[i] = a[i] + b[i]
	}
}

// scale sets dst = a * s.
func scale(dst, a []float64, s float64) {
	for i := range dst {
		dst[i] = a[i] * s
	}
}

// madd sets dst = a + b*s.
func madd(dst, a, b []float64, s float64) {
	for i := range dst {
		dst[i] = a[i] + b[i]*s
	}
}

// msub sets dst = a - b*s.
func msub(dst, a, b []float64, s float64) {
	for i := range dst {
		dst[i] = a[i] - b[i]*s
	}
}

// projectPlane sets dst to v with its component along the unit vector n
// removed.
func projectPlane(dst, v, n []float64) {
	msub(dst, v, n, dot(v, n))
}

// flip sets dst to the reflection of v2 through v1, which gives a plausible
// handle on the far side of a knot that has only one real neighbor.
func flip(dst, v1, v2 []float64) {
	for i := range dst {
		dst[i] = v1[i] + (v1[i] - v2[i])
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isAlmostZero(f float64) bool {
	const epsilon = 1e-12
	return f > -epsilon && f < epsilon
}

// angleBetween returns the angle in radians between the directions a
// and b, in [0, π]. Zero vectors give 0.
func angleBetween(a, b []float64) float64 {
	la, lb := length(a), length(b)
	if la == 0 || lb == 0 {
		return 0
	}
	c := dot(a, b) / (la * lb)
	return math.Acos(max(-1, min(1, c)))
}
