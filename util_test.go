package curvefit

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func diff(t *testing.T, want, got any, opts ...cmp.Option) {
	t.Helper()
	if d := cmp.Diff(want, got, opts...); d != "" {
		t.Error(d)
	}
}

// circlePoints samples n points on a circle of the given radius, without
// repeating the first point.
func circlePoints(n int, radius float64) []float64 {
	out := make([]float64, 0, 2*n)
	for i := range n {
		a := 2 * math.Pi * float64(i) / float64(n)
		out = append(out, radius*math.Cos(a), radius*math.Sin(a))
	}
	return out
}

// lShapePoints samples an L from (0,0) to (1,0) to (1,1) with n points per
// leg, sharing the corner point.
func lShapePoints(n int) []float64 {
	var out []float64
	for i := range n {
		out = append(out, float64(i)/float64(n), 0)
	}
	for i := range n + 1 {
		out = append(out, 1, float64(i)/float64(n))
	}
	return out
}

// sinePoints samples one period of a sine wave scaled by amp.
func sinePoints(n int, amp float64) []float64 {
	out := make([]float64, 0, 2*n)
	for i := range n {
		x := float64(i) / float64(n-1)
		out = append(out, x*10, amp*math.Sin(2*math.Pi*x))
	}
	return out
}

// helixPoints samples a 3D helix.
func helixPoints(n int) []float64 {
	out := make([]float64, 0, 3*n)
	for i := range n {
		a := 4 * math.Pi * float64(i) / float64(n-1)
		out = append(out, math.Cos(a), math.Sin(a), a/4)
	}
	return out
}

// maxDeviation returns the largest distance between any of points and the
// closest of densely sampled positions on r.
func maxDeviation(r *Result, points []float64) float64 {
	const samples = 200
	var curve [][]float64
	for i := range r.Segments() {
		for j := range samples + 1 {
			curve = append(curve, r.Eval(i, float64(j)/samples))
		}
	}
	var worst float64
	for o := 0; o < len(points); o += r.Dims {
		p := points[o : o+r.Dims]
		best := math.Inf(1)
		for _, c := range curve {
			best = min(best, distSq(p, c))
		}
		worst = max(worst, math.Sqrt(best))
	}
	return worst
}

// samplingSlack bounds the error maxDeviation adds by sampling: the longest
// control polygon of any segment divided by the number of samples.
func samplingSlack(r *Result) float64 {
	var longest float64
	for i := range r.Segments() {
		p0, p1, p2, p3 := r.Segment(i)
		longest = max(longest, dist(p0, p1)+dist(p1, p2)+dist(p2, p3))
	}
	return longest / 200
}

func checkTolerance(t *testing.T, r *Result, points []float64, threshold float64) {
	t.Helper()
	limit := threshold + samplingSlack(r) + 1e-9
	if d := maxDeviation(r, points); d > limit {
		t.Errorf("points deviate up to %g from the curve, want at most %g", d, limit)
	}
}

// checkSmooth verifies that the handles of every knot not listed as a corner
// are collinear with the knot.
func checkSmooth(t *testing.T, r *Result) {
	t.Helper()
	corner := make(map[int]bool)
	for _, c := range r.CornerIndex {
		corner[c] = true
	}
	in := make([]float64, r.Dims)
	out := make([]float64, r.Dims)
	for i := range r.Len {
		if corner[i] {
			continue
		}
		sub(in, r.Knot(i), r.HandleIn(i))
		sub(out, r.HandleOut(i), r.Knot(i))
		if normalize(in) == 0 || normalize(out) == 0 {
			continue
		}
		if d := dot(in, out); d < 1-1e-6 {
			t.Errorf("knot %d: handles not collinear, cos = %g", i, d)
		}
	}
}
