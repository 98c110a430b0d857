package curvefit

import (
	"errors"
	"math"
	"testing"

	"github.com/bits-and-blooms/bitset"
)

func TestDetectCornersRightAngle(t *testing.T) {
	// Half the turn at the large radius is subtracted, so a lone right angle
	// only passes thresholds below π/4.
	opts := CornerOptions{
		RadiusMin:      0.1,
		RadiusMax:      0.5,
		SamplesMax:     4,
		AngleThreshold: math.Pi / 6,
	}
	got, err := DetectCorners([]float64{0, 0, 1, 0, 1, 1}, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 1, 2}, got)
}

func TestDetectCornersDenseRightAngle(t *testing.T) {
	opts := CornerOptions{
		RadiusMin:      0.05,
		RadiusMax:      0.2,
		SamplesMax:     16,
		AngleThreshold: math.Pi / 6,
	}
	got, err := DetectCorners(lShapePoints(20), 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 20, 40}, got)
}

func TestDetectCornersSampleLimit(t *testing.T) {
	// Reaching the mid radius takes three steps.
	opts := CornerOptions{
		RadiusMin:      0.05,
		RadiusMax:      0.2,
		SamplesMax:     1,
		AngleThreshold: math.Pi / 6,
	}
	got, err := DetectCorners(lShapePoints(20), 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 40}, got)
}

func TestDetectCornersArc(t *testing.T) {
	// Each point of a coarse circle turns by 30°, but the turn grows with
	// the radius it's measured at, so none of them is a corner.
	opts := CornerOptions{
		RadiusMin:      0.3,
		RadiusMax:      1.2,
		SamplesMax:     16,
		AngleThreshold: math.Pi / 8,
	}
	got, err := DetectCorners(circlePoints(12, 1), 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 11}, got)
}

func TestDetectCornersCollapse(t *testing.T) {
	// An L whose corner is cut by a tiny chamfer: both chamfer points are
	// candidates, but only one may be reported.
	var pts []float64
	for i := range 20 {
		pts = append(pts, float64(i)/20, 0)
	}
	pts = append(pts, 0.99, 0, 1, 0.01)
	for j := 1; j <= 20; j++ {
		pts = append(pts, 1, float64(j)/20)
	}
	opts := CornerOptions{
		RadiusMin:      0.05,
		RadiusMax:      0.2,
		SamplesMax:     16,
		AngleThreshold: math.Pi / 6,
	}
	got, err := DetectCorners(pts, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || (got[1] != 20 && got[1] != 21) {
		t.Fatalf("got corners %v, want [0 20 41] or [0 21 41]", got)
	}
	diff(t, 41, got[2])
}

func TestDetectCornersShort(t *testing.T) {
	opts := DefaultCornerOptions(1)
	got, err := DetectCorners([]float64{5, 5}, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0}, got)

	got, err = DetectCorners([]float64{5, 5, 6, 6}, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 1}, got)
}

func TestDetectCornersInvalid(t *testing.T) {
	valid := DefaultCornerOptions(1)
	tests := []struct {
		name   string
		modify func(o *CornerOptions)
	}{
		{"negative radius", func(o *CornerOptions) { o.RadiusMin = -1 }},
		{"max below min", func(o *CornerOptions) { o.RadiusMax = o.RadiusMin / 2 }},
		{"no samples", func(o *CornerOptions) { o.SamplesMax = 0 }},
		{"zero angle", func(o *CornerOptions) { o.AngleThreshold = 0 }},
		{"angle too large", func(o *CornerOptions) { o.AngleThreshold = 4 }},
		{"NaN angle", func(o *CornerOptions) { o.AngleThreshold = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.modify(&o)
			_, err := DetectCorners([]float64{0, 0, 1, 0, 1, 1}, 2, o)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSphereSegmentIntersect(t *testing.T) {
	dst := make([]float64, 2)
	sphereSegmentIntersect(dst, []float64{0, 0}, 1, []float64{0, 0}, []float64{2, 0})
	diff(t, []float64{1, 0}, dst, equateApprox)
	sphereSegmentIntersect(dst, []float64{0, 0}, 1, []float64{0.5, 0}, []float64{0.5, 2})
	diff(t, []float64{0.5, math.Sqrt(0.75)}, dst, equateApprox)
}

func TestCollapseRuns(t *testing.T) {
	xs := []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 1.5, 1.6, 2}
	var pts []float64
	for _, x := range xs {
		pts = append(pts, x, 0)
	}
	p := Polyline{Points: pts, Dims: 2}
	score := make([]float64, len(xs))
	flags := bitset.New(uint(len(xs)))
	for i, s := range map[int]float64{2: 1, 3: 3, 4: 2, 5: 1, 7: 1, 8: 1} {
		flags.Set(uint(i))
		score[i] = s
	}
	// The run 2..5 is longer than the radius but each step is shorter. The
	// step from 7 to 8 is not.
	diff(t, []int{0, 3, 7, 8, 10}, collapseRuns(p, flags, score, 0.15))
}
