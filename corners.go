package curvefit

import (
	"math"

	"github.com/bits-and-blooms/bitset"
)

// CornerOptions configures [DetectCorners].
type CornerOptions struct {
	// RadiusMin is the radius of the smallest feature treated as a corner.
	// Candidates closer together than this collapse into one.
	RadiusMin float64
	// RadiusMax is the radius at which the curve must no longer look like a
	// corner. Arcs turn steadily and still look sharp at RadiusMax, corners
	// don't.
	RadiusMax float64
	// SamplesMax bounds how many points are visited when looking for the
	// points at a given radius.
	SamplesMax int
	// AngleThreshold is the turning angle in radians, in (0, π], above which
	// a point is a corner.
	AngleThreshold float64
}

// DefaultCornerOptions returns options suited to a polyline whose features
// have the given length scale, typically the error threshold passed to the
// fitters.
func DefaultCornerOptions(scale float64) CornerOptions {
	return CornerOptions{
		RadiusMin:      scale / 8,
		RadiusMax:      scale * 2,
		SamplesMax:     16,
		AngleThreshold: 70 * math.Pi / 180,
	}
}

func (o CornerOptions) validate() error {
	if !isFinite(o.RadiusMin) || o.RadiusMin < 0 {
		return invalidInput("corner radius", "minimum %g must be finite and non-negative", o.RadiusMin)
	}
	if !isFinite(o.RadiusMax) || o.RadiusMax < o.RadiusMin {
		return invalidInput("corner radius", "maximum %g must be finite and at least the minimum %g", o.RadiusMax, o.RadiusMin)
	}
	if o.SamplesMax < 1 {
		return invalidInput("corner samples", "must be at least 1, got %d", o.SamplesMax)
	}
	if !(o.AngleThreshold > 0 && o.AngleThreshold <= math.Pi) {
		return invalidInput("corner angle", "must be in (0, π], got %g", o.AngleThreshold)
	}
	return nil
}

// DetectCorners returns the ascending indices of the points at which the
// polyline turns sharply. The first and last point are always included.
//
// A point is a corner if the curve turns by more than the angle threshold
// when measured at points halfway between the minimum and maximum radius
// from it, and still turns by more than that plus half the turn measured at
// the maximum radius. The second test rejects points on arcs, whose turn
// keeps growing with the radius.
func DetectCorners(points []float64, dims int, opts CornerOptions) ([]int, error) {
	p, err := NewPolyline(points, dims)
	if err != nil {
		return nil, err
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return detectCorners(p, opts), nil
}

type cornerDetector struct {
	pts        Polyline
	samplesMax int
	before     []float64
	after      []float64
	in, out    []float64
}

// anchor sets dst to the point at distance radius from point i along the
// polyline, walking in direction step from index start. It returns the index
// of the first point at or beyond radius, or false if the walk hits an end of
// the polyline or takes more than samplesMax steps.
func (d *cornerDetector) anchor(dst []float64, i, start, step int, radius float64) (int, bool) {
	center := d.pts.At(i)
	radiusSq := radius * radius
	n := d.pts.Len()
	steps := 0
	for j := start; j >= 0 && j < n; j += step {
		if distSq(center, d.pts.At(j)) >= radiusSq {
			sphereSegmentIntersect(dst, center, radius, d.pts.At(j-step), d.pts.At(j))
			return j, true
		}
		steps++
		if steps > d.samplesMax {
			break
		}
	}
	return 0, false
}

// sphereSegmentIntersect sets dst to the point where the segment from a,
// inside the sphere, to b, on or outside it, crosses the sphere.
func sphereSegmentIntersect(dst, center []float64, radius float64, a, b []float64) {
	var dd, fd, ff float64
	for k := range dst {
		dk := b[k] - a[k]
		fk := a[k] - center[k]
		dd += dk * dk
		fd += fk * dk
		ff += fk * fk
	}
	t := 1.0
	if dd > 0 {
		disc := max(0, fd*fd-dd*(ff-radius*radius))
		t = (-fd + math.Sqrt(disc)) / dd
		t = max(0, min(1, t))
	}
	for k := range dst {
		dst[k] = a[k] + (b[k]-a[k])*t
	}
}

// turn measures the turning angle at point i using the points at radius on
// either side. It returns the indices it found them at, so that a larger
// radius can resume the walk from there.
func (d *cornerDetector) turn(i, startBefore, startAfter int, radius float64) (angle float64, before, after int, ok bool) {
	before, ok = d.anchor(d.before, i, startBefore, -1, radius)
	if !ok {
		return 0, 0, 0, false
	}
	after, ok = d.anchor(d.after, i, startAfter, 1, radius)
	if !ok {
		return 0, 0, 0, false
	}
	p := d.pts.At(i)
	sub(d.in, p, d.before)
	sub(d.out, d.after, p)
	return angleBetween(d.in, d.out), before, after, true
}

func detectCorners(p Polyline, opts CornerOptions) []int {
	n := p.Len()
	if n <= 2 {
		if n == 1 {
			return []int{0}
		}
		return []int{0, 1}
	}
	d := &cornerDetector{
		pts:        p,
		samplesMax: opts.SamplesMax,
		before:     make([]float64, p.Dims),
		after:      make([]float64, p.Dims),
		in:         make([]float64, p.Dims),
		out:        make([]float64, p.Dims),
	}
	radiusMid := (opts.RadiusMin + opts.RadiusMax) / 2
	thr := opts.AngleThreshold

	flags := bitset.New(uint(n))
	score := make([]float64, n)
	for i := 1; i < n-1; i++ {
		sub(d.in, p.At(i), p.At(i-1))
		sub(d.out, p.At(i+1), p.At(i))
		if angleBetween(d.in, d.out) <= thr {
			continue
		}
		mid, before, after, ok := d.turn(i, i-1, i+1, radiusMid)
		if !ok || mid <= thr {
			continue
		}
		large, _, _, ok := d.turn(i, before, after, opts.RadiusMax)
		if !ok {
			continue
		}
		if diff := mid - large/2; diff > thr {
			flags.Set(uint(i))
			score[i] = diff
		}
	}
	candidates := flags.Count()
	corners := collapseRuns(p, flags, score, opts.RadiusMin)

	Logger().Debug("detect corners",
		"points", n,
		"candidates", candidates,
		"corners", len(corners)-2)
	return corners
}

// collapseRuns returns the first and last point of p and, for every run of
// flagged points each within radiusMin of the one before, the point of the
// run with the highest score.
func collapseRuns(p Polyline, flags *bitset.BitSet, score []float64, radiusMin float64) []int {
	n := p.Len()
	radiusMinSq := radiusMin * radiusMin
	corners := []int{0}
	for u, ok := flags.NextSet(0); ok; u, ok = flags.NextSet(u + 1) {
		best := int(u)
		j := best + 1
		for j < n && flags.Test(uint(j)) && distSq(p.At(j-1), p.At(j)) < radiusMinSq {
			if score[j] > score[best] {
				best = j
			}
			j++
		}
		corners = append(corners, best)
		u = uint(j - 1)
	}
	return append(corners, n-1)
}
