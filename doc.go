// Package curvefit fits cubic Bézier curves to polylines of any
// dimension. It was designed for turning freehand strokes into editable
// curves, but works equally well for motion paths, animation curves
// (time as one of the dimensions) and other sampled data.
//
// # Features
//
//   - Recursive fitting (see [FitCubics])
//   - Incremental refitting, which produces fewer segments (see [Refit])
//   - Corner detection (see [DetectCorners])
//   - Fitting a single segment with fixed tangents (see [FitSingle])
//   - Closed curves (see [FitOptions.Cyclic] and [RefitOptions.Cyclic])
//   - Fitting many polylines concurrently (see [FitBatch] and [RefitBatch])
//
// # Points
//
// Points are passed as flat slices of float64, dims coordinates per point,
// and are never modified. Every function validates its input and returns an
// error wrapping [ErrInvalidInput] if it is malformed. Single precision
// variants of each function convert to float64 and back.
//
// # Results
//
// Both fitters return a [Result]: a sequence of knots, each with an incoming
// and an outgoing handle. [Result.OrigIndex] maps knots back to input
// points and [Result.CornerIndex] lists the knots whose handles are
// independent. Error thresholds are absolute distances; a point is within
// tolerance if its distance to the curve at its parameter doesn't exceed the
// threshold.
//
// # Corners
//
// A corner is a knot where the curve may change direction abruptly. Callers
// can pass the corners they know about, for example those found by
// [DetectCorners]. [Refit] can also insert corners of its own, see
// [RefitOptions.CornerAngle].
//
// # Choosing a fitter
//
// [FitCubics] splits the polyline at its worst point until every piece fits,
// which is fast. [Refit] starts with a knot on every point, removes knots
// cheapest first and then moves the remaining knots to where they fit best.
// It is slower, but typically needs noticeably fewer segments for the same
// threshold.
//
// # Literature
//
// This package makes use of the following ideas:
//   - [An Algorithm for Automatically Fitting Digitized Curves] by Philip J. Schneider
//   - [Approximate a circle with cubic Bézier curves] by Spencer Mortensen
//   - [A Primer on Bézier Curves]
//
// [An Algorithm for Automatically Fitting Digitized Curves]: https://dl.acm.org/doi/10.5555/90767.90941
// [Approximate a circle with cubic Bézier curves]: https://spencermortensen.com/articles/bezier-circle/
// [A Primer on Bézier Curves]: https://pomax.github.io/bezierinfo/
package curvefit
