package curvefit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SVGOptions specifies optional settings for [Result.SVG] and
// [Result.WriteSVG].
type SVGOptions struct {
	// The maximum precision with which to format coordinates. A value of 0
	// chooses the highest precision necessary to unambiguously represent any
	// given coordinate.
	MaxPrecision int
}

// SVG converts a two-dimensional result to a string of SVG path commands.
//
// See [Result.WriteSVG] for a version that writes to an [io.Writer] instead
// of returning a string.
func (r *Result) SVG(opts SVGOptions) (string, error) {
	sb := &strings.Builder{}
	if err := r.WriteSVG(sb, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// WriteSVG converts a two-dimensional result to SVG path commands and writes
// them to w: a move to the first knot, one cubic per segment and, for
// cyclic results, a closing command.
func (r *Result) WriteSVG(w io.Writer, opts SVGOptions) error {
	if r.Dims != 2 {
		return invalidInput("dims", "SVG paths need 2 dimensions, got %d", r.Dims)
	}
	var err error
	writef := func(s string, v ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, s, v...)
	}
	format := func(n float64) string {
		if opts.MaxPrecision <= 0 {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
		s := strconv.FormatFloat(n, 'f', opts.MaxPrecision, 64)
		if strings.ContainsRune(s, '.') {
			s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		}
		return s
	}
	pt := func(p []float64) string {
		return format(p[0]) + "," + format(p[1])
	}

	if r.Len == 0 {
		return nil
	}
	writef("M%s", pt(r.Knot(0)))
	for i := range r.Segments() {
		_, p1, p2, p3 := r.Segment(i)
		writef(" C%s %s %s", pt(p1), pt(p2), pt(p3))
	}
	if r.Cyclic {
		writef(" Z")
	}
	return err
}
