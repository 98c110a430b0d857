package curvefit

import (
	"errors"
	"math"
	"testing"
)

func TestFitCubicsFloat32(t *testing.T) {
	r, err := FitCubicsFloat32([]float32{0, 0, 3, 0}, 2, 0.1, nil, DefaultFitOptions)
	if err != nil {
		t.Fatal(err)
	}
	want := &Result32{
		Dims:        2,
		Cubics:      []float32{-1, 0, 0, 0, 1, 0, 2, 0, 3, 0, 4, 0},
		Len:         2,
		OrigIndex:   []int{0, 1},
		CornerIndex: []int{0, 1},
	}
	diff(t, want, r)
}

func TestRefitFloat32(t *testing.T) {
	pts := toFloat32(circlePoints(32, 5))
	r64, err := Refit(toFloat64(pts), 2, 0.05, nil, RefitOptions{Cyclic: true})
	if err != nil {
		t.Fatal(err)
	}
	r32, err := RefitFloat32(pts, 2, 0.05, nil, RefitOptions{Cyclic: true})
	if err != nil {
		t.Fatal(err)
	}
	diff(t, r64.Float32(), r32)
}

func TestDetectCornersFloat32(t *testing.T) {
	opts := CornerOptions{
		RadiusMin:      0.1,
		RadiusMax:      0.5,
		SamplesMax:     4,
		AngleThreshold: math.Pi / 6,
	}
	got, err := DetectCornersFloat32([]float32{0, 0, 1, 0, 1, 1}, 2, opts)
	if err != nil {
		t.Fatal(err)
	}
	diff(t, []int{0, 1, 2}, got)
}

func TestFitSingleFloat32(t *testing.T) {
	f, err := FitSingleFloat32([]float32{0, 0, 3, 0}, 2, 0.1, []float32{1, 0}, []float32{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	diff(t, SingleFit32{
		HandleL: []float32{1, 0},
		HandleR: []float32{2, 0},
	}, f)

	if _, err := FitSingleFloat32([]float32{0, 0}, 2, 0.1, []float32{1, 0}, []float32{1, 0}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("got %v, want ErrInvalidInput", err)
	}
}
