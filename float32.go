package curvefit

// Float32 variants convert their input to float64, run the float64
// implementation and convert the result back.

// Result32 is a [Result] with single precision coordinates.
type Result32 struct {
	Dims        int
	Cubics      []float32
	Len         int
	OrigIndex   []int
	CornerIndex []int
	Cyclic      bool
}

func toFloat64(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

// Float32 returns r with its coordinates converted to single precision.
func (r *Result) Float32() *Result32 {
	return &Result32{
		Dims:        r.Dims,
		Cubics:      toFloat32(r.Cubics),
		Len:         r.Len,
		OrigIndex:   r.OrigIndex,
		CornerIndex: r.CornerIndex,
		Cyclic:      r.Cyclic,
	}
}

// FitCubicsFloat32 is like [FitCubics] for single precision points.
func FitCubicsFloat32(points []float32, dims int, errorThreshold float32, corners []int, opts FitOptions) (*Result32, error) {
	r, err := FitCubics(toFloat64(points), dims, float64(errorThreshold), corners, opts)
	if err != nil {
		return nil, err
	}
	return r.Float32(), nil
}

// RefitFloat32 is like [Refit] for single precision points.
func RefitFloat32(points []float32, dims int, errorThreshold float32, corners []int, opts RefitOptions) (*Result32, error) {
	r, err := Refit(toFloat64(points), dims, float64(errorThreshold), corners, opts)
	if err != nil {
		return nil, err
	}
	return r.Float32(), nil
}

// DetectCornersFloat32 is like [DetectCorners] for single precision points.
func DetectCornersFloat32(points []float32, dims int, opts CornerOptions) ([]int, error) {
	return DetectCorners(toFloat64(points), dims, opts)
}

// SingleFit32 is a [SingleFit] with single precision coordinates.
type SingleFit32 struct {
	HandleL, HandleR []float32
	ErrorSq          float32
	ErrorIndex       int
}

// FitSingleFloat32 is like [FitSingle] for single precision points.
func FitSingleFloat32(points []float32, dims int, errorThreshold float32, tanL, tanR []float32) (SingleFit32, error) {
	f, err := FitSingle(toFloat64(points), dims, float64(errorThreshold), toFloat64(tanL), toFloat64(tanR))
	if err != nil {
		return SingleFit32{}, err
	}
	return SingleFit32{
		HandleL:    toFloat32(f.HandleL),
		HandleR:    toFloat32(f.HandleR),
		ErrorSq:    float32(f.ErrorSq),
		ErrorIndex: f.ErrorIndex,
	}, nil
}
