package admm

import "gonum.org/v1/gonum/floats"

// Hyperplane is the immutable (coefficients, constant) pair that every
// ObjectiveTerm carries: it defines the linear form aᵀx - c that hinge,
// squared-hinge, and constraint penalties are built from.
//
// A Hyperplane is constructed once during grounding and never mutated.
// CoeffSqNorm is precomputed at construction time so Minimize never has to
// recompute ‖a‖² on the hot path.
type Hyperplane struct {
	// Coefficients holds a[k] for each of the K local variables this term
	// references, in the same order as GlobalIndices.
	Coefficients []float32

	// Constant is c in aᵀx - c.
	Constant float32

	// GlobalIndices holds the global variable index g_k each local slot
	// k maps to. len(GlobalIndices) == len(Coefficients).
	GlobalIndices []int

	// CoeffSqNorm is ‖a‖², cached at construction time.
	CoeffSqNorm float32
}

// NewHyperplane builds a Hyperplane from grounding-supplied coefficients,
// constant, and global variable indices, precomputing ‖a‖².
func NewHyperplane(coefficients []float32, constant float32, globalIndices []int) Hyperplane {
	return Hyperplane{
		Coefficients:  coefficients,
		Constant:      constant,
		GlobalIndices: globalIndices,
		CoeffSqNorm:   dotSquareFloat32(coefficients),
	}
}

// Size returns the number of local variables this hyperplane references.
func (h Hyperplane) Size() int {
	return len(h.Coefficients)
}

// Degenerate reports whether ‖a‖² is zero, the "degenerate term" case from
// the error handling design: every Minimize sets such a term's locals to
// u and never divides by ‖a‖² (or CoeffSqNorm). Evaluate still scores it
// as aᵀz = 0 against the constant.
func (h Hyperplane) Degenerate() bool {
	return h.CoeffSqNorm == 0
}

// Dot computes aᵀx for a local-value slice x of the same length as
// Coefficients, using gonum's float64 dot product for the reduction and
// truncating back to float32 (local scratch only; dotSquareFloat32 widens
// the same way, and the reasoner takes its residual square roots in
// float64).
func (h Hyperplane) Dot(x []float32) float32 {
	if len(x) == 0 {
		return 0
	}
	a64 := make([]float64, len(h.Coefficients))
	x64 := make([]float64, len(x))
	for i, v := range h.Coefficients {
		a64[i] = float64(v)
	}
	for i, v := range x {
		x64[i] = float64(v)
	}
	return float32(floats.Dot(a64, x64))
}

// dotSquareFloat32 computes ‖a‖² = aᵀa for a float32 slice via gonum's
// float64 dot product, truncating the result back to float32.
func dotSquareFloat32(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	a64 := make([]float64, len(a))
	for i, v := range a {
		a64[i] = float64(v)
	}
	return float32(floats.Dot(a64, a64))
}
