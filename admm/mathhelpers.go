package admm

// writeLocals copies x back into the term's local variable values, in
// hyperplane order.
func writeLocals(locals []LocalVariable, x []float32) {
	for i := range locals {
		locals[i].Value = x[i]
	}
}

// consensusSlice reads the consensus values z[g_i] for a term's local
// variables, in hyperplane order. Used by Evaluate, which scores a term
// against the consensus vector rather than its own local copies.
func consensusSlice(locals []LocalVariable, z []float32) []float32 {
	out := make([]float32, len(locals))
	for i, lv := range locals {
		out[i] = z[lv.GlobalIndex]
	}
	return out
}

// axpy returns u + alpha*a elementwise (a plain, allocating AXPY; terms
// are small so this does not need to be in-place).
func axpy(u []float32, alpha float32, a []float32) []float32 {
	out := make([]float32, len(u))
	for i := range u {
		out[i] = u[i] + alpha*a[i]
	}
	return out
}

// projectOntoHyperplane projects u onto {x : aᵀx = c}, given the
// precomputed ‖a‖² and aᵀu.
func projectOntoHyperplane(u, a []float32, c, coeffSqNorm, aTu float32) []float32 {
	scale := (aTu - c) / coeffSqNorm
	return axpy(u, -scale, a)
}
