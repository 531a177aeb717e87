package admm

// squaredHingeTerm implements the smooth penalty w * max(0, aᵀx - c)².
type squaredHingeTerm struct {
	hp     Hyperplane
	weight float32
	locals []LocalVariable
}

func (t *squaredHingeTerm) Kind() TermKind          { return KindSquaredHinge }
func (t *squaredHingeTerm) Locals() []LocalVariable { return t.locals }

func (t *squaredHingeTerm) UpdateLagrange(rho float32, z []float32) {
	updateLagrangeLocals(t.locals, rho, z)
}

// Minimize solves the squared-hinge ADMM x-subproblem. With
// u_i = z[g_i] - y_i/ρ: if aᵀu ≤ c the hinge is slack and x = u.
// Otherwise the KKT stationarity condition for the active quadratic
// reduces to a rank-1 update along a:
//
//	x = u - (2w / (ρ + 2w‖a‖²)) * (aᵀu - c) * a
func (t *squaredHingeTerm) Minimize(rho float32, z []float32) {
	u := consensusOffset(t.locals, rho, z)
	if t.hp.Degenerate() {
		writeLocals(t.locals, u)
		return
	}

	a := coeffsOf(t.hp)
	c := t.hp.Constant
	aTu := t.hp.Dot(u)

	if aTu <= c {
		writeLocals(t.locals, u)
		return
	}

	coeff := (2 * t.weight * (aTu - c)) / (rho + 2*t.weight*t.hp.CoeffSqNorm)
	writeLocals(t.locals, axpy(u, -coeff, a))
}

func (t *squaredHingeTerm) Evaluate(z []float32) float32 {
	aTz := t.hp.Dot(consensusSlice(t.locals, z))
	viol := aTz - t.hp.Constant
	if viol <= 0 {
		return 0
	}
	return t.weight * viol * viol
}
