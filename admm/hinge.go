package admm

// hingeTerm implements the piecewise-linear penalty w * max(0, aᵀx - c).
type hingeTerm struct {
	hp     Hyperplane
	weight float32
	locals []LocalVariable
}

func (t *hingeTerm) Kind() TermKind          { return KindHinge }
func (t *hingeTerm) Locals() []LocalVariable { return t.locals }

func (t *hingeTerm) UpdateLagrange(rho float32, z []float32) {
	updateLagrangeLocals(t.locals, rho, z)
}

// Minimize solves the hinge ADMM x-subproblem. With u_i = z[g_i] - y_i/ρ:
// first try the "hinge active" candidate x = u - (w/ρ)a; if it remains in
// the active region (aᵀx ≥ c) it is the solution. Otherwise, if u itself
// is already feasible for the hinge (aᵀu ≤ c, hinge slack), x = u.
// Otherwise the solution lies on the crease aᵀx = c: project u onto it.
func (t *hingeTerm) Minimize(rho float32, z []float32) {
	u := consensusOffset(t.locals, rho, z)
	if t.hp.Degenerate() {
		writeLocals(t.locals, u)
		return
	}

	a := coeffsOf(t.hp)
	c := t.hp.Constant
	aTu := t.hp.Dot(u)

	// Active-region candidate: x = u - (w/ρ)a.
	coeff := t.weight / rho
	candidate := axpy(u, -coeff, a)
	if t.hp.Dot(candidate) >= c {
		writeLocals(t.locals, candidate)
		return
	}

	// Hinge slack at u: x = u.
	if aTu <= c {
		writeLocals(t.locals, u)
		return
	}

	// On the crease: project u onto aᵀx = c.
	writeLocals(t.locals, projectOntoHyperplane(u, a, c, t.hp.CoeffSqNorm, aTu))
}

func (t *hingeTerm) Evaluate(z []float32) float32 {
	aTz := t.hp.Dot(consensusSlice(t.locals, z))
	viol := aTz - t.hp.Constant
	if viol <= 0 {
		return 0
	}
	return t.weight * viol
}
