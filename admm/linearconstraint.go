package admm

// linearConstraintTerm implements the two constraint kinds: LinearEquality
// (aᵀx = c) when equality is true, and LinearInequality (aᵀx ≤ c or
// aᵀx ≥ c, per comparator) otherwise. Constraint terms never carry a
// weight.
type linearConstraintTerm struct {
	hp         Hyperplane
	locals     []LocalVariable
	comparator Comparator
	equality   bool
}

func (t *linearConstraintTerm) Kind() TermKind {
	if t.equality {
		return KindLinearEquality
	}
	return KindLinearInequality
}

func (t *linearConstraintTerm) Locals() []LocalVariable { return t.locals }

func (t *linearConstraintTerm) UpdateLagrange(rho float32, z []float32) {
	updateLagrangeLocals(t.locals, rho, z)
}

// Minimize solves the constraint term's ADMM x-subproblem. Equality
// always projects u onto the hyperplane aᵀx = c. Inequality accepts u
// unchanged when it already satisfies the constraint, and otherwise
// projects onto the active face aᵀx = c.
func (t *linearConstraintTerm) Minimize(rho float32, z []float32) {
	u := consensusOffset(t.locals, rho, z)
	if t.hp.Degenerate() {
		writeLocals(t.locals, u)
		return
	}

	a := coeffsOf(t.hp)
	c := t.hp.Constant
	aTu := t.hp.Dot(u)

	if !t.equality && t.satisfies(aTu, c) {
		writeLocals(t.locals, u)
		return
	}

	writeLocals(t.locals, projectOntoHyperplane(u, a, c, t.hp.CoeffSqNorm, aTu))
}

func (t *linearConstraintTerm) satisfies(lhs, c float32) bool {
	if t.comparator == ComparatorGE {
		return lhs >= c
	}
	return lhs <= c
}

// Evaluate returns the non-negative violation amount: 0 if feasible
// (within feasEpsilon), otherwise how far z is from satisfying the
// constraint.
func (t *linearConstraintTerm) Evaluate(z []float32) float32 {
	aTz := t.hp.Dot(consensusSlice(t.locals, z))
	c := t.hp.Constant

	if t.equality {
		viol := aTz - c
		if viol < 0 {
			viol = -viol
		}
		if viol <= feasEpsilon {
			return 0
		}
		return viol
	}

	var viol float32
	if t.comparator == ComparatorGE {
		viol = c - aTz
	} else {
		viol = aTz - c
	}
	if viol <= feasEpsilon {
		return 0
	}
	return viol
}
