package admm

import "fmt"

// TermKind tags which convex penalty or linear constraint a term encodes.
type TermKind int

const (
	// KindHinge is w * max(0, aᵀx - c).
	KindHinge TermKind = iota
	// KindSquaredHinge is w * max(0, aᵀx - c)².
	KindSquaredHinge
	// KindLinearEquality is the constraint aᵀx = c.
	KindLinearEquality
	// KindLinearInequality is the constraint aᵀx ≤ c or aᵀx ≥ c,
	// distinguished by Comparator.
	KindLinearInequality
)

func (k TermKind) String() string {
	switch k {
	case KindHinge:
		return "hinge"
	case KindSquaredHinge:
		return "squared-hinge"
	case KindLinearEquality:
		return "linear-equality"
	case KindLinearInequality:
		return "linear-inequality"
	default:
		return fmt.Sprintf("unknown-kind(%d)", int(k))
	}
}

// isConstraint reports whether this kind is a constraint (no weight) as
// opposed to an objective penalty.
func (k TermKind) isConstraint() bool {
	return k == KindLinearEquality || k == KindLinearInequality
}

// Comparator distinguishes the two senses a LinearInequality can take.
type Comparator int

const (
	// ComparatorLE is aᵀx ≤ c.
	ComparatorLE Comparator = iota
	// ComparatorGE is aᵀx ≥ c.
	ComparatorGE
)

func (c Comparator) String() string {
	if c == ComparatorGE {
		return ">="
	}
	return "<="
}

// feasEpsilon is the floating-point tolerance below which a constraint
// violation is treated as zero: violations equal to floating-point ε are
// ties, not infeasibilities.
const feasEpsilon = 1e-5

// ObjectiveTerm is the shared contract every term kind (Hinge,
// SquaredHinge, LinearEquality, LinearInequality) implements over a
// shared consensus vector z and step size ρ.
type ObjectiveTerm interface {
	// Kind reports which concrete variant this term is.
	Kind() TermKind

	// Locals returns this term's local-variable slots, in hyperplane
	// order. The returned slice aliases the term's internal storage;
	// callers (the TermStore) may take addresses into it but must never
	// append to or replace it.
	Locals() []LocalVariable

	// UpdateLagrange performs y_i += ρ(x_i - z[g_i]) for every local
	// variable. Called once per iteration, before Minimize.
	UpdateLagrange(rho float32, z []float32)

	// Minimize solves this term's ADMM x-subproblem in place, writing
	// new x_i values into its local variables. Does not touch z.
	Minimize(rho float32, z []float32)

	// Evaluate returns the weighted penalty (objective terms) or the
	// non-negative constraint violation amount (constraint terms) at the
	// given consensus vector.
	Evaluate(z []float32) float32
}

// TermDescriptor is the wire shape a grounding layer hands the TermStore
// to construct one ground-rule term:
// (kind, weight?, coefficients[], constant, variableGlobalIndices[], comparator?).
type TermDescriptor struct {
	Kind          TermKind
	Weight        float32 // ignored for constraint kinds
	Coefficients  []float32
	Constant      float32
	GlobalIndices []int
	Comparator    Comparator // only meaningful for KindLinearInequality
}

// NewTerm constructs the concrete ObjectiveTerm described by d. It does
// not register the term with any TermStore or assign global indices
// beyond what d already specifies; see TermStore.Add for that.
func NewTerm(d TermDescriptor) (ObjectiveTerm, error) {
	if len(d.Coefficients) != len(d.GlobalIndices) {
		return nil, fmt.Errorf("%w: term has %d coefficients but %d variable indices", ErrShape, len(d.Coefficients), len(d.GlobalIndices))
	}
	if len(d.Coefficients) == 0 {
		return nil, fmt.Errorf("%w: term has no variables", ErrShape)
	}
	if !d.Kind.isConstraint() && d.Weight < 0 {
		return nil, fmt.Errorf("%w: weight must be >= 0, got %v", ErrConfig, d.Weight)
	}

	hp := NewHyperplane(d.Coefficients, d.Constant, d.GlobalIndices)
	locals := make([]LocalVariable, len(d.GlobalIndices))
	for i, g := range d.GlobalIndices {
		locals[i] = LocalVariable{GlobalIndex: g}
	}

	switch d.Kind {
	case KindHinge:
		return &hingeTerm{hp: hp, weight: d.Weight, locals: locals}, nil
	case KindSquaredHinge:
		return &squaredHingeTerm{hp: hp, weight: d.Weight, locals: locals}, nil
	case KindLinearEquality:
		return &linearConstraintTerm{hp: hp, locals: locals, comparator: ComparatorLE, equality: true}, nil
	case KindLinearInequality:
		return &linearConstraintTerm{hp: hp, locals: locals, comparator: d.Comparator, equality: false}, nil
	default:
		return nil, fmt.Errorf("%w: unknown term kind %v", ErrConfig, d.Kind)
	}
}

// updateLagrangeLocals is the shared y_i += ρ(x_i - z[g_i]) update used by
// every term kind.
func updateLagrangeLocals(locals []LocalVariable, rho float32, z []float32) {
	for i := range locals {
		lv := &locals[i]
		lv.Lagrange += rho * (lv.Value - z[lv.GlobalIndex])
	}
}

// consensusOffset computes u_i = z[g_i] - y_i/ρ for every local variable,
// the shared starting point for every closed-form minimize solution.
func consensusOffset(locals []LocalVariable, rho float32, z []float32) []float32 {
	u := make([]float32, len(locals))
	for i, lv := range locals {
		u[i] = z[lv.GlobalIndex] - lv.Lagrange/rho
	}
	return u
}

// coeffsOf extracts the a_i coefficients in local-variable order.
func coeffsOf(hp Hyperplane) []float32 {
	return hp.Coefficients
}
