package admm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func quickConfig() Config {
	cfg := DefaultConfig()
	cfg.NumWorkers = 1
	return cfg
}

// Scenario: a single hinge term with no competing force should settle on
// the feasible side of its own crease.
func TestScenario_SingleHinge(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindHinge,
		Weight:        1,
		Coefficients:  []float32{1},
		Constant:      0.5,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.InDelta(t, 0, report.Objective, 1e-4)
	assert.InDelta(t, 0, atoms.GetAtomValue(0), 1e-4)
}

// Scenario: a single equality constraint pulls its atom exactly to the
// constraint's constant.
func TestScenario_EqualityConstraint(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindLinearEquality,
		Coefficients:  []float32{1},
		Constant:      0.7,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.True(t, report.Converged)
	assert.InDelta(t, 0.7, atoms.GetAtomValue(0), 1e-3)
}

// Scenario: a single >= inequality constraint pulls an infeasible start up
// to its boundary and no further.
func TestScenario_InequalityConstraint(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindLinearInequality,
		Coefficients:  []float32{1},
		Constant:      0.5,
		GlobalIndices: []int{0},
		Comparator:    ComparatorGE,
	})
	assert.NoError(t, err)

	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.True(t, report.Converged)
	assert.InDelta(t, 0.5, atoms.GetAtomValue(0), 1e-3)
}

// Scenario: two squared-hinge terms pulling the same atom in opposite
// directions settle at their shared stationary point. For
// w1*max(0,x-0.2)^2 + w2*max(0,0.8-x)^2 with w1=w2=1, the derivative
// 4x-2 on the active interval (0.2,0.8) vanishes at x=0.5.
func TestScenario_TwoCoupledSquaredHinges(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindSquaredHinge,
		Weight:        1,
		Coefficients:  []float32{1},
		Constant:      0.2,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)
	_, err = store.Add(TermDescriptor{
		Kind:          KindSquaredHinge,
		Weight:        1,
		Coefficients:  []float32{-1},
		Constant:      -0.8,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.InDelta(t, 0.5, atoms.GetAtomValue(0), 0.01)
}

// Scenario: two equality constraints on the same atom demanding
// contradictory values can never both be satisfied by one consensus
// value; the solve must report a violated constraint rather than claim
// convergence.
func TestScenario_InfeasibleConstraints(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindLinearEquality,
		Coefficients:  []float32{1},
		Constant:      0.2,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)
	_, err = store.Add(TermDescriptor{
		Kind:          KindLinearEquality,
		Coefficients:  []float32{1},
		Constant:      0.8,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	cfg := quickConfig()
	cfg.MaxIterations = 20
	r, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.False(t, report.Converged)
	assert.Greater(t, report.ViolatedConstraints, 0)
}

// Scenario: the solve's outcome does not depend on the worker count --
// P=1 and P=8 reach objectives within 1e-2 of each other and the same
// number of violated constraints.
func TestScenario_ParallelismEquivalence(t *testing.T) {
	buildStore := func() *TermStore {
		atoms := NewMemoryAtomStore(4)
		store := NewTermStore(atoms)
		descriptors := []TermDescriptor{
			{Kind: KindHinge, Weight: 1, Coefficients: []float32{1}, Constant: 0.3, GlobalIndices: []int{0}},
			{Kind: KindHinge, Weight: 2, Coefficients: []float32{1}, Constant: 0.4, GlobalIndices: []int{1}},
			{Kind: KindSquaredHinge, Weight: 1, Coefficients: []float32{1, 1}, Constant: 0.5, GlobalIndices: []int{0, 2}},
			{Kind: KindSquaredHinge, Weight: 1, Coefficients: []float32{1, -1}, Constant: 0.1, GlobalIndices: []int{2, 3}},
			{Kind: KindLinearInequality, Coefficients: []float32{1}, Constant: 0.2, GlobalIndices: []int{3}, Comparator: ComparatorGE},
		}
		for _, d := range descriptors {
			if _, err := store.Add(d); err != nil {
				panic(err)
			}
		}
		return store
	}

	run := func(numWorkers int) Report {
		store := buildStore()
		cfg := DefaultConfig()
		cfg.NumWorkers = numWorkers
		cfg.MaxIterations = 500
		r, err := NewADMMReasoner(cfg)
		if err != nil {
			t.Fatalf("NewADMMReasoner: %v", err)
		}
		report, err := r.Optimize(store)
		if err != nil {
			t.Fatalf("Optimize: %v", err)
		}
		return report
	}

	serial := run(1)
	parallel := run(8)

	assert.InDelta(t, serial.Objective, parallel.Objective, 1e-2)
	assert.Equal(t, serial.ViolatedConstraints, parallel.ViolatedConstraints)
}

// Invariant: the consensus vector always stays inside [0,1], regardless
// of how far outside the box the objective terms would otherwise pull it.
func TestInvariant_ConsensusStaysInBox(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindHinge,
		Weight:        1000,
		Coefficients:  []float32{1},
		Constant:      -5,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	_, err = r.Optimize(store)
	assert.NoError(t, err)

	v := atoms.GetAtomValue(0)
	assert.GreaterOrEqual(t, v, float32(0))
	assert.LessOrEqual(t, v, float32(1))
}

// Invariant: two runs with the same seed and the same worker count
// produce bit-for-bit identical results.
func TestInvariant_Determinism(t *testing.T) {
	build := func() *TermStore {
		atoms := NewMemoryAtomStore(2)
		store := NewTermStore(atoms)
		_, _ = store.Add(TermDescriptor{Kind: KindHinge, Weight: 1, Coefficients: []float32{1}, Constant: 0.4, GlobalIndices: []int{0}})
		_, _ = store.Add(TermDescriptor{Kind: KindSquaredHinge, Weight: 1, Coefficients: []float32{1}, Constant: 0.6, GlobalIndices: []int{1}})
		return store
	}

	cfg := quickConfig()
	cfg.InitialLocal = Random
	cfg.InitialConsensus = Random
	cfg.Seed = 7

	r1, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report1, err := r1.Optimize(build())
	assert.NoError(t, err)

	r2, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report2, err := r2.Optimize(build())
	assert.NoError(t, err)

	// Duration is wall-clock and expected to differ between runs; every
	// other field must match exactly.
	report1.Duration = 0
	report2.Duration = 0
	assert.Equal(t, report1, report2)
}

// Invariant: Optimize rejects an empty term store instead of dividing an
// iteration loop by zero terms.
func TestOptimize_RejectsEmptyStore(t *testing.T) {
	store := NewTermStore(nil)
	r, err := NewADMMReasoner(quickConfig())
	assert.NoError(t, err)
	_, err = r.Optimize(store)
	assert.ErrorIs(t, err, ErrShape)
}

// Invariant: NewADMMReasoner rejects an invalid configuration before any
// iteration runs.
func TestNewADMMReasoner_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 0
	_, err := NewADMMReasoner(cfg)
	assert.ErrorIs(t, err, ErrConfig)
}

// Property: once the solve converges, every local copy agrees with the
// consensus value for the global variable it references -- the whole
// point of the consensus penalty is to drive x_i toward z[g_i].
func TestProperty_ConsensusConsistencyAtConvergence(t *testing.T) {
	atoms := NewMemoryAtomStore(3)
	store := NewTermStore(atoms)
	descriptors := []TermDescriptor{
		{Kind: KindHinge, Weight: 1, Coefficients: []float32{1}, Constant: 0.3, GlobalIndices: []int{0}},
		{Kind: KindSquaredHinge, Weight: 2, Coefficients: []float32{1}, Constant: 0.6, GlobalIndices: []int{0}},
		{Kind: KindLinearEquality, Coefficients: []float32{1}, Constant: 0.5, GlobalIndices: []int{1}},
		{Kind: KindSquaredHinge, Weight: 1, Coefficients: []float32{1, -1}, Constant: 0.1, GlobalIndices: []int{1, 2}},
	}
	var terms []ObjectiveTerm
	for _, d := range descriptors {
		term, err := store.Add(d)
		assert.NoError(t, err)
		terms = append(terms, term)
	}

	cfg := quickConfig()
	cfg.MaxIterations = 2000
	r, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)
	assert.True(t, report.Converged)

	for _, term := range terms {
		for _, lv := range term.Locals() {
			assert.InDelta(t, atoms.GetAtomValue(lv.GlobalIndex), lv.Value, 0.01)
		}
	}
}

// Property: for a single SquaredHinge term started away from its
// constrained optimum, the objective evaluated at the consensus value
// never increases as more ADMM steps run. With one term and one local,
// the Lagrange multiplier stays at zero every round (x always equals the
// z it just produced), so the z update collapses to the fixed-point
// contraction z' = (2*weight*constant + stepSize*z) / (2*weight +
// stepSize), which moves monotonically toward the constrained minimizer.
func TestProperty_ObjectiveDescendsMonotonically(t *testing.T) {
	build := func() *TermStore {
		atoms := NewMemoryAtomStore(1)
		atoms.SetAtomValue(0, 0.9)
		store := NewTermStore(atoms)
		_, err := store.Add(TermDescriptor{
			Kind:          KindSquaredHinge,
			Weight:        1,
			Coefficients:  []float32{1},
			Constant:      0.3,
			GlobalIndices: []int{0},
		})
		assert.NoError(t, err)
		return store
	}

	cfg := quickConfig()
	cfg.InitialConsensus = Atom
	cfg.InitialLocal = Atom
	cfg.EpsilonAbs = 0
	cfg.EpsilonRel = 0

	prevObjective := float32(math.MaxFloat32)
	for n := 1; n <= 30; n++ {
		cfg.MaxIterations = n
		r, err := NewADMMReasoner(cfg)
		assert.NoError(t, err)
		report, err := r.Optimize(build())
		assert.NoError(t, err)
		assert.LessOrEqual(t, report.Objective, prevObjective+1e-6,
			"objective increased from %v to %v at MaxIterations=%d", prevObjective, report.Objective, n)
		prevObjective = report.Objective
	}
}

// Property: the final consensus values do not depend on the order terms
// were added to the store -- each global variable's update is a plain
// sum over its locals, and addition of two floats commutes exactly.
// Exercised across several randomly weighted term sets from a seeded
// RNG rather than one fixed example.
func TestProperty_TermOrderIndependence(t *testing.T) {
	rng := NewSeededRNG(901)
	cfg := quickConfig()
	cfg.MaxIterations = 300

	for trial := 0; trial < 5; trial++ {
		descriptors := []TermDescriptor{
			{Kind: KindHinge, Weight: float32(1 + rng.Float64()), Coefficients: []float32{1}, Constant: float32(rng.Float64()), GlobalIndices: []int{0}},
			{Kind: KindSquaredHinge, Weight: float32(1 + rng.Float64()), Coefficients: []float32{1, -1}, Constant: float32(rng.Float64()), GlobalIndices: []int{0, 1}},
			{Kind: KindLinearInequality, Coefficients: []float32{1}, Constant: float32(rng.Float64()), GlobalIndices: []int{1}, Comparator: ComparatorLE},
		}

		run := func(order []int) *MemoryAtomStore {
			atoms := NewMemoryAtomStore(2)
			store := NewTermStore(atoms)
			for _, idx := range order {
				_, err := store.Add(descriptors[idx])
				assert.NoError(t, err)
			}
			r, err := NewADMMReasoner(cfg)
			assert.NoError(t, err)
			_, err = r.Optimize(store)
			assert.NoError(t, err)
			return atoms
		}

		forward := run([]int{0, 1, 2})
		reversed := run([]int{2, 1, 0})

		for g := 0; g < 2; g++ {
			assert.InDelta(t, forward.GetAtomValue(g), reversed.GetAtomValue(g), float64(cfg.EpsilonAbs),
				"trial %d global %d diverged by term order", trial, g)
		}
	}
}

// Property: a constraint term whose initial consensus value already
// satisfies the constraint is left where it started, within a small
// residual tolerance -- satisfied constraints contribute no corrective
// force to the solve.
func TestProperty_FeasibleEqualityDoesNotMove(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	atoms.SetAtomValue(0, 0.5)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindLinearEquality,
		Coefficients:  []float32{1},
		Constant:      0.5,
		GlobalIndices: []int{0},
	})
	assert.NoError(t, err)

	cfg := quickConfig()
	cfg.InitialConsensus = Atom
	cfg.InitialLocal = Atom
	r, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.InDelta(t, 0.5, atoms.GetAtomValue(0), float64(cfg.EpsilonAbs)*10)
}

func TestProperty_FeasibleInequalityDoesNotMove(t *testing.T) {
	atoms := NewMemoryAtomStore(1)
	atoms.SetAtomValue(0, 0.7)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{
		Kind:          KindLinearInequality,
		Coefficients:  []float32{1},
		Constant:      0.4,
		GlobalIndices: []int{0},
		Comparator:    ComparatorGE,
	})
	assert.NoError(t, err)

	cfg := quickConfig()
	cfg.InitialConsensus = Atom
	cfg.InitialLocal = Atom
	r, err := NewADMMReasoner(cfg)
	assert.NoError(t, err)
	report, err := r.Optimize(store)
	assert.NoError(t, err)

	assert.Equal(t, 0, report.ViolatedConstraints)
	assert.InDelta(t, 0.7, atoms.GetAtomValue(0), float64(cfg.EpsilonAbs)*10)
}
