package admm

import (
	"fmt"
	"math/rand"
)

// TermStore owns every ObjectiveTerm, the consensus vector z, and the
// inverted index from a global variable index to every LocalVariable
// that references it. It is the sole owner of terms and local variables:
// nothing else in this package holds a second copy.
//
// All terms are added during a single grounding phase, before Optimize
// runs. Nothing is added or removed during optimization; only x, y, and z
// mutate. After WriteBack, a TermStore is disposable.
type TermStore struct {
	atoms AtomStore

	terms []ObjectiveTerm

	// localsByGlobal[g] holds every LocalVariable across every term that
	// references global index g. Never empty for a g any term
	// references (TermStore invariant).
	localsByGlobal [][]*LocalVariable

	numLocals int
}

// NewTermStore creates an empty TermStore backed by the given atom store.
// atoms may be nil if neither ATOM initialization nor WriteBack will be
// used (tests frequently construct stores this way).
func NewTermStore(atoms AtomStore) *TermStore {
	return &TermStore{atoms: atoms}
}

// Add constructs and registers the term described by d, growing the
// global index space as needed, and returns the created term. The
// caller may read or (exceptionally) mutate the term's local variables
// through term.Locals(), which aliases the TermStore's own storage.
func (s *TermStore) Add(d TermDescriptor) (ObjectiveTerm, error) {
	term, err := NewTerm(d)
	if err != nil {
		return nil, err
	}

	locals := term.Locals()
	for i := range locals {
		g := locals[i].GlobalIndex
		if g < 0 {
			return nil, fmt.Errorf("%w: negative global index %d", ErrShape, g)
		}
		s.ensureGlobal(g)
		s.localsByGlobal[g] = append(s.localsByGlobal[g], &locals[i])
	}

	s.terms = append(s.terms, term)
	s.numLocals += len(locals)
	return term, nil
}

func (s *TermStore) ensureGlobal(g int) {
	if g < len(s.localsByGlobal) {
		return
	}
	grown := make([][]*LocalVariable, g+1)
	copy(grown, s.localsByGlobal)
	s.localsByGlobal = grown
}

// Terms returns every registered term, in the stable order they were
// added (the TermStore invariant that iteration order is stable across
// calls within a solve).
func (s *TermStore) Terms() []ObjectiveTerm {
	return s.terms
}

// NumTerms returns the number of registered terms.
func (s *TermStore) NumTerms() int {
	return len(s.terms)
}

// NumGlobals returns G, the highest global index referenced by any term
// plus one. Indices below it that no term references are counted too
// (their LocalsForGlobal list is empty).
func (s *TermStore) NumGlobals() int {
	return len(s.localsByGlobal)
}

// NumLocals returns the total number of LocalVariable slots across every
// term. Used by the reasoner to compute epsilonAbsTerm = sqrt(numLocals) * epsilonAbs
// -- the absolute residual tolerance scales with the number of local
// copies being reconciled, not the number of distinct atoms.
func (s *TermStore) NumLocals() int {
	return s.numLocals
}

// LocalsForGlobal returns every LocalVariable referencing global index g.
func (s *TermStore) LocalsForGlobal(g int) []*LocalVariable {
	return s.localsByGlobal[g]
}

// ResetLocals sets every local variable's x according to policy (0, a
// uniform draw, or the backing atom value) and always zeroes y. rng is
// consulted only for the Random policy and may be nil otherwise.
func (s *TermStore) ResetLocals(policy InitialValue, rng *rand.Rand) error {
	for _, term := range s.terms {
		locals := term.Locals()
		for i := range locals {
			lv := &locals[i]
			x0, err := s.initialValue(policy, lv.GlobalIndex, rng)
			if err != nil {
				return err
			}
			lv.Reset(x0)
		}
	}
	return nil
}

// InitConsensus sizes z to NumGlobals and fills it according to policy.
func (s *TermStore) InitConsensus(policy InitialValue, rng *rand.Rand) ([]float32, error) {
	z := make([]float32, s.NumGlobals())
	for g := range z {
		v, err := s.initialValue(policy, g, rng)
		if err != nil {
			return nil, err
		}
		z[g] = v
	}
	return z, nil
}

func (s *TermStore) initialValue(policy InitialValue, g int, rng *rand.Rand) (float32, error) {
	switch policy {
	case Zero:
		return 0, nil
	case Random:
		if rng == nil {
			return 0, fmt.Errorf("%w: Random initialization requires a non-nil RNG", ErrConfig)
		}
		return float32(rng.Float64()), nil
	case Atom:
		if s.atoms == nil {
			return 0, fmt.Errorf("%w: Atom initialization requires a non-nil AtomStore", ErrConfig)
		}
		return s.atoms.GetAtomValue(g), nil
	default:
		return 0, fmt.Errorf("%w: unknown initialization policy %v", ErrConfig, policy)
	}
}

// GetAtomValues reads every atom's current value from the backing store
// into z, which must already be sized to NumGlobals.
func (s *TermStore) GetAtomValues(z []float32) error {
	if s.atoms == nil {
		return fmt.Errorf("%w: GetAtomValues requires a non-nil AtomStore", ErrConfig)
	}
	for g := range z {
		z[g] = s.atoms.GetAtomValue(g)
	}
	return nil
}

// WriteBack pushes the final z[g] into the backing atom store for every g.
func (s *TermStore) WriteBack(z []float32) error {
	if s.atoms == nil {
		return fmt.Errorf("%w: WriteBack requires a non-nil AtomStore", ErrConfig)
	}
	for g, v := range z {
		s.atoms.SetAtomValue(g, v)
	}
	return nil
}
