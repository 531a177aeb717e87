package admm

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTermStore_AddTracksGlobalsAndLocals(t *testing.T) {
	store := NewTermStore(nil)
	_, err := store.Add(TermDescriptor{
		Kind:          KindHinge,
		Weight:        1,
		Coefficients:  []float32{1, 1},
		Constant:      1,
		GlobalIndices: []int{0, 2},
	})
	assert.NoError(t, err)

	assert.Equal(t, 1, store.NumTerms())
	assert.Equal(t, 3, store.NumGlobals()) // indices 0,1,2 -> slice len 3
	assert.Equal(t, 2, store.NumLocals())
	assert.Len(t, store.LocalsForGlobal(0), 1)
	assert.Len(t, store.LocalsForGlobal(1), 0)
	assert.Len(t, store.LocalsForGlobal(2), 1)
}

func TestTermStore_AddRejectsNegativeIndex(t *testing.T) {
	store := NewTermStore(nil)
	_, err := store.Add(TermDescriptor{
		Kind:          KindHinge,
		Coefficients:  []float32{1},
		GlobalIndices: []int{-1},
	})
	if !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
}

func TestTermStore_SharedGlobalAggregatesLocals(t *testing.T) {
	store := NewTermStore(nil)
	_, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1}, GlobalIndices: []int{0}})
	assert.NoError(t, err)
	_, err = store.Add(TermDescriptor{Kind: KindSquaredHinge, Coefficients: []float32{1}, GlobalIndices: []int{0}})
	assert.NoError(t, err)

	assert.Len(t, store.LocalsForGlobal(0), 2)
	assert.Equal(t, 2, store.NumLocals())
}

func TestTermStore_ResetLocals_Zero(t *testing.T) {
	store := NewTermStore(nil)
	term, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1}, GlobalIndices: []int{0}})
	assert.NoError(t, err)
	term.Locals()[0].Value = 0.9
	term.Locals()[0].Lagrange = 0.2

	assert.NoError(t, store.ResetLocals(Zero, nil))
	assert.Equal(t, float32(0), term.Locals()[0].Value)
	assert.Equal(t, float32(0), term.Locals()[0].Lagrange)
}

func TestTermStore_ResetLocals_RandomRequiresRNG(t *testing.T) {
	store := NewTermStore(nil)
	_, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1}, GlobalIndices: []int{0}})
	assert.NoError(t, err)

	err = store.ResetLocals(Random, nil)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for nil rng, got %v", err)
	}

	err = store.ResetLocals(Random, rand.New(rand.NewSource(1)))
	assert.NoError(t, err)
}

func TestTermStore_InitConsensus_Atom(t *testing.T) {
	atoms := NewMemoryAtomStore(2)
	atoms.SetAtomValue(0, 0.3)
	atoms.SetAtomValue(1, 0.7)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1, 1}, GlobalIndices: []int{0, 1}})
	assert.NoError(t, err)

	z, err := store.InitConsensus(Atom, nil)
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.7}, z)
}

func TestTermStore_InitConsensus_AtomRequiresStore(t *testing.T) {
	store := NewTermStore(nil)
	_, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1}, GlobalIndices: []int{0}})
	assert.NoError(t, err)
	_, err = store.InitConsensus(Atom, nil)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestTermStore_WriteBack(t *testing.T) {
	atoms := NewMemoryAtomStore(2)
	store := NewTermStore(atoms)
	_, err := store.Add(TermDescriptor{Kind: KindHinge, Coefficients: []float32{1, 1}, GlobalIndices: []int{0, 1}})
	assert.NoError(t, err)

	assert.NoError(t, store.WriteBack([]float32{0.4, 0.6}))
	assert.Equal(t, []float32{0.4, 0.6}, atoms.Values())
}

func TestTermStore_WriteBack_RequiresStore(t *testing.T) {
	store := NewTermStore(nil)
	err := store.WriteBack([]float32{0})
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}
