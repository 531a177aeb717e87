package admm

import "math/rand"

// NewSeededRNG returns a deterministically-seeded random source for use
// by Random initialization policies. The reasoner core consumes
// randomness in exactly one place (TermStore initialization), so a
// single *rand.Rand per reasoner is sufficient: a fresh reasoner with a
// fixed seed + fixed thread count reproduces the same initial x/z values.
// Successive Optimize calls on one reasoner continue the same stream.
func NewSeededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
