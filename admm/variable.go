package admm

// LocalVariable is a single term's private copy of a consensus variable:
// its current value x, its Lagrange multiplier y for the consensus
// equality x = z[GlobalIndex], and the global index it is tied to.
//
// Exactly one LocalVariable exists per (term, hyperplane slot). It is
// created once when the owning term is added to a TermStore and never
// migrated to another term.
type LocalVariable struct {
	GlobalIndex int
	Value       float32 // x
	Lagrange    float32 // y
}

// Reset sets Value to x0 and zeroes the Lagrange multiplier, per the
// TermStore.ResetLocals contract: y is always reset to 0 regardless of
// the initialization policy used for x.
func (lv *LocalVariable) Reset(x0 float32) {
	lv.Value = x0
	lv.Lagrange = 0
}

// clip01 projects a consensus value into the box constraint [0,1] required
// of every GlobalVariable.
func clip01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
