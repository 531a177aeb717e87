package admm

import "errors"

// ErrConfig marks a configuration error: a parameter that must be rejected
// before optimization starts (negative step size, unknown initialization
// policy, non-positive iteration bound, negative weight). Optimize never
// begins iterating when this class of error is present.
var ErrConfig = errors.New("admm: configuration error")

// ErrShape marks a structural mismatch between what a TermStore holds and
// what an operation expects of it: an empty store, or coefficients and
// variable indices of different lengths.
var ErrShape = errors.New("admm: shape error")
