// Package admm implements the numerical core of a Probabilistic Soft
// Logic inference engine: a parallel consensus-ADMM solver over ground
// rules compiled down to convex penalty and linear-constraint terms.
//
// # Reading Guide
//
// Start with these files to understand the solve:
//   - hyperplane.go: the immutable (coefficients, constant) value every term carries
//   - variable.go: the LocalVariable type and the [0,1] clip applied to consensus values
//   - term.go: the ObjectiveTerm interface and its four concrete kinds
//   - termstore.go: owns terms, the consensus vector, and the global->local index
//   - reasoner.go: the ADMM iteration loop, residuals, and stop tests
//
// # Architecture
//
// admm owns the term model and the optimization loop. It does not know how
// ground rules are produced (that is a grounding layer's job) or where atom
// truth values ultimately live (that is the AtomStore contract). The
// sub-package admm/parallel provides the worker-pool abstraction the
// reasoner uses to run term and variable updates concurrently.
//
// # Key Interfaces
//
//   - ObjectiveTerm: updateLagrange/minimize/evaluate over a shared consensus vector
//   - AtomStore: read/write bridge to the external atom backing store
package admm
