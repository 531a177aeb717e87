package admm

import "time"

// Report is the structured telemetry Optimize always returns.
// Non-convergence and infeasibility are not errors; they are reported
// here alongside whatever z the solve reached.
type Report struct {
	// Iterations is the number of ADMM iterations actually run.
	Iterations int

	// PrimalResidual and DualResidual are the final residual norms.
	PrimalResidual float32
	DualResidual   float32

	// Objective is the total weighted penalty Σ evaluate(z) over every
	// objective term (hinge/squared-hinge) at the final z.
	Objective float32

	// ViolatedConstraints is the number of constraint terms whose
	// Evaluate(z) is still nonzero at the final z.
	ViolatedConstraints int

	// ViolatingTerms describes each violated constraint term, for the
	// warning log and for callers that want more than a count.
	ViolatingTerms []string

	// Converged reports whether the solve stopped because the primal and
	// dual residuals fell under tolerance with no violated constraints,
	// as opposed to exhausting MaxIterations or stalling on the
	// objective-break check.
	Converged bool

	// Duration is the wall-clock time Optimize spent iterating.
	Duration time.Duration
}
