package admm

import (
	"fmt"
	"runtime"
)

// InitialValue selects how a TermStore initializes local or consensus
// variables at the start of a solve.
type InitialValue int

const (
	// Zero initializes every value to 0.
	Zero InitialValue = iota
	// Random initializes every value to a draw from U(0,1).
	Random
	// Atom initializes every value by reading the backing atom store.
	Atom
)

func (v InitialValue) String() string {
	switch v {
	case Zero:
		return "ZERO"
	case Random:
		return "RANDOM"
	case Atom:
		return "ATOM"
	default:
		return fmt.Sprintf("unknown-initial-value(%d)", int(v))
	}
}

func (v InitialValue) valid() bool {
	return v == Zero || v == Random || v == Atom
}

// Config groups the ADMM reasoner's tunable parameters into a plain
// struct passed to the reasoner constructor; nothing here is a
// package-level mutable variable.
type Config struct {
	// MaxIterations bounds the solve: it stops once the iteration count
	// exceeds this value, so at most MaxIterations+1 iterations run;
	// admm.maxiterations, default 25000.
	MaxIterations int

	// StepSize is ρ, the ADMM augmentation penalty; admm.stepsize, default 1.0.
	StepSize float32

	// EpsilonAbs is the absolute residual tolerance; admm.epsilonabs, default 1e-5.
	EpsilonAbs float32

	// EpsilonRel is the relative residual tolerance; admm.epsilonrel, default 1e-3.
	EpsilonRel float32

	// ComputePeriod is the number of iterations between full objective
	// evaluations; admm.computeperiod, default 50.
	ComputePeriod int

	// ObjectiveBreak, if true, also stops the solve when the objective
	// stops moving between two successive computations;
	// admm.objectivebreak, default false.
	ObjectiveBreak bool

	// InitialConsensus selects the consensus (z) initialization policy;
	// admm.initialconsensusvalue, default Zero.
	InitialConsensus InitialValue

	// InitialLocal selects the local (x) initialization policy;
	// admm.initiallocalvalue, default Zero.
	InitialLocal InitialValue

	// NumWorkers is the worker-pool width; parallel.numthreads, default
	// runtime.NumCPU().
	NumWorkers int

	// Seed seeds the deterministic RNG used by Random initialization.
	Seed int64
}

// DefaultConfig returns the reasoner's documented default tunables.
func DefaultConfig() Config {
	return Config{
		MaxIterations:    25000,
		StepSize:         1.0,
		EpsilonAbs:       1e-5,
		EpsilonRel:       1e-3,
		ComputePeriod:    50,
		ObjectiveBreak:   false,
		InitialConsensus: Zero,
		InitialLocal:     Zero,
		NumWorkers:       runtime.NumCPU(),
		Seed:             0,
	}
}

// Validate reports a configuration error if any tunable is out of range.
// Optimize must fail at entry, before any iteration runs, if these
// invariants don't hold.
func (c Config) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("%w: MaxIterations must be > 0, got %d", ErrConfig, c.MaxIterations)
	}
	if c.StepSize <= 0 {
		return fmt.Errorf("%w: StepSize must be > 0, got %v", ErrConfig, c.StepSize)
	}
	if c.EpsilonAbs < 0 {
		return fmt.Errorf("%w: EpsilonAbs must be >= 0, got %v", ErrConfig, c.EpsilonAbs)
	}
	if c.EpsilonRel < 0 {
		return fmt.Errorf("%w: EpsilonRel must be >= 0, got %v", ErrConfig, c.EpsilonRel)
	}
	if c.ComputePeriod <= 0 {
		return fmt.Errorf("%w: ComputePeriod must be > 0, got %d", ErrConfig, c.ComputePeriod)
	}
	if !c.InitialConsensus.valid() {
		return fmt.Errorf("%w: unknown InitialConsensus policy %v", ErrConfig, c.InitialConsensus)
	}
	if !c.InitialLocal.valid() {
		return fmt.Errorf("%w: unknown InitialLocal policy %v", ErrConfig, c.InitialLocal)
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("%w: NumWorkers must be > 0, got %d", ErrConfig, c.NumWorkers)
	}
	return nil
}
