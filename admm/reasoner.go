package admm

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pslgo/reasoner/admm/parallel"
)

// ADMMReasoner orchestrates the consensus-ADMM iteration: parallel term
// updates, parallel variable updates, residual accumulation, and the stop
// tests, against a TermStore it does not own.
type ADMMReasoner struct {
	config Config
	rng    *rand.Rand
}

// NewADMMReasoner validates cfg and returns a reasoner ready to optimize
// any compatible TermStore. Returns a ErrConfig-wrapped error immediately
// if cfg is invalid; Optimize is never reached with a bad configuration.
func NewADMMReasoner(cfg Config) (*ADMMReasoner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ADMMReasoner{config: cfg, rng: NewSeededRNG(cfg.Seed)}, nil
}

// varAccum is one variable-phase worker's contribution to the iteration's
// residual telemetry, returned from parallel.RunReduce and folded
// sequentially by the calling goroutine, a plain loop standing in for a
// shared critical section instead of a lock.
type varAccum struct {
	primalResInc float32
	dualResInc   float32
	axNormInc    float32
	ayNormInc    float32
	bzNormInc    float32
}

// evalResult is one full pass of Evaluate over every term.
type evalResult struct {
	objective      float32
	violatedCount  int
	violatingTerms []string
}

// Optimize runs the ADMM loop against store until convergence or
// MaxIterations, mutates store's consensus vector, calls store.WriteBack,
// and always returns a Report -- even when the solve did not converge or
// left constraints violated. Non-convergence and infeasibility are
// reported, not returned as errors.
func (r *ADMMReasoner) Optimize(store *TermStore) (Report, error) {
	if err := r.config.Validate(); err != nil {
		return Report{}, err
	}
	if store == nil || store.NumTerms() == 0 {
		return Report{}, fmt.Errorf("%w: cannot optimize an empty term store", ErrShape)
	}

	start := time.Now()
	rho := r.config.StepSize

	z, err := store.InitConsensus(r.config.InitialConsensus, r.rng)
	if err != nil {
		return Report{}, err
	}
	if err := store.ResetLocals(r.config.InitialLocal, r.rng); err != nil {
		return Report{}, err
	}

	terms := store.Terms()
	numLocals := store.NumLocals()
	numGlobals := store.NumGlobals()

	termBlock := parallel.BlockSize(len(terms), r.config.NumWorkers)
	termRanges := parallel.Split(len(terms), termBlock)
	globalBlock := parallel.BlockSize(numGlobals, r.config.NumWorkers)
	globalRanges := parallel.Split(numGlobals, globalBlock)

	epsAbsTerm := float32(math.Sqrt(float64(numLocals))) * r.config.EpsilonAbs

	var (
		primalRes, dualRes     float32
		axNorm, ayNorm, bzNorm float32
		eval                   evalResult
		havePeriodicEval       bool
		prevPeriodicObjective  float32
		converged              bool
		iter                   int
	)

	for iter = 1; ; iter++ {
		if err := parallel.Run(termRanges, r.config.NumWorkers, func(rng parallel.Range) error {
			for i := rng.Lo; i < rng.Hi; i++ {
				t := terms[i]
				t.UpdateLagrange(rho, z)
				t.Minimize(rho, z)
			}
			return nil
		}); err != nil {
			return Report{}, err
		}

		accums, err := parallel.RunReduce(globalRanges, r.config.NumWorkers, func(rng parallel.Range) (varAccum, error) {
			var acc varAccum
			for g := rng.Lo; g < rng.Hi; g++ {
				locals := store.LocalsForGlobal(g)
				if len(locals) == 0 {
					continue
				}
				var sum float32
				for _, lv := range locals {
					sum += lv.Value + lv.Lagrange/rho
					acc.axNormInc += lv.Value * lv.Value
					acc.ayNormInc += lv.Lagrange * lv.Lagrange
				}
				newZ := clip01(sum / float32(len(locals)))
				oldZ := z[g]
				n := float32(len(locals))
				acc.dualResInc += (oldZ - newZ) * (oldZ - newZ) * n
				acc.bzNormInc += newZ * newZ * n

				for _, lv := range locals {
					diff := lv.Value - newZ
					acc.primalResInc += diff * diff
				}
				z[g] = newZ
			}
			return acc, nil
		})
		if err != nil {
			return Report{}, err
		}

		var primalSum, dualSum, axSum, aySum, bzSum float32
		for _, a := range accums {
			primalSum += a.primalResInc
			dualSum += a.dualResInc
			axSum += a.axNormInc
			aySum += a.ayNormInc
			bzSum += a.bzNormInc
		}
		primalRes = float32(math.Sqrt(float64(primalSum)))
		dualRes = rho * float32(math.Sqrt(float64(dualSum)))
		axNorm, ayNorm, bzNorm = axSum, aySum, bzSum

		epsPrimal := epsAbsTerm + r.config.EpsilonRel*float32(math.Max(math.Sqrt(float64(axNorm)), math.Sqrt(float64(bzNorm))))
		epsDual := epsAbsTerm + r.config.EpsilonRel*float32(math.Sqrt(float64(ayNorm)))

		periodicNow := iter%r.config.ComputePeriod == 0
		if periodicNow {
			eval = evaluateAll(terms, z)
		}

		maxIterExhausted := iter > r.config.MaxIterations
		residualsOK := iter > 1 && primalRes < epsPrimal && dualRes < epsDual
		objectiveStalled := false
		if r.config.ObjectiveBreak && periodicNow && havePeriodicEval {
			objectiveStalled = eval.objective == prevPeriodicObjective
		}
		if periodicNow {
			prevPeriodicObjective = eval.objective
			havePeriodicEval = true
		}

		done := false
		switch {
		case maxIterExhausted:
			// Hard bound: always stop, regardless of feasibility.
			done = true
			if !periodicNow {
				eval = evaluateAll(terms, z)
			}
		case residualsOK || objectiveStalled:
			// One extra evaluation to check feasibility before
			// committing to the break -- the "two-strike" semantics:
			// a still-violated constraint overrides this single
			// tentative break and the loop continues, but the override
			// is not re-attempted on every subsequent iteration, only
			// when a break condition fires again.
			if !periodicNow {
				eval = evaluateAll(terms, z)
			}
			if eval.violatedCount == 0 {
				done = true
				converged = residualsOK
			}
		}

		if done {
			break
		}
	}

	if err := store.WriteBack(z); err != nil {
		return Report{}, err
	}

	final := evaluateAll(terms, z)
	report := Report{
		Iterations:          iter,
		PrimalResidual:      primalRes,
		DualResidual:        dualRes,
		Objective:           final.objective,
		ViolatedConstraints: final.violatedCount,
		ViolatingTerms:      final.violatingTerms,
		Converged:           converged && final.violatedCount == 0,
		Duration:            time.Since(start),
	}

	switch {
	case report.ViolatedConstraints > 0:
		logrus.Warnf("admm: solve finished after %d iterations with %d violated constraint(s): %v",
			report.Iterations, report.ViolatedConstraints, report.ViolatingTerms)
	case !report.Converged:
		logrus.Warnf("admm: solve stopped after %d iterations without meeting residual tolerances (primal=%v dual=%v)",
			report.Iterations, report.PrimalResidual, report.DualResidual)
	}

	return report, nil
}

func evaluateAll(terms []ObjectiveTerm, z []float32) evalResult {
	var res evalResult
	for i, t := range terms {
		v := t.Evaluate(z)
		if t.Kind().isConstraint() {
			if v > 0 {
				res.violatedCount++
				res.violatingTerms = append(res.violatingTerms, fmt.Sprintf("term[%d] kind=%s violation=%v", i, t.Kind(), v))
			}
			continue
		}
		res.objective += v
	}
	return res
}
