// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pslgo/reasoner/admm"
)

var (
	termsFile    string
	optionsFile  string
	atomsFile    string
	logLevel     string
	maxIter      int
	stepSize     float64
	epsilonAbs   float64
	epsilonRel   float64
	computePerd  int
	objBreak     bool
	initConsStr  string
	initLocalStr string
	numThreads   int
	seed         int64
)

var rootCmd = &cobra.Command{
	Use:   "psl-reasoner",
	Short: "Parallel ADMM reasoner for Probabilistic Soft Logic ground rules",
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a term store produced by a grounding layer",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		descriptors, numAtoms, err := loadTerms(termsFile)
		if err != nil {
			return fmt.Errorf("loading terms from %s: %w", termsFile, err)
		}

		atoms := admm.NewMemoryAtomStore(numAtoms)
		if atomsFile != "" {
			if err := loadAtoms(atomsFile, atoms); err != nil {
				return fmt.Errorf("loading atoms from %s: %w", atomsFile, err)
			}
		}

		cfg := admm.DefaultConfig()
		if optionsFile != "" {
			opts, err := loadOptions(optionsFile)
			if err != nil {
				return fmt.Errorf("loading options from %s: %w", optionsFile, err)
			}
			cfg, err = applyOptions(cfg, opts)
			if err != nil {
				return fmt.Errorf("applying options from %s: %w", optionsFile, err)
			}
		}
		cfg, err = applyFlags(cfg, cmd)
		if err != nil {
			return fmt.Errorf("applying flag overrides: %w", err)
		}

		store := admm.NewTermStore(atoms)
		for i, d := range descriptors {
			if _, err := store.Add(d); err != nil {
				return fmt.Errorf("adding term %d: %w", i, err)
			}
		}

		logrus.Infof("Solving %d terms over %d atoms (maxIter=%d, rho=%v, workers=%d)",
			store.NumTerms(), store.NumGlobals(), cfg.MaxIterations, cfg.StepSize, cfg.NumWorkers)

		reasoner, err := admm.NewADMMReasoner(cfg)
		if err != nil {
			return err
		}

		report, err := reasoner.Optimize(store)
		if err != nil {
			return err
		}

		printReport(report)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func printReport(r admm.Report) {
	fmt.Println("=== ADMM Solve Report ===")
	fmt.Printf("Iterations           : %d\n", r.Iterations)
	fmt.Printf("Converged            : %v\n", r.Converged)
	fmt.Printf("Primal Residual      : %v\n", r.PrimalResidual)
	fmt.Printf("Dual Residual        : %v\n", r.DualResidual)
	fmt.Printf("Objective            : %v\n", r.Objective)
	fmt.Printf("Violated Constraints : %d\n", r.ViolatedConstraints)
	fmt.Printf("Duration             : %v\n", r.Duration)
	for _, v := range r.ViolatingTerms {
		fmt.Printf("  - %s\n", v)
	}
}

func init() {
	solveCmd.Flags().StringVar(&termsFile, "terms", "", "Path to a JSON-lines file of term descriptors (required)")
	solveCmd.Flags().StringVar(&optionsFile, "config", "", "Path to a YAML options file overriding ADMM defaults")
	solveCmd.Flags().StringVar(&atomsFile, "atoms", "", "Path to a JSON file of initial atom values (required for ATOM init policies)")
	solveCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	solveCmd.Flags().IntVar(&maxIter, "max-iterations", 0, "Override admm.maxiterations")
	solveCmd.Flags().Float64Var(&stepSize, "step-size", 0, "Override admm.stepsize")
	solveCmd.Flags().Float64Var(&epsilonAbs, "epsilon-abs", 0, "Override admm.epsilonabs")
	solveCmd.Flags().Float64Var(&epsilonRel, "epsilon-rel", 0, "Override admm.epsilonrel")
	solveCmd.Flags().IntVar(&computePerd, "compute-period", 0, "Override admm.computeperiod")
	solveCmd.Flags().BoolVar(&objBreak, "objective-break", false, "Override admm.objectivebreak")
	solveCmd.Flags().StringVar(&initConsStr, "initial-consensus", "", "Override admm.initialconsensusvalue (ZERO|RANDOM|ATOM)")
	solveCmd.Flags().StringVar(&initLocalStr, "initial-local", "", "Override admm.initiallocalvalue (ZERO|RANDOM|ATOM)")
	solveCmd.Flags().IntVar(&numThreads, "threads", 0, "Override parallel.numthreads")
	solveCmd.Flags().Int64Var(&seed, "seed", 0, "RNG seed for RANDOM initialization")
	_ = solveCmd.MarkFlagRequired("terms")

	rootCmd.AddCommand(solveCmd)
}
