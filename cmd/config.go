package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pslgo/reasoner/admm"
)

// Options mirrors the dotted configuration surface as a nested YAML
// document:
//
//	admm:
//	  maxiterations: 25000
//	  stepsize: 1.0
//	parallel:
//	  numthreads: 4
//
// Fields are pointers so an absent key means "leave the current value
// alone" rather than "set it to the zero value" -- flags override YAML,
// YAML overrides DefaultConfig().
type Options struct {
	Admm     AdmmOptions     `yaml:"admm"`
	Parallel ParallelOptions `yaml:"parallel"`
}

// AdmmOptions holds the admm.* option group.
type AdmmOptions struct {
	MaxIterations    *int     `yaml:"maxiterations"`
	StepSize         *float64 `yaml:"stepsize"`
	EpsilonAbs       *float64 `yaml:"epsilonabs"`
	EpsilonRel       *float64 `yaml:"epsilonrel"`
	ComputePeriod    *int     `yaml:"computeperiod"`
	ObjectiveBreak   *bool    `yaml:"objectivebreak"`
	InitialConsensus *string  `yaml:"initialconsensusvalue"`
	InitialLocal     *string  `yaml:"initiallocalvalue"`
}

// ParallelOptions holds the parallel.* option group.
type ParallelOptions struct {
	NumThreads *int `yaml:"numthreads"`
}

// loadOptions parses a YAML options file with strict field checking, so
// a typo'd key fails fast instead of silently leaving a default in place.
func loadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("reading options file: %w", err)
	}
	var opts Options
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&opts); err != nil {
		return Options{}, fmt.Errorf("parsing options YAML: %w", err)
	}
	return opts, nil
}

// applyOptions merges opts into cfg, leaving fields cfg already has
// whenever the corresponding YAML key was absent.
func applyOptions(cfg admm.Config, opts Options) (admm.Config, error) {
	if v := opts.Admm.MaxIterations; v != nil {
		cfg.MaxIterations = *v
	}
	if v := opts.Admm.StepSize; v != nil {
		cfg.StepSize = float32(*v)
	}
	if v := opts.Admm.EpsilonAbs; v != nil {
		cfg.EpsilonAbs = float32(*v)
	}
	if v := opts.Admm.EpsilonRel; v != nil {
		cfg.EpsilonRel = float32(*v)
	}
	if v := opts.Admm.ComputePeriod; v != nil {
		cfg.ComputePeriod = *v
	}
	if v := opts.Admm.ObjectiveBreak; v != nil {
		cfg.ObjectiveBreak = *v
	}
	if v := opts.Admm.InitialConsensus; v != nil {
		iv, err := parseInitialValue(*v)
		if err != nil {
			return cfg, err
		}
		cfg.InitialConsensus = iv
	}
	if v := opts.Admm.InitialLocal; v != nil {
		iv, err := parseInitialValue(*v)
		if err != nil {
			return cfg, err
		}
		cfg.InitialLocal = iv
	}
	if v := opts.Parallel.NumThreads; v != nil {
		cfg.NumWorkers = *v
	}
	return cfg, nil
}

// applyFlags overrides cfg with any solveCmd flag the user actually set,
// so unset flags (left at their zero value) never clobber a YAML or
// default value.
func applyFlags(cfg admm.Config, cmd *cobra.Command) (admm.Config, error) {
	flags := cmd.Flags()
	if flags.Changed("max-iterations") {
		cfg.MaxIterations = maxIter
	}
	if flags.Changed("step-size") {
		cfg.StepSize = float32(stepSize)
	}
	if flags.Changed("epsilon-abs") {
		cfg.EpsilonAbs = float32(epsilonAbs)
	}
	if flags.Changed("epsilon-rel") {
		cfg.EpsilonRel = float32(epsilonRel)
	}
	if flags.Changed("compute-period") {
		cfg.ComputePeriod = computePerd
	}
	if flags.Changed("objective-break") {
		cfg.ObjectiveBreak = objBreak
	}
	if flags.Changed("initial-consensus") {
		iv, err := parseInitialValue(initConsStr)
		if err != nil {
			return cfg, err
		}
		cfg.InitialConsensus = iv
	}
	if flags.Changed("initial-local") {
		iv, err := parseInitialValue(initLocalStr)
		if err != nil {
			return cfg, err
		}
		cfg.InitialLocal = iv
	}
	if flags.Changed("threads") {
		cfg.NumWorkers = numThreads
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	return cfg, nil
}

func parseInitialValue(s string) (admm.InitialValue, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ZERO":
		return admm.Zero, nil
	case "RANDOM":
		return admm.Random, nil
	case "ATOM":
		return admm.Atom, nil
	default:
		return 0, fmt.Errorf("%w: unknown initial value policy %q (want ZERO, RANDOM, or ATOM)", admm.ErrConfig, s)
	}
}

// termJSON is the JSON-lines wire shape a grounding layer emits: one line
// per ground-rule term's
// (kind, weight?, coefficients[], constant, variableGlobalIndices[], comparator?)
// tuple.
type termJSON struct {
	Kind         string    `json:"kind"`
	Weight       float64   `json:"weight,omitempty"`
	Coefficients []float64 `json:"coefficients"`
	Constant     float64   `json:"constant"`
	Variables    []int     `json:"variables"`
	Comparator   string    `json:"comparator,omitempty"`
}

// loadTerms parses a JSON-lines term file into TermDescriptors, and
// reports the number of atoms to allocate: the highest variable index
// seen, plus one.
func loadTerms(path string) ([]admm.TermDescriptor, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var descriptors []admm.TermDescriptor
	numAtoms := 0
	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var tj termJSON
		if err := json.Unmarshal([]byte(line), &tj); err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", lineNum, err)
		}
		d, err := termJSON2Descriptor(tj)
		if err != nil {
			return nil, 0, fmt.Errorf("line %d: %w", lineNum, err)
		}
		for _, g := range d.GlobalIndices {
			if g+1 > numAtoms {
				numAtoms = g + 1
			}
		}
		descriptors = append(descriptors, d)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return descriptors, numAtoms, nil
}

func termJSON2Descriptor(tj termJSON) (admm.TermDescriptor, error) {
	kind, err := parseKind(tj.Kind)
	if err != nil {
		return admm.TermDescriptor{}, err
	}
	coeffs := make([]float32, len(tj.Coefficients))
	for i, c := range tj.Coefficients {
		coeffs[i] = float32(c)
	}
	d := admm.TermDescriptor{
		Kind:          kind,
		Weight:        float32(tj.Weight),
		Coefficients:  coeffs,
		Constant:      float32(tj.Constant),
		GlobalIndices: tj.Variables,
	}
	if kind == admm.KindLinearInequality {
		cmp, err := parseComparator(tj.Comparator)
		if err != nil {
			return admm.TermDescriptor{}, err
		}
		d.Comparator = cmp
	}
	return d, nil
}

func parseKind(s string) (admm.TermKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hinge":
		return admm.KindHinge, nil
	case "squared-hinge", "squaredhinge":
		return admm.KindSquaredHinge, nil
	case "linear-equality", "linearequality", "equality":
		return admm.KindLinearEquality, nil
	case "linear-inequality", "linearinequality", "inequality":
		return admm.KindLinearInequality, nil
	default:
		return 0, fmt.Errorf("%w: unknown term kind %q", admm.ErrConfig, s)
	}
}

func parseComparator(s string) (admm.Comparator, error) {
	switch strings.TrimSpace(s) {
	case "<=", "le", "LE":
		return admm.ComparatorLE, nil
	case ">=", "ge", "GE":
		return admm.ComparatorGE, nil
	default:
		return 0, fmt.Errorf("%w: unknown comparator %q (want <= or >=)", admm.ErrConfig, s)
	}
}

// loadAtoms parses a JSON array of initial atom truth values into atoms.
func loadAtoms(path string, atoms *admm.MemoryAtomStore) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("parsing atoms JSON: %w", err)
	}
	dst := atoms.Values()
	if len(values) != len(dst) {
		return fmt.Errorf("%w: atoms file has %d values but terms reference %d atoms", admm.ErrShape, len(values), len(dst))
	}
	for i, v := range values {
		atoms.SetAtomValue(i, float32(v))
	}
	return nil
}
