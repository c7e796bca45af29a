package evo

// CrossoverKind selects one of the supported crossover operators.
// The operator set is small and fixed, so it is modeled as a closed
// set of tagged variants rather than open-ended dispatch.
type CrossoverKind string

const (
	CrossoverTwoPoint CrossoverKind = "two-point"
	CrossoverHUX      CrossoverKind = "hux"
)

// MutationKind selects one of the supported mutation operators.
type MutationKind string

const (
	MutationBitFlip MutationKind = "bit-flip"
)

// EvalErrorPolicy decides what happens when a single objective
// evaluation fails.
type EvalErrorPolicy string

const (
	// EvalPenalize assigns the failed individual worst-possible
	// objective values so one simulator failure does not halt the
	// search. This is the default.
	EvalPenalize EvalErrorPolicy = "penalize"

	// EvalAbort stops the whole run on the first evaluation failure.
	EvalAbort EvalErrorPolicy = "abort"
)

// Config holds all run parameters. It is constructed once and
// read-only for the duration of a run.
type Config struct {
	// PopSize is the target population size P, held at the end of
	// every generation.
	PopSize int

	// Generations is the generation budget G.
	Generations int

	// CrossoverProb is the per-pair crossover probability.
	CrossoverProb float64

	// MutationProb is the per-gene mutation probability. A negative
	// value selects the 1/N default at engine construction.
	MutationProb float64

	// TournamentSize is the number of individuals drawn per
	// tournament, without replacement.
	TournamentSize int

	Crossover CrossoverKind
	Mutation  MutationKind

	// Seed drives all stochastic operators for reproducibility.
	Seed int64

	// EliminateDuplicates resamples offspring whose genome already
	// exists in the generation under construction.
	EliminateDuplicates bool

	// DuplicateRetries bounds the resampling attempts per offspring.
	DuplicateRetries int

	// Elitism selects the single-objective survivor policy: when true
	// the next generation is the best P of parents plus offspring
	// (elitist truncation); when false offspring replace the parents
	// wholesale. NSGA-II replacement is always elitist by construction.
	Elitism bool

	// OnEvalError selects the evaluation failure policy.
	OnEvalError EvalErrorPolicy

	// Workers bounds the parallel evaluation pool; 0 means GOMAXPROCS.
	Workers int

	// InitialGenomes seeds the initial population before random
	// sampling fills the remainder. Used when resuming from a
	// checkpoint.
	InitialGenomes []Genome
}

// DefaultConfig returns the parameters used when the caller does not
// override them.
func DefaultConfig() Config {
	return Config{
		PopSize:             40,
		Generations:         100,
		CrossoverProb:       0.9,
		MutationProb:        -1, // 1/N
		TournamentSize:      2,
		Crossover:           CrossoverTwoPoint,
		Mutation:            MutationBitFlip,
		Seed:                42,
		EliminateDuplicates: true,
		DuplicateRetries:    10,
		Elitism:             true,
		OnEvalError:         EvalPenalize,
	}
}

// Validate checks the configuration before any generation runs.
func (c *Config) Validate() error {
	if c.PopSize < 2 {
		return &ConfigError{Field: "PopSize", Reason: "must be at least 2"}
	}
	if c.Generations < 1 {
		return &ConfigError{Field: "Generations", Reason: "must be at least 1"}
	}
	if c.CrossoverProb < 0 || c.CrossoverProb > 1 {
		return &ConfigError{Field: "CrossoverProb", Reason: "must be in [0,1]"}
	}
	if c.MutationProb > 1 {
		return &ConfigError{Field: "MutationProb", Reason: "must be in [0,1] or negative for the 1/N default"}
	}
	if c.TournamentSize < 1 {
		return &ConfigError{Field: "TournamentSize", Reason: "must be at least 1"}
	}
	switch c.Crossover {
	case CrossoverTwoPoint, CrossoverHUX:
	default:
		return &ConfigError{Field: "Crossover", Reason: "unknown operator " + string(c.Crossover)}
	}
	switch c.Mutation {
	case MutationBitFlip:
	default:
		return &ConfigError{Field: "Mutation", Reason: "unknown operator " + string(c.Mutation)}
	}
	switch c.OnEvalError {
	case EvalPenalize, EvalAbort:
	default:
		return &ConfigError{Field: "OnEvalError", Reason: "unknown policy " + string(c.OnEvalError)}
	}
	if c.DuplicateRetries < 0 {
		return &ConfigError{Field: "DuplicateRetries", Reason: "cannot be negative"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "Workers", Reason: "cannot be negative"}
	}
	return nil
}
