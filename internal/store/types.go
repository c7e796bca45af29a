package store

import (
	"fmt"
	"time"
)

// RunConfig holds the configuration of an optimization run (checkpoint
// copy). Kept in this package to avoid import cycles with server.
type RunConfig struct {
	StatusTable         string  `json:"statusTable,omitempty"` // empty = built-in demo network
	Mode                string  `json:"mode"`                  // ga, nsga2
	PopSize             int     `json:"popSize"`
	Generations         int     `json:"generations"`
	CrossoverProb       float64 `json:"crossoverProb"`
	MutationProb        float64 `json:"mutationProb"`
	Crossover           string  `json:"crossover"`
	Mutation            string  `json:"mutation"`
	TournamentSize      int     `json:"tournamentSize"`
	Seed                int64   `json:"seed"`
	EliminateDuplicates bool    `json:"eliminateDuplicates"`
	Elitism             bool    `json:"elitism"`
	OnEvalError         string  `json:"onEvalError,omitempty"`
	Workers             int     `json:"workers,omitempty"`
	MaxOperations       int     `json:"maxOperations,omitempty"`
	Threshold           float64 `json:"threshold"`
	HorizonSteps        int     `json:"horizonSteps"`
	CheckpointInterval  int     `json:"checkpointInterval,omitempty"` // checkpoint every N generations (0 = disabled)
}

// Solution is one reported individual: a decision vector and its full
// objective vector.
type Solution struct {
	Genome     []int     `json:"genome"`
	Objectives []float64 `json:"objectives"`
}

// Checkpoint is a saved optimization state that can be resumed later.
//
// The checkpoint carries the best solutions found so far (the single
// best individual for a GA run, the current non-dominated set for an
// NSGA-II run) but not the engine's internal population. On resume the
// saved genomes seed a fresh population and the remainder is resampled,
// so a resumed run is not a bit-exact continuation; the best solutions
// can only stay or improve because they re-enter the population.
// Serializing the full population would tie the checkpoint format to
// engine internals for little benefit at these population sizes.
type Checkpoint struct {
	// RunID is the unique identifier of the optimization run.
	RunID string `json:"runId"`

	// Best holds the best-so-far solutions: one entry for a GA run,
	// the non-dominated set for an NSGA-II run.
	Best []Solution `json:"best"`

	// Generation is the generation count when this checkpoint was taken.
	Generation int `json:"generation"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the run configuration, needed for compatibility
	// checks during resume.
	Config RunConfig `json:"config"`
}

// CheckpointInfo contains checkpoint metadata without the solution
// payload. Used for listing checkpoints efficiently.
type CheckpointInfo struct {
	RunID      string    `json:"runId"`
	Generation int       `json:"generation"`
	FrontSize  int       `json:"frontSize"`
	Best       []float64 `json:"best,omitempty"` // objective vector of the first solution
	Timestamp  time.Time `json:"timestamp"`
	Mode       string    `json:"mode"`
}

// NewCheckpoint creates a checkpoint from run state.
func NewCheckpoint(runID string, best []Solution, generation int, config RunConfig) *Checkpoint {
	return &Checkpoint{
		RunID:      runID,
		Best:       best,
		Generation: generation,
		Timestamp:  time.Now(),
		Config:     config,
	}
}

// ToInfo converts a full Checkpoint to metadata only.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	info := CheckpointInfo{
		RunID:      c.RunID,
		Generation: c.Generation,
		FrontSize:  len(c.Best),
		Timestamp:  c.Timestamp,
		Mode:       c.Config.Mode,
	}
	if len(c.Best) > 0 {
		info.Best = c.Best[0].Objectives
	}
	return info
}

// Validate checks that the checkpoint has consistent data.
func (c *Checkpoint) Validate() error {
	if c.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if len(c.Best) == 0 {
		return &ValidationError{Field: "Best", Reason: "cannot be empty"}
	}
	for i, sol := range c.Best {
		if len(sol.Genome) == 0 {
			return &ValidationError{Field: "Best", Reason: fmt.Sprintf("solution %d has an empty genome", i)}
		}
		if len(sol.Genome) != len(c.Best[0].Genome) {
			return &ValidationError{Field: "Best", Reason: "solutions have inconsistent genome lengths"}
		}
		if len(sol.Objectives) == 0 {
			return &ValidationError{Field: "Best", Reason: fmt.Sprintf("solution %d has no objective values", i)}
		}
	}
	if c.Generation < 0 {
		return &ValidationError{Field: "Generation", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Mode == "" {
		return &ValidationError{Field: "Config.Mode", Reason: "cannot be empty"}
	}
	if c.Config.PopSize <= 0 {
		return &ValidationError{Field: "Config.PopSize", Reason: "must be positive"}
	}
	if c.Config.Generations <= 0 {
		return &ValidationError{Field: "Config.Generations", Reason: "must be positive"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// IsCompatible checks whether this checkpoint can seed a run with the
// given configuration. The decision space must be identical: same
// status table and same objective mode.
func (c *Checkpoint) IsCompatible(config RunConfig) error {
	if c.Config.StatusTable != config.StatusTable {
		return &CompatibilityError{
			Field:    "StatusTable",
			Expected: c.Config.StatusTable,
			Actual:   config.StatusTable,
		}
	}
	if c.Config.Mode != config.Mode {
		return &CompatibilityError{
			Field:    "Mode",
			Expected: c.Config.Mode,
			Actual:   config.Mode,
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}

func (e *CompatibilityError) Is(target error) bool {
	_, ok := target.(*CompatibilityError)
	return ok
}
