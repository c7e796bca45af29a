package evo

import (
	"bytes"
	"context"
	"fmt"
)

// Genome is a fixed-length vector of binary genes (0/1).
// Variation operators always allocate new genomes; an evaluated
// individual's genome is never edited in place.
type Genome []byte

// Clone returns an independent copy of the genome.
func (g Genome) Clone() Genome {
	c := make(Genome, len(g))
	copy(c, g)
	return c
}

// Key returns a map key identifying the exact gene sequence.
func (g Genome) Key() string {
	return string(g)
}

// Equal reports whether two genomes carry identical genes.
func (g Genome) Equal(other Genome) bool {
	return bytes.Equal(g, other)
}

// Compare orders genomes lexicographically. Used for deterministic
// tie-breaking between individuals with equal fitness.
func (g Genome) Compare(other Genome) int {
	return bytes.Compare(g, other)
}

// Ints converts the genome to a plain int slice for reporting.
func (g Genome) Ints() []int {
	out := make([]int, len(g))
	for i, v := range g {
		out[i] = int(v)
	}
	return out
}

// GenomeFromInts builds a genome from a reported int slice.
// Any non-zero value maps to gene 1.
func GenomeFromInts(vals []int) Genome {
	g := make(Genome, len(vals))
	for i, v := range vals {
		if v != 0 {
			g[i] = 1
		}
	}
	return g
}

// Individual is one candidate solution: a genome plus the state derived
// from evaluation and ranking. Rank and Distance are only meaningful for
// multi-objective runs.
type Individual struct {
	Genome     Genome    `json:"genome"`
	Objectives []float64 `json:"objectives,omitempty"`
	Violation  float64   `json:"violation,omitempty"`
	Rank       int       `json:"rank"`
	Distance   float64   `json:"distance"`
}

// Evaluated reports whether objective values have been computed.
func (in *Individual) Evaluated() bool {
	return in.Objectives != nil
}

// Clone returns a deep copy of the individual.
func (in *Individual) Clone() Individual {
	c := Individual{
		Genome:    in.Genome.Clone(),
		Violation: in.Violation,
		Rank:      in.Rank,
		Distance:  in.Distance,
	}
	if in.Objectives != nil {
		c.Objectives = make([]float64, len(in.Objectives))
		copy(c.Objectives, in.Objectives)
	}
	return c
}

// ObjectiveFunc computes one scalar objective value for a genome.
// All objectives are minimized; maximization objectives must be negated
// before they reach the engine. An evaluation may fail (for example when
// an external simulation diverges); the engine's eval-error policy
// decides how the failure is handled.
type ObjectiveFunc func(ctx context.Context, g Genome) (float64, error)

// ConstraintFunc computes one inequality constraint value for a genome.
// Values <= 0 are feasible; positive values measure the violation.
type ConstraintFunc func(g Genome) float64

// Problem defines the search space and the ordered objective set.
// It is constructed once and read-only for the duration of a run.
type Problem struct {
	// NumVars is the decision vector length N.
	NumVars int

	// Objectives are evaluated in order; their order defines the
	// objective vector layout and must stay fixed across the run.
	Objectives []ObjectiveFunc

	// Constraints are optional inequality constraints.
	Constraints []ConstraintFunc
}

// NumObjectives returns the objective count M.
func (p *Problem) NumObjectives() int {
	return len(p.Objectives)
}

// Validate checks the problem definition before any generation runs.
func (p *Problem) Validate() error {
	if p.NumVars <= 0 {
		return &ProblemError{Field: "NumVars", Reason: "must be positive"}
	}
	if len(p.Objectives) == 0 {
		return &ProblemError{Field: "Objectives", Reason: "at least one objective is required"}
	}
	for i, f := range p.Objectives {
		if f == nil {
			return &ProblemError{Field: "Objectives", Reason: fmt.Sprintf("objective %d is nil", i)}
		}
	}
	for i, f := range p.Constraints {
		if f == nil {
			return &ProblemError{Field: "Constraints", Reason: fmt.Sprintf("constraint %d is nil", i)}
		}
	}
	return nil
}
