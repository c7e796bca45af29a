package evo

import (
	"log/slog"
	"math/rand"
)

// GenerationReport is handed to the per-generation observer after the
// survivor-selection step. Population is the engine's live slice and
// must not be mutated by observers.
type GenerationReport struct {
	Generation int
	Best       Individual
	FrontSize  int
	Stats      Stats
	Population []Individual
}

// scalarLess orders individuals by constraint violation, then by the
// single objective value, with a deterministic lexicographic genome
// tie-break.
func scalarLess(a, b *Individual) bool {
	if a.Violation != b.Violation {
		return a.Violation < b.Violation
	}
	if a.Objectives[0] != b.Objectives[0] {
		return a.Objectives[0] < b.Objectives[0]
	}
	return a.Genome.Compare(b.Genome) < 0
}

// rankCrowdingLess orders individuals by (rank, -crowding distance):
// lower rank wins, larger crowding distance wins rank ties, genome
// order breaks exact ties deterministically.
func rankCrowdingLess(a, b *Individual) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.Genome.Compare(b.Genome) < 0
}

// variator produces offspring generations: tournament selection of
// parent pairs, crossover, mutation, optional duplicate elimination.
type variator struct {
	cfg  Config
	rng  *rand.Rand
	pm   float64
	less func(a, b *Individual) bool
}

func newVariator(cfg Config, rng *rand.Rand, numVars int, less func(a, b *Individual) bool) *variator {
	pm := cfg.MutationProb
	if pm < 0 {
		pm = 1.0 / float64(numVars)
	}
	return &variator{cfg: cfg, rng: rng, pm: pm, less: less}
}

// crossover applies the configured operator with probability
// CrossoverProb, otherwise the children are copies of the parents.
func (v *variator) crossover(p1, p2 Genome) (Genome, Genome) {
	if v.rng.Float64() >= v.cfg.CrossoverProb {
		return p1.Clone(), p2.Clone()
	}
	switch v.cfg.Crossover {
	case CrossoverHUX:
		return HUXCrossover(v.rng, p1, p2)
	default:
		return TwoPointCrossover(v.rng, p1, p2)
	}
}

// offspring builds exactly PopSize unevaluated children from pop.
// When duplicate elimination is on, a child whose genome already exists
// in the parent population or among the children built so far is
// replaced by a fresh random sample, up to DuplicateRetries attempts;
// after that the duplicate is accepted.
func (v *variator) offspring(pop []Individual) []Individual {
	p := v.cfg.PopSize
	children := make([]Individual, 0, p)

	var seen map[string]struct{}
	if v.cfg.EliminateDuplicates {
		seen = make(map[string]struct{}, 2*p)
		for i := range pop {
			seen[pop[i].Genome.Key()] = struct{}{}
		}
	}

	admit := func(g Genome) Genome {
		if seen == nil {
			return g
		}
		n := len(g)
		for retry := 0; retry < v.cfg.DuplicateRetries; retry++ {
			if _, dup := seen[g.Key()]; !dup {
				break
			}
			g = SampleBinary(v.rng, n)
		}
		seen[g.Key()] = struct{}{}
		return g
	}

	for len(children) < p {
		i := tournamentSelect(v.rng, pop, v.cfg.TournamentSize, v.less)
		j := tournamentSelect(v.rng, pop, v.cfg.TournamentSize, v.less)

		c1, c2 := v.crossover(pop[i].Genome, pop[j].Genome)
		c1 = BitFlipMutation(v.rng, c1, v.pm)
		c2 = BitFlipMutation(v.rng, c2, v.pm)

		children = append(children, Individual{Genome: admit(c1)})
		if len(children) < p {
			children = append(children, Individual{Genome: admit(c2)})
		}
	}
	return children
}

// initialPopulation seeds the first generation: configured genomes
// first (resume path), then random binary samples up to PopSize.
func initialPopulation(cfg Config, rng *rand.Rand, numVars int) ([]Individual, error) {
	pop := make([]Individual, 0, cfg.PopSize)
	for _, g := range cfg.InitialGenomes {
		if len(g) != numVars {
			return nil, &ProblemError{Field: "InitialGenomes", Reason: "genome length does not match decision length"}
		}
		if len(pop) == cfg.PopSize {
			break
		}
		pop = append(pop, Individual{Genome: g.Clone()})
	}
	for len(pop) < cfg.PopSize {
		pop = append(pop, Individual{Genome: SampleBinary(rng, numVars)})
	}
	return pop, nil
}

// warnIfDegenerate logs when duplicate elimination could not keep the
// population diverse.
func warnIfDegenerate(pop []Individual, generation int) bool {
	if len(pop) < 2 {
		return false
	}
	first := pop[0].Genome
	for i := 1; i < len(pop); i++ {
		if !pop[i].Genome.Equal(first) {
			return false
		}
	}
	slog.Warn("population collapsed to a single genome", "generation", generation)
	return true
}
