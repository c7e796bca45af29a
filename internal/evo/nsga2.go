package evo

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
)

// NSGAII is the multi-objective engine: the generation loop mirrors the
// single-objective GA but replacement uses fast non-dominated sorting
// with crowding-distance truncation, and selection orders individuals
// by (rank, -crowding distance).
type NSGAII struct {
	problem *Problem
	cfg     Config
	rng     *rand.Rand
	eval    *Evaluator

	onGeneration func(GenerationReport)
}

// NSGAIIResult is the terminal report of a multi-objective run. Front
// is the final population's non-dominated set, each member carrying its
// full objective vector.
type NSGAIIResult struct {
	Front       []Individual
	Population  []Individual
	Generations int
}

// NewNSGAII validates the problem and configuration and builds an
// engine. The problem must declare at least two objectives.
func NewNSGAII(p *Problem, cfg Config) (*NSGAII, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.NumObjectives() < 2 {
		return nil, &ProblemError{Field: "Objectives", Reason: "multi-objective engine requires at least two objectives"}
	}
	return &NSGAII{
		problem: p,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		eval:    NewEvaluator(p, cfg.Workers, cfg.OnEvalError),
	}, nil
}

// OnGeneration registers a per-generation observer. Must be called
// before Run.
func (n *NSGAII) OnGeneration(fn func(GenerationReport)) {
	n.onGeneration = fn
}

// Run executes the configured generation budget and reports the final
// Pareto-approximate front.
func (n *NSGAII) Run(ctx context.Context) (*NSGAIIResult, error) {
	pop, err := initialPopulation(n.cfg, n.rng, n.problem.NumVars)
	if err != nil {
		return nil, err
	}
	if err := n.eval.EvaluateAll(ctx, pop); err != nil {
		return nil, err
	}
	rankPopulation(pop)

	vary := newVariator(n.cfg, n.rng, n.problem.NumVars, rankCrowdingLess)
	n.report(0, pop)

	for gen := 1; gen <= n.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offspring := vary.offspring(pop)
		if err := n.eval.EvaluateAll(ctx, offspring); err != nil {
			return nil, err
		}

		combined := make([]Individual, 0, len(pop)+len(offspring))
		combined = append(combined, pop...)
		combined = append(combined, offspring...)

		pop = survivorSelect(combined, n.cfg.PopSize)

		if n.cfg.EliminateDuplicates {
			warnIfDegenerate(pop, gen)
		}
		n.report(gen, pop)
	}

	front := Front(pop)
	return &NSGAIIResult{
		Front:       front,
		Population:  pop,
		Generations: n.cfg.Generations,
	}, nil
}

// survivorSelect builds the next generation of size p from the combined
// parent and offspring pool: whole fronts are appended in rank order
// until the next front would overflow, then that front is truncated by
// descending crowding distance with the original index as the
// deterministic tie-break.
func survivorSelect(combined []Individual, p int) []Individual {
	fronts := NonDominatedSort(combined)

	next := make([]Individual, 0, p)
	for _, front := range fronts {
		CrowdingDistance(combined, front)

		if len(next)+len(front) <= p {
			for _, idx := range front {
				next = append(next, combined[idx])
			}
			if len(next) == p {
				break
			}
			continue
		}

		truncated := make([]int, len(front))
		copy(truncated, front)
		sort.SliceStable(truncated, func(a, b int) bool {
			if combined[truncated[a]].Distance != combined[truncated[b]].Distance {
				return combined[truncated[a]].Distance > combined[truncated[b]].Distance
			}
			return truncated[a] < truncated[b]
		})
		for _, idx := range truncated[:p-len(next)] {
			next = append(next, combined[idx])
		}
		break
	}
	return next
}

// rankPopulation assigns ranks and crowding distances to a freshly
// evaluated population so tournament selection is defined before the
// first replacement step.
func rankPopulation(pop []Individual) {
	fronts := NonDominatedSort(pop)
	for _, front := range fronts {
		CrowdingDistance(pop, front)
	}
}

// Front extracts the rank-0 members of a ranked population.
func Front(pop []Individual) []Individual {
	var front []Individual
	for i := range pop {
		if pop[i].Rank == 0 {
			front = append(front, pop[i].Clone())
		}
	}
	return front
}

func (n *NSGAII) report(gen int, pop []Individual) {
	frontSize := 0
	for i := range pop {
		if pop[i].Rank == 0 {
			frontSize++
		}
	}
	best := &pop[0]
	for i := 1; i < len(pop); i++ {
		if rankCrowdingLess(&pop[i], best) {
			best = &pop[i]
		}
	}
	stats := ComputeStats(pop)
	slog.Debug("generation complete",
		"generation", gen,
		"front_size", frontSize,
		"distinct", stats.Distinct,
	)
	if n.onGeneration != nil {
		n.onGeneration(GenerationReport{
			Generation: gen,
			Best:       best.Clone(),
			FrontSize:  frontSize,
			Stats:      stats,
			Population: pop,
		})
	}
}
