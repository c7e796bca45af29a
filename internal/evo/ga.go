package evo

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
)

// GA is the single-objective genetic algorithm engine. It iterates
// generations of tournament selection, crossover, mutation and
// survivor selection over a binary decision space. The schedule is
// generation-synchronous: no step of generation g+1 starts before every
// individual of generation g is evaluated.
type GA struct {
	problem *Problem
	cfg     Config
	rng     *rand.Rand
	eval    *Evaluator

	onGeneration func(GenerationReport)
}

// GAResult is the terminal report of a single-objective run.
type GAResult struct {
	Best        Individual
	Population  []Individual
	Generations int
}

// NewGA validates the problem and configuration and builds an engine.
// The problem must declare exactly one objective.
func NewGA(p *Problem, cfg Config) (*GA, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p.NumObjectives() != 1 {
		return nil, &ProblemError{Field: "Objectives", Reason: "single-objective engine requires exactly one objective"}
	}
	return &GA{
		problem: p,
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		eval:    NewEvaluator(p, cfg.Workers, cfg.OnEvalError),
	}, nil
}

// OnGeneration registers an observer invoked after every survivor
// selection, with the generation index, best individual and population
// statistics. Must be called before Run.
func (g *GA) OnGeneration(fn func(GenerationReport)) {
	g.onGeneration = fn
}

// Run executes the configured generation budget and reports the
// individual with the minimum objective value, ties broken by
// lexicographic genome order.
func (g *GA) Run(ctx context.Context) (*GAResult, error) {
	pop, err := initialPopulation(g.cfg, g.rng, g.problem.NumVars)
	if err != nil {
		return nil, err
	}
	if err := g.eval.EvaluateAll(ctx, pop); err != nil {
		return nil, err
	}

	vary := newVariator(g.cfg, g.rng, g.problem.NumVars, scalarLess)
	g.report(0, pop)

	gen := 0
	for gen = 1; gen <= g.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		offspring := vary.offspring(pop)
		if err := g.eval.EvaluateAll(ctx, offspring); err != nil {
			return nil, err
		}

		if g.cfg.Elitism {
			merged := append(pop, offspring...)
			sort.SliceStable(merged, func(a, b int) bool {
				return scalarLess(&merged[a], &merged[b])
			})
			pop = make([]Individual, g.cfg.PopSize)
			copy(pop, merged[:g.cfg.PopSize])
		} else {
			pop = offspring
		}

		if g.cfg.EliminateDuplicates {
			warnIfDegenerate(pop, gen)
		}
		g.report(gen, pop)
	}

	best := bestScalar(pop)
	return &GAResult{
		Best:        best.Clone(),
		Population:  pop,
		Generations: g.cfg.Generations,
	}, nil
}

func (g *GA) report(gen int, pop []Individual) {
	best := bestScalar(pop)
	stats := ComputeStats(pop)
	slog.Debug("generation complete",
		"generation", gen,
		"best", best.Objectives[0],
		"distinct", stats.Distinct,
	)
	if g.onGeneration != nil {
		g.onGeneration(GenerationReport{
			Generation: gen,
			Best:       best.Clone(),
			Stats:      stats,
			Population: pop,
		})
	}
}

// bestScalar returns the minimum individual under scalarLess.
func bestScalar(pop []Individual) *Individual {
	best := &pop[0]
	for i := 1; i < len(pop); i++ {
		if scalarLess(&pop[i], best) {
			best = &pop[i]
		}
	}
	return best
}
