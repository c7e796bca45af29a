package evo

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"
)

// Evaluator computes objective vectors for individuals by composing the
// problem's ordered objective functions. Evaluations for distinct
// individuals are independent and run on a bounded worker pool; the
// caller observes a completed population only after every outstanding
// evaluation has finished.
type Evaluator struct {
	problem *Problem
	workers int
	policy  EvalErrorPolicy
}

// NewEvaluator creates an evaluator with the given pool size.
// workers <= 0 selects GOMAXPROCS.
func NewEvaluator(p *Problem, workers int, policy EvalErrorPolicy) *Evaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if policy == "" {
		policy = EvalPenalize
	}
	return &Evaluator{problem: p, workers: workers, policy: policy}
}

// EvaluateAll evaluates every unevaluated individual in pop, in place.
// Each individual is touched by exactly one worker. Under the penalize
// policy a failed evaluation yields +Inf objectives and the search
// continues; under the abort policy the first failure stops the run.
func (e *Evaluator) EvaluateAll(ctx context.Context, pop []Individual) error {
	indices := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error

	evalCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if evalCtx.Err() != nil {
					continue
				}
				if err := e.evaluateOne(evalCtx, &pop[i]); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
				}
			}
		}()
	}

	for i := range pop {
		if pop[i].Evaluated() {
			continue
		}
		indices <- i
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// evaluateOne computes the full objective vector and constraint
// violation for a single individual.
func (e *Evaluator) evaluateOne(ctx context.Context, in *Individual) error {
	objs := make([]float64, len(e.problem.Objectives))
	for m, f := range e.problem.Objectives {
		val, err := f(ctx, in.Genome)
		if err != nil {
			evalErr := &EvalError{Genome: in.Genome.Clone(), Objective: m, Err: err}
			if e.policy == EvalAbort {
				return evalErr
			}
			slog.Warn("objective evaluation failed, penalizing individual",
				"objective", m,
				"genome", in.Genome.Ints(),
				"error", err,
			)
			for k := range objs {
				objs[k] = math.Inf(1)
			}
			in.Objectives = objs
			return nil
		}
		objs[m] = val
	}
	in.Objectives = objs

	violation := 0.0
	for _, c := range e.problem.Constraints {
		if v := c(in.Genome); v > 0 {
			violation += v
		}
	}
	in.Violation = violation
	return nil
}
