package evo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

func TestEvaluateAllIdempotent(t *testing.T) {
	p := onesProblem(8)
	eval := NewEvaluator(p, 4, EvalPenalize)

	pop := []Individual{
		{Genome: Genome{1, 1, 0, 0, 1, 0, 1, 0}},
		{Genome: Genome{0, 0, 0, 0, 0, 0, 0, 0}},
	}
	if err := eval.EvaluateAll(context.Background(), pop); err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}

	first := []float64{pop[0].Objectives[0], pop[1].Objectives[0]}

	// Re-evaluating the same deterministic genomes yields identical values.
	again := []Individual{
		{Genome: pop[0].Genome.Clone()},
		{Genome: pop[1].Genome.Clone()},
	}
	if err := eval.EvaluateAll(context.Background(), again); err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	for i := range again {
		if again[i].Objectives[0] != first[i] {
			t.Errorf("individual %d: re-evaluation gave %v, want %v", i, again[i].Objectives[0], first[i])
		}
	}
}

func TestEvaluateAllSkipsEvaluated(t *testing.T) {
	calls := 0
	p := &Problem{
		NumVars: 4,
		Objectives: []ObjectiveFunc{func(_ context.Context, g Genome) (float64, error) {
			calls++
			return 0, nil
		}},
	}
	eval := NewEvaluator(p, 1, EvalPenalize)

	pop := []Individual{
		{Genome: Genome{1, 0, 1, 0}, Objectives: []float64{3}},
		{Genome: Genome{0, 1, 0, 1}},
	}
	if err := eval.EvaluateAll(context.Background(), pop); err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	if calls != 1 {
		t.Errorf("objective called %d times, want 1", calls)
	}
	if pop[0].Objectives[0] != 3 {
		t.Error("already-evaluated individual was overwritten")
	}
}

func TestEvaluateAllPenalizePolicy(t *testing.T) {
	boom := errors.New("solver divergence")
	p := &Problem{
		NumVars: 4,
		Objectives: []ObjectiveFunc{func(_ context.Context, g Genome) (float64, error) {
			if g[0] == 1 {
				return 0, boom
			}
			return 1, nil
		}},
	}
	eval := NewEvaluator(p, 2, EvalPenalize)

	pop := []Individual{
		{Genome: Genome{1, 0, 0, 0}},
		{Genome: Genome{0, 0, 0, 0}},
	}
	if err := eval.EvaluateAll(context.Background(), pop); err != nil {
		t.Fatalf("EvaluateAll failed under penalize policy: %v", err)
	}

	if !math.IsInf(pop[0].Objectives[0], 1) {
		t.Errorf("failed individual objective = %v, want +Inf", pop[0].Objectives[0])
	}
	if pop[1].Objectives[0] != 1 {
		t.Errorf("healthy individual objective = %v, want 1", pop[1].Objectives[0])
	}
}

func TestEvaluateAllAbortPolicy(t *testing.T) {
	boom := errors.New("missing resource")
	p := &Problem{
		NumVars: 4,
		Objectives: []ObjectiveFunc{func(_ context.Context, g Genome) (float64, error) {
			return 0, boom
		}},
	}
	eval := NewEvaluator(p, 2, EvalAbort)

	pop := []Individual{
		{Genome: Genome{1, 0, 0, 0}},
		{Genome: Genome{0, 1, 0, 0}},
	}
	err := eval.EvaluateAll(context.Background(), pop)
	if err == nil {
		t.Fatal("expected error under abort policy")
	}
	if !errors.Is(err, &EvalError{}) {
		t.Errorf("error = %v, want EvalError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error chain does not carry the underlying cause: %v", err)
	}

	var evalErr *EvalError
	if errors.As(err, &evalErr) {
		if len(evalErr.Genome) != 4 {
			t.Error("EvalError does not carry the offending genome")
		}
	}
}

func TestEvaluateAllParallel(t *testing.T) {
	p := onesProblem(16)
	eval := NewEvaluator(p, 8, EvalPenalize)

	pop := make([]Individual, 64)
	for i := range pop {
		g := make(Genome, 16)
		for j := range g {
			if (i>>uint(j%6))&1 == 1 {
				g[j] = 1
			}
		}
		pop[i] = Individual{Genome: g}
	}

	if err := eval.EvaluateAll(context.Background(), pop); err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	for i := range pop {
		if !pop[i].Evaluated() {
			t.Fatalf("individual %d not evaluated after barrier", i)
		}
		want, _ := onesCount(context.Background(), pop[i].Genome)
		if pop[i].Objectives[0] != want {
			t.Errorf("individual %d: objective %v, want %v", i, pop[i].Objectives[0], want)
		}
	}
}

func TestEvaluateAllConstraints(t *testing.T) {
	p := &Problem{
		NumVars:    4,
		Objectives: []ObjectiveFunc{onesCount},
		Constraints: []ConstraintFunc{
			// At most two interventions.
			func(g Genome) float64 {
				ones := 0.0
				for _, v := range g {
					if v == 1 {
						ones++
					}
				}
				return ones - 2
			},
		},
	}
	eval := NewEvaluator(p, 1, EvalPenalize)

	pop := []Individual{
		{Genome: Genome{1, 1, 1, 1}},
		{Genome: Genome{1, 1, 0, 0}},
	}
	if err := eval.EvaluateAll(context.Background(), pop); err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	if pop[0].Violation != 2 {
		t.Errorf("violation = %v, want 2", pop[0].Violation)
	}
	if pop[1].Violation != 0 {
		t.Errorf("feasible individual violation = %v, want 0", pop[1].Violation)
	}
}

func TestComputeStats(t *testing.T) {
	pop := []Individual{
		makeIndividual([]byte{0, 0}, 1),
		makeIndividual([]byte{0, 1}, 3),
		makeIndividual([]byte{0, 0}, math.Inf(1)), // penalized, excluded from moments
	}
	st := ComputeStats(pop)

	if st.Distinct != 2 {
		t.Errorf("distinct genomes = %d, want 2", st.Distinct)
	}
	if st.Mean[0] != 2 {
		t.Errorf("mean = %v, want 2", st.Mean[0])
	}
	if st.StdDev[0] == 0 {
		t.Error("stddev should be positive for spread values")
	}
}

func TestEvalErrorMessageCarriesGenome(t *testing.T) {
	err := &EvalError{Genome: Genome{1, 0, 1}, Objective: 0, Err: errors.New("x")}
	msg := err.Error()
	if want := fmt.Sprintf("%v", []int{1, 0, 1}); !strings.Contains(msg, want) {
		t.Errorf("error message %q does not carry the decision vector", msg)
	}
}
