package wdn

import (
	"context"

	"github.com/leoalfonso/WDN-optim/internal/evo"
)

// OperationsObjective counts the interventions a candidate requires:
// the Hamming distance between the candidate statuses and the original
// status table. The "do nothing" candidate equal to the baseline
// evaluates to zero.
func OperationsObjective(baseline evo.Genome) evo.ObjectiveFunc {
	base := baseline.Clone()
	return func(_ context.Context, g evo.Genome) (float64, error) {
		if len(g) != len(base) {
			return 0, &evo.ProblemError{Field: "DecisionVector", Reason: "length does not match status table"}
		}
		ops := 0.0
		for i := range g {
			if g[i] != base[i] {
				ops++
			}
		}
		return ops, nil
	}
}

// PollutionObjective counts the polluted nodes reported by the
// simulator for a candidate element configuration.
func PollutionObjective(sim Simulator) evo.ObjectiveFunc {
	return func(ctx context.Context, g evo.Genome) (float64, error) {
		open := make([]bool, len(g))
		for i, v := range g {
			open[i] = v == 1
		}
		return sim.Simulate(ctx, open)
	}
}

// BuildProblem assembles the optimization problem for a status table
// and a simulator. Single-objective mode minimizes polluted nodes only;
// multi-objective mode additionally minimizes the intervention count.
// maxOperations > 0 adds an inequality constraint bounding the number
// of interventions.
func BuildProblem(table *StatusTable, sim Simulator, multi bool, maxOperations int) (*evo.Problem, error) {
	baseline := table.Baseline()

	p := &evo.Problem{
		NumVars:    table.Len(),
		Objectives: []evo.ObjectiveFunc{PollutionObjective(sim)},
	}
	if multi {
		p.Objectives = append(p.Objectives, OperationsObjective(baseline))
	}
	if maxOperations > 0 {
		limit := float64(maxOperations)
		p.Constraints = append(p.Constraints, func(g evo.Genome) float64 {
			ops := 0.0
			for i := range g {
				if i < len(baseline) && g[i] != baseline[i] {
					ops++
				}
			}
			return ops - limit
		})
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
