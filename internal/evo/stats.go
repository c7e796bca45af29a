package evo

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a fully evaluated population: per-objective mean and
// standard deviation plus the number of distinct genomes. Logged each
// generation as a diversity diagnostic.
type Stats struct {
	Mean     []float64 `json:"mean"`
	StdDev   []float64 `json:"stdDev"`
	Distinct int       `json:"distinct"`
}

// ComputeStats derives population statistics. Individuals carrying
// non-finite penalty objectives are excluded from the moments so a
// single failed evaluation does not wash out the diagnostic.
func ComputeStats(pop []Individual) Stats {
	if len(pop) == 0 {
		return Stats{}
	}
	numObjectives := len(pop[0].Objectives)
	st := Stats{
		Mean:   make([]float64, numObjectives),
		StdDev: make([]float64, numObjectives),
	}

	seen := make(map[string]struct{}, len(pop))
	for i := range pop {
		seen[pop[i].Genome.Key()] = struct{}{}
	}
	st.Distinct = len(seen)

	column := make([]float64, 0, len(pop))
	for m := 0; m < numObjectives; m++ {
		column = column[:0]
		for i := range pop {
			if v := pop[i].Objectives[m]; !math.IsInf(v, 0) && !math.IsNaN(v) {
				column = append(column, v)
			}
		}
		if len(column) == 0 {
			continue
		}
		st.Mean[m] = stat.Mean(column, nil)
		if len(column) > 1 {
			st.StdDev[m] = stat.StdDev(column, nil)
		}
	}
	return st
}
