package evo

import (
	"math"
	"sort"
)

// Dominates reports whether individual a dominates b: a is no worse in
// every objective and strictly better in at least one, all objectives
// minimized. A feasible individual always dominates an infeasible one,
// and between infeasible individuals the smaller violation dominates.
func Dominates(a, b *Individual) bool {
	if a.Violation != b.Violation {
		return a.Violation < b.Violation
	}
	better := false
	for i := range a.Objectives {
		if a.Objectives[i] > b.Objectives[i] {
			return false
		}
		if a.Objectives[i] < b.Objectives[i] {
			better = true
		}
	}
	return better
}

// NonDominatedSort partitions the population into fronts F0, F1, ... by
// iterative domination counting. Each returned front holds indices into
// pop, and pop[i].Rank is set to the front index. Every individual
// belongs to exactly one front.
func NonDominatedSort(pop []Individual) [][]int {
	n := len(pop)
	dominated := make([][]int, n)
	domCount := make([]int, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if Dominates(&pop[i], &pop[j]) {
				dominated[i] = append(dominated[i], j)
				domCount[j]++
			} else if Dominates(&pop[j], &pop[i]) {
				dominated[j] = append(dominated[j], i)
				domCount[i]++
			}
		}
	}

	var fronts [][]int
	var current []int
	for i := 0; i < n; i++ {
		if domCount[i] == 0 {
			pop[i].Rank = 0
			current = append(current, i)
		}
	}
	fronts = append(fronts, current)

	for rank := 0; len(current) > 0; rank++ {
		var next []int
		for _, p := range current {
			for _, q := range dominated[p] {
				domCount[q]--
				if domCount[q] == 0 {
					pop[q].Rank = rank + 1
					next = append(next, q)
				}
			}
		}
		if len(next) > 0 {
			fronts = append(fronts, next)
		}
		current = next
	}
	return fronts
}

// CrowdingDistance computes the crowding distance for the members of
// one front (given as indices into pop), writing pop[i].Distance. For
// each objective, boundary members get infinite distance and interior
// members accumulate the neighbour gap normalized by the objective's
// range across the front.
func CrowdingDistance(pop []Individual, front []int) {
	if len(front) == 0 {
		return
	}
	if len(front) <= 2 {
		for _, i := range front {
			pop[i].Distance = math.Inf(1)
		}
		return
	}

	for _, i := range front {
		pop[i].Distance = 0
	}

	numObjectives := len(pop[front[0]].Objectives)
	order := make([]int, len(front))

	for m := 0; m < numObjectives; m++ {
		copy(order, front)
		sort.SliceStable(order, func(a, b int) bool {
			return pop[order[a]].Objectives[m] < pop[order[b]].Objectives[m]
		})

		pop[order[0]].Distance = math.Inf(1)
		pop[order[len(order)-1]].Distance = math.Inf(1)

		objRange := pop[order[len(order)-1]].Objectives[m] - pop[order[0]].Objectives[m]
		if objRange == 0 {
			continue
		}

		for k := 1; k < len(order)-1; k++ {
			gap := pop[order[k+1]].Objectives[m] - pop[order[k-1]].Objectives[m]
			pop[order[k]].Distance += gap / objRange
		}
	}
}
