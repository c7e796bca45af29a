package evo

import "math/rand"

// SampleBinary draws a random genome of n genes, each an independent
// Bernoulli(0.5) draw.
func SampleBinary(rng *rand.Rand, n int) Genome {
	g := make(Genome, n)
	for i := range g {
		if rng.Intn(2) == 1 {
			g[i] = 1
		}
	}
	return g
}

// TwoPointCrossover picks two cut indices 0 <= i < j <= N and swaps the
// gene segment [i,j) between the parents. Both children preserve N and
// carry only gene values present in the parents.
func TwoPointCrossover(rng *rand.Rand, p1, p2 Genome) (Genome, Genome) {
	n := len(p1)
	c1 := p1.Clone()
	c2 := p2.Clone()
	if n < 1 {
		return c1, c2
	}
	i := rng.Intn(n)
	j := i + 1 + rng.Intn(n-i)
	for k := i; k < j; k++ {
		c1[k], c2[k] = c2[k], c1[k]
	}
	return c1, c2
}

// HUXCrossover swaps each gene on which the parents differ with
// probability 0.5; genes where the parents agree are unchanged.
func HUXCrossover(rng *rand.Rand, p1, p2 Genome) (Genome, Genome) {
	c1 := p1.Clone()
	c2 := p2.Clone()
	for k := range c1 {
		if c1[k] != c2[k] && rng.Intn(2) == 1 {
			c1[k], c2[k] = c2[k], c1[k]
		}
	}
	return c1, c2
}

// BitFlipMutation toggles each gene independently with probability pm
// and returns a new genome; the input is never modified.
func BitFlipMutation(rng *rand.Rand, g Genome, pm float64) Genome {
	c := g.Clone()
	for i := range c {
		if rng.Float64() < pm {
			c[i] = 1 - c[i]
		}
	}
	return c
}

// tournamentSelect draws k individuals uniformly without replacement
// and returns the index of the best according to less.
func tournamentSelect(rng *rand.Rand, pop []Individual, k int, less func(a, b *Individual) bool) int {
	if k > len(pop) {
		k = len(pop)
	}
	perm := rng.Perm(len(pop))
	best := perm[0]
	for _, idx := range perm[1:k] {
		if less(&pop[idx], &pop[best]) {
			best = idx
		}
	}
	return best
}
