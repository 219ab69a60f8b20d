// Package evolve implements the evolutionary operators and the three
// evolution models: SteadyState, MasterSlave, and IslandMigration.
package evolve

import (
	"math/rand"

	"golang.org/x/exp/constraints"

	"lgp/internal/program"
)

// Tournament implements tournament selection with the lowest fitness
// winning. The inverse variant (highest fitness wins) drives steady-state
// replacement.
type Tournament[V constraints.Float] struct {
	Size int
}

// Select returns n winners as references into the population; callers
// clone before mutating. Each draw samples Size individuals without
// replacement, or with replacement when Size exceeds the population.
func (t Tournament[V]) Select(pop []*program.Program[V], n int, rng *rand.Rand) []*program.Program[V] {
	winners := make([]*program.Program[V], n)
	for i := range winners {
		winners[i] = pop[t.selectIndex(pop, rng, false)]
	}
	return winners
}

// SelectWorstIndex runs one inverse tournament and returns the loser's
// index in the population.
func (t Tournament[V]) SelectWorstIndex(pop []*program.Program[V], rng *rand.Rand) int {
	return t.selectIndex(pop, rng, true)
}

func (t Tournament[V]) selectIndex(pop []*program.Program[V], rng *rand.Rand, inverse bool) int {
	best := -1
	for _, candidate := range t.sample(len(pop), rng) {
		if best < 0 {
			best = candidate
			continue
		}
		if inverse {
			if pop[candidate].Fitness > pop[best].Fitness {
				best = candidate
			}
		} else if pop[candidate].Fitness < pop[best].Fitness {
			best = candidate
		}
	}
	return best
}

// sample draws Size candidate indices: without replacement when the
// population is large enough, with replacement otherwise. Ties go to the
// first candidate encountered.
func (t Tournament[V]) sample(popSize int, rng *rand.Rand) []int {
	if t.Size > popSize {
		candidates := make([]int, t.Size)
		for i := range candidates {
			candidates[i] = rng.Intn(popSize)
		}
		return candidates
	}
	return rng.Perm(popSize)[:t.Size]
}
