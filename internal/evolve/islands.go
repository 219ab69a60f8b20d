package evolve

import (
	"context"
	"math/rand"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"

	"lgp/internal/program"
)

// IslandMigration partitions the population over N islands, each running
// the steady-state loop concurrently on its own worker with its own RNG.
// Every MigrationInterval generations the islands synchronize at a
// barrier and the ring migrates: each island's best M individuals (cloned)
// replace the worst M of its clockwise neighbor.
type IslandMigration[V constraints.Float] struct {
	// Prototype carries the per-island model settings. Its PopulationSize
	// is the total across islands; each island runs PopulationSize/Islands
	// individuals.
	Prototype SteadyState[V]

	Islands           int
	MigrationInterval int
	MigrationSize     int
}

// Run executes the model until every island has completed the configured
// generations (or the stopping criterion / cancellation ends the run).
func (m *IslandMigration[V]) Run(ctx context.Context, rng *rand.Rand) (*Result[V], error) {
	islands := make([]*SteadyState[V], m.Islands)
	states := make([]*state[V], m.Islands)
	rngs := make([]*rand.Rand, m.Islands)
	for i := range islands {
		ss := m.Prototype
		ss.PopulationSize = m.Prototype.PopulationSize / m.Islands
		islands[i] = &ss
		// Child RNGs are drawn in island order from the run RNG, so a
		// fixed seed reproduces every island's stream.
		rngs[i] = rand.New(rand.NewSource(rng.Int63()))
	}

	g, _ := errgroup.WithContext(ctx)
	for i := range islands {
		i := i
		g.Go(func() error {
			st, err := islands[i].initialize(ctx, rngs[i])
			states[i] = st
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := m.Prototype.events()
	cancelled := false
	total := m.Prototype.Generations
	for done := 0; done < total && !cancelled; {
		step := min(m.MigrationInterval, total-done)

		g, _ := errgroup.WithContext(ctx)
		results := make([]bool, m.Islands)
		for i := range islands {
			i := i
			g.Go(func() error {
				c, err := islands[i].evolve(ctx, states[i], rngs[i], step)
				results[i] = c
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		done += step

		for _, c := range results {
			cancelled = cancelled || c
		}
		if cancelled || m.stopped(states) {
			break
		}
		if done < total && m.MigrationSize > 0 {
			m.migrate(states, done, events)
		}
	}

	return m.merge(states, cancelled), nil
}

// migrate performs one ring exchange. Senders are snapshotted before any
// replacement so simultaneous migration is order-independent.
func (m *IslandMigration[V]) migrate(states []*state[V], gen int, events Sink) {
	emigrants := make([][]*program.Program[V], len(states))
	for i, st := range states {
		emigrants[i] = bestOf(st.pop, m.MigrationSize)
	}
	for i := range states {
		to := (i + 1) % len(states)
		replaceWorst(states[to].pop, emigrants[i])
		events.Emit(MigrationPerformed{
			Generation: gen,
			FromIsland: i,
			ToIsland:   to,
			Count:      len(emigrants[i]),
		})
	}
}

func (m *IslandMigration[V]) stopped(states []*state[V]) bool {
	for _, st := range states {
		if st.done {
			return true
		}
	}
	return false
}

func (m *IslandMigration[V]) merge(states []*state[V], cancelled bool) *Result[V] {
	res := &Result[V]{ID: uuid.NewString(), Cancelled: cancelled}
	for _, st := range states {
		res.Population = append(res.Population, st.pop...)
		res.Statistics = append(res.Statistics, st.stats...)
		if res.Best == nil || st.best.Fitness < res.Best.Fitness {
			res.Best = st.best
		}
	}
	return res
}

// bestOf clones the n fittest individuals of a population.
func bestOf[V constraints.Float](pop []*program.Program[V], n int) []*program.Program[V] {
	idx := rankByFitness(pop)
	n = min(n, len(idx))
	out := make([]*program.Program[V], n)
	for i := 0; i < n; i++ {
		out[i] = pop[idx[i]].Clone()
	}
	return out
}

// replaceWorst overwrites the n least fit individuals with the migrants.
func replaceWorst[V constraints.Float](pop []*program.Program[V], migrants []*program.Program[V]) {
	idx := rankByFitness(pop)
	for i, migrant := range migrants {
		pop[idx[len(idx)-1-i]] = migrant
	}
}

// rankByFitness returns population indices ordered best to worst.
func rankByFitness[V constraints.Float](pop []*program.Program[V]) []int {
	idx := make([]int, len(pop))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return pop[idx[a]].Fitness < pop[idx[b]].Fitness
	})
	return idx
}
