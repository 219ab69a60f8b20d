package evolve

import (
	"context"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingMigrationMovesBestOverWorst(t *testing.T) {
	m := &IslandMigration[float64]{Islands: 4, MigrationInterval: 10, MigrationSize: 2}
	events := &collectorSink{}

	// Four islands of 25 with disjoint, recognizable fitness bands.
	states := make([]*state[float64], 4)
	for i := range states {
		fitness := make([]float64, 25)
		for j := range fitness {
			fitness[j] = float64(i*100 + j)
		}
		states[i] = &state[float64]{pop: scoredPopulation(fitness...)}
	}

	// Snapshot every sender's best two before the exchange.
	bests := make([][]float64, 4)
	for i, st := range states {
		var fs []float64
		for _, p := range st.pop {
			fs = append(fs, p.Fitness)
		}
		sort.Float64s(fs)
		bests[i] = fs[:2]
	}

	m.migrate(states, 10, events)

	for i := range states {
		to := (i + 1) % 4
		var fs []float64
		for _, p := range states[to].pop {
			fs = append(fs, p.Fitness)
		}
		sort.Float64s(fs)
		// The receiver's former worst two are gone; the sender's former
		// best two are present.
		assert.Contains(t, fs, bests[i][0], "island %d best must reach island %d", i, to)
		assert.Contains(t, fs, bests[i][1])
		assert.NotContains(t, fs, float64(to*100+24), "island %d worst must be replaced", to)
		assert.NotContains(t, fs, float64(to*100+23))
	}

	migrations := events.byName("migration.performed")
	require.Len(t, migrations, 4)
	for _, e := range migrations {
		mp := e.(MigrationPerformed)
		assert.Equal(t, 10, mp.Generation)
		assert.Equal(t, (mp.FromIsland+1)%4, mp.ToIsland)
		assert.Equal(t, 2, mp.Count)
	}
}

func TestMigrantsAreClones(t *testing.T) {
	m := &IslandMigration[float64]{Islands: 2, MigrationInterval: 1, MigrationSize: 1}
	states := []*state[float64]{
		{pop: scoredPopulation(1, 2)},
		{pop: scoredPopulation(3, 4)},
	}
	sender := states[0].pop[0]

	m.migrate(states, 1, NopSink{})

	// The receiving island holds an equal but distinct individual.
	var migrant = states[1].pop[1]
	assert.Equal(t, sender.Fitness, migrant.Fitness)
	assert.NotSame(t, sender, migrant)
}

func TestIslandMigrationRun(t *testing.T) {
	proto := identityModel(t, nil)
	proto.PopulationSize = 40
	proto.Generations = 100
	m := &IslandMigration[float64]{
		Prototype:         *proto,
		Islands:           4,
		MigrationInterval: 10,
		MigrationSize:     2,
	}

	res, err := m.Run(context.Background(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	require.NotNil(t, res.Best)

	assert.Len(t, res.Population, 40, "island populations merge back")
	assert.NotEmpty(t, res.Statistics)
	assert.Less(t, res.Best.Fitness, 1.0, "migration should not hurt convergence")
}

func TestIslandMigrationCancellation(t *testing.T) {
	proto := identityModel(t, nil)
	proto.StoppingCriterion = -1
	m := &IslandMigration[float64]{
		Prototype:         *proto,
		Islands:           2,
		MigrationInterval: 5,
		MigrationSize:     1,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := m.Run(ctx, rand.New(rand.NewSource(8)))
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}
