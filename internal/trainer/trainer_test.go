package trainer

import (
	"context"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgp/internal/evolve"
	"lgp/internal/program"
	"lgp/internal/registers"
)

// stubModel records the seed stream it was given and returns a canned
// fitness per run.
type stubModel struct {
	run     int
	fitness float64
	mu      *sync.Mutex
	seeds   map[int]int64
}

func (m *stubModel) Run(ctx context.Context, rng *rand.Rand) (*evolve.Result[float64], error) {
	m.mu.Lock()
	m.seeds[m.run] = rng.Int63()
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file := registers.NewFile[float64](1, 0, nil, 0)
	best := program.New(nil, file, []int{0})
	best.Fitness = m.fitness
	return &evolve.Result[float64]{ID: "stub", Best: best}, nil
}

func stubFactory(fitnessByRun []float64) (Factory[float64], map[int]int64) {
	mu := &sync.Mutex{}
	seeds := map[int]int64{}
	return func(run int) evolve.Model[float64] {
		return &stubModel{run: run, fitness: fitnessByRun[run], mu: mu, seeds: seeds}
	}, seeds
}

func TestSequentialTrainerRunsAll(t *testing.T) {
	factory, seeds := stubFactory([]float64{5, 2, 9})
	tr := &Sequential[float64]{Model: factory, Runs: 3, Seed: 1000}

	res, err := tr.Train(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Results, 3)
	assert.Equal(t, 2.0, res.Best.Fitness)
	assert.Equal(t, 1, res.BestRun)

	// Every run draws from its own RNG seeded by master seed + run index.
	require.Len(t, seeds, 3)
	assert.Equal(t, rand.New(rand.NewSource(1000)).Int63(), seeds[0])
	assert.Equal(t, rand.New(rand.NewSource(1001)).Int63(), seeds[1])
	assert.Equal(t, rand.New(rand.NewSource(1002)).Int63(), seeds[2])
}

func TestDistributedTrainerMatchesSequential(t *testing.T) {
	fitness := []float64{4, 7, 1, 3}

	seqFactory, _ := stubFactory(fitness)
	seq := &Sequential[float64]{Model: seqFactory, Runs: 4, Seed: 7}
	seqRes, err := seq.Train(context.Background())
	require.NoError(t, err)

	distFactory, distSeeds := stubFactory(fitness)
	dist := &Distributed[float64]{Model: distFactory, Runs: 4, Seed: 7, Workers: 2}
	distRes, err := dist.Train(context.Background())
	require.NoError(t, err)

	assert.Equal(t, seqRes.Best.Fitness, distRes.Best.Fitness)
	assert.Equal(t, seqRes.BestRun, distRes.BestRun)
	require.Len(t, distRes.Results, 4)
	for run := 0; run < 4; run++ {
		assert.Equal(t, fitness[run], distRes.Results[run].Best.Fitness, "results keep run order")
		assert.Equal(t, rand.New(rand.NewSource(7+int64(run))).Int63(), distSeeds[run])
	}
}

func TestTrainerPropagatesCancellation(t *testing.T) {
	factory, _ := stubFactory([]float64{1})
	tr := &Sequential[float64]{Model: factory, Runs: 1, Seed: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := tr.Train(ctx)
	assert.Error(t, err)
}
