package evolve

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"

	"lgp/internal/program"
)

// MasterSlave runs the steady-state control flow with the evaluation stage
// spread over a worker pool: the initial population and every batch of
// children are scored in parallel, while selection, crossover, mutation,
// and replacement stay sequential on the coordinator. Each worker receives
// an isolated clone (the fitness context clones before executing), so no
// population state is shared; results land on their source program by
// identity. Evaluation draws no randomness, so a fixed seed reproduces the
// same run at any worker count.
type MasterSlave[V constraints.Float] struct {
	SteadyState[V]
	Workers int
}

// Run executes the model.
func (m *MasterSlave[V]) Run(ctx context.Context, rng *rand.Rand) (*Result[V], error) {
	m.SteadyState.evaluate = parallelEvaluator[V](m.workers())
	return m.SteadyState.Run(ctx, rng)
}

func (m *MasterSlave[V]) workers() int {
	if m.Workers < 1 {
		return runtime.NumCPU()
	}
	return m.Workers
}

// parallelEvaluator scores a batch over an errgroup bounded to the worker
// count. The coordinator blocks until the slowest evaluation finishes; a
// dispatched batch always completes, and cancellation is honored at the
// next generation boundary.
func parallelEvaluator[V constraints.Float](workers int) batchEvaluator[V] {
	return func(ctx context.Context, fitness *Context[V], batch []*program.Program[V]) error {
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, p := range batch {
			p := p
			g.Go(func() error {
				fitness.Score(p)
				return nil
			})
		}
		return g.Wait()
	}
}
