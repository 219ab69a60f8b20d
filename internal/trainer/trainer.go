// Package trainer repeats an evolution model over independent runs and
// aggregates the resulting ensemble.
package trainer

import (
	"context"
	"math/rand"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"

	"lgp/internal/evolve"
	"lgp/internal/program"
)

// Factory builds a fresh model for a run. Runs are independent: every run
// gets its own model instance and its own RNG seeded from the master seed
// combined with the run index.
type Factory[V constraints.Float] func(run int) evolve.Model[V]

// TrainingResult is the ensemble of results across runs.
type TrainingResult[V constraints.Float] struct {
	Results []*evolve.Result[V]
	Best    *program.Program[V]
	BestRun int
}

// Sequential runs the model's repetitions in order.
type Sequential[V constraints.Float] struct {
	Model   Factory[V]
	Runs    int
	Seed    int64
	Timeout time.Duration // per-run; zero disables
	Log     commonlog.Logger
}

// Train executes the configured runs.
func (t *Sequential[V]) Train(ctx context.Context) (*TrainingResult[V], error) {
	results := make([]*evolve.Result[V], t.Runs)
	for run := 0; run < t.Runs; run++ {
		res, err := runOne(ctx, t.Model, run, t.Seed, t.Timeout)
		if err != nil {
			return nil, err
		}
		logRun(t.Log, run, res)
		results[run] = res
	}
	return summarize(results), nil
}

// Distributed runs the repetitions on a worker pool.
type Distributed[V constraints.Float] struct {
	Model   Factory[V]
	Runs    int
	Seed    int64
	Timeout time.Duration
	Workers int
	Log     commonlog.Logger
}

// Train executes the configured runs concurrently.
func (t *Distributed[V]) Train(ctx context.Context) (*TrainingResult[V], error) {
	results := make([]*evolve.Result[V], t.Runs)
	g, gctx := errgroup.WithContext(ctx)
	if t.Workers > 0 {
		g.SetLimit(t.Workers)
	}
	for run := 0; run < t.Runs; run++ {
		run := run
		g.Go(func() error {
			res, err := runOne(gctx, t.Model, run, t.Seed, t.Timeout)
			if err != nil {
				return err
			}
			logRun(t.Log, run, res)
			results[run] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summarize(results), nil
}

func runOne[V constraints.Float](ctx context.Context, factory Factory[V], run int, seed int64, timeout time.Duration) (*evolve.Result[V], error) {
	rng := rand.New(rand.NewSource(seed + int64(run)))
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return factory(run).Run(ctx, rng)
}

func logRun[V constraints.Float](log commonlog.Logger, run int, res *evolve.Result[V]) {
	if log == nil {
		return
	}
	if res.Cancelled {
		log.Noticef("run %d (%s): cancelled, best fitness %g", run, res.ID, res.Best.Fitness)
		return
	}
	log.Infof("run %d (%s): best fitness %g", run, res.ID, res.Best.Fitness)
}

func summarize[V constraints.Float](results []*evolve.Result[V]) *TrainingResult[V] {
	tr := &TrainingResult[V]{Results: results}
	for run, res := range results {
		if tr.Best == nil || res.Best.Fitness < tr.Best.Fitness {
			tr.Best = res.Best
			tr.BestRun = run
		}
	}
	return tr
}
