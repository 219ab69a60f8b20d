package evolve

import (
	"context"
	"math/rand"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
	"golang.org/x/exp/constraints"

	"lgp/internal/program"
)

// SteadyState is the baseline evolution model. Every generation it selects
// parent pairs by tournament, clones them, applies crossover and the two
// mutation operators by rate, evaluates the children, and writes them over
// inverse-tournament losers in place. There is no full-generation refresh.
type SteadyState[V constraints.Float] struct {
	RunIndex          int
	PopulationSize    int
	Generations       int
	NumOffspring      int // children per generation, rounded up to pairs
	CrossoverRate     float64
	MacroMutationRate float64
	MicroMutationRate float64
	StoppingCriterion float64

	Selector  Tournament[V]
	Crossover *Crossover[V]
	Macro     *MacroMutation[V]
	Micro     *MicroMutation[V]
	Fitness   *Context[V]
	Generator ProgramSource[V]

	Events Sink
	Log    commonlog.Logger

	// evaluate overrides batch evaluation; nil runs sequentially on the
	// coordinator. MasterSlave installs a parallel evaluator here.
	evaluate batchEvaluator[V]
}

type batchEvaluator[V constraints.Float] func(ctx context.Context, fitness *Context[V], batch []*program.Program[V]) error

// state carries a run's population between generations. IslandMigration
// drives several states through the same model settings.
type state[V constraints.Float] struct {
	pop        []*program.Program[V]
	best       *program.Program[V] // frozen clone of the best seen
	stats      []Statistics
	generation int
	done       bool // stopping criterion reached
}

// Run executes the configured number of generations and returns the best
// individual, the final population, and per-generation statistics.
func (m *SteadyState[V]) Run(ctx context.Context, rng *rand.Rand) (*Result[V], error) {
	st, err := m.initialize(ctx, rng)
	if err != nil {
		return nil, err
	}
	if m.Log != nil {
		m.Log.Debugf("run %d: initialized population of %d, best fitness %g",
			m.RunIndex, m.PopulationSize, st.best.Fitness)
	}
	cancelled, err := m.evolve(ctx, st, rng, m.Generations)
	if err != nil {
		return nil, err
	}
	return m.result(st, cancelled), nil
}

// initialize generates and evaluates the starting population.
func (m *SteadyState[V]) initialize(ctx context.Context, rng *rand.Rand) (*state[V], error) {
	pop := make([]*program.Program[V], m.PopulationSize)
	for i := range pop {
		pop[i] = m.Generator.Generate(rng)
	}
	if err := m.evaluateBatch(ctx, pop); err != nil {
		return nil, err
	}
	st := &state[V]{pop: pop}
	st.refreshBest()
	return st, nil
}

// evolve advances the state by up to generations steps. It returns early
// on cancellation or once the stopping criterion is met.
func (m *SteadyState[V]) evolve(ctx context.Context, st *state[V], rng *rand.Rand, generations int) (cancelled bool, err error) {
	events := m.events()
	for g := 0; g < generations && !st.done; g++ {
		gen := st.generation
		if ctx.Err() != nil {
			events.Emit(Cancelled{Run: m.RunIndex, Generation: gen})
			return true, nil
		}
		events.Emit(GenerationStarted{Run: m.RunIndex, Generation: gen})

		var counters operatorCounters
		children := m.breed(st, rng, &counters, events, gen)
		if err := m.evaluateBatch(ctx, children); err != nil {
			return false, err
		}

		for _, child := range children {
			loser := m.Selector.SelectWorstIndex(st.pop, rng)
			st.pop[loser] = child
		}

		st.stats = append(st.stats, capture(gen, st.pop, counters))
		if st.refreshBest() {
			events.Emit(BestFitnessImproved{Run: m.RunIndex, Generation: gen, Fitness: st.best.Fitness})
		}
		if st.best.Fitness <= m.StoppingCriterion {
			st.done = true
		}
		st.generation++
	}
	return false, nil
}

// breed produces one generation's children: tournament parents, cloned,
// crossed over and mutated by rate.
func (m *SteadyState[V]) breed(st *state[V], rng *rand.Rand, counters *operatorCounters, events Sink, gen int) []*program.Program[V] {
	pairs := (m.offspring() + 1) / 2
	children := make([]*program.Program[V], 0, pairs*2)
	for i := 0; i < pairs; i++ {
		parents := m.Selector.Select(st.pop, 2, rng)
		c1, c2 := parents[0].Clone(), parents[1].Clone()

		if rng.Float64() < m.CrossoverRate {
			if err := m.Crossover.Apply(c1, c2, rng); err != nil {
				counters.crossoverSkipped++
				events.Emit(OperatorFailed{Run: m.RunIndex, Generation: gen, Operator: "crossover"})
			} else {
				counters.crossoverApplied++
			}
		}

		for _, child := range []*program.Program[V]{c1, c2} {
			if rng.Float64() < m.MacroMutationRate && m.Macro.Apply(child, rng) {
				counters.macroMutations++
			}
			if rng.Float64() < m.MicroMutationRate && m.Micro.Apply(child, rng) {
				counters.microMutations++
			}
		}
		children = append(children, c1, c2)
	}
	return children
}

func (m *SteadyState[V]) evaluateBatch(ctx context.Context, batch []*program.Program[V]) error {
	if m.evaluate != nil {
		return m.evaluate(ctx, m.Fitness, batch)
	}
	for _, p := range batch {
		m.Fitness.Score(p)
	}
	return nil
}

func (m *SteadyState[V]) offspring() int {
	if m.NumOffspring < 2 {
		return 2
	}
	return m.NumOffspring
}

func (m *SteadyState[V]) events() Sink {
	if m.Events == nil {
		return NopSink{}
	}
	return m.Events
}

func (m *SteadyState[V]) result(st *state[V], cancelled bool) *Result[V] {
	return &Result[V]{
		ID:         uuid.NewString(),
		Best:       st.best,
		Population: st.pop,
		Statistics: st.stats,
		Cancelled:  cancelled,
	}
}

// refreshBest rescans the population and reports whether a new best was
// found. The best is kept as a clone: steady-state replacement may later
// overwrite the population slot it came from.
func (st *state[V]) refreshBest() bool {
	var candidate *program.Program[V]
	for _, p := range st.pop {
		if candidate == nil || p.Fitness < candidate.Fitness {
			candidate = p
		}
	}
	if st.best == nil || candidate.Fitness < st.best.Fitness {
		st.best = candidate.Clone()
		return true
	}
	return false
}
