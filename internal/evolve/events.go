package evolve

import (
	"github.com/tliron/commonlog"
)

// Event is a typed diagnostic emitted by the evolution models.
type Event interface {
	Name() string
}

// GenerationStarted fires at the top of every generation.
type GenerationStarted struct {
	Run        int
	Generation int
}

func (GenerationStarted) Name() string { return "generation.started" }

// BestFitnessImproved fires when a generation produces a new best.
type BestFitnessImproved struct {
	Run        int
	Generation int
	Fitness    float64
}

func (BestFitnessImproved) Name() string { return "best.improved" }

// MigrationPerformed fires after an island ring exchange.
type MigrationPerformed struct {
	Generation int
	FromIsland int
	ToIsland   int
	Count      int
}

func (MigrationPerformed) Name() string { return "migration.performed" }

// OperatorFailed fires when a variation operator gives up within a
// generation (e.g. crossover could not satisfy the length bounds).
type OperatorFailed struct {
	Run        int
	Generation int
	Operator   string
}

func (OperatorFailed) Name() string { return "operator.failed" }

// Cancelled fires when a run stops at a cancellation check.
type Cancelled struct {
	Run        int
	Generation int
}

func (Cancelled) Name() string { return "run.cancelled" }

// Sink receives events. Models hold an explicit sink rather than any
// process-wide dispatcher; whoever builds the model supplies it.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(Event) {}

// LogSink mirrors events onto a commonlog logger.
type LogSink struct {
	Log commonlog.Logger
}

func (s LogSink) Emit(e Event) {
	switch ev := e.(type) {
	case GenerationStarted:
		s.Log.Debugf("run %d: generation %d", ev.Run, ev.Generation)
	case BestFitnessImproved:
		s.Log.Infof("run %d: generation %d: best fitness %g", ev.Run, ev.Generation, ev.Fitness)
	case MigrationPerformed:
		s.Log.Infof("generation %d: migrated %d individual(s) from island %d to island %d",
			ev.Generation, ev.Count, ev.FromIsland, ev.ToIsland)
	case OperatorFailed:
		s.Log.Debugf("run %d: generation %d: %s skipped", ev.Run, ev.Generation, ev.Operator)
	case Cancelled:
		s.Log.Noticef("run %d: cancelled at generation %d", ev.Run, ev.Generation)
	default:
		s.Log.Debugf("event %s", e.Name())
	}
}
