package evolve

import (
	"context"
	"math/rand"

	"golang.org/x/exp/constraints"

	"lgp/internal/program"
)

// Model is one evolution driver. A model owns its population for the
// duration of a run; the RNG is supplied per run so repeated runs are
// independently seeded.
type Model[V constraints.Float] interface {
	Run(ctx context.Context, rng *rand.Rand) (*Result[V], error)
}

// ProgramSource produces the initial population. Both generator variants
// in the generate package satisfy it.
type ProgramSource[V constraints.Float] interface {
	Generate(rng *rand.Rand) *program.Program[V]
}

// Result is the outcome of one evolution run.
type Result[V constraints.Float] struct {
	ID         string // unique run identifier
	Best       *program.Program[V]
	Population []*program.Program[V]
	Statistics []Statistics
	Cancelled  bool
}
