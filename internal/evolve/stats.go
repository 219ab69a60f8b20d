package evolve

import (
	"math"

	"golang.org/x/exp/constraints"

	"lgp/internal/program"
)

// Statistics is the per-generation snapshot captured by every model.
type Statistics struct {
	Generation    int
	BestFitness   float64
	MeanFitness   float64
	StdDevFitness float64
	MinLength     int
	MaxLength     int
	MeanLength    float64
	StdDevLength  float64

	// Operator success counters for the generation.
	CrossoverApplied int
	CrossoverSkipped int
	MacroMutations   int
	MicroMutations   int
}

// operatorCounters accumulates within one generation and is folded into
// the snapshot.
type operatorCounters struct {
	crossoverApplied int
	crossoverSkipped int
	macroMutations   int
	microMutations   int
}

func capture[V constraints.Float](gen int, pop []*program.Program[V], counters operatorCounters) Statistics {
	fitness := make([]float64, len(pop))
	lengths := make([]float64, len(pop))
	minLen, maxLen := pop[0].Len(), pop[0].Len()
	for i, p := range pop {
		fitness[i] = p.Fitness
		lengths[i] = float64(p.Len())
		minLen = min(minLen, p.Len())
		maxLen = max(maxLen, p.Len())
	}
	meanFit, stdFit := meanStdDev(fitness)
	meanLen, stdLen := meanStdDev(lengths)

	best := fitness[0]
	for _, f := range fitness[1:] {
		best = math.Min(best, f)
	}

	return Statistics{
		Generation:       gen,
		BestFitness:      best,
		MeanFitness:      meanFit,
		StdDevFitness:    stdFit,
		MinLength:        minLen,
		MaxLength:        maxLen,
		MeanLength:       meanLen,
		StdDevLength:     stdLen,
		CrossoverApplied: counters.crossoverApplied,
		CrossoverSkipped: counters.crossoverSkipped,
		MacroMutations:   counters.macroMutations,
		MicroMutations:   counters.microMutations,
	}
}

func meanStdDev(values []float64) (mean, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}
