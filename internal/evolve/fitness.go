package evolve

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"lgp/internal/dataset"
	"lgp/internal/errors"
	"lgp/internal/program"
)

// Function scores a program's outputs against the fitness cases. Lower is
// better; the engine minimizes.
type Function[V constraints.Float] func(cases []dataset.Case[V], outputs [][]V) float64

// MSE is the mean squared error over the first output register.
func MSE[V constraints.Float](cases []dataset.Case[V], outputs [][]V) float64 {
	var sum float64
	for i, c := range cases {
		diff := float64(outputs[i][0] - c.Target[0])
		sum += diff * diff
	}
	return sum / float64(len(cases))
}

// SumOfMeanSquaredErrors scores multi-output programs: the per-output mean
// squared errors are summed.
func SumOfMeanSquaredErrors[V constraints.Float](cases []dataset.Case[V], outputs [][]V) float64 {
	var sum float64
	for i, c := range cases {
		for j := range c.Target {
			diff := float64(outputs[i][j] - c.Target[j])
			sum += diff * diff
		}
	}
	return sum / float64(len(cases))
}

// Evaluation is the outcome of scoring one program over the cases.
type Evaluation[V constraints.Float] struct {
	Program *program.Program[V]
	Fitness float64
	Outputs [][]V
}

// Context evaluates programs against a fixed case list with a fitness
// function. Evaluation clones the program first so shared state is never
// mutated; the clone's register file is reset and reloaded per case, so no
// state leaks between cases.
type Context[V constraints.Float] struct {
	Cases []dataset.Case[V]
	Fn    Function[V]
}

// Evaluate scores one program. Execution failures (including panics out of
// operation functions) are recovered: the fitness becomes the undefined
// sentinel and the error is reported alongside the evaluation.
func (c *Context[V]) Evaluate(p *program.Program[V]) (ev *Evaluation[V], err error) {
	clone := p.Clone()
	ev = &Evaluation[V]{Program: clone, Fitness: program.UndefinedFitness}

	defer func() {
		if r := recover(); r != nil {
			clone.Fitness = program.UndefinedFitness
			err = &errors.EvaluationError{Case: -1, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	outputs := make([][]V, len(c.Cases))
	for i, cs := range c.Cases {
		clone.Registers.Reset()
		if lerr := clone.Registers.LoadRow(cs.Features); lerr != nil {
			return ev, &errors.EvaluationError{Case: i, Err: lerr}
		}
		if rerr := clone.Run(); rerr != nil {
			return ev, &errors.EvaluationError{Case: i, Err: rerr}
		}
		out, oerr := clone.ReadOutputs()
		if oerr != nil {
			return ev, &errors.EvaluationError{Case: i, Err: oerr}
		}
		outputs[i] = out
	}

	clone.Fitness = c.Fn(c.Cases, outputs)
	ev.Fitness = clone.Fitness
	ev.Outputs = outputs
	return ev, nil
}

// Score evaluates p and writes the resulting fitness back onto p itself.
// Failed evaluations leave the undefined sentinel, which steady-state
// replacement then drives out of the population.
func (c *Context[V]) Score(p *program.Program[V]) float64 {
	ev, _ := c.Evaluate(p)
	p.Fitness = ev.Fitness
	return p.Fitness
}
