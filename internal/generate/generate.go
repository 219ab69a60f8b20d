// Package generate synthesizes random instructions and programs for the
// initial population and for macro-mutation.
package generate

import (
	"math/rand"

	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
	"lgp/internal/op"
	"lgp/internal/program"
	"lgp/internal/registers"
)

// fallbackAttempts is the rejection budget of the effective generator
// before it falls back to an unconstrained draw.
const fallbackAttempts = 10

// InstructionGenerator draws random instructions over a register layout
// and an operation set.
type InstructionGenerator[V constraints.Float] struct {
	ops           *op.Set[V]
	file          *registers.File[V] // layout source only, never written
	constantsRate float64
	branchRate    float64
}

// NewInstructionGenerator builds a generator. constantsRate biases the
// last operand of each instruction toward the constant partition;
// branchRate biases operation draws toward branch operations.
func NewInstructionGenerator[V constraints.Float](ops *op.Set[V], file *registers.File[V], constantsRate, branchRate float64) *InstructionGenerator[V] {
	return &InstructionGenerator[V]{
		ops:           ops,
		file:          file,
		constantsRate: constantsRate,
		branchRate:    branchRate,
	}
}

// Generate draws one random instruction: destination uniform over the
// calculation partition, operation uniform over the set (biased by the
// branch rate), operands uniform over the whole register file with the
// constants-rate bias on the last operand.
func (g *InstructionGenerator[V]) Generate(rng *rand.Rand) *program.Instruction[V] {
	operation := g.drawOperation(rng)
	dest := rng.Intn(g.file.CalculationCount())
	operands := make([]int, operation.Arity())
	for i := range operands {
		if i == len(operands)-1 {
			operands[i] = g.drawBiasedOperand(rng)
			continue
		}
		operands[i] = rng.Intn(g.file.Len())
	}
	return program.NewInstruction(dest, operation, operands...)
}

// GenerateEffective draws an instruction whose destination lies in the
// active register set, rejecting up to the fallback budget. When the
// budget runs out it returns the last draw together with a
// GenerationExhaustedError; callers recover by keeping the unconstrained
// instruction.
func (g *InstructionGenerator[V]) GenerateEffective(rng *rand.Rand, active map[int]bool) (*program.Instruction[V], error) {
	var in *program.Instruction[V]
	for attempt := 0; attempt < fallbackAttempts; attempt++ {
		in = g.Generate(rng)
		if in.IsBranch() || active[in.Dest] {
			return in, nil
		}
	}
	return in, &errors.GenerationExhaustedError{Attempts: fallbackAttempts}
}

func (g *InstructionGenerator[V]) drawOperation(rng *rand.Rand) *op.Operation[V] {
	branches := g.ops.Branches()
	if len(branches) > 0 && g.branchRate > 0 && rng.Float64() < g.branchRate {
		return branches[rng.Intn(len(branches))]
	}
	all := g.ops.Operations()
	return all[rng.Intn(len(all))]
}

// drawBiasedOperand draws the constants-biased operand: a constant
// register with probability constantsRate, otherwise uniform over the
// writable partitions.
func (g *InstructionGenerator[V]) drawBiasedOperand(rng *rand.Rand) int {
	if g.file.ConstantCount() > 0 && rng.Float64() < g.constantsRate {
		return g.file.ConstantStart() + rng.Intn(g.file.ConstantCount())
	}
	return rng.Intn(g.file.ConstantStart())
}

// ProgramGenerator draws whole random programs with a uniform length in
// [minLength, maxLength].
type ProgramGenerator[V constraints.Float] struct {
	Instructions *InstructionGenerator[V]
	Prototype    *registers.File[V] // cloned into every program
	Outputs      []int
	MinLength    int
	MaxLength    int
}

// Generate draws a random program.
func (g *ProgramGenerator[V]) Generate(rng *rand.Rand) *program.Program[V] {
	length := g.MinLength + rng.Intn(g.MaxLength-g.MinLength+1)
	instructions := make([]*program.Instruction[V], length)
	for i := range instructions {
		instructions[i] = g.Instructions.Generate(rng)
	}
	outputs := make([]int, len(g.Outputs))
	copy(outputs, g.Outputs)
	return program.New(instructions, g.Prototype.Clone(), outputs)
}

// EffectiveProgramGenerator draws programs biased toward effective code. It
// builds back to front, rejecting instructions whose destination is not in
// the active set computed backward from the outputs. After the rejection
// budget it keeps the last draw so generation cannot starve on small
// register files; such a draw is an intron, and once no calculation
// register is live no earlier instruction is effective, so programs are
// not guaranteed to be fully effective.
type EffectiveProgramGenerator[V constraints.Float] struct {
	Instructions *InstructionGenerator[V]
	Prototype    *registers.File[V]
	Outputs      []int
	MinLength    int
	MaxLength    int
}

// Generate draws a random program with effective-biased instructions.
func (g *EffectiveProgramGenerator[V]) Generate(rng *rand.Rand) *program.Program[V] {
	length := g.MinLength + rng.Intn(g.MaxLength-g.MinLength+1)
	instructions := make([]*program.Instruction[V], length)

	active := map[int]bool{}
	for _, idx := range g.Outputs {
		active[idx] = true
	}

	for i := length - 1; i >= 0; i-- {
		// An exhausted rejection budget is recovered: the unconstrained
		// draw stands so generation cannot starve on small register files.
		in, _ := g.Instructions.GenerateEffective(rng, active)
		instructions[i] = in
		if !in.IsBranch() {
			delete(active, in.Dest)
		}
		for _, idx := range in.Operands {
			if kind, err := g.Prototype.KindOf(idx); err == nil && kind == registers.Calculation {
				active[idx] = true
			}
		}
	}

	outputs := make([]int, len(g.Outputs))
	copy(outputs, g.Outputs)
	return program.New(instructions, g.Prototype.Clone(), outputs)
}
