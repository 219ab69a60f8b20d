// Package program implements the linear program representation: ordered
// instruction lists over a register file, branch-gated execution, effective
// instruction analysis, and the stable textual form with its parser.
package program

import (
	"math"

	"golang.org/x/exp/constraints"

	"lgp/internal/op"
	"lgp/internal/registers"
)

// UndefinedFitness is the sentinel fitness of an individual that has not
// been evaluated (or whose evaluation failed). It orders after every real
// fitness under minimization.
var UndefinedFitness = math.Inf(1)

// Instruction is one register-transfer step: dest = op(operands...), or a
// branch gating the next instruction. The destination always names a
// calculation register; the operand count always matches the operation's
// arity.
type Instruction[V constraints.Float] struct {
	Dest     int
	Op       *op.Operation[V]
	Operands []int
}

// NewInstruction builds an instruction.
func NewInstruction[V constraints.Float](dest int, operation *op.Operation[V], operands ...int) *Instruction[V] {
	return &Instruction[V]{Dest: dest, Op: operation, Operands: operands}
}

// IsBranch mirrors the operation's branch nature.
func (in *Instruction[V]) IsBranch() bool { return in.Op.IsBranch() }

// Clone returns an independent copy. The operation reference is shared;
// operations are immutable.
func (in *Instruction[V]) Clone() *Instruction[V] {
	operands := make([]int, len(in.Operands))
	copy(operands, in.Operands)
	return &Instruction[V]{Dest: in.Dest, Op: in.Op, Operands: operands}
}

// Equal reports structural equality: same operation, destination, and
// operand indices.
func (in *Instruction[V]) Equal(other *Instruction[V]) bool {
	if in.Op != other.Op || in.Dest != other.Dest || len(in.Operands) != len(other.Operands) {
		return false
	}
	for i, o := range in.Operands {
		if o != other.Operands[i] {
			return false
		}
	}
	return true
}

// Program is an individual: an ordered instruction list, the register file
// it executes against, and the registers its outputs are read from.
type Program[V constraints.Float] struct {
	Instructions []*Instruction[V]
	Registers    *registers.File[V]
	Outputs      []int
	Fitness      float64
}

// New builds a program with undefined fitness.
func New[V constraints.Float](instructions []*Instruction[V], file *registers.File[V], outputs []int) *Program[V] {
	return &Program[V]{
		Instructions: instructions,
		Registers:    file,
		Outputs:      outputs,
		Fitness:      UndefinedFitness,
	}
}

// Run executes the instruction list from the top. A branch whose predicate
// is false skips exactly the next instruction; a true predicate lets it
// run. Consecutive branches chain: each gates only the instruction
// immediately after it, so a skipped branch never evaluates its predicate.
// A branch in final position evaluates its predicate and discards it.
func (p *Program[V]) Run() error {
	skip := false
	for _, in := range p.Instructions {
		if skip {
			skip = false
			continue
		}
		args := make([]V, len(in.Operands))
		for i, idx := range in.Operands {
			v, err := p.Registers.Read(idx)
			if err != nil {
				return err
			}
			args[i] = v
		}
		if in.IsBranch() {
			ok, err := in.Op.Test(args)
			if err != nil {
				return err
			}
			skip = !ok
			continue
		}
		result, err := in.Op.Apply(args)
		if err != nil {
			return err
		}
		if err := p.Registers.Write(in.Dest, result); err != nil {
			return err
		}
	}
	return nil
}

// ReadOutputs returns the output register values in declaration order.
func (p *Program[V]) ReadOutputs() ([]V, error) {
	out := make([]V, len(p.Outputs))
	for i, idx := range p.Outputs {
		v, err := p.Registers.Read(idx)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Clone returns a program sharing no mutable state with the source: fresh
// instruction list, fresh register file, same operation references.
func (p *Program[V]) Clone() *Program[V] {
	instructions := make([]*Instruction[V], len(p.Instructions))
	for i, in := range p.Instructions {
		instructions[i] = in.Clone()
	}
	outputs := make([]int, len(p.Outputs))
	copy(outputs, p.Outputs)
	return &Program[V]{
		Instructions: instructions,
		Registers:    p.Registers.Clone(),
		Outputs:      outputs,
		Fitness:      p.Fitness,
	}
}

// Len returns the instruction count.
func (p *Program[V]) Len() int { return len(p.Instructions) }
