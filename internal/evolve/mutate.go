package evolve

import (
	"math/rand"

	"golang.org/x/exp/constraints"

	"lgp/internal/generate"
	"lgp/internal/op"
	"lgp/internal/program"
	"lgp/internal/registers"
)

// MacroMutation inserts or deletes one whole instruction. The strategy
// draw picks insertion with probability InsertionRate, but the length
// bounds always win: a program at the minimum never shrinks and a program
// at the maximum never grows. When both directions are closed
// (MinLength == MaxLength) the individual passes through unchanged.
type MacroMutation[V constraints.Float] struct {
	InsertionRate float64
	MinLength     int
	MaxLength     int
	Generator     *generate.InstructionGenerator[V]
	Effective     bool // constrain inserted destinations to the live set
}

// Apply mutates the program in place and reports whether it changed.
func (m *MacroMutation[V]) Apply(p *program.Program[V], rng *rand.Rand) bool {
	insert := rng.Float64() < m.InsertionRate
	canInsert := p.Len() < m.MaxLength
	canDelete := p.Len() > m.MinLength

	switch {
	case canInsert && (insert || !canDelete):
		m.insert(p, rng)
	case canDelete && (!insert || !canInsert):
		m.delete(p, rng)
	default:
		return false
	}
	return true
}

func (m *MacroMutation[V]) insert(p *program.Program[V], rng *rand.Rand) {
	pos := rng.Intn(p.Len() + 1)
	in := m.Generator.Generate(rng)
	if m.Effective && !in.IsBranch() {
		if live := p.EffectiveRegistersAt(pos); len(live) > 0 {
			in.Dest = live[rng.Intn(len(live))]
		}
	}
	instructions := make([]*program.Instruction[V], 0, p.Len()+1)
	instructions = append(instructions, p.Instructions[:pos]...)
	instructions = append(instructions, in)
	instructions = append(instructions, p.Instructions[pos:]...)
	p.Instructions = instructions
}

func (m *MacroMutation[V]) delete(p *program.Program[V], rng *rand.Rand) {
	pos := rng.Intn(p.Len())
	p.Instructions = append(p.Instructions[:pos:pos], p.Instructions[pos+1:]...)
}

// MicroMutation rewrites one field of one randomly chosen effective
// instruction: a register, the operator, or a referenced constant. The
// three rates are normalized probabilities summing to 1.
type MicroMutation[V constraints.Float] struct {
	RegisterRate   float64
	OperatorRate   float64
	ConstantRate   float64
	Ops            *op.Set[V]
	ConstantStdDev float64 // sigma of the Gaussian constant perturbation
}

// Apply mutates the program in place and reports whether it changed.
// Programs with no effective instructions pass through unchanged.
func (m *MicroMutation[V]) Apply(p *program.Program[V], rng *rand.Rand) bool {
	marks := p.EffectiveMarks()
	var candidates []int
	for i, marked := range marks {
		if marked {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	target := candidates[rng.Intn(len(candidates))]

	draw := rng.Float64()
	switch {
	case draw < m.RegisterRate:
		return m.mutateRegister(p, target, rng)
	case draw < m.RegisterRate+m.OperatorRate:
		return m.mutateOperator(p, target, rng)
	default:
		return m.mutateConstant(p, target, rng)
	}
}

// mutateRegister replaces the destination or one operand. Destination
// replacement prefers registers that stay live after this instruction so
// the mutation does not turn the instruction into an intron.
func (m *MicroMutation[V]) mutateRegister(p *program.Program[V], target int, rng *rand.Rand) bool {
	in := p.Instructions[target]
	slot := rng.Intn(1 + len(in.Operands))
	if slot == 0 && !in.IsBranch() {
		if live := p.EffectiveRegistersAt(target + 1); len(live) > 0 {
			in.Dest = live[rng.Intn(len(live))]
		} else {
			in.Dest = rng.Intn(p.Registers.CalculationCount())
		}
		return true
	}
	if slot == 0 {
		slot = 1 // branches have no destination to rewrite
	}
	in.Operands[slot-1] = rng.Intn(p.Registers.Len())
	return true
}

// mutateOperator replaces the operation with a uniform draw from the set.
// When the arities differ the operand list is regenerated to match.
func (m *MicroMutation[V]) mutateOperator(p *program.Program[V], target int, rng *rand.Rand) bool {
	in := p.Instructions[target]
	all := m.Ops.Operations()
	next := all[rng.Intn(len(all))]
	if next.Arity() != in.Op.Arity() {
		operands := make([]int, next.Arity())
		for i := range operands {
			if i < len(in.Operands) {
				operands[i] = in.Operands[i]
				continue
			}
			operands[i] = rng.Intn(p.Registers.Len())
		}
		in.Operands = operands
	}
	in.Op = next
	return true
}

// mutateConstant perturbs a constant operand of the chosen instruction
// with Gaussian noise. Instructions without constant operands fall back to
// a register mutation so the draw is never wasted.
func (m *MicroMutation[V]) mutateConstant(p *program.Program[V], target int, rng *rand.Rand) bool {
	in := p.Instructions[target]
	var constants []int
	for _, idx := range in.Operands {
		if kind, err := p.Registers.KindOf(idx); err == nil && kind == registers.Constant {
			constants = append(constants, idx)
		}
	}
	if len(constants) == 0 {
		return m.mutateRegister(p, target, rng)
	}
	idx := constants[rng.Intn(len(constants))]
	noise := V(rng.NormFloat64() * m.ConstantStdDev)
	return p.Registers.PerturbConstant(idx, noise) == nil
}
