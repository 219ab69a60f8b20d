package program

import (
	"sort"

	"lgp/internal/registers"
)

// Effective-instruction analysis. An instruction is effective when its
// destination reaches an output register through later reads; everything
// else is intron code. The sweep runs backward from the outputs,
// maintaining the set of registers still waiting to be written. Branches
// never produce a value: a contiguous run of branches immediately before an
// effective instruction is effective because its predicates gate that
// instruction.

// EffectiveMarks returns, per instruction index, whether the instruction is
// effective with respect to the program's output registers.
func (p *Program[V]) EffectiveMarks() []bool {
	marks, _ := p.sweep(0)
	return marks
}

// Effective returns the effective instructions preserving original order.
func (p *Program[V]) Effective() []*Instruction[V] {
	marks := p.EffectiveMarks()
	var out []*Instruction[V]
	for i, in := range p.Instructions {
		if marks[i] {
			out = append(out, in)
		}
	}
	return out
}

// EffectiveRegistersAt returns the calculation registers that are live at
// position stop: registers whose values the effective part of
// instructions[stop:] (or an output) will consume. Micro-mutation and
// effective insertion use this to pick destinations that stay effective.
// The result is sorted for reproducible uniform draws.
func (p *Program[V]) EffectiveRegistersAt(stop int) []int {
	_, active := p.sweep(stop)
	var regs []int
	for idx := range active {
		if kind, err := p.Registers.KindOf(idx); err == nil && kind == registers.Calculation {
			regs = append(regs, idx)
		}
	}
	sort.Ints(regs)
	return regs
}

// sweep walks instructions[stop:] from last to first. It returns the
// effectiveness marks (indices below stop are always false) and the active
// register set remaining at stop.
func (p *Program[V]) sweep(stop int) ([]bool, map[int]bool) {
	marks := make([]bool, len(p.Instructions))
	active := map[int]bool{}
	for _, idx := range p.Outputs {
		active[idx] = true
	}
	for i := len(p.Instructions) - 1; i >= stop; i-- {
		in := p.Instructions[i]
		if in.IsBranch() {
			// Handled when the instruction it gates is marked.
			continue
		}
		if !active[in.Dest] {
			continue
		}
		marks[i] = true
		delete(active, in.Dest)
		p.activateOperands(in, active)
		for j := i - 1; j >= stop && p.Instructions[j].IsBranch(); j-- {
			if marks[j] {
				break
			}
			marks[j] = true
			p.activateOperands(p.Instructions[j], active)
		}
	}
	return marks, active
}

// activateOperands adds the instruction's calculation and input operands to
// the active set. Constants are terminal: nothing writes them.
func (p *Program[V]) activateOperands(in *Instruction[V], active map[int]bool) {
	for _, idx := range in.Operands {
		kind, err := p.Registers.KindOf(idx)
		if err != nil {
			continue
		}
		if kind == registers.Calculation || kind == registers.Input {
			active[idx] = true
		}
	}
}
