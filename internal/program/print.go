package program

import (
	"fmt"
	"strings"
)

// Textual program form, one instruction per line:
//
//	r[0] = r[1] + r[2]
//	r[0] = sin(r[3])
//	if (r[1] > r[2])
//
// The form is stable: Parse reconstructs an equal program from it.

// Render returns the instruction's textual form.
func (in *Instruction[V]) Render() string {
	operands := make([]string, len(in.Operands))
	for i, idx := range in.Operands {
		operands[i] = fmt.Sprintf("r[%d]", idx)
	}
	if in.IsBranch() {
		return in.Op.Render(operands)
	}
	return fmt.Sprintf("r[%d] = %s", in.Dest, in.Op.Render(operands))
}

// String renders every instruction, one per line.
func (p *Program[V]) String() string {
	var b strings.Builder
	for _, in := range p.Instructions {
		b.WriteString(in.Render())
		b.WriteByte('\n')
	}
	return b.String()
}

// RenderEffective renders the whole program with non-effective lines
// commented out.
func (p *Program[V]) RenderEffective() string {
	marks := p.EffectiveMarks()
	var b strings.Builder
	for i, in := range p.Instructions {
		if !marks[i] {
			b.WriteString("// ")
		}
		b.WriteString(in.Render())
		b.WriteByte('\n')
	}
	return b.String()
}
