package program

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"golang.org/x/exp/constraints"

	"lgp/internal/op"
	"lgp/internal/registers"
)

// Parser for the stable textual form. Commented lines are elided, so
// parsing an effective-only dump yields just the effective program.

var programLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Int", `[0-9]+`, nil},
		{"Cmp", `(<=|>=|==|!=|<|>)`, nil},
		{"Assign", `=`, nil},
		{"Operator", `[-+*/%&|^]`, nil},
		{"Punct", `[()\[\],]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

type textProgram struct {
	Lines []*textLine `@@*`
}

type textLine struct {
	Branch *textBranch `  @@`
	Assign *textAssign `| @@`
}

type textBranch struct {
	Left  *textReg `"if" "(" @@`
	Cmp   string   `@Cmp`
	Right *textReg `@@ ")"`
}

type textAssign struct {
	Dest  *textReg   `@@ Assign`
	Call  *textCall  `( @@`
	Infix *textInfix `| @@ )`
}

type textCall struct {
	Name string     `@Ident`
	Args []*textReg `"(" @@ ("," @@)* ")"`
}

type textInfix struct {
	Left  *textReg `@@`
	Op    string   `@Operator`
	Right *textReg `@@`
}

type textReg struct {
	Index int `"r" "[" @Int "]"`
}

// Parse reconstructs a program from its textual form. Operations are
// resolved by symbol against the set; the register file and outputs come
// from the caller since the textual form does not carry them.
func Parse[V constraints.Float](source string, set *op.Set[V], file *registers.File[V], outputs []int) (*Program[V], error) {
	parser, err := participle.Build[textProgram](
		participle.Lexer(programLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(3),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build parser: %w", err)
	}
	parsed, err := parser.ParseString("program", source)
	if err != nil {
		return nil, err
	}

	instructions := make([]*Instruction[V], 0, len(parsed.Lines))
	for lineNo, line := range parsed.Lines {
		in, err := convertLine[V](line, set, file)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		instructions = append(instructions, in)
	}
	return New(instructions, file, outputs), nil
}

func convertLine[V constraints.Float](line *textLine, set *op.Set[V], file *registers.File[V]) (*Instruction[V], error) {
	if line.Branch != nil {
		operation, ok := set.BySymbol(line.Branch.Cmp)
		if !ok || !operation.IsBranch() {
			return nil, fmt.Errorf("no branch operation for %q", line.Branch.Cmp)
		}
		return NewInstruction(0, operation, line.Branch.Left.Index, line.Branch.Right.Index), nil
	}

	assign := line.Assign
	kind, err := file.KindOf(assign.Dest.Index)
	if err != nil {
		return nil, err
	}
	if kind != registers.Calculation {
		return nil, fmt.Errorf("destination r[%d] is a %s register", assign.Dest.Index, kind)
	}

	var symbol string
	var operands []int
	switch {
	case assign.Call != nil:
		symbol = assign.Call.Name
		for _, arg := range assign.Call.Args {
			operands = append(operands, arg.Index)
		}
	default:
		symbol = assign.Infix.Op
		operands = []int{assign.Infix.Left.Index, assign.Infix.Right.Index}
	}

	operation, ok := set.BySymbol(symbol)
	if !ok {
		return nil, fmt.Errorf("no operation for %q", symbol)
	}
	if int(operation.Arity()) != len(operands) {
		return nil, fmt.Errorf("operation %s wants %d operand(s), got %d",
			operation.Name(), operation.Arity(), len(operands))
	}
	return NewInstruction(assign.Dest.Index, operation, operands...), nil
}

// ParseRegisterIndex reads a bare register reference such as "r[3]" (or a
// plain integer) into an index.
func ParseRegisterIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "r[") && strings.HasSuffix(s, "]") {
		return strconv.Atoi(s[2 : len(s)-1])
	}
	return strconv.Atoi(s)
}
