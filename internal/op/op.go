// Package op defines the operation values instructions apply, the built-in
// operation catalogue, and the name registry configurations resolve against.
package op

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
)

// Arity is the number of operands an operation consumes.
type Arity int

const (
	Unary  Arity = 1
	Binary Arity = 2
)

// Operation is an immutable function object applied by instructions.
// Regular operations compute a value written to the destination register.
// Branch operations compute a predicate instead: they write nothing and
// gate the instruction that follows them.
type Operation[V constraints.Float] struct {
	name      string
	symbol    string
	arity     Arity
	infix     bool
	fn        func(args []V) V
	predicate func(a, b V) bool
}

// New builds a regular operation. symbol is used for rendering: infix
// operations render as "a symbol b", the rest as "symbol(a, b)".
func New[V constraints.Float](name, symbol string, arity Arity, infix bool, fn func(args []V) V) *Operation[V] {
	return &Operation[V]{name: name, symbol: symbol, arity: arity, infix: infix, fn: fn}
}

// NewBranch builds a branch operation with a two-operand predicate.
func NewBranch[V constraints.Float](name, symbol string, predicate func(a, b V) bool) *Operation[V] {
	return &Operation[V]{name: name, symbol: symbol, arity: Binary, predicate: predicate}
}

// Name returns the registry name, e.g. "add".
func (o *Operation[V]) Name() string { return o.name }

// Symbol returns the rendering symbol, e.g. "+" or "sin".
func (o *Operation[V]) Symbol() string { return o.symbol }

// Arity returns the operand count.
func (o *Operation[V]) Arity() Arity { return o.arity }

// IsBranch reports whether the operation gates the next instruction
// instead of writing a register.
func (o *Operation[V]) IsBranch() bool { return o.predicate != nil }

// Apply validates the argument count and computes the operation's value.
// Applying a branch operation is an invariant violation.
func (o *Operation[V]) Apply(args []V) (V, error) {
	if len(args) != int(o.arity) {
		return 0, &errors.ArityError{Operation: o.name, Want: int(o.arity), Got: len(args)}
	}
	if o.IsBranch() {
		return 0, fmt.Errorf("branch operation %s applied as a value", o.name)
	}
	return o.fn(args), nil
}

// Test validates the argument count and evaluates the branch predicate.
func (o *Operation[V]) Test(args []V) (bool, error) {
	if len(args) != int(o.arity) {
		return false, &errors.ArityError{Operation: o.name, Want: int(o.arity), Got: len(args)}
	}
	if !o.IsBranch() {
		return false, fmt.Errorf("operation %s has no predicate", o.name)
	}
	return o.predicate(args[0], args[1]), nil
}

// Render produces the right-hand side (or branch form) of the textual
// program representation from already-rendered operand names.
func (o *Operation[V]) Render(operands []string) string {
	if o.IsBranch() {
		return fmt.Sprintf("if (%s %s %s)", operands[0], o.symbol, operands[1])
	}
	if o.infix {
		return fmt.Sprintf("%s %s %s", operands[0], o.symbol, operands[1])
	}
	return fmt.Sprintf("%s(%s)", o.symbol, strings.Join(operands, ", "))
}
