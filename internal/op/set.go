package op

import (
	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
)

// Registry maps operation names to the operations a configuration may
// reference. Unknown names fail at configuration validation, not at run
// time.
type Registry[V constraints.Float] struct {
	byName map[string]*Operation[V]
}

// NewRegistry creates an empty registry.
func NewRegistry[V constraints.Float]() *Registry[V] {
	return &Registry[V]{byName: map[string]*Operation[V]{}}
}

// Builtins returns a registry pre-loaded with the built-in catalogue.
func Builtins[V constraints.Float]() *Registry[V] {
	r := NewRegistry[V]()
	for _, o := range builtins[V]() {
		r.Register(o)
	}
	return r
}

// Register adds an operation under its name, replacing any previous entry.
func (r *Registry[V]) Register(o *Operation[V]) {
	r.byName[o.Name()] = o
}

// Has reports whether a name is registered.
func (r *Registry[V]) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Resolve builds the operation set for a list of configured names.
func (r *Registry[V]) Resolve(names []string) (*Set[V], error) {
	s := &Set[V]{bySymbol: map[string]*Operation[V]{}}
	for _, name := range names {
		o, ok := r.byName[name]
		if !ok {
			return nil, errors.NewUnknownOperationError(name)
		}
		s.ops = append(s.ops, o)
		s.bySymbol[o.Symbol()] = o
		if o.IsBranch() {
			s.branches = append(s.branches, o)
		}
	}
	return s, nil
}

// Set is the resolved collection of operations a run draws from. The draw
// order is the configuration order, so uniform draws are reproducible.
type Set[V constraints.Float] struct {
	ops      []*Operation[V]
	branches []*Operation[V]
	bySymbol map[string]*Operation[V]
}

// NewSet builds a set directly from operations, mainly for tests.
func NewSet[V constraints.Float](ops ...*Operation[V]) *Set[V] {
	s := &Set[V]{bySymbol: map[string]*Operation[V]{}}
	for _, o := range ops {
		s.ops = append(s.ops, o)
		s.bySymbol[o.Symbol()] = o
		if o.IsBranch() {
			s.branches = append(s.branches, o)
		}
	}
	return s
}

// Operations returns all operations in configuration order.
func (s *Set[V]) Operations() []*Operation[V] { return s.ops }

// Branches returns the branch operations in configuration order.
func (s *Set[V]) Branches() []*Operation[V] { return s.branches }

// OfArity returns the operations with the given arity.
func (s *Set[V]) OfArity(a Arity) []*Operation[V] {
	var out []*Operation[V]
	for _, o := range s.ops {
		if o.Arity() == a {
			out = append(out, o)
		}
	}
	return out
}

// BySymbol looks an operation up by its rendering symbol. The program text
// parser uses this to reconstruct instructions.
func (s *Set[V]) BySymbol(symbol string) (*Operation[V], bool) {
	o, ok := s.bySymbol[symbol]
	return o, ok
}

// Len returns the operation count.
func (s *Set[V]) Len() int { return len(s.ops) }
