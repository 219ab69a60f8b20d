// Package registers implements the typed register file programs execute
// against. The index space is a dense vector partitioned into three
// contiguous kind ranges: calculation registers first, then input
// registers, then constant registers.
package registers

import (
	"golang.org/x/exp/constraints"

	"lgp/internal/errors"
)

// Kind identifies which partition of the register file an index falls in.
type Kind int

const (
	Calculation Kind = iota // Scratch registers, reset before each evaluation
	Input                   // Written from a dataset row
	Constant                // Immutable after initialization
)

func (k Kind) String() string {
	switch k {
	case Calculation:
		return "calculation"
	case Input:
		return "input"
	case Constant:
		return "constant"
	}
	return "unknown"
}

// File is a register file over a float value type V. A File is owned
// exclusively by one program; sharing between programs goes through Clone.
type File[V constraints.Float] struct {
	values       []V
	nCalculation int
	nInput       int
	nConstant    int
	defaultValue V
}

// NewFile builds a register file with the given partition sizes. The
// constant partition is seeded from constants and never written afterwards;
// calculation registers start at (and reset to) defaultValue.
func NewFile[V constraints.Float](nCalculation, nInput int, constants []V, defaultValue V) *File[V] {
	f := &File[V]{
		values:       make([]V, nCalculation+nInput+len(constants)),
		nCalculation: nCalculation,
		nInput:       nInput,
		nConstant:    len(constants),
		defaultValue: defaultValue,
	}
	for i := range f.values[:nCalculation] {
		f.values[i] = defaultValue
	}
	copy(f.values[nCalculation+nInput:], constants)
	return f
}

// Len returns the total register count across all partitions.
func (f *File[V]) Len() int {
	return len(f.values)
}

// CalculationCount returns the size of the calculation partition.
func (f *File[V]) CalculationCount() int { return f.nCalculation }

// InputCount returns the size of the input partition.
func (f *File[V]) InputCount() int { return f.nInput }

// ConstantCount returns the size of the constant partition.
func (f *File[V]) ConstantCount() int { return f.nConstant }

// InputStart returns the first index of the input partition.
func (f *File[V]) InputStart() int { return f.nCalculation }

// ConstantStart returns the first index of the constant partition.
func (f *File[V]) ConstantStart() int { return f.nCalculation + f.nInput }

// KindOf reports which partition the index belongs to.
func (f *File[V]) KindOf(i int) (Kind, error) {
	switch {
	case i < 0 || i >= len(f.values):
		return 0, errors.NewRegisterOutOfRangeError(i, len(f.values))
	case i < f.nCalculation:
		return Calculation, nil
	case i < f.nCalculation+f.nInput:
		return Input, nil
	default:
		return Constant, nil
	}
}

// Read returns the value stored at index i.
func (f *File[V]) Read(i int) (V, error) {
	if i < 0 || i >= len(f.values) {
		return 0, errors.NewRegisterOutOfRangeError(i, len(f.values))
	}
	return f.values[i], nil
}

// Write stores v at index i. Writes to the constant partition fail.
func (f *File[V]) Write(i int, v V) error {
	kind, err := f.KindOf(i)
	if err != nil {
		return err
	}
	if kind == Constant {
		return errors.NewConstantWriteError(i)
	}
	f.values[i] = v
	return nil
}

// Reset restores every calculation register to the default value. Input and
// constant partitions are untouched.
func (f *File[V]) Reset() {
	for i := range f.values[:f.nCalculation] {
		f.values[i] = f.defaultValue
	}
}

// LoadRow copies a dataset row's features into the input partition.
func (f *File[V]) LoadRow(features []V) error {
	if len(features) != f.nInput {
		return &errors.RowShapeError{Want: f.nInput, Got: len(features)}
	}
	copy(f.values[f.nCalculation:f.nCalculation+f.nInput], features)
	return nil
}

// PerturbConstant adds delta to the constant at index i. Constants are
// local to the owning program's file, so micro-mutation goes through this
// instead of Write.
func (f *File[V]) PerturbConstant(i int, delta V) error {
	kind, err := f.KindOf(i)
	if err != nil {
		return err
	}
	if kind != Constant {
		return &errors.RegisterAccessError{
			Code:    errors.ErrorRegisterOutOfRange,
			Index:   i,
			Message: "not a constant register",
		}
	}
	f.values[i] += delta
	return nil
}

// Clone returns an independent copy of the file.
func (f *File[V]) Clone() *File[V] {
	c := &File[V]{
		values:       make([]V, len(f.values)),
		nCalculation: f.nCalculation,
		nInput:       f.nInput,
		nConstant:    f.nConstant,
		defaultValue: f.defaultValue,
	}
	copy(c.values, f.values)
	return c
}
