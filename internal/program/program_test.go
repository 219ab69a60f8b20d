package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgp/internal/op"
	"lgp/internal/registers"
)

func testSet(t *testing.T) *op.Set[float64] {
	t.Helper()
	set, err := op.Builtins[float64]().Resolve([]string{"add", "sub", "mul", "sin", "ifgt", "ifle", "id"})
	require.NoError(t, err)
	return set
}

func mustOp(t *testing.T, set *op.Set[float64], symbol string) *op.Operation[float64] {
	t.Helper()
	o, ok := set.BySymbol(symbol)
	require.True(t, ok, "operation %q", symbol)
	return o
}

func TestBranchGatesNextInstruction(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")
	sub := mustOp(t, set, "-")
	gt := mustOp(t, set, ">")

	build := func(r1, r2 float64) *Program[float64] {
		file := registers.NewFile[float64](3, 0, nil, 0)
		require.NoError(t, file.Write(1, r1))
		require.NoError(t, file.Write(2, r2))
		return New([]*Instruction[float64]{
			NewInstruction(0, gt, 1, 2),
			NewInstruction(0, add, 1, 2),
			NewInstruction(0, sub, 1, 2),
		}, file, []int{0})
	}

	// Predicate true: both following instructions execute in order.
	p := build(3, 1)
	require.NoError(t, p.Run())
	out, err := p.ReadOutputs()
	require.NoError(t, err)
	assert.Equal(t, 2.0, out[0]) // add then sub, last write wins

	// Predicate false: the addition is skipped.
	p = build(1, 3)
	require.NoError(t, p.Run())
	out, err = p.ReadOutputs()
	require.NoError(t, err)
	assert.Equal(t, -2.0, out[0])
}

func TestConsecutiveBranchesChain(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")
	gt := mustOp(t, set, ">")
	le := mustOp(t, set, "<=")

	// A false first branch skips the second branch entirely, so the add
	// runs even though the second predicate would also have gated it.
	file := registers.NewFile[float64](3, 0, nil, 0)
	require.NoError(t, file.Write(1, 1))
	require.NoError(t, file.Write(2, 3))
	p := New([]*Instruction[float64]{
		NewInstruction(0, gt, 1, 2), // 1 > 3: false, skip next
		NewInstruction(0, gt, 2, 1), // skipped, never evaluated
		NewInstruction(0, add, 1, 2),
	}, file, []int{0})
	require.NoError(t, p.Run())
	out, _ := p.ReadOutputs()
	assert.Equal(t, 4.0, out[0])

	// Both branches pass: the gated instruction runs.
	file = registers.NewFile[float64](3, 0, nil, 0)
	require.NoError(t, file.Write(1, 5))
	require.NoError(t, file.Write(2, 3))
	p = New([]*Instruction[float64]{
		NewInstruction(0, gt, 1, 2), // 5 > 3: true
		NewInstruction(0, le, 2, 1), // 3 <= 5: true
		NewInstruction(0, add, 1, 2),
	}, file, []int{0})
	require.NoError(t, p.Run())
	out, _ = p.ReadOutputs()
	assert.Equal(t, 8.0, out[0])
}

func TestFinalBranchPredicateDiscarded(t *testing.T) {
	set := testSet(t)
	gt := mustOp(t, set, ">")

	file := registers.NewFile[float64](2, 0, nil, 0)
	p := New([]*Instruction[float64]{
		NewInstruction(0, gt, 0, 1),
	}, file, []int{0})

	require.NoError(t, p.Run())
	out, err := p.ReadOutputs()
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[0], "a final branch writes nothing")
}

func TestRunFailsOnOperandArityMismatch(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")

	file := registers.NewFile[float64](2, 0, nil, 0)
	p := New([]*Instruction[float64]{
		{Dest: 0, Op: add, Operands: []int{1}}, // malformed on purpose
	}, file, []int{0})

	assert.Error(t, p.Run())
}

func TestCloneObservationallyEqual(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")
	mul := mustOp(t, set, "*")

	file := registers.NewFile[float64](2, 1, []float64{2.5}, 0)
	require.NoError(t, file.LoadRow([]float64{4.0}))
	p := New([]*Instruction[float64]{
		NewInstruction(0, add, 2, 3),
		NewInstruction(1, mul, 0, 0),
	}, file, []int{1})
	p.Fitness = 1.25

	c := p.Clone()
	assert.Equal(t, p.String(), c.String())
	assert.Equal(t, p.Fitness, c.Fitness)

	require.NoError(t, p.Run())
	require.NoError(t, c.Run())
	pOut, _ := p.ReadOutputs()
	cOut, _ := c.ReadOutputs()
	assert.Equal(t, pOut, cOut)

	// Mutating the clone leaves the source untouched.
	c.Instructions[0].Dest = 1
	assert.Equal(t, 0, p.Instructions[0].Dest)
	require.NoError(t, c.Registers.Write(0, 99))
	v, _ := p.Registers.Read(0)
	assert.NotEqual(t, 99.0, v)
}

func TestInstructionEqual(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")
	sub := mustOp(t, set, "-")

	a := NewInstruction(0, add, 1, 2)
	assert.True(t, a.Equal(NewInstruction(0, add, 1, 2)))
	assert.False(t, a.Equal(NewInstruction(1, add, 1, 2)))
	assert.False(t, a.Equal(NewInstruction(0, sub, 1, 2)))
	assert.False(t, a.Equal(NewInstruction(0, add, 2, 1)))
}

func TestRendering(t *testing.T) {
	set := testSet(t)
	add := mustOp(t, set, "+")
	sin := mustOp(t, set, "sin")
	gt := mustOp(t, set, ">")

	file := registers.NewFile[float64](3, 1, nil, 0)
	p := New([]*Instruction[float64]{
		NewInstruction(0, add, 1, 2),
		NewInstruction(1, sin, 3),
		NewInstruction(0, gt, 0, 1),
	}, file, []int{0})

	assert.Equal(t, "r[0] = r[1] + r[2]\nr[1] = sin(r[3])\nif (r[0] > r[1])\n", p.String())
}
