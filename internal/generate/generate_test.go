package generate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lgperrors "lgp/internal/errors"
	"lgp/internal/op"
	"lgp/internal/registers"
)

func fixture(t *testing.T, names ...string) (*op.Set[float64], *registers.File[float64]) {
	t.Helper()
	set, err := op.Builtins[float64]().Resolve(names)
	require.NoError(t, err)
	file := registers.NewFile[float64](4, 2, []float64{1.0, 2.0}, 0)
	return set, file
}

func TestInstructionGeneratorInvariants(t *testing.T) {
	set, file := fixture(t, "add", "sub", "sin", "ifgt")
	g := NewInstructionGenerator(set, file, 0.5, 0.3)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		in := g.Generate(rng)
		kind, err := file.KindOf(in.Dest)
		require.NoError(t, err)
		assert.Equal(t, registers.Calculation, kind, "destination must be a calculation register")
		assert.Equal(t, int(in.Op.Arity()), len(in.Operands))
		for _, idx := range in.Operands {
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, file.Len())
		}
	}
}

func TestConstantsRateBias(t *testing.T) {
	set, file := fixture(t, "add")
	rng := rand.New(rand.NewSource(2))

	// With rate 1 every trailing operand is a constant register.
	g := NewInstructionGenerator(set, file, 1.0, 0)
	for i := 0; i < 100; i++ {
		in := g.Generate(rng)
		kind, _ := file.KindOf(in.Operands[len(in.Operands)-1])
		assert.Equal(t, registers.Constant, kind)
	}

	// With rate 0 no trailing operand is a constant register.
	g = NewInstructionGenerator(set, file, 0, 0)
	for i := 0; i < 100; i++ {
		in := g.Generate(rng)
		kind, _ := file.KindOf(in.Operands[len(in.Operands)-1])
		assert.NotEqual(t, registers.Constant, kind)
	}
}

func TestBranchRateBias(t *testing.T) {
	set, file := fixture(t, "add", "ifgt")
	rng := rand.New(rand.NewSource(3))

	g := NewInstructionGenerator(set, file, 0, 1.0)
	for i := 0; i < 100; i++ {
		assert.True(t, g.Generate(rng).IsBranch())
	}
}

func TestProgramGeneratorLengthBounds(t *testing.T) {
	set, file := fixture(t, "add", "mul")
	g := &ProgramGenerator[float64]{
		Instructions: NewInstructionGenerator(set, file, 0.5, 0),
		Prototype:    file,
		Outputs:      []int{0},
		MinLength:    3,
		MaxLength:    9,
	}
	rng := rand.New(rand.NewSource(4))

	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		p := g.Generate(rng)
		assert.GreaterOrEqual(t, p.Len(), 3)
		assert.LessOrEqual(t, p.Len(), 9)
		assert.Equal(t, []int{0}, p.Outputs)
		seen[p.Len()] = true
	}
	assert.Greater(t, len(seen), 1, "lengths should vary")
}

func TestProgramGeneratorClonesPrototype(t *testing.T) {
	set, file := fixture(t, "add")
	g := &ProgramGenerator[float64]{
		Instructions: NewInstructionGenerator(set, file, 0, 0),
		Prototype:    file,
		Outputs:      []int{0},
		MinLength:    1,
		MaxLength:    1,
	}
	rng := rand.New(rand.NewSource(5))

	a := g.Generate(rng)
	b := g.Generate(rng)
	require.NoError(t, a.Registers.Write(0, 42))
	v, _ := b.Registers.Read(0)
	assert.Equal(t, 0.0, v, "programs must not share register files")
}

func TestEffectiveProgramGenerator(t *testing.T) {
	set, file := fixture(t, "add", "sub", "mul")
	g := &EffectiveProgramGenerator[float64]{
		Instructions: NewInstructionGenerator(set, file, 0.3, 0),
		Prototype:    file,
		Outputs:      []int{0},
		MinLength:    2,
		MaxLength:    6,
	}
	rng := rand.New(rand.NewSource(6))

	effectiveTotal, total := 0, 0
	for i := 0; i < 100; i++ {
		p := g.Generate(rng)
		assert.GreaterOrEqual(t, p.Len(), 2)
		assert.LessOrEqual(t, p.Len(), 6)
		effectiveTotal += len(p.Effective())
		total += p.Len()
	}
	// Rejection keeps most destinations live, but a kept fallback draw is an
	// intron, and once no calculation register is live nothing before it can
	// be effective. The effective share must still exceed that of
	// unconstrained generation over the same layout.
	baseline := &ProgramGenerator[float64]{
		Instructions: g.Instructions,
		Prototype:    file,
		Outputs:      []int{0},
		MinLength:    2,
		MaxLength:    6,
	}
	baseRng := rand.New(rand.NewSource(6))
	baseEffective, baseTotal := 0, 0
	for i := 0; i < 100; i++ {
		p := baseline.Generate(baseRng)
		baseEffective += len(p.Effective())
		baseTotal += p.Len()
	}
	assert.Greater(t, float64(effectiveTotal)/float64(total), float64(baseEffective)/float64(baseTotal))
}

func TestGenerateEffectiveFallsBackWhenExhausted(t *testing.T) {
	set, file := fixture(t, "add")
	g := NewInstructionGenerator(set, file, 0, 0)
	rng := rand.New(rand.NewSource(7))

	// An empty active set rejects every draw, so the budget runs out and
	// the last unconstrained draw is returned alongside the error.
	in, err := g.GenerateEffective(rng, map[int]bool{})
	require.NotNil(t, in)
	var genErr *lgperrors.GenerationExhaustedError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, 10, genErr.Attempts)

	// A reachable destination succeeds without error.
	active := map[int]bool{0: true, 1: true, 2: true, 3: true}
	in, err = g.GenerateEffective(rng, active)
	require.NoError(t, err)
	assert.True(t, active[in.Dest])
}
