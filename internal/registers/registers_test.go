package registers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lgp/internal/errors"
)

func TestPartitionLayout(t *testing.T) {
	f := NewFile[float64](2, 1, []float64{7.5}, 0)

	assert.Equal(t, 4, f.Len())
	assert.Equal(t, 2, f.CalculationCount())
	assert.Equal(t, 1, f.InputCount())
	assert.Equal(t, 1, f.ConstantCount())
	assert.Equal(t, 2, f.InputStart())
	assert.Equal(t, 3, f.ConstantStart())

	kinds := []Kind{Calculation, Calculation, Input, Constant}
	for i, want := range kinds {
		kind, err := f.KindOf(i)
		require.NoError(t, err)
		assert.Equal(t, want, kind, "register %d", i)
	}
}

func TestWriteToConstantFails(t *testing.T) {
	f := NewFile[float64](2, 1, []float64{7.5}, 0)

	err := f.Write(3, 1.0)
	var accessErr *errors.RegisterAccessError
	require.ErrorAs(t, err, &accessErr)
	assert.Equal(t, 3, accessErr.Index)

	// The constant is untouched.
	v, err := f.Read(3)
	require.NoError(t, err)
	assert.Equal(t, 7.5, v)
}

func TestWriteReadReset(t *testing.T) {
	f := NewFile[float64](2, 1, []float64{7.5}, 0)

	require.NoError(t, f.Write(0, 5.0))
	v, err := f.Read(0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	f.Reset()
	v, err = f.Read(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, v)
}

func TestResetLeavesInputsAndConstants(t *testing.T) {
	f := NewFile[float64](1, 1, []float64{3.0}, 0)
	require.NoError(t, f.LoadRow([]float64{9.0}))
	require.NoError(t, f.Write(0, 2.0))

	f.Reset()

	v, _ := f.Read(1)
	assert.Equal(t, 9.0, v, "input survives reset")
	v, _ = f.Read(2)
	assert.Equal(t, 3.0, v, "constant survives reset")
}

func TestLoadRowShapeMismatch(t *testing.T) {
	f := NewFile[float64](2, 2, nil, 0)

	err := f.LoadRow([]float64{1.0})
	var shapeErr *errors.RowShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, 2, shapeErr.Want)
	assert.Equal(t, 1, shapeErr.Got)
}

func TestOutOfRangeAccess(t *testing.T) {
	f := NewFile[float64](1, 0, nil, 0)

	_, err := f.Read(5)
	var accessErr *errors.RegisterAccessError
	assert.ErrorAs(t, err, &accessErr)

	err = f.Write(-1, 0)
	assert.ErrorAs(t, err, &accessErr)
}

func TestPerturbConstant(t *testing.T) {
	f := NewFile[float64](1, 0, []float64{2.0}, 0)

	require.NoError(t, f.PerturbConstant(1, 0.5))
	v, _ := f.Read(1)
	assert.Equal(t, 2.5, v)

	// Only constants can be perturbed.
	assert.Error(t, f.PerturbConstant(0, 1.0))
}

func TestCloneIsIndependent(t *testing.T) {
	f := NewFile[float64](1, 1, []float64{1.0}, 0)
	require.NoError(t, f.Write(0, 4.0))

	c := f.Clone()
	require.NoError(t, c.Write(0, 8.0))

	v, _ := f.Read(0)
	assert.Equal(t, 4.0, v, "source unchanged by clone writes")
	v, _ = c.Read(0)
	assert.Equal(t, 8.0, v)
}
