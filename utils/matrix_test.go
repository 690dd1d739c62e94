package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMatrix(t *testing.T) {
	// Round and chop
	{
		M := mat.NewDense(2, 2, []float64{
			0.9999999, 1.e-14,
			-2.0000001, 3.4,
		})
		R := MatRound(M)
		assert.Equal(t, []float64{1, 0, -2, 3}, R.RawMatrix().Data)
		assert.Equal(t, 0.9999999, M.At(0, 0))
		MatChop(M, 1.e-12)
		assert.Equal(t, 0., M.At(0, 1))
		assert.Equal(t, 3.4, M.At(1, 1))
	}
	// Involution defect
	{
		F := mat.NewDense(3, 3, []float64{
			0, 1, 0,
			1, 0, 0,
			0, 0, 1,
		})
		d, err := InvolutionDefect(F)
		require.NoError(t, err)
		assert.InDelta(t, 0, d, 1.e-15)
		C := mat.NewDense(3, 3, []float64{
			0, 1, 0,
			0, 0, 1,
			1, 0, 0,
		})
		d, err = InvolutionDefect(C)
		require.NoError(t, err)
		assert.Greater(t, d, FLIPTOL)
		_, err = InvolutionDefect(mat.NewDense(2, 3, nil))
		assert.Error(t, err)
	}
	// Permutation extraction
	{
		F := mat.NewDense(3, 3, []float64{
			0, 0, 1,
			1, 0, 0,
			0, 1, 0,
		})
		p, err := PermutationOf(F)
		require.NoError(t, err)
		assert.Equal(t, Index{2, 0, 1}, p)

		_, err = PermutationOf(mat.NewDense(2, 2, []float64{1, 1, 0, 0}))
		assert.Error(t, err)
		_, err = PermutationOf(mat.NewDense(2, 2, []float64{0.5, 0, 0, 1}))
		assert.Error(t, err)
		_, err = PermutationOf(mat.NewDense(2, 2, []float64{1, 0, 0, 0}))
		assert.Error(t, err)
	}
}

func TestIsNan(t *testing.T) {
	assert.False(t, IsNan([]float64{1, 2}))
	assert.True(t, IsNan([]float64{1, math.NaN()}))
	assert.True(t, IsNan(math.NaN()))
	assert.True(t, IsNan(mat.NewDense(1, 2, []float64{0, math.NaN()})))
	assert.False(t, IsNan("not a number"))
}
