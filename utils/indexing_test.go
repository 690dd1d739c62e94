package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	// Ranges
	{
		assert.Equal(t, Index{2, 3, 4}, NewRange(2, 4))
		assert.Equal(t, Index{}, NewRange(3, 1))
		assert.Equal(t, Index{0, 1, 2, 3}, NewIdentity(4))
		assert.Len(t, NewIdentity(0), 0)
		assert.Equal(t, Index{-1, -1}, NewConst(2, -1))
	}
	// Copy does not alias
	{
		I := Index{1, 2, 3}
		J := I.Copy()
		J[0] = 7
		assert.Equal(t, 1, I[0])
	}
	// Subset composes
	{
		I := Index{4, 5, 6, 7}
		assert.Equal(t, Index{7, 4, 4}, I.Subset(Index{3, 0, 0}))
		flip := Index{1, 0, 2}
		assert.Equal(t, NewIdentity(3), flip.Subset(flip))
	}
	// Gather fills negative entries with zero
	{
		I := Index{2, -1, 0}
		r, err := I.Gather([]float64{10, 20, 30})
		require.NoError(t, err)
		assert.Equal(t, []float64{30, 0, 10}, r)
		_, err = Index{3}.Gather([]float64{1, 2})
		assert.Error(t, err)
	}
}
