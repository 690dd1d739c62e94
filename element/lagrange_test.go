package element

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/utils"
)

func binomial(n, k int) int {
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}

func TestLagrangeNodeCounts(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		for degree := 1; degree <= 4; degree++ {
			le, err := NewLagrange(dim, degree)
			require.NoError(t, err, "dim %d degree %d", dim, degree)
			assert.Equal(t, binomial(degree+dim, dim), le.NumUnitNodes())

			// Vertices come first
			for v := 0; v <= dim; v++ {
				mi := le.MultiIndex(v)
				assert.Equal(t, degree, mi[v])
			}
			// Entity dofs partition the local nodes, in local order
			var next int
			for e, ents := range le.EntityDofs() {
				assert.Len(t, ents, binomial(dim+1, e+1))
				for _, dofs := range ents {
					for _, j := range dofs {
						assert.Equal(t, next, j)
						next++
					}
				}
			}
			assert.Equal(t, le.Nunit, next)

			B := le.BarycentricUnitNodes()
			for j := 0; j < le.Nunit; j++ {
				assert.InDelta(t, 1., mat.Sum(B.ColView(j)), 1e-14)
			}
		}
	}
}

func TestUnitNodes(t *testing.T) {
	le, err := NewLagrange(2, 1)
	require.NoError(t, err)
	assert.True(t, mat.Equal(
		mat.NewDense(2, 3, []float64{-1, 1, -1, -1, -1, 1}),
		le.UnitNodes()))
}

func TestFlipMatrixIsInvolution(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		for degree := 1; degree <= 4; degree++ {
			le, err := NewLagrange(dim, degree)
			require.NoError(t, err)
			F := le.FlipMatrix()
			defect, err := utils.InvolutionDefect(F)
			require.NoError(t, err)
			assert.Less(t, defect, 1e-12)

			// The flip swaps the first two barycentric weights of each node
			perm := le.FlipPermutation()
			for i := 0; i < le.Nunit; i++ {
				swapped := append([]int{}, le.MultiIndex(i)...)
				swapped[0], swapped[1] = swapped[1], swapped[0]
				assert.Equal(t, swapped, le.MultiIndex(perm[i]))
				assert.Equal(t, 1., F.At(i, perm[i]))
			}
		}
	}
}

func TestFlipPermutationTriangle(t *testing.T) {
	le, err := NewLagrange(2, 1)
	require.NoError(t, err)
	assert.Equal(t, utils.Index{1, 0, 2}, le.FlipPermutation())

	le, err = NewLagrange(2, 2)
	require.NoError(t, err)
	// Edge (0,1) is fixed, edges (0,2) and (1,2) trade places
	assert.Equal(t, utils.Index{1, 0, 2, 3, 5, 4}, le.FlipPermutation())
}

func TestFlipValidation(t *testing.T) {
	le, err := NewLagrange(2, 1)
	require.NoError(t, err)
	cyclic := mat.NewDense(3, 3, []float64{
		0, 1, 0,
		0, 0, 1,
		1, 0, 0,
	})
	err = le.setFlip(cyclic)
	assert.True(t, errors.Is(err, ErrFlipNotInvolution))

	le, err = NewLagrange(1, 1)
	require.NoError(t, err)
	// An involution that does not permute nodes
	reflect := mat.NewDense(2, 2, []float64{0.6, 0.8, 0.8, -0.6})
	err = le.setFlip(reflect)
	assert.True(t, errors.Is(err, ErrFlipNotInvolution))
}

func TestUnsupported(t *testing.T) {
	_, err := NewLagrange(4, 1)
	assert.True(t, errors.Is(err, ErrUnsupported))
	_, err = NewLagrange(2, 0)
	assert.True(t, errors.Is(err, ErrUnsupported))

	le, err := NewLagrange(1, 2)
	require.NoError(t, err)
	_, err = le.Facet()
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestFacet(t *testing.T) {
	le, err := NewLagrange(2, 2)
	require.NoError(t, err)
	fe, err := le.Facet()
	require.NoError(t, err)
	assert.Equal(t, 1, fe.Dim)
	assert.Equal(t, 3, fe.Nunit)
	assert.Equal(t, []int{0, 1, 3}, le.NodesOnFacet([]int{0, 1}))
	assert.Equal(t, []int{1, 2, 5}, le.NodesOnFacet([]int{1, 2}))
}

func TestJacobiP(t *testing.T) {
	x := []float64{-1, -0.5, 0, 0.5, 1}
	P0 := JacobiP(x, 0, 0, 0)
	P1 := JacobiP(x, 0, 0, 1)
	P2 := JacobiP(x, 0, 0, 2)
	for i, xi := range x {
		assert.InDelta(t, 1/math.Sqrt(2), P0[i], 1e-14)
		assert.InDelta(t, math.Sqrt(1.5)*xi, P1[i], 1e-14)
		assert.InDelta(t, math.Sqrt(2.5)*(1.5*xi*xi-0.5), P2[i], 1e-14)
	}
}
