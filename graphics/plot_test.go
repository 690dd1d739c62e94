package graphics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/mesh"
)

func TestTriMeshOf(t *testing.T) {
	m, err := mesh.NewUnitSquareMesh(2)
	require.NoError(t, err)
	gm, err := TriMeshOf(m)
	require.NoError(t, err)
	assert.Len(t, gm.XY, 2*m.NumVertices())
	assert.Len(t, gm.TriVerts, m.NumCells())
	assert.Equal(t, int64(m.Cells[3][2]), gm.TriVerts[3][2])

	xMin, xMax, yMin, yMax := bounds(gm.XY)
	assert.Equal(t, []float32{0, 1, 0, 1}, []float32{xMin, xMax, yMin, yMax})

	lines := BoundaryLines(m)
	var segments int
	for _, l := range lines {
		segments += len(l) / 4
	}
	assert.Equal(t, 8, segments)

	cube, err := mesh.NewUnitCubeMesh(1)
	require.NoError(t, err)
	_, err = TriMeshOf(cube)
	assert.Error(t, err)
}

func TestNodeCrosses(t *testing.T) {
	X := mat.NewDense(2, 2, []float64{0, 1, 0, 2})
	line := NodeCrosses(X, 0.5)
	assert.Equal(t, []float32{
		-0.5, 0, 0.5, 0, 0, -0.5, 0, 0.5,
		0.5, 2, 1.5, 2, 1, 1.5, 1, 2.5,
	}, line)
	assert.Empty(t, NodeCrosses(&mat.Dense{}, 1))
}
