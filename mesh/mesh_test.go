package mesh

import (
	"math"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two triangles sharing the edge 1-2, the second is clockwise
func twoTriangles(t *testing.T) *Mesh {
	t.Helper()
	m, err := NewFromArrays(
		[][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		[][]int{{0, 1, 2}, {1, 2, 3}},
		[]Facet{
			{Vertices: []int{0, 1}, Marker: 1},
			{Vertices: []int{3, 1}, Marker: 2},
			{Vertices: []int{2, 3}, Marker: 3},
		})
	require.NoError(t, err)
	return m
}

func TestTwoTriangleConnectivity(t *testing.T) {
	m := twoTriangles(t)
	assert.Equal(t, 2, m.Dim)
	assert.Equal(t, 2, m.AmbientDim)
	assert.Equal(t, Triangle, m.CellType)
	assert.Len(t, m.Faces, 5)
	assert.Len(t, m.ExteriorFacets(), 4)

	// Face 1 of cell 0 is face 0 of cell 1
	assert.Equal(t, []int{-1, 1, -1}, m.EToE[0])
	assert.Equal(t, []int{-1, 0, -1}, m.EToF[0])
	assert.Equal(t, []int{0, -1, -1}, m.EToE[1])
	assert.Equal(t, []int{1, -1, -1}, m.EToF[1])
	assert.Equal(t, m.CellFaceIDs(0)[1], m.CellFaceIDs(1)[0])

	assert.Equal(t, []int{1, 2, 3}, m.UniqueMarkers())
	// Left edge carries no marker
	var unmarked int
	for _, f := range m.ExteriorFacets() {
		if f.Marker == 0 {
			unmarked++
			assert.Equal(t, []int{0, 2}, f.Vertices)
		}
	}
	assert.Equal(t, 1, unmarked)

	orient, err := m.Orientations()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1}, orient)

	bv := m.BoundaryVertices(2)
	assert.Equal(t, map[int]bool{1: true, 3: true}, bv)
}

func TestUnitSquareMesh(t *testing.T) {
	n := 4
	m, err := NewUnitSquareMesh(n)
	require.NoError(t, err)
	assert.Equal(t, (n+1)*(n+1), m.NumVertices())
	assert.Equal(t, 2*n*n, m.NumCells())
	assert.Len(t, m.ExteriorFacets(), 4*n)
	assert.Equal(t, []int{1, 2, 3, 4}, m.UniqueMarkers())
	for marker := 1; marker <= 4; marker++ {
		assert.Len(t, m.MarkedFacets(marker), n)
		assert.Len(t, m.BoundaryVertices(marker), n+1)
	}
	orient, err := m.Orientations()
	require.NoError(t, err)
	for k, o := range orient {
		if k%2 == 0 {
			assert.Equal(t, 1., o, "cell %d", k)
		} else {
			assert.Equal(t, -1., o, "cell %d", k)
		}
	}
	// Interior faces have two cells
	var interior int
	for _, f := range m.Faces {
		if !f.IsExterior() {
			interior++
			assert.Equal(t, f.Element, m.EToE[f.Neighbor][f.NeighborLocalID])
		}
	}
	assert.Equal(t, len(m.Faces)-4*n, interior)
}

func TestOrientationRotationInvariant(t *testing.T) {
	m, err := NewUnitSquareMesh(3)
	require.NoError(t, err)
	before, err := m.Orientations()
	require.NoError(t, err)
	m.Transform(Rotate2D(2.1))
	after, err := m.Orientations()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func scaleBy(h float64) func(x []float64) []float64 {
	return func(x []float64) []float64 {
		y := make([]float64, len(x))
		for i, xi := range x {
			y[i] = h * xi
		}
		return y
	}
}

func TestOrientationScaleInvariant(t *testing.T) {
	cube, err := NewUnitCubeMesh(1)
	require.NoError(t, err)
	square, err := NewUnitSquareMesh(2)
	require.NoError(t, err)
	testCases := []struct {
		name string
		m    *Mesh
		h    float64
	}{
		{"cube", cube, 5e-5},
		{"square", square, 1e-7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			before, err := tc.m.Orientations()
			require.NoError(t, err)
			tc.m.Transform(scaleBy(tc.h))
			after, err := tc.m.Orientations()
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
	// A sliver that is flat relative to its own size is still degenerate
	m, err := NewFromArrays(
		[][]float64{{0, 0}, {1e-3, 0}, {2e-3, 1e-18}},
		[][]int{{0, 1, 2}},
		nil)
	require.NoError(t, err)
	_, err = m.Orientations()
	assert.Error(t, err)
}

func TestIntervalMesh(t *testing.T) {
	m, err := NewIntervalMesh(5)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Dim)
	assert.Len(t, m.ExteriorFacets(), 2)
	assert.Equal(t, []int{1, 2}, m.UniqueMarkers())
	orient, err := m.Orientations()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -1, 1, -1, 1}, orient)
}

func TestUnitCubeMesh(t *testing.T) {
	n := 2
	m, err := NewUnitCubeMesh(n)
	require.NoError(t, err)
	assert.Equal(t, 6*n*n*n, m.NumCells())
	assert.Len(t, m.ExteriorFacets(), 12*n*n)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, m.UniqueMarkers())
	orient, err := m.Orientations()
	require.NoError(t, err)
	var pos, neg int
	for _, o := range orient {
		if o > 0 {
			pos++
		} else {
			neg++
		}
	}
	// Even and odd permutations of the axes alternate in sign
	assert.Equal(t, pos, neg)
	var volume float64
	for k := range m.Cells {
		volume += math.Abs(detOf(m, k)) / 6
	}
	assert.InDelta(t, 1., volume, 1e-12)
}

func detOf(m *Mesh, k int) float64 {
	J := m.CellJacobian(k)
	a := J.RawRowView(0)
	b := J.RawRowView(1)
	c := J.RawRowView(2)
	return a[0]*(b[1]*c[2]-b[2]*c[1]) - a[1]*(b[0]*c[2]-b[2]*c[0]) + a[2]*(b[0]*c[1]-b[1]*c[0])
}

func TestFacetOrientation(t *testing.T) {
	m, err := NewUnitSquareMesh(1)
	require.NoError(t, err)
	// Counterclockwise cell, bottom edge in cell order points outward
	s, err := m.FacetOrientation(m.Faces[m.CellFaceIDs(0)[0]])
	require.NoError(t, err)
	assert.Equal(t, 1., s)
	// Clockwise cell, left edge in cell order points inward
	f := m.Faces[m.CellFaceIDs(1)[0]]
	require.Equal(t, 1, f.Element)
	s, err = m.FacetOrientation(f)
	require.NoError(t, err)
	assert.Equal(t, -1., s)
}

func TestValidateAggregates(t *testing.T) {
	_, err := NewFromArrays(
		[][]float64{{0, 0}, {1, 0}, {0, 1}},
		[][]int{{0, 1, 7}, {0, 0, 1}},
		nil)
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 2)
}

func TestOrientationErrors(t *testing.T) {
	// Surface mesh in 3D
	m, err := NewFromArrays(
		[][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 1}},
		[][]int{{0, 1, 2}},
		nil)
	require.NoError(t, err)
	assert.Equal(t, 3, m.AmbientDim)
	_, err = m.Orientations()
	assert.Error(t, err)

	// Degenerate cell
	m, err = NewFromArrays(
		[][]float64{{0, 0}, {1, 0}, {2, 0}},
		[][]int{{0, 1, 2}},
		nil)
	require.NoError(t, err)
	_, err = m.Orientations()
	assert.Error(t, err)
}
