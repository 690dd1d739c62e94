package fespace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fembem/mesh"
)

func twoTriangles(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewFromArrays(
		[][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}},
		[][]int{{0, 1, 2}, {1, 2, 3}},
		[]mesh.Facet{{Vertices: []int{0, 1}, Marker: 1}})
	require.NoError(t, err)
	return m
}

func TestCellNodeListP1(t *testing.T) {
	m := twoTriangles(t)
	cg, err := New(m, CG, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {1, 2, 3}}, cg.CellNodeList())
	assert.Equal(t, 4, cg.NumNodes())

	dg, err := New(m, DG, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{0, 1, 2}, {3, 4, 5}}, dg.CellNodeList())
	assert.Equal(t, 6, dg.NumNodes())
	assert.True(t, cg.SameElement(cg.Vector(2)))
	assert.False(t, cg.SameElement(dg))
}

// Every node id is used, and a shared node has the same position in all
// cells that reference it
func checkNumbering(t *testing.T, fs *FunctionSpace) {
	t.Helper()
	var (
		m    = fs.Mesh
		X    = fs.NodeCoordinates()
		B    = fs.Element.BarycentricUnitNodes()
		used = make([]bool, fs.NumNodes())
	)
	for k, row := range fs.CellNodeList() {
		for j, node := range row {
			used[node] = true
			for d := 0; d < m.AmbientDim; d++ {
				var x float64
				for i, v := range m.Cells[k] {
					x += B.At(i, j) * m.Vertices[v][d]
				}
				assert.InDelta(t, x, X.At(node, d), 1e-14, "cell %d node %d", k, j)
			}
		}
	}
	for i, u := range used {
		assert.True(t, u, "node %d unused", i)
	}
}

func TestCGNumbering(t *testing.T) {
	for _, degree := range []int{1, 2, 3} {
		n := 3
		m, err := mesh.NewUnitSquareMesh(n)
		require.NoError(t, err)
		fs, err := New(m, CG, degree, 1)
		require.NoError(t, err)
		assert.Equal(t, (degree*n+1)*(degree*n+1), fs.NumNodes())
		checkNumbering(t, fs)
		// Vertex nodes keep the vertex numbering
		for k, c := range m.Cells {
			for i, v := range c {
				assert.Equal(t, v, fs.CellNodeList()[k][i])
			}
		}
	}

	m, err := mesh.NewUnitCubeMesh(1)
	require.NoError(t, err)
	fs, err := New(m, CG, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 64, fs.NumNodes())
	checkNumbering(t, fs)

	m, err = mesh.NewIntervalMesh(4)
	require.NoError(t, err)
	fs, err = New(m, CG, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, fs.NumNodes())
	checkNumbering(t, fs)
}

func TestDGNumbering(t *testing.T) {
	m, err := mesh.NewUnitSquareMesh(2)
	require.NoError(t, err)
	fs, err := New(m, DG, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 8*6, fs.NumNodes())
	checkNumbering(t, fs)
}

func TestBoundaryNodes(t *testing.T) {
	n := 3
	m, err := mesh.NewUnitSquareMesh(n)
	require.NoError(t, err)
	fs, err := New(m, CG, 2, 1)
	require.NoError(t, err)
	X := fs.NodeCoordinates()
	bottom := fs.BoundaryNodes(1)
	assert.Len(t, bottom, 2*n+1)
	for _, node := range bottom {
		assert.InDelta(t, 0., X.At(node, 1), 1e-14)
	}
	assert.Empty(t, fs.BoundaryNodes(7))
}

func TestInterpolate(t *testing.T) {
	m, err := mesh.NewUnitSquareMesh(2)
	require.NoError(t, err)
	fs, err := New(m, CG, 2, 2)
	require.NoError(t, err)
	f := NewFunction(fs)
	require.NoError(t, f.Interpolate(func(x []float64) []float64 {
		return []float64{x[0] + 2*x[1], x[0] * x[1]}
	}))
	X := fs.NodeCoordinates()
	for i := 0; i < fs.NumNodes(); i++ {
		x, y := X.At(i, 0), X.At(i, 1)
		assert.InDelta(t, x+2*y, f.Data.At(i, 0), 1e-14)
		assert.InDelta(t, x*y, f.Data.At(i, 1), 1e-14)
	}
	assert.Len(t, f.Values(), 2*fs.NumNodes())

	err = f.Interpolate(func(x []float64) []float64 { return []float64{1} })
	assert.True(t, errors.Is(err, ErrIncompatible))
	_, err = NewFunctionFrom(fs, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrIncompatible))
}

func TestParseFamily(t *testing.T) {
	f, err := ParseFamily("dg")
	require.NoError(t, err)
	assert.Equal(t, DG, f)
	f, err = ParseFamily("Lagrange")
	require.NoError(t, err)
	assert.Equal(t, CG, f)
	_, err = ParseFamily("RT")
	assert.Error(t, err)
}
