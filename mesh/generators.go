package mesh

import (
	"math"
)

// NewIntervalMesh is [0,1] split into n cells, odd cells are listed right to
// left so they are negatively oriented. The left end has marker 1, the right
// end marker 2.
func NewIntervalMesh(n int) (m *Mesh, err error) {
	var (
		verts = make([][]float64, n+1)
		cells = make([][]int, n)
	)
	for i := range verts {
		verts[i] = []float64{float64(i) / float64(n)}
	}
	for k := range cells {
		if k%2 == 0 {
			cells[k] = []int{k, k + 1}
		} else {
			cells[k] = []int{k + 1, k}
		}
	}
	facets := []Facet{
		{Vertices: []int{0}, Marker: 1},
		{Vertices: []int{n}, Marker: 2},
	}
	return NewFromArrays(verts, cells, facets)
}

// NewUnitSquareMesh triangulates the unit square with n x n squares, each cut
// along its diagonal. Lower triangles are counterclockwise, upper triangles
// clockwise. Sides are marked bottom 1, right 2, top 3, left 4.
func NewUnitSquareMesh(n int) (m *Mesh, err error) {
	var (
		np    = n + 1
		verts = make([][]float64, 0, np*np)
		cells = make([][]int, 0, 2*n*n)
		id    = func(i, j int) int { return j*np + i }
	)
	for j := 0; j < np; j++ {
		for i := 0; i < np; i++ {
			verts = append(verts, []float64{float64(i) / float64(n), float64(j) / float64(n)})
		}
	}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			v00, v10, v11, v01 := id(i, j), id(i+1, j), id(i+1, j+1), id(i, j+1)
			cells = append(cells,
				[]int{v00, v10, v11},
				[]int{v00, v01, v11},
			)
		}
	}
	if m, err = NewFromArrays(verts, cells, nil); err != nil {
		return
	}
	err = m.MarkExterior(func(c []float64) int {
		switch {
		case c[1] < tol:
			return 1
		case c[0] > 1-tol:
			return 2
		case c[1] > 1-tol:
			return 3
		default:
			return 4
		}
	})
	return
}

// NewUnitCubeMesh splits each of the n x n x n cubes into six tetrahedra
// around the main diagonal. Faces are marked x=0 1, x=1 2, y=0 3, y=1 4,
// z=0 5, z=1 6.
func NewUnitCubeMesh(n int) (m *Mesh, err error) {
	var (
		np    = n + 1
		verts = make([][]float64, 0, np*np*np)
		cells = make([][]int, 0, 6*n*n*n)
		id    = func(i, j, k int) int { return (k*np+j)*np + i }
		perms = [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	)
	for k := 0; k < np; k++ {
		for j := 0; j < np; j++ {
			for i := 0; i < np; i++ {
				verts = append(verts, []float64{
					float64(i) / float64(n), float64(j) / float64(n), float64(k) / float64(n)})
			}
		}
	}
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				for _, p := range perms {
					ijk := [3]int{i, j, k}
					tet := []int{id(ijk[0], ijk[1], ijk[2])}
					for _, axis := range p {
						ijk[axis]++
						tet = append(tet, id(ijk[0], ijk[1], ijk[2]))
					}
					cells = append(cells, tet)
				}
			}
		}
	}
	if m, err = NewFromArrays(verts, cells, nil); err != nil {
		return
	}
	err = m.MarkExterior(func(c []float64) int {
		for axis := 0; axis < 3; axis++ {
			switch {
			case c[axis] < tol:
				return 2*axis + 1
			case c[axis] > 1-tol:
				return 2*axis + 2
			}
		}
		return 0
	})
	return
}

const tol = 1e-10

// MarkExterior assigns markers to the exterior faces from the centroid of
// each face and rebuilds the connectivity
func (m *Mesh) MarkExterior(marker func(centroid []float64) int) error {
	m.BoundaryFacets = m.BoundaryFacets[:0]
	for _, f := range m.ExteriorFacets() {
		c := centroid(m.Vertices, f.Oriented)
		if mk := marker(c); mk != 0 {
			m.BoundaryFacets = append(m.BoundaryFacets, Facet{Vertices: f.Oriented, Marker: mk})
		}
	}
	return m.BuildConnectivity()
}

// Transform maps every vertex, used to build distorted or rotated meshes
func (m *Mesh) Transform(fn func(x []float64) []float64) {
	for i, v := range m.Vertices {
		m.Vertices[i] = fn(v)
	}
}

// Rotate2D rotates a planar mesh by angle radians about the origin
func Rotate2D(angle float64) func(x []float64) []float64 {
	s, c := math.Sincos(angle)
	return func(x []float64) []float64 {
		return []float64{c*x[0] - s*x[1], s*x[0] + c*x[1]}
	}
}
