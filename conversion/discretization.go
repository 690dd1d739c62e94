package conversion

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/element"
	"github.com/notargets/fembem/mesh"
)

// BoundaryTag marks a local face of a target cell with the marker of the
// exterior facet it lies on
type BoundaryTag struct {
	Cell, Face, Marker int
}

// Discretization is the target layout description: every cell positively
// oriented, nodes stored cell-major
type Discretization struct {
	Dim, AmbientDim int
	Element         *element.Lagrange

	Vertices      *mat.Dense // AmbientDim x number of vertices
	VertexIDs     []int      // mesh vertex of every column of Vertices
	VertexIndices [][]int    // cells x Dim+1 into Vertices, first two swapped on flipped cells
	Nodes         []*mat.Dense
	UnitNodes     *mat.Dense

	SourceCells  []int   // mesh cell of every target cell, the parent for facets
	Flipped      []bool  // cells whose vertex order was reversed
	Adjacency    [][]int // neighbor target cell through each local face, -1 when none
	BoundaryTags []BoundaryTag
}

func newDiscretization(m *mesh.Mesh, r *restriction) (d *Discretization) {
	var (
		ids, pos = usedVertices(r.vertices)
		K        = len(r.cells)
	)
	d = &Discretization{
		Dim:         r.element.Dim,
		AmbientDim:  m.AmbientDim,
		Element:     r.element,
		VertexIDs:   ids,
		Nodes:       r.flippedNodes(m),
		UnitNodes:   r.element.UnitNodes(),
		SourceCells: append([]int{}, r.cells...),
		Flipped:     make([]bool, K),
	}
	if len(ids) > 0 {
		d.Vertices = mat.NewDense(m.AmbientDim, len(ids), nil)
		for j, v := range ids {
			d.Vertices.SetCol(j, m.Vertices[v])
		}
	}
	d.VertexIndices = make([][]int, K)
	meshVerts := make([][]int, K) // vertex order after flipping, in mesh numbering
	for k, verts := range r.vertices {
		cv := append([]int{}, verts...)
		if r.orient[k] < 0 {
			cv[0], cv[1] = cv[1], cv[0]
			d.Flipped[k] = true
		}
		meshVerts[k] = cv
		d.VertexIndices[k] = make([]int, len(cv))
		for i, v := range cv {
			d.VertexIndices[k][i] = pos[v]
		}
	}
	d.buildAdjacency(m, meshVerts)
	return
}

// buildAdjacency pairs the local faces of the target cells that share their
// vertices, faces on marked exterior facets of the mesh get a boundary tag
func (d *Discretization) buildAdjacency(m *mesh.Mesh, cells [][]int) {
	type slot struct{ cell, face int }
	var (
		ctype = mesh.SimplexType(d.Dim)
		seen  = make(map[string]slot)
	)
	d.Adjacency = make([][]int, len(cells))
	for k, cv := range cells {
		faces := mesh.GetElementFaces(ctype, cv)
		d.Adjacency[k] = make([]int, len(faces))
		for f, fv := range faces {
			d.Adjacency[k][f] = -1
			sorted := append([]int{}, fv...)
			sort.Ints(sorted)
			key := fmt.Sprintf("%v", sorted)
			if other, ok := seen[key]; ok {
				d.Adjacency[k][f] = other.cell
				d.Adjacency[other.cell][other.face] = k
			} else {
				seen[key] = slot{k, f}
			}
			// Cells of the mesh dimension can touch its exterior facets
			if d.Dim == m.Dim {
				if mf, ok := m.FaceOf(fv); ok && mf.IsExterior() && mf.Marker != 0 {
					d.BoundaryTags = append(d.BoundaryTags, BoundaryTag{Cell: k, Face: f, Marker: mf.Marker})
				}
			}
		}
	}
}

func (d *Discretization) NumCells() int { return len(d.SourceCells) }

func (d *Discretization) NumNodes() int { return len(d.SourceCells) * d.Element.Nunit }

// NodeCoordinates is AmbientDim x NumNodes, cell-major
func (d *Discretization) NodeCoordinates() (X *mat.Dense) {
	n := d.NumNodes()
	if n == 0 {
		return &mat.Dense{}
	}
	X = mat.NewDense(d.AmbientDim, n, nil)
	for dim, nodes := range d.Nodes {
		K, nunit := nodes.Dims()
		for k := 0; k < K; k++ {
			for j := 0; j < nunit; j++ {
				X.Set(dim, k*nunit+j, nodes.At(k, j))
			}
		}
	}
	return
}

// Orientations of the target cells from their flipped vertex order, all +1
// for a consistent discretization of a cell filling mesh
func (d *Discretization) Orientations() (orient []float64, err error) {
	if d.Dim != d.AmbientDim {
		return nil, fmt.Errorf("orientation of %d dimensional cells in %d dimensional space is not defined",
			d.Dim, d.AmbientDim)
	}
	orient = make([]float64, d.NumCells())
	for k, vi := range d.VertexIndices {
		J := mat.NewDense(d.AmbientDim, d.Dim, nil)
		for j := 1; j <= d.Dim; j++ {
			for i := 0; i < d.AmbientDim; i++ {
				J.Set(i, j-1, d.Vertices.At(i, vi[j])-d.Vertices.At(i, vi[0]))
			}
		}
		if mat.Det(J) < 0 {
			orient[k] = -1
		} else {
			orient[k] = 1
		}
	}
	return
}
