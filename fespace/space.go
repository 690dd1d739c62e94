package fespace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/element"
	"github.com/notargets/fembem/mesh"
	"github.com/notargets/fembem/utils"
)

var ErrIncompatible = errors.New("incompatible function spaces")

type Family uint8

const (
	CG Family = iota // Continuous Lagrange, nodes shared between cells
	DG               // Discontinuous Lagrange, nodes owned by one cell
)

func (f Family) String() string {
	switch f {
	case CG:
		return "CG"
	case DG:
		return "DG"
	}
	return fmt.Sprintf("Family(%d)", uint8(f))
}

func ParseFamily(s string) (f Family, err error) {
	switch strings.ToUpper(s) {
	case "CG", "LAGRANGE", "P":
		return CG, nil
	case "DG", "DISCONTINUOUS LAGRANGE", "DP":
		return DG, nil
	}
	err = fmt.Errorf("unknown element family %q", s)
	return
}

// FunctionSpace is a scalar or vector valued Lagrange space on a simplicial
// mesh, numbered by its cell-node table
type FunctionSpace struct {
	Mesh     *mesh.Mesh
	Element  *element.Lagrange
	Family   Family
	ValueDim int // 1 for scalar spaces

	cellNodes [][]int
	numNodes  int
}

func New(m *mesh.Mesh, family Family, degree, valueDim int) (fs *FunctionSpace, err error) {
	if valueDim < 1 {
		err = fmt.Errorf("value dimension must be positive, got %d", valueDim)
		return
	}
	fs = &FunctionSpace{
		Mesh:     m,
		Family:   family,
		ValueDim: valueDim,
	}
	if fs.Element, err = element.NewLagrange(m.Dim, degree); err != nil {
		return nil, err
	}
	switch family {
	case DG:
		fs.numberDG()
	case CG:
		fs.numberCG()
	default:
		return nil, fmt.Errorf("unknown element family %v", family)
	}
	utils.Log().Debugw("function space",
		"family", family, "degree", degree, "dim", valueDim, "nodes", fs.numNodes)
	return
}

func (fs *FunctionSpace) numberDG() {
	var (
		K     = fs.Mesh.NumCells()
		Nunit = fs.Element.Nunit
	)
	fs.cellNodes = make([][]int, K)
	for k := range fs.cellNodes {
		fs.cellNodes[k] = make([]int, Nunit)
		for j := range fs.cellNodes[k] {
			fs.cellNodes[k][j] = k*Nunit + j
		}
	}
	fs.numNodes = K * Nunit
}

// nodeKey identifies a lattice node independently of the cell it is seen
// from, by its global vertices and their barycentric weights
func nodeKey(cell, mi []int) string {
	type pair struct{ v, w int }
	pairs := make([]pair, 0, len(mi))
	for i, w := range mi {
		if w != 0 {
			pairs = append(pairs, pair{cell[i], w})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].v < pairs[j].v })
	return fmt.Sprintf("%v", pairs)
}

// numberCG gives vertex nodes the first ids in vertex order, the remaining
// nodes are numbered in order of first visit
func (fs *FunctionSpace) numberCG() {
	var (
		m     = fs.Mesh
		le    = fs.Element
		K     = m.NumCells()
		Nunit = le.Nunit
		ids   = make(map[string]int)
		used  = make([]bool, m.NumVertices())
	)
	for _, c := range m.Cells {
		for _, v := range c {
			used[v] = true
		}
	}
	vertexNode := make([]int, m.NumVertices())
	for v, u := range used {
		if u {
			vertexNode[v] = len(ids)
			ids[fmt.Sprintf("v%d", v)] = vertexNode[v]
		}
	}
	nv := m.Dim + 1
	fs.cellNodes = make([][]int, K)
	for k, c := range m.Cells {
		fs.cellNodes[k] = make([]int, Nunit)
		for j := 0; j < Nunit; j++ {
			if j < nv {
				fs.cellNodes[k][j] = vertexNode[c[j]]
				continue
			}
			key := nodeKey(c, le.MultiIndex(j))
			id, ok := ids[key]
			if !ok {
				id = len(ids)
				ids[key] = id
			}
			fs.cellNodes[k][j] = id
		}
	}
	fs.numNodes = len(ids)
}

// CellNodeList is the cell-node table, rows are cells and columns local nodes
func (fs *FunctionSpace) CellNodeList() [][]int { return fs.cellNodes }

func (fs *FunctionSpace) NumNodes() int { return fs.numNodes }

func (fs *FunctionSpace) Degree() int { return fs.Element.Degree }

// NodeCoordinates is NumNodes x AmbientDim
func (fs *FunctionSpace) NodeCoordinates() (X *mat.Dense) {
	var (
		m  = fs.Mesh
		B  = fs.Element.BarycentricUnitNodes()
		nv = m.Dim + 1
	)
	X = mat.NewDense(fs.numNodes, m.AmbientDim, nil)
	for k, c := range m.Cells {
		for j, node := range fs.cellNodes[k] {
			for d := 0; d < m.AmbientDim; d++ {
				var x float64
				for i := 0; i < nv; i++ {
					x += B.At(i, j) * m.Vertices[c[i]][d]
				}
				X.Set(node, d, x)
			}
		}
	}
	return
}

// BoundaryNodes returns the sorted nodes on the closure of the exterior
// facets carrying marker
func (fs *FunctionSpace) BoundaryNodes(marker int) (nodes []int) {
	seen := make(map[int]bool)
	for _, f := range fs.Mesh.MarkedFacets(marker) {
		cell := fs.Mesh.Cells[f.Element]
		local := make([]int, 0, len(f.Vertices))
		for _, v := range f.Vertices {
			for i, cv := range cell {
				if cv == v {
					local = append(local, i)
				}
			}
		}
		for _, j := range fs.Element.NodesOnFacet(local) {
			node := fs.cellNodes[f.Element][j]
			if !seen[node] {
				seen[node] = true
				nodes = append(nodes, node)
			}
		}
	}
	sort.Ints(nodes)
	return
}

// SameElement reports whether the spaces live on the same mesh with the same
// element, the value dimension may differ
func (fs *FunctionSpace) SameElement(other *FunctionSpace) bool {
	return fs.Mesh.ID == other.Mesh.ID &&
		fs.Family == other.Family &&
		fs.Element.Dim == other.Element.Dim &&
		fs.Element.Degree == other.Element.Degree
}

// Scalar returns the scalar space with the same element
func (fs *FunctionSpace) Scalar() *FunctionSpace {
	if fs.ValueDim == 1 {
		return fs
	}
	s := *fs
	s.ValueDim = 1
	return &s
}

// Vector returns the space with the same element and dim components
func (fs *FunctionSpace) Vector(dim int) *FunctionSpace {
	s := *fs
	s.ValueDim = dim
	return &s
}

func (fs *FunctionSpace) String() string {
	return fmt.Sprintf("%s%d space (dim %d, %d nodes)", fs.Family, fs.Element.Degree, fs.ValueDim, fs.numNodes)
}
