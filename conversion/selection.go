package conversion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/element"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/mesh"
)

var (
	ErrUnknownBoundary   = errors.New("no exterior facet carries the boundary id")
	ErrUnsupportedDegree = errors.New("boundary restriction supports degree 1 only")
)

type Kind uint8

const (
	Full         Kind = iota // Every cell of the mesh
	NearBoundary             // Cells touching a marked boundary
	OnBoundary               // The marked exterior facets themselves
)

func (k Kind) String() string {
	switch k {
	case Full:
		return "full"
	case NearBoundary:
		return "near"
	case OnBoundary:
		return "on"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Selection chooses the part of a mesh a converter works on, BoundaryID is
// ignored for Full
type Selection struct {
	Kind       Kind
	BoundaryID int
}

func FullMesh() Selection             { return Selection{Kind: Full} }
func NearBoundaryOf(id int) Selection { return Selection{Kind: NearBoundary, BoundaryID: id} }
func OnBoundaryOf(id int) Selection   { return Selection{Kind: OnBoundary, BoundaryID: id} }

// canonical clears the boundary id of a full selection
func (s Selection) canonical() Selection {
	if s.Kind == Full {
		return FullMesh()
	}
	return s
}

func (s Selection) String() string {
	if s.Kind == Full {
		return "full"
	}
	return fmt.Sprintf("%s(%d)", s.Kind, s.BoundaryID)
}

// ParseSelection reads "full", "near" or "on" with a boundary id
func ParseSelection(kind string, id int) (s Selection, err error) {
	switch strings.ToLower(kind) {
	case "", "full":
		return FullMesh(), nil
	case "near", "near-boundary":
		return NearBoundaryOf(id), nil
	case "on", "on-boundary":
		return OnBoundaryOf(id), nil
	}
	err = fmt.Errorf("unknown selection %q, want full, near or on", kind)
	return
}

// restriction is the part of a space a selection keeps: the cells in target
// order, their vertices, the table rows and the cell orientations
type restriction struct {
	element  *element.Lagrange
	cells    []int   // source cell of every kept cell, the parent cell for facets
	vertices [][]int // vertex indices of every kept cell, before flipping
	table    [][]int
	orient   []float64
}

func checkBoundary(m *mesh.Mesh, id int) error {
	for _, marker := range m.UniqueMarkers() {
		if marker == id {
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownBoundary, "boundary id %d, exterior ids are %v", id, m.UniqueMarkers())
}

// restrict dispatches on the selection kind
func restrict(fs *fespace.FunctionSpace, sel Selection) (r *restriction, err error) {
	switch sel.Kind {
	case Full:
		return restrictFull(fs)
	case NearBoundary:
		return restrictNear(fs, sel.BoundaryID)
	case OnBoundary:
		return restrictOn(fs, sel.BoundaryID)
	}
	return nil, fmt.Errorf("unknown selection kind %v", sel.Kind)
}

func restrictFull(fs *fespace.FunctionSpace) (r *restriction, err error) {
	m := fs.Mesh
	r = &restriction{
		element:  fs.Element,
		vertices: m.Cells,
		table:    fs.CellNodeList(),
		cells:    make([]int, m.NumCells()),
	}
	for k := range r.cells {
		r.cells[k] = k
	}
	if r.orient, err = m.Orientations(); err != nil {
		return nil, err
	}
	return
}

func restrictNear(fs *fespace.FunctionSpace, id int) (r *restriction, err error) {
	m := fs.Mesh
	if err = checkBoundary(m, id); err != nil {
		return
	}
	var orient []float64
	if orient, err = m.Orientations(); err != nil {
		return
	}
	bverts := m.BoundaryVertices(id)
	r = &restriction{element: fs.Element}
	for k, c := range m.Cells {
		for _, v := range c {
			if bverts[v] {
				r.cells = append(r.cells, k)
				r.vertices = append(r.vertices, c)
				r.table = append(r.table, fs.CellNodeList()[k])
				r.orient = append(r.orient, orient[k])
				break
			}
		}
	}
	return
}

func restrictOn(fs *fespace.FunctionSpace, id int) (r *restriction, err error) {
	m := fs.Mesh
	if fs.Degree() > 1 {
		return nil, errors.Wrapf(ErrUnsupportedDegree, "degree %d", fs.Degree())
	}
	if err = checkBoundary(m, id); err != nil {
		return
	}
	r = &restriction{}
	if r.element, err = fs.Element.Facet(); err != nil {
		return nil, err
	}
	for _, f := range m.MarkedFacets(id) {
		var (
			parent = m.Cells[f.Element]
			row    = make([]int, len(f.Oriented))
			sign   float64
		)
		// Degree one nodes are the cell vertices
		for i, v := range f.Oriented {
			for j, cv := range parent {
				if cv == v {
					row[i] = fs.CellNodeList()[f.Element][j]
				}
			}
		}
		if sign, err = m.FacetOrientation(f); err != nil {
			return nil, err
		}
		r.cells = append(r.cells, f.Element)
		r.vertices = append(r.vertices, f.Oriented)
		r.table = append(r.table, row)
		r.orient = append(r.orient, sign)
	}
	return
}

// usedVertices returns the sorted vertex ids referenced by the cells and the
// map from vertex id to its position in that list
func usedVertices(cells [][]int) (ids []int, pos map[int]int) {
	pos = make(map[int]int)
	for _, c := range cells {
		for _, v := range c {
			if _, ok := pos[v]; !ok {
				pos[v] = 0
				ids = append(ids, v)
			}
		}
	}
	sort.Ints(ids)
	for i, v := range ids {
		pos[v] = i
	}
	return
}

// flippedNodes places the nodes of every kept cell, the nodes of negatively
// oriented cells are permuted by the flip
func (r *restriction) flippedNodes(m *mesh.Mesh) (nodes []*mat.Dense) {
	var (
		B     = r.element.BarycentricUnitNodes()
		nunit = r.element.Nunit
		flip  = r.element.FlipPermutation()
		K     = len(r.cells)
	)
	nodes = make([]*mat.Dense, m.AmbientDim)
	if K == 0 {
		return
	}
	for d := range nodes {
		nodes[d] = mat.NewDense(K, nunit, nil)
	}
	for k, verts := range r.vertices {
		for j := 0; j < nunit; j++ {
			src := j
			if r.orient[k] < 0 {
				src = flip[j]
			}
			for d := 0; d < m.AmbientDim; d++ {
				var x float64
				for i, v := range verts {
					x += B.At(i, src) * m.Vertices[v][d]
				}
				nodes[d].Set(k, j, x)
			}
		}
	}
	return
}
