package mesh

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// ElementType represents the element types a mesh file may carry
type ElementType int

const (
	Point ElementType = iota
	Line
	Triangle
	Quad
	Tet
	Hex
	Prism
	Pyramid
)

func (e ElementType) String() string {
	return [...]string{"Point", "Line", "Triangle", "Quad", "Tet", "Hex", "Prism", "Pyramid"}[e]
}

// Dimension is the topological dimension of the element
func (e ElementType) Dimension() int {
	switch e {
	case Point:
		return 0
	case Line:
		return 1
	case Triangle, Quad:
		return 2
	default:
		return 3
	}
}

// NumVertices is the number of corner vertices of the element
func (e ElementType) NumVertices() int {
	return [...]int{1, 2, 3, 4, 4, 8, 6, 5}[e]
}

func (e ElementType) IsSimplex() bool {
	switch e {
	case Point, Line, Triangle, Tet:
		return true
	}
	return false
}

// SimplexType is the simplex element of topological dimension dim
func SimplexType(dim int) ElementType {
	return [...]ElementType{Point, Line, Triangle, Tet}[dim]
}

// Facet is a boundary element read from a mesh file, it carries the
// physical marker that boundary ids select on
type Facet struct {
	Vertices []int
	Marker   int
}

// Face represents a face of a cell, Neighbor is -1 on the exterior
type Face struct {
	Vertices        []int // Sorted vertex indices
	Oriented        []int // Vertex order as seen from the parent element
	Element         int   // Parent element
	LocalID         int   // Local face ID within element
	Neighbor        int
	NeighborLocalID int
	Marker          int // Physical marker, 0 when unmarked or interior
}

func (f Face) IsExterior() bool { return f.Neighbor < 0 }

// Mesh is an unstructured simplicial mesh with its boundary markers
type Mesh struct {
	ID         uuid.UUID
	Dim        int // Topological dimension of the cells
	AmbientDim int // Number of coordinates kept per vertex

	// Geometry
	Vertices [][]float64 // Vertex coordinates [nvertices][AmbientDim]

	// Cells are the elements of topological dimension Dim
	Cells    [][]int
	CellType ElementType
	CellTags []int

	// Lower dimensional elements read from file, with markers
	BoundaryFacets []Facet
	PhysicalNames  map[int]string

	// Connectivity (built by BuildConnectivity)
	EToE    [][]int
	EToF    [][]int
	Faces   []Face
	FaceMap map[string]int

	FormatVersion string

	nodeIDMap map[int]int
	elements  []rawElement
}

type rawElement struct {
	etype ElementType
	tags  []int
	nodes []int // vertex indices
}

// NewMesh creates an empty mesh with a fresh identity
func NewMesh() *Mesh {
	return &Mesh{
		ID:            uuid.New(),
		PhysicalNames: make(map[int]string),
		FaceMap:       make(map[string]int),
		nodeIDMap:     make(map[int]int),
	}
}

// NewFromArrays builds a mesh from zero based connectivity, the cell type is
// inferred from the number of vertices per cell
func NewFromArrays(vertices [][]float64, cells [][]int, facets []Facet) (m *Mesh, err error) {
	m = NewMesh()
	if len(cells) == 0 {
		err = fmt.Errorf("mesh must have at least one cell")
		return
	}
	m.Dim = len(cells[0]) - 1
	if m.Dim < 1 || m.Dim > 3 {
		err = fmt.Errorf("cells with %d vertices are not simplices of dimension 1..3", len(cells[0]))
		return
	}
	m.CellType = SimplexType(m.Dim)
	m.Vertices = make([][]float64, len(vertices))
	for i, v := range vertices {
		m.Vertices[i] = append([]float64{}, v...)
	}
	m.Cells = make([][]int, len(cells))
	m.CellTags = make([]int, len(cells))
	for k, c := range cells {
		m.Cells[k] = append([]int{}, c...)
	}
	for _, f := range facets {
		m.BoundaryFacets = append(m.BoundaryFacets, Facet{
			Vertices: append([]int{}, f.Vertices...),
			Marker:   f.Marker,
		})
	}
	m.setAmbientDim()
	if err = m.Validate(); err != nil {
		return nil, err
	}
	err = m.BuildConnectivity()
	return
}

// AddNode registers a vertex under its file node ID
func (m *Mesh) AddNode(nodeID int, coords []float64) {
	m.nodeIDMap[nodeID] = len(m.Vertices)
	m.Vertices = append(m.Vertices, coords)
}

// GetNodeIndex maps a file node ID to a vertex index
func (m *Mesh) GetNodeIndex(nodeID int) (idx int, ok bool) {
	idx, ok = m.nodeIDMap[nodeID]
	return
}

// AddElement records an element of any dimension by file node IDs, only the
// corner vertices are kept
func (m *Mesh) AddElement(etype ElementType, tags []int, nodeIDs []int) error {
	nv := etype.NumVertices()
	if len(nodeIDs) < nv {
		return fmt.Errorf("%s element: expected %d nodes, got %d", etype, nv, len(nodeIDs))
	}
	nodes := make([]int, nv)
	for i := 0; i < nv; i++ {
		idx, ok := m.GetNodeIndex(nodeIDs[i])
		if !ok {
			return fmt.Errorf("node %d not found", nodeIDs[i])
		}
		nodes[i] = idx
	}
	m.elements = append(m.elements, rawElement{etype: etype, tags: tags, nodes: nodes})
	return nil
}

// finalize sorts the raw elements into cells and boundary facets
func (m *Mesh) finalize() (err error) {
	var maxDim int
	for _, el := range m.elements {
		if d := el.etype.Dimension(); d > maxDim {
			maxDim = d
		}
	}
	if maxDim == 0 {
		return fmt.Errorf("mesh has no cells")
	}
	m.Dim = maxDim
	m.CellType = SimplexType(maxDim)
	for _, el := range m.elements {
		var tag int
		if len(el.tags) > 0 {
			tag = el.tags[0]
		}
		switch el.etype.Dimension() {
		case maxDim:
			if !el.etype.IsSimplex() {
				return fmt.Errorf("unsupported cell type %s, only simplices are supported", el.etype)
			}
			m.Cells = append(m.Cells, el.nodes)
			m.CellTags = append(m.CellTags, tag)
		case maxDim - 1:
			m.BoundaryFacets = append(m.BoundaryFacets, Facet{Vertices: el.nodes, Marker: tag})
		}
	}
	m.elements = nil
	m.setAmbientDim()
	if err = m.Validate(); err != nil {
		return
	}
	return m.BuildConnectivity()
}

// setAmbientDim drops trailing coordinates that are zero on every vertex
func (m *Mesh) setAmbientDim() {
	amb := m.Dim
	for _, v := range m.Vertices {
		for d := len(v) - 1; d >= amb; d-- {
			if v[d] != 0 {
				amb = d + 1
				break
			}
		}
	}
	m.AmbientDim = amb
	for i, v := range m.Vertices {
		c := make([]float64, amb)
		copy(c, v)
		m.Vertices[i] = c
	}
}

// Validate reports every connectivity problem at once
func (m *Mesh) Validate() (err error) {
	var (
		nv   = len(m.Vertices)
		nvpc = m.Dim + 1
	)
	check := func(kind string, k int, verts []int, want int) {
		if len(verts) != want {
			err = multierror.Append(err,
				fmt.Errorf("%s %d: has %d vertices, want %d", kind, k, len(verts), want))
			return
		}
		seen := make(map[int]bool, len(verts))
		for _, v := range verts {
			if v < 0 || v >= nv {
				err = multierror.Append(err,
					fmt.Errorf("%s %d: vertex index %d out of range [0,%d)", kind, k, v, nv))
			}
			if seen[v] {
				err = multierror.Append(err, fmt.Errorf("%s %d: repeated vertex %d", kind, k, v))
			}
			seen[v] = true
		}
	}
	for k, c := range m.Cells {
		check("cell", k, c, nvpc)
	}
	for k, f := range m.BoundaryFacets {
		check("facet", k, f.Vertices, nvpc-1)
	}
	return
}

func (m *Mesh) NumCells() int    { return len(m.Cells) }
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// UniqueMarkers is the sorted set of markers carried by exterior facets
func (m *Mesh) UniqueMarkers() (markers []int) {
	seen := make(map[int]bool)
	for _, f := range m.Faces {
		if f.IsExterior() && f.Marker != 0 && !seen[f.Marker] {
			seen[f.Marker] = true
			markers = append(markers, f.Marker)
		}
	}
	sort.Ints(markers)
	return
}

// ExteriorFacets returns the faces with no neighbor, in face order
func (m *Mesh) ExteriorFacets() (faces []Face) {
	for _, f := range m.Faces {
		if f.IsExterior() {
			faces = append(faces, f)
		}
	}
	return
}

// MarkedFacets returns the exterior faces carrying marker
func (m *Mesh) MarkedFacets(marker int) (faces []Face) {
	for _, f := range m.Faces {
		if f.IsExterior() && f.Marker == marker {
			faces = append(faces, f)
		}
	}
	return
}

// BoundaryVertices is the set of vertices on exterior faces carrying marker
func (m *Mesh) BoundaryVertices(marker int) map[int]bool {
	verts := make(map[int]bool)
	for _, f := range m.MarkedFacets(marker) {
		for _, v := range f.Vertices {
			verts[v] = true
		}
	}
	return verts
}

// PrintStatistics prints mesh statistics
func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Vertices: %d\n", m.NumVertices())
	fmt.Printf("  Cells: %d (%s, ambient dimension %d)\n", m.NumCells(), m.CellType, m.AmbientDim)
	fmt.Printf("  Faces: %d\n", len(m.Faces))
	fmt.Printf("  Exterior faces: %d\n", len(m.ExteriorFacets()))
	for _, marker := range m.UniqueMarkers() {
		name := m.PhysicalNames[marker]
		fmt.Printf("    marker %d %q: %d faces\n", marker, name, len(m.MarkedFacets(marker)))
	}
}
