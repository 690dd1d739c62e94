package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/utils"
)

// GetElementFaces returns the face vertices for each simplex type, in local
// face order
func GetElementFaces(elemType ElementType, vertices []int) [][]int {
	switch elemType {
	case Line:
		return [][]int{
			{vertices[0]},
			{vertices[1]},
		}
	case Triangle:
		return [][]int{
			{vertices[0], vertices[1]}, // Face 0
			{vertices[1], vertices[2]}, // Face 1
			{vertices[2], vertices[0]}, // Face 2
		}
	case Tet:
		return [][]int{
			{vertices[0], vertices[2], vertices[1]}, // Face 0
			{vertices[0], vertices[1], vertices[3]}, // Face 1
			{vertices[1], vertices[2], vertices[3]}, // Face 2
			{vertices[0], vertices[3], vertices[2]}, // Face 3
		}
	default:
		return [][]int{}
	}
}

func faceKey(verts []int) (key string, sorted []int) {
	sorted = make([]int, len(verts))
	copy(sorted, verts)
	sort.Ints(sorted)
	key = fmt.Sprintf("%v", sorted)
	return
}

// BuildConnectivity builds element-to-element and face connectivity. Face
// neighbors are found from the sparse product of the face-to-vertex incidence
// with its transpose, two faces are shared when they share all vertices.
func (m *Mesh) BuildConnectivity() (err error) {
	var (
		K          = len(m.Cells)
		Nv         = len(m.Vertices)
		NFaces     = m.Dim + 1
		Nfv        = m.Dim // vertices per face
		TotalFaces = NFaces * K
	)
	m.EToE = make([][]int, K)
	m.EToF = make([][]int, K)
	m.Faces = m.Faces[:0]
	m.FaceMap = make(map[string]int)
	if K == 0 {
		return
	}

	SpFToV_Tmp := sparse.NewDOK(TotalFaces, Nv)
	var sk int
	for k := 0; k < K; k++ {
		m.EToE[k] = make([]int, NFaces)
		m.EToF[k] = make([]int, NFaces)
		for face, fv := range GetElementFaces(m.CellType, m.Cells[k]) {
			for _, v := range fv {
				SpFToV_Tmp.Set(sk, v, 1)
			}
			m.EToE[k][face] = -1
			m.EToF[k][face] = -1
			sk++
		}
	}
	SpFToF := sparse.NewCSR(TotalFaces, TotalFaces, nil, nil, nil)
	SpFToV := SpFToV_Tmp.ToCSR()
	SpFToF.Mul(SpFToV, SpFToV.T())
	SpFToF.DoNonZero(func(i, j int, v float64) {
		if i == j || int(math.Round(v)) != Nfv {
			return
		}
		k1, f1 := i/NFaces, i%NFaces
		k2, f2 := j/NFaces, j%NFaces
		if m.EToE[k1][f1] >= 0 {
			err = multierror.Append(err,
				fmt.Errorf("face %d of cell %d is shared by more than two cells", f1, k1))
			return
		}
		m.EToE[k1][f1] = k2
		m.EToF[k1][f1] = f2
	})
	if err != nil {
		return
	}

	markers := make(map[string]int, len(m.BoundaryFacets))
	for _, f := range m.BoundaryFacets {
		key, _ := faceKey(f.Vertices)
		markers[key] = f.Marker
	}

	// Unique faces, numbered in first visit order
	for k := 0; k < K; k++ {
		for face, fv := range GetElementFaces(m.CellType, m.Cells[k]) {
			key, sorted := faceKey(fv)
			if _, exists := m.FaceMap[key]; exists {
				continue
			}
			m.FaceMap[key] = len(m.Faces)
			f := Face{
				Vertices:        sorted,
				Oriented:        fv,
				Element:         k,
				LocalID:         face,
				Neighbor:        m.EToE[k][face],
				NeighborLocalID: m.EToF[k][face],
			}
			if f.IsExterior() {
				f.Marker = markers[key]
			}
			m.Faces = append(m.Faces, f)
		}
	}
	utils.Log().Debugw("built connectivity",
		"cells", K, "faces", len(m.Faces), "exterior", len(m.ExteriorFacets()))
	return
}

// CellFaceIDs returns the unique face index of every local face of cell k
func (m *Mesh) CellFaceIDs(k int) (ids []int) {
	for _, fv := range GetElementFaces(m.CellType, m.Cells[k]) {
		key, _ := faceKey(fv)
		ids = append(ids, m.FaceMap[key])
	}
	return
}

// FaceOf looks up the face with the given vertices in any order
func (m *Mesh) FaceOf(verts []int) (f Face, ok bool) {
	key, _ := faceKey(verts)
	var id int
	if id, ok = m.FaceMap[key]; ok {
		f = m.Faces[id]
	}
	return
}

// CellJacobian is the matrix of edge vectors v_i - v_0 of cell k, sized
// AmbientDim x Dim
func (m *Mesh) CellJacobian(k int) *mat.Dense {
	var (
		c  = m.Cells[k]
		J  = mat.NewDense(m.AmbientDim, m.Dim, nil)
		v0 = m.Vertices[c[0]]
	)
	for j := 1; j <= m.Dim; j++ {
		vj := m.Vertices[c[j]]
		for i := 0; i < m.AmbientDim; i++ {
			J.Set(i, j-1, vj[i]-v0[i])
		}
	}
	return J
}

// Orientations returns the sign of the volume of every cell. It is defined
// only for meshes whose cells fill their ambient space, degenerate cells are
// reported together.
func (m *Mesh) Orientations() (orient []float64, err error) {
	if m.AmbientDim != m.Dim {
		err = fmt.Errorf("orientation of %d dimensional cells in %d dimensional space is not defined",
			m.Dim, m.AmbientDim)
		return
	}
	orient = make([]float64, len(m.Cells))
	for k := range m.Cells {
		J := m.CellJacobian(k)
		det := mat.Det(J)
		switch {
		case math.Abs(det) <= utils.NODETOL*edgeProduct(J):
			err = multierror.Append(err, fmt.Errorf("cell %d is degenerate, det = %g", k, det))
		case det < 0:
			orient[k] = -1
		default:
			orient[k] = 1
		}
	}
	if err != nil {
		orient = nil
	}
	return
}

// edgeProduct is the product of the column norms of J, the volume scale the
// determinant is measured against
func edgeProduct(J *mat.Dense) float64 {
	_, nc := J.Dims()
	p := 1.
	for j := 0; j < nc; j++ {
		p *= mat.Norm(J.ColView(j), 2)
	}
	return p
}

// FacetOrientation is +1 when the vertex order of the face gives the outward
// normal of its parent cell and -1 otherwise. Only faces of cells filling
// their ambient space have a defined outward direction.
func (m *Mesh) FacetOrientation(f Face) (sign float64, err error) {
	if m.AmbientDim != m.Dim {
		err = fmt.Errorf("facet orientation needs cells filling the ambient space")
		return
	}
	var (
		fv     = f.Oriented
		normal = make([]float64, m.AmbientDim)
		out    = make([]float64, m.AmbientDim)
	)
	switch m.Dim {
	case 1:
		normal[0] = 1
	case 2:
		a, b := m.Vertices[fv[0]], m.Vertices[fv[1]]
		normal[0], normal[1] = b[1]-a[1], -(b[0] - a[0])
	case 3:
		a, b, c := m.Vertices[fv[0]], m.Vertices[fv[1]], m.Vertices[fv[2]]
		u := []float64{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
		w := []float64{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
		normal[0] = u[1]*w[2] - u[2]*w[1]
		normal[1] = u[2]*w[0] - u[0]*w[2]
		normal[2] = u[0]*w[1] - u[1]*w[0]
	default:
		err = fmt.Errorf("unsupported dimension %d", m.Dim)
		return
	}
	fc, cc := centroid(m.Vertices, fv), centroid(m.Vertices, m.Cells[f.Element])
	var dot float64
	for i := range out {
		out[i] = fc[i] - cc[i]
		dot += out[i] * normal[i]
	}
	if dot < 0 {
		return -1, nil
	}
	return 1, nil
}

func centroid(verts [][]float64, ids []int) (c []float64) {
	c = make([]float64, len(verts[ids[0]]))
	for _, id := range ids {
		for i, x := range verts[id] {
			c[i] += x
		}
	}
	for i := range c {
		c[i] /= float64(len(ids))
	}
	return
}
