package graphics

import (
	"fmt"
	"image/color"
	"math"

	"github.com/notargets/avs/chart2d"
	"github.com/notargets/avs/geometry"
	utils2 "github.com/notargets/avs/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/mesh"
)

// Marker colors cycle through this list
var markerColors = []color.RGBA{utils2.RED, utils2.GREEN, utils2.BLUE}

// TriMeshOf converts the vertices and cells of a planar triangle mesh
func TriMeshOf(m *mesh.Mesh) (gm geometry.TriMesh, err error) {
	if m.CellType != mesh.Triangle || m.AmbientDim != 2 {
		err = fmt.Errorf("can only plot planar triangle meshes, have %s cells in %d dimensions",
			m.CellType, m.AmbientDim)
		return
	}
	xy := make([]float32, 0, 2*m.NumVertices())
	for _, v := range m.Vertices {
		xy = append(xy, float32(v[0]), float32(v[1]))
	}
	verts := make([][3]int64, m.NumCells())
	for k, c := range m.Cells {
		verts[k] = [3]int64{int64(c[0]), int64(c[1]), int64(c[2])}
	}
	gm = *geometry.NewTriMesh(xy, verts)
	return
}

// BoundaryLines returns the segments of the marked exterior facets grouped by
// color, x1 y1 x2 y2 per segment
func BoundaryLines(m *mesh.Mesh) (lines map[color.RGBA][]float32) {
	lines = make(map[color.RGBA][]float32)
	for i, marker := range m.UniqueMarkers() {
		col := markerColors[i%len(markerColors)]
		for _, f := range m.MarkedFacets(marker) {
			a, b := m.Vertices[f.Vertices[0]], m.Vertices[f.Vertices[1]]
			lines[col] = append(lines[col], float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]))
		}
	}
	return
}

// NodeCrosses draws a cross of half width size at every column of X
func NodeCrosses(X *mat.Dense, size float32) (line []float32) {
	if X == nil || X.IsEmpty() {
		return
	}
	_, n := X.Dims()
	for j := 0; j < n; j++ {
		x, y := float32(X.At(0, j)), float32(X.At(1, j))
		line = append(line,
			x-size, y, x+size, y,
			x, y-size, x, y+size,
		)
	}
	return
}

func bounds(xy []float32) (xMin, xMax, yMin, yMax float32) {
	xMin, yMin = math.MaxFloat32, math.MaxFloat32
	xMax, yMax = -math.MaxFloat32, -math.MaxFloat32
	for i := 0; i+1 < len(xy); i += 2 {
		x, y := xy[i], xy[i+1]
		xMin, xMax = min(xMin, x), max(xMax, x)
		yMin, yMax = min(yMin, y), max(yMax, y)
	}
	return
}

// PlotMesh opens a chart of the mesh with its marked boundaries, and of the
// target layout nodes when d is not nil
func PlotMesh(m *mesh.Mesh, d *conversion.Discretization) (ch *chart2d.Chart2D, err error) {
	var gm geometry.TriMesh
	if gm, err = TriMeshOf(m); err != nil {
		return
	}
	xMin, xMax, yMin, yMax := bounds(gm.XY)
	pad := 0.05 * max(xMax-xMin, yMax-yMin)
	ch = chart2d.NewChart2D(xMin-pad, xMax+pad, yMin-pad, yMax+pad,
		1024, 1024, utils2.WHITE, utils2.BLACK)
	ch.AddTriMesh(gm)
	for col, line := range BoundaryLines(m) {
		ch.AddLine(line, col)
	}
	if d != nil && d.AmbientDim == 2 {
		ch.AddLine(NodeCrosses(d.NodeCoordinates(), 0.01*(xMax-xMin)), utils2.WHITE)
	}
	return
}
