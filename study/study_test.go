package study

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/mesh"
)

// gmsh22 writes a triangle mesh and its marked exterior facets as Gmsh 2.2
func gmsh22(m *mesh.Mesh) string {
	var b strings.Builder
	b.WriteString("$MeshFormat\n2.2 0 8\n$EndMeshFormat\n$Nodes\n")
	fmt.Fprintf(&b, "%d\n", m.NumVertices())
	for i, v := range m.Vertices {
		fmt.Fprintf(&b, "%d %g %g 0\n", i+1, v[0], v[1])
	}
	b.WriteString("$EndNodes\n$Elements\n")
	var (
		facets = m.ExteriorFacets()
		id     = 1
	)
	fmt.Fprintf(&b, "%d\n", len(facets)+m.NumCells())
	for _, f := range facets {
		fmt.Fprintf(&b, "%d 1 2 %d %d %d %d\n", id, f.Marker, f.Marker, f.Vertices[0]+1, f.Vertices[1]+1)
		id++
	}
	for _, c := range m.Cells {
		fmt.Fprintf(&b, "%d 2 2 10 1 %d %d %d\n", id, c[0]+1, c[1]+1, c[2]+1)
		id++
	}
	b.WriteString("$EndElements\n")
	return b.String()
}

func meshDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, tc := range []struct {
		name string
		n    int
	}{
		{"msh0%5.msh", 2},
		{"msh1%0.msh", 1},
		{"msh0%25.msh", 4},
	} {
		m, err := mesh.NewUnitSquareMesh(tc.n)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, tc.name), []byte(gmsh22(m)), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not a mesh"), 0644))
	return dir
}

func TestParseH(t *testing.T) {
	tests := []struct {
		name    string
		want    float64
		wantErr bool
	}{
		{"msh0%125.msh", 0.125, false},
		{"dir/max2.msh", 2, false},
		{"msh.msh", 0, true},
		{"mshabc.msh", 0, true},
		{"maxh0%125.msh", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParseH(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, h)
		})
	}
}

func TestScanMeshDir(t *testing.T) {
	meshes, err := ScanMeshDir(meshDir(t))
	require.NoError(t, err)
	require.Len(t, meshes, 3)
	var hs []float64
	for _, mf := range meshes {
		hs = append(hs, mf.H)
		assert.Equal(t, []int{1, 2, 3, 4}, mf.Mesh.UniqueMarkers())
	}
	assert.Equal(t, []float64{1, 0.5, 0.25}, hs)
	assert.Equal(t, 4, meshes[0].Mesh.NumVertices())

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.msh"), []byte("garbage"), 0644))
	_, err = ScanMeshDir(dir)
	assert.Error(t, err)
}

func TestRelativeError(t *testing.T) {
	m, err := mesh.NewUnitSquareMesh(1)
	require.NoError(t, err)
	fs, err := fespace.New(m, fespace.CG, 1, 1)
	require.NoError(t, err)
	a, err := fespace.NewFunctionFrom(fs, []float64{3, 0, 0, 4})
	require.NoError(t, err)
	b, err := fespace.NewFunctionFrom(fs, []float64{3, 0, 0, 3})
	require.NoError(t, err)
	e, err := RelativeError(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, e, 1e-15)

	_, err = RelativeError(fespace.NewFunction(fs), b)
	assert.Error(t, err)
	_, err = RelativeError(a, fespace.NewFunction(fs.Vector(2)))
	assert.Error(t, err)
}

func TestRunUsesCache(t *testing.T) {
	meshes, err := ScanMeshDir(meshDir(t))
	require.NoError(t, err)
	var (
		path  = filepath.Join(t.TempDir(), "accuracy.yaml")
		q     = device.NewHostQueue()
		cfg   = Config{Degrees: []int{1, 2}, Families: []fespace.Family{fespace.CG, fespace.DG}, Methods: MethodNames(), UseCache: true}
		calls int
	)
	cache, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cache.Len())

	rows, err := Run(context.Background(), q, meshes, cfg, cache, func(iter, total int, row Row) {
		calls++
		assert.Equal(t, 24, total)
	})
	require.NoError(t, err)
	assert.Len(t, rows, 24)
	assert.Equal(t, 24, calls)
	for _, row := range rows {
		assert.False(t, row.Cached)
		assert.Less(t, row.RelErr, 1e-14, "%+v", row.Key)
		assert.Greater(t, row.NDofs, 0)
	}
	require.NoError(t, cache.Save())

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, 24, loaded.Len())
	rows, err = Run(context.Background(), q, meshes, cfg, loaded, nil)
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, row.Cached)
		r, ok := cache.Get(row.Key)
		require.True(t, ok)
		assert.Equal(t, r, row.Result)
	}

	cfg.Methods = []string{"pml"}
	_, err = Run(context.Background(), q, meshes, cfg, loaded, nil)
	assert.Error(t, err)
}
