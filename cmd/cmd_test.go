package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/fembem/InputParameters"
	"github.com/notargets/fembem/device"
)

const twoTriGmsh22 = `$MeshFormat
2.2 0 8
$EndMeshFormat
$Nodes
4
1 0 0 0
2 1 0 0
3 0 1 0
4 1 1 0
$EndNodes
$Elements
6
1 1 2 1 1 1 2
2 1 2 2 2 4 2
3 1 2 3 3 3 4
4 1 2 4 4 1 3
5 2 2 10 1 1 2 3
6 2 2 10 1 2 3 4
$EndElements
`

func writeMesh(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(twoTriGmsh22), 0644))
	return path
}

func TestRunConvert(t *testing.T) {
	path := writeMesh(t, t.TempDir(), "twotri.msh")
	q := device.NewHostQueue()
	tests := []struct {
		name      string
		co        ConvertOptions
		numTarget int
		wantErr   bool
	}{
		{"cg1 full", ConvertOptions{Family: "CG", Degree: 1, ValueDim: 1, Selection: "full"}, 6, false},
		{"dg2 vector", ConvertOptions{Family: "DG", Degree: 2, ValueDim: 2, Selection: "full", PrintPerm: true}, 12, false},
		{"near", ConvertOptions{Family: "CG", Degree: 2, ValueDim: 1, Selection: "near", BoundaryID: 2}, 12, false},
		{"on", ConvertOptions{Family: "CG", Degree: 1, ValueDim: 1, Selection: "on", BoundaryID: 3}, 2, false},
		{"unknown boundary", ConvertOptions{Family: "CG", Degree: 1, ValueDim: 1, Selection: "near", BoundaryID: 9}, 0, true},
		{"bad family", ConvertOptions{Family: "RT", Degree: 1, ValueDim: 1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			co := tt.co
			co.MeshFile = path
			sc, err := RunConvert(&co, q)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.numTarget, sc.NumTargetNodes())
		})
	}
	_, err := RunConvert(&ConvertOptions{}, q)
	assert.Error(t, err)
}

func TestRunEval(t *testing.T) {
	path := writeMesh(t, t.TempDir(), "twotri.msh")
	q := device.NewHostQueue()
	data := []byte(`
Title: Test Case
MeshFile: ` + path + `
Family: CG
Degree: 1
Targets: [1, 7]
Operator: scale
Args:
  alpha: 2.
`)
	var rp InputParameters.RunParameters
	require.NoError(t, rp.Parse(data))
	res, err := RunEval(context.Background(), &rp, q)
	require.NoError(t, err)
	// Nodes 0 and 1 lie on boundary 1, the others stay zero
	assert.NotZero(t, res.Data.At(0, 0))
	assert.NotZero(t, res.Data.At(1, 0))
	assert.Zero(t, res.Data.At(2, 0))
	assert.Zero(t, res.Data.At(3, 0))

	rp.Targets = []int{5}
	_, err = RunEval(context.Background(), &rp, q)
	assert.Error(t, err)
}

func TestRunStudy(t *testing.T) {
	dir := t.TempDir()
	writeMesh(t, dir, "msh1%0.msh")
	so := &StudyOptions{
		MeshDir:   dir,
		CacheFile: filepath.Join(t.TempDir(), "cache.yaml"),
		Degrees:   []int{1, 2},
		Families:  []string{"CG", "DG"},
		Methods:   []string{"roundtrip", "identity"},
	}
	rows, err := RunStudy(context.Background(), so, device.NewHostQueue())
	require.NoError(t, err)
	assert.Len(t, rows, 8)
	_, err = os.Stat(so.CacheFile)
	assert.NoError(t, err)

	rows, err = RunStudy(context.Background(), so, device.NewHostQueue())
	require.NoError(t, err)
	for _, row := range rows {
		assert.True(t, row.Cached)
	}
}
