package InputParameters

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	data := []byte(`
Title: "Annulus boundary evaluation"
MeshFile: meshes/annulus.msh
Family: DG
Degree: 2
Selection: near
BoundaryID: 1
Targets: [2, 3]
Operator: scale
Args:
  alpha: 0.5
`)
	var rp RunParameters
	require.NoError(t, rp.Parse(data))
	rp.SetDefaults()
	assert.Equal(t, "meshes/annulus.msh", rp.MeshFile)
	assert.Equal(t, "DG", rp.Family)
	assert.Equal(t, 2, rp.Degree)
	assert.Equal(t, 1, rp.ValueDim)
	assert.Equal(t, []int{2, 3}, rp.Targets)
	assert.Equal(t, 0.5, rp.Args["alpha"])
	assert.Equal(t, "host", rp.Device)
	assert.NoError(t, rp.Validate())
}

func TestValidate(t *testing.T) {
	rp := RunParameters{Family: "Nedelec", Degree: 0, ValueDim: 1, Selection: "inside", Operator: "identity"}
	err := rp.Validate()
	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	// mesh file, family, degree and selection
	assert.Len(t, merr.Errors, 4)
}
