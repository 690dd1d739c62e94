package study

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/notargets/fembem/mesh"
	"github.com/notargets/fembem/utils"
)

// MeshFile is a mesh of a refinement study with its mesh size
type MeshFile struct {
	Path string
	H    float64
	Mesh *mesh.Mesh
}

// ParseH reads the mesh size from a file name such as "msh0%125.msh": the
// characters after the first three of the base name, with % standing for
// the decimal point
func ParseH(filename string) (h float64, err error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if len(base) <= 3 {
		return 0, fmt.Errorf("no mesh size in file name %q", filename)
	}
	hstr := strings.ReplaceAll(base[3:], "%", ".")
	if h, err = strconv.ParseFloat(hstr, 64); err != nil {
		return 0, errors.Wrapf(err, "mesh size of %q", filename)
	}
	return
}

// ScanMeshDir reads every .msh file of dir, coarsest first: ordered by vertex
// count, ties by decreasing mesh size
func ScanMeshDir(dir string) (meshes []MeshFile, err error) {
	var entries []os.DirEntry
	if entries, err = os.ReadDir(dir); err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".msh" {
			continue
		}
		var (
			path = filepath.Join(dir, e.Name())
			mf   = MeshFile{Path: path}
			ferr error
		)
		if mf.H, ferr = ParseH(path); ferr == nil {
			mf.Mesh, ferr = mesh.ReadMeshFile(path)
		}
		if ferr != nil {
			err = multierror.Append(err, ferr)
			continue
		}
		meshes = append(meshes, mf)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(meshes, func(i, j int) bool {
		ni, nj := meshes[i].Mesh.NumVertices(), meshes[j].Mesh.NumVertices()
		if ni != nj {
			return ni < nj
		}
		return meshes[i].H > meshes[j].H
	})
	utils.Log().Infow("read meshes", "dir", dir, "count", len(meshes))
	return
}
