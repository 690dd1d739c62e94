package conversion

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/utils"
)

// SpaceConverter converts values of every space sharing one element between
// the finite element numbering and the target layout of a selection
type SpaceConverter struct {
	Space     *fespace.FunctionSpace // scalar space of the element
	Selection Selection

	restr   *restriction
	reorder *Reordering
	discr   *Discretization
}

func NewSpaceConverter(fs *fespace.FunctionSpace, sel Selection) (sc *SpaceConverter, err error) {
	sc = &SpaceConverter{
		Space:     fs.Scalar(),
		Selection: sel.canonical(),
	}
	if sc.restr, err = restrict(sc.Space, sc.Selection); err != nil {
		return nil, err
	}
	sc.reorder, err = NewReordering(sc.restr.table, sc.restr.orient,
		sc.restr.element.FlipMatrix(), sc.Space.NumNodes())
	if err != nil {
		return nil, err
	}
	var nflip int
	for _, o := range sc.restr.orient {
		if o < 0 {
			nflip++
		}
	}
	utils.Log().Debugw("space converter",
		"space", sc.Space, "selection", sc.Selection,
		"cells", len(sc.restr.cells), "flipped", nflip)
	return
}

// CanConvert reports whether fs and sel are served by this converter
func (sc *SpaceConverter) CanConvert(fs *fespace.FunctionSpace, sel Selection) bool {
	return sc.Space.SameElement(fs) && sc.Selection == sel.canonical()
}

func (sc *SpaceConverter) NumSourceNodes() int { return sc.Space.NumNodes() }

func (sc *SpaceConverter) NumTargetNodes() int { return sc.reorder.NumSource(TargetToSource) }

// Permutation exposes the gather index of a direction
func (sc *SpaceConverter) Permutation(dir Direction) (utils.Index, error) {
	return sc.reorder.Permutation(dir)
}

func (sc *SpaceConverter) Convert(values []float64, dir Direction) ([]float64, error) {
	return sc.reorder.Convert(values, dir)
}

func (sc *SpaceConverter) ConvertVector(values mat.Matrix, dir Direction) (*mat.Dense, error) {
	return sc.reorder.ConvertVector(values, dir)
}

// ToTarget returns the values of f in target layout, ValueDim x NumTargetNodes
func (sc *SpaceConverter) ToTarget(f *fespace.Function) (*mat.Dense, error) {
	if !sc.Space.SameElement(f.Space) {
		return nil, errors.Wrapf(fespace.ErrIncompatible, "converter for %v given %v", sc.Space, f.Space)
	}
	return sc.reorder.ConvertVector(f.Data, SourceToTarget)
}

// FromTarget overwrites f with target layout values, ValueDim x
// NumTargetNodes. Nodes outside the selection are set to zero.
func (sc *SpaceConverter) FromTarget(data mat.Matrix, f *fespace.Function) (err error) {
	if !sc.Space.SameElement(f.Space) {
		return errors.Wrapf(fespace.ErrIncompatible, "converter for %v given %v", sc.Space, f.Space)
	}
	if r, _ := data.Dims(); r != f.Space.ValueDim {
		return errors.Wrapf(fespace.ErrIncompatible, "%d components for a space of dimension %d", r, f.Space.ValueDim)
	}
	var out *mat.Dense
	if out, err = sc.reorder.ConvertVector(data, TargetToSource); err != nil {
		return
	}
	if out.IsEmpty() {
		f.Data.Zero()
		return
	}
	f.Data.Copy(out)
	return
}

// Discretization returns the target layout description, built on first call
func (sc *SpaceConverter) Discretization() *Discretization {
	if sc.discr == nil {
		sc.discr = newDiscretization(sc.Space.Mesh, sc.restr)
	}
	return sc.discr
}

// ReleaseTable frees the cell-node table once both directions are computed
func (sc *SpaceConverter) ReleaseTable() bool {
	if !sc.reorder.ReleaseTable() {
		return false
	}
	sc.restr.table = nil
	return true
}
