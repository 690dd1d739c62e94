package conversion

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/element"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/utils"
)

type Direction uint8

const (
	SourceToTarget Direction = iota // Finite element numbering to cell-major target layout
	TargetToSource
)

func (d Direction) String() string {
	switch d {
	case SourceToTarget:
		return "source->target"
	case TargetToSource:
		return "target->source"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Reordering maps node values between a cell-node table numbering and the
// cell-major layout in which negatively oriented cells have their local nodes
// flipped. Each direction is computed on first use and kept.
type Reordering struct {
	table    [][]int
	orient   []float64
	flip     utils.Index // flip as a gather on local nodes
	flipT    utils.Index // transpose of the flip as a gather
	numNodes int         // nodes in the table numbering
	nunit    int
	ncells   int

	perm     [2]utils.Index
	done     [2]bool
	released bool
}

// NewReordering validates its inputs, the flip matrix must square to the
// identity and permute the local nodes
func NewReordering(table [][]int, orient []float64, flip mat.Matrix, numNodes int) (r *Reordering, err error) {
	nr, nc := flip.Dims()
	if nr != nc {
		err = fmt.Errorf("flip matrix is %d x %d, not square", nr, nc)
		return
	}
	if len(table) != len(orient) {
		err = fmt.Errorf("%d cells in table but %d orientations", len(table), len(orient))
		return
	}
	var defect float64
	if defect, err = utils.InvolutionDefect(flip); err != nil {
		return
	}
	if defect > utils.FLIPTOL {
		err = errors.Wrapf(element.ErrFlipNotInvolution, "||F*F - I||/||I|| = %g", defect)
		return
	}
	R := utils.MatRound(flip)
	r = &Reordering{
		orient:   orient,
		numNodes: numNodes,
		nunit:    nr,
		ncells:   len(table),
	}
	if r.flip, err = utils.PermutationOf(R); err != nil {
		return nil, errors.Wrapf(element.ErrFlipNotInvolution, "%v", err)
	}
	if r.flipT, err = utils.PermutationOf(R.T()); err != nil {
		return nil, errors.Wrapf(element.ErrFlipNotInvolution, "%v", err)
	}
	for k, row := range table {
		if len(row) != r.nunit {
			err = errors.Wrapf(fespace.ErrIncompatible, "cell %d has %d nodes, element has %d", k, len(row), r.nunit)
			return nil, err
		}
		for _, node := range row {
			if node < 0 || node >= numNodes {
				return nil, fmt.Errorf("cell %d references node %d outside [0,%d)", k, node, numNodes)
			}
		}
		if o := orient[k]; o != 1 && o != -1 {
			return nil, fmt.Errorf("cell %d has orientation %g, want +1 or -1", k, o)
		}
	}
	r.table = table
	return
}

// NumSource is the number of values Convert expects in direction dir
func (r *Reordering) NumSource(dir Direction) int {
	if dir == SourceToTarget {
		return r.numNodes
	}
	return r.ncells * r.nunit
}

// NumTarget is the number of values Convert produces in direction dir
func (r *Reordering) NumTarget(dir Direction) int {
	return r.NumSource(1 - dir)
}

// Permutation returns the gather index for dir, computing it on first use.
// Entries of -1 mark source numbered nodes reached by no target slot.
func (r *Reordering) Permutation(dir Direction) (p utils.Index, err error) {
	if dir > TargetToSource {
		return nil, fmt.Errorf("invalid direction %v", dir)
	}
	if !r.done[dir] {
		if r.released {
			return nil, fmt.Errorf("cell-node table released before %v was computed", dir)
		}
		if dir == SourceToTarget {
			r.perm[dir] = r.sourceToTarget()
		} else {
			r.perm[dir] = r.targetToSource()
		}
		r.done[dir] = true
	}
	return r.perm[dir], nil
}

// sourceToTarget expands the identity through the table and flips the rows
// of negatively oriented cells
func (r *Reordering) sourceToTarget() (p utils.Index) {
	order := utils.NewIdentity(r.numNodes)
	p = make(utils.Index, 0, r.ncells*r.nunit)
	for k, row := range r.table {
		cell := order.Subset(row)
		if r.orient[k] < 0 {
			cell = cell.Subset(r.flip)
		}
		p = append(p, cell...)
	}
	return
}

// targetToSource flips the target enumeration with the transposed flip and
// scatters it through the table. When several slots land on one node the
// last slot in table order wins.
func (r *Reordering) targetToSource() (p utils.Index) {
	order := utils.NewIdentity(r.ncells * r.nunit)
	p = utils.NewConst(r.numNodes, -1)
	for k, row := range r.table {
		cell := order[k*r.nunit : (k+1)*r.nunit]
		if r.orient[k] < 0 {
			cell = cell.Subset(r.flipT)
		}
		for i, node := range row {
			p[node] = cell[i]
		}
	}
	return
}

// ReleaseTable drops the cell-node table once both directions are computed
func (r *Reordering) ReleaseTable() bool {
	if r.done[SourceToTarget] && r.done[TargetToSource] {
		r.table, r.released = nil, true
		return true
	}
	return false
}

// Convert gathers scalar values, source slots not reached are zero
func (r *Reordering) Convert(values []float64, dir Direction) (out []float64, err error) {
	var p utils.Index
	if p, err = r.Permutation(dir); err != nil {
		return
	}
	if len(values) != r.NumSource(dir) {
		err = errors.Wrapf(fespace.ErrIncompatible, "%v: got %d values, want %d", dir, len(values), r.NumSource(dir))
		return
	}
	return p.Gather(values)
}

// ConvertVector gathers vector values. Source numbered data is nodes x dim,
// target layout data is dim x nodes.
func (r *Reordering) ConvertVector(values mat.Matrix, dir Direction) (out *mat.Dense, err error) {
	var p utils.Index
	if p, err = r.Permutation(dir); err != nil {
		return
	}
	nr, nc := values.Dims()
	nodes, dim := nr, nc
	if dir == TargetToSource {
		nodes, dim = nc, nr
	}
	if nodes != r.NumSource(dir) {
		err = errors.Wrapf(fespace.ErrIncompatible, "%v: got %d nodes, want %d", dir, nodes, r.NumSource(dir))
		return
	}
	if len(p) == 0 || dim == 0 {
		return &mat.Dense{}, nil
	}
	switch dir {
	case SourceToTarget:
		out = mat.NewDense(dim, len(p), nil)
		for i, src := range p {
			for d := 0; d < dim; d++ {
				out.Set(d, i, values.At(src, d))
			}
		}
	case TargetToSource:
		out = mat.NewDense(len(p), dim, nil)
		for i, src := range p {
			if src < 0 {
				continue
			}
			for d := 0; d < dim; d++ {
				out.Set(i, d, values.At(d, src))
			}
		}
	}
	return
}
