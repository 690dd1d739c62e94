package layerpot

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/utils"
)

var ErrNoExteriorIDs = errors.New("no boundary ids are exterior facet ids")

// OpConnection binds an operator between a source space and the space its
// results are written to. With boundary ids the operator is evaluated at the
// nodes of the out space on those boundaries, without them at every node of
// the target layout of the out space.
type OpConnection struct {
	Converter *conversion.FunctionConverter
	Op        Operator
	Source    *fespace.FunctionSpace
	SourceSel conversion.Selection
	Out       *fespace.FunctionSpace
	Target    Target

	source        *conversion.Discretization
	targetIndices []int // out space nodes receiving the results, nil for a layout target
}

func NewOpConnection(fc *conversion.FunctionConverter, op Operator, from *fespace.FunctionSpace,
	sourceSel conversion.Selection, out *fespace.FunctionSpace, targets []int) (oc *OpConnection, err error) {
	oc = &OpConnection{
		Converter: fc,
		Op:        op,
		Source:    from,
		SourceSel: sourceSel,
		Out:       out,
	}
	if oc.source, err = fc.Discretization(from, sourceSel); err != nil {
		return nil, err
	}
	if targets == nil {
		var d *conversion.Discretization
		if d, err = fc.Discretization(out, conversion.FullMesh()); err != nil {
			return nil, err
		}
		oc.Target = DiscretizationTarget{d}
		return
	}
	var valid []int
	if valid, err = exteriorIDs(out, targets); err != nil {
		return nil, err
	}
	seen := make(map[int]bool)
	for _, id := range valid {
		for _, node := range out.BoundaryNodes(id) {
			if !seen[node] {
				seen[node] = true
				oc.targetIndices = append(oc.targetIndices, node)
			}
		}
	}
	sort.Ints(oc.targetIndices)
	oc.Target = PointsTarget{X: pointsOf(out.NodeCoordinates(), oc.targetIndices)}
	return
}

// exteriorIDs keeps the requested ids that mark exterior facets of the out
// mesh, unknown ids are reported and dropped
func exteriorIDs(out *fespace.FunctionSpace, targets []int) (valid []int, err error) {
	var (
		markers = out.Mesh.UniqueMarkers()
		known   = make(map[int]bool, len(markers))
		invalid []int
		seen    = make(map[int]bool)
	)
	for _, m := range markers {
		known[m] = true
	}
	for _, id := range targets {
		if seen[id] {
			continue
		}
		seen[id] = true
		if known[id] {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	if len(valid) == 0 {
		return nil, errors.Wrapf(ErrNoExteriorIDs, "requested %v, exterior facet ids are %v", targets, markers)
	}
	if len(invalid) != 0 {
		utils.Log().Warnw("the following boundary ids are not exterior facet ids",
			"ids", invalid, "exterior", markers)
	}
	sort.Ints(valid)
	return
}

// pointsOf transposes the selected rows of X into columns
func pointsOf(X *mat.Dense, rows []int) (P *mat.Dense) {
	_, dim := X.Dims()
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	P = mat.NewDense(dim, len(rows), nil)
	for j, r := range rows {
		for d := 0; d < dim; d++ {
			P.Set(d, j, X.At(r, d))
		}
	}
	return
}

// TargetIndices are the out space nodes written by Evaluate, nil when the
// target is the whole target layout
func (oc *OpConnection) TargetIndices() []int { return oc.targetIndices }

// Evaluate runs the operator. Function arguments are converted to target
// layout on the device of q, other arguments are passed as given. Results
// are written into result, which is created when nil. Out space nodes that
// are not targets are left untouched.
func (oc *OpConnection) Evaluate(ctx context.Context, q device.Queue, result *fespace.Function,
	args map[string]interface{}) (*fespace.Function, error) {
	if result == nil {
		result = fespace.NewFunction(oc.Out)
	} else if !result.Space.SameElement(oc.Out) {
		return nil, errors.Wrapf(fespace.ErrIncompatible, "result in %v, connection writes %v", result.Space, oc.Out)
	}
	converted := make(map[string]interface{}, len(args))
	for name, arg := range args {
		f, ok := arg.(*fespace.Function)
		if !ok {
			converted[name] = arg
			continue
		}
		a, err := oc.Converter.ToTarget(q, f, oc.SourceSel, true)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %s", name)
		}
		converted[name] = a
	}
	out, err := oc.Op.Evaluate(ctx, q, oc.source, oc.Target, converted)
	if err != nil {
		return nil, err
	}
	var host []float64
	if host, err = device.ToHost(q, out); err != nil {
		return nil, err
	}
	if utils.IsNan(host) {
		return nil, errors.Errorf("operator on %v returned NaN values", oc.Source)
	}
	utils.Log().Debugw("evaluated operator", "source", oc.Source, "targets", oc.Target.NumPoints(),
		"values", len(host))
	if oc.targetIndices == nil {
		if err = oc.Converter.FromTarget(q, device.HostArray(host), result, conversion.FullMesh()); err != nil {
			return nil, err
		}
		return result, nil
	}
	var (
		dim = result.Space.ValueDim
		n   = len(oc.targetIndices)
	)
	if len(host) != dim*n {
		return nil, errors.Wrapf(fespace.ErrIncompatible, "operator returned %d values for %d components at %d targets",
			len(host), dim, n)
	}
	for i, node := range oc.targetIndices {
		for d := 0; d < dim; d++ {
			result.Data.Set(node, d, host[d*n+i])
		}
	}
	return result, nil
}

// Endpoint is one side of a binding: the space, the part of its mesh used as
// a source and the boundary ids used as targets
type Endpoint struct {
	Space     *fespace.FunctionSpace
	Selection conversion.Selection
	Targets   []int
}

func Whole(fs *fespace.FunctionSpace) Endpoint {
	return Endpoint{Space: fs, Selection: conversion.FullMesh()}
}

// Bind connects op from the source endpoint to the target endpoint, the
// source targets and the target selection are not used
func Bind(fc *conversion.FunctionConverter, op Operator, source, target Endpoint) (*OpConnection, error) {
	return NewOpConnection(fc, op, source.Space, source.Selection, target.Space, target.Targets)
}
