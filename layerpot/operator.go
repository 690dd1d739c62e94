package layerpot

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
)

// Operator evaluates a layer potential whose densities live on the source
// discretization at the points of target. Function arguments arrive as device
// arrays in target layout, component-major. The result holds the value
// components of every target point, component-major.
type Operator interface {
	Evaluate(ctx context.Context, q device.Queue, source *conversion.Discretization,
		target Target, args map[string]interface{}) (device.Array, error)
}

type OperatorFunc func(ctx context.Context, q device.Queue, source *conversion.Discretization,
	target Target, args map[string]interface{}) (device.Array, error)

func (f OperatorFunc) Evaluate(ctx context.Context, q device.Queue, source *conversion.Discretization,
	target Target, args map[string]interface{}) (device.Array, error) {
	return f(ctx, q, source, target, args)
}

// Target is where an operator is evaluated
type Target interface {
	Points() *mat.Dense // AmbientDim x NumPoints
	NumPoints() int
}

// PointsTarget is a bare point cloud, one column per point
type PointsTarget struct {
	X *mat.Dense
}

func (p PointsTarget) Points() *mat.Dense { return p.X }

func (p PointsTarget) NumPoints() int {
	if p.X == nil || p.X.IsEmpty() {
		return 0
	}
	_, n := p.X.Dims()
	return n
}

// DiscretizationTarget evaluates at every node of a target layout
type DiscretizationTarget struct {
	*conversion.Discretization
}

func (d DiscretizationTarget) Points() *mat.Dense { return d.NodeCoordinates() }

func (d DiscretizationTarget) NumPoints() int { return d.NumNodes() }
