package layerpot

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
)

// Density is the argument name the builtin operators read
const Density = "sigma"

const keyTol = 1e-8

var builtins = map[string]Operator{
	"identity": OperatorFunc(identity),
	"scale":    OperatorFunc(scale),
	"sum":      OperatorFunc(sum),
	"mean":     OperatorFunc(mean),
}

// Lookup returns the builtin operator called name
func Lookup(name string) (Operator, error) {
	op, ok := builtins[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown operator %q, have %v", name, Names())
	}
	return op, nil
}

func Names() (names []string) {
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// density reads sigma to the host and splits it into components, one row of
// source node values per component
func density(q device.Queue, source *conversion.Discretization, args map[string]interface{}) (sigma [][]float64, err error) {
	arg, ok := args[Density]
	if !ok {
		return nil, fmt.Errorf("missing argument %q", Density)
	}
	var host []float64
	switch a := arg.(type) {
	case device.Array:
		if host, err = device.ToHost(q, a); err != nil {
			return
		}
	case []float64:
		host = a
	default:
		return nil, fmt.Errorf("argument %q has type %T, want an array", Density, arg)
	}
	n := source.NumNodes()
	if n == 0 || len(host)%n != 0 {
		return nil, fmt.Errorf("density of %d values on %d source nodes", len(host), n)
	}
	for d := 0; d < len(host)/n; d++ {
		sigma = append(sigma, host[d*n:(d+1)*n])
	}
	return
}

// pointKey buckets coordinates on a grid of spacing keyTol
func pointKey(x []float64) string {
	var b strings.Builder
	for _, xi := range x {
		fmt.Fprintf(&b, "%d,", int64(math.Round(xi/keyTol)))
	}
	return b.String()
}

// sample reads the density at target points that coincide with source nodes
func sample(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}, alpha float64) (device.Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sigma, err := density(q, source, args)
	if err != nil {
		return nil, err
	}
	var (
		X   = source.NodeCoordinates()
		T   = target.Points()
		n   = target.NumPoints()
		at  = make(map[string]int, source.NumNodes())
		out = make([]float64, len(sigma)*n)
	)
	for j := 0; j < source.NumNodes(); j++ {
		at[pointKey(mat.Col(nil, j, X))] = j
	}
	for i := 0; i < n; i++ {
		j, ok := at[pointKey(mat.Col(nil, i, T))]
		if !ok {
			return nil, errors.Errorf("target point %d at %v is not a source node", i, mat.Col(nil, i, T))
		}
		for d, s := range sigma {
			out[d*n+i] = alpha * s[j]
		}
	}
	return q.ToDevice(out)
}

func identity(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}) (device.Array, error) {
	return sample(ctx, q, source, target, args, 1)
}

// scale multiplies the density by the argument "alpha"
func scale(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}) (device.Array, error) {
	alpha, ok := args["alpha"].(float64)
	if !ok {
		return nil, fmt.Errorf("scale needs a float64 argument alpha, got %T", args["alpha"])
	}
	return sample(ctx, q, source, target, args, alpha)
}

// reduce evaluates the same value at every target point
func reduce(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}, average bool) (device.Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sigma, err := density(q, source, args)
	if err != nil {
		return nil, err
	}
	n := target.NumPoints()
	out := make([]float64, len(sigma)*n)
	for d, s := range sigma {
		var total float64
		for _, v := range s {
			total += v
		}
		if average {
			total /= float64(len(s))
		}
		for i := 0; i < n; i++ {
			out[d*n+i] = total
		}
	}
	return q.ToDevice(out)
}

func sum(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}) (device.Array, error) {
	return reduce(ctx, q, source, target, args, false)
}

func mean(ctx context.Context, q device.Queue, source *conversion.Discretization, target Target,
	args map[string]interface{}) (device.Array, error) {
	return reduce(ctx, q, source, target, args, true)
}
