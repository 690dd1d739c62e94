package study

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/fembem/conversion"
	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
	"github.com/notargets/fembem/layerpot"
	"github.com/notargets/fembem/utils"
)

// RelativeError is the discrete relative l2 error over the node values
func RelativeError(trueSol, compSol *fespace.Function) (float64, error) {
	if !trueSol.Space.SameElement(compSol.Space) || trueSol.Space.ValueDim != compSol.Space.ValueDim {
		return 0, errors.Wrapf(fespace.ErrIncompatible, "%v and %v", trueSol.Space, compSol.Space)
	}
	t, c := trueSol.Values(), compSol.Values()
	norm := floats.Norm(t, 2)
	if norm == 0 {
		return 0, fmt.Errorf("true solution has zero norm")
	}
	return floats.Distance(t, c, 2) / norm, nil
}

// TrueSolution is smooth and nonzero in every dimension
func TrueSolution(x []float64) []float64 {
	v := 1.
	for i, xi := range x {
		v += math.Sin(float64(i+1) * math.Pi * xi)
	}
	return []float64{v}
}

// Method produces the true and computed solutions of a trial on fs
type Method func(ctx context.Context, q device.Queue, fc *conversion.FunctionConverter,
	fs *fespace.FunctionSpace) (trueSol, compSol *fespace.Function, err error)

// Methods are the trials a study can run. Both are exact relabelings of the
// nodes, so their relative error is zero up to rounding on every mesh: a study
// checks the conversion path end to end, it does not measure convergence.
var Methods = map[string]Method{
	"roundtrip": roundTrip,
	"identity":  identityOp,
}

func MethodNames() (names []string) {
	for name := range Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

func interpolated(fs *fespace.FunctionSpace) (f *fespace.Function, err error) {
	f = fespace.NewFunction(fs)
	err = f.Interpolate(TrueSolution)
	return
}

// roundTrip converts to target layout and back
func roundTrip(ctx context.Context, q device.Queue, fc *conversion.FunctionConverter,
	fs *fespace.FunctionSpace) (trueSol, compSol *fespace.Function, err error) {
	if trueSol, err = interpolated(fs); err != nil {
		return
	}
	var a device.Array
	if a, err = fc.ToTarget(q, trueSol, conversion.FullMesh(), true); err != nil {
		return
	}
	compSol = fespace.NewFunction(fs)
	err = fc.FromTarget(q, a, compSol, conversion.FullMesh())
	return
}

// identityOp evaluates the identity operator over the whole target layout
func identityOp(ctx context.Context, q device.Queue, fc *conversion.FunctionConverter,
	fs *fespace.FunctionSpace) (trueSol, compSol *fespace.Function, err error) {
	if trueSol, err = interpolated(fs); err != nil {
		return
	}
	var (
		op layerpot.Operator
		oc *layerpot.OpConnection
	)
	if op, err = layerpot.Lookup("identity"); err != nil {
		return
	}
	if oc, err = layerpot.Bind(fc, op, layerpot.Whole(fs), layerpot.Whole(fs)); err != nil {
		return
	}
	compSol, err = oc.Evaluate(ctx, q, nil, map[string]interface{}{layerpot.Density: trueSol})
	return
}

type Row struct {
	Key
	Result
	Cached bool
}

// Config lists the trials of a study, every mesh with every degree, family
// and method
type Config struct {
	Degrees  []int
	Families []fespace.Family
	Methods  []string
	UseCache bool
}

// Run computes the trials missing from cache and stores their results in it.
// progress, when set, is called after every trial.
func Run(ctx context.Context, q device.Queue, meshes []MeshFile, cfg Config, cache *Cache,
	progress func(iter, total int, row Row)) (rows []Row, err error) {
	total := len(meshes) * len(cfg.Degrees) * len(cfg.Families) * len(cfg.Methods)
	for _, name := range cfg.Methods {
		if _, ok := Methods[name]; !ok {
			return nil, fmt.Errorf("unknown method %q, have %v", name, MethodNames())
		}
	}
	for _, mf := range meshes {
		fc := conversion.NewFunctionConverter()
		for _, degree := range cfg.Degrees {
			for _, family := range cfg.Families {
				var fs *fespace.FunctionSpace
				if fs, err = fespace.New(mf.Mesh, family, degree, 1); err != nil {
					return nil, errors.Wrapf(err, "%s", mf.Path)
				}
				for _, name := range cfg.Methods {
					if err = ctx.Err(); err != nil {
						return
					}
					row := Row{Key: Key{H: mf.H, Degree: degree, Family: family.String(), Method: name}}
					if r, ok := cache.Get(row.Key); ok && cfg.UseCache {
						row.Result, row.Cached = r, true
					} else {
						var trueSol, compSol *fespace.Function
						if trueSol, compSol, err = Methods[name](ctx, q, fc, fs); err != nil {
							return nil, errors.Wrapf(err, "%s %v %s", mf.Path, fs, name)
						}
						if row.RelErr, err = RelativeError(trueSol, compSol); err != nil {
							return
						}
						row.NDofs = fs.NumNodes()
						cache.Put(row.Key, row.Result)
					}
					rows = append(rows, row)
					utils.Log().Debugw("trial", "h", row.H, "degree", degree, "family", family,
						"method", name, "relErr", row.RelErr, "cached", row.Cached)
					if progress != nil {
						progress(len(rows), total, row)
					}
				}
			}
		}
	}
	return
}
