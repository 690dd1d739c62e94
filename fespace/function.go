package fespace

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Function holds one row of values per node, ValueDim columns
type Function struct {
	Space *FunctionSpace
	Data  *mat.Dense
}

func NewFunction(fs *FunctionSpace) *Function {
	return &Function{
		Space: fs,
		Data:  mat.NewDense(fs.NumNodes(), fs.ValueDim, nil),
	}
}

// NewFunctionFrom wraps node values, data is NumNodes x ValueDim row major
func NewFunctionFrom(fs *FunctionSpace, data []float64) (f *Function, err error) {
	if len(data) != fs.NumNodes()*fs.ValueDim {
		err = errors.Wrapf(ErrIncompatible, "%d values for %v", len(data), fs)
		return
	}
	f = &Function{
		Space: fs,
		Data:  mat.NewDense(fs.NumNodes(), fs.ValueDim, append([]float64{}, data...)),
	}
	return
}

// Interpolate sets the node values from fn evaluated at the node coordinates
func (f *Function) Interpolate(fn func(x []float64) []float64) (err error) {
	X := f.Space.NodeCoordinates()
	for i := 0; i < f.Space.NumNodes(); i++ {
		v := fn(X.RawRowView(i))
		if len(v) != f.Space.ValueDim {
			return errors.Wrapf(ErrIncompatible, "interpolant returned %d values, space has %d", len(v), f.Space.ValueDim)
		}
		f.Data.SetRow(i, v)
	}
	return
}

// Values copies the data row major, for a scalar function one value per node
func (f *Function) Values() (v []float64) {
	nr, nc := f.Data.Dims()
	v = make([]float64, 0, nr*nc)
	for i := 0; i < nr; i++ {
		v = append(v, f.Data.RawRowView(i)...)
	}
	return
}
