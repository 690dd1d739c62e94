package conversion

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/device"
	"github.com/notargets/fembem/fespace"
)

// Key identifies the converters that can serve a space and selection, the
// value dimension of the space is not part of it
type Key struct {
	MeshID    uuid.UUID
	Family    fespace.Family
	Degree    int
	Dim       int
	Selection Selection
}

func KeyOf(fs *fespace.FunctionSpace, sel Selection) Key {
	return Key{
		MeshID:    fs.Mesh.ID,
		Family:    fs.Family,
		Degree:    fs.Degree(),
		Dim:       fs.Mesh.Dim,
		Selection: sel.canonical(),
	}
}

// FunctionConverter finds or builds the converter of every space and
// selection it is asked about. It is not safe for concurrent use.
type FunctionConverter struct {
	converters map[Key]*SpaceConverter
}

func NewFunctionConverter() *FunctionConverter {
	return &FunctionConverter{converters: make(map[Key]*SpaceConverter)}
}

// Converter returns the cached converter for fs and sel, building it if absent
func (fc *FunctionConverter) Converter(fs *fespace.FunctionSpace, sel Selection) (sc *SpaceConverter, err error) {
	key := KeyOf(fs, sel)
	if sc = fc.converters[key]; sc != nil {
		return
	}
	if sc, err = NewSpaceConverter(fs, sel); err != nil {
		return nil, err
	}
	fc.converters[key] = sc
	return
}

func (fc *FunctionConverter) Len() int { return len(fc.converters) }

// Discretization of the target layout for fs and sel
func (fc *FunctionConverter) Discretization(fs *fespace.FunctionSpace, sel Selection) (*Discretization, error) {
	sc, err := fc.Converter(fs, sel)
	if err != nil {
		return nil, err
	}
	return sc.Discretization(), nil
}

// ToTarget converts f to target layout, flattened component-major. The
// result is moved to the device of q when onDevice is set.
func (fc *FunctionConverter) ToTarget(q device.Queue, f *fespace.Function, sel Selection, onDevice bool) (a device.Array, err error) {
	var (
		sc   *SpaceConverter
		data *mat.Dense
	)
	if sc, err = fc.Converter(f.Space, sel); err != nil {
		return
	}
	if data, err = sc.ToTarget(f); err != nil {
		return
	}
	flat := flatten(data)
	if !onDevice {
		return device.HostArray(flat), nil
	}
	return q.ToDevice(flat)
}

// FromTarget reads a component-major target layout array and writes it to f
func (fc *FunctionConverter) FromTarget(q device.Queue, a device.Array, f *fespace.Function, sel Selection) (err error) {
	var (
		sc   *SpaceConverter
		host []float64
	)
	if sc, err = fc.Converter(f.Space, sel); err != nil {
		return
	}
	if host, err = device.ToHost(q, a); err != nil {
		return
	}
	dim, n := f.Space.ValueDim, sc.NumTargetNodes()
	if len(host) != dim*n {
		return errors.Wrapf(fespace.ErrIncompatible, "%d values for %d components of %d nodes", len(host), dim, n)
	}
	if n == 0 {
		f.Data.Zero()
		return
	}
	return sc.FromTarget(mat.NewDense(dim, n, host), f)
}

func flatten(M *mat.Dense) (flat []float64) {
	nr, nc := M.Dims()
	flat = make([]float64, 0, nr*nc)
	for i := 0; i < nr; i++ {
		flat = append(flat, M.RawRowView(i)...)
	}
	return
}
