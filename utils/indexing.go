package utils

import (
	"fmt"
)

// Index is a list of integer offsets used as a gather: out[i] = in[I[i]]
type Index []int

func NewRange(rmin, rmax int) (r Index) {
	var (
		size = rmax - rmin + 1 // INCLUSIVE RANGE
	)
	if size < 0 {
		size = 0
	}
	r = make(Index, size)
	for i := range r {
		r[i] = i + rmin
	}
	return
}

// NewIdentity is the enumeration 0..N-1
func NewIdentity(N int) (r Index) {
	return NewRange(0, N-1)
}

func NewConst(N, val int) (r Index) {
	r = make(Index, N)
	for i := range r {
		r[i] = val
	}
	return
}

func (I Index) Copy() (r Index) {
	r = make(Index, len(I))
	copy(r, I)
	return
}

func (I Index) Subset(J Index) (r Index) {
	r = make(Index, len(J))
	for j, val := range J {
		r[j] = I[val]
	}
	return
}

// Gather returns data[I[i]] for every i, with a zero wherever I[i] < 0
func (I Index) Gather(data []float64) (r []float64, err error) {
	r = make([]float64, len(I))
	for i, ind := range I {
		switch {
		case ind < 0:
			continue
		case ind >= len(data):
			err = fmt.Errorf("gather index out of bounds: index = %d, len(data) = %d", ind, len(data))
			return
		}
		r[i] = data[ind]
	}
	return
}
