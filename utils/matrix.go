package utils

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MatRound rounds every entry to the nearest integer, does not change M
func MatRound(M mat.Matrix) (R *mat.Dense) {
	var (
		nr, nc = M.Dims()
	)
	R = mat.NewDense(nr, nc, nil)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			R.Set(i, j, math.RoundToEven(M.At(i, j)))
		}
	}
	return
}

// MatChop zeroes every entry with magnitude below tol, changes M
func MatChop(M *mat.Dense, tol float64) *mat.Dense {
	var (
		nr, nc = M.Dims()
	)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			if math.Abs(M.At(i, j)) < tol {
				M.Set(i, j, 0)
			}
		}
	}
	return M
}

// InvolutionDefect is ||M*M - I||_F / ||I||_F for a square M
func InvolutionDefect(M mat.Matrix) (defect float64, err error) {
	var (
		nr, nc = M.Dims()
		MM     mat.Dense
	)
	if nr != nc {
		err = fmt.Errorf("matrix is not square: nr, nc = %d, %d", nr, nc)
		return
	}
	if nr == 0 {
		return
	}
	MM.Mul(M, M)
	for i := 0; i < nr; i++ {
		MM.Set(i, i, MM.At(i, i)-1)
	}
	defect = mat.Norm(&MM, 2) / math.Sqrt(float64(nr))
	return
}

// PermutationOf returns p such that M[i][p[i]] == 1 and every other entry is zero
func PermutationOf(M mat.Matrix) (p Index, err error) {
	var (
		nr, nc = M.Dims()
		seen   = make([]bool, nc)
	)
	if nr != nc {
		err = fmt.Errorf("matrix is not square: nr, nc = %d, %d", nr, nc)
		return
	}
	p = NewConst(nr, -1)
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			switch M.At(i, j) {
			case 0:
			case 1:
				if p[i] != -1 || seen[j] {
					err = fmt.Errorf("row %d or column %d holds more than one unit entry", i, j)
					return
				}
				p[i] = j
				seen[j] = true
			default:
				err = fmt.Errorf("entry (%d,%d) = %g is neither 0 nor 1", i, j, M.At(i, j))
				return
			}
		}
		if p[i] == -1 {
			err = fmt.Errorf("row %d has no unit entry", i)
			return
		}
	}
	return
}
