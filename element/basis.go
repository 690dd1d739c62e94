package element

import (
	"math"
)

// JacobiP evaluates the orthonormal Jacobi polynomial of type (alpha,beta) > -1
// and order N at points x
func JacobiP(x []float64, alpha, beta float64, N int) []float64 {
	var (
		Nc  = len(x)
		ab  = alpha + beta
		ab1 = alpha + beta + 1.0
		a1  = alpha + 1.0
		b1  = beta + 1.0
	)
	P := make([]float64, Nc)

	// Initial values P_0(x) and P_1(x)
	gamma0 := math.Pow(2.0, ab1) / ab1 * math.Gamma(a1) * math.Gamma(b1) / math.Gamma(ab1)
	PL := make([][]float64, N+1)
	for i := range PL {
		PL[i] = make([]float64, Nc)
	}
	for j := range x {
		PL[0][j] = 1.0 / math.Sqrt(gamma0)
	}
	if N == 0 {
		copy(P, PL[0])
		return P
	}
	gamma1 := a1 * b1 / (ab + 3.0) * gamma0
	for j := range x {
		PL[1][j] = ((ab+2.0)*x[j]/2.0 + (alpha-beta)/2.0) / math.Sqrt(gamma1)
	}
	if N == 1 {
		copy(P, PL[1])
		return P
	}

	// Forward recurrence using the symmetry of the recurrence
	aold := 2.0 / (2.0 + ab) * math.Sqrt(a1*b1/(ab+3.0))
	for i := 1; i <= N-1; i++ {
		var (
			fi   = float64(i)
			h1   = 2.0*fi + ab
			anew = 2.0 / (h1 + 2.0) * math.Sqrt((fi+1.0)*(fi+ab1)*(fi+a1)*(fi+b1)/(h1+1.0)/(h1+3.0))
			bnew = -(alpha*alpha - beta*beta) / h1 / (h1 + 2.0)
		)
		for j := range x {
			PL[i+1][j] = 1.0 / anew * (-aold*PL[i-1][j] + (x[j]-bnew)*PL[i][j])
		}
		aold = anew
	}
	copy(P, PL[N])
	return P
}

// RStoAB maps the reference triangle to the collapsed square
func RStoAB(r, s []float64) (a, b []float64) {
	a, b = make([]float64, len(r)), make([]float64, len(r))
	for n := range r {
		if s[n] != 1 {
			a[n] = 2*(1+r[n])/(1-s[n]) - 1
		} else {
			a[n] = -1
		}
		b[n] = s[n]
	}
	return
}

// RSTtoABC maps the reference tetrahedron to the collapsed cube
func RSTtoABC(r, s, t []float64) (a, b, c []float64) {
	Np := len(r)
	a, b, c = make([]float64, Np), make([]float64, Np), make([]float64, Np)
	for n := 0; n < Np; n++ {
		if s[n]+t[n] != 0.0 {
			a[n] = 2.0*(1.0+r[n])/(-s[n]-t[n]) - 1.0
		} else {
			a[n] = -1.0
		}
		if t[n] != 1.0 {
			b[n] = 2.0*(1.0+s[n])/(1.0-t[n]) - 1.0
		} else {
			b[n] = -1.0
		}
	}
	copy(c, t)
	return
}

// Simplex2DP evaluates the orthonormal polynomial of order (i,j) on the
// triangle at collapsed coordinates (a,b)
func Simplex2DP(a, b []float64, i, j int) (P []float64) {
	h1 := JacobiP(a, 0, 0, i)
	h2 := JacobiP(b, float64(2*i+1), 0, j)
	P = make([]float64, len(a))
	sq2 := math.Sqrt(2)
	for ii := range h1 {
		P[ii] = sq2 * h1[ii] * h2[ii] * math.Pow(1-b[ii], float64(i))
	}
	return
}

// Simplex3DP evaluates the orthonormal polynomial of order (i,j,k) on the
// tetrahedron at collapsed coordinates (a,b,c)
func Simplex3DP(a, b, c []float64, i, j, k int) []float64 {
	var (
		h1 = JacobiP(a, 0.0, 0.0, i)
		h2 = JacobiP(b, float64(2*i+1), 0.0, j)
		h3 = JacobiP(c, float64(2*(i+j)+2), 0.0, k)
		P  = make([]float64, len(a))
	)
	normConst := 2.0 * math.Sqrt(2.0)
	for idx := range P {
		tv1 := normConst * h1[idx] * h2[idx]
		tv2 := math.Pow(1.0-b[idx], float64(i))
		tv3 := h3[idx] * math.Pow(1.0-c[idx], float64(i+j))
		P[idx] = tv1 * tv2 * tv3
	}
	return P
}
