package element

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/fembem/utils"
)

var (
	ErrUnsupported       = errors.New("unsupported element")
	ErrFlipNotInvolution = errors.New("flip matrix is not an involution")
)

// Lagrange is the equispaced Lagrange element on the reference simplex with
// vertices (-1,..,-1), (1,-1,..,-1), .., (-1,..,-1,1). Local nodes are ordered
// by entity: vertices, then edges, faces and the interior. Each node is
// identified by its integer barycentric multi-index, which sums to Degree.
type Lagrange struct {
	Dim, Degree int
	Nunit       int

	multi      [][]int     // barycentric multi-index of every local node
	entities   [][][]int   // entities[e][i] is the vertex set of the i-th entity of dimension e
	entityDofs [][][]int   // local nodes of every entity, in local order
	flip       *mat.Dense  // Nunit x Nunit
	flipPerm   utils.Index // flipPerm[i] = j where flip[i][j] = 1
}

// NewLagrange builds the element and validates its flip matrix
func NewLagrange(dim, degree int) (le *Lagrange, err error) {
	if dim < 0 || dim > 3 {
		err = errors.Wrapf(ErrUnsupported, "dimension %d", dim)
		return
	}
	if degree < 1 {
		err = errors.Wrapf(ErrUnsupported, "degree %d", degree)
		return
	}
	le = &Lagrange{Dim: dim, Degree: degree}
	le.enumerate()
	if dim == 0 {
		return
	}
	if err = le.buildFlip(); err != nil {
		return nil, err
	}
	return
}

// subsets returns the subsets of {0..n-1} with k members in lexicographic order
func subsets(n, k int) (sets [][]int) {
	var rec func(start int, cur []int)
	rec = func(start int, cur []int) {
		if len(cur) == k {
			sets = append(sets, append([]int{}, cur...))
			return
		}
		for i := start; i < n; i++ {
			rec(i+1, append(cur, i))
		}
	}
	rec(0, nil)
	return
}

// compositions returns the multi-indices of length n with positive entries
// summing to total, in descending lexicographic order
func compositions(n, total int) (out [][]int) {
	if n == 0 {
		if total == 0 {
			out = [][]int{{}}
		}
		return
	}
	if n == 1 {
		if total > 0 {
			out = [][]int{{total}}
		}
		return
	}
	for first := total - (n - 1); first >= 1; first-- {
		for _, rest := range compositions(n-1, total-first) {
			out = append(out, append([]int{first}, rest...))
		}
	}
	return
}

func (le *Lagrange) enumerate() {
	nv := le.Dim + 1
	le.entities = make([][][]int, nv)
	le.entityDofs = make([][][]int, nv)
	for e := 0; e <= le.Dim; e++ {
		le.entities[e] = subsets(nv, e+1)
		le.entityDofs[e] = make([][]int, len(le.entities[e]))
		for i, verts := range le.entities[e] {
			for _, comp := range compositions(e+1, le.Degree) {
				mi := make([]int, nv)
				for ii, v := range verts {
					mi[v] = comp[ii]
				}
				le.entityDofs[e][i] = append(le.entityDofs[e][i], len(le.multi))
				le.multi = append(le.multi, mi)
			}
		}
	}
	le.Nunit = len(le.multi)
}

// NumUnitNodes is (Degree+Dim)! / (Degree! Dim!)
func (le *Lagrange) NumUnitNodes() int { return le.Nunit }

// MultiIndex returns the barycentric multi-index of local node j
func (le *Lagrange) MultiIndex(j int) []int { return le.multi[j] }

// Entities returns the vertex sets of the entities of dimension e
func (le *Lagrange) Entities(e int) [][]int { return le.entities[e] }

// EntityDofs returns the local nodes of every entity, by entity dimension and
// entity number
func (le *Lagrange) EntityDofs() [][][]int { return le.entityDofs }

// BarycentricUnitNodes is (Dim+1) x Nunit, columns sum to one
func (le *Lagrange) BarycentricUnitNodes() (B *mat.Dense) {
	B = mat.NewDense(le.Dim+1, le.Nunit, nil)
	for j, mi := range le.multi {
		for i, b := range mi {
			B.Set(i, j, float64(b)/float64(le.Degree))
		}
	}
	return
}

// UnitNodes is Dim x Nunit
func (le *Lagrange) UnitNodes() *mat.Dense {
	return le.barycentricToUnit(le.BarycentricUnitNodes())
}

// barycentricToUnit maps barycentric columns to reference coordinates, vertex
// 0 sits at (-1,..,-1) and vertex i at -1 + 2 e_i
func (le *Lagrange) barycentricToUnit(B mat.Matrix) (X *mat.Dense) {
	_, n := B.Dims()
	if le.Dim == 0 {
		return mat.NewDense(1, n, nil)
	}
	X = mat.NewDense(le.Dim, n, nil)
	for j := 0; j < n; j++ {
		for i := 0; i < le.Dim; i++ {
			X.Set(i, j, 2*B.At(i+1, j)-1)
		}
	}
	return
}

// Vandermonde evaluates the orthonormal simplex basis at nodes (Dim x n),
// returning n x Nunit
func (le *Lagrange) Vandermonde(nodes mat.Matrix) (V *mat.Dense, err error) {
	nr, n := nodes.Dims()
	if nr != le.Dim {
		err = fmt.Errorf("nodes have %d coordinates, element dimension is %d", nr, le.Dim)
		return
	}
	row := func(i int) []float64 { return mat.Row(nil, i, nodes) }
	V = mat.NewDense(n, le.Nunit, nil)
	var sk int
	N := le.Degree
	switch le.Dim {
	case 1:
		r := row(0)
		for i := 0; i <= N; i++ {
			V.SetCol(sk, JacobiP(r, 0, 0, i))
			sk++
		}
	case 2:
		a, b := RStoAB(row(0), row(1))
		for i := 0; i <= N; i++ {
			for j := 0; j <= N-i; j++ {
				V.SetCol(sk, Simplex2DP(a, b, i, j))
				sk++
			}
		}
	case 3:
		a, b, c := RSTtoABC(row(0), row(1), row(2))
		for i := 0; i <= N; i++ {
			for j := 0; j <= N-i; j++ {
				for k := 0; k <= N-i-j; k++ {
					V.SetCol(sk, Simplex3DP(a, b, c, i, j, k))
					sk++
				}
			}
		}
	default:
		err = errors.Wrapf(ErrUnsupported, "no basis in dimension %d", le.Dim)
	}
	return
}

// FlippedBarycentricNodes swaps the first two barycentric coordinates of the
// unit nodes, the node set of the same cell described with reversed orientation
func (le *Lagrange) FlippedBarycentricNodes() (B *mat.Dense) {
	B = le.BarycentricUnitNodes()
	r0, r1 := mat.Row(nil, 0, B), mat.Row(nil, 1, B)
	B.SetRow(0, r1)
	B.SetRow(1, r0)
	return
}

// buildFlip computes the resampling matrix from the unit nodes to the flipped
// unit nodes, V(flipped) V^-1, and checks that it is an involution that
// permutes the local nodes
func (le *Lagrange) buildFlip() (err error) {
	var (
		V, Vf *mat.Dense
		Vinv  mat.Dense
		F     = mat.NewDense(le.Nunit, le.Nunit, nil)
	)
	if V, err = le.Vandermonde(le.UnitNodes()); err != nil {
		return
	}
	if Vf, err = le.Vandermonde(le.barycentricToUnit(le.FlippedBarycentricNodes())); err != nil {
		return
	}
	if err = Vinv.Inverse(V); err != nil {
		return errors.Wrapf(err, "inverting Vandermonde of %s", le)
	}
	F.Mul(Vf, &Vinv)
	utils.MatChop(F, utils.ZEROTOL)
	return le.setFlip(F)
}

// setFlip validates F and stores it with its permutation
func (le *Lagrange) setFlip(F *mat.Dense) (err error) {
	var defect float64
	if defect, err = utils.InvolutionDefect(F); err != nil {
		return
	}
	if defect > utils.FLIPTOL {
		return errors.Wrapf(ErrFlipNotInvolution, "%s: ||F*F - I||/||I|| = %g", le, defect)
	}
	R := utils.MatRound(F)
	if le.flipPerm, err = utils.PermutationOf(R); err != nil {
		return errors.Wrapf(ErrFlipNotInvolution, "%s: %v", le, err)
	}
	le.flip = R
	return
}

// FlipMatrix is the validated, rounded flip matrix. Applied to the local node
// values of a cell it gives the values seen by the reversed cell.
func (le *Lagrange) FlipMatrix() *mat.Dense {
	if le.flip == nil {
		return nil
	}
	return mat.DenseCopyOf(le.flip)
}

// FlipPermutation is the flip matrix as a gather: flipped[i] = values[p[i]]
func (le *Lagrange) FlipPermutation() utils.Index { return le.flipPerm.Copy() }

// Facet is the element of the same degree on a face of this simplex
func (le *Lagrange) Facet() (*Lagrange, error) {
	if le.Dim < 2 {
		return nil, errors.Wrapf(ErrUnsupported, "facet of a %d dimensional element", le.Dim)
	}
	return NewLagrange(le.Dim-1, le.Degree)
}

// NodesOnFacet returns the local nodes on the closure of the sub-simplex
// spanned by the local vertices verts
func (le *Lagrange) NodesOnFacet(verts []int) (nodes []int) {
	inFacet := make(map[int]bool, len(verts))
	for _, v := range verts {
		inFacet[v] = true
	}
	for j, mi := range le.multi {
		on := true
		for v, b := range mi {
			if b != 0 && !inFacet[v] {
				on = false
				break
			}
		}
		if on {
			nodes = append(nodes, j)
		}
	}
	sort.Ints(nodes)
	return
}

func (le *Lagrange) String() string {
	return fmt.Sprintf("P%d Lagrange on %dD simplex", le.Degree, le.Dim)
}
