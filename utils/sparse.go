package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// DOK is the global system matrix: a dictionary-of-keys sparse matrix that
// accumulates contributions with add-in-place semantics.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }
func (m DOK) NNZ() int            { return m.M.NNZ() }

func (m *DOK) SetReadOnly(name ...string) {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
}

func (m *DOK) SetWritable() {
	m.readOnly = false
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, val)
}

// AddAt adds val into entry (i,j).
func (m DOK) AddAt(i, j int, val float64) {
	m.checkWritable()
	if val == 0 {
		return
	}
	m.M.Set(i, j, m.M.At(i, j)+val)
}

// AddBlock scatter-adds an element matrix with row-major data at the global
// row and column indices given.
func (m DOK) AddBlock(rows, cols []int, data []float64) {
	if len(data) != len(rows)*len(cols) {
		panic(fmt.Errorf("element block size mismatch: %d != %d x %d", len(data), len(rows), len(cols)))
	}
	nc := len(cols)
	for ii, i := range rows {
		for jj, j := range cols {
			m.AddAt(i, j, data[jj+ii*nc])
		}
	}
}

// AddScaled computes m += alpha * b over the stored entries of b.
func (m DOK) AddScaled(alpha float64, b DOK) {
	b.M.DoNonZero(func(i, j int, v float64) {
		m.AddAt(i, j, alpha*v)
	})
}

// ZeroRow clears row i and puts diag on the diagonal.
func (m DOK) ZeroRow(i int, diag float64) {
	m.checkWritable()
	_, nc := m.Dims()
	for j := 0; j < nc; j++ {
		if m.M.At(i, j) != 0 {
			m.M.Set(i, j, 0)
		}
	}
	m.M.Set(i, i, diag)
}

// ToDense returns a dense copy suitable for direct factorization.
func (m DOK) ToDense() (D *mat.Dense) {
	var (
		nr, nc = m.Dims()
	)
	D = mat.NewDense(nr, nc, nil)
	m.M.DoNonZero(func(i, j int, v float64) {
		D.Set(i, j, v)
	})
	return
}

// MulVec returns y = A x using the CSR form.
func (m DOK) MulVec(x []float64) (y []float64) {
	var (
		nr, _ = m.Dims()
		yv    = mat.NewVecDense(nr, nil)
	)
	yv.MulVec(m.M.ToCSR(), mat.NewVecDense(len(x), x))
	y = yv.RawVector().Data
	return
}
