package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MatSubBlock extracts the rows and columns given from M.
func MatSubBlock(MI mat.Matrix, rows, cols []int) (R *mat.Dense) {
	var (
		nr, nc = MI.Dims()
	)
	R = mat.NewDense(len(rows), len(cols), nil)
	for ii, i := range rows {
		if i > nr-1 || i < 0 {
			panic(fmt.Errorf("row index out of bounds: index = %d, max_bounds = %d", i, nr-1))
		}
		for jj, j := range cols {
			if j > nc-1 || j < 0 {
				panic(fmt.Errorf("column index out of bounds: index = %d, max_bounds = %d", j, nc-1))
			}
			R.Set(ii, jj, MI.At(i, j))
		}
	}
	return
}

// LUSolve solves A x = b with a partial-pivot LU factorization.
func LUSolve(A mat.Matrix, b []float64) (x []float64, err error) {
	var (
		lu   mat.LU
		cond float64
	)
	n, _ := A.Dims()
	xv := mat.NewVecDense(n, nil)
	bv := mat.NewVecDense(len(b), b)
	lu.Factorize(A)
	if cond = lu.Cond(); cond > 1.e15 {
		err = fmt.Errorf("matrix is singular or ill-conditioned, condition number = %g", cond)
		return
	}
	if err = lu.SolveVecTo(xv, false, bv); err != nil {
		return
	}
	x = xv.RawVector().Data
	return
}
