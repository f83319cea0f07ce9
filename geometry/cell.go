package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofault/utils"
)

// CellGeometry holds the isoparametric map of a volume cell at its
// quadrature points.
type CellGeometry struct {
	DetJ      []float64     // [q]
	Weights   []float64     // DetJ times quadrature weight
	X         [][]float64   // [q][dim]
	GradBasis [][][]float64 // [q][a][dim], physical derivatives
}

func ComputeCellGeometry(cell int, rc *ReferenceCell, coords [][]float64) (cg CellGeometry, err error) {
	var (
		dim = rc.Dim
		J   = mat.NewDense(dim, dim, nil)
		Ji  = mat.NewDense(dim, dim, nil)
	)
	if len(coords[0]) != dim {
		err = fmt.Errorf("cell %d: %d-dimensional cell in %d-dimensional space", cell, dim, len(coords[0]))
		return
	}
	cg.DetJ = make([]float64, rc.NumQuadPts)
	cg.Weights = make([]float64, rc.NumQuadPts)
	cg.X = make([][]float64, rc.NumQuadPts)
	cg.GradBasis = make([][][]float64, rc.NumQuadPts)
	for q := 0; q < rc.NumQuadPts; q++ {
		dN := rc.BasisDeriv[q]
		J.Zero()
		for a := 0; a < rc.NumBasis; a++ {
			for i := 0; i < dim; i++ {
				for d := 0; d < dim; d++ {
					J.Set(i, d, J.At(i, d)+coords[a][i]*dN[a][d])
				}
			}
		}
		det := mat.Det(J)
		if det <= utils.MINDET || utils.IsNan(det) {
			// Negative determinant is an inverted element
			err = &DegenerateGeometryError{Cell: cell, Point: q, Measure: det}
			return
		}
		if err = Ji.Inverse(J); err != nil {
			err = fmt.Errorf("cell %d: %w", cell, err)
			return
		}
		cg.DetJ[q] = det
		cg.Weights[q] = det * rc.QuadWts[q]
		cg.X[q] = interpolate(rc.Basis[q], coords)
		cg.GradBasis[q] = make([][]float64, rc.NumBasis)
		for a := 0; a < rc.NumBasis; a++ {
			g := make([]float64, dim)
			for i := 0; i < dim; i++ {
				for d := 0; d < dim; d++ {
					g[i] += dN[a][d] * Ji.At(d, i)
				}
			}
			cg.GradBasis[q][a] = g
		}
	}
	return
}
