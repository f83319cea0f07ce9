package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/gofault/types"
)

/*
ReferenceCell holds the Lagrange P1/Q1 basis of a reference element evaluated
at its quadrature points. Cohesive cell types resolve to their face type.
*/
type ReferenceCell struct {
	Type       types.CellType
	Dim        int // Topological dimension
	NumBasis   int
	NumQuadPts int
	Vertices   [][]float64   // Reference coordinates of the vertices
	QuadPts    [][]float64   // [q][dim]
	QuadWts    []float64     // [q]
	Basis      [][]float64   // [q][a]
	BasisDeriv [][][]float64 // [q][a][dim]
}

var gaussPt = 1. / math.Sqrt(3.)

func NewReferenceCell(ct types.CellType) (rc *ReferenceCell, err error) {
	rc = &ReferenceCell{Type: ct.FaceType()}
	switch rc.Type {
	case types.Cell_Line2:
		rc.Vertices = [][]float64{{-1}, {1}}
		rc.QuadPts = [][]float64{{-gaussPt}, {gaussPt}}
		rc.QuadWts = []float64{1, 1}
	case types.Cell_Tri3:
		rc.Vertices = [][]float64{{0, 0}, {1, 0}, {0, 1}}
		rc.QuadPts = [][]float64{{1. / 6., 1. / 6.}, {2. / 3., 1. / 6.}, {1. / 6., 2. / 3.}}
		rc.QuadWts = []float64{1. / 6., 1. / 6., 1. / 6.}
	case types.Cell_Quad4:
		rc.Vertices = [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
		rc.QuadPts = [][]float64{
			{-gaussPt, -gaussPt}, {gaussPt, -gaussPt},
			{gaussPt, gaussPt}, {-gaussPt, gaussPt},
		}
		rc.QuadWts = []float64{1, 1, 1, 1}
	case types.Cell_Tet4:
		var (
			a = 0.5854101966249685
			b = 0.1381966011250105
		)
		rc.Vertices = [][]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		rc.QuadPts = [][]float64{{b, b, b}, {a, b, b}, {b, a, b}, {b, b, a}}
		rc.QuadWts = []float64{1. / 24., 1. / 24., 1. / 24., 1. / 24.}
	case types.Cell_Hex8:
		rc.Vertices = [][]float64{
			{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
			{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
		}
		for _, z := range []float64{-gaussPt, gaussPt} {
			for _, xy := range [][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
				rc.QuadPts = append(rc.QuadPts, []float64{xy[0] * gaussPt, xy[1] * gaussPt, z})
				rc.QuadWts = append(rc.QuadWts, 1)
			}
		}
	default:
		err = fmt.Errorf("no reference cell for cell type %s", ct)
		return nil, err
	}
	rc.Dim = len(rc.Vertices[0])
	rc.NumBasis = len(rc.Vertices)
	rc.NumQuadPts = len(rc.QuadPts)
	rc.Basis = make([][]float64, rc.NumQuadPts)
	rc.BasisDeriv = make([][][]float64, rc.NumQuadPts)
	for q, xi := range rc.QuadPts {
		rc.Basis[q], rc.BasisDeriv[q] = rc.Evaluate(xi)
	}
	return
}

// Evaluate returns the basis values and reference derivatives at xi.
func (rc *ReferenceCell) Evaluate(xi []float64) (N []float64, dN [][]float64) {
	var (
		nb = len(rc.Vertices)
		nd = len(rc.Vertices[0])
	)
	N = make([]float64, nb)
	dN = make([][]float64, nb)
	for a := range dN {
		dN[a] = make([]float64, nd)
	}
	switch rc.Type {
	case types.Cell_Tri3, types.Cell_Tet4:
		// Simplex: N0 = 1 - sum(xi), Na = xi[a-1]
		N[0] = 1
		for d := 0; d < nd; d++ {
			N[0] -= xi[d]
			N[d+1] = xi[d]
			dN[0][d] = -1
			dN[d+1][d] = 1
		}
	default:
		// Tensor product of linear 1D functions, vertex coordinates are +-1
		for a, v := range rc.Vertices {
			N[a] = 1
			for d := 0; d < nd; d++ {
				N[a] *= 0.5 * (1 + v[d]*xi[d])
			}
			for d := 0; d < nd; d++ {
				dN[a][d] = 0.5 * v[d]
				for e := 0; e < nd; e++ {
					if e != d {
						dN[a][d] *= 0.5 * (1 + v[e]*xi[e])
					}
				}
			}
		}
	}
	return
}
