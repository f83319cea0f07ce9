package geometry

import (
	"fmt"
	"math"

	"github.com/notargets/gofault/utils"
)

/*
Frame is a local orthonormal basis on a surface. Rows are the tangential
directions followed by the normal:
	2D: (tangent, normal)
	3D: (strike, dip, normal)
The normal points from the negative side of the surface to the positive side.
Both layouts are left handed, det R = -1.
*/
type Frame struct {
	Dim int
	R   [3][3]float64
}

var (
	DefaultUpDir = []float64{0, 0, 1}
	altUpDir     = []float64{0, 1, 0}
)

type DegenerateGeometryError struct {
	Cell    int
	Point   int
	Measure float64
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate geometry in cell %d at point %d: measure = %g", e.Cell, e.Point, e.Measure)
}

func IdentityFrame(dim int) (f Frame) {
	f.Dim = dim
	for i := 0; i < dim; i++ {
		f.R[i][i] = 1
	}
	return
}

func (f Frame) Normal() []float64 {
	return f.R[f.Dim-1][:f.Dim]
}

// ToLocal returns R v.
func (f Frame) ToLocal(v []float64) (l []float64) {
	l = make([]float64, f.Dim)
	for i := 0; i < f.Dim; i++ {
		for j := 0; j < f.Dim; j++ {
			l[i] += f.R[i][j] * v[j]
		}
	}
	return
}

// ToGlobal returns R^T l.
func (f Frame) ToGlobal(l []float64) (v []float64) {
	v = make([]float64, f.Dim)
	for i := 0; i < f.Dim; i++ {
		for j := 0; j < f.Dim; j++ {
			v[j] += f.R[i][j] * l[i]
		}
	}
	return
}

// OrthonormalityError is the largest deviation of R R^T from the identity.
func (f Frame) OrthonormalityError() (maxErr float64) {
	for i := 0; i < f.Dim; i++ {
		for j := 0; j < f.Dim; j++ {
			var dot float64
			for k := 0; k < f.Dim; k++ {
				dot += f.R[i][k] * f.R[j][k]
			}
			if i == j {
				dot -= 1
			}
			maxErr = math.Max(maxErr, math.Abs(dot))
		}
	}
	return
}

// frameFromTangents builds the frame from the columns of the surface map
// Jacobian and returns the surface measure |j0| (2D) or |j0 x j1| (3D).
func frameFromTangents(j0, j1, up []float64) (f Frame, measure float64) {
	switch len(j0) {
	case 2:
		f.Dim = 2
		p := []float64{j0[0], j0[1]}
		measure = utils.Normalize(p)
		f.R[0] = [3]float64{p[0], p[1], 0}
		f.R[1] = [3]float64{p[1], -p[0], 0}
	case 3:
		f.Dim = 3
		nc := utils.Cross(j0, j1)
		r := nc[:]
		measure = utils.Normalize(r)
		f.R = orthonormalFromNormal(r, up)
	}
	return
}

// orthonormalFromNormal completes a unit normal r with strike = up x r and
// dip = strike x r.
func orthonormalFromNormal(r, up []float64) (R [3][3]float64) {
	if len(up) != 3 {
		up = DefaultUpDir
	}
	pc := utils.Cross(up, r)
	p := pc[:]
	if utils.Normalize(p) < 1.e-8 {
		pc = utils.Cross(altUpDir, r)
		p = pc[:]
		utils.Normalize(p)
	}
	q := utils.Cross(p, r)
	R[0] = [3]float64{p[0], p[1], p[2]}
	R[1] = q
	R[2] = [3]float64{r[0], r[1], r[2]}
	return
}

// FrameAt evaluates the surface frame of a face cell at reference point xi.
func FrameAt(rc *ReferenceCell, coords [][]float64, xi, up []float64) (f Frame, measure float64) {
	_, dN := rc.Evaluate(xi)
	return frameFromDerivs(rc, coords, dN, up)
}

func frameFromDerivs(rc *ReferenceCell, coords [][]float64, dN [][]float64, up []float64) (f Frame, measure float64) {
	var (
		spaceDim = len(coords[0])
		j0       = make([]float64, spaceDim)
		j1       = make([]float64, spaceDim)
	)
	for a := 0; a < rc.NumBasis; a++ {
		for i := 0; i < spaceDim; i++ {
			j0[i] += coords[a][i] * dN[a][0]
			if rc.Dim > 1 {
				j1[i] += coords[a][i] * dN[a][1]
			}
		}
	}
	return frameFromTangents(j0, j1, up)
}

type FaceGeometry struct {
	Frames  []Frame     // Per quadrature point
	Weights []float64   // Surface measure times quadrature weight
	X       [][]float64 // Quadrature point coordinates
}

/*
ComputeFaceGeometry computes the orientation frame and area weight at every
quadrature point of a face cell of dimension spaceDim-1.
*/
func ComputeFaceGeometry(cell int, rc *ReferenceCell, coords [][]float64, up []float64) (fg FaceGeometry, err error) {
	var (
		spaceDim = len(coords[0])
	)
	if rc.Dim != spaceDim-1 {
		err = fmt.Errorf("face cell of dimension %d cannot be oriented in %d dimensions", rc.Dim, spaceDim)
		return
	}
	fg.Frames = make([]Frame, rc.NumQuadPts)
	fg.Weights = make([]float64, rc.NumQuadPts)
	fg.X = make([][]float64, rc.NumQuadPts)
	for q := 0; q < rc.NumQuadPts; q++ {
		var measure float64
		fg.Frames[q], measure = frameFromDerivs(rc, coords, rc.BasisDeriv[q], up)
		if measure <= utils.MINDET || utils.IsNan(measure) {
			err = &DegenerateGeometryError{Cell: cell, Point: q, Measure: measure}
			return
		}
		fg.Weights[q] = measure * rc.QuadWts[q]
		fg.X[q] = interpolate(rc.Basis[q], coords)
	}
	return
}

/*
ComputeVertexFrames returns the frame at each vertex of a face cell and the
lumped vertex areas (integral of each basis function over the face).
*/
func ComputeVertexFrames(cell int, rc *ReferenceCell, coords [][]float64, up []float64) (frames []Frame, areas []float64, err error) {
	var (
		fg FaceGeometry
	)
	if fg, err = ComputeFaceGeometry(cell, rc, coords, up); err != nil {
		return
	}
	frames = make([]Frame, rc.NumBasis)
	areas = make([]float64, rc.NumBasis)
	for a := 0; a < rc.NumBasis; a++ {
		var measure float64
		frames[a], measure = FrameAt(rc, coords, rc.Vertices[a], up)
		if measure <= utils.MINDET {
			err = &DegenerateGeometryError{Cell: cell, Point: -1 - a, Measure: measure}
			return
		}
		for q := 0; q < rc.NumQuadPts; q++ {
			areas[a] += rc.Basis[q][a] * fg.Weights[q]
		}
	}
	return
}

// AverageFrames combines frames of a vertex shared by several faces and
// re-orthonormalizes the result around the averaged normal.
func AverageFrames(frames []Frame, up []float64) (f Frame) {
	var (
		dim = frames[0].Dim
		r   = make([]float64, 3)
		p   = make([]float64, 3)
	)
	for _, fr := range frames {
		for i := 0; i < 3; i++ {
			r[i] += fr.R[dim-1][i]
			p[i] += fr.R[0][i]
		}
	}
	f.Dim = dim
	utils.Normalize(r)
	switch dim {
	case 2:
		// Tangent is perpendicular to the normal, oriented as the summed tangents
		t := []float64{-r[1], r[0]}
		if t[0]*p[0]+t[1]*p[1] < 0 {
			t[0], t[1] = -t[0], -t[1]
		}
		f.R[0] = [3]float64{t[0], t[1], 0}
		f.R[1] = [3]float64{r[0], r[1], 0}
	case 3:
		f.R = orthonormalFromNormal(r, up)
	}
	return
}

func interpolate(N []float64, coords [][]float64) (x []float64) {
	x = make([]float64, len(coords[0]))
	for a, na := range N {
		for i := range x {
			x[i] += na * coords[a][i]
		}
	}
	return
}
