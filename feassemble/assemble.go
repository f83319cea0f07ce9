package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/geometry"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

type CellKind uint8

const (
	DomainCells CellKind = iota
	BoundaryCells
	CohesiveCells
)

/*
Assembler runs quadrature loops over the cells of one stratum and scatter-adds
the results into global vectors and matrices. Cell geometry is computed once
by NewAssembler; Rebuild recomputes it after coordinates change.
Cells are split over ParallelDegree goroutines. Each cell writes only its
own element buffer and the scatter-add happens afterwards in cell order, so
results do not depend on the partitioning.
*/
type Assembler struct {
	Kind           CellKind
	Mesh           *topology.Mesh
	Stratum        topology.Stratum
	Ref            *geometry.ReferenceCell
	UpDir          []float64
	ParallelDegree int
	cellGeom       []geometry.CellGeometry
	faceGeom       []geometry.FaceGeometry
}

func NewAssembler(kind CellKind, mesh *topology.Mesh, stratum topology.Stratum, upDir []float64) (a *Assembler, err error) {
	if stratum.Len() <= 0 {
		return nil, fmt.Errorf("%w: empty cell stratum", ErrInvalidConfiguration)
	}
	ct := mesh.Cells[stratum.Start].Type
	for c := stratum.Start; c < stratum.End; c++ {
		if mesh.Cells[c].Type != ct {
			return nil, fmt.Errorf("%w: stratum mixes cell types %s and %s",
				ErrInvalidConfiguration, ct, mesh.Cells[c].Type)
		}
	}
	switch kind {
	case CohesiveCells:
		if !ct.IsCohesive() {
			return nil, fmt.Errorf("%w: cell type %s is not cohesive", ErrInvalidConfiguration, ct)
		}
	case BoundaryCells:
		if ct.Dimension() != mesh.Dim-1 {
			return nil, fmt.Errorf("%w: boundary cells of type %s in %d dimensions", ErrInvalidConfiguration, ct, mesh.Dim)
		}
	case DomainCells:
		if ct.Dimension() != mesh.Dim {
			return nil, fmt.Errorf("%w: domain cells of type %s in %d dimensions", ErrInvalidConfiguration, ct, mesh.Dim)
		}
	}
	a = &Assembler{
		Kind:           kind,
		Mesh:           mesh,
		Stratum:        stratum,
		UpDir:          upDir,
		ParallelDegree: utils.DefaultParallelDegree,
	}
	if a.Ref, err = geometry.NewReferenceCell(ct); err != nil {
		return nil, err
	}
	if err = a.Rebuild(); err != nil {
		return nil, err
	}
	return
}

// Rebuild recomputes cell geometry from the current mesh coordinates.
func (a *Assembler) Rebuild() (err error) {
	var (
		n = a.Stratum.Len()
	)
	switch a.Kind {
	case DomainCells:
		a.cellGeom = make([]geometry.CellGeometry, n)
		for c := a.Stratum.Start; c < a.Stratum.End; c++ {
			if a.cellGeom[c-a.Stratum.Start], err = geometry.ComputeCellGeometry(c, a.Ref, a.Mesh.CellCoordinates(c)); err != nil {
				return
			}
		}
	default:
		a.faceGeom = make([]geometry.FaceGeometry, n)
		for c := a.Stratum.Start; c < a.Stratum.End; c++ {
			if a.faceGeom[c-a.Stratum.Start], err = geometry.ComputeFaceGeometry(c, a.Ref, a.faceCoordinates(c), a.UpDir); err != nil {
				return
			}
		}
	}
	return
}

// faceCoordinates uses the negative face of cohesive cells.
func (a *Assembler) faceCoordinates(c int) [][]float64 {
	coords := a.Mesh.CellCoordinates(c)
	if a.Kind == CohesiveCells {
		return coords[:a.Ref.NumBasis]
	}
	return coords
}

// QuadraturePoints returns the physical quadrature points of a cell.
func (a *Assembler) QuadraturePoints(cellLocal int) [][]float64 {
	if a.Kind == DomainCells {
		return a.cellGeom[cellLocal].X
	}
	return a.faceGeom[cellLocal].X
}

func (a *Assembler) FaceGeometry(cellLocal int) geometry.FaceGeometry {
	return a.faceGeom[cellLocal]
}

type elementContribution struct {
	ind []int
	vec []float64
	mat []float64 // len(ind) x len(ind), row-major
}

func (a *Assembler) runCells(fn func(c int, ec *elementContribution) error) (ecs []elementContribution, err error) {
	var (
		pm   = utils.NewOffsetPartitionMap(a.ParallelDegree, a.Stratum.Start, a.Stratum.End)
		errs = make([]error, pm.ParallelDegree)
	)
	ecs = make([]elementContribution, a.Stratum.Len())
	pm.Run(func(np, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			if errs[np] = fn(c, &ecs[c-a.Stratum.Start]); errs[np] != nil {
				return
			}
		}
	})
	for _, err = range errs {
		if err != nil {
			return nil, err
		}
	}
	return
}

// cellLayout describes the subfield blocks of one cell: sides[s] lists the
// cell vertices of side s, and sideOf maps a subfield index to its sides.
type cellLayout struct {
	verts  []int
	sides  [][]int
	sideOf map[int][]int
	nb, nc int
}

func (a *Assembler) layout(c int, sol *topology.Field) (cl cellLayout, err error) {
	cell := a.Mesh.Cells[c]
	cl.verts = cell.Vertices
	cl.nb = a.Ref.NumBasis
	cl.nc = a.Mesh.Dim
	cl.sideOf = make(map[int][]int)
	if a.Kind == CohesiveCells {
		neg, pos, lagrange := cell.CohesiveVertices()
		cl.sides = [][]int{neg, pos, lagrange}
	} else {
		cl.sides = [][]int{cell.Vertices}
	}
	for s, verts := range cl.sides {
		sfi := sol.PointSubfield(verts[0])
		for _, v := range verts {
			if sol.PointSubfield(v) != sfi || sol.PointDOF(v) != cl.nc {
				err = fmt.Errorf("%w: cell %d mixes subfields on one face", ErrInvalidConfiguration, c)
				return
			}
		}
		cl.sideOf[sfi] = append(cl.sideOf[sfi], s)
	}
	return
}

func (a *Assembler) sidesOf(cl cellLayout, sol *topology.Field, name string) (sides []int, err error) {
	var sfi int
	if sfi, err = sol.SubfieldIndex(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if sides = cl.sideOf[sfi]; len(sides) == 0 {
		return nil, fmt.Errorf("%w: subfield %q is not defined on the cells of %s",
			ErrInvalidConfiguration, name, a.Mesh.Cells[a.Stratum.Start].Type)
	}
	return
}

// pointContext interpolates the solution at quadrature point q of cell c.
func (a *Assembler) pointContext(c, q int, cl cellLayout, tc TimeContext, sol, solDot *topology.Field, aux *AuxField) (p *PointContext) {
	var (
		cellLocal = c - a.Stratum.Start
		N         = a.Ref.Basis[q]
		nc        = cl.nc
	)
	p = &PointContext{
		Dim:         a.Mesh.Dim,
		TimeContext: tc,
		Cell:        c,
		Point:       q,
		Aux:         aux.at(cellLocal, q),
	}
	interp := func(f *topology.Field, verts []int) (v []float64) {
		v = make([]float64, nc)
		if f == nil {
			return
		}
		for b, vert := range verts {
			vals := f.PointValues(vert)
			for i := 0; i < nc; i++ {
				v[i] += N[b] * vals[i]
			}
		}
		return
	}
	switch a.Kind {
	case CohesiveCells:
		fg := &a.faceGeom[cellLocal]
		p.X, p.Frame = fg.X[q], &fg.Frames[q]
		p.UNeg, p.UPos, p.Lambda = interp(sol, cl.sides[0]), interp(sol, cl.sides[1]), interp(sol, cl.sides[2])
		p.UDotNeg, p.UDotPos = interp(solDot, cl.sides[0]), interp(solDot, cl.sides[1])
	case BoundaryCells:
		fg := &a.faceGeom[cellLocal]
		p.X, p.Frame = fg.X[q], &fg.Frames[q]
		p.S, p.SDot = interp(sol, cl.verts), interp(solDot, cl.verts)
	case DomainCells:
		cg := &a.cellGeom[cellLocal]
		p.X = cg.X[q]
		p.S, p.SDot = interp(sol, cl.verts), interp(solDot, cl.verts)
		p.SGrad = make([]float64, nc*p.Dim)
		for b, vert := range cl.verts {
			vals := sol.PointValues(vert)
			for i := 0; i < nc; i++ {
				for j := 0; j < p.Dim; j++ {
					p.SGrad[i*p.Dim+j] += vals[i] * cg.GradBasis[q][b][j]
				}
			}
		}
	}
	return
}

func (a *Assembler) weights(cellLocal int) []float64 {
	if a.Kind == DomainCells {
		return a.cellGeom[cellLocal].Weights
	}
	return a.faceGeom[cellLocal].Weights
}

// Residual integrates the kernels over the stratum and adds the result into
// residual. On error residual is left unchanged.
func (a *Assembler) Residual(kernels []ResidualKernel, tc TimeContext, sol, solDot *topology.Field,
	aux *AuxField, residual *topology.Field) (err error) {
	var (
		ecs []elementContribution
	)
	if len(kernels) == 0 {
		return
	}
	if !residual.SameLayout(sol) {
		return fmt.Errorf("residual layout does not match the solution")
	}
	ecs, err = a.runCells(func(c int, ec *elementContribution) (err error) {
		var (
			cl        cellLayout
			cellLocal = c - a.Stratum.Start
		)
		if cl, err = a.layout(c, sol); err != nil {
			return
		}
		ec.ind = sol.Indices(cl.verts)
		ec.vec = make([]float64, len(ec.ind))
		for _, k := range kernels {
			var sides []int
			if sides, err = a.sidesOf(cl, sol, k.Subfield); err != nil {
				return
			}
			nf := len(sides) * cl.nc
			f0 := make([]float64, nf)
			f1 := make([]float64, nf*a.Mesh.Dim)
			w := a.weights(cellLocal)
			for q := 0; q < a.Ref.NumQuadPts; q++ {
				p := a.pointContext(c, q, cl, tc, sol, solDot, aux)
				zero(f0)
				zero(f1)
				if k.F0 != nil {
					k.F0(p, f0)
				}
				if k.F1 != nil && a.Kind == DomainCells {
					k.F1(p, f1)
				}
				if utils.IsNan(f0) || utils.IsNan(f1) {
					return fmt.Errorf("non-finite residual in cell %d at point %d for subfield %q", c, q, k.Subfield)
				}
				a.addResidual(ec, cl, sides, cellLocal, q, w[q], f0, f1)
			}
		}
		return
	})
	if err != nil {
		return
	}
	for _, ec := range ecs {
		for i, ind := range ec.ind {
			residual.Values[ind] += ec.vec[i]
		}
	}
	return
}

func (a *Assembler) addResidual(ec *elementContribution, cl cellLayout, sides []int, cellLocal, q int, w float64, f0, f1 []float64) {
	var (
		N   = a.Ref.Basis[q]
		nc  = cl.nc
		dim = a.Mesh.Dim
	)
	for s, side := range sides {
		for b := 0; b < cl.nb; b++ {
			row := (side*cl.nb + b) * nc
			for i := 0; i < nc; i++ {
				v := N[b] * f0[s*nc+i]
				if a.Kind == DomainCells {
					gN := a.cellGeom[cellLocal].GradBasis[q][b]
					for j := 0; j < dim; j++ {
						v += gN[j] * f1[(s*nc+i)*dim+j]
					}
				}
				ec.vec[row+i] += w * v
			}
		}
	}
}

// Jacobian integrates the Jacobian kernels and adds them into jacobian, and
// into precond when it is a different matrix.
func (a *Assembler) Jacobian(kernels []JacobianKernel, tc TimeContext, sol, solDot *topology.Field,
	aux *AuxField, jacobian, precond *utils.DOK) (err error) {
	var (
		ecs []elementContribution
	)
	if len(kernels) == 0 {
		return
	}
	ecs, err = a.runCells(func(c int, ec *elementContribution) (err error) {
		var (
			cl        cellLayout
			cellLocal = c - a.Stratum.Start
		)
		if cl, err = a.layout(c, sol); err != nil {
			return
		}
		ec.ind = sol.Indices(cl.verts)
		ec.mat = make([]float64, len(ec.ind)*len(ec.ind))
		for _, k := range kernels {
			var testSides, trialSides []int
			if testSides, err = a.sidesOf(cl, sol, k.Subfield); err != nil {
				return
			}
			if trialSides, err = a.sidesOf(cl, sol, k.TrialSubfield); err != nil {
				return
			}
			var (
				nr = len(testSides) * cl.nc
				nt = len(trialSides) * cl.nc
				d2 = a.Mesh.Dim * a.Mesh.Dim
				J0 = make([]float64, nr*nt)
				J3 = make([]float64, nr*nt*d2)
				w  = a.weights(cellLocal)
			)
			for q := 0; q < a.Ref.NumQuadPts; q++ {
				p := a.pointContext(c, q, cl, tc, sol, solDot, aux)
				zero(J0)
				zero(J3)
				if k.J0 != nil {
					k.J0(p, J0)
				}
				if k.J3 != nil && a.Kind == DomainCells {
					k.J3(p, J3)
				}
				if utils.IsNan(J0) || utils.IsNan(J3) {
					return fmt.Errorf("non-finite Jacobian in cell %d at point %d for subfields %q/%q",
						c, q, k.Subfield, k.TrialSubfield)
				}
				a.addJacobian(ec, cl, testSides, trialSides, cellLocal, q, w[q], J0, J3)
			}
		}
		return
	})
	if err != nil {
		return
	}
	for _, ec := range ecs {
		jacobian.AddBlock(ec.ind, ec.ind, ec.mat)
		if precond != nil && precond.M != jacobian.M {
			precond.AddBlock(ec.ind, ec.ind, ec.mat)
		}
	}
	return
}

func (a *Assembler) addJacobian(ec *elementContribution, cl cellLayout, testSides, trialSides []int,
	cellLocal, q int, w float64, J0, J3 []float64) {
	var (
		N     = a.Ref.Basis[q]
		nc    = cl.nc
		dim   = a.Mesh.Dim
		nt    = len(trialSides) * nc
		ncol  = len(ec.ind)
		isDom = a.Kind == DomainCells
	)
	for s, tside := range testSides {
		for b := 0; b < cl.nb; b++ {
			for i := 0; i < nc; i++ {
				row := (tside*cl.nb+b)*nc + i
				fi := s*nc + i
				for t, rside := range trialSides {
					for e := 0; e < cl.nb; e++ {
						for k := 0; k < nc; k++ {
							col := (rside*cl.nb+e)*nc + k
							gk := t*nc + k
							v := N[b] * N[e] * J0[fi*nt+gk]
							if isDom {
								gNb := a.cellGeom[cellLocal].GradBasis[q][b]
								gNe := a.cellGeom[cellLocal].GradBasis[q][e]
								for j := 0; j < dim; j++ {
									for l := 0; l < dim; l++ {
										v += gNb[j] * J3[((fi*nt+gk)*dim+j)*dim+l] * gNe[l]
									}
								}
							}
							ec.mat[row*ncol+col] += w * v
						}
					}
				}
			}
		}
	}
}

func zero(v []float64) {
	for i := range v {
		v[i] = 0
	}
}
