package faults

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

type Side uint8

const (
	NegativeSide Side = iota
	PositiveSide
)

func (s Side) String() string {
	if s == NegativeSide {
		return "negative"
	}
	return "positive"
}

/*
SensitivitySolver returns the displacement response of the vertices on one
side of the fault to nodal forces applied at those vertices. Forces and
displacements are concatenated per vertex in global components.
*/
type SensitivitySolver interface {
	Solve(side Side, verts []int, force []float64) (disp []float64, err error)
}

// LUSensitivity solves with the Jacobian block of the side vertices.
type LUSensitivity struct {
	Jacobian *utils.DOK
	Solution *topology.Field
}

func NewLUSensitivity(jacobian *utils.DOK, solution *topology.Field) *LUSensitivity {
	return &LUSensitivity{Jacobian: jacobian, Solution: solution}
}

func (ls *LUSensitivity) Solve(side Side, verts []int, force []float64) (disp []float64, err error) {
	ind := ls.Solution.Indices(verts)
	if len(ind) != len(force) {
		panic(fmt.Errorf("have %d forces for %d degrees of freedom", len(force), len(ind)))
	}
	if disp, err = utils.LUSolve(utils.MatSubBlock(ls.Jacobian, ind, ind), force); err != nil {
		err = fmt.Errorf("%s side sensitivity: %w", side, err)
	}
	return
}

/*
ConstrainSolnSpace makes a trial solution increment admissible at every
constrained vertex. The traction t = R (lambda + dlambda) + T0 is
classified with the slip increment R (du+ - du-), the multiplier increment
is adjusted onto the admissible set, and the displacement response to the
traction change, split half to each side, is added to the displacement
increment. The change pulls the negative side with A dlambda and the
positive side with -A dlambda, the same forces the residual applies. The normal component of the response is dropped for closed
vertices. Returns the slip response in local components per constrained
vertex. On error increment is unchanged.
*/
func (fc *FaultCohesiveDyn) ConstrainSolnSpace(solution, increment *topology.Field, t, dt float64,
	solver SensitivitySolver) (slip [][]float64, err error) {
	if !fc.Initialized() || fc.Vertices == nil {
		return nil, fmt.Errorf("%w: fault constraint before initialization", feassemble.ErrInvalidConfiguration)
	}
	var (
		fs       = fc.Vertices
		dim      = fc.Mesh.Dim
		n        = fs.NumVertices()
		dLambda  = make([][]float64, n)
		states   = make([]friction.ContactState, n)
		forceNeg = make([]float64, n*dim)
		forcePos = make([]float64, n*dim)
		dispNeg  = make([]float64, n*dim)
		dispPos  = make([]float64, n*dim)
	)
	if fs.Stale() {
		return nil, fmt.Errorf("fault %s: vertex geometry is stale, rebuild after coordinate changes", fc.Surface)
	}
	for i, v := range fs.Vertices {
		var (
			R        = fs.Frames[i]
			lambda   = make([]float64, dim)
			jump     = make([]float64, dim)
			aux      = fc.vertexAux[i]
			fricAux  = aux[:fc.nFric]
			incrNeg  = increment.PointValues(fs.Neg[i])
			incrPos  = increment.PointValues(fs.Pos[i])
			frictSt  = fc.vertexState[i]
			traction []float64
		)
		floats.AddTo(lambda, solution.PointValues(v), increment.PointValues(v))
		floats.SubTo(jump, incrPos, incrNeg)
		traction = R.ToLocal(lambda)
		floats.Add(traction, aux[fc.nFric:fc.nFric+dim])
		slipIncr := R.ToLocal(jump)
		strength := fc.Friction.Strength(fricAux, frictSt, friction.NormalStress(traction))
		states[i] = friction.ClassifyWithHint(traction, slipIncr, strength, fc.Tolerances, fc.vertexHints[i])
		dLambda[i] = R.ToGlobal(friction.TractionAdjustment(states[i], traction, slipIncr, strength, fc.Tolerances))
		for k := 0; k < dim; k++ {
			forceNeg[i*dim+k] = fs.Areas[i] * dLambda[i][k]
			forcePos[i*dim+k] = -fs.Areas[i] * dLambda[i][k]
		}
	}
	if floats.Norm(forcePos, 2) > 0 {
		if dispNeg, err = solver.Solve(NegativeSide, fs.Neg, forceNeg); err != nil {
			return nil, fmt.Errorf("fault %s: %w", fc.Surface, err)
		}
		if dispPos, err = solver.Solve(PositiveSide, fs.Pos, forcePos); err != nil {
			return nil, fmt.Errorf("fault %s: %w", fc.Surface, err)
		}
	}
	slip = make([][]float64, n)
	for i, v := range fs.Vertices {
		var (
			R       = fs.Frames[i]
			dispRel = make([]float64, dim)
		)
		floats.SubTo(dispRel, dispPos[i*dim:(i+1)*dim], dispNeg[i*dim:(i+1)*dim])
		slip[i] = R.ToLocal(dispRel)
		if states[i] != friction.Open {
			slip[i][dim-1] = 0
		}
		dispRel = R.ToGlobal(slip[i])
		floats.Add(increment.PointValues(v), dLambda[i])
		floats.AddScaled(increment.PointValues(fs.Neg[i]), -0.5, dispRel)
		floats.AddScaled(increment.PointValues(fs.Pos[i]), 0.5, dispRel)
		fc.vertexHints[i] = states[i]
	}
	utils.Debugf("fault %s: constrained %d vertices at t = %g, dt = %g", fc.Surface, n, t, dt)
	return
}
