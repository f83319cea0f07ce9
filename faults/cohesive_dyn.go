package faults

import (
	"fmt"
	"log"
	"math"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

// Initial traction auxiliary names in fault-local components.
var (
	TractionNames2D = []string{"initial_traction_shear", "initial_traction_normal"}
	TractionNames3D = []string{"initial_traction_strike", "initial_traction_dip", "initial_traction_normal"}
)

func TractionNames(dim int) []string {
	if dim == 2 {
		return TractionNames2D
	}
	return TractionNames3D
}

/*
FaultCohesiveDyn enforces frictional contact on a fault made of cohesive
cells. The Lagrange multiplier is the fault traction in global components;
contact kernels classify every quadrature point as sticking, slipping or
open and assemble the matching constraint.
*/
type FaultCohesiveDyn struct {
	feassemble.IntegratorInterface
	Friction   friction.Model
	FrictionDB spatialdb.Database
	TractionDB spatialdb.Database // Optional, zero initial traction when nil
	Tolerances friction.Tolerances
	Vertices   *FaultSurface

	nFric int
	// Per quadrature point [cellLocal][q]
	hints    [][]friction.ContactState
	staged   [][]friction.ContactState
	state    [][]float64
	prevSlip [][][]float64
	// Per constrained vertex
	vertexAux      [][]float64
	vertexHints    []friction.ContactState
	vertexState    []float64
	vertexPrevSlip [][]float64
}

func NewFaultCohesiveDyn(mesh *topology.Mesh, labelValue int) (fc *FaultCohesiveDyn) {
	fc = &FaultCohesiveDyn{
		IntegratorInterface: *feassemble.NewIntegratorInterface(mesh, labelValue),
		Friction:            friction.StaticFriction{},
	}
	return
}

func (fc *FaultCohesiveDyn) Initialize(solution *topology.Field) (err error) {
	var (
		dim = fc.Mesh.Dim
	)
	if fc.FrictionDB == nil {
		return fmt.Errorf("%w: fault %q: unknown case for setting up auxiliary fields, no friction database",
			feassemble.ErrInvalidConfiguration, fc.GetMarkerLabel())
	}
	if err = fc.Tolerances.Validate(); err != nil {
		return fmt.Errorf("%w: %v", feassemble.ErrInvalidConfiguration, err)
	}
	fc.nFric = len(fc.Friction.AuxNames())
	fc.AuxNames = append(append([]string{}, fc.Friction.AuxNames()...), TractionNames(dim)...)
	fc.AuxDB = spatialdb.NewCompositeDB(fc.FrictionDB, fc.TractionDB, zeroTractionDB(dim))
	if err = fc.SetKernelsLHSResidual(fc.residualKernels()); err != nil {
		return
	}
	if err = fc.SetKernelsLHSJacobian(fc.jacobianKernels()); err != nil {
		return
	}
	if err = fc.IntegratorInterface.Initialize(solution); err != nil {
		return
	}
	for c := range fc.Aux.Values {
		for _, aux := range fc.Aux.Values[c] {
			if err = friction.CheckAux(fc.Friction, aux[:fc.nFric]); err != nil {
				return fmt.Errorf("%w: fault %s: %v", feassemble.ErrInvalidConfiguration, fc.Surface, err)
			}
		}
	}
	var (
		nCells = fc.Stratum.Len()
		nq     = fc.Assembler.Ref.NumQuadPts
	)
	fc.hints = make([][]friction.ContactState, nCells)
	fc.staged = make([][]friction.ContactState, nCells)
	fc.state = make([][]float64, nCells)
	fc.prevSlip = make([][][]float64, nCells)
	for c := 0; c < nCells; c++ {
		fc.hints[c] = make([]friction.ContactState, nq)
		fc.staged[c] = make([]friction.ContactState, nq)
		fc.state[c] = make([]float64, nq)
		fc.prevSlip[c] = make([][]float64, nq)
		for q := range fc.prevSlip[c] {
			fc.prevSlip[c][q] = make([]float64, dim)
		}
	}
	if fc.Vertices, err = NewFaultSurface(fc.Mesh, fc.Stratum, fc.UpDir); err != nil {
		return fmt.Errorf("fault %s: %w", fc.Surface, err)
	}
	if err = fc.setupVertices(); err != nil {
		return
	}
	log.Printf("fault %s: %d cohesive cells, %d constrained vertices, %s friction\n",
		fc.Surface, nCells, fc.Vertices.NumVertices(), fc.Friction.Name())
	return
}

func (fc *FaultCohesiveDyn) setupVertices() (err error) {
	var (
		n = fc.Vertices.NumVertices()
	)
	fc.vertexAux = make([][]float64, n)
	fc.vertexHints = make([]friction.ContactState, n)
	fc.vertexState = make([]float64, n)
	fc.vertexPrevSlip = make([][]float64, n)
	for i := range fc.Vertices.Vertices {
		x := fc.Mesh.Coordinates[fc.Vertices.Neg[i]]
		if fc.vertexAux[i], err = fc.AuxDB.Query(fc.AuxNames, x); err != nil {
			return fmt.Errorf("fault %s: auxiliary values at vertex %d: %w", fc.Surface, fc.Vertices.Vertices[i], err)
		}
		fc.vertexPrevSlip[i] = make([]float64, fc.Mesh.Dim)
	}
	return
}

func zeroTractionDB(dim int) spatialdb.Database {
	values := make(map[string]float64)
	for _, name := range TractionNames(dim) {
		values[name] = 0
	}
	return spatialdb.NewUniformDB("zero_traction", values)
}

// RebuildGeometry recomputes quadrature point and vertex frames after the
// mesh coordinates change.
func (fc *FaultCohesiveDyn) RebuildGeometry() (err error) {
	if err = fc.IntegratorInterface.RebuildGeometry(); err != nil {
		return
	}
	fc.Vertices.Invalidate()
	return fc.Vertices.Rebuild(fc.Mesh)
}

// ComputeLHSResidual assembles the contact residual. The states classified
// during assembly replace the previous ones only if assembly succeeds.
func (fc *FaultCohesiveDyn) ComputeLHSResidual(residual *topology.Field, t, dt float64,
	solution, solutionDot *topology.Field) (err error) {
	for c := range fc.staged {
		copy(fc.staged[c], fc.hints[c])
	}
	if err = fc.IntegratorInterface.ComputeLHSResidual(residual, t, dt, solution, solutionDot); err != nil {
		return
	}
	for c := range fc.staged {
		copy(fc.hints[c], fc.staged[c])
	}
	return
}

// ContactStates returns the latest state of every quadrature point,
// indexed [cell - stratum start][q].
func (fc *FaultCohesiveDyn) ContactStates() (states [][]friction.ContactState) {
	states = make([][]friction.ContactState, len(fc.hints))
	for c := range fc.hints {
		states[c] = append([]friction.ContactState(nil), fc.hints[c]...)
	}
	return
}

// VertexStates returns the state of every constrained vertex from the last
// ConstrainSolnSpace call.
func (fc *FaultCohesiveDyn) VertexStates() []friction.ContactState {
	return append([]friction.ContactState(nil), fc.vertexHints...)
}

// FrictionState returns the friction state variable of each constrained vertex.
func (fc *FaultCohesiveDyn) FrictionState() []float64 {
	return append([]float64(nil), fc.vertexState...)
}

/*
VertexSlipTraction returns, per constrained vertex and in local components,
the slip u+ - u- and the traction R lambda + T0 of solution.
*/
func (fc *FaultCohesiveDyn) VertexSlipTraction(solution *topology.Field) (slip, traction [][]float64) {
	var (
		fs  = fc.Vertices
		dim = fc.Mesh.Dim
		n   = fs.NumVertices()
	)
	slip, traction = make([][]float64, n), make([][]float64, n)
	for i, v := range fs.Vertices {
		jump := make([]float64, dim)
		un, up := solution.PointValues(fs.Neg[i]), solution.PointValues(fs.Pos[i])
		for k := range jump {
			jump[k] = up[k] - un[k]
		}
		slip[i] = fs.Frames[i].ToLocal(jump)
		traction[i] = fs.Frames[i].ToLocal(solution.PointValues(v))
		for k := range traction[i] {
			traction[i][k] += fc.vertexAux[i][fc.nFric+k]
		}
	}
	return
}

/*
UpdateStateVars advances the friction state with the tangential slip since
the previous update, at every quadrature point and constrained vertex.
*/
func (fc *FaultCohesiveDyn) UpdateStateVars(t, dt float64, solution *topology.Field) (err error) {
	if !fc.Initialized() {
		return fmt.Errorf("%w: fault state update before initialization", feassemble.ErrInvalidConfiguration)
	}
	var (
		dim = fc.Mesh.Dim
		rc  = fc.Assembler.Ref
	)
	for c := fc.Stratum.Start; c < fc.Stratum.End; c++ {
		var (
			cellLocal   = c - fc.Stratum.Start
			neg, pos, _ = fc.Mesh.Cells[c].CohesiveVertices()
			fg          = fc.Assembler.FaceGeometry(cellLocal)
		)
		for q := 0; q < rc.NumQuadPts; q++ {
			jump := make([]float64, dim)
			for a := range neg {
				un, up := solution.PointValues(neg[a]), solution.PointValues(pos[a])
				for i := 0; i < dim; i++ {
					jump[i] += rc.Basis[q][a] * (up[i] - un[i])
				}
			}
			slip := fg.Frames[q].ToLocal(jump)
			aux := fc.Aux.Values[cellLocal][q][:fc.nFric]
			fc.state[cellLocal][q] = fc.Friction.UpdateState(aux, fc.state[cellLocal][q],
				tangentialChange(slip, fc.prevSlip[cellLocal][q]))
			fc.prevSlip[cellLocal][q] = slip
		}
	}
	for i := range fc.Vertices.Vertices {
		un, up := solution.PointValues(fc.Vertices.Neg[i]), solution.PointValues(fc.Vertices.Pos[i])
		jump := make([]float64, dim)
		for k := range jump {
			jump[k] = up[k] - un[k]
		}
		slip := fc.Vertices.Frames[i].ToLocal(jump)
		fc.vertexState[i] = fc.Friction.UpdateState(fc.vertexAux[i][:fc.nFric], fc.vertexState[i],
			tangentialChange(slip, fc.vertexPrevSlip[i]))
		fc.vertexPrevSlip[i] = slip
	}
	utils.Debugf("fault %s: state variables updated at t = %g", fc.Surface, t)
	return
}

func tangentialChange(slip, prev []float64) float64 {
	var (
		sum float64
	)
	for i := 0; i < len(slip)-1; i++ {
		d := slip[i] - prev[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
