package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

// IntegratorInterface integrates kernels over the cohesive cells of a fault.
type IntegratorInterface struct {
	IntegratorBase
	LabelValue int
	UpDir      []float64
	Surface    types.SurfaceID
	Stratum    topology.Stratum
	label      string
}

func NewIntegratorInterface(mesh *topology.Mesh, labelValue int) *IntegratorInterface {
	return &IntegratorInterface{
		IntegratorBase: IntegratorBase{Mesh: mesh},
		LabelValue:     labelValue,
	}
}

func (ii *IntegratorInterface) SetMarkerLabel(label string) error {
	if len(label) == 0 {
		return fmt.Errorf("%w: empty string given for fault label", ErrInvalidConfiguration)
	}
	ii.label = label
	return nil
}

func (ii *IntegratorInterface) GetMarkerLabel() string { return ii.label }

func (ii *IntegratorInterface) Initialize(solution *topology.Field) (err error) {
	if len(ii.label) == 0 {
		return fmt.Errorf("%w: fault integrator has no marker label", ErrInvalidConfiguration)
	}
	if ii.Surface, err = ii.Mesh.ResolveSurface(ii.label, ii.LabelValue); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if ii.Stratum, err = ii.Mesh.Stratum(ii.Surface.Name, ii.Surface.Value); err != nil {
		return
	}
	if err = ii.setup(CohesiveCells, ii.Stratum, ii.UpDir); err != nil {
		return fmt.Errorf("fault %s: %w", ii.Surface, err)
	}
	return
}

func (ii *IntegratorInterface) ComputeRHSResidual(residual *topology.Field, t, dt float64, solution *topology.Field) (err error) {
	if err = ii.checkInitialized(); err != nil {
		return
	}
	return ii.Assembler.Residual(ii.kernels.RHSResidual(), TimeContext{T: t, Dt: dt}, solution, nil, ii.Aux, residual)
}

func (ii *IntegratorInterface) ComputeLHSResidual(residual *topology.Field, t, dt float64, solution, solutionDot *topology.Field) (err error) {
	if err = ii.checkInitialized(); err != nil {
		return
	}
	return ii.Assembler.Residual(ii.kernels.LHSResidual(), TimeContext{T: t, Dt: dt}, solution, solutionDot, ii.Aux, residual)
}

func (ii *IntegratorInterface) ComputeRHSJacobian(jacobian, precond *utils.DOK, t, dt float64, solution *topology.Field) (err error) {
	if err = ii.checkInitialized(); err != nil {
		return
	}
	return ii.Assembler.Jacobian(ii.kernels.RHSJacobian(), TimeContext{T: t, Dt: dt}, solution, nil, ii.Aux, jacobian, precond)
}

func (ii *IntegratorInterface) ComputeLHSJacobianImplicit(jacobian, precond *utils.DOK, t, dt, tshift float64,
	solution, solutionDot *topology.Field) (err error) {
	if err = ii.checkInitialized(); err != nil {
		return
	}
	return ii.Assembler.Jacobian(ii.kernels.LHSJacobian(), TimeContext{T: t, Dt: dt, TShift: tshift},
		solution, solutionDot, ii.Aux, jacobian, precond)
}

func (ii *IntegratorInterface) ComputeLHSJacobianLumpedInv(jacobianInv *topology.Field, t, dt, tshift float64, solution *topology.Field) error {
	return fmt.Errorf("fault %s: lumped LHS Jacobian inverse: %w", ii.Surface, ErrNotImplemented)
}

// RebuildGeometry recomputes frames and weights after the mesh coordinates
// change.
func (ii *IntegratorInterface) RebuildGeometry() error {
	if err := ii.checkInitialized(); err != nil {
		return err
	}
	return ii.Assembler.Rebuild()
}
