package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

/*
IntegratorBoundary integrates kernels over the boundary faces carrying a
marker label. Boundary conditions contribute residual terms only; their
Jacobians are empty operations.
*/
type IntegratorBoundary struct {
	IntegratorBase
	LabelValue int
	UpDir      []float64
	Surface    types.SurfaceID
	label      string
}

func NewIntegratorBoundary(mesh *topology.Mesh) *IntegratorBoundary {
	return &IntegratorBoundary{
		IntegratorBase: IntegratorBase{Mesh: mesh},
		LabelValue:     1,
	}
}

func (ib *IntegratorBoundary) SetMarkerLabel(label string) error {
	if len(label) == 0 {
		return fmt.Errorf("%w: empty string given for boundary condition integrator label", ErrInvalidConfiguration)
	}
	ib.label = label
	return nil
}

func (ib *IntegratorBoundary) GetMarkerLabel() string { return ib.label }

func (ib *IntegratorBoundary) Initialize(solution *topology.Field) (err error) {
	var (
		stratum topology.Stratum
	)
	if len(ib.label) == 0 {
		return fmt.Errorf("%w: boundary condition integrator has no marker label", ErrInvalidConfiguration)
	}
	if ib.Surface, err = ib.Mesh.ResolveSurface(ib.label, ib.LabelValue); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if stratum, err = ib.Mesh.Stratum(ib.Surface.Name, ib.Surface.Value); err != nil {
		return
	}
	if err = ib.setup(BoundaryCells, stratum, ib.UpDir); err != nil {
		return fmt.Errorf("boundary %s: %w", ib.Surface, err)
	}
	return
}

func (ib *IntegratorBoundary) ComputeRHSResidual(residual *topology.Field, t, dt float64, solution *topology.Field) (err error) {
	if err = ib.checkInitialized(); err != nil {
		return
	}
	if len(ib.kernels.RHSResidual()) == 0 {
		return
	}
	utils.Debugf("boundary %s: RHS residual at t = %g", ib.Surface, t)
	return ib.Assembler.Residual(ib.kernels.RHSResidual(), TimeContext{T: t, Dt: dt}, solution, nil, ib.Aux, residual)
}

func (ib *IntegratorBoundary) ComputeLHSResidual(residual *topology.Field, t, dt float64, solution, solutionDot *topology.Field) (err error) {
	if err = ib.checkInitialized(); err != nil {
		return
	}
	return ib.Assembler.Residual(ib.kernels.LHSResidual(), TimeContext{T: t, Dt: dt}, solution, solutionDot, ib.Aux, residual)
}

func (ib *IntegratorBoundary) ComputeRHSJacobian(jacobian, precond *utils.DOK, t, dt float64, solution *topology.Field) error {
	return nil
}

func (ib *IntegratorBoundary) ComputeLHSJacobianImplicit(jacobian, precond *utils.DOK, t, dt, tshift float64,
	solution, solutionDot *topology.Field) error {
	return nil
}

func (ib *IntegratorBoundary) ComputeLHSJacobianLumpedInv(jacobianInv *topology.Field, t, dt, tshift float64, solution *topology.Field) error {
	return nil
}
