package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

const MaterialLabel = "material-id"

// IntegratorDomain integrates volumetric kernels over the cells of one
// material id.
type IntegratorDomain struct {
	IntegratorBase
	MaterialID int
	LabelName  string
	Stratum    topology.Stratum
}

func NewIntegratorDomain(mesh *topology.Mesh, materialID int) *IntegratorDomain {
	return &IntegratorDomain{
		IntegratorBase: IntegratorBase{Mesh: mesh},
		MaterialID:     materialID,
		LabelName:      MaterialLabel,
	}
}

func (id *IntegratorDomain) Initialize(solution *topology.Field) (err error) {
	if id.Stratum, err = id.Mesh.Stratum(id.LabelName, id.MaterialID); err != nil {
		return fmt.Errorf("%w: material %d: %v", ErrInvalidConfiguration, id.MaterialID, err)
	}
	if err = id.setup(DomainCells, id.Stratum, nil); err != nil {
		return fmt.Errorf("material %d: %w", id.MaterialID, err)
	}
	utils.Debugf("material %d: cells [%d, %d)", id.MaterialID, id.Stratum.Start, id.Stratum.End)
	return
}

// ComputeRHSResidual passes no rate field to the kernels.
func (id *IntegratorDomain) ComputeRHSResidual(residual *topology.Field, t, dt float64, solution *topology.Field) (err error) {
	if err = id.checkInitialized(); err != nil {
		return
	}
	return id.Assembler.Residual(id.kernels.RHSResidual(), TimeContext{T: t, Dt: dt}, solution, nil, id.Aux, residual)
}

func (id *IntegratorDomain) ComputeLHSResidual(residual *topology.Field, t, dt float64, solution, solutionDot *topology.Field) (err error) {
	if err = id.checkInitialized(); err != nil {
		return
	}
	return id.Assembler.Residual(id.kernels.LHSResidual(), TimeContext{T: t, Dt: dt}, solution, solutionDot, id.Aux, residual)
}

// ComputeRHSJacobian uses a zero time shift.
func (id *IntegratorDomain) ComputeRHSJacobian(jacobian, precond *utils.DOK, t, dt float64, solution *topology.Field) (err error) {
	if err = id.checkInitialized(); err != nil {
		return
	}
	return id.Assembler.Jacobian(id.kernels.RHSJacobian(), TimeContext{T: t, Dt: dt}, solution, nil, id.Aux, jacobian, precond)
}

func (id *IntegratorDomain) ComputeLHSJacobianImplicit(jacobian, precond *utils.DOK, t, dt, tshift float64,
	solution, solutionDot *topology.Field) (err error) {
	if err = id.checkInitialized(); err != nil {
		return
	}
	return id.Assembler.Jacobian(id.kernels.LHSJacobian(), TimeContext{T: t, Dt: dt, TShift: tshift},
		solution, solutionDot, id.Aux, jacobian, precond)
}

func (id *IntegratorDomain) ComputeLHSJacobianLumpedInv(jacobianInv *topology.Field, t, dt, tshift float64, solution *topology.Field) error {
	return fmt.Errorf("material %d: lumped LHS Jacobian inverse: %w", id.MaterialID, ErrNotImplemented)
}

func (id *IntegratorDomain) UpdateStateVars(t, dt float64, solution *topology.Field) error {
	return fmt.Errorf("material %d: state variable update: %w", id.MaterialID, ErrNotImplemented)
}
