package feassemble

import (
	"fmt"

	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

// Integrator is the contract between physics (materials, boundary conditions,
// faults) and the problem that sums their contributions.
type Integrator interface {
	Initialize(solution *topology.Field) error
	ComputeRHSResidual(residual *topology.Field, t, dt float64, solution *topology.Field) error
	ComputeLHSResidual(residual *topology.Field, t, dt float64, solution, solutionDot *topology.Field) error
	ComputeRHSJacobian(jacobian, precond *utils.DOK, t, dt float64, solution *topology.Field) error
	ComputeLHSJacobianImplicit(jacobian, precond *utils.DOK, t, dt, tshift float64, solution, solutionDot *topology.Field) error
	ComputeLHSJacobianLumpedInv(jacobianInv *topology.Field, t, dt, tshift float64, solution *topology.Field) error
}

// StateVarUpdater is implemented by integrators carrying history variables.
type StateVarUpdater interface {
	UpdateStateVars(t, dt float64, solution *topology.Field) error
}

/*
IntegratorBase holds what all integrators share: kernel configuration,
the assembler over the integrator's stratum and the auxiliary field.
*/
type IntegratorBase struct {
	Mesh      *topology.Mesh
	AuxDB     spatialdb.Database
	AuxNames  []string
	Assembler *Assembler
	Aux       *AuxField

	config      kernelConfig
	kernels     KernelSet
	initialized bool
}

func (ib *IntegratorBase) setKernels(set func()) error {
	if ib.initialized {
		return fmt.Errorf("%w: kernels cannot change after initialization", ErrInvalidConfiguration)
	}
	set()
	return nil
}

func (ib *IntegratorBase) SetKernelsRHSResidual(kernels []ResidualKernel) error {
	return ib.setKernels(func() { ib.config.rhsResidual = append([]ResidualKernel(nil), kernels...) })
}

func (ib *IntegratorBase) SetKernelsLHSResidual(kernels []ResidualKernel) error {
	return ib.setKernels(func() { ib.config.lhsResidual = append([]ResidualKernel(nil), kernels...) })
}

func (ib *IntegratorBase) SetKernelsRHSJacobian(kernels []JacobianKernel) error {
	return ib.setKernels(func() { ib.config.rhsJacobian = append([]JacobianKernel(nil), kernels...) })
}

func (ib *IntegratorBase) SetKernelsLHSJacobian(kernels []JacobianKernel) error {
	return ib.setKernels(func() { ib.config.lhsJacobian = append([]JacobianKernel(nil), kernels...) })
}

func (ib *IntegratorBase) Kernels() KernelSet { return ib.kernels }

func (ib *IntegratorBase) Initialized() bool { return ib.initialized }

// setup builds the assembler and auxiliary field and freezes the kernels.
func (ib *IntegratorBase) setup(kind CellKind, stratum topology.Stratum, upDir []float64) (err error) {
	if ib.Assembler, err = NewAssembler(kind, ib.Mesh, stratum, upDir); err != nil {
		return
	}
	if len(ib.AuxNames) != 0 {
		if ib.AuxDB == nil {
			return fmt.Errorf("%w: unknown case for setting up auxiliary fields %v", ErrInvalidConfiguration, ib.AuxNames)
		}
		if ib.Aux, err = PopulateAux(ib.AuxDB, ib.AuxNames, stratum.Len(), ib.Assembler.QuadraturePoints); err != nil {
			return
		}
	}
	ib.kernels = ib.config.freeze()
	ib.initialized = true
	return
}

func (ib *IntegratorBase) checkInitialized() error {
	if !ib.initialized {
		return fmt.Errorf("%w: integrator used before initialization", ErrInvalidConfiguration)
	}
	return nil
}
