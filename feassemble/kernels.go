package feassemble

import (
	"github.com/notargets/gofault/geometry"
)

type TimeContext struct {
	T, Dt  float64
	TShift float64 // d(solution_dot)/d(solution) for implicit time stepping
}

/*
PointContext holds everything a pointwise kernel may read at one quadrature
point. Domain and boundary cells fill S, SDot and SGrad for the kernel's
subfield; cohesive cells fill the negative/positive side and Lagrange values.
Rate slices are zero on the RHS path.
*/
type PointContext struct {
	Dim         int
	TimeContext
	Cell, Point int
	X           []float64
	Aux         []float64

	S, SDot []float64
	SGrad   []float64 // dS_i/dx_j at [i*Dim+j]

	Frame            *geometry.Frame // Boundary and cohesive cells
	UNeg, UPos       []float64
	UDotNeg, UDotPos []float64
	Lambda           []float64
}

/*
ResidualFn evaluates a pointwise residual term into f. For domain and
boundary cells f0 has NumComponents entries and f1 NumComponents*Dim
(test function gradient terms). For cohesive cells the displacement
subfield covers both sides, negative then positive.
*/
type ResidualFn func(p *PointContext, f []float64)

/*
JacobianFn evaluates a pointwise Jacobian block into J. J0 is row-major
(test components x trial components); J3 couples test and trial gradients
and is indexed ((i*NcTrial+k)*Dim+j)*Dim+l.
*/
type JacobianFn func(p *PointContext, J []float64)

type ResidualKernel struct {
	Subfield string
	F0, F1   ResidualFn
}

type JacobianKernel struct {
	Subfield, TrialSubfield string
	J0, J3                  JacobianFn
}

/*
KernelSet is the frozen kernel configuration of an integrator. It is built
from the setter calls made before Initialize and never changes afterwards.
*/
type KernelSet struct {
	rhsResidual, lhsResidual []ResidualKernel
	rhsJacobian, lhsJacobian []JacobianKernel
}

func (ks KernelSet) RHSResidual() []ResidualKernel { return ks.rhsResidual }
func (ks KernelSet) LHSResidual() []ResidualKernel { return ks.lhsResidual }
func (ks KernelSet) RHSJacobian() []JacobianKernel { return ks.rhsJacobian }
func (ks KernelSet) LHSJacobian() []JacobianKernel { return ks.lhsJacobian }

// kernelConfig collects kernels before they are frozen.
type kernelConfig struct {
	rhsResidual, lhsResidual []ResidualKernel
	rhsJacobian, lhsJacobian []JacobianKernel
}

func (kc kernelConfig) freeze() KernelSet {
	return KernelSet{
		rhsResidual: append([]ResidualKernel(nil), kc.rhsResidual...),
		lhsResidual: append([]ResidualKernel(nil), kc.lhsResidual...),
		rhsJacobian: append([]JacobianKernel(nil), kc.rhsJacobian...),
		lhsJacobian: append([]JacobianKernel(nil), kc.lhsJacobian...),
	}
}
