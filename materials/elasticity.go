package materials

import (
	"fmt"
	"log"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
)

const (
	Density = "density"
	Vs      = "vs"
	Vp      = "vp"
)

var (
	componentNames = []string{"x", "y", "z"}
)

func BodyForceNames(dim int) (names []string) {
	for i := 0; i < dim; i++ {
		names = append(names, "body_force_"+componentNames[i])
	}
	return
}

// tensorComponents lists the (i, j) entries of a symmetric tensor in the
// order reference values are stored.
func tensorComponents(dim int) [][2]int {
	if dim == 2 {
		return [][2]int{{0, 0}, {1, 1}, {0, 1}}
	}
	return [][2]int{{0, 0}, {1, 1}, {2, 2}, {0, 1}, {1, 2}, {0, 2}}
}

func ReferenceNames(prefix string, dim int) (names []string) {
	for _, ij := range tensorComponents(dim) {
		names = append(names, prefix+"_"+componentNames[ij[0]]+componentNames[ij[1]])
	}
	return
}

// LameParameters converts density and wave speeds to the shear modulus and
// Lame's first parameter.
func LameParameters(density, vs, vp float64) (mu, lambda float64) {
	mu = density * vs * vs
	lambda = density*vp*vp - 2*mu
	return
}

/*
IsotropicLinearElasticity is the quasi-static elasticity material: plane
strain in 2D, full 3D otherwise. The LHS residual is the stress divergence
term, the RHS residual the body force. With a reference state the stress is
sigma_ref + C:(eps - eps_ref).
*/
type IsotropicLinearElasticity struct {
	feassemble.IntegratorDomain
	DB                spatialdb.Database
	UseBodyForce      bool
	UseReferenceState bool

	iDensity, iVs, iVp int
	iBodyForce         int
	iRefStress         int
	iRefStrain         int
}

func NewIsotropicLinearElasticity(mesh *topology.Mesh, materialID int) *IsotropicLinearElasticity {
	return &IsotropicLinearElasticity{
		IntegratorDomain: *feassemble.NewIntegratorDomain(mesh, materialID),
	}
}

func (ile *IsotropicLinearElasticity) Initialize(solution *topology.Field) (err error) {
	var (
		dim   = ile.Mesh.Dim
		names = []string{Density, Vs, Vp}
	)
	ile.iDensity, ile.iVs, ile.iVp = 0, 1, 2
	if ile.UseBodyForce {
		ile.iBodyForce = len(names)
		names = append(names, BodyForceNames(dim)...)
	}
	if ile.UseReferenceState {
		ile.iRefStress = len(names)
		names = append(names, ReferenceNames("reference_stress", dim)...)
		ile.iRefStrain = len(names)
		names = append(names, ReferenceNames("reference_strain", dim)...)
	}
	ile.AuxNames = names
	ile.AuxDB = ile.DB
	if err = ile.SetKernelsLHSResidual([]feassemble.ResidualKernel{
		{Subfield: topology.DisplacementName, F1: ile.f1u},
	}); err != nil {
		return
	}
	if err = ile.SetKernelsLHSJacobian([]feassemble.JacobianKernel{
		{Subfield: topology.DisplacementName, TrialSubfield: topology.DisplacementName, J3: ile.jf3uu},
	}); err != nil {
		return
	}
	if ile.UseBodyForce {
		if err = ile.SetKernelsRHSResidual([]feassemble.ResidualKernel{
			{Subfield: topology.DisplacementName, F0: ile.g0u},
		}); err != nil {
			return
		}
	}
	if err = ile.IntegratorDomain.Initialize(solution); err != nil {
		return
	}
	for c := range ile.Aux.Values {
		for q, aux := range ile.Aux.Values[c] {
			mu, lambda := LameParameters(aux[ile.iDensity], aux[ile.iVs], aux[ile.iVp])
			if aux[ile.iDensity] <= 0 || mu <= 0 || lambda+2*mu/float64(dim) <= 0 {
				return fmt.Errorf("%w: material %d: cell %d point %d: density %g, vs %g, vp %g are not physical",
					feassemble.ErrInvalidConfiguration, ile.MaterialID, ile.Stratum.Start+c, q,
					aux[ile.iDensity], aux[ile.iVs], aux[ile.iVp])
			}
		}
	}
	log.Printf("material %d: isotropic linear elasticity on %d cells, body force %v, reference state %v\n",
		ile.MaterialID, ile.Stratum.Len(), ile.UseBodyForce, ile.UseReferenceState)
	return
}

func (ile *IsotropicLinearElasticity) moduli(aux []float64) (mu, lambda float64) {
	return LameParameters(aux[ile.iDensity], aux[ile.iVs], aux[ile.iVp])
}

// Stress returns the stress tensor (row-major, dim x dim) for the
// displacement gradient grad, with grad[i*dim+j] = du_i/dx_j.
func (ile *IsotropicLinearElasticity) Stress(aux, grad []float64, dim int) (stress []float64) {
	var (
		mu, lambda = ile.moduli(aux)
		strain     = make([]float64, dim*dim)
		trace      float64
	)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			strain[i*dim+j] = 0.5 * (grad[i*dim+j] + grad[j*dim+i])
		}
	}
	if ile.UseReferenceState {
		for k, ij := range tensorComponents(dim) {
			i, j := ij[0], ij[1]
			strain[i*dim+j] -= aux[ile.iRefStrain+k]
			if i != j {
				strain[j*dim+i] -= aux[ile.iRefStrain+k]
			}
		}
	}
	for i := 0; i < dim; i++ {
		trace += strain[i*dim+i]
	}
	stress = make([]float64, dim*dim)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			stress[i*dim+j] = 2 * mu * strain[i*dim+j]
		}
		stress[i*dim+i] += lambda * trace
	}
	if ile.UseReferenceState {
		for k, ij := range tensorComponents(dim) {
			i, j := ij[0], ij[1]
			stress[i*dim+j] += aux[ile.iRefStress+k]
			if i != j {
				stress[j*dim+i] += aux[ile.iRefStress+k]
			}
		}
	}
	return
}

func (ile *IsotropicLinearElasticity) f1u(p *feassemble.PointContext, f []float64) {
	copy(f, ile.Stress(p.Aux, p.SGrad, p.Dim))
}

// jf3uu is the elasticity tensor C_ijkl = lambda d_ij d_kl + mu (d_ik d_jl + d_il d_jk).
func (ile *IsotropicLinearElasticity) jf3uu(p *feassemble.PointContext, J []float64) {
	var (
		dim        = p.Dim
		mu, lambda = ile.moduli(p.Aux)
	)
	for i := 0; i < dim; i++ {
		for k := 0; k < dim; k++ {
			for j := 0; j < dim; j++ {
				for l := 0; l < dim; l++ {
					var c float64
					if i == j && k == l {
						c += lambda
					}
					if i == k && j == l {
						c += mu
					}
					if i == l && j == k {
						c += mu
					}
					J[((i*dim+k)*dim+j)*dim+l] = c
				}
			}
		}
	}
}

func (ile *IsotropicLinearElasticity) g0u(p *feassemble.PointContext, f []float64) {
	copy(f, p.Aux[ile.iBodyForce:ile.iBodyForce+p.Dim])
}
