package bc

import (
	"log"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
)

// TractionNames lists the traction amplitude names in boundary-local
// components (tangential..., normal).
func TractionNames(dim int) []string {
	if dim == 2 {
		return []string{"initial_amplitude_tangential", "initial_amplitude_normal"}
	}
	return []string{"initial_amplitude_tangential_1", "initial_amplitude_tangential_2", "initial_amplitude_normal"}
}

/*
NeumannTraction applies a traction on the boundary faces of a label. The
traction is given in the local boundary frame and is constant in time; it
enters the RHS residual only.
*/
type NeumannTraction struct {
	feassemble.IntegratorBoundary
	DB    spatialdb.Database
	Scale float64 // Multiplies the database values, 1 when zero
}

func NewNeumannTraction(mesh *topology.Mesh, label string, value int) (nt *NeumannTraction, err error) {
	nt = &NeumannTraction{
		IntegratorBoundary: *feassemble.NewIntegratorBoundary(mesh),
	}
	nt.LabelValue = value
	if err = nt.SetMarkerLabel(label); err != nil {
		return nil, err
	}
	return
}

func (nt *NeumannTraction) Initialize(solution *topology.Field) (err error) {
	nt.AuxNames = TractionNames(nt.Mesh.Dim)
	nt.AuxDB = nt.DB
	if nt.Scale == 0 {
		nt.Scale = 1
	}
	if err = nt.SetKernelsRHSResidual([]feassemble.ResidualKernel{
		{Subfield: topology.DisplacementName, F0: nt.g0u},
	}); err != nil {
		return
	}
	if err = nt.IntegratorBoundary.Initialize(solution); err != nil {
		return
	}
	log.Printf("boundary %s: Neumann traction on %d faces\n", nt.Surface, nt.Assembler.Stratum.Len())
	return
}

func (nt *NeumannTraction) g0u(p *feassemble.PointContext, f []float64) {
	local := make([]float64, p.Dim)
	for i := range local {
		local[i] = nt.Scale * p.Aux[i]
	}
	copy(f, p.Frame.ToGlobal(local))
}
