package output

import (
	"fmt"
	"io"

	"github.com/notargets/gofault/faults"
	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/topology"
)

/*
FaultWriter writes a text table of the fault state after each step: for
every constrained vertex its coordinates, the slip and traction in local
components (tangential..., normal) and the contact state. The initial
notification writes the header only.
*/
type FaultWriter struct {
	W          io.Writer
	Label      string // Fault marker label, the first fault seen when empty
	EverySteps int    // Write every Nth step, every step when zero
	Fault      *faults.FaultCohesiveDyn
}

func NewFaultWriter(w io.Writer, label string) *FaultWriter {
	return &FaultWriter{W: w, Label: label}
}

func (fw *FaultWriter) SetPhysics(physics feassemble.Integrator) {
	fc, ok := physics.(*faults.FaultCohesiveDyn)
	if !ok || fw.Fault != nil {
		return
	}
	if len(fw.Label) == 0 || fc.GetMarkerLabel() == fw.Label {
		fw.Fault = fc
	}
}

func (fw *FaultWriter) Verify(solution *topology.Field) (err error) {
	if fw.Fault == nil {
		return fmt.Errorf("%w: no fault with label %q to write", feassemble.ErrInvalidConfiguration, fw.Label)
	}
	if _, err = solution.SubfieldIndex(topology.LagrangeName); err != nil {
		return fmt.Errorf("%w: %v", feassemble.ErrInvalidConfiguration, err)
	}
	return
}

func (fw *FaultWriter) Update(t float64, tindex int, solution *topology.Field, infoOnly bool) (err error) {
	var (
		fc = fw.Fault
	)
	if fc == nil {
		return fmt.Errorf("%w: fault writer has no fault", feassemble.ErrInvalidConfiguration)
	}
	if infoOnly {
		_, err = fmt.Fprintf(fw.W, "# fault %s: %d vertices, %s friction\n",
			fc.Surface, fc.Vertices.NumVertices(), fc.Friction.Name())
		return
	}
	if fw.EverySteps > 1 && tindex%fw.EverySteps != 0 {
		return
	}
	var (
		slip, traction = fc.VertexSlipTraction(solution)
		states         = fc.VertexStates()
	)
	if _, err = fmt.Fprintf(fw.W, "# step %d t = %.6e\n", tindex, t); err != nil {
		return
	}
	for i, v := range fc.Vertices.Vertices {
		for _, x := range fc.Mesh.Coordinates[v] {
			fmt.Fprintf(fw.W, "%12.5e ", x)
		}
		for _, s := range slip[i] {
			fmt.Fprintf(fw.W, "%13.6e ", s)
		}
		for _, tr := range traction[i] {
			fmt.Fprintf(fw.W, "%13.6e ", tr)
		}
		if _, err = fmt.Fprintf(fw.W, "%s\n", states[i]); err != nil {
			return
		}
	}
	return
}
