package bc

import (
	"fmt"
	"log"
	"sort"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

var (
	componentNames = []string{"x", "y", "z"}
)

func amplitudeNames(prefix string, comps []int) (names []string) {
	for _, c := range comps {
		names = append(names, prefix+"_"+componentNames[c])
	}
	return
}

/*
Dirichlet prescribes displacement components on the vertices of a label:
u = initial + rate * t, with amplitudes in global components from DB
(initial_amplitude_x, rate_amplitude_x, ...). Without a database every
constrained component is held at zero.
*/
type Dirichlet struct {
	Mesh       *topology.Mesh
	LabelValue int
	Components []int // All components when empty
	DB         spatialdb.Database
	UseRate    bool
	Surface    types.SurfaceID

	label      string
	vertices   []int
	indices    []int
	initial    []float64 // Per constrained DOF
	rate       []float64
	initialize bool
}

func NewDirichlet(mesh *topology.Mesh, label string, value int) (d *Dirichlet, err error) {
	d = &Dirichlet{Mesh: mesh, LabelValue: value}
	if err = d.SetMarkerLabel(label); err != nil {
		return nil, err
	}
	return
}

func (d *Dirichlet) SetMarkerLabel(label string) error {
	if len(label) == 0 {
		return fmt.Errorf("%w: empty string given for Dirichlet boundary condition label", feassemble.ErrInvalidConfiguration)
	}
	d.label = label
	return nil
}

func (d *Dirichlet) GetMarkerLabel() string { return d.label }

func (d *Dirichlet) Initialize(solution *topology.Field) (err error) {
	var (
		stratum topology.Stratum
		dim     = d.Mesh.Dim
		names   []string
	)
	if d.Surface, err = d.Mesh.ResolveSurface(d.label, d.LabelValue); err != nil {
		return fmt.Errorf("%w: %v", feassemble.ErrInvalidConfiguration, err)
	}
	if stratum, err = d.Mesh.Stratum(d.Surface.Name, d.Surface.Value); err != nil {
		return
	}
	if len(d.Components) == 0 {
		for i := 0; i < dim; i++ {
			d.Components = append(d.Components, i)
		}
	}
	sort.Ints(d.Components)
	for _, c := range d.Components {
		if c < 0 || c >= dim {
			return fmt.Errorf("%w: boundary %s: component %d in %d dimensions",
				feassemble.ErrInvalidConfiguration, d.Surface, c, dim)
		}
	}
	d.vertices = d.Mesh.StratumVertices(stratum)
	d.indices = d.indices[:0]
	d.initial, d.rate = d.initial[:0], d.rate[:0]
	names = amplitudeNames("initial_amplitude", d.Components)
	if d.UseRate {
		names = append(names, amplitudeNames("rate_amplitude", d.Components)...)
	}
	for _, v := range d.vertices {
		var (
			vals = make([]float64, len(names))
			off  = solution.PointOffset(v)
		)
		if solution.PointDOF(v) != dim {
			return fmt.Errorf("%w: boundary %s: vertex %d carries no displacement",
				feassemble.ErrInvalidConfiguration, d.Surface, v)
		}
		if d.DB != nil {
			if vals, err = d.DB.Query(names, d.Mesh.Coordinates[v]); err != nil {
				return fmt.Errorf("boundary %s: %w", d.Surface, err)
			}
		}
		for k, c := range d.Components {
			d.indices = append(d.indices, off+c)
			d.initial = append(d.initial, vals[k])
			if d.UseRate {
				d.rate = append(d.rate, vals[len(d.Components)+k])
			} else {
				d.rate = append(d.rate, 0)
			}
		}
	}
	d.initialize = true
	log.Printf("boundary %s: Dirichlet on %d vertices, components %v\n", d.Surface, len(d.vertices), d.Components)
	return
}

// Indices lists the constrained degrees of freedom.
func (d *Dirichlet) Indices() []int { return d.indices }

// SetSolution writes the prescribed values at time t into solution.
func (d *Dirichlet) SetSolution(solution *topology.Field, t float64) {
	for k, i := range d.indices {
		solution.Values[i] = d.initial[k] + d.rate[k]*t
	}
}

// ZeroRows zeroes the constrained entries of a residual or increment.
func (d *Dirichlet) ZeroRows(v []float64) {
	for _, i := range d.indices {
		v[i] = 0
	}
}

// ConstrainJacobian replaces constrained rows with identity rows.
func (d *Dirichlet) ConstrainJacobian(J *utils.DOK) {
	for _, i := range d.indices {
		J.ZeroRow(i, 1)
	}
}

func (d *Dirichlet) Initialized() bool { return d.initialize }
