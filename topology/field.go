package topology

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

const (
	DisplacementName = "displacement"
	LagrangeName     = "lagrange_multiplier_fault"
)

type Subfield struct {
	Name          string
	Index         int
	NumComponents int
}

/*
Field is a vertex-based field made of named subfields. Every vertex carries
the components of exactly one subfield, or none.
*/
type Field struct {
	Name          string
	Subfields     []Subfield
	Values        []float64
	pointSubfield []int
	offsets       []int
}

func NewField(name string, subfields []Subfield, pointSubfield []int) (f *Field, err error) {
	f = &Field{
		Name:          name,
		Subfields:     make([]Subfield, len(subfields)),
		pointSubfield: make([]int, len(pointSubfield)),
		offsets:       make([]int, len(pointSubfield)+1),
	}
	for i, sf := range subfields {
		sf.Index = i
		if sf.NumComponents < 1 {
			return nil, fmt.Errorf("subfield %q has %d components", sf.Name, sf.NumComponents)
		}
		f.Subfields[i] = sf
	}
	for v, sfi := range pointSubfield {
		f.pointSubfield[v] = sfi
		f.offsets[v+1] = f.offsets[v]
		if sfi < 0 {
			continue
		}
		if sfi >= len(subfields) {
			return nil, fmt.Errorf("vertex %d assigned to subfield %d, field has %d", v, sfi, len(subfields))
		}
		f.offsets[v+1] += subfields[sfi].NumComponents
	}
	f.Values = make([]float64, f.offsets[len(pointSubfield)])
	return
}

// NewSolutionField lays out displacement on ordinary vertices and the fault
// Lagrange multiplier on cohesive Lagrange vertices.
func NewSolutionField(m *Mesh) (f *Field, err error) {
	var (
		pointSubfield = make([]int, m.NumVertices())
		subfields     = []Subfield{{Name: DisplacementName, NumComponents: m.Dim}}
		lagrange      = m.LagrangeVertices()
	)
	if len(lagrange) != 0 {
		subfields = append(subfields, Subfield{Name: LagrangeName, NumComponents: m.Dim})
		for _, v := range lagrange {
			pointSubfield[v] = 1
		}
	}
	return NewField("solution", subfields, pointSubfield)
}

func (f *Field) Len() int { return len(f.Values) }

func (f *Field) NumPoints() int { return len(f.pointSubfield) }

func (f *Field) SubfieldIndex(name string) (int, error) {
	for _, sf := range f.Subfields {
		if sf.Name == name {
			return sf.Index, nil
		}
	}
	return -1, fmt.Errorf("field %q has no subfield %q", f.Name, name)
}

func (f *Field) PointSubfield(v int) int { return f.pointSubfield[v] }

func (f *Field) PointOffset(v int) int { return f.offsets[v] }

func (f *Field) PointDOF(v int) int { return f.offsets[v+1] - f.offsets[v] }

// PointValues is a view into the values of vertex v.
func (f *Field) PointValues(v int) []float64 {
	return f.Values[f.offsets[v]:f.offsets[v+1]]
}

// Restrict gathers the values of the given vertices, concatenated.
func (f *Field) Restrict(verts []int) (vals []float64) {
	for _, v := range verts {
		vals = append(vals, f.PointValues(v)...)
	}
	return
}

// Indices returns the global DOF indices of the given vertices, concatenated.
func (f *Field) Indices(verts []int) (ind []int) {
	for _, v := range verts {
		for i := f.offsets[v]; i < f.offsets[v+1]; i++ {
			ind = append(ind, i)
		}
	}
	return
}

// CloneLayout returns a zeroed field with the same layout.
func (f *Field) CloneLayout(name string) *Field {
	return &Field{
		Name:          name,
		Subfields:     f.Subfields,
		Values:        make([]float64, len(f.Values)),
		pointSubfield: f.pointSubfield,
		offsets:       f.offsets,
	}
}

func (f *Field) Clone() (c *Field) {
	c = f.CloneLayout(f.Name)
	copy(c.Values, f.Values)
	return
}

func (f *Field) Zero() {
	for i := range f.Values {
		f.Values[i] = 0
	}
}

// AddScaled computes f += alpha * g.
func (f *Field) AddScaled(alpha float64, g *Field) {
	floats.AddScaled(f.Values, alpha, g.Values)
}

func (f *Field) Norm() float64 {
	return floats.Norm(f.Values, 2)
}

func (f *Field) SameLayout(g *Field) bool {
	return g != nil && len(f.Values) == len(g.Values) && len(f.offsets) == len(g.offsets)
}
