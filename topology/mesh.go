package topology

import (
	"fmt"
	"sort"

	"github.com/notargets/gofault/types"
)

type Cell struct {
	Type     types.CellType
	Vertices []int // Cohesive cells: negative face, positive face, Lagrange vertices
}

// CohesiveVertices splits the vertices of a cohesive cell into its three faces.
func (c Cell) CohesiveVertices() (neg, pos, lagrange []int) {
	var (
		nf = len(c.Vertices) / 3
	)
	neg, pos, lagrange = c.Vertices[:nf], c.Vertices[nf:2*nf], c.Vertices[2*nf:]
	return
}

type Stratum struct {
	Start, End int // Cell range [Start, End)
}

func (s Stratum) Len() int { return s.End - s.Start }

type Label struct {
	Name   string
	Values map[int][]int // Label value -> sorted cell indices
}

/*
Mesh is an unstructured mesh with cohesive cells already inserted. Cells
carrying the same label value must be numbered contiguously.
*/
type Mesh struct {
	Dim         int
	Coordinates [][]float64
	Cells       []Cell
	Labels      map[string]*Label
}

func NewMesh(dim int, coords [][]float64, cells []Cell) (m *Mesh, err error) {
	if dim != 2 && dim != 3 {
		err = fmt.Errorf("mesh dimension must be 2 or 3, have %d", dim)
		return
	}
	for v, x := range coords {
		if len(x) != dim {
			err = fmt.Errorf("vertex %d has %d coordinates, mesh dimension is %d", v, len(x), dim)
			return
		}
	}
	for c, cell := range cells {
		if nv := cell.Type.NumVertices(); nv != len(cell.Vertices) {
			err = fmt.Errorf("cell %d of type %s has %d vertices, want %d", c, cell.Type, len(cell.Vertices), nv)
			return
		}
		for _, v := range cell.Vertices {
			if v < 0 || v >= len(coords) {
				err = fmt.Errorf("cell %d references vertex %d, mesh has %d vertices", c, v, len(coords))
				return
			}
		}
	}
	m = &Mesh{
		Dim:         dim,
		Coordinates: coords,
		Cells:       cells,
		Labels:      make(map[string]*Label),
	}
	return
}

func (m *Mesh) NumVertices() int { return len(m.Coordinates) }

func (m *Mesh) AddLabel(name string, value int, cells []int) (err error) {
	if len(name) == 0 {
		return fmt.Errorf("empty label name")
	}
	for _, c := range cells {
		if c < 0 || c >= len(m.Cells) {
			return fmt.Errorf("label %s[%d] references cell %d, mesh has %d cells", name, value, c, len(m.Cells))
		}
	}
	lbl, ok := m.Labels[name]
	if !ok {
		lbl = &Label{Name: name, Values: make(map[int][]int)}
		m.Labels[name] = lbl
	}
	merged := append(lbl.Values[value], cells...)
	sort.Ints(merged)
	lbl.Values[value] = dedupe(merged)
	return
}

// Stratum returns the contiguous cell range carrying label name = value.
func (m *Mesh) Stratum(name string, value int) (s Stratum, err error) {
	var (
		lbl   *Label
		cells []int
		ok    bool
	)
	if lbl, ok = m.Labels[name]; !ok {
		err = fmt.Errorf("mesh has no label %q", name)
		return
	}
	if cells, ok = lbl.Values[value]; !ok || len(cells) == 0 {
		err = fmt.Errorf("label %q has no cells with value %d", name, value)
		return
	}
	s = Stratum{Start: cells[0], End: cells[len(cells)-1] + 1}
	if s.Len() != len(cells) {
		err = fmt.Errorf("cells of label %s[%d] are not numbered contiguously", name, value)
	}
	return
}

// ResolveSurface checks that name = value labels a stratum and returns its id.
func (m *Mesh) ResolveSurface(name string, value int) (sid types.SurfaceID, err error) {
	if _, err = m.Stratum(name, value); err != nil {
		return
	}
	sid = types.SurfaceID{Name: name, Value: value}
	return
}

func (m *Mesh) CellCoordinates(c int) (coords [][]float64) {
	verts := m.Cells[c].Vertices
	coords = make([][]float64, len(verts))
	for i, v := range verts {
		coords[i] = m.Coordinates[v]
	}
	return
}

// StratumVertices returns the sorted vertices of the cells in a stratum.
func (m *Mesh) StratumVertices(s Stratum) (verts []int) {
	for c := s.Start; c < s.End; c++ {
		verts = append(verts, m.Cells[c].Vertices...)
	}
	sort.Ints(verts)
	return dedupe(verts)
}

// LagrangeVertices returns the Lagrange multiplier vertices of all cohesive cells.
func (m *Mesh) LagrangeVertices() (verts []int) {
	for _, cell := range m.Cells {
		if cell.Type.IsCohesive() {
			_, _, lagrange := cell.CohesiveVertices()
			verts = append(verts, lagrange...)
		}
	}
	sort.Ints(verts)
	return dedupe(verts)
}

// SetCoordinates replaces vertex coordinates. Geometry derived from the old
// coordinates is not updated.
func (m *Mesh) SetCoordinates(coords [][]float64) (err error) {
	if len(coords) != len(m.Coordinates) {
		return fmt.Errorf("have %d coordinates, mesh has %d vertices", len(coords), len(m.Coordinates))
	}
	m.Coordinates = coords
	return
}

func dedupe(sorted []int) (out []int) {
	out = sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return
}
