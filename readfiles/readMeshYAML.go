package readfiles

import (
	"fmt"
	"os"

	"github.com/ghodss/yaml"

	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
)

type CellSpec struct {
	Type     string `json:"type"`
	Vertices []int  `json:"vertices"`
}

type LabelSpec struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Cells []int  `json:"cells"`
}

/*
MeshSpec is the YAML mesh format. Cohesive cells list the negative face,
then the positive face, then the Lagrange multiplier vertices:

	dimension: 2
	coordinates: [[0, 0], [1, 0], ...]
	cells:
	  - {type: quad4, vertices: [0, 1, 2, 3]}
	  - {type: cohesive_line2, vertices: [1, 2, 4, 7, 8, 9]}
	labels:
	  - {name: material-id, value: 1, cells: [0, 1]}
	  - {name: fault, value: 10, cells: [2]}
*/
type MeshSpec struct {
	Dimension   int         `json:"dimension"`
	Coordinates [][]float64 `json:"coordinates"`
	Cells       []CellSpec  `json:"cells"`
	Labels      []LabelSpec `json:"labels"`
}

func (ms *MeshSpec) Build() (m *topology.Mesh, err error) {
	var (
		cells = make([]topology.Cell, len(ms.Cells))
	)
	for c, cs := range ms.Cells {
		if cells[c].Type, err = types.NewCellType(cs.Type); err != nil {
			return nil, fmt.Errorf("cell %d: %w", c, err)
		}
		cells[c].Vertices = cs.Vertices
	}
	if m, err = topology.NewMesh(ms.Dimension, ms.Coordinates, cells); err != nil {
		return nil, err
	}
	for _, ls := range ms.Labels {
		if err = m.AddLabel(ls.Name, ls.Value, ls.Cells); err != nil {
			return nil, err
		}
	}
	return
}

func ParseMesh(data []byte) (m *topology.Mesh, err error) {
	var (
		ms MeshSpec
	)
	if err = yaml.Unmarshal(data, &ms); err != nil {
		return nil, fmt.Errorf("unable to parse mesh: %w", err)
	}
	return ms.Build()
}

func ReadMesh(filename string) (m *topology.Mesh, err error) {
	var (
		data []byte
	)
	if data, err = os.ReadFile(filename); err != nil {
		return nil, err
	}
	if m, err = ParseMesh(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return
}
