package types

import (
	"fmt"
	"strings"
)

type CellType uint8

const (
	Cell_None CellType = iota
	Cell_Line2
	Cell_Tri3
	Cell_Quad4
	Cell_Tet4
	Cell_Hex8
	Cell_CohesiveLine2 // Line2 faces, 2 negative + 2 positive + 2 Lagrange vertices
	Cell_CohesiveTri3
	Cell_CohesiveQuad4
)

var CellNameMap = map[string]CellType{
	"line2":          Cell_Line2,
	"tri3":           Cell_Tri3,
	"quad4":          Cell_Quad4,
	"tet4":           Cell_Tet4,
	"hex8":           Cell_Hex8,
	"cohesive_line2": Cell_CohesiveLine2,
	"cohesive_tri3":  Cell_CohesiveTri3,
	"cohesive_quad4": Cell_CohesiveQuad4,
}

func NewCellType(label string) (ct CellType, err error) {
	var ok bool
	if ct, ok = CellNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unknown cell type %q", label)
	}
	return
}

func (ct CellType) String() string {
	for name, c := range CellNameMap {
		if c == ct {
			return name
		}
	}
	return "none"
}

func (ct CellType) IsCohesive() bool {
	return ct >= Cell_CohesiveLine2 && ct <= Cell_CohesiveQuad4
}

// FaceType returns the face cell type of a cohesive cell, or the cell itself.
func (ct CellType) FaceType() CellType {
	switch ct {
	case Cell_CohesiveLine2:
		return Cell_Line2
	case Cell_CohesiveTri3:
		return Cell_Tri3
	case Cell_CohesiveQuad4:
		return Cell_Quad4
	}
	return ct
}

// Dimension is the topological dimension of the cell.
func (ct CellType) Dimension() int {
	switch ct {
	case Cell_Line2, Cell_CohesiveLine2:
		return 1
	case Cell_Tri3, Cell_Quad4, Cell_CohesiveTri3, Cell_CohesiveQuad4:
		return 2
	case Cell_Tet4, Cell_Hex8:
		return 3
	}
	return 0
}

// NumVertices includes the Lagrange vertices for cohesive cells.
func (ct CellType) NumVertices() int {
	switch ct {
	case Cell_Line2:
		return 2
	case Cell_Tri3:
		return 3
	case Cell_Quad4, Cell_Tet4:
		return 4
	case Cell_Hex8:
		return 8
	case Cell_CohesiveLine2:
		return 6
	case Cell_CohesiveTri3:
		return 9
	case Cell_CohesiveQuad4:
		return 12
	}
	return 0
}

/*
SurfaceID identifies a labeled set of cells (a boundary, a material or a fault).
It is resolved once against the mesh during setup; Name is kept for display.
*/
type SurfaceID struct {
	Name  string
	Value int
}

func (sid SurfaceID) String() string {
	return fmt.Sprintf("%s[%d]", sid.Name, sid.Value)
}

func (sid SurfaceID) IsZero() bool {
	return len(sid.Name) == 0
}

type Formulation uint8

const (
	Formulation_Implicit Formulation = iota
	Formulation_Explicit
)

var FormulationNameMap = map[string]Formulation{
	"implicit": Formulation_Implicit,
	"explicit": Formulation_Explicit,
}

func NewFormulation(label string) (f Formulation, err error) {
	var ok bool
	if len(label) == 0 {
		return Formulation_Implicit, nil
	}
	if f, ok = FormulationNameMap[strings.ToLower(label)]; !ok {
		err = fmt.Errorf("unknown formulation %q", label)
	}
	return
}

func (f Formulation) String() string {
	switch f {
	case Formulation_Explicit:
		return "explicit"
	}
	return "implicit"
}
