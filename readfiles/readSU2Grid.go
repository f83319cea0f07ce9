package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
	ELType_Tetrahedral   SU2ElementType = 10
	ELType_Hexahedral    SU2ElementType = 12
	ELType_Prism         SU2ElementType = 13
	ELType_Pyramid       SU2ElementType = 14
)

var su2CellTypes = map[SU2ElementType]types.CellType{
	ELType_LINE:          types.Cell_Line2,
	ELType_Triangle:      types.Cell_Tri3,
	ELType_Quadrilateral: types.Cell_Quad4,
	ELType_Tetrahedral:   types.Cell_Tet4,
	ELType_Hexahedral:    types.Cell_Hex8,
}

/*
ReadSU2 reads an SU2 mesh. Volume elements get material id 1; every marker
becomes a label of the same name with value 1 whose cells are the marker
faces, numbered after the volume elements. SU2 has no cohesive cells, so
faults need the YAML mesh format.
*/
func ReadSU2(filename string, verbose bool) (m *topology.Mesh, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	return ParseSU2(bufio.NewReader(file), verbose)
}

func ParseSU2(reader *bufio.Reader, verbose bool) (m *topology.Mesh, err error) {
	var (
		dim     int
		cells   []topology.Cell
		coords  [][]float64
		markers []marker
	)
	if dim, err = readNumber(reader); err != nil {
		return
	}
	if verbose {
		fmt.Printf("Read file with %d dimensional data...\n", dim)
	}
	if cells, err = readElements(reader); err != nil {
		return
	}
	if coords, err = readVertices(reader, dim); err != nil {
		return
	}
	if markers, err = readBCs(reader); err != nil {
		return
	}
	var (
		nVolume = len(cells)
		volume  = make([]int, nVolume)
	)
	for k := range volume {
		volume[k] = k
	}
	for _, mk := range markers {
		cells = append(cells, mk.cells...)
	}
	if m, err = topology.NewMesh(dim, coords, cells); err != nil {
		return nil, err
	}
	if err = m.AddLabel(feassemble.MaterialLabel, 1, volume); err != nil {
		return nil, err
	}
	start := nVolume
	for _, mk := range markers {
		ids := make([]int, len(mk.cells))
		for i := range ids {
			ids[i] = start + i
		}
		start += len(ids)
		if err = m.AddLabel(mk.name, 1, ids); err != nil {
			return nil, err
		}
	}
	return
}

type marker struct {
	name  string
	cells []topology.Cell
}

func readBCs(reader *bufio.Reader) (markers []marker, err error) {
	var (
		nBCs int
		seen = make(map[string]bool)
	)
	if nBCs, err = readNumber(reader); err != nil {
		return
	}
	for n := 0; n < nBCs; n++ {
		var (
			mk     marker
			nFaces int
		)
		if mk.name, err = readLabel(reader); err != nil {
			return
		}
		if seen[mk.name] {
			return nil, fmt.Errorf("duplicate boundary condition found with label: [%s]", mk.name)
		}
		seen[mk.name] = true
		if nFaces, err = readNumber(reader); err != nil {
			return
		}
		for i := 0; i < nFaces; i++ {
			var cell topology.Cell
			if cell, err = readCell(reader); err != nil {
				return
			}
			mk.cells = append(mk.cells, cell)
		}
		markers = append(markers, mk)
	}
	return
}

func readVertices(reader *bufio.Reader, dim int) (coords [][]float64, err error) {
	var (
		nv   int
		line string
	)
	if nv, err = readNumber(reader); err != nil {
		return
	}
	coords = make([][]float64, nv)
	for i := 0; i < nv; i++ {
		if line, err = getLineNoComments(reader); err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < dim {
			return nil, fmt.Errorf("unable to read coordinates from [%s]", line)
		}
		coords[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			if coords[i][d], err = strconv.ParseFloat(fields[d], 64); err != nil {
				return nil, fmt.Errorf("unable to read coordinates from [%s]: %w", line, err)
			}
		}
	}
	return
}

func readElements(reader *bufio.Reader) (cells []topology.Cell, err error) {
	var (
		K int
	)
	if K, err = readNumber(reader); err != nil {
		return
	}
	cells = make([]topology.Cell, K)
	for k := 0; k < K; k++ {
		if cells[k], err = readCell(reader); err != nil {
			return
		}
	}
	return
}

// readCell reads "type v1 v2 ... [index]".
func readCell(reader *bufio.Reader) (cell topology.Cell, err error) {
	var (
		line   string
		fields []string
		nType  int
		ok     bool
	)
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	if fields = strings.Fields(line); len(fields) == 0 {
		err = fmt.Errorf("empty element line")
		return
	}
	if nType, err = strconv.Atoi(fields[0]); err != nil {
		return
	}
	if cell.Type, ok = su2CellTypes[SU2ElementType(nType)]; !ok {
		err = fmt.Errorf("unable to deal with SU2 element type %d", nType)
		return
	}
	nv := cell.Type.NumVertices()
	if len(fields) < nv+1 {
		err = fmt.Errorf("unable to read vertices from [%s]", line)
		return
	}
	cell.Vertices = make([]int, nv)
	for i := 0; i < nv; i++ {
		if cell.Vertices[i], err = strconv.Atoi(fields[i+1]); err != nil {
			return
		}
	}
	return
}

func getToken(reader *bufio.Reader) (token string, err error) {
	var (
		line string
	)
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		err = fmt.Errorf("badly formed input line [%s], should have an =", line)
		return
	}
	token = line[ind+1:]
	return
}

func readLabel(reader *bufio.Reader) (label string, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if label = strings.TrimSpace(token); len(label) == 0 {
		err = fmt.Errorf("unable to read label from token: [%s]", token)
	}
	return
}

func readNumber(reader *bufio.Reader) (num int, err error) {
	var (
		token string
	)
	if token, err = getToken(reader); err != nil {
		return
	}
	if num, err = strconv.Atoi(strings.TrimSpace(token)); err != nil {
		err = fmt.Errorf("unable to read number from token: [%s]", token)
	}
	return
}

func getLineNoComments(reader *bufio.Reader) (line string, err error) {
	for {
		if line, err = getLine(reader); err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if len(line) != 0 && !strings.HasPrefix(line, "%") {
			return
		}
	}
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err == io.EOF {
		err = fmt.Errorf("early end of file")
	}
	line = strings.TrimRight(line, "\r\n")
	return
}
