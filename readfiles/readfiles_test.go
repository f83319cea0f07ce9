package readfiles

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/types"
)

func TestReadSU2(t *testing.T) {
	{ // Test reading the file structure
		reader := bufio.NewReader(bytes.NewReader(inputFile))
		dim, err := readNumber(reader)
		require.NoError(t, err)
		assert.Equal(t, 2, dim)
		cells, err := readElements(reader)
		require.NoError(t, err)
		assert.Equal(t, 22, len(cells))
		assert.Equal(t, []int{15, 11, 17}, cells[21].Vertices)
		coords, err := readVertices(reader, dim)
		require.NoError(t, err)
		assert.Equal(t, 18, len(coords))
		assert.Equal(t, []float64{-7.100939331382065, 2.889910324036197}, coords[17])
		markers, err := readBCs(reader)
		require.NoError(t, err)
		labels := []string{"periodic-left", "periodic-right", "top", "bottom"}
		nptsBC := []int{2, 2, 4, 4}
		require.Len(t, markers, 4)
		for n, mk := range markers {
			assert.Equal(t, labels[n], mk.name)
			assert.Equal(t, nptsBC[n], len(mk.cells))
			assert.Equal(t, types.Cell_Line2, mk.cells[0].Type)
		}
	}
	{ // Markers become labels numbered after the volume cells
		m, err := ParseSU2(bufio.NewReader(bytes.NewReader(inputFile)), false)
		require.NoError(t, err)
		assert.Equal(t, 22+12, len(m.Cells))
		s, err := m.Stratum(feassemble.MaterialLabel, 1)
		require.NoError(t, err)
		assert.Equal(t, 22, s.Len())
		s, err = m.Stratum("top", 1)
		require.NoError(t, err)
		assert.Equal(t, 26, s.Start)
		assert.Equal(t, 30, s.End)
		assert.Equal(t, []int{2, 8}, m.Cells[s.Start].Vertices)
	}
	{ // Malformed input
		_, err := ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME= 2\nNELEM= 1\n7 0 1 2\n"))), false)
		assert.Error(t, err)
		_, err = ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME= 2\nNELEM= 2\n5 0 1 2\n"))), false)
		assert.Error(t, err)
		_, err = ParseSU2(bufio.NewReader(bytes.NewReader([]byte("NDIME 2\n"))), false)
		assert.Error(t, err)
	}
}

func TestParseMesh(t *testing.T) {
	{
		m, err := ParseMesh(faultMeshYAML)
		require.NoError(t, err)
		assert.Equal(t, 2, m.Dim)
		assert.Equal(t, types.Cell_CohesiveLine2, m.Cells[2].Type)
		neg, pos, lagrange := m.Cells[2].CohesiveVertices()
		assert.Equal(t, []int{1, 2}, neg)
		assert.Equal(t, []int{4, 7}, pos)
		assert.Equal(t, []int{8, 9}, lagrange)
		sid, err := m.ResolveSurface("fault", 10)
		require.NoError(t, err)
		assert.Equal(t, "fault[10]", sid.String())
	}
	{
		_, err := ParseMesh([]byte("dimension: 2\ncells:\n  - {type: pentagon, vertices: [0]}\n"))
		assert.Error(t, err)
		_, err = ParseMesh([]byte("dimension: [2"))
		assert.Error(t, err)
	}
}

var faultMeshYAML = []byte(`
dimension: 2
coordinates:
  - [0, 0]
  - [1, 0]
  - [1, 1]
  - [0, 1]
  - [1, 0]
  - [2, 0]
  - [2, 1]
  - [1, 1]
  - [1, 0]
  - [1, 1]
cells:
  - {type: quad4, vertices: [0, 1, 2, 3]}
  - {type: quad4, vertices: [4, 5, 6, 7]}
  - {type: cohesive_line2, vertices: [1, 2, 4, 7, 8, 9]}
labels:
  - {name: material-id, value: 1, cells: [0, 1]}
  - {name: fault, value: 10, cells: [2]}
`)

var (
	inputFile = []byte(` %This is an example input file in SU2 format, output from gmsh
% Comments can appear outside of data areas
NDIME= 2
% Comments can appear outside of data areas
NELEM= 22
5 5 6 13 0
5 9 10 12 1
5 12 5 13 2
5 9 12 13 3
5 13 6 14 4
5 12 10 15 5
5 8 9 13 6
5 4 5 12 7
5 1 7 14 8
5 6 1 14 9
5 3 11 15 10
5 10 3 15 11
5 8 13 16 12
5 4 12 17 13
5 13 14 16 14
5 12 15 17 15
5 7 2 16 16
5 11 0 17 17
5 2 8 16 18
5 0 4 17 19
5 14 7 16 20
5 15 11 17 21
% Comments can appear outside of data areas
NPOIN= 18
-10 0 0
10 0 1
10 10 2
-10 10 3
-5.000000000004944 0 4
-1.231725832440134e-11 0 5
4.99999999999384 0 6
10 4.999999999992398 7
5.000000000004944 10 8
1.231725832440134e-11 10 9
-4.99999999999384 10 10
-10 5 11
-2.500000000008632 4.330127018915808 12
2.50000000000863 5.669872981084192 13
6.712741669205853 3.668411415814691 14
-6.712741669205681 6.331588584184096 15
7.100939331384343 7.110089675963254 16
-7.100939331382065 2.889910324036197 17
NMARK= 4
% Comments can appear outside of data areas
MARKER_TAG= periodic-left
% Comments can appear outside of data areas
MARKER_ELEMS= 2
3 3 11
3 11 0
% Comments can appear outside of data areas
MARKER_TAG= periodic-right
MARKER_ELEMS= 2
3 1 7
3 7 2
% Comments can appear outside of data areas
MARKER_TAG= top
MARKER_ELEMS= 4
3 2 8
3 8 9
3 9 10
3 10 3
MARKER_TAG= bottom
% Comments can appear outside of data areas
MARKER_ELEMS= 4
3 0 4
3 4 5
3 5 6
3 6 1
% Comments can appear outside of data areas
`)
)
