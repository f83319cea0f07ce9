package output

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofault/faults"
	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/readfiles"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
)

const faultMeshYAML = `
dimension: 2
coordinates: [[0, 0], [1, 0], [1, 1], [0, 1], [1, 0], [2, 0], [2, 1], [1, 1], [1, 0], [1, 1]]
cells:
  - {type: quad4, vertices: [0, 1, 2, 3]}
  - {type: quad4, vertices: [4, 5, 6, 7]}
  - {type: cohesive_line2, vertices: [1, 2, 4, 7, 8, 9]}
labels:
  - {name: material-id, value: 1, cells: [0, 1]}
  - {name: fault, value: 10, cells: [2]}
`

func newFault(t *testing.T) (fc *faults.FaultCohesiveDyn, sol *topology.Field) {
	m, err := readfiles.ParseMesh([]byte(faultMeshYAML))
	require.NoError(t, err)
	sol, err = topology.NewSolutionField(m)
	require.NoError(t, err)
	fc = faults.NewFaultCohesiveDyn(m, 10)
	require.NoError(t, fc.SetMarkerLabel("fault"))
	fc.FrictionDB = spatialdb.NewUniformDB("friction", map[string]float64{
		friction.FrictionCoefficient: 0.6,
		friction.Cohesion:            0,
	})
	require.NoError(t, fc.Initialize(sol))
	return
}

func TestFaultWriter(t *testing.T) {
	fc, sol := newFault(t)
	var buf bytes.Buffer
	{ // Attaches to the fault with its label only
		fw := NewFaultWriter(&buf, "other")
		fw.SetPhysics(fc)
		assert.True(t, errors.Is(fw.Verify(sol), feassemble.ErrInvalidConfiguration))
		assert.True(t, errors.Is(fw.Update(0, 0, sol, false), feassemble.ErrInvalidConfiguration))
	}
	fw := NewFaultWriter(&buf, "fault")
	fw.SetPhysics(feassemble.NewIntegratorDomain(fc.Mesh, 1))
	assert.Nil(t, fw.Fault)
	fw.SetPhysics(fc)
	require.NoError(t, fw.Verify(sol))
	{ // Header
		require.NoError(t, fw.Update(0, 0, sol, true))
		assert.Equal(t, "# fault fault[10]: 2 vertices, static friction\n", buf.String())
	}
	{ // One line per constrained vertex
		buf.Reset()
		copy(sol.PointValues(8), []float64{0.5, 0})
		copy(sol.PointValues(4), []float64{0.1, 0.2})
		require.NoError(t, fw.Update(1.5, 3, sol, false))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "# step 3 t = 1.500000e+00", lines[0])
		assert.Equal(t, []string{"1.00000e+00", "0.00000e+00", "2.000000e-01", "1.000000e-01",
			"0.000000e+00", "5.000000e-01", "Stick"}, strings.Fields(lines[1]))
		assert.Equal(t, []string{"1.00000e+00", "1.00000e+00", "0.000000e+00", "0.000000e+00",
			"0.000000e+00", "0.000000e+00", "Stick"}, strings.Fields(lines[2]))
	}
	{ // Skipped steps
		buf.Reset()
		fw.EverySteps = 2
		require.NoError(t, fw.Update(2, 3, sol, false))
		assert.Equal(t, 0, buf.Len())
		require.NoError(t, fw.Update(2, 4, sol, false))
		assert.NotEqual(t, 0, buf.Len())
	}
	{ // Solutions without a multiplier
		m, err := readfiles.ParseMesh([]byte(`
dimension: 2
coordinates: [[0, 0], [1, 0], [1, 1], [0, 1]]
cells:
  - {type: quad4, vertices: [0, 1, 2, 3]}
`))
		require.NoError(t, err)
		plain, err := topology.NewSolutionField(m)
		require.NoError(t, err)
		assert.True(t, errors.Is(fw.Verify(plain), feassemble.ErrInvalidConfiguration))
	}
}
