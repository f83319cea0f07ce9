package feassemble

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

// stripMesh is a row of n unit quads along x with the x = 0 edge labeled
// "boundary_xneg".
func stripMesh(t *testing.T, n int) *topology.Mesh {
	var (
		coords [][]float64
		cells  []topology.Cell
		quads  []int
	)
	for i := 0; i <= n; i++ {
		coords = append(coords, []float64{float64(i), 0}, []float64{float64(i), 1})
	}
	for i := 0; i < n; i++ {
		cells = append(cells, topology.Cell{Type: types.Cell_Quad4,
			Vertices: []int{2 * i, 2*i + 2, 2*i + 3, 2*i + 1}})
		quads = append(quads, i)
	}
	cells = append(cells, topology.Cell{Type: types.Cell_Line2, Vertices: []int{1, 0}})
	m, err := topology.NewMesh(2, coords, cells)
	require.NoError(t, err)
	require.NoError(t, m.AddLabel(MaterialLabel, 1, quads))
	require.NoError(t, m.AddLabel("boundary_xneg", 1, []int{n}))
	return m
}

// faultMesh is two unit quads separated by a cohesive cell at x = 1.
func faultMesh(t *testing.T) *topology.Mesh {
	coords := [][]float64{
		{0, 0}, {1, 0}, {1, 1}, {0, 1},
		{1, 0}, {2, 0}, {2, 1}, {1, 1},
		{1, 0}, {1, 1},
	}
	cells := []topology.Cell{
		{Type: types.Cell_Quad4, Vertices: []int{0, 1, 2, 3}},
		{Type: types.Cell_Quad4, Vertices: []int{4, 5, 6, 7}},
		{Type: types.Cell_CohesiveLine2, Vertices: []int{1, 2, 4, 7, 8, 9}},
	}
	m, err := topology.NewMesh(2, coords, cells)
	require.NoError(t, err)
	require.NoError(t, m.AddLabel(MaterialLabel, 1, []int{0, 1}))
	require.NoError(t, m.AddLabel("fault", 10, []int{2}))
	return m
}

func fillField(f *topology.Field) {
	for i := range f.Values {
		f.Values[i] = math.Sin(0.7*float64(i)) + 0.1*float64(i)
	}
}

// Vector Laplacian: f1 = grad(s), J3 = identity coupling
func laplacianKernels() ([]ResidualKernel, []JacobianKernel) {
	f1 := func(p *PointContext, f []float64) {
		copy(f, p.SGrad)
	}
	j3 := func(p *PointContext, J []float64) {
		dim := p.Dim
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				J[((i*dim+i)*dim+j)*dim+j] = 1
			}
		}
	}
	return []ResidualKernel{{Subfield: topology.DisplacementName, F1: f1}},
		[]JacobianKernel{{Subfield: topology.DisplacementName, TrialSubfield: topology.DisplacementName, J3: j3}}
}

func TestIntegratorDomain(t *testing.T) {
	m := stripMesh(t, 7)
	sol, err := topology.NewSolutionField(m)
	require.NoError(t, err)
	fillField(sol)
	{ // Linear kernels: residual equals Jacobian times solution
		id := NewIntegratorDomain(m, 1)
		res, jac := laplacianKernels()
		require.NoError(t, id.SetKernelsLHSResidual(res))
		require.NoError(t, id.SetKernelsLHSJacobian(jac))
		require.NoError(t, id.Initialize(sol))
		r := sol.CloneLayout("residual")
		require.NoError(t, id.ComputeLHSResidual(r, 0, 1, sol, nil))
		J := utils.NewDOK(sol.Len(), sol.Len())
		require.NoError(t, id.ComputeLHSJacobianImplicit(&J, nil, 0, 1, 1, sol, nil))
		assert.InDeltaSlice(t, r.Values, J.MulVec(sol.Values), 1.e-12)
		// Rows of a pure-gradient operator sum to zero
		ones := utils.ConstArray(sol.Len(), 1)
		assert.InDeltaSlice(t, make([]float64, sol.Len()), J.MulVec(ones), 1.e-12)

		// Kernels are frozen after initialization
		err = id.SetKernelsLHSResidual(nil)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
		assert.Len(t, id.Kernels().LHSResidual(), 1)
	}
	{ // Reproducible for any partitioning
		var results [][]float64
		for _, pd := range []int{1, 2, 3, 7} {
			id := NewIntegratorDomain(m, 1)
			res, _ := laplacianKernels()
			require.NoError(t, id.SetKernelsLHSResidual(res))
			require.NoError(t, id.Initialize(sol))
			id.Assembler.ParallelDegree = pd
			r := sol.CloneLayout("residual")
			require.NoError(t, id.ComputeLHSResidual(r, 0, 1, sol, nil))
			results = append(results, r.Values)
		}
		for i := 1; i < len(results); i++ {
			assert.Equal(t, results[0], results[i])
		}
	}
	{ // RHS residual never sees the rate field
		rate := func(p *PointContext, f []float64) {
			copy(f, p.SDot)
		}
		id := NewIntegratorDomain(m, 1)
		kernels := []ResidualKernel{{Subfield: topology.DisplacementName, F0: rate}}
		require.NoError(t, id.SetKernelsRHSResidual(kernels))
		require.NoError(t, id.SetKernelsLHSResidual(kernels))
		require.NoError(t, id.Initialize(sol))
		solDot := sol.Clone()
		r := sol.CloneLayout("residual")
		require.NoError(t, id.ComputeRHSResidual(r, 0, 1, sol))
		assert.Equal(t, 0., r.Norm())
		require.NoError(t, id.ComputeLHSResidual(r, 0, 1, sol, solDot))
		assert.Greater(t, r.Norm(), 0.)
	}
	{ // Failed evaluation leaves the output untouched
		bad := func(p *PointContext, f []float64) {
			if p.Cell == 5 {
				f[0] = math.NaN()
				return
			}
			f[0] = 1
		}
		id := NewIntegratorDomain(m, 1)
		require.NoError(t, id.SetKernelsLHSResidual([]ResidualKernel{{Subfield: topology.DisplacementName, F0: bad}}))
		require.NoError(t, id.Initialize(sol))
		r := sol.CloneLayout("residual")
		r.Values[3] = 42
		assert.Error(t, id.ComputeLHSResidual(r, 0, 1, sol, nil))
		assert.Equal(t, 42., r.Values[3])
		assert.Equal(t, 42., r.Norm())
	}
	{ // Configuration errors
		id := NewIntegratorDomain(m, 3)
		assert.True(t, errors.Is(id.Initialize(sol), ErrInvalidConfiguration))
		id = NewIntegratorDomain(m, 1)
		id.AuxNames = []string{"density"}
		assert.True(t, errors.Is(id.Initialize(sol), ErrInvalidConfiguration))
		id = NewIntegratorDomain(m, 1)
		r := sol.CloneLayout("residual")
		assert.True(t, errors.Is(id.ComputeLHSResidual(r, 0, 1, sol, nil), ErrInvalidConfiguration))
		assert.True(t, errors.Is(id.ComputeLHSJacobianLumpedInv(r, 0, 1, 1, sol), ErrNotImplemented))
		assert.True(t, errors.Is(id.UpdateStateVars(0, 1, sol), ErrNotImplemented))
		id = NewIntegratorDomain(m, 1)
		require.NoError(t, id.SetKernelsLHSResidual([]ResidualKernel{{Subfield: "pressure"}}))
		require.NoError(t, id.Initialize(sol))
		assert.True(t, errors.Is(id.ComputeLHSResidual(r, 0, 1, sol, nil), ErrInvalidConfiguration))
	}
	{ // Auxiliary values are available at every quadrature point
		id := NewIntegratorDomain(m, 1)
		id.AuxNames = []string{"density", "vs"}
		id.AuxDB = spatialdb.NewUniformDB("props", map[string]float64{"density": 2500, "vs": 3000})
		var seen []float64
		require.NoError(t, id.SetKernelsLHSResidual([]ResidualKernel{{Subfield: topology.DisplacementName,
			F0: func(p *PointContext, f []float64) { f[0] = p.Aux[id.Aux.Index("vs")] }}}))
		require.NoError(t, id.Initialize(sol))
		id.Assembler.ParallelDegree = 1
		r := sol.CloneLayout("residual")
		require.NoError(t, id.ComputeLHSResidual(r, 0, 1, sol, nil))
		for v := 0; v < sol.NumPoints(); v++ {
			seen = append(seen, r.PointValues(v)[0])
		}
		var total float64
		for _, s := range seen {
			total += s
		}
		assert.InDelta(t, 3000.*7, total, 1.e-8) // integral over the strip area
		assert.Equal(t, -1, id.Aux.Index("vp"))
	}
}

func TestIntegratorBoundary(t *testing.T) {
	m := stripMesh(t, 3)
	sol, err := topology.NewSolutionField(m)
	require.NoError(t, err)
	ib := NewIntegratorBoundary(m)
	{ // Marker label
		err := ib.SetMarkerLabel("")
		assert.True(t, errors.Is(err, ErrInvalidConfiguration))
		assert.True(t, errors.Is(ib.Initialize(sol), ErrInvalidConfiguration))
		require.NoError(t, ib.SetMarkerLabel("boundary_xneg"))
		assert.Equal(t, "boundary_xneg", ib.GetMarkerLabel())
	}
	traction := func(p *PointContext, f []float64) {
		// Unit normal traction on the boundary frame
		copy(f, p.Frame.ToGlobal([]float64{0, 1}))
	}
	require.NoError(t, ib.SetKernelsRHSResidual([]ResidualKernel{{Subfield: topology.DisplacementName, F0: traction}}))
	require.NoError(t, ib.Initialize(sol))
	assert.Equal(t, types.SurfaceID{Name: "boundary_xneg", Value: 1}, ib.Surface)
	r := sol.CloneLayout("residual")
	require.NoError(t, ib.ComputeRHSResidual(r, 0, 1, sol))
	// Edge from (0,1) to (0,0): tangent -y, normal -x (outward), half the force per vertex
	assert.InDeltaSlice(t, []float64{-0.5, 0}, r.PointValues(0), 1.e-14)
	assert.InDeltaSlice(t, []float64{-0.5, 0}, r.PointValues(1), 1.e-14)
	assert.InDeltaSlice(t, []float64{0, 0}, r.PointValues(2), 1.e-14)
	{ // Jacobians and lumped inverse are empty operations
		J := utils.NewDOK(sol.Len(), sol.Len())
		assert.NoError(t, ib.ComputeRHSJacobian(&J, nil, 0, 1, sol))
		assert.NoError(t, ib.ComputeLHSJacobianImplicit(&J, &J, 0, 1, 1, sol, nil))
		assert.NoError(t, ib.ComputeLHSJacobianLumpedInv(r, 0, 1, 1, sol))
		assert.Equal(t, 0, J.NNZ())
		before := append([]float64(nil), r.Values...)
		assert.NoError(t, ib.ComputeLHSResidual(r, 0, 1, sol, nil)) // no LHS kernels
		assert.Equal(t, before, r.Values)
	}
	{ // Unknown label value
		ib2 := NewIntegratorBoundary(m)
		require.NoError(t, ib2.SetMarkerLabel("boundary_xneg"))
		ib2.LabelValue = 4
		assert.True(t, errors.Is(ib2.Initialize(sol), ErrInvalidConfiguration))
	}
}

func TestIntegratorInterface(t *testing.T) {
	m := faultMesh(t)
	sol, err := topology.NewSolutionField(m)
	require.NoError(t, err)
	for v := 8; v < 10; v++ {
		copy(sol.PointValues(v), []float64{2, -3})
	}
	ii := NewIntegratorInterface(m, 10)
	assert.True(t, errors.Is(ii.SetMarkerLabel(""), ErrInvalidConfiguration))
	require.NoError(t, ii.SetMarkerLabel("fault"))
	f0u := func(p *PointContext, f []float64) {
		for i := 0; i < p.Dim; i++ {
			f[i] = p.Lambda[i]
			f[p.Dim+i] = -p.Lambda[i]
		}
	}
	j0ul := func(p *PointContext, J []float64) {
		for i := 0; i < p.Dim; i++ {
			J[i*p.Dim+i] = 1
			J[(p.Dim+i)*p.Dim+i] = -1
		}
	}
	require.NoError(t, ii.SetKernelsLHSResidual([]ResidualKernel{{Subfield: topology.DisplacementName, F0: f0u}}))
	require.NoError(t, ii.SetKernelsLHSJacobian([]JacobianKernel{{Subfield: topology.DisplacementName,
		TrialSubfield: topology.LagrangeName, J0: j0ul}}))
	require.NoError(t, ii.Initialize(sol))
	assert.Equal(t, "fault", ii.GetMarkerLabel())
	assert.Equal(t, []float64{1, 0}, ii.Assembler.FaceGeometry(0).Frames[0].Normal())

	r := sol.CloneLayout("residual")
	require.NoError(t, ii.ComputeLHSResidual(r, 0, 1, sol, nil))
	// Unit length fault: each side vertex carries half of the constant multiplier
	assert.InDeltaSlice(t, []float64{1, -1.5}, r.PointValues(1), 1.e-14)
	assert.InDeltaSlice(t, []float64{1, -1.5}, r.PointValues(2), 1.e-14)
	assert.InDeltaSlice(t, []float64{-1, 1.5}, r.PointValues(4), 1.e-14)
	assert.InDeltaSlice(t, []float64{0, 0}, r.PointValues(8), 1.e-14)
	assert.InDeltaSlice(t, []float64{0, 0}, r.PointValues(0), 1.e-14)

	J := utils.NewDOK(sol.Len(), sol.Len())
	P := utils.NewDOK(sol.Len(), sol.Len())
	require.NoError(t, ii.ComputeLHSJacobianImplicit(&J, &P, 0, 1, 1, sol, nil))
	assert.InDeltaSlice(t, r.Values, J.MulVec(sol.Values), 1.e-14)
	assert.InDeltaSlice(t, r.Values, P.MulVec(sol.Values), 1.e-14)
	assert.True(t, errors.Is(ii.ComputeLHSJacobianLumpedInv(r, 0, 1, 1, sol), ErrNotImplemented))
	assert.NoError(t, ii.ComputeRHSJacobian(&J, nil, 0, 1, sol))
	assert.NoError(t, ii.RebuildGeometry())
}
