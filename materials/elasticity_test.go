package materials

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

// strip is a row of n unit quads along x.
func strip(t *testing.T, n int) *topology.Mesh {
	var (
		coords [][]float64
		cells  []topology.Cell
		ids    []int
	)
	for i := 0; i <= n; i++ {
		coords = append(coords, []float64{float64(i), 0}, []float64{float64(i), 1})
	}
	for i := 0; i < n; i++ {
		cells = append(cells, topology.Cell{Type: types.Cell_Quad4,
			Vertices: []int{2 * i, 2*i + 2, 2*i + 3, 2*i + 1}})
		ids = append(ids, i)
	}
	m, err := topology.NewMesh(2, coords, cells)
	require.NoError(t, err)
	require.NoError(t, m.AddLabel(feassemble.MaterialLabel, 1, ids))
	return m
}

func rockDB(extra map[string]float64) spatialdb.Database {
	values := map[string]float64{Density: 2, Vs: 1, Vp: 2} // mu = 2, lambda = 4
	for k, v := range extra {
		values[k] = v
	}
	return spatialdb.NewUniformDB("rock", values)
}

func TestLameParameters(t *testing.T) {
	mu, lambda := LameParameters(2500, 3000, 3000*1.7320508075688772)
	assert.InDelta(t, 2.25e10, mu, 1.)
	assert.InDelta(t, 2.25e10, lambda, 1.e2) // Poisson solid
	assert.Equal(t, []string{"body_force_x", "body_force_y"}, BodyForceNames(2))
	assert.Equal(t, []string{"reference_stress_xx", "reference_stress_yy", "reference_stress_zz",
		"reference_stress_xy", "reference_stress_yz", "reference_stress_xz"}, ReferenceNames("reference_stress", 3))
}

func TestIsotropicLinearElasticity(t *testing.T) {
	m := strip(t, 3)
	sol, err := topology.NewSolutionField(m)
	require.NoError(t, err)
	ile := NewIsotropicLinearElasticity(m, 1)
	ile.DB = rockDB(nil)
	require.NoError(t, ile.Initialize(sol))
	J := utils.NewDOK(sol.Len(), sol.Len())
	require.NoError(t, ile.ComputeLHSJacobianImplicit(&J, nil, 0, 1, 1, sol, nil))
	{ // Rigid body motion is stress free
		for _, mode := range topology.RigidBodyModes(m, sol) {
			assert.InDeltaSlice(t, make([]float64, sol.Len()), J.MulVec(mode), 1.e-12)
		}
	}
	{ // Residual is linear in the displacement
		for i := range sol.Values {
			sol.Values[i] = 0.01 * float64(i%5-2)
		}
		r := sol.CloneLayout("residual")
		require.NoError(t, ile.ComputeLHSResidual(r, 0, 1, sol, nil))
		assert.InDeltaSlice(t, J.MulVec(sol.Values), r.Values, 1.e-12)
	}
	{ // Uniaxial stress patch: interior columns are in equilibrium
		var (
			mu, lambda = 2., 4.
			a          = 1.e-3
			b          = -lambda * a / (lambda + 2*mu)
		)
		for v, x := range m.Coordinates {
			copy(sol.PointValues(v), []float64{a * x[0], b * x[1]})
		}
		r := sol.CloneLayout("residual")
		require.NoError(t, ile.ComputeLHSResidual(r, 0, 1, sol, nil))
		for v := 2; v < 6; v++ {
			assert.InDeltaSlice(t, []float64{0, 0}, r.PointValues(v), 1.e-14)
		}
		stress := ile.Stress(ile.Aux.Values[0][0], []float64{a, 0, 0, b}, 2)
		assert.InDeltaSlice(t, []float64{(lambda+2*mu)*a + lambda*b, 0, 0, 0}, stress, 1.e-15)
		// End columns carry the stress times the half height
		assert.InDelta(t, stress[0]*0.5, r.PointValues(6)[0], 1.e-14)
		assert.InDelta(t, -stress[0]*0.5, r.PointValues(0)[0], 1.e-14)
	}
	{ // RHS Jacobian and lumped inverse
		K := utils.NewDOK(sol.Len(), sol.Len())
		assert.NoError(t, ile.ComputeRHSJacobian(&K, nil, 0, 1, sol))
		assert.Equal(t, 0, K.NNZ())
		r := sol.CloneLayout("residual")
		assert.True(t, errors.Is(ile.ComputeLHSJacobianLumpedInv(r, 0, 1, 1, sol), feassemble.ErrNotImplemented))
		assert.True(t, errors.Is(ile.UpdateStateVars(0, 1, sol), feassemble.ErrNotImplemented))
	}
}

func TestElasticityOptions(t *testing.T) {
	m := strip(t, 3)
	sol, err := topology.NewSolutionField(m)
	require.NoError(t, err)
	{ // Body force integrates to force times area
		ile := NewIsotropicLinearElasticity(m, 1)
		ile.UseBodyForce = true
		ile.DB = rockDB(map[string]float64{"body_force_x": 0.5, "body_force_y": -9.8})
		require.NoError(t, ile.Initialize(sol))
		r := sol.CloneLayout("residual")
		require.NoError(t, ile.ComputeRHSResidual(r, 0, 1, sol))
		var fx, fy float64
		for v := 0; v < sol.NumPoints(); v++ {
			fx += r.PointValues(v)[0]
			fy += r.PointValues(v)[1]
		}
		assert.InDelta(t, 1.5, fx, 1.e-12)
		assert.InDelta(t, -9.8*3, fy, 1.e-12)
	}
	{ // Reference state: the reference strain gives the reference stress
		ile := NewIsotropicLinearElasticity(m, 1)
		ile.UseReferenceState = true
		ile.DB = rockDB(map[string]float64{
			"reference_stress_xx": -10, "reference_stress_yy": -5, "reference_stress_xy": 1,
			"reference_strain_xx": 1.e-3, "reference_strain_yy": 0, "reference_strain_xy": 2.e-4,
		})
		require.NoError(t, ile.Initialize(sol))
		aux := ile.Aux.Values[0][0]
		stress := ile.Stress(aux, []float64{1.e-3, 2.e-4, 2.e-4, 0}, 2)
		assert.InDeltaSlice(t, []float64{-10, 1, 1, -5}, stress, 1.e-14)
		stress = ile.Stress(aux, []float64{0, 0, 0, 0}, 2)
		assert.InDeltaSlice(t, []float64{-10 - 8.e-3, 1 - 8.e-4, 1 - 8.e-4, -5 - 4.e-3}, stress, 1.e-14)
	}
	{ // Configuration errors
		ile := NewIsotropicLinearElasticity(m, 1)
		assert.True(t, errors.Is(ile.Initialize(sol), feassemble.ErrInvalidConfiguration))
		ile = NewIsotropicLinearElasticity(m, 1)
		ile.DB = rockDB(map[string]float64{Vs: 0})
		assert.True(t, errors.Is(ile.Initialize(sol), feassemble.ErrInvalidConfiguration))
		ile = NewIsotropicLinearElasticity(m, 2)
		ile.DB = rockDB(nil)
		assert.True(t, errors.Is(ile.Initialize(sol), feassemble.ErrInvalidConfiguration))
		ile = NewIsotropicLinearElasticity(m, 1)
		ile.UseBodyForce = true
		ile.DB = rockDB(nil)
		var missing *spatialdb.MissingValueError
		assert.True(t, errors.As(ile.Initialize(sol), &missing))
	}
}
