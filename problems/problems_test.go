package problems

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofault/InputParameters"
	"github.com/notargets/gofault/bc"
	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/materials"
	"github.com/notargets/gofault/readfiles"
	"github.com/notargets/gofault/spatialdb"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
)

// bar is a row of n unit quads along x with both ends and the bottom labeled.
func bar(t *testing.T, n int) *topology.Mesh {
	var (
		coords [][]float64
		cells  []topology.Cell
		ids    []int
		bottom []int
	)
	for i := 0; i <= n; i++ {
		coords = append(coords, []float64{float64(i), 0}, []float64{float64(i), 1})
	}
	for i := 0; i < n; i++ {
		cells = append(cells, topology.Cell{Type: types.Cell_Quad4,
			Vertices: []int{2 * i, 2*i + 2, 2*i + 3, 2*i + 1}})
		ids = append(ids, i)
	}
	cells = append(cells,
		topology.Cell{Type: types.Cell_Line2, Vertices: []int{1, 0}},
		topology.Cell{Type: types.Cell_Line2, Vertices: []int{2 * n, 2*n + 1}},
	)
	for i := 0; i < n; i++ {
		cells = append(cells, topology.Cell{Type: types.Cell_Line2, Vertices: []int{2 * i, 2*i + 2}})
		bottom = append(bottom, n+2+i)
	}
	m, err := topology.NewMesh(2, coords, cells)
	require.NoError(t, err)
	require.NoError(t, m.AddLabel(feassemble.MaterialLabel, 1, ids))
	require.NoError(t, m.AddLabel("boundary_xneg", 1, []int{n}))
	require.NoError(t, m.AddLabel("boundary_xpos", 1, []int{n + 1}))
	require.NoError(t, m.AddLabel("boundary_yneg", 1, bottom))
	return m
}

// barProblem pulls on the right end of a bar on rollers with traction T.
func barProblem(t *testing.T, n int, T float64) *Problem {
	m := bar(t, n)
	p, err := NewProblem(m)
	require.NoError(t, err)
	p.Title = "bar"
	p.EndTime, p.Dt = 1, 1
	ile := materials.NewIsotropicLinearElasticity(m, 1)
	ile.DB = spatialdb.NewUniformDB("rock", map[string]float64{
		materials.Density: 2, materials.Vs: 1, materials.Vp: 2, // mu = 2, lambda = 4
	})
	nt, err := bc.NewNeumannTraction(m, "boundary_xpos", 1)
	require.NoError(t, err)
	nt.DB = spatialdb.NewUniformDB("pull", map[string]float64{
		"initial_amplitude_tangential": 0,
		"initial_amplitude_normal":     T,
	})
	p.Integrators = append(p.Integrators, ile, nt)
	left, err := bc.NewDirichlet(m, "boundary_xneg", 1)
	require.NoError(t, err)
	left.Components = []int{0}
	bottom, err := bc.NewDirichlet(m, "boundary_yneg", 1)
	require.NoError(t, err)
	bottom.Components = []int{1}
	p.Constraints = append(p.Constraints, left, bottom)
	return p
}

func TestProblemElasticBar(t *testing.T) {
	var (
		n          = 4
		mu, lambda = 2., 4.
		T          = 1.
		exx        = T * (lambda + 2*mu) / (4 * mu * (lambda + mu))
		eyy        = -lambda / (lambda + 2*mu) * exx
	)
	{ // Uniaxial stress is reproduced exactly
		p := barProblem(t, n, T)
		require.NoError(t, p.Initialize())
		require.NoError(t, p.Run())
		assert.Equal(t, []int{1}, p.Iterations)
		for v, x := range p.Mesh.Coordinates {
			assert.InDeltaSlice(t, []float64{exx * x[0], eyy * x[1]}, p.Solution.PointValues(v), 1.e-12)
		}
		assert.InDelta(t, float64(n)*exx, p.Solution.PointValues(2*n)[0], 1.e-12)
		assert.Nil(t, p.NullSpace)
	}
	{ // Unreachable tolerance
		p := barProblem(t, n, T)
		p.AbsTol, p.RelTol, p.MaxIterations = -1, -1, 2
		require.NoError(t, p.Initialize())
		err := p.Step(0, 1)
		assert.True(t, errors.Is(err, ErrNotConverged))
		assert.Equal(t, make([]float64, p.Solution.Len()), p.Solution.Values)
	}
	{ // Explicit stepping needs lumped Jacobians
		p := barProblem(t, n, T)
		p.Formulation = types.Formulation_Explicit
		require.NoError(t, p.Initialize())
		assert.True(t, errors.Is(p.Step(0, 1), feassemble.ErrNotImplemented))
	}
	{ // Unconstrained
		p := barProblem(t, n, T)
		p.Constraints = nil
		require.NoError(t, p.Initialize())
		assert.Len(t, p.NullSpace, 3)
	}
	{ // Configuration errors
		p := barProblem(t, n, T)
		p.Dt = 0
		assert.True(t, errors.Is(p.Initialize(), feassemble.ErrInvalidConfiguration))
		p = barProblem(t, n, T)
		p.MaxIterations = 0
		assert.True(t, errors.Is(p.Initialize(), feassemble.ErrInvalidConfiguration))
		p = barProblem(t, n, T)
		assert.True(t, errors.Is(p.Run(), feassemble.ErrInvalidConfiguration))
		assert.True(t, errors.Is(p.Step(0, 1), feassemble.ErrInvalidConfiguration))
	}
}

type recorder struct {
	name     string
	log      *[]string
	verified int
	physics  []feassemble.Integrator
	fail     error
}

func (r *recorder) Update(t float64, tindex int, solution *topology.Field, infoOnly bool) error {
	*r.log = append(*r.log, fmt.Sprintf("%s %d %.2f %v", r.name, tindex, t, infoOnly))
	return r.fail
}

func (r *recorder) Verify(solution *topology.Field) error {
	r.verified++
	return nil
}

func (r *recorder) SetPhysics(physics feassemble.Integrator) {
	r.physics = append(r.physics, physics)
}

func TestObservers(t *testing.T) {
	var (
		log  []string
		a    = &recorder{name: "a", log: &log}
		b    = &recorder{name: "b", log: &log}
		obs  = NewObservers()
		sol  = &topology.Field{}
		nfn  int
		fobs = ObserverFunc(func(t float64, tindex int, solution *topology.Field, infoOnly bool) error {
			nfn++
			return nil
		})
	)
	{ // Registration ignores nil and duplicates, keeps order
		obs.Register(nil)
		obs.Register(b)
		obs.Register(a)
		obs.Register(b)
		obs.Register(fobs)
		assert.Equal(t, 3, obs.Len())
		require.NoError(t, obs.Notify(1, 2, sol, false))
		assert.Equal(t, []string{"b 2 1.00 false", "a 2 1.00 false"}, log)
		assert.Equal(t, 1, nfn)
		require.NoError(t, obs.Verify(sol))
		assert.Equal(t, 1, a.verified)
	}
	{ // Removal leaves the observer usable
		obs.Remove(nil)
		obs.Remove(&recorder{log: &log})
		assert.Equal(t, 3, obs.Len())
		obs.Remove(b)
		obs.Remove(fobs)
		assert.Equal(t, 1, obs.Len())
		log = log[:0]
		require.NoError(t, obs.Notify(0, 0, sol, true))
		assert.Equal(t, []string{"a 0 0.00 true"}, log)
		assert.NoError(t, b.Update(0, 0, sol, false))
	}
	{ // The first failure stops notification
		failure := errors.New("disk full")
		b.fail = failure
		obs.Register(b)
		obs.Register(fobs)
		err := obs.Notify(0, 7, sol, false)
		assert.True(t, errors.Is(err, failure))
		assert.Equal(t, 1, nfn)
	}
	{ // Run notifies the initial solution and every step, ending on EndTime
		p := barProblem(t, 2, 1)
		p.Dt = 0.4
		log = log[:0]
		c := &recorder{name: "c", log: &log}
		p.Observers.Register(c)
		require.NoError(t, p.Initialize())
		assert.Equal(t, 1, c.verified)
		assert.Len(t, c.physics, 2)
		require.NoError(t, p.Run())
		assert.Equal(t, []string{"c 0 0.00 true", "c 1 0.40 false", "c 2 0.80 false", "c 3 1.00 false"}, log)
		// The load does not change after the first step
		assert.Equal(t, []int{1, 0, 0}, p.Iterations)
	}
}

const faultMeshYAML = `
dimension: 2
coordinates: [[0, 0], [1, 0], [1, 1], [0, 1], [1, 0], [2, 0], [2, 1], [1, 1], [1, 0], [1, 1]]
cells:
  - {type: quad4, vertices: [0, 1, 2, 3]}
  - {type: quad4, vertices: [4, 5, 6, 7]}
  - {type: cohesive_line2, vertices: [1, 2, 4, 7, 8, 9]}
  - {type: line2, vertices: [3, 0]}
  - {type: line2, vertices: [5, 6]}
labels:
  - {name: material-id, value: 1, cells: [0, 1]}
  - {name: fault, value: 10, cells: [2]}
  - {name: boundary_xneg, value: 1, cells: [3]}
  - {name: boundary_xpos, value: 1, cells: [4]}
`

const faultProblemYAML = `
Title: "sheared fault"
MeshFile: fault.yaml
EndTime: 2
Dt: 1
Materials:
  - ID: 1
    Values: {density: 1, vs: 1, vp: 2}
Dirichlet:
  - {Label: boundary_xneg, Value: 1}
  - Label: boundary_xpos
    Value: 1
    UseRate: true
    Values: {initial_amplitude_x: 0, initial_amplitude_y: 0, rate_amplitude_x: 0, rate_amplitude_y: 0.01}
Faults:
  - Label: fault
    Value: 10
    FrictionDBFile: friction.yaml
    TractionValues: {initial_traction_shear: 0, initial_traction_normal: %g}
`

const frictionDBYAML = `
label: fault friction
value-names: [friction_coefficient, cohesion]
points:
  - {x: [1, 0], values: [0.6, 0]}
  - {x: [1, 1], values: [0.6, 0]}
`

func faultProblem(t *testing.T, normalTraction float64) *Problem {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "friction.yaml"), []byte(frictionDBYAML), 0644))
	ip := &InputParameters.ProblemParameters{}
	require.NoError(t, ip.Parse([]byte(fmt.Sprintf(faultProblemYAML, normalTraction))))
	m, err := readfiles.ParseMesh([]byte(faultMeshYAML))
	require.NoError(t, err)
	p, err := NewProblemFromParameters(ip, m, dir)
	require.NoError(t, err)
	require.NoError(t, p.Initialize())
	return p
}

func TestProblemFault(t *testing.T) {
	{ // Compressed fault under a small shear sticks
		p := faultProblem(t, -10)
		require.Len(t, p.Faults, 1)
		assert.Equal(t, InputParameters.DefaultTolerances, p.Faults[0].Tolerances)
		require.NoError(t, p.Run())
		assert.Equal(t, []int{1, 1}, p.Iterations)
		for _, states := range p.Faults[0].ContactStates() {
			for _, cs := range states {
				assert.Equal(t, friction.Stick, cs)
			}
		}
		for _, pair := range [][2]int{{1, 4}, {2, 7}} {
			neg, pos := p.Solution.PointValues(pair[0]), p.Solution.PointValues(pair[1])
			assert.InDeltaSlice(t, neg, pos, 1.e-10)
		}
		assert.InDelta(t, 0.02, p.Solution.PointValues(5)[1], 1.e-14)
		assert.Greater(t, p.Solution.PointValues(4)[1], 0.)
	}
	{ // A fault in tension opens and carries no traction
		p := faultProblem(t, 1)
		require.NoError(t, p.Step(0, 1))
		for _, states := range p.Faults[0].ContactStates() {
			for _, cs := range states {
				assert.Equal(t, friction.Open, cs)
			}
		}
		// The multiplier cancels the initial tension
		for _, v := range []int{8, 9} {
			assert.InDeltaSlice(t, []float64{-1, 0}, p.Solution.PointValues(v), 1.e-9)
		}
		_, traction := p.Faults[0].VertexSlipTraction(p.Solution)
		for _, tr := range traction {
			assert.InDeltaSlice(t, []float64{0, 0}, tr, 1.e-9)
		}
		r := p.Solution.CloneLayout("residual")
		require.NoError(t, p.Faults[0].ComputeLHSResidual(r, 1, 1, p.Solution, p.Solution.CloneLayout("solution_dot")))
		for _, v := range []int{1, 2, 4, 7} {
			assert.InDeltaSlice(t, []float64{0, 0}, r.PointValues(v), 1.e-9)
		}
	}
	{ // Missing friction database file
		ip := &InputParameters.ProblemParameters{}
		require.NoError(t, ip.Parse([]byte(fmt.Sprintf(faultProblemYAML, -10.))))
		m, err := readfiles.ParseMesh([]byte(faultMeshYAML))
		require.NoError(t, err)
		_, err = NewProblemFromParameters(ip, m, t.TempDir())
		assert.Error(t, err)
	}
}
