package problems

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/notargets/gofault/bc"
	"github.com/notargets/gofault/faults"
	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/types"
	"github.com/notargets/gofault/utils"
)

var ErrNotConverged = errors.New("nonlinear solve did not converge")

/*
Problem integrates the physics in time with backward Euler. Each step is a
Newton solve of F(t, s, sdot) - G(t, s) = 0 with sdot = (s - s_n)/dt:
materials and faults contribute to F, Neumann tractions and body forces to
G. Dirichlet rows are replaced by the prescribed values and every Newton
increment is made admissible by the fault contact constraints before it is
applied.
*/
type Problem struct {
	Title       string
	Mesh        *topology.Mesh
	Solution    *topology.Field
	Integrators []feassemble.Integrator // Materials and boundary integrators
	Faults      []*faults.FaultCohesiveDyn
	Constraints []*bc.Dirichlet
	Observers   *Observers
	Formulation types.Formulation

	StartTime, EndTime, Dt float64
	MaxIterations          int
	AbsTol, RelTol         float64

	NullSpace   [][]float64 // Rigid body modes when nothing is constrained
	Iterations  []int       // Newton iterations of every step taken
	initialized bool
}

func NewProblem(mesh *topology.Mesh) (p *Problem, err error) {
	p = &Problem{
		Mesh:          mesh,
		Observers:     NewObservers(),
		MaxIterations: 25,
		AbsTol:        1.e-10,
		RelTol:        1.e-12,
	}
	if p.Solution, err = topology.NewSolutionField(mesh); err != nil {
		return nil, err
	}
	return
}

// physics lists every integrator, faults last.
func (p *Problem) physics() (all []feassemble.Integrator) {
	all = append(all, p.Integrators...)
	for _, fc := range p.Faults {
		all = append(all, fc)
	}
	return
}

func (p *Problem) Initialize() (err error) {
	if p.Dt <= 0 {
		return fmt.Errorf("%w: time step must be positive, have %g", feassemble.ErrInvalidConfiguration, p.Dt)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: need at least one Newton iteration, have %d", feassemble.ErrInvalidConfiguration, p.MaxIterations)
	}
	for _, ig := range p.physics() {
		if err = ig.Initialize(p.Solution); err != nil {
			return
		}
		p.Observers.SetPhysics(ig)
	}
	for _, d := range p.Constraints {
		if err = d.Initialize(p.Solution); err != nil {
			return
		}
		d.SetSolution(p.Solution, p.StartTime)
	}
	if len(p.Constraints) == 0 {
		p.NullSpace = topology.RigidBodyModes(p.Mesh, p.Solution)
		log.Printf("warning: no Dirichlet boundary conditions, the Jacobian has %d rigid body modes in its null space\n",
			len(p.NullSpace))
	}
	if err = p.Observers.Verify(p.Solution); err != nil {
		return
	}
	p.initialized = true
	log.Printf("problem %q: %d integrators, %d faults, %d constraints, %d unknowns, %s\n",
		p.Title, len(p.Integrators), len(p.Faults), len(p.Constraints), p.Solution.Len(), p.Formulation)
	return
}

/*
Run integrates from StartTime to EndTime. Observers see the initial
solution with infoOnly set, then the solution after every step. The last
step is shortened to end on EndTime.
*/
func (p *Problem) Run() (err error) {
	var (
		t      = p.StartTime
		tindex int
	)
	if !p.initialized {
		return fmt.Errorf("%w: problem run before initialization", feassemble.ErrInvalidConfiguration)
	}
	if err = p.Observers.Notify(t, tindex, p.Solution, true); err != nil {
		return
	}
	for t < p.EndTime && !utils.NearlyEqual(t, p.EndTime, utils.NODETOL) {
		dt := math.Min(p.Dt, p.EndTime-t)
		if err = p.Step(t, dt); err != nil {
			return
		}
		t += dt
		tindex++
		if err = p.Observers.Notify(t, tindex, p.Solution, false); err != nil {
			return
		}
	}
	log.Printf("problem %q: %d steps to t = %g\n", p.Title, tindex, t)
	return
}

// Step advances the solution from t to t + dt and updates state variables.
func (p *Problem) Step(t, dt float64) (err error) {
	if !p.initialized {
		return fmt.Errorf("%w: problem step before initialization", feassemble.ErrInvalidConfiguration)
	}
	switch p.Formulation {
	case types.Formulation_Explicit:
		err = p.stepExplicit(t, dt)
	default:
		err = p.stepImplicit(t, dt)
	}
	if err != nil {
		return
	}
	for _, ig := range p.physics() {
		if su, ok := ig.(feassemble.StateVarUpdater); ok {
			if err = su.UpdateStateVars(t+dt, dt, p.Solution); err != nil && !errors.Is(err, feassemble.ErrNotImplemented) {
				return
			}
		}
	}
	return nil
}

func (p *Problem) stepImplicit(t, dt float64) (err error) {
	var (
		tNew     = t + dt
		previous = p.Solution.Clone()
		sol      = p.Solution
		solDot   = sol.CloneLayout("solution_dot")
		r0       float64
	)
	for _, d := range p.Constraints {
		d.SetSolution(sol, tNew)
	}
	for it := 0; ; it++ {
		var (
			r     *topology.Field
			J     utils.DOK
			dx    []float64
			rnorm float64
		)
		for i := range solDot.Values {
			solDot.Values[i] = (sol.Values[i] - previous.Values[i]) / dt
		}
		if r, J, err = p.assemble(tNew, dt, sol, solDot); err != nil {
			break
		}
		rnorm = r.Norm()
		if it == 0 {
			r0 = rnorm
		}
		utils.Debugf("t = %g, iteration %d: |r| = %g\n", tNew, it, rnorm)
		if rnorm <= p.AbsTol || (it > 0 && rnorm <= p.RelTol*r0) {
			p.Iterations = append(p.Iterations, it)
			return nil
		}
		if it == p.MaxIterations {
			err = fmt.Errorf("%w: t = %g, |r| = %g after %d iterations, initial |r| = %g",
				ErrNotConverged, tNew, rnorm, it, r0)
			break
		}
		rhs := make([]float64, r.Len())
		for i, v := range r.Values {
			rhs[i] = -v
		}
		if dx, err = utils.LUSolve(J.ToDense(), rhs); err != nil {
			err = fmt.Errorf("t = %g, iteration %d: %w", tNew, it, err)
			break
		}
		incr := sol.CloneLayout("increment")
		copy(incr.Values, dx)
		for _, fc := range p.Faults {
			if _, err = fc.ConstrainSolnSpace(sol, incr, tNew, dt, faults.NewLUSensitivity(&J, sol)); err != nil {
				break
			}
		}
		if err != nil {
			break
		}
		sol.AddScaled(1, incr)
	}
	copy(sol.Values, previous.Values)
	return
}

/*
assemble returns the residual F - G and the Jacobian dF/ds + tshift dF/dsdot
- dG/ds with the Dirichlet rows replaced by identity rows.
*/
func (p *Problem) assemble(t, dt float64, sol, solDot *topology.Field) (r *topology.Field, J utils.DOK, err error) {
	var (
		n      = sol.Len()
		rhs    = sol.CloneLayout("rhs")
		K      = utils.NewDOK(n, n)
		tshift = 1. / dt
	)
	r = sol.CloneLayout("residual")
	J = utils.NewDOK(n, n)
	for _, ig := range p.physics() {
		if err = ig.ComputeLHSResidual(r, t, dt, sol, solDot); err != nil {
			return
		}
		if err = ig.ComputeRHSResidual(rhs, t, dt, sol); err != nil {
			return
		}
		if err = ig.ComputeLHSJacobianImplicit(&J, nil, t, dt, tshift, sol, solDot); err != nil {
			return
		}
		if err = ig.ComputeRHSJacobian(&K, nil, t, dt, sol); err != nil {
			return
		}
	}
	r.AddScaled(-1, rhs)
	J.AddScaled(-1, K)
	for _, d := range p.Constraints {
		d.ZeroRows(r.Values)
		d.ConstrainJacobian(&J)
	}
	J.SetReadOnly("jacobian")
	return
}

func (p *Problem) stepExplicit(t, dt float64) (err error) {
	lumped := p.Solution.CloneLayout("jacobian_inverse")
	for _, ig := range p.physics() {
		if err = ig.ComputeLHSJacobianLumpedInv(lumped, t+dt, dt, 1./dt, p.Solution); err != nil {
			log.Printf("explicit time stepping needs a lumped Jacobian: %v\n", err)
			return fmt.Errorf("explicit formulation: %w", err)
		}
	}
	return fmt.Errorf("explicit formulation: %w", feassemble.ErrNotImplemented)
}
