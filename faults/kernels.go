package faults

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/friction"
	"github.com/notargets/gofault/geometry"
	"github.com/notargets/gofault/topology"
)

// contactPoint is the contact state at one quadrature point. Traction and
// slip increment are in local components.
type contactPoint struct {
	t, d     []float64
	strength float64
	coef     float64 // d(strength)/d(sigmaN), zero when not compressed
	state    friction.ContactState
}

/*
evaluate computes t = R lambda + T0 and d = dt R (udot+ - udot-) and
classifies the point, warm-started from its previous state. Residual
evaluations stage the new state; ComputeLHSResidual commits it.
*/
func (fc *FaultCohesiveDyn) evaluate(p *feassemble.PointContext, record bool) (cp contactPoint) {
	var (
		dim       = p.Dim
		cellLocal = p.Cell - fc.Stratum.Start
		fricAux   = p.Aux[:fc.nFric]
		t0        = p.Aux[fc.nFric : fc.nFric+dim]
		rate      = make([]float64, dim)
		st        = fc.state[cellLocal][p.Point]
	)
	cp.t = p.Frame.ToLocal(p.Lambda)
	floats.Add(cp.t, t0)
	for i := range rate {
		rate[i] = p.Dt * (p.UDotPos[i] - p.UDotNeg[i])
	}
	cp.d = p.Frame.ToLocal(rate)
	sigmaN := friction.NormalStress(cp.t)
	cp.strength = fc.Friction.Strength(fricAux, st, sigmaN)
	if sigmaN > 0 {
		cp.coef = fc.Friction.Coefficient(fricAux, st)
	}
	cp.state = friction.ClassifyWithHint(cp.t, cp.d, cp.strength, fc.Tolerances, fc.hints[cellLocal][p.Point])
	if record {
		fc.staged[cellLocal][p.Point] = cp.state
	}
	return
}

func (fc *FaultCohesiveDyn) residualKernels() []feassemble.ResidualKernel {
	return []feassemble.ResidualKernel{
		{Subfield: topology.DisplacementName, F0: fc.f0u},
		{Subfield: topology.LagrangeName, F0: fc.f0l},
	}
}

func (fc *FaultCohesiveDyn) jacobianKernels() []feassemble.JacobianKernel {
	return []feassemble.JacobianKernel{
		{Subfield: topology.DisplacementName, TrialSubfield: topology.LagrangeName, J0: j0ul},
		{Subfield: topology.LagrangeName, TrialSubfield: topology.LagrangeName, J0: fc.j0ll},
		{Subfield: topology.LagrangeName, TrialSubfield: topology.DisplacementName, J0: fc.j0lu},
	}
}

/*
f0u applies the total fault traction lambda + R^T T0 as a force pulling
the negative side toward the positive side under tension, and the
opposite force on the positive side.
*/
func (fc *FaultCohesiveDyn) f0u(p *feassemble.PointContext, f []float64) {
	var (
		dim = p.Dim
		t   = p.Frame.ToGlobal(p.Aux[fc.nFric : fc.nFric+dim])
	)
	floats.Add(t, p.Lambda)
	for i := 0; i < dim; i++ {
		f[i] = -t[i]
		f[dim+i] = t[i]
	}
}

func j0ul(p *feassemble.PointContext, J []float64) {
	dim := p.Dim
	for i := 0; i < dim; i++ {
		J[i*dim+i] = -1
		J[(dim+i)*dim+i] = 1
	}
}

/*
f0l is the contact constraint R^T g:
	Open:  g = t
	Stick: g = d
	Slip:  g_t = t_t + tau s, g_n = d_n
*/
func (fc *FaultCohesiveDyn) f0l(p *feassemble.PointContext, f []float64) {
	var (
		cp = fc.evaluate(p, true)
		g  = make([]float64, p.Dim)
		n  = p.Dim - 1
	)
	switch cp.state {
	case friction.Open:
		copy(g, cp.t)
	case friction.Stick:
		copy(g, cp.d)
	case friction.Slip:
		s := friction.SlipDirection(cp.t, cp.d, fc.Tolerances.Slip)
		for i := 0; i < n; i++ {
			g[i] = cp.t[i] + cp.strength*s[i]
		}
		g[n] = cp.d[n]
	}
	copy(f, p.Frame.ToGlobal(g))
}

func (fc *FaultCohesiveDyn) j0ll(p *feassemble.PointContext, J []float64) {
	var (
		Gl, _ = fc.tangent(p)
		R     = frameMatrix(p.Frame)
		JJ    mat.Dense
	)
	JJ.Mul(R.T(), Gl)
	copy(J, JJ.RawMatrix().Data)
}

func (fc *FaultCohesiveDyn) j0lu(p *feassemble.PointContext, J []float64) {
	var (
		_, Gu = fc.tangent(p)
		R     = frameMatrix(p.Frame)
		dim   = p.Dim
		JJ    mat.Dense
	)
	JJ.Mul(R.T(), Gu)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			J[i*2*dim+j] = -JJ.At(i, j)
			J[i*2*dim+dim+j] = JJ.At(i, j)
		}
	}
}

/*
tangent returns the derivatives of the local constraint g with respect to
lambda (Gl) and to the positive side displacement (Gu) for the Jacobian
branch of the point. Rate derivatives carry the time shift.
*/
func (fc *FaultCohesiveDyn) tangent(p *feassemble.PointContext) (Gl, Gu *mat.Dense) {
	var (
		dim   = p.Dim
		n     = dim - 1
		cp    = fc.evaluate(p, false)
		R     = frameMatrix(p.Frame)
		scale = p.Dt * p.TShift
	)
	Gl, Gu = mat.NewDense(dim, dim, nil), mat.NewDense(dim, dim, nil)
	switch friction.JacobianBranch(cp.state, cp.t, cp.d, cp.strength, fc.Tolerances) {
	case friction.Open:
		Gl.Copy(R)
	case friction.Stick:
		Gu.Scale(scale, R)
	case friction.Slip:
		var (
			tt, _ = friction.Split(cp.t)
			dt, _ = friction.Split(cp.d)
			s     = friction.SlipDirection(cp.t, cp.d, fc.Tolerances.Slip)
		)
		for j := 0; j < dim; j++ {
			Gu.Set(n, j, scale*R.At(n, j))
			for i := 0; i < n; i++ {
				// d(tau)/d(lambda) = -coef R_n
				Gl.Set(i, j, R.At(i, j)-s[i]*cp.coef*R.At(n, j))
			}
		}
		if dMag := floats.Norm(dt, 2); dMag > fc.Tolerances.Slip {
			addProjected(Gu, s, R, scale*cp.strength/dMag)
		} else if tMag := floats.Norm(tt, 2); tMag > 0 {
			tHat := make([]float64, n)
			floats.ScaleTo(tHat, 1./tMag, tt)
			addProjected(Gl, tHat, R, -cp.strength/tMag)
		}
	}
	return
}

// addProjected adds a (I - e e^T) R_t to the tangential rows of G.
func addProjected(G *mat.Dense, e []float64, R *mat.Dense, a float64) {
	var (
		n      = len(e)
		_, dim = R.Dims()
	)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			var v float64
			for k := 0; k < n; k++ {
				if i == k {
					v += R.At(k, j)
				}
				v -= e[i] * e[k] * R.At(k, j)
			}
			G.Set(i, j, G.At(i, j)+a*v)
		}
	}
}

func frameMatrix(f *geometry.Frame) (R *mat.Dense) {
	R = mat.NewDense(f.Dim, f.Dim, nil)
	for i := 0; i < f.Dim; i++ {
		for j := 0; j < f.Dim; j++ {
			R.Set(i, j, f.R[i][j])
		}
	}
	return
}
