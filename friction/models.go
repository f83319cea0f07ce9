package friction

import (
	"fmt"
	"math"
)

/*
Model computes the friction strength of a closed fault point from its
auxiliary values and state. Aux values arrive in the order of AuxNames.
*/
type Model interface {
	Name() string
	AuxNames() []string
	// Strength at compressive normal stress sigmaN.
	Strength(aux []float64, state, sigmaN float64) float64
	// Coefficient is d(Strength)/d(sigmaN) for sigmaN > 0.
	Coefficient(aux []float64, state float64) float64
	// UpdateState advances the state by a tangential slip increment magnitude.
	UpdateState(aux []float64, state, slipIncr float64) float64
}

const (
	FrictionCoefficient    = "friction_coefficient"
	StaticCoefficient      = "static_coefficient"
	DynamicCoefficient     = "dynamic_coefficient"
	SlipWeakeningParameter = "slip_weakening_parameter"
	Cohesion               = "cohesion"
)

// StaticFriction is Coulomb friction with cohesion.
type StaticFriction struct{}

func (StaticFriction) Name() string { return "static" }

func (StaticFriction) AuxNames() []string {
	return []string{FrictionCoefficient, Cohesion}
}

func (StaticFriction) Strength(aux []float64, state, sigmaN float64) float64 {
	return aux[1] + aux[0]*math.Max(sigmaN, 0)
}

func (StaticFriction) Coefficient(aux []float64, state float64) float64 { return aux[0] }

func (StaticFriction) UpdateState(aux []float64, state, slipIncr float64) float64 { return state }

/*
SlipWeakening drops the friction coefficient linearly from its static to its
dynamic value over the slip weakening parameter d0. The state is the
cumulative tangential slip.
*/
type SlipWeakening struct{}

func (SlipWeakening) Name() string { return "slip_weakening" }

func (SlipWeakening) AuxNames() []string {
	return []string{StaticCoefficient, DynamicCoefficient, SlipWeakeningParameter, Cohesion}
}

func (sw SlipWeakening) Strength(aux []float64, state, sigmaN float64) float64 {
	return aux[3] + sw.Coefficient(aux, state)*math.Max(sigmaN, 0)
}

func (SlipWeakening) Coefficient(aux []float64, state float64) float64 {
	var (
		muS, muD, d0 = aux[0], aux[1], aux[2]
	)
	if state >= d0 {
		return muD
	}
	return muS - (muS-muD)*state/d0
}

func (SlipWeakening) UpdateState(aux []float64, state, slipIncr float64) float64 {
	return state + math.Abs(slipIncr)
}

var ModelNameMap = map[string]Model{
	"static":         StaticFriction{},
	"slip_weakening": SlipWeakening{},
}

func NewModel(name string) (m Model, err error) {
	var (
		ok bool
	)
	if name == "" {
		name = "static"
	}
	if m, ok = ModelNameMap[name]; !ok {
		err = fmt.Errorf("unknown friction model %q", name)
	}
	return
}

// CheckAux validates auxiliary values for a model.
func CheckAux(m Model, aux []float64) error {
	for i, name := range m.AuxNames() {
		if math.IsNaN(aux[i]) || aux[i] < 0 {
			return fmt.Errorf("%s friction: %s must be non-negative, have %g", m.Name(), name, aux[i])
		}
	}
	if _, ok := m.(SlipWeakening); ok && aux[2] <= 0 {
		return fmt.Errorf("%s friction: %s must be positive, have %g", m.Name(), SlipWeakeningParameter, aux[2])
	}
	return nil
}
