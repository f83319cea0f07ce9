package friction

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

type ContactState uint8

const (
	Stick ContactState = iota
	Slip
	Open
)

var ContactStateNameMap = map[string]ContactState{
	"stick": Stick,
	"slip":  Slip,
	"open":  Open,
}

var ContactStatePrintName = []string{"Stick", "Slip", "Open"}

func (cs ContactState) String() string {
	if int(cs) >= len(ContactStatePrintName) {
		return fmt.Sprintf("ContactState(%d)", uint8(cs))
	}
	return ContactStatePrintName[cs]
}

func NewContactState(label string) (cs ContactState, err error) {
	var (
		ok bool
	)
	if cs, ok = ContactStateNameMap[strings.ToLower(strings.TrimSpace(label))]; !ok {
		err = fmt.Errorf("unable to use contact state named %s", label)
	}
	return
}

/*
Tolerances control the contact state decision.
Open: tension above which the fault opens.
Slip: margin below the friction strength that still counts as sticking, and
the slip increment magnitude below which the slip direction is undefined.
Tie: half-width of the band around a state boundary where a point keeps its
previous state.
*/
type Tolerances struct {
	Open float64 `json:"open_tolerance"`
	Slip float64 `json:"slip_tolerance"`
	Tie  float64 `json:"tie_tolerance"`
}

func (tol Tolerances) Validate() error {
	if tol.Open < 0 || tol.Slip < 0 || tol.Tie < 0 {
		return fmt.Errorf("friction tolerances must be non-negative, have open %g slip %g tie %g",
			tol.Open, tol.Slip, tol.Tie)
	}
	return nil
}

// Split returns the tangential components and the normal component of a
// local traction or slip vector (tangential..., normal).
func Split(v []float64) (tangential []float64, normal float64) {
	n := len(v) - 1
	return v[:n], v[n]
}

// NormalStress is the compressive normal stress of a tension-positive
// local traction.
func NormalStress(traction []float64) float64 {
	_, tn := Split(traction)
	return -tn
}

// Classify uses a Coulomb strength mu*max(sigmaN, 0).
func Classify(traction, slipIncr []float64, mu float64, tol Tolerances) ContactState {
	return ClassifyBound(traction, slipIncr, mu*math.Max(NormalStress(traction), 0), tol)
}

// ClassifyBound classifies a local traction against a precomputed friction
// strength.
func ClassifyBound(traction, slipIncr []float64, strength float64, tol Tolerances) ContactState {
	tt, tn := Split(traction)
	switch {
	case -tn < -tol.Open:
		return Open
	case floats.Norm(tt, 2) < strength-tol.Slip:
		return Stick
	default:
		return Slip
	}
}

// ClassifyWithHint returns hint instead of the computed state when the point
// lies within the tie band of the boundary between the two.
func ClassifyWithHint(traction, slipIncr []float64, strength float64, tol Tolerances, hint ContactState) ContactState {
	cs := ClassifyBound(traction, slipIncr, strength, tol)
	if cs != hint && nearBoundary(cs, hint, traction, strength, tol) {
		return hint
	}
	return cs
}

func nearBoundary(a, b ContactState, traction []float64, strength float64, tol Tolerances) bool {
	tt, tn := Split(traction)
	if a == Open || b == Open {
		return math.Abs(tn-tol.Open) <= tol.Tie
	}
	return math.Abs(floats.Norm(tt, 2)-(strength-tol.Slip)) <= tol.Tie
}

/*
JacobianBranch selects the branch whose derivative goes into the Jacobian.
At a branch boundary the Stick derivative is used: a sliding point with
vanishing slip rate sitting on the friction bound, and an open point whose
tension is within the tie band of closing.
*/
func JacobianBranch(cs ContactState, traction, slipIncr []float64, strength float64, tol Tolerances) ContactState {
	tt, tn := Split(traction)
	switch cs {
	case Slip:
		dt, _ := Split(slipIncr)
		if floats.Norm(dt, 2) <= tol.Tie && math.Abs(floats.Norm(tt, 2)-strength) <= tol.Tie {
			return Stick
		}
	case Open:
		if tn-tol.Open <= tol.Tie {
			return Stick
		}
	}
	return cs
}

/*
SlipDirection is the unit tangential direction of the slip increment, or the
direction opposing the tangential traction when the increment is at or
below tol. It is zero when both vanish.
*/
func SlipDirection(traction, slipIncr []float64, tol float64) (dir []float64) {
	var (
		dt, _ = Split(slipIncr)
		tt, _ = Split(traction)
	)
	dir = make([]float64, len(dt))
	if mag := floats.Norm(dt, 2); mag > tol {
		floats.ScaleTo(dir, 1./mag, dt)
		return
	}
	if mag := floats.Norm(tt, 2); mag > 0 {
		floats.ScaleTo(dir, -1./mag, tt)
	}
	return
}

/*
TractionAdjustment returns the change in local traction that makes the trial
traction admissible for state cs: zero when sticking, the tangential clamp
onto the friction bound (opposing the slip direction) when slipping, and the
negated traction when open.
*/
func TractionAdjustment(cs ContactState, traction, slipIncr []float64, strength float64, tol Tolerances) (dT []float64) {
	dT = make([]float64, len(traction))
	switch cs {
	case Slip:
		var (
			tt, _ = Split(traction)
			s     = SlipDirection(traction, slipIncr, tol.Slip)
		)
		for i := range tt {
			dT[i] = -strength*s[i] - tt[i]
		}
	case Open:
		floats.ScaleTo(dT, -1, traction)
	}
	return
}
