package problems

import (
	"fmt"

	"github.com/notargets/gofault/feassemble"
	"github.com/notargets/gofault/topology"
	"github.com/notargets/gofault/utils"
)

// Observer is notified with the solution after every accepted time step.
// When infoOnly is set the observer should only record metadata.
type Observer interface {
	Update(t float64, tindex int, solution *topology.Field, infoOnly bool) error
}

// Verifier is implemented by observers that check the solution layout
// before the first step.
type Verifier interface {
	Verify(solution *topology.Field) error
}

// PhysicsObserver is implemented by observers that read the state of the
// physics they are attached to.
type PhysicsObserver interface {
	SetPhysics(physics feassemble.Integrator)
}

type funcObserver struct {
	fn func(t float64, tindex int, solution *topology.Field, infoOnly bool) error
}

func (fo *funcObserver) Update(t float64, tindex int, solution *topology.Field, infoOnly bool) error {
	return fo.fn(t, tindex, solution, infoOnly)
}

// ObserverFunc wraps a function as an Observer. Each call returns a distinct
// observer that can later be passed to Remove.
func ObserverFunc(fn func(t float64, tindex int, solution *topology.Field, infoOnly bool) error) Observer {
	return &funcObserver{fn: fn}
}

/*
Observers is an ordered set of observers. It does not own them: removing an
observer or dropping the registry leaves the observer untouched, and the
caller closes whatever resources it holds. Observers must be comparable,
normally pointers.
*/
type Observers struct {
	list []Observer
}

func NewObservers() *Observers {
	return &Observers{}
}

// Register adds obs once; nil and already registered observers are ignored.
func (o *Observers) Register(obs Observer) {
	if obs == nil || o.index(obs) >= 0 {
		return
	}
	o.list = append(o.list, obs)
	utils.Debugf("registered observer %T, %d total", obs, len(o.list))
}

// Remove drops obs; nil and unknown observers are ignored.
func (o *Observers) Remove(obs Observer) {
	var (
		i int
	)
	if obs == nil {
		return
	}
	if i = o.index(obs); i < 0 {
		return
	}
	o.list = append(o.list[:i], o.list[i+1:]...)
}

func (o *Observers) index(obs Observer) int {
	for i, ob := range o.list {
		if ob == obs {
			return i
		}
	}
	return -1
}

func (o *Observers) Len() int { return len(o.list) }

// SetPhysics hands physics to every observer that reads it.
func (o *Observers) SetPhysics(physics feassemble.Integrator) {
	for _, obs := range o.list {
		if po, ok := obs.(PhysicsObserver); ok {
			po.SetPhysics(physics)
		}
	}
}

func (o *Observers) Verify(solution *topology.Field) (err error) {
	for _, obs := range o.list {
		if v, ok := obs.(Verifier); ok {
			if err = v.Verify(solution); err != nil {
				return fmt.Errorf("observer %T: %w", obs, err)
			}
		}
	}
	return
}

// Notify updates the observers in registration order and stops at the first
// error.
func (o *Observers) Notify(t float64, tindex int, solution *topology.Field, infoOnly bool) (err error) {
	for _, obs := range o.list {
		if err = obs.Update(t, tindex, solution, infoOnly); err != nil {
			return fmt.Errorf("observer %T at step %d: %w", obs, tindex, err)
		}
	}
	return
}
