package explain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedContradiction is wrapped by the panic raised when a
	// Contradiction carries neither a variable nor a propagator.
	ErrMalformedContradiction = errors.New("contradiction carries neither a variable nor a propagator")
	// ErrObserverRegistered is wrapped by the panic raised when a Host is
	// handed a second Observer.
	ErrObserverRegistered = errors.New("an explanation observer is already registered")
)

// Identifier values uniquely identify variables, decisions and
// propagators within a single solver instance.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Variable is the identity of an integer (or boolean) domain. The engine
// never looks at the domain itself, only at the events recorded against it.
type Variable interface {
	Identifier() Identifier
}

// Decision is a branching decision taken by the search procedure. It is
// opaque to the engine and only used as a set element and cache key.
type Decision interface {
	Identifier() Identifier
}

// Refutable is implemented by decisions that know which of their two
// branches is being explored. A refuted decision stands for its negation.
type Refutable interface {
	Refuted() bool
}

// IsRefuted reports whether d is a Refutable decision on its refutation
// branch.
func IsRefuted(d Decision) bool {
	r, ok := d.(Refutable)
	return ok && r.Refuted()
}

// Propagator is a filtering algorithm that can explain its own
// inferences on demand.
type Propagator interface {
	Identifier() Identifier
	// ID is the numeric id recorded as payload of activation events.
	ID() int
	// Why pushes onto rules the obligations that justify the event
	// (variable, kind, payload) this propagator caused. It is called with a
	// nil variable and Void kind when the propagator itself failed.
	Why(rules RuleAdder, variable Variable, kind EventKind, payload int)
}

// RuleAdder is the capability handed to Propagator.Why. It only allows
// new obligations to be appended to the rule store being walked.
type RuleAdder interface {
	// AddFullDomainRule asks for every value loss of v to be explained.
	AddFullDomainRule(v Variable)
	// AddRemovalRule asks for the removal of value from v to be explained.
	AddRemovalRule(v Variable, value int)
	// AddLowerBoundRule asks why every value of v below bound is gone.
	AddLowerBoundRule(v Variable, bound int)
	// AddUpperBoundRule asks why every value of v above bound is gone.
	AddUpperBoundRule(v Variable, bound int)
	// AddActivationRule asks why p was activated at all.
	AddActivationRule(p Propagator)
}

// EventKind is the kind of domain modification recorded on the trail.
type EventKind int

const (
	Void EventKind = iota
	ValueRemoved
	LowerBoundRaised
	UpperBoundLowered
	Instantiated
	PropagatorActivated
)

func (k EventKind) String() string {
	switch k {
	case Void:
		return "VOID"
	case ValueRemoved:
		return "REMOVE"
	case LowerBoundRaised:
		return "INCLOW"
	case UpperBoundLowered:
		return "DECUPP"
	case Instantiated:
		return "INSTANTIATE"
	case PropagatorActivated:
		return "FULL_PROPAGATION"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Observer receives every domain mutation from the propagation loop, at
// the moment it happens.
type Observer interface {
	RemoveValue(v Variable, value int, cause Cause)
	UpdateLowerBound(v Variable, old, value int, cause Cause)
	UpdateUpperBound(v Variable, old, value int, cause Cause)
	InstantiateTo(v Variable, value int, cause Cause, oldLB, oldUB int)
	ActivatePropagator(v Variable, p Propagator)
}

// Host is a solver that holds a single slot for the active explanation
// engine. SetObserver must panic with ErrObserverRegistered when called
// twice.
type Host interface {
	SetObserver(o Observer)
}

// Contradiction is the failure signal raised by propagation. Exactly one
// of its two shapes is valid: a domain wipe-out (Variable set, Propagator
// nil) or a propagator failure (Propagator set, Variable optional).
type Contradiction struct {
	Variable   Variable
	Propagator Propagator
}

// WipeOut returns the Contradiction raised when the domain of v vanished.
func WipeOut(v Variable) Contradiction {
	return Contradiction{Variable: v}
}

// Failure returns the Contradiction raised when p detected an
// inconsistency while filtering v. v may be nil.
func Failure(p Propagator, v Variable) Contradiction {
	return Contradiction{Propagator: p, Variable: v}
}

// IsWipeOut reports whether the contradiction is a bare domain wipe-out.
func (c Contradiction) IsWipeOut() bool {
	return c.Propagator == nil && c.Variable != nil
}

// Validate returns an error wrapping ErrMalformedContradiction when the
// contradiction has neither shape.
func (c Contradiction) Validate() error {
	if c.Variable == nil && c.Propagator == nil {
		return ErrMalformedContradiction
	}
	return nil
}

func (c Contradiction) Error() string {
	const msg = "contradiction"
	switch {
	case c.Propagator != nil && c.Variable != nil:
		return fmt.Sprintf("%s: %s failed on %s", msg, c.Propagator.Identifier(), c.Variable.Identifier())
	case c.Propagator != nil:
		return fmt.Sprintf("%s: %s failed", msg, c.Propagator.Identifier())
	case c.Variable != nil:
		return fmt.Sprintf("%s: domain of %s is empty", msg, c.Variable.Identifier())
	}
	return msg
}
