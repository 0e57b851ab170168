package explain

import "fmt"

// CauseKind tags the variant held by a Cause.
type CauseKind int

const (
	NoCause CauseKind = iota
	DecisionCause
	PropagatorCause
)

func (k CauseKind) String() string {
	switch k {
	case NoCause:
		return "none"
	case DecisionCause:
		return "decision"
	case PropagatorCause:
		return "propagator"
	}
	return fmt.Sprintf("CauseKind(%d)", int(k))
}

// Cause is whatever is responsible for a domain modification: a decision,
// a propagator, or nothing at all (root-level setup). The zero value is
// the empty cause.
type Cause struct {
	kind       CauseKind
	decision   Decision
	propagator Propagator
}

// None returns the empty cause.
func None() Cause {
	return Cause{}
}

// ByDecision returns a cause holding d.
func ByDecision(d Decision) Cause {
	if d == nil {
		return Cause{}
	}
	return Cause{kind: DecisionCause, decision: d}
}

// ByPropagator returns a cause holding p.
func ByPropagator(p Propagator) Cause {
	if p == nil {
		return Cause{}
	}
	return Cause{kind: PropagatorCause, propagator: p}
}

func (c Cause) Kind() CauseKind {
	return c.kind
}

// Decision returns the held decision, or nil if c is not a decision cause.
func (c Cause) Decision() Decision {
	return c.decision
}

// Propagator returns the held propagator, or nil if c is not a propagator
// cause.
func (c Cause) Propagator() Propagator {
	return c.propagator
}

func (c Cause) String() string {
	switch c.kind {
	case DecisionCause:
		return fmt.Sprintf("decision %s", c.decision.Identifier())
	case PropagatorCause:
		return fmt.Sprintf("propagator %s", c.propagator.Identifier())
	}
	return "none"
}
