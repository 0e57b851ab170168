package trail

import (
	"fmt"

	"github.com/adRise/choco-solver/pkg/explain"
)

// Unused is the sentinel stored in bound fields an event kind does not use.
const Unused = -1

// Event is one domain modification recorded on the trail. Events are
// write-once: they are built by NewEvent and only read afterwards.
type Event struct {
	variable explain.Variable
	cause    explain.Cause
	kind     explain.EventKind
	payload  int
	oldLB    int
	oldUB    int
}

// NewEvent returns the event (variable, cause, kind, payload, oldLB, oldUB).
// Bounds that do not apply to kind must be passed as Unused.
func NewEvent(v explain.Variable, cause explain.Cause, kind explain.EventKind, payload, oldLB, oldUB int) Event {
	return Event{
		variable: v,
		cause:    cause,
		kind:     kind,
		payload:  payload,
		oldLB:    oldLB,
		oldUB:    oldUB,
	}
}

func (e Event) Variable() explain.Variable {
	return e.variable
}

func (e Event) Cause() explain.Cause {
	return e.cause
}

func (e Event) Kind() explain.EventKind {
	return e.kind
}

// Payload is the removed value, the new bound, the instantiated value or
// the id of the activated propagator, depending on Kind.
func (e Event) Payload() int {
	return e.payload
}

func (e Event) OldLB() int {
	return e.oldLB
}

func (e Event) OldUB() int {
	return e.oldUB
}

// OldBound returns the bound that the event replaced: the old lower bound
// of a LowerBoundRaised event or the old upper bound of an
// UpperBoundLowered event. It returns Unused for every other kind.
func (e Event) OldBound() int {
	switch e.kind {
	case explain.LowerBoundRaised:
		return e.oldLB
	case explain.UpperBoundLowered:
		return e.oldUB
	}
	return Unused
}

// Removed returns the set of values the event took away from its variable.
func (e Event) Removed() Removal {
	switch e.kind {
	case explain.ValueRemoved:
		return Removal{Lo: e.payload, Hi: e.payload}
	case explain.LowerBoundRaised:
		return Removal{Lo: e.oldLB, Hi: e.payload - 1}
	case explain.UpperBoundLowered:
		return Removal{Lo: e.payload + 1, Hi: e.oldUB}
	case explain.Instantiated:
		return Removal{Lo: e.oldLB, Hi: e.oldUB, Except: e.payload, HasExcept: true}
	}
	return Removal{Lo: 0, Hi: -1}
}

func (e Event) String() string {
	var id explain.Identifier = "<none>"
	if e.variable != nil {
		id = e.variable.Identifier()
	}
	switch e.kind {
	case explain.LowerBoundRaised, explain.UpperBoundLowered:
		return fmt.Sprintf("%s %s %d -> %d (%s)", id, e.kind, e.OldBound(), e.payload, e.cause)
	case explain.Instantiated:
		return fmt.Sprintf("%s %s %d in [%d, %d] (%s)", id, e.kind, e.payload, e.oldLB, e.oldUB, e.cause)
	}
	return fmt.Sprintf("%s %s %d (%s)", id, e.kind, e.payload, e.cause)
}

// Removal is the closed interval [Lo, Hi], minus Except when HasExcept is
// set. An interval with Lo > Hi is empty.
type Removal struct {
	Lo, Hi    int
	Except    int
	HasExcept bool
}

func (r Removal) Empty() bool {
	return r.Lo > r.Hi || (r.HasExcept && r.Lo == r.Hi && r.Lo == r.Except)
}

func (r Removal) Contains(v int) bool {
	if v < r.Lo || v > r.Hi {
		return false
	}
	return !r.HasExcept || v != r.Except
}

// AnyBelow reports whether a value strictly smaller than x was removed.
func (r Removal) AnyBelow(x int) bool {
	return r.clip(r.Lo, min(r.Hi, x-1))
}

// AnyAbove reports whether a value strictly greater than x was removed.
func (r Removal) AnyAbove(x int) bool {
	return r.clip(max(r.Lo, x+1), r.Hi)
}

func (r Removal) clip(lo, hi int) bool {
	return !(Removal{Lo: lo, Hi: hi, Except: r.Except, HasExcept: r.HasExcept}).Empty()
}
