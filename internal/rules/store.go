package rules

import (
	"fmt"
	"sort"

	"github.com/adRise/choco-solver/internal/refutation"
	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

// Store is the working set of outstanding rules of one explanation. It
// holds no state across explanations except the refutation cache it reads
// from.
type Store struct {
	variables   map[explain.Identifier]*variableRules
	activations map[explain.Identifier]explain.Propagator
	discharged  map[explain.Identifier]struct{}
	refutations refutation.Cache
}

// NewStore returns an empty rule store. refutations may be nil, in which
// case implicated decisions are never expanded with a cached refutation.
func NewStore(refutations refutation.Cache) *Store {
	return &Store{
		variables:   map[explain.Identifier]*variableRules{},
		activations: map[explain.Identifier]explain.Propagator{},
		discharged:  map[explain.Identifier]struct{}{},
		refutations: refutations,
	}
}

// Clear discards every rule.
func (s *Store) Clear() {
	clear(s.variables)
	clear(s.activations)
	clear(s.discharged)
}

// Adder returns the narrow capability handed to propagators.
func (s *Store) Adder() explain.RuleAdder {
	return adder{s: s}
}

func (s *Store) rulesOf(v explain.Variable) *variableRules {
	vr, ok := s.variables[v.Identifier()]
	if !ok {
		vr = newVariableRules(v)
		s.variables[v.Identifier()] = vr
	}
	return vr
}

// AddFullDomainRule asks for every value loss of v to be explained.
func (s *Store) AddFullDomainRule(v explain.Variable) {
	s.rulesOf(v).full = true
}

// AddRemovalRule asks for the removal of value from v to be explained,
// unless it already was during this walk.
func (s *Store) AddRemovalRule(v explain.Variable, value int) {
	vr := s.rulesOf(v)
	if _, ok := vr.explained[value]; ok {
		return
	}
	vr.values[value] = struct{}{}
}

// AddLowerBoundRule asks why every value of v below bound is gone.
func (s *Store) AddLowerBoundRule(v explain.Variable, bound int) {
	vr := s.rulesOf(v)
	if !vr.hasLB || bound > vr.lb {
		vr.lb = bound
	}
	vr.hasLB = true
}

// AddUpperBoundRule asks why every value of v above bound is gone.
func (s *Store) AddUpperBoundRule(v explain.Variable, bound int) {
	vr := s.rulesOf(v)
	if !vr.hasUB || bound < vr.ub {
		vr.ub = bound
	}
	vr.hasUB = true
}

// AddActivationRule asks why p was activated, unless that was already
// explained during this walk.
func (s *Store) AddActivationRule(p explain.Propagator) {
	if _, ok := s.discharged[p.Identifier()]; ok {
		return
	}
	s.activations[p.Identifier()] = p
}

// Match reports whether the event at index i of events is relevant to an
// outstanding rule. It does not modify the store.
func (s *Store) Match(i int, events *trail.Store) bool {
	e := events.At(i)
	switch e.Kind() {
	case explain.Void:
		return false
	case explain.PropagatorActivated:
		p := e.Cause().Propagator()
		if p == nil {
			return false
		}
		_, ok := s.activations[p.Identifier()]
		return ok
	}
	if e.Variable() == nil {
		return false
	}
	vr, ok := s.variables[e.Variable().Identifier()]
	if !ok {
		return false
	}
	removed := e.Removed()
	if removed.Empty() {
		return false
	}
	if vr.full {
		return true
	}
	for v := range vr.values {
		if removed.Contains(v) {
			return true
		}
	}
	return (vr.hasLB && removed.AnyBelow(vr.lb)) || (vr.hasUB && removed.AnyAbove(vr.ub))
}

// Update consumes the event at index i, which must have matched: the
// rules it explains are narrowed, then its cause is added to reason. A
// propagator cause is asked, through Why, for the rules justifying the
// event.
func (s *Store) Update(i int, events *trail.Store, reason *explain.Reason) {
	e := events.At(i)
	s.narrow(e)

	cause := e.Cause()
	switch cause.Kind() {
	case explain.DecisionCause:
		d := cause.Decision()
		reason.AddDecision(d)
		// only the negation of d is explained by its cached refutation
		if s.refutations != nil && refutedOrOpaque(d) {
			if refuted, ok := s.refutations.Get(d); ok {
				reason.Merge(refuted)
			}
		}
	case explain.PropagatorCause:
		p := cause.Propagator()
		reason.AddPropagator(p)
		p.Why(s.Adder(), e.Variable(), e.Kind(), e.Payload())
	case explain.NoCause:
	default:
		panic(fmt.Sprintf("unexpected cause kind %s", cause.Kind()))
	}
}

func refutedOrOpaque(d explain.Decision) bool {
	if _, ok := d.(explain.Refutable); !ok {
		return true
	}
	return explain.IsRefuted(d)
}

func (s *Store) narrow(e trail.Event) {
	if e.Kind() == explain.PropagatorActivated {
		if p := e.Cause().Propagator(); p != nil {
			delete(s.activations, p.Identifier())
			s.discharged[p.Identifier()] = struct{}{}
		}
		return
	}
	if e.Variable() == nil {
		return
	}
	vr, ok := s.variables[e.Variable().Identifier()]
	if !ok {
		return
	}
	removed := e.Removed()
	for v := range vr.values {
		if removed.Contains(v) {
			delete(vr.values, v)
			vr.explained[v] = struct{}{}
		}
	}
	if vr.hasLB {
		if lb, ok := coveredBelow(removed, vr.lb); ok {
			vr.lb = lb
		}
	}
	if vr.hasUB {
		if ub, ok := coveredAbove(removed, vr.ub); ok {
			vr.ub = ub
		}
	}
}

// coveredBelow returns the lowest l such that every value of [l, bound-1]
// is in removed. A lower bound rule may only be narrowed to l: values
// below bound that the event did not remove still need a cause.
func coveredBelow(removed trail.Removal, bound int) (int, bool) {
	if removed.Empty() || removed.Hi < bound-1 || removed.Lo >= bound {
		return 0, false
	}
	l := removed.Lo
	if removed.HasExcept && removed.Except >= l && removed.Except < bound {
		l = removed.Except + 1
	}
	return l, l < bound
}

// coveredAbove is the mirror of coveredBelow for upper bound rules.
func coveredAbove(removed trail.Removal, bound int) (int, bool) {
	if removed.Empty() || removed.Lo > bound+1 || removed.Hi <= bound {
		return 0, false
	}
	h := removed.Hi
	if removed.HasExcept && removed.Except <= h && removed.Except > bound {
		h = removed.Except - 1
	}
	return h, h > bound
}

// Len returns the number of outstanding rules.
func (s *Store) Len() int {
	n := len(s.activations)
	for _, vr := range s.variables {
		n += len(vr.rules())
	}
	return n
}

func (s *Store) Empty() bool {
	if len(s.activations) > 0 {
		return false
	}
	for _, vr := range s.variables {
		if !vr.empty() {
			return false
		}
	}
	return true
}

// Rules returns the outstanding rules ordered by target then kind.
func (s *Store) Rules() []Rule {
	var rs []Rule
	for _, vr := range s.variables {
		rs = append(rs, vr.rules()...)
	}
	for id := range s.activations {
		rs = append(rs, Rule{Kind: Activation, Target: id})
	}
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Target != rs[j].Target {
			return rs[i].Target < rs[j].Target
		}
		return rs[i].Kind < rs[j].Kind
	})
	return rs
}

// adder hides the rest of the Store from propagators.
type adder struct {
	s *Store
}

var _ explain.RuleAdder = adder{}

func (a adder) AddFullDomainRule(v explain.Variable) { a.s.AddFullDomainRule(v) }
func (a adder) AddRemovalRule(v explain.Variable, x int) { a.s.AddRemovalRule(v, x) }
func (a adder) AddLowerBoundRule(v explain.Variable, x int) { a.s.AddLowerBoundRule(v, x) }
func (a adder) AddUpperBoundRule(v explain.Variable, x int) { a.s.AddUpperBoundRule(v, x) }
func (a adder) AddActivationRule(p explain.Propagator) { a.s.AddActivationRule(p) }
