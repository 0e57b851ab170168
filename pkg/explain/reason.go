package explain

import (
	"fmt"
	"sort"
	"strings"
)

// Reason is the result of an explanation: the decisions and propagators
// that together are sufficient to produce a contradiction. A Reason only
// ever grows.
type Reason struct {
	decisions   map[Identifier]Decision
	propagators map[Identifier]Propagator
}

func NewReason() *Reason {
	return &Reason{
		decisions:   make(map[Identifier]Decision),
		propagators: make(map[Identifier]Propagator),
	}
}

// AddDecision adds d to the reason and reports whether it was new.
func (r *Reason) AddDecision(d Decision) bool {
	if _, ok := r.decisions[d.Identifier()]; ok {
		return false
	}
	r.decisions[d.Identifier()] = d
	return true
}

// AddPropagator adds p to the reason and reports whether it was new.
func (r *Reason) AddPropagator(p Propagator) bool {
	if _, ok := r.propagators[p.Identifier()]; ok {
		return false
	}
	r.propagators[p.Identifier()] = p
	return true
}

// Merge adds every decision and propagator of other to r.
func (r *Reason) Merge(other *Reason) {
	if other == nil {
		return
	}
	for _, d := range other.decisions {
		r.AddDecision(d)
	}
	for _, p := range other.propagators {
		r.AddPropagator(p)
	}
}

func (r *Reason) HasDecision(id Identifier) bool {
	_, ok := r.decisions[id]
	return ok
}

func (r *Reason) HasPropagator(id Identifier) bool {
	_, ok := r.propagators[id]
	return ok
}

// Decisions returns the decisions of the reason ordered by identifier.
func (r *Reason) Decisions() []Decision {
	ds := make([]Decision, 0, len(r.decisions))
	for _, d := range r.decisions {
		ds = append(ds, d)
	}
	sort.Slice(ds, func(i, j int) bool { return ds[i].Identifier() < ds[j].Identifier() })
	return ds
}

// Propagators returns the propagators of the reason ordered by identifier.
func (r *Reason) Propagators() []Propagator {
	ps := make([]Propagator, 0, len(r.propagators))
	for _, p := range r.propagators {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Identifier() < ps[j].Identifier() })
	return ps
}

// DecisionIdentifiers returns the sorted identifiers of the decisions.
func (r *Reason) DecisionIdentifiers() []Identifier {
	ids := make([]Identifier, 0, len(r.decisions))
	for _, d := range r.Decisions() {
		ids = append(ids, d.Identifier())
	}
	return ids
}

// PropagatorIdentifiers returns the sorted identifiers of the propagators.
func (r *Reason) PropagatorIdentifiers() []Identifier {
	ids := make([]Identifier, 0, len(r.propagators))
	for _, p := range r.Propagators() {
		ids = append(ids, p.Identifier())
	}
	return ids
}

// Len is the total number of decisions and propagators.
func (r *Reason) Len() int {
	return len(r.decisions) + len(r.propagators)
}

func (r *Reason) Empty() bool {
	return r.Len() == 0
}

// Copy returns an independent reason with the same contents.
func (r *Reason) Copy() *Reason {
	c := NewReason()
	c.Merge(r)
	return c
}

func (r *Reason) String() string {
	join := func(ids []Identifier) string {
		s := make([]string, len(ids))
		for i, id := range ids {
			s[i] = string(id)
		}
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("decisions: {%s}, propagators: {%s}", join(r.DecisionIdentifiers()), join(r.PropagatorIdentifiers()))
}
