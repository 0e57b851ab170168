package fd

import (
	"fmt"
	"strings"

	"github.com/adRise/choco-solver/pkg/explain"
)

type base struct {
	id   int
	name explain.Identifier
}

func (b *base) ID() int {
	return b.id
}

func (b *base) Identifier() explain.Identifier {
	return b.name
}

func (b *base) setID(id int) {
	b.id = id
}

// NotEqualPropagator enforces x != y. It removes the value of an
// instantiated variable from the other one.
type NotEqualPropagator struct {
	base
	x, y *IntVar
}

var _ Propagator = &NotEqualPropagator{}

func NotEqual(x, y *IntVar) *NotEqualPropagator {
	return &NotEqualPropagator{
		base: base{name: explain.Identifier(fmt.Sprintf("%s != %s", x.id, y.id))},
		x:    x,
		y:    y,
	}
}

func (p *NotEqualPropagator) Propagate(s *Solver) error {
	if p.x.IsInstantiated() {
		if err := s.RemoveValue(p.y, p.x.Value(), explain.ByPropagator(p)); err != nil {
			return err
		}
	}
	if p.y.IsInstantiated() {
		return s.RemoveValue(p.x, p.y.Value(), explain.ByPropagator(p))
	}
	return nil
}

// Why explains the removal of a value from one variable by the
// instantiation of the other one to that value.
func (p *NotEqualPropagator) Why(rules explain.RuleAdder, v explain.Variable, kind explain.EventKind, payload int) {
	switch {
	case kind == explain.PropagatorActivated:
		return
	case v == nil:
		rules.AddFullDomainRule(p.x)
		rules.AddFullDomainRule(p.y)
	case v.Identifier() == p.y.id:
		rules.AddLowerBoundRule(p.x, payload)
		rules.AddUpperBoundRule(p.x, payload)
	case v.Identifier() == p.x.id:
		rules.AddLowerBoundRule(p.y, payload)
		rules.AddUpperBoundRule(p.y, payload)
	}
	rules.AddActivationRule(p)
}

// LessThanPropagator enforces x < y on the bounds of both variables.
type LessThanPropagator struct {
	base
	x, y *IntVar
}

var _ Propagator = &LessThanPropagator{}

func LessThan(x, y *IntVar) *LessThanPropagator {
	return &LessThanPropagator{
		base: base{name: explain.Identifier(fmt.Sprintf("%s < %s", x.id, y.id))},
		x:    x,
		y:    y,
	}
}

func (p *LessThanPropagator) Propagate(s *Solver) error {
	if err := s.UpdateUpperBound(p.x, p.y.UB()-1, explain.ByPropagator(p)); err != nil {
		return err
	}
	return s.UpdateLowerBound(p.y, p.x.LB()+1, explain.ByPropagator(p))
}

// Why explains a new upper bound b of x by ub(y) <= b+1, and a new lower
// bound b of y by lb(x) >= b-1.
func (p *LessThanPropagator) Why(rules explain.RuleAdder, v explain.Variable, kind explain.EventKind, payload int) {
	switch {
	case kind == explain.PropagatorActivated:
		return
	case v == nil:
		rules.AddFullDomainRule(p.x)
		rules.AddFullDomainRule(p.y)
	case v.Identifier() == p.x.id && kind == explain.UpperBoundLowered:
		rules.AddUpperBoundRule(p.y, payload+1)
	case v.Identifier() == p.y.id && kind == explain.LowerBoundRaised:
		rules.AddLowerBoundRule(p.x, payload-1)
	}
	rules.AddActivationRule(p)
}

// AllDifferentPropagator fails as soon as its variables have fewer
// distinct values left than there are variables. It does not filter;
// post NotEqual propagators between pairs for that.
type AllDifferentPropagator struct {
	base
	vars []*IntVar
}

var _ Propagator = &AllDifferentPropagator{}

func AllDifferent(vars ...*IntVar) *AllDifferentPropagator {
	ids := make([]string, len(vars))
	for i, v := range vars {
		ids[i] = string(v.id)
	}
	return &AllDifferentPropagator{
		base: base{name: explain.Identifier(fmt.Sprintf("alldifferent(%s)", strings.Join(ids, ", ")))},
		vars: vars,
	}
}

func (p *AllDifferentPropagator) Propagate(_ *Solver) error {
	values := map[int]struct{}{}
	for _, v := range p.vars {
		for _, value := range v.Values() {
			values[value] = struct{}{}
		}
	}
	if len(values) < len(p.vars) {
		return explain.Failure(p, nil)
	}
	return nil
}

// Why blames the current domains of every variable: only a failure is
// ever caused by this propagator.
func (p *AllDifferentPropagator) Why(rules explain.RuleAdder, _ explain.Variable, kind explain.EventKind, _ int) {
	if kind == explain.PropagatorActivated {
		return
	}
	for _, v := range p.vars {
		rules.AddFullDomainRule(v)
	}
	rules.AddActivationRule(p)
}
