package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adRise/choco-solver/internal/refutation"
	"github.com/adRise/choco-solver/internal/rules"
	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

type variable string

func (v variable) Identifier() explain.Identifier {
	return explain.Identifier(v)
}

type decision struct {
	id      string
	refuted bool
}

func (d *decision) Identifier() explain.Identifier {
	return explain.Identifier(d.id)
}

func (d *decision) Refuted() bool {
	return d.refuted
}

type opaque string

func (d opaque) Identifier() explain.Identifier {
	return explain.Identifier(d)
}

type call struct {
	Variable explain.Variable
	Kind     explain.EventKind
	Payload  int
}

// recorder is a propagator that remembers how it was asked and answers
// with a fixed function.
type recorder struct {
	name  string
	id    int
	calls []call
	why   func(rules explain.RuleAdder)
}

func (p *recorder) Identifier() explain.Identifier {
	return explain.Identifier(p.name)
}

func (p *recorder) ID() int {
	return p.id
}

func (p *recorder) Why(rules explain.RuleAdder, v explain.Variable, kind explain.EventKind, payload int) {
	p.calls = append(p.calls, call{Variable: v, Kind: kind, Payload: payload})
	if p.why != nil {
		p.why(rules)
	}
}

func single(e trail.Event) *trail.Store {
	s := trail.NewStore(1)
	s.Push(e)
	return s
}

func TestMatch(t *testing.T) {
	x, y := variable("x"), variable("y")
	type tc struct {
		Name  string
		Setup func(s *rules.Store)
		Event trail.Event
		Match bool
	}

	for _, tt := range []tc{
		{
			Name:  "void event never matches",
			Setup: func(s *rules.Store) { s.AddFullDomainRule(x) },
			Event: trail.NewEvent(x, explain.None(), explain.Void, 0, trail.Unused, trail.Unused),
		},
		{
			Name:  "full domain rule matches any removal",
			Setup: func(s *rules.Store) { s.AddFullDomainRule(x) },
			Event: trail.NewEvent(x, explain.None(), explain.ValueRemoved, 7, trail.Unused, trail.Unused),
			Match: true,
		},
		{
			Name:  "rule on another variable",
			Setup: func(s *rules.Store) { s.AddFullDomainRule(y) },
			Event: trail.NewEvent(x, explain.None(), explain.ValueRemoved, 7, trail.Unused, trail.Unused),
		},
		{
			Name:  "full domain rule ignores an instantiation that removes nothing",
			Setup: func(s *rules.Store) { s.AddFullDomainRule(x) },
			Event: trail.NewEvent(x, explain.None(), explain.Instantiated, 3, 3, 3),
		},
		{
			Name:  "removal rule on the removed value",
			Setup: func(s *rules.Store) { s.AddRemovalRule(x, 2) },
			Event: trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 1, trail.Unused, 4),
			Match: true,
		},
		{
			Name:  "removal rule on a kept value",
			Setup: func(s *rules.Store) { s.AddRemovalRule(x, 1) },
			Event: trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 1, trail.Unused, 4),
		},
		{
			Name:  "removal rule on the instantiated value",
			Setup: func(s *rules.Store) { s.AddRemovalRule(x, 2) },
			Event: trail.NewEvent(x, explain.None(), explain.Instantiated, 2, 0, 4),
		},
		{
			Name:  "lower bound rule on a raised lower bound",
			Setup: func(s *rules.Store) { s.AddLowerBoundRule(x, 3) },
			Event: trail.NewEvent(x, explain.None(), explain.LowerBoundRaised, 5, 0, trail.Unused),
			Match: true,
		},
		{
			Name:  "lower bound rule on removals above it",
			Setup: func(s *rules.Store) { s.AddLowerBoundRule(x, 3) },
			Event: trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 4, trail.Unused, 9),
		},
		{
			Name:  "upper bound rule on a lowered upper bound",
			Setup: func(s *rules.Store) { s.AddUpperBoundRule(x, 3) },
			Event: trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 2, trail.Unused, 9),
			Match: true,
		},
		{
			Name:  "upper bound rule on a removal below it",
			Setup: func(s *rules.Store) { s.AddUpperBoundRule(x, 3) },
			Event: trail.NewEvent(x, explain.None(), explain.ValueRemoved, 3, trail.Unused, trail.Unused),
		},
		{
			Name:  "activation rule",
			Setup: func(s *rules.Store) { s.AddActivationRule(&recorder{name: "p", id: 1}) },
			Event: trail.NewEvent(nil, explain.ByPropagator(&recorder{name: "p", id: 1}), explain.PropagatorActivated, 1, 0, 0),
			Match: true,
		},
		{
			Name:  "activation of another propagator",
			Setup: func(s *rules.Store) { s.AddActivationRule(&recorder{name: "p", id: 1}) },
			Event: trail.NewEvent(nil, explain.ByPropagator(&recorder{name: "q", id: 2}), explain.PropagatorActivated, 2, 0, 0),
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			s := rules.NewStore(nil)
			tt.Setup(s)
			before := s.Rules()
			assert.Equal(t, tt.Match, s.Match(0, single(tt.Event)))
			assert.Equal(t, before, s.Rules(), "match must not modify the store")
		})
	}
}

func TestUpdateNarrowsRemovals(t *testing.T) {
	x := variable("x")
	s := rules.NewStore(nil)
	s.AddRemovalRule(x, 2)
	s.AddRemovalRule(x, 5)

	events := single(trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 1, trail.Unused, 2))
	require.True(t, s.Match(0, events))
	s.Update(0, events, explain.NewReason())
	assert.Equal(t, []rules.Rule{{Kind: rules.Removal, Target: "x", Values: []int{5}}}, s.Rules())

	events = single(trail.NewEvent(x, explain.None(), explain.ValueRemoved, 4, trail.Unused, trail.Unused))
	assert.False(t, s.Match(0, events))

	events = single(trail.NewEvent(x, explain.None(), explain.ValueRemoved, 5, trail.Unused, trail.Unused))
	require.True(t, s.Match(0, events))
	s.Update(0, events, explain.NewReason())
	assert.True(t, s.Empty())

	// an explained removal is never asked for again during the same walk
	s.AddRemovalRule(x, 5)
	assert.True(t, s.Empty())

	s.Clear()
	assert.True(t, s.Empty())
	s.AddRemovalRule(x, 5)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateNarrowsBounds(t *testing.T) {
	x := variable("x")
	s := rules.NewStore(nil)
	s.AddLowerBoundRule(x, 5)
	s.AddUpperBoundRule(x, 6)

	events := single(trail.NewEvent(x, explain.None(), explain.LowerBoundRaised, 6, 2, trail.Unused))
	require.True(t, s.Match(0, events))
	s.Update(0, events, explain.NewReason())

	events = single(trail.NewEvent(x, explain.None(), explain.Instantiated, 4, 3, 9))
	require.True(t, s.Match(0, events))
	s.Update(0, events, explain.NewReason())

	assert.Equal(t, []rules.Rule{
		{Kind: rules.LowerBound, Target: "x", Bound: 2},
		{Kind: rules.UpperBound, Target: "x", Bound: 9},
	}, s.Rules())
}

func TestUpdateKeepsUnexplainedBoundValues(t *testing.T) {
	type tc struct {
		Name  string
		Event trail.Event
		Rules []rules.Rule
	}

	x := variable("x")
	for _, tt := range []tc{
		{
			Name:  "lower bound raised short of the rule",
			Event: trail.NewEvent(x, explain.None(), explain.LowerBoundRaised, 3, 0, trail.Unused),
			Rules: []rules.Rule{{Kind: rules.LowerBound, Target: "x", Bound: 4}, {Kind: rules.UpperBound, Target: "x", Bound: 6}},
		},
		{
			Name:  "removal just below the rule",
			Event: trail.NewEvent(x, explain.None(), explain.ValueRemoved, 3, trail.Unused, trail.Unused),
			Rules: []rules.Rule{{Kind: rules.LowerBound, Target: "x", Bound: 3}, {Kind: rules.UpperBound, Target: "x", Bound: 6}},
		},
		{
			Name:  "upper bound lowered short of the rule",
			Event: trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 8, trail.Unused, 9),
			Rules: []rules.Rule{{Kind: rules.LowerBound, Target: "x", Bound: 4}, {Kind: rules.UpperBound, Target: "x", Bound: 6}},
		},
		{
			Name:  "instantiation keeping a value below the rule",
			Event: trail.NewEvent(x, explain.None(), explain.Instantiated, 2, 0, 9),
			Rules: []rules.Rule{{Kind: rules.LowerBound, Target: "x", Bound: 3}, {Kind: rules.UpperBound, Target: "x", Bound: 9}},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			s := rules.NewStore(nil)
			s.AddLowerBoundRule(x, 4)
			s.AddUpperBoundRule(x, 6)

			events := single(tt.Event)
			require.True(t, s.Match(0, events))
			s.Update(0, events, explain.NewReason())
			assert.Equal(t, tt.Rules, s.Rules())
		})
	}
}

func TestBoundRulesKeepTheStrongest(t *testing.T) {
	x := variable("x")
	s := rules.NewStore(nil)
	s.AddLowerBoundRule(x, 2)
	s.AddLowerBoundRule(x, 4)
	s.AddLowerBoundRule(x, 3)
	s.AddUpperBoundRule(x, 8)
	s.AddUpperBoundRule(x, 6)
	s.AddUpperBoundRule(x, 7)
	assert.Equal(t, []rules.Rule{
		{Kind: rules.LowerBound, Target: "x", Bound: 4},
		{Kind: rules.UpperBound, Target: "x", Bound: 6},
	}, s.Rules())
}

func TestUpdateAddsDecisions(t *testing.T) {
	x := variable("x")
	cache := refutation.NewMapCache()
	stale := explain.NewReason()
	stale.AddDecision(opaque("y=1"))
	cache.Set(&decision{id: "x=2"}, stale)
	cache.Set(opaque("x=3"), stale)

	type tc struct {
		Name     string
		Decision explain.Decision
		Expected []explain.Identifier
	}
	for _, tt := range []tc{
		{
			Name:     "taken decision does not use its refutation",
			Decision: &decision{id: "x=2"},
			Expected: []explain.Identifier{"x=2"},
		},
		{
			Name:     "refuted decision brings its refutation",
			Decision: &decision{id: "x=2", refuted: true},
			Expected: []explain.Identifier{"x=2", "y=1"},
		},
		{
			Name:     "opaque decision brings its refutation",
			Decision: opaque("x=3"),
			Expected: []explain.Identifier{"x=3", "y=1"},
		},
		{
			Name:     "decision without refutation",
			Decision: opaque("x=4"),
			Expected: []explain.Identifier{"x=4"},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			s := rules.NewStore(cache)
			s.AddFullDomainRule(x)
			events := single(trail.NewEvent(x, explain.ByDecision(tt.Decision), explain.ValueRemoved, 2, trail.Unused, trail.Unused))
			reason := explain.NewReason()
			require.True(t, s.Match(0, events))
			s.Update(0, events, reason)
			assert.Equal(t, tt.Expected, reason.DecisionIdentifiers())
			assert.Empty(t, reason.PropagatorIdentifiers())
		})
	}
}

func TestUpdateAsksPropagators(t *testing.T) {
	x, y := variable("x"), variable("y")
	p := &recorder{name: "p", id: 4, why: func(rules explain.RuleAdder) {
		rules.AddRemovalRule(y, 1)
	}}
	s := rules.NewStore(nil)
	s.AddFullDomainRule(x)

	events := single(trail.NewEvent(x, explain.ByPropagator(p), explain.ValueRemoved, 1, trail.Unused, trail.Unused))
	reason := explain.NewReason()
	require.True(t, s.Match(0, events))
	s.Update(0, events, reason)

	assert.Equal(t, []call{{Variable: x, Kind: explain.ValueRemoved, Payload: 1}}, p.calls)
	assert.Equal(t, []explain.Identifier{"p"}, reason.PropagatorIdentifiers())
	assert.Equal(t, []rules.Rule{
		{Kind: rules.FullDomain, Target: "x"},
		{Kind: rules.Removal, Target: "y", Values: []int{1}},
	}, s.Rules())
}

func TestUpdateDischargesActivations(t *testing.T) {
	p := &recorder{name: "p", id: 4}
	s := rules.NewStore(nil)
	s.AddActivationRule(p)
	assert.Equal(t, "explain activation of p", s.Rules()[0].String())

	events := single(trail.NewEvent(nil, explain.ByPropagator(p), explain.PropagatorActivated, 4, 0, 0))
	reason := explain.NewReason()
	require.True(t, s.Match(0, events))
	s.Update(0, events, reason)
	assert.True(t, s.Empty())
	assert.True(t, reason.HasPropagator("p"))

	s.AddActivationRule(p)
	assert.True(t, s.Empty(), "a discharged activation is not asked for again")
}

func TestUpdateWithoutCause(t *testing.T) {
	x := variable("x")
	s := rules.NewStore(nil)
	s.AddFullDomainRule(x)
	events := single(trail.NewEvent(x, explain.None(), explain.ValueRemoved, 1, trail.Unused, trail.Unused))
	reason := explain.NewReason()
	s.Update(0, events, reason)
	assert.True(t, reason.Empty())
}

func TestRuleString(t *testing.T) {
	assert.Equal(t, "explain wipe-out of x", rules.Rule{Kind: rules.FullDomain, Target: "x"}.String())
	assert.Equal(t, "explain removal of {1, 3} from x", rules.Rule{Kind: rules.Removal, Target: "x", Values: []int{1, 3}}.String())
	assert.Equal(t, "explain x >= 2", rules.Rule{Kind: rules.LowerBound, Target: "x", Bound: 2}.String())
	assert.Equal(t, "explain x <= 2", rules.Rule{Kind: rules.UpperBound, Target: "x", Bound: 2}.String())
}
