package replay

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/engine"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

// Scenario is a recorded trail together with the contradiction that
// ended it. Propagators are scripted: they answer every Why query with a
// fixed list of rules.
type Scenario struct {
	Variables     []string          `yaml:"variables"`
	Decisions     []string          `yaml:"decisions"`
	Propagators   []PropagatorSpec  `yaml:"propagators"`
	Trail         []EventSpec       `yaml:"trail"`
	Contradiction ContradictionSpec `yaml:"contradiction"`
}

type PropagatorSpec struct {
	Name string `yaml:"name"`
	// Why lists the rules pushed when an event caused by the propagator
	// is explained.
	Why []RuleSpec `yaml:"why"`
	// Fail lists the rules pushed when the propagator is the source of
	// the contradiction.
	Fail []RuleSpec `yaml:"fail"`
}

type RuleSpec struct {
	Kind       string `yaml:"kind"`
	Variable   string `yaml:"variable"`
	Value      int    `yaml:"value"`
	Propagator string `yaml:"propagator"`
}

type EventSpec struct {
	Variable   string `yaml:"variable"`
	Decision   string `yaml:"decision"`
	Propagator string `yaml:"propagator"`
	Kind       string `yaml:"kind"`
	Payload    int    `yaml:"payload"`
	Old        int    `yaml:"old"`
	OldLB      int    `yaml:"oldLB"`
	OldUB      int    `yaml:"oldUB"`
}

type ContradictionSpec struct {
	Variable   string `yaml:"variable"`
	Propagator string `yaml:"propagator"`
}

// NewScenario decodes a YAML scenario. Unknown fields are rejected.
func NewScenario(r io.Reader) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty scenario")
		}
		return nil, fmt.Errorf("error decoding scenario: %w", err)
	}
	return &s, nil
}

type variable explain.Identifier

func (v variable) Identifier() explain.Identifier { return explain.Identifier(v) }

type decision explain.Identifier

func (d decision) Identifier() explain.Identifier { return explain.Identifier(d) }

// scripted is a propagator replaying the rules of its PropagatorSpec.
type scripted struct {
	id   int
	spec PropagatorSpec
	w    *world
}

func (p *scripted) Identifier() explain.Identifier { return explain.Identifier(p.spec.Name) }
func (p *scripted) ID() int { return p.id }

func (p *scripted) Why(rules explain.RuleAdder, _ explain.Variable, kind explain.EventKind, _ int) {
	specs := p.spec.Why
	if kind == explain.Void {
		specs = p.spec.Fail
	}
	for _, r := range specs {
		// rules were validated when the world was built
		_ = p.w.push(rules, r)
	}
}

// world resolves the names of a scenario.
type world struct {
	variables   map[string]variable
	decisions   map[string]decision
	propagators map[string]*scripted
}

func newWorld(s *Scenario) (*world, error) {
	w := &world{
		variables:   map[string]variable{},
		decisions:   map[string]decision{},
		propagators: map[string]*scripted{},
	}
	for _, name := range s.Variables {
		w.variables[name] = variable(name)
	}
	for _, name := range s.Decisions {
		w.decisions[name] = decision(name)
	}
	for i, spec := range s.Propagators {
		if _, ok := w.propagators[spec.Name]; ok {
			return nil, fmt.Errorf("duplicate propagator %q", spec.Name)
		}
		w.propagators[spec.Name] = &scripted{id: i, spec: spec, w: w}
	}
	for _, p := range w.propagators {
		for _, r := range append(append([]RuleSpec{}, p.spec.Why...), p.spec.Fail...) {
			if err := w.push(nil, r); err != nil {
				return nil, fmt.Errorf("propagator %q: %w", p.spec.Name, err)
			}
		}
	}
	return w, nil
}

// push adds r to rules. A nil rules only validates r.
func (w *world) push(rules explain.RuleAdder, r RuleSpec) error {
	if r.Kind == "activation" {
		p, ok := w.propagators[r.Propagator]
		if !ok {
			return fmt.Errorf("unknown propagator %q", r.Propagator)
		}
		if rules != nil {
			rules.AddActivationRule(p)
		}
		return nil
	}
	v, ok := w.variables[r.Variable]
	if !ok {
		return fmt.Errorf("unknown variable %q", r.Variable)
	}
	var add func()
	switch r.Kind {
	case "full":
		add = func() { rules.AddFullDomainRule(v) }
	case "removal":
		add = func() { rules.AddRemovalRule(v, r.Value) }
	case "lower-bound":
		add = func() { rules.AddLowerBoundRule(v, r.Value) }
	case "upper-bound":
		add = func() { rules.AddUpperBoundRule(v, r.Value) }
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
	if rules != nil {
		add()
	}
	return nil
}

func (w *world) cause(e EventSpec) (explain.Cause, error) {
	switch {
	case e.Decision != "" && e.Propagator != "":
		return explain.None(), fmt.Errorf("event on %q has two causes", e.Variable)
	case e.Decision != "":
		d, ok := w.decisions[e.Decision]
		if !ok {
			return explain.None(), fmt.Errorf("unknown decision %q", e.Decision)
		}
		return explain.ByDecision(d), nil
	case e.Propagator != "":
		p, ok := w.propagators[e.Propagator]
		if !ok {
			return explain.None(), fmt.Errorf("unknown propagator %q", e.Propagator)
		}
		return explain.ByPropagator(p), nil
	}
	return explain.None(), nil
}

// host is the single-slot solver stand-in the engine registers with.
type host struct {
	observer explain.Observer
}

func (h *host) SetObserver(o explain.Observer) {
	if h.observer != nil {
		panic(explain.ErrObserverRegistered)
	}
	h.observer = o
}

// Replay pushes the trail of s through a fresh engine and explains its
// contradiction.
func Replay(s *Scenario, options ...engine.Option) (*explain.Reason, *trail.Store, error) {
	w, err := newWorld(s)
	if err != nil {
		return nil, nil, err
	}
	h := &host{}
	e, err := engine.New(h, options...)
	if err != nil {
		return nil, nil, err
	}
	for i, spec := range s.Trail {
		if err := w.record(h.observer, spec); err != nil {
			return nil, nil, fmt.Errorf("trail event %d: %w", i, err)
		}
	}
	c, err := w.contradiction(s.Contradiction)
	if err != nil {
		return nil, nil, err
	}
	return e.Explain(c), e.Trail(), nil
}

func (w *world) record(o explain.Observer, spec EventSpec) error {
	cause, err := w.cause(spec)
	if err != nil {
		return err
	}
	if spec.Kind == "activate" {
		p := cause.Propagator()
		if p == nil {
			return errors.New("activate event without a propagator")
		}
		var v explain.Variable
		if spec.Variable != "" {
			known, ok := w.variables[spec.Variable]
			if !ok {
				return fmt.Errorf("unknown variable %q", spec.Variable)
			}
			v = known
		}
		o.ActivatePropagator(v, p)
		return nil
	}
	v, ok := w.variables[spec.Variable]
	if !ok {
		return fmt.Errorf("unknown variable %q", spec.Variable)
	}
	switch spec.Kind {
	case "remove":
		o.RemoveValue(v, spec.Payload, cause)
	case "inclow":
		o.UpdateLowerBound(v, spec.Old, spec.Payload, cause)
	case "decupp":
		o.UpdateUpperBound(v, spec.Old, spec.Payload, cause)
	case "instantiate":
		o.InstantiateTo(v, spec.Payload, cause, spec.OldLB, spec.OldUB)
	default:
		return fmt.Errorf("unknown event kind %q", spec.Kind)
	}
	return nil
}

func (w *world) contradiction(spec ContradictionSpec) (explain.Contradiction, error) {
	var c explain.Contradiction
	if spec.Variable != "" {
		v, ok := w.variables[spec.Variable]
		if !ok {
			return c, fmt.Errorf("unknown variable %q", spec.Variable)
		}
		c.Variable = v
	}
	if spec.Propagator != "" {
		p, ok := w.propagators[spec.Propagator]
		if !ok {
			return c, fmt.Errorf("unknown propagator %q", spec.Propagator)
		}
		c.Propagator = p
	}
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}
