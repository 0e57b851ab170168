package fd

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

type DuplicateIdentifier explain.Identifier

func (e DuplicateIdentifier) Error() string {
	return fmt.Sprintf("duplicate identifier %q in input", explain.Identifier(e))
}

// Explainer is the part of an explanation engine the search relies on.
type Explainer interface {
	explain.Observer
	Trail() *trail.Store
	Explain(c explain.Contradiction) *explain.Reason
	StoreDecisionRefutation(d explain.Decision, r *explain.Reason)
}

// nogoodChecker is implemented by explainers that turn refutations into
// nogoods.
type nogoodChecker interface {
	Refuted(ds ...explain.Decision) ([]explain.Decision, bool)
}

// Propagator is a constraint of the solver. Propagate filters the domains
// of its variables through the modification methods of the solver and
// returns the contradiction they raised, if any.
type Propagator interface {
	explain.Propagator
	Propagate(s *Solver) error
	setID(id int)
}

var _ explain.Host = &Solver{}

// Solver is a small finite domain solver: a fix-point propagation loop
// and a depth-first search with binary branching. When an Explainer is
// registered as its observer, failures are explained and the search
// jumps back over decisions that are not part of the explanation.
type Solver struct {
	vars      []*IntVar
	ids       map[explain.Identifier]*IntVar
	props     []Propagator
	observer  explain.Observer
	explainer Explainer
	undo      []domainState
	path      []*Decision

	modifications int
	stats         Stats
	log           logr.Logger
}

// Stats counts what happened during a search.
type Stats struct {
	Nodes        int
	Failures     int
	Backjumps    int
	Refutations  int
	Explanations int
	// Pruned counts decisions skipped because a nogood refuted them.
	Pruned int
}

// Result is the outcome of Solve. Reason explains an unsatisfiable
// problem when an Explainer is registered.
type Result struct {
	Satisfiable bool
	Solution    map[explain.Identifier]int
	Reason      *explain.Reason
	Stats       Stats
}

type Option func(s *Solver) error

func WithLogger(log logr.Logger) Option {
	return func(s *Solver) error {
		s.log = log
		return nil
	}
}

func NewSolver(options ...Option) (*Solver, error) {
	s := Solver{ids: map[explain.Identifier]*IntVar{}}
	for _, option := range options {
		if err := option(&s); err != nil {
			return nil, err
		}
	}
	if s.log.GetSink() == nil {
		s.log = logr.Discard()
	}
	return &s, nil
}

// SetObserver registers the single observer of the solver. It panics if
// one is already registered.
func (s *Solver) SetObserver(o explain.Observer) {
	if s.observer != nil {
		panic(fmt.Errorf("set observer: %w", explain.ErrObserverRegistered))
	}
	s.observer = o
	if e, ok := o.(Explainer); ok {
		s.explainer = e
	}
}

// IntVar creates a variable with domain [lb, ub].
func (s *Solver) IntVar(id explain.Identifier, lb, ub int) (*IntVar, error) {
	if _, ok := s.ids[id]; ok {
		return nil, DuplicateIdentifier(id)
	}
	if lb > ub {
		return nil, fmt.Errorf("empty domain [%d, %d] for %q", lb, ub, id)
	}
	v := newIntVar(id, lb, ub)
	s.ids[id] = v
	s.vars = append(s.vars, v)
	return v, nil
}

// Post adds p to the constraints of the problem.
func (s *Solver) Post(p Propagator) {
	p.setID(len(s.props))
	s.props = append(s.props, p)
}

func (s *Solver) Vars() []*IntVar {
	return s.vars
}

func (s *Solver) save(v *IntVar) {
	s.undo = append(s.undo, v.save())
	s.modifications++
}

// RemoveValue removes value from v.
func (s *Solver) RemoveValue(v *IntVar, value int, cause explain.Cause) error {
	if !v.Contains(value) {
		return nil
	}
	s.save(v)
	if v.size == 1 {
		v.clear()
	} else {
		v.remove(value)
	}
	if s.observer != nil {
		s.observer.RemoveValue(v, value, cause)
	}
	return wipeOut(v)
}

// UpdateLowerBound removes every value of v below value.
func (s *Solver) UpdateLowerBound(v *IntVar, value int, cause explain.Cause) error {
	if v.size == 0 || value <= v.lb {
		return nil
	}
	old := v.lb
	s.save(v)
	if value > v.ub {
		v.clear()
	} else {
		for x := v.lb; x < value; x++ {
			if v.Contains(x) {
				v.values[x-v.offset] = false
				v.size--
			}
		}
		v.lb = value
		for !v.Contains(v.lb) {
			v.lb++
		}
	}
	// The event carries the requested bound: values between it and the
	// new lower bound were removed earlier, by other causes.
	if s.observer != nil {
		s.observer.UpdateLowerBound(v, old, value, cause)
	}
	return wipeOut(v)
}

// UpdateUpperBound removes every value of v above value.
func (s *Solver) UpdateUpperBound(v *IntVar, value int, cause explain.Cause) error {
	if v.size == 0 || value >= v.ub {
		return nil
	}
	old := v.ub
	s.save(v)
	if value < v.lb {
		v.clear()
	} else {
		for x := v.ub; x > value; x-- {
			if v.Contains(x) {
				v.values[x-v.offset] = false
				v.size--
			}
		}
		v.ub = value
		for !v.Contains(v.ub) {
			v.ub--
		}
	}
	// As for lower bounds, only the values this call removed are
	// recorded.
	if s.observer != nil {
		s.observer.UpdateUpperBound(v, old, value, cause)
	}
	return wipeOut(v)
}

// InstantiateTo removes every value of v but value.
func (s *Solver) InstantiateTo(v *IntVar, value int, cause explain.Cause) error {
	if v.IsInstantiated() && v.Value() == value {
		return nil
	}
	oldLB, oldUB := v.lb, v.ub
	s.save(v)
	if !v.Contains(value) {
		v.clear()
	} else {
		for i := range v.values {
			v.values[i] = false
		}
		v.values[value-v.offset] = true
		v.lb, v.ub, v.size = value, value, 1
	}
	if s.observer != nil {
		s.observer.InstantiateTo(v, value, cause, oldLB, oldUB)
	}
	return wipeOut(v)
}

func wipeOut(v *IntVar) error {
	if v.size == 0 {
		return explain.WipeOut(v)
	}
	return nil
}

// mark is a point the solver can backtrack to.
type mark struct {
	undo   int
	events int
}

func (s *Solver) checkpoint() mark {
	m := mark{undo: len(s.undo)}
	if s.explainer != nil {
		m.events = s.explainer.Trail().Checkpoint()
	}
	return m
}

func (s *Solver) rollback(m mark) {
	for i := len(s.undo) - 1; i >= m.undo; i-- {
		s.undo[i].restore()
	}
	s.undo = s.undo[:m.undo]
	if s.explainer != nil {
		s.explainer.Trail().Rollback(m.events)
	}
}

// Propagate runs every propagator until none of them modifies a domain.
func (s *Solver) Propagate() error {
	for {
		before := s.modifications
		for _, p := range s.props {
			if err := p.Propagate(s); err != nil {
				return err
			}
		}
		if s.modifications == before {
			return nil
		}
	}
}

// Solve searches for a solution.
func (s *Solver) Solve() (Result, error) {
	s.stats = Stats{}
	if s.observer != nil {
		for _, p := range s.props {
			s.observer.ActivatePropagator(nil, p)
		}
	}
	ok, reason, err := s.search()
	if err != nil {
		return Result{}, err
	}
	result := Result{Satisfiable: ok, Stats: s.stats}
	if ok {
		result.Solution = make(map[explain.Identifier]int, len(s.vars))
		for _, v := range s.vars {
			result.Solution[v.id] = v.Value()
		}
	} else {
		result.Reason = reason
	}
	return result, nil
}

func (s *Solver) nextVar() *IntVar {
	for _, v := range s.vars {
		if !v.IsInstantiated() {
			return v
		}
	}
	return nil
}

func (s *Solver) search() (bool, *explain.Reason, error) {
	s.stats.Nodes++
	if err := s.Propagate(); err != nil {
		return s.fail(err)
	}
	v := s.nextVar()
	if v == nil {
		return true, nil, nil
	}

	d := &Decision{id: explain.Identifier(fmt.Sprintf("%s=%d", v.id, v.LB())), variable: v, value: v.LB()}
	m := s.checkpoint()

	var (
		ok     bool
		reason *explain.Reason
		err    error
	)
	if conflict, refuted := s.refuted(d); refuted {
		// a learnt nogood already rules d out on this path
		s.stats.Pruned++
		reason = explain.NewReason()
		for _, c := range conflict {
			reason.AddDecision(c)
		}
	} else {
		s.path = append(s.path, d)
		ok, reason, err = s.branch(m, func() error {
			return s.InstantiateTo(v, d.value, explain.ByDecision(d))
		})
		s.path = s.path[:len(s.path)-1]
		if ok || err != nil {
			return ok, reason, err
		}
	}
	if reason != nil && !reason.HasDecision(d.id) {
		// d played no part in the failure: jump back over it.
		s.stats.Backjumps++
		s.log.V(1).Info("backjump", "decision", d.String(), "reason", reason.String())
		return false, reason, nil
	}

	s.stats.Refutations++
	if s.explainer != nil && reason != nil {
		s.explainer.StoreDecisionRefutation(d, reason)
	}
	d.refuted = true
	s.path = append(s.path, d)
	ok, reason, err = s.branch(m, func() error {
		return s.RemoveValue(v, d.value, explain.ByDecision(d))
	})
	s.path = s.path[:len(s.path)-1]
	if ok || err != nil {
		return ok, reason, err
	}
	return false, withoutDecision(reason, d), nil
}

// refuted asks the explainer, when it records nogoods, whether d together
// with the decisions of the current path is known to fail.
func (s *Solver) refuted(d *Decision) ([]explain.Decision, bool) {
	nc, ok := s.explainer.(nogoodChecker)
	if !ok {
		return nil, false
	}
	ds := make([]explain.Decision, 0, len(s.path)+1)
	for _, p := range s.path {
		ds = append(ds, p)
	}
	return nc.Refuted(append(ds, d)...)
}

// branch applies a decision and searches below it. On failure the
// domains and the trail are restored to m.
func (s *Solver) branch(m mark, apply func() error) (bool, *explain.Reason, error) {
	var (
		ok     bool
		reason *explain.Reason
		err    error
	)
	if aerr := apply(); aerr != nil {
		ok, reason, err = s.fail(aerr)
	} else {
		ok, reason, err = s.search()
	}
	if ok || err != nil {
		return ok, reason, err
	}
	s.rollback(m)
	return false, reason, nil
}

// fail explains a contradiction before anything is undone. Errors other
// than contradictions are returned as is.
func (s *Solver) fail(err error) (bool, *explain.Reason, error) {
	var c explain.Contradiction
	if !errors.As(err, &c) {
		return false, nil, err
	}
	s.stats.Failures++
	if s.explainer == nil {
		return false, nil, nil
	}
	s.stats.Explanations++
	reason := s.explainer.Explain(c)
	s.log.V(2).Info("failure", "contradiction", c.Error(), "reason", reason.String(), "depth", len(s.path))
	return false, reason, nil
}

// withoutDecision returns the decisions and propagators of r but d. Both
// branches of d failed, so d is no longer part of what explains the
// failure.
func withoutDecision(r *explain.Reason, d explain.Decision) *explain.Reason {
	if r == nil {
		return nil
	}
	out := explain.NewReason()
	for _, x := range r.Decisions() {
		if x.Identifier() != d.Identifier() {
			out.AddDecision(x)
		}
	}
	for _, p := range r.Propagators() {
		out.AddPropagator(p)
	}
	return out
}
