package engine

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/adRise/choco-solver/internal/metrics"
	"github.com/adRise/choco-solver/internal/nogood"
	"github.com/adRise/choco-solver/internal/refutation"
	"github.com/adRise/choco-solver/internal/rules"
	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

var _ explain.Observer = &Engine{}

// Engine is an asynchronous, reverse, low-intrusive and lazy explanation
// engine. It records every domain modification of its host solver on a
// trail and, when a contradiction occurs, walks that trail backward to
// find the decisions and propagators responsible for it. Propagators
// are only asked to justify their inferences when the walk reaches one.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	events      *trail.Store
	rules       *rules.Store
	refutations refutation.Cache
	nogoods     *nogood.Store

	log           logr.Logger
	tracer        explain.Tracer
	metrics       *metrics.Metrics
	capacity      int
	recordNogoods bool
}

// New builds an engine and registers it as the observer of host. Only
// one engine may be registered per host.
func New(host explain.Host, options ...Option) (*Engine, error) {
	e := Engine{}
	for _, option := range append(options, defaults...) {
		if err := option(&e); err != nil {
			return nil, err
		}
	}
	e.events = trail.NewStore(e.capacity)
	e.refutations = refutation.NewMapCache()
	e.rules = rules.NewStore(e.refutations)
	if e.recordNogoods {
		e.nogoods = nogood.NewStore()
	}
	host.SetObserver(&e)
	return &e, nil
}

// Trail returns the event store of the engine. The backtracking mechanism
// of the host uses its Checkpoint and Rollback to keep it in line with
// the current search branch.
func (e *Engine) Trail() *trail.Store {
	return e.events
}

// Explain computes the reason of c, a contradiction raised by the last
// event of the trail: the (sub)set of decisions and propagators that
// explains it. Explain panics if c is neither a wipe-out nor a
// propagator failure.
func (e *Engine) Explain(c explain.Contradiction) *explain.Reason {
	if err := c.Validate(); err != nil {
		panic(fmt.Errorf("explain: %w", err))
	}
	reason := explain.NewReason()
	e.rules.Clear()

	seed := "propagator"
	if c.IsWipeOut() {
		seed = "wipe_out"
		e.rules.AddFullDomainRule(c.Variable)
	} else {
		c.Propagator.Why(e.rules.Adder(), nil, explain.Void, 0)
	}
	size := e.events.Size()
	e.log.V(1).Info("explaining contradiction", "contradiction", c.Error(), "seed", seed, "rules", e.rules.Len(), "trail", size)

	// The walk does not stop once the rules run out: a later match may
	// still refine them.
	matched := 0
	for i := size - 1; i >= 0; i-- {
		e.metrics.EventsWalkedTotal.Inc()
		if !e.rules.Match(i, e.events) {
			continue
		}
		e.rules.Update(i, e.events, reason)
		matched++
		if log := e.log.V(2); log.Enabled() {
			log.Info("event matched", "index", i, "event", e.events.At(i).String())
		}
		e.tracer.Trace(&position{index: i, event: e.events.At(i), rules: e.rules, reason: reason})
	}

	e.metrics.ExplanationsTotal.WithLabelValues(seed).Inc()
	e.metrics.EventsMatchedTotal.Add(float64(matched))
	e.metrics.ReasonSize.WithLabelValues("decisions").Observe(float64(len(reason.Decisions())))
	e.metrics.ReasonSize.WithLabelValues("propagators").Observe(float64(len(reason.Propagators())))
	e.metrics.TrailSize.Set(float64(size))
	e.log.V(1).Info("contradiction explained", "matched", matched, "reason", reason.String())
	return reason
}

// StoreDecisionRefutation records that d was refuted because of reason.
func (e *Engine) StoreDecisionRefutation(d explain.Decision, reason *explain.Reason) {
	e.refutations.Set(d, reason)
	e.metrics.RefutationsTotal.Inc()
	if e.nogoods != nil {
		e.nogoods.Learn(reason)
	}
	e.log.V(1).Info("decision refuted", "decision", d.Identifier(), "reason", reason.String())
}

// Refutation returns the reason stored for the refutation of d.
func (e *Engine) Refutation(d explain.Decision) (*explain.Reason, bool) {
	return e.refutations.Get(d)
}

// IterateRefutations calls fn with every stored refutation, in no
// particular order, and stops at the first error fn returns.
func (e *Engine) IterateRefutations(fn func(d explain.Decision, reason *explain.Reason) error) error {
	return e.refutations.Iterate(fn)
}

// ForgetRefutation drops the refutation of d, for instance when the
// search pops d off its decision path.
func (e *Engine) ForgetRefutation(d explain.Decision) {
	e.refutations.Delete(d)
}

// Refuted reports whether taking every decision of ds together is known
// to fail from the refutations stored so far, and which of them are to
// blame. It always answers false unless the engine records nogoods.
func (e *Engine) Refuted(ds ...explain.Decision) ([]explain.Decision, bool) {
	if e.nogoods == nil {
		return nil, false
	}
	return e.nogoods.Refuted(ds...)
}

// RemoveValue records that value was removed from v.
func (e *Engine) RemoveValue(v explain.Variable, value int, cause explain.Cause) {
	e.events.PushEvent(v, cause, explain.ValueRemoved, value, trail.Unused, trail.Unused)
}

// UpdateLowerBound records that the lower bound of v went from old to
// value.
func (e *Engine) UpdateLowerBound(v explain.Variable, old, value int, cause explain.Cause) {
	e.events.PushEvent(v, cause, explain.LowerBoundRaised, value, old, trail.Unused)
}

// UpdateUpperBound records that the upper bound of v went from old to
// value.
func (e *Engine) UpdateUpperBound(v explain.Variable, old, value int, cause explain.Cause) {
	e.events.PushEvent(v, cause, explain.UpperBoundLowered, value, trail.Unused, old)
}

// InstantiateTo records that v, previously in [oldLB, oldUB], was fixed
// to value.
func (e *Engine) InstantiateTo(v explain.Variable, value int, cause explain.Cause, oldLB, oldUB int) {
	e.events.PushEvent(v, cause, explain.Instantiated, value, oldLB, oldUB)
}

// ActivatePropagator records that p was activated through v.
func (e *Engine) ActivatePropagator(v explain.Variable, p explain.Propagator) {
	e.events.PushEvent(v, explain.ByPropagator(p), explain.PropagatorActivated, p.ID(), 0, 0)
}

// position is the WalkPosition handed to the tracer.
type position struct {
	index  int
	event  trail.Event
	rules  *rules.Store
	reason *explain.Reason
}

var _ explain.WalkPosition = &position{}

func (p *position) Index() int { return p.index }
func (p *position) Variable() explain.Variable { return p.event.Variable() }
func (p *position) Kind() explain.EventKind { return p.event.Kind() }
func (p *position) Payload() int { return p.event.Payload() }
func (p *position) Cause() explain.Cause { return p.event.Cause() }
func (p *position) Reason() *explain.Reason { return p.reason }

func (p *position) Rules() []string {
	rs := p.rules.Rules()
	s := make([]string, len(rs))
	for i, r := range rs {
		s[i] = r.String()
	}
	return s
}
