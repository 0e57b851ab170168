package nogood

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"

	"github.com/adRise/choco-solver/pkg/explain"
)

const (
	unsatisfiable = -1
)

// Store records refutation reasons as nogoods: clauses stating that the
// decisions of a reason can never hold together. A SAT solver answers
// whether a set of decisions is already known to fail, and which of them
// are to blame.
//
// Decisions are identified by their Identifier. A decision reporting
// itself as refuted (see explain.Refutable) stands for the negative
// literal.
type Store struct {
	g      inter.S
	lits   map[explain.Identifier]z.Lit
	learnt int
	// failed is set once a nogood without decisions was learnt.
	failed bool
}

func NewStore() *Store {
	return &Store{
		g:    gini.New(),
		lits: map[explain.Identifier]z.Lit{},
	}
}

// LitOf returns the literal standing for d as currently taken: positive
// for a decision, negative for a refuted one.
func (s *Store) LitOf(d explain.Decision) z.Lit {
	m, ok := s.lits[d.Identifier()]
	if !ok {
		m = s.g.Lit()
		s.lits[d.Identifier()] = m
	}
	if explain.IsRefuted(d) {
		return m.Not()
	}
	return m
}

// Learn adds the nogood of r. A reason without decisions is a
// contradiction that holds in every branch: it makes every later query
// fail.
func (s *Store) Learn(r *explain.Reason) {
	s.learnt++
	ds := r.Decisions()
	if len(ds) == 0 {
		s.failed = true
		return
	}
	for _, d := range ds {
		s.g.Add(s.LitOf(d).Not())
	}
	s.g.Add(z.LitNull)
}

// Len is the number of nogoods learnt so far.
func (s *Store) Len() int {
	return s.learnt
}

// Refuted reports whether taking every decision of ds together violates
// a learnt nogood. When it does, the returned decisions are a subset of
// ds sufficient for the violation.
func (s *Store) Refuted(ds ...explain.Decision) ([]explain.Decision, bool) {
	if s.failed {
		return nil, true
	}
	assumptions := make([]z.Lit, len(ds))
	byVar := make(map[z.Var]explain.Decision, len(ds))
	for i, d := range ds {
		assumptions[i] = s.LitOf(d)
		byVar[assumptions[i].Var()] = d
	}
	s.g.Assume(assumptions...)
	if s.g.Solve() != unsatisfiable {
		return nil, false
	}
	whys := s.g.Why(nil)
	conflicts := make([]explain.Decision, 0, len(whys))
	for _, why := range whys {
		if d, ok := byVar[why.Var()]; ok {
			conflicts = append(conflicts, d)
		}
	}
	return conflicts, true
}
