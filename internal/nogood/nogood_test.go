package nogood_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adRise/choco-solver/internal/nogood"
	"github.com/adRise/choco-solver/pkg/explain"
)

type decision struct {
	id      string
	refuted bool
}

func (d decision) Identifier() explain.Identifier {
	return explain.Identifier(d.id)
}

func (d decision) Refuted() bool {
	return d.refuted
}

func taken(id string) decision {
	return decision{id: id}
}

func negated(id string) decision {
	return decision{id: id, refuted: true}
}

func reasonOf(ds ...explain.Decision) *explain.Reason {
	r := explain.NewReason()
	for _, d := range ds {
		r.AddDecision(d)
	}
	return r
}

func TestRefuted(t *testing.T) {
	type tc struct {
		Name     string
		Learnt   []*explain.Reason
		Query    []explain.Decision
		Refuted  bool
		Conflict []explain.Identifier
	}

	for _, tt := range []tc{
		{
			Name:  "nothing learnt",
			Query: []explain.Decision{taken("x=1")},
		},
		{
			Name:   "part of a nogood",
			Learnt: []*explain.Reason{reasonOf(taken("x=1"), taken("y=2"))},
			Query:  []explain.Decision{taken("x=1")},
		},
		{
			Name:     "whole nogood",
			Learnt:   []*explain.Reason{reasonOf(taken("x=1"), taken("y=2"))},
			Query:    []explain.Decision{taken("z=0"), taken("y=2"), taken("x=1")},
			Refuted:  true,
			Conflict: []explain.Identifier{"x=1", "y=2"},
		},
		{
			Name:   "opposite sign",
			Learnt: []*explain.Reason{reasonOf(taken("x=1"), taken("y=2"))},
			Query:  []explain.Decision{negated("x=1"), taken("y=2")},
		},
		{
			Name:     "negated decisions",
			Learnt:   []*explain.Reason{reasonOf(negated("x=1"), taken("y=2"))},
			Query:    []explain.Decision{negated("x=1"), taken("y=2")},
			Refuted:  true,
			Conflict: []explain.Identifier{"x=1", "y=2"},
		},
		{
			Name: "resolution of two nogoods",
			Learnt: []*explain.Reason{
				reasonOf(taken("x=1"), taken("y=2")),
				reasonOf(negated("x=1"), taken("y=2")),
			},
			Query:    []explain.Decision{taken("y=2")},
			Refuted:  true,
			Conflict: []explain.Identifier{"y=2"},
		},
		{
			Name:    "empty nogood",
			Learnt:  []*explain.Reason{explain.NewReason()},
			Query:   []explain.Decision{taken("x=1")},
			Refuted: true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			s := nogood.NewStore()
			for _, r := range tt.Learnt {
				s.Learn(r)
			}
			assert.Equal(t, len(tt.Learnt), s.Len())

			conflict, refuted := s.Refuted(tt.Query...)
			assert.Equal(t, tt.Refuted, refuted)
			if tt.Conflict != nil {
				ids := make([]explain.Identifier, len(conflict))
				for i, d := range conflict {
					ids[i] = d.Identifier()
				}
				assert.ElementsMatch(t, tt.Conflict, ids)
			}
		})
	}
}

func TestRefutedIsIncremental(t *testing.T) {
	s := nogood.NewStore()
	_, refuted := s.Refuted(taken("x=1"), taken("y=2"))
	assert.False(t, refuted)

	s.Learn(reasonOf(taken("x=1"), taken("y=2")))
	_, refuted = s.Refuted(taken("x=1"), taken("y=2"))
	assert.True(t, refuted)

	// assumptions do not outlive a query
	_, refuted = s.Refuted(taken("y=2"))
	assert.False(t, refuted)
}
