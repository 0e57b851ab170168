package refutation

import (
	"github.com/adRise/choco-solver/pkg/explain"
)

// Cache maps a refuted decision to the reason that justified its
// refutation.
type Cache interface {
	Get(d explain.Decision) (*explain.Reason, bool)
	Set(d explain.Decision, r *explain.Reason)
	Delete(d explain.Decision)
	Iterate(func(d explain.Decision, r *explain.Reason) error) error
	Len() int
}

var _ Cache = &MapCache{}

type entry struct {
	decision explain.Decision
	reason   *explain.Reason
}

// MapCache is a Cache backed by a map keyed on decision identifiers. It
// is not safe for concurrent use; the solver owning it is single-threaded.
type MapCache struct {
	cache map[explain.Identifier]entry
}

func NewMapCache() *MapCache {
	return &MapCache{
		cache: map[explain.Identifier]entry{},
	}
}

func (m *MapCache) Get(d explain.Decision) (*explain.Reason, bool) {
	e, ok := m.cache[d.Identifier()]
	return e.reason, ok
}

// Set records a copy of r, so later growth of r does not leak into the
// cache.
func (m *MapCache) Set(d explain.Decision, r *explain.Reason) {
	if r == nil {
		r = explain.NewReason()
	}
	m.cache[d.Identifier()] = entry{decision: d, reason: r.Copy()}
}

func (m *MapCache) Delete(d explain.Decision) {
	delete(m.cache, d.Identifier())
}

func (m *MapCache) Iterate(fn func(d explain.Decision, r *explain.Reason) error) error {
	for _, e := range m.cache {
		if err := fn(e.decision, e.reason); err != nil {
			return err
		}
	}
	return nil
}

func (m *MapCache) Len() int {
	return len(m.cache)
}
