package pigeons

import (
	"fmt"

	"github.com/adRise/choco-solver/internal/fd"
	"github.com/adRise/choco-solver/pkg/explain"
)

// NewPigeons posts the problem of placing pigeons into holes, at most one
// pigeon per hole. With more pigeons than holes it has no solution.
func NewPigeons(s *fd.Solver, pigeons, holes int, alldiff bool) ([]*fd.IntVar, error) {
	if pigeons < 1 || holes < 1 {
		return nil, fmt.Errorf("need at least one pigeon and one hole, got %d and %d", pigeons, holes)
	}
	vars := make([]*fd.IntVar, pigeons)
	for i := range vars {
		v, err := s.IntVar(explain.Identifier(fmt.Sprintf("p%d", i)), 0, holes-1)
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	for i := range vars {
		for j := i + 1; j < len(vars); j++ {
			s.Post(fd.NotEqual(vars[i], vars[j]))
		}
	}
	if alldiff {
		s.Post(fd.AllDifferent(vars...))
	}
	return vars, nil
}
