package trail

import (
	"errors"
	"fmt"

	"github.com/adRise/choco-solver/pkg/explain"
)

var (
	// ErrOutOfRange is wrapped by the panic raised on an invalid index.
	ErrOutOfRange = errors.New("trail index out of range")
	// ErrBadCheckpoint is wrapped by the panic raised on an invalid rollback.
	ErrBadCheckpoint = errors.New("invalid trail checkpoint")
)

// Store is the ordered log of events of the current search branch. It is
// an arena: Rollback only resets the logical size, entries past it are
// overwritten by later pushes.
type Store struct {
	events []Event
	size   int
}

// NewStore returns an empty store with room for capacity events.
func NewStore(capacity int) *Store {
	if capacity < 0 {
		capacity = 0
	}
	return &Store{events: make([]Event, 0, capacity)}
}

// Push appends e to the trail.
func (s *Store) Push(e Event) {
	if s.size < len(s.events) {
		s.events[s.size] = e
	} else {
		s.events = append(s.events, e)
	}
	s.size++
}

// PushEvent is a shorthand for Push(NewEvent(...)).
func (s *Store) PushEvent(v explain.Variable, cause explain.Cause, kind explain.EventKind, payload, oldLB, oldUB int) {
	s.Push(NewEvent(v, cause, kind, payload, oldLB, oldUB))
}

func (s *Store) Size() int {
	return s.size
}

// At returns the i-th pushed event of the current branch. It panics if i
// is not in [0, Size()).
func (s *Store) At(i int) Event {
	if i < 0 || i >= s.size {
		panic(fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, s.size))
	}
	return s.events[i]
}

// Checkpoint returns a mark that Rollback can return to.
func (s *Store) Checkpoint() int {
	return s.size
}

// Rollback drops every event pushed after checkpoint was taken. It is
// reserved to the backtracking mechanism of the solver.
func (s *Store) Rollback(checkpoint int) {
	if checkpoint < 0 || checkpoint > s.size {
		panic(fmt.Errorf("%w: %d not in [0, %d]", ErrBadCheckpoint, checkpoint, s.size))
	}
	s.size = checkpoint
}
