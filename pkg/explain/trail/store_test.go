package trail_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adRise/choco-solver/pkg/explain"
	"github.com/adRise/choco-solver/pkg/explain/trail"
)

type variable string

func (v variable) Identifier() explain.Identifier {
	return explain.Identifier(v)
}

func TestRemoved(t *testing.T) {
	x := variable("x")
	type tc struct {
		Name     string
		Event    trail.Event
		Contains []int
		Missing  []int
		Empty    bool
	}

	for _, tt := range []tc{
		{
			Name:     "value removal",
			Event:    trail.NewEvent(x, explain.None(), explain.ValueRemoved, 3, trail.Unused, trail.Unused),
			Contains: []int{3},
			Missing:  []int{2, 4},
		},
		{
			Name:     "lower bound raised",
			Event:    trail.NewEvent(x, explain.None(), explain.LowerBoundRaised, 4, 1, trail.Unused),
			Contains: []int{1, 2, 3},
			Missing:  []int{0, 4},
		},
		{
			Name:     "upper bound lowered",
			Event:    trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 2, trail.Unused, 5),
			Contains: []int{3, 4, 5},
			Missing:  []int{2, 6},
		},
		{
			Name:     "instantiation",
			Event:    trail.NewEvent(x, explain.None(), explain.Instantiated, 2, 0, 4),
			Contains: []int{0, 1, 3, 4},
			Missing:  []int{2, 5, -1},
		},
		{
			Name:  "instantiation of a singleton",
			Event: trail.NewEvent(x, explain.None(), explain.Instantiated, 2, 2, 2),
			Empty: true,
		},
		{
			Name:  "activation",
			Event: trail.NewEvent(nil, explain.None(), explain.PropagatorActivated, 7, 0, 0),
			Empty: true,
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			removed := tt.Event.Removed()
			assert.Equal(t, tt.Empty, removed.Empty())
			for _, v := range tt.Contains {
				assert.True(t, removed.Contains(v), "expected %d to be removed", v)
			}
			for _, v := range tt.Missing {
				assert.False(t, removed.Contains(v), "expected %d not to be removed", v)
			}
		})
	}
}

func TestRemovalBounds(t *testing.T) {
	r := trail.Removal{Lo: 2, Hi: 5, Except: 2, HasExcept: true}
	assert.False(t, r.AnyBelow(3), "only the excepted value lies below 3")
	assert.True(t, r.AnyBelow(4))
	assert.True(t, r.AnyAbove(4))
	assert.False(t, r.AnyAbove(5))

	r = trail.Removal{Lo: 2, Hi: 2}
	assert.False(t, r.AnyBelow(2))
	assert.True(t, r.AnyBelow(3))
	assert.True(t, r.AnyAbove(1))
}

func TestOldBound(t *testing.T) {
	x := variable("x")
	assert.Equal(t, 1, trail.NewEvent(x, explain.None(), explain.LowerBoundRaised, 3, 1, trail.Unused).OldBound())
	assert.Equal(t, 9, trail.NewEvent(x, explain.None(), explain.UpperBoundLowered, 3, trail.Unused, 9).OldBound())
	assert.Equal(t, trail.Unused, trail.NewEvent(x, explain.None(), explain.ValueRemoved, 3, trail.Unused, trail.Unused).OldBound())
}

func TestStore(t *testing.T) {
	x, y := variable("x"), variable("y")
	s := trail.NewStore(1)
	assert.Equal(t, 0, s.Size())

	s.PushEvent(x, explain.None(), explain.ValueRemoved, 1, trail.Unused, trail.Unused)
	cp := s.Checkpoint()
	s.PushEvent(y, explain.None(), explain.ValueRemoved, 2, trail.Unused, trail.Unused)
	s.PushEvent(y, explain.None(), explain.ValueRemoved, 3, trail.Unused, trail.Unused)
	require.Equal(t, 3, s.Size())
	assert.Equal(t, 3, s.At(2).Payload())

	s.Rollback(cp)
	require.Equal(t, 1, s.Size())
	assert.Equal(t, explain.Identifier("x"), s.At(0).Variable().Identifier())

	// slots past the logical size are reused
	s.PushEvent(x, explain.None(), explain.LowerBoundRaised, 5, 2, trail.Unused)
	require.Equal(t, 2, s.Size())
	assert.Equal(t, explain.LowerBoundRaised, s.At(1).Kind())
	assert.Equal(t, 5, s.At(1).Payload())
}

func TestStorePanics(t *testing.T) {
	s := trail.NewStore(0)
	s.PushEvent(variable("x"), explain.None(), explain.ValueRemoved, 1, trail.Unused, trail.Unused)

	for name, fn := range map[string]func(){
		"negative index":     func() { s.At(-1) },
		"index past size":    func() { s.At(1) },
		"negative rollback":  func() { s.Rollback(-1) },
		"rollback past size": func() { s.Rollback(2) },
	} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				require.NotNil(t, r)
				err, ok := r.(error)
				require.True(t, ok)
				assert.True(t, errors.Is(err, trail.ErrOutOfRange) || errors.Is(err, trail.ErrBadCheckpoint))
			}()
			fn()
		})
	}
}
