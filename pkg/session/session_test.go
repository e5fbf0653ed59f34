package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blogic/udrone/pkg/wire"
)

func TestNewSessionStartsDefault(t *testing.T) {
	s := New()
	require.Equal(t, Default, s.State())
	require.Equal(t, GroupDefault, s.Group())
}

func TestAssignMovesToAssigned(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(10)))
	require.Equal(t, Assigned, s.State())
	require.Equal(t, "board-a", s.Group())
	require.Equal(t, uint32(10), s.AssignedSeq())
}

func TestAssignWithoutSeqKeepsCurrentValue(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(10)))
	s.IncrementSeq()

	s.Assign("board-b", wire.None[uint32]())
	require.Equal(t, "board-b", s.Group())
	require.Equal(t, uint32(11), s.AssignedSeq(), "assigned_seq must survive a reassign with no seq field")
}

func TestIncrementSeq(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(10)))
	s.IncrementSeq()
	require.Equal(t, uint32(11), s.AssignedSeq())
}

func TestHandleTimeoutTwoStageDemotion(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(1)))

	state, ch := s.HandleTimeout()
	require.Equal(t, Lost, state)
	require.NotNil(t, ch)
	require.Equal(t, GroupLost, s.Group(), "group tag moves to the reserved lost group on first demotion")

	state, ch = s.HandleTimeout()
	require.Equal(t, Default, state)
	require.Nil(t, ch)
	require.Equal(t, GroupDefault, s.Group())
	require.Equal(t, uint32(0), s.AssignedSeq())
}

func TestHandleTimeoutNoopFromDefault(t *testing.T) {
	s := New()
	state, ch := s.HandleTimeout()
	require.Equal(t, Default, state)
	require.Nil(t, ch)
}

func TestForceTimeoutFromAssigned(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(1)))
	state := s.ForceTimeout()
	require.Equal(t, Lost, state)
}

func TestResetReturnsToDefault(t *testing.T) {
	s := New()
	s.Assign("board-a", wire.Some(uint32(5)))
	s.Reset()
	require.Equal(t, Default, s.State())
	require.Equal(t, GroupDefault, s.Group())
	require.Equal(t, uint32(0), s.AssignedSeq())
}
