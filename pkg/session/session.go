// Package session tracks the drone's assignment state machine: which
// controller currently owns it, what sequence number it last accepted, and
// the liveness timer that demotes a stale assignment back through LOST to
// DEFAULT.
package session

import (
	"time"

	"github.com/blogic/udrone/pkg/wire"
)

// State is one of the three assignment states a drone can be in.
type State int

const (
	// Default is the unassigned, unclaimed state every drone starts in.
	Default State = iota
	// Assigned means a controller currently owns this drone and its
	// sequence counter is being tracked.
	Assigned
	// Lost means the assignment's liveness timer expired once; a second
	// expiry without a renewing frame drops back to Default.
	Lost
)

func (s State) String() string {
	switch s {
	case Default:
		return "DEFAULT"
	case Assigned:
		return "ASSIGNED"
	case Lost:
		return "LOST"
	default:
		return "UNKNOWN"
	}
}

// LivenessTimeout is the interval after which an unrenewed assignment moves
// one step toward Default.
const LivenessTimeout = 60 * time.Second

const (
	// GroupDefault is the reserved group name a session holds before it has
	// ever been assigned, or once a lost assignment times out a second time.
	GroupDefault = "!all-default"
	// GroupLost is the reserved group name a session holds after its first
	// liveness-timer expiry, before the second expiry drops it to Default.
	GroupLost = "!all-lost"
)

// Session is the mutable assignment state for one drone. It is not
// goroutine-safe; callers own it from a single event loop, the same
// single-threaded-access discipline the teacher's dispatch loop uses for its
// consumer/provider maps.
type Session struct {
	state       State
	group       string
	assignedSeq uint32
	timer       *time.Timer
}

// New returns a session in the Default state with no timer armed.
func New() *Session {
	return &Session{state: Default, group: GroupDefault}
}

// State returns the current assignment state.
func (s *Session) State() State {
	return s.state
}

// Group returns the group name the agent currently answers to: the
// assigned group while Assigned, GroupLost while Lost, GroupDefault while
// Default.
func (s *Session) Group() string {
	return s.group
}

// AssignedSeq returns the last sequence number accepted from the owning
// controller.
func (s *Session) AssignedSeq() uint32 {
	return s.assignedSeq
}

// Assign claims the session for group and (re)arms the liveness timer. seq
// is only applied when defined: a !assign with no seq field leaves
// assignedSeq at whatever it already was, matching original_source/udrone.c's
// udrone_msg_ctrl, which writes udrone.assigned only if (tb[ASSIGN_SEQ]).
func (s *Session) Assign(group string, seq wire.Optional[uint32]) <-chan time.Time {
	s.state = Assigned
	s.group = group
	if seq.IsDefined() {
		s.assignedSeq = seq.Get()
	}
	return s.RearmTimer()
}

// IncrementSeq records acceptance of the next in-order frame.
func (s *Session) IncrementSeq() {
	s.assignedSeq++
}

// RearmTimer (re)starts the liveness timer and returns its fire channel.
// Call this whenever a frame renews the assignment (any accepted frame from
// the owning controller resets the clock).
func (s *Session) RearmTimer() <-chan time.Time {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.NewTimer(LivenessTimeout)
	return s.timer.C
}

// TimerChan returns the current liveness timer's fire channel, or nil if no
// timer has been armed since New. Dispatchers should re-read this after
// any call that may change session state, rather than threading the
// channels returned by Assign/RearmTimer/HandleTimeout through manually.
func (s *Session) TimerChan() <-chan time.Time {
	if s.timer == nil {
		return nil
	}
	return s.timer.C
}

// StopTimer halts the liveness timer without changing state, used on
// shutdown.
func (s *Session) StopTimer() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

// HandleTimeout advances the state machine one step when the liveness timer
// fires on its own (not forced by an out-of-sync frame): Assigned moves to
// Lost and the timer is rearmed for a second round; Lost moves to Default
// and releases the group tag. It returns the new state and, if another round
// is needed, the new timer channel.
func (s *Session) HandleTimeout() (State, <-chan time.Time) {
	switch s.state {
	case Assigned:
		s.state = Lost
		s.group = GroupLost
		return s.state, s.RearmTimer()
	case Lost:
		s.state = Default
		s.group = GroupDefault
		s.assignedSeq = 0
		return s.state, nil
	default:
		return s.state, nil
	}
}

// ForceTimeout is the out-of-sync path: an ESRCH frame (sequence number that
// matches neither retransmit nor in-order-next) forces the same one-step
// transition HandleTimeout would make on natural expiry, regardless of how
// much time is actually left on the timer. This mirrors the original
// implementation calling its timeout handler directly from the read path
// when a frame is out of sync with the assignment.
func (s *Session) ForceTimeout() State {
	state, _ := s.HandleTimeout()
	return state
}

// Reset unconditionally returns the session to Default, releasing the
// assignment and stopping the timer. Used by the !reset control primitive.
func (s *Session) Reset() {
	s.StopTimer()
	s.state = Default
	s.group = GroupDefault
	s.assignedSeq = 0
}
