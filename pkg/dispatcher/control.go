package dispatcher

import (
	"net"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/session"
	"github.com/blogic/udrone/pkg/wire"
)

// handleControl dispatches the three "!"-prefixed control primitives.
// Unlike a registered command, a control primitive never goes through the
// sequence-number machinery — it is always processed and always answered,
// per the protocol's requirement that a control frame never be silently
// dropped even when it doesn't apply to this agent.
func (d *Dispatcher) handleControl(msg *wire.Message, addr *net.UDPAddr) {
	switch msg.Type {
	case "!whois":
		d.handleWhois(msg, addr)
	case "!assign":
		d.handleAssign(msg, addr)
	case "!reset":
		d.handleReset(msg, addr)
	default:
		d.replyStatus(msg, addr, errno.ENOTSUP)
	}
}

// handleWhois answers a discovery broadcast. A non-empty filter that
// doesn't match this agent's board tag draws an explicit -ENOTSUP status
// reply rather than silence, since a dropped reply is indistinguishable
// from a lost packet to the controller.
func (d *Dispatcher) handleWhois(msg *wire.Message, addr *net.UDPAddr) {
	if d.sess.State() != session.Default {
		d.sess.RearmTimer()
	}

	filter, present := msg.DataString()
	if present && filter != d.board {
		d.replyStatus(msg, addr, errno.ENOTSUP)
		return
	}
	d.replyStatus(msg, addr, 0)
}

// handleAssign claims this agent for a controller. Any group other than the
// reserved default is accepted unconditionally, superseding whatever
// assignment (if any) was already in place, per the state table's "any ->
// ASSIGNED" transition.
func (d *Dispatcher) handleAssign(msg *wire.Message, addr *net.UDPAddr) {
	if msg.Data == nil {
		d.replyStatus(msg, addr, errno.EINVAL)
		return
	}
	group, ok := msg.Data.GetString("group")
	if !ok || group == session.GroupDefault {
		d.replyStatus(msg, addr, errno.EINVAL)
		return
	}
	seq := wire.None[uint32]()
	if v, ok := msg.Data.GetUint32("seq"); ok {
		seq = wire.Some(v)
	}

	d.cancelWorker()
	d.sess.Assign(group, seq)
	d.lastReply = nil
	d.reportState()
	d.replyStatus(msg, addr, 0)
}

// handleReset releases the assignment unconditionally, cancelling any
// in-flight worker so a new controller can claim the agent cleanly.
func (d *Dispatcher) handleReset(msg *wire.Message, addr *net.UDPAddr) {
	d.cancelWorker()
	d.sess.Reset()
	d.lastReply = nil
	d.reportState()
	d.replyStatus(msg, addr, 0)
}
