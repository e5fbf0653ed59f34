// Package dispatcher implements the agent's single-threaded event loop: the
// one goroutine that owns the socket, the session state machine, and the
// non-atomic worker supervisor. The teacher has no single loop shaped like
// this one — its closest analog is readPipes' for-range over rcvChannel in
// pkg/surp.go, fed by a reader goroutine, with advertising handled by a
// separate timer-only select in advertiseLoop. This loop folds both
// concerns (inbound frames and a liveness timer) plus a worker-result
// channel into one select, generalized from SURP's group bookkeeping to
// udrone's command dispatch.
package dispatcher

import (
	"context"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/blogic/udrone/pkg/agentmetrics"
	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/logging"
	"github.com/blogic/udrone/pkg/netio"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/session"
	"github.com/blogic/udrone/pkg/wire"
	"github.com/blogic/udrone/pkg/worker"
)

var sessionStates = []string{
	session.Default.String(),
	session.Assigned.String(),
	session.Lost.String(),
}

// pendingReply tracks the request a non-atomic handler is still working on,
// so its eventual Result can be matched back up with the right reply
// envelope and destination address.
type pendingReply struct {
	msg  *wire.Message
	addr *net.UDPAddr
}

// socket is the subset of *netio.Socket the dispatcher needs, narrowed to an
// interface so tests can exercise the event loop without a real multicast
// group.
type socket interface {
	Recv() <-chan netio.Datagram
	SendTo(payload []byte, addr *net.UDPAddr)
}

// Dispatcher is the agent's event loop: one instance per agent process.
type Dispatcher struct {
	selfID string
	board  string
	sock   socket
	sess   *session.Session
	reg    *registry.Registry
	sup    *worker.Supervisor
	log    logrus.FieldLogger

	lastReply       *wire.Message
	pending         pendingReply
	workerCancelled bool

	metrics *agentmetrics.Metrics
}

// New constructs a Dispatcher. selfID is this agent's wire identity (see
// pkg/identity), typically the control interface's MAC address in hex. board
// is the hardware/board tag !whois matches against, as distinct from the
// session's assigned-owner group.
func New(selfID, board string, sock socket, reg *registry.Registry, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{
		selfID: selfID,
		board:  board,
		sock:   sock,
		sess:   session.New(),
		reg:    reg,
		sup:    worker.New(),
		log:    log,
	}
}

// SetMetrics attaches a Prometheus instrument set the dispatcher reports
// against. Optional: a nil (default, never called) dispatcher runs with no
// instrumentation overhead, which is what the test suite's fakeSocket-backed
// dispatchers do.
func (d *Dispatcher) SetMetrics(m *agentmetrics.Metrics) {
	d.metrics = m
	if m != nil {
		m.SetSessionState(d.sess.State().String(), sessionStates)
	}
}

func (d *Dispatcher) reportState() {
	if d.metrics != nil {
		d.metrics.SetSessionState(d.sess.State().String(), sessionStates)
	}
}

// Run drives the event loop until ctx is cancelled or the socket closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		var workerCh <-chan worker.Result
		if d.sup.Running() {
			workerCh = d.sup.Results()
		}

		select {
		case <-ctx.Done():
			d.sess.StopTimer()
			return ctx.Err()

		case dgram, ok := <-d.sock.Recv():
			if !ok {
				return fmt.Errorf("dispatcher: socket closed")
			}
			d.handleDatagram(ctx, dgram)

		case <-d.sess.TimerChan():
			d.cancelWorker()
			state, _ := d.sess.HandleTimeout()
			d.lastReply = nil
			d.reportState()
			d.log.WithField("state", state).Info("session liveness timer fired")

		case res := <-workerCh:
			d.sup.Done()
			d.sendWorkerResult(res)
		}
	}
}

func (d *Dispatcher) handleDatagram(ctx context.Context, dgram netio.Datagram) {
	msg, err := wire.Decode(dgram.Payload)
	if err != nil {
		if d.metrics != nil {
			d.metrics.FramesDropped.WithLabelValues("malformed").Inc()
		}
		d.log.WithError(err).Debug("dropping malformed frame")
		return
	}
	logging.Frame(d.log, "recv", msg.From, msg.Seq, msg.Type)

	if msg.To != d.selfID && msg.To != d.sess.Group() {
		if d.metrics != nil {
			d.metrics.FramesDropped.WithLabelValues("address-mismatch").Inc()
		}
		return
	}
	if msg.From == d.selfID {
		if d.metrics != nil {
			d.metrics.FramesDropped.WithLabelValues("self-origin").Inc()
		}
		return
	}

	if isControlType(msg.Type) {
		if d.metrics != nil {
			d.metrics.FramesSeen.WithLabelValues("control").Inc()
		}
		d.handleControl(msg, dgram.Addr)
		return
	}

	if d.metrics != nil {
		d.metrics.FramesSeen.WithLabelValues("command").Inc()
	}
	d.handleCommand(ctx, msg, dgram.Addr)
}

func isControlType(typ string) bool {
	return len(typ) > 0 && typ[0] == '!'
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *wire.Message, addr *net.UDPAddr) {
	desc, ok := d.reg.Lookup(msg.Type)
	if !ok {
		d.replyStatus(msg, addr, errno.ENOTSUP)
		return
	}

	assigned := d.sess.AssignedSeq()
	switch {
	case msg.Seq == assigned:
		// Retransmit of the last accepted request: resend the cached
		// reply rather than re-running the handler.
		d.sess.RearmTimer()
		d.resendLastReply(msg, addr)

	case msg.Seq == assigned+1 && !d.sup.Running():
		d.sess.RearmTimer()
		d.sess.IncrementSeq()
		d.runCommand(ctx, desc, msg, addr)

	case msg.Seq == assigned+1 && d.sup.Running():
		d.sess.RearmTimer()
		d.replyStatus(msg, addr, errno.EBUSY)

	default:
		d.replyStatus(msg, addr, errno.ESRCH)
		d.cancelWorker()
		d.sess.ForceTimeout()
		d.reportState()
	}
}

func (d *Dispatcher) runCommand(ctx context.Context, desc registry.Descriptor, msg *wire.Message, addr *net.UDPAddr) {
	args := msg.Data
	if args == nil {
		args = wire.NewTable()
	}

	if desc.Atomicity == registry.Atomic {
		out := wire.NewTable()
		code := desc.Handler(ctx, args, out)
		d.sendHandlerResult(msg, addr, code, out)
		return
	}

	// Non-atomic: acknowledge immediately, then run in the background and
	// reply again once it finishes.
	d.pending = pendingReply{msg: msg, addr: addr}
	d.workerCancelled = false
	d.sup.Start(ctx, desc.Handler, args)
	if d.metrics != nil {
		d.metrics.WorkerRuns.Inc()
	}
	d.reply(addr, wire.Reply(msg, d.selfID, "accept"))
}

// cancelWorker hard-stops an in-flight worker and marks its eventual result
// as discardable, since a transition out of Assigned means the reply
// address it was answering is no longer current.
func (d *Dispatcher) cancelWorker() {
	if !d.sup.Running() {
		return
	}
	d.workerCancelled = true
	d.sup.Cancel()
}

func (d *Dispatcher) sendWorkerResult(res worker.Result) {
	pending := d.pending
	d.pending = pendingReply{}
	cancelled := d.workerCancelled
	d.workerCancelled = false
	if cancelled || pending.msg == nil {
		return
	}
	d.sendHandlerResult(pending.msg, pending.addr, res.Code, res.Out)
}

func (d *Dispatcher) sendHandlerResult(msg *wire.Message, addr *net.UDPAddr, code int, out *wire.Table) {
	switch {
	case code < 0:
		d.reply(addr, d.statusReply(msg, -code))
	case code == wire.DataReply:
		reply := wire.Reply(msg, d.selfID, msg.Type)
		reply.Data = out
		d.reply(addr, reply)
	default:
		d.reply(addr, d.statusReply(msg, 0))
	}
}

// replyStatus sends a status reply without caching it, so control replies
// and ENOTSUP/EBUSY/ESRCH refusals never replace the answer to the last
// accepted request.
func (d *Dispatcher) replyStatus(msg *wire.Message, addr *net.UDPAddr, code int) {
	d.send(d.statusReply(msg, code), addr)
}

func (d *Dispatcher) statusReply(msg *wire.Message, code int) *wire.Message {
	reply := wire.Reply(msg, d.selfID, "status")
	data := wire.NewTable().Set("code", code).Set("board", d.board)
	if code != 0 {
		data.Set("errstr", errno.Text(code))
	}
	reply.Data = data
	return reply
}

func (d *Dispatcher) resendLastReply(msg *wire.Message, addr *net.UDPAddr) {
	if d.lastReply == nil {
		d.replyStatus(msg, addr, 0)
		return
	}
	d.send(d.lastReply, addr)
}

// reply sends out and caches it as the answer a retransmit of the current
// request receives.
func (d *Dispatcher) reply(addr *net.UDPAddr, out *wire.Message) {
	d.lastReply = out
	d.send(out, addr)
}

func (d *Dispatcher) send(msg *wire.Message, addr *net.UDPAddr) {
	payload, err := msg.Encode()
	if err != nil {
		d.log.WithError(err).Error("failed to encode reply")
		return
	}
	logging.Frame(d.log, "send", msg.To, msg.Seq, msg.Type)
	if d.metrics != nil {
		d.metrics.RepliesSent.WithLabelValues(msg.Type).Inc()
	}
	d.sock.SendTo(payload, addr)
}
