// Package commands implements udronectl's subcommands: whois, assign, reset,
// and send, each a thin cobra.Command wrapping a request/reply round trip
// over the same wire protocol and multicast socket the agent answers on.
// Structured like the teacher's cmd/surp/commands package, one file per
// verb, but driving pkg/wire and pkg/netio directly instead of SURP's
// consumer/provider registers.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blogic/udrone/pkg/identity"
	"github.com/blogic/udrone/pkg/netio"
	"github.com/blogic/udrone/pkg/wire"
)

// session is one opened controller-side socket, bound to the interface
// given on the command line and carrying the controller's own wire
// identity, derived the same way the agent derives its own.
type session struct {
	sock   *netio.Socket
	selfID string
}

func open(cmd *cobra.Command) (*session, error) {
	ifaceName, err := cmd.Flags().GetString("interface")
	if err != nil {
		return nil, err
	}
	if ifaceName == "" {
		return nil, fmt.Errorf("--interface is required")
	}

	iface, err := identity.Interface(ifaceName)
	if err != nil {
		return nil, err
	}
	selfID, err := identity.DeriveID(ifaceName)
	if err != nil {
		selfID = "udronectl"
	}

	sock, err := netio.Open(iface)
	if err != nil {
		return nil, fmt.Errorf("open multicast socket: %w", err)
	}

	return &session{sock: sock, selfID: selfID}, nil
}

func (s *session) close() {
	s.sock.Close()
}

// request sends msg to the multicast group (or, if msg.To is a specific
// drone ID, still over the group socket — drones filter by address
// themselves) and returns the first reply addressed To this controller
// with a matching Seq, or an error on timeout.
func (s *session) request(ctx context.Context, msg *wire.Message, timeout time.Duration) (*wire.Message, error) {
	msg.From = s.selfID
	payload, err := msg.Encode()
	if err != nil {
		return nil, err
	}
	s.sock.SendTo(payload, nil)

	deadline := time.After(timeout)
	for {
		select {
		case dgram, ok := <-s.sock.Recv():
			if !ok {
				return nil, fmt.Errorf("socket closed")
			}
			reply, err := wire.Decode(dgram.Payload)
			if err != nil {
				continue
			}
			if reply.To != s.selfID || reply.Seq != msg.Seq {
				continue
			}
			return reply, nil
		case <-deadline:
			return nil, fmt.Errorf("timed out waiting for a reply")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// await listens for the next reply matching selfID/seq without sending
// anything, used after an "accept" to pick up a non-atomic handler's
// eventual result.
func (s *session) await(ctx context.Context, seq uint32, timeout time.Duration) (*wire.Message, error) {
	deadline := time.After(timeout)
	for {
		select {
		case dgram, ok := <-s.sock.Recv():
			if !ok {
				return nil, fmt.Errorf("socket closed")
			}
			reply, err := wire.Decode(dgram.Payload)
			if err != nil {
				continue
			}
			if reply.To != s.selfID || reply.Seq != seq {
				continue
			}
			return reply, nil
		case <-deadline:
			return nil, fmt.Errorf("timed out waiting for a reply")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// collect gathers every reply to msg until timeout elapses, for commands
// like whois where more than one drone may legitimately answer.
func (s *session) collect(ctx context.Context, msg *wire.Message, timeout time.Duration, onReply func(*wire.Message)) error {
	msg.From = s.selfID
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	s.sock.SendTo(payload, nil)

	deadline := time.After(timeout)
	for {
		select {
		case dgram, ok := <-s.sock.Recv():
			if !ok {
				return fmt.Errorf("socket closed")
			}
			reply, err := wire.Decode(dgram.Payload)
			if err != nil {
				continue
			}
			if reply.To != s.selfID || reply.Seq != msg.Seq {
				continue
			}
			onReply(reply)
		case <-deadline:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func printStatus(reply *wire.Message) {
	if reply.Type != "status" {
		fmt.Printf("%s from %s: %v\n", reply.Type, reply.From, reply.Data)
		return
	}
	code, _ := reply.Data.GetUint32("code")
	if code == 0 {
		fmt.Printf("ok from %s\n", reply.From)
		return
	}
	errstr, _ := reply.Data.GetString("errstr")
	fmt.Printf("error from %s: code=%d (%s)\n", reply.From, code, errstr)
}
