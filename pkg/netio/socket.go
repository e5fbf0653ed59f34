// Package netio owns the IPv4 multicast UDP socket the agent and its
// controllers exchange frames over, grounded in the teacher's pipe-udp.go
// channel-based read/write goroutine pair but reworked for IPv4 group
// membership via golang.org/x/net/ipv4 instead of plain net.ListenMulticastUDP.
package netio

import (
	"context"
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/ipv4"
)

const (
	// MulticastGroup is the well-known group address the agent joins.
	MulticastGroup = "239.6.6.6"
	// MulticastPort is the well-known UDP port for the control-plane channel.
	MulticastPort = 21337

	maxDatagramSize = 32 * 1024
)

// Datagram is a received payload paired with the address it came from.
type Datagram struct {
	Payload []byte
	Addr    *net.UDPAddr
}

// Socket is a joined multicast group, readable and writable from goroutines
// started at construction time, mirroring the teacher's always-running
// read()/write() pump pair.
type Socket struct {
	conn    *net.UDPConn
	pktConn *ipv4.PacketConn
	iface   *net.Interface
	group   *net.UDPAddr

	recv chan Datagram
	send chan Datagram
	done chan struct{}
}

// Open binds the well-known multicast group on iface and starts the
// background read/write pumps. SO_REUSEADDR is set pre-bind via
// net.ListenConfig.Control, the idiomatic alternative to the teacher's
// post-bind conn.File()+syscall.SetsockoptInt dance; IPV4_MULTICAST group
// membership itself still goes through golang.org/x/net/ipv4 because the
// standard library's ListenMulticastUDP offers no way to pin the interface
// after the fact the way JoinGroup does.
func Open(iface *net.Interface) (*Socket, error) {
	group := &net.UDPAddr{IP: net.ParseIP(MulticastGroup), Port: MulticastPort}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	conn, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", MulticastPort))
	if err != nil {
		return nil, fmt.Errorf("netio: listen: %w", err)
	}
	udpConn := conn.(*net.UDPConn)

	pktConn := ipv4.NewPacketConn(udpConn)
	if err := pktConn.SetMulticastInterface(iface); err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("netio: set multicast interface: %w", err)
	}
	if err := pktConn.SetMulticastLoopback(true); err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("netio: set multicast loopback: %w", err)
	}
	if err := pktConn.JoinGroup(iface, group); err != nil {
		udpConn.Close()
		return nil, fmt.Errorf("netio: join group: %w", err)
	}

	s := &Socket{
		conn:    udpConn,
		pktConn: pktConn,
		iface:   iface,
		group:   group,
		recv:    make(chan Datagram, 16),
		send:    make(chan Datagram, 16),
		done:    make(chan struct{}),
	}

	go s.readLoop()
	go s.writeLoop()

	return s, nil
}

// Recv is the channel of inbound datagrams.
func (s *Socket) Recv() <-chan Datagram {
	return s.recv
}

// SendTo queues a payload for delivery to addr. Passing nil as addr sends to
// the multicast group itself.
func (s *Socket) SendTo(payload []byte, addr *net.UDPAddr) {
	if addr == nil {
		addr = s.group
	}
	select {
	case s.send <- Datagram{Payload: payload, Addr: addr}:
	case <-s.done:
	}
}

// Close tears down the socket and stops the pumps.
func (s *Socket) Close() error {
	close(s.done)
	close(s.send)
	return s.conn.Close()
}

func (s *Socket) readLoop() {
	defer close(s.recv)
	buf := make([]byte, maxDatagramSize)
	for {
		n, src, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		select {
		case s.recv <- Datagram{Payload: payload, Addr: src}:
		case <-s.done:
			return
		}
	}
}

func (s *Socket) writeLoop() {
	for d := range s.send {
		if _, err := s.conn.WriteToUDP(d.Payload, d.Addr); err != nil {
			return
		}
	}
}
