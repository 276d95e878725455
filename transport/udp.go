package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"
)

// maxMessageSize is the largest DNS message any transport will accept.
const maxMessageSize = 65535

// ErrIDMismatch is returned when a response arrives with a transaction ID
// different from the query's. Over UDP mismatching datagrams are skipped
// until the deadline instead.
var ErrIDMismatch = errors.New("response ID does not match query")

type udpConn struct {
	conn    *net.UDPConn
	peer    netip.AddrPort
	timeout time.Duration
	sent    int
	recv    int
}

func dialUDP(ctx context.Context, ep *Endpoint, opts Options) (Conn, error) {
	var lastErr error
	for _, addr := range ep.Addrs {
		network := "udp4"
		local := &net.UDPAddr{IP: net.IPv4zero}
		if addr.Addr().Is6() {
			network = "udp6"
			local = &net.UDPAddr{IP: net.IPv6unspecified}
		}
		conn, err := net.ListenUDP(network, local)
		if err != nil {
			lastErr = err
			continue
		}
		logrus.Debugf("bound UDP socket %s for %s", conn.LocalAddr(), addr)
		return &udpConn{conn: conn, peer: addr, timeout: opts.timeout()}, nil
	}
	if lastErr == nil {
		lastErr = ErrNoAddresses
	}
	return nil, lastErr
}

// Exchange sends the datagram and waits for a response from the endpoint
// with the same transaction ID. Datagrams from other sources or with other
// IDs are dropped; spoofed or stale answers must not terminate the wait.
func (c *udpConn) Exchange(ctx context.Context, query []byte) ([]byte, error) {
	if len(query) < 2 {
		return nil, fmt.Errorf("query too short: %d bytes", len(query))
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	n, err := c.conn.WriteToUDPAddrPort(query, c.peer)
	if err != nil {
		return nil, err
	}
	c.sent += n
	logrus.Tracef("sent %d bytes to %s", n, c.peer)

	id := binary.BigEndian.Uint16(query)
	buf := make([]byte, maxMessageSize)
	for {
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
		n, from, err := c.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			return nil, err
		}
		if from.Addr().Unmap() != c.peer.Addr().Unmap() || from.Port() != c.peer.Port() {
			logrus.Debugf("dropping datagram from unexpected source %s", from)
			continue
		}
		if n < 2 || binary.BigEndian.Uint16(buf) != id {
			logrus.Debugf("dropping datagram with unexpected ID")
			continue
		}
		c.recv += n
		logrus.Tracef("received %d bytes from %s", n, from)
		resp := make([]byte, n)
		copy(resp, buf[:n])
		return resp, nil
	}
}

func (c *udpConn) Close() error { return c.conn.Close() }

func (c *udpConn) Kind() Kind { return UDP }

func (c *udpConn) Stats() (int, int) { return c.sent, c.recv }

func (c *udpConn) Peer() string { return c.peer.String() }
