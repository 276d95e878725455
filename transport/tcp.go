package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// tcpConn is a stream session carrying two-octet length-framed DNS
// messages. It backs both plain TCP and DoT; for the latter conn is a
// *tls.Conn.
type tcpConn struct {
	conn    net.Conn
	kind    Kind
	peer    string
	timeout time.Duration
	sent    int
	recv    int
}

// dialStream connects to the first endpoint address that accepts.
func dialStream(ctx context.Context, dialer proxy.ContextDialer, ep *Endpoint, timeout time.Duration) (net.Conn, netip.AddrPort, error) {
	var lastErr error
	for _, addr := range ep.Addrs {
		dctx, cancel := context.WithTimeout(ctx, timeout)
		conn, err := dialer.DialContext(dctx, "tcp", addr.String())
		cancel()
		if err != nil {
			logrus.Debugf("connect %s: %v", addr, err)
			lastErr = err
			continue
		}
		logrus.Debugf("connected to %s", addr)
		return conn, addr, nil
	}
	if lastErr == nil {
		lastErr = ErrNoAddresses
	}
	return nil, netip.AddrPort{}, lastErr
}

func dialTCP(ctx context.Context, ep *Endpoint, opts Options) (Conn, error) {
	conn, addr, err := dialStream(ctx, opts.dialer(), ep, opts.timeout())
	if err != nil {
		return nil, err
	}
	return &tcpConn{conn: conn, kind: TCP, peer: addr.String(), timeout: opts.timeout()}, nil
}

func (c *tcpConn) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	return deadline
}

// writeFrame sends one length-prefixed message as a single write.
func (c *tcpConn) writeFrame(ctx context.Context, msg []byte) error {
	if len(msg) > maxMessageSize {
		return fmt.Errorf("message too long: %d bytes", len(msg))
	}
	if err := c.conn.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return err
	}
	frame := make([]byte, 2+len(msg))
	binary.BigEndian.PutUint16(frame, uint16(len(msg)))
	copy(frame[2:], msg)
	if _, err := c.conn.Write(frame); err != nil {
		return err
	}
	c.sent += len(msg)
	logrus.Tracef("sent %d bytes (framed) to %s", len(msg), c.peer)
	return nil
}

// readFrame reads one length-prefixed message.
func (c *tcpConn) readFrame(ctx context.Context) ([]byte, error) {
	if err := c.conn.SetReadDeadline(c.deadline(ctx)); err != nil {
		return nil, err
	}
	var lenbuf [2]byte
	if _, err := io.ReadFull(c.conn, lenbuf[:]); err != nil {
		return nil, err
	}
	length := int(binary.BigEndian.Uint16(lenbuf[:]))
	msg := make([]byte, length)
	if _, err := io.ReadFull(c.conn, msg); err != nil {
		return nil, err
	}
	c.recv += length
	logrus.Tracef("received %d bytes (framed) from %s", length, c.peer)
	return msg, nil
}

func (c *tcpConn) Exchange(ctx context.Context, query []byte) ([]byte, error) {
	if err := c.writeFrame(ctx, query); err != nil {
		return nil, err
	}
	resp, err := c.readFrame(ctx)
	if err != nil {
		return nil, err
	}
	if len(resp) >= 2 && len(query) >= 2 &&
		binary.BigEndian.Uint16(resp) != binary.BigEndian.Uint16(query) {
		return nil, ErrIDMismatch
	}
	return resp, nil
}

// ExchangeStream sends one query and keeps delivering framed responses to
// each until it reports stop. A zone transfer is the one caller: the
// stream carries multiple messages terminated by the trailing SOA.
func (c *tcpConn) ExchangeStream(ctx context.Context, query []byte, each func(resp []byte) (bool, error)) error {
	if err := c.writeFrame(ctx, query); err != nil {
		return err
	}
	for {
		resp, err := c.readFrame(ctx)
		if err != nil {
			return err
		}
		stop, err := each(resp)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func (c *tcpConn) Close() error { return c.conn.Close() }

func (c *tcpConn) Kind() Kind { return c.kind }

func (c *tcpConn) Stats() (int, int) { return c.sent, c.recv }

func (c *tcpConn) Peer() string { return c.peer }
