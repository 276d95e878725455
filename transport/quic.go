package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/quic-go/quic-go"
	"github.com/sirupsen/logrus"
)

// alpnDoQ is the RFC 9250 ALPN token.
const alpnDoQ = "doq"

// doqNoError is the DOQ_NO_ERROR application error code used when closing
// the connection.
const doqNoError = 0

// QUICError wraps a QUIC session failure.
type QUICError struct {
	Err error
}

func (e *QUICError) Error() string { return "QUIC: " + e.Err.Error() }

func (e *QUICError) Unwrap() error { return e.Err }

type doqConn struct {
	conn quic.Connection
	peer string
	sent int
	recv int
}

func dialDoQ(ctx context.Context, ep *Endpoint, opts Options) (Conn, error) {
	cfg, err := tlsConfig(ep, opts)
	if err != nil {
		return nil, err
	}
	cfg.NextProtos = []string{alpnDoQ}
	qcfg := &quic.Config{
		MaxIdleTimeout:       opts.timeout(),
		HandshakeIdleTimeout: opts.timeout(),
	}
	var lastErr error
	for _, addr := range ep.Addrs {
		conn, err := quic.DialAddr(ctx, addr.String(), cfg, qcfg)
		if err != nil {
			logrus.Debugf("QUIC connect %s: %v", addr, err)
			lastErr = &QUICError{Err: err}
			continue
		}
		logrus.Debugf("QUIC session to %s established", addr)
		return &doqConn{conn: conn, peer: addr.String()}, nil
	}
	if lastErr == nil {
		lastErr = ErrNoAddresses
	}
	return nil, lastErr
}

// Exchange runs one query on a fresh bidirectional stream: length-prefixed
// write, close of the send side, then one length-prefixed response. RFC
// 9250 requires the DNS transaction ID to be zero; the caller builds the
// query that way and responses are correlated by stream, not by ID.
func (c *doqConn) Exchange(ctx context.Context, query []byte) ([]byte, error) {
	if len(query) > maxMessageSize {
		return nil, fmt.Errorf("message too long: %d bytes", len(query))
	}
	stream, err := c.conn.OpenStreamSync(ctx)
	if err != nil {
		return nil, &QUICError{Err: err}
	}
	frame := make([]byte, 2+len(query))
	binary.BigEndian.PutUint16(frame, uint16(len(query)))
	copy(frame[2:], query)
	if _, err := stream.Write(frame); err != nil {
		return nil, &QUICError{Err: err}
	}
	// Closing the send direction signals the end of the query.
	if err := stream.Close(); err != nil {
		return nil, &QUICError{Err: err}
	}
	c.sent += len(query)

	var lenbuf [2]byte
	if _, err := io.ReadFull(stream, lenbuf[:]); err != nil {
		return nil, &QUICError{Err: err}
	}
	resp := make([]byte, binary.BigEndian.Uint16(lenbuf[:]))
	if _, err := io.ReadFull(stream, resp); err != nil {
		return nil, &QUICError{Err: err}
	}
	c.recv += len(resp)
	logrus.Tracef("DoQ stream done: %d bytes out, %d bytes in", len(query), len(resp))
	return resp, nil
}

func (c *doqConn) Close() error {
	return c.conn.CloseWithError(doqNoError, "")
}

func (c *doqConn) Kind() Kind { return DoQ }

func (c *doqConn) Stats() (int, int) { return c.sent, c.recv }

func (c *doqConn) Peer() string { return c.peer }
