package dqy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

// ErrNotResponse is returned when a decoded message does not have the QR
// bit set.
var ErrNotResponse = errors.New("message is not a response")

// Config selects the resolver endpoint and transport for a run.
type Config struct {
	// Server is the `@resolver` argument without the leading @; empty
	// selects the OS-configured resolvers.
	Server string
	// Kind is the transport to use when KindSet is true. An https:// or
	// quic:// Server overrides it; otherwise UDP with TCP fallback on
	// truncation is the default.
	Kind    transport.Kind
	KindSet bool
	// Port overrides the transport's default port.
	Port uint16
	// Family restricts endpoint addresses to one family.
	Family transport.Family
	// Timeout bounds connect and each receive.
	Timeout time.Duration
	// SNI, ALPN and CertPEM pass through to the TLS-based transports.
	SNI     string
	ALPN    string
	CertPEM []byte
	// Resolver resolves endpoint host names; nil uses the default.
	Resolver *net.Resolver
	// RateLimiter, when non-nil, is received from before every query;
	// trace mode uses it to pace the delegation walk.
	RateLimiter <-chan struct{}
}

// Client drives queries against one resolved endpoint. It is not safe for
// concurrent use; queries are strictly sequential.
type Client struct {
	kind     transport.Kind
	auto     bool // UDP with TCP retry on truncation
	endpoint *transport.Endpoint
	topts    transport.Options

	conn    transport.Conn
	limiter <-chan struct{}
	peer    string
	sent    int
	recv    int
}

// NewClient resolves the endpoint and prepares a client. No connection is
// made until the first query.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	kind := transport.UDP
	auto := !cfg.KindSet
	if cfg.KindSet {
		kind = cfg.Kind
	}
	if implied, ok := transport.ImpliedKind(cfg.Server); ok {
		kind = implied
		auto = false
	}
	port := cfg.Port
	if port == 0 {
		port = kind.DefaultPort()
	}
	topts := transport.Options{
		Timeout: cfg.Timeout,
		Family:  cfg.Family,
		SNI:     cfg.SNI,
		ALPN:    cfg.ALPN,
		CertPEM: cfg.CertPEM,
	}

	var ep *transport.Endpoint
	if cfg.Server == "" {
		addrs, err := transport.SystemResolvers()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResolvConf, err)
		}
		ep = endpointForAddrs(addrs, port, cfg.Family)
		if ep == nil {
			return nil, fmt.Errorf("%w: no system resolver matches the requested family", ErrResolvConf)
		}
	} else {
		var err error
		ep, err = transport.ParseEndpoint(ctx, cfg.Server, port, cfg.Family, cfg.Resolver)
		if err != nil {
			return nil, err
		}
	}
	logrus.Debugf("endpoint %s via %s (fallback=%v)", ep, kind, auto)
	return &Client{kind: kind, auto: auto, endpoint: ep, topts: topts, limiter: cfg.RateLimiter}, nil
}

func endpointForAddrs(addrs []netip.Addr, port uint16, family transport.Family) *transport.Endpoint {
	ep := &transport.Endpoint{Port: port}
	for _, a := range addrs {
		switch family {
		case transport.FamilyIPv4:
			if !a.Is4() {
				continue
			}
		case transport.FamilyIPv6:
			if !a.Is6() || a.Is4In6() {
				continue
			}
		}
		if ep.Host == "" {
			ep.Host = a.String()
		}
		ep.Addrs = append(ep.Addrs, netip.AddrPortFrom(a, port))
	}
	if len(ep.Addrs) == 0 {
		return nil
	}
	return ep
}

// Kind returns the transport the client uses for its first attempt.
func (c *Client) Kind() transport.Kind { return c.kind }

// Endpoint returns the resolved endpoint.
func (c *Client) Endpoint() *transport.Endpoint { return c.endpoint }

func (c *Client) connect(ctx context.Context) (transport.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := transport.Dial(ctx, c.kind, c.endpoint, c.topts)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.peer = conn.Peer()
	return conn, nil
}

// Close tears down the session, if one is open.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Run builds and sends one query per QTYPE, strictly in input order, and
// collects the exchanges with the run metadata.
func (c *Client) Run(ctx context.Context, base QueryOptions, qtypes []uint16) (*Result, error) {
	start := time.Now()
	result := &Result{}
	for _, qt := range qtypes {
		opts := base
		opts.Type = qt
		exchanges, err := c.Query(ctx, opts)
		if err != nil {
			return nil, err
		}
		result.Exchanges = append(result.Exchanges, exchanges...)
	}
	result.Info = Info{
		ElapsedMs:     time.Since(start).Milliseconds(),
		Endpoint:      c.peerString(),
		TransportKind: c.kind.String(),
		BytesSent:     c.sent,
		BytesReceived: c.recv,
	}
	return result, nil
}

func (c *Client) peerString() string {
	if c.peer != "" {
		return c.peer
	}
	return c.endpoint.String()
}

// Query sends one query. Most queries produce a single exchange; an AXFR
// produces one exchange per message in the transfer stream.
func (c *Client) Query(ctx context.Context, opts QueryOptions) ([]Exchange, error) {
	if c.limiter != nil {
		select {
		case <-c.limiter:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	kind := c.kind
	if opts.Type == dnswire.TypeAXFR && (kind == transport.UDP) {
		// Zone transfers always run over a stream.
		logrus.Debug("AXFR query; using TCP")
		c.switchKind(transport.TCP)
		kind = transport.TCP
	}

	msg, err := BuildQuery(opts)
	if err != nil {
		return nil, err
	}
	if kind == transport.DoQ {
		// RFC 9250: the transaction ID must be zero on the wire; the
		// stream correlates query and response.
		msg.Header.ID = 0
	}
	wire, err := msg.Encode()
	if err != nil {
		return nil, err
	}

	conn, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}

	if opts.Type == dnswire.TypeAXFR {
		if streamer, ok := conn.(transport.Streamer); ok {
			return c.transfer(ctx, streamer, msg, wire)
		}
	}

	c.sent += len(wire)
	raw, err := conn.Exchange(ctx, wire)
	if err != nil {
		return nil, err
	}
	c.recv += len(raw)
	resp, err := dnswire.Decode(raw)
	if err != nil {
		return nil, err
	}
	if err := validateResponse(msg, resp, kind); err != nil {
		return nil, err
	}

	if resp.Header.Flags.TC && kind == transport.UDP && c.auto {
		logrus.Debug("response truncated; retrying over TCP")
		resp, raw, err = c.retryTCP(ctx, wire)
		if err != nil {
			return nil, err
		}
	}
	return []Exchange{{Query: msg, Response: resp, RawQuery: wire, RawResponse: raw}}, nil
}

// retryTCP re-sends the identical serialized query (same transaction ID)
// over TCP to the same endpoint. It runs at most once per query and is
// triggered only by the TC bit, never by a timeout.
func (c *Client) retryTCP(ctx context.Context, wire []byte) (*dnswire.Message, []byte, error) {
	conn, err := transport.Dial(ctx, transport.TCP, c.endpoint, c.topts)
	if err != nil {
		return nil, nil, err
	}
	defer conn.Close()
	c.peer = conn.Peer()
	c.sent += len(wire)
	raw, err := conn.Exchange(ctx, wire)
	if err != nil {
		return nil, nil, err
	}
	c.recv += len(raw)
	resp, err := dnswire.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	if !resp.Header.Flags.QR {
		return nil, nil, ErrNotResponse
	}
	return resp, raw, nil
}

func (c *Client) switchKind(kind transport.Kind) {
	if c.kind == kind {
		return
	}
	_ = c.Close()
	c.kind = kind
}

// validateResponse applies the correlation checks: QR set and, outside
// DoQ, a transaction ID equal to the query's.
func validateResponse(query, resp *dnswire.Message, kind transport.Kind) error {
	if !resp.Header.Flags.QR {
		return ErrNotResponse
	}
	if kind != transport.DoQ && resp.Header.ID != query.Header.ID {
		return transport.ErrIDMismatch
	}
	return nil
}

// transfer drives an AXFR: framed messages are read until an SOA matching
// the serial of the leading SOA closes the zone.
func (c *Client) transfer(ctx context.Context, streamer transport.Streamer, query *dnswire.Message, wire []byte) ([]Exchange, error) {
	var exchanges []Exchange
	var decodeErr error
	var leadingSerial uint32
	sawLeading := false
	c.sent += len(wire)
	err := streamer.ExchangeStream(ctx, wire, func(raw []byte) (bool, error) {
		c.recv += len(raw)
		resp, err := dnswire.Decode(raw)
		if err != nil {
			decodeErr = err
			return true, err
		}
		if err := validateResponse(query, resp, c.kind); err != nil {
			return true, err
		}
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)
		exchanges = append(exchanges, Exchange{Query: query, Response: resp, RawQuery: wire, RawResponse: rawCopy})
		if resp.Header.Flags.RCode != uint8(dnswire.RcodeNoError) {
			return true, nil
		}
		for i := range resp.Answers {
			soa, ok := resp.Answers[i].Data.(*dnswire.SOA)
			if !ok {
				continue
			}
			if !sawLeading {
				sawLeading = true
				leadingSerial = soa.Serial
				// A transfer of a single message ends on its own
				// trailing SOA; look for a second one in this message.
				continue
			}
			if soa.Serial == leadingSerial {
				return true, nil
			}
		}
		return false, nil
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	if err != nil {
		return nil, err
	}
	return exchanges, nil
}
