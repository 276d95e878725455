// Package transport delivers serialized DNS queries over UDP, TCP,
// DNS-over-TLS, DNS-over-HTTPS and DNS-over-QUIC.
//
// All transports implement [Conn]: dial once, exchange one or more
// query/response pairs, close. The caller owns message contents; the
// transport only moves bytes and applies the framing its protocol
// requires (a two-octet length prefix on TCP, DoT and DoQ).
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/proxy"
)

// Kind selects one of the five supported transports.
type Kind int

const (
	UDP Kind = iota
	TCP
	DoT
	DoH
	DoQ
)

func (k Kind) String() string {
	switch k {
	case UDP:
		return "UDP"
	case TCP:
		return "TCP"
	case DoT:
		return "DoT"
	case DoH:
		return "DoH"
	case DoQ:
		return "DoQ"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// DefaultPort returns the well-known port for the transport.
func (k Kind) DefaultPort() uint16 {
	switch k {
	case DoT, DoQ:
		return 853
	case DoH:
		return 443
	default:
		return 53
	}
}

// Family restricts which address family endpoint resolution may use.
type Family int

const (
	FamilyAny Family = iota
	FamilyIPv4
	FamilyIPv6
)

// DefaultTimeout bounds connect and receive operations when Options.Timeout
// is zero.
const DefaultTimeout = 3 * time.Second

// Options carries the transport knobs shared by all kinds. Zero values
// select the defaults.
type Options struct {
	// Timeout bounds connecting and each receive.
	Timeout time.Duration
	// Family restricts endpoint addresses to IPv4 or IPv6.
	Family Family
	// SNI overrides the TLS server name for DoT, DoH and DoQ.
	SNI string
	// ALPN overrides the ALPN token for DoT.
	ALPN string
	// CertPEM is an optional self-signed server certificate (PEM or DER)
	// trusted instead of the system roots.
	CertPEM []byte
	// Dialer is used for TCP, DoT and DoH connections. Defaults to a
	// net.Dialer honoring Timeout.
	Dialer proxy.ContextDialer
}

func (o *Options) timeout() time.Duration {
	if o.Timeout > 0 {
		return o.Timeout
	}
	return DefaultTimeout
}

func (o *Options) dialer() proxy.ContextDialer {
	if o.Dialer != nil {
		return o.Dialer
	}
	return &net.Dialer{Timeout: o.timeout()}
}

// Conn is an established transport session.
type Conn interface {
	// Exchange sends one serialized query and returns the raw response.
	Exchange(ctx context.Context, query []byte) ([]byte, error)
	// Close tears the session down.
	Close() error
	// Kind returns the transport kind of the session.
	Kind() Kind
	// Stats returns the payload bytes sent and received so far,
	// excluding framing.
	Stats() (sent, received int)
	// Peer describes the remote endpoint actually connected to.
	Peer() string
}

// Streamer is implemented by stream transports (TCP and DoT) that can
// keep reading framed messages after the first response, as a zone
// transfer requires. The callback returns true to stop reading.
type Streamer interface {
	ExchangeStream(ctx context.Context, query []byte, each func(resp []byte) (stop bool, err error)) error
}

// ErrNoAddresses is returned when the endpoint resolved to no usable
// address for the requested family.
var ErrNoAddresses = errors.New("no usable address for endpoint")

// Dial establishes a session of the given kind with the endpoint.
func Dial(ctx context.Context, kind Kind, ep *Endpoint, opts Options) (Conn, error) {
	switch kind {
	case UDP:
		return dialUDP(ctx, ep, opts)
	case TCP:
		return dialTCP(ctx, ep, opts)
	case DoT:
		return dialDoT(ctx, ep, opts)
	case DoH:
		return dialDoH(ctx, ep, opts)
	case DoQ:
		return dialDoQ(ctx, ep, opts)
	}
	return nil, fmt.Errorf("unknown transport kind %d", int(kind))
}
