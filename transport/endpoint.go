package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// An Endpoint is the resolver a query is sent to: the textual form the
// user gave, the port, and the ordered addresses it resolved to.
type Endpoint struct {
	// Host is the server name or address without scheme, brackets or port.
	Host string
	// Port the endpoint was resolved with.
	Port uint16
	// URL is the full DoH URL; set only for https:// endpoints.
	URL string
	// Addrs are the candidate addresses, in resolution order, already
	// filtered by family. Empty for DoH (the HTTP client resolves).
	Addrs []netip.AddrPort
}

// String renders the endpoint for display.
func (ep *Endpoint) String() string {
	if ep.URL != "" {
		return ep.URL
	}
	return net.JoinHostPort(ep.Host, strconv.Itoa(int(ep.Port)))
}

// ImpliedKind returns the transport a scheme-qualified endpoint demands:
// https:// implies DoH and quic:// implies DoQ.
func ImpliedKind(server string) (Kind, bool) {
	switch {
	case strings.HasPrefix(server, "https://"):
		return DoH, true
	case strings.HasPrefix(server, "quic://"):
		return DoQ, true
	}
	return 0, false
}

// ParseEndpoint parses the `@resolver` argument forms — bare IPv4, bare
// IPv6, `[v6]:port`, `host`, `host:port`, `https://host/path` and
// `quic://host` — and resolves host names to an ordered address list,
// filtered by family. port is used when the endpoint itself does not
// carry one; pass the transport's default.
func ParseEndpoint(ctx context.Context, server string, port uint16, family Family, resolver *net.Resolver) (*Endpoint, error) {
	if strings.HasPrefix(server, "https://") {
		u, err := url.Parse(server)
		if err != nil {
			return nil, fmt.Errorf("DoH endpoint %q: %w", server, err)
		}
		if u.Path == "" {
			u.Path = "/dns-query"
		}
		return &Endpoint{Host: u.Hostname(), Port: port, URL: u.String()}, nil
	}

	host := strings.TrimPrefix(server, "quic://")

	// A bare IPv6 address contains colons but is not host:port.
	if addr, err := netip.ParseAddr(host); err == nil {
		return endpointFromAddrs(host, port, family, []netip.Addr{addr})
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("endpoint port %q: %w", p, err)
		}
		host, port = h, uint16(n)
		if addr, err := netip.ParseAddr(host); err == nil {
			return endpointFromAddrs(host, port, family, []netip.Addr{addr})
		}
	}

	if resolver == nil {
		resolver = net.DefaultResolver
	}
	addrs, err := resolver.LookupNetIP(ctx, lookupNetwork(family), host)
	if err != nil {
		return nil, fmt.Errorf("resolving endpoint %q: %w", host, err)
	}
	return endpointFromAddrs(host, port, family, addrs)
}

func lookupNetwork(family Family) string {
	switch family {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	}
	return "ip"
}

func endpointFromAddrs(host string, port uint16, family Family, addrs []netip.Addr) (*Endpoint, error) {
	ep := &Endpoint{Host: host, Port: port}
	for _, a := range addrs {
		a = a.Unmap()
		switch family {
		case FamilyIPv4:
			if !a.Is4() {
				continue
			}
		case FamilyIPv6:
			if !a.Is6() || a.Is4In6() {
				continue
			}
		}
		ep.Addrs = append(ep.Addrs, netip.AddrPortFrom(a, port))
	}
	if len(ep.Addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAddresses, host)
	}
	return ep, nil
}
