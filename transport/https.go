package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
)

// mediaType is the RFC 8484 DNS message media type.
const mediaType = "application/dns-message"

// HTTPStatusError is returned when a DoH server answers with a non-2xx
// status.
type HTTPStatusError struct {
	Status int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("DoH server returned status %d", e.Status)
}

type dohConn struct {
	client *http.Client
	url    string
	peer   string
	sent   int
	recv   int
}

func dialDoH(ctx context.Context, ep *Endpoint, opts Options) (Conn, error) {
	cfg, err := tlsConfig(ep, opts)
	if err != nil {
		return nil, err
	}

	c := &dohConn{url: ep.URL}
	if c.url == "" {
		host := ep.Host
		if ep.Port != 0 && ep.Port != DoH.DefaultPort() {
			host = net.JoinHostPort(host, strconv.Itoa(int(ep.Port)))
		}
		c.url = "https://" + host + "/dns-query"
	}

	tr := &http.Transport{
		TLSClientConfig:     cfg,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: opts.timeout(),
	}
	if len(ep.Addrs) > 0 {
		// The endpoint was pinned to specific addresses by the family
		// filter; dial those instead of re-resolving.
		addrs := ep.Addrs
		dialer := opts.dialer()
		tr.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
			conn, _, err := dialStream(ctx, dialer, &Endpoint{Addrs: addrs}, opts.timeout())
			if err == nil {
				c.peer = conn.RemoteAddr().String()
			}
			return conn, err
		}
	} else {
		dialer := opts.dialer()
		tr.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, dialNetwork(network, opts.Family), addr)
			if err == nil {
				c.peer = conn.RemoteAddr().String()
			}
			return conn, err
		}
	}
	// HTTP/2 preferred; the transport falls back to HTTP/1.1 when the
	// server does not negotiate h2.
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	c.client = &http.Client{Transport: tr, Timeout: opts.timeout()}
	return c, nil
}

func dialNetwork(network string, family Family) string {
	switch family {
	case FamilyIPv4:
		return network + "4"
	case FamilyIPv6:
		return network + "6"
	}
	return network
}

func (c *dohConn) Exchange(ctx context.Context, query []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(query))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("Accept", mediaType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	logrus.Debugf("DoH %s: %s over %s", c.url, resp.Status, resp.Proto)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxMessageSize {
		return nil, fmt.Errorf("DoH response exceeds %d bytes", maxMessageSize)
	}
	c.sent += len(query)
	c.recv += len(body)
	return body, nil
}

func (c *dohConn) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *dohConn) Kind() Kind { return DoH }

func (c *dohConn) Stats() (int, int) { return c.sent, c.recv }

func (c *dohConn) Peer() string {
	if c.peer != "" {
		return c.peer
	}
	return c.url
}
