package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"

	"github.com/sirupsen/logrus"
)

// TLSError wraps a handshake or certificate failure so callers can map it
// to its own failure class.
type TLSError struct {
	Err error
}

func (e *TLSError) Error() string { return "TLS: " + e.Err.Error() }

func (e *TLSError) Unwrap() error { return e.Err }

// alpnDoT is the RFC 7858 ALPN token.
const alpnDoT = "dot"

// tlsConfig builds the client configuration shared by DoT, DoH and DoQ.
func tlsConfig(ep *Endpoint, opts Options) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: ep.Host,
	}
	if opts.SNI != "" {
		cfg.ServerName = opts.SNI
	}
	if len(opts.CertPEM) > 0 {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(opts.CertPEM) {
			// Not PEM; try raw DER.
			cert, err := x509.ParseCertificate(opts.CertPEM)
			if err != nil {
				return nil, &TLSError{Err: fmt.Errorf("certificate is neither PEM nor DER: %w", err)}
			}
			pool.AddCert(cert)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func dialDoT(ctx context.Context, ep *Endpoint, opts Options) (Conn, error) {
	cfg, err := tlsConfig(ep, opts)
	if err != nil {
		return nil, err
	}
	alpn := alpnDoT
	if opts.ALPN != "" {
		alpn = opts.ALPN
	}
	cfg.NextProtos = []string{alpn}

	raw, addr, err := dialStream(ctx, opts.dialer(), ep, opts.timeout())
	if err != nil {
		return nil, err
	}
	conn := tls.Client(raw, cfg)
	hctx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()
	if err := conn.HandshakeContext(hctx); err != nil {
		_ = raw.Close()
		return nil, &TLSError{Err: err}
	}
	state := conn.ConnectionState()
	logrus.Debugf("TLS session to %s: version=%x alpn=%q", addr, state.Version, state.NegotiatedProtocol)
	return &tcpConn{conn: conn, kind: DoT, peer: addr.String(), timeout: opts.timeout()}, nil
}
