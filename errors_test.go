package dqy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"testing"

	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

func TestClassify(t *testing.T) {
	_, numErr := strconv.Atoi("zz")
	cases := []struct {
		name string
		err  error
		want ExitCode
	}{
		{"nil", nil, ExitOK},
		{"decode", &dnswire.DecodeError{Field: "rr.type", Err: dnswire.ErrShortMessage}, ExitDNSProtocol},
		{"wrapped decode", fmt.Errorf("query: %w", &dnswire.DecodeError{Err: dnswire.ErrShortMessage}), ExitDNSProtocol},
		{"tls", &transport.TLSError{Err: errors.New("bad cert")}, ExitTLS},
		{"doh", &transport.HTTPStatusError{Status: 500}, ExitDoH},
		{"quic", &transport.QUICError{Err: errors.New("handshake")}, ExitQUIC},
		{"idna", fmt.Errorf("%w: bad label", ErrIDNA), ExitIDNA},
		{"resolvconf", fmt.Errorf("%w: no file", ErrResolvConf), ExitResolvConf},
		{"logger", fmt.Errorf("%w: open failed", ErrLogger), ExitLogger},
		{"utf8", ErrUTF8, ExitUTF8},
		{"ipparse", fmt.Errorf("%w: bad ip", ErrIPParse), ExitIPParse},
		{"deadline", context.DeadlineExceeded, ExitTimeout},
		{"integer", numErr, ExitIntegerParse},
		{"lookup", &net.DNSError{Err: "no such host", Name: "x.invalid"}, ExitResolving},
		{"noaddrs", fmt.Errorf("%w: host", transport.ErrNoAddresses), ExitResolving},
		{"addr", &net.AddrError{Err: "bad", Addr: "x"}, ExitIPAddressParse},
		{"name bounds", dnswire.ErrNameTooLong, ExitDNSProtocol},
		{"io", errors.New("connection refused"), ExitIO},
	}
	for _, c := range cases {
		if got := Classify(c.err); got != c.want {
			t.Errorf("Classify(%s) = %d; want %d", c.name, got, c.want)
		}
	}
}

func TestClassifyNetTimeout(t *testing.T) {
	err := &net.OpError{Op: "read", Err: &timeoutError{}}
	if got := Classify(err); got != ExitTimeout {
		t.Errorf("Classify(net timeout) = %d; want %d", got, ExitTimeout)
	}
}

type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }

func TestValidUTF8(t *testing.T) {
	if err := ValidUTF8("스타벅스코리아.com"); err != nil {
		t.Errorf("valid UTF-8 rejected: %v", err)
	}
	if err := ValidUTF8(string([]byte{0xFF, 0xFE})); !errors.Is(err, ErrUTF8) {
		t.Errorf("err = %v; want ErrUTF8", err)
	}
}
