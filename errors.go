package dqy

import (
	"context"
	"errors"
	"net"
	"strconv"
	"unicode/utf8"

	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

// ExitCode is the stable process exit code for a failure class.
type ExitCode int

const (
	ExitOK             ExitCode = 0
	ExitIO             ExitCode = 1
	ExitUTF8           ExitCode = 2
	ExitIPParse        ExitCode = 3
	ExitTimeout        ExitCode = 4
	ExitTLS            ExitCode = 5
	ExitDoH            ExitCode = 6
	ExitDNSProtocol    ExitCode = 7
	ExitIPAddressParse ExitCode = 8
	ExitLogger         ExitCode = 9
	ExitResolvConf     ExitCode = 10
	ExitQUIC           ExitCode = 11
	ExitIntegerParse   ExitCode = 12
	ExitResolving      ExitCode = 13
	ExitAsyncRuntime   ExitCode = 14
	ExitIDNA           ExitCode = 15
)

// Sentinel errors for failure classes that have no carrier type of their
// own. Wrap them with fmt.Errorf("...: %w", ...).
var (
	// ErrResolvConf tags failures discovering the OS-configured resolvers.
	ErrResolvConf = errors.New("resolver discovery")
	// ErrIDNA tags failures IDNA-encoding a domain name.
	ErrIDNA = errors.New("IDNA")
	// ErrLogger tags logger initialization failures.
	ErrLogger = errors.New("logger")
	// ErrUTF8 tags invalid UTF-8 input.
	ErrUTF8 = errors.New("invalid UTF-8")
	// ErrIPParse tags failures parsing an IP address.
	ErrIPParse = errors.New("IP parse")
)

// Classify maps an error to its exit code per the failure partition:
// every kind of failure exits with a distinct, documented code.
func Classify(err error) ExitCode {
	if err == nil {
		return ExitOK
	}

	var decodeErr *dnswire.DecodeError
	var tlsErr *transport.TLSError
	var httpErr *transport.HTTPStatusError
	var quicErr *transport.QUICError
	var numErr *strconv.NumError
	var dnsLookupErr *net.DNSError
	var netErr net.Error

	switch {
	case errors.As(err, &decodeErr):
		return ExitDNSProtocol
	case errors.As(err, &tlsErr):
		return ExitTLS
	case errors.As(err, &httpErr):
		return ExitDoH
	case errors.As(err, &quicErr):
		return ExitQUIC
	case errors.Is(err, ErrIDNA):
		return ExitIDNA
	case errors.Is(err, ErrResolvConf):
		return ExitResolvConf
	case errors.Is(err, ErrLogger):
		return ExitLogger
	case errors.Is(err, ErrUTF8):
		return ExitUTF8
	case errors.Is(err, ErrIPParse):
		return ExitIPParse
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ExitTimeout
	case errors.As(err, &dnsLookupErr):
		return ExitResolving
	case errors.Is(err, transport.ErrNoAddresses):
		return ExitResolving
	case errors.As(err, &numErr):
		return ExitIntegerParse
	case isAddrParseError(err):
		return ExitIPAddressParse
	case errors.Is(err, dnswire.ErrLabelTooLong),
		errors.Is(err, dnswire.ErrNameTooLong),
		errors.Is(err, dnswire.ErrEmptyLabel):
		return ExitDNSProtocol
	default:
		return ExitIO
	}
}

func isAddrParseError(err error) bool {
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return true
	}
	var parseErr *net.ParseError
	return errors.As(err, &parseErr)
}

// ValidUTF8 checks command-line input early so that malformed input maps
// to the UTF-8 exit code rather than surfacing later as an IDNA failure.
func ValidUTF8(s string) error {
	if !utf8.ValidString(s) {
		return ErrUTF8
	}
	return nil
}
