package dqy

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/dnsquery/dqy/dnswire"
)

// EDNS defaults.
const (
	// DefaultBufSize is the default EDNS(0) UDP payload size.
	DefaultBufSize = 1232
	// MinBufSize and MaxBufSize bound the user-chosen payload size.
	MinBufSize = 512
	MaxBufSize = 65535
	// DefaultPadBlock is the RFC 8467 recommended padding block size.
	DefaultPadBlock = 128
)

// QueryOptions describes one question message to build.
type QueryOptions struct {
	// Name is the domain to query, as typed by the user; non-ASCII labels
	// are IDNA-encoded when the message is built.
	Name string
	// Type is the QTYPE; meta types like ANY and AXFR are allowed.
	Type uint16
	// Class is the QCLASS; zero means IN.
	Class uint16

	// NoRecursion clears the RD bit.
	NoRecursion bool
	// CheckingDisabled sets the CD bit.
	CheckingDisabled bool

	// NoEDNS suppresses the OPT record entirely.
	NoEDNS bool
	// BufSize is the EDNS payload size; zero means DefaultBufSize. Values
	// are clamped to [MinBufSize, MaxBufSize].
	BufSize uint16
	// DNSSEC sets the DO bit.
	DNSSEC bool
	// NSID requests the server identifier.
	NSID bool
	// Padding pads the query to a multiple of PadBlock octets.
	Padding bool
	// PadBlock is the padding block size; zero means DefaultPadBlock.
	PadBlock int
	// Cookie adds a fresh 8-octet client cookie.
	Cookie bool
	// DAU, DHU and N3U advertise understood algorithm lists.
	DAU, DHU, N3U []uint8
	// EDE requests extended DNS errors.
	EDE bool
	// ReportChannel adds an empty Report-Channel option.
	ReportChannel bool
	// Zoneversion requests the zone version.
	Zoneversion bool
}

// randomID returns a cryptographically unpredictable transaction ID;
// predictable IDs invite off-path spoofing on UDP.
func randomID() (uint16, error) {
	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// newClientCookie returns a fresh 8-octet client cookie.
func newClientCookie() ([8]byte, error) {
	var c [8]byte
	_, err := rand.Read(c[:])
	return c, err
}

// BuildQuery assembles a single question message. The transaction ID is
// random; DoQ callers must zero it before serializing.
func BuildQuery(opts QueryOptions) (*dnswire.Message, error) {
	name, err := dnswire.NewName(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIDNA, err)
	}
	id, err := randomID()
	if err != nil {
		return nil, err
	}
	class := opts.Class
	if class == 0 {
		class = dnswire.ClassINET
	}
	msg := &dnswire.Message{
		Header: dnswire.Header{
			ID: id,
			Flags: dnswire.Flags{
				OpCode: dnswire.OpCodeQuery,
				RD:     !opts.NoRecursion,
				CD:     opts.CheckingDisabled,
			},
		},
		Questions: []dnswire.Question{{Name: name, Type: opts.Type, Class: class}},
	}
	if opts.NoEDNS {
		return msg, nil
	}

	opt, err := buildOPT(opts)
	if err != nil {
		return nil, err
	}
	msg.Additional = append(msg.Additional, opt)

	if opts.Padding {
		if err := padMessage(msg, opts.padBlock()); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (o QueryOptions) padBlock() int {
	if o.PadBlock > 0 {
		return o.PadBlock
	}
	return DefaultPadBlock
}

func (o QueryOptions) bufSize() uint16 {
	size := o.BufSize
	if size == 0 {
		size = DefaultBufSize
	}
	if size < MinBufSize {
		size = MinBufSize
	}
	return size
}

// buildOPT assembles the OPT pseudo-RR with the requested options in a
// stable order: NSID, Padding, Cookie, DAU/DHU/N3U, EDE, Report-Channel,
// Zoneversion. The padding option itself is appended by padMessage once
// the final length is known.
func buildOPT(opts QueryOptions) (dnswire.RR, error) {
	data := &dnswire.OPT{}
	if opts.NSID {
		data.Options = append(data.Options, &dnswire.EDNSNSID{})
	}
	if opts.Cookie {
		client, err := newClientCookie()
		if err != nil {
			return dnswire.RR{}, err
		}
		data.Options = append(data.Options, &dnswire.EDNSCookie{Client: client})
	}
	for _, algs := range []struct {
		code uint16
		list []uint8
	}{
		{dnswire.EDNSOptionDAU, opts.DAU},
		{dnswire.EDNSOptionDHU, opts.DHU},
		{dnswire.EDNSOptionN3U, opts.N3U},
	} {
		if len(algs.list) > 0 {
			data.Options = append(data.Options, &dnswire.EDNSAlgorithms{
				OptionCode: algs.code,
				Algorithms: algs.list,
			})
		}
	}
	if opts.EDE {
		data.Options = append(data.Options, &dnswire.EDNSExtendedError{})
	}
	if opts.ReportChannel {
		data.Options = append(data.Options, &dnswire.EDNSReportChannel{})
	}
	if opts.Zoneversion {
		data.Options = append(data.Options, &dnswire.EDNSZoneversion{})
	}
	return dnswire.RR{
		Name:  dnswire.RootName,
		Type:  dnswire.TypeOPT,
		Class: opts.bufSize(),
		TTL:   dnswire.MakeOPTTTL(0, 0, opts.DNSSEC),
		Data:  data,
	}, nil
}

// padMessage inserts an RFC 8467 padding option sized so the encoded
// message length becomes a multiple of block. The option goes right after
// NSID to keep the option order stable.
func padMessage(msg *dnswire.Message, block int) error {
	encoded, err := msg.Encode()
	if err != nil {
		return err
	}
	// The option header itself adds four octets before any fill.
	pad := (block - (len(encoded)+4)%block) % block
	data := msg.OPT().Data.(*dnswire.OPT)
	at := 0
	if len(data.Options) > 0 && data.Options[0].Code() == dnswire.EDNSOptionNSID {
		at = 1
	}
	padding := &dnswire.EDNSPadding{Padding: make([]byte, pad)}
	data.Options = append(data.Options[:at], append([]dnswire.EDNSOption{padding}, data.Options[at:]...)...)
	return nil
}
