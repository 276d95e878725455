package dnswire

import (
	"fmt"
	"strings"
)

// EDNS option codes the package decodes into typed values. Anything else
// is preserved as an [EDNSRaw].
const (
	EDNSOptionNSID          uint16 = 3
	EDNSOptionDAU           uint16 = 5
	EDNSOptionDHU           uint16 = 6
	EDNSOptionN3U           uint16 = 7
	EDNSOptionCookie        uint16 = 10
	EDNSOptionPadding       uint16 = 12
	EDNSOptionEDE           uint16 = 15
	EDNSOptionReportChannel uint16 = 18
	EDNSOptionZoneversion   uint16 = 19
)

var ednsOptionNames = map[uint16]string{
	EDNSOptionNSID:          "NSID",
	EDNSOptionDAU:           "DAU",
	EDNSOptionDHU:           "DHU",
	EDNSOptionN3U:           "N3U",
	EDNSOptionCookie:        "COOKIE",
	EDNSOptionPadding:       "PADDING",
	EDNSOptionEDE:           "EDE",
	EDNSOptionReportChannel: "REPORT-CHANNEL",
	EDNSOptionZoneversion:   "ZONEVERSION",
}

// EDNSOptionToString returns the option mnemonic or "OPT<n>".
func EDNSOptionToString(code uint16) string {
	if s, ok := ednsOptionNames[code]; ok {
		return s
	}
	return fmt.Sprintf("OPT%d", code)
}

// EDNSOption is one (code, data) option inside an OPT RR.
type EDNSOption interface {
	Code() uint16
	encodeData(w *Writer) error
	String() string
}

// EDNSNSID requests or carries the server's name server identifier.
type EDNSNSID struct {
	ID []byte
}

func (o *EDNSNSID) Code() uint16 { return EDNSOptionNSID }

func (o *EDNSNSID) encodeData(w *Writer) error {
	w.writeBytes(o.ID)
	return nil
}

func (o *EDNSNSID) String() string {
	if len(o.ID) == 0 {
		return ""
	}
	printable := true
	for _, c := range o.ID {
		if c < 0x20 || c > 0x7E {
			printable = false
			break
		}
	}
	if printable {
		return fmt.Sprintf("%s (%q)", hexUpper(o.ID), o.ID)
	}
	return hexUpper(o.ID)
}

// EDNSCookie is the RFC 7873 DNS cookie: an 8-octet client cookie and an
// optional 8 to 32 octet server cookie.
type EDNSCookie struct {
	Client [8]byte
	Server []byte
}

func (o *EDNSCookie) Code() uint16 { return EDNSOptionCookie }

func (o *EDNSCookie) encodeData(w *Writer) error {
	if n := len(o.Server); n != 0 && (n < 8 || n > 32) {
		return fmt.Errorf("server cookie length %d outside 8..32", n)
	}
	w.writeBytes(o.Client[:])
	w.writeBytes(o.Server)
	return nil
}

func (o *EDNSCookie) String() string {
	s := hexUpper(o.Client[:])
	if len(o.Server) > 0 {
		s += " " + hexUpper(o.Server)
	}
	return s
}

// EDNSPadding is the RFC 7830 padding option.
type EDNSPadding struct {
	Padding []byte
}

func (o *EDNSPadding) Code() uint16 { return EDNSOptionPadding }

func (o *EDNSPadding) encodeData(w *Writer) error {
	w.writeBytes(o.Padding)
	return nil
}

func (o *EDNSPadding) String() string { return fmt.Sprintf("%d octets", len(o.Padding)) }

// EDNSExtendedError is the RFC 8914 extended DNS error option.
type EDNSExtendedError struct {
	InfoCode  uint16
	ExtraText string
}

func (o *EDNSExtendedError) Code() uint16 { return EDNSOptionEDE }

func (o *EDNSExtendedError) encodeData(w *Writer) error {
	w.writeU16(o.InfoCode)
	w.writeBytes([]byte(o.ExtraText))
	return nil
}

// edeCodeNames are the RFC 8914 info-code mnemonics.
var edeCodeNames = map[uint16]string{
	0:  "Other",
	1:  "Unsupported DNSKEY Algorithm",
	2:  "Unsupported DS Digest Type",
	3:  "Stale Answer",
	4:  "Forged Answer",
	5:  "DNSSEC Indeterminate",
	6:  "DNSSEC Bogus",
	7:  "Signature Expired",
	8:  "Signature Not Yet Valid",
	9:  "DNSKEY Missing",
	10: "RRSIGs Missing",
	11: "No Zone Key Bit Set",
	12: "NSEC Missing",
	13: "Cached Error",
	14: "Not Ready",
	15: "Blocked",
	16: "Censored",
	17: "Filtered",
	18: "Prohibited",
	19: "Stale NXDOMAIN Answer",
	20: "Not Authoritative",
	21: "Not Supported",
	22: "No Reachable Authority",
	23: "Network Error",
	24: "Invalid Data",
}

func (o *EDNSExtendedError) String() string {
	s := fmt.Sprintf("%d", o.InfoCode)
	if name, ok := edeCodeNames[o.InfoCode]; ok {
		s += " (" + name + ")"
	}
	if o.ExtraText != "" {
		s += ": " + o.ExtraText
	}
	return s
}

// EDNSReportChannel is the RFC 9567 agent domain option. The agent domain
// is never compressed on the wire.
type EDNSReportChannel struct {
	AgentDomain Name
}

func (o *EDNSReportChannel) Code() uint16 { return EDNSOptionReportChannel }

func (o *EDNSReportChannel) encodeData(w *Writer) error {
	return o.AgentDomain.encode(w)
}

func (o *EDNSReportChannel) String() string { return o.AgentDomain.String() }

// EDNSZoneversion is the RFC 9660 zone version option.
type EDNSZoneversion struct {
	LabelCount uint8
	Type       uint8
	Version    []byte
}

func (o *EDNSZoneversion) Code() uint16 { return EDNSOptionZoneversion }

func (o *EDNSZoneversion) encodeData(w *Writer) error {
	w.writeU8(o.LabelCount)
	w.writeU8(o.Type)
	w.writeBytes(o.Version)
	return nil
}

func (o *EDNSZoneversion) String() string {
	return fmt.Sprintf("%d %d %s", o.LabelCount, o.Type, hexUpper(o.Version))
}

// EDNSAlgorithms carries a DAU, DHU or N3U algorithm-understood list
// per RFC 6975; the option code tells the three apart.
type EDNSAlgorithms struct {
	OptionCode uint16
	Algorithms []uint8
}

func (o *EDNSAlgorithms) Code() uint16 { return o.OptionCode }

func (o *EDNSAlgorithms) encodeData(w *Writer) error {
	w.writeBytes(o.Algorithms)
	return nil
}

func (o *EDNSAlgorithms) String() string {
	parts := make([]string, 0, len(o.Algorithms))
	for _, a := range o.Algorithms {
		parts = append(parts, fmt.Sprintf("%d", a))
	}
	return strings.Join(parts, ", ")
}

// EDNSRaw preserves an unrecognized option code as opaque bytes.
type EDNSRaw struct {
	OptionCode uint16
	Data       []byte
}

func (o *EDNSRaw) Code() uint16 { return o.OptionCode }

func (o *EDNSRaw) encodeData(w *Writer) error {
	w.writeBytes(o.Data)
	return nil
}

func (o *EDNSRaw) String() string { return hexUpper(o.Data) }

// OPT is the RDATA of the EDNS(0) pseudo-RR. The payload size lives in the
// enclosing RR's Class field and the extended-RCODE/version/DO word in its
// TTL field; see [RR] and the helpers on [Message].
type OPT struct {
	Options []EDNSOption
}

func (o *OPT) encode(w *Writer) error {
	for _, opt := range o.Options {
		w.writeU16(opt.Code())
		lenOff := w.Len()
		w.writeU16(0)
		if err := opt.encodeData(w); err != nil {
			return err
		}
		w.patchU16(lenOff, uint16(w.Len()-lenOff-2))
	}
	return nil
}

func (o *OPT) String() string {
	parts := make([]string, 0, len(o.Options))
	for _, opt := range o.Options {
		parts = append(parts, EDNSOptionToString(opt.Code())+": "+opt.String())
	}
	return strings.Join(parts, "; ")
}

func decodeOPT(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var o OPT
	for r.off < end {
		code, err := r.readU16("OPT.option-code")
		if err != nil {
			return nil, err
		}
		var olen uint16
		if olen, err = r.readU16("OPT.option-length"); err != nil {
			return nil, err
		}
		if r.off+int(olen) > end {
			return nil, r.fail("OPT.option-data", ErrRDataLength)
		}
		var data []byte
		if data, err = r.readBytes(int(olen), "OPT.option-data"); err != nil {
			return nil, err
		}
		opt, err := decodeEDNSOption(code, data)
		if err != nil {
			return nil, &DecodeError{Offset: r.off, Field: "OPT." + EDNSOptionToString(code), Err: err}
		}
		o.Options = append(o.Options, opt)
	}
	return &o, nil
}

func decodeEDNSOption(code uint16, data []byte) (EDNSOption, error) {
	switch code {
	case EDNSOptionNSID:
		return &EDNSNSID{ID: data}, nil
	case EDNSOptionDAU, EDNSOptionDHU, EDNSOptionN3U:
		return &EDNSAlgorithms{OptionCode: code, Algorithms: data}, nil
	case EDNSOptionCookie:
		if n := len(data); n < 8 || n > 40 {
			return nil, fmt.Errorf("cookie length %d outside 8..40", n)
		}
		c := &EDNSCookie{Client: [8]byte(data[:8])}
		if len(data) > 8 {
			c.Server = data[8:]
		}
		return c, nil
	case EDNSOptionPadding:
		return &EDNSPadding{Padding: data}, nil
	case EDNSOptionEDE:
		if len(data) < 2 {
			return nil, ErrShortMessage
		}
		return &EDNSExtendedError{
			InfoCode:  uint16(data[0])<<8 | uint16(data[1]),
			ExtraText: string(data[2:]),
		}, nil
	case EDNSOptionReportChannel:
		sub := NewReader(data)
		name, err := sub.readName("agent-domain")
		if err != nil {
			return nil, err
		}
		return &EDNSReportChannel{AgentDomain: name}, nil
	case EDNSOptionZoneversion:
		if len(data) < 2 {
			return nil, ErrShortMessage
		}
		return &EDNSZoneversion{LabelCount: data[0], Type: data[1], Version: data[2:]}, nil
	default:
		return &EDNSRaw{OptionCode: code, Data: data}, nil
	}
}

// OPT header helpers; these interpret the overloaded RR fields.

// OPTPayloadSize returns the requestor's UDP payload size from the OPT
// RR's Class field.
func (rr *RR) OPTPayloadSize() uint16 { return rr.Class }

// OPTDo reports the DNSSEC-OK bit from the OPT RR's TTL field.
func (rr *RR) OPTDo() bool { return rr.TTL&0x8000 != 0 }

// OPTVersion returns the EDNS version from the OPT RR's TTL field.
func (rr *RR) OPTVersion() uint8 { return uint8(rr.TTL >> 16) }

// OPTExtendedRcodeBits returns the upper eight bits of the extended RCODE
// from the OPT RR's TTL field.
func (rr *RR) OPTExtendedRcodeBits() uint8 { return uint8(rr.TTL >> 24) }

// MakeOPTTTL packs the extended-RCODE bits, version and DO flag into the
// OPT TTL field.
func MakeOPTTTL(extRcodeBits, version uint8, do bool) uint32 {
	v := uint32(extRcodeBits)<<24 | uint32(version)<<16
	if do {
		v |= 0x8000
	}
	return v
}
