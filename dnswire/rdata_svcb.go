package dnswire

import (
	"fmt"
	"net/netip"
	"strings"
)

// SvcParam keys from RFC 9460.
const (
	SvcKeyMandatory     uint16 = 0
	SvcKeyALPN          uint16 = 1
	SvcKeyNoDefaultALPN uint16 = 2
	SvcKeyPort          uint16 = 3
	SvcKeyIPv4Hint      uint16 = 4
	SvcKeyECH           uint16 = 5
	SvcKeyIPv6Hint      uint16 = 6
	SvcKeyDoHPath       uint16 = 7
)

var svcKeyNames = map[uint16]string{
	SvcKeyMandatory:     "mandatory",
	SvcKeyALPN:          "alpn",
	SvcKeyNoDefaultALPN: "no-default-alpn",
	SvcKeyPort:          "port",
	SvcKeyIPv4Hint:      "ipv4hint",
	SvcKeyECH:           "ech",
	SvcKeyIPv6Hint:      "ipv6hint",
	SvcKeyDoHPath:       "dohpath",
}

// SvcKeyToString returns the parameter key mnemonic or "key<n>".
func SvcKeyToString(k uint16) string {
	if s, ok := svcKeyNames[k]; ok {
		return s
	}
	return fmt.Sprintf("key%d", k)
}

// SvcParam is one (key, value) service parameter of an SVCB or HTTPS record.
type SvcParam struct {
	Key   uint16
	Value SvcParamValue
}

// SvcParamValue is the key-specific decoded value of a SvcParam.
type SvcParamValue interface {
	encodeValue(w *Writer) error
	String() string
}

func (p SvcParam) String() string {
	name := SvcKeyToString(p.Key)
	if v := p.Value.String(); v != "" {
		return name + "=" + v
	}
	return name
}

// SvcMandatory lists the keys a client must understand.
type SvcMandatory struct {
	Keys []uint16
}

func (v *SvcMandatory) encodeValue(w *Writer) error {
	for _, k := range v.Keys {
		w.writeU16(k)
	}
	return nil
}

func (v *SvcMandatory) String() string {
	parts := make([]string, 0, len(v.Keys))
	for _, k := range v.Keys {
		parts = append(parts, SvcKeyToString(k))
	}
	return strings.Join(parts, ",")
}

// SvcALPN lists the ALPN protocol identifiers of the endpoint.
type SvcALPN struct {
	Protocols []string
}

func (v *SvcALPN) encodeValue(w *Writer) error {
	for _, p := range v.Protocols {
		if err := w.writeCharString([]byte(p)); err != nil {
			return err
		}
	}
	return nil
}

func (v *SvcALPN) String() string { return `"` + strings.Join(v.Protocols, ",") + `"` }

// SvcNoDefaultALPN is the empty no-default-alpn marker.
type SvcNoDefaultALPN struct{}

func (v *SvcNoDefaultALPN) encodeValue(*Writer) error { return nil }
func (v *SvcNoDefaultALPN) String() string            { return "" }

// SvcPort overrides the endpoint port.
type SvcPort struct {
	Port uint16
}

func (v *SvcPort) encodeValue(w *Writer) error {
	w.writeU16(v.Port)
	return nil
}

func (v *SvcPort) String() string { return fmt.Sprintf("%d", v.Port) }

// SvcIPHint carries ipv4hint or ipv6hint addresses.
type SvcIPHint struct {
	Addrs []netip.Addr
}

func (v *SvcIPHint) encodeValue(w *Writer) error {
	for _, a := range v.Addrs {
		b := a.AsSlice()
		w.writeBytes(b)
	}
	return nil
}

func (v *SvcIPHint) String() string {
	parts := make([]string, 0, len(v.Addrs))
	for _, a := range v.Addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ",")
}

// SvcECH is the encrypted-client-hello configuration, kept opaque.
type SvcECH struct {
	Config []byte
}

func (v *SvcECH) encodeValue(w *Writer) error {
	w.writeBytes(v.Config)
	return nil
}

func (v *SvcECH) String() string { return b64(v.Config) }

// SvcDoHPath is the DNS-over-HTTPS URI template path.
type SvcDoHPath struct {
	Template string
}

func (v *SvcDoHPath) encodeValue(w *Writer) error {
	w.writeBytes([]byte(v.Template))
	return nil
}

func (v *SvcDoHPath) String() string { return fmt.Sprintf("%q", v.Template) }

// SvcOpaque preserves unknown parameter values byte for byte.
type SvcOpaque struct {
	Data []byte
}

func (v *SvcOpaque) encodeValue(w *Writer) error {
	w.writeBytes(v.Data)
	return nil
}

func (v *SvcOpaque) String() string { return fmt.Sprintf("%q", v.Data) }

// SVCB is the service-binding record body per RFC 9460.
type SVCB struct {
	Priority uint16
	Target   Name
	Params   []SvcParam
}

func (s *SVCB) encode(w *Writer) error {
	w.writeU16(s.Priority)
	if err := s.Target.encode(w); err != nil {
		return err
	}
	for _, p := range s.Params {
		w.writeU16(p.Key)
		lenOff := w.Len()
		w.writeU16(0)
		if err := p.Value.encodeValue(w); err != nil {
			return err
		}
		w.patchU16(lenOff, uint16(w.Len()-lenOff-2))
	}
	return nil
}

func (s *SVCB) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", s.Priority, s.Target)
	for _, p := range s.Params {
		b.WriteByte(' ')
		b.WriteString(p.String())
	}
	return b.String()
}

func decodeSVCBBody(r *Reader, rdlen int, field string) (SVCB, error) {
	end := r.off + rdlen
	var s SVCB
	var err error
	if s.Priority, err = r.readU16(field + ".priority"); err != nil {
		return s, err
	}
	if s.Target, err = r.readName(field + ".target"); err != nil {
		return s, err
	}
	for r.off < end {
		var p SvcParam
		if p.Key, err = r.readU16(field + ".param-key"); err != nil {
			return s, err
		}
		var vlen uint16
		if vlen, err = r.readU16(field + ".param-length"); err != nil {
			return s, err
		}
		if r.off+int(vlen) > end {
			return s, r.fail(field+".param-value", ErrRDataLength)
		}
		var value []byte
		if value, err = r.readBytes(int(vlen), field+".param-value"); err != nil {
			return s, err
		}
		if p.Value, err = decodeSvcParamValue(p.Key, value); err != nil {
			return s, &DecodeError{Offset: r.off, Field: field + "." + SvcKeyToString(p.Key), Err: err}
		}
		s.Params = append(s.Params, p)
	}
	return s, nil
}

func decodeSvcParamValue(key uint16, value []byte) (SvcParamValue, error) {
	switch key {
	case SvcKeyMandatory:
		if len(value)%2 != 0 {
			return nil, ErrRDataLength
		}
		v := &SvcMandatory{}
		for i := 0; i < len(value); i += 2 {
			v.Keys = append(v.Keys, uint16(value[i])<<8|uint16(value[i+1]))
		}
		return v, nil
	case SvcKeyALPN:
		v := &SvcALPN{}
		sub := NewReader(value)
		for sub.Remaining() > 0 {
			p, err := sub.readCharString("alpn")
			if err != nil {
				return nil, ErrRDataLength
			}
			v.Protocols = append(v.Protocols, string(p))
		}
		return v, nil
	case SvcKeyNoDefaultALPN:
		if len(value) != 0 {
			return nil, ErrRDataLength
		}
		return &SvcNoDefaultALPN{}, nil
	case SvcKeyPort:
		if len(value) != 2 {
			return nil, ErrRDataLength
		}
		return &SvcPort{Port: uint16(value[0])<<8 | uint16(value[1])}, nil
	case SvcKeyIPv4Hint:
		if len(value) == 0 || len(value)%4 != 0 {
			return nil, ErrRDataLength
		}
		v := &SvcIPHint{}
		for i := 0; i < len(value); i += 4 {
			v.Addrs = append(v.Addrs, netip.AddrFrom4([4]byte(value[i:i+4])))
		}
		return v, nil
	case SvcKeyIPv6Hint:
		if len(value) == 0 || len(value)%16 != 0 {
			return nil, ErrRDataLength
		}
		v := &SvcIPHint{}
		for i := 0; i < len(value); i += 16 {
			v.Addrs = append(v.Addrs, netip.AddrFrom16([16]byte(value[i:i+16])))
		}
		return v, nil
	case SvcKeyECH:
		return &SvcECH{Config: value}, nil
	case SvcKeyDoHPath:
		return &SvcDoHPath{Template: string(value)}, nil
	default:
		return &SvcOpaque{Data: value}, nil
	}
}

func decodeSVCB(r *Reader, rdlen int) (RData, error) {
	s, err := decodeSVCBBody(r, rdlen, "SVCB")
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// HTTPS shares the SVCB wire shape, bound to the HTTPS scheme.
type HTTPS struct {
	SVCB
}

func decodeHTTPS(r *Reader, rdlen int) (RData, error) {
	s, err := decodeSVCBBody(r, rdlen, "HTTPS")
	if err != nil {
		return nil, err
	}
	return &HTTPS{SVCB: s}, nil
}
