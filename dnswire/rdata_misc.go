package dnswire

import (
	"fmt"
	"net/netip"
	"strings"
)

// LOC is the geographical location record body per RFC 1876. Size and the
// precision fields use the RFC's base/exponent nibble encoding.
type LOC struct {
	Version   uint8
	Size      uint8
	HorizPre  uint8
	VertPre   uint8
	Latitude  uint32
	Longitude uint32
	Altitude  uint32
}

func (l *LOC) encode(w *Writer) error {
	w.writeU8(l.Version)
	w.writeU8(l.Size)
	w.writeU8(l.HorizPre)
	w.writeU8(l.VertPre)
	w.writeU32(l.Latitude)
	w.writeU32(l.Longitude)
	w.writeU32(l.Altitude)
	return nil
}

// locCoord renders a latitude or longitude in degrees/minutes/seconds.
func locCoord(v uint32, pos, neg byte) string {
	equator := uint32(1 << 31)
	hemi := pos
	var ms uint32
	if v >= equator {
		ms = v - equator
	} else {
		ms = equator - v
		hemi = neg
	}
	deg := ms / (1000 * 60 * 60)
	ms %= 1000 * 60 * 60
	minutes := ms / (1000 * 60)
	ms %= 1000 * 60
	return fmt.Sprintf("%d %d %d.%03d %c", deg, minutes, ms/1000, ms%1000, hemi)
}

// locSize expands the RFC 1876 base*10^exponent centimeter encoding.
func locSize(v uint8) string {
	base := uint64(v >> 4)
	for exp := int(v & 0x0F); exp > 0; exp-- {
		base *= 10
	}
	return fmt.Sprintf("%d.%02dm", base/100, base%100)
}

func (l *LOC) String() string {
	alt := int64(l.Altitude) - 10_000_000
	return fmt.Sprintf("%s %s %d.%02dm %s %s %s",
		locCoord(l.Latitude, 'N', 'S'), locCoord(l.Longitude, 'E', 'W'),
		alt/100, abs64(alt)%100, locSize(l.Size), locSize(l.HorizPre), locSize(l.VertPre))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func decodeLOC(r *Reader) (RData, error) {
	var l LOC
	var err error
	if l.Version, err = r.readU8("LOC.version"); err != nil {
		return nil, err
	}
	if l.Size, err = r.readU8("LOC.size"); err != nil {
		return nil, err
	}
	if l.HorizPre, err = r.readU8("LOC.horiz-pre"); err != nil {
		return nil, err
	}
	if l.VertPre, err = r.readU8("LOC.vert-pre"); err != nil {
		return nil, err
	}
	if l.Latitude, err = r.readU32("LOC.latitude"); err != nil {
		return nil, err
	}
	if l.Longitude, err = r.readU32("LOC.longitude"); err != nil {
		return nil, err
	}
	if l.Altitude, err = r.readU32("LOC.altitude"); err != nil {
		return nil, err
	}
	return &l, nil
}

// APLItem is one address prefix of an APL record.
type APLItem struct {
	Family   uint16
	Prefix   uint8
	Negation bool
	AFD      []byte // trailing zero octets stripped, per RFC 3123
}

// APL is the address prefix list record body per RFC 3123.
type APL struct {
	Items []APLItem
}

func (a *APL) encode(w *Writer) error {
	for _, it := range a.Items {
		if len(it.AFD) > 127 {
			return fmt.Errorf("APL afdpart too long: %d octets", len(it.AFD))
		}
		w.writeU16(it.Family)
		w.writeU8(it.Prefix)
		n := uint8(len(it.AFD))
		if it.Negation {
			n |= 0x80
		}
		w.writeU8(n)
		w.writeBytes(it.AFD)
	}
	return nil
}

func (it APLItem) String() string {
	var addr string
	switch it.Family {
	case 1:
		var b [4]byte
		copy(b[:], it.AFD)
		addr = netip.AddrFrom4(b).String()
	case 2:
		var b [16]byte
		copy(b[:], it.AFD)
		addr = netip.AddrFrom16(b).String()
	default:
		addr = hexUpper(it.AFD)
	}
	neg := ""
	if it.Negation {
		neg = "!"
	}
	return fmt.Sprintf("%s%d:%s/%d", neg, it.Family, addr, it.Prefix)
}

func (a *APL) String() string {
	parts := make([]string, 0, len(a.Items))
	for _, it := range a.Items {
		parts = append(parts, it.String())
	}
	return strings.Join(parts, " ")
}

func decodeAPL(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var a APL
	for r.off < end {
		var it APLItem
		var err error
		if it.Family, err = r.readU16("APL.family"); err != nil {
			return nil, err
		}
		if it.Prefix, err = r.readU8("APL.prefix"); err != nil {
			return nil, err
		}
		var n uint8
		if n, err = r.readU8("APL.afdlength"); err != nil {
			return nil, err
		}
		it.Negation = n&0x80 != 0
		if it.AFD, err = r.readBytes(int(n&0x7F), "APL.afdpart"); err != nil {
			return nil, err
		}
		a.Items = append(a.Items, it)
	}
	return &a, nil
}

// IPSECKEY gateway types.
const (
	IPSECKEYGatewayNone uint8 = 0
	IPSECKEYGatewayIPv4 uint8 = 1
	IPSECKEYGatewayIPv6 uint8 = 2
	IPSECKEYGatewayName uint8 = 3
)

// IPSECKEY is the IPsec keying material record body per RFC 4025. The
// gateway representation depends on GatewayType.
type IPSECKEY struct {
	Precedence  uint8
	GatewayType uint8
	Algorithm   uint8
	GatewayAddr netip.Addr // gateway types 1 and 2
	GatewayName Name       // gateway type 3
	PublicKey   []byte
}

func (k *IPSECKEY) encode(w *Writer) error {
	w.writeU8(k.Precedence)
	w.writeU8(k.GatewayType)
	w.writeU8(k.Algorithm)
	switch k.GatewayType {
	case IPSECKEYGatewayNone:
	case IPSECKEYGatewayIPv4:
		b := k.GatewayAddr.As4()
		w.writeBytes(b[:])
	case IPSECKEYGatewayIPv6:
		b := k.GatewayAddr.As16()
		w.writeBytes(b[:])
	case IPSECKEYGatewayName:
		if err := k.GatewayName.encode(w); err != nil {
			return err
		}
	default:
		return fmt.Errorf("IPSECKEY gateway type %d unknown", k.GatewayType)
	}
	w.writeBytes(k.PublicKey)
	return nil
}

func (k *IPSECKEY) String() string {
	gateway := "."
	switch k.GatewayType {
	case IPSECKEYGatewayIPv4, IPSECKEYGatewayIPv6:
		gateway = k.GatewayAddr.String()
	case IPSECKEYGatewayName:
		gateway = k.GatewayName.String()
	}
	return fmt.Sprintf("%d %d %d %s %s", k.Precedence, k.GatewayType, k.Algorithm, gateway, b64(k.PublicKey))
}

func decodeIPSECKEY(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var k IPSECKEY
	var err error
	if k.Precedence, err = r.readU8("IPSECKEY.precedence"); err != nil {
		return nil, err
	}
	if k.GatewayType, err = r.readU8("IPSECKEY.gateway-type"); err != nil {
		return nil, err
	}
	if k.Algorithm, err = r.readU8("IPSECKEY.algorithm"); err != nil {
		return nil, err
	}
	switch k.GatewayType {
	case IPSECKEYGatewayNone:
	case IPSECKEYGatewayIPv4:
		var b []byte
		if b, err = r.readBytes(4, "IPSECKEY.gateway"); err != nil {
			return nil, err
		}
		k.GatewayAddr = netip.AddrFrom4([4]byte(b))
	case IPSECKEYGatewayIPv6:
		var b []byte
		if b, err = r.readBytes(16, "IPSECKEY.gateway"); err != nil {
			return nil, err
		}
		k.GatewayAddr = netip.AddrFrom16([16]byte(b))
	case IPSECKEYGatewayName:
		if k.GatewayName, err = r.readName("IPSECKEY.gateway"); err != nil {
			return nil, err
		}
	default:
		return nil, r.fail("IPSECKEY.gateway-type", ErrRDataLength)
	}
	if k.PublicKey, err = r.readBytes(end-r.off, "IPSECKEY.key"); err != nil {
		return nil, err
	}
	return &k, nil
}

// HIP is the host identity protocol record body per RFC 8005. The
// rendezvous server list is read until RDLENGTH is exhausted; the RFC
// carries no count for it.
type HIP struct {
	PKAlgorithm uint8
	HIT         []byte
	PublicKey   []byte
	Rendezvous  []Name
}

func (h *HIP) encode(w *Writer) error {
	if len(h.HIT) > 255 {
		return fmt.Errorf("HIP HIT too long: %d octets", len(h.HIT))
	}
	w.writeU8(uint8(len(h.HIT)))
	w.writeU8(h.PKAlgorithm)
	if len(h.PublicKey) > 0xFFFF {
		return fmt.Errorf("HIP public key too long: %d octets", len(h.PublicKey))
	}
	w.writeU16(uint16(len(h.PublicKey)))
	w.writeBytes(h.HIT)
	w.writeBytes(h.PublicKey)
	for _, rv := range h.Rendezvous {
		if err := rv.encode(w); err != nil {
			return err
		}
	}
	return nil
}

func (h *HIP) String() string {
	s := fmt.Sprintf("%d %s %s", h.PKAlgorithm, hexUpper(h.HIT), b64(h.PublicKey))
	for _, rv := range h.Rendezvous {
		s += " " + rv.String()
	}
	return s
}

func decodeHIP(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var h HIP
	hitLen, err := r.readU8("HIP.hit-length")
	if err != nil {
		return nil, err
	}
	if h.PKAlgorithm, err = r.readU8("HIP.pk-algorithm"); err != nil {
		return nil, err
	}
	var pkLen uint16
	if pkLen, err = r.readU16("HIP.pk-length"); err != nil {
		return nil, err
	}
	if h.HIT, err = r.readBytes(int(hitLen), "HIP.hit"); err != nil {
		return nil, err
	}
	if h.PublicKey, err = r.readBytes(int(pkLen), "HIP.public-key"); err != nil {
		return nil, err
	}
	for r.off < end {
		var rv Name
		if rv, err = r.readName("HIP.rendezvous"); err != nil {
			return nil, err
		}
		h.Rendezvous = append(h.Rendezvous, rv)
	}
	return &h, nil
}

// CERT is the certificate record body per RFC 4398.
type CERT struct {
	Type        uint16
	KeyTag      uint16
	Algorithm   uint8
	Certificate []byte
}

func (c *CERT) encode(w *Writer) error {
	w.writeU16(c.Type)
	w.writeU16(c.KeyTag)
	w.writeU8(c.Algorithm)
	w.writeBytes(c.Certificate)
	return nil
}

func (c *CERT) String() string {
	return fmt.Sprintf("%d %d %d %s", c.Type, c.KeyTag, c.Algorithm, b64(c.Certificate))
}

func decodeCERT(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var c CERT
	var err error
	if c.Type, err = r.readU16("CERT.type"); err != nil {
		return nil, err
	}
	if c.KeyTag, err = r.readU16("CERT.key-tag"); err != nil {
		return nil, err
	}
	if c.Algorithm, err = r.readU8("CERT.algorithm"); err != nil {
		return nil, err
	}
	if c.Certificate, err = r.readBytes(end-r.off, "CERT.certificate"); err != nil {
		return nil, err
	}
	return &c, nil
}
