package dnswire

import (
	"fmt"
	"net/netip"
	"strings"
)

// A is an IPv4 host address record body.
type A struct {
	Addr netip.Addr
}

func (a *A) encode(w *Writer) error {
	if !a.Addr.Is4() {
		return fmt.Errorf("A record address %s is not IPv4", a.Addr)
	}
	b := a.Addr.As4()
	w.writeBytes(b[:])
	return nil
}

func (a *A) String() string { return a.Addr.String() }

func decodeA(r *Reader, rdlen int) (RData, error) {
	if rdlen != 4 {
		return nil, r.fail("A.address", ErrRDataLength)
	}
	b, err := r.readBytes(4, "A.address")
	if err != nil {
		return nil, err
	}
	return &A{Addr: netip.AddrFrom4([4]byte(b))}, nil
}

// AAAA is an IPv6 host address record body.
type AAAA struct {
	Addr netip.Addr
}

func (a *AAAA) encode(w *Writer) error {
	if !a.Addr.Is6() || a.Addr.Is4In6() {
		return fmt.Errorf("AAAA record address %s is not IPv6", a.Addr)
	}
	b := a.Addr.As16()
	w.writeBytes(b[:])
	return nil
}

func (a *AAAA) String() string { return a.Addr.String() }

func decodeAAAA(r *Reader, rdlen int) (RData, error) {
	if rdlen != 16 {
		return nil, r.fail("AAAA.address", ErrRDataLength)
	}
	b, err := r.readBytes(16, "AAAA.address")
	if err != nil {
		return nil, err
	}
	return &AAAA{Addr: netip.AddrFrom16([16]byte(b))}, nil
}

// NameData is the shared body of record types whose RDATA is a single
// domain name: NS, CNAME, PTR, DNAME, MB, MG and MR.
type NameData struct {
	Target Name
}

func (d *NameData) encode(w *Writer) error { return d.Target.encode(w) }
func (d *NameData) String() string         { return d.Target.String() }

func decodeSingleName(r *Reader, typ uint16) (RData, error) {
	name, err := r.readName(TypeToString(typ) + ".target")
	if err != nil {
		return nil, err
	}
	return &NameData{Target: name}, nil
}

// SOA is the start-of-authority record body.
type SOA struct {
	MName   Name
	RName   Name
	Serial  uint32
	Refresh int32
	Retry   int32
	Expire  int32
	Minimum uint32
}

func (s *SOA) encode(w *Writer) error {
	if err := s.MName.encode(w); err != nil {
		return err
	}
	if err := s.RName.encode(w); err != nil {
		return err
	}
	w.writeU32(s.Serial)
	w.writeU32(uint32(s.Refresh))
	w.writeU32(uint32(s.Retry))
	w.writeU32(uint32(s.Expire))
	w.writeU32(s.Minimum)
	return nil
}

func (s *SOA) String() string {
	return fmt.Sprintf("%s %s %d %d %d %d %d",
		s.MName, s.RName, s.Serial, s.Refresh, s.Retry, s.Expire, s.Minimum)
}

func decodeSOA(r *Reader) (RData, error) {
	var s SOA
	var err error
	if s.MName, err = r.readName("SOA.mname"); err != nil {
		return nil, err
	}
	if s.RName, err = r.readName("SOA.rname"); err != nil {
		return nil, err
	}
	if s.Serial, err = r.readU32("SOA.serial"); err != nil {
		return nil, err
	}
	var v uint32
	if v, err = r.readU32("SOA.refresh"); err != nil {
		return nil, err
	}
	s.Refresh = int32(v)
	if v, err = r.readU32("SOA.retry"); err != nil {
		return nil, err
	}
	s.Retry = int32(v)
	if v, err = r.readU32("SOA.expire"); err != nil {
		return nil, err
	}
	s.Expire = int32(v)
	if s.Minimum, err = r.readU32("SOA.minimum"); err != nil {
		return nil, err
	}
	return &s, nil
}

// MX is the mail-exchange record body.
type MX struct {
	Preference uint16
	Exchange   Name
}

func (m *MX) encode(w *Writer) error {
	w.writeU16(m.Preference)
	return m.Exchange.encode(w)
}

func (m *MX) String() string { return fmt.Sprintf("%d %s", m.Preference, m.Exchange) }

func decodeMX(r *Reader) (RData, error) {
	var m MX
	var err error
	if m.Preference, err = r.readU16("MX.preference"); err != nil {
		return nil, err
	}
	if m.Exchange, err = r.readName("MX.exchange"); err != nil {
		return nil, err
	}
	return &m, nil
}

// TXT is one or more character-strings.
type TXT struct {
	Strings [][]byte
}

func (t *TXT) encode(w *Writer) error {
	for _, s := range t.Strings {
		if err := w.writeCharString(s); err != nil {
			return err
		}
	}
	return nil
}

func (t *TXT) String() string { return quoteStrings(t.Strings) }

func quoteStrings(strs [][]byte) string {
	parts := make([]string, 0, len(strs))
	for _, s := range strs {
		parts = append(parts, quoteCharString(s))
	}
	return strings.Join(parts, " ")
}

func quoteCharString(s []byte) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7E:
			fmt.Fprintf(&b, `\%03d`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func readCharStrings(r *Reader, rdlen int, field string) ([][]byte, error) {
	end := r.off + rdlen
	var strs [][]byte
	for r.off < end {
		s, err := r.readCharString(field)
		if err != nil {
			return nil, err
		}
		strs = append(strs, s)
	}
	return strs, nil
}

func decodeTXT(r *Reader, rdlen int) (RData, error) {
	strs, err := readCharStrings(r, rdlen, "TXT.strings")
	if err != nil {
		return nil, err
	}
	return &TXT{Strings: strs}, nil
}

// WALLET shares the TXT wire shape: a sequence of character-strings.
type WALLET struct {
	Strings [][]byte
}

func (t *WALLET) encode(w *Writer) error {
	for _, s := range t.Strings {
		if err := w.writeCharString(s); err != nil {
			return err
		}
	}
	return nil
}

func (t *WALLET) String() string { return quoteStrings(t.Strings) }

func decodeWALLET(r *Reader, rdlen int) (RData, error) {
	strs, err := readCharStrings(r, rdlen, "WALLET.strings")
	if err != nil {
		return nil, err
	}
	return &WALLET{Strings: strs}, nil
}

// HINFO is the host information record body.
type HINFO struct {
	CPU []byte
	OS  []byte
}

func (h *HINFO) encode(w *Writer) error {
	if err := w.writeCharString(h.CPU); err != nil {
		return err
	}
	return w.writeCharString(h.OS)
}

func (h *HINFO) String() string {
	return quoteCharString(h.CPU) + " " + quoteCharString(h.OS)
}

func decodeHINFO(r *Reader) (RData, error) {
	var h HINFO
	var err error
	if h.CPU, err = r.readCharString("HINFO.cpu"); err != nil {
		return nil, err
	}
	if h.OS, err = r.readCharString("HINFO.os"); err != nil {
		return nil, err
	}
	return &h, nil
}

// MINFO is the mailbox information record body.
type MINFO struct {
	RMailbox Name
	EMailbox Name
}

func (m *MINFO) encode(w *Writer) error {
	if err := m.RMailbox.encode(w); err != nil {
		return err
	}
	return m.EMailbox.encode(w)
}

func (m *MINFO) String() string { return m.RMailbox.String() + " " + m.EMailbox.String() }

func decodeMINFO(r *Reader) (RData, error) {
	var m MINFO
	var err error
	if m.RMailbox, err = r.readName("MINFO.rmailbx"); err != nil {
		return nil, err
	}
	if m.EMailbox, err = r.readName("MINFO.emailbx"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RP is the responsible-person record body.
type RP struct {
	Mbox Name
	Txt  Name
}

func (p *RP) encode(w *Writer) error {
	if err := p.Mbox.encode(w); err != nil {
		return err
	}
	return p.Txt.encode(w)
}

func (p *RP) String() string { return p.Mbox.String() + " " + p.Txt.String() }

func decodeRP(r *Reader) (RData, error) {
	var p RP
	var err error
	if p.Mbox, err = r.readName("RP.mbox"); err != nil {
		return nil, err
	}
	if p.Txt, err = r.readName("RP.txt"); err != nil {
		return nil, err
	}
	return &p, nil
}

// AFSDB is the AFS database location record body.
type AFSDB struct {
	Subtype  uint16
	Hostname Name
}

func (a *AFSDB) encode(w *Writer) error {
	w.writeU16(a.Subtype)
	return a.Hostname.encode(w)
}

func (a *AFSDB) String() string { return fmt.Sprintf("%d %s", a.Subtype, a.Hostname) }

func decodeAFSDB(r *Reader) (RData, error) {
	var a AFSDB
	var err error
	if a.Subtype, err = r.readU16("AFSDB.subtype"); err != nil {
		return nil, err
	}
	if a.Hostname, err = r.readName("AFSDB.hostname"); err != nil {
		return nil, err
	}
	return &a, nil
}

// KX is the key-exchanger record body.
type KX struct {
	Preference uint16
	Exchanger  Name
}

func (k *KX) encode(w *Writer) error {
	w.writeU16(k.Preference)
	return k.Exchanger.encode(w)
}

func (k *KX) String() string { return fmt.Sprintf("%d %s", k.Preference, k.Exchanger) }

func decodeKX(r *Reader) (RData, error) {
	var k KX
	var err error
	if k.Preference, err = r.readU16("KX.preference"); err != nil {
		return nil, err
	}
	if k.Exchanger, err = r.readName("KX.exchanger"); err != nil {
		return nil, err
	}
	return &k, nil
}

// SRV is the service location record body.
type SRV struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   Name
}

func (s *SRV) encode(w *Writer) error {
	w.writeU16(s.Priority)
	w.writeU16(s.Weight)
	w.writeU16(s.Port)
	return s.Target.encode(w)
}

func (s *SRV) String() string {
	return fmt.Sprintf("%d %d %d %s", s.Priority, s.Weight, s.Port, s.Target)
}

func decodeSRV(r *Reader) (RData, error) {
	var s SRV
	var err error
	if s.Priority, err = r.readU16("SRV.priority"); err != nil {
		return nil, err
	}
	if s.Weight, err = r.readU16("SRV.weight"); err != nil {
		return nil, err
	}
	if s.Port, err = r.readU16("SRV.port"); err != nil {
		return nil, err
	}
	if s.Target, err = r.readName("SRV.target"); err != nil {
		return nil, err
	}
	return &s, nil
}

// NAPTR is the naming-authority pointer record body.
type NAPTR struct {
	Order       uint16
	Preference  uint16
	Flags       []byte
	Services    []byte
	Regexp      []byte
	Replacement Name
}

func (n *NAPTR) encode(w *Writer) error {
	w.writeU16(n.Order)
	w.writeU16(n.Preference)
	if err := w.writeCharString(n.Flags); err != nil {
		return err
	}
	if err := w.writeCharString(n.Services); err != nil {
		return err
	}
	if err := w.writeCharString(n.Regexp); err != nil {
		return err
	}
	return n.Replacement.encode(w)
}

func (n *NAPTR) String() string {
	return fmt.Sprintf("%d %d %s %s %s %s", n.Order, n.Preference,
		quoteCharString(n.Flags), quoteCharString(n.Services), quoteCharString(n.Regexp), n.Replacement)
}

func decodeNAPTR(r *Reader) (RData, error) {
	var n NAPTR
	var err error
	if n.Order, err = r.readU16("NAPTR.order"); err != nil {
		return nil, err
	}
	if n.Preference, err = r.readU16("NAPTR.preference"); err != nil {
		return nil, err
	}
	if n.Flags, err = r.readCharString("NAPTR.flags"); err != nil {
		return nil, err
	}
	if n.Services, err = r.readCharString("NAPTR.services"); err != nil {
		return nil, err
	}
	if n.Regexp, err = r.readCharString("NAPTR.regexp"); err != nil {
		return nil, err
	}
	if n.Replacement, err = r.readName("NAPTR.replacement"); err != nil {
		return nil, err
	}
	return &n, nil
}

// CAA is the certification-authority authorization record body.
type CAA struct {
	Flags uint8
	Tag   string
	Value []byte
}

func (c *CAA) encode(w *Writer) error {
	w.writeU8(c.Flags)
	if err := w.writeCharString([]byte(c.Tag)); err != nil {
		return err
	}
	w.writeBytes(c.Value)
	return nil
}

func (c *CAA) String() string {
	return fmt.Sprintf("%d %s %q", c.Flags, c.Tag, c.Value)
}

func decodeCAA(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var c CAA
	var err error
	if c.Flags, err = r.readU8("CAA.flags"); err != nil {
		return nil, err
	}
	var tag []byte
	if tag, err = r.readCharString("CAA.tag"); err != nil {
		return nil, err
	}
	c.Tag = string(tag)
	if c.Value, err = r.readBytes(end-r.off, "CAA.value"); err != nil {
		return nil, err
	}
	return &c, nil
}

// URI is the uniform-resource-identifier record body.
type URI struct {
	Priority uint16
	Weight   uint16
	Target   []byte
}

func (u *URI) encode(w *Writer) error {
	w.writeU16(u.Priority)
	w.writeU16(u.Weight)
	w.writeBytes(u.Target)
	return nil
}

func (u *URI) String() string {
	return fmt.Sprintf("%d %d %q", u.Priority, u.Weight, u.Target)
}

func decodeURI(r *Reader, rdlen int) (RData, error) {
	var u URI
	var err error
	if u.Priority, err = r.readU16("URI.priority"); err != nil {
		return nil, err
	}
	if u.Weight, err = r.readU16("URI.weight"); err != nil {
		return nil, err
	}
	if u.Target, err = r.readBytes(rdlen-4, "URI.target"); err != nil {
		return nil, err
	}
	return &u, nil
}

// EUI48 is a 48-bit extended unique identifier record body.
type EUI48 struct {
	Addr [6]byte
}

func (e *EUI48) encode(w *Writer) error {
	w.writeBytes(e.Addr[:])
	return nil
}

func (e *EUI48) String() string {
	return fmt.Sprintf("%02x-%02x-%02x-%02x-%02x-%02x",
		e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3], e.Addr[4], e.Addr[5])
}

func decodeEUI48(r *Reader, rdlen int) (RData, error) {
	if rdlen != 6 {
		return nil, r.fail("EUI48.address", ErrRDataLength)
	}
	b, err := r.readBytes(6, "EUI48.address")
	if err != nil {
		return nil, err
	}
	return &EUI48{Addr: [6]byte(b)}, nil
}

// EUI64 is a 64-bit extended unique identifier record body.
type EUI64 struct {
	Addr [8]byte
}

func (e *EUI64) encode(w *Writer) error {
	w.writeBytes(e.Addr[:])
	return nil
}

func (e *EUI64) String() string {
	return fmt.Sprintf("%02x-%02x-%02x-%02x-%02x-%02x-%02x-%02x",
		e.Addr[0], e.Addr[1], e.Addr[2], e.Addr[3], e.Addr[4], e.Addr[5], e.Addr[6], e.Addr[7])
}

func decodeEUI64(r *Reader, rdlen int) (RData, error) {
	if rdlen != 8 {
		return nil, r.fail("EUI64.address", ErrRDataLength)
	}
	b, err := r.readBytes(8, "EUI64.address")
	if err != nil {
		return nil, err
	}
	return &EUI64{Addr: [8]byte(b)}, nil
}
