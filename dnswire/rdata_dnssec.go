package dnswire

import (
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func hexUpper(b []byte) string { return strings.ToUpper(hex.EncodeToString(b)) }

// sigTime renders an RRSIG inception/expiration as YYYYMMDDHHmmSS.
func sigTime(v uint32) string {
	return time.Unix(int64(v), 0).UTC().Format("20060102150405")
}

// DNSKEY is the DNSSEC public key record body.
type DNSKEY struct {
	Flags     uint16
	Protocol  uint8
	Algorithm uint8
	PublicKey []byte
}

func (k *DNSKEY) encode(w *Writer) error {
	w.writeU16(k.Flags)
	w.writeU8(k.Protocol)
	w.writeU8(k.Algorithm)
	w.writeBytes(k.PublicKey)
	return nil
}

func (k *DNSKEY) String() string {
	return fmt.Sprintf("%d %d %d %s", k.Flags, k.Protocol, k.Algorithm, b64(k.PublicKey))
}

func decodeDNSKEYBody(r *Reader, rdlen int, field string) (DNSKEY, error) {
	end := r.off + rdlen
	var k DNSKEY
	var err error
	if k.Flags, err = r.readU16(field + ".flags"); err != nil {
		return k, err
	}
	if k.Protocol, err = r.readU8(field + ".protocol"); err != nil {
		return k, err
	}
	if k.Algorithm, err = r.readU8(field + ".algorithm"); err != nil {
		return k, err
	}
	k.PublicKey, err = r.readBytes(end-r.off, field+".key")
	return k, err
}

func decodeDNSKEY(r *Reader, rdlen int) (RData, error) {
	k, err := decodeDNSKEYBody(r, rdlen, "DNSKEY")
	if err != nil {
		return nil, err
	}
	return &k, nil
}

// CDNSKEY is the child copy of DNSKEY; same wire shape.
type CDNSKEY struct {
	DNSKEY
}

func decodeCDNSKEY(r *Reader, rdlen int) (RData, error) {
	k, err := decodeDNSKEYBody(r, rdlen, "CDNSKEY")
	if err != nil {
		return nil, err
	}
	return &CDNSKEY{DNSKEY: k}, nil
}

// RRSIG is the DNSSEC signature record body.
type RRSIG struct {
	TypeCovered uint16
	Algorithm   uint8
	Labels      uint8
	OriginalTTL uint32
	Expiration  uint32
	Inception   uint32
	KeyTag      uint16
	Signer      Name
	Signature   []byte
}

func (s *RRSIG) encode(w *Writer) error {
	w.writeU16(s.TypeCovered)
	w.writeU8(s.Algorithm)
	w.writeU8(s.Labels)
	w.writeU32(s.OriginalTTL)
	w.writeU32(s.Expiration)
	w.writeU32(s.Inception)
	w.writeU16(s.KeyTag)
	if err := s.Signer.encode(w); err != nil {
		return err
	}
	w.writeBytes(s.Signature)
	return nil
}

func (s *RRSIG) String() string {
	return fmt.Sprintf("%s %d %d %d %s %s %d %s %s",
		TypeToString(s.TypeCovered), s.Algorithm, s.Labels, s.OriginalTTL,
		sigTime(s.Expiration), sigTime(s.Inception), s.KeyTag, s.Signer, b64(s.Signature))
}

func decodeRRSIG(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var s RRSIG
	var err error
	if s.TypeCovered, err = r.readU16("RRSIG.type-covered"); err != nil {
		return nil, err
	}
	if s.Algorithm, err = r.readU8("RRSIG.algorithm"); err != nil {
		return nil, err
	}
	if s.Labels, err = r.readU8("RRSIG.labels"); err != nil {
		return nil, err
	}
	if s.OriginalTTL, err = r.readU32("RRSIG.original-ttl"); err != nil {
		return nil, err
	}
	if s.Expiration, err = r.readU32("RRSIG.expiration"); err != nil {
		return nil, err
	}
	if s.Inception, err = r.readU32("RRSIG.inception"); err != nil {
		return nil, err
	}
	if s.KeyTag, err = r.readU16("RRSIG.key-tag"); err != nil {
		return nil, err
	}
	if s.Signer, err = r.readName("RRSIG.signer"); err != nil {
		return nil, err
	}
	if s.Signature, err = r.readBytes(end-r.off, "RRSIG.signature"); err != nil {
		return nil, err
	}
	return &s, nil
}

// DS is the delegation-signer record body.
type DS struct {
	KeyTag     uint16
	Algorithm  uint8
	DigestType uint8
	Digest     []byte
}

func (d *DS) encode(w *Writer) error {
	w.writeU16(d.KeyTag)
	w.writeU8(d.Algorithm)
	w.writeU8(d.DigestType)
	w.writeBytes(d.Digest)
	return nil
}

func (d *DS) String() string {
	return fmt.Sprintf("%d %d %d %s", d.KeyTag, d.Algorithm, d.DigestType, hexUpper(d.Digest))
}

func decodeDSBody(r *Reader, rdlen int, field string) (DS, error) {
	end := r.off + rdlen
	var d DS
	var err error
	if d.KeyTag, err = r.readU16(field + ".key-tag"); err != nil {
		return d, err
	}
	if d.Algorithm, err = r.readU8(field + ".algorithm"); err != nil {
		return d, err
	}
	if d.DigestType, err = r.readU8(field + ".digest-type"); err != nil {
		return d, err
	}
	d.Digest, err = r.readBytes(end-r.off, field+".digest")
	return d, err
}

func decodeDS(r *Reader, rdlen int) (RData, error) {
	d, err := decodeDSBody(r, rdlen, "DS")
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CDS is the child copy of DS; same wire shape.
type CDS struct {
	DS
}

func decodeCDS(r *Reader, rdlen int) (RData, error) {
	d, err := decodeDSBody(r, rdlen, "CDS")
	if err != nil {
		return nil, err
	}
	return &CDS{DS: d}, nil
}

// NSEC is the next-secure record body.
type NSEC struct {
	NextDomain Name
	Types      TypeBitmap
}

func (n *NSEC) encode(w *Writer) error {
	if err := n.NextDomain.encode(w); err != nil {
		return err
	}
	return n.Types.encode(w)
}

func (n *NSEC) String() string {
	if s := n.Types.String(); s != "" {
		return n.NextDomain.String() + " " + s
	}
	return n.NextDomain.String()
}

func decodeNSEC(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var n NSEC
	var err error
	if n.NextDomain, err = r.readName("NSEC.next-domain"); err != nil {
		return nil, err
	}
	if n.Types, err = readTypeBitmap(r, end-r.off, "NSEC.type-bitmap"); err != nil {
		return nil, err
	}
	return &n, nil
}

var b32hex = base32.HexEncoding.WithPadding(base32.NoPadding)

// NSEC3 is the hashed next-secure record body.
type NSEC3 struct {
	HashAlgorithm uint8
	Flags         uint8
	Iterations    uint16
	Salt          []byte
	NextHashed    []byte
	Types         TypeBitmap
}

func (n *NSEC3) encode(w *Writer) error {
	w.writeU8(n.HashAlgorithm)
	w.writeU8(n.Flags)
	w.writeU16(n.Iterations)
	if err := w.writeCharString(n.Salt); err != nil {
		return err
	}
	if err := w.writeCharString(n.NextHashed); err != nil {
		return err
	}
	return n.Types.encode(w)
}

func (n *NSEC3) String() string {
	salt := "-"
	if len(n.Salt) > 0 {
		salt = hexUpper(n.Salt)
	}
	s := fmt.Sprintf("%d %d %d %s %s", n.HashAlgorithm, n.Flags, n.Iterations, salt, b32hex.EncodeToString(n.NextHashed))
	if types := n.Types.String(); types != "" {
		s += " " + types
	}
	return s
}

func decodeNSEC3(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var n NSEC3
	var err error
	if n.HashAlgorithm, err = r.readU8("NSEC3.algorithm"); err != nil {
		return nil, err
	}
	if n.Flags, err = r.readU8("NSEC3.flags"); err != nil {
		return nil, err
	}
	if n.Iterations, err = r.readU16("NSEC3.iterations"); err != nil {
		return nil, err
	}
	if n.Salt, err = r.readCharString("NSEC3.salt"); err != nil {
		return nil, err
	}
	if n.NextHashed, err = r.readCharString("NSEC3.next-hashed"); err != nil {
		return nil, err
	}
	if n.Types, err = readTypeBitmap(r, end-r.off, "NSEC3.type-bitmap"); err != nil {
		return nil, err
	}
	return &n, nil
}

// NSEC3PARAM carries the NSEC3 hashing parameters of a zone.
type NSEC3PARAM struct {
	HashAlgorithm uint8
	Flags         uint8
	Iterations    uint16
	Salt          []byte
}

func (n *NSEC3PARAM) encode(w *Writer) error {
	w.writeU8(n.HashAlgorithm)
	w.writeU8(n.Flags)
	w.writeU16(n.Iterations)
	return w.writeCharString(n.Salt)
}

func (n *NSEC3PARAM) String() string {
	salt := "-"
	if len(n.Salt) > 0 {
		salt = hexUpper(n.Salt)
	}
	return fmt.Sprintf("%d %d %d %s", n.HashAlgorithm, n.Flags, n.Iterations, salt)
}

func decodeNSEC3PARAM(r *Reader) (RData, error) {
	var n NSEC3PARAM
	var err error
	if n.HashAlgorithm, err = r.readU8("NSEC3PARAM.algorithm"); err != nil {
		return nil, err
	}
	if n.Flags, err = r.readU8("NSEC3PARAM.flags"); err != nil {
		return nil, err
	}
	if n.Iterations, err = r.readU16("NSEC3PARAM.iterations"); err != nil {
		return nil, err
	}
	if n.Salt, err = r.readCharString("NSEC3PARAM.salt"); err != nil {
		return nil, err
	}
	return &n, nil
}

// CSYNC is the child-to-parent synchronization record body.
type CSYNC struct {
	Serial uint32
	Flags  uint16
	Types  TypeBitmap
}

func (c *CSYNC) encode(w *Writer) error {
	w.writeU32(c.Serial)
	w.writeU16(c.Flags)
	return c.Types.encode(w)
}

func (c *CSYNC) String() string {
	s := fmt.Sprintf("%d %d", c.Serial, c.Flags)
	if types := c.Types.String(); types != "" {
		s += " " + types
	}
	return s
}

func decodeCSYNC(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var c CSYNC
	var err error
	if c.Serial, err = r.readU32("CSYNC.serial"); err != nil {
		return nil, err
	}
	if c.Flags, err = r.readU16("CSYNC.flags"); err != nil {
		return nil, err
	}
	if c.Types, err = readTypeBitmap(r, end-r.off, "CSYNC.type-bitmap"); err != nil {
		return nil, err
	}
	return &c, nil
}

// ZONEMD is the message digest over zone data record body.
type ZONEMD struct {
	Serial        uint32
	Scheme        uint8
	HashAlgorithm uint8
	Digest        []byte
}

func (z *ZONEMD) encode(w *Writer) error {
	w.writeU32(z.Serial)
	w.writeU8(z.Scheme)
	w.writeU8(z.HashAlgorithm)
	w.writeBytes(z.Digest)
	return nil
}

func (z *ZONEMD) String() string {
	return fmt.Sprintf("%d %d %d %s", z.Serial, z.Scheme, z.HashAlgorithm, hexUpper(z.Digest))
}

func decodeZONEMD(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var z ZONEMD
	var err error
	if z.Serial, err = r.readU32("ZONEMD.serial"); err != nil {
		return nil, err
	}
	if z.Scheme, err = r.readU8("ZONEMD.scheme"); err != nil {
		return nil, err
	}
	if z.HashAlgorithm, err = r.readU8("ZONEMD.hash-algorithm"); err != nil {
		return nil, err
	}
	if z.Digest, err = r.readBytes(end-r.off, "ZONEMD.digest"); err != nil {
		return nil, err
	}
	return &z, nil
}

// SSHFP is the SSH fingerprint record body.
type SSHFP struct {
	Algorithm   uint8
	FPType      uint8
	Fingerprint []byte
}

func (s *SSHFP) encode(w *Writer) error {
	w.writeU8(s.Algorithm)
	w.writeU8(s.FPType)
	w.writeBytes(s.Fingerprint)
	return nil
}

func (s *SSHFP) String() string {
	return fmt.Sprintf("%d %d %s", s.Algorithm, s.FPType, hexUpper(s.Fingerprint))
}

func decodeSSHFP(r *Reader, rdlen int) (RData, error) {
	end := r.off + rdlen
	var s SSHFP
	var err error
	if s.Algorithm, err = r.readU8("SSHFP.algorithm"); err != nil {
		return nil, err
	}
	if s.FPType, err = r.readU8("SSHFP.fp-type"); err != nil {
		return nil, err
	}
	if s.Fingerprint, err = r.readBytes(end-r.off, "SSHFP.fingerprint"); err != nil {
		return nil, err
	}
	return &s, nil
}

// TLSA is the TLS association record body.
type TLSA struct {
	Usage        uint8
	Selector     uint8
	MatchingType uint8
	Certificate  []byte
}

func (t *TLSA) encode(w *Writer) error {
	w.writeU8(t.Usage)
	w.writeU8(t.Selector)
	w.writeU8(t.MatchingType)
	w.writeBytes(t.Certificate)
	return nil
}

func (t *TLSA) String() string {
	return fmt.Sprintf("%d %d %d %s", t.Usage, t.Selector, t.MatchingType, hexUpper(t.Certificate))
}

func decodeTLSABody(r *Reader, rdlen int, field string) (TLSA, error) {
	end := r.off + rdlen
	var t TLSA
	var err error
	if t.Usage, err = r.readU8(field + ".usage"); err != nil {
		return t, err
	}
	if t.Selector, err = r.readU8(field + ".selector"); err != nil {
		return t, err
	}
	if t.MatchingType, err = r.readU8(field + ".matching-type"); err != nil {
		return t, err
	}
	t.Certificate, err = r.readBytes(end-r.off, field+".certificate")
	return t, err
}

func decodeTLSA(r *Reader, rdlen int) (RData, error) {
	t, err := decodeTLSABody(r, rdlen, "TLSA")
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SMIMEA shares the TLSA wire shape, bound to S/MIME usage.
type SMIMEA struct {
	TLSA
}

func decodeSMIMEA(r *Reader, rdlen int) (RData, error) {
	t, err := decodeTLSABody(r, rdlen, "SMIMEA")
	if err != nil {
		return nil, err
	}
	return &SMIMEA{TLSA: t}, nil
}

// OPENPGPKEY is a transferable OpenPGP public key record body.
type OPENPGPKEY struct {
	Key []byte
}

func (o *OPENPGPKEY) encode(w *Writer) error {
	w.writeBytes(o.Key)
	return nil
}

func (o *OPENPGPKEY) String() string { return b64(o.Key) }

func decodeOPENPGPKEY(r *Reader, rdlen int) (RData, error) {
	key, err := r.readBytes(rdlen, "OPENPGPKEY.key")
	if err != nil {
		return nil, err
	}
	return &OPENPGPKEY{Key: key}, nil
}

// DHCID is the DHCP identifier record body.
type DHCID struct {
	Data []byte
}

func (d *DHCID) encode(w *Writer) error {
	w.writeBytes(d.Data)
	return nil
}

func (d *DHCID) String() string { return b64(d.Data) }

func decodeDHCID(r *Reader, rdlen int) (RData, error) {
	data, err := r.readBytes(rdlen, "DHCID.data")
	if err != nil {
		return nil, err
	}
	return &DHCID{Data: data}, nil
}
