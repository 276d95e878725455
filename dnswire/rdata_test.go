package dnswire

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip encodes one RR inside a minimal message and returns the
// decoded copy.
func roundTrip(t *testing.T, rr RR) RR {
	t.Helper()
	msg := &Message{
		Header:  Header{ID: 1},
		Answers: []RR{rr},
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Answers, 1)
	return decoded.Answers[0]
}

func name(t *testing.T, s string) Name {
	t.Helper()
	n, err := NewName(s)
	require.NoError(t, err)
	return n
}

func TestRDataRoundTrips(t *testing.T) {
	owner := "rr.example.com"
	cases := []struct {
		typ  uint16
		data RData
	}{
		{TypeA, &A{Addr: netip.MustParseAddr("203.0.113.7")}},
		{TypeAAAA, &AAAA{Addr: netip.MustParseAddr("2001:db8::7")}},
		{TypeNS, &NameData{Target: name(t, "ns1.example.com")}},
		{TypeCNAME, &NameData{Target: name(t, "alias.example.com")}},
		{TypePTR, &NameData{Target: name(t, "host.example.com")}},
		{TypeDNAME, &NameData{Target: name(t, "tree.example.net")}},
		{TypeSOA, &SOA{
			MName: name(t, "ns1.example.com"), RName: name(t, "hostmaster.example.com"),
			Serial: 2024010101, Refresh: 7200, Retry: 3600, Expire: 1209600, Minimum: 300,
		}},
		{TypeMX, &MX{Preference: 10, Exchange: name(t, "mail.example.com")}},
		{TypeTXT, &TXT{Strings: [][]byte{[]byte("v=spf1 -all"), []byte("second string")}}},
		{TypeWALLET, &WALLET{Strings: [][]byte{[]byte("BTC"), []byte("1A1zP1eP5QGefi2D")}}},
		{TypeHINFO, &HINFO{CPU: []byte("AMD64"), OS: []byte("Linux")}},
		{TypeRP, &RP{Mbox: name(t, "admin.example.com"), Txt: name(t, "info.example.com")}},
		{TypeAFSDB, &AFSDB{Subtype: 1, Hostname: name(t, "afs.example.com")}},
		{TypeKX, &KX{Preference: 5, Exchanger: name(t, "kx.example.com")}},
		{TypeSRV, &SRV{Priority: 0, Weight: 5, Port: 5060, Target: name(t, "sip.example.com")}},
		{TypeNAPTR, &NAPTR{
			Order: 100, Preference: 50,
			Flags: []byte("s"), Services: []byte("SIP+D2T"), Regexp: nil,
			Replacement: name(t, "_sip._tcp.example.com"),
		}},
		{TypeCAA, &CAA{Flags: 0, Tag: "issue", Value: []byte("letsencrypt.org")}},
		{TypeURI, &URI{Priority: 10, Weight: 1, Target: []byte("https://example.com/")}},
		{TypeSSHFP, &SSHFP{Algorithm: 4, FPType: 2, Fingerprint: []byte{1, 2, 3, 4}}},
		{TypeTLSA, &TLSA{Usage: 3, Selector: 1, MatchingType: 1, Certificate: []byte{9, 8, 7}}},
		{TypeSMIMEA, &SMIMEA{TLSA: TLSA{Usage: 3, Selector: 0, MatchingType: 2, Certificate: []byte{5, 5}}}},
		{TypeOPENPGPKEY, &OPENPGPKEY{Key: []byte{0x99, 0x01}}},
		{TypeDHCID, &DHCID{Data: []byte{0, 1, 2, 3}}},
		{TypeEUI48, &EUI48{Addr: [6]byte{0, 1, 2, 3, 4, 5}}},
		{TypeEUI64, &EUI64{Addr: [8]byte{0, 1, 2, 3, 4, 5, 6, 7}}},
		{TypeDNSKEY, &DNSKEY{Flags: 257, Protocol: 3, Algorithm: 13, PublicKey: []byte{0xAA, 0xBB}}},
		{TypeCDNSKEY, &CDNSKEY{DNSKEY: DNSKEY{Flags: 256, Protocol: 3, Algorithm: 8, PublicKey: []byte{1}}}},
		{TypeRRSIG, &RRSIG{
			TypeCovered: TypeA, Algorithm: 13, Labels: 3, OriginalTTL: 300,
			Expiration: 1735689600, Inception: 1733097600, KeyTag: 12345,
			Signer: name(t, "example.com"), Signature: []byte{1, 2, 3, 4, 5},
		}},
		{TypeDS, &DS{KeyTag: 370, Algorithm: 13, DigestType: 2, Digest: []byte{0xCA, 0xFE}}},
		{TypeCDS, &CDS{DS: DS{KeyTag: 371, Algorithm: 13, DigestType: 2, Digest: []byte{1}}}},
		{TypeNSEC, &NSEC{
			NextDomain: name(t, "next.example.com"),
			Types:      TypeBitmap{TypeA, TypeNS, TypeRRSIG, TypeNSEC},
		}},
		{TypeNSEC3, &NSEC3{
			HashAlgorithm: 1, Flags: 1, Iterations: 10,
			Salt: []byte{0xAB, 0xCD}, NextHashed: []byte{1, 2, 3, 4, 5},
			Types: TypeBitmap{TypeA, TypeAAAA},
		}},
		{TypeNSEC3PARAM, &NSEC3PARAM{HashAlgorithm: 1, Flags: 0, Iterations: 5, Salt: []byte{0xFF}}},
		{TypeCSYNC, &CSYNC{Serial: 42, Flags: 3, Types: TypeBitmap{TypeA, TypeNS}}},
		{TypeZONEMD, &ZONEMD{Serial: 2024010101, Scheme: 1, HashAlgorithm: 1, Digest: []byte{1, 2, 3}}},
		{TypeSVCB, &SVCB{
			Priority: 1, Target: name(t, "svc.example.com"),
			Params: []SvcParam{
				{Key: SvcKeyALPN, Value: &SvcALPN{Protocols: []string{"h2", "h3"}}},
				{Key: SvcKeyPort, Value: &SvcPort{Port: 8443}},
			},
		}},
		{TypeHTTPS, &HTTPS{SVCB: SVCB{
			Priority: 1, Target: RootName,
			Params: []SvcParam{
				{Key: SvcKeyMandatory, Value: &SvcMandatory{Keys: []uint16{SvcKeyALPN}}},
				{Key: SvcKeyALPN, Value: &SvcALPN{Protocols: []string{"h2"}}},
				{Key: SvcKeyIPv4Hint, Value: &SvcIPHint{Addrs: []netip.Addr{netip.MustParseAddr("192.0.2.1")}}},
				{Key: SvcKeyIPv6Hint, Value: &SvcIPHint{Addrs: []netip.Addr{netip.MustParseAddr("2001:db8::1")}}},
				{Key: SvcKeyDoHPath, Value: &SvcDoHPath{Template: "/dns-query{?dns}"}},
				{Key: 667, Value: &SvcOpaque{Data: []byte{1, 2}}},
			},
		}}},
		{TypeLOC, &LOC{
			Version: 0, Size: 0x12, HorizPre: 0x16, VertPre: 0x13,
			Latitude: 2332887285, Longitude: 2118564528, Altitude: 9999800,
		}},
		{TypeAPL, &APL{Items: []APLItem{
			{Family: 1, Prefix: 24, AFD: []byte{192, 0, 2}},
			{Family: 2, Prefix: 64, Negation: true, AFD: []byte{0x20, 0x01, 0x0d, 0xb8}},
		}}},
		{TypeIPSECKEY, &IPSECKEY{
			Precedence: 10, GatewayType: IPSECKEYGatewayIPv4, Algorithm: 2,
			GatewayAddr: netip.MustParseAddr("192.0.2.38"), PublicKey: []byte{1, 2, 3},
		}},
		{TypeHIP, &HIP{
			PKAlgorithm: 2, HIT: []byte{0x20, 0x01, 0x00, 0x10},
			PublicKey:  []byte{0x03, 0x01, 0x00, 0x01},
			Rendezvous: []Name{name(t, "rvs1.example.com"), name(t, "rvs2.example.com")},
		}},
		{TypeCERT, &CERT{Type: 1, KeyTag: 12345, Algorithm: 8, Certificate: []byte{0x30, 0x82}}},
	}

	for _, c := range cases {
		t.Run(TypeToString(c.typ), func(t *testing.T) {
			rr := RR{Name: name(t, owner), Type: c.typ, Class: ClassINET, TTL: 3600, Data: c.data}
			got := roundTrip(t, rr)
			assert.Equal(t, c.typ, got.Type)
			assert.Equal(t, uint32(3600), got.TTL)
			assert.Equal(t, c.data, got.Data)
		})
	}
}

func TestIPSECKEYGatewayForms(t *testing.T) {
	cases := []*IPSECKEY{
		{Precedence: 1, GatewayType: IPSECKEYGatewayNone, Algorithm: 2, PublicKey: []byte{9}},
		{Precedence: 1, GatewayType: IPSECKEYGatewayIPv6, Algorithm: 2,
			GatewayAddr: netip.MustParseAddr("2001:db8::38"), PublicKey: []byte{9}},
		{Precedence: 1, GatewayType: IPSECKEYGatewayName, Algorithm: 2,
			GatewayName: name(t, "gw.example.com"), PublicKey: []byte{9}},
	}
	for _, k := range cases {
		rr := RR{Name: name(t, "ipsec.example.com"), Type: TypeIPSECKEY, Class: ClassINET, TTL: 60, Data: k}
		got := roundTrip(t, rr)
		assert.Equal(t, RData(k), got.Data)
	}
}

// A HIP record with no rendezvous servers must consume its RDATA exactly;
// the server list is defined only by RDLENGTH.
func TestHIPWithoutRendezvous(t *testing.T) {
	h := &HIP{PKAlgorithm: 2, HIT: []byte{1, 2}, PublicKey: []byte{3, 4, 5}}
	rr := RR{Name: name(t, "hip.example.com"), Type: TypeHIP, Class: ClassINET, TTL: 60, Data: h}
	got := roundTrip(t, rr)
	assert.Equal(t, RData(h), got.Data)
}

func TestTypeBitmapWindows(t *testing.T) {
	// URI (256) and CAA (257) live in window block 1.
	tb := TypeBitmap{TypeA, TypeURI, TypeCAA}
	w := &Writer{}
	require.NoError(t, tb.encode(w))
	r := NewReader(w.Bytes())
	got, err := readTypeBitmap(r, len(w.Bytes()), "test")
	require.NoError(t, err)
	assert.Equal(t, TypeBitmap{TypeA, TypeURI, TypeCAA}, got)
	assert.Equal(t, "A URI CAA", got.String())
}

func TestSOASignedIntervals(t *testing.T) {
	soa := &SOA{
		MName: name(t, "ns.example.com"), RName: name(t, "root.example.com"),
		Serial: 1, Refresh: -1, Retry: 600, Expire: 86400, Minimum: 60,
	}
	rr := RR{Name: name(t, "example.com"), Type: TypeSOA, Class: ClassINET, TTL: 60, Data: soa}
	got := roundTrip(t, rr)
	assert.Equal(t, int32(-1), got.Data.(*SOA).Refresh)
}

func TestTXTDisplay(t *testing.T) {
	txt := &TXT{Strings: [][]byte{[]byte(`say "hi"`), {0x01}}}
	assert.Equal(t, `"say \"hi\"" "\001"`, txt.String())
}
