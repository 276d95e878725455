package dqy

import (
	"net/netip"
	"testing"

	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

func wireName(t *testing.T, s string) dnswire.Name {
	t.Helper()
	n, err := dnswire.NewName(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

// referral builds a delegation response: NS records in authority and
// optional glue in additional.
func referral(t *testing.T, zone string, ns map[string]string) *dnswire.Message {
	t.Helper()
	msg := &dnswire.Message{Header: dnswire.Header{Flags: dnswire.Flags{QR: true}}}
	for host, glue := range ns {
		msg.Authority = append(msg.Authority, dnswire.RR{
			Name: wireName(t, zone), Type: dnswire.TypeNS, Class: dnswire.ClassINET, TTL: 172800,
			Data: &dnswire.NameData{Target: wireName(t, host)},
		})
		if glue != "" {
			msg.Additional = append(msg.Additional, dnswire.RR{
				Name: wireName(t, host), Type: dnswire.TypeA, Class: dnswire.ClassINET, TTL: 172800,
				Data: &dnswire.A{Addr: netip.MustParseAddr(glue)},
			})
		}
	}
	return msg
}

func TestIsFinalAnswer(t *testing.T) {
	qname := wireName(t, "www.example.com")

	delegation := referral(t, "example.com", map[string]string{"ns1.example.com": "192.0.2.1"})
	if isFinalAnswer(delegation, qname, dnswire.TypeA) {
		t.Error("referral treated as final")
	}

	answer := &dnswire.Message{Header: dnswire.Header{Flags: dnswire.Flags{QR: true}}}
	answer.Answers = []dnswire.RR{{
		Name: qname, Type: dnswire.TypeA, Class: dnswire.ClassINET, TTL: 60,
		Data: &dnswire.A{Addr: netip.MustParseAddr("192.0.2.9")},
	}}
	if !isFinalAnswer(answer, qname, dnswire.TypeA) {
		t.Error("direct answer not treated as final")
	}

	cname := &dnswire.Message{Header: dnswire.Header{Flags: dnswire.Flags{QR: true}}}
	cname.Answers = []dnswire.RR{{
		Name: qname, Type: dnswire.TypeCNAME, Class: dnswire.ClassINET, TTL: 60,
		Data: &dnswire.NameData{Target: wireName(t, "cdn.example.net")},
	}}
	if !isFinalAnswer(cname, qname, dnswire.TypeA) {
		t.Error("CNAME answer not treated as final")
	}

	nx := &dnswire.Message{Header: dnswire.Header{Flags: dnswire.Flags{QR: true, RCode: uint8(dnswire.RcodeNXDomain)}}}
	if !isFinalAnswer(nx, qname, dnswire.TypeA) {
		t.Error("NXDOMAIN not treated as final")
	}
}

func TestGlueAddrs(t *testing.T) {
	msg := referral(t, "example.com", map[string]string{
		"ns1.example.com": "192.0.2.1",
		"ns2.example.com": "",
	})
	msg.Additional = append(msg.Additional, dnswire.RR{
		Name: wireName(t, "ns2.example.com"), Type: dnswire.TypeAAAA, Class: dnswire.ClassINET, TTL: 60,
		Data: &dnswire.AAAA{Addr: netip.MustParseAddr("2001:db8::1")},
	})

	all := glueAddrs(msg, transport.FamilyAny)
	if len(all) != 2 {
		t.Errorf("FamilyAny glue = %d addrs; want 2", len(all))
	}
	v4 := glueAddrs(msg, transport.FamilyIPv4)
	if len(v4) != 1 || !v4[0].Is4() {
		t.Errorf("FamilyIPv4 glue = %v; want one IPv4", v4)
	}
	v6 := glueAddrs(msg, transport.FamilyIPv6)
	if len(v6) != 1 || !v6[0].Is6() {
		t.Errorf("FamilyIPv6 glue = %v; want one IPv6", v6)
	}
}

func TestNSNames(t *testing.T) {
	msg := referral(t, "example.com", map[string]string{
		"ns1.example.com": "",
		"ns2.example.com": "",
	})
	names := nsNames(msg)
	if len(names) != 2 {
		t.Fatalf("nsNames = %d; want 2", len(names))
	}
	for _, n := range names {
		s := n.String()
		if s != "ns1.example.com." && s != "ns2.example.com." {
			t.Errorf("unexpected NS %q", s)
		}
	}
}

func TestRandIndexBounds(t *testing.T) {
	for i := 0; i < 64; i++ {
		if got := randIndex(3); got < 0 || got > 2 {
			t.Fatalf("randIndex(3) = %d; out of range", got)
		}
	}
}
