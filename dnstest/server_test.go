package dnstest

import (
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func exchange(t *testing.T, network, addr string, qname string, qtype uint16) *dns.Msg {
	t.Helper()
	c := &dns.Client{Net: network, Timeout: 2 * time.Second}
	m := new(dns.Msg)
	m.SetQuestion(qname, qtype)
	resp, _, err := c.Exchange(m, addr)
	if err != nil {
		t.Fatalf("exchange over %s: %v", network, err)
	}
	return resp
}

func TestServerServesConfiguredAnswer(t *testing.T) {
	answer := new(dns.Msg)
	answer.SetQuestion("host.test.", dns.TypeA)
	answer.Answer = append(answer.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: "host.test.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.ParseIP("192.0.2.5").To4(),
	})
	srv, err := NewServer("127.0.0.1:0", map[string]*Response{
		Key("host.test.", dns.TypeA): {Msg: answer},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp := exchange(t, "udp", srv.Addr, "host.test.", dns.TypeA)
	if len(resp.Answer) != 1 {
		t.Fatalf("answers = %d; want 1", len(resp.Answer))
	}
}

func TestServerDefaultsToNXDOMAIN(t *testing.T) {
	srv, err := NewServer("127.0.0.1:0", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	resp := exchange(t, "udp", srv.Addr, "unknown.test.", dns.TypeA)
	if resp.Rcode != dns.RcodeNameError {
		t.Errorf("rcode = %d; want NXDOMAIN", resp.Rcode)
	}
}

func TestServerTruncatesOnlyOverUDP(t *testing.T) {
	answer := new(dns.Msg)
	answer.SetQuestion("big.test.", dns.TypeA)
	answer.Answer = append(answer.Answer, &dns.A{
		Hdr: dns.RR_Header{Name: "big.test.", Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 60},
		A:   net.ParseIP("192.0.2.6").To4(),
	})
	srv, err := NewServer("127.0.0.1:0", map[string]*Response{
		Key("big.test.", dns.TypeA): {Msg: answer, Truncate: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()

	udpResp := exchange(t, "udp", srv.Addr, "big.test.", dns.TypeA)
	if !udpResp.Truncated {
		t.Error("UDP response not truncated")
	}
	if len(udpResp.Answer) != 0 {
		t.Errorf("UDP response carries %d answers; want none", len(udpResp.Answer))
	}

	tcpResp := exchange(t, "tcp", srv.Addr, "big.test.", dns.TypeA)
	if tcpResp.Truncated {
		t.Error("TCP response truncated")
	}
	if len(tcpResp.Answer) != 1 {
		t.Errorf("TCP answers = %d; want 1", len(tcpResp.Answer))
	}
}
