package dqy

import (
	"errors"
	"testing"

	"github.com/dnsquery/dqy/dnswire"
)

func TestBuildQueryDefaults(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "www.example.com", Type: dnswire.TypeA})
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}
	if !msg.Header.Flags.RD {
		t.Error("RD not set by default")
	}
	if msg.Header.Flags.QR {
		t.Error("QR set on a query")
	}
	if msg.Header.Flags.CD {
		t.Error("CD set by default")
	}
	if len(msg.Questions) != 1 {
		t.Fatalf("questions = %d; want 1", len(msg.Questions))
	}
	q := msg.Questions[0]
	if q.Class != dnswire.ClassINET {
		t.Errorf("class = %d; want IN", q.Class)
	}
	opt := msg.OPT()
	if opt == nil {
		t.Fatal("EDNS OPT missing by default")
	}
	if opt.OPTPayloadSize() != DefaultBufSize {
		t.Errorf("payload size = %d; want %d", opt.OPTPayloadSize(), DefaultBufSize)
	}
	if opt.OPTDo() {
		t.Error("DO set without DNSSEC option")
	}
}

func TestBuildQueryRandomID(t *testing.T) {
	a, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA})
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA})
	if err != nil {
		t.Fatal(err)
	}
	// Two random IDs colliding is possible but a second draw makes the
	// flake probability negligible.
	if a.Header.ID == b.Header.ID {
		c, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA})
		if err != nil {
			t.Fatal(err)
		}
		if a.Header.ID == c.Header.ID {
			t.Error("transaction IDs do not vary")
		}
	}
}

func TestBuildQueryFlags(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{
		Name: "example.com", Type: dnswire.TypeA,
		NoRecursion: true, CheckingDisabled: true, DNSSEC: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Header.Flags.RD {
		t.Error("RD set despite NoRecursion")
	}
	if !msg.Header.Flags.CD {
		t.Error("CD not set")
	}
	if !msg.OPT().OPTDo() {
		t.Error("DO not set despite DNSSEC")
	}
}

func TestBuildQueryNoEDNS(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA, NoEDNS: true})
	if err != nil {
		t.Fatal(err)
	}
	if msg.OPT() != nil {
		t.Error("OPT present despite NoEDNS")
	}
	if len(msg.Additional) != 0 {
		t.Errorf("additional = %d records; want 0", len(msg.Additional))
	}
}

func TestBuildQueryBufSizeClamp(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA, BufSize: 100})
	if err != nil {
		t.Fatal(err)
	}
	if got := msg.OPT().OPTPayloadSize(); got != MinBufSize {
		t.Errorf("payload size = %d; want clamped to %d", got, MinBufSize)
	}
}

func TestBuildQueryPadding(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "www.example.com", Type: dnswire.TypeA, Padding: true})
	if err != nil {
		t.Fatal(err)
	}
	encoded, err := msg.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded)%DefaultPadBlock != 0 {
		t.Errorf("padded message is %d bytes; want a multiple of %d", len(encoded), DefaultPadBlock)
	}
}

func TestBuildQueryCookie(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "example.com", Type: dnswire.TypeA, Cookie: true})
	if err != nil {
		t.Fatal(err)
	}
	data := msg.OPT().Data.(*dnswire.OPT)
	var cookie *dnswire.EDNSCookie
	for _, o := range data.Options {
		if c, ok := o.(*dnswire.EDNSCookie); ok {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("cookie option missing")
	}
	if cookie.Client == ([8]byte{}) {
		t.Error("client cookie is all zero")
	}
	if len(cookie.Server) != 0 {
		t.Error("server cookie set on a fresh query")
	}
}

func TestBuildQueryOptionOrder(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{
		Name: "example.com", Type: dnswire.TypeA,
		NSID: true, Padding: true, Cookie: true,
		DAU: []uint8{13}, EDE: true, Zoneversion: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	data := msg.OPT().Data.(*dnswire.OPT)
	var codes []uint16
	for _, o := range data.Options {
		codes = append(codes, o.Code())
	}
	want := []uint16{
		dnswire.EDNSOptionNSID,
		dnswire.EDNSOptionPadding,
		dnswire.EDNSOptionCookie,
		dnswire.EDNSOptionDAU,
		dnswire.EDNSOptionEDE,
		dnswire.EDNSOptionZoneversion,
	}
	if len(codes) != len(want) {
		t.Fatalf("options = %v; want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("options = %v; want %v", codes, want)
		}
	}
}

func TestBuildQueryIDNA(t *testing.T) {
	msg, err := BuildQuery(QueryOptions{Name: "스타벅스코리아.com", Type: dnswire.TypeA})
	if err != nil {
		t.Fatal(err)
	}
	got := msg.Questions[0].Name.String()
	if got[:4] != "xn--" {
		t.Errorf("QNAME = %q; want A-label form", got)
	}

	if _, err := BuildQuery(QueryOptions{Name: "héllo..com", Type: dnswire.TypeA}); !errors.Is(err, ErrIDNA) {
		t.Errorf("err = %v; want ErrIDNA", err)
	}
}
