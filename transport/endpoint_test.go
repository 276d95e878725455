package transport

import (
	"context"
	"net/netip"
	"testing"
)

func TestParseEndpointForms(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		server   string
		port     uint16
		wantHost string
		wantPort uint16
	}{
		{"1.1.1.1", 53, "1.1.1.1", 53},
		{"1.1.1.1:5353", 53, "1.1.1.1", 5353},
		{"2606:4700:4700::1111", 53, "2606:4700:4700::1111", 53},
		{"[2606:4700:4700::1111]:853", 53, "2606:4700:4700::1111", 853},
		{"quic://94.140.14.14", 853, "94.140.14.14", 853},
	}
	for _, c := range cases {
		ep, err := ParseEndpoint(ctx, c.server, c.port, FamilyAny, nil)
		if err != nil {
			t.Errorf("ParseEndpoint(%q): %v", c.server, err)
			continue
		}
		if ep.Host != c.wantHost {
			t.Errorf("ParseEndpoint(%q).Host = %q; want %q", c.server, ep.Host, c.wantHost)
		}
		if ep.Port != c.wantPort {
			t.Errorf("ParseEndpoint(%q).Port = %d; want %d", c.server, ep.Port, c.wantPort)
		}
		if len(ep.Addrs) != 1 {
			t.Errorf("ParseEndpoint(%q) resolved %d addrs; want 1", c.server, len(ep.Addrs))
		}
	}
}

func TestParseEndpointDoH(t *testing.T) {
	ep, err := ParseEndpoint(context.Background(), "https://cloudflare-dns.com/dns-query", 443, FamilyAny, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ep.URL != "https://cloudflare-dns.com/dns-query" {
		t.Errorf("URL = %q", ep.URL)
	}
	if ep.Host != "cloudflare-dns.com" {
		t.Errorf("Host = %q", ep.Host)
	}
	// DoH endpoints resolve lazily inside the HTTP client.
	if len(ep.Addrs) != 0 {
		t.Errorf("Addrs = %v; want none", ep.Addrs)
	}

	ep, err = ParseEndpoint(context.Background(), "https://dns.example/", 443, FamilyAny, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ep.URL != "https://dns.example/" {
		t.Errorf("URL = %q; want path preserved", ep.URL)
	}
}

func TestParseEndpointDoHDefaultPath(t *testing.T) {
	ep, err := ParseEndpoint(context.Background(), "https://dns.example", 443, FamilyAny, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ep.URL != "https://dns.example/dns-query" {
		t.Errorf("URL = %q; want default /dns-query path", ep.URL)
	}
}

func TestParseEndpointFamilyFilter(t *testing.T) {
	ctx := context.Background()
	if _, err := ParseEndpoint(ctx, "1.1.1.1", 53, FamilyIPv6, nil); err == nil {
		t.Error("IPv4 literal accepted under -6")
	}
	ep, err := ParseEndpoint(ctx, "1.1.1.1", 53, FamilyIPv4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := netip.MustParseAddrPort("1.1.1.1:53"); ep.Addrs[0] != want {
		t.Errorf("addr = %v; want %v", ep.Addrs[0], want)
	}
}

func TestRandomRootFamily(t *testing.T) {
	for i := 0; i < 16; i++ {
		if a := RandomRoot(FamilyIPv4); !a.Is4() {
			t.Fatalf("RandomRoot(IPv4) = %s", a)
		}
		if a := RandomRoot(FamilyIPv6); !a.Is6() {
			t.Fatalf("RandomRoot(IPv6) = %s", a)
		}
	}
}

func TestImpliedKind(t *testing.T) {
	if k, ok := ImpliedKind("https://dns.example/dns-query"); !ok || k != DoH {
		t.Errorf("https scheme: got %v, %v", k, ok)
	}
	if k, ok := ImpliedKind("quic://dns.adguard.com"); !ok || k != DoQ {
		t.Errorf("quic scheme: got %v, %v", k, ok)
	}
	if _, ok := ImpliedKind("9.9.9.9"); ok {
		t.Error("bare address implied a kind")
	}
}
