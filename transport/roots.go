package transport

import (
	"crypto/rand"
	"encoding/binary"
	"net/netip"
)

// Root server addresses, a.root-servers.net through m.root-servers.net.
var (
	Roots4 = []netip.Addr{
		netip.MustParseAddr("198.41.0.4"),
		netip.MustParseAddr("170.247.170.2"),
		netip.MustParseAddr("192.33.4.12"),
		netip.MustParseAddr("199.7.91.13"),
		netip.MustParseAddr("192.203.230.10"),
		netip.MustParseAddr("192.5.5.241"),
		netip.MustParseAddr("192.112.36.4"),
		netip.MustParseAddr("198.97.190.53"),
		netip.MustParseAddr("192.36.148.17"),
		netip.MustParseAddr("192.58.128.30"),
		netip.MustParseAddr("193.0.14.129"),
		netip.MustParseAddr("199.7.83.42"),
		netip.MustParseAddr("202.12.27.33"),
	}
	Roots6 = []netip.Addr{
		netip.MustParseAddr("2001:503:ba3e::2:30"),
		netip.MustParseAddr("2801:1b8:10::b"),
		netip.MustParseAddr("2001:500:2::c"),
		netip.MustParseAddr("2001:500:2d::d"),
		netip.MustParseAddr("2001:500:a8::e"),
		netip.MustParseAddr("2001:500:2f::f"),
		netip.MustParseAddr("2001:500:12::d0d"),
		netip.MustParseAddr("2001:500:1::53"),
		netip.MustParseAddr("2001:7fe::53"),
		netip.MustParseAddr("2001:503:c27::2:30"),
		netip.MustParseAddr("2001:7fd::1"),
		netip.MustParseAddr("2001:500:9f::42"),
		netip.MustParseAddr("2001:dc3::35"),
	}
)

// RandomRoot picks one root server address honoring the family filter.
// The pick uses crypto/rand like everything else that must be
// unpredictable off-path.
func RandomRoot(family Family) netip.Addr {
	roots := Roots4
	if family == FamilyIPv6 {
		roots = Roots6
	}
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return roots[0]
	}
	return roots[binary.BigEndian.Uint64(b[:])%uint64(len(roots))]
}
