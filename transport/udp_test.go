package transport

import (
	"context"
	"encoding/binary"
	"net"
	"net/netip"
	"testing"
	"time"
)

// udpEchoServer answers every datagram, optionally preceded by one with a
// bogus transaction ID.
func udpEchoServer(t *testing.T, bogusFirst bool) *Endpoint {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	go func() {
		buf := make([]byte, 65535)
		for {
			n, from, err := conn.ReadFromUDPAddrPort(buf)
			if err != nil {
				return
			}
			query := make([]byte, n)
			copy(query, buf[:n])
			if bogusFirst {
				bogus := make([]byte, n)
				copy(bogus, query)
				binary.BigEndian.PutUint16(bogus, binary.BigEndian.Uint16(query)+1)
				_, _ = conn.WriteToUDPAddrPort(bogus, from)
			}
			reply := make([]byte, n)
			copy(reply, query)
			reply[2] |= 0x80 // QR
			_, _ = conn.WriteToUDPAddrPort(reply, from)
		}
	}()
	addr := conn.LocalAddr().(*net.UDPAddr)
	ap := netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(addr.Port))
	return &Endpoint{Host: "127.0.0.1", Port: ap.Port(), Addrs: []netip.AddrPort{ap}}
}

func TestUDPExchange(t *testing.T) {
	ep := udpEchoServer(t, false)
	conn, err := Dial(context.Background(), UDP, ep, Options{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	query := []byte{0x12, 0x34, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	resp, err := conn.Exchange(context.Background(), query)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if binary.BigEndian.Uint16(resp) != 0x1234 {
		t.Errorf("ID = %#x; want 0x1234", binary.BigEndian.Uint16(resp))
	}
	if resp[2]&0x80 == 0 {
		t.Error("QR bit not set in response")
	}
}

func TestUDPExchangeSkipsMismatchedID(t *testing.T) {
	ep := udpEchoServer(t, true)
	conn, err := Dial(context.Background(), UDP, ep, Options{Timeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	query := []byte{0x55, 0xAA, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	resp, err := conn.Exchange(context.Background(), query)
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	// The bogus-ID datagram arrives first and must be skipped.
	if binary.BigEndian.Uint16(resp) != 0x55AA {
		t.Errorf("ID = %#x; want 0x55AA", binary.BigEndian.Uint16(resp))
	}
}

func TestUDPExchangeTimeout(t *testing.T) {
	// A socket nobody answers on.
	server, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer server.Close()
	addr := server.LocalAddr().(*net.UDPAddr)
	ep := &Endpoint{Host: "127.0.0.1", Port: uint16(addr.Port), Addrs: []netip.AddrPort{
		netip.AddrPortFrom(netip.MustParseAddr("127.0.0.1"), uint16(addr.Port)),
	}}

	conn, err := Dial(context.Background(), UDP, ep, Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	query := []byte{1, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err = conn.Exchange(context.Background(), query)
	netErr, ok := err.(net.Error)
	if !ok || !netErr.Timeout() {
		t.Errorf("err = %v; want a timeout", err)
	}
}
