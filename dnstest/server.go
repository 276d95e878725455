// Package dnstest provides a configurable DNS server simulator for tests.
// It listens on both UDP and TCP at the same address and can simulate
// truncation (TC=1 over UDP, the full answer over TCP), dropped queries,
// raw byte responses and multi-message zone transfers.
package dnstest

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Response defines how the server answers a specific DNS question.
type Response struct {
	// Msg is sent as the response if non-nil. The Question and Id are set
	// from the incoming request before sending.
	Msg *dns.Msg
	// Rcode is used if Msg is nil to set the reply code in the generated
	// message. Defaults to RcodeSuccess.
	Rcode int
	// Raw is written directly on the wire instead of Msg/Rcode, allowing
	// malformed DNS packets.
	Raw []byte
	// Truncate makes the UDP listener reply with an empty TC=1 message
	// while TCP serves Msg in full, mirroring a response that did not fit.
	Truncate bool
	// Transfer is a sequence of messages streamed over TCP for AXFR-style
	// questions; each entry is sent as its own length-framed message.
	Transfer []*dns.Msg
	// Drop causes the server to ignore the request, simulating a timeout.
	Drop bool
	// Delay adds an optional delay before processing the response.
	Delay time.Duration
}

// Server simulates a DNS server for use in tests.
type Server struct {
	// Addr is the address the server is listening on.
	Addr string

	responses map[string]*Response
	udp       *dns.Server
	tcp       *dns.Server
}

// NewServer starts a new DNS server on addr serving the provided
// responses. The same port is used for both UDP and TCP; a port of "0"
// picks a free one.
func NewServer(addr string, responses map[string]*Response) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	udpConn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	tcpListener, err := net.Listen("tcp", udpConn.LocalAddr().String())
	if err != nil {
		_ = udpConn.Close()
		return nil, err
	}

	s := &Server{
		Addr:      udpConn.LocalAddr().String(),
		responses: responses,
	}
	s.udp = &dns.Server{PacketConn: udpConn, Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		s.handle(w, req, true)
	})}
	s.tcp = &dns.Server{Listener: tcpListener, Handler: dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) {
		s.handle(w, req, false)
	})}

	go s.udp.ActivateAndServe()
	go s.tcp.ActivateAndServe()

	return s, nil
}

// Close shuts down the server.
func (s *Server) Close() {
	if s.udp != nil {
		_ = s.udp.Shutdown()
	}
	if s.tcp != nil {
		_ = s.tcp.Shutdown()
	}
}

func (s *Server) handle(w dns.ResponseWriter, req *dns.Msg, overUDP bool) {
	if len(req.Question) == 0 {
		_ = w.Close()
		return
	}
	q := req.Question[0]
	resp, ok := s.responses[Key(q.Name, q.Qtype)]
	if !ok {
		m := new(dns.Msg)
		m.SetRcode(req, dns.RcodeNameError)
		_ = w.WriteMsg(m)
		return
	}

	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	if resp.Drop {
		_ = w.Close()
		return
	}
	if len(resp.Raw) > 0 {
		raw := resp.Raw
		// Patch in the request ID so ID correlation passes.
		if len(raw) >= 2 {
			patched := make([]byte, len(raw))
			copy(patched, raw)
			patched[0] = byte(req.Id >> 8)
			patched[1] = byte(req.Id)
			raw = patched
		}
		_, _ = w.Write(raw)
		return
	}
	if resp.Truncate && overUDP {
		m := new(dns.Msg)
		m.SetReply(req)
		m.Truncated = true
		_ = w.WriteMsg(m)
		return
	}
	if len(resp.Transfer) > 0 && !overUDP {
		for _, part := range resp.Transfer {
			m := part.Copy()
			m.Id = req.Id
			m.Response = true
			m.Question = req.Question
			_ = w.WriteMsg(m)
		}
		return
	}

	var m *dns.Msg
	if resp.Msg != nil {
		m = resp.Msg.Copy()
		m.Id = req.Id
		m.Response = true
		m.Question = req.Question
	} else {
		m = new(dns.Msg)
		m.SetRcode(req, resp.Rcode)
	}
	_ = w.WriteMsg(m)
}

// Key builds the responses map key for a name and query type.
func Key(name string, qtype uint16) string {
	return strings.ToLower(dns.Fqdn(name)) + "/" + strconv.Itoa(int(qtype))
}
