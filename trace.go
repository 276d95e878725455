package dqy

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dnsquery/dqy/dnswire"
	"github.com/dnsquery/dqy/transport"
)

// ErrTrace is returned when an iteration step leaves no nameserver to
// descend to.
var ErrTrace = errors.New("trace: no usable nameserver")

// maxTraceHops bounds the delegation descent.
const maxTraceHops = 32

// Trace performs a user-driven iterative resolution: list the root
// servers via the configured resolver, pick a random root, then walk the
// delegation chain with non-recursive queries until a server answers the
// question itself. Every query/response pair along the way is collected.
func Trace(ctx context.Context, cfg Config, opts QueryOptions) (*Result, error) {
	start := time.Now()
	result := &Result{}

	qname, err := dnswire.NewName(opts.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIDNA, err)
	}

	// The opening NS query for the root goes to the configured resolver,
	// recursion desired.
	rootOpts := opts
	rootOpts.Name = "."
	rootOpts.NoRecursion = false
	if err := traceStep(ctx, cfg, rootOpts, dnswire.TypeNS, result); err != nil {
		return nil, err
	}

	ip := transport.RandomRoot(cfg.Family)
	logrus.Debugf("trace: starting at root server %s", ip)

	for hop := 0; hop < maxTraceHops; hop++ {
		hopCfg := cfg
		hopCfg.Server = ip.String()
		hopCfg.KindSet = false // UDP with TCP fallback per hop
		hopOpts := opts
		hopOpts.NoRecursion = true

		if err := traceStep(ctx, hopCfg, hopOpts, opts.Type, result); err != nil {
			return nil, err
		}
		resp := result.Exchanges[len(result.Exchanges)-1].Response

		if isFinalAnswer(resp, qname, opts.Type) {
			result.Info.ElapsedMs = time.Since(start).Milliseconds()
			return result, nil
		}

		if glue := glueAddrs(resp, cfg.Family); len(glue) > 0 {
			ip = glue[randIndex(len(glue))]
			logrus.Debugf("trace: following glue to %s", ip)
			continue
		}

		// Glueless delegation: resolve a random NS name through the
		// configured resolver, then continue from its address.
		candidates := nsNames(resp)
		if len(candidates) == 0 {
			return nil, ErrTrace
		}
		ns := candidates[randIndex(len(candidates))]
		logrus.Debugf("trace: resolving glueless NS %s", ns)
		nsOpts := opts
		nsOpts.Name = ns.String()
		nsOpts.NoRecursion = false
		if err := traceStep(ctx, cfg, nsOpts, glueType(cfg.Family), result); err != nil {
			return nil, err
		}
		nsResp := result.Exchanges[len(result.Exchanges)-1].Response
		addrs := answerAddrs(nsResp, cfg.Family)
		if len(addrs) == 0 {
			return nil, ErrTrace
		}
		ip = addrs[0]
	}
	return nil, fmt.Errorf("%w: delegation deeper than %d hops", ErrTrace, maxTraceHops)
}

// traceStep runs one query against cfg and appends its exchanges.
func traceStep(ctx context.Context, cfg Config, opts QueryOptions, qtype uint16, result *Result) error {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	opts.Type = qtype
	exchanges, err := client.Query(ctx, opts)
	if err != nil {
		return err
	}
	result.Exchanges = append(result.Exchanges, exchanges...)
	result.Info.Endpoint = client.peerString()
	result.Info.TransportKind = client.Kind().String()
	result.Info.BytesSent += client.sent
	result.Info.BytesReceived += client.recv
	return nil
}

// isFinalAnswer reports whether the response answers the traced question
// rather than delegating: any answer RR for the query name, or a
// terminal response code.
func isFinalAnswer(resp *dnswire.Message, qname dnswire.Name, qtype uint16) bool {
	if resp.Header.Flags.RCode != uint8(dnswire.RcodeNoError) {
		return true
	}
	for i := range resp.Answers {
		rr := &resp.Answers[i]
		if rr.Name.Equal(qname) && (rr.Type == qtype || rr.Type == dnswire.TypeCNAME) {
			return true
		}
	}
	return false
}

// glueAddrs extracts nameserver addresses from the additional section.
func glueAddrs(resp *dnswire.Message, family transport.Family) []netip.Addr {
	var addrs []netip.Addr
	for i := range resp.Additional {
		if addr, ok := rrAddr(&resp.Additional[i], family); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// answerAddrs extracts addresses from the answer section.
func answerAddrs(resp *dnswire.Message, family transport.Family) []netip.Addr {
	var addrs []netip.Addr
	for i := range resp.Answers {
		if addr, ok := rrAddr(&resp.Answers[i], family); ok {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

func rrAddr(rr *dnswire.RR, family transport.Family) (netip.Addr, bool) {
	switch data := rr.Data.(type) {
	case *dnswire.A:
		if family != transport.FamilyIPv6 {
			return data.Addr, true
		}
	case *dnswire.AAAA:
		if family != transport.FamilyIPv4 {
			return data.Addr, true
		}
	}
	return netip.Addr{}, false
}

// nsNames collects NS targets from the authority and answer sections.
func nsNames(resp *dnswire.Message) []dnswire.Name {
	var names []dnswire.Name
	for _, section := range [][]dnswire.RR{resp.Authority, resp.Answers} {
		for i := range section {
			if section[i].Type != dnswire.TypeNS {
				continue
			}
			if data, ok := section[i].Data.(*dnswire.NameData); ok {
				names = append(names, data.Target)
			}
		}
	}
	return names
}

func glueType(family transport.Family) uint16 {
	if family == transport.FamilyIPv6 {
		return dnswire.TypeAAAA
	}
	return dnswire.TypeA
}

// randIndex picks an index with the same randomness source as transaction
// IDs.
func randIndex(n int) int {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(b[:]) % uint64(n))
}
