package main

import (
	"fmt"
	"io"

	"github.com/dnsquery/dqy"
	"github.com/dnsquery/dqy/dnswire"
)

// ANSI color codes used by the text renderer.
const (
	colReset  = "\x1b[0m"
	colBold   = "\x1b[1m"
	colGreen  = "\x1b[32m"
	colYellow = "\x1b[33m"
	colCyan   = "\x1b[36m"
)

type renderer struct {
	w      io.Writer
	colors bool
	puny   bool
}

func (r *renderer) color(code, s string) string {
	if !r.colors {
		return s
	}
	return code + s + colReset
}

func render(w io.Writer, opts *cliOptions, result *dqy.Result) {
	if opts.jsonOut {
		renderJSON(w, opts, result)
		return
	}
	r := &renderer{w: w, colors: !opts.noColors, puny: opts.puny}
	if opts.short {
		r.renderShort(result)
	} else {
		for i := range result.Exchanges {
			if i > 0 {
				fmt.Fprintln(w)
			}
			r.renderMessage(result.Exchanges[i].Response)
		}
	}
	if opts.stats {
		r.renderStats(&result.Info)
	}
}

// renderShort prints only the answer RDATA, one per line.
func (r *renderer) renderShort(result *dqy.Result) {
	for i := range result.Exchanges {
		resp := result.Exchanges[i].Response
		for j := range resp.Answers {
			if resp.Answers[j].Data != nil {
				fmt.Fprintln(r.w, resp.Answers[j].Data.String())
			}
		}
	}
}

func (r *renderer) renderMessage(m *dnswire.Message) {
	h := m.Header
	fmt.Fprintf(r.w, ";; ->>HEADER<<- opcode: %s, status: %s, id: %d\n",
		dnswire.OpCodeToString(h.Flags.OpCode),
		r.color(colBold, dnswire.RcodeToString(m.ExtendedRcode())),
		h.ID)
	fmt.Fprintf(r.w, ";; flags: %s; QUERY: %d, ANSWER: %d, AUTHORITY: %d, ADDITIONAL: %d\n",
		h.Flags, h.QDCount, h.ANCount, h.NSCount, h.ARCount)

	if opt := m.OPT(); opt != nil {
		fmt.Fprintf(r.w, "\n%s\n", r.color(colBold, ";; OPT PSEUDOSECTION:"))
		do := ""
		if opt.OPTDo() {
			do = " do"
		}
		fmt.Fprintf(r.w, "; EDNS: version: %d, flags:%s; udp: %d\n", opt.OPTVersion(), do, opt.OPTPayloadSize())
		if data, ok := opt.Data.(*dnswire.OPT); ok {
			for _, o := range data.Options {
				fmt.Fprintf(r.w, "; %s: %s\n", dnswire.EDNSOptionToString(o.Code()), o.String())
			}
		}
	}

	if len(m.Questions) > 0 {
		fmt.Fprintf(r.w, "\n%s\n", r.color(colBold, ";; QUESTION SECTION:"))
		for _, q := range m.Questions {
			fmt.Fprintf(r.w, ";%s\t%s\t%s\n",
				r.color(colGreen, q.Name.Display(r.puny)),
				dnswire.ClassToString(q.Class),
				r.color(colCyan, dnswire.TypeToString(q.Type)))
		}
	}
	r.renderSection("ANSWER", m.Answers)
	r.renderSection("AUTHORITY", m.Authority)
	r.renderSection("ADDITIONAL", m.Additional)
}

func (r *renderer) renderSection(title string, rrs []dnswire.RR) {
	printed := false
	for i := range rrs {
		rr := &rrs[i]
		if rr.Type == dnswire.TypeOPT {
			continue
		}
		if !printed {
			fmt.Fprintf(r.w, "\n%s\n", r.color(colBold, ";; "+title+" SECTION:"))
			printed = true
		}
		data := ""
		if rr.Data != nil {
			data = rr.Data.String()
		}
		fmt.Fprintf(r.w, "%s\t%d\t%s\t%s\t%s\n",
			r.color(colGreen, rr.Name.Display(r.puny)),
			rr.TTL,
			dnswire.ClassToString(rr.Class),
			r.color(colCyan, dnswire.TypeToString(rr.Type)),
			data)
	}
}

func (r *renderer) renderStats(info *dqy.Info) {
	fmt.Fprintf(r.w, "\n%s\n", r.color(colBold, ";; STATS:"))
	fmt.Fprintf(r.w, ";; elapsed: %s\n", r.color(colYellow, fmt.Sprintf("%d ms", info.ElapsedMs)))
	fmt.Fprintf(r.w, ";; server: %s (%s)\n", info.Endpoint, info.TransportKind)
	fmt.Fprintf(r.w, ";; bytes sent: %d, received: %d\n", info.BytesSent, info.BytesReceived)
}
