package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dnsquery/dqy"
	"github.com/dnsquery/dqy/dnswire"
)

// The JSON shapes mirror the display contract: decoded messages plus the
// run info record.

type jsonHeader struct {
	ID         uint16 `json:"id"`
	OpCode     string `json:"opcode"`
	Status     string `json:"status"`
	Flags      string `json:"flags"`
	QDCount    uint16 `json:"qd_count"`
	ANCount    uint16 `json:"an_count"`
	NSCount    uint16 `json:"ns_count"`
	ARCount    uint16 `json:"ar_count"`
}

type jsonQuestion struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Type  string `json:"type"`
}

type jsonRR struct {
	Name  string `json:"name"`
	TTL   uint32 `json:"ttl"`
	Class string `json:"class"`
	Type  string `json:"type"`
	RData string `json:"rdata"`
}

type jsonMessage struct {
	Header     jsonHeader     `json:"header"`
	Question   []jsonQuestion `json:"question"`
	Answer     []jsonRR       `json:"answer,omitempty"`
	Authority  []jsonRR       `json:"authority,omitempty"`
	Additional []jsonRR       `json:"additional,omitempty"`
}

type jsonOutput struct {
	Messages []jsonMessage `json:"messages"`
	Info     dqy.Info      `json:"info"`
}

func renderJSON(w io.Writer, opts *cliOptions, result *dqy.Result) {
	out := jsonOutput{Info: result.Info}
	for i := range result.Exchanges {
		out.Messages = append(out.Messages, toJSONMessage(result.Exchanges[i].Response, opts.puny))
	}
	enc := json.NewEncoder(w)
	if opts.jsonPretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(w, err)
	}
}

func toJSONMessage(m *dnswire.Message, puny bool) jsonMessage {
	jm := jsonMessage{
		Header: jsonHeader{
			ID:      m.Header.ID,
			OpCode:  dnswire.OpCodeToString(m.Header.Flags.OpCode),
			Status:  dnswire.RcodeToString(m.ExtendedRcode()),
			Flags:   m.Header.Flags.String(),
			QDCount: m.Header.QDCount,
			ANCount: m.Header.ANCount,
			NSCount: m.Header.NSCount,
			ARCount: m.Header.ARCount,
		},
	}
	for _, q := range m.Questions {
		jm.Question = append(jm.Question, jsonQuestion{
			Name:  q.Name.Display(puny),
			Class: dnswire.ClassToString(q.Class),
			Type:  dnswire.TypeToString(q.Type),
		})
	}
	jm.Answer = toJSONRRs(m.Answers, puny)
	jm.Authority = toJSONRRs(m.Authority, puny)
	jm.Additional = toJSONRRs(m.Additional, puny)
	return jm
}

func toJSONRRs(rrs []dnswire.RR, puny bool) []jsonRR {
	var out []jsonRR
	for i := range rrs {
		rr := &rrs[i]
		data := ""
		if rr.Data != nil {
			data = rr.Data.String()
		}
		out = append(out, jsonRR{
			Name:  rr.Name.Display(puny),
			TTL:   rr.TTL,
			Class: dnswire.ClassToString(rr.Class),
			Type:  dnswire.TypeToString(rr.Type),
			RData: data,
		})
	}
	return out
}
