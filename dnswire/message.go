package dnswire

import (
	"fmt"
	"strings"
)

// Message is a complete DNS message.
//
// Counts in the header are authoritative on the wire; Encode derives them
// from the section slices and Decode verifies that every announced record
// was actually present.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []RR
	Authority  []RR
	Additional []RR
}

// Encode serializes the message. The header counts are set from the
// section lengths. Names are always emitted pointer-free, so encoding the
// same logical message yields byte-identical output.
func (m *Message) Encode() ([]byte, error) {
	w := &Writer{}
	h := m.Header
	h.QDCount = uint16(len(m.Questions))
	h.ANCount = uint16(len(m.Answers))
	h.NSCount = uint16(len(m.Authority))
	h.ARCount = uint16(len(m.Additional))
	h.encode(w)
	for _, q := range m.Questions {
		if err := q.encode(w); err != nil {
			return nil, err
		}
	}
	for _, section := range [][]RR{m.Answers, m.Authority, m.Additional} {
		for i := range section {
			if err := section[i].encode(w); err != nil {
				return nil, err
			}
		}
	}
	return w.Bytes(), nil
}

// Decode parses a complete DNS message. It fails with a [*DecodeError] on
// malformed data: truncated sections, bad compression pointers, RDATA
// length mismatches, duplicate OPT records or an OPT outside Additional.
func Decode(data []byte) (*Message, error) {
	r := NewReader(data)
	h, err := r.readHeader()
	if err != nil {
		return nil, err
	}
	m := &Message{Header: h}
	for i := 0; i < int(h.QDCount); i++ {
		q, err := r.readQuestion()
		if err != nil {
			return nil, sectionErr(err)
		}
		m.Questions = append(m.Questions, q)
	}
	sections := []struct {
		count uint16
		out   *[]RR
	}{
		{h.ANCount, &m.Answers},
		{h.NSCount, &m.Authority},
		{h.ARCount, &m.Additional},
	}
	for _, s := range sections {
		for i := 0; i < int(s.count); i++ {
			rr, err := r.readRR()
			if err != nil {
				return nil, sectionErr(err)
			}
			*s.out = append(*s.out, rr)
		}
	}
	if err := m.checkOPT(); err != nil {
		return nil, err
	}
	return m, nil
}

// sectionErr reports a question or record that runs past the end of the
// data, including RDATA cut short by the end of the message, as a section
// count mismatch; other decode errors pass through unchanged.
func sectionErr(err error) error {
	if de, ok := err.(*DecodeError); ok && de.Err == ErrShortMessage {
		return &DecodeError{Offset: de.Offset, Field: de.Field, Err: ErrSectionCount}
	}
	return err
}

func (m *Message) checkOPT() error {
	opts := 0
	for _, rr := range m.Additional {
		if rr.Type == TypeOPT {
			opts++
		}
	}
	for _, section := range [][]RR{m.Answers, m.Authority} {
		for _, rr := range section {
			if rr.Type == TypeOPT {
				return &DecodeError{Field: "OPT", Err: ErrOPTPlacement}
			}
		}
	}
	if opts > 1 {
		return &DecodeError{Field: "OPT", Err: ErrMultipleOPT}
	}
	return nil
}

// OPT returns the OPT pseudo-RR from the additional section, or nil.
func (m *Message) OPT() *RR {
	for i := range m.Additional {
		if m.Additional[i].Type == TypeOPT {
			return &m.Additional[i]
		}
	}
	return nil
}

// ExtendedRcode combines the header RCODE with the upper bits from the
// OPT TTL field, when an OPT is present.
func (m *Message) ExtendedRcode() uint16 {
	rc := uint16(m.Header.Flags.RCode)
	if opt := m.OPT(); opt != nil {
		rc |= uint16(opt.OPTExtendedRcodeBits()) << 4
	}
	return rc
}

// String renders the message in the dig presentation format.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, ";; ->>HEADER<<- %s\n", m.Header.String())
	if opt := m.OPT(); opt != nil {
		b.WriteString("\n;; OPT PSEUDOSECTION:\n")
		do := ""
		if opt.OPTDo() {
			do = " do"
		}
		fmt.Fprintf(&b, "; EDNS: version: %d, flags:%s; udp: %d\n", opt.OPTVersion(), do, opt.OPTPayloadSize())
		if data, ok := opt.Data.(*OPT); ok {
			for _, o := range data.Options {
				fmt.Fprintf(&b, "; %s: %s\n", EDNSOptionToString(o.Code()), o.String())
			}
		}
	}
	if len(m.Questions) > 0 {
		b.WriteString("\n;; QUESTION SECTION:\n")
		for _, q := range m.Questions {
			b.WriteString(q.String())
			b.WriteByte('\n')
		}
	}
	writeSection := func(title string, rrs []RR) {
		rendered := 0
		for i := range rrs {
			if rrs[i].Type == TypeOPT {
				continue
			}
			if rendered == 0 {
				fmt.Fprintf(&b, "\n;; %s SECTION:\n", title)
			}
			rendered++
			b.WriteString(rrs[i].String())
			b.WriteByte('\n')
		}
	}
	writeSection("ANSWER", m.Answers)
	writeSection("AUTHORITY", m.Authority)
	writeSection("ADDITIONAL", m.Additional)
	return b.String()
}
