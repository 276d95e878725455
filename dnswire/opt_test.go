package dnswire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// optRoundTrip encodes an OPT RR carrying the options and decodes it back.
func optRoundTrip(t *testing.T, options ...EDNSOption) *OPT {
	t.Helper()
	msg := &Message{
		Header: Header{ID: 7},
		Additional: []RR{{
			Name:  RootName,
			Type:  TypeOPT,
			Class: 1232,
			TTL:   MakeOPTTTL(0, 0, true),
			Data:  &OPT{Options: options},
		}},
	}
	encoded, err := msg.Encode()
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	opt := decoded.OPT()
	require.NotNil(t, opt)
	assert.Equal(t, uint16(1232), opt.OPTPayloadSize())
	assert.True(t, opt.OPTDo())
	data, ok := opt.Data.(*OPT)
	require.True(t, ok)
	return data
}

func TestOPTOptionRoundTrips(t *testing.T) {
	rc, err := NewName("agent.example.com")
	require.NoError(t, err)
	options := []EDNSOption{
		&EDNSNSID{},
		&EDNSCookie{Client: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		&EDNSCookie{Client: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, Server: []byte{9, 9, 9, 9, 9, 9, 9, 9}},
		&EDNSPadding{Padding: make([]byte, 12)},
		&EDNSExtendedError{InfoCode: 18, ExtraText: "blocked by policy"},
		&EDNSReportChannel{AgentDomain: rc},
		&EDNSZoneversion{LabelCount: 2, Type: 0, Version: []byte{0, 0, 0, 42}},
		&EDNSAlgorithms{OptionCode: EDNSOptionDAU, Algorithms: []uint8{8, 13, 15}},
		&EDNSAlgorithms{OptionCode: EDNSOptionDHU, Algorithms: []uint8{1, 2}},
		&EDNSAlgorithms{OptionCode: EDNSOptionN3U, Algorithms: []uint8{1}},
		&EDNSRaw{OptionCode: 64001, Data: []byte{0xDE, 0xAD}},
	}
	got := optRoundTrip(t, options...)
	require.Len(t, got.Options, len(options))
	for i := range options {
		assert.Equal(t, options[i], got.Options[i], "option %d (%s)", i, EDNSOptionToString(options[i].Code()))
	}
}

func TestOPTCookieLengthRejected(t *testing.T) {
	// A 5-octet cookie is shorter than the mandatory client cookie.
	if _, err := decodeEDNSOption(EDNSOptionCookie, []byte{1, 2, 3, 4, 5}); err == nil {
		t.Error("short cookie accepted")
	}
	// 41 octets exceeds client + maximum server cookie.
	if _, err := decodeEDNSOption(EDNSOptionCookie, make([]byte, 41)); err == nil {
		t.Error("over-long cookie accepted")
	}
}

func TestOPTUnknownOptionPreserved(t *testing.T) {
	got := optRoundTrip(t, &EDNSRaw{OptionCode: 20292, Data: []byte{1, 2, 3}})
	raw, ok := got.Options[0].(*EDNSRaw)
	if !ok {
		t.Fatalf("option is %T; want *EDNSRaw", got.Options[0])
	}
	assert.Equal(t, uint16(20292), raw.OptionCode)
	assert.Equal(t, []byte{1, 2, 3}, raw.Data)
}

func TestEDNSExtendedErrorString(t *testing.T) {
	o := &EDNSExtendedError{InfoCode: 6, ExtraText: "validation failed"}
	assert.Equal(t, "6 (DNSSEC Bogus): validation failed", o.String())
}
