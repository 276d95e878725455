package dqy

import "github.com/dnsquery/dqy/dnswire"

// Exchange is one query/response pair. The raw byte forms are the exact
// on-wire messages (no transport framing), suitable for dumping to a file
// and diffing against packet captures.
type Exchange struct {
	Query       *dnswire.Message
	Response    *dnswire.Message
	RawQuery    []byte
	RawResponse []byte
}

// Info is the metadata record accompanying a run's exchanges. Renderers
// consume it as-is; the JSON field names are part of the contract.
type Info struct {
	ElapsedMs     int64  `json:"elapsed_ms"`
	Endpoint      string `json:"endpoint"`
	TransportKind string `json:"transport_kind"`
	BytesSent     int    `json:"bytes_sent"`
	BytesReceived int    `json:"bytes_received"`
}

// Result is the stable shape handed to renderers: the ordered exchanges
// and one info record.
type Result struct {
	Exchanges []Exchange
	Info      Info
}
