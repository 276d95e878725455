// Package dnswire implements the DNS wire format defined by RFC 1035 and
// its extensions: name compression, EDNS(0) OPT options, DNSSEC record
// types, SVCB/HTTPS service binding records and the RFC 3597 opaque
// fallback for everything else.
//
// The package is a codec only. It encodes a [Message] to bytes and decodes
// bytes back to a [Message]; it never touches the network. Encoding always
// emits pointer-free names; decoding accepts compressed names and rejects
// forward pointers, pointer loops and over-long names.
package dnswire
