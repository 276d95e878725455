// Package dqy is a stub-resolver DNS query engine. It builds query
// messages, sends them through one of the [transport] kinds, decodes the
// responses with [dnswire] and exposes the decoded exchanges together with
// timing and byte counts for rendering.
//
// The package never caches and never validates DNSSEC signatures; it
// transports and decodes records faithfully and leaves interpretation to
// the caller.
package dqy
