// Package stream implements the per-direction TCP stream registry and the
// sequence-number normalizer that the RPC reassembler relies on.
package stream

import "net/netip"

// Key identifies one direction of a TCP connection by its 4-tuple; the
// reverse direction is tracked as a distinct Key. A structured key is used
// instead of a formatted string so lookups avoid per-packet allocation.
type Key struct {
	SrcIP   netip.Addr
	SrcPort uint16
	DstIP   netip.Addr
	DstPort uint16
}
