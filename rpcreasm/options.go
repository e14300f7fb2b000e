package rpcreasm

// Options configures optional reassembler behaviors that are not uniformly
// observed across real captures.
type Options struct {
	// StrictValidData enables the "valid data" guard: a short (1-20 byte),
	// all-zero payload arriving while msfrag is in progress, where the bytes
	// still needed to complete msfrag don't equal the segment's sequence
	// delta, is treated as capture filler: Reassemble returns no records
	// and leaves the stream state untouched. Off by default; both behaviors
	// are legitimate, see DESIGN.md.
	StrictValidData bool
}

// Truncation carries the capture record's declared-vs-captured length, used
// to tell a genuinely incomplete RPC record apart from one that only looks
// incomplete because the capture dropped trailing bytes.
type Truncation struct {
	LengthOrig int
	LengthInc  int
}

// Present reports whether the capture record was truncated on the wire.
func (t Truncation) Present() bool { return t.LengthOrig != t.LengthInc }
