package stream

import "github.com/rs/xid"

// State is the per-direction reassembly state. Exactly one State exists per
// Key for the lifetime of a decode session.
type State struct {
	// ID is a debug correlation tag assigned once at creation, threaded
	// through sparse log lines so a single stream's messages can be
	// grepped out of a busy capture's logs. Ambient only; it plays no part
	// in the reassembly algorithm itself.
	ID xid.ID

	// msfrag holds the accumulated bytes of an RPC record spanning more
	// than one segment.
	msfrag []byte

	// fragOff is the byte offset into the *current* segment's payload at
	// which the next RPC record starts, when multiple records share a
	// segment.
	fragOff int

	// lastSeq is the end (relative seq plus payload length) of the highest
	// data range observed in a payload-bearing segment.
	lastSeq uint64

	// seqWrap is the running multiple-of-2^32 offset absorbing sequence
	// wraps.
	seqWrap uint64

	// seqBase is the absolute sequence of the most recent SYN for this
	// direction, or the first observed segment if no SYN was seen.
	seqBase uint32
}

// newState creates a fresh per-direction state seeded from the first
// observed segment's sequence number, with msfrag, frag_off, last_seq and
// seq_wrap all zero.
func newState(initialSeq uint32) *State {
	return &State{
		ID:      xid.New(),
		seqBase: initialSeq,
	}
}

// MsgFrag returns the bytes currently accumulated awaiting completion of an
// in-progress RPC record.
func (s *State) MsgFrag() []byte { return s.msfrag }

// FragOffset returns the pending intra-segment offset for the next RPC
// record, or 0 if none is pending.
func (s *State) FragOffset() int { return s.fragOff }

// SetMsgFrag replaces the accumulated fragment bytes.
func (s *State) SetMsgFrag(b []byte) { s.msfrag = b }

// SetFragOffset replaces the pending intra-segment offset.
func (s *State) SetFragOffset(off int) { s.fragOff = off }

// ResetFragmentation clears both msfrag and frag_off together: the two are
// mutually exclusive, never both non-empty at once.
func (s *State) ResetFragmentation() {
	s.msfrag = nil
	s.fragOff = 0
}

// LastSeq returns the relative sequence number just past the highest data
// range that has contributed payload to this stream.
func (s *State) LastSeq() uint64 { return s.lastSeq }
