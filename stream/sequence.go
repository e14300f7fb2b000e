package stream

import "github.com/cyril851122/nfsreassembly/segment"

// wrapIncrement is 2^32, the amount seq_wrap advances each time the 32-bit
// sequence counter completes a lap relative to seq_base.
const wrapIncrement uint64 = 1 << 32

// Normalize updates s in place and returns the segment's wrap-extended
// relative sequence number plus whether the segment is classified as a
// retransmission.
//
// Resolved ambiguity (see DESIGN.md): a naive wrap check compares the
// tentative seq against seq_wrap directly, but a tentative seq is always
// >= seq_wrap by construction (a non-negative 32-bit delta added to
// seq_wrap can never undercut it), so that comparison can never fire. The
// only self-consistent baseline is last_seq: a tentative seq that regresses
// below the high-water mark signals either a genuine wrap or a
// retransmission. The two are told apart by the size of the regression: a
// real wrap of the 32-bit counter regresses by nearly a full lap
// (wrapIncrement), while a retransmission re-sends data already seen and so
// regresses by at most one segment's worth of bytes. Anything regressing by
// more than half a lap is treated as a wrap; anything less is a
// retransmission.
//
// last_seq tracks the end of the highest-seen data range (seq plus payload
// length), not a segment's start seq, so that an exact-duplicate retransmit
// (same start seq, same length) still regresses below last_seq and is caught.
func (s *State) Normalize(seg *segment.Segment) (seq uint64, retransmit bool) {
	if seg.Flags.Has(segment.SYN) {
		s.seqBase = seg.SeqNumber
		s.lastSeq = s.seqWrap
	}

	delta := seg.SeqNumber - s.seqBase // 32-bit modular subtraction
	seq = uint64(delta) + s.seqWrap

	if seq < s.lastSeq {
		if s.lastSeq-seq > wrapIncrement/2 {
			s.seqWrap += wrapIncrement
			seq += wrapIncrement
		} else {
			// Genuine retransmission: last_seq is not updated, and
			// the caller must not deliver this segment's payload to
			// the reassembler.
			return seq, true
		}
	}

	if seg.PayloadLength > 0 {
		s.lastSeq = seq + uint64(seg.PayloadLength)
	}
	return seq, false
}
