// Package cursor provides the byte-cursor abstraction that the capture
// driver exposes to the decoder: sequential reads, absolute seeks, and a
// save/restore stack for speculative parses that may need to rewind.
//
// A Cursor also supports a logical Insert, which prepends bytes ahead of the
// current read position without copying the underlying buffer. This is the
// mechanism the RPC reassembler uses to splice msfrag back in front of a new
// segment's payload before attempting to decode an RPC header.
package cursor

import "fmt"

// ErrOutOfRange is returned when a read or seek would cross a buffer boundary.
var ErrOutOfRange = fmt.Errorf("cursor: out of range")

// Cursor is a forward-reading view over a byte buffer, with an optional
// staging buffer logically prepended ahead of the main buffer's offset.
type Cursor struct {
	staged []byte // bytes inserted ahead of buf[off:]; consumed before buf.
	buf    []byte
	off    int
}

// New creates a Cursor positioned at the start of buf.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Size returns the total number of unread bytes, staged and main combined.
func (c *Cursor) Size() int {
	return len(c.staged) + (len(c.buf) - c.off)
}

// Tell returns a position token suitable only for comparison with other
// tokens produced by this Cursor (not a byte offset when staged data exists).
func (c *Cursor) Tell() int {
	return c.off - len(c.staged)
}

// Read consumes and returns the next n bytes, pulling from staged bytes
// first. It fails if fewer than n bytes remain.
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || n > c.Size() {
		return nil, ErrOutOfRange
	}
	if n <= len(c.staged) {
		out := c.staged[:n]
		c.staged = c.staged[n:]
		return out, nil
	}
	out := make([]byte, 0, n)
	out = append(out, c.staged...)
	rem := n - len(c.staged)
	c.staged = nil
	out = append(out, c.buf[c.off:c.off+rem]...)
	c.off += rem
	return out, nil
}

// GetBytes returns all remaining bytes (staged + main) without advancing.
func (c *Cursor) GetBytes() []byte {
	if len(c.staged) == 0 {
		return c.buf[c.off:]
	}
	out := make([]byte, 0, c.Size())
	out = append(out, c.staged...)
	out = append(out, c.buf[c.off:]...)
	return out
}

// Insert logically prepends data ahead of the current read position. Used to
// splice an accumulated RPC fragment (msfrag) in front of fresh payload
// bytes before attempting a header decode.
func (c *Cursor) Insert(data []byte) {
	if len(data) == 0 {
		return
	}
	if len(c.staged) == 0 {
		c.staged = data
		return
	}
	merged := make([]byte, 0, len(data)+len(c.staged))
	merged = append(merged, data...)
	merged = append(merged, c.staged...)
	c.staged = merged
}

// mark captures enough state to rewind exactly to this point.
type mark struct {
	staged []byte
	off    int
}

// Save returns an opaque restore point for the current position.
func (c *Cursor) Save() any {
	return mark{staged: c.staged, off: c.off}
}

// Restore rewinds the cursor to a point previously returned by Save.
func (c *Cursor) Restore(point any) {
	m := point.(mark)
	c.staged = m.staged
	c.off = m.off
}

// Seek repositions the main buffer offset to an absolute byte index and
// discards any staged bytes; it is only valid when nothing has been
// inserted, since staged data has no place in the main buffer's index space.
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return ErrOutOfRange
	}
	c.staged = nil
	c.off = pos
	return nil
}
