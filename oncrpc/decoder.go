package oncrpc

import (
	"bytes"
	"encoding/binary"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/cyril851122/nfsreassembly/cursor"
)

// Decoder is constructed with a transport protocol number (proto=6 for TCP)
// and a state flag. When state is false the decoder performs a read-only
// probe: Decode never mutates a CorrelationMap, which is how the
// reassembler peeks at the next record without committing to it.
type Decoder struct {
	proto int
	state bool
}

// NewDecoder constructs a Decoder. proto is carried for parity with other
// transport-aware decoders in this module; this package only ever decodes
// the TCP record-marked form.
func NewDecoder(proto int, state bool) *Decoder {
	return &Decoder{proto: proto, state: state}
}

// Stateful reports whether this decoder instance commits its decode (true)
// or is a non-mutating probe (false).
func (d *Decoder) Stateful() bool { return d.state }

// Decode reads one RPC message header (record mark, xid, message type) from
// c. It returns the decoded Message and ldata, the number of bytes
// available for the RPC record body: the cursor's remaining size
// immediately after the 4-byte record mark.
//
// On any error the cursor may have been partially advanced; callers must
// save a restore point before calling Decode and roll back on error.
func (d *Decoder) Decode(c *cursor.Cursor) (*Message, int, error) {
	markBytes, err := c.Read(4)
	if err != nil {
		return nil, 0, ErrNotRPCHeader
	}
	raw := binary.BigEndian.Uint32(markBytes)
	hdr := FragmentHeader{
		Size: raw & 0x7FFFFFFF,
		Last: raw&0x80000000 != 0,
	}
	if hdr.Size > maxFragmentSize {
		return nil, 0, ErrNotRPCHeader
	}

	ldata := c.Size()

	bodyBytes, err := c.Read(8)
	if err != nil {
		return nil, 0, ErrNotRPCHeader
	}

	var body struct {
		Xid  uint32
		Type uint32
	}
	if _, err := xdr.Unmarshal(bytes.NewReader(bodyBytes), &body); err != nil {
		return nil, 0, ErrNotRPCHeader
	}
	if body.Type != MsgCall && body.Type != MsgReply {
		return nil, 0, ErrNotRPCHeader
	}

	return &Message{FragHdr: hdr, Xid: body.Xid, Type: body.Type}, ldata, nil
}

// DecodePayload forwards the remaining body bytes to the NFS payload
// placeholder. Full NFS program/procedure decoding is out of scope; this
// exists only so the reassembler has something concrete to attach once a
// record completes.
func (m *Message) DecodePayload(c *cursor.Cursor) (*NFSObject, error) {
	return decodeNFSPlaceholder(c, m)
}
