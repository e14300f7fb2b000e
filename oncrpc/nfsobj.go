package oncrpc

import "github.com/cyril851122/nfsreassembly/cursor"

// NFSObject is a placeholder for the decoded NFS payload. The NFS-level
// pretty printer and program/procedure dispatch are explicitly out of
// scope; this type only records how many body bytes were available so
// callers can compute the consumed-byte count without a real NFS decoder.
type NFSObject struct {
	Xid       uint32
	RawLen    int
	Undecoded bool
}

// decodeNFSPlaceholder always declines to interpret the payload, but still
// consumes exactly the record's remaining body bytes (FragHdr.Size less the
// xid/type word already read by Decode) so the cursor lands on the next
// record's boundary, however many records share this segment.
func decodeNFSPlaceholder(c *cursor.Cursor, m *Message) (*NFSObject, error) {
	bodyLeft := int(m.FragHdr.Size) - 8
	if bodyLeft < 0 {
		bodyLeft = 0
	}
	if bodyLeft > c.Size() {
		bodyLeft = c.Size()
	}
	raw, err := c.Read(bodyLeft)
	if err != nil {
		return nil, err
	}
	return &NFSObject{Xid: m.Xid, RawLen: len(raw), Undecoded: true}, nil
}
