// Package segment decodes a single TCP segment: the fixed 20-byte header,
// its variable-length options, and the view over its payload bytes.
package segment

import (
	"encoding/binary"
	"fmt"

	"github.com/cyril851122/nfsreassembly/cursor"
)

// Errors returned while decoding a segment's header or options.
var (
	ErrShortHeader     = fmt.Errorf("segment: truncated TCP header")
	ErrMalformedOption = fmt.Errorf("segment: option length exceeds remaining bytes")
)

// HeaderSize is the fixed length, in bytes, of a TCP header without options.
const HeaderSize = 20

// Flags is the 9-bit set of TCP control bits, bit 0 first: FIN, SYN, RST,
// PSH, ACK, URG, ECE, CWR, NS.
type Flags uint16

// Named flag bits, in their wire order within the 9-bit control field.
const (
	FIN Flags = 1 << iota
	SYN
	RST
	PSH
	ACK
	URG
	ECE
	CWR
	NS
)

// Has reports whether every bit in want is set in f.
func (f Flags) Has(want Flags) bool { return f&want == want }

// Raw returns the flag bits as a plain integer, for exact comparison against
// wire literals such as 0x10 (ACK-only).
func (f Flags) Raw() uint16 { return uint16(f) }

func (f Flags) String() string {
	names := []struct {
		bit  Flags
		name string
	}{
		{FIN, "FIN"}, {SYN, "SYN"}, {RST, "RST"}, {PSH, "PSH"}, {ACK, "ACK"},
		{URG, "URG"}, {ECE, "ECE"}, {CWR, "CWR"}, {NS, "NS"},
	}
	s := ""
	for _, n := range names {
		if f.Has(n.bit) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "-"
	}
	return s
}

// Segment is a decoded TCP header plus the options and payload view that
// followed it in the captured bytes.
type Segment struct {
	SrcPort, DstPort uint16
	SeqNumber        uint32
	AckNumber        uint32
	HeaderWords      uint8 // header_length_words, in 32-bit words.
	Flags            Flags
	Window           uint16
	Checksum         uint16
	UrgentPtr        uint16
	Options          []Option

	// Seq is the normalized, wrap-extended relative sequence number; it is
	// populated by the stream package, not by Parse.
	Seq uint64

	PayloadLength int
	PayloadData   []byte
}

// HeaderSize returns 4*HeaderWords, the header length including options.
func (s *Segment) HeaderSize() int { return 4 * int(s.HeaderWords) }

// Parse reads a TCP header and its options from c, leaving c positioned at
// the start of the segment's payload. The caller supplies the total number
// of bytes remaining in the enclosing IP payload (tcpLength) so the payload
// view and length can be computed.
func Parse(c *cursor.Cursor, tcpLength int) (*Segment, error) {
	raw, err := c.Read(HeaderSize)
	if err != nil {
		return nil, ErrShortHeader
	}

	s := &Segment{
		SrcPort:   binary.BigEndian.Uint16(raw[0:2]),
		DstPort:   binary.BigEndian.Uint16(raw[2:4]),
		SeqNumber: binary.BigEndian.Uint32(raw[4:8]),
		AckNumber: binary.BigEndian.Uint32(raw[8:12]),
	}
	hlFlags := binary.BigEndian.Uint16(raw[12:14])
	s.HeaderWords = uint8(hlFlags >> 12)
	s.Flags = Flags(hlFlags & 0x1FF)
	s.Window = binary.BigEndian.Uint16(raw[14:16])
	s.Checksum = binary.BigEndian.Uint16(raw[16:18])
	s.UrgentPtr = binary.BigEndian.Uint16(raw[18:20])

	headerSize := s.HeaderSize()
	if headerSize < HeaderSize || headerSize > HeaderSize+c.Size() {
		return nil, ErrShortHeader
	}

	if optLen := headerSize - HeaderSize; optLen > 0 {
		optData, err := c.Read(optLen)
		if err != nil {
			return nil, ErrShortHeader
		}
		s.Options = parseOptions(optData)
	}

	s.PayloadLength = tcpLength - headerSize
	if s.PayloadLength < 0 {
		s.PayloadLength = 0
	}
	if s.PayloadLength > c.Size() {
		s.PayloadLength = c.Size()
	}
	s.PayloadData = c.GetBytes()
	if len(s.PayloadData) > s.PayloadLength {
		s.PayloadData = s.PayloadData[:s.PayloadLength]
	}
	return s, nil
}
