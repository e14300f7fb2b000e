// Package capture reads a pcap file and drives segments through the
// sequence normalizer and RPC reassembler for every TCP stream found in it.
package capture

import (
	"fmt"
	"log"
	"net/netip"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/m-lab/go/logx"

	"github.com/cyril851122/nfsreassembly/cursor"
	"github.com/cyril851122/nfsreassembly/metrics"
	"github.com/cyril851122/nfsreassembly/rpcreasm"
	"github.com/cyril851122/nfsreassembly/segment"
	"github.com/cyril851122/nfsreassembly/stream"
)

var (
	info         = log.New(os.Stdout, "info: ", log.LstdFlags|log.Lshortfile)
	sparseLogger = log.New(os.Stdout, "sparse: ", log.LstdFlags|log.Lshortfile)
	sparse20     = logx.NewLogEvery(sparseLogger, 50*time.Millisecond)

	// ErrNoIPLayer is returned when a captured frame carries no IPv4/IPv6
	// layer gopacket can decode.
	ErrNoIPLayer = fmt.Errorf("capture: no IP layer")
	// ErrNoTCPLayer is returned when the IP payload's protocol isn't TCP.
	ErrNoTCPLayer = fmt.Errorf("capture: no TCP layer")
)

// Record carries a capture frame's declared-vs-captured lengths, used to
// detect tail truncation by the capture driver (snaplen cutoff).
type Record struct {
	LengthOrig int
	LengthInc  int
}

func (r Record) truncation() rpcreasm.Truncation {
	return rpcreasm.Truncation{LengthOrig: r.LengthOrig, LengthInc: r.LengthInc}
}

// Packet is one decoded TCP-bearing frame: the parsed segment and, when the
// reassembler found any, the RPC records it yielded.
type Packet struct {
	Info gopacket.CaptureInfo
	Key  stream.Key
	TCP  *segment.Segment
	Seq  uint64
	RPC  []rpcreasm.Record
}

// Session owns the stream registry and reassembler shared across every
// packet in one pcap decode, matching the single-threaded, session-scoped
// ownership model the stream and xid-correlation tables assume.
type Session struct {
	registry    *stream.Registry
	reassembler *rpcreasm.Reassembler
}

// NewSession creates a decode session around a fresh stream registry.
func NewSession(reassembler *rpcreasm.Reassembler) *Session {
	return &Session{registry: stream.NewRegistry(), reassembler: reassembler}
}

// Registry exposes the session's stream registry, mainly for summaries and
// tests.
func (s *Session) Registry() *stream.Registry { return s.registry }

// ReplayFile opens path as a pcap file and decodes every frame in capture
// order, returning the decoded packets. A malformed frame is logged and
// skipped rather than aborting the whole file, matching the "never abort on
// one bad segment" policy carried through from the TCP decoder.
func (s *Session) ReplayFile(path string) ([]Packet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	if err != nil {
		return nil, err
	}

	var packets []Packet
	for {
		data, ci, err := r.ReadPacketData()
		if err != nil {
			break
		}
		p, decodeErr := s.decodeFrame(ci, data)
		if decodeErr != nil {
			sparse20.Printf("capture: dropping frame: %v", decodeErr)
			continue
		}
		packets = append(packets, p)
	}
	metrics.ActiveStreams.Set(float64(s.registry.Len()))
	return packets, nil
}

func (s *Session) decodeFrame(ci gopacket.CaptureInfo, data []byte) (Packet, error) {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.NoCopy)

	netLayer := pkt.NetworkLayer()
	if netLayer == nil {
		return Packet{}, ErrNoIPLayer
	}
	srcIP, dstIP := netLayer.NetworkFlow().Endpoints()

	src, ok := netip.AddrFromSlice(srcIP.Raw())
	if !ok {
		return Packet{}, ErrNoIPLayer
	}
	dst, ok := netip.AddrFromSlice(dstIP.Raw())
	if !ok {
		return Packet{}, ErrNoIPLayer
	}

	tcpLayer := pkt.Layer(layers.LayerTypeTCP)
	if tcpLayer == nil {
		return Packet{}, ErrNoTCPLayer
	}
	raw := append(tcpLayer.LayerContents(), tcpLayer.LayerPayload()...)

	c := cursor.New(raw)
	seg, err := segment.Parse(c, len(raw))
	if err != nil {
		metrics.SegmentErrors.WithLabelValues(segmentErrorKind(err)).Inc()
		return Packet{}, err
	}
	metrics.SegmentsDecoded.Inc()

	key := stream.Key{SrcIP: src, SrcPort: seg.SrcPort, DstIP: dst, DstPort: seg.DstPort}
	st := s.registry.Get(key, seg)

	priorLastSeq := st.LastSeq()
	seq, retransmit := st.Normalize(seg)
	seg.Seq = seq
	if retransmit {
		metrics.RetransmitsDropped.Inc()
		return Packet{Info: ci, Key: key, TCP: seg, Seq: seq}, nil
	}

	var seqDelta uint64
	if seq >= priorLastSeq {
		seqDelta = seq - priorLastSeq
	}
	rec := Record{LengthOrig: ci.Length, LengthInc: ci.CaptureLength}
	records, err := s.reassembler.Reassemble(st, seg.SrcPort, seg.DstPort, seg.PayloadData, seg.Flags.Raw(), rec.truncation(), seqDelta)
	if err != nil {
		sparse20.Printf("capture: reassembly error on %v (stream %s): %v", key, st.ID, err)
	}
	metrics.RPCRecordsEmitted.Add(float64(len(records)))

	return Packet{Info: ci, Key: key, TCP: seg, Seq: seq, RPC: records}, nil
}

func segmentErrorKind(err error) string {
	switch err {
	case segment.ErrShortHeader:
		return "ShortHeader"
	case segment.ErrMalformedOption:
		return "MalformedOption"
	default:
		return "Unknown"
	}
}
