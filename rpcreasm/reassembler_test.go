package rpcreasm_test

import (
	"encoding/binary"
	"net/netip"
	"testing"

	"github.com/cyril851122/nfsreassembly/oncrpc"
	"github.com/cyril851122/nfsreassembly/rpcreasm"
	"github.com/cyril851122/nfsreassembly/segment"
	"github.com/cyril851122/nfsreassembly/stream"
)

// buildRecord builds one record-marked RPC message: a 4-byte fragment mark
// over an 8-byte xid/type body plus dataLen filler bytes, so the declared
// FragHdr.Size is 8+dataLen.
func buildRecord(xid, msgType uint32, dataLen int) []byte {
	body := 8 + dataLen
	buf := make([]byte, 4+body)
	binary.BigEndian.PutUint32(buf[0:4], uint32(body)|0x80000000)
	binary.BigEndian.PutUint32(buf[4:8], xid)
	binary.BigEndian.PutUint32(buf[8:12], msgType)
	for i := 0; i < dataLen; i++ {
		buf[12+i] = byte(i + 1)
	}
	return buf
}

func newStream() *stream.State {
	reg := stream.NewRegistry()
	key := stream.Key{SrcIP: netip.MustParseAddr("10.0.0.1"), SrcPort: 2049, DstIP: netip.MustParseAddr("10.0.0.2"), DstPort: 900}
	return reg.Get(key, &segment.Segment{SeqNumber: 0})
}

// notTruncated returns a Truncation reporting the capture record was fully
// captured (declared length equals captured length).
func notTruncated() rpcreasm.Truncation { return rpcreasm.Truncation{LengthOrig: 1, LengthInc: 1} }

func TestReassemblePlainRecordFillsSegment(t *testing.T) {
	r := rpcreasm.New(rpcreasm.Options{}, oncrpc.NewCorrelationMap(), nil, nil)
	st := newStream()

	payload := buildRecord(1, oncrpc.MsgCall, 4)
	records, err := r.Reassemble(st, 2049, 900, payload, 0x18, notTruncated(), 0)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Message.Xid != 1 {
		t.Errorf("Xid = %d, want 1", records[0].Message.Xid)
	}
	if st.FragOffset() != 0 || len(st.MsgFrag()) != 0 {
		t.Errorf("stream state not fully drained: fragOff=%d msfrag=%d bytes", st.FragOffset(), len(st.MsgFrag()))
	}
}

func TestReassembleTwoRecordsInOneSegment(t *testing.T) {
	r := rpcreasm.New(rpcreasm.Options{}, oncrpc.NewCorrelationMap(), nil, nil)
	st := newStream()

	a := buildRecord(10, oncrpc.MsgCall, 4)
	b := buildRecord(20, oncrpc.MsgCall, 4)
	payload := append(append([]byte{}, a...), b...)

	records, err := r.Reassemble(st, 2049, 900, payload, 0x18, notTruncated(), 0)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Message.Xid != 10 || records[1].Message.Xid != 20 {
		t.Errorf("xids = %d,%d, want 10,20", records[0].Message.Xid, records[1].Message.Xid)
	}
	if st.FragOffset() != 0 || len(st.MsgFrag()) != 0 {
		t.Errorf("stream state not fully drained after two records")
	}
}

func TestReassembleRecordSplitAcrossSegments(t *testing.T) {
	r := rpcreasm.New(rpcreasm.Options{}, oncrpc.NewCorrelationMap(), nil, nil)
	st := newStream()

	full := buildRecord(42, oncrpc.MsgCall, 12)
	first := full[:18]  // mark + xid/type + 6 of the 12 data bytes
	second := full[18:] // the remaining 6 data bytes, no new mark

	records, err := r.Reassemble(st, 2049, 900, first, 0x18, notTruncated(), 0)
	if err != nil {
		t.Fatalf("Reassemble() first segment error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records after first segment = %d, want 0 (record still incomplete)", len(records))
	}
	if len(st.MsgFrag()) != len(first) {
		t.Errorf("MsgFrag() len = %d, want %d", len(st.MsgFrag()), len(first))
	}

	records, err = r.Reassemble(st, 2049, 900, second, 0x18, notTruncated(), uint64(len(first)))
	if err != nil {
		t.Fatalf("Reassemble() second segment error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records after second segment = %d, want 1", len(records))
	}
	if records[0].Message.Xid != 42 {
		t.Errorf("Xid = %d, want 42", records[0].Message.Xid)
	}
	if st.FragOffset() != 0 || len(st.MsgFrag()) != 0 {
		t.Errorf("stream state not fully drained after reassembly completes")
	}
}

// TestReassembleDirectHitResyncAlignsSecondRecord covers the case where a
// stale msfrag turns out to be a direct hit (the fresh payload itself, not
// the spliced msfrag+payload, decodes as a valid header) and is immediately
// followed by a second record sharing the same segment. The resync-size
// cursor point must be captured before the direct-hit decode consumes the
// record mark and xid/type header, or the offset handed to the second
// record's carry-over skip lands short.
func TestReassembleDirectHitResyncAlignsSecondRecord(t *testing.T) {
	r := rpcreasm.New(rpcreasm.Options{}, oncrpc.NewCorrelationMap(), nil, nil)
	st := newStream()
	st.SetMsgFrag([]byte{0xAA}) // stale fragment from a dropped prior record

	a := buildRecord(100, oncrpc.MsgCall, 4)
	b := buildRecord(200, oncrpc.MsgCall, 4)
	payload := append(append([]byte{}, a...), b...)

	records, err := r.Reassemble(st, 2049, 900, payload, 0x18, notTruncated(), 0)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Message.Xid != 100 || records[1].Message.Xid != 200 {
		t.Errorf("xids = %d,%d, want 100,200", records[0].Message.Xid, records[1].Message.Xid)
	}
	if st.FragOffset() != 0 || len(st.MsgFrag()) != 0 {
		t.Errorf("stream state not fully drained after direct-hit resync")
	}
}

// TestReassembleRegistersCallsAndRemovesOnReply confirms Reassemble itself
// drives the xid correlation map: a call record must register an
// outstanding entry, and the matching reply must clear it.
func TestReassembleRegistersCallsAndRemovesOnReply(t *testing.T) {
	corr := oncrpc.NewCorrelationMap()
	r := rpcreasm.New(rpcreasm.Options{}, corr, nil, nil)
	st := newStream()

	call := buildRecord(7, oncrpc.MsgCall, 4)
	if _, err := r.Reassemble(st, 2049, 900, call, 0x18, notTruncated(), 0); err != nil {
		t.Fatalf("Reassemble() call error = %v", err)
	}
	if corr.Pending() != 1 {
		t.Fatalf("Pending() = %d after one call, want 1", corr.Pending())
	}

	st2 := newStream()
	reply := buildRecord(7, oncrpc.MsgReply, 4)
	if _, err := r.Reassemble(st2, 900, 2049, reply, 0x18, notTruncated(), 0); err != nil {
		t.Fatalf("Reassemble() reply error = %v", err)
	}
	if corr.Pending() != 0 {
		t.Errorf("Pending() = %d after matching reply, want 0", corr.Pending())
	}
}

func TestReassembleDNSPortBypassesRPC(t *testing.T) {
	r := rpcreasm.New(rpcreasm.Options{}, oncrpc.NewCorrelationMap(), nil, nil)
	st := newStream()

	records, err := r.Reassemble(st, 53, 5353, []byte{0, 0, 0, 0}, 0x18, notTruncated(), 0)
	if err != nil {
		t.Fatalf("Reassemble() error = %v", err)
	}
	if records != nil {
		t.Errorf("records = %v, want nil when no DNS decoder is wired", records)
	}
}
