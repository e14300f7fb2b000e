// Package rpcreasm aligns TCP segment payloads to RPC record boundaries.
// One TCP segment may carry several complete RPC records back to back, or
// a single RPC record may straddle several segments; this package resolves
// both directions using the per-stream accumulation state in the stream
// package.
package rpcreasm

import (
	"github.com/cyril851122/nfsreassembly/cursor"
	"github.com/cyril851122/nfsreassembly/metrics"
	"github.com/cyril851122/nfsreassembly/oncrpc"
	"github.com/cyril851122/nfsreassembly/stream"
)

// ackOnlyRaw is the raw flag value for a pure ACK segment (ACK bit only).
const ackOnlyRaw = 0x10

// PortDecoder is implemented by the port-specific decoders that pre-empt
// RPC reassembly entirely: DNS on port 53, Kerberos v5 on port 88.
type PortDecoder interface {
	Decode(payload []byte) error
}

// Record is one complete RPC message extracted from a stream, with its
// decoded NFS payload attached.
type Record struct {
	Message *oncrpc.Message
	Payload *oncrpc.NFSObject
}

// Reassembler holds the configuration and shared collaborators used across
// every stream in a decode session: the xid correlation table and the
// optional DNS/Kerberos dispatchers.
type Reassembler struct {
	opts Options
	corr *oncrpc.CorrelationMap
	dns  PortDecoder
	krb5 PortDecoder
}

// New creates a Reassembler. dns and krb5 may be nil, in which case traffic
// on those ports is simply dropped rather than dispatched.
func New(opts Options, corr *oncrpc.CorrelationMap, dns, krb5 PortDecoder) *Reassembler {
	return &Reassembler{opts: opts, corr: corr, dns: dns, krb5: krb5}
}

// Reassemble consumes one segment's payload against st and returns every
// complete RPC record it yields, which may be zero, one, or several when
// more than one record shares this segment. seqDelta is seq-last_seq as of
// just before this segment's sequence was folded into st (the caller must
// capture st.LastSeq() before calling Normalize, since Normalize advances
// last_seq in place) and feeds only the strict valid-data guard.
func (r *Reassembler) Reassemble(st *stream.State, srcPort, dstPort uint16, payload []byte, rawFlags uint16, trunc Truncation, seqDelta uint64) ([]Record, error) {
	if srcPort == 53 || dstPort == 53 {
		if r.dns != nil {
			// DNS over TCP prefixes each message with a two-byte length;
			// DNSDecoder expects it removed.
			if len(payload) >= 2 {
				payload = payload[2:]
			}
			return nil, r.dns.Decode(payload)
		}
		return nil, nil
	}
	if srcPort == 88 || dstPort == 88 {
		if r.krb5 != nil {
			return nil, r.krb5.Decode(payload)
		}
		return nil, nil
	}

	var records []Record
	for {
		rec, again, err := r.pass(st, payload, rawFlags, trunc, seqDelta)
		if err != nil {
			return records, err
		}
		if rec != nil {
			records = append(records, *rec)
		}
		if !again {
			return records, nil
		}
	}
}

// pass runs one iteration of the normal path over payload, emitting at most
// one Record. again reports whether another record may start later in the
// same payload and pass should be called once more.
func (r *Reassembler) pass(st *stream.State, payload []byte, rawFlags uint16, trunc Truncation, seqDelta uint64) (*Record, bool, error) {
	c := cursor.New(payload)

	// Carry-over positioning: a prior pass over this same payload located
	// the start of another record; skip straight to it.
	if st.FragOffset() > 0 && len(st.MsgFrag()) == 0 {
		if _, err := c.Read(st.FragOffset()); err != nil {
			st.SetFragOffset(0)
		}
	}

	priorMsfrag := append([]byte(nil), st.MsgFrag()...)

	restore := c.Save()
	startSize := c.Size()

	var msg *oncrpc.Message
	var ldata int
	directHit := false

	if len(priorMsfrag) > 0 {
		dec := oncrpc.NewDecoder(6, true)
		m, l, err := dec.Decode(c)
		if err == nil {
			msg, ldata, directHit = m, l, true
			st.ResetFragmentation()
		} else {
			c.Restore(restore)
		}
	}

	if r.opts.StrictValidData && !directHit && isFiller(payload, priorMsfrag, seqDelta) {
		return nil, false, nil
	}

	lossReset := len(payload) == 0 && len(priorMsfrag) > 0 && rawFlags != ackOnlyRaw
	if directHit || lossReset {
		st.ResetFragmentation()
	}
	if lossReset {
		metrics.Resyncs.Inc()
	}

	var pending []byte
	resyncSize := startSize
	if !directHit {
		pending = st.MsgFrag()
		restore = c.Save()
		c.Insert(pending)
		dec := oncrpc.NewDecoder(6, true)
		m, l, err := dec.Decode(c)
		if err != nil {
			return nil, false, nil
		}
		msg, ldata = m, l
	}

	rpcsize := int(msg.FragHdr.Size)

	if !trunc.Present() && ldata < rpcsize {
		c.Restore(restore)
		newFrag := append([]byte(nil), pending...)
		newFrag = append(newFrag, c.GetBytes()...)
		st.SetMsgFrag(newFrag)
		return nil, false, nil
	}

	if len(st.MsgFrag()) > 0 || ldata == rpcsize {
		st.SetFragOffset(0)
	}
	st.SetMsgFrag(nil)

	if r.corr != nil {
		if msg.IsReply() {
			r.corr.RemoveReply(msg.Xid)
		} else {
			r.corr.AddCall(*msg)
		}
	}

	payloadObj, _ := msg.DecodePayload(c)

	rec := &Record{Message: msg, Payload: payloadObj}

	remaining := c.Size()
	consumed := resyncSize - remaining
	if remaining == 0 {
		st.SetFragOffset(0)
		return rec, false, nil
	}

	newFragOff := st.FragOffset() + consumed
	probeRestore := c.Save()
	probe := oncrpc.NewDecoder(6, false)
	nextMsg, nextLdata, err := probe.Decode(c)
	c.Restore(probeRestore)

	if err != nil || int(nextMsg.FragHdr.Size) > nextLdata {
		metrics.Resyncs.Inc()
		st.SetFragOffset(0)
		st.SetMsgFrag(append([]byte{}, c.GetBytes()...))
		return rec, false, nil
	}

	st.SetFragOffset(newFragOff)
	return rec, true, nil
}

// isFiller approximates the strict valid-data guard: a short, all-zero
// payload that doesn't account for the bytes still needed to complete an
// in-progress msfrag is treated as capture padding rather than real data.
func isFiller(payload, msfrag []byte, seqDelta uint64) bool {
	if len(payload) == 0 || len(payload) > 20 || len(msfrag) == 0 {
		return false
	}
	for _, b := range payload {
		if b != 0 {
			return false
		}
	}
	expected := expectedRemainder(msfrag)
	if expected < 0 {
		return false
	}
	return uint64(expected) != seqDelta
}

// expectedRemainder reports how many more bytes would complete the RPC
// record whose partial header is held in msfrag, or -1 if msfrag doesn't
// yet carry a decodable record mark and xid/type header.
func expectedRemainder(msfrag []byte) int {
	if len(msfrag) < 4 {
		return -1
	}
	c := cursor.New(msfrag)
	dec := oncrpc.NewDecoder(6, false)
	msg, ldata, err := dec.Decode(c)
	if err != nil {
		return -1
	}
	return int(msg.FragHdr.Size) - ldata
}
