// Package portdecode dispatches payload bytes to the port-specific decoders
// that pre-empt RPC reassembly: DNS on port 53 and Kerberos v5 on port 88.
package portdecode

import (
	"fmt"

	"github.com/miekg/dns"

	"github.com/cyril851122/nfsreassembly/sessionlog"
)

// DNSDecoder unpacks DNS messages carried over TCP (length-prefixed per
// RFC 1035 §4.2.2, stripped by the caller before Decode is invoked).
type DNSDecoder struct {
	log *sessionlog.Logger
}

// NewDNSDecoder creates a DNS payload decoder. log may be nil.
func NewDNSDecoder(log *sessionlog.Logger) *DNSDecoder {
	return &DNSDecoder{log: log}
}

// Decode unpacks payload as a DNS message and logs a one-line summary.
func (d *DNSDecoder) Decode(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	msg := new(dns.Msg)
	if err := msg.Unpack(payload); err != nil {
		return fmt.Errorf("portdecode: dns unpack: %w", err)
	}
	if d.log != nil {
		qname := "?"
		if len(msg.Question) > 0 {
			qname = msg.Question[0].Name
		}
		d.log.Sparse("dns", "id=%d qr=%v qname=%s ancount=%d", msg.Id, msg.Response, qname, len(msg.Answer))
	}
	return nil
}
