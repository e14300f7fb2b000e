package portdecode_test

import (
	"testing"

	"github.com/miekg/dns"

	"github.com/cyril851122/nfsreassembly/portdecode"
)

func TestDNSDecodeValidQuery(t *testing.T) {
	msg := new(dns.Msg)
	msg.SetQuestion("example.com.", dns.TypeA)
	raw, err := msg.Pack()
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}

	d := portdecode.NewDNSDecoder(nil)
	if err := d.Decode(raw); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
}

func TestDNSDecodeMalformedPayloadErrors(t *testing.T) {
	d := portdecode.NewDNSDecoder(nil)
	if err := d.Decode([]byte{0xFF, 0xFF, 0xFF}); err == nil {
		t.Errorf("Decode() error = nil, want an error for garbage input")
	}
}

func TestDNSDecodeEmptyPayloadIsNoop(t *testing.T) {
	d := portdecode.NewDNSDecoder(nil)
	if err := d.Decode(nil); err != nil {
		t.Errorf("Decode(nil) error = %v, want nil", err)
	}
}
