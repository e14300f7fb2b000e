package portdecode

import (
	"fmt"

	"github.com/jcmturner/gokrb5/v8/messages"

	"github.com/cyril851122/nfsreassembly/sessionlog"
)

// Kerberos application tag numbers (RFC 4120 §5), used to tell message
// variants apart before choosing which concrete type to unmarshal into.
const (
	tagASReq    = 10
	tagASRep    = 11
	tagTGSReq   = 12
	tagTGSRep   = 13
	tagAPReq    = 14
	tagAPRep    = 15
	tagKRBError = 30
)

// KerberosDecoder unmarshals Kerberos v5 messages carried on port 88.
type KerberosDecoder struct {
	log *sessionlog.Logger
}

// NewKerberosDecoder creates a Kerberos payload decoder. log may be nil.
func NewKerberosDecoder(log *sessionlog.Logger) *KerberosDecoder {
	return &KerberosDecoder{log: log}
}

// Decode identifies the Kerberos message variant from its ASN.1 application
// tag and unmarshals it. Only the message kind is reported; full ticket and
// authenticator decryption is out of scope.
func (k *KerberosDecoder) Decode(payload []byte) error {
	if len(payload) < 2 {
		return nil
	}
	tag := applicationTag(payload[0])
	name, err := k.unmarshalByTag(tag, payload)
	if err != nil {
		return fmt.Errorf("portdecode: kerberos unmarshal: %w", err)
	}
	if k.log != nil {
		k.log.Sparse("krb5", "msg=%s len=%d", name, len(payload))
	}
	return nil
}

// applicationTag extracts the low-order tag number from a DER application
// tag octet (class=APPLICATION, constructed), e.g. 0x6a -> 10.
func applicationTag(b byte) int {
	return int(b & 0x1f)
}

func (k *KerberosDecoder) unmarshalByTag(tag int, payload []byte) (string, error) {
	switch tag {
	case tagASReq:
		var m messages.ASReq
		return "AS-REQ", m.Unmarshal(payload)
	case tagASRep:
		var m messages.ASRep
		return "AS-REP", m.Unmarshal(payload)
	case tagTGSReq:
		var m messages.TGSReq
		return "TGS-REQ", m.Unmarshal(payload)
	case tagTGSRep:
		var m messages.TGSRep
		return "TGS-REP", m.Unmarshal(payload)
	case tagAPReq:
		var m messages.APReq
		return "AP-REQ", m.Unmarshal(payload)
	case tagAPRep:
		var m messages.APRep
		return "AP-REP", m.Unmarshal(payload)
	case tagKRBError:
		var m messages.KRBError
		return "KRB-ERROR", m.Unmarshal(payload)
	default:
		return "unknown", fmt.Errorf("unrecognized application tag %d", tag)
	}
}
