// pcapreplay provides a simple CLI to decode a pcap file end to end and
// print a per-stream summary.
package main

// example:
// go build -o pcapreplay ./cmd/pcapreplay
// ./pcapreplay -filename testdata/nfs-capture.pcap
import (
	"flag"
	"fmt"
	"time"

	"github.com/cyril851122/nfsreassembly/capture"
	"github.com/cyril851122/nfsreassembly/oncrpc"
	"github.com/cyril851122/nfsreassembly/portdecode"
	"github.com/cyril851122/nfsreassembly/rpcreasm"
	"github.com/cyril851122/nfsreassembly/sessionlog"
)

var (
	filename = flag.String("filename", "", "Pcap filename.")
	strict   = flag.Bool("strict-valid-data", false, "Enable the strict valid-data guard.")
)

type streamTotals struct {
	segments int
	rpcs     int
}

func main() {
	flag.Parse()
	if *filename == "" {
		fmt.Println("usage: pcapreplay -filename <path>")
		return
	}

	log := sessionlog.New(2 * time.Second)
	corr := oncrpc.NewCorrelationMap()
	reasm := rpcreasm.New(
		rpcreasm.Options{StrictValidData: *strict},
		corr,
		portdecode.NewDNSDecoder(log),
		portdecode.NewKerberosDecoder(log),
	)

	session := capture.NewSession(reasm)
	packets, err := session.ReplayFile(*filename)
	if err != nil {
		panic(err)
	}

	totals := make(map[string]*streamTotals)
	for _, p := range packets {
		key := p.Key.SrcIP.String() + ":" + fmt.Sprint(p.Key.SrcPort) + " -> " +
			p.Key.DstIP.String() + ":" + fmt.Sprint(p.Key.DstPort)
		t, ok := totals[key]
		if !ok {
			t = &streamTotals{}
			totals[key] = t
		}
		t.segments++
		t.rpcs += len(p.RPC)
	}

	fmt.Printf("%d packets, %d streams\n", len(packets), session.Registry().Len())
	for key, t := range totals {
		fmt.Printf("%s: %d segments, %d rpc records\n", key, t.segments, t.rpcs)
	}
}
