// Package metrics defines prometheus metric types for the decode pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SegmentsDecoded counts TCP segments successfully parsed.
	// Provides metric:
	//    rpcreasm_segments_decoded_total
	SegmentsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcreasm_segments_decoded_total",
		Help: "The total number of TCP segments successfully parsed.",
	})

	// SegmentErrors counts segment decode failures, broken down by kind
	// (ShortHeader, MalformedOption, ...).
	// Example usage:
	//    metrics.SegmentErrors.WithLabelValues("ShortHeader").Inc()
	SegmentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpcreasm_segment_errors_total",
		Help: "The total number of segment decode errors, by kind.",
	}, []string{"kind"})

	// RetransmitsDropped counts segments classified as retransmissions
	// and excluded from reassembly.
	RetransmitsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcreasm_retransmits_dropped_total",
		Help: "The total number of segments dropped as retransmissions.",
	})

	// Resyncs counts loss-driven resets of in-progress RPC accumulation,
	// plus segments whose trailing bytes did not hold a whole next record
	// and were carried over into msfrag.
	Resyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcreasm_resyncs_total",
		Help: "The total number of loss-driven msfrag/frag_off resets and trailing partial records carried into msfrag.",
	})

	// RPCRecordsEmitted counts complete RPC records handed to the upper
	// layer.
	RPCRecordsEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rpcreasm_rpc_records_emitted_total",
		Help: "The total number of complete RPC records emitted.",
	})

	// ActiveStreams reports the current size of the stream registry.
	ActiveStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rpcreasm_active_streams",
		Help: "The current number of tracked stream directions.",
	})
)
