package stream

import "github.com/cyril851122/nfsreassembly/segment"

// Registry maps a 4-tuple Key to its per-direction State.
// It has no eviction in the core design; callers that need to bound memory
// for unbounded captures may wrap it with an LRU policy without affecting
// correctness for bounded captures.
type Registry struct {
	streams map[Key]*State
}

// NewRegistry creates an empty stream registry.
func NewRegistry() *Registry {
	return &Registry{streams: make(map[Key]*State)}
}

// Get returns the State for key, creating one seeded from seg's sequence
// number if this is the first segment observed for that key.
func (r *Registry) Get(key Key, seg *segment.Segment) *State {
	if st, ok := r.streams[key]; ok {
		return st
	}
	st := newState(seg.SeqNumber)
	r.streams[key] = st
	return st
}

// Len returns the number of distinct stream directions currently tracked.
func (r *Registry) Len() int { return len(r.streams) }

// Delete removes a stream's state, e.g. once a FIN/RST has fully closed it.
func (r *Registry) Delete(key Key) { delete(r.streams, key) }
