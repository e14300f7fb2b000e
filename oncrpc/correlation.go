package oncrpc

import "sync"

// CorrelationMap is the request/response correlation table: a reply's xid
// is looked up against the outstanding call it answers. It is owned by the
// decode session, not by any single stream, since calls and replies on the
// same RPC connection can travel in either TCP direction.
type CorrelationMap struct {
	mu    sync.Mutex
	calls map[uint32]Message
}

// NewCorrelationMap creates an empty xid correlation table.
func NewCorrelationMap() *CorrelationMap {
	return &CorrelationMap{calls: make(map[uint32]Message)}
}

// AddCall records an outstanding call, keyed by its xid.
func (c *CorrelationMap) AddCall(m Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[m.Xid] = m
}

// RemoveReply removes the call entry for xid, once a reply carrying that
// xid has been attached. It is a no-op if no call is outstanding for it.
func (c *CorrelationMap) RemoveReply(xid uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.calls, xid)
}

// Pending reports how many calls are awaiting a reply.
func (c *CorrelationMap) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}
