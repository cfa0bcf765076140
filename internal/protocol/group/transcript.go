package group

import "crypto/sha256"

// transcript chain separator inherited from the wire format.
const chainSeparator = ":O3"

// Chain is the per-session transcript hash chain. H_0 is the session id;
// each delivered plaintext extends the chain, keyed by the transport's
// message sequence number.
type Chain struct {
	last SessionID
	byID map[uint32][32]byte
}

// NewChain starts a chain anchored at the session id.
func NewChain(sid SessionID) *Chain {
	return &Chain{last: sid, byID: make(map[uint32][32]byte)}
}

// Last returns the hash every next message must carry.
func (c *Chain) Last() [32]byte { return c.last }

// Extend appends a delivered plaintext and returns the new chain head.
func (c *Chain) Extend(msgID uint32, plaintext []byte) [32]byte {
	h := sha256.New()
	h.Write(c.last[:])
	h.Write([]byte(chainSeparator))
	h.Write(plaintext)
	copy(c.last[:], h.Sum(nil))
	c.byID[msgID] = c.last
	return c.last
}

// Hash returns the chain head recorded after message msgID.
func (c *Chain) Hash(msgID uint32) ([32]byte, bool) {
	h, ok := c.byID[msgID]
	return h, ok
}

// Len reports how many messages the chain has absorbed.
func (c *Chain) Len() int { return len(c.byID) }
