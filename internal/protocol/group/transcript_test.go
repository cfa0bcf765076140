package group

import "testing"

func TestChainRecomputation(t *testing.T) {
	var sid SessionID
	copy(sid[:], "anchor")

	left := NewChain(sid)
	right := NewChain(sid)
	lines := []string{"first", "second", "third"}
	for i, line := range lines {
		left.Extend(uint32(i+1), []byte(line))
		right.Extend(uint32(i+1), []byte(line))
	}
	if left.Last() != right.Last() {
		t.Fatalf("same inputs produced different chain heads")
	}
	if left.Len() != len(lines) {
		t.Fatalf("chain absorbed %d messages, want %d", left.Len(), len(lines))
	}
}

func TestChainDiverges(t *testing.T) {
	var sid SessionID
	copy(sid[:], "anchor")

	left := NewChain(sid)
	right := NewChain(sid)
	left.Extend(1, []byte("hello"))
	right.Extend(1, []byte("hullo"))
	if left.Last() == right.Last() {
		t.Fatalf("different plaintexts produced the same chain head")
	}
}

func TestChainHashByMessageID(t *testing.T) {
	var sid SessionID
	c := NewChain(sid)

	head := c.Extend(7, []byte("only"))
	got, ok := c.Hash(7)
	if !ok || got != head {
		t.Fatalf("recorded hash not found for message 7")
	}
	if _, ok := c.Hash(8); ok {
		t.Fatalf("hash reported for message never absorbed")
	}
	if c.Last() != head {
		t.Fatalf("chain head moved without an extend")
	}
}
