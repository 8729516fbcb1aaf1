package websocket

import "testing"

func TestHeaderBuffer_SeenAndReset(t *testing.T) {
	var h headerBuffer
	if h.seen() {
		t.Fatal("fresh headerBuffer should not be seen")
	}
	h.append('x')
	if !h.seen() {
		t.Fatal("headerBuffer with a byte should be seen")
	}
	h.reset()
	if h.seen() || h.String() != "" {
		t.Fatal("reset headerBuffer should be equivalent to fresh")
	}
}

func TestHeaderBuffer_OverflowsToSentinel(t *testing.T) {
	var h headerBuffer
	for i := 0; i < headerCeiling+10; i++ {
		h.append('a')
	}
	if !h.overflow {
		t.Fatal("expected overflow after exceeding headerCeiling")
	}
	if h.String() != headerOverflowSentinel {
		t.Fatalf("got %q, want sentinel", h.String())
	}

	// Further appends must be no-ops once overflowed.
	h.append('b')
	if h.String() != headerOverflowSentinel {
		t.Fatal("append after overflow must not change the slot")
	}
}

func TestNameBuffer_FullStopsAccepting(t *testing.T) {
	var nb nameBuffer
	for i := 0; i < nameBufferSize; i++ {
		if nb.full() {
			t.Fatalf("nameBuffer reported full early at i=%d", i)
		}
		nb.append(byte('a' + i%26))
	}
	if !nb.full() {
		t.Fatal("nameBuffer should be full after nameBufferSize appends")
	}
	nb.append('z') // must be a silent no-op
	if len(nb.bytes()) != nameBufferSize {
		t.Fatalf("got length %d, want %d", len(nb.bytes()), nameBufferSize)
	}
}

func TestNameBuffer_Reset(t *testing.T) {
	var nb nameBuffer
	nb.append('a')
	nb.append('b')
	nb.reset()
	if len(nb.bytes()) != 0 {
		t.Fatalf("got length %d after reset, want 0", len(nb.bytes()))
	}
}
