package websocket

// Design values for header buffer growth. These are
// implementation choices, not wire-format constants: a peer cannot
// observe them directly, only the sentinel text that appears once a
// header overflows headerCeiling.
const (
	headerGrowthStep = 64
	headerCeiling    = 1024
	nameBufferSize   = 64
)

// headerOverflowSentinel replaces a header slot's value once it grows
// past headerCeiling, matching the original parser's bug-for-bug
// overflow text so any client inspecting the value sees the same thing.
const headerOverflowSentinel = "!!! Length exceeded maximum supported !!!"

// headerBuffer is one slot of the connection's handshake token table: an
// owned, growable byte buffer plus whatever bookkeeping the NamePart
// state needs to know it has already been allocated once. A repeated
// header concatenates onto the existing value rather than overwriting
// it.
type headerBuffer struct {
	value    []byte
	overflow bool
}

// seen reports whether this slot has ever been matched before. A nil
// value with overflow false means "never allocated"; append allocates
// lazily on first use so an absent header costs nothing.
func (h *headerBuffer) seen() bool {
	return h.value != nil || h.overflow
}

// append adds b to the slot's value, growing in headerGrowthStep steps.
// Once growth would cross headerCeiling the slot is demoted to the
// overflow sentinel and append becomes a no-op: an oversize header is
// recoverable, not fatal.
func (h *headerBuffer) append(b byte) {
	if h.overflow {
		return
	}
	if len(h.value) >= headerCeiling {
		h.value = []byte(headerOverflowSentinel)
		h.overflow = true
		return
	}
	if len(h.value) == cap(h.value) {
		grown := make([]byte, len(h.value), cap(h.value)+headerGrowthStep)
		copy(grown, h.value)
		h.value = grown
	}
	h.value = append(h.value, b)
}

// reset clears the slot back to its never-allocated state.
func (h *headerBuffer) reset() {
	h.value = nil
	h.overflow = false
}

// String returns the slot's accumulated value, or "" if never seen.
func (h *headerBuffer) String() string {
	if h.value == nil {
		return ""
	}
	return string(h.value)
}

// nameBuffer is the fixed-size scratch the NamePart state uses to
// accumulate a header name before it is matched against tokenTable. It
// never grows past nameBufferSize: once full, the caller transitions to
// Skipping instead of appending further.
type nameBuffer struct {
	buf [nameBufferSize]byte
	n   int
}

// full reports whether the scratch buffer has no room for another byte.
func (nb *nameBuffer) full() bool {
	return nb.n >= nameBufferSize
}

// append adds b to the scratch buffer. The caller must check full()
// first; append silently drops the byte when already full so a stray
// call never corrupts adjacent state.
func (nb *nameBuffer) append(b byte) {
	if nb.full() {
		return
	}
	nb.buf[nb.n] = b
	nb.n++
}

// bytes returns the scratch buffer's current contents.
func (nb *nameBuffer) bytes() []byte {
	return nb.buf[:nb.n]
}

// reset clears the scratch buffer for the next header name.
func (nb *nameBuffer) reset() {
	nb.n = 0
}
