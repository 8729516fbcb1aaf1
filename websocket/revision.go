package websocket

import "fmt"

// Revision identifies the WebSocket draft in force on a connection.
//
// The wire format changed incompatibly several times between the first
// Hixie drafts and the final RFC 6455 text; Revision is the single value
// that both state machines branch on to pick the right framing rules.
type Revision int

// Recognized revisions.
const (
	RevisionHixie76 Revision = 0
	Revision4       Revision = 4
	Revision5       Revision = 5
	Revision6       Revision = 6
	Revision7       Revision = 7
	Revision8       Revision = 8
	Revision13      Revision = 13 // RFC 6455
)

// Valid reports whether r is one of the seven recognized revisions. Any
// other value on the wire must be refused before the first frame byte is
// consumed.
func (r Revision) Valid() bool {
	switch r {
	case RevisionHixie76, Revision4, Revision5, Revision6, Revision7, Revision8, Revision13:
		return true
	default:
		return false
	}
}

// Legacy reports whether r predates the RFC 6455 frame header layout
// (drafts 4 through 6 use a 4-byte nonce prelude and possibly a rolling
// SHA1 mask instead of the v7+ HdrByte1/HdrByte2 layout).
func (r Revision) Legacy() bool {
	return r >= Revision4 && r <= Revision6
}

// Hixie reports whether r is the original 0xff/0x00-delimited framing
// with no length prefix and no masking at all.
func (r Revision) Hixie() bool {
	return r == RevisionHixie76
}

func (r Revision) String() string {
	switch r {
	case RevisionHixie76:
		return "hixie-76"
	default:
		return fmt.Sprintf("draft-%02d", int(r))
	}
}

// Phase is the connection's position in the handshake-then-frames
// lifecycle.
type Phase int

const (
	// PhaseHandshakeParsing is the only phase in which Pump routes bytes
	// to FeedHandshakeByte; the frame state machine has never executed.
	PhaseHandshakeParsing Phase = iota
	// PhaseEstablished accepts and emits frames normally.
	PhaseEstablished
	// PhaseAwaitingCloseAck means we have sent our own CLOSE and are
	// waiting for the peer's CLOSE echo.
	PhaseAwaitingCloseAck
	// PhaseReturnedCloseAlready means we already echoed the peer's
	// CLOSE (or the state was released); FeedFrameByte refuses any
	// further bytes with ErrClosed.
	PhaseReturnedCloseAlready
)

func (p Phase) String() string {
	switch p {
	case PhaseHandshakeParsing:
		return "handshake-parsing"
	case PhaseEstablished:
		return "established"
	case PhaseAwaitingCloseAck:
		return "awaiting-close-ack"
	case PhaseReturnedCloseAlready:
		return "returned-close-already"
	default:
		return "unknown"
	}
}
