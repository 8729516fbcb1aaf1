package websocket

import (
	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// maxUserRXBuffer is the default payload accumulator ceiling. Crossing
// it mid-frame triggers an early spill; the SM keeps accumulating for
// the remainder of the frame afterward.
const maxUserRXBuffer = 4096

// Config holds the tunables a caller can override when constructing a
// ConnState. Zero-valued fields fall back to the package defaults;
// internal/engineconfig loads a populated Config from YAML for an
// embedder that wants file-based tuning.
type Config struct {
	// MaxUserRXBuffer overrides maxUserRXBuffer. Zero means default.
	MaxUserRXBuffer int
	// DefeatClientMask leaves payload bytes unmasked. On revisions 4-6
	// the per-frame keystream is still derived and still applied to the
	// header bytes. Test-only: a real peer always masks its frames.
	DefeatClientMask bool
	Logger           Logger
}

// ConnState is the connection state record: the single mutable record
// both state machines read and write for one live peer. It is owned
// exclusively by whichever goroutine is currently servicing the
// connection's transport events; PingsOutstanding, Phase and Closed are
// additionally readable from a metrics goroutine via go.uber.org/atomic,
// since external observation is not covered by the single-writer
// guarantee.
type ConnState struct {
	ID uuid.UUID

	revision Revision
	phase    atomic.Int32 // Phase, stored as int32

	// Handshake parser state.
	handshake       [tokenCount]headerBuffer
	parserState     handshakeState
	nameBuf         nameBuffer
	clientSide      bool
	methodSeen      bool
	networkFiltered bool

	// Frame RX state machine state.
	rx                rxState
	legacyConnMaskKey [20]byte
	rxPayload         []byte
	maxUserRXBuffer   int

	// Packet pump spill state.
	rxflowBuffer []byte
	rxflowPos    int

	pingsOutstanding atomic.Int32
	closed           atomic.Bool

	defeatClientMask bool

	hooks      connHooks
	extensions []ExtensionHook
	logger     Logger
	flood      *FloodGuard
}

// SetFloodGuard installs a rate limiter on outbound control-frame
// replies (PONG, CLOSE echo). Pass nil to remove it.
func (c *ConnState) SetFloodGuard(g *FloodGuard) {
	c.flood = g
}

// connHooks bundles the collaborator interfaces a ConnState dispatches
// to. Kept as a small unexported struct (rather than four constructor
// parameters) so NewConn's signature stays stable as hook families grow.
type connHooks struct {
	writer    OutboundWriter
	transport TransportHooks
	data      DataHooks
	poll      PollHooks
}

// Hooks groups the collaborators a caller supplies to NewConn. Any nil
// field falls back to NopHooks (or discardWriter, for Writer) for that
// family.
type Hooks struct {
	Writer    OutboundWriter
	Transport TransportHooks
	Data      DataHooks
	Poll      PollHooks
}

// NewConn constructs a Connection State Record for a freshly accepted
// peer. The connection starts in PhaseHandshakeParsing; revision is not
// yet known and is set by the handshake parser once negotiated.
func NewConn(clientSide bool, hooks Hooks, cfg Config) *ConnState {
	if cfg.MaxUserRXBuffer == 0 {
		cfg.MaxUserRXBuffer = maxUserRXBuffer
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	c := &ConnState{
		ID:               uuid.New(),
		clientSide:       clientSide,
		maxUserRXBuffer:  cfg.MaxUserRXBuffer,
		rxPayload:        make([]byte, 0, cfg.MaxUserRXBuffer),
		defeatClientMask: cfg.DefeatClientMask,
		logger:           logger,
	}
	c.phase.Store(int32(PhaseHandshakeParsing))
	c.hooks = connHooks{
		writer:    orDefaultWriter(hooks.Writer),
		transport: orDefaultTransport(hooks.Transport),
		data:      orDefaultData(hooks.Data),
		poll:      orDefaultPoll(hooks.Poll),
	}
	return c
}

func orDefaultWriter(w OutboundWriter) OutboundWriter {
	if w != nil {
		return w
	}
	return discardWriter{}
}

func orDefaultTransport(h TransportHooks) TransportHooks {
	if h != nil {
		return h
	}
	return NopHooks{}
}

func orDefaultData(h DataHooks) DataHooks {
	if h != nil {
		return h
	}
	return NopHooks{}
}

func orDefaultPoll(h PollHooks) PollHooks {
	if h != nil {
		return h
	}
	return NopHooks{}
}

// discardWriter is the default OutboundWriter: it drops every frame.
// Wiring a real transport is an embedder's job (interop_test.go shows
// one); a core under test with no transport must still be able to run
// the handshake/frame SMs without a nil-pointer panic.
type discardWriter struct{}

func (discardWriter) Write(*ConnState, []byte, FrameKind) error { return nil }

// Phase returns the connection's current lifecycle phase.
func (c *ConnState) Phase() Phase {
	return Phase(c.phase.Load())
}

// Revision returns the negotiated protocol draft, valid once the
// handshake parser reaches Complete.
func (c *ConnState) Revision() Revision {
	return c.revision
}

// PingsOutstanding returns the number of PINGs sent by this side that
// have not yet been answered by a PONG.
func (c *ConnState) PingsOutstanding() int32 {
	return c.pingsOutstanding.Load()
}

// Closed reports whether the connection has reached a terminal phase.
func (c *ConnState) Closed() bool {
	return c.closed.Load()
}

// HandshakeValue returns the accumulated value for a given token name
// (e.g. "Host:", "Sec-WebSocket-Protocol:"), or "" if that header was
// never seen.
func (c *ConnState) HandshakeValue(name string) string {
	id, ok := matchToken([]byte(name))
	if !ok {
		return ""
	}
	return c.handshake[canonicalToken(id)].String()
}

// writeFrame is the single call site the frame/handshake state machines
// use to reach the outbound writer, kept as a method so call sites never
// touch c.hooks.writer directly. The writer must not re-enter Pump — a
// contract on the embedder that this method can't enforce, but
// centralizing the call makes auditing it tractable.
func (c *ConnState) writeFrame(payload []byte, kind FrameKind) error {
	return c.hooks.writer.Write(c, payload, kind)
}

// InitiateClose sends our own CLOSE frame and moves the connection into
// PhaseAwaitingCloseAck, so that the peer's echoed CLOSE is recognized
// as the end of the handshake instead of being echoed back again (see
// spillFrame's opcodeClose case in frame.go). Only valid from
// PhaseEstablished; calling it again, or after the peer has already
// closed, returns ErrClosed.
//
// Revision 0 (Hixie-76) has no status-code framing at all: code and
// reason are ignored and the bare 0xff/0x00 close sequence is sent
// instead (RFC 6455 postdates Hixie-76, which predates status codes).
func (c *ConnState) InitiateClose(code CloseCode, reason string) error {
	if c.Phase() != PhaseEstablished {
		return ErrClosed
	}

	if c.revision.Hixie() {
		if err := c.writeFrame([]byte{0xff, 0x00}, FrameClose); err != nil {
			return err
		}
		c.phase.Store(int32(PhaseAwaitingCloseAck))
		return nil
	}

	var payload []byte
	if code != 0 {
		payload = make([]byte, 2, 2+len(reason))
		payload[0] = byte(code >> 8)
		payload[1] = byte(code)
		payload = append(payload, reason...)
	}
	if err := c.writeFrame(payload, FrameClose); err != nil {
		return err
	}
	c.phase.Store(int32(PhaseAwaitingCloseAck))
	return nil
}

// Release tears down a ConnState, dropping every owned buffer. Safe to
// call multiple times.
func (c *ConnState) Release() error {
	for i := range c.handshake {
		c.handshake[i].reset()
	}
	c.rxPayload = nil
	c.rxflowBuffer = nil
	c.closed.Store(true)
	c.phase.Store(int32(PhaseReturnedCloseAlready))
	return nil
}
