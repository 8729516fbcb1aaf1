package websocket

// FrameKind identifies what an OutboundWriter is being asked to send.
type FrameKind int

const (
	FrameHTTP FrameKind = iota
	FrameText
	FrameBinary
	FrameClose
	FramePing
	FramePong
)

func (k FrameKind) String() string {
	switch k {
	case FrameHTTP:
		return "http"
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	case FramePing:
		return "ping"
	case FramePong:
		return "pong"
	default:
		return "unknown"
	}
}

// OutboundWriter is the core's only way to put bytes on the wire. It is
// consumed, never implemented, by this package: an embedder supplies a
// writer bound to its own transport. Implementations must return an
// error on any fatal transport failure, and must not call back into
// Pump — the frame state machine invokes Write synchronously from
// inside its own spill handling.
//
// bytes is the bare payload: the core reserves no PrePadding or
// PostPadding around it when it calls Write, so a writer that adds wire
// framing copies the payload into its own buffer.
type OutboundWriter interface {
	Write(conn *ConnState, bytes []byte, kind FrameKind) error
}

// BufferLayout describes the padding an OutboundWriter's caller must
// reserve around a payload buffer. v13-only framing needs 4 bytes on
// each side; legacy revisions that prepend a mask nonce or SHA1 key
// need more, hence this is a value, not a constant, so a caller can
// size per-connection.
type BufferLayout struct {
	PrePadding  int
	PostPadding int
}

// bufferLayoutFor returns the padding an embedder should reserve for
// frames written on the given revision.
func bufferLayoutFor(rev Revision) BufferLayout {
	if rev.Legacy() {
		return BufferLayout{PrePadding: 24, PostPadding: 4}
	}
	return BufferLayout{PrePadding: 4, PostPadding: 4}
}

// TransportHooks covers connection-lifecycle callback reasons that do
// not carry payload bytes: Established, FilterNetworkConnection,
// FilterProtocolConnection. Splitting what could have been a single
// polymorphic callback dispatching on a reason enum into one small
// interface per family means an embedder only implements what it
// actually uses; every method has a documented default behavior via the
// embed-and-override pattern in NopHooks.
type TransportHooks interface {
	// Established fires once per successful handshake, before any
	// frame bytes are fed. Returning an error terminates the connection.
	Established(conn *ConnState) error
	// FilterNetworkConnection fires before the handshake parser sees
	// its first byte; returning an error refuses the connection outright.
	FilterNetworkConnection(conn *ConnState) error
	// FilterProtocolConnection fires once the requested subprotocol is
	// known; returning an error refuses the connection.
	FilterProtocolConnection(conn *ConnState, subprotocol string) error
}

// DataHooks delivers frame payloads to the embedder. Receive carries a
// complete spill — either a full frame's payload or a ceiling-bounded
// chunk of one still in progress; final reports which.
type DataHooks interface {
	Receive(conn *ConnState, payload []byte, final bool) error
}

// PollHooks lets an embedder maintain its own readiness bookkeeping
// (e.g. an external poll(2)/epoll fd set) without the core knowing
// anything about it: four explicit methods rather than one callback
// dispatching on an enum.
type PollHooks interface {
	AddPollFd(conn *ConnState) error
	DelPollFd(conn *ConnState) error
	SetModePollFd(conn *ConnState, writable bool) error
	ClearModePollFd(conn *ConnState, writable bool) error
}

// NopHooks implements TransportHooks, DataHooks and PollHooks as no-ops
// returning nil. Embedders compose it by value and override only the
// methods they actually need, rather than being forced to implement
// every method on every interface.
type NopHooks struct{}

func (NopHooks) Established(*ConnState) error                         { return nil }
func (NopHooks) FilterNetworkConnection(*ConnState) error              { return nil }
func (NopHooks) FilterProtocolConnection(*ConnState, string) error     { return nil }
func (NopHooks) Receive(*ConnState, []byte, bool) error                { return nil }
func (NopHooks) AddPollFd(*ConnState) error                            { return nil }
func (NopHooks) DelPollFd(*ConnState) error                            { return nil }
func (NopHooks) SetModePollFd(*ConnState, bool) error                  { return nil }
func (NopHooks) ClearModePollFd(*ConnState, bool) error                { return nil }

// ExtensionReason enumerates why the frame state machine is invoking an
// extension's hook.
type ExtensionReason int

const (
	ExtensionPayloadRx ExtensionReason = iota
	ExtensionExtendedPayloadRx
)

// ExtensionHook is implemented by a negotiated extension plugin. A
// negative-equivalent (error) return is fatal for the connection; a
// true "handled" return for ExtensionExtendedPayloadRx tells the core
// not to log-and-drop the frame itself. The extension's own wire
// behavior is out of scope here — only this hook surface is specified.
type ExtensionHook interface {
	HandleFrame(conn *ConnState, reason ExtensionReason, payload []byte) (handled bool, err error)
}
