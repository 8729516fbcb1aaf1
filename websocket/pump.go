package websocket

// PumpResult is pump's return value: consumed, flow-controlled, or
// fatal.
type PumpResult int

const (
	// PumpOK means every fed byte was consumed.
	PumpOK PumpResult = iota
	// PumpFlowControlled means the consumer was not ready at some
	// point; the remaining bytes were captured into the connection's
	// spill buffer and must be drained later with a nil Pump call.
	PumpFlowControlled
	// PumpFatal means the frame or handshake state machine returned a
	// terminal status; the connection must be torn down.
	PumpFatal
)

// Readiness reports whether the downstream consumer (whatever an
// embedder's Receive hook eventually hands payload to) currently has
// room to accept more data. Rather than exposing a raw pollfd bitmask,
// the core asks a collaborator one question per byte.
type Readiness interface {
	IsReadable(conn *ConnState) bool
}

// AlwaysReady implements Readiness by never asserting back-pressure.
// Using it is equivalent to disabling the spill-buffer path entirely;
// most in-process test setups want this.
type AlwaysReady struct{}

func (AlwaysReady) IsReadable(*ConnState) bool { return true }

// Pump feeds bytes into the handshake parser or frame state machine
// (depending on conn.Phase) one byte at a time, checking ready before
// each byte.
//
// Passing bytes != nil while conn already holds a captured spill buffer
// is a programmer error: a new read arrived while a prior one was still
// flow-controlled. It is logged and the stored buffer is dropped in
// favor of the new input, matching the warn-and-drop behavior of a
// true data-loss condition rather than silently discarding it.
func Pump(conn *ConnState, ready Readiness, bytes []byte) (PumpResult, error) {
	drain := bytes == nil
	if drain {
		bytes = conn.rxflowBuffer[conn.rxflowPos:]
	} else if conn.rxflowBuffer != nil {
		conn.logger.Warnf("pump called with fresh data while an rxflow buffer was pending; discarding it")
		conn.rxflowBuffer = nil
		conn.rxflowPos = 0
	}

	hadSpillAtEntry := conn.rxflowBuffer != nil

	n := 0
	for n < len(bytes) {
		if !ready.IsReadable(conn) {
			remaining := bytes[n:]
			if conn.rxflowBuffer == nil {
				conn.rxflowBuffer = append([]byte(nil), remaining...)
				conn.rxflowPos = 0
			} else {
				conn.rxflowBuffer = append(conn.rxflowBuffer[:0], remaining...)
				conn.rxflowPos = 0
			}
			return PumpFlowControlled, nil
		}

		status, err := conn.feedOneByte(bytes[n])
		if status {
			return PumpFatal, err
		}
		n++
	}

	if hadSpillAtEntry {
		conn.rxflowBuffer = nil
		conn.rxflowPos = 0
	}

	return PumpOK, nil
}

// feedOneByte dispatches a single byte to whichever state machine owns
// the connection's current phase, and reports whether that was fatal.
func (c *ConnState) feedOneByte(b byte) (fatal bool, err error) {
	if c.Phase() == PhaseHandshakeParsing {
		status, err := c.FeedHandshakeByte(b)
		return status == HandshakeFatal, err
	}
	outcome, err := c.FeedFrameByte(b)
	return outcome == rxOutcomeFatal, err
}
