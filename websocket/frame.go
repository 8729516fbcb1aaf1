package websocket

// frameRXState enumerates every position the byte-wise frame receive
// state machine can be resumed from. Feeding one byte always advances
// to exactly one successor state (or spills and returns to rxNew), so
// the whole machine is representable as this one enum plus the scalar
// fields in rxState.
type frameRXState int

const (
	rxNew frameRXState = iota
	rxLegacyAwaitFF
	rxLegacyEatUntilFF
	rxLegacyPull76Len // declared for parity with the rest of the legacy state list; Hixie-76 has no length prefix, so this state is never entered
	rxMaskNonce1
	rxMaskNonce2
	rxMaskNonce3
	rxHdrByte1
	rxHdrLen
	rxHdrLen16Hi
	rxHdrLen16Lo
	rxHdrLen64_8
	rxHdrLen64_7
	rxHdrLen64_6
	rxHdrLen64_5
	rxHdrLen64_4
	rxHdrLen64_3
	rxHdrLen64_2
	rxHdrLen64_1
	rxCollectMask1
	rxCollectMask2
	rxCollectMask3
	rxCollectMask4
	rxPayloadUntilExhausted
)

// rxState is the frame sub-state of a connection: the header fields of
// the frame currently being decoded, plus the keystream state needed
// to unmask its payload.
type rxState struct {
	state frameRXState

	opcode     byte // normalized to v7+ encoding
	rsv        byte
	final      bool
	masked     bool // "this_frame_masked": MASK bit of header byte 2
	fragmented bool // a TEXT/BINARY frame with FIN=0 is in progress

	payloadLength uint64
	lengthRemain  uint64

	mask rfc6455Mask // v7+ mask_key + rolling index

	nonce        [4]byte // v4-6 frame nonce prelude
	allZeroNonce bool
	legacyMask   legacyMask
}

// rxOutcome is the frame SM's result for one fed byte: either keep
// going, or the connection has reached a terminal state and must be
// closed by the caller.
type rxOutcome int

const (
	rxOutcomeContinue rxOutcome = iota
	rxOutcomeFatal
)

// FeedFrameByte consumes exactly one post-handshake byte, decoding
// opcode/flags/length/mask as needed and dispatching completed frames.
// It never blocks and never reads ahead: this is what makes the result
// identical regardless of how the caller fragments its input.
func (c *ConnState) FeedFrameByte(b byte) (rxOutcome, error) {
	if c.phase.Load() == int32(PhaseReturnedCloseAlready) {
		return rxOutcomeFatal, ErrClosed
	}

	if c.revision.Hixie() {
		return c.feedHixieByte(b)
	}

	switch c.rx.state {
	case rxNew:
		return c.feedByte0(b)
	case rxMaskNonce1, rxMaskNonce2, rxMaskNonce3:
		c.feedNoncePreludeByte(b)
		return rxOutcomeContinue, nil
	case rxHdrByte1:
		return c.feedHdrByte1(b)
	case rxHdrLen:
		return c.feedHdrLen(b)
	case rxHdrLen16Hi:
		return c.feedHdrLen16Hi(b)
	case rxHdrLen16Lo:
		return c.feedHdrLen16Lo(b)
	case rxHdrLen64_8, rxHdrLen64_7, rxHdrLen64_6, rxHdrLen64_5,
		rxHdrLen64_4, rxHdrLen64_3, rxHdrLen64_2, rxHdrLen64_1:
		return c.feedHdrLen64(b)
	case rxCollectMask1, rxCollectMask2, rxCollectMask3, rxCollectMask4:
		return c.feedCollectMask(b)
	case rxPayloadUntilExhausted:
		return c.feedPayloadByte(b)
	default:
		return rxOutcomeFatal, ErrProtocolError
	}
}

// feedByte0 dispatches revision's byte-0 policy. Revision 0 never
// reaches here (see FeedFrameByte); revisions 4-6 start the nonce
// prelude; 7+ skip straight to the v7+ header.
func (c *ConnState) feedByte0(b byte) (rxOutcome, error) {
	if !c.revision.Valid() {
		return rxOutcomeFatal, ErrUnknownRevision
	}
	if c.revision.Legacy() {
		c.rx.allZeroNonce = true
		c.feedNoncePreludeByte(b)
		return rxOutcomeContinue, nil
	}
	// Revisions 7+: "no prepended frame key any more".
	c.rx.allZeroNonce = true
	return c.feedHdrByte1(b)
}

func (c *ConnState) feedHdrByte1(b byte) (rxOutcome, error) {
	if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
	}

	var opcode byte
	if c.revision < Revision7 {
		mapped, ok := preV7OpcodeTable[b&0x0f]
		if !ok {
			return rxOutcomeFatal, ErrInvalidOpcode
		}
		opcode = mapped
	} else {
		opcode = b & 0x0f
		if !isValidOpcode(opcode) {
			return rxOutcomeFatal, ErrInvalidOpcode
		}
	}

	c.rx.opcode = opcode
	c.rx.rsv = b & 0x70
	c.rx.final = b&0x80 != 0
	if isControlFrame(opcode) && !c.rx.final {
		return rxOutcomeFatal, ErrControlFragmented
	}
	if isDataFrame(opcode) {
		if opcode == opcodeContinuation && !c.rx.fragmented {
			return rxOutcomeFatal, ErrUnexpectedContinuation
		}
		if opcode != opcodeContinuation {
			c.rx.fragmented = !c.rx.final
		} else if c.rx.final {
			c.rx.fragmented = false
		}
	}
	c.rx.state = rxHdrLen
	return rxOutcomeContinue, nil
}

func (c *ConnState) feedHdrLen(b byte) (rxOutcome, error) {
	if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
		if b&0x80 != 0 {
			return rxOutcomeFatal, ErrReservedBits
		}
	}
	c.rx.masked = b&0x80 != 0

	switch b & 0x7f {
	case 126:
		if isControlFrame(c.rx.opcode) {
			return rxOutcomeFatal, ErrControlExtendedLength
		}
		c.rx.state = rxHdrLen16Hi
	case 127:
		if isControlFrame(c.rx.opcode) {
			return rxOutcomeFatal, ErrControlExtendedLength
		}
		c.rx.state = rxHdrLen64_8
	default:
		c.rx.payloadLength = uint64(b & 0x7f)
		if isControlFrame(c.rx.opcode) && c.rx.payloadLength > 125 {
			return rxOutcomeFatal, ErrControlTooLarge
		}
		return c.beginMaskOrPayload()
	}
	return rxOutcomeContinue, nil
}

func (c *ConnState) feedHdrLen16Hi(b byte) (rxOutcome, error) {
	if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
	}
	c.rx.payloadLength = uint64(b) << 8
	c.rx.state = rxHdrLen16Lo
	return rxOutcomeContinue, nil
}

func (c *ConnState) feedHdrLen16Lo(b byte) (rxOutcome, error) {
	if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
	}
	c.rx.payloadLength |= uint64(b)
	return c.beginMaskOrPayload()
}

// feedHdrLen64 handles all eight bytes of the 64-bit extended length,
// most significant first. The first byte's high bit must be zero: RFC
// 6455 reserves it, so a peer setting it is a protocol error.
func (c *ConnState) feedHdrLen64(b byte) (rxOutcome, error) {
	if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
	}

	switch c.rx.state {
	case rxHdrLen64_8:
		if b&0x80 != 0 {
			return rxOutcomeFatal, ErrProtocolError
		}
		c.rx.payloadLength = uint64(b) << 56
		c.rx.state = rxHdrLen64_7
	case rxHdrLen64_7:
		c.rx.payloadLength |= uint64(b) << 48
		c.rx.state = rxHdrLen64_6
	case rxHdrLen64_6:
		c.rx.payloadLength |= uint64(b) << 40
		c.rx.state = rxHdrLen64_5
	case rxHdrLen64_5:
		c.rx.payloadLength |= uint64(b) << 32
		c.rx.state = rxHdrLen64_4
	case rxHdrLen64_4:
		c.rx.payloadLength |= uint64(b) << 24
		c.rx.state = rxHdrLen64_3
	case rxHdrLen64_3:
		c.rx.payloadLength |= uint64(b) << 16
		c.rx.state = rxHdrLen64_2
	case rxHdrLen64_2:
		c.rx.payloadLength |= uint64(b) << 8
		c.rx.state = rxHdrLen64_1
	case rxHdrLen64_1:
		c.rx.payloadLength |= uint64(b)
		return c.beginMaskOrPayload()
	}
	return rxOutcomeContinue, nil
}

// beginMaskOrPayload is called once payloadLength is fully known. For
// v7+ frames with MASK set it starts collecting the 4-byte mask key;
// otherwise (or pre-v7, which is already unmasked via legacyMask) it
// goes straight to payload accumulation.
func (c *ConnState) beginMaskOrPayload() (rxOutcome, error) {
	c.rx.lengthRemain = c.rx.payloadLength
	if c.rx.masked && !c.revision.Legacy() {
		c.rx.mask = rfc6455Mask{}
		c.rx.state = rxCollectMask1
		return rxOutcomeContinue, nil
	}
	return c.enterPayload()
}

// enterPayload moves to payload accumulation, or — for a declared
// zero-length frame (a bare PING/PONG/CLOSE with no body, or an empty
// TEXT/BINARY frame) — spills immediately with an empty payload instead
// of waiting for a byte that belongs to the next frame.
func (c *ConnState) enterPayload() (rxOutcome, error) {
	if c.rx.payloadLength == 0 {
		c.rx.state = rxNew
		return c.spillFrame(true)
	}
	c.rx.state = rxPayloadUntilExhausted
	return rxOutcomeContinue, nil
}

func (c *ConnState) feedCollectMask(b byte) (rxOutcome, error) {
	switch c.rx.state {
	case rxCollectMask1:
		c.rx.mask.key[0] = b
		c.rx.state = rxCollectMask2
	case rxCollectMask2:
		c.rx.mask.key[1] = b
		c.rx.state = rxCollectMask3
	case rxCollectMask3:
		c.rx.mask.key[2] = b
		c.rx.state = rxCollectMask4
	case rxCollectMask4:
		c.rx.mask.key[3] = b
		c.rx.mask.idx = 0
		return c.enterPayload()
	}
	return rxOutcomeContinue, nil
}

// feedPayloadByte unmasks (when applicable) and accumulates one payload
// byte, spilling when the frame's declared length is exhausted or when
// the accumulator hits its ceiling.
func (c *ConnState) feedPayloadByte(b byte) (rxOutcome, error) {
	if c.defeatClientMask {
		// test-only: skip unmasking entirely.
	} else if c.revision < Revision4 {
		// identity keystream
	} else if c.revision.Legacy() {
		b = c.rx.legacyMask.next(b)
	} else if c.rx.masked {
		b = c.rx.mask.next(b)
	}

	c.rxPayload = append(c.rxPayload, b)

	c.rx.lengthRemain--
	exhausted := c.rx.lengthRemain == 0
	overCeiling := len(c.rxPayload) >= c.maxUserRXBuffer

	if !exhausted && !overCeiling {
		return rxOutcomeContinue, nil
	}
	if exhausted {
		c.rx.state = rxNew
	}
	// else: mid-frame ceiling spill, stay in rxPayloadUntilExhausted
	return c.spillFrame(exhausted)
}

// spillFrame dispatches the accumulated payload by opcode and resets
// the accumulator. final reports whether the frame's declared length
// was fully consumed (as opposed to a ceiling-triggered mid-frame
// spill).
func (c *ConnState) spillFrame(final bool) (rxOutcome, error) {
	payload := c.rxPayload
	c.rxPayload = c.rxPayload[:0]

	switch c.rx.opcode {
	case opcodeClose:
		if c.phase.Load() == int32(PhaseAwaitingCloseAck) {
			return rxOutcomeFatal, nil
		}
		if c.flood.Allow() {
			if err := c.writeFrame(payload, FrameClose); err != nil {
				return rxOutcomeFatal, err
			}
		}
		c.phase.Store(int32(PhaseReturnedCloseAlready))
		return rxOutcomeFatal, nil

	case opcodePing:
		if c.flood.Allow() {
			if err := c.writeFrame(payload, FramePong); err != nil {
				return rxOutcomeFatal, err
			}
		}
		return rxOutcomeContinue, nil

	case opcodePong:
		c.pingsOutstanding.Dec()
		return rxOutcomeContinue, nil

	case opcodeContinuation, opcodeText, opcodeBinary:
		for _, ext := range c.extensions {
			handled, err := ext.HandleFrame(c, ExtensionPayloadRx, payload)
			if err != nil {
				return rxOutcomeFatal, err
			}
			if handled {
				return rxOutcomeContinue, nil
			}
		}
		if len(payload) == 0 {
			return rxOutcomeContinue, nil
		}
		if err := c.hooks.data.Receive(c, payload, final); err != nil {
			return rxOutcomeFatal, err
		}
		return rxOutcomeContinue, nil

	default:
		handled := false
		for _, ext := range c.extensions {
			ok, err := ext.HandleFrame(c, ExtensionExtendedPayloadRx, payload)
			if err != nil {
				return rxOutcomeFatal, err
			}
			if ok {
				handled = true
			}
		}
		if !handled {
			c.logger.Warnf("unhandled extended opcode 0x%x, dropping frame", c.rx.opcode)
		}
		return rxOutcomeContinue, nil
	}
}
