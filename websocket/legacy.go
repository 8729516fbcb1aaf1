package websocket

// Hixie-76 (revision 0) framing has no length prefix and no mask at
// all: a text frame is 0x00 followed by UTF-8 bytes terminated by
// 0xff, and a close is signaled by a bare 0xff followed by 0x00. This
// file holds that framing plus the draft 4-6 nonce prelude, split out
// from frame.go because neither shares any state with the v7+ header
// decode (original_source/lib/parsers.c LWS_RXPS_SEEN_76_FF,
// LWS_RXPS_EAT_UNTIL_76_FF and LWS_RXPS_04_MASK_NONCE_1..3).

// feedHixieByte advances the Hixie-76 frame path. It never touches the
// opcode/mask machinery used from v4 onward: Hixie-76 has no opcode
// field at all, only the 0x00 (text) / 0xff (close) lead-in bytes
// handled below.
func (c *ConnState) feedHixieByte(b byte) (rxOutcome, error) {
	switch c.rx.state {
	case rxNew:
		switch b {
		case 0xff:
			c.rx.state = rxLegacyAwaitFF
		case 0x00:
			c.rx.state = rxLegacyEatUntilFF
			c.rxPayload = c.rxPayload[:0]
		default:
			// Bytes outside the 0x00/0xff lead-ins are simply
			// ignored pre-frame, matching the original's silent
			// fallthrough on LWS_RXPS_NEW for revision 0.
		}
		return rxOutcomeContinue, nil

	case rxLegacyAwaitFF:
		if b != 0x00 {
			return rxOutcomeContinue, nil
		}
		// Client is requesting a v76 close; ack and close without
		// waiting for a TCP FIN.
		if err := c.writeFrame([]byte{0xff, 0x00}, FrameClose); err != nil {
			return rxOutcomeFatal, err
		}
		c.phase.Store(int32(PhaseReturnedCloseAlready))
		return rxOutcomeFatal, nil

	case rxLegacyEatUntilFF:
		if b == 0xff {
			c.rx.state = rxNew
			return c.spillHixie(true)
		}
		c.rxPayload = append(c.rxPayload, b)
		if len(c.rxPayload) >= c.maxUserRXBuffer {
			return c.spillHixie(false)
		}
		return rxOutcomeContinue, nil

	default:
		return rxOutcomeFatal, ErrProtocolError
	}
}

// spillHixie delivers the accumulated text chunk to the data hook and
// resets the accumulator, mirroring the "issue:" label in the original.
// final is false for a ceiling-triggered spill before the 0xff terminator.
func (c *ConnState) spillHixie(final bool) (rxOutcome, error) {
	payload := c.rxPayload
	c.rxPayload = c.rxPayload[:0]
	if err := c.hooks.data.Receive(c, payload, final); err != nil {
		return rxOutcomeFatal, err
	}
	return rxOutcomeContinue, nil
}

// feedNoncePreludeByte accumulates the 4-byte frame nonce that precedes
// every draft 4-6 frame header. On the fourth byte it derives the
// per-frame keystream (a 20-byte SHA1 rolling key for revision 4, the
// raw nonce itself for revisions 5-6) and moves on to the v4+ header
// states shared with v7+.
func (c *ConnState) feedNoncePreludeByte(b byte) {
	switch c.rx.state {
	case rxNew:
		c.rx.nonce[0] = b
		c.rx.allZeroNonce = b == 0
		c.rx.state = rxMaskNonce1
	case rxMaskNonce1:
		c.rx.nonce[1] = b
		c.rx.allZeroNonce = c.rx.allZeroNonce && b == 0
		c.rx.state = rxMaskNonce2
	case rxMaskNonce2:
		c.rx.nonce[2] = b
		c.rx.allZeroNonce = c.rx.allZeroNonce && b == 0
		c.rx.state = rxMaskNonce3
	case rxMaskNonce3:
		c.rx.nonce[3] = b
		c.rx.allZeroNonce = c.rx.allZeroNonce && b == 0
		c.rx.legacyMask = newLegacyMask(c.revision, c.rx.nonce, c.legacyConnMaskKey)
		c.rx.legacyMask.allZeroNonce = c.rx.allZeroNonce
		c.rx.legacyMask.bypassUnmaskingOK = c.rx.allZeroNonce && c.revision >= Revision5
		c.rx.state = rxHdrByte1
	}
}
