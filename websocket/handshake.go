package websocket

import (
	"crypto/sha1" // #nosec G505 - SHA-1 required by RFC 6455 Section 1.3
	"encoding/base64"
	"strconv"
	"strings"
)

// Magic GUID from RFC 6455 Section 1.3, used to compute
// Sec-WebSocket-Accept from the client's Sec-WebSocket-Key.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// handshakeSub is the sub-state of the handshake parser within the
// connection's overall phase.
type handshakeSub int

const (
	hsNamePart handshakeSub = iota
	hsCollectingToken
	hsSkipping
	hsSkippingSawCR
	hsComplete
)

// handshakeState is parser_state plus, when collecting a token's value,
// which token it is.
type handshakeState struct {
	sub handshakeSub
	tok tokenID
	// valueStarted is set once the first byte of the current header
	// occurrence's value has been seen.
	valueStarted bool
}

// HandshakeStatus is FeedHandshakeByte's result: Ok or Fatal.
type HandshakeStatus int

const (
	HandshakeOK HandshakeStatus = iota
	HandshakeFatal
)

// FeedHandshakeByte consumes exactly one byte of the opening HTTP-style
// upgrade exchange. It never blocks and never reads ahead; it returns
// HandshakeFatal only on a collaborator-hook rejection or a structural
// impossibility — an oversize header is NOT fatal, it demotes the slot
// to a sentinel and continues.
func (c *ConnState) FeedHandshakeByte(b byte) (HandshakeStatus, error) {
	if !c.networkFiltered {
		c.networkFiltered = true
		if err := c.hooks.transport.FilterNetworkConnection(c); err != nil {
			return HandshakeFatal, err
		}
	}

	var err error
	switch c.parserState.sub {
	case hsNamePart:
		err = c.feedNamePart(b)
	case hsCollectingToken:
		err = c.feedCollectingToken(b)
	case hsSkipping:
		if b == '\r' {
			c.parserState.sub = hsSkippingSawCR
		}
	case hsSkippingSawCR:
		if b == '\n' {
			c.parserState.sub = hsNamePart
		} else {
			c.parserState.sub = hsSkipping
		}
		c.nameBuf.reset()
	case hsComplete:
		// "we're done, ignore anything else" — mirrors the original
		// parser's WSI_PARSING_COMPLETE case.
	}
	if err != nil {
		return HandshakeFatal, err
	}
	return HandshakeOK, nil
}

// feedNamePart implements the NamePart state: accumulate a header name
// into the scratch buffer and, on every byte, check the whole token
// table for a match.
func (c *ConnState) feedNamePart(b byte) error {
	if c.nameBuf.full() {
		// Name longer than the scratch buffer can hold: no tokenTable
		// entry is anywhere near this long, so it can never match. Give
		// up and skip to the next header, same demotion buffer.go's
		// overflow sentinel applies to an oversize token value.
		c.logger.Warnf("handshake header name exceeded %d bytes, skipping", nameBufferSize)
		c.parserState.sub = hsSkipping
		return nil
	}
	c.nameBuf.append(b)

	if id, ok := matchToken(c.nameBuf.bytes()); ok {
		id = canonicalToken(id)
		c.parserState = handshakeState{sub: hsCollectingToken, tok: id}
		c.nameBuf.reset()

		if id == tokenGetURI {
			c.methodSeen = true
		}
		if id == tokenChallenge {
			// Blank line observed: end of headers. Check now in
			// case no challenge payload follows at all — the
			// "no Upgrade header" and "version >= 4" completion
			// cases both require zero challenge bytes.
			return c.checkComplete()
		}
		return nil
	}

	// No match yet: unknown header (':') or an unrecognized HTTP
	// method followed by its URI (' ', only before GET_URI is seen).
	if b == ':' {
		c.parserState.sub = hsSkipping
		return nil
	}
	if b == ' ' && !c.methodSeen {
		c.parserState = handshakeState{sub: hsCollectingToken, tok: tokenGetURI}
		c.methodSeen = true
	}
	return nil
}

// feedCollectingToken implements the CollectingToken(tok) state.
func (c *ConnState) feedCollectingToken(b byte) error {
	tok := c.parserState.tok
	slot := &c.handshake[tok]

	// Swallow a single leading space of each header occurrence (applies
	// to every token), so a repeated header appends only its value.
	first := !c.parserState.valueStarted
	c.parserState.valueStarted = true
	if first && b == ' ' {
		return nil
	}

	// GET_URI terminates on space instead of CR.
	if tok == tokenGetURI && b == ' ' {
		c.parserState.sub = hsSkipping
		return nil
	}

	// CHALLENGE is raw binary payload (the v0/v76 nonce/response) and
	// must not be cut short by a CR that happens to appear in it.
	if tok != tokenChallenge && b == '\r' {
		c.parserState.sub = hsSkippingSawCR
		return nil
	}

	slot.append(b)

	if tok == tokenChallenge {
		return c.checkComplete()
	}
	return nil
}

// checkComplete applies the completion rule exactly:
//
//   - Version >= 4 AND end-of-headers observed, OR
//   - No Upgrade header was seen (plain HTTP request), OR
//   - Version is absent but we are driving the client side and have
//     received the full 16-byte challenge, OR
//   - Version is absent and we are on the server side and have
//     received the full 8-byte challenge.
func (c *ConnState) checkComplete() error {
	if c.parserState.sub == hsComplete {
		return nil
	}

	versionSlot := &c.handshake[tokenVersion]
	versionSeen := versionSlot.seen()
	version := 0
	if versionSeen {
		version, _ = strconv.Atoi(versionSlot.String())
	}
	challengeLen := len(c.handshake[tokenChallenge].value)

	switch {
	case versionSeen && version >= 4:
		return c.finishHandshake(Revision(version))
	case len(c.handshake[tokenUpgrade].value) == 0:
		return c.finishHandshake(0)
	case !versionSeen && c.clientSide && challengeLen == 16:
		return c.finishHandshake(RevisionHixie76)
	case !versionSeen && !c.clientSide && challengeLen == 8:
		return c.finishHandshake(RevisionHixie76)
	}
	return nil
}

// finishHandshake runs the two completion-time transport hooks —
// FilterProtocolConnection once the requested subprotocol is known,
// Established once the connection is usable — before flipping the
// connection into PhaseEstablished. Either hook returning an error is
// fatal and aborts the handshake.
func (c *ConnState) finishHandshake(rev Revision) error {
	protoHeader := c.handshake[tokenProtocol].String()
	if err := c.hooks.transport.FilterProtocolConnection(c, protoHeader); err != nil {
		return err
	}

	c.revision = rev
	c.parserState.sub = hsComplete
	c.phase.Store(int32(PhaseEstablished))

	if err := c.hooks.transport.Established(c); err != nil {
		return err
	}
	return nil
}

// ComputeAcceptKey computes Sec-WebSocket-Accept from the client's
// Sec-WebSocket-Key. An embedder's TransportHooks.Established
// implementation needs this to build the 101 response; the core itself
// never sends that response (see hooks.go).
//
// RFC 6455 Section 1.3:
//
//	Sec-WebSocket-Accept = base64(SHA-1(key + GUID))
func ComputeAcceptKey(key string) string {
	// #nosec G401 - SHA-1 required by RFC 6455 Section 1.3 (not for cryptographic security)
	h := sha1.New()
	h.Write([]byte(key))
	h.Write([]byte(websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// negotiateSubprotocol selects the first of serverProtos that also
// appears in the client's comma-separated Sec-WebSocket-Protocol value.
//
// RFC 6455 Section 1.9: the server selects ONE subprotocol from the
// client's list. Returns "" if no match or no subprotocols configured;
// subprotocol policy itself is an embedder concern, this only captures
// names.
func negotiateSubprotocol(clientProtocolHeader string, serverProtos []string) string {
	if len(serverProtos) == 0 {
		return ""
	}

	for _, clientProto := range strings.Split(clientProtocolHeader, ",") {
		clientProto = strings.TrimSpace(clientProto)
		for _, serverProto := range serverProtos {
			if clientProto == serverProto {
				return clientProto
			}
		}
	}

	return ""
}

// headerContainsToken checks if header value contains token
// (case-insensitive, comma-separated), e.g. for validating that an
// Upgrade header actually says "websocket".
func headerContainsToken(header, token string) bool {
	header = strings.ToLower(header)
	token = strings.ToLower(token)

	for _, h := range strings.Split(header, ",") {
		if strings.TrimSpace(h) == token {
			return true
		}
	}

	return false
}
