package websocket

import "strings"

// tokenID enumerates the handshake header slots the parser recognizes.
// Order here is not significant — token.name is what drives matching,
// not position.
type tokenID int

const (
	tokenGetURI tokenID = iota
	tokenHost
	tokenConnection
	tokenKey1
	tokenKey2
	tokenProtocol
	tokenUpgrade
	tokenOrigin
	tokenDraft
	tokenChallenge
	tokenKey
	tokenVersion
	tokenSWOrigin // aliased onto tokenOrigin before the value is stored
	tokenExtensions
	tokenAccept
	tokenNonce
	tokenHTTP
	tokenMuxURL // never matched by any table entry; see tokenTable comment
	tokenCount
)

// tokenEntry is one row of the fixed header-name table: a literal name
// and its byte length, checked before a case-insensitive compare so the
// NamePart state can reject mismatched lengths without doing the fold.
type tokenEntry struct {
	name string
	len  int
}

// tokenTable mirrors lws_tokens from the C implementation this parser is
// ported from: a fixed array walked in full on every NamePart byte. The
// CHALLENGE entry is not a header name at all — it is the literal CRLF
// that marks end-of-headers, matched the same way as any other entry so
// the NamePart loop needs no special case for it.
//
// tokenMuxURL's entry has length -1: no accumulated name_buffer length
// can ever equal it, so the slot is permanently unreachable. It exists
// only so the enumerated token set matches the external contract; the
// mux extension it would have served was never finished upstream.
var tokenTable = [tokenCount]tokenEntry{
	tokenGetURI:     {"GET ", 4},
	tokenHost:       {"Host:", 5},
	tokenConnection: {"Connection:", 11},
	tokenKey1:       {"Sec-WebSocket-Key1:", 19},
	tokenKey2:       {"Sec-WebSocket-Key2:", 19},
	tokenProtocol:   {"Sec-WebSocket-Protocol:", 23},
	tokenUpgrade:    {"Upgrade:", 8},
	tokenOrigin:     {"Origin:", 7},
	tokenDraft:      {"Sec-WebSocket-Draft:", 20},
	tokenChallenge:  {"\r\n", 2},
	tokenKey:        {"Sec-WebSocket-Key:", 18},
	tokenVersion:    {"Sec-WebSocket-Version:", 22},
	tokenSWOrigin:   {"Sec-WebSocket-Origin:", 21},
	tokenExtensions: {"Sec-WebSocket-Extensions:", 25},
	tokenAccept:     {"Sec-WebSocket-Accept:", 21},
	tokenNonce:      {"Sec-WebSocket-Nonce:", 20},
	tokenHTTP:       {"HTTP/1.1 ", 9},
	tokenMuxURL:     {"", -1},
}

// matchToken walks tokenTable looking for an entry whose literal length
// equals len(name) and whose text matches name case-insensitively. It
// returns the matching token and true, or the zero value and false.
func matchToken(name []byte) (tokenID, bool) {
	for id, entry := range tokenTable {
		if entry.len != len(name) {
			continue
		}
		if strings.EqualFold(entry.name, string(name)) {
			return tokenID(id), true
		}
	}
	return 0, false
}

// canonicalToken folds the Sec-WebSocket-Origin alias onto Origin: an
// early draft's header name for the value RFC 6455 calls Origin, so
// both must land in the same slot regardless of which one arrives.
func canonicalToken(id tokenID) tokenID {
	if id == tokenSWOrigin {
		return tokenOrigin
	}
	return id
}
