package websocket

import "crypto/sha1" // #nosec G505 - SHA-1 required by the draft 4 frame mask derivation

// maskKind tags which keystream variant a legacyMask value holds.
type maskKind int

const (
	maskIdentity maskKind = iota // revision < 4: no mask at all
	maskNonce                   // revisions 5-6: 4-byte nonce, index mod 4
	maskRolling                  // revision 4: 20-byte SHA1-derived key, index mod 20
)

// legacyMask is the per-frame keystream used by revisions 4 through 6,
// generalized as a small tagged-variant value object per the "Shared
// rolling mask state" design note: encapsulate the historical SHA1 wart
// as one type with a next-byte operation instead of scattering kind
// checks through the frame state machine.
//
// Revisions 7+ use the plain 4-byte RFC 6455 mask key (rfc6455Mask, held
// in rxState.mask) and never construct a legacyMask.
type legacyMask struct {
	kind              maskKind
	nonce             [4]byte
	rolling           [20]byte
	idx               int
	allZeroNonce      bool
	bypassUnmaskingOK bool // true only for maskNonce with allZeroNonce on rev >= 5
}

// deriveRollingKey computes the revision-4 frame mask: SHA1(nonce ||
// connectionMaskKey), exactly as the legacy frame header derivation
// does it ("post_sha1" in the original parser). connectionMaskKey is
// the 20-byte key established once at handshake time; nonce is the
// 4 bytes just read from the wire for this frame.
func deriveRollingKey(nonce [4]byte, connectionMaskKey [20]byte) [20]byte {
	var buf [24]byte
	copy(buf[0:4], nonce[:])
	copy(buf[4:24], connectionMaskKey[:])
	return sha1.Sum(buf[:]) // #nosec G401 - SHA-1 required by draft 4, not a security boundary
}

// newLegacyMask builds the keystream for one frame under revisions 4-6.
// rev must satisfy rev.Legacy(); connectionMaskKey is only consulted for
// revision 4.
func newLegacyMask(rev Revision, nonce [4]byte, connectionMaskKey [20]byte) legacyMask {
	allZero := nonce == [4]byte{}

	if rev == Revision4 {
		return legacyMask{
			kind:         maskRolling,
			rolling:      deriveRollingKey(nonce, connectionMaskKey),
			allZeroNonce: allZero,
		}
	}

	return legacyMask{
		kind:              maskNonce,
		nonce:             nonce,
		allZeroNonce:      allZero,
		bypassUnmaskingOK: allZero, // optimization for unmasked streams, revisions 5-6 only
	}
}

// next unmasks one payload byte and advances the keystream index.
func (m *legacyMask) next(c byte) byte {
	switch m.kind {
	case maskIdentity:
		return c
	case maskRolling:
		out := c ^ m.rolling[m.idx]
		m.idx++
		if m.idx == 20 {
			m.idx = 0
		}
		return out
	case maskNonce:
		if m.bypassUnmaskingOK {
			m.idx = (m.idx + 1) & 3
			return c
		}
		out := c ^ m.nonce[m.idx&3]
		m.idx++
		return out
	default:
		return c
	}
}

// rfc6455Mask is the plain 4-byte mask used by revisions 7 and above.
type rfc6455Mask struct {
	key [4]byte
	idx int
}

func (m *rfc6455Mask) next(c byte) byte {
	out := c ^ m.key[m.idx&3]
	m.idx++
	return out
}
