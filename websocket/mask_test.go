package websocket

import "testing"

func TestRFC6455Mask_RoundTrips(t *testing.T) {
	m := rfc6455Mask{key: [4]byte{0x12, 0x34, 0x56, 0x78}}
	plain := []byte("round trip through the mask and back")

	masked := make([]byte, len(plain))
	for i, b := range plain {
		masked[i] = m.next(b)
	}

	unmask := rfc6455Mask{key: m.key}
	recovered := make([]byte, len(masked))
	for i, b := range masked {
		recovered[i] = unmask.next(b)
	}

	if string(recovered) != string(plain) {
		t.Fatalf("got %q, want %q", recovered, plain)
	}
}

func TestLegacyMask_IdentityWhenRevisionBelow4(t *testing.T) {
	var m legacyMask // zero value: kind == maskIdentity
	for _, b := range []byte("untouched") {
		if got := m.next(b); got != b {
			t.Fatalf("maskIdentity.next(%x) = %x, want %x", b, got, b)
		}
	}
}

func TestLegacyMask_RollingWrapsAt20(t *testing.T) {
	var key [20]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	m := legacyMask{kind: maskRolling, rolling: key}

	payload := make([]byte, 25)
	masked := make([]byte, 25)
	for i := range payload {
		masked[i] = m.next(payload[i])
	}

	// The 21st byte (index 20) must reuse rolling[0], proving the index
	// wraps instead of running off the end of the key.
	check := legacyMask{kind: maskRolling, rolling: key}
	for i := 0; i < 21; i++ {
		check.next(0)
	}
	if masked[20]^payload[20] != key[0] {
		t.Fatalf("byte 20 was not XORed with rolling[0] after wraparound")
	}
}

func TestLegacyMask_NonceBypassIsIdentity(t *testing.T) {
	m := legacyMask{kind: maskNonce, bypassUnmaskingOK: true}
	for _, b := range []byte("all zero nonce means no-op") {
		if got := m.next(b); got != b {
			t.Fatalf("bypass next(%x) = %x, want %x (identity)", b, got, b)
		}
	}
}

func TestLegacyMask_NonceXorsWhenNotBypassed(t *testing.T) {
	nonce := [4]byte{0xde, 0xad, 0xbe, 0xef}
	m := legacyMask{kind: maskNonce, nonce: nonce}

	got := m.next(0x00)
	if got != nonce[0] {
		t.Fatalf("next(0) = %x, want %x", got, nonce[0])
	}
}

func TestDeriveRollingKey_DependsOnBothInputs(t *testing.T) {
	connKey := [20]byte{1, 2, 3}
	k1 := deriveRollingKey([4]byte{1, 1, 1, 1}, connKey)
	k2 := deriveRollingKey([4]byte{2, 2, 2, 2}, connKey)
	if k1 == k2 {
		t.Fatal("different nonces must derive different rolling keys")
	}
}
