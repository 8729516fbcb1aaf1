package websocket

import "testing"

// feedHandshake drives every byte of raw through FeedHandshakeByte one
// at a time and returns the final status.
func feedHandshake(t *testing.T, c *ConnState, raw string) (HandshakeStatus, error) {
	t.Helper()
	var status HandshakeStatus
	var err error
	for i := 0; i < len(raw); i++ {
		status, err = c.FeedHandshakeByte(raw[i])
		if status == HandshakeFatal {
			return status, err
		}
	}
	return status, err
}

func TestFeedHandshakeByte_RFC6455Request(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	raw := "GET /chat HTTP/1.1\r\n" +
		"Host: server.example.com\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"Origin: http://example.com\r\n" +
		"\r\n"

	if _, err := feedHandshake(t, c, raw); err != nil {
		t.Fatalf("feedHandshake: %v", err)
	}
	if c.Phase() != PhaseEstablished {
		t.Fatalf("phase = %v, want PhaseEstablished", c.Phase())
	}
	if c.Revision() != Revision13 {
		t.Fatalf("revision = %v, want Revision13", c.Revision())
	}
	if got := c.HandshakeValue("Host:"); got != "server.example.com" {
		t.Fatalf("Host = %q, want server.example.com", got)
	}
	if got := c.HandshakeValue("Sec-WebSocket-Key:"); got != "dGhlIHNhbXBsZSBub25jZQ==" {
		t.Fatalf("Sec-WebSocket-Key = %q", got)
	}
}

func TestFeedHandshakeByte_SecWebSocketOriginFoldsToOrigin(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	raw := "GET / HTTP/1.1\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n" +
		"Sec-WebSocket-Origin: http://example.com\r\n" +
		"\r\n"

	feedHandshake(t, c, raw)

	if got := c.HandshakeValue("Origin:"); got != "http://example.com" {
		t.Fatalf("Origin = %q, want folded Sec-WebSocket-Origin value", got)
	}
}

func TestFeedHandshakeByte_Hixie76CompletesOnChallenge(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	raw := "GET /demo HTTP/1.1\r\n" +
		"Upgrade: WebSocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Host: example.com\r\n" +
		"Origin: http://example.com\r\n" +
		"Sec-WebSocket-Key1: 4 @1  46546xW%0l 1 5\r\n" +
		"Sec-WebSocket-Key2: 12998 5 Y3 1  .P00\r\n" +
		"\r\n" +
		"^n:ds[4U"

	feedHandshake(t, c, raw)

	if c.Phase() != PhaseEstablished {
		t.Fatalf("phase = %v, want PhaseEstablished", c.Phase())
	}
	if c.Revision() != RevisionHixie76 {
		t.Fatalf("revision = %v, want RevisionHixie76", c.Revision())
	}
}

func TestFeedHandshakeByte_ChallengeSurvivesEmbeddedCR(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	raw := "GET /demo HTTP/1.1\r\n" +
		"Upgrade: WebSocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key1: 4 @1  46546xW%0l 1 5\r\n" +
		"Sec-WebSocket-Key2: 12998 5 Y3 1  .P00\r\n" +
		"\r\n" +
		string([]byte{1, 2, 3, '\r', 5, 6, 7, 8})

	feedHandshake(t, c, raw)

	if c.Phase() != PhaseEstablished {
		t.Fatalf("phase = %v, want PhaseEstablished (CR inside challenge must not terminate it)", c.Phase())
	}
}

func TestFeedHandshakeByte_NoUpgradeHeaderCompletesAsPlainHTTP(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	raw := "GET / HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"\r\n"

	feedHandshake(t, c, raw)

	if c.Phase() != PhaseEstablished {
		t.Fatalf("phase = %v, want PhaseEstablished", c.Phase())
	}
	if c.Revision() != RevisionHixie76 {
		t.Fatalf("revision = %v, want 0 (the zero value, no Upgrade header present)", c.Revision())
	}
}

func TestFeedHandshakeByte_OversizeHeaderIsNotFatal(t *testing.T) {
	c := NewConn(false, Hooks{}, Config{})

	feedHandshake(t, c, "GET / HTTP/1.1\r\nHost: ")
	for i := 0; i < headerCeiling+5; i++ {
		status, err := c.FeedHandshakeByte('a')
		if status == HandshakeFatal {
			t.Fatalf("oversize header must not be fatal, got err=%v", err)
		}
	}
	if got := c.HandshakeValue("Host:"); got != headerOverflowSentinel {
		t.Fatalf("Host = %q, want overflow sentinel", got)
	}
}

func TestFeedHandshakeByte_FilterNetworkConnectionRuns(t *testing.T) {
	called := false
	transport := recordingTransport{}
	transport.filterNetwork = func(*ConnState) error {
		called = true
		return nil
	}
	c := NewConn(false, Hooks{Transport: transport}, Config{})

	c.FeedHandshakeByte('G')
	if !called {
		t.Fatal("FilterNetworkConnection was never invoked")
	}
}

func TestFeedHandshakeByte_FilterNetworkConnectionRejectsConnection(t *testing.T) {
	transport := recordingTransport{filterNetwork: func(*ConnState) error { return ErrProtocolError }}
	c := NewConn(false, Hooks{Transport: transport}, Config{})

	status, err := c.FeedHandshakeByte('G')
	if status != HandshakeFatal || err != ErrProtocolError {
		t.Fatalf("status=%v err=%v, want HandshakeFatal/ErrProtocolError", status, err)
	}
}

func TestFeedHandshakeByte_EstablishedHookRuns(t *testing.T) {
	var seen *ConnState
	transport := recordingTransport{established: func(c *ConnState) error {
		seen = c
		return nil
	}}
	c := NewConn(false, Hooks{Transport: transport}, Config{})

	raw := "GET / HTTP/1.1\r\nHost: x\r\n\r\n"
	feedHandshake(t, c, raw)

	if seen != c {
		t.Fatal("Established hook was never called with this connection")
	}
}

// recordingTransport is a minimal TransportHooks implementation for
// observing which callbacks fire, with nil-safe defaults for the ones a
// given test doesn't care about.
type recordingTransport struct {
	filterNetwork  func(*ConnState) error
	filterProtocol func(*ConnState, string) error
	established    func(*ConnState) error
}

func (r recordingTransport) FilterNetworkConnection(c *ConnState) error {
	if r.filterNetwork == nil {
		return nil
	}
	return r.filterNetwork(c)
}

func (r recordingTransport) FilterProtocolConnection(c *ConnState, proto string) error {
	if r.filterProtocol == nil {
		return nil
	}
	return r.filterProtocol(c, proto)
}

func (r recordingTransport) Established(c *ConnState) error {
	if r.established == nil {
		return nil
	}
	return r.established(c)
}

func TestComputeAcceptKey_RFC6455Example(t *testing.T) {
	// RFC 6455 Section 1.3's worked example.
	got := ComputeAcceptKey("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("computeAcceptKey = %q, want %q", got, want)
	}
}

func TestNegotiateSubprotocol(t *testing.T) {
	got := negotiateSubprotocol("chat, superchat", []string{"superchat"})
	if got != "superchat" {
		t.Fatalf("got %q, want superchat", got)
	}
	if got := negotiateSubprotocol("chat", nil); got != "" {
		t.Fatalf("got %q, want empty when no server protocols configured", got)
	}
	if got := negotiateSubprotocol("chat", []string{"other"}); got != "" {
		t.Fatalf("got %q, want empty on no overlap", got)
	}
}

func TestHeaderContainsToken(t *testing.T) {
	if !headerContainsToken("Upgrade, Keep-Alive", "upgrade") {
		t.Fatal("expected case-insensitive comma-list match")
	}
	if headerContainsToken("Keep-Alive", "upgrade") {
		t.Fatal("expected no match")
	}
}
