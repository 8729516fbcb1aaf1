package websocket

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// interopWriter sends the 101 response and every outbound frame as an
// unmasked server frame over the raw TCP connection, using a minimal
// server-side encoder. Interop with a real, independent
// client (nhooyr.io/websocket) is the point: if our RX-only core
// disagrees with the broader ecosystem about framing, this is where it
// would show up.
type interopWriter struct {
	netConn net.Conn
}

func (w interopWriter) Write(conn *ConnState, payload []byte, kind FrameKind) error {
	if kind == FrameHTTP {
		_, err := w.netConn.Write(payload)
		return err
	}

	opcode := byte(0x2)
	switch kind {
	case FrameText:
		opcode = 0x1
	case FrameClose:
		opcode = 0x8
	case FramePing:
		opcode = 0x9
	case FramePong:
		opcode = 0xa
	}
	_, err := w.netConn.Write(encodeInteropFrame(opcode, payload))
	return err
}

func encodeInteropFrame(opcode byte, payload []byte) []byte {
	n := len(payload)
	var header []byte
	switch {
	case n < 126:
		header = []byte{0x80 | opcode, byte(n)}
	case n <= 0xffff:
		header = make([]byte, 4)
		header[0] = 0x80 | opcode
		header[1] = 126
		binary.BigEndian.PutUint16(header[2:], uint16(n))
	default:
		header = make([]byte, 10)
		header[0] = 0x80 | opcode
		header[1] = 127
		binary.BigEndian.PutUint64(header[2:], uint64(n))
	}
	return append(header, payload...)
}

// interopTransport sends the RFC 6455 101 response once the handshake
// parser reaches PhaseEstablished, computing Sec-WebSocket-Accept from
// the client's Sec-WebSocket-Key the way finishHandshake expects an
// embedder's Established hook to.
type interopTransport struct {
	writer OutboundWriter
}

func (t interopTransport) Established(conn *ConnState) error {
	accept := ComputeAcceptKey(conn.HandshakeValue("Sec-WebSocket-Key:"))
	resp := "HTTP/1.1 101 Switching Protocols\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Accept: " + accept + "\r\n\r\n"
	return t.writer.Write(conn, []byte(resp), FrameHTTP)
}

func (t interopTransport) FilterNetworkConnection(*ConnState) error          { return nil }
func (t interopTransport) FilterProtocolConnection(*ConnState, string) error { return nil }

// interopEcho implements DataHooks by bouncing every fully received
// frame straight back to the sender; ceiling-bounded partial chunks
// (final == false) are not echoed.
type interopEcho struct {
	writer OutboundWriter
}

func (e interopEcho) Receive(conn *ConnState, payload []byte, final bool) error {
	if !final {
		return nil
	}
	return e.writer.Write(conn, payload, FrameBinary)
}

// serveOneInterop runs the byte-wise core end to end over a single
// accepted net.Conn until the peer closes it.
func serveOneInterop(netConn net.Conn) {
	defer netConn.Close() //nolint:errcheck

	writer := interopWriter{netConn: netConn}
	conn := NewConn(false, Hooks{
		Writer:    writer,
		Transport: interopTransport{writer: writer},
		Data:      interopEcho{writer: writer},
	}, Config{})

	buf := make([]byte, 4096)
	for {
		n, err := netConn.Read(buf)
		if n > 0 {
			if result, _ := Pump(conn, AlwaysReady{}, buf[:n]); result == PumpFatal {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// TestInteropWithNhooyrClient drives our handshake parser and frame
// state machine against nhooyr.io/websocket's client implementation,
// an independent RFC 6455 stack, over a real TCP loopback connection.
func TestInteropWithNhooyrClient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close() //nolint:errcheck

	go func() {
		netConn, err := ln.Accept()
		if err != nil {
			return
		}
		serveOneInterop(netConn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("ws://%s/", ln.Addr().String())
	client, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close(websocket.StatusNormalClosure, "") //nolint:errcheck

	want := []byte("hello from an independent RFC 6455 client")
	if err := client.Write(ctx, websocket.MessageBinary, want); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, got, err := client.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("echoed payload mismatch: got %q, want %q", got, want)
	}

	if err := client.Close(websocket.StatusNormalClosure, "done"); err != nil && err != io.EOF {
		t.Fatalf("close: %v", err)
	}
}
