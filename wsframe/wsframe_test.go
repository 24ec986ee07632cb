package wsframe_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/wsframe"
)

// fakeTransport feeds Read from a queue of byte chunks and records every
// flushed write, so the frame reader/writer can be exercised without a
// real socket.
type fakeTransport struct {
	chunks  [][]byte
	readErr error // returned once chunks are exhausted, instead of a timeout
	send    []byte
	writes  [][]byte
	closed  bool
}

func newFake(send int, chunks ...[]byte) *fakeTransport {
	return &fakeTransport{chunks: chunks, send: make([]byte, send)}
}

func (f *fakeTransport) SendBuffer() []byte { return f.send }

func (f *fakeTransport) Read(timeoutMS int) ([]byte, error) {
	if len(f.chunks) == 0 {
		if f.readErr != nil {
			return nil, f.readErr
		}
		return nil, nil
	}
	c := f.chunks[0]
	f.chunks = f.chunks[1:]
	return c, nil
}

func (f *fakeTransport) Write(buf []byte, n int) error {
	if buf == nil {
		buf = f.send
	}
	f.writes = append(f.writes, append([]byte(nil), buf[:n]...))
	return nil
}

func (f *fakeTransport) Close() error { f.closed = true; return nil }

var _ mst.Transport = (*fakeTransport)(nil)

func mask(payload []byte, key [4]byte) []byte {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = b ^ key[i%4]
	}
	return out
}

func maskedFrame(opcode byte, payload []byte, key [4]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(opcode)
	buf.WriteByte(0x80 | byte(len(payload))) // mask bit + 7-bit length
	buf.Write(key[:])
	buf.Write(mask(payload, key))
	return buf.Bytes()
}

func TestReaderMaskedTextFrame(t *testing.T) {
	// The exact sample frame from RFC 6455-style fixtures: masked "Hello".
	frame := []byte{0x81, 0x85, 0x37, 0xfa, 0x21, 0x3d, 0x7f, 0x9f, 0x4d, 0x51, 0x58}
	ft := newFake(256, frame)
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	got, err := r.Read(1000)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hello" {
		t.Fatalf("got %q, want %q", got, "Hello")
	}
}

func TestReaderRejectsUnmaskedFrame(t *testing.T) {
	frame := []byte{0x81, 0x05, 'H', 'e', 'l', 'l', 'o'} // mask bit not set
	ft := newFake(256, frame)
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	_, err := r.Read(1000)
	if err == nil {
		t.Fatal("expected protocol error for unmasked frame")
	}
	if !ft.closed {
		t.Fatal("expected transport closed on protocol violation")
	}
}

func TestReaderPingTriggersPong(t *testing.T) {
	key := [4]byte{0x11, 0x22, 0x33, 0x44}
	ping := maskedFrame(wsframe.OpPing, []byte("hi"), key)
	textKey := [4]byte{0x01, 0x02, 0x03, 0x04}
	text := maskedFrame(wsframe.OpText, []byte("after"), textKey)

	ft := newFake(256, append(append([]byte{}, ping...), text...))
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	got, err := r.Read(1000)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "after" {
		t.Fatalf("got %q, want %q (ping should be swallowed)", got, "after")
	}
	if len(ft.writes) != 1 {
		t.Fatalf("expected exactly one flushed write (the pong), got %d", len(ft.writes))
	}
	pong := ft.writes[0]
	if pong[0] != wsframe.OpPong {
		t.Fatalf("opcode = %x, want OpPong", pong[0])
	}
	if string(pong[2:]) != "hi" {
		t.Fatalf("pong payload = %q, want %q", pong[2:], "hi")
	}
}

func TestReaderCloseFrame(t *testing.T) {
	key := [4]byte{0xaa, 0xbb, 0xcc, 0xdd}
	payload := []byte{0x03, 0xe8} // status 1000, masked below
	frame := maskedFrame(wsframe.OpClose, payload, key)
	ft := newFake(256, frame)
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	_, err := r.Read(1000)
	if err == nil {
		t.Fatal("expected error on close frame")
	}
	if !ft.closed {
		t.Fatal("expected transport closed after close frame")
	}
}

func TestReaderCloseMidHeaderReadErrorResolvesClean(t *testing.T) {
	// Only the opcode byte of a Close frame arrives before the transport
	// fails — this must surface as a clean close (Writer sends the Close
	// reply, Read's error is the protocol-level "peer closed" one), not
	// the raw transport error.
	ft := newFake(256, []byte{wsframe.OpClose})
	ft.readErr = errors.New("connection reset")
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	_, err := r.Read(1000)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, ft.readErr) {
		t.Fatalf("expected the clean-close error, got the raw transport error: %v", err)
	}
	if !ft.closed {
		t.Fatal("expected transport closed")
	}
	if len(ft.writes) != 1 || ft.writes[0][0] != wsframe.OpClose {
		t.Fatalf("expected one Close frame written, got %v", ft.writes)
	}
	if rs.HeaderIx != 0 {
		t.Fatalf("HeaderIx = %d, want 0 after the reset", rs.HeaderIx)
	}
}

func TestReaderNonCloseMidHeaderReadErrorPropagates(t *testing.T) {
	ft := newFake(256, []byte{wsframe.OpText})
	ft.readErr = errors.New("connection reset")
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	_, err := r.Read(1000)
	if !errors.Is(err, ft.readErr) {
		t.Fatalf("expected the raw transport error, got %v", err)
	}
}

func TestReaderOverflowCarriesToNextFrame(t *testing.T) {
	key1 := [4]byte{1, 2, 3, 4}
	key2 := [4]byte{5, 6, 7, 8}
	frame1 := maskedFrame(wsframe.OpText, []byte("abc"), key1)
	frame2 := maskedFrame(wsframe.OpText, []byte("xyz"), key2)
	// Both frames delivered in a single underlying Read — rawRead must
	// carry frame2's bytes forward as Overflow rather than dropping them.
	ft := newFake(256, append(append([]byte{}, frame1...), frame2...))
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	got1, err := r.Read(1000)
	if err != nil {
		t.Fatal(err)
	}
	if string(got1) != "abc" {
		t.Fatalf("got1 = %q, want abc", got1)
	}
	got2, err := r.Read(1000)
	if err != nil {
		t.Fatal(err)
	}
	if string(got2) != "xyz" {
		t.Fatalf("got2 = %q, want xyz", got2)
	}
}

func TestReaderTimeout(t *testing.T) {
	ft := newFake(256)
	rs := &wsframe.ReadState{}
	w := wsframe.NewWriter(ft)
	r := wsframe.NewReader(ft, w, rs)

	got, err := r.Read(50)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil || !rs.IsTimeout {
		t.Fatalf("expected timeout, got %v err=%v isTimeout=%v", got, err, rs.IsTimeout)
	}
}

func TestWriterShortFrameRoundTrip(t *testing.T) {
	ft := newFake(256)
	w := wsframe.NewWriter(ft)
	if err := w.Write(wsframe.OpText, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if len(ft.writes) != 1 {
		t.Fatalf("expected 1 write, got %d", len(ft.writes))
	}
	got := ft.writes[0]
	if got[0] != wsframe.OpText || got[1] != 5 {
		t.Fatalf("header = %x", got[:2])
	}
	if string(got[2:]) != "hello" {
		t.Fatalf("payload = %q", got[2:])
	}
}

func TestWriterExtendedLengthRoundTrip(t *testing.T) {
	ft := newFake(4200)
	w := wsframe.NewWriter(ft)
	payload := bytes.Repeat([]byte("x"), 4096)
	if err := w.Write(wsframe.OpBinary, payload); err != nil {
		t.Fatal(err)
	}
	if len(ft.writes) != 1 {
		t.Fatalf("expected 1 write (payload fits one chunk), got %d", len(ft.writes))
	}
	got := ft.writes[0]
	if got[1] != 126 {
		t.Fatalf("length marker = %d, want 126", got[1])
	}
	n := int(got[2])<<8 | int(got[3])
	if n != len(payload) {
		t.Fatalf("encoded length = %d, want %d", n, len(payload))
	}
}

func TestWriterChunksOversizedPayload(t *testing.T) {
	ft := newFake(200) // small enough that 300 bytes needs more than one frame
	w := wsframe.NewWriter(ft)
	payload := bytes.Repeat([]byte("y"), 300)
	if err := w.Write(wsframe.OpBinary, payload); err != nil {
		t.Fatal(err)
	}
	if len(ft.writes) < 2 {
		t.Fatalf("expected at least 2 chunks for 300 bytes over a 200-byte send buffer, got %d", len(ft.writes))
	}
	var reassembled []byte
	for _, w := range ft.writes {
		if w[1] == 126 {
			reassembled = append(reassembled, w[4:]...)
		} else {
			reassembled = append(reassembled, w[2:]...)
		}
	}
	if !bytes.Equal(reassembled, payload) {
		t.Fatal("reassembled payload does not match original")
	}
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	ft := newFake(256)
	w := wsframe.NewWriter(ft)
	if err := w.Close(1000); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(0); err != nil {
		t.Fatal(err)
	}
	if !ft.closed {
		t.Fatal("expected transport closed")
	}
	if ft.writes[1][1] != 0 {
		t.Fatalf("second close with statusCode 0 should send an empty payload, got len marker %d", ft.writes[1][1])
	}
}
