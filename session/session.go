// File: session/session.go
// Package session ties the handshake and frame layers into MS: the single
// per-connection state machine — one transport, one phase (handshake or
// open), and — once open — the frame reader/writer
// pair that drives the rest of the connection's life. There is never more
// than one MS alive per transport and nothing here spawns a goroutine;
// WebServer and Serve both run to completion in the caller's own
// goroutine, matching the single-threaded cooperative model the frame and
// handshake layers already assume.
package session

import (
	"github.com/wsedge/minnow-go/handshake"
	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/wsframe"
)

// Phase tracks which half of the connection's life MS is in.
type Phase int

const (
	PhaseHandshake Phase = iota
	PhaseOpen
)

// Handler processes one upgraded connection's WebSocket messages. opcode
// is the full first-header-byte value (wsframe.OpText or wsframe.OpBinary
// — Read never surfaces control frames), payload is only valid until the
// next call to ms.Read. Returning a non-nil error ends Serve's loop; the
// transport is not closed automatically, the caller decides.
type Handler interface {
	HandleMessage(ms *MS, opcode byte, payload []byte) error
}

// MS is one connection's full state: the transport, which phase it's in,
// and — once upgraded — the frame reader/writer. State is non-nil only
// during PhaseHandshake and is discarded the moment the connection
// upgrades, so the pointer-aliasing hazard between the handshake scratch
// buffer and the frame loop's own state cannot resurface after the
// transition.
type MS struct {
	Transport mst.Transport
	Phase     Phase
	State     *handshake.State

	cfg    *handshake.Config
	rs     *wsframe.ReadState
	writer *wsframe.Writer
	reader *wsframe.Reader
}

// New returns an MS in PhaseHandshake, ready for WebServer.
func New(t mst.Transport, cfg *handshake.Config) *MS {
	return &MS{Transport: t, Phase: PhaseHandshake, cfg: cfg}
}

// WebServer runs one handshake attempt to completion, using scratch as
// handshake.Parse's accumulation buffer. A nil return means the
// connection upgraded to WebSocket and ms has moved to PhaseOpen, ready
// for Read/Write/Serve; any other return (wserr.ErrAuthentication,
// wserr.ErrNotWebSocket, or a lower-level transport/parse failure) means
// the connection will not upgrade and the caller should close the
// transport and move on to the next accept. For wserr.ErrAuthentication
// and wserr.ErrNotWebSocket the HTTP response has already been written;
// a parse failure writes no response.
func (ms *MS) WebServer(scratch []byte) error {
	st, err := handshake.Parse(ms.Transport, scratch)
	if err != nil {
		return err
	}
	ms.State = st
	if err := handshake.Respond(ms.Transport, st, ms.cfg); err != nil {
		return err
	}
	ms.upgrade()
	return nil
}

func (ms *MS) upgrade() {
	ms.State = nil
	ms.Phase = PhaseOpen
	ms.rs = &wsframe.ReadState{}
	ms.writer = wsframe.NewWriter(ms.Transport)
	ms.reader = wsframe.NewReader(ms.Transport, ms.writer, ms.rs)
}

// Read returns the next Text/Binary payload, exactly as wsframe.Reader.Read
// does — nil, nil on timeout, a non-nil error on close or protocol
// violation (with the Close frame already sent). Valid only in PhaseOpen.
func (ms *MS) Read(timeoutMS int) ([]byte, error) {
	return ms.reader.Read(timeoutMS)
}

// PrepSend, Send, Write and Close delegate to the frame writer bound to
// this connection's transport; see wsframe.Writer for the zero-copy
// reserve/commit contract.
func (ms *MS) PrepSend(extended bool) []byte        { return ms.writer.PrepSend(extended) }
func (ms *MS) Send(opcode byte, n int) error        { return ms.writer.Send(opcode, n) }
func (ms *MS) Write(opcode byte, data []byte) error { return ms.writer.Write(opcode, data) }
func (ms *MS) Close(statusCode int) error           { return ms.writer.Close(statusCode) }

// Serve runs the frame loop against h until Read returns a non-nil error,
// which Serve returns to its caller after the Writer has already sent the
// matching Close frame (Read's own contract). A timed-out Read (readTimeoutMS
// elapsed with nothing received) loops back around rather than ending the
// connection — callers that want an idle timeout should track elapsed time
// across iterations themselves.
func (ms *MS) Serve(h Handler, readTimeoutMS int) error {
	for {
		payload, err := ms.reader.Read(readTimeoutMS)
		if err != nil {
			return err
		}
		if ms.rs.IsTimeout {
			continue
		}
		if err := h.HandleMessage(ms, ms.rs.Header[0], payload); err != nil {
			return err
		}
	}
}
