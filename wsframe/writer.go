// File: wsframe/writer.go
package wsframe

import (
	"encoding/binary"

	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/wserr"
)

// Writer assembles outbound frames directly in the transport's send
// buffer and flushes them with the zero-copy Write(nil, n) call — no
// intermediate buffer is ever allocated or copied through.
type Writer struct {
	t        mst.Transport
	extended bool // set by the most recent PrepSend; read back by Send
}

// NewWriter returns a Writer bound to t's send buffer.
func NewWriter(t mst.Transport) *Writer {
	return &Writer{t: t}
}

// PrepSend reserves the frame header region at the front of the send
// buffer and returns the remaining capacity for the caller to fill with
// payload bytes in place. Pass extended=true when the payload will be 126
// bytes or longer (engages the 16-bit extended-length header form);
// otherwise the short 7-bit form is used and the payload must fit in 125
// bytes. The choice here must match the length later passed to Send.
func (w *Writer) PrepSend(extended bool) []byte {
	buf := w.t.SendBuffer()
	w.extended = extended
	if extended {
		return buf[4:]
	}
	return buf[2:]
}

// Send finalizes the header for the n bytes of payload already written
// into the slice PrepSend returned, and flushes the frame. opcode must
// carry the FIN bit (OpText, OpBinary, OpClose, OpPing or OpPong).
func (w *Writer) Send(opcode byte, n int) error {
	buf := w.t.SendBuffer()
	buf[0] = opcode
	var total int
	if w.extended {
		if n < 126 {
			return wserr.ErrBufUnderflow
		}
		if n > 0xFFFF {
			return wserr.ErrBufOverflow
		}
		buf[1] = 126
		binary.BigEndian.PutUint16(buf[2:4], uint16(n))
		total = n + 4
	} else {
		if n > 125 {
			return wserr.ErrBufOverflow
		}
		buf[1] = byte(n)
		total = n + 2
	}
	return w.t.Write(nil, total)
}

// Write sends data as one or more frames of opcode, chunking it to fit the
// send buffer. Each chunk is sent as its own complete frame (FIN=1,
// opcode repeated) — there is no continuation-frame support, matching the
// reader's rejection of fragmented frames.
func (w *Writer) Write(opcode byte, data []byte) error {
	remaining := data
	for {
		extended := len(remaining) > 125
		payload := w.PrepSend(extended)
		chunk := len(remaining)
		if chunk > len(payload) {
			chunk = len(payload)
		}
		if extended && chunk < 126 {
			// Too little room for an extended-form chunk: send up to 125
			// bytes in the short form instead.
			payload = w.PrepSend(false)
			chunk = 125
			if chunk > len(payload) {
				chunk = len(payload)
			}
		}
		copy(payload, remaining[:chunk])
		if err := w.Send(opcode, chunk); err != nil {
			return err
		}
		remaining = remaining[chunk:]
		if len(remaining) == 0 {
			return nil
		}
	}
}

// Close sends a Close control frame (with a 2-byte RFC 6455 status code
// when statusCode is non-zero, or an empty payload otherwise) and closes
// the underlying transport. Safe to call more than once.
func (w *Writer) Close(statusCode int) error {
	buf := w.PrepSend(false)
	n := 0
	if statusCode != 0 {
		binary.BigEndian.PutUint16(buf[:2], uint16(statusCode))
		n = 2
	}
	sendErr := w.Send(OpClose, n)
	closeErr := w.t.Close()
	if sendErr != nil {
		return sendErr
	}
	return closeErr
}
