// File: wsframe/reader.go
package wsframe

import (
	"encoding/binary"

	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/wserr"
)

// Reader drives ReadState off a transport, unmasking payload bytes in
// place and answering control frames (Ping/Close) through a Writer bound
// to the same transport, without ever returning control frames to the
// caller as application data.
type Reader struct {
	t  mst.Transport
	w  *Writer
	rs *ReadState
}

// NewReader returns a Reader over t, using w to answer Ping/Close frames
// and rs to persist state across calls.
func NewReader(t mst.Transport, w *Writer, rs *ReadState) *Reader {
	return &Reader{t: t, w: w, rs: rs}
}

// Read returns the next chunk of Text/Binary payload data. A nil slice
// with a nil error means the read timed out (rs.IsTimeout is set); ping
// and pong frames are handled transparently and never surface here; a
// close frame or protocol violation is reported as a non-nil error and
// the caller should stop reading and tear the connection down — the
// Writer has already sent the corresponding Close frame by the time this
// function returns such an error.
func (r *Reader) Read(timeoutMS int) ([]byte, error) {
	var ctrlBuf []byte
	for {
		payload, err := r.rawRead(timeoutMS)
		if err != nil {
			return nil, err
		}
		if r.rs.IsTimeout {
			return nil, nil
		}

		switch r.rs.Header[0] {
		case OpText, OpBinary:
			return payload, nil

		case OpClose:
			code := 1000
			if len(payload) >= 2 {
				code = int(binary.BigEndian.Uint16(payload[:2]))
			}
			r.w.Close(1000)
			return nil, wserr.New(wserr.CodeRead, "peer closed the connection").
				WithContext("rfc6455Code", code)

		case OpPing, OpPong:
			if r.rs.FrameLen > 125 {
				return nil, r.protocolClose(1002)
			}
			if ctrlBuf == nil {
				ctrlBuf = r.w.PrepSend(false)
			}
			if r.rs.FrameLen > 0 {
				copy(ctrlBuf[r.rs.BytesRead-len(payload):], payload)
				if r.rs.BytesRead < r.rs.FrameLen {
					continue
				}
			}
			if r.rs.Header[0] == OpPing {
				if err := r.w.Send(OpPong, r.rs.FrameLen); err != nil {
					return nil, err
				}
			}
			continue

		default:
			code := 1008
			if r.rs.Header[0]&FinBit != 0 {
				code = 1002
			}
			return nil, r.protocolClose(code)
		}
	}
}

func (r *Reader) protocolClose(rfcCode int) error {
	r.w.Close(rfcCode)
	return wserr.New(wserr.CodeRead, "websocket protocol violation").
		WithContext("rfc6455Code", rfcCode)
}

// rawRead accumulates the current frame's header (if not already
// complete), unmasks as much payload as is available from this read, and
// carries any bytes read past the frame boundary forward as Overflow for
// the next call. It never interprets opcodes — that's Read's job.
func (r *Reader) rawRead(timeoutMS int) ([]byte, error) {
	rs := r.rs
	rs.IsTimeout = false

	var ptr []byte
	if rs.Overflow != nil {
		ptr = rs.Overflow
		rs.Overflow = nil
	} else {
		data, err := r.t.Read(timeoutMS)
		if err != nil {
			if rs.HeaderIx > 0 && rs.Header[0] == OpClose {
				rs.HeaderIx = 0
				return nil, nil
			}
			return nil, err
		}
		if len(data) == 0 {
			rs.IsTimeout = true
			return nil, nil
		}
		ptr = data
	}

	newFrame := false
	for rs.HeaderIx < 6 || (rs.HeaderIx < 8 && (rs.Header[1]&0x7F) > 125) {
		if len(ptr) == 0 {
			data, err := r.t.Read(timeoutMS)
			if err != nil {
				if rs.HeaderIx > 0 && rs.Header[0] == OpClose {
					rs.HeaderIx = 0
					return nil, nil
				}
				return nil, err
			}
			if len(data) == 0 {
				rs.IsTimeout = true
				return nil, nil
			}
			ptr = data
		}
		newFrame = true
		rs.Header[rs.HeaderIx] = ptr[0]
		rs.HeaderIx++
		ptr = ptr[1:]
	}

	if newFrame {
		if rs.Header[1]&MaskBit == 0 {
			return nil, r.protocolClose(1002)
		}
		rs.BytesRead = 0
		if rs.HeaderIx == 6 {
			rs.FrameLen = int(rs.Header[1] & 0x7F)
			rs.MaskIx = 2
		} else {
			if rs.Header[1]&0x7F > 126 {
				return nil, r.protocolClose(1009)
			}
			rs.FrameLen = int(binary.BigEndian.Uint16(rs.Header[2:4]))
			rs.MaskIx = 4
		}
	}

	avail := len(ptr)
	maxlen := rs.BytesRead + avail
	if maxlen > rs.FrameLen {
		maxlen = rs.FrameLen
	}
	consumed := maxlen - rs.BytesRead
	for i := 0; i < consumed; i++ {
		ptr[i] ^= rs.Header[rs.MaskIx+((rs.BytesRead+i)&3)]
	}
	payload := ptr[:consumed]

	rs.BytesRead += avail
	if rs.BytesRead >= rs.FrameLen {
		if rs.BytesRead > rs.FrameLen {
			overflowLen := rs.BytesRead - rs.FrameLen
			rs.BytesRead = rs.FrameLen
			rs.Overflow = ptr[consumed : consumed+overflowLen]
		}
		rs.HeaderIx = 0
	}
	return payload, nil
}
