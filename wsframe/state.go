// File: wsframe/state.go
// Package wsframe implements the WebSocket frame reader state machine and
// the zero-copy frame writer: the two halves of the protocol core that run
// once the handshake has upgraded a connection. Only single, unfragmented
// frames (FIN=1) and 16-bit-or-shorter payload lengths are accepted, per
// the opcode constants below (each already carries the FIN bit, matching
// how the frames actually appear on the wire).
package wsframe

const (
	FinBit  byte = 0x80
	MaskBit byte = 0x80

	// OpText/OpBinary/OpClose/OpPing/OpPong are full first-header-byte
	// values (FIN|opcode). A frame with FIN=0 never equals any of these,
	// so the reader's default case naturally rejects fragmentation without
	// a separate FIN check.
	OpText   byte = 0x81
	OpBinary byte = 0x82
	OpClose  byte = 0x88
	OpPing   byte = 0x89
	OpPong   byte = 0x8A
)

// ReadState holds one connection's frame-reader progress: the in-progress
// header, how much of the current frame has been consumed, and any bytes
// read past the frame boundary that belong to the next frame. Its slice
// field (Overflow) aliases into the transport's receive buffer and is only
// valid until the next call to Reader.Read on the same transport.
type ReadState struct {
	Header   [8]byte // [0] FIN+opcode, [1] mask+len7, [2:4] ext len16, mask key follows
	HeaderIx int     // cursor while accumulating Header

	FrameLen  int
	BytesRead int
	MaskIx    int // offset into Header where the 4-byte mask key starts (2 or 4)

	Overflow  []byte
	IsTimeout bool
}
