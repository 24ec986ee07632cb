// File: mst/transport.go
// Package mst implements the MST (Minnow Server Transmission) abstraction:
// a uniform read/write interface over either a plain TCP socket with
// caller-owned buffers, or a TLS session with transport-owned scratch buffers.
// Handshake and frame code never branch on which mode is live.
package mst

import "github.com/wsedge/minnow-go/wserr"

// MinSendBufferSize is the floor the zero-copy frame writer relies on: two
// bytes of short-form header plus the largest control-frame payload (125
// bytes) must always fit, with headroom. Below this the writer can never
// produce a valid frame and handshake response assembly may also fail.
const MinSendBufferSize = 128

// Transport unifies plain TCP and TLS connections behind one interface so
// the handshake parser/responder and the WebSocket frame reader/writer
// never need to know which mode backs a given connection.
type Transport interface {
	// SendBuffer returns the transport's outbound scratch buffer. In plain
	// mode this is the caller-supplied send buffer; in TLS mode it is a
	// scratch buffer owned by the TLSTransport, sized to fit one WebSocket
	// frame before being flushed through the TLS record layer. Callers
	// write frame or response bytes directly into this slice and then call
	// Write(nil, n) to flush — the zero-copy contract.
	SendBuffer() []byte

	// Read blocks for up to timeoutMS milliseconds and returns newly
	// received bytes. A nil/empty slice with a nil error means the
	// deadline elapsed with nothing received (timeout); a non-nil error
	// means the connection failed. The returned slice is only valid until
	// the next call to Read.
	Read(timeoutMS int) ([]byte, error)

	// Write sends n bytes from buf, or from SendBuffer() when buf is
	// nil (the zero-copy flush path).
	Write(buf []byte, n int) error

	// Close releases the underlying socket. Idempotent.
	Close() error
}

func wrapReadErr(err error) error {
	return wserr.New(wserr.CodeRead, "transport read failed").WithContext("cause", err.Error())
}

func wrapWriteErr(err error) error {
	return wserr.New(wserr.CodeWrite, "transport write failed").WithContext("cause", err.Error())
}

func wrapSSLErr(err error) error {
	return wserr.New(wserr.CodeSSLHandshake, "TLS handshake failed").WithContext("cause", err.Error())
}
