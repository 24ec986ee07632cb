// File: mst/tls.go
// Package mst: the TLS arm of Transport, wrapping a *tls.Conn.
//
// crypto/tls does not expose its internal record buffers the way SharkSSL's
// session object does, so unlike TCPTransport this arm owns a dedicated
// send scratch buffer: frame/response bytes are assembled into it exactly
// as in plain mode, then handed to tls.Conn.Write as one call. This means
// TLS mode pays for one copy at flush time that the plain-TCP arm does not
// — a deliberate, documented deviation (see DESIGN.md); the "write
// in-place, flush with nil" contract at the mst.Transport call sites is
// otherwise identical in both modes, which is the point of having MST
// unify them at all.
package mst

import (
	"crypto/tls"
	"time"
)

// TLSTransport implements Transport over a *tls.Conn.
type TLSTransport struct {
	conn *tls.Conn
	recv []byte
	send []byte
}

// NewTLS wraps conn (already dialed/accepted, handshake not yet performed)
// with an owned recv scratch buffer of recvSize bytes and a send scratch
// buffer of at least MinSendBufferSize bytes.
func NewTLS(conn *tls.Conn, recvSize, sendSize int) (*TLSTransport, error) {
	if sendSize < MinSendBufferSize {
		sendSize = MinSendBufferSize
	}
	return &TLSTransport{
		conn: conn,
		recv: make([]byte, recvSize),
		send: make([]byte, sendSize),
	}, nil
}

// Handshake performs the TLS negotiation with the given millisecond
// deadline, returning wserr.ErrSSLHandshake on failure — the SslHandshake
// error kind for a failed negotiation.
func (t *TLSTransport) Handshake(timeoutMS int) error {
	if timeoutMS > 0 {
		t.conn.SetDeadline(time.Now().Add(time.Duration(timeoutMS) * time.Millisecond))
	}
	if err := t.conn.Handshake(); err != nil {
		return wrapSSLErr(err)
	}
	if timeoutMS > 0 {
		t.conn.SetDeadline(time.Time{})
	}
	return nil
}

func (t *TLSTransport) SendBuffer() []byte { return t.send }

func (t *TLSTransport) Read(timeoutMS int) ([]byte, error) {
	if timeoutMS > 0 {
		t.conn.SetReadDeadline(time.Now().Add(time.Duration(timeoutMS) * time.Millisecond))
	} else {
		t.conn.SetReadDeadline(time.Time{})
	}
	n, err := t.conn.Read(t.recv)
	if err != nil {
		if ne, ok := err.(interface{ Timeout() bool }); ok && ne.Timeout() {
			return nil, nil
		}
		return nil, wrapReadErr(err)
	}
	if n == 0 {
		return nil, nil
	}
	return t.recv[:n], nil
}

func (t *TLSTransport) Write(buf []byte, n int) error {
	if buf == nil {
		buf = t.send
	}
	if n > len(buf) {
		n = len(buf)
	}
	if _, err := t.conn.Write(buf[:n]); err != nil {
		return wrapWriteErr(err)
	}
	return nil
}

func (t *TLSTransport) Close() error { return t.conn.Close() }
