// File: wserr/wserr.go
// Package wserr defines the structured error taxonomy shared by mst,
// handshake, wsframe and session. It lives in its own leaf package so that
// every layer of the core can return and compare these errors without
// introducing an import cycle back through session.
package wserr

import "fmt"

// ErrorCode enumerates the error taxonomy from the handshake/frame
// design: each value below other than CodeNone corresponds to one of the
// (negative-integer) MS_ERR_* codes in the original MinnowServer library.
type ErrorCode int

const (
	CodeNone ErrorCode = iota
	CodeAlloc
	CodeAuthentication
	CodeHTTPHeaderOverflow
	CodeInvalidHTTP
	CodeNotWebSocket
	CodeRead
	CodeReadTimeout
	CodeSSLHandshake
	CodeWrite
	CodeBufOverflow
	CodeBufUnderflow
)

func (c ErrorCode) String() string {
	switch c {
	case CodeAlloc:
		return "Alloc"
	case CodeAuthentication:
		return "Authentication"
	case CodeHTTPHeaderOverflow:
		return "HttpHeaderOverflow"
	case CodeInvalidHTTP:
		return "InvalidHttp"
	case CodeNotWebSocket:
		return "NotWebSocket"
	case CodeRead:
		return "Read"
	case CodeReadTimeout:
		return "ReadTimeout"
	case CodeSSLHandshake:
		return "SslHandshake"
	case CodeWrite:
		return "Write"
	case CodeBufOverflow:
		return "BufOverflow"
	case CodeBufUnderflow:
		return "BufUnderflow"
	default:
		return "None"
	}
}

// Error is a structured error carrying a code and optional diagnostic
// context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// WithContext attaches a diagnostic key/value pair and returns e for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New constructs an *Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinel errors for the error taxonomy. Each is a
// package-level *Error so callers can compare .Code directly, or wrap
// a lower-level cause with WithContext for diagnostics.
var (
	ErrAlloc              = New(CodeAlloc, "transport send buffer too small for response assembly")
	ErrAuthentication     = New(CodeAuthentication, "basic auth credentials did not match")
	ErrHTTPHeaderOverflow = New(CodeHTTPHeaderOverflow, "too many headers or header block exceeds scratch buffer")
	ErrInvalidHTTP        = New(CodeInvalidHTTP, "missing HTTP request line")
	ErrNotWebSocket       = New(CodeNotWebSocket, "request handled but did not upgrade to WebSocket")
	ErrRead               = New(CodeRead, "transport read failed")
	ErrReadTimeout        = New(CodeReadTimeout, "transport read timed out")
	ErrSSLHandshake       = New(CodeSSLHandshake, "TLS handshake failed")
	ErrWrite              = New(CodeWrite, "transport write failed")
	ErrBufOverflow        = New(CodeBufOverflow, "prep_send/send length exceeds reserved frame form")
	ErrBufUnderflow       = New(CodeBufUnderflow, "prep_send/send length underflows reserved extended form")
)

// Is reports whether err is a *Error with the given code, so callers can
// write wserr.Is(err, wserr.CodeReadTimeout) instead of type-asserting.
func Is(err error, code ErrorCode) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}
