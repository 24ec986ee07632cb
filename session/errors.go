// File: session/errors.go
package session

import "github.com/wsedge/minnow-go/wserr"

// Error and ErrorCode alias wserr's taxonomy so call sites at this layer
// can spell session.Error/session.ErrorCode without session constructing
// its own copy — see DESIGN.md for why the type itself lives in wserr.
type Error = wserr.Error
type ErrorCode = wserr.ErrorCode

const (
	CodeNone               = wserr.CodeNone
	CodeAlloc              = wserr.CodeAlloc
	CodeAuthentication     = wserr.CodeAuthentication
	CodeHTTPHeaderOverflow = wserr.CodeHTTPHeaderOverflow
	CodeInvalidHTTP        = wserr.CodeInvalidHTTP
	CodeNotWebSocket       = wserr.CodeNotWebSocket
	CodeRead               = wserr.CodeRead
	CodeReadTimeout        = wserr.CodeReadTimeout
	CodeSSLHandshake       = wserr.CodeSSLHandshake
	CodeWrite              = wserr.CodeWrite
	CodeBufOverflow        = wserr.CodeBufOverflow
	CodeBufUnderflow       = wserr.CodeBufUnderflow
)

// Is reports whether err is a *Error with the given code.
func Is(err error, code ErrorCode) bool {
	return wserr.Is(err, code)
}
