// File: byteutil/byteutil.go
// Package byteutil implements the bounded, allocation-free byte primitives
// the handshake and framing layers build on.
//
// These mirror msstrstrn/msCpAndInc/msi2a/msB64Encode/msRespCT from the
// MinnowServer C library this package's callers were ported from: a
// case-insensitive bounded substring search, a bounded copy-and-advance,
// decimal itoa, and hand-rolled Base64 encoding. None of them allocate;
// all operate on caller-supplied buffers so the handshake and frame layers
// stay on the fixed I/O buffers for their whole lifetime.
package byteutil

import "errors"

// ErrOverflow is returned by CopyAndAdvance, AppendUint, and AppendBase64
// when the destination buffer is too small to hold the result.
var ErrOverflow = errors.New("byteutil: destination buffer overflow")

// IndexCaseInsensitive returns the index of the first case-insensitive
// occurrence of substr within str, or -1 if not found. Unlike strings.Index
// it does not require either argument to be NUL-terminated or otherwise
// well-formed text; it only ever reads str[0:len(str)].
func IndexCaseInsensitive(str []byte, substr []byte) int {
	if len(substr) == 0 {
		return 0
	}
	for i := 0; i < len(str); i++ {
		if lower(str[i]) != lower(substr[0]) {
			continue
		}
		j := 0
		for i+j < len(str) && j < len(substr) {
			if lower(str[i+j]) != lower(substr[j]) {
				break
			}
			j++
		}
		if j == len(substr) {
			return i
		}
	}
	return -1
}

// ContainsCaseInsensitive reports whether substr occurs anywhere in str,
// case-insensitively.
func ContainsCaseInsensitive(str, substr []byte) bool {
	return IndexCaseInsensitive(str, substr) >= 0
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

// CopyAndAdvance copies src into the front of dest and returns the
// remaining (unwritten) tail of dest, for chaining a sequence of appends
// into one fixed buffer without ever allocating. It returns ErrOverflow
// (and a nil slice) if dest is too small for src.
func CopyAndAdvance(dest []byte, src []byte) ([]byte, error) {
	if len(dest) < len(src) {
		return nil, ErrOverflow
	}
	n := copy(dest, src)
	return dest[n:], nil
}

// AppendUint formats n as decimal digits at the front of dest and returns
// the remaining tail, without allocating. It returns ErrOverflow if dest
// cannot hold all the digits.
func AppendUint(dest []byte, n uint32) ([]byte, error) {
	if n == 0 {
		if len(dest) < 1 {
			return nil, ErrOverflow
		}
		dest[0] = '0'
		return dest[1:], nil
	}
	var tmp [10]byte
	i := 0
	for n > 0 && i < len(tmp) {
		tmp[i] = '0' + byte(n%10)
		n /= 10
		i++
	}
	if len(dest) < i {
		return nil, ErrOverflow
	}
	for j := 0; j < i; j++ {
		dest[j] = tmp[i-1-j]
	}
	return dest[i:], nil
}

const b64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// AppendBase64 encodes src as standard Base64 (with '=' padding) at the
// front of dest and returns the remaining tail. It returns ErrOverflow if
// dest is too small for the encoded output.
func AppendBase64(dest []byte, src []byte) ([]byte, error) {
	need := ((len(src) + 2) / 3) * 4
	if len(dest) < need {
		return nil, ErrOverflow
	}
	d := dest
	i := 0
	for ; len(src)-i >= 3; i += 3 {
		d[0] = b64Alphabet[src[i]>>2]
		d[1] = b64Alphabet[(src[i]&0x03)<<4|src[i+1]>>4]
		d[2] = b64Alphabet[(src[i+1]&0x0F)<<2|src[i+2]>>6]
		d[3] = b64Alphabet[src[i+2]&0x3F]
		d = d[4:]
	}
	switch len(src) - i {
	case 2:
		d[0] = b64Alphabet[src[i]>>2]
		d[1] = b64Alphabet[(src[i]&0x03)<<4|src[i+1]>>4]
		d[2] = b64Alphabet[(src[i+1]&0x0F)<<2]
		d[3] = '='
		d = d[4:]
	case 1:
		d[0] = b64Alphabet[src[i]>>2]
		d[1] = b64Alphabet[(src[i]&0x03)<<4]
		d[2] = '='
		d[3] = '='
		d = d[4:]
	}
	return d, nil
}

// httpEOR is appended after every assembled HTTP response that closes the
// connection: a fixed Connection/Server header pair.
var httpEOR = []byte("\r\nConnection: Close\r\nServer: SharkSSL WebSocket Server\r\n\r\n")

// HTTPEOR returns the default close-header block appended to 401/404
// responses and the response-assembly helpers below.
func HTTPEOR() []byte { return httpEOR }

// Builder chains a sequence of CopyAndAdvance/AppendUint/AppendBase64 calls
// into one fixed buffer, tracking the written prefix so callers assembling
// a multi-part response (handshake's 401/101/404 branches) don't each have
// to repeat the dest[:len(dest)-len(rest)] bookkeeping by hand.
type Builder struct {
	buf  []byte
	rest []byte
}

// NewBuilder starts assembling into buf.
func NewBuilder(buf []byte) *Builder {
	return &Builder{buf: buf, rest: buf}
}

// Bytes appends raw bytes.
func (b *Builder) Bytes(src []byte) error {
	rest, err := CopyAndAdvance(b.rest, src)
	if err != nil {
		return err
	}
	b.rest = rest
	return nil
}

// Uint appends n as decimal digits.
func (b *Builder) Uint(n uint32) error {
	rest, err := AppendUint(b.rest, n)
	if err != nil {
		return err
	}
	b.rest = rest
	return nil
}

// Base64 appends src, Base64-encoded.
func (b *Builder) Base64(src []byte) error {
	rest, err := AppendBase64(b.rest, src)
	if err != nil {
		return err
	}
	b.rest = rest
	return nil
}

// Written returns everything appended so far.
func (b *Builder) Written() []byte {
	return b.buf[:len(b.buf)-len(b.rest)]
}

// RespCT assembles a bare "HTTP/1.0 200 OK\r\nContent-Length: N" response,
// an optional caller-supplied extra header block, and the default close
// headers, into dest. It is the byte-level equivalent of msRespCT and backs
// the host-exposed MS_resp_ct operation used by static-page FetchPage
// callbacks.
func RespCT(dest []byte, contentLen int, extHeader []byte) ([]byte, error) {
	rest, err := CopyAndAdvance(dest, []byte("HTTP/1.0 200 OK\r\nContent-Length: "))
	if err != nil {
		return nil, err
	}
	rest, err = AppendUint(rest, uint32(contentLen))
	if err != nil {
		return nil, err
	}
	if extHeader != nil {
		rest, err = CopyAndAdvance(rest, extHeader)
		if err != nil {
			return nil, err
		}
	}
	rest, err = CopyAndAdvance(rest, httpEOR)
	if err != nil {
		return nil, err
	}
	return dest[:len(dest)-len(rest)], nil
}
