// File: handshake/handshake.go
// Package handshake implements the HTTP request parser and WebSocket
// upgrade responder: the two halves of the Minnow-class handshake. Parse
// accumulates bytes off the transport until the blank-line terminator
// arrives and splits out the request line and header table; Respond
// decides between a 401 challenge, a 101 upgrade, a static-content fetch,
// or a 404, and writes the chosen response through the same transport's
// zero-copy send buffer.
package handshake

import (
	"bytes"
	"crypto/sha1"

	"github.com/wsedge/minnow-go/byteutil"
	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/wserr"
)

// webSocketGUID is appended to the client's Sec-WebSocket-Key before
// SHA-1 hashing, per RFC 6455 section 1.3.
const webSocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// MaxHeaders bounds the header table: the 21st header line aborts
// the handshake with ErrHTTPHeaderOverflow rather than growing anything.
const MaxHeaders = 20

var (
	httpEndMarker = []byte("\r\n\r\n")
	crlf          = []byte("\r\n")
)

// FetchPageFunc serves static content for a plain HTTP GET that never
// upgrades. Implementations write their response into t.SendBuffer()
// (byteutil.RespCT is the usual way) and flush it themselves; the bool
// return reports whether the request was handled (found or errored), as
// opposed to "not my path" which falls through to a 404.
type FetchPageFunc func(handle any, t mst.Transport, path []byte) bool

// Config carries handshake behavior that is constant across connections:
// optional HTTP basic auth and an optional static-content callback.
type Config struct {
	// B64Credentials, if non-empty, is the base64("user:pass") value every
	// Authorization header must match exactly or the handshake answers 401.
	B64Credentials []byte
	// Realm names the basic-auth realm in the 401 challenge. Defaults to
	// "SharkSSL" when empty, matching the original library's default.
	Realm string

	FetchPage       FetchPageFunc
	FetchPageHandle any
}

// State holds one handshake attempt's parsed request. Its slice fields
// alias into the transport's receive buffer (the chunk returned by the
// Read that completed the header block) and are only valid until the next
// Read on the same transport — callers must not retain them past the
// phase transition into the WebSocket frame loop.
type State struct {
	RequestLine []byte
	Origin      []byte

	HeaderKeys   [MaxHeaders][]byte
	HeaderValues [MaxHeaders][]byte
	NumHeaders   int

	key         []byte
	auth        []byte
	delayOnSend bool
}

// Parse reads off t until the "\r\n\r\n" header terminator, using scratch
// (the transport's own send buffer) to accumulate the request when it
// spans more than one read — most browsers send it in a single segment,
// the common case taking the fast path with no copy into scratch at all.
// When accumulation into scratch was needed, the completed header block is
// copied back into the most recent recv chunk before returning, since
// scratch aliases the send buffer and Respond is about to overwrite it
// assembling the HTTP response. It then splits the request line from the
// header table and classifies Authorization/Origin/Sec-WebSocket-Key/
// User-Agent exactly as the handshake responder needs.
func Parse(t mst.Transport, scratch []byte) (*State, error) {
	var headerBlock []byte
	var sbuf []byte
	var lastRbuf []byte
	written := 0

	for {
		rbuf, err := t.Read(100)
		if err != nil {
			return nil, err
		}
		if len(rbuf) == 0 {
			return nil, wserr.ErrReadTimeout
		}
		lastRbuf = rbuf

		if sbuf == nil {
			if idx := bytes.Index(rbuf, httpEndMarker); idx >= 0 {
				headerBlock = rbuf[:idx+len(httpEndMarker)]
				break
			}
			sbuf = scratch
		}

		if written+len(rbuf) > len(sbuf) {
			return nil, wserr.ErrHTTPHeaderOverflow
		}
		written += copy(sbuf[written:], rbuf)
		if idx := bytes.Index(sbuf[:written], httpEndMarker); idx >= 0 {
			blockLen := idx + len(httpEndMarker)
			dst := lastRbuf[:cap(lastRbuf)]
			if blockLen > len(dst) {
				return nil, wserr.ErrHTTPHeaderOverflow
			}
			n := copy(dst, sbuf[:blockLen])
			headerBlock = dst[:n]
			break
		}
	}

	st := &State{}
	if err := st.splitHeaders(headerBlock); err != nil {
		return nil, err
	}
	st.classify()
	return st, nil
}

func (st *State) splitHeaders(block []byte) error {
	pos := 0
	for pos < len(block) {
		idx := bytes.Index(block[pos:], crlf)
		if idx < 0 {
			break
		}
		line := block[pos : pos+idx]
		pos += idx + len(crlf)
		if len(line) == 0 {
			break
		}
		if st.RequestLine == nil {
			st.RequestLine = line
			continue
		}
		if st.NumHeaders == MaxHeaders {
			return wserr.ErrHTTPHeaderOverflow
		}
		key, val := splitKeyVal(line)
		st.HeaderKeys[st.NumHeaders] = key
		st.HeaderValues[st.NumHeaders] = val
		st.NumHeaders++
	}
	if st.RequestLine == nil {
		return wserr.ErrInvalidHTTP
	}
	return nil
}

func splitKeyVal(line []byte) (key, val []byte) {
	idx := bytes.IndexByte(line, ':')
	if idx < 0 {
		return line, nil
	}
	key = line[:idx]
	v := line[idx+1:]
	for len(v) > 0 && v[0] == ' ' {
		v = v[1:]
	}
	return key, v
}

// classify scans the header table for the four values the responder
// needs, matching on the first byte the way the original C switches on
// it, then confirming with a case-insensitive substring check.
func (st *State) classify() {
	for i := 0; i < st.NumHeaders; i++ {
		k := st.HeaderKeys[i]
		if len(k) == 0 {
			continue
		}
		switch k[0] {
		case 'A', 'a':
			if st.auth == nil && byteutil.ContainsCaseInsensitive(k, []byte("Authorization")) {
				st.auth = st.HeaderValues[i]
			}
		case 'O', 'o':
			if st.Origin == nil && byteutil.ContainsCaseInsensitive(k, []byte("Origin")) {
				st.Origin = st.HeaderValues[i]
			}
		case 'S', 's':
			if st.key == nil && byteutil.ContainsCaseInsensitive(k, []byte("Sec-WebSocket-Key")) {
				st.key = st.HeaderValues[i]
			}
		case 'U', 'u':
			if byteutil.ContainsCaseInsensitive(k, []byte("User-Agent")) &&
				byteutil.ContainsCaseInsensitive(st.HeaderValues[i], []byte("Safari")) {
				st.delayOnSend = true
			}
		}
	}
}

var (
	respUnauthorized = []byte("HTTP/1.0 401 Unauthorized\r\nContent-Length: 21\r\nWWW-Authenticate: Basic realm=\"")
	unauthorizedBody = []byte("<h1>Unauthorized</h1>")
	respUpgrade      = []byte("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Accept: ")
	respNotFound     = []byte("HTTP/1.0 404 Not Found\r\nContent-Length: 18")
	notFoundBody     = []byte("<h1>Not Found</h1>")
	defaultRealm     = []byte("SharkSSL")
)

// checkCredentials reports whether auth satisfies cfg's basic-auth
// requirement. With no B64Credentials configured, every request passes.
// Otherwise auth must carry a scheme token (e.g. "Basic") followed by
// whitespace and then exactly cfg.B64Credentials.
func checkCredentials(cfg *Config, auth []byte) bool {
	if len(cfg.B64Credentials) == 0 {
		return true
	}
	if auth == nil {
		return false
	}
	i := 0
	for i < len(auth) && auth[i] != ' ' {
		i++
	}
	for i < len(auth) && auth[i] == ' ' {
		i++
	}
	rest := auth[i:]
	return len(rest) > 0 && bytes.Equal(rest, cfg.B64Credentials)
}

// Respond answers the parsed request: a 401 challenge when credentials are
// required and missing or wrong, a 101 upgrade when Sec-WebSocket-Key was
// present and credentials (if any) checked out, otherwise an attempt at
// cfg.FetchPage for a GET request and a 404 when that doesn't apply. A nil
// return means the connection upgraded to WebSocket; any other return
// (including wserr.ErrNotWebSocket) means the caller should close and move
// on to the next accept.
func Respond(t mst.Transport, st *State, cfg *Config) error {
	if !checkCredentials(cfg, st.auth) {
		if err := respondUnauthorized(t, cfg); err != nil {
			return err
		}
		return wserr.ErrAuthentication
	}
	if st.key != nil {
		return respondUpgrade(t, st.key)
	}
	return respondHTTP(t, st, cfg)
}

func respondUnauthorized(t mst.Transport, cfg *Config) error {
	realm := defaultRealm
	if cfg.Realm != "" {
		realm = []byte(cfg.Realm)
	}
	b := byteutil.NewBuilder(t.SendBuffer())
	if err := b.Bytes(respUnauthorized); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(realm); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes([]byte(`"`)); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(byteutil.HTTPEOR()); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(unauthorizedBody); err != nil {
		return wserr.ErrAlloc
	}
	return flush(t, b.Written())
}

func respondUpgrade(t mst.Transport, key []byte) error {
	h := sha1.New()
	h.Write(key)
	h.Write([]byte(webSocketGUID))
	digest := h.Sum(nil)

	b := byteutil.NewBuilder(t.SendBuffer())
	if err := b.Bytes(respUpgrade); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Base64(digest); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(crlf); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(crlf); err != nil {
		return wserr.ErrAlloc
	}
	return flush(t, b.Written())
}

// respondHTTP handles everything that isn't a WebSocket upgrade: a GET
// request is offered to cfg.FetchPage, and anything that callback doesn't
// claim (or the absence of a callback, or a non-GET method) gets a bare
// 404. Either way the terminal error is ErrNotWebSocket so the caller
// knows this connection will not proceed to the frame loop.
func respondHTTP(t mst.Transport, st *State, cfg *Config) error {
	if cfg.FetchPage != nil && isGet(st.RequestLine) {
		if path := getPath(st.RequestLine); path != nil {
			if cfg.FetchPage(cfg.FetchPageHandle, t, path) {
				if st.delayOnSend {
					// Safari user agents: one further Read of up to 300ms
					// follows a handled static response before returning.
					t.Read(300)
				}
				return wserr.ErrNotWebSocket
			}
		}
	}

	b := byteutil.NewBuilder(t.SendBuffer())
	if err := b.Bytes(respNotFound); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(byteutil.HTTPEOR()); err != nil {
		return wserr.ErrAlloc
	}
	if err := b.Bytes(notFoundBody); err != nil {
		return wserr.ErrAlloc
	}
	if err := flush(t, b.Written()); err != nil {
		return err
	}
	return wserr.ErrNotWebSocket
}

func isGet(requestLine []byte) bool {
	return len(requestLine) >= 3 && requestLine[0] == 'G' && requestLine[1] == 'E' && requestLine[2] == 'T'
}

// getPath extracts the request target from a "GET /path HTTP/1.1"
// request line.
func getPath(requestLine []byte) []byte {
	p := requestLine[3:]
	for len(p) > 0 && p[0] == ' ' {
		p = p[1:]
	}
	i := 0
	for i < len(p) && p[i] != ' ' {
		i++
	}
	if i == 0 {
		return nil
	}
	return p[:i]
}

func flush(t mst.Transport, written []byte) error {
	return t.Write(nil, len(written))
}
