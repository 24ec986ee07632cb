// File: arena/arena.go
// Package arena implements a flat bump allocator over one caller-supplied
// byte slice: Alloc carves off the next n bytes and advances a cursor,
// Reset rewinds the cursor to the start. There is no free list and no
// per-allocation bookkeeping, matching the single-threaded, no-concurrent-
// use scope this kind of scratch arena is meant for (static JSON
// responses, per-request scratch that lives no longer than one handshake
// or one frame) — not a general-purpose concurrent buffer pool, which
// would serve a multi-connection server this module deliberately isn't.
package arena

import "github.com/wsedge/minnow-go/wserr"

// Arena bump-allocates out of a fixed backing slice.
type Arena struct {
	buf    []byte
	offset int
}

// New wraps buf as an Arena's backing storage. The caller owns buf's
// lifetime; Arena never grows or reallocates it.
func New(buf []byte) *Arena {
	return &Arena{buf: buf}
}

// Alloc returns the next n bytes of the backing slice and advances the
// cursor. The returned slice is only valid until the next Reset.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n < 0 || a.offset+n > len(a.buf) {
		return nil, wserr.ErrAlloc
	}
	b := a.buf[a.offset : a.offset+n]
	a.offset += n
	return b, nil
}

// Reset rewinds the cursor to the start, making the whole backing slice
// available for reuse. It does not zero the bytes.
func (a *Arena) Reset() {
	a.offset = 0
}

// Len reports how many bytes have been allocated since the last Reset.
func (a *Arena) Len() int { return a.offset }

// Cap reports the arena's total backing capacity.
func (a *Arena) Cap() int { return len(a.buf) }
