// File: server/serve.go
package server

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/wsedge/minnow-go/handshake"
	"github.com/wsedge/minnow-go/mst"
	"github.com/wsedge/minnow-go/session"
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "server: "+format+"\n", args...)
}

// Serve runs the accept loop on ln, servicing one connection to
// completion before accepting the next — there is no per-connection
// goroutine here, matching the single-connection-at-a-time model the
// protocol core assumes. It returns when Accept fails for a reason other
// than a configured AcceptTimeout (which Serve treats as a chance to loop
// back around, not an error).
func Serve(ln net.Listener, wph *handshake.Config, handler session.Handler, opts ...Option) error {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	tcpLn, hasDeadline := ln.(*net.TCPListener)
	for {
		if hasDeadline && cfg.AcceptTimeout > 0 {
			tcpLn.SetDeadline(time.Now().Add(cfg.AcceptTimeout))
		}
		conn, err := ln.Accept()
		if err != nil {
			if hasDeadline && cfg.AcceptTimeout > 0 {
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					continue
				}
			}
			return err
		}
		logf(cfg, "accepted %s", conn.RemoteAddr())
		serveConn(conn, wph, handler, cfg)
	}
}

// serveConn runs one connection's handshake and, if it upgrades, its
// frame loop, to completion. Any error at either stage ends the
// connection; serveConn never returns one, since a single bad peer must
// never take the accept loop down with it.
func serveConn(conn net.Conn, wph *handshake.Config, handler session.Handler, cfg *Config) {
	defer conn.Close()

	recv := make([]byte, cfg.RecvBufferSize)
	send := make([]byte, cfg.SendBufferSize)
	t, err := mst.NewTCP(conn, recv, send)
	if err != nil {
		logf(cfg, "%s: transport setup failed: %v", conn.RemoteAddr(), err)
		return
	}

	ms := session.New(t, wph)
	if err := ms.WebServer(t.SendBuffer()); err != nil {
		logf(cfg, "%s: handshake ended: %v", conn.RemoteAddr(), err)
		return
	}
	if err := ms.Serve(handler, cfg.ReadTimeoutMS); err != nil {
		logf(cfg, "%s: connection ended: %v", conn.RemoteAddr(), err)
	}
}
