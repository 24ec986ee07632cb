// File: mst/sockopts_linux.go
//go:build linux
// +build linux

package mst

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// applyDefaultSockopts sets TCP_NODELAY on the accepted connection so the
// handshake response and each zero-copy frame flush go out as their own
// segment instead of waiting on Nagle's algorithm — grounded on the
// teacher's linuxTransport setup in internal/transport/transport_linux.go,
// stripped of the NUMA-aware buffer pool and raw-fd batch I/O that have no
// place in a single-connection, caller-buffer model.
func applyDefaultSockopts(conn net.Conn) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return
	}
	raw.Control(func(fd uintptr) {
		_ = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	})
}
