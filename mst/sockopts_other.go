// File: mst/sockopts_other.go
//go:build !linux
// +build !linux

package mst

import "net"

// applyDefaultSockopts is a no-op outside Linux: non-Linux targets fall
// back to whatever Nagle behavior the platform's net package defaults to.
func applyDefaultSockopts(conn net.Conn) {}
