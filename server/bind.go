// File: server/bind.go
package server

import (
	"fmt"
	"net"

	"github.com/eapache/queue"
)

// DefaultPorts is the candidate range an embedded deployment of this
// server tries in order when the usual port is already taken by another
// process on the same device — 9442 through 9459, picked to sit well
// clear of any well-known service range.
var DefaultPorts = []int{9442, 9443, 9444, 9445, 9446, 9447, 9448, 9449,
	9450, 9451, 9452, 9453, 9454, 9455, 9456, 9457, 9458, 9459}

// Bind tries each of ports in order against addrPrefix (a host or empty
// string for all interfaces) and returns the first successful listener.
// Ports are held in a FIFO so the retry order is exactly the order given,
// not whatever order a map or slice-shrinking loop would produce.
func Bind(addrPrefix string, ports ...int) (net.Listener, error) {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	q := queue.New()
	for _, p := range ports {
		q.Add(p)
	}

	var lastErr error
	for q.Length() > 0 {
		port := q.Remove().(int)
		addr := fmt.Sprintf("%s:%d", addrPrefix, port)
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			return ln, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("server: no candidate port available out of %v: %w", ports, lastErr)
}
