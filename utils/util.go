package utils

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

const (
	MinPort = 1
	MaxPort = 65535
)

// ValidPort reports whether p is a usable TCP/UDP port number.
func ValidPort(p int) bool {
	return p >= MinPort && p <= MaxPort
}

// Port extracts the port from addr. addr can be ":69" or "0.0.0.0:2049".
func Port(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		// try when only ":NNN" present
		if !strings.HasPrefix(addr, ":") {
			return 0, fmt.Errorf("invalid addr %q: %w", addr, err)
		}
		p = addr[1:]
	}
	v, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid port in %q: %w", addr, err)
	}
	if !ValidPort(v) {
		return 0, fmt.Errorf("port %d in %q out of range %d-%d", v, addr, MinPort, MaxPort)
	}
	return v, nil
}

// HostPort joins host and port, bracketing IPv6 literals.
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
