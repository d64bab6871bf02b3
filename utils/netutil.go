package utils

import (
	"errors"
	"fmt"
	"net"
)

var ErrNoIPv4 = errors.New("no IPv4 on interface")

// IfaceByName returns the named interface if it is up.
func IfaceByName(name string) (*net.Interface, error) {
	ifc, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	if (ifc.Flags & net.FlagUp) == 0 {
		return nil, fmt.Errorf("interface %s is down", name)
	}
	return ifc, nil
}

// FirstIPv4Addr returns the first IPv4 address configured on the named
// interface.
func FirstIPv4Addr(name string) (net.IP, error) {
	ifc, err := IfaceByName(name)
	if err != nil {
		return nil, err
	}
	addrs, err := ifc.Addrs()
	if err != nil {
		return nil, err
	}
	for _, a := range addrs {
		switch v := a.(type) {
		case *net.IPNet:
			if ip := v.IP.To4(); ip != nil {
				return ip, nil
			}
		case *net.IPAddr:
			if ip := v.IP.To4(); ip != nil {
				return ip, nil
			}
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrNoIPv4)
}

// ListenHost turns a --listenip value into something the listener can
// resolve. Addresses and hostnames pass through; an interface name (eth0) is
// replaced by its first IPv4 address.
func ListenHost(s string) string {
	if s == "" || net.ParseIP(s) != nil {
		return s
	}
	if ip, err := FirstIPv4Addr(s); err == nil {
		return ip.String()
	}
	return s
}
