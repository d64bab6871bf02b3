//go:build unix

package httpx

import (
	"context"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// listenTCP walks socket(2), setsockopt(2), bind(2) and listen(2) itself so
// each step maps to its own error and the backlog is the one we asked for.
func listenTCP(_ context.Context, addr *net.TCPAddr, backlog int) (net.Listener, error) {
	family, sa, err := sockaddr(addr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrBind, addr.String(), err)
	}

	fd, err := newSocket(family)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, os.NewSyscallError("setsockopt", err))
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w %q: %w", ErrBind, addr.String(), os.NewSyscallError("bind", err))
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w %q: %w", ErrListen, addr.String(), os.NewSyscallError("listen", err))
	}

	// FileListener dups the descriptor into the runtime poller.
	f := os.NewFile(uintptr(fd), "tcp:"+addr.String())
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
	}
	return ln, nil
}

func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil || addr.IP == nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		if ip4 != nil {
			copy(sa.Addr[:], ip4)
		}
		return unix.AF_INET, sa, nil
	}

	ip6 := addr.IP.To16()
	if ip6 == nil {
		return 0, nil, fmt.Errorf("invalid IP %v", addr.IP)
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip6)
	if addr.Zone != "" {
		ifc, err := net.InterfaceByName(addr.Zone)
		if err != nil {
			return 0, nil, err
		}
		sa.ZoneId = uint32(ifc.Index)
	}
	return unix.AF_INET6, sa, nil
}
