//go:build linux || dragonfly || freebsd || netbsd || openbsd || solaris || illumos

package httpx

import (
	"os"

	"golang.org/x/sys/unix"
)

// newSocket creates a TCP socket that is close-on-exec from the start.
func newSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}
