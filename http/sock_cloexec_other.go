//go:build unix && !(linux || dragonfly || freebsd || netbsd || openbsd || solaris || illumos)

package httpx

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// newSocket creates a TCP socket and marks it close-on-exec. Without
// SOCK_CLOEXEC the two steps run under ForkLock so no child inherits it.
func newSocket(family int) (int, error) {
	syscall.ForkLock.RLock()
	defer syscall.ForkLock.RUnlock()
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)
	return fd, nil
}
