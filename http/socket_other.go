//go:build !unix

package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

// listenTCP falls back to the runtime, which picks the backlog itself.
func listenTCP(ctx context.Context, addr *net.TCPAddr, _ int) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr.String())
	if err != nil {
		var sysErr *os.SyscallError
		if errors.As(err, &sysErr) && sysErr.Syscall == "socket" {
			return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
		}
		return nil, fmt.Errorf("%w %q: %w", ErrBind, addr.String(), err)
	}
	return ln, nil
}
