package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"simple-webserver/utils"
)

// DefaultBacklog matches the queue length the server has always used.
const DefaultBacklog = 3

type ListenOptions struct {
	Backlog int // pending connection queue, DefaultBacklog when <= 0
}

// Listener owns the bound, listening TCP socket.
type Listener struct {
	ln        net.Listener
	closeOnce sync.Once
	closeErr  error
}

// Open resolves address:port, creates a stream socket with SO_REUSEADDR,
// binds it and starts listening with the configured backlog. Port 0 picks an
// ephemeral port.
func Open(ctx context.Context, address string, port int, opts ListenOptions) (*Listener, error) {
	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}

	hostport := utils.HostPort(address, port)
	addrs := []net.IPAddr{{IP: net.IPv4zero}}
	if address != "" {
		var resolver net.Resolver
		var err error
		addrs, err = resolver.LookupIPAddr(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrBind, hostport, err)
		}
		if len(addrs) == 0 {
			return nil, fmt.Errorf("%w %q: no address", ErrBind, hostport)
		}
	}
	addr := &net.TCPAddr{IP: addrs[0].IP, Port: port, Zone: addrs[0].Zone}
	for _, a := range addrs {
		// prefer IPv4 when a name resolves to both families
		if a.IP.To4() != nil {
			addr = &net.TCPAddr{IP: a.IP, Port: port}
			break
		}
	}

	ln, err := listenTCP(ctx, addr, backlog)
	if err != nil {
		return nil, err
	}
	return &Listener{ln: ln}, nil
}

// Accept blocks until a client connects.
func (l *Listener) Accept() (net.Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAccept, err)
	}
	return conn, nil
}

func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Port is the bound TCP port, useful after Open with port 0.
func (l *Listener) Port() int {
	if a, ok := l.ln.Addr().(*net.TCPAddr); ok {
		return a.Port
	}
	return 0
}

// Close releases the socket. Calling it more than once is harmless.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.ln.Close()
	})
	return l.closeErr
}

// closed reports whether err is the result of accepting on a closed listener.
func closed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
