package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
)

const (
	DefaultRequestBufferSize = 8192
	DefaultChunkSize         = 8192
	DefaultTimeout           = 10 * time.Second
)

type Options struct {
	// Timeout bounds the request read and, separately, the response write.
	// Zero disables both deadlines.
	Timeout           time.Duration
	RequestBufferSize int
	ChunkSize         int
	// CRLF ends header lines with "\r\n" instead of "\n".
	CRLF bool
}

func (o Options) withDefaults() Options {
	if o.RequestBufferSize <= 0 {
		o.RequestBufferSize = DefaultRequestBufferSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// Exchange performs request/response cycles against one filesystem.
type Exchange struct {
	FS      billy.Basic
	Logger  *slog.Logger
	Options Options
}

type Result struct {
	RequestBytes int
	BodyBytes    int
	// ReceiveErr is set when reading the request failed. The response is
	// still attempted.
	ReceiveErr error
}

func (e *Exchange) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return e.Logger
}

// DrainRequest reads once, at most RequestBufferSize bytes, and ignores what
// it got. A peer that closed without sending anything yields (0, nil).
func (e *Exchange) DrainRequest(conn net.Conn) (int, error) {
	opts := e.Options.withDefaults()
	buf := make([]byte, opts.RequestBufferSize)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: %w", ErrReceive, err)
	}
	e.logger().Debug("read from client", "bytes", n, "request", string(buf[:n]))
	return n, nil
}

// SendFile writes the header and the full contents of name. Nothing is
// written when the file can't be opened or read.
func (e *Exchange) SendFile(conn net.Conn, name string) (int, error) {
	opts := e.Options.withDefaults()
	log := e.logger()

	f, err := e.FS.Open(name)
	if err != nil {
		return 0, fmt.Errorf("%w %q: %w", ErrFileOpen, name, err)
	}
	defer f.Close()

	var body bytes.Buffer
	chunk := make([]byte, opts.ChunkSize)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			body.Write(chunk[:n])
			log.Debug("read from file", "file", name, "bytes", n)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("%w %q: %w", ErrFileRead, name, err)
		}
	}

	header := BuildHeader(body.Len(), opts.CRLF)
	log.Debug("writing response", "header", string(header), "content_length", body.Len())

	bufs := net.Buffers{header, body.Bytes()}
	if _, err := bufs.WriteTo(conn); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return body.Len(), nil
}

// Run drives one cycle: Accepted -> RequestDrained -> ResponseSent -> Closed.
// conn is closed on every path. The read and the write each get Timeout;
// cancelling ctx expires both at once.
func (e *Exchange) Run(ctx context.Context, conn net.Conn, name string) (Result, error) {
	defer conn.Close()

	dl := &deadlines{conn: conn, timeout: e.Options.Timeout}
	stop := context.AfterFunc(ctx, dl.expire)
	defer stop()

	var res Result
	if err := dl.arm(conn.SetReadDeadline); err != nil {
		return res, fmt.Errorf("%w: set deadline: %w", ErrReceive, err)
	}
	res.RequestBytes, res.ReceiveErr = e.DrainRequest(conn)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if err := dl.arm(conn.SetWriteDeadline); err != nil {
		return res, fmt.Errorf("%w: set deadline: %w", ErrWrite, err)
	}
	n, err := e.SendFile(conn, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return res, err
	}
	res.BodyBytes = n
	return res, nil
}

// deadlines keeps a cancelled exchange from re-arming a fresh deadline.
type deadlines struct {
	mu      sync.Mutex
	conn    net.Conn
	timeout time.Duration
	expired bool
}

func (d *deadlines) arm(set func(time.Time) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.expired:
		return set(time.Now())
	case d.timeout > 0:
		return set(time.Now().Add(d.timeout))
	default:
		return nil
	}
}

func (d *deadlines) expire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.expired = true
	_ = d.conn.SetDeadline(time.Now())
}
