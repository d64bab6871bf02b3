// Package nfs exports the served file read-only over NFSv3.
package nfs

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"

	"simple-webserver/docroot"
)

// handleCacheSize bounds the file handle cache. The export only ever has two
// entries so this is generous.
const handleCacheSize = 1024

type Export struct {
	listener net.Listener
	logger   *slog.Logger
	done     chan struct{}
}

// Start exports root on addr (TCP) with AUTH_NULL. The export lives until
// Close.
func Start(addr string, root *docroot.Root, logger *slog.Logger) (*Export, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("nfs listen %q: %w", addr, err)
	}
	return Serve(ln, root, logger), nil
}

// Serve exports root on an existing listener.
func Serve(ln net.Listener, root *docroot.Root, logger *slog.Logger) *Export {
	handler := nfshelper.NewCachingHandler(nfshelper.NewNullAuthHandler(root), handleCacheSize)
	e := &Export{listener: ln, logger: logger, done: make(chan struct{})}
	go func() {
		defer close(e.done)
		logger.Info("NFS export listening", "addr", ln.Addr().String(), "serving", root.Name())
		if err := nfs.Serve(ln, handler); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error("NFS export error", "error", err)
		}
	}()
	return e
}

func (e *Export) Addr() net.Addr { return e.listener.Addr() }

// Close stops accepting mounts and waits for the accept loop to exit.
func (e *Export) Close() error {
	err := e.listener.Close()
	<-e.done
	return err
}
