package tftp

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"time"

	tftp "github.com/pin/tftp/v3"

	"simple-webserver/docroot"
)

const DefaultTimeout = 5 * time.Second

// isHexIPv4Name reports whether name looks like a client's IPv4 address in
// hex (C0A8010A), the form netboot firmware asks for.
func isHexIPv4Name(name string) bool {
	if len(name) != 8 {
		return false
	}
	for i := 0; i < 8; i++ {
		c := name[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// Server answers every read request with the served file, whatever the
// requested name. Write requests are refused.
type Server struct {
	srv    *tftp.Server
	root   *docroot.Root
	logger *slog.Logger
}

func New(root *docroot.Root, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{root: root, logger: logger}
	s.srv = tftp.NewServer(s.readHandler, nil)
	s.srv.SetTimeout(DefaultTimeout)
	return s
}

func (s *Server) readHandler(filename string, rf io.ReaderFrom) error {
	base := filepath.Base(strings.TrimSpace(filename))
	if isHexIPv4Name(base) {
		s.logger.Debug("HexIPv4 form detected", "name", base)
	}

	name := s.root.Name()
	f, err := s.root.Open(name)
	if err != nil {
		s.logger.Warn("tftp read failed", "requested", filename, "error", err)
		return err
	}
	defer f.Close()

	if fi, err := s.root.Stat(name); err == nil {
		if ot, ok := rf.(tftp.OutgoingTransfer); ok {
			ot.SetSize(fi.Size())
		}
	}

	n, err := rf.ReadFrom(f)
	if err != nil {
		s.logger.Warn("tftp transfer failed", "requested", filename, "error", err)
		return err
	}
	s.logger.Debug("tftp transfer done", "requested", filename, "bytes", n)
	return nil
}

// Serve blocks serving conn until Shutdown.
func (s *Server) Serve(conn net.PacketConn) error {
	return s.srv.Serve(conn)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
}

// Start binds addr and serves in the background. Binding happens before
// Start returns so address errors surface to the caller.
func Start(addr string, root *docroot.Root, logger *slog.Logger) (*Server, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("tftp listen %q: %w", addr, err)
	}
	s := New(root, logger)
	go func() {
		s.logger.Info("TFTP server listening", "addr", conn.LocalAddr().String(), "serving", root.Name())
		if err := s.Serve(conn); err != nil {
			s.logger.Error("TFTP server error", "error", err)
		}
	}()
	return s, nil
}
