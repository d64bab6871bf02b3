package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Server answers every connection on Listener with the contents of File,
// one connection at a time.
type Server struct {
	Listener *Listener
	FS       billy.Basic
	File     string
	Logger   *slog.Logger
	Options  Options
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// Serve accepts and handles connections until ctx is cancelled, Shutdown is
// called or Accept fails. Cycle N+1 starts only after cycle N's connection is
// closed. Shutdown returns nil; an accept failure is returned wrapped in
// ErrAccept.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.Listener.Close()
	})
	defer stop()

	log := s.logger()
	ex := &Exchange{FS: s.FS, Logger: log, Options: s.Options}

	for {
		log.Debug("listening", "addr", s.Listener.Addr().String())
		conn, err := s.Listener.Accept()
		if err != nil {
			if closed(err) {
				log.Debug("listener closed, stopping")
				return nil
			}
			return err
		}
		s.handle(ctx, ex, conn)
	}
}

// Shutdown closes the listener; a blocked Serve returns nil.
func (s *Server) Shutdown() error {
	return s.Listener.Close()
}

func (s *Server) handle(ctx context.Context, ex *Exchange, conn net.Conn) {
	log := s.logger().With("remote_addr", conn.RemoteAddr().String())
	log.Debug("accepted connection")

	start := time.Now()
	res, err := ex.Run(ctx, conn, s.File)
	exchangeDuration.Observe(time.Since(start).Seconds())
	exchanges.WithLabelValues(resultLabel(err)).Inc()
	requestBytes.Add(float64(res.RequestBytes))
	bodyBytes.Add(float64(res.BodyBytes))

	switch {
	case res.ReceiveErr == nil:
	case errors.Is(res.ReceiveErr, os.ErrDeadlineExceeded):
		// silent client, answered anyway
		log.Debug("no request before read deadline", "error", res.ReceiveErr)
	default:
		log.Warn("failed to read request", "error", res.ReceiveErr)
	}
	if err != nil {
		if ctx.Err() != nil {
			log.Info("exchange aborted by shutdown", "error", err)
			return
		}
		log.Error("exchange failed", "file", s.File, "error", err)
		return
	}
	log.Debug("response sent", "request_bytes", res.RequestBytes, "body_bytes", res.BodyBytes)
}
