package logging

import (
	"bytes"
	"context"
	"log"
	"log/slog"
	"time"
)

// handlerWriter is an io.Writer that calls a Handler.
// It lets a *log.Logger (http.Server.ErrorLog) write into slog.
type handlerWriter struct {
	h     slog.Handler
	level slog.Leveler
}

func (w *handlerWriter) Write(buf []byte) (int, error) {
	level := w.level.Level()
	if !w.h.Enabled(context.Background(), level) {
		return 0, nil
	}

	origLen := len(buf)
	buf = bytes.TrimSuffix(buf, []byte{'\n'})
	r := slog.NewRecord(time.Now(), level, string(buf), 0)
	return origLen, w.h.Handle(context.Background(), r)
}

func StdlibLogger(next slog.Handler, level slog.Level) *log.Logger {
	return log.New(&handlerWriter{h: next, level: level}, "", 0)
}
