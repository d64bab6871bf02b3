// Package logging builds the process logger.
//
// The verbosity decision is made once, when the logger is built: a verbose
// logger emits Debug records, any other logger drops them before any I/O
// happens. Components receive the *slog.Logger explicitly and never consult a
// global switch.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

type Options struct {
	Verbose bool
	Format  string    // FormatText (default) or FormatJSON
	Output  io.Writer // defaults to os.Stderr
}

// Level returns the minimum level a logger built with verbose will emit.
func Level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func NewHandler(opts Options) (slog.Handler, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := Level(opts.Verbose)
	hopts := &slog.HandlerOptions{
		Level:     level,
		AddSource: opts.Verbose,
	}

	switch opts.Format {
	case "", FormatText:
		return slog.NewTextHandler(out, hopts), nil
	case FormatJSON:
		return slog.NewJSONHandler(out, hopts), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want %s or %s)", opts.Format, FormatText, FormatJSON)
	}
}

func New(opts Options) (*slog.Logger, error) {
	h, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
