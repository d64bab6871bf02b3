package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"simple-webserver/admin"
	"simple-webserver/docroot"
	httpx "simple-webserver/http"
	"simple-webserver/logging"
	"simple-webserver/nfs"
	"simple-webserver/tftp"
	"simple-webserver/utils"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "devel"

const shutdownTimeout = 5 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[0], os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, name string, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(name, args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if cfg.Version {
		fmt.Fprintln(stdout, "webserver", version)
		return 0
	}

	logger, err := logging.New(logging.Options{Verbose: cfg.Debug, Format: cfg.LogFormat, Output: stderr})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		return 1
	}
	logger.Info("shut down")
	return 0
}

func serve(ctx context.Context, cfg *Config, logger *slog.Logger) error {
	root, err := docroot.Open(cfg.IndexFile)
	if err != nil {
		return err
	}

	setReady := func(bool) {}
	if cfg.AdminAddr != "" {
		as := admin.New(cfg.AdminAddr, logger)
		if err := as.Start(); err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := as.Stop(sctx); err != nil {
				logger.Warn("admin shutdown", "error", err)
			}
		}()
		setReady = as.SetReady
	}

	if cfg.TFTPAddr != "" {
		ts, err := tftp.Start(cfg.TFTPAddr, root, logger)
		if err != nil {
			return err
		}
		defer ts.Shutdown()
	}

	if cfg.NFSAddr != "" {
		export, err := nfs.Start(cfg.NFSAddr, root, logger)
		if err != nil {
			return err
		}
		defer export.Close()
	}

	ln, err := httpx.Open(ctx, utils.ListenHost(cfg.ListenIP), cfg.Port, httpx.ListenOptions{Backlog: cfg.Backlog})
	if err != nil {
		return err
	}
	defer ln.Close()

	srv := &httpx.Server{
		Listener: ln,
		FS:       root,
		File:     root.Name(),
		Logger:   logger,
		Options:  cfg.ExchangeOptions(),
	}
	logger.Info("HTTP server listening", "addr", ln.Addr().String(), "serving", cfg.IndexFile, "debug", cfg.Debug)
	setReady(true)
	defer setReady(false)
	return srv.Serve(ctx)
}
