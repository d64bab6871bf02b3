package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/facebookgo/flagenv"

	httpx "simple-webserver/http"
	"simple-webserver/logging"
	"simple-webserver/utils"
)

// envPrefix is prepended to upper-cased flag names: --log-format can be set
// with WEBSERVER_LOG_FORMAT.
const envPrefix = "WEBSERVER_"

var errUsage = errors.New("usage")

type Config struct {
	Port      int
	ListenIP  string
	IndexFile string
	Debug     bool
	Timeout   time.Duration
	CRLF      bool
	Backlog   int
	LogFormat string

	TFTPAddr  string
	NFSAddr   string
	AdminAddr string

	Version bool
}

func parseConfig(name string, args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.IntVar(&cfg.Port, "port", 0, "TCP port to listen on (1-65535)")
	fs.StringVar(&cfg.ListenIP, "listenip", "", "address, hostname or interface to bind")
	fs.StringVar(&cfg.IndexFile, "indexfile", "", "file served for every request")
	fs.BoolVar(&cfg.Debug, "debug", false, "log diagnostics (requests, chunks, responses)")
	fs.DurationVar(&cfg.Timeout, "timeout", httpx.DefaultTimeout, "read and write deadline per connection")
	fs.BoolVar(&cfg.CRLF, "crlf", false, "terminate header lines with CRLF instead of LF")
	fs.IntVar(&cfg.Backlog, "backlog", httpx.DefaultBacklog, "listen backlog")
	fs.StringVar(&cfg.LogFormat, "log-format", logging.FormatText, "log format: text or json")
	fs.StringVar(&cfg.TFTPAddr, "tftp", "", "also serve the file over TFTP on this address (e.g. :69)")
	fs.StringVar(&cfg.NFSAddr, "nfs", "", "also export the file over NFS on this address (e.g. :2049)")
	fs.StringVar(&cfg.AdminAddr, "admin", "", "serve /health, /ready and /metrics on this address")
	fs.BoolVar(&cfg.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := flagenv.ParseSet(envPrefix, fs); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("%w: unexpected arguments %q", errUsage, fs.Args())
	}
	if cfg.Version {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		fs.Usage()
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if !utils.ValidPort(c.Port) {
		errs = append(errs, fmt.Errorf("--port %d: must be %d-%d", c.Port, utils.MinPort, utils.MaxPort))
	}
	if c.ListenIP == "" {
		errs = append(errs, errors.New("--listenip is required"))
	}
	if c.IndexFile == "" {
		errs = append(errs, errors.New("--indexfile is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("--timeout %s: must be positive", c.Timeout))
	}
	if c.Backlog <= 0 {
		errs = append(errs, fmt.Errorf("--backlog %d: must be positive", c.Backlog))
	}
	if c.LogFormat != logging.FormatText && c.LogFormat != logging.FormatJSON {
		errs = append(errs, fmt.Errorf("--log-format %q: must be %s or %s", c.LogFormat, logging.FormatText, logging.FormatJSON))
	}
	for flagName, addr := range map[string]string{"tftp": c.TFTPAddr, "nfs": c.NFSAddr, "admin": c.AdminAddr} {
		if addr == "" {
			continue
		}
		if _, err := utils.Port(addr); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", flagName, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) ExchangeOptions() httpx.Options {
	return httpx.Options{Timeout: c.Timeout, CRLF: c.CRLF}
}
