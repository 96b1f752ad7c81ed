package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

type Config struct {
	DocumentRoot string
	Port         int
	LogFile      string // empty: log to stderr only
}

var (
	ErrMissingDocumentRoot = errors.New("missing -document_root")
	ErrInvalidPort         = errors.New("port must be between 0 and 65535")
)

const usage = `usage: httpserver -document_root <dir> -port <port> [-log <file>]`

// Load parses command-line arguments (without the program name) and checks
// that the document root is an existing directory.
func Load(args []string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("httpserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.DocumentRoot, "document_root", "", "directory to serve files from")
	fs.IntVar(&cfg.Port, "port", -1, "TCP port to listen on (loopback only)")
	fs.StringVar(&cfg.LogFile, "log", "", "append log lines to this file as well as stderr")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w\n%s", err, usage)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q\n%s", fs.Arg(0), usage)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DocumentRoot == "" {
		return fmt.Errorf("%w\n%s", ErrMissingDocumentRoot, usage)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	fi, err := os.Stat(c.DocumentRoot)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("document root %s: not a directory", c.DocumentRoot)
	}
	return nil
}
