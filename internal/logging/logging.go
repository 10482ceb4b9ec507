// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// Verbose lowers the level to debug.
	Verbose bool
	// Level overrides the level by name (debug, info, warn, error).
	Level string
	// File redirects output to a file, appended to. Empty keeps Output.
	File string
	// Output is used when File is empty. Nil discards.
	Output io.Writer
}

// New returns a logger and a close func for any file it opened.
func New(opts Options) (*clog.Logger, func() error, error) {
	out := opts.Output
	closer := func() error { return nil }
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, closer, err
		}
		out, closer = f, f.Close
	}
	if out == nil {
		out = io.Discard
	}

	logger := clog.NewWithOptions(out, clog.Options{
		Prefix:          "rctf",
		Level:           clog.WarnLevel,
		ReportTimestamp: opts.File != "",
	})
	if opts.Verbose {
		logger.SetLevel(clog.DebugLevel)
	}
	if opts.Level != "" {
		level, err := clog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, closer, err
		}
		logger.SetLevel(level)
	}
	return logger, closer, nil
}
