package config

import (
	"log/slog"
	"time"
)

const (
	// DefaultCommand is the launcher used when Options.Command is empty.
	DefaultCommand = "dotnet"

	// DefaultDir is the engine working directory used when Options.Dir is empty.
	DefaultDir = "./conceptfinder"

	// DefaultStopTimeout bounds how long Close waits for the engine to exit
	// after its input is closed.
	DefaultStopTimeout = 5 * time.Second

	// DefaultMaxLineSize is the longest response line accepted from the engine.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
)

// DefaultArgs are the launcher arguments used when Options.Args is nil.
func DefaultArgs() []string {
	return []string{"run"}
}

// Options configures a concept finder session.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// Command is the launcher executable, resolved through PATH when it has
	// no path separator. A relative path is resolved against the caller's
	// working directory at Start, not against Dir. Defaults to DefaultCommand.
	Command string

	// Args are the launcher arguments. Defaults to DefaultArgs.
	Args []string

	// Dir is the engine working directory. Defaults to DefaultDir.
	Dir string

	// Env holds additional environment variables for the engine process.
	Env map[string]string

	// RequiredFiles are paths, relative to Dir, that must exist before the
	// engine is launched (typically its dictionary artifacts).
	RequiredFiles []string

	// ReadTimeout bounds each request/response exchange.
	// Zero means wait indefinitely.
	ReadTimeout time.Duration

	// StopTimeout bounds how long Close waits for a graceful exit.
	// Defaults to DefaultStopTimeout.
	StopTimeout time.Duration

	// MaxLineSize is the longest response line accepted.
	// Defaults to DefaultMaxLineSize.
	MaxLineSize int

	// Stderr is called with each line the engine writes to stderr.
	Stderr func(string)

	// Transport replaces the subprocess transport, mainly for tests.
	Transport Transport

	// TransportFactory creates a fresh transport for each session started
	// with these options. Ignored when Transport is set.
	TransportFactory func() Transport
}

// WithDefaults returns a copy of o with every unset field defaulted.
// A nil receiver yields the full default configuration.
func (o *Options) WithDefaults() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}

	if out.Command == "" {
		out.Command = DefaultCommand
	}

	if out.Args == nil {
		out.Args = DefaultArgs()
	}

	if out.Dir == "" {
		out.Dir = DefaultDir
	}

	if out.StopTimeout <= 0 {
		out.StopTimeout = DefaultStopTimeout
	}

	if out.MaxLineSize <= 0 {
		out.MaxLineSize = DefaultMaxLineSize
	}

	return &out
}
