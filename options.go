package conceptfinder

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/wagiedev/conceptfinder-go/internal/config"
)

// Option configures Options using the functional options pattern.
// This is the option type for clients, one-shot calls and pools.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// ===== Engine Launch =====

// WithCommand sets the launcher executable (default "dotnet").
// A bare name is looked up in PATH; a relative path is taken from the
// caller's working directory, not the engine directory.
func WithCommand(command string) Option {
	return func(o *Options) {
		o.Command = command
	}
}

// WithArgs sets the launcher arguments (default "run").
// Pass no arguments to launch a published engine binary directly.
func WithArgs(args ...string) Option {
	return func(o *Options) {
		if args == nil {
			args = []string{}
		}

		o.Args = slices.Clone(args)
	}
}

// WithDir sets the engine working directory (default "./conceptfinder").
// The engine loads its dictionaries relative to this directory.
func WithDir(dir string) Option {
	return func(o *Options) {
		o.Dir = dir
	}
}

// WithEnv adds environment variables for the engine process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		if o.Env == nil {
			o.Env = make(map[string]string, len(env))
		}

		maps.Copy(o.Env, env)
	}
}

// WithRequiredFiles lists files, relative to the working directory, that
// must exist before the engine is launched. A missing file fails Start with
// a ProcessLaunchError instead of an engine crash on the first request.
func WithRequiredFiles(files ...string) Option {
	return func(o *Options) {
		o.RequiredFiles = append(o.RequiredFiles, files...)
	}
}

// WithStderr sets a callback invoked with each line the engine writes to stderr.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Limits =====

// WithReadTimeout bounds each request. A request that exceeds it fails with
// a TimeoutError and breaks the session.
func WithReadTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ReadTimeout = timeout
	}
}

// WithStopTimeout sets how long Close waits for the engine to exit before
// killing it.
func WithStopTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.StopTimeout = timeout
	}
}

// WithMaxLineSize sets the longest response line accepted from the engine.
func WithMaxLineSize(size int) Option {
	return func(o *Options) {
		o.MaxLineSize = size
	}
}

// ===== Transport =====

// WithTransport injects a custom transport implementation.
// The transport must implement the Transport interface.
// A transport serves a single session.
func WithTransport(transport config.Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithTransportFactory injects a function that creates one transport per
// session. Use it instead of WithTransport for a Pool.
func WithTransportFactory(factory func() Transport) Option {
	return func(o *Options) {
		o.TransportFactory = factory
	}
}
