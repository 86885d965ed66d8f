// Package config provides configuration types for the concept finder SDK.
package config

import (
	"context"
	"io"
)

// Transport defines the byte-stream connection to a concept finder engine.
// Implement this to provide custom transports for testing, mocking,
// or alternative launch methods (e.g., an engine reached over a socket).
//
// The default implementation is EngineTransport which spawns a subprocess.
// Custom transports can be injected via Options.Transport.
type Transport interface {
	// Start launches the engine and opens both streams.
	// This is called before any request is written.
	Start(ctx context.Context) error

	// Writer returns the stream connected to the engine's input.
	// Every Write must reach the engine without further buffering.
	Writer() io.Writer

	// Reader returns the stream connected to the engine's output.
	Reader() io.Reader

	// Done is closed once the engine has exited.
	Done() <-chan struct{}

	// Err reports why the engine exited. It returns nil while the engine is
	// running and after an intentional shutdown.
	Err() error

	// IsReady returns true if the engine is running and its input is open.
	IsReady() bool

	// EndInput signals that no more requests will be sent.
	// For process-based transports, this closes stdin.
	EndInput() error

	// Abort terminates the engine immediately.
	Abort() error

	// Close shuts the engine down gracefully, force-terminating it if it
	// does not exit in time. It's safe to call Close multiple times.
	Close() error
}
