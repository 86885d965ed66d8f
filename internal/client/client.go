package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/conceptfinder-go/internal/config"
	"github.com/wagiedev/conceptfinder-go/internal/errors"
	"github.com/wagiedev/conceptfinder-go/internal/protocol"
	"github.com/wagiedev/conceptfinder-go/internal/subprocess"
)

// exitReportTimeout bounds how long a failed exchange waits for the engine's
// exit status before reporting the error without it.
const exitReportTimeout = 250 * time.Millisecond

// abortWaitTimeout bounds how long an aborted exchange waits for its worker.
const abortWaitTimeout = 2 * time.Second

// Client implements a concept finder session.
type Client struct {
	log       *slog.Logger
	transport config.Transport
	reader    *protocol.Reader
	options   *config.Options
	sessionID string

	// exchangeMu serializes request/response exchanges on the pipe pair.
	exchangeMu sync.Mutex

	// Fatal error storage; set once the framing state is unknown
	errMu    sync.RWMutex
	fatalErr error

	// Lifecycle management
	mu        sync.Mutex
	connected bool
	closed    bool      // Tracks if Close() has been called
	closeOnce sync.Once // Ensures Close() only runs once
}

// New creates a new session client.
//
// The client is not connected after creation. Call Start() with options to connect.
func New() *Client {
	return &Client{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// setFatalError stores the first fatal error encountered.
func (c *Client) setFatalError(err error) {
	if err == nil {
		return
	}

	c.errMu.Lock()
	defer c.errMu.Unlock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}
}

// getFatalError returns the stored fatal error, if any.
func (c *Client) getFatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// Start launches the engine and opens the session.
//
// Returns ProcessLaunchError (wrapped) if the engine cannot be started.
// The engine is not bound to ctx; it runs until Close.
func (c *Client) Start(ctx context.Context, options *config.Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrClientClosed
	}

	if c.connected {
		return errors.ErrClientAlreadyConnected
	}

	options = options.WithDefaults()

	log := options.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c.sessionID = ulid.Make().String()
	c.log = log.With("component", "client", "session_id", c.sessionID)
	c.options = options

	// Create or use injected transport
	var transport config.Transport

	switch {
	case options.Transport != nil:
		c.log.Debug("Using injected custom transport")

		transport = options.Transport
	case options.TransportFactory != nil:
		c.log.Debug("Using transport factory")

		transport = options.TransportFactory()
	default:
		transport = subprocess.NewEngineTransport(c.log, options)
	}

	if err := transport.Start(ctx); err != nil {
		c.log.Error("Failed to start engine", "error", err)

		return fmt.Errorf("start transport: %w", err)
	}

	c.transport = transport
	c.reader = protocol.NewReader(transport.Reader(), options.MaxLineSize)
	c.connected = true

	c.log.Info("Session started")

	return nil
}

// SessionID returns the identifier attached to this session's log records.
// It is empty until Start succeeds.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessionID
}

// Healthy reports whether the session can serve another request.
func (c *Client) Healthy() bool {
	c.mu.Lock()
	ok := c.connected && !c.closed
	transport := c.transport
	c.mu.Unlock()

	return ok && c.getFatalError() == nil && transport.IsReady()
}

// ExtractConcepts sends the sentences as one extract request and returns the
// concepts found, in engine order.
//
// The response carries no sentence boundaries: with more than one sentence
// there is no way to tell which sentence produced which concept. Send one
// sentence per call when attribution matters.
func (c *Client) ExtractConcepts(ctx context.Context, sentences []string) (protocol.Concepts, error) {
	concepts := protocol.Concepts{}

	err := c.exchange(ctx, protocol.Extract, sentences, func(r *protocol.Reader) error {
		var err error

		concepts, err = r.ReadExtract()

		return err
	})
	if err != nil {
		return nil, err
	}

	return concepts, nil
}

// EncodeConcepts sends the sentences as one encode request and returns the
// engine's output lines unchanged.
func (c *Client) EncodeConcepts(ctx context.Context, sentences []string) ([]string, error) {
	lines := []string{}

	err := c.exchange(ctx, protocol.Encode, sentences, func(r *protocol.Reader) error {
		var err error

		lines, err = r.ReadEncode()

		return err
	})
	if err != nil {
		return nil, err
	}

	return lines, nil
}

// checkUsable returns why a request cannot be sent, or nil.
// Caller must hold c.exchangeMu.
func (c *Client) checkUsable() error {
	c.mu.Lock()
	closed, connected := c.closed, c.connected
	c.mu.Unlock()

	if closed {
		return errors.ErrClientClosed
	}

	if !connected {
		return errors.ErrClientNotConnected
	}

	if err := c.getFatalError(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrSessionBroken, err)
	}

	select {
	case <-c.transport.Done():
		err := c.transport.Err()
		if err == nil {
			err = &errors.PeerClosedError{Op: "write"}
		}

		c.setFatalError(err)

		return err
	default:
	}

	return nil
}

// exchange performs one request/response round trip.
//
// The write and read run on a worker goroutine so the caller can give up on
// timeout or cancellation. Giving up aborts the engine, which unblocks the
// worker; the session is broken from then on.
func (c *Client) exchange(
	ctx context.Context,
	cmd protocol.Command,
	sentences []string,
	read func(*protocol.Reader) error,
) error {
	if err := protocol.ValidateSentences(sentences); err != nil {
		return err
	}

	c.exchangeMu.Lock()
	defer c.exchangeMu.Unlock()

	if err := c.checkUsable(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Nothing in, nothing out: an empty batch needs no round trip.
	if len(sentences) == 0 {
		return nil
	}

	log := c.log.With("request_id", ulid.Make().String(), "command", cmd.String())
	log.Debug("Sending request", "sentences", len(sentences))

	start := time.Now()
	done := make(chan error, 1)

	go func() {
		if err := protocol.WriteRequest(c.transport.Writer(), cmd, sentences); err != nil {
			done <- &errors.PeerClosedError{Op: "write", Err: err}

			return
		}

		done <- read(c.reader)
	}()

	var timeout <-chan time.Time

	if c.options.ReadTimeout > 0 {
		timer := time.NewTimer(c.options.ReadTimeout)
		defer timer.Stop()

		timeout = timer.C
	}

	select {
	case err := <-done:
		if err != nil {
			err = c.withExitStatus(err)
			c.setFatalError(err)
			log.Error("Request failed", "error", err)

			return err
		}

		log.Debug("Received response", "duration", time.Since(start))

		return nil

	case <-ctx.Done():
		err := fmt.Errorf("%s request: %w", cmd, ctx.Err())
		log.Warn("Request cancelled, aborting engine", "error", ctx.Err())
		c.abort(err, done)

		return err

	case <-timeout:
		err := &errors.TimeoutError{Op: cmd.String() + " request", Timeout: c.options.ReadTimeout}
		log.Error("Request timed out, aborting engine", "timeout", c.options.ReadTimeout)
		c.abort(err, done)

		return err
	}
}

// abort breaks the session and waits, for a bounded time, for the in-flight
// worker to return.
func (c *Client) abort(reason error, done <-chan error) {
	c.setFatalError(reason)

	if err := c.transport.Abort(); err != nil {
		c.log.Warn("Failed to abort engine", "error", err)
	}

	timer := time.NewTimer(abortWaitTimeout)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		c.log.Error("Request worker still blocked after abort, abandoning it", "timeout", abortWaitTimeout)
	}
}

// withExitStatus attaches the engine's exit code and stderr to a
// PeerClosedError once the engine has been reaped.
func (c *Client) withExitStatus(err error) error {
	peerErr, ok := stderrors.AsType[*errors.PeerClosedError](err)
	if !ok {
		return err
	}

	select {
	case <-c.transport.Done():
	case <-time.After(exitReportTimeout):
		return err
	}

	if exitErr, ok := stderrors.AsType[*errors.PeerClosedError](c.transport.Err()); ok {
		peerErr.ExitCode = exitErr.ExitCode
		peerErr.Stderr = exitErr.Stderr
	}

	return err
}

// Close ends the session: the engine's input is closed and the engine is
// given StopTimeout to exit before it is killed.
//
// After Close(), the client cannot be reused - create a new client with New().
// This method is safe to call multiple times.
func (c *Client) Close() error {
	var closeErr error

	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		wasConnected := c.connected
		c.connected = false
		c.mu.Unlock()

		if !wasConnected {
			return
		}

		c.log.Info("Closing session")

		if c.transport != nil {
			closeErr = c.transport.Close()
		}

		c.log.Info("Session closed")
	})

	return closeErr
}
