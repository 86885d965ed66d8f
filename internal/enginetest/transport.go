package enginetest

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wagiedev/conceptfinder-go/internal/config"
	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

// closeGrace bounds how long Close waits for the stub to finish on its own.
const closeGrace = time.Second

// ServeFunc is an engine loop over the session's streams. It should return
// when r reaches EOF or ctx is done.
type ServeFunc func(ctx context.Context, r io.Reader, w io.Writer) error

// PipeTransport is an in-memory Transport backed by io.Pipe, with a stub
// engine running in a goroutine.
type PipeTransport struct {
	serve ServeFunc

	stdinR  *io.PipeReader
	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter

	cancel context.CancelFunc
	done   chan struct{}
	writes atomic.Int64

	mu       sync.Mutex
	started  bool
	closing  bool
	serveErr error
}

// Compile-time verification that PipeTransport implements the Transport interface.
var _ config.Transport = (*PipeTransport)(nil)

// NewPipeTransport returns a transport whose engine serves requests with handler.
func NewPipeTransport(handler Handler) *PipeTransport {
	return NewScriptTransport(func(ctx context.Context, r io.Reader, w io.Writer) error {
		return Serve(ctx, r, w, handler)
	})
}

// NewScriptTransport returns a transport whose engine is an arbitrary script,
// for scenarios the Serve loop cannot produce (truncated or malformed output,
// hangs, early exits).
func NewScriptTransport(serve ServeFunc) *PipeTransport {
	return &PipeTransport{
		serve: serve,
		done:  make(chan struct{}),
	}
}

// Start launches the stub engine goroutine.
func (t *PipeTransport) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return errors.ErrClientAlreadyConnected
	}

	t.stdinR, t.stdinW = io.Pipe()
	t.stdoutR, t.stdoutW = io.Pipe()

	var serveCtx context.Context

	serveCtx, t.cancel = context.WithCancel(context.Background())
	t.started = true

	go func() {
		err := t.serve(serveCtx, t.stdinR, t.stdoutW)

		t.mu.Lock()
		t.serveErr = err
		t.mu.Unlock()

		_ = t.stdoutW.Close()
		_ = t.stdinR.Close()

		close(t.done)
	}()

	return nil
}

// Writer returns the stub engine's input.
func (t *PipeTransport) Writer() io.Writer {
	return writerFunc(func(p []byte) (int, error) {
		t.writes.Add(1)

		t.mu.Lock()
		w := t.stdinW
		t.mu.Unlock()

		if w == nil {
			return 0, errors.ErrTransportNotConnected
		}

		return w.Write(p)
	})
}

// Reader returns the stub engine's output.
func (t *PipeTransport) Reader() io.Reader {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stdoutR
}

// Writes reports how many Write calls reached the transport.
func (t *PipeTransport) Writes() int {
	return int(t.writes.Load())
}

// Done is closed once the stub engine has returned.
func (t *PipeTransport) Done() <-chan struct{} {
	return t.done
}

// Err reports an unrequested stub exit as a PeerClosedError.
func (t *PipeTransport) Err() error {
	select {
	case <-t.done:
	default:
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closing {
		return nil
	}

	return &errors.PeerClosedError{Op: "engine exit", Err: t.serveErr}
}

// IsReady reports whether the stub engine is still running.
func (t *PipeTransport) IsReady() bool {
	t.mu.Lock()
	ready := t.started && !t.closing
	t.mu.Unlock()

	select {
	case <-t.done:
		return false
	default:
		return ready
	}
}

// EndInput closes the stub engine's input.
func (t *PipeTransport) EndInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdinW == nil {
		return nil
	}

	return t.stdinW.Close()
}

// Abort stops the stub engine immediately.
func (t *PipeTransport) Abort() error {
	if !t.markClosing() {
		return nil
	}

	t.terminate()

	return nil
}

// Close ends the stub engine's input and waits for it to return, aborting it
// after a short grace period.
func (t *PipeTransport) Close() error {
	if !t.markClosing() {
		return nil
	}

	_ = t.stdinW.Close()

	select {
	case <-t.done:
	case <-time.After(closeGrace):
		t.terminate()
	}

	return nil
}

// markClosing flags an intentional shutdown and reports whether the stub
// was ever started.
func (t *PipeTransport) markClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closing = true

	return t.started
}

func (t *PipeTransport) terminate() {
	t.cancel()
	_ = t.stdinW.Close()
	_ = t.stdoutR.Close()

	<-t.done
}

type writerFunc func(p []byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
