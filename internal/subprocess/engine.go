package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/conceptfinder-go/internal/cli"
	"github.com/wagiedev/conceptfinder-go/internal/config"
	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

const (
	// maxStderrBufferSize is the maximum size for the stderr buffer.
	// Stderr reading continues indefinitely (callback receives all lines),
	// but the buffer stops growing after this limit.
	maxStderrBufferSize = 1024 * 1024 // 1MB

	// maxStderrLineSize is the longest stderr line forwarded to the callback.
	maxStderrLineSize = 1024 * 1024 // 1MB

	// stderrDrainTimeout bounds how long exit handling waits for the stderr
	// reader once the process is gone.
	stderrDrainTimeout = 200 * time.Millisecond
)

// EngineTransport implements Transport by spawning the engine as a subprocess.
type EngineTransport struct {
	log     *slog.Logger
	options *config.Options

	cmd    *exec.Cmd
	stdin  *os.File // write end of the engine's stdin
	stdout *os.File // read end of the engine's stdout

	done     chan struct{} // closed once the process has been waited for
	stderrMu sync.Mutex
	stderr   strings.Builder
	waitErr  error

	mu          sync.Mutex // Protects the fields below
	started     bool
	closing     bool // Close or Abort has been called (intentional shutdown)
	stdinClosed bool
}

// Compile-time verification that EngineTransport implements the Transport interface.
var _ config.Transport = (*EngineTransport)(nil)

// NewEngineTransport creates a transport for the engine described by options.
// Launcher discovery is deferred to Start().
func NewEngineTransport(log *slog.Logger, options *config.Options) *EngineTransport {
	return &EngineTransport{
		log:     log.With("component", "engine_transport"),
		options: options.WithDefaults(),
		done:    make(chan struct{}),
	}
}

// Start launches the engine subprocess.
//
// The launcher is resolved, the working directory validated, and the process
// started with its three standard streams connected to pipes. Every failure is
// reported as a ProcessLaunchError. The process is not bound to ctx: it runs
// until Close or Abort.
func (t *EngineTransport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return fmt.Errorf("engine transport already started")
	}

	t.log.Info("Starting concept finder engine", "command", t.options.Command, "dir", t.options.Dir)

	discoverer := cli.NewDiscoverer(&cli.Config{
		Command:       t.options.Command,
		Dir:           t.options.Dir,
		RequiredFiles: t.options.RequiredFiles,
		Logger:        t.log,
	})

	path, err := discoverer.Discover(ctx)
	if err != nil {
		return err
	}

	command := cli.BuildCommand(path, t.options)
	t.log.Debug("Built engine command", "cmd", command.String())

	launchErr := func(err error) error {
		return &errors.ProcessLaunchError{Command: command.String(), Dir: command.Dir, Err: err}
	}

	//nolint:gosec // G204: launching the configured engine is the purpose of this transport
	cmd := exec.Command(command.Path, command.Args...)
	cmd.Dir = command.Dir
	cmd.Env = command.Env
	setProcessGroup(cmd)

	pipes, err := openPipes()
	if err != nil {
		t.log.Error("Failed to create engine pipes", "error", err)

		return launchErr(err)
	}

	cmd.Stdin = pipes.stdinR
	cmd.Stdout = pipes.stdoutW
	cmd.Stderr = pipes.stderrW

	if err := cmd.Start(); err != nil {
		pipes.closeAll()
		t.log.Error("Failed to start engine process", "error", err)

		return launchErr(err)
	}

	// The child holds its own copies of these ends.
	pipes.closeChildEnds()

	t.cmd = cmd
	t.stdin = pipes.stdinW
	t.stdout = pipes.stdoutR
	t.started = true

	stderrDone := make(chan struct{})

	go t.drainStderr(pipes.stderrR, stderrDone)
	go t.wait(stderrDone)

	t.log.Info("Concept finder engine started", "pid", cmd.Process.Pid)

	return nil
}

// drainStderr buffers stderr for error reporting and forwards each line to
// the configured callback.
func (t *EngineTransport) drainStderr(r *os.File, done chan<- struct{}) {
	defer close(done)
	defer r.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLineSize)

	for scanner.Scan() {
		line := scanner.Text()

		t.stderrMu.Lock()

		if t.stderr.Len() < maxStderrBufferSize {
			if t.stderr.Len() > 0 {
				t.stderr.WriteString("\n")
			}

			t.stderr.WriteString(line)
		}

		t.stderrMu.Unlock()

		if t.options.Stderr != nil {
			t.options.Stderr(line)
		}
	}

	if err := scanner.Err(); err != nil {
		t.log.Debug("Stderr scanner error", "error", err)

		// Keep the pipe open so the engine's writes never fail with EPIPE.
		_, _ = io.Copy(io.Discard, r)
	}
}

// wait reaps the process and publishes its exit.
func (t *EngineTransport) wait(stderrDone <-chan struct{}) {
	err := t.cmd.Wait()

	// A grandchild may keep stderr open after the engine itself is gone.
	select {
	case <-stderrDone:
	case <-time.After(stderrDrainTimeout):
		t.log.Debug("Stderr still open after engine exit")
	}

	t.mu.Lock()
	t.waitErr = err
	isClosing := t.closing
	t.mu.Unlock()

	switch {
	case isClosing:
		t.log.Debug("Engine terminated during shutdown")
	case err != nil:
		t.log.Error("Engine exited with error", "error", err, "stderr", t.stderrText())
	default:
		t.log.Warn("Engine exited unexpectedly")
	}

	close(t.done)
}

func (t *EngineTransport) stderrText() string {
	t.stderrMu.Lock()
	defer t.stderrMu.Unlock()

	return strings.TrimSpace(t.stderr.String())
}

// Writer returns the engine's stdin. Writes are unbuffered.
func (t *EngineTransport) Writer() io.Writer {
	return stdinWriter{t: t}
}

// Reader returns the engine's stdout.
func (t *EngineTransport) Reader() io.Reader {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdout == nil {
		return eofReader{}
	}

	return t.stdout
}

// Done is closed once the engine has exited.
func (t *EngineTransport) Done() <-chan struct{} {
	return t.done
}

// Err reports an unexpected engine exit as a PeerClosedError.
// It returns nil while the engine runs or after an intentional shutdown.
func (t *EngineTransport) Err() error {
	select {
	case <-t.done:
	default:
		return nil
	}

	t.mu.Lock()
	closing := t.closing
	waitErr := t.waitErr
	t.mu.Unlock()

	if closing {
		return nil
	}

	exitCode := 0
	if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
		exitCode = exitErr.ExitCode()
	}

	return &errors.PeerClosedError{
		Op:       "engine exit",
		ExitCode: exitCode,
		Stderr:   t.stderrText(),
		Err:      waitErr,
	}
}

// IsReady returns true if the engine is running and stdin is open.
func (t *EngineTransport) IsReady() bool {
	t.mu.Lock()
	ready := t.started && !t.closing && !t.stdinClosed
	t.mu.Unlock()

	if !ready {
		return false
	}

	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// EndInput closes stdin. The engine finishes pending requests and exits.
func (t *EngineTransport) EndInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closeStdinLocked()
}

func (t *EngineTransport) closeStdinLocked() error {
	if t.stdin == nil || t.stdinClosed {
		return nil
	}

	t.log.Debug("Closing engine stdin")

	t.stdinClosed = true

	return t.stdin.Close()
}

// Close stops the engine: stdin is closed, the engine is given StopTimeout
// to exit, and the whole process group is killed if it has not.
// It's safe to call Close multiple times.
func (t *EngineTransport) Close() error {
	t.mu.Lock()

	if !t.started {
		t.closing = true
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	closeErr := t.closeStdinLocked()
	t.mu.Unlock()

	if closeErr != nil && !stderrors.Is(closeErr, os.ErrClosed) {
		t.log.Debug("Closing stdin failed", "error", closeErr)
	}

	timer := time.NewTimer(t.options.StopTimeout)
	defer timer.Stop()

	var err error

	select {
	case <-t.done:
		t.log.Debug("Engine exited after end of input")
		t.killLeftovers()
	case <-timer.C:
		t.log.Warn("Engine did not exit in time, killing it", "timeout", t.options.StopTimeout)

		err = t.kill()

		<-t.done
	}

	t.closeStdout()

	return err
}

// Abort kills the engine immediately and waits for it to be reaped.
func (t *EngineTransport) Abort() error {
	t.mu.Lock()

	if !t.started {
		t.closing = true
		t.mu.Unlock()

		return nil
	}

	t.closing = true
	_ = t.closeStdinLocked()
	t.mu.Unlock()

	var err error

	select {
	case <-t.done:
		t.killLeftovers()
	default:
		err = t.kill()

		<-t.done
	}

	t.closeStdout()

	return err
}

// killLeftovers clears the process group of an engine that has already
// exited. Children forked by the launcher may outlive it there.
func (t *EngineTransport) killLeftovers() {
	if err := killProcessGroup(t.cmd.Process); err != nil {
		t.log.Debug("Killing leftover engine processes failed", "error", err)
	}
}

func (t *EngineTransport) kill() error {
	pid := t.cmd.Process.Pid
	t.log.Debug("Killing engine process group", "pid", pid)

	if err := killProcessGroup(t.cmd.Process); err != nil {
		return fmt.Errorf("kill engine (pid %d): %w", pid, err)
	}

	return nil
}

func (t *EngineTransport) closeStdout() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdout != nil {
		_ = t.stdout.Close()
	}
}

// stdinWriter guards writes against a closed stdin.
type stdinWriter struct {
	t *EngineTransport
}

func (w stdinWriter) Write(p []byte) (int, error) {
	w.t.mu.Lock()
	stdin, closed := w.t.stdin, w.t.stdinClosed
	w.t.mu.Unlock()

	if stdin == nil {
		return 0, errors.ErrTransportNotConnected
	}

	if closed {
		return 0, errors.ErrStdinClosed
	}

	return stdin.Write(p)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
