package errors

import (
	"errors"
	"fmt"
	"time"
)

// ConceptFinderError is the base interface for all SDK errors.
type ConceptFinderError interface {
	error
	IsConceptFinderError() bool
}

// Compile-time verification that all error types implement ConceptFinderError.
var (
	_ ConceptFinderError = (*ProcessLaunchError)(nil)
	_ ConceptFinderError = (*PeerClosedError)(nil)
	_ ConceptFinderError = (*ProtocolError)(nil)
	_ ConceptFinderError = (*InvalidInputError)(nil)
	_ ConceptFinderError = (*TimeoutError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotConnected indicates the client has not been started.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates Start was called twice.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with NewClient()")

	// ErrSessionBroken indicates an earlier exchange left the pipe framing in
	// an unknown state. The session must be closed and a new one started.
	ErrSessionBroken = errors.New("session broken")

	// ErrTransportNotConnected indicates the transport is not started.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrStdinClosed indicates the engine's stdin was already closed.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrUnknownCommand indicates a command tag other than extract or encode.
	ErrUnknownCommand = errors.New("unknown command")
)

// ProcessLaunchError indicates the engine process could not be started.
type ProcessLaunchError struct {
	Command string
	Dir     string
	Err     error
}

func (e *ProcessLaunchError) Error() string {
	return fmt.Sprintf("failed to launch engine %q in %q: %v", e.Command, e.Dir, e.Err)
}

func (e *ProcessLaunchError) Unwrap() error {
	return e.Err
}

// IsConceptFinderError implements ConceptFinderError.
func (e *ProcessLaunchError) IsConceptFinderError() bool { return true }

// PeerClosedError indicates the engine exited or closed a pipe.
type PeerClosedError struct {
	// Op names the step that observed the closure ("write", "read header", ...).
	Op       string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *PeerClosedError) Error() string {
	msg := "engine closed the session"
	if e.Op != "" {
		msg += " during " + e.Op
	}

	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit %d)", e.ExitCode)
	}

	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	} else if e.Stderr != "" {
		msg += ": " + e.Stderr
	}

	return msg
}

func (e *PeerClosedError) Unwrap() error {
	return e.Err
}

// IsConceptFinderError implements ConceptFinderError.
func (e *PeerClosedError) IsConceptFinderError() bool { return true }

// ProtocolError indicates a header or body line did not match the wire format.
// Index is the zero-based body line index, or -1 for the header line.
type ProtocolError struct {
	Command string
	Index   int
	Line    string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("protocol error in %s response header %q: %v", e.Command, e.Line, e.Err)
	}

	return fmt.Sprintf("protocol error in %s response line %d %q: %v", e.Command, e.Index, e.Line, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsConceptFinderError implements ConceptFinderError.
func (e *ProtocolError) IsConceptFinderError() bool { return true }

// InvalidInputError indicates a caller-supplied sentence cannot be framed.
// Nothing was sent to the engine.
type InvalidInputError struct {
	Index  int
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid sentence %d: %s", e.Index, e.Reason)
}

// IsConceptFinderError implements ConceptFinderError.
func (e *InvalidInputError) IsConceptFinderError() bool { return true }

// TimeoutError indicates the engine did not answer within the read timeout.
// The session is unusable afterwards.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// Unwrap lets errors.Is match ErrRequestTimeout.
func (e *TimeoutError) Unwrap() error {
	return ErrRequestTimeout
}

// IsConceptFinderError implements ConceptFinderError.
func (e *TimeoutError) IsConceptFinderError() bool { return true }
