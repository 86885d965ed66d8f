package conceptfinder

import "github.com/wagiedev/conceptfinder-go/internal/errors"

// Re-export error types from internal package

// ProcessLaunchError indicates the engine could not be started.
type ProcessLaunchError = errors.ProcessLaunchError

// PeerClosedError indicates the engine exited or closed a pipe mid-session.
type PeerClosedError = errors.PeerClosedError

// ProtocolError indicates a response line the protocol does not allow.
type ProtocolError = errors.ProtocolError

// InvalidInputError indicates a sentence that cannot be sent.
type InvalidInputError = errors.InvalidInputError

// TimeoutError indicates a request exceeded its read timeout.
type TimeoutError = errors.TimeoutError

// ConceptFinderError is the base interface for all SDK errors.
type ConceptFinderError = errors.ConceptFinderError

// Re-export sentinel errors from internal package.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.ErrClientNotConnected

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.ErrClientAlreadyConnected

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.ErrClientClosed

	// ErrSessionBroken indicates an earlier failure left the session unusable.
	ErrSessionBroken = errors.ErrSessionBroken

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.ErrTransportNotConnected

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrUnknownCommand indicates a request command other than extract or encode.
	ErrUnknownCommand = errors.ErrUnknownCommand

	// ErrStdinClosed indicates a write after the engine's input was closed.
	ErrStdinClosed = errors.ErrStdinClosed
)
