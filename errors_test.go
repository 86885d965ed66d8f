package conceptfinder

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestProcessLaunchError_Creation tests ProcessLaunchError creation and formatting.
func TestProcessLaunchError_Creation(t *testing.T) {
	innerErr := fmt.Errorf("no such file or directory")
	err := &ProcessLaunchError{
		Command: "dotnet",
		Dir:     "./conceptfinder",
		Err:     innerErr,
	}

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to launch engine")
	require.Contains(t, err.Error(), "./conceptfinder")
	require.ErrorIs(t, err, innerErr)
}

// TestPeerClosedError_WithExitCodeAndStderr tests PeerClosedError with exit code and stderr.
func TestPeerClosedError_WithExitCodeAndStderr(t *testing.T) {
	err := &PeerClosedError{
		Op:       "read header",
		ExitCode: 134,
		Stderr:   "Unhandled exception. System.IO.FileNotFoundException: meddict",
	}

	require.Error(t, err)
	require.Contains(t, err.Error(), "during read header")
	require.Contains(t, err.Error(), "exit 134")
	require.Contains(t, err.Error(), "FileNotFoundException")
}

// TestPeerClosedError_Unwrap tests that the underlying error can be unwrapped.
func TestPeerClosedError_Unwrap(t *testing.T) {
	err := fmt.Errorf("extract: %w", &PeerClosedError{Op: "read body", Err: io.ErrUnexpectedEOF})

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	peerErr, ok := errors.AsType[*PeerClosedError](err)
	require.True(t, ok)
	require.Equal(t, "read body", peerErr.Op)
}

// TestProtocolError_PreservesLine tests that the offending line is kept.
func TestProtocolError_PreservesLine(t *testing.T) {
	err := &ProtocolError{Command: "extract", Index: 2, Line: "C0000001 x"}

	require.Equal(t, "C0000001 x", err.Line)
	require.Contains(t, err.Error(), "C0000001 x")
}

// TestTimeoutError_IsRequestTimeout tests the sentinel match.
func TestTimeoutError_IsRequestTimeout(t *testing.T) {
	err := &TimeoutError{Op: "encode request", Timeout: 2 * time.Second}

	require.ErrorIs(t, err, ErrRequestTimeout)
	require.Contains(t, err.Error(), "2s")
}

// TestErrors_ImplementConceptFinderError tests the shared marker interface.
func TestErrors_ImplementConceptFinderError(t *testing.T) {
	errs := []error{
		&ProcessLaunchError{},
		&PeerClosedError{},
		&ProtocolError{},
		&InvalidInputError{},
		&TimeoutError{},
	}

	for _, err := range errs {
		cfErr, ok := errors.AsType[ConceptFinderError](err)
		require.True(t, ok, "%T", err)
		require.True(t, cfErr.IsConceptFinderError())
	}
}
