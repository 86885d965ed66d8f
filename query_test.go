package conceptfinder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	conceptfinder "github.com/wagiedev/conceptfinder-go"
	"github.com/wagiedev/conceptfinder-go/internal/enginetest"
)

func TestExtract(t *testing.T) {
	concepts, err := conceptfinder.Extract(context.Background(), []string{"kidney stone"},
		conceptfinder.WithTransport(enginetest.NewPipeTransport(enginetest.Echo)),
	)
	require.NoError(t, err)
	require.Equal(t, conceptfinder.Concepts{
		{ID: "kidney", SpanLength: 6},
		{ID: "stone", SpanLength: 5},
	}, concepts)
}

func TestEncode(t *testing.T) {
	lines, err := conceptfinder.Encode(context.Background(), []string{"a", "b"},
		conceptfinder.WithTransport(enginetest.NewPipeTransport(enginetest.Fixed("VEC1", "VEC2"))),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"VEC1", "VEC2"}, lines)
}

func TestExtract_EmptyBatch(t *testing.T) {
	transport := enginetest.NewPipeTransport(enginetest.Echo)

	concepts, err := conceptfinder.Extract(context.Background(), nil, conceptfinder.WithTransport(transport))
	require.NoError(t, err)
	require.NotNil(t, concepts)
	require.Empty(t, concepts)
	require.Zero(t, transport.Writes())
}

func TestExtract_Subprocess(t *testing.T) {
	concepts, err := conceptfinder.Extract(context.Background(), []string{"renal failure"},
		selfEngine(t, enginetest.ModeEcho)...)
	require.NoError(t, err)

	ids, spans := concepts.Split()
	require.Equal(t, []string{"renal", "failure"}, ids)
	require.Equal(t, []int{5, 7}, spans)
}

func TestExtract_TruncatedResponse(t *testing.T) {
	_, err := conceptfinder.Extract(context.Background(), []string{"anything"},
		selfEngine(t, enginetest.ModeTruncate)...)

	peerErr, ok := errors.AsType[*conceptfinder.PeerClosedError](err)
	require.True(t, ok, "expected PeerClosedError, got %v", err)
	require.Equal(t, "read body", peerErr.Op)
}

func TestEncode_EngineCrash(t *testing.T) {
	_, err := conceptfinder.Encode(context.Background(), []string{"anything"},
		selfEngine(t, enginetest.ModeCrash)...)

	peerErr, ok := errors.AsType[*conceptfinder.PeerClosedError](err)
	require.True(t, ok, "expected PeerClosedError, got %v", err)
	require.Equal(t, 3, peerErr.ExitCode)
	require.Contains(t, peerErr.Stderr, enginetest.CrashMessage)
}
