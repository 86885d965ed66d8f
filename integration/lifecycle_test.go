//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	conceptfinder "github.com/wagiedev/conceptfinder-go"
)

// TestSession_ManyRequests tests that one engine serves many sequential
// requests without losing framing.
func TestSession_ManyRequests(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	client := conceptfinder.NewClient()
	defer client.Close()

	if err := client.Start(ctx, engineOptions()...); err != nil {
		skipIfEngineNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	for i := range 20 {
		_, err := client.ExtractConcepts(ctx, []string{"Chest pain.", "Shortness of breath."})
		require.NoError(t, err, "request %d", i)

		lines, err := client.EncodeConcepts(ctx, []string{"Chest pain."})
		require.NoError(t, err, "request %d", i)
		require.Len(t, lines, 1)
	}

	require.True(t, client.Healthy())
}

// TestSession_CloseStopsEngine tests that Close returns promptly and the
// session refuses further work.
func TestSession_CloseStopsEngine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := conceptfinder.NewClient()

	if err := client.Start(ctx, engineOptions(conceptfinder.WithStopTimeout(10*time.Second))...); err != nil {
		skipIfEngineNotInstalled(t, err)
		t.Fatalf("Start failed: %v", err)
	}

	start := time.Now()
	require.NoError(t, client.Close())
	require.Less(t, time.Since(start), 15*time.Second)

	_, err := client.ExtractConcepts(ctx, []string{"fever"})
	require.ErrorIs(t, err, conceptfinder.ErrClientClosed)
}

// TestPool_AttributesConcepts tests that per-sentence results line up with
// single-session batch results.
func TestPool_AttributesConcepts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	sentences := []string{"Hypertension.", "Type 2 diabetes mellitus.", "Asthma."}

	pool, err := conceptfinder.NewPool(ctx, 2, engineOptions()...)
	if err != nil {
		skipIfEngineNotInstalled(t, err)
		t.Fatalf("NewPool failed: %v", err)
	}
	defer pool.Close()

	perSentence, err := pool.ExtractEach(ctx, sentences)
	require.NoError(t, err)
	require.Len(t, perSentence, len(sentences))

	flattened := conceptfinder.Concepts{}
	for _, concepts := range perSentence {
		flattened = append(flattened, concepts...)
	}

	batch, err := conceptfinder.Extract(ctx, sentences, engineOptions()...)
	require.NoError(t, err)
	require.Equal(t, batch, flattened)
}
