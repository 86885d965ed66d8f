package conceptfinder

import (
	"context"

	"github.com/wagiedev/conceptfinder-go/internal/client"
)

// clientWrapper wraps the internal client to adapt it to the public interface.
type clientWrapper struct {
	impl *client.Client
}

// Compile-time check that *clientWrapper implements the Client interface.
var _ Client = (*clientWrapper)(nil)

// newClientImpl creates the internal client implementation.
func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

// Start launches the engine and opens the session.
func (c *clientWrapper) Start(ctx context.Context, opts ...Option) error {
	return c.impl.Start(ctx, applyOptions(opts))
}

// ExtractConcepts sends one extract request.
func (c *clientWrapper) ExtractConcepts(ctx context.Context, sentences []string) (Concepts, error) {
	return c.impl.ExtractConcepts(ctx, sentences)
}

// EncodeConcepts sends one encode request.
func (c *clientWrapper) EncodeConcepts(ctx context.Context, sentences []string) ([]string, error) {
	return c.impl.EncodeConcepts(ctx, sentences)
}

// SessionID returns the session identifier.
func (c *clientWrapper) SessionID() string {
	return c.impl.SessionID()
}

// Healthy reports whether the session can serve another request.
func (c *clientWrapper) Healthy() bool {
	return c.impl.Healthy()
}

// Close stops the engine and cleans up resources.
func (c *clientWrapper) Close() error {
	return c.impl.Close()
}
