package conceptfinder

import "context"

// Client provides a long-lived session with one engine process.
//
// Unlike the one-shot Extract and Encode functions, Client keeps the engine
// running between requests, which avoids paying its start-up cost (loading
// dictionaries) on every call.
//
// Lifecycle: Clients are single-use. After Close(), create a new client with NewClient().
//
// Example usage:
//
//	client := conceptfinder.NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    conceptfinder.WithLogger(slog.Default()),
//	    conceptfinder.WithDir("/srv/conceptfinder"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	concepts, err := client.ExtractConcepts(ctx, []string{"chest pain and fever"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, c := range concepts {
//	    fmt.Println(c.ID, c.SpanLength)
//	}
type Client interface {
	// Start launches the engine and opens the session.
	// Must be called before any other methods.
	// Returns ProcessLaunchError if the engine cannot be started.
	Start(ctx context.Context, opts ...Option) error

	// ExtractConcepts sends one extract request and returns the concepts in
	// engine order. The response does not attribute concepts to sentences.
	ExtractConcepts(ctx context.Context, sentences []string) (Concepts, error)

	// EncodeConcepts sends one encode request and returns the engine's
	// output lines unchanged.
	EncodeConcepts(ctx context.Context, sentences []string) ([]string, error)

	// SessionID returns the identifier attached to this session's log records.
	SessionID() string

	// Healthy reports whether the session can serve another request.
	Healthy() bool

	// Close stops the engine and cleans up resources.
	// After Close(), the client cannot be reused. Safe to call multiple times.
	Close() error
}

// NewClient creates a new session client.
//
// Call Start() with options to launch the engine:
//
//	client := conceptfinder.NewClient()
//	err := client.Start(ctx,
//	    conceptfinder.WithLogger(slog.Default()),
//	    conceptfinder.WithReadTimeout(time.Minute),
//	)
func NewClient() Client {
	return newClientImpl()
}
