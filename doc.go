// Package conceptfinder provides a Go SDK for the concept finder engine.
//
// The engine is an external, long-running process that annotates free-text
// sentences with medical concept identifiers. This SDK launches it as a
// child process, owns it for the lifetime of a session and speaks its
// line-framed protocol over stdin/stdout. It supports one-shot calls,
// long-lived sessions and a pool of sessions for parallel work.
//
// # Basic Usage
//
// For a single batch, use Extract or Encode:
//
//	ctx := context.Background()
//	concepts, err := conceptfinder.Extract(ctx, []string{"the patient has a fever"},
//	    conceptfinder.WithDir("/srv/conceptfinder"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ids, spans := concepts.Split()
//
// # Sessions
//
// Starting the engine is expensive. For repeated requests, keep a session
// open with NewClient or the WithClient helper:
//
//	err := conceptfinder.WithClient(ctx, func(c conceptfinder.Client) error {
//	    concepts, err := c.ExtractConcepts(ctx, sentences)
//	    if err != nil {
//	        return err
//	    }
//	    // process concepts...
//	    return nil
//	},
//	    conceptfinder.WithLogger(slog.Default()),
//	    conceptfinder.WithReadTimeout(30*time.Second),
//	)
//
// A session handles one request at a time; concurrent calls are serialized.
// The extract response does not say which sentence a concept came from. Use
// a Pool, which sends one sentence per request across several sessions, when
// that attribution matters:
//
//	pool, err := conceptfinder.NewPool(ctx, 4, conceptfinder.WithDir(dir))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Close()
//
//	perSentence, err := pool.ExtractEach(ctx, sentences)
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	concepts, err := conceptfinder.Extract(ctx, sentences,
//	    conceptfinder.WithLogger(logger),
//	)
//
// # Error Handling
//
// The SDK provides typed errors for different failure scenarios:
//
//	concepts, err := conceptfinder.Extract(ctx, sentences)
//	if err != nil {
//	    if launchErr, ok := errors.AsType[*conceptfinder.ProcessLaunchError](err); ok {
//	        log.Fatalf("engine could not be started in %s: %v", launchErr.Dir, launchErr.Err)
//	    }
//	    if peerErr, ok := errors.AsType[*conceptfinder.PeerClosedError](err); ok {
//	        log.Fatalf("engine exited with code %d: %s", peerErr.ExitCode, peerErr.Stderr)
//	    }
//	    log.Fatal(err)
//	}
//
// A session whose response stream failed cannot be resynchronized. Later
// calls return ErrSessionBroken and a new session must be started.
//
// # Requirements
//
// By default the engine is launched as "dotnet run" in ./conceptfinder, which
// requires the .NET SDK on PATH. Use WithCommand, WithArgs and WithDir to
// launch a published engine binary instead.
package conceptfinder
