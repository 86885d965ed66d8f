package conceptfinder

import "context"

// Extract starts an engine, sends the sentences as one extract request and
// stops the engine.
//
// The returned concepts are in engine order and are not attributed to
// sentences. Use a Client to send several requests to one engine, or a Pool
// for per-sentence results.
//
// Example:
//
//	concepts, err := conceptfinder.Extract(ctx, []string{"acute myocardial infarction"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, spans := concepts.Split()
func Extract(ctx context.Context, sentences []string, opts ...Option) (Concepts, error) {
	var concepts Concepts

	err := WithClient(ctx, func(c Client) error {
		var err error

		concepts, err = c.ExtractConcepts(ctx, sentences)

		return err
	}, opts...)
	if err != nil {
		return nil, err
	}

	return concepts, nil
}

// Encode starts an engine, sends the sentences as one encode request and
// stops the engine. The returned lines are opaque engine output.
func Encode(ctx context.Context, sentences []string, opts ...Option) ([]string, error) {
	var lines []string

	err := WithClient(ctx, func(c Client) error {
		var err error

		lines, err = c.EncodeConcepts(ctx, sentences)

		return err
	}, opts...)
	if err != nil {
		return nil, err
	}

	return lines, nil
}
