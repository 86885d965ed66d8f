package enginetest

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/wagiedev/conceptfinder-go/internal/protocol"
)

// maxSentenceSize bounds a single request line.
const maxSentenceSize = 1024 * 1024

// Handler computes the response lines for one request.
type Handler func(cmd protocol.Command, sentences []string) []string

// Echo is a deterministic handler. Extract yields one concept per word, with
// the word as its identifier and the word's length in characters as its span;
// encode upper-cases each sentence.
func Echo(cmd protocol.Command, sentences []string) []string {
	var lines []string

	for _, s := range sentences {
		switch cmd {
		case protocol.Extract:
			for _, word := range strings.Fields(s) {
				lines = append(lines, protocol.FormatConcept(protocol.Concept{
					ID:         word,
					SpanLength: utf8.RuneCountInString(word),
				}))
			}
		case protocol.Encode:
			lines = append(lines, strings.ToUpper(s))
		}
	}

	return lines
}

// Fixed returns a handler that answers every request with lines.
func Fixed(lines ...string) Handler {
	return func(protocol.Command, []string) []string {
		return lines
	}
}

// Serve runs the engine loop over r and w until r is exhausted, ctx is done,
// or a request header is malformed.
//
// Blank lines between requests are skipped. A malformed header is answered
// with a diagnostic line ("invalid method: ..." or
// "invalid number of sentences: ...") after which Serve stops and returns the
// header error. Sentences are trimmed before they reach the handler.
func Serve(ctx context.Context, r io.Reader, w io.Writer, handler Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSentenceSize)

	bw := bufio.NewWriter(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, n, err := protocol.ParseRequestHeader(line)
		if err != nil {
			if _, werr := fmt.Fprintln(bw, err.Error()); werr != nil {
				return werr
			}

			if ferr := bw.Flush(); ferr != nil {
				return ferr
			}

			return err
		}

		sentences := make([]string, 0, n)

		for i := range n {
			if !scanner.Scan() {
				return fmt.Errorf("read sentence %d of %d: %w", i+1, n, scanErr(scanner))
			}

			sentences = append(sentences, strings.TrimSpace(scanner.Text()))
		}

		if err := protocol.WriteResponse(bw, handler(cmd, sentences)); err != nil {
			return err
		}
	}

	return scanner.Err()
}

func scanErr(s *bufio.Scanner) error {
	if err := s.Err(); err != nil {
		return err
	}

	return io.ErrUnexpectedEOF
}

// IsHeaderError reports whether err is a malformed request header.
func IsHeaderError(err error) bool {
	return stderrors.Is(err, protocol.ErrInvalidMethod) ||
		stderrors.Is(err, protocol.ErrInvalidSentenceCount)
}
