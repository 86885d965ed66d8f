package protocol

import (
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Engine-side header errors. Their text matches the diagnostics the engine
// prints before it stops serving.
var (
	ErrInvalidMethod        = stderrors.New("invalid method")
	ErrInvalidSentenceCount = stderrors.New("invalid number of sentences")
)

// ParseRequestHeader parses a request header line as the engine does: the
// trimmed line is split on spaces, the first field is the command tag and the
// second a non-negative sentence count.
func ParseRequestHeader(line string) (Command, int, error) {
	parts := strings.Split(strings.TrimSpace(line), " ")

	cmd, err := ParseCommand(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidMethod, line)
	}

	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidSentenceCount, line)
	}

	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidSentenceCount, line)
	}

	return cmd, n, nil
}

// EncodeResponse builds a response payload: the line count followed by the
// lines themselves.
func EncodeResponse(lines []string) []byte {
	var b strings.Builder

	b.WriteString(strconv.Itoa(len(lines)))
	b.WriteByte('\n')

	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	return []byte(b.String())
}

// WriteResponse writes a response and flushes w if it buffers.
func WriteResponse(w io.Writer, lines []string) error {
	if _, err := w.Write(EncodeResponse(lines)); err != nil {
		return fmt.Errorf("write response: %w", err)
	}

	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush response: %w", err)
		}
	}

	return nil
}

// FormatConcept renders a concept as an extract response line.
func FormatConcept(c Concept) string {
	return c.ID + " " + strconv.Itoa(c.SpanLength)
}
