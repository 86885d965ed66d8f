package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// ValidateSentences checks that every sentence fits on a single line.
// The engine treats "\r" as a line terminator as well as "\n".
func ValidateSentences(sentences []string) error {
	for i, s := range sentences {
		if idx := strings.IndexAny(s, "\r\n"); idx >= 0 {
			reason := "contains a newline"
			if s[idx] == '\r' {
				reason = "contains a carriage return"
			}

			return &errors.InvalidInputError{Index: i, Reason: reason}
		}
	}

	return nil
}

// EncodeRequest builds the wire payload for a request.
//
// Sentences are written verbatim, one per line. EncodeRequest fails with
// InvalidInputError if a sentence contains a line terminator.
func EncodeRequest(cmd Command, sentences []string) ([]byte, error) {
	if !cmd.Valid() {
		return nil, fmt.Errorf("encode request: %w: %s", errors.ErrUnknownCommand, cmd)
	}

	if err := ValidateSentences(sentences); err != nil {
		return nil, err
	}

	size := 3 + len(strconv.Itoa(len(sentences)))
	for _, s := range sentences {
		size += len(s) + 1
	}

	var buf bytes.Buffer

	buf.Grow(size)
	buf.WriteByte(byte(cmd))
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(len(sentences)))
	buf.WriteByte('\n')

	for _, s := range sentences {
		buf.WriteString(s)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// WriteRequest encodes a request and writes it with a single Write call.
// If w buffers its output (has a Flush method) it is flushed afterwards.
func WriteRequest(w io.Writer, cmd Command, sentences []string) error {
	data, err := EncodeRequest(cmd, sentences)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s request: %w", cmd, err)
	}

	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush %s request: %w", cmd, err)
		}
	}

	return nil
}
