package protocol

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

const (
	// DefaultMaxLineSize is the longest response line a Reader accepts.
	DefaultMaxLineSize = 1024 * 1024 // 1MB

	// maxPrealloc caps the capacity reserved from a declared line count.
	maxPrealloc = 1024
)

var (
	errLineTooLong    = stderrors.New("line exceeds maximum size")
	errMissingSpan    = stderrors.New("missing span length")
	errEmptyConceptID = stderrors.New("empty concept id")
	errNegativeSpan   = stderrors.New("negative span length")
)

// Concept is a term detected by the engine: its identifier and the number of
// words it spans.
type Concept struct {
	ID         string
	SpanLength int
}

// Concepts is an ordered extract result.
type Concepts []Concept

// Split returns the concept identifiers and span lengths as parallel slices.
func (cs Concepts) Split() (ids []string, spanLengths []int) {
	ids = make([]string, len(cs))
	spanLengths = make([]int, len(cs))

	for i, c := range cs {
		ids[i] = c.ID
		spanLengths[i] = c.SpanLength
	}

	return ids, spanLengths
}

// Reader decodes responses from the engine's output stream.
//
// A Reader buffers its input and must be reused for every response read from
// the same stream.
type Reader struct {
	br          *bufio.Reader
	maxLineSize int
}

// NewReader creates a Reader over r. A maxLineSize of zero or less selects
// DefaultMaxLineSize.
func NewReader(r io.Reader, maxLineSize int) *Reader {
	if maxLineSize <= 0 {
		maxLineSize = DefaultMaxLineSize
	}

	return &Reader{
		br:          bufio.NewReaderSize(r, min(maxLineSize, 64*1024)),
		maxLineSize: maxLineSize,
	}
}

// readLine returns the next line without its terminator.
// A final line without a terminator is reported as io.ErrUnexpectedEOF.
func (r *Reader) readLine() (string, error) {
	var line []byte

	for {
		chunk, err := r.br.ReadSlice('\n')

		// Leave room for a CRLF terminator; the limit applies to the content.
		if len(line)+len(chunk) > r.maxLineSize+2 {
			return "", errLineTooLong
		}

		line = append(line, chunk...)

		switch {
		case err == nil:
			line = line[:len(line)-1]
			if n := len(line); n > 0 && line[n-1] == '\r' {
				line = line[:n-1]
			}

			if len(line) > r.maxLineSize {
				return "", errLineTooLong
			}

			return string(line), nil
		case stderrors.Is(err, bufio.ErrBufferFull):
			continue
		case stderrors.Is(err, io.EOF) && len(line) > 0:
			return "", io.ErrUnexpectedEOF
		default:
			return "", err
		}
	}
}

// ReadHeader reads a response header and returns the declared line count.
func (r *Reader) ReadHeader(cmd Command) (int, error) {
	line, err := r.readLine()
	if err != nil {
		return 0, r.lineError(cmd, "read header", -1, err)
	}

	// The count is unsigned: no sign prefix is accepted.
	n, err := strconv.ParseUint(strings.TrimSpace(line), 10, strconv.IntSize-1)
	if err != nil {
		return 0, &errors.ProtocolError{Command: cmd.String(), Index: -1, Line: line, Err: err}
	}

	return int(n), nil
}

// ReadBody reads exactly n lines. It performs no read when n is zero.
func (r *Reader) ReadBody(cmd Command, n int) ([]string, error) {
	if n <= 0 {
		return []string{}, nil
	}

	lines := make([]string, 0, min(n, maxPrealloc))

	for i := range n {
		line, err := r.readLine()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}

			if !stderrors.Is(err, errLineTooLong) {
				err = fmt.Errorf("received %d of %d lines: %w", i, n, err)
			}

			return nil, r.lineError(cmd, "read body", i, err)
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// ReadExtract reads one extract response.
func (r *Reader) ReadExtract() (Concepts, error) {
	n, err := r.ReadHeader(Extract)
	if err != nil {
		return nil, err
	}

	lines, err := r.ReadBody(Extract, n)
	if err != nil {
		return nil, err
	}

	concepts := make(Concepts, 0, len(lines))

	for i, line := range lines {
		c, err := ParseConcept(line)
		if err != nil {
			return nil, &errors.ProtocolError{Command: Extract.String(), Index: i, Line: line, Err: err}
		}

		concepts = append(concepts, c)
	}

	return concepts, nil
}

// ReadEncode reads one encode response. Lines are returned as sent.
func (r *Reader) ReadEncode() ([]string, error) {
	n, err := r.ReadHeader(Encode)
	if err != nil {
		return nil, err
	}

	return r.ReadBody(Encode, n)
}

// ParseConcept parses an extract response line of the form
// "<concept_id> <span_length>", splitting on the first space.
func ParseConcept(line string) (Concept, error) {
	id, span, ok := strings.Cut(strings.TrimSpace(line), " ")
	if !ok {
		return Concept{}, errMissingSpan
	}

	if id == "" {
		return Concept{}, errEmptyConceptID
	}

	n, err := strconv.Atoi(span)
	if err != nil {
		return Concept{}, err
	}

	if n < 0 {
		return Concept{}, errNegativeSpan
	}

	return Concept{ID: id, SpanLength: n}, nil
}

// lineError classifies a failed line read. Oversized lines are protocol
// violations; anything else means the stream is gone.
func (r *Reader) lineError(cmd Command, op string, index int, err error) error {
	if stderrors.Is(err, errLineTooLong) {
		return &errors.ProtocolError{Command: cmd.String(), Index: index, Err: err}
	}

	return &errors.PeerClosedError{Op: op, Err: err}
}
