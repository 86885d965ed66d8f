package protocol

import (
	"bufio"
	"bytes"
	stderrors "errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/conceptfinder-go/internal/errors"
)

// mockChunkReader delivers data in controlled chunks to simulate pipe reads.
type mockChunkReader struct {
	chunks [][]byte
	index  int
	reads  int
}

func newMockChunkReader(chunks ...string) *mockChunkReader {
	byteChunks := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		byteChunks[i] = []byte(chunk)
	}

	return &mockChunkReader{chunks: byteChunks}
}

func (r *mockChunkReader) Read(p []byte) (int, error) {
	r.reads++

	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}

	chunk := r.chunks[r.index]
	r.index++

	n := copy(p, chunk)

	return n, nil
}

// failingReader fails every read, counting attempts.
type failingReader struct {
	reads int
}

func (r *failingReader) Read([]byte) (int, error) {
	r.reads++

	return 0, stderrors.New("read must not be called")
}

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name      string
		cmd       Command
		sentences []string
		want      string
	}{
		{
			name:      "extract single sentence",
			cmd:       Extract,
			sentences: []string{"The patient has diabetes."},
			want:      "x 1\nThe patient has diabetes.\n",
		},
		{
			name:      "encode two sentences",
			cmd:       Encode,
			sentences: []string{"flu", "cough"},
			want:      "e 2\nflu\ncough\n",
		},
		{
			name:      "empty batch",
			cmd:       Extract,
			sentences: nil,
			want:      "x 0\n",
		},
		{
			name:      "verbatim content",
			cmd:       Encode,
			sentences: []string{"  leading and trailing  ", "", "naïve café\tTab"},
			want:      "e 3\n  leading and trailing  \n\nnaïve café\tTab\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := EncodeRequest(tc.cmd, tc.sentences)
			require.NoError(t, err)
			require.Equal(t, tc.want, string(data))
		})
	}
}

func TestEncodeRequest_RejectsLineTerminators(t *testing.T) {
	tests := []struct {
		name      string
		sentences []string
		index     int
		reason    string
	}{
		{name: "newline", sentences: []string{"ok", "two\nlines"}, index: 1, reason: "newline"},
		{name: "carriage return", sentences: []string{"bad\r"}, index: 0, reason: "carriage return"},
		{name: "crlf", sentences: []string{"a", "b", "c\r\nd"}, index: 2, reason: "carriage return"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			err := WriteRequest(&buf, Extract, tc.sentences)

			inputErr, ok := stderrors.AsType[*errors.InvalidInputError](err)
			require.True(t, ok, "expected InvalidInputError, got %v", err)
			require.Equal(t, tc.index, inputErr.Index)
			require.Contains(t, inputErr.Reason, tc.reason)
			require.Zero(t, buf.Len(), "nothing may be written for invalid input")
		})
	}
}

func TestEncodeRequest_UnknownCommand(t *testing.T) {
	_, err := EncodeRequest(Command('q'), []string{"x"})

	require.ErrorIs(t, err, errors.ErrUnknownCommand)
}

func TestWriteRequest_FlushesBufferedWriter(t *testing.T) {
	var sink bytes.Buffer

	w := bufio.NewWriterSize(&sink, 4096)

	require.NoError(t, WriteRequest(w, Extract, []string{"fever"}))
	require.Equal(t, "x 1\nfever\n", sink.String())
}

func TestReadExtract(t *testing.T) {
	r := NewReader(strings.NewReader("1\nC0011849 9\n"), 0)

	concepts, err := r.ReadExtract()

	require.NoError(t, err)
	require.Equal(t, Concepts{{ID: "C0011849", SpanLength: 9}}, concepts)

	ids, spans := concepts.Split()
	require.Equal(t, []string{"C0011849"}, ids)
	require.Equal(t, []int{9}, spans)
}

func TestReadEncode(t *testing.T) {
	r := NewReader(strings.NewReader("2\nVEC1\nVEC2\n"), 0)

	lines, err := r.ReadEncode()

	require.NoError(t, err)
	require.Equal(t, []string{"VEC1", "VEC2"}, lines)
}

func TestReadEncode_LinesReturnedAsSent(t *testing.T) {
	r := NewReader(strings.NewReader("3\n C0011849 has  gaps \n\nwindows line\r\n"), 0)

	lines, err := r.ReadEncode()

	require.NoError(t, err)
	require.Equal(t, []string{" C0011849 has  gaps ", "", "windows line"}, lines)
}

func TestReader_ZeroCountPerformsNoBodyRead(t *testing.T) {
	body := &failingReader{}
	r := NewReader(io.MultiReader(strings.NewReader("0\n"), body), 0)

	concepts, err := r.ReadExtract()

	require.NoError(t, err)
	require.NotNil(t, concepts)
	require.Empty(t, concepts)
	require.Zero(t, body.reads)

	lines, err := r.ReadBody(Encode, 0)
	require.NoError(t, err)
	require.Empty(t, lines)
	require.Zero(t, body.reads)
}

func TestReader_ConsumesExactlyDeclaredLines(t *testing.T) {
	for _, cmd := range []Command{Extract, Encode} {
		for _, n := range []int{0, 1, 2, 17} {
			t.Run(cmd.String()+"/"+strconv.Itoa(n), func(t *testing.T) {
				lines := make([]string, n)
				for i := range lines {
					lines[i] = "C" + strconv.Itoa(i) + " 1"
				}

				// Two responses back to back: the second must stay intact.
				stream := string(EncodeResponse(lines)) + string(EncodeResponse([]string{"NEXT 2"}))
				r := NewReader(strings.NewReader(stream), 0)

				var got int

				switch cmd {
				case Extract:
					concepts, err := r.ReadExtract()
					require.NoError(t, err)

					got = len(concepts)
				case Encode:
					out, err := r.ReadEncode()
					require.NoError(t, err)

					got = len(out)
				}

				require.Equal(t, n, got)

				next, err := r.ReadExtract()
				require.NoError(t, err)
				require.Equal(t, Concepts{{ID: "NEXT", SpanLength: 2}}, next)
			})
		}
	}
}

func TestReader_SplitAcrossReads(t *testing.T) {
	r := NewReader(newMockChunkReader("2\nC00", "11849 9\nC00", "04096", " 1\n"), 0)

	concepts, err := r.ReadExtract()

	require.NoError(t, err)
	require.Equal(t, Concepts{{ID: "C0011849", SpanLength: 9}, {ID: "C0004096", SpanLength: 1}}, concepts)
}

func TestReader_EarlyCloseIsPeerClosed(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		op     string
	}{
		{name: "no header", stream: "", op: "read header"},
		{name: "partial header", stream: "3", op: "read header"},
		{name: "header 3 with 2 lines", stream: "3\nC1 1\nC2 1\n", op: "read body"},
		{name: "unterminated last line", stream: "2\nC1 1\nC2 1", op: "read body"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tc.stream), 0)

			concepts, err := r.ReadExtract()

			require.Nil(t, concepts)

			peerErr, ok := stderrors.AsType[*errors.PeerClosedError](err)
			require.True(t, ok, "expected PeerClosedError, got %v", err)
			require.Equal(t, tc.op, peerErr.Op)

			_, isProtocol := stderrors.AsType[*errors.ProtocolError](err)
			require.False(t, isProtocol)
		})
	}
}

func TestReader_EarlyCloseReportsProgress(t *testing.T) {
	r := NewReader(strings.NewReader("3\nVEC1\nVEC2\n"), 0)

	_, err := r.ReadEncode()

	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	require.Contains(t, err.Error(), "received 2 of 3 lines")
}

func TestReader_MalformedHeader(t *testing.T) {
	tests := []struct {
		name   string
		stream string
	}{
		{name: "non numeric", stream: "two\n"},
		{name: "negative", stream: "-1\n"},
		{name: "explicit sign", stream: "+1\n"},
		{name: "overflow", stream: "99999999999999999999\n"},
		{name: "engine diagnostic", stream: "invalid method: q 1\n"},
		{name: "empty line", stream: "\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(strings.NewReader(tc.stream), 0)

			_, err := r.ReadEncode()

			protoErr, ok := stderrors.AsType[*errors.ProtocolError](err)
			require.True(t, ok, "expected ProtocolError, got %v", err)
			require.Equal(t, -1, protoErr.Index)
			require.Equal(t, strings.TrimSuffix(tc.stream, "\n"), protoErr.Line)
		})
	}
}

func TestReader_HeaderToleratesSurroundingWhitespace(t *testing.T) {
	r := NewReader(strings.NewReader(" 1 \r\nVEC\n"), 0)

	lines, err := r.ReadEncode()

	require.NoError(t, err)
	require.Equal(t, []string{"VEC"}, lines)
}

func TestReader_MalformedExtractLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		index int
	}{
		{name: "non integer span", line: "C0011849 nine", index: 1},
		{name: "missing span", line: "C0011849", index: 1},
		{name: "negative span", line: "C0011849 -2", index: 1},
		{name: "empty id", line: " 3", index: 1},
		{name: "extra field", line: "C0011849 2 3", index: 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stream := "3\nC0000001 1\n" + tc.line + "\nC0000003 1\n"
			r := NewReader(strings.NewReader(stream), 0)

			_, err := r.ReadExtract()

			protoErr, ok := stderrors.AsType[*errors.ProtocolError](err)
			require.True(t, ok, "expected ProtocolError, got %v", err)
			require.Equal(t, tc.index, protoErr.Index)
			require.Equal(t, tc.line, protoErr.Line)
			require.Equal(t, "extract", protoErr.Command)
		})
	}
}

func TestReader_LineTooLong(t *testing.T) {
	stream := "1\n" + strings.Repeat("x", 64) + "\n"
	r := NewReader(strings.NewReader(stream), 16)

	_, err := r.ReadEncode()

	protoErr, ok := stderrors.AsType[*errors.ProtocolError](err)
	require.True(t, ok, "expected ProtocolError, got %v", err)
	require.Equal(t, 0, protoErr.Index)
	require.ErrorIs(t, err, errLineTooLong)
}

func TestReader_LineAtLimit(t *testing.T) {
	exact := strings.Repeat("x", 16)

	for name, terminator := range map[string]string{"lf": "\n", "crlf": "\r\n"} {
		t.Run(name, func(t *testing.T) {
			r := NewReader(strings.NewReader("1\n"+exact+terminator), 16)

			lines, err := r.ReadEncode()

			require.NoError(t, err)
			require.Equal(t, []string{exact}, lines)
		})
	}

	t.Run("one byte over with crlf", func(t *testing.T) {
		r := NewReader(strings.NewReader("1\n"+exact+"x\r\n"), 16)

		_, err := r.ReadEncode()

		require.ErrorIs(t, err, errLineTooLong)
	})
}

func TestReader_LongLineWithinLimit(t *testing.T) {
	long := strings.Repeat("y", 200*1024)
	r := NewReader(strings.NewReader("1\n"+long+"\n"), 0)

	lines, err := r.ReadEncode()

	require.NoError(t, err)
	require.Equal(t, []string{long}, lines)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand("x")
	require.NoError(t, err)
	require.Equal(t, Extract, cmd)
	require.Equal(t, "x", cmd.Tag())

	cmd, err = ParseCommand("e")
	require.NoError(t, err)
	require.Equal(t, Encode, cmd)
	require.Equal(t, "encode", cmd.String())

	_, err = ParseCommand("xe")
	require.ErrorIs(t, err, errors.ErrUnknownCommand)
}

func TestParseRequestHeader(t *testing.T) {
	tests := []struct {
		line    string
		cmd     Command
		n       int
		wantErr error
	}{
		{line: "x 3", cmd: Extract, n: 3},
		{line: "  e 0  ", cmd: Encode, n: 0},
		{line: "q 3", wantErr: ErrInvalidMethod},
		{line: "x", wantErr: ErrInvalidSentenceCount},
		{line: "x -1", wantErr: ErrInvalidSentenceCount},
		{line: "e many", wantErr: ErrInvalidSentenceCount},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			cmd, n, err := ParseRequestHeader(tc.line)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				require.Equal(t, tc.wantErr.Error()+": "+tc.line, err.Error())

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.cmd, cmd)
			require.Equal(t, tc.n, n)
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	sentences := []string{"The patient has diabetes.", "", "No fever"}

	data, err := EncodeRequest(Encode, sentences)
	require.NoError(t, err)

	br := bufio.NewReader(bytes.NewReader(data))
	header, err := br.ReadString('\n')
	require.NoError(t, err)

	cmd, n, err := ParseRequestHeader(header)
	require.NoError(t, err)
	require.Equal(t, Encode, cmd)
	require.Equal(t, len(sentences), n)

	for _, want := range sentences {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, want, strings.TrimSuffix(line, "\n"))
	}
}

func TestFormatConcept(t *testing.T) {
	line := FormatConcept(Concept{ID: "C0011849", SpanLength: 9})

	require.Equal(t, "C0011849 9", line)

	c, err := ParseConcept(line)
	require.NoError(t, err)
	require.Equal(t, Concept{ID: "C0011849", SpanLength: 9}, c)
}
