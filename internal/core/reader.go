package core

// reader.go wraps upload input for line-oriented parsing.
//
// Upload files come from spreadsheet exports, so the reader tolerates a
// UTF-8 byte order mark, CRLF line endings and stray invalid bytes. Input is
// consumed as a stream; only the current line is held in memory.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// DefaultMaxLineBytes caps a single line when ParseOptions leaves it unset.
const DefaultMaxLineBytes = 1 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LineReader yields cleaned lines from an upload stream.
type LineReader struct {
	scanner *bufio.Scanner
	counter *countingReader
	line    int
}

// NewLineReader wraps r. maxLine <= 0 uses DefaultMaxLineBytes.
func NewLineReader(r io.Reader, maxLine int) *LineReader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	counter := &countingReader{reader: r}

	br := bufio.NewReader(counter)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)

	return &LineReader{scanner: sc, counter: counter}
}

// Next returns the next line without its terminator. ok is false at end of
// input or on error; check Err afterwards.
func (lr *LineReader) Next() (line string, ok bool) {
	if !lr.scanner.Scan() {
		return "", false
	}
	lr.line++

	text := strings.TrimSuffix(lr.scanner.Text(), "\r")
	return strings.ToValidUTF8(text, "?"), true
}

// Line is the 1-based number of the last line returned.
func (lr *LineReader) Line() int { return lr.line }

// BytesRead reports how much of the underlying stream has been consumed.
func (lr *LineReader) BytesRead() int64 { return lr.counter.n }

// Err returns the first non-EOF error. An over-long line is reported as a
// *ParseError on the following line number.
func (lr *LineReader) Err() error {
	err := lr.scanner.Err()
	if errors.Is(err, bufio.ErrTooLong) {
		return &ParseError{Line: lr.line + 1, Err: ErrLineTooLong}
	}
	return err
}

// countingReader tracks bytes read from the wrapped reader.
type countingReader struct {
	reader io.Reader
	n      int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n += int64(n)
	return n, err
}

// LimitReader fails with ErrFileTooLarge once more than max bytes are read.
// max <= 0 disables the limit.
func LimitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return &sizeLimitReader{reader: r, remaining: max}
}

type sizeLimitReader struct {
	reader    io.Reader
	remaining int64
}

func (r *sizeLimitReader) Read(p []byte) (int, error) {
	if r.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	// Allow one byte past the limit so an exact-size file still succeeds.
	if int64(len(p)) > r.remaining+1 {
		p = p[:r.remaining+1]
	}
	n, err := r.reader.Read(p)
	r.remaining -= int64(n)
	if r.remaining < 0 {
		return n, ErrFileTooLarge
	}
	return n, err
}
