package core

// ingest.go is the parse driver for tab-delimited listing uploads.
//
// The first line is the header; its cells are matched to schema fields by
// exact label. Every following non-blank line is one row, numbered from 1 by
// its position after the header (blank lines still advance the number but
// are neither counted nor reported). Each row is validated on its raw cell
// text and only then coerced into a ListingRow.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxFileSize is the largest upload accepted when no limit is configured (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// ContextCheckInterval is how many rows are processed between cancellation checks.
var ContextCheckInterval = 100

// Parse progress milestones, in percent.
const (
	progressParseStart = 25
	progressParseEnd   = 95
	progressDone       = 100
)

var (
	ErrEmptyFile      = errors.New("file is empty")
	ErrHeaderNotFound = errors.New("header row has no recognized column labels")
	ErrFileTooLarge   = errors.New("file exceeds size limit")
	ErrLineTooLong    = errors.New("line exceeds maximum length")
)

// ParseError is a fatal parse failure. No rows are returned with it.
type ParseError struct {
	Line int // 0 when not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse failed at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseOptions tunes ParseListings. The zero value is usable.
type ParseOptions struct {
	MaxBytes     int64             // <= 0 disables the size limit
	MaxLineBytes int               // <= 0 uses DefaultMaxLineBytes
	Progress     func(percent int) // optional
}

// RowFailure is a row that failed validation.
type RowFailure struct {
	Line   int      `json:"line"`
	Errors []string `json:"errors"`
}

// ParseResult partitions parsed rows into accepted and rejected sets.
// Both keep source order.
type ParseResult struct {
	Header  []string     `json:"header"`  // recognized labels, in file order
	Ignored []string     `json:"ignored"` // header cells matching no field
	Rows    []ListingRow `json:"rows"`
	Invalid []RowFailure `json:"invalid"`
	Total   int          `json:"total"`
	Bytes   int64        `json:"bytes"` // input consumed, BOM included
}

// Errors flattens every validation message in row order.
func (r *ParseResult) Errors() []string {
	var out []string
	for _, f := range r.Invalid {
		out = append(out, f.Errors...)
	}
	return out
}

type dataLine struct {
	row  int
	text string
}

// ParseListings reads a tab-delimited upload and validates every row.
// A *ParseError is returned for unreadable input, a missing header, an
// over-long line or an oversized file; row problems never fail the call.
func ParseListings(ctx context.Context, r io.Reader, schema Schema, opts ParseOptions) (*ParseResult, error) {
	lr := NewLineReader(LimitReader(r, opts.MaxBytes), opts.MaxLineBytes)

	headerLine, ok := lr.Next()
	if !ok {
		if err := lr.Err(); err != nil {
			return nil, asParseError(err)
		}
		return nil, &ParseError{Err: ErrEmptyFile}
	}

	columns, result := mapHeader(headerLine, schema)
	if len(columns) == 0 {
		if err := lr.Err(); err != nil {
			return nil, asParseError(err)
		}
		return nil, &ParseError{Line: 1, Err: ErrHeaderNotFound}
	}

	var lines []dataLine
	for {
		text, ok := lr.Next()
		if !ok {
			break
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, dataLine{row: lr.Line() - 1, text: text})
	}
	if err := lr.Err(); err != nil {
		return nil, asParseError(err)
	}
	result.Bytes = lr.BytesRead()

	report := progressReporter(opts.Progress)
	report(progressParseStart)

	validator := NewRowValidator(schema)
	result.Rows = make([]ListingRow, 0, len(lines))
	result.Invalid = []RowFailure{}

	for i, dl := range lines {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("parse cancelled: %w", err)
			}
		}

		rec := buildRecord(dl.text, columns)
		if v := validator.Validate(rec, dl.row); v.Valid {
			result.Rows = append(result.Rows, NewListingRow(dl.row, rec))
		} else {
			result.Invalid = append(result.Invalid, RowFailure{Line: dl.row, Errors: v.Errors})
		}

		report(progressParseStart + (progressParseEnd-progressParseStart)*(i+1)/len(lines))
	}

	result.Total = len(result.Rows) + len(result.Invalid)
	report(progressParseEnd)
	report(progressDone)

	return result, nil
}

// mapHeader maps column index to schema key. The first column carrying a
// label wins if the label is repeated.
func mapHeader(line string, schema Schema) (map[int]string, *ParseResult) {
	byLabel := make(map[string]string, len(schema))
	for _, f := range schema {
		byLabel[f.Label] = f.Key
	}

	columns := make(map[int]string)
	seen := make(map[string]bool)
	result := &ParseResult{Header: []string{}, Ignored: []string{}}

	for i, cell := range strings.Split(line, "\t") {
		label := CleanCell(cell)
		if label == "" {
			continue
		}
		key, ok := byLabel[label]
		if !ok || seen[key] {
			result.Ignored = append(result.Ignored, label)
			continue
		}
		seen[key] = true
		columns[i] = key
		result.Header = append(result.Header, label)
	}
	return columns, result
}

// buildRecord keeps only mapped, non-empty cells.
func buildRecord(line string, columns map[int]string) Record {
	cells := strings.Split(line, "\t")
	rec := make(Record, len(columns))
	for i, key := range columns {
		if i >= len(cells) {
			continue
		}
		if v := CleanCell(cells[i]); v != "" {
			rec[key] = v
		}
	}
	return rec
}

// progressReporter drops repeated percentages.
func progressReporter(fn func(int)) func(int) {
	if fn == nil {
		return func(int) {}
	}
	last := -1
	return func(p int) {
		if p != last {
			last = p
			fn(p)
		}
	}
}

func asParseError(err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe
	}
	if errors.Is(err, ErrFileTooLarge) {
		return &ParseError{Err: ErrFileTooLarge}
	}
	return &ParseError{Err: fmt.Errorf("read upload: %w", err)}
}
