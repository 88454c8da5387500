// Package edgelist streams directed edges out of plain-text edge-list files:
// one "src dst" pair of base-10 integers per line, with blank lines and lines
// starting with '#' ignored.
package edgelist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// ErrFormat marks a malformed non-comment line.
var ErrFormat = errors.New("malformed edge line")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	DefaultBufferSize = 1 << 20
	defaultCheckEvery = 1 << 16
	maxQuotedLine     = 80
)

// FormatError reports the first line that is neither blank, a comment, nor a
// pair of integers.
type FormatError struct {
	Line   int64
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v at line %d (%s): %q", ErrFormat, e.Line, e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error {
	return ErrFormat
}

type Options struct {
	// BufferSize caps the longest accepted line in bytes.
	BufferSize int
	// AllowPercentComments also skips lines starting with '%'.
	AllowPercentComments bool
	// CheckEvery is how many lines pass between context checks.
	CheckEvery int
}

// Stats counts what a read consumed.
type Stats struct {
	Lines    int64
	Edges    int64
	Comments int64
	Blank    int64
}

// EdgeFunc receives each accepted edge in input order. Returning an error
// stops the read and is passed through unchanged.
type EdgeFunc func(src, dst int64) error

// Read scans r line by line and calls fn for every edge. The first malformed
// line aborts the read with a *FormatError.
func Read(ctx context.Context, r io.Reader, opts Options, fn EdgeFunc) (Stats, error) {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.CheckEvery <= 0 {
		opts.CheckEvery = defaultCheckEvery
	}

	var stats Stats
	sc := bufio.NewScanner(r)
	initial := 64 * 1024
	if initial > opts.BufferSize {
		initial = opts.BufferSize
	}
	sc.Buffer(make([]byte, 0, initial), opts.BufferSize)

	for sc.Scan() {
		stats.Lines++
		if stats.Lines%int64(opts.CheckEvery) == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		raw := sc.Bytes()
		if stats.Lines == 1 {
			raw = bytes.TrimPrefix(raw, utf8BOM)
		}
		line := trimLeft(raw)
		if len(line) == 0 {
			stats.Blank++
			continue
		}
		if line[0] == '#' || (opts.AllowPercentComments && line[0] == '%') {
			stats.Comments++
			continue
		}

		src, dst, reason := parsePair(line)
		if reason != "" {
			return stats, &FormatError{Line: stats.Lines, Text: quote(sc.Bytes()), Reason: reason}
		}
		if err := fn(src, dst); err != nil {
			return stats, err
		}
		stats.Edges++
	}
	if err := sc.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return stats, &FormatError{Line: stats.Lines + 1, Reason: fmt.Sprintf("line longer than %d bytes", opts.BufferSize)}
		}
		return stats, err
	}
	return stats, ctx.Err()
}

// parsePair expects exactly two whitespace separated integers. A non-empty
// reason means the line is malformed.
func parsePair(line []byte) (int64, int64, string) {
	first, rest := nextField(line)
	second, rest := nextField(rest)
	if second == nil {
		return 0, 0, "expected two integers"
	}
	if extra, _ := nextField(rest); extra != nil {
		return 0, 0, "more than two fields"
	}
	src, err := strconv.ParseInt(string(first), 10, 64)
	if err != nil {
		return 0, 0, "invalid source id"
	}
	dst, err := strconv.ParseInt(string(second), 10, 64)
	if err != nil {
		return 0, 0, "invalid destination id"
	}
	return src, dst, ""
}

func nextField(b []byte) (field, rest []byte) {
	b = trimLeft(b)
	if len(b) == 0 {
		return nil, nil
	}
	i := 0
	for i < len(b) && !isSpace(b[i]) {
		i++
	}
	return b[:i], b[i:]
}

func trimLeft(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return b[i:]
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}

func quote(b []byte) string {
	if len(b) > maxQuotedLine {
		return string(b[:maxQuotedLine]) + "..."
	}
	return string(b)
}
