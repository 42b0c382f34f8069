// Package cursor provides a forward-only view over a sequential text source.
//
// A Cursor exposes the current line and a way to move to the next one. End of input is
// reported through the boolean result rather than an error: a dump that ends in the middle
// of a section is a normal, recoverable condition and callers check for it after every
// Advance.
package cursor

import (
	"bufio"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxLineSize bounds a single line, excluding its terminator. supportshow captures carry very long lines
// (portlogdump, hex dumps) that exceed bufio's default token size.
const DefaultMaxLineSize = 1 << 20

// Cursor is a forward-only line source. ok == false marks end of input; once returned,
// every later call returns it again.
type Cursor interface {
	// Current returns the line under the cursor. Before the first Advance it reads the
	// first line.
	Current() (line string, ok bool)
	// Advance moves to the next line and returns it.
	Advance() (line string, ok bool)
	// LineNo returns the 1-based number of the current line, 0 before any line was read.
	LineNo() int
}

// Option configures a ReaderCursor.
type Option func(*ReaderCursor)

// WithMaxLineSize overrides DefaultMaxLineSize. The limit excludes the line terminator.
func WithMaxLineSize(n int) Option {
	return func(c *ReaderCursor) {
		if n > 0 {
			c.maxLine = n
		}
	}
}

// WithFallbackCharset sets the encoding used to decode lines that are not valid UTF-8.
// A nil encoding disables decoding and passes bytes through unchanged.
func WithFallbackCharset(enc encoding.Encoding) Option {
	return func(c *ReaderCursor) {
		c.charset = enc
	}
}

// ReaderCursor reads lines from an io.Reader.
type ReaderCursor struct {
	scanner *bufio.Scanner
	maxLine int
	charset encoding.Encoding

	started bool
	eof     bool
	line    string
	lineNo  int
	err     error
}

// NewReader returns a cursor reading lines from r. Trailing carriage returns are removed.
// Lines that are not valid UTF-8 are decoded with Windows-1252 unless overridden.
func NewReader(r io.Reader, opts ...Option) *ReaderCursor {
	c := &ReaderCursor{
		maxLine: DefaultMaxLineSize,
		charset: charmap.Windows1252,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.scanner = bufio.NewScanner(r)
	// The scanner buffer also holds the "\r\n" terminator.
	c.scanner.Buffer(make([]byte, 0, min(64*1024, c.maxLine+2)), c.maxLine+2)
	return c
}

func (c *ReaderCursor) Current() (string, bool) {
	if !c.started {
		return c.Advance()
	}
	if c.eof {
		return "", false
	}
	return c.line, true
}

func (c *ReaderCursor) Advance() (string, bool) {
	c.started = true
	if c.eof {
		return "", false
	}
	if !c.scanner.Scan() {
		c.eof = true
		c.line = ""
		c.err = c.scanner.Err()
		return "", false
	}
	raw := trimCR(c.scanner.Bytes())
	if len(raw) > c.maxLine {
		c.eof = true
		c.line = ""
		c.err = bufio.ErrTooLong
		return "", false
	}
	c.lineNo++
	c.line = c.decode(raw)
	return c.line, true
}

func (c *ReaderCursor) LineNo() int { return c.lineNo }

// Err returns the read error that terminated the cursor, if any. Reaching the end of
// the source normally is not an error.
func (c *ReaderCursor) Err() error { return c.err }

func (c *ReaderCursor) decode(raw []byte) string {
	if c.charset == nil || utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := c.charset.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(decoded)
}

func trimCR(b []byte) []byte {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		return b[:n-1]
	}
	return b
}

// Lines is an in-memory cursor over a slice of lines.
type Lines struct {
	lines []string
	pos   int // index of the current line, -1 before the first read
}

// NewLines returns a cursor over lines. The slice is not copied and must not be modified
// while the cursor is in use.
func NewLines(lines []string) *Lines {
	return &Lines{lines: lines, pos: -1}
}

// NewString splits s on newlines (dropping carriage returns) and returns a cursor over
// the result. A trailing newline does not produce an extra empty line.
func NewString(s string) *Lines {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return NewLines(nil)
	}
	return NewLines(strings.Split(s, "\n"))
}

func (l *Lines) Current() (string, bool) {
	if l.pos < 0 {
		return l.Advance()
	}
	if l.pos >= len(l.lines) {
		return "", false
	}
	return l.lines[l.pos], true
}

func (l *Lines) Advance() (string, bool) {
	if l.pos < len(l.lines) {
		l.pos++
	}
	if l.pos >= len(l.lines) {
		return "", false
	}
	return l.lines[l.pos], true
}

func (l *Lines) LineNo() int {
	if l.pos < 0 {
		return 0
	}
	if l.pos >= len(l.lines) {
		return len(l.lines)
	}
	return l.pos + 1
}
