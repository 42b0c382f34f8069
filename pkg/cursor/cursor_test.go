package cursor

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, c Cursor) []string {
	t.Helper()
	var out []string
	for line, ok := c.Current(); ok; line, ok = c.Advance() {
		out = append(out, line)
	}
	return out
}

func TestReader_ReadsLinesAndStripsCR(t *testing.T) {
	c := NewReader(strings.NewReader("first\r\nsecond\n\nlast"))
	require.Equal(t, 0, c.LineNo())

	require.Equal(t, []string{"first", "second", "", "last"}, drain(t, c))
	require.Equal(t, 4, c.LineNo())
	require.NoError(t, c.Err())
}

func TestReader_EOFIsSticky(t *testing.T) {
	c := NewReader(strings.NewReader("only\n"))
	line, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, "only", line)

	for i := 0; i < 3; i++ {
		line, ok = c.Advance()
		assert.False(t, ok)
		assert.Empty(t, line)
	}
	_, ok = c.Current()
	assert.False(t, ok)
}

func TestReader_CurrentDoesNotAdvance(t *testing.T) {
	c := NewReader(strings.NewReader("a\nb\n"))
	first, _ := c.Current()
	again, _ := c.Current()
	require.Equal(t, first, again)
	require.Equal(t, 1, c.LineNo())

	next, ok := c.Advance()
	require.True(t, ok)
	require.Equal(t, "b", next)
	require.Equal(t, 2, c.LineNo())
}

func TestReader_DecodesLegacyCharset(t *testing.T) {
	// 0xE9 is "é" in Windows-1252 and invalid as a lone UTF-8 byte.
	c := NewReader(strings.NewReader("Location: Salle \xe9quipement\n"))
	line, ok := c.Current()
	require.True(t, ok)
	require.Equal(t, "Location: Salle équipement", line)

	raw := NewReader(strings.NewReader("x\xe9\n"), WithFallbackCharset(nil))
	line, _ = raw.Current()
	require.Equal(t, "x\xe9", line)
}

func TestReader_LineTooLongEndsWithError(t *testing.T) {
	long := strings.Repeat("x", 128)
	c := NewReader(strings.NewReader("ok\n"+long+"\n"), WithMaxLineSize(64))
	require.Equal(t, []string{"ok"}, drain(t, c))
	require.Error(t, c.Err())
}

func TestReader_MaxLineSizeIsInclusive(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		err   bool
	}{
		{"exact with LF", "0123456789\n", []string{"0123456789"}, false},
		{"exact with CRLF", "0123456789\r\nnext\r\n", []string{"0123456789", "next"}, false},
		{"exact without terminator", "0123456789", []string{"0123456789"}, false},
		{"one byte over", "0123456789A\n", nil, true},
		{"one byte over with CRLF", "ok\r\n0123456789A\r\n", []string{"ok"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewReader(strings.NewReader(tt.input), WithMaxLineSize(10))
			assert.Equal(t, tt.want, drain(t, c))
			if tt.err {
				assert.ErrorIs(t, c.Err(), bufio.ErrTooLong)
			} else {
				assert.NoError(t, c.Err())
			}
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestReader_ReadErrorIsEOF(t *testing.T) {
	c := NewReader(failingReader{})
	_, ok := c.Current()
	require.False(t, ok)
	require.EqualError(t, c.Err(), "device gone")
}

func TestLines(t *testing.T) {
	c := NewString("one\r\ntwo\nthree\n")
	require.Equal(t, 0, c.LineNo())
	require.Equal(t, []string{"one", "two", "three"}, drain(t, c))
	require.Equal(t, 3, c.LineNo())

	_, ok := c.Advance()
	require.False(t, ok)
	require.Equal(t, 3, c.LineNo())
}

func TestLines_Empty(t *testing.T) {
	c := NewString("")
	_, ok := c.Current()
	require.False(t, ok)
	require.Equal(t, 0, c.LineNo())
}

func TestCharsetByName(t *testing.T) {
	enc, err := CharsetByName("none")
	require.NoError(t, err)
	assert.Nil(t, enc)

	enc, err = CharsetByName("ISO-8859-1")
	require.NoError(t, err)
	require.NotNil(t, enc)
	c := NewReader(strings.NewReader("caf\xe9\n"), WithFallbackCharset(enc))
	assert.Equal(t, []string{"café"}, drain(t, c))

	_, err = CharsetByName("klingon-8")
	assert.Error(t, err)
}
