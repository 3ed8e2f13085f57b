package shell

import (
	"bufio"
	"errors"
	"io"
)

// DefaultLineMax is the line buffer size when none is configured.
const DefaultLineMax = 128

// ErrLineTooLong is returned for a line exceeding the buffer; the line is
// discarded up to its terminator.
var ErrLineTooLong = errors.New("shell: maximum line length exceeded")

// LineReader yields one input line at a time, without its terminator.
type LineReader interface {
	ReadLine() (string, error)
}

// ReaderFunc adapts a function to LineReader.
type ReaderFunc func() (string, error)

func (f ReaderFunc) ReadLine() (string, error) { return f() }

type lineReader struct {
	r      *bufio.Reader
	max    int
	buf    []byte
	lastCR bool
}

// NewLineReader reads lines from a raw byte stream. A line holds at most
// max-1 bytes and ends at "\n", "\r" or "\r\n". Backspace and DEL erase
// the previous byte.
func NewLineReader(r io.Reader, max int) LineReader {
	if max <= 0 {
		max = DefaultLineMax
	}
	return &lineReader{r: bufio.NewReader(r), max: max, buf: make([]byte, 0, max)}
}

func (l *lineReader) ReadLine() (string, error) {
	l.buf = l.buf[:0]
	over := false
	for {
		b, err := l.r.ReadByte()
		if err != nil {
			// A final unterminated line is still a line; the error
			// comes back on the next call.
			if over {
				return "", ErrLineTooLong
			}
			if len(l.buf) > 0 {
				return string(l.buf), nil
			}
			return "", err
		}
		cr := l.lastCR
		l.lastCR = b == '\r'
		switch b {
		case '\n':
			if cr {
				continue // second half of "\r\n"
			}
			fallthrough
		case '\r':
			if over {
				return "", ErrLineTooLong
			}
			return string(l.buf), nil
		case '\b', 0x7f:
			if len(l.buf) > 0 {
				l.buf = l.buf[:len(l.buf)-1]
			}
			continue
		}
		if over {
			continue
		}
		if len(l.buf) >= l.max-1 {
			over = true
			continue
		}
		l.buf = append(l.buf, b)
	}
}
