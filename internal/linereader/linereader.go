// Package linereader reads newline-terminated lines from a byte stream
// with a hard upper bound on line length.
//
// A line longer than the bound is cut, and the rest of it is returned
// by the next call.  A stream that ends before delivering a single byte
// reports a hangup; a stream that ends part way through a line still
// yields that partial line, and the hangup surfaces on the next call.
package linereader

import (
	"bufio"
	"fmt"
	"io"

	ircerr "fifoirc/internal/errors"
)

// Reader wraps a stream for bounded line reads.  A Reader must not be
// shared between goroutines.
type Reader struct {
	br *bufio.Reader
}

// New returns a Reader over r.
func New(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadLine returns the next line, including its trailing newline when
// one was consumed.  At most max-1 bytes are returned.  If the first
// read fails the error matches ircerr.ErrHangup and wraps the cause.
func (r *Reader) ReadLine(max int) (string, error) {
	if max < 2 {
		return "", fmt.Errorf("linereader: max %d leaves no room for a byte", max)
	}

	line := make([]byte, 0, 64)
	for len(line) < max-1 {
		c, err := r.br.ReadByte()
		if err != nil {
			if len(line) == 0 {
				return "", ircerr.Hangup(err)
			}
			break
		}
		line = append(line, c)
		if c == '\n' {
			break
		}
	}
	return string(line), nil
}
