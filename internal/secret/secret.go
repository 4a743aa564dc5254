// Package secret keeps the NickServ password out of ordinary heap
// memory.
//
// On Linux a Buffer lives in an anonymous mapping that is locked into
// RAM and excluded from core dumps; on other platforms it is a plain
// byte slice that is still zeroed on Close.  Either way the password is
// only turned into a string at the moment it is written to the socket.
package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// Buffer holds secret bytes.  It must not be copied after creation.
type Buffer struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

// NewFromBytes copies source into a protected Buffer and zeroes source.
func NewFromBytes(source []byte) (*Buffer, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("secret: cannot create buffer from empty source")
	}
	data, err := alloc(len(source))
	if err != nil {
		return nil, err
	}
	copy(data, source)
	Zero(source)
	return &Buffer{data: data}, nil
}

// FromString copies s into a protected Buffer.  The string itself cannot
// be wiped, so callers should drop every reference to it afterwards.
func FromString(s string) (*Buffer, error) {
	return NewFromBytes([]byte(s))
}

// String returns the secret as a heap string.  Use it only at the point
// where the protocol needs the value.  Panics after Close.
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		panic("secret: read from closed buffer")
	}
	return string(b.data)
}

// Len returns the size of the secret.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Close zeroes and releases the memory.  Close is idempotent.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	Zero(b.data)
	err := release(b.data)
	b.data = nil
	return err
}

// Zero overwrites p with zero bytes.
func Zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}

// ReadFromPath reads a secret from a file, or from stdin if path is "-".
// Surrounding whitespace is trimmed.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte
	if path == "-" {
		var err error
		data, err = readFirstLine(os.Stdin)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	defer Zero(data)

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("secret is empty")
	}
	return NewFromBytes(trimmed)
}

// Prompt asks for a secret on the controlling terminal without echo.
func Prompt(label string) (*Buffer, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", label, err)
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("%s is empty", label)
	}
	return NewFromBytes(pass)
}

func readFirstLine(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return nil, fmt.Errorf("stdin is empty")
	}
	return append([]byte(nil), scanner.Bytes()...), nil
}
