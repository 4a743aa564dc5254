// Package frame builds outbound protocol lines inside a fixed byte
// budget.  The header is written first and must fit whole; payload is
// then cut to whatever room is left.
package frame

import (
	"fmt"

	ircerr "fifoirc/internal/errors"
)

const (
	// WireLimit is the maximum IRC message length including CRLF.
	WireLimit = 512

	// DefaultCapacity leaves room for the ":nick!user@host " prefix the
	// server adds when it relays our message to other clients.
	DefaultCapacity = 450
)

// Builder accumulates a single frame.  Its String never exceeds
// capacity-1 bytes.
type Builder struct {
	buf      []byte
	capacity int
}

// New returns an empty Builder with the given capacity.
func New(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity), capacity: capacity}
}

// WriteHeader appends s in full or fails with ErrFrameFull.  At least
// one byte of payload room must remain afterwards.
func (b *Builder) WriteHeader(s string) error {
	if len(b.buf)+len(s) > b.capacity-2 {
		return fmt.Errorf("%w: %d byte header, capacity %d", ircerr.ErrFrameFull, len(s), b.capacity)
	}
	b.buf = append(b.buf, s...)
	return nil
}

// Remaining returns the budget left for payload, counted the way the
// line reader counts its max argument: Remaining()-1 bytes still fit.
func (b *Builder) Remaining() int {
	return b.capacity - len(b.buf)
}

// WriteTruncated appends as much of s as fits and returns the number of
// bytes written.
func (b *Builder) WriteTruncated(s string) int {
	room := b.Remaining() - 1
	if room <= 0 {
		return 0
	}
	if len(s) > room {
		s = s[:room]
	}
	b.buf = append(b.buf, s...)
	return len(s)
}

// Len returns the current frame length.
func (b *Builder) Len() int { return len(b.buf) }

// String returns the frame.
func (b *Builder) String() string { return string(b.buf) }
