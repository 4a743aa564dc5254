// Package errors provides domain-specific error types for fifoirc.
//
// The types follow the relay's fault taxonomy: configuration errors are
// reported before any network activity, hangups are recovered locally by
// recreating the stream, and setup faults terminate the process.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	// ErrHangup reports that a stream ended before delivering a byte.
	ErrHangup = errors.New("hangup")

	// ErrDisconnected is returned when the IRC connection is lost and
	// reconnecting is disabled.
	ErrDisconnected = errors.New("disconnected and reconnect is disabled")

	ErrNotConnected = errors.New("not connected")
	ErrNotIPv4      = errors.New("not an IPv4 address")
	ErrNotFIFO      = errors.New("exists and is not a fifo")
	ErrTunnelClosed = errors.New("tunnel is closed")
	ErrFrameFull    = errors.New("frame header does not fit")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op   string // "resolve", "dial", "write"
	Addr string
	Err  error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// SourceError reports a relay source that could not be opened, read or
// recreated.  It always aborts the event loop.
type SourceError struct {
	Source string // "fifo /home/u/irc-pipe", "exec ./bot"
	Op     string // "open", "read", "recreate", "spawn"
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name
	Value   interface{} // the invalid value (nil if missing)
	Message string
	Hint    string // optional
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// WrapSource creates a SourceError.
func WrapSource(source, op string, err error) *SourceError {
	return &SourceError{Source: source, Op: op, Err: err}
}

// Hangup wraps cause so that it matches both ErrHangup and cause.
func Hangup(cause error) error {
	if cause == nil {
		return ErrHangup
	}
	return fmt.Errorf("%w: %w", ErrHangup, cause)
}

// IsHangup reports whether err is a stream hangup.
func IsHangup(err error) bool { return errors.Is(err, ErrHangup) }

// IsFatal reports whether err must terminate the process rather than be
// recovered by a recreate or reconnect.
func IsFatal(err error) bool {
	if err == nil || IsHangup(err) {
		return false
	}
	return true
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
