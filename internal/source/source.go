// Package source provides the streams whose lines are relayed to the
// IRC channel: the named pipe, and optionally a subprocess.
//
// A Source is read by exactly one goroutine at a time.  When ReadLine
// reports a hangup the owner calls Recreate before reading again.
package source

// Kind identifies how a Source is recreated after a hangup.
type Kind int

const (
	KindFIFO Kind = iota
	KindSubprocess
)

func (k Kind) String() string {
	switch k {
	case KindFIFO:
		return "fifo"
	case KindSubprocess:
		return "exec"
	default:
		return "unknown"
	}
}

// Source is a byte stream of outbound chat lines that may hang up.
type Source interface {
	// Name identifies the source in logs, e.g. "fifo /home/u/irc-pipe".
	Name() string

	Kind() Kind

	// Open prepares the source.  Failure is fatal.
	Open() error

	// ReadLine blocks for the next line of at most max-1 bytes.  A
	// stream that ended matches errors.ErrHangup.
	ReadLine(max int) (string, error)

	// Recreate replaces a hung-up stream with a fresh one.  Failure
	// aborts the relay.
	Recreate() error

	Close() error
}
