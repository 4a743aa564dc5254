// Package session owns the connection to the IRC server: registration,
// keepalive, inbound dispatch and the reconnect policy.
//
// A Session is driven by a single goroutine (the relay loop).  The loop
// reads lines from [Session.Stream] in a helper goroutine and hands each
// one back to [Session.Handle] on its own goroutine, so no method here
// needs locking.
package session

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"gopkg.in/sorcix/irc.v1"

	"fifoirc/internal/clock"
	ircerr "fifoirc/internal/errors"
	"fifoirc/internal/linereader"
	"fifoirc/internal/metrics"
	"fifoirc/internal/secret"
	"fifoirc/internal/transport"
	"fifoirc/util"
)

// ctcpVersion is the CTCP VERSION probe as it appears in a PRIVMSG body.
const ctcpVersion = "\x01VERSION\x01"

// DefaultWriteTimeout bounds a single write to the server.
const DefaultWriteTimeout = 30 * time.Second

// Forwarder receives the body of every inbound PRIVMSG.  The subprocess
// source implements it.
type Forwarder interface {
	Forward(line string) error
}

// Options configures a Session.
type Options struct {
	Server   string
	Port     int
	Nick     string
	FullName string
	Channel  string

	// Password, if set, is sent to NickServ after registration.
	Password *secret.Buffer

	// Reconnect selects whether a lost connection is re-established or
	// ends the session with ErrDisconnected.
	Reconnect bool

	// ClientVersion is the text of the CTCP VERSION reply.
	ClientVersion string

	// Resolve requires the server to resolve to IPv4 locally before
	// dialing.  It is off when an SSH gateway resolves the name instead.
	Resolve bool

	// WriteTimeout bounds each write so that a server that stops
	// reading cannot stall the relay loop.  Zero means
	// DefaultWriteTimeout.
	WriteTimeout time.Duration

	Dialer    transport.Dialer
	Forwarder Forwarder
	Clock     clock.Clock
	Logger    *util.Logger
	Metrics   *metrics.Collector
}

// Session is one IRC client identity and its current connection.
type Session struct {
	opts Options

	conn     net.Conn
	reader   *linereader.Reader
	gen      uint64
	lastRecv time.Time
}

// New returns a disconnected Session.
func New(opts Options) *Session {
	if opts.FullName == "" {
		opts.FullName = opts.Nick
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = util.NewLogger(0)
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	return &Session{opts: opts}
}

// Connect opens a connection and registers.  Registration is
// fire-and-forget: NICK, USER, the optional NickServ identify, and JOIN
// are written without waiting for the server's replies.
func (s *Session) Connect(ctx context.Context) error {
	host, network := s.opts.Server, "tcp"
	if s.opts.Resolve {
		ip, err := util.ResolveIPv4(ctx, s.opts.Server)
		if err != nil {
			return err
		}
		host, network = ip.String(), "tcp4"
	}
	addr := util.FormatAddr(host, s.opts.Port)

	s.opts.Logger.Debug("dialing %s (%s)", s.opts.Server, addr)
	conn, err := s.opts.Dialer.Dial(ctx, network, addr)
	if err != nil {
		return ircerr.Wrap("dial", addr, err)
	}

	s.conn = conn
	s.reader = linereader.New(conn)
	s.gen++
	s.lastRecv = s.opts.Clock.Now()
	s.opts.Metrics.Connected()
	s.opts.Logger.Info("connected to %s:%d", s.opts.Server, s.opts.Port)

	s.SendMessage(&irc.Message{Command: irc.NICK, Params: []string{s.opts.Nick}})
	s.SendMessage(&irc.Message{
		Command:  irc.USER,
		Params:   []string{s.opts.Nick, "localhost", s.opts.Server},
		Trailing: s.opts.FullName,
	})
	if s.opts.Password != nil && s.opts.Password.Len() > 0 {
		s.identify()
	}
	s.SendMessage(&irc.Message{Command: irc.JOIN, Params: []string{s.opts.Channel}})
	return nil
}

// identify sends the NickServ command.  The trace shows it redacted.
func (s *Session) identify() {
	prefix := fmt.Sprintf("PRIVMSG NickServ :identify %s ", s.opts.Nick)
	s.write(prefix+s.opts.Password.String(), prefix+"********")
}

// Reconnect closes the current connection and, if reconnecting is
// enabled, connects again at once.  Otherwise it returns
// ErrDisconnected.
func (s *Session) Reconnect(ctx context.Context) error {
	s.Close()
	s.opts.Logger.Error("disconnection from %s", s.opts.Server)

	if !s.opts.Reconnect {
		return ircerr.ErrDisconnected
	}
	s.opts.Metrics.Reconnect()
	return s.Connect(ctx)
}

// Handle processes one inbound line.
func (s *Session) Handle(line string) {
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	s.opts.Logger.Trace('<', line)
	s.lastRecv = s.opts.Clock.Now()
	s.opts.Metrics.LineReceived(len(line))

	if strings.HasPrefix(line, "PING ") {
		s.Send("PONG" + line[len("PING"):])
		return
	}

	msg := irc.ParseMessage(line)
	if msg == nil || msg.Command != irc.PRIVMSG {
		return
	}

	if s.opts.Forwarder != nil && (msg.Trailing != "" || msg.EmptyTrailing) {
		if err := s.opts.Forwarder.Forward(msg.Trailing + "\n"); err != nil {
			s.opts.Logger.Warn("forward to subprocess: %v", err)
			s.opts.Metrics.RecordError(err.Error())
		} else {
			s.opts.Metrics.LineForwarded()
		}
	}

	if msg.Trailing == ctcpVersion && msg.Prefix != nil && msg.Prefix.Name != "" {
		s.SendMessage(&irc.Message{
			Command:  irc.NOTICE,
			Params:   []string{msg.Prefix.Name},
			Trailing: "\x01VERSION " + s.opts.ClientVersion + "\x01",
		})
	}
}

// Send writes text followed by CRLF.  The caller keeps text within the
// wire limit.  Write failures are logged; the reader side notices the
// dead connection and triggers a reconnect.
func (s *Session) Send(text string) error {
	return s.write(text, text)
}

// SendMessage encodes msg and sends it.
func (s *Session) SendMessage(msg *irc.Message) error {
	return s.Send(msg.String())
}

func (s *Session) write(text, trace string) error {
	if s.conn == nil {
		s.opts.Logger.Debug("dropped %q: %v", trace, ircerr.ErrNotConnected)
		return ircerr.ErrNotConnected
	}
	s.opts.Logger.Trace('>', trace)

	// Socket deadlines are wall-clock; the injected Clock may be fake.
	s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)) //nolint:errcheck
	n, err := s.conn.Write([]byte(text + "\r\n"))
	s.opts.Metrics.LineSent(n)
	if err != nil {
		err = ircerr.Wrap("write", s.opts.Server, err)
		s.opts.Logger.Error("%v", err)
		s.opts.Metrics.RecordError(err.Error())
		return err
	}
	return nil
}

// Ping sends an unsolicited keepalive.
func (s *Session) Ping() error {
	s.opts.Metrics.PingSent()
	return s.SendMessage(&irc.Message{Command: irc.PING, Trailing: s.opts.Server})
}

// Quit sends a best-effort QUIT and closes the connection.
func (s *Session) Quit() {
	if s.conn == nil {
		return
	}
	s.SendMessage(&irc.Message{Command: irc.QUIT}) //nolint:errcheck
	s.Close()
}

// Close drops the connection without saying goodbye.
func (s *Session) Close() {
	if s.conn == nil {
		return
	}
	s.conn.Close() //nolint:errcheck
	s.conn = nil
	s.reader = nil
	s.opts.Metrics.Disconnected()
}

// Stream returns the line reader of the current connection and its
// generation.  Events read from an older generation must be ignored.
func (s *Session) Stream() (uint64, *linereader.Reader) {
	return s.gen, s.reader
}

// Generation returns the number of connections made so far.
func (s *Session) Generation() uint64 { return s.gen }

// Idle returns how long ago the last line arrived.
func (s *Session) Idle() time.Duration {
	return s.opts.Clock.Now().Sub(s.lastRecv)
}

// Connected reports whether a connection is open.
func (s *Session) Connected() bool { return s.conn != nil }

// Server returns the configured server name.
func (s *Session) Server() string { return s.opts.Server }

// PrivmsgHeader returns the frame header for the configured channel.
func (s *Session) PrivmsgHeader() string {
	return fmt.Sprintf("PRIVMSG %s :", s.opts.Channel)
}
