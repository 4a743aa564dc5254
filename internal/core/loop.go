package core

import (
	"context"
	"strings"
	"time"

	"fifoirc/internal/clock"
	ircerr "fifoirc/internal/errors"
	"fifoirc/internal/frame"
	"fifoirc/internal/metrics"
	"fifoirc/internal/session"
	"fifoirc/internal/source"
	"fifoirc/util"
)

// inboundMax bounds one line read from the server.  Anything longer
// than the wire limit is split and the tail handled as its own line.
const inboundMax = 1024

type eventKind int

const (
	ircEvent eventKind = iota
	sourceEvent
)

// event is one read result posted by a reader goroutine.
type event struct {
	kind eventKind
	gen  uint64 // connection generation, irc events only
	src  int    // index into Sources, source events only
	line string
	err  error
}

// EventLoop multiplexes the IRC connection and every source.  Each
// stream has one reader goroutine that blocks in ReadLine and posts the
// result; all state changes happen on the goroutine running Run.
type EventLoop struct {
	Session     *session.Session
	Sources     []source.Source
	PingTimeout time.Duration
	FrameSize   int
	Clock       clock.Clock
	Logger      *util.Logger
	Metrics     *metrics.Collector

	header string
	events chan event
	done   chan struct{}
}

// Run drives the relay until ctx is cancelled (returns nil) or an
// unrecoverable fault occurs (returns the fault).
func (l *EventLoop) Run(ctx context.Context) error {
	if l.Clock == nil {
		l.Clock = clock.Real()
	}
	if l.FrameSize == 0 {
		l.FrameSize = frame.DefaultCapacity
	}
	l.header = l.Session.PrivmsgHeader()
	if err := frame.New(l.FrameSize).WriteHeader(l.header); err != nil {
		return err
	}

	l.events = make(chan event)
	l.done = make(chan struct{})
	defer close(l.done)

	l.startIRCReader()
	for i := range l.Sources {
		l.startSourceReader(i)
	}

	timer := l.Clock.NewTimer(l.PingTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.Logger.Info("quitting")
			return nil

		case <-timer.C:
			if err := l.onTimeout(ctx); err != nil {
				return err
			}
			timer.Reset(l.PingTimeout)

		case ev := <-l.events:
			var err error
			switch ev.kind {
			case ircEvent:
				err = l.onIRC(ctx, ev)
			case sourceEvent:
				err = l.onSource(ev)
			}
			if err != nil {
				return err
			}
			timer.Rearm(l.PingTimeout)
		}
	}
}

// onTimeout runs when a full PingTimeout passed without any event.
func (l *EventLoop) onTimeout(ctx context.Context) error {
	if idle := l.Session.Idle(); idle > l.PingTimeout {
		l.Logger.Error("ping timeout: %d seconds", int(idle/time.Second))
		return l.reconnect(ctx)
	}
	l.Session.Ping() //nolint:errcheck
	return nil
}

func (l *EventLoop) onIRC(ctx context.Context, ev event) error {
	if ev.gen != l.Session.Generation() {
		return nil // reader of a connection we already replaced
	}
	if ev.err != nil {
		l.Logger.Debug("read from %s: %v", l.Session.Server(), ev.err)
		return l.reconnect(ctx)
	}
	l.Session.Handle(ev.line)
	return nil
}

func (l *EventLoop) onSource(ev event) error {
	src := l.Sources[ev.src]
	if ev.err == nil {
		l.handleText(ev.line)
		return nil
	}

	if ircerr.IsFatal(ev.err) {
		var se *ircerr.SourceError
		if ircerr.As(ev.err, &se) {
			return ev.err
		}
		return ircerr.WrapSource(src.Name(), "read", ev.err)
	}

	l.Logger.Verbose("%s hung up", src.Name())
	if err := src.Recreate(); err != nil {
		l.Metrics.RecordError(err.Error())
		return err
	}
	l.Metrics.SourceRespawn()
	if src.Kind() == source.KindSubprocess {
		l.Logger.Info("respawned %s", src.Name())
	}
	l.startSourceReader(ev.src)
	return nil
}

// handleText frames one source line as a channel PRIVMSG and sends it.
func (l *EventLoop) handleText(line string) {
	b := frame.New(l.FrameSize)
	b.WriteHeader(l.header) //nolint:errcheck // checked in Run
	b.WriteTruncated(strings.TrimSuffix(line, "\n"))

	if err := l.Session.Send(b.String()); err == nil {
		l.Metrics.LineRelayed()
	}
}

func (l *EventLoop) reconnect(ctx context.Context) error {
	if err := l.Session.Reconnect(ctx); err != nil {
		return err
	}
	l.startIRCReader()
	return nil
}

func (l *EventLoop) startIRCReader() {
	gen, r := l.Session.Stream()
	if r == nil {
		return
	}
	go func() {
		for {
			line, err := r.ReadLine(inboundMax)
			if !l.post(event{kind: ircEvent, gen: gen, line: line, err: err}) || err != nil {
				return
			}
		}
	}()
}

func (l *EventLoop) startSourceReader(i int) {
	src := l.Sources[i]
	max := l.FrameSize - len(l.header)
	go func() {
		for {
			line, err := src.ReadLine(max)
			if !l.post(event{kind: sourceEvent, src: i, line: line, err: err}) || err != nil {
				return
			}
		}
	}()
}

// post hands ev to the loop.  It reports false once the loop is gone.
func (l *EventLoop) post(ev event) bool {
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}
