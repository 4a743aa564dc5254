package core

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"fifoirc/internal/clock"
	ircerr "fifoirc/internal/errors"
	"fifoirc/internal/linereader"
	"fifoirc/internal/metrics"
	"fifoirc/internal/session"
	"fifoirc/internal/source"
	"fifoirc/internal/transport"
	"fifoirc/util"
)

// ── fake IRC server ──────────────────────────────────────────────────

type fakeServer struct {
	ln    net.Listener
	conns chan *serverConn
}

type serverConn struct {
	net.Conn
	r *bufio.Reader
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &fakeServer{ln: ln, conns: make(chan *serverConn, 4)}
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			s.conns <- &serverConn{Conn: c, r: bufio.NewReader(c)}
		}
	}()
	t.Cleanup(func() { ln.Close() })
	return s
}

func (s *fakeServer) port() int { return s.ln.Addr().(*net.TCPAddr).Port }

// accept returns the next client connection with its registration
// already consumed.
func (s *fakeServer) accept(t *testing.T) *serverConn {
	t.Helper()
	select {
	case c := <-s.conns:
		t.Cleanup(func() { c.Close() })
		c.expect(t, "NICK relaybot")
		c.expect(t, "USER relaybot localhost 127.0.0.1 :relaybot")
		c.expect(t, "JOIN #test")
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
		return nil
	}
}

func (c *serverConn) readLine(t *testing.T) string {
	t.Helper()
	c.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck
	line, err := c.r.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return line
}

func (c *serverConn) expect(t *testing.T, want string) {
	t.Helper()
	if got := c.readLine(t); got != want+"\r\n" {
		t.Fatalf("got %q, want %q", got, want+"\r\n")
	}
}

// ── fake source ──────────────────────────────────────────────────────

// blockingReader never delivers data; it ends once done is closed.
type blockingReader struct{ done chan struct{} }

func (b blockingReader) Read([]byte) (int, error) {
	<-b.done
	return 0, io.EOF
}

// fakeSource replays one stream per generation.  Every stream but the
// last hangs up at its end; the last one blocks unless hangupLast.
type fakeSource struct {
	streams     []string
	hangupLast  bool
	recreateErr error

	mu        sync.Mutex
	idx       int
	reader    *linereader.Reader
	recreates int
	forwarded []string
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeSource(streams ...string) *fakeSource {
	return &fakeSource{streams: streams, done: make(chan struct{})}
}

func (f *fakeSource) Name() string      { return "fake" }
func (f *fakeSource) Kind() source.Kind { return source.KindFIFO }

func (f *fakeSource) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.load()
	return nil
}

func (f *fakeSource) load() {
	var r io.Reader = strings.NewReader(f.streams[f.idx])
	if f.idx == len(f.streams)-1 && !f.hangupLast {
		r = io.MultiReader(r, blockingReader{f.done})
	}
	f.reader = linereader.New(r)
}

func (f *fakeSource) ReadLine(max int) (string, error) {
	f.mu.Lock()
	r := f.reader
	f.mu.Unlock()
	return r.ReadLine(max)
}

func (f *fakeSource) Recreate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recreates++
	if f.recreateErr != nil {
		return ircerr.WrapSource(f.Name(), "recreate", f.recreateErr)
	}
	if f.idx < len(f.streams)-1 {
		f.idx++
	}
	f.load()
	return nil
}

func (f *fakeSource) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeSource) Forward(line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forwarded = append(f.forwarded, line)
	return nil
}

func (f *fakeSource) recreateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recreates
}

// ── harness ──────────────────────────────────────────────────────────

type harness struct {
	srv     *fakeServer
	sess    *session.Session
	clk     *clock.FakeClock
	metrics *metrics.Collector
	loop    *EventLoop
	cancel  context.CancelFunc
	result  chan error
	stopped chan struct{}
}

func newHarness(t *testing.T, reconnect bool, sources ...source.Source) *harness {
	t.Helper()
	h := &harness{
		srv:     newFakeServer(t),
		clk:     clock.Fake(time.Unix(1_700_000_000, 0)),
		metrics: metrics.New(),
		result:  make(chan error, 1),
		stopped: make(chan struct{}),
	}

	var fwd session.Forwarder
	for _, src := range sources {
		if f, ok := src.(session.Forwarder); ok {
			fwd = f
		}
	}

	logger := util.NewLogger(0)
	h.sess = session.New(session.Options{
		Server:        "127.0.0.1",
		Port:          h.srv.port(),
		Nick:          "relaybot",
		Channel:       "#test",
		Reconnect:     reconnect,
		ClientVersion: "fifoirc test",
		Resolve:       true,
		Dialer:        &transport.TCPDialer{Timeout: 2 * time.Second},
		Forwarder:     fwd,
		Clock:         h.clk,
		Logger:        logger,
		Metrics:       h.metrics,
	})
	h.loop = &EventLoop{
		Session:     h.sess,
		Sources:     sources,
		PingTimeout: 600 * time.Second,
		FrameSize:   450,
		Clock:       h.clk,
		Logger:      logger,
		Metrics:     h.metrics,
	}

	for _, src := range sources {
		if err := src.Open(); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { src.Close() })
	}
	return h
}

// start connects the session and runs the loop in the background.
func (h *harness) start(t *testing.T) *serverConn {
	t.Helper()
	if err := h.sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	conn := h.srv.accept(t)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.result <- h.loop.Run(ctx)
		close(h.stopped)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-h.stopped:
		case <-time.After(3 * time.Second):
			t.Error("loop still running at cleanup")
		}
		h.sess.Close()
	})
	return conn
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.result:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("loop did not return")
		return nil
	}
}
