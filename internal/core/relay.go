package core

import (
	"context"
	"time"

	"fifoirc/internal/clock"
	"fifoirc/internal/metrics"
	"fifoirc/internal/secret"
	"fifoirc/internal/session"
	"fifoirc/internal/source"
	"fifoirc/internal/transport"
	"fifoirc/util"
)

// RelayMode opens the sources, connects to IRC and runs the event loop.
// Whatever ends the loop, it says QUIT and releases everything.
type RelayMode struct {
	Session     *session.Session
	Sources     []source.Source
	Dialer      transport.Dialer
	Password    *secret.Buffer // may be nil
	Metrics     *metrics.Collector
	MetricsAddr string
	PingTimeout time.Duration
	FrameSize   int
	Clock       clock.Clock
	Logger      *util.Logger
}

// Run returns nil after a quit requested through ctx, and the fault
// otherwise.
func (m *RelayMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()
	if m.Password != nil {
		defer m.Password.Close()
	}

	for i, src := range m.Sources {
		if err := src.Open(); err != nil {
			closeSources(m.Sources[:i])
			return err
		}
	}
	defer closeSources(m.Sources)

	if err := m.Session.Connect(ctx); err != nil {
		return err
	}
	defer m.shutdown()

	if m.MetricsAddr != "" {
		srv, err := metrics.Listen(m.Metrics, m.MetricsAddr)
		if err != nil {
			return err
		}
		serveCtx, stop := context.WithCancel(ctx)
		defer stop()
		go srv.Serve(serveCtx, m.Logger)
	}

	loop := &EventLoop{
		Session:     m.Session,
		Sources:     m.Sources,
		PingTimeout: m.PingTimeout,
		FrameSize:   m.FrameSize,
		Clock:       m.Clock,
		Logger:      m.Logger,
		Metrics:     m.Metrics,
	}
	err := loop.Run(ctx)
	if err != nil {
		m.Metrics.RecordError(err.Error())
	}
	return err
}

func (m *RelayMode) shutdown() {
	m.Session.Quit()
	m.Logger.Verbose("metrics:\n%s", m.Metrics.JSON())
}

func closeSources(sources []source.Source) {
	for _, src := range sources {
		src.Close() //nolint:errcheck
	}
}
