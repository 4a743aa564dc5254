package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fifoirc/util"
)

// Register exposes the collector's counters on reg.  The values are read
// from the atomics at scrape time, so nothing is double-counted.
func (c *Collector) Register(reg prometheus.Registerer) error {
	counter := func(name, help string, v func() int64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Namespace: "fifoirc", Name: name, Help: help},
			func() float64 { return float64(v()) })
	}

	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "fifoirc", Name: "connected", Help: "1 while the IRC connection is up"},
			func() float64 {
				if c.IsConnected() {
					return 1
				}
				return 0
			}),
		counter("connects_total", "IRC connections established", c.connects.Load),
		counter("reconnects_total", "Disconnections followed by a reconnect", c.reconnects.Load),
		counter("lines_relayed_total", "Source lines sent to the channel", c.linesRelayed.Load),
		counter("lines_received_total", "Lines received from the IRC server", c.linesReceived.Load),
		counter("lines_forwarded_total", "PRIVMSG bodies written to the subprocess", c.linesForwarded.Load),
		counter("bytes_in_total", "Bytes received from the IRC server", c.bytesIn.Load),
		counter("bytes_out_total", "Bytes sent to the IRC server", c.bytesOut.Load),
		counter("pings_sent_total", "Keepalive PINGs sent", c.pingsSent.Load),
		counter("source_respawns_total", "FIFO reopens and subprocess respawns", c.respawns.Load),
		counter("errors_total", "Errors recorded", c.errorsTotal.Load),
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Server serves /metrics for a dedicated registry.
type Server struct {
	srv *http.Server
	ln  net.Listener
}

// Listen registers c on a fresh registry and binds addr.  Serving starts
// with [Server.Serve].
func Listen(c *Collector, addr string) (*Server, error) {
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Serve runs until ctx is cancelled, then shuts the server down.
func (s *Server) Serve(ctx context.Context, logger *util.Logger) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Verbose("metrics on http://%s/metrics", s.ln.Addr())
	if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server: %v", err)
	}
}
