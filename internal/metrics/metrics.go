// Package metrics provides lightweight, lock-free counters and gauges
// for tracking runtime statistics of a relay.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a relay.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	connected      atomic.Int64
	connects       atomic.Int64
	reconnects     atomic.Int64
	linesRelayed   atomic.Int64
	linesReceived  atomic.Int64
	linesForwarded atomic.Int64
	bytesIn        atomic.Int64
	bytesOut       atomic.Int64
	pingsSent      atomic.Int64
	respawns       atomic.Int64
	errorsTotal    atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastReceive  time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Connection metrics ───────────────────────────────────────────────

// Connected marks the IRC connection as up and counts it.
func (c *Collector) Connected() {
	if c == nil {
		return
	}
	c.connected.Store(1)
	c.connects.Add(1)
}

// Disconnected marks the IRC connection as down.
func (c *Collector) Disconnected() {
	if c == nil {
		return
	}
	c.connected.Store(0)
}

// Reconnect records a disconnect_and_retry that chose to reconnect.
func (c *Collector) Reconnect() {
	if c == nil {
		return
	}
	c.reconnects.Add(1)
}

// IsConnected reports the last recorded connection state.
func (c *Collector) IsConnected() bool {
	if c == nil {
		return false
	}
	return c.connected.Load() == 1
}

// Reconnects returns the lifetime reconnect count.
func (c *Collector) Reconnects() int64 {
	if c == nil {
		return 0
	}
	return c.reconnects.Load()
}

// ── Line metrics ─────────────────────────────────────────────────────

// LineSent records one line of n bytes written to the server.
func (c *Collector) LineSent(n int) {
	if c == nil {
		return
	}
	c.bytesOut.Add(int64(n))
}

// LineRelayed records one source line framed as PRIVMSG.
func (c *Collector) LineRelayed() {
	if c == nil {
		return
	}
	c.linesRelayed.Add(1)
}

// LineReceived records one inbound line of n bytes.
func (c *Collector) LineReceived(n int) {
	if c == nil {
		return
	}
	c.linesReceived.Add(1)
	c.bytesIn.Add(int64(n))
	c.mu.Lock()
	c.lastReceive = time.Now()
	c.mu.Unlock()
}

// LineForwarded records a PRIVMSG body written to the subprocess.
func (c *Collector) LineForwarded() {
	if c == nil {
		return
	}
	c.linesForwarded.Add(1)
}

// LinesRelayed returns the number of source lines sent to the channel.
func (c *Collector) LinesRelayed() int64 {
	if c == nil {
		return 0
	}
	return c.linesRelayed.Load()
}

// LinesReceived returns the number of inbound IRC lines.
func (c *Collector) LinesReceived() int64 {
	if c == nil {
		return 0
	}
	return c.linesReceived.Load()
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Keepalive and sources ────────────────────────────────────────────

// PingSent records a keepalive PING.
func (c *Collector) PingSent() {
	if c == nil {
		return
	}
	c.pingsSent.Add(1)
}

// SourceRespawn records a FIFO reopen or subprocess respawn.
func (c *Collector) SourceRespawn() {
	if c == nil {
		return
	}
	c.respawns.Add(1)
}

// Respawns returns the total number of source recreations.
func (c *Collector) Respawns() int64 {
	if c == nil {
		return 0
	}
	return c.respawns.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	Connected        bool   `json:"connected"`
	Connects         int64  `json:"connects"`
	Reconnects       int64  `json:"reconnects"`
	LinesRelayed     int64  `json:"lines_relayed"`
	LinesReceived    int64  `json:"lines_received"`
	LinesForwarded   int64  `json:"lines_forwarded"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	PingsSent        int64  `json:"pings_sent"`
	SourceRespawns   int64  `json:"source_respawns"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastReceive      string `json:"last_receive,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:         time.Since(c.startTime).Truncate(time.Second).String(),
		Connected:      c.connected.Load() == 1,
		Connects:       c.connects.Load(),
		Reconnects:     c.reconnects.Load(),
		LinesRelayed:   c.linesRelayed.Load(),
		LinesReceived:  c.linesReceived.Load(),
		LinesForwarded: c.linesForwarded.Load(),
		BytesIn:        c.bytesIn.Load(),
		BytesOut:       c.bytesOut.Load(),
		PingsSent:      c.pingsSent.Load(),
		SourceRespawns: c.respawns.Load(),
		ErrorsTotal:    c.errorsTotal.Load(),
	}
	if !c.lastReceive.IsZero() {
		s.LastReceive = c.lastReceive.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
