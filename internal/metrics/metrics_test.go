package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fifoirc/util"
)

func TestCollector_Connection(t *testing.T) {
	c := New()

	c.Connected()
	if !c.IsConnected() {
		t.Error("should be connected")
	}
	c.Disconnected()
	c.Reconnect()
	c.Connected()

	snap := c.Snapshot()
	if snap.Connects != 2 {
		t.Errorf("connects = %d, want 2", snap.Connects)
	}
	if c.Reconnects() != 1 {
		t.Errorf("reconnects = %d, want 1", c.Reconnects())
	}
	if !snap.Connected {
		t.Error("snapshot should report connected")
	}
}

func TestCollector_Lines(t *testing.T) {
	c := New()

	c.LineReceived(30)
	c.LineReceived(12)
	c.LineSent(25)
	c.LineRelayed()
	c.LineForwarded()

	if c.LinesReceived() != 2 {
		t.Errorf("received = %d, want 2", c.LinesReceived())
	}
	if c.TotalBytesIn() != 42 {
		t.Errorf("bytes in = %d, want 42", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 25 {
		t.Errorf("bytes out = %d, want 25", c.TotalBytesOut())
	}
	if c.LinesRelayed() != 1 {
		t.Errorf("relayed = %d, want 1", c.LinesRelayed())
	}
	if snap := c.Snapshot(); snap.LastReceive == "" || snap.LinesForwarded != 1 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()

	c.RecordError("first error")
	c.RecordError("second error")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d, want 2", c.ErrorCount())
	}
	if got := c.Snapshot().LastErrorMessage; got != "second error" {
		t.Errorf("last error = %q", got)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.PingSent()
	c.SourceRespawn()
	c.LineSent(42)

	var snap Snapshot
	if err := json.Unmarshal([]byte(c.JSON()), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.PingsSent != 1 || snap.SourceRespawns != 1 {
		t.Errorf("pings=%d respawns=%d", snap.PingsSent, snap.SourceRespawns)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.Connected()
	c.Disconnected()
	c.Reconnect()
	c.LineSent(1)
	c.LineRelayed()
	c.LineReceived(1)
	c.LineForwarded()
	c.PingSent()
	c.SourceRespawn()
	c.RecordError("test")

	if c.IsConnected() || c.TotalBytesIn() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should report zero values")
	}
	if c.JSON() == "" {
		t.Error("nil JSON should return valid JSON")
	}
}

func TestRegister_Gather(t *testing.T) {
	c := New()
	c.Connected()
	c.LineRelayed()
	c.LineRelayed()
	c.Reconnect()

	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	got := map[string]float64{}
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			got[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			got[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	want := map[string]float64{
		"fifoirc_connected":           1,
		"fifoirc_lines_relayed_total": 2,
		"fifoirc_reconnects_total":    1,
		"fifoirc_errors_total":        0,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %v, want %v", name, got[name], v)
		}
	}

	// Registering twice on the same registry is a duplicate.
	if err := c.Register(reg); err == nil {
		t.Error("expected duplicate registration error")
	}
}

func TestServer_Metrics(t *testing.T) {
	c := New()
	c.PingSent()

	srv, err := Listen(c, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, util.NewLogger(0))
		close(done)
	}()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + srv.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), "fifoirc_pings_sent_total 1") {
		t.Errorf("metrics output missing ping counter:\n%s", body)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
