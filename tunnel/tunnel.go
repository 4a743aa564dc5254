// Package tunnel reaches an IRC server that is only routable from an
// SSH gateway.  Connections are forwarded with ssh.Client.Dial, so the
// gateway resolves the server name.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which the IRC
// connection is forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel.
	Close() error

	// IsAlive reports whether the gateway connection is still up.
	IsAlive() bool
}
