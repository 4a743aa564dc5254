package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultServer is the IRC server used when none is given.
	DefaultServer = "irc.libera.chat"

	// DefaultPort is the plain-text IRC port.
	DefaultPort = 6667

	// DefaultChannel is joined when no channel is given.
	DefaultChannel = "#fifoirc"

	// MaxChannelLength is the longest accepted channel name.
	MaxChannelLength = 200

	// DefaultFIFOMode gives the owner sole access to a created pipe.
	DefaultFIFOMode = "0700"

	// DefaultPingTimeout is both the keepalive interval and the idle
	// limit after which the connection is considered dead.
	DefaultPingTimeout = 600 * time.Second

	// DefaultFrameSize bounds an outbound PRIVMSG so that the server's
	// relayed copy, prefixed with our nick!user@host, still fits in 512
	// bytes.
	DefaultFrameSize = 450

	// MaxFrameSize leaves room for CRLF within the 512-byte wire limit.
	MaxFrameSize = 510

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultConnTimeout is the TCP/SSH connection timeout.
	DefaultConnTimeout = 30 * time.Second
)
