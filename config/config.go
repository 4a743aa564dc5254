// Package config defines the runtime configuration for fifoirc and the
// helpers that fill it from a YAML file, a .env file, the environment
// and the command line.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

// Config holds every tuneable for one relay.
type Config struct {
	// ── IRC ──────────────────────────────────────────────────────────
	Server    string `yaml:"server"`
	Port      int    `yaml:"port"`
	Channel   string `yaml:"channel"`
	Nick      string `yaml:"nick"`
	FullName  string `yaml:"full_name"` // defaults to Nick
	Reconnect bool   `yaml:"reconnect"`

	// ── NickServ ─────────────────────────────────────────────────────
	NickServPassword     string `yaml:"nickserv_password"`
	NickServPasswordFile string `yaml:"nickserv_password_file"` // "-" reads stdin
	NickServPrompt       bool   `yaml:"-"`

	// ── Sources ──────────────────────────────────────────────────────
	FIFOPath string `yaml:"fifo"`
	FIFOMode string `yaml:"fifo_mode"` // octal, e.g. "0700"
	Exec     string `yaml:"exec"`      // optional shell command

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string        `yaml:"tunnel"` // raw [user@]host[:port]
	TunnelEnabled  bool          `yaml:"-"`
	TunnelUser     string        `yaml:"-"`
	TunnelHost     string        `yaml:"-"`
	TunnelPort     int           `yaml:"-"`
	SSHKeyPath     string        `yaml:"ssh_key"`
	SSHPassword    bool          `yaml:"ssh_password"` // true → prompt interactively
	UseSSHAgent    bool          `yaml:"ssh_agent"`
	StrictHostKey  bool          `yaml:"strict_hostkey"`
	KnownHostsPath string        `yaml:"known_hosts"`
	ConnTimeout    time.Duration `yaml:"conn_timeout"`

	// ── Keepalive and framing ────────────────────────────────────────
	PingTimeout time.Duration `yaml:"ping_timeout"`
	FrameSize   int           `yaml:"frame_size"`

	// ── Output ───────────────────────────────────────────────────────
	MetricsAddr string `yaml:"metrics_addr"`
	Verbose     int    `yaml:"verbose"`
	DryRun      bool   `yaml:"-"`

	// ClientVersion is appended to the CTCP VERSION reply.
	ClientVersion string `yaml:"-"`
}

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		Server:      DefaultServer,
		Port:        DefaultPort,
		Channel:     DefaultChannel,
		FIFOPath:    DefaultFIFOPath(),
		FIFOMode:    DefaultFIFOMode,
		ConnTimeout: DefaultConnTimeout,
		PingTimeout: DefaultPingTimeout,
		FrameSize:   DefaultFrameSize,
	}
}

// DefaultFIFOPath returns $HOME/irc-pipe, or /tmp/irc-pipe without a
// home directory.
func DefaultFIFOPath() string {
	home := os.Getenv("HOME")
	if home == "" {
		home = "/tmp"
	}
	return home + "/irc-pipe"
}

// FileMode parses FIFOMode as octal permission bits.
func (c *Config) FileMode() (os.FileMode, error) {
	n, err := strconv.ParseUint(c.FIFOMode, 8, 32)
	if err != nil || n > 0o777 {
		return 0, fmt.Errorf("invalid mode %q – expected octal permission bits such as 0700", c.FIFOMode)
	}
	return os.FileMode(n), nil
}

// EffectiveFullName returns FullName, falling back to Nick.
func (c *Config) EffectiveFullName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Nick
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "relay@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// ResolveTunnel parses TunnelSpec into the Tunnel* fields.  An empty
// user falls back to $USER.
func (c *Config) ResolveTunnel() error {
	if c.TunnelSpec == "" {
		c.TunnelEnabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return err
	}
	if user == "" {
		user = os.Getenv("USER")
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}
