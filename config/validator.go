package config

import (
	"fmt"

	ircerr "fifoirc/internal/errors"
)

// Validate checks that the configuration is internally consistent.  It
// runs before any network activity and returns a *errors.ConfigError.
func (c *Config) Validate() error {
	if c.Nick == "" {
		return &ircerr.ConfigError{
			Field:   "nick",
			Message: "no nickname specified",
			Hint:    "pass -n <nickname> or set FIFOIRC_NICK",
		}
	}

	if c.Channel == "" {
		return &ircerr.ConfigError{
			Field:   "channel",
			Message: "channel must not be empty",
		}
	}
	if len(c.Channel) > MaxChannelLength {
		return &ircerr.ConfigError{
			Field:   "channel",
			Value:   c.Channel,
			Message: fmt.Sprintf("channels must be at most %d characters", MaxChannelLength),
		}
	}

	if c.Server == "" {
		return &ircerr.ConfigError{Field: "server", Message: "server must not be empty"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &ircerr.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "out of range 1-65535",
			Hint:    "IRC servers usually listen on 6667",
		}
	}

	if c.FIFOPath == "" {
		return &ircerr.ConfigError{Field: "fifo", Message: "fifo path must not be empty"}
	}
	if _, err := c.FileMode(); err != nil {
		return &ircerr.ConfigError{Field: "fifo-mode", Value: c.FIFOMode, Message: err.Error()}
	}

	header := len("PRIVMSG " + c.Channel + " :")
	if c.FrameSize < header+2 || c.FrameSize > MaxFrameSize {
		return &ircerr.ConfigError{
			Field:   "frame-size",
			Value:   c.FrameSize,
			Message: fmt.Sprintf("must be between %d and %d for channel %s", header+2, MaxFrameSize, c.Channel),
			Hint:    fmt.Sprintf("the default %d leaves room for the server's nick!user@host prefix", DefaultFrameSize),
		}
	}

	if c.PingTimeout <= 0 {
		return &ircerr.ConfigError{
			Field:   "ping-timeout",
			Value:   c.PingTimeout,
			Message: "must be positive",
		}
	}

	sources := 0
	for _, set := range []bool{c.NickServPassword != "", c.NickServPasswordFile != "", c.NickServPrompt} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return &ircerr.ConfigError{
			Field:   "password",
			Message: "-P, --password-file and --password-prompt are mutually exclusive",
		}
	}

	if err := c.ResolveTunnel(); err != nil {
		return &ircerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: err.Error(),
			Hint:    "use the form relay@bastion.example.com:22",
		}
	}
	if c.TunnelEnabled && c.TunnelUser == "" {
		return &ircerr.ConfigError{
			Field:   "tunnel",
			Value:   c.TunnelSpec,
			Message: "no SSH user given and $USER is not set",
		}
	}

	return nil
}
