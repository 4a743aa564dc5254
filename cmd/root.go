// Package cmd wires up the CLI flags and starts the relay.
package cmd

import (
	"context"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"fifoirc/config"
	"fifoirc/internal/core"
	"fifoirc/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X fifoirc/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// options are the flags that steer loading rather than the relay.
type options struct {
	configFile  string
	envFile     string
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the relay.
//
// Flags are parsed twice.  The first pass only finds --config and
// --env-file; the second pass is bound to the configuration loaded from
// those files and the environment, so only flags actually given on the
// command line override it.
func Execute(ctx context.Context, args []string) error {
	var opts options
	probe := newFlagSet(config.Default(), &opts)
	if err := probe.Parse(args); err != nil {
		return err
	}

	if opts.showHelp || len(args) == 0 {
		printUsage(probe)
		return nil
	}
	if opts.showVersion {
		fmt.Printf("fifoirc %s\n", version)
		return nil
	}
	if probe.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", probe.Arg(0))
	}

	// ── layered configuration ────────────────────────────────────
	cfg := config.Default()
	if opts.configFile == "" {
		opts.configFile = os.Getenv(config.EnvConfigFile)
	}
	if opts.configFile != "" {
		if err := config.LoadFile(cfg, opts.configFile); err != nil {
			return err
		}
	}
	if opts.envFile != "" {
		if err := config.LoadEnvFile(opts.envFile); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)

	verbose := cfg.Verbose
	fs := newFlagSet(cfg, &opts)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = verbose
	}
	cfg.ClientVersion = version

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	if fs.Changed("password") {
		logger.Warn("-P leaves the NickServ password visible in the process list; " +
			"prefer --password-file or --password-prompt")
	}

	if cfg.DryRun {
		printSummary(cfg)
		return nil
	}

	// ── build and run ────────────────────────────────────────────
	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// newFlagSet binds every flag to cfg, using cfg's current values as the
// defaults.
func newFlagSet(cfg *config.Config, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("fifoirc", flag.ContinueOnError)

	// ── IRC ──────────────────────────────────────────────────────
	fs.StringVarP(&cfg.Server, "server", "s", cfg.Server, "IRC server to connect to")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Port on the IRC server")
	fs.StringVarP(&cfg.Channel, "channel", "c", cfg.Channel, "Channel to join")
	fs.StringVarP(&cfg.Nick, "nick", "n", cfg.Nick, "IRC nickname (required)")
	fs.StringVarP(&cfg.FullName, "fullname", "F", cfg.FullName, "IRC full name (default: nickname)")
	fs.BoolVarP(&cfg.Reconnect, "reconnect", "r", cfg.Reconnect, "Reconnect if the connection is lost")

	// ── NickServ ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.NickServPassword, "password", "P", cfg.NickServPassword, "NickServ password (visible in ps)")
	fs.StringVar(&cfg.NickServPasswordFile, "password-file", cfg.NickServPasswordFile, "Read the NickServ password from a file (- for stdin)")
	fs.BoolVar(&cfg.NickServPrompt, "password-prompt", cfg.NickServPrompt, "Prompt for the NickServ password")

	// ── sources ──────────────────────────────────────────────────
	fs.StringVarP(&cfg.FIFOPath, "fifo", "f", cfg.FIFOPath, "Path to the FIFO to read")
	fs.StringVarP(&cfg.FIFOMode, "fifo-mode", "m", cfg.FIFOMode, "Permission bits for a created FIFO (octal)")
	fs.StringVarP(&cfg.Exec, "exec", "e", cfg.Exec, "Shell command whose output is relayed and which receives channel messages")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the IRC server via SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")
	fs.DurationVar(&cfg.ConnTimeout, "conn-timeout", cfg.ConnTimeout, "TCP/SSH connection timeout")

	// ── keepalive and framing ────────────────────────────────────
	fs.DurationVar(&cfg.PingTimeout, "ping-timeout", cfg.PingTimeout, "Idle time before a keepalive PING, and before giving up on the server")
	fs.IntVar(&cfg.FrameSize, "frame-size", cfg.FrameSize, "Maximum outbound PRIVMSG length in bytes")

	// ── loading and output ───────────────────────────────────────
	fs.StringVar(&opts.configFile, "config", "", "YAML configuration file (or $"+config.EnvConfigFile+")")
	fs.StringVar(&opts.envFile, "env-file", "", "Load FIFOIRC_* variables from a .env file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate the configuration and exit")

	fs.BoolVar(&opts.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&opts.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }
	return fs
}

func printSummary(cfg *config.Config) {
	fmt.Printf("server   %s:%d\n", cfg.Server, cfg.Port)
	fmt.Printf("channel  %s\n", cfg.Channel)
	fmt.Printf("nick     %s (%s)\n", cfg.Nick, cfg.EffectiveFullName())
	fmt.Printf("fifo     %s (mode %s)\n", cfg.FIFOPath, cfg.FIFOMode)
	if cfg.Exec != "" {
		fmt.Printf("exec     %s\n", cfg.Exec)
	}
	if cfg.TunnelEnabled {
		fmt.Printf("tunnel   %s@%s:%d\n", cfg.TunnelUser, cfg.TunnelHost, cfg.TunnelPort)
	}
	fmt.Printf("timeout  %s, frame %d bytes, reconnect %v\n", cfg.PingTimeout, cfg.FrameSize, cfg.Reconnect)
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `fifoirc v%s

Relay lines written to a named pipe into an IRC channel.

Usage:
  fifoirc -n <nickname> [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  fifoirc -n buildbot -c '#ci'                  Relay $HOME/irc-pipe to #ci
  echo "deploy done" > ~/irc-pipe               Send a line
  fifoirc -n bot -e ./responder.sh -r           Also talk to a subprocess
  fifoirc -n bot -T relay@bastion -s irc.lan    Connect through an SSH gateway
  fifoirc --config /etc/fifoirc.yaml            Load settings from YAML
`)
}
