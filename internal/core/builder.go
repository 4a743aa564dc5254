package core

import (
	"fmt"

	"fifoirc/config"
	"fifoirc/internal/clock"
	"fifoirc/internal/metrics"
	"fifoirc/internal/secret"
	"fifoirc/internal/session"
	"fifoirc/internal/source"
	"fifoirc/internal/transport"
	"fifoirc/tunnel"
	"fifoirc/util"
)

// ClientName is the product name used in the CTCP VERSION reply.
const ClientName = "fifoirc"

// Build constructs the relay from a validated configuration.  Nothing
// is opened or dialed until Run.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	mode, err := cfg.FileMode()
	if err != nil {
		return nil, err
	}

	password, err := loadPassword(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	sources := []source.Source{source.NewFIFO(cfg.FIFOPath, mode, logger)}

	var fwd session.Forwarder
	if cfg.Exec != "" {
		sub := source.NewSubprocess(cfg.Exec, logger)
		sources = append(sources, sub)
		fwd = sub
	}

	dialer := buildDialer(cfg, logger)
	clk := clock.Real()

	version := ClientName
	if cfg.ClientVersion != "" {
		version = ClientName + " " + cfg.ClientVersion
	}

	sess := session.New(session.Options{
		Server:        cfg.Server,
		Port:          cfg.Port,
		Nick:          cfg.Nick,
		FullName:      cfg.EffectiveFullName(),
		Channel:       cfg.Channel,
		Password:      password,
		Reconnect:     cfg.Reconnect,
		ClientVersion: version,
		Resolve:       !cfg.TunnelEnabled,
		Dialer:        dialer,
		Forwarder:     fwd,
		Clock:         clk,
		Logger:        logger,
		Metrics:       m,
	})

	return &RelayMode{
		Session:     sess,
		Sources:     sources,
		Dialer:      dialer,
		Password:    password,
		Metrics:     m,
		MetricsAddr: cfg.MetricsAddr,
		PingTimeout: cfg.PingTimeout,
		FrameSize:   cfg.FrameSize,
		Clock:       clk,
		Logger:      logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.ConnTimeout,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: cfg.ConnTimeout}
}

// loadPassword reads the NickServ secret from whichever source was
// configured.  The plain-text copy in cfg is cleared.
func loadPassword(cfg *config.Config, logger *util.Logger) (*secret.Buffer, error) {
	switch {
	case cfg.NickServPasswordFile != "":
		buf, err := secret.ReadFromPath(cfg.NickServPasswordFile)
		if err != nil {
			return nil, fmt.Errorf("nickserv password: %w", err)
		}
		return buf, nil

	case cfg.NickServPrompt:
		buf, err := secret.Prompt("NickServ password for " + cfg.Nick)
		if err != nil {
			return nil, fmt.Errorf("nickserv password: %w", err)
		}
		return buf, nil

	case cfg.NickServPassword != "":
		buf, err := secret.FromString(cfg.NickServPassword)
		cfg.NickServPassword = ""
		if err != nil {
			return nil, fmt.Errorf("nickserv password: %w", err)
		}
		return buf, nil
	}
	return nil, nil
}
