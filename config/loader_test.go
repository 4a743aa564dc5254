package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromEnv_Strings(t *testing.T) {
	t.Setenv("FIFOIRC_SERVER", "irc.example.net")
	t.Setenv("FIFOIRC_CHANNEL", "#ops")
	t.Setenv("FIFOIRC_NICK", "relaybot")
	t.Setenv("FIFOIRC_FIFO", "/run/relay/pipe")
	t.Setenv("FIFOIRC_EXEC", "./bot.sh")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Server != "irc.example.net" || cfg.Channel != "#ops" || cfg.Nick != "relaybot" {
		t.Errorf("unexpected %+v", cfg)
	}
	if cfg.FIFOPath != "/run/relay/pipe" || cfg.Exec != "./bot.sh" {
		t.Errorf("fifo=%q exec=%q", cfg.FIFOPath, cfg.Exec)
	}
}

func TestLoadFromEnv_Numbers(t *testing.T) {
	t.Setenv("FIFOIRC_PORT", "6697")
	t.Setenv("FIFOIRC_PING_TIMEOUT", "120")
	t.Setenv("FIFOIRC_FRAME_SIZE", "400")
	t.Setenv("FIFOIRC_VERBOSE", "2")

	cfg := Default()
	LoadFromEnv(cfg)

	if cfg.Port != 6697 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.PingTimeout != 120*time.Second {
		t.Errorf("PingTimeout = %v", cfg.PingTimeout)
	}
	if cfg.FrameSize != 400 || cfg.Verbose != 2 {
		t.Errorf("frame=%d verbose=%d", cfg.FrameSize, cfg.Verbose)
	}
}

func TestLoadFromEnv_InvalidNumberIgnored(t *testing.T) {
	t.Setenv("FIFOIRC_PORT", "not-a-port")
	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want default", cfg.Port)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("FIFOIRC_RECONNECT", v)
			t.Setenv("FIFOIRC_SSH_AGENT", v)
			cfg := &Config{}
			LoadFromEnv(cfg)
			if !cfg.Reconnect || !cfg.UseSSHAgent {
				t.Errorf("reconnect=%v agent=%v", cfg.Reconnect, cfg.UseSSHAgent)
			}
		})
	}

	t.Setenv("FIFOIRC_RECONNECT", "no")
	cfg := &Config{}
	LoadFromEnv(cfg)
	if cfg.Reconnect {
		t.Error("\"no\" should not enable reconnect")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifoirc.yaml")
	yaml := `
server: irc.example.net
port: 6697
channel: "#builds"
nick: ci-bot
reconnect: true
fifo: /var/run/ci-pipe
fifo_mode: "0600"
ping_timeout: 5m
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(cfg, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server != "irc.example.net" || cfg.Port != 6697 || cfg.Channel != "#builds" {
		t.Errorf("unexpected %+v", cfg)
	}
	if !cfg.Reconnect || cfg.Nick != "ci-bot" {
		t.Errorf("reconnect=%v nick=%q", cfg.Reconnect, cfg.Nick)
	}
	if cfg.PingTimeout != 5*time.Minute {
		t.Errorf("PingTimeout = %v", cfg.PingTimeout)
	}
	// Keys absent from the file keep their defaults.
	if cfg.FrameSize != DefaultFrameSize {
		t.Errorf("FrameSize = %d", cfg.FrameSize)
	}
}

func TestLoadFile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fifoirc.yaml")
	os.WriteFile(path, []byte("nickname: typo\n"), 0o600) //nolint:errcheck

	err := LoadFile(Default(), path)
	if err == nil || !strings.Contains(err.Error(), "nickname") {
		t.Fatalf("got %v, want unknown field error", err)
	}
}

func TestLoadFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(path, nil, 0o600) //nolint:errcheck

	if err := LoadFile(Default(), path); err != nil {
		t.Fatalf("empty file: %v", err)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	if err := LoadFile(Default(), filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	data := "FIFOIRC_NICK=from-dotenv\nFIFOIRC_CHANNEL=#dotenv\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	// Already-set variables win over the file.
	t.Setenv("FIFOIRC_CHANNEL", "#real")
	t.Setenv("FIFOIRC_NICK", "")
	os.Unsetenv("FIFOIRC_NICK")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}

	cfg := Default()
	LoadFromEnv(cfg)
	if cfg.Nick != "from-dotenv" {
		t.Errorf("Nick = %q", cfg.Nick)
	}
	if cfg.Channel != "#real" {
		t.Errorf("Channel = %q, want the real environment to win", cfg.Channel)
	}
}
