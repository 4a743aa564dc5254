package config

// loader.go - configuration loading from files and environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables, FIFOIRC_*  (LoadFromEnv)
//   3. .env file  (LoadEnvFile; never overrides the real environment)
//   4. YAML file  (LoadFile)
//   5. Defaults   (defaults.go)

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the variable that points at a YAML config file.
const EnvConfigFile = "FIFOIRC_CONFIG"

// LoadFile overlays the YAML file at path onto cfg.  Keys absent from
// the file keep their current value; unknown keys are an error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

// LoadEnvFile reads KEY=value pairs from path into the process
// environment.  Variables that are already set win.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("env file %s: %w", path, err)
	}
	return nil
}

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the FIFOIRC_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flags are applied so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("FIFOIRC_SERVER"); v != "" {
		cfg.Server = v
	}
	if v := envInt("FIFOIRC_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := os.Getenv("FIFOIRC_CHANNEL"); v != "" {
		cfg.Channel = v
	}
	if v := os.Getenv("FIFOIRC_NICK"); v != "" {
		cfg.Nick = v
	}
	if v := os.Getenv("FIFOIRC_FULLNAME"); v != "" {
		cfg.FullName = v
	}
	if envBool("FIFOIRC_RECONNECT") {
		cfg.Reconnect = true
	}

	// NickServ
	if v := os.Getenv("FIFOIRC_NICKSERV_PASSWORD"); v != "" {
		cfg.NickServPassword = v
	}
	if v := os.Getenv("FIFOIRC_NICKSERV_PASSWORD_FILE"); v != "" {
		cfg.NickServPasswordFile = v
	}

	// Sources
	if v := os.Getenv("FIFOIRC_FIFO"); v != "" {
		cfg.FIFOPath = v
	}
	if v := os.Getenv("FIFOIRC_FIFO_MODE"); v != "" {
		cfg.FIFOMode = v
	}
	if v := os.Getenv("FIFOIRC_EXEC"); v != "" {
		cfg.Exec = v
	}

	// SSH tunnel
	if v := os.Getenv("FIFOIRC_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("FIFOIRC_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("FIFOIRC_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("FIFOIRC_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("FIFOIRC_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("FIFOIRC_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Keepalive and framing
	if v := envInt("FIFOIRC_PING_TIMEOUT"); v > 0 {
		cfg.PingTimeout = secondsDuration(v)
	}
	if v := envInt("FIFOIRC_FRAME_SIZE"); v > 0 {
		cfg.FrameSize = v
	}

	// Output
	if v := os.Getenv("FIFOIRC_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := envInt("FIFOIRC_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
