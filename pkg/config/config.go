package config

import (
	"bytes"
	"fmt"
	"os"
	"time"
)

// Config represents the configuration shared by the overlay binaries
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Session SessionConfig `yaml:"session"`
	Push    PushConfig    `yaml:"push"`
	Relay   RelayConfig   `yaml:"relay"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ClientConfig contains the streaming client settings
type ClientConfig struct {
	Endpoint             string        `yaml:"endpoint"`               // ws:// or wss:// node URL
	MaxReconnectAttempts uint          `yaml:"max_reconnect_attempts"` // 0 = unlimited
	ReconnectDelayStep   time.Duration `yaml:"reconnect_delay_step"`   // linear backoff step
	QuietMode            bool          `yaml:"quiet_mode"`
}

// Session store kinds
const (
	StoreNone   = "none"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// SessionConfig describes where the session lives and its initial contents
type SessionConfig struct {
	Store  string   `yaml:"store"` // none, file, sqlite
	Path   string   `yaml:"path"`
	Router bool     `yaml:"router"` // initial role when nothing is persisted
	Topics []string `yaml:"topics"` // subscribed on start
}

// PushConfig contains the HTTP push settings
type PushConfig struct {
	NodeURL string        `yaml:"node_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RelayConfig contains the relay node settings
type RelayConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	MaxFrameSize int64  `yaml:"max_frame_size"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Format     string `yaml:"format"`      // json, console
	OutputFile string `yaml:"output_file"` // Empty for stdout
}

// MetricsConfig controls the Prometheus endpoint of the CLI
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Client: ClientConfig{
			Endpoint:             "ws://localhost:7400/ws",
			MaxReconnectAttempts: 5,
			ReconnectDelayStep:   500 * time.Millisecond,
		},
		Session: SessionConfig{
			Store: StoreNone,
		},
		Push: PushConfig{
			NodeURL: "http://localhost:7400/",
			Timeout: 10 * time.Second,
		},
		Relay: RelayConfig{
			ListenAddr:   ":7400",
			MaxFrameSize: 1 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9400",
		},
	}
}

// Load reads path over the defaults. Keys absent from the file keep their
// default values; unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := DecodeStrict(bytes.NewReader(data), cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
