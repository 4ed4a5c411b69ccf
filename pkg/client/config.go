package client

import (
	"time"

	"go.uber.org/zap"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/metrics"
	"github.com/DeBrosOfficial/overlay/pkg/session"
)

const (
	// DefaultMaxReconnectAttempts bounds the connection attempts of one call.
	DefaultMaxReconnectAttempts uint = 5
	// DefaultReconnectDelayStep is added to the wait before every retry.
	DefaultReconnectDelayStep = 500 * time.Millisecond
)

// Config represents configuration for an overlay client
type Config struct {
	Endpoint string `yaml:"endpoint"`

	// MaxReconnectAttempts is the number of connection attempts a single
	// operation may spend. Zero means unlimited.
	MaxReconnectAttempts uint `yaml:"max_reconnect_attempts"`

	// ReconnectDelayStep is the linear backoff step: attempt n waits
	// (n-1)*ReconnectDelayStep before dialing.
	ReconnectDelayStep time.Duration `yaml:"reconnect_delay_step"`

	QuietMode bool   `yaml:"quiet_mode"` // Suppress debug/info logs
	LogLevel  string `yaml:"log_level"`  // level of the default logger; ignored when Logger is set

	Logger  *zap.Logger            `yaml:"-"`
	Opener  Opener                 `yaml:"-"` // defaults to a WebSocket opener
	Session *session.Session       `yaml:"-"` // initial session, e.g. restored from Store
	Store   session.Store          `yaml:"-"` // saved after every applied change
	Metrics *metrics.ClientMetrics `yaml:"-"`
}

// DefaultConfig returns a default client configuration
func DefaultConfig(endpoint string) *Config {
	return &Config{
		Endpoint:             endpoint,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		ReconnectDelayStep:   DefaultReconnectDelayStep,
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return overlayerrors.NewValidationError("endpoint", "endpoint is required", nil)
	}
	if c.ReconnectDelayStep < 0 {
		return overlayerrors.NewValidationError("reconnect_delay_step", "must not be negative", c.ReconnectDelayStep)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return overlayerrors.NewValidationError("log_level", err.Error(), c.LogLevel)
	}
	return nil
}
