package client

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DeBrosOfficial/overlay/pkg/logging"
)

// newClientLogger returns the logger the client writes through: the
// configured one, or a CLIENT-tagged console logger at config.LogLevel.
// QuietMode raises either to Warn.
func newClientLogger(config *Config) (*zap.Logger, error) {
	logger := config.Logger
	if logger == nil {
		base, err := logging.New(logging.Options{Level: config.LogLevel, Colors: true})
		if err != nil {
			return nil, err
		}
		logger = base.For(logging.ComponentClient)
	}
	if config.QuietMode && logger.Core().Enabled(zapcore.InfoLevel) {
		logger = logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))
	}
	return logger, nil
}
