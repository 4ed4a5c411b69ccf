package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClientLogger_QuietModeRaisesGivenLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	cfg := DefaultConfig("ws://127.0.0.1:1/ws")
	cfg.Logger = zap.New(core)
	cfg.QuietMode = true

	logger, err := newClientLogger(cfg)
	require.NoError(t, err)
	logger.Info("connected")
	logger.Warn("dropping channel")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dropping channel", logs.All()[0].Message)
}

func TestClientLogger_DefaultHonoursLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		quiet    bool
		wantInfo bool
		wantWarn bool
	}{
		{name: "default is info", wantInfo: true, wantWarn: true},
		{name: "debug", level: "debug", wantInfo: true, wantWarn: true},
		{name: "error", level: "error"},
		{name: "quiet", quiet: true, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("ws://127.0.0.1:1/ws")
			cfg.LogLevel = tt.level
			cfg.QuietMode = tt.quiet

			logger, err := newClientLogger(cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInfo, logger.Core().Enabled(zapcore.InfoLevel))
			assert.Equal(t, tt.wantWarn, logger.Core().Enabled(zapcore.WarnLevel))
		})
	}
}

func TestNewClient_RejectsUnknownLogLevel(t *testing.T) {
	cfg := DefaultConfig("ws://127.0.0.1:1/ws")
	cfg.LogLevel = "loud"

	_, err := NewClient(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
