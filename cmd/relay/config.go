package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/relay"
)

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getEnvInt64Default(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

type relayFlags struct {
	relay.Config
	LogLevel  string
	LogFormat string
	Colors    bool
}

// parseRelayConfig parses flags and environment variables.
// Priority: flags > env > defaults.
func parseRelayConfig() relayFlags {
	addr := flag.String("addr", getEnvDefault("RELAY_ADDR", relay.DefaultListenAddr), "Listen address (e.g., :7400)")
	maxFrame := flag.Int64("max-frame-size", getEnvInt64Default("RELAY_MAX_FRAME_SIZE", relay.DefaultMaxFrameSize), "Largest accepted frame in bytes")
	level := flag.String("log-level", getEnvDefault("RELAY_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	format := flag.String("log-format", getEnvDefault("RELAY_LOG_FORMAT", "console"), "Log format: console or json")
	colors := flag.Bool("colors", getEnvBoolDefault("RELAY_COLORS", true), "Colorize console logs")

	flag.Parse()

	return relayFlags{
		Config:    relay.Config{ListenAddr: *addr, MaxFrameSize: *maxFrame},
		LogLevel:  *level,
		LogFormat: *format,
		Colors:    *colors,
	}
}

func logRelayConfig(logger *logging.ColoredLogger, f relayFlags) {
	logger.ComponentInfo(logging.ComponentGeneral, "Loaded relay configuration",
		zap.String("addr", f.ListenAddr),
		zap.Int64("max_frame_size", f.MaxFrameSize),
		zap.String("log_level", f.LogLevel),
	)
}
