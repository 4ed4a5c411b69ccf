package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/cli"
	"github.com/DeBrosOfficial/overlay/pkg/logging"
)

func main() {
	f := parseRelayConfig()

	logger, err := logging.New(logging.Options{
		Level:  f.LogLevel,
		Format: f.LogFormat,
		Colors: f.Colors,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logRelayConfig(logger, f)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.RunRelay(ctx, f.Config, logger); err != nil {
		logger.ComponentError(logging.ComponentGeneral, "Relay exited with error", zap.Error(err))
		os.Exit(1)
	}
	logger.ComponentInfo(logging.ComponentGeneral, "Relay shutdown complete")
}
