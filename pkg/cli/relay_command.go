package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/relay"
)

func newRelayCmd(g *globalFlags) *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run a relay node",
		Args:  cobra.NoArgs,
		RunE: g.withRuntime(func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error {
			cfg := relay.Config{
				ListenAddr:   rt.cfg.Relay.ListenAddr,
				MaxFrameSize: rt.cfg.Relay.MaxFrameSize,
			}
			if listenAddr != "" {
				cfg.ListenAddr = listenAddr
			}
			return RunRelay(ctx, cfg, rt.logger)
		}),
	}
	cmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address, overrides relay.listen_addr")
	return cmd
}

// RunRelay serves a relay until ctx is done, then shuts it down.
func RunRelay(ctx context.Context, cfg relay.Config, logger *logging.ColoredLogger) error {
	srv, err := relay.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ComponentError(logging.ComponentRelay, "Relay shutdown error", zap.Error(err))
		return err
	}
	return <-errCh
}
