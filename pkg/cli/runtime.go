package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/client"
	"github.com/DeBrosOfficial/overlay/pkg/config"
	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/metrics"
	"github.com/DeBrosOfficial/overlay/pkg/session"
)

// runtime bundles what a command needs after flags and config are merged.
type runtime struct {
	cfg    *config.Config
	logger *logging.ColoredLogger
	store  session.Store
	close  []func() error
}

func (g *globalFlags) loadConfig() (*config.Config, error) {
	path, err := config.ResolveConfigPath(g.configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.endpoint != "" {
		cfg.Client.Endpoint = g.endpoint
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, "  - "+e.Error())
		}
		return nil, fmt.Errorf("invalid configuration:\n%s", strings.Join(msgs, "\n"))
	}
	return cfg, nil
}

func (g *globalFlags) newRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
		Colors:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger}
	rt.close = append(rt.close, func() error {
		_ = logger.Sync()
		return nil
	})

	store, err := rt.openStore(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.store = store
	return rt, nil
}

// Close releases everything the runtime opened, last first.
func (rt *runtime) Close() error {
	var errs []error
	for i := len(rt.close) - 1; i >= 0; i-- {
		if err := rt.close[i](); err != nil {
			errs = append(errs, err)
		}
	}
	rt.close = nil
	return errors.Join(errs...)
}

func (rt *runtime) openStore(ctx context.Context) (session.Store, error) {
	if rt.cfg.Session.Store == config.StoreNone {
		return nil, nil
	}
	path, err := rt.cfg.SessionPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	switch rt.cfg.Session.Store {
	case config.StoreFile:
		return session.NewFileStore(path), nil
	case config.StoreSQLite:
		store, err := session.OpenSQLiteStore(ctx, path)
		if err != nil {
			return nil, err
		}
		rt.close = append(rt.close, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", rt.cfg.Session.Store)
	}
}

// loadSession returns the persisted session, seeded from the config when
// nothing has been persisted yet. A persisted empty session stays empty.
func (rt *runtime) loadSession(ctx context.Context) (*session.Session, error) {
	if rt.store != nil {
		sess, err := rt.store.Load(ctx)
		if !errors.Is(err, session.ErrNotSaved) {
			return sess, err
		}
	}
	return session.FromState(session.State{
		IsRouter: rt.cfg.Session.Router,
		Topics:   rt.cfg.Session.Topics,
	}), nil
}

func (rt *runtime) newClient(ctx context.Context) (*client.Client, error) {
	sess, err := rt.loadSession(ctx)
	if err != nil {
		return nil, err
	}

	var m *metrics.ClientMetrics
	if rt.cfg.Metrics.Enabled {
		m = metrics.NewClientMetrics()
		rt.serveMetrics()
	}

	cc := rt.cfg.Client
	c, err := client.NewClient(&client.Config{
		Endpoint:             cc.Endpoint,
		MaxReconnectAttempts: cc.MaxReconnectAttempts,
		ReconnectDelayStep:   cc.ReconnectDelayStep,
		QuietMode:            cc.QuietMode,
		Logger:               rt.logger.For(logging.ComponentClient),
		Session:              sess,
		Store:                rt.store,
		Metrics:              m,
	})
	if err != nil {
		return nil, err
	}
	rt.close = append(rt.close, c.Close)
	return c, nil
}

// serveMetrics exposes the default Prometheus registry until the runtime
// is closed.
func (rt *runtime) serveMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              rt.cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rt.logger.ComponentError(logging.ComponentGeneral, "Metrics server error", zap.Error(err))
		}
	}()
	rt.close = append(rt.close, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	rt.logger.ComponentInfo(logging.ComponentGeneral, "Serving metrics",
		zap.String("listen_addr", rt.cfg.Metrics.ListenAddr))
}

// withRuntime wraps a command body with runtime setup and teardown.
func (g *globalFlags) withRuntime(run func(ctx context.Context, cmd *cobra.Command, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := g.newRuntime(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		return run(ctx, cmd, rt, args)
	}
}
