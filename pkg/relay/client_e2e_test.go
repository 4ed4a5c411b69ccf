package relay

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/client"
	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/push"
)

func newTestClient(t *testing.T, srv *httptest.Server) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig(wsURL(srv))
	cfg.ReconnectDelayStep = 20 * time.Millisecond
	cfg.Logger = zap.NewNop()
	c, err := client.NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientPublishSubscribe(t *testing.T) {
	s, srv := newTestRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	sub := newTestClient(t, srv)
	pub := newTestClient(t, srv)

	require.NoError(t, sub.Subscribe(ctx, "orders"))
	waitSubscribers(t, s, "orders", 1)

	require.NoError(t, pub.Publish(ctx, "orders", []byte("order #1")))

	got, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewMessage("orders", []byte("order #1")), got)
}

func TestClientHTTPPush(t *testing.T) {
	s, srv := newTestRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	sub := newTestClient(t, srv)
	require.NoError(t, sub.Subscribe(ctx, "alerts"))
	waitSubscribers(t, s, "alerts", 1)

	msg := protocol.NewMessage("alerts", []byte("disk full"))
	require.NoError(t, push.New(time.Second, nil).Send(ctx, srv.URL+"/", msg))

	got, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}

func TestRouterSeesSubscriptions(t *testing.T) {
	s, srv := newTestRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	router := newTestClient(t, srv)
	require.NoError(t, router.SetRouter(ctx, true))
	waitRouters(t, s, 1)

	c := newTestClient(t, srv)
	require.NoError(t, c.Subscribe(ctx, "orders"))

	got, err := router.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewSubscribe("orders", true), got)
}

func TestClientResyncsAfterRelayDropsConnection(t *testing.T) {
	s, srv := newTestRelay(t)
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	sub := newTestClient(t, srv)
	require.NoError(t, sub.Subscribe(ctx, "orders"))
	waitSubscribers(t, s, "orders", 1)

	// Drop every connection from the relay side.
	s.mu.RLock()
	for _, p := range s.peers {
		_ = p.conn.Close()
	}
	s.mu.RUnlock()
	require.Eventually(t, func() bool { return s.PeerCount() == 0 }, waitTimeout, 10*time.Millisecond)

	type result struct {
		pkg protocol.Package
		err error
	}
	done := make(chan result, 1)
	go func() {
		p, err := sub.Next(ctx)
		done <- result{p, err}
	}()

	// The subscription comes back once the client has reconnected.
	waitSubscribers(t, s, "orders", 1)

	pub := newTestClient(t, srv)
	msg := protocol.NewMessage("orders", []byte("after reconnect"))
	require.NoError(t, pub.Publish(ctx, "orders", msg.Payload))

	r := <-done
	require.NoError(t, r.err)
	assert.Equal(t, msg, r.pkg)
}

func TestClientGivesUpWhenRelayIsGone(t *testing.T) {
	_, srv := newTestRelay(t)
	url := wsURL(srv)
	srv.Close()

	cfg := client.DefaultConfig(url)
	cfg.MaxReconnectAttempts = 2
	cfg.ReconnectDelayStep = time.Millisecond
	cfg.Logger = zap.NewNop()
	c, err := client.NewClient(cfg)
	require.NoError(t, err)

	err = c.Open(context.Background())
	require.Error(t, err)
	assert.True(t, overlayerrors.IsRetryExhausted(err))
	assert.Equal(t, client.StateDisconnected, c.State())
}
