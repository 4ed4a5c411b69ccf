// Package client is the overlay pub/sub client: it keeps one channel to a
// node alive, replays its session onto every new connection and applies
// subscription changes optimistically.
//
// A Client is not safe for concurrent use. Callers serialize operations,
// typically by owning the client from a single goroutine.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/channel"
	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/metrics"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/session"
)

// Channel is one live connection carrying protocol packages. The client
// treats any error from Receive, and any non-validation error from Send, as
// a dead link: the channel is dropped and a new one opened.
type Channel interface {
	Send(ctx context.Context, p protocol.Package) error
	Receive(ctx context.Context) (protocol.Package, error)
	Close() error
}

// Opener establishes channels to an endpoint.
type Opener interface {
	Open(ctx context.Context, endpoint string) (Channel, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, endpoint string) (Channel, error)

func (f OpenerFunc) Open(ctx context.Context, endpoint string) (Channel, error) {
	return f(ctx, endpoint)
}

// WebSocketOpener adapts a channel.Opener to Opener.
func WebSocketOpener(o *channel.Opener) Opener {
	return OpenerFunc(func(ctx context.Context, endpoint string) (Channel, error) {
		ch, err := o.Open(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		return ch, nil
	})
}

// Client implements an overlay session over a reconnecting channel
type Client struct {
	config  *Config
	id      string
	logger  *zap.Logger
	opener  Opener
	session *session.Session
	store   session.Store
	metrics *metrics.ClientMetrics

	link  link
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a new overlay client. No connection is made until the
// first operation that needs one.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	logger, err := newClientLogger(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	id := uuid.NewString()
	logger = logger.With(zap.String("client_id", id), zap.String("endpoint", config.Endpoint))

	opener := config.Opener
	if opener == nil {
		opener = WebSocketOpener(channel.NewOpener(logger, config.Metrics))
	}

	sess := config.Session
	if sess == nil {
		sess = session.New()
	}

	return &Client{
		config:  config,
		id:      id,
		logger:  logger,
		opener:  opener,
		session: sess,
		store:   config.Store,
		metrics: config.Metrics,
		link:    disconnected{},
		sleep:   sleepCtx,
	}, nil
}

// ID returns the instance identifier used in this client's log lines.
func (c *Client) ID() string { return c.id }

// State returns the current connection state.
func (c *Client) State() State { return c.link.state() }

// Session returns a snapshot of the local session.
func (c *Client) Session() session.State { return c.session.Snapshot() }

func (c *Client) newBudget() *budget {
	return &budget{max: c.config.MaxReconnectAttempts}
}

// Open makes sure a channel is established, reconnecting if needed.
func (c *Client) Open(ctx context.Context) error {
	_, _, err := c.connect(ctx, c.newBudget())
	return err
}

// Close drops the current channel, if any. The session is kept and the
// client can be opened again.
func (c *Client) Close() error {
	c.drop()
	return nil
}

// connect returns the live channel, establishing one if necessary. fresh is
// true when the channel was established (and resynced) by this call.
func (c *Client) connect(ctx context.Context, b *budget) (ch Channel, fresh bool, err error) {
	for {
		if cur, ok := c.link.(connected); ok {
			return cur.ch, fresh, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		if b.exhausted() {
			c.logger.Warn("Reconnect budget exhausted",
				zap.Uint("attempts", b.used),
				zap.Error(b.last))
			return nil, false, b.err()
		}

		delay := b.delay(c.config.ReconnectDelayStep)
		b.used++
		c.link = connecting{attempt: b.used}
		if delay > 0 {
			c.logger.Debug("Waiting before reconnect",
				zap.Uint("attempt", b.used),
				zap.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				c.link = disconnected{}
				return nil, false, err
			}
		}

		c.metrics.ConnectAttempt()
		c.logger.Debug("Connecting", zap.Uint("attempt", b.used))

		opened, err := c.opener.Open(ctx, c.config.Endpoint)
		if err != nil {
			c.link = disconnected{}
			if permanent(err) {
				c.logger.Warn("Connect failed permanently", zap.Error(err))
				return nil, false, err
			}
			c.logger.Warn("Connect attempt failed",
				zap.Uint("attempt", b.used),
				zap.Error(err))
			b.last = err
			continue
		}

		if err := c.resync(ctx, opened); err != nil {
			_ = opened.Close()
			c.link = disconnected{}
			if permanent(err) {
				return nil, false, err
			}
			c.logger.Warn("Resync failed",
				zap.Uint("attempt", b.used),
				zap.Error(err))
			b.last = err
			continue
		}

		c.link = connected{ch: opened}
		c.metrics.Connected(true)
		c.logger.Info("Connected",
			zap.Uint("attempt", b.used),
			zap.Bool("router", c.session.IsRouter()),
			zap.Int("topics", c.session.Len()))
		fresh = true
	}
}

// resync replays the session onto a fresh channel: the router registration
// first, then one Subscribe per topic.
func (c *Client) resync(ctx context.Context, ch Channel) error {
	if c.session.IsRouter() {
		if err := ch.Send(ctx, protocol.Registration{IsRouter: true}); err != nil {
			return err
		}
	}
	for _, topic := range c.session.Topics() {
		if err := ch.Send(ctx, protocol.NewSubscribe(topic, true)); err != nil {
			return err
		}
	}
	return nil
}

// drop discards the current channel and moves to Disconnected.
func (c *Client) drop() {
	if cur, ok := c.link.(connected); ok {
		_ = cur.ch.Close()
		c.metrics.Connected(false)
		c.logger.Debug("Channel dropped")
	}
	c.link = disconnected{}
}

// Send delivers a package, reconnecting transparently on transport failure.
func (c *Client) Send(ctx context.Context, p protocol.Package) error {
	return c.send(ctx, p, c.newBudget(), false)
}

// send writes p on a live channel. With covered set, a channel established
// by this call already carries p through its resync and nothing more is
// written.
func (c *Client) send(ctx context.Context, p protocol.Package, b *budget, covered bool) error {
	for {
		ch, fresh, err := c.connect(ctx, b)
		if err != nil {
			return err
		}
		if covered && fresh {
			return nil
		}

		err = ch.Send(ctx, p)
		switch {
		case err == nil:
			return nil
		case overlayerrors.IsCancelled(err):
			c.drop()
			return err
		case overlayerrors.IsValidation(err):
			// Encode failures leave the channel usable.
			return err
		default:
			c.logger.Warn("Send failed, reconnecting",
				zap.String("kind", p.Kind().String()),
				zap.Error(err))
			c.drop()
			b.last = err
		}
	}
}

// Receive returns the next package from the node, reconnecting
// transparently on transport failure. No filtering is applied.
func (c *Client) Receive(ctx context.Context) (protocol.Package, error) {
	return c.receive(ctx, c.newBudget())
}

func (c *Client) receive(ctx context.Context, b *budget) (protocol.Package, error) {
	for {
		ch, _, err := c.connect(ctx, b)
		if err != nil {
			return nil, err
		}

		p, err := ch.Receive(ctx)
		switch {
		case err == nil:
			return p, nil
		case overlayerrors.IsCancelled(err):
			c.drop()
			return nil, err
		default:
			c.logger.Warn("Receive failed, reconnecting", zap.Error(err))
			c.drop()
			b.last = err
		}
	}
}

// Next returns the next package relevant to this client: Subscribe
// packages only when acting as a router, Registration packages always, and
// Message packages only for subscribed topics.
func (c *Client) Next(ctx context.Context) (protocol.Package, error) {
	b := c.newBudget()
	for {
		p, err := c.receive(ctx, b)
		if err != nil {
			return nil, err
		}
		if c.wants(p) {
			return p, nil
		}
		c.metrics.FrameDropped(metrics.ReasonFiltered)
		c.logger.Debug("Filtered inbound package", zap.String("kind", p.Kind().String()))
	}
}

func (c *Client) wants(p protocol.Package) bool {
	switch pkg := p.(type) {
	case protocol.Subscribe:
		return c.session.IsRouter()
	case protocol.Registration:
		return true
	case protocol.Message:
		_, ok := c.session.IsSubscribed(pkg.Topic)
		return ok
	default:
		return false
	}
}

// Subscribe adds topic to the session and announces it. The change is
// rolled back if it cannot be delivered. Subscribing twice is a no-op.
func (c *Client) Subscribe(ctx context.Context, topic string) error {
	if err := protocol.ValidateTopic(topic); err != nil {
		return err
	}
	if !c.session.Subscribe(topic) {
		return nil
	}
	if err := c.send(ctx, protocol.NewSubscribe(topic, true), c.newBudget(), true); err != nil {
		c.session.Unsubscribe(topic)
		c.metrics.Rollback("subscribe")
		c.logger.Warn("Subscribe rolled back", zap.String("topic", topic), zap.Error(err))
		return NewClientError("subscribe", fmt.Sprintf("topic %q not announced", topic), err)
	}
	c.logger.Debug("Subscribed", zap.String("topic", topic))
	c.persist(ctx)
	return nil
}

// Unsubscribe removes topic from the session and announces it. The change
// is rolled back if it cannot be delivered. Unknown topics are a no-op.
func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	if !c.session.Unsubscribe(topic) {
		return nil
	}
	if err := c.send(ctx, protocol.NewSubscribe(topic, false), c.newBudget(), true); err != nil {
		c.session.Subscribe(topic)
		c.metrics.Rollback("unsubscribe")
		c.logger.Warn("Unsubscribe rolled back", zap.String("topic", topic), zap.Error(err))
		return NewClientError("unsubscribe", fmt.Sprintf("topic %q not withdrawn", topic), err)
	}
	c.logger.Debug("Unsubscribed", zap.String("topic", topic))
	c.persist(ctx)
	return nil
}

// SetRouter changes the client's role and announces it with a Registration
// package. The change is rolled back if it cannot be delivered.
func (c *Client) SetRouter(ctx context.Context, isRouter bool) error {
	if !c.session.SetRouter(isRouter) {
		return nil
	}
	if err := c.send(ctx, protocol.Registration{IsRouter: isRouter}, c.newBudget(), true); err != nil {
		c.session.SetRouter(!isRouter)
		c.metrics.Rollback("register")
		c.logger.Warn("Role change rolled back", zap.Bool("router", isRouter), zap.Error(err))
		return NewClientError("register", "role change not announced", err)
	}
	c.logger.Debug("Role changed", zap.Bool("router", isRouter))
	c.persist(ctx)
	return nil
}

// Publish sends payload on topic.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	return c.Send(ctx, protocol.NewMessage(topic, payload))
}

func (c *Client) persist(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, c.session.Snapshot()); err != nil {
		c.logger.Warn("Failed to persist session", zap.Error(err))
	}
}
