// Package channel marshals whole protocol packages over one transport
// connection. A Channel lives for exactly one connection attempt.
package channel

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/metrics"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/transport"
)

// Opener creates channels. It performs the transport connect only; any
// protocol handshake is the caller's business.
type Opener struct {
	Dialer  transport.Dialer
	Logger  *zap.Logger
	Metrics *metrics.ClientMetrics
}

// NewOpener returns an Opener dialing over WebSocket.
func NewOpener(logger *zap.Logger, m *metrics.ClientMetrics) *Opener {
	return &Opener{
		Dialer:  transport.NewWebSocketDialer(),
		Logger:  logger,
		Metrics: m,
	}
}

// Open connects to endpoint.
func (o *Opener) Open(ctx context.Context, endpoint string) (*Channel, error) {
	dialer := o.Dialer
	if dialer == nil {
		dialer = transport.NewWebSocketDialer()
	}
	conn, err := dialer.Dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return New(conn, o.Logger, o.Metrics), nil
}

// Channel wraps one connection.
type Channel struct {
	conn    transport.Conn
	logger  *zap.Logger
	metrics *metrics.ClientMetrics

	closeOnce sync.Once
}

// New wraps an open connection.
func New(conn transport.Conn, logger *zap.Logger, m *metrics.ClientMetrics) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{conn: conn, logger: logger, metrics: m}
}

// Send encodes p and writes it as one frame. Encoding failures are returned
// as validation errors and leave the connection usable.
func (c *Channel) Send(ctx context.Context, p protocol.Package) error {
	frame, err := protocol.Encode(p)
	if err != nil {
		return err
	}
	if err := c.conn.WriteFrame(ctx, frame); err != nil {
		return err
	}
	c.metrics.FrameSent(p.Kind().String())
	return nil
}

// Receive blocks until a decodable frame arrives. Frames that fail to
// decode are dropped; only transport failures end the call.
func (c *Channel) Receive(ctx context.Context) (protocol.Package, error) {
	for {
		frame, err := c.conn.ReadFrame(ctx)
		if err != nil {
			return nil, err
		}

		p, err := protocol.Decode(frame)
		if err != nil {
			c.metrics.FrameDropped(metrics.ReasonDecode)
			c.logger.Debug("Dropping undecodable frame",
				zap.Int("frame_len", len(frame)),
				zap.Error(err))
			continue
		}

		c.metrics.FrameReceived(p.Kind().String())
		return p, nil
	}
}

// Close closes the connection. Errors are ignored and repeated calls are
// no-ops.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("Error closing channel", zap.Error(err))
		}
	})
	return nil
}
