// Package push delivers a single message to a node over HTTP without
// holding a streaming connection.
package push

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/tlsutil"
)

// ContentType is the media type of a pushed frame.
const ContentType = "application/octet-stream"

// DefaultTimeout bounds one push when the caller's context has no deadline.
const DefaultTimeout = 10 * time.Second

// Pusher posts encoded Message frames to a node's send endpoint.
type Pusher struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// New returns a Pusher using the trusted-domain TLS settings.
func New(timeout time.Duration, logger *zap.Logger) *Pusher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pusher{
		HTTPClient: tlsutil.NewHTTPClient(timeout),
		Logger:     logger,
	}
}

// SendURL resolves the send endpoint against nodeURL the way a relative
// link would: "http://n/api/" yields "http://n/api/send" while
// "http://n/api" yields "http://n/send".
func SendURL(nodeURL string) (string, error) {
	base, err := url.Parse(nodeURL)
	if err != nil {
		return "", overlayerrors.NewEndpointError(nodeURL, "invalid node URL", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return "", overlayerrors.NewEndpointError(nodeURL, fmt.Sprintf("unsupported scheme %q", base.Scheme), nil)
	}
	if base.Host == "" {
		return "", overlayerrors.NewEndpointError(nodeURL, "missing host", nil)
	}
	return base.ResolveReference(&url.URL{Path: "send"}).String(), nil
}

// Send posts msg to nodeURL. Only HTTP 200 counts as success; the call is
// never retried.
func (p *Pusher) Send(ctx context.Context, nodeURL string, msg protocol.Message) error {
	target, err := SendURL(nodeURL)
	if err != nil {
		return err
	}
	body, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return overlayerrors.NewEndpointError(nodeURL, "cannot build request", err)
	}
	req.Header.Set("Content-Type", ContentType)

	logger := p.logger().With(zap.String("url", target), zap.String("topic", msg.Topic))

	resp, err := p.client().Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return overlayerrors.NewTransportError("post", ctxErr)
		}
		logger.Warn("Push failed", zap.Error(err))
		return overlayerrors.NewTransportError("post", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Push rejected", zap.Int("status", resp.StatusCode))
		return overlayerrors.NewServiceError(target, "node rejected message", resp.StatusCode, nil)
	}

	logger.Debug("Pushed message", zap.Int("bytes", len(body)))
	return nil
}

func (p *Pusher) client() *http.Client {
	if p.HTTPClient != nil {
		return p.HTTPClient
	}
	return http.DefaultClient
}

func (p *Pusher) logger() *zap.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return zap.NewNop()
}
