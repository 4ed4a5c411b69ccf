package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/tlsutil"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultReadLimit        = 1 << 20
	closeWriteTimeout       = time.Second
)

// WebSocketDialer dials overlay nodes over WebSocket (ws:// or wss://).
// http:// and https:// endpoints are accepted and mapped to ws/wss.
type WebSocketDialer struct {
	HandshakeTimeout time.Duration
	// ReadLimit caps a single inbound frame. Zero means 1 MiB.
	ReadLimit int64
	Header    http.Header
}

// NewWebSocketDialer returns a dialer with default limits.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		HandshakeTimeout: defaultHandshakeTimeout,
		ReadLimit:        defaultReadLimit,
	}
}

// ParseEndpoint validates endpoint and returns its websocket URL.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, overlayerrors.NewEndpointError(endpoint, "unparseable URL", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return nil, overlayerrors.NewEndpointError(endpoint, fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}
	if u.Hostname() == "" {
		return nil, overlayerrors.NewEndpointError(endpoint, "missing host", nil)
	}
	return u, nil
}

// Dial opens a websocket connection to endpoint.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Conn, error) {
	u, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	handshake := d.HandshakeTimeout
	if handshake <= 0 {
		handshake = defaultHandshakeTimeout
	}
	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshake,
		TLSClientConfig:  tlsutil.GetTLSConfigForHost(u.Hostname()),
	}

	ws, resp, err := dialer.DialContext(ctx, u.String(), d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, overlayerrors.NewEndpointError(endpoint, "cannot resolve host", err)
		}
		return nil, overlayerrors.NewTransportError("dial", err)
	}

	limit := d.ReadLimit
	if limit <= 0 {
		limit = defaultReadLimit
	}
	ws.SetReadLimit(limit)
	return NewWebSocketConn(ws), nil
}

// WebSocketConn adapts a gorilla connection to Conn. gorilla allows one
// concurrent reader and one concurrent writer; WebSocketConn serialises
// writers so a relay can fan out to the same peer from many goroutines.
type WebSocketConn struct {
	ws        *websocket.Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketConn wraps an established websocket connection. It is also
// used by the relay for accepted connections.
func NewWebSocketConn(ws *websocket.Conn) *WebSocketConn {
	return &WebSocketConn{ws: ws}
}

// WriteFrame writes one binary message.
func (c *WebSocketConn) WriteFrame(ctx context.Context, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		c.ws.SetWriteDeadline(time.Now())
	})
	defer stop()

	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return overlayerrors.NewTransportError("write", ctxErr)
		}
		return overlayerrors.NewTransportError("write", err)
	}
	return nil
}

// ReadFrame reads the next binary message.
func (c *WebSocketConn) ReadFrame(ctx context.Context) ([]byte, error) {
	// The context is the only deadline; AfterFunc runs once ctx is done so
	// ctx.Err() is set by the time the blocked call returns.
	c.ws.SetReadDeadline(time.Time{})
	stop := context.AfterFunc(ctx, func() {
		c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, overlayerrors.NewTransportError("read", ctxErr)
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, overlayerrors.NewTransportError("read", fmt.Errorf("%w: %v", io.EOF, err))
			}
			return nil, overlayerrors.NewTransportError("read", err)
		}
		if msgType == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a close frame (best effort) and closes the socket.
func (c *WebSocketConn) Close() error {
	c.closeOnce.Do(func() {
		// WriteControl may run concurrently with WriteMessage.
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout))
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}
