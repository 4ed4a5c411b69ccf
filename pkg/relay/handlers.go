package relay

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	overlayerrors "github.com/DeBrosOfficial/overlay/pkg/errors"
	"github.com/DeBrosOfficial/overlay/pkg/httputil"
	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
	"github.com/DeBrosOfficial/overlay/pkg/transport"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccessWithData(w, map[string]any{"peers": s.PeerCount()})
}

// handleWebSocket upgrades the request and reads frames until the peer
// leaves or the relay shuts down.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.ComponentWarn(logging.ComponentRelay, "WebSocket upgrade failed", zap.Error(err))
		return
	}
	ws.SetReadLimit(s.cfg.MaxFrameSize)

	p := newPeer(newPeerID(), transport.NewWebSocketConn(ws))
	s.addPeer(p)
	defer func() {
		s.removePeer(p)
		_ = p.conn.Close()
		s.logger.ComponentInfo(logging.ComponentRelay, "Peer left", zap.String("peer", p.id))
	}()

	s.logger.ComponentInfo(logging.ComponentRelay, "Peer joined",
		zap.String("peer", p.id),
		zap.String("remote", r.RemoteAddr))

	for {
		frame, err := p.conn.ReadFrame(s.ctx)
		if err != nil {
			s.logger.ComponentDebug(logging.ComponentRelay, "Peer read ended",
				zap.String("peer", p.id),
				zap.Error(err))
			return
		}
		pkg, err := protocol.Decode(frame)
		if err != nil {
			s.logger.ComponentDebug(logging.ComponentRelay, "Skipping malformed frame",
				zap.String("peer", p.id),
				zap.Error(err))
			continue
		}
		s.route(p, pkg)
	}
}

// handleSend accepts one encoded Message frame over HTTP.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	if !httputil.HasContentType(r, "application/octet-stream") {
		overlayerrors.WriteHTTPError(w,
			overlayerrors.NewValidationError("Content-Type", "expected application/octet-stream", r.Header.Get("Content-Type")),
			reqID)
		return
	}

	body, err := httputil.ReadBodyStrict(r, s.cfg.MaxFrameSize)
	if err != nil {
		overlayerrors.WriteHTTPError(w, overlayerrors.NewValidationError("body", err.Error(), nil), reqID)
		return
	}

	pkg, err := protocol.Decode(body)
	if err != nil {
		overlayerrors.WriteHTTPError(w, err, reqID)
		return
	}
	msg, ok := pkg.(protocol.Message)
	if !ok {
		overlayerrors.WriteHTTPError(w,
			overlayerrors.NewValidationError("body", "expected a message frame", pkg.Kind().String()),
			reqID)
		return
	}

	s.route(nil, msg)
	httputil.WriteSuccess(w)
}
