// Package relay is a small overlay node. It accepts client channels over
// WebSocket and routes packages between them: Subscribe and Registration
// packages reach every other router peer, Message packages reach every
// other peer subscribed to the topic.
package relay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/overlay/pkg/logging"
	"github.com/DeBrosOfficial/overlay/pkg/metrics"
	"github.com/DeBrosOfficial/overlay/pkg/protocol"
)

const (
	// DefaultListenAddr is where the relay listens unless configured.
	DefaultListenAddr = ":7400"

	// DefaultMaxFrameSize caps inbound frames on both /ws and /send.
	DefaultMaxFrameSize = 1 << 20

	deliveryTimeout = 10 * time.Second
)

// Config configures a relay node.
type Config struct {
	ListenAddr   string
	MaxFrameSize int64

	// Registry receives the relay collectors and backs GET /metrics.
	// A private registry is created when nil.
	Registry *prometheus.Registry
}

// Server routes overlay packages between connected peers.
type Server struct {
	cfg      Config
	logger   *logging.ColoredLogger
	metrics  *metrics.RelayMetrics
	registry *prometheus.Registry
	router   chi.Router
	upgrader websocket.Upgrader

	// ctx outlives individual requests; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	peers  map[string]*peer
	server *http.Server
}

// NewServer creates a relay. The logger may be nil.
func NewServer(cfg Config, logger *logging.ColoredLogger) (*Server, error) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.MaxFrameSize <= 0 {
		cfg.MaxFrameSize = DefaultMaxFrameSize
	}
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Options{Colors: true})
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		metrics:  metrics.NewRelayMetrics(metrics.WithRegistry(registry)),
		registry: registry,
		router:   chi.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Clients are not browsers; accept any origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
		peers:  make(map[string]*peer),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StandardFor(logger, logging.ComponentRelay),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ws", s.handleWebSocket)
	s.router.Post("/send", s.handleSend)
	s.router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return s, nil
}

// Handler returns the HTTP handler for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on the configured address and serves until
// Shutdown.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		listener.Close()
		return nil
	}
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.ComponentInfo(logging.ComponentRelay, "Relay listening",
		zap.String("listen_addr", listener.Addr().String()))

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and closes every peer.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	s.mu.Lock()
	srv := s.server
	peers := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		_ = p.conn.Close()
	}

	s.logger.ComponentInfo(logging.ComponentRelay, "Relay shutting down", zap.Int("peers", len(peers)))
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// PeerCount returns the number of connected peers.
func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

func (s *Server) addPeer(p *peer) {
	s.mu.Lock()
	s.peers[p.id] = p
	s.mu.Unlock()
	s.metrics.PeerJoined()
}

func (s *Server) removePeer(p *peer) {
	s.mu.Lock()
	_, ok := s.peers[p.id]
	delete(s.peers, p.id)
	s.mu.Unlock()
	if ok {
		s.metrics.PeerLeft()
	}
}

// route applies a package from one peer (nil for HTTP pushes) and
// forwards it.
func (s *Server) route(from *peer, pkg protocol.Package) {
	s.metrics.FrameRouted(pkg.Kind().String())

	switch p := pkg.(type) {
	case protocol.Subscribe:
		if from != nil {
			from.setSubscribed(p.Topic, p.IsSub)
		}
		s.forward(from, pkg, func(to *peer) bool { return to.router() })
	case protocol.Registration:
		if from != nil {
			from.setRouter(p.IsRouter)
		}
		s.forward(from, pkg, func(to *peer) bool { return to.router() })
	case protocol.Message:
		s.forward(from, pkg, func(to *peer) bool { return to.subscribed(p.Topic) })
	}
}

func (s *Server) forward(from *peer, pkg protocol.Package, want func(*peer) bool) {
	frame, err := protocol.Encode(pkg)
	if err != nil {
		s.logger.ComponentWarn(logging.ComponentRelay, "Dropping unencodable package", zap.Error(err))
		return
	}

	s.mu.RLock()
	targets := make([]*peer, 0, len(s.peers))
	for _, p := range s.peers {
		if p != from && want(p) {
			targets = append(targets, p)
		}
	}
	s.mu.RUnlock()

	delivered := 0
	for _, to := range targets {
		ctx, cancel := context.WithTimeout(s.ctx, deliveryTimeout)
		err := to.write(ctx, frame)
		cancel()
		if err != nil {
			s.logger.ComponentWarn(logging.ComponentRelay, "Delivery failed, closing peer",
				zap.String("peer", to.id),
				zap.Error(err))
			_ = to.conn.Close()
			continue
		}
		delivered++
	}
	s.metrics.Delivered(delivered)

	s.logger.ComponentDebug(logging.ComponentRelay, "Routed package",
		zap.String("kind", pkg.Kind().String()),
		zap.Int("targets", len(targets)),
		zap.Int("delivered", delivered))
}

func newPeerID() string {
	return uuid.NewString()
}
