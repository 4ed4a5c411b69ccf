package metrics

import "github.com/prometheus/client_golang/prometheus"

// Drop reasons for FrameDropped.
const (
	ReasonDecode   = "decode"
	ReasonFiltered = "filtered"
)

// ClientMetrics tracks one client's connection and traffic.
type ClientMetrics struct {
	framesSent      *prometheus.CounterVec
	framesReceived  *prometheus.CounterVec
	framesDropped   *prometheus.CounterVec
	connectAttempts prometheus.Counter
	connects        prometheus.Counter
	rollbacks       *prometheus.CounterVec
	connected       prometheus.Gauge
}

// NewClientMetrics creates and registers client collectors.
func NewClientMetrics(opts ...Option) *ClientMetrics {
	cfg := buildConfig(opts)
	const subsystem = "client"

	return &ClientMetrics{
		framesSent: register(cfg.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "frames_sent_total",
			Help:        "Frames written to the connection, by package kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"})),
		framesReceived: register(cfg.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "frames_received_total",
			Help:        "Frames decoded from the connection, by package kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"})),
		framesDropped: register(cfg.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "frames_dropped_total",
			Help:        "Inbound frames discarded, by reason.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"reason"})),
		connectAttempts: register(cfg.Registry, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "connect_attempts_total",
			Help:        "Connection attempts including resync.",
			ConstLabels: cfg.ConstLabels,
		})),
		connects: register(cfg.Registry, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "connects_total",
			Help:        "Connections that completed resync.",
			ConstLabels: cfg.ConstLabels,
		})),
		rollbacks: register(cfg.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "session_rollbacks_total",
			Help:        "Session mutations reverted after a failed send, by operation.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"op"})),
		connected: register(cfg.Registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "connected",
			Help:        "1 while a resynced connection is held.",
			ConstLabels: cfg.ConstLabels,
		})),
	}
}

func (m *ClientMetrics) FrameSent(kind string) {
	if m == nil {
		return
	}
	m.framesSent.WithLabelValues(kind).Inc()
}

func (m *ClientMetrics) FrameReceived(kind string) {
	if m == nil {
		return
	}
	m.framesReceived.WithLabelValues(kind).Inc()
}

func (m *ClientMetrics) FrameDropped(reason string) {
	if m == nil {
		return
	}
	m.framesDropped.WithLabelValues(reason).Inc()
}

func (m *ClientMetrics) ConnectAttempt() {
	if m == nil {
		return
	}
	m.connectAttempts.Inc()
}

// Connected records a completed resync (true) or a dropped channel (false).
func (m *ClientMetrics) Connected(up bool) {
	if m == nil {
		return
	}
	if up {
		m.connects.Inc()
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}

func (m *ClientMetrics) Rollback(op string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(op).Inc()
}
