package metrics

import "github.com/prometheus/client_golang/prometheus"

// RelayMetrics tracks a relay node.
type RelayMetrics struct {
	peers        prometheus.Gauge
	framesRouted *prometheus.CounterVec
	deliveries   prometheus.Counter
}

// NewRelayMetrics creates and registers relay collectors.
func NewRelayMetrics(opts ...Option) *RelayMetrics {
	cfg := buildConfig(opts)
	const subsystem = "relay"

	return &RelayMetrics{
		peers: register(cfg.Registry, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "peers",
			Help:        "Connected peers.",
			ConstLabels: cfg.ConstLabels,
		})),
		framesRouted: register(cfg.Registry, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "frames_routed_total",
			Help:        "Inbound frames handled, by package kind.",
			ConstLabels: cfg.ConstLabels,
		}, []string{"kind"})),
		deliveries: register(cfg.Registry, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   subsystem,
			Name:        "deliveries_total",
			Help:        "Frames written to peers.",
			ConstLabels: cfg.ConstLabels,
		})),
	}
}

func (m *RelayMetrics) PeerJoined() {
	if m == nil {
		return
	}
	m.peers.Inc()
}

func (m *RelayMetrics) PeerLeft() {
	if m == nil {
		return
	}
	m.peers.Dec()
}

func (m *RelayMetrics) FrameRouted(kind string) {
	if m == nil {
		return
	}
	m.framesRouted.WithLabelValues(kind).Inc()
}

func (m *RelayMetrics) Delivered(n int) {
	if m == nil {
		return
	}
	m.deliveries.Add(float64(n))
}
