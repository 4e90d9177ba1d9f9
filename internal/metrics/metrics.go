// Package metrics declares the Prometheus instrumentation for the
// streaming core, in the style of the teacher's jpeg/pool.go and
// cmd/driver/main.go metric blocks.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every collector the hub and HTTP handlers touch,
// registered against a private registry so that constructing more than
// one Metrics (as tests do) never panics on duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	RefreshTicks     prometheus.Counter
	RefreshOnline    prometheus.Gauge
	FanoutFrames     *prometheus.CounterVec
	FanoutDrops      prometheus.Counter
	ClientsConnected prometheus.Gauge
	SnapshotRequests prometheus.Counter
	PingRequests     prometheus.Counter
}

// New builds and registers the metric set.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RefreshTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ustreamer_refresh_ticks_total",
			Help: "Number of refresh scheduler ticks processed.",
		}),
		RefreshOnline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ustreamer_refresh_online",
			Help: "1 if the exposed frame currently reflects a live producer, 0 if blank.",
		}),
		FanoutFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ustreamer_fanout_frames_total",
			Help: "Number of parts handed to a client's write channel, by route.",
		}, []string{"route"}),
		FanoutDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ustreamer_fanout_drops_total",
			Help: "Number of parts dropped because a client's outbound buffer was full.",
		}),
		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ustreamer_clients_connected",
			Help: "Current number of registered streaming clients.",
		}),
		SnapshotRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ustreamer_snapshot_requests_total",
			Help: "Number of /snapshot requests served.",
		}),
		PingRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ustreamer_ping_requests_total",
			Help: "Number of /ping requests served.",
		}),
	}
	reg.MustRegister(
		m.RefreshTicks, m.RefreshOnline, m.FanoutFrames, m.FanoutDrops,
		m.ClientsConnected, m.SnapshotRequests, m.PingRequests,
	)
	return m
}

// Handler serves this instance's registry in the Prometheus exposition
// format, for mounting on /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
