package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "goresp"

// Command results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultServer   = "server_error"
	ResultConn     = "connection_error"
	ResultProtocol = "protocol_error"
	ResultInvalid  = "invalid"
)

// Registry holds all client metrics.
type Registry struct {
	registry *prometheus.Registry

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ConnectsTotal   *prometheus.CounterVec
	ReconnectsTotal prometheus.Counter
	ConnectionsOpen prometheus.Gauge
	PipelineSize    prometheus.Histogram
	PubSubMessages  *prometheus.CounterVec
	BytesWritten    prometheus.Counter
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands completed, by command name and result.",
		}, []string{"command", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Round-trip time of synchronous commands.",
			Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"command"}),
		ConnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connects_total",
			Help:      "Connection attempts, by result.",
		}, []string{"result"}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Reconnects triggered by a failed idle liveness probe.",
		}),
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_open",
			Help:      "Currently open server connections.",
		}),
		PipelineSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_commands",
			Help:      "Commands replayed per pipeline flush.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		PubSubMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pubsub_events_total",
			Help:      "Pub/sub frames interpreted, by kind.",
		}, []string{"kind"}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Request bytes flushed to servers.",
		}),
	}

	reg.MustRegister(
		r.CommandsTotal,
		r.CommandDuration,
		r.ConnectsTotal,
		r.ReconnectsTotal,
		r.ConnectionsOpen,
		r.PipelineSize,
		r.PubSubMessages,
		r.BytesWritten,
	)
	return r
}

var (
	globalOnce sync.Once
	global     *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		global = NewRegistry()
	})
	return global
}

// Handler returns the /metrics handler of the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler returns an HTTP handler serving this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Register adds an extra collector, such as a pool collector.
func (r *Registry) Register(c prometheus.Collector) error {
	if r == nil {
		return nil
	}
	return r.registry.Register(c)
}

// RecordCommand counts one completed command. Durations <= 0 are not
// observed (pipelined commands have no per-command round trip).
func (r *Registry) RecordCommand(command, result string, seconds float64) {
	if r == nil {
		return
	}
	r.CommandsTotal.WithLabelValues(command, result).Inc()
	if seconds > 0 {
		r.CommandDuration.WithLabelValues(command).Observe(seconds)
	}
}

// RecordConnect counts one connection attempt.
func (r *Registry) RecordConnect(ok bool) {
	if r == nil {
		return
	}
	if ok {
		r.ConnectsTotal.WithLabelValues(ResultOK).Inc()
		r.ConnectionsOpen.Inc()
		return
	}
	r.ConnectsTotal.WithLabelValues("failed").Inc()
}

// RecordDisconnect marks one open connection as closed.
func (r *Registry) RecordDisconnect() {
	if r == nil {
		return
	}
	r.ConnectionsOpen.Dec()
}

// IncReconnect counts one idle-probe reconnect.
func (r *Registry) IncReconnect() {
	if r == nil {
		return
	}
	r.ReconnectsTotal.Inc()
}

// ObservePipeline records the size of one pipeline replay.
func (r *Registry) ObservePipeline(n int) {
	if r == nil {
		return
	}
	r.PipelineSize.Observe(float64(n))
}

// RecordPubSub counts one interpreted pub/sub frame.
func (r *Registry) RecordPubSub(kind string) {
	if r == nil {
		return
	}
	r.PubSubMessages.WithLabelValues(kind).Inc()
}

// AddBytesWritten counts flushed request bytes.
func (r *Registry) AddBytesWritten(n int) {
	if r == nil {
		return
	}
	r.BytesWritten.Add(float64(n))
}
