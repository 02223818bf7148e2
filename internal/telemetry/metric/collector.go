package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/goresp/pkg/bufpool"
)

// BufferPoolCollector exports bufpool statistics at scrape time.
type BufferPoolCollector struct {
	pool *bufpool.Pool

	hits      *prometheus.Desc
	misses    *prometheus.Desc
	returned  *prometheus.Desc
	dropped   *prometheus.Desc
	oversized *prometheus.Desc
	parked    *prometheus.Desc
}

// NewBufferPoolCollector creates a collector for pool.
func NewBufferPoolCollector(pool *bufpool.Pool) *BufferPoolCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "bufpool", name), help, nil, nil)
	}
	return &BufferPoolCollector{
		pool:      pool,
		hits:      desc("hits_total", "Buffers served from a pool slot."),
		misses:    desc("misses_total", "Buffers allocated because every slot was empty."),
		returned:  desc("returned_total", "Buffers parked back into a slot."),
		dropped:   desc("dropped_total", "Returned buffers left to the GC (wrong length or pool full)."),
		oversized: desc("oversized_total", "Requests larger than the pool buffer length."),
		parked:    desc("parked", "Buffers currently parked."),
	}
}

// Describe implements prometheus.Collector.
func (c *BufferPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hits
	ch <- c.misses
	ch <- c.returned
	ch <- c.dropped
	ch <- c.oversized
	ch <- c.parked
}

// Collect implements prometheus.Collector.
func (c *BufferPoolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(s.Hits))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(s.Misses))
	ch <- prometheus.MustNewConstMetric(c.returned, prometheus.CounterValue, float64(s.Returned))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.oversized, prometheus.CounterValue, float64(s.Oversized))
	ch <- prometheus.MustNewConstMetric(c.parked, prometheus.GaugeValue, float64(c.pool.Parked()))
}

// ClientPoolStats is the view of a client pool the collector needs.
type ClientPoolStats interface {
	NumActive() int
	NumIdle() int
}

// ClientPoolCollector exports borrowed and idle client counts.
type ClientPoolCollector struct {
	pool   ClientPoolStats
	active *prometheus.Desc
	idle   *prometheus.Desc
}

// NewClientPoolCollector creates a collector for pool.
func NewClientPoolCollector(pool ClientPoolStats) *ClientPoolCollector {
	return &ClientPoolCollector{
		pool: pool,
		active: prometheus.NewDesc(prometheus.BuildFQName(namespace, "clientpool", "active"),
			"Clients currently borrowed.", nil, nil),
		idle: prometheus.NewDesc(prometheus.BuildFQName(namespace, "clientpool", "idle"),
			"Clients idle in the pool.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *ClientPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.active
	ch <- c.idle
}

// Collect implements prometheus.Collector.
func (c *ClientPoolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.active, prometheus.GaugeValue, float64(c.pool.NumActive()))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(c.pool.NumIdle()))
}
