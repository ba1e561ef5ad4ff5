// Package prom exports termexp metrics to Prometheus.
package prom

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/termexp"
)

// Collector implements termexp.MetricsCollector on Prometheus collectors.
type Collector struct {
	expandTotal    *prometheus.CounterVec
	expandLatency  prometheus.Histogram
	expandTerms    prometheus.Histogram
	rsetSize       prometheus.Histogram
	shardOpenTotal *prometheus.CounterVec
	shardOpenTime  *prometheus.HistogramVec
}

var _ termexp.MetricsCollector = (*Collector)(nil)

// New creates the collectors and registers them with reg. If reg is nil,
// prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		expandTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termexp_expand_total",
				Help: "Total query expansions by status (ok, error).",
			},
			[]string{"status"},
		),
		expandLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termexp_expand_duration_seconds",
				Help:    "Query expansion latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		expandTerms: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termexp_expand_terms",
				Help:    "Number of terms returned per expansion.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
			},
		),
		rsetSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "termexp_rset_size",
				Help:    "Number of relevant documents per expansion.",
				Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 500},
			},
		),
		shardOpenTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termexp_shard_open_total",
				Help: "Total shard opens by shard and status.",
			},
			[]string{"shard", "status"},
		),
		shardOpenTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termexp_shard_open_duration_seconds",
				Help:    "Shard open latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"shard"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.expandTotal, c.expandLatency, c.expandTerms, c.rsetSize,
		c.shardOpenTotal, c.shardOpenTime,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordExpand implements termexp.MetricsCollector.
func (c *Collector) RecordExpand(rsize, terms int, d time.Duration, err error) {
	c.expandTotal.WithLabelValues(status(err)).Inc()
	c.expandLatency.Observe(d.Seconds())
	c.rsetSize.Observe(float64(rsize))
	if err == nil {
		c.expandTerms.Observe(float64(terms))
	}
}

// RecordShardOpen implements termexp.MetricsCollector.
func (c *Collector) RecordShardOpen(index int, d time.Duration, err error) {
	label := strconv.Itoa(index)
	c.shardOpenTotal.WithLabelValues(label, status(err)).Inc()
	c.shardOpenTime.WithLabelValues(label).Observe(d.Seconds())
}

// Handler returns an HTTP handler serving the metrics gathered by g. If g is
// nil, prometheus.DefaultGatherer is used.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
