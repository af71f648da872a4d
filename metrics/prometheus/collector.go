// Package prometheus exports build metrics to Prometheus.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "abruijn"

// Collector implements abruijn.MetricsCollector.
type Collector struct {
	passLatency    *prometheus.HistogramVec
	passReads      *prometheus.CounterVec
	stageLatency   *prometheus.HistogramVec
	stageFailures  *prometheus.CounterVec
	condenseMerges prometheus.Counter
	condenseRuns   *prometheus.CounterVec
}

// New creates a Collector and registers it with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		passLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of graph build passes over the reads",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"pass", "status"}),
		passReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pass_reads_total",
			Help:      "Reads consumed by graph build passes",
		}, []string{"pass"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "index_stage_duration_seconds",
			Help:      "Duration of extension index build stages",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"stage", "status"}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_stage_failures_total",
			Help:      "Failed extension index build stages",
		}, []string{"stage"}),
		condenseMerges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "condense_merges_total",
			Help:      "Vertex chains merged by condensation",
		}),
		condenseRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "condense_runs_total",
			Help:      "Condensation runs",
		}, []string{"status"}),
	}
	reg.MustRegister(
		c.passLatency,
		c.passReads,
		c.stageLatency,
		c.stageFailures,
		c.condenseMerges,
		c.condenseRuns,
	)
	return c
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordPass implements abruijn.MetricsCollector.
func (c *Collector) RecordPass(pass string, reads int, d time.Duration, err error) {
	c.passLatency.WithLabelValues(pass, status(err)).Observe(d.Seconds())
	c.passReads.WithLabelValues(pass).Add(float64(reads))
}

// RecordStage implements abruijn.MetricsCollector.
func (c *Collector) RecordStage(stage string, d time.Duration, err error) {
	c.stageLatency.WithLabelValues(stage, status(err)).Observe(d.Seconds())
	if err != nil {
		c.stageFailures.WithLabelValues(stage).Inc()
	}
}

// RecordCondense implements abruijn.MetricsCollector.
func (c *Collector) RecordCondense(merges int, _ time.Duration, err error) {
	c.condenseRuns.WithLabelValues(status(err)).Inc()
	c.condenseMerges.Add(float64(merges))
}
