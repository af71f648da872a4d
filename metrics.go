package abruijn

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides one for Prometheus.
type MetricsCollector interface {
	// RecordPass is called after each pass over the reads of a graph build.
	// reads is the number of reads seen, err is nil if successful.
	RecordPass(pass string, reads int, duration time.Duration, err error)

	// RecordStage is called after each stage of an index build.
	RecordStage(stage string, duration time.Duration, err error)

	// RecordCondense is called after condensation with the number of merges.
	RecordCondense(merges int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPass(string, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordStage(string, time.Duration, error)     {}
func (NoopMetricsCollector) RecordCondense(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	PassCount       atomic.Int64
	PassErrors      atomic.Int64
	PassReads       atomic.Int64
	PassTotalNanos  atomic.Int64
	StageCount      atomic.Int64
	StageErrors     atomic.Int64
	StageTotalNanos atomic.Int64
	CondenseCount   atomic.Int64
	CondenseMerges  atomic.Int64
	CondenseErrors  atomic.Int64
}

// RecordPass implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPass(_ string, reads int, duration time.Duration, err error) {
	b.PassCount.Add(1)
	b.PassReads.Add(int64(reads))
	b.PassTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PassErrors.Add(1)
	}
}

// RecordStage implements MetricsCollector.
func (b *BasicMetricsCollector) RecordStage(_ string, duration time.Duration, err error) {
	b.StageCount.Add(1)
	b.StageTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.StageErrors.Add(1)
	}
}

// RecordCondense implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCondense(merges int, _ time.Duration, err error) {
	b.CondenseCount.Add(1)
	b.CondenseMerges.Add(int64(merges))
	if err != nil {
		b.CondenseErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		PassCount:      b.PassCount.Load(),
		PassErrors:     b.PassErrors.Load(),
		PassReads:      b.PassReads.Load(),
		PassAvgNanos:   avg(b.PassTotalNanos.Load(), b.PassCount.Load()),
		StageCount:     b.StageCount.Load(),
		StageErrors:    b.StageErrors.Load(),
		StageAvgNanos:  avg(b.StageTotalNanos.Load(), b.StageCount.Load()),
		CondenseCount:  b.CondenseCount.Load(),
		CondenseMerges: b.CondenseMerges.Load(),
		CondenseErrors: b.CondenseErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	PassCount      int64
	PassErrors     int64
	PassReads      int64
	PassAvgNanos   int64
	StageCount     int64
	StageErrors    int64
	StageAvgNanos  int64
	CondenseCount  int64
	CondenseMerges int64
	CondenseErrors int64
}
