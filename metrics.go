package termexp

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package prom
// provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordExpand is called after each expansion. rsize is the size of
	// the relevance set, terms the number of terms returned.
	RecordExpand(rsize, terms int, duration time.Duration, err error)

	// RecordShardOpen is called after each shard is opened.
	RecordShardOpen(index int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordExpand(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordShardOpen(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	ExpandCount      atomic.Int64
	ExpandErrors     atomic.Int64
	ExpandTerms      atomic.Int64
	ExpandTotalNanos atomic.Int64
	ShardOpenCount   atomic.Int64
	ShardOpenErrors  atomic.Int64
}

// RecordExpand implements MetricsCollector.
func (b *BasicMetricsCollector) RecordExpand(_, terms int, duration time.Duration, err error) {
	b.ExpandCount.Add(1)
	b.ExpandTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ExpandErrors.Add(1)
		return
	}
	b.ExpandTerms.Add(int64(terms))
}

// RecordShardOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShardOpen(_ int, _ time.Duration, err error) {
	b.ShardOpenCount.Add(1)
	if err != nil {
		b.ShardOpenErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		ExpandCount:     b.ExpandCount.Load(),
		ExpandErrors:    b.ExpandErrors.Load(),
		ExpandTerms:     b.ExpandTerms.Load(),
		ShardOpenCount:  b.ShardOpenCount.Load(),
		ShardOpenErrors: b.ShardOpenErrors.Load(),
	}
	if s.ExpandCount > 0 {
		s.ExpandAvgNanos = b.ExpandTotalNanos.Load() / s.ExpandCount
	}
	return s
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ExpandCount     int64
	ExpandErrors    int64
	ExpandTerms     int64
	ExpandAvgNanos  int64
	ShardOpenCount  int64
	ShardOpenErrors int64
}
