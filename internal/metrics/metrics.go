// Package metrics exports chunked-run counters to Prometheus.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/salesagg"
)

const namespace = "salesagg"

// Chunk outcomes used as the "outcome" label.
const (
	OutcomeMerged  = "merged"
	OutcomeDropped = "dropped"
)

// StatusFailed labels runs that ended with an error.
const StatusFailed = "FAILED"

// Collector records chunk and run outcomes. Register it with a pipeline via
// WithHooks; it implements salesagg.ChunkObserver and salesagg.Stopper.
type Collector struct {
	chunks        *prometheus.CounterVec
	attempts      prometheus.Counter
	retries       prometheus.Counter
	records       prometheus.Counter
	chunkDuration prometheus.Histogram
	runs          *prometheus.CounterVec
	skipped       prometheus.Counter
}

var (
	_ salesagg.ChunkObserver = (*Collector)(nil)
	_ salesagg.Stopper       = (*Collector)(nil)
)

// NewCollector creates the collectors and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		chunks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Chunks settled, by outcome.",
		}, []string{"outcome"}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_attempts_total",
			Help:      "Batch processing attempts, first tries included.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_retries_total",
			Help:      "Batch processing attempts after the first.",
		}),
		records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_aggregated_total",
			Help:      "Records merged into the running aggregate.",
		}),
		chunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_duration_seconds",
			Help:      "Time to settle a chunk, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Chunked runs, by final status.",
		}, []string{"status"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_skipped_total",
			Help:      "Malformed lines dropped by the parse policy.",
		}),
	}

	for _, col := range []prometheus.Collector{
		c.chunks, c.attempts, c.retries, c.records, c.chunkDuration, c.runs, c.skipped,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnChunk implements salesagg.ChunkObserver.
func (c *Collector) OnChunk(_ context.Context, r salesagg.ChunkResult) {
	c.attempts.Add(float64(r.Attempts))
	if r.Attempts > 1 {
		c.retries.Add(float64(r.Attempts - 1))
	}
	c.chunkDuration.Observe(r.Elapsed.Seconds())

	if r.Merged {
		c.chunks.WithLabelValues(OutcomeMerged).Inc()
		c.records.Add(float64(r.Size))
		return
	}
	c.chunks.WithLabelValues(OutcomeDropped).Inc()
}

// Stop implements salesagg.Stopper.
func (c *Collector) Stop(_ context.Context, summary *salesagg.RunSummary, err error) {
	if err != nil || summary == nil {
		c.runs.WithLabelValues(StatusFailed).Inc()
		return
	}
	c.runs.WithLabelValues(string(summary.Status)).Inc()
	if summary.Stats != nil {
		c.skipped.Add(float64(summary.Stats.Skipped()))
	}
}
