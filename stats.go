package salesagg

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// Stats holds run counters. Counters are atomic so hooks and other
// goroutines may read them while a run is in progress.
type Stats struct {
	lines        atomic.Int64
	parsed       atomic.Int64
	skipped      atomic.Int64
	chunks       atomic.Int64
	failedChunks atomic.Int64
	aggregated   atomic.Int64
	retries      atomic.Int64
}

// Lines returns the number of lines read from the source, header and blank
// lines included.
func (s *Stats) Lines() int64 { return s.lines.Load() }

// Parsed returns the number of lines successfully parsed into sales.
func (s *Stats) Parsed() int64 { return s.parsed.Load() }

// Skipped returns the number of malformed lines dropped by the parse policy.
func (s *Stats) Skipped() int64 { return s.skipped.Load() }

// Chunks returns the number of chunks attempted.
func (s *Stats) Chunks() int64 { return s.chunks.Load() }

// FailedChunks returns the number of chunks dropped after exhausting retries.
func (s *Stats) FailedChunks() int64 { return s.failedChunks.Load() }

// Aggregated returns the number of records merged into the run state.
// Records in dropped chunks are not counted.
func (s *Stats) Aggregated() int64 { return s.aggregated.Load() }

// Retries returns the number of repeated chunk attempts.
func (s *Stats) Retries() int64 { return s.retries.Load() }

// LogValue implements slog.LogValuer for structured logging.
func (s *Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("lines", s.Lines()),
		slog.Int64("parsed", s.Parsed()),
		slog.Int64("skipped", s.Skipped()),
		slog.Int64("chunks", s.Chunks()),
		slog.Int64("failed_chunks", s.FailedChunks()),
		slog.Int64("aggregated", s.Aggregated()),
		slog.Int64("retries", s.Retries()),
	)
}

// statsJSON is the JSON representation of Stats.
type statsJSON struct {
	Lines        int64 `json:"lines"`
	Parsed       int64 `json:"parsed"`
	Skipped      int64 `json:"skipped"`
	Chunks       int64 `json:"chunks"`
	FailedChunks int64 `json:"failed_chunks"`
	Aggregated   int64 `json:"aggregated"`
	Retries      int64 `json:"retries"`
}

// MarshalJSON implements json.Marshaler.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsJSON{
		Lines:        s.Lines(),
		Parsed:       s.Parsed(),
		Skipped:      s.Skipped(),
		Chunks:       s.Chunks(),
		FailedChunks: s.FailedChunks(),
		Aggregated:   s.Aggregated(),
		Retries:      s.Retries(),
	})
}

// Internal increment methods. They return the new value, which the progress
// check uses to detect interval crossings.
func (s *Stats) incLines(n int64) int64        { return s.lines.Add(n) }
func (s *Stats) incParsed(n int64) int64       { return s.parsed.Add(n) }
func (s *Stats) incSkipped(n int64) int64      { return s.skipped.Add(n) }
func (s *Stats) incChunks(n int64) int64       { return s.chunks.Add(n) }
func (s *Stats) incFailedChunks(n int64) int64 { return s.failedChunks.Add(n) }
func (s *Stats) incAggregated(n int64) int64   { return s.aggregated.Add(n) }
func (s *Stats) incRetries(n int64) int64      { return s.retries.Add(n) }
