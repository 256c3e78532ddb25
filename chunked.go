package salesagg

import (
	"context"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// RunSummary is the result of a chunked run that completed, possibly with
// dropped chunks.
type RunSummary struct {
	RunID  uuid.UUID
	Status Status

	// Chunks is the number of chunks attempted, the trailing partial chunk
	// included.
	Chunks int

	// FailedChunks is the number of chunks dropped after exhausting retries;
	// FailedChunkIDs lists their 1-based sequence numbers in order.
	FailedChunks   int
	FailedChunkIDs []int

	// Records is the number of records merged into State. Records in
	// dropped chunks are excluded.
	Records int64

	Stats   *Stats
	State   *State
	Elapsed time.Duration
}

// LogValue implements slog.LogValuer.
func (s *RunSummary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID.String()),
		slog.String("status", string(s.Status)),
		slog.Int("chunks", s.Chunks),
		slog.Int("failed_chunks", s.FailedChunks),
		slog.Int64("records", s.Records),
		slog.Duration("elapsed", s.Elapsed),
	)
}

// Run aggregates lines in fixed-size chunks with bounded memory.
//
// Records are parsed one at a time into a batch buffer. When the buffer
// reaches the batch size, or the source ends with a non-empty buffer, the
// batch is handed to the BatchProcessor. A failed attempt is retried
// immediately up to MaxRetries attempts in total. A chunk that succeeds is
// merged into the run State in one step; a chunk that keeps failing is
// dropped and counted, and the run moves on. Dropped chunks never fail the
// run: they show up as StatusPartialFailure in the summary.
//
// With no dropped chunks, every Metrics accessor on the returned State
// matches the Analyzer built by Collect over the same lines, whatever the
// batch size.
//
// Run returns an error, and a nil summary, only when the source fails
// (*SourceError), a malformed line is not skipped (*ParseError), or ctx is
// cancelled.
func (p *Pipeline) Run(ctx context.Context, lines iter.Seq2[string, error]) (*RunSummary, error) {
	started := time.Now()
	runID := uuid.New()

	r := &chunkRun{
		p:           p,
		log:         p.resolveLogger().With(slog.String("run_id", runID.String())),
		stats:       &Stats{},
		state:       NewState(),
		processor:   p.resolveProcessor(),
		batchSize:   p.resolveBatchSize(),
		maxRetries:  p.resolveMaxRetries(),
		reportEvery: int64(p.resolveReportInterval()),
	}

	if p.starter != nil {
		ctx = p.starter.Start(ctx)
	}

	ctx, span := p.startRunSpan(ctx, runID, r.batchSize, r.maxRetries)
	r.log.InfoContext(ctx, "chunked run starting",
		"batch_size", r.batchSize,
		"max_retries", r.maxRetries,
	)

	var summary *RunSummary
	err := r.run(ctx, lines)
	if err != nil {
		r.log.ErrorContext(ctx, "chunked run failed", "error", err, "stats", r.stats)
	} else {
		summary = r.summary(runID, time.Since(started))
		r.log.InfoContext(ctx, "chunked run complete", "summary", summary, "stats", r.stats)
	}
	endRunSpan(span, summary, err)

	if p.stopper != nil {
		p.stopper.Stop(ctx, summary, err)
	}
	return summary, err
}

// chunkRun is the mutable state of one Run call. It is owned by a single
// goroutine for its whole life.
type chunkRun struct {
	p           *Pipeline
	log         *slog.Logger
	stats       *Stats
	state       *State
	processor   BatchProcessor
	batchSize   int
	maxRetries  int
	reportEvery int64

	seq    int
	failed []int
}

func (r *chunkRun) run(ctx context.Context, lines iter.Seq2[string, error]) error {
	batch := make([]Sale, 0, r.batchSize)

	for sale, err := range r.p.records(ctx, lines, r.stats, r.log) {
		if err != nil {
			return err
		}
		batch = append(batch, sale)
		if len(batch) == r.batchSize {
			r.settle(ctx, batch)
			batch = batch[:0]
		}
	}

	// Trailing partial chunk.
	if len(batch) > 0 {
		r.settle(ctx, batch)
	}
	return nil
}

// settle attempts one chunk and either merges or drops it.
func (r *chunkRun) settle(ctx context.Context, records []Sale) {
	r.seq++
	started := time.Now()
	ctx, span := r.p.startChunkSpan(ctx, r.seq, len(records))

	var err error
	attempts := 0
	for attempts < r.maxRetries {
		attempts++
		err = r.processor.ProcessBatch(ctx, Batch{Seq: r.seq, Attempt: attempts, Records: records})
		if err == nil {
			break
		}
		recordAttemptFailure(span, attempts, err)
		r.log.WarnContext(ctx, "chunk attempt failed",
			"chunk", r.seq,
			"attempt", attempts,
			"remaining", r.maxRetries-attempts,
			"error", err,
		)
	}

	r.stats.incChunks(1)
	r.stats.incRetries(int64(attempts - 1))

	result := ChunkResult{Seq: r.seq, Size: len(records), Attempts: attempts}
	if err != nil {
		r.stats.incFailedChunks(1)
		r.failed = append(r.failed, r.seq)
		result.Err = err
		r.log.ErrorContext(ctx, "chunk dropped after exhausting retries",
			"chunk", r.seq,
			"records", len(records),
			"error", err,
		)
	} else {
		r.state.Merge(partialState(records))
		result.Merged = true
		n := int64(len(records))
		loaded := r.stats.incAggregated(n)
		r.reportProgress(ctx, loaded-n, loaded)
		r.log.DebugContext(ctx, "chunk merged", "chunk", r.seq, "records", n, "attempts", attempts)
	}
	result.Elapsed = time.Since(started)
	endChunkSpan(span, result)

	for _, o := range r.p.observers {
		o.OnChunk(ctx, result)
	}
}

// reportProgress fires OnProgress when the aggregated count crosses a
// reportEvery boundary.
func (r *chunkRun) reportProgress(ctx context.Context, prev, now int64) {
	if r.p.progress == nil {
		return
	}
	if now/r.reportEvery > prev/r.reportEvery {
		r.p.progress.OnProgress(ctx, r.stats)
	}
}

func (r *chunkRun) summary(runID uuid.UUID, elapsed time.Duration) *RunSummary {
	status := StatusSuccess
	if len(r.failed) > 0 {
		status = StatusPartialFailure
	}
	return &RunSummary{
		RunID:          runID,
		Status:         status,
		Chunks:         r.seq,
		FailedChunks:   len(r.failed),
		FailedChunkIDs: append([]int{}, r.failed...),
		Records:        r.stats.Aggregated(),
		Stats:          r.stats,
		State:          r.state,
		Elapsed:        elapsed,
	}
}
