package salesagg

import (
	"context"
	"time"
)

// ErrorHandler decides what happens to a malformed line. Without an
// ErrorHandler (or a ParsePolicy), the first malformed line aborts the run.
//
// OnError is consulted only for StageParse errors. Source failures are always
// fatal, and batch failures are always retried and then dropped, so neither
// is routed through the handler.
//
// Example:
//
//	func (h *MyHooks) OnError(ctx context.Context, stage salesagg.Stage, err error) salesagg.Action {
//	    var pe *salesagg.ParseError
//	    if errors.As(err, &pe) && errors.Is(pe, salesagg.ErrFieldCount) {
//	        return salesagg.ActionFail
//	    }
//	    slog.WarnContext(ctx, "skipping line", "error", err)
//	    return salesagg.ActionSkip
//	}
//
// Skipped lines are counted in Stats.Skipped.
type ErrorHandler interface {
	// OnError is called for each malformed line.
	// Return ActionSkip to drop the line, ActionFail to stop the run.
	OnError(ctx context.Context, stage Stage, err error) Action
}

// Batch is one chunk of parsed records handed to a BatchProcessor.
type Batch struct {
	// Seq is the 1-based position of the chunk in the run.
	Seq int

	// Attempt is the 1-based attempt number for this chunk.
	Attempt int

	// Records is the chunk content. The slice is reused after the chunk
	// settles; a processor must not retain it.
	Records []Sale
}

// BatchProcessor is the per-chunk processing step that runs before a chunk
// is merged. A returned error is treated as transient: the chunk is attempted
// again immediately, up to MaxRetries attempts in total, after which it is
// dropped and excluded from every aggregate.
//
// The default processor always succeeds. Supplying one is how callers add
// validation or side effects per chunk, and how tests inject faults (see
// FailChunks and FailAttempts).
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, b Batch) error
}

// BatchProcessorFunc adapts a plain function to the [BatchProcessor]
// interface.
type BatchProcessorFunc func(ctx context.Context, b Batch) error

// ProcessBatch calls f(ctx, b).
func (f BatchProcessorFunc) ProcessBatch(ctx context.Context, b Batch) error {
	return f(ctx, b)
}

// ChunkResult describes how a chunk settled.
type ChunkResult struct {
	Seq      int
	Size     int
	Attempts int

	// Merged is true when the chunk was folded into the run state.
	Merged bool

	// Err is the last processing error for a dropped chunk, nil otherwise.
	Err error

	Elapsed time.Duration
}

// ChunkObserver is notified once per chunk, after the chunk was merged or
// dropped. Use it for per-chunk metrics or audit logging.
type ChunkObserver interface {
	OnChunk(ctx context.Context, result ChunkResult)
}

// Starter is called before the first line is read. The returned context is
// used for the rest of the run, which makes Start the place to attach
// request-scoped values or a parent trace span.
type Starter interface {
	Start(ctx context.Context) context.Context
}

// Stopper is called exactly once when Run returns, whether the run
// completed or failed. summary is nil when err is non-nil; a run with
// dropped chunks still completes and has a nil err.
//
// Example:
//
//	func (h *MyHooks) Stop(ctx context.Context, summary *salesagg.RunSummary, err error) {
//	    if err != nil {
//	        slog.ErrorContext(ctx, "run failed", "error", err)
//	        return
//	    }
//	    slog.InfoContext(ctx, "run complete", "status", summary.Status, "stats", summary.Stats)
//	}
type Stopper interface {
	Stop(ctx context.Context, summary *RunSummary, err error)
}
