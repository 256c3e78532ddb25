// Package salesagg computes sales analytics over a delimited transaction log.
//
// Input is a header line followed by one transaction per line:
//
//	id,date,category,product,region,quantity,unitPrice
//	T001,2024-01-15,Electronics,Laptop,North,2,999.99
//
// Two execution paths produce the same numbers. The one-shot path loads every
// sale into an [Analyzer] and answers each query with its own pass. The
// chunked path folds fixed-size batches into a bounded [State] and tolerates
// batches that fail processing. Both implement [Metrics], and [Diff] compares
// any two implementations.
//
// # Quick Start
//
// One-shot:
//
//	f, _ := os.Open("sales.csv")
//	defer f.Close()
//
//	a, stats, err := salesagg.New().Collect(ctx, salesagg.ReadLines(f))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(a.TotalRevenue(), stats.Parsed())
//
// Chunked:
//
//	summary, err := salesagg.New().
//	    WithBatchSize(5000).
//	    WithMaxRetries(3).
//	    Run(ctx, salesagg.ReadLines(f))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(summary.Status, summary.State.TotalRevenue())
//
// Sales can also be handed to [NewAnalyzer] directly.
//
// # Line Sources
//
// The pipeline consumes an iter.Seq2[string, error] of raw lines and never
// opens files itself. [ReadLines] adapts any io.Reader. The first line is the
// header and is discarded, blank lines are ignored, and every other line goes
// through the [Parser] ([ParseLine] by default). An error yielded by the
// source ends the run with a [*SourceError].
//
// # Malformed Lines
//
// By default the first malformed line aborts Collect or Run with a
// [*ParseError] that carries the line number, the offending field and one of
// the Err* sentinels:
//
//	var pe *salesagg.ParseError
//	if errors.As(err, &pe) && errors.Is(err, salesagg.ErrInvalidDate) {
//	    log.Printf("bad date on line %d: %q", pe.Line, pe.Raw)
//	}
//
// [SkipInvalid] drops malformed lines and counts them in [Stats.Skipped]
// instead. For finer control implement [ErrorHandler]:
//
//	func (h *MyHooks) OnError(ctx context.Context, stage salesagg.Stage, err error) salesagg.Action {
//	    if errors.Is(err, salesagg.ErrFieldCount) {
//	        return salesagg.ActionFail
//	    }
//	    return salesagg.ActionSkip
//	}
//
//	salesagg.New().WithHooks(&MyHooks{})
//
// # Chunks, Retries and Partial Failure
//
// Run buffers parsed sales until the batch size is reached, then hands the
// batch to the [BatchProcessor]. Success merges the batch into the run State
// in one step. An error is retried immediately, with no backoff, until
// MaxRetries attempts have been made; after that the batch is dropped, its
// records are excluded from every aggregate, and the run continues. The final
// short batch is processed the same way.
//
// A run with dropped chunks still returns a nil error. Its [RunSummary]
// reports [StatusPartialFailure] and lists the dropped chunk sequence numbers:
//
//	summary, _ := salesagg.New().
//	    WithBatchSize(100).
//	    WithBatchProcessor(salesagg.FailChunks(2)).
//	    Run(ctx, lines)
//	// summary.Status == salesagg.StatusPartialFailure
//	// summary.FailedChunkIDs == []int{2}
//
// With no dropped chunks the State matches the one-shot Analyzer for every
// batch size, within floating-point rounding.
//
// # Hooks
//
// Optional behaviour is detected from the value passed to [Pipeline.WithHooks].
// Implement only what you need:
//
//   - [ErrorHandler]: malformed line policy
//   - [BatchProcessor]: per-chunk processing step
//   - [ChunkObserver]: notified after every chunk settles
//   - [ProgressReporter]: periodic progress by records aggregated
//   - [Starter], [Stopper]: run lifecycle
//   - [BatchSize], [MaxRetries], [ReportInterval]: configuration
//
// Builder methods take priority over hook interfaces, which take priority over
// the defaults.
//
// # Observability
//
// [Pipeline.WithLogger] enables structured logging; without it nothing is
// logged. [Stats] and [RunSummary] implement slog.LogValuer. Run also emits an
// OpenTelemetry span per run and per chunk, using the global tracer provider
// unless [Pipeline.WithTracerProvider] supplies one.
//
// # Thread Safety
//
// A Pipeline may be reused for several runs, but a single Run is sequential
// and its State must not be read until Run returns. Analyzer is immutable and
// safe for concurrent use. Stats counters are atomic and may be read from
// hooks on other goroutines.
package salesagg
