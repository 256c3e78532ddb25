package salesagg

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Pipeline turns a lazy line source into analytics, either one-shot via
// Collect or chunked via Run. A Pipeline holds configuration only; each Run
// or Collect call owns its own state, so one Pipeline may be reused.
//
// Configure with method chaining:
//
//	summary, err := salesagg.New().
//	    WithBatchSize(5000).
//	    WithMaxRetries(3).
//	    WithParsePolicy(salesagg.SkipInvalid).
//	    WithLogger(logger).
//	    Run(ctx, salesagg.ReadLines(f))
type Pipeline struct {
	// Configuration overrides (nil means use interface value or default)
	batchSize      *int
	maxRetries     *int
	reportInterval *int

	parser         Parser
	errHandler     ErrorHandler
	processor      BatchProcessor
	logger         *slog.Logger
	tracerProvider trace.TracerProvider

	// Optional capabilities (detected from hooks)
	errHandlerIface     ErrorHandler
	processorIface      BatchProcessor
	observers           []ChunkObserver
	progress            ProgressReporter
	starter             Starter
	stopper             Stopper
	batchSizeIface      BatchSize
	maxRetriesIface     MaxRetries
	reportIntervalIface ReportInterval
}

// New creates a Pipeline with default configuration: ParseLine, fail-fast
// parse policy, DefaultBatchSize, DefaultMaxRetries and an always-succeeding
// batch processor.
func New() *Pipeline {
	return &Pipeline{}
}

// WithHooks registers a value implementing any of the optional hook
// interfaces: ErrorHandler, BatchProcessor, ChunkObserver, ProgressReporter,
// ReportInterval, Starter, Stopper, BatchSize, MaxRetries. Interfaces the
// value does not implement are left untouched, so several hook values can be
// registered. ChunkObservers accumulate; the others are replaced.
func (p *Pipeline) WithHooks(hooks any) *Pipeline {
	if h, ok := hooks.(ErrorHandler); ok {
		p.errHandlerIface = h
	}
	if b, ok := hooks.(BatchProcessor); ok {
		p.processorIface = b
	}
	if o, ok := hooks.(ChunkObserver); ok {
		p.observers = append(p.observers, o)
	}
	if r, ok := hooks.(ProgressReporter); ok {
		p.progress = r
	}
	if r, ok := hooks.(ReportInterval); ok {
		p.reportIntervalIface = r
	}
	if s, ok := hooks.(Starter); ok {
		p.starter = s
	}
	if s, ok := hooks.(Stopper); ok {
		p.stopper = s
	}
	if s, ok := hooks.(BatchSize); ok {
		p.batchSizeIface = s
	}
	if r, ok := hooks.(MaxRetries); ok {
		p.maxRetriesIface = r
	}
	return p
}

// WithBatchSize overrides the number of records per chunk.
// Priority: this method > BatchSize interface > DefaultBatchSize.
// Values less than 1 are ignored.
func (p *Pipeline) WithBatchSize(n int) *Pipeline {
	if n >= 1 {
		p.batchSize = &n
	}
	return p
}

// WithMaxRetries overrides the total number of attempts per chunk.
// Priority: this method > MaxRetries interface > DefaultMaxRetries.
// Values less than 1 are ignored.
func (p *Pipeline) WithMaxRetries(n int) *Pipeline {
	if n >= 1 {
		p.maxRetries = &n
	}
	return p
}

// WithReportInterval overrides how often to report progress (in records).
// Priority: this method > ReportInterval interface > DefaultReportInterval.
// Values less than 1 are ignored.
func (p *Pipeline) WithReportInterval(n int) *Pipeline {
	if n >= 1 {
		p.reportInterval = &n
	}
	return p
}

// WithParser replaces ParseLine. A nil parser is ignored.
func (p *Pipeline) WithParser(parse Parser) *Pipeline {
	if parse != nil {
		p.parser = parse
	}
	return p
}

// WithErrorHandler sets the malformed-line handler, taking priority over an
// ErrorHandler registered through WithHooks.
func (p *Pipeline) WithErrorHandler(h ErrorHandler) *Pipeline {
	if h != nil {
		p.errHandler = h
	}
	return p
}

// WithParsePolicy is shorthand for WithErrorHandler(policy).
func (p *Pipeline) WithParsePolicy(policy ParsePolicy) *Pipeline {
	return p.WithErrorHandler(policy)
}

// WithBatchProcessor sets the per-chunk processing step, taking priority over
// a BatchProcessor registered through WithHooks.
func (p *Pipeline) WithBatchProcessor(b BatchProcessor) *Pipeline {
	if b != nil {
		p.processor = b
	}
	return p
}

// WithObserver adds a ChunkObserver.
func (p *Pipeline) WithObserver(o ChunkObserver) *Pipeline {
	if o != nil {
		p.observers = append(p.observers, o)
	}
	return p
}

// WithLogger sets the structured logger. Without one, nothing is logged.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	p.logger = l
	return p
}

// WithTracerProvider sets the OpenTelemetry tracer provider used for run and
// chunk spans. Without one, the global provider is used.
func (p *Pipeline) WithTracerProvider(tp trace.TracerProvider) *Pipeline {
	p.tracerProvider = tp
	return p
}

func (p *Pipeline) resolveLogger() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// resolveProcessor returns the effective batch processor.
// Priority: WithBatchProcessor > BatchProcessor interface > always succeed.
func (p *Pipeline) resolveProcessor() BatchProcessor {
	if p.processor != nil {
		return p.processor
	}
	if p.processorIface != nil {
		return p.processorIface
	}
	return BatchProcessorFunc(func(context.Context, Batch) error { return nil })
}
