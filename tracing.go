package salesagg

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope for spans emitted by Run.
const TracerName = "github.com/bjaus/salesagg"

func (p *Pipeline) tracer() trace.Tracer {
	tp := p.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(TracerName)
}

func (p *Pipeline) startRunSpan(ctx context.Context, runID uuid.UUID, batchSize, maxRetries int) (context.Context, trace.Span) {
	return p.tracer().Start(ctx, "salesagg.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("salesagg.run_id", runID.String()),
			attribute.Int("salesagg.batch_size", batchSize),
			attribute.Int("salesagg.max_retries", maxRetries),
		),
	)
}

func endRunSpan(span trace.Span, summary *RunSummary, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.String("salesagg.status", string(summary.Status)),
		attribute.Int("salesagg.chunks", summary.Chunks),
		attribute.Int("salesagg.failed_chunks", summary.FailedChunks),
		attribute.Int64("salesagg.records", summary.Records),
	)
	span.SetStatus(codes.Ok, "")
}

func (p *Pipeline) startChunkSpan(ctx context.Context, seq, size int) (context.Context, trace.Span) {
	return p.tracer().Start(ctx, "salesagg.chunk",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("salesagg.chunk.seq", seq),
			attribute.Int("salesagg.chunk.size", size),
		),
	)
}

func recordAttemptFailure(span trace.Span, attempt int, err error) {
	span.AddEvent("attempt failed", trace.WithAttributes(
		attribute.Int("salesagg.chunk.attempt", attempt),
		attribute.String("error", err.Error()),
	))
}

func endChunkSpan(span trace.Span, result ChunkResult) {
	defer span.End()
	span.SetAttributes(
		attribute.Int("salesagg.chunk.attempts", result.Attempts),
		attribute.Bool("salesagg.chunk.merged", result.Merged),
	)
	if result.Err != nil {
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, "chunk dropped")
	}
}
