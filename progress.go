package salesagg

import "context"

// ReportInterval controls how often progress is reported, measured in
// records aggregated. It can be implemented independently of
// ProgressReporter when the interval should come from the hook struct.
//
// The value can be overridden at runtime via WithReportInterval, which takes
// precedence over this interface. If neither is set, DefaultReportInterval
// (10,000 records) is used.
type ReportInterval interface {
	// ReportInterval returns how often to call OnProgress (in records aggregated).
	ReportInterval() int
}

// ProgressReporter receives periodic progress updates during a chunked run.
//
// OnProgress is called after a merge whenever the cumulative aggregated
// count crosses a ReportInterval boundary. Because records are merged a
// whole chunk at a time, a chunk larger than the interval triggers at most
// one report.
//
// Example:
//
//	func (h *MyHooks) ReportInterval() int { return 50000 }
//
//	func (h *MyHooks) OnProgress(ctx context.Context, stats *salesagg.Stats) {
//	    slog.InfoContext(ctx, "progress",
//	        "chunks", stats.Chunks(),
//	        "aggregated", stats.Aggregated(),
//	        "failed_chunks", stats.FailedChunks(),
//	    )
//	}
type ProgressReporter interface {
	ReportInterval

	// OnProgress is called periodically during execution.
	OnProgress(ctx context.Context, stats *Stats)
}
