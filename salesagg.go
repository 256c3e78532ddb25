package salesagg

import (
	"context"
	"errors"
	"fmt"
)

// Stage identifies where in a run an event occurred.
type Stage string

const (
	StageRead    Stage = "read"    // pulling lines from the source
	StageParse   Stage = "parse"   // converting a line into a Sale
	StageProcess Stage = "process" // processing and merging a batch
)

// Action tells the pipeline what to do after a recoverable error.
type Action string

const (
	ActionFail Action = "fail" // Stop the run and return the error
	ActionSkip Action = "skip" // Drop the offending line and continue
)

// ParsePolicy is a ready-made [ErrorHandler] for malformed lines.
//
//	p := salesagg.New().WithParsePolicy(salesagg.SkipInvalid)
type ParsePolicy string

const (
	// FailFast aborts the load on the first malformed line. This is the
	// default when no policy or handler is configured.
	FailFast ParsePolicy = "fail"

	// SkipInvalid drops malformed lines and counts them in Stats.Skipped.
	SkipInvalid ParsePolicy = "skip"
)

var _ ErrorHandler = FailFast

// OnError implements ErrorHandler.
func (p ParsePolicy) OnError(_ context.Context, stage Stage, _ error) Action {
	if stage == StageParse && p == SkipInvalid {
		return ActionSkip
	}
	return ActionFail
}

// ParseParsePolicy converts a configuration string into a ParsePolicy.
func ParseParsePolicy(s string) (ParsePolicy, error) {
	switch p := ParsePolicy(s); p {
	case FailFast, SkipInvalid:
		return p, nil
	}
	return "", fmt.Errorf("unknown parse policy %q", s)
}

// SourceError reports that the underlying line source failed. It is always
// fatal to the run and is distinct from parse and batch failures.
type SourceError struct {
	// Line is the number of lines successfully read before the failure.
	Line int
	Err  error
}

// Error implements error.
func (e *SourceError) Error() string {
	return fmt.Sprintf("source failed after line %d: %v", e.Line, e.Err)
}

// Unwrap returns the reader error.
func (e *SourceError) Unwrap() error { return e.Err }

// IsSourceError reports whether err is or wraps a *SourceError.
func IsSourceError(err error) bool {
	var se *SourceError
	return errors.As(err, &se)
}

// Status is the overall outcome of a chunked run that completed.
type Status string

const (
	StatusSuccess        Status = "SUCCESS"
	StatusPartialFailure Status = "PARTIAL_FAILURE"
)
