package salesagg

// Default configuration values.
const (
	DefaultBatchSize      = 1000
	DefaultMaxRetries     = 3
	DefaultReportInterval = 10000
)

// BatchSize controls how many parsed records make up one chunk. Implement it
// on the value passed to WithHooks to set the size from the hook struct
// rather than the pipeline builder.
//
// The value can be overridden at runtime via WithBatchSize, which takes
// precedence. If neither is set, DefaultBatchSize (1000) is used.
//
// Memory held by a chunked run is the batch buffer plus one entry per
// distinct category, region, product and month, so the batch size is the
// knob that trades memory for fewer merge steps.
type BatchSize interface {
	// BatchSize returns the number of records per chunk.
	BatchSize() int
}

// MaxRetries controls how many times a chunk is attempted before it is
// dropped. The count includes the first attempt, so 3 means one try and two
// retries.
//
// The value can be overridden at runtime via WithMaxRetries, which takes
// precedence. If neither is set, DefaultMaxRetries (3) is used.
type MaxRetries interface {
	// MaxRetries returns the total number of attempts per chunk.
	MaxRetries() int
}

// resolveBatchSize returns the effective batch size.
// Priority: WithBatchSize > BatchSize interface > DefaultBatchSize.
func (p *Pipeline) resolveBatchSize() int {
	if p.batchSize != nil {
		return *p.batchSize
	}
	if p.batchSizeIface != nil {
		if n := p.batchSizeIface.BatchSize(); n >= 1 {
			return n
		}
	}
	return DefaultBatchSize
}

// resolveMaxRetries returns the effective attempt count.
// Priority: WithMaxRetries > MaxRetries interface > DefaultMaxRetries.
func (p *Pipeline) resolveMaxRetries() int {
	if p.maxRetries != nil {
		return *p.maxRetries
	}
	if p.maxRetriesIface != nil {
		if n := p.maxRetriesIface.MaxRetries(); n >= 1 {
			return n
		}
	}
	return DefaultMaxRetries
}

// resolveReportInterval returns the effective report interval.
// Priority: WithReportInterval > ReportInterval interface > DefaultReportInterval.
func (p *Pipeline) resolveReportInterval() int {
	if p.reportInterval != nil {
		return *p.reportInterval
	}
	if p.reportIntervalIface != nil {
		if n := p.reportIntervalIface.ReportInterval(); n >= 1 {
			return n
		}
	}
	return DefaultReportInterval
}

// resolveErrorHandler returns the effective parse error handler.
// Priority: WithErrorHandler/WithParsePolicy > ErrorHandler interface > FailFast.
func (p *Pipeline) resolveErrorHandler() ErrorHandler {
	if p.errHandler != nil {
		return p.errHandler
	}
	if p.errHandlerIface != nil {
		return p.errHandlerIface
	}
	return FailFast
}

// resolveParser returns the configured parser or ParseLine.
func (p *Pipeline) resolveParser() Parser {
	if p.parser != nil {
		return p.parser
	}
	return ParseLine
}
