package salesagg

import (
	"context"
	"iter"
)

// Collect materialises every sale from lines and returns a one-shot
// Analyzer over them. Header, blank-line and malformed-line handling is the
// same as in Run, so Collect and Run see the same records.
//
// The returned Stats only carries line counters; chunk counters stay zero.
// On error the Analyzer is nil and Stats reflects progress up to the failure.
func (p *Pipeline) Collect(ctx context.Context, lines iter.Seq2[string, error]) (*Analyzer, *Stats, error) {
	stats := &Stats{}
	log := p.resolveLogger()

	var sales []Sale
	for sale, err := range p.records(ctx, lines, stats, log) {
		if err != nil {
			log.ErrorContext(ctx, "load failed", "error", err, "stats", stats)
			return nil, stats, err
		}
		sales = append(sales, sale)
	}

	log.InfoContext(ctx, "sales loaded", "stats", stats)
	// sales is owned by this call; skip the copy NewAnalyzer makes.
	return &Analyzer{sales: sales}, stats, nil
}
