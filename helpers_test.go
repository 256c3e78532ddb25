package salesagg_test

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync"

	"github.com/bjaus/salesagg"
)

// =============================================================================
// Test Helpers
// =============================================================================

const header = "id,date,category,product,region,quantity,unitPrice"

// scenario is the reference dataset: 1300.00 total revenue over two months,
// including a zero-priced promotional line.
var scenario = []string{
	"T1,2024-01-05,Electronics,Laptop,North,1,1000",
	"T2,2024-01-12,Electronics,Mouse,South,5,20",
	"T3,2024-02-03,Clothing,T-Shirt,North,2,50",
	"T4,2024-02-17,Clothing,Jeans,West,1,100",
	"T5,2024-01-25,Promo,Sticker,East,10,0",
}

// source yields a header followed by rows.
func source(rows ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !yield(header, nil) {
			return
		}
		for _, r := range rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// failingSource yields a header and rows, then err.
func failingSource(err error, rows ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for line, e := range source(rows...) {
			if !yield(line, e) {
				return
			}
		}
		yield("", err)
	}
}

// generated builds n deterministic rows spread over several categories,
// regions, products and months, with repeated keys and tied values.
func generated(n int) []string {
	categories := []string{"Electronics", "Clothing", "Books"}
	products := []string{"Laptop", "Jacket", "Novel", "Phone", "Shoes"}
	regions := []string{"North", "South", "East", "West"}

	rows := make([]string, 0, n)
	for i := range n {
		rows = append(rows, fmt.Sprintf("G%03d,2023-%02d-%02d,%s,%s,%s,%d,%d.%02d",
			i,
			1+(i*5)%12,
			1+i%28,
			categories[i%len(categories)],
			products[(i*7)%len(products)],
			regions[(i/2)%len(regions)],
			1+i%6,
			(i*37)%200,
			(i*13)%100,
		))
	}
	return rows
}

func collect(rows ...string) *salesagg.Analyzer {
	a, _, err := salesagg.New().Collect(context.Background(), source(rows...))
	if err != nil {
		panic(err)
	}
	return a
}

func mustParse(line string) salesagg.Sale {
	s, err := salesagg.ParseLine(line)
	if err != nil {
		panic(err)
	}
	return s
}

func parseAll(rows ...string) []salesagg.Sale {
	out := make([]salesagg.Sale, 0, len(rows))
	for _, r := range rows {
		out = append(out, mustParse(r))
	}
	return out
}

func join(rows ...string) string {
	return strings.Join(append([]string{header}, rows...), "\n") + "\n"
}

// =============================================================================
// Hook fakes
// =============================================================================

// chunkRecorder records every settled chunk.
type chunkRecorder struct {
	mu      sync.Mutex
	results []salesagg.ChunkResult
}

func (r *chunkRecorder) OnChunk(_ context.Context, res salesagg.ChunkResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *chunkRecorder) sizes() []int {
	out := make([]int, 0, len(r.results))
	for _, res := range r.results {
		out = append(out, res.Size)
	}
	return out
}

type ctxKey struct{}

// fullHooks implements every optional hook interface.
type fullHooks struct {
	batchSize      int
	maxRetries     int
	reportInterval int
	skip           bool

	started   bool
	sawValue  any
	stopped   int
	summary   *salesagg.RunSummary
	stopErr   error
	progress  []int64
	errStages []salesagg.Stage
	chunks    int
}

var (
	_ salesagg.ErrorHandler     = (*fullHooks)(nil)
	_ salesagg.ChunkObserver    = (*fullHooks)(nil)
	_ salesagg.ProgressReporter = (*fullHooks)(nil)
	_ salesagg.Starter          = (*fullHooks)(nil)
	_ salesagg.Stopper          = (*fullHooks)(nil)
	_ salesagg.BatchSize        = (*fullHooks)(nil)
	_ salesagg.MaxRetries       = (*fullHooks)(nil)
)

func (h *fullHooks) OnError(_ context.Context, stage salesagg.Stage, _ error) salesagg.Action {
	h.errStages = append(h.errStages, stage)
	if h.skip {
		return salesagg.ActionSkip
	}
	return salesagg.ActionFail
}

func (h *fullHooks) OnChunk(ctx context.Context, _ salesagg.ChunkResult) {
	h.chunks++
	h.sawValue = ctx.Value(ctxKey{})
}

func (h *fullHooks) ReportInterval() int { return h.reportInterval }

func (h *fullHooks) OnProgress(_ context.Context, stats *salesagg.Stats) {
	h.progress = append(h.progress, stats.Aggregated())
}

func (h *fullHooks) Start(ctx context.Context) context.Context {
	h.started = true
	return context.WithValue(ctx, ctxKey{}, "started")
}

func (h *fullHooks) Stop(_ context.Context, summary *salesagg.RunSummary, err error) {
	h.stopped++
	h.summary = summary
	h.stopErr = err
}

func (h *fullHooks) BatchSize() int  { return h.batchSize }
func (h *fullHooks) MaxRetries() int { return h.maxRetries }
