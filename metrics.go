package salesagg

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Metrics is the read-only analytics surface shared by the one-shot
// [Analyzer] and the chunked [State]. Both implementations build their
// answers from the same reducers in this file, so their outputs are directly
// comparable (see [Diff]).
type Metrics interface {
	// TotalRevenue returns the sum of TotalAmount over all sales.
	TotalRevenue() float64

	// RevenueByCategory returns summed revenue per category.
	RevenueByCategory() map[string]float64

	// OrderCountByRegion returns the number of sales per region.
	OrderCountByRegion() map[string]int64

	// AverageOrderValueByRegion returns mean TotalAmount per region.
	AverageOrderValueByRegion() map[string]float64

	// RevenueSharePctByRegion returns each region's percentage of total
	// revenue, empty when the total is zero.
	RevenueSharePctByRegion() map[string]float64

	// DistinctProductCountByRegion returns distinct products sold per region.
	DistinctProductCountByRegion() map[string]int

	// AverageUnitPriceByCategory returns mean UnitPrice per category.
	AverageUnitPriceByCategory() map[string]float64

	// StatisticsByCategory summarizes TotalAmount per category.
	StatisticsByCategory() map[string]Summary

	// UniqueProductsByCategory returns sorted distinct products per category.
	UniqueProductsByCategory() map[string][]string

	// TopProductByQuantity returns the product with the greatest summed
	// quantity, ties to the first seen. It reports false when there are no sales.
	TopProductByQuantity() (Entry[string, int64], bool)

	// TopProductsByRevenue returns at most n products by revenue descending.
	TopProductsByRevenue(n int) []Entry[string, float64]

	// HighestValueOrder returns the first sale with the greatest TotalAmount.
	HighestValueOrder() (Sale, bool)

	// MonthlyTrend returns revenue per "YYYY-MM" in first-seen month order.
	MonthlyTrend() []Entry[string, float64]

	// YearlyTotals returns summed revenue per calendar year.
	YearlyTotals() map[int]float64
}

// Entry is a key with its aggregated value.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// Summary is a single-pass count/sum/min/max accumulator. The zero value is
// an empty summary ready for use.
type Summary struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
}

// Add incorporates one observation.
func (s Summary) Add(v float64) Summary {
	if s.Count == 0 {
		return Summary{Count: 1, Sum: v, Min: v, Max: v}
	}
	s.Count++
	s.Sum += v
	s.Min = min(s.Min, v)
	s.Max = max(s.Max, v)
	return s
}

// Merge combines two summaries. It is associative and commutative, and an
// empty summary is its identity.
func (s Summary) Merge(o Summary) Summary {
	switch {
	case o.Count == 0:
		return s
	case s.Count == 0:
		return o
	}
	return Summary{
		Count: s.Count + o.Count,
		Sum:   s.Sum + o.Sum,
		Min:   min(s.Min, o.Min),
		Max:   max(s.Max, o.Max),
	}
}

// Average returns Sum/Count, or 0 for an empty summary.
func (s Summary) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// Mean accumulates a running sum and count. Averages are merged by adding
// the parts, never by averaging partial averages.
type Mean struct {
	Sum   float64
	Count int64
}

// Add incorporates one observation.
func (m Mean) Add(v float64) Mean {
	return Mean{Sum: m.Sum + v, Count: m.Count + 1}
}

// Merge combines two accumulators.
func (m Mean) Merge(o Mean) Mean {
	return Mean{Sum: m.Sum + o.Sum, Count: m.Count + o.Count}
}

// Value returns the mean, or 0 when nothing was added.
func (m Mean) Value() float64 {
	if m.Count == 0 {
		return 0
	}
	return m.Sum / float64(m.Count)
}

// set is a string set used for distinct-product tracking.
type set map[string]struct{}

// =============================================================================
// Ordered groups
// =============================================================================

// group is a map that remembers the order in which keys were first seen.
// First-seen order is what breaks ties in topEntry and topN, and what keeps
// the monthly trend in source order.
type group[K comparable, V any] struct {
	order  []K
	values map[K]V
}

func newGroup[K comparable, V any]() *group[K, V] {
	return &group[K, V]{values: make(map[K]V)}
}

// update applies fn to the current value for k (the zero value if absent).
func (g *group[K, V]) update(k K, fn func(V) V) {
	v, ok := g.values[k]
	if !ok {
		g.order = append(g.order, k)
	}
	g.values[k] = fn(v)
}

// merge folds src into g with combine. Keys new to g are appended in src's
// order, so merging partials in source order preserves global first-seen
// order.
func (g *group[K, V]) merge(src *group[K, V], combine func(a, b V) V) {
	for _, k := range src.order {
		g.update(k, func(v V) V { return combine(v, src.values[k]) })
	}
}

func (g *group[K, V]) len() int { return len(g.order) }

func (g *group[K, V]) all() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range g.order {
			if !yield(k, g.values[k]) {
				return
			}
		}
	}
}

func (g *group[K, V]) entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, len(g.order))
	for k, v := range g.all() {
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

// toMap copies the group into a plain map, projecting each value through fn.
func toMap[K comparable, V, R any](g *group[K, V], fn func(V) R) map[K]R {
	out := make(map[K]R, g.len())
	for k, v := range g.all() {
		out[k] = fn(v)
	}
	return out
}

func identity[V any](v V) V { return v }

// =============================================================================
// Incorporation functions
// =============================================================================
//
// These are the only ways values enter a group. The one-shot reducers below
// and the chunked State both go through them.

func addFloat(a, b float64) float64 { return a + b }
func addInt(a, b int64) int64       { return a + b }

func mergeSummary(a, b Summary) Summary { return a.Merge(b) }
func mergeMean(a, b Mean) Mean          { return a.Merge(b) }

func unionSet(a, b set) set {
	if a == nil {
		a = make(set, len(b))
	}
	for k := range b {
		a[k] = struct{}{}
	}
	return a
}

func addToSet(v string) func(set) set {
	return func(s set) set {
		if s == nil {
			s = make(set)
		}
		s[v] = struct{}{}
		return s
	}
}

// =============================================================================
// Reducers
// =============================================================================

func sumBy[T any, K comparable](items []T, key func(T) K, val func(T) float64) *group[K, float64] {
	g := newGroup[K, float64]()
	for _, it := range items {
		v := val(it)
		g.update(key(it), func(acc float64) float64 { return addFloat(acc, v) })
	}
	return g
}

func countBy[T any, K comparable](items []T, key func(T) K, val func(T) int64) *group[K, int64] {
	g := newGroup[K, int64]()
	for _, it := range items {
		v := val(it)
		g.update(key(it), func(acc int64) int64 { return addInt(acc, v) })
	}
	return g
}

func meanBy[T any, K comparable](items []T, key func(T) K, val func(T) float64) *group[K, Mean] {
	g := newGroup[K, Mean]()
	for _, it := range items {
		v := val(it)
		g.update(key(it), func(m Mean) Mean { return m.Add(v) })
	}
	return g
}

func summarizeBy[T any, K comparable](items []T, key func(T) K, val func(T) float64) *group[K, Summary] {
	g := newGroup[K, Summary]()
	for _, it := range items {
		v := val(it)
		g.update(key(it), func(s Summary) Summary { return s.Add(v) })
	}
	return g
}

func distinctBy[T any, K comparable](items []T, key func(T) K, val func(T) string) *group[K, set] {
	g := newGroup[K, set]()
	for _, it := range items {
		g.update(key(it), addToSet(val(it)))
	}
	return g
}

// maxBy returns the first item with the greatest val. Later items replace
// the current best only when strictly greater.
func maxBy[T any](items []T, val func(T) float64) (T, bool) {
	var best T
	if len(items) == 0 {
		return best, false
	}
	best = items[0]
	bestVal := val(best)
	for _, it := range items[1:] {
		if v := val(it); v > bestVal {
			best, bestVal = it, v
		}
	}
	return best, true
}

// topEntry returns the entry with the greatest value, ties going to the key
// seen first.
func topEntry[K comparable, V cmp.Ordered](g *group[K, V]) (Entry[K, V], bool) {
	var best Entry[K, V]
	found := false
	for k, v := range g.all() {
		if !found || v > best.Value {
			best = Entry[K, V]{Key: k, Value: v}
			found = true
		}
	}
	return best, found
}

// topN returns up to n entries sorted by value descending. The sort is
// stable over first-seen order, so equal values keep source order.
func topN[K comparable, V cmp.Ordered](g *group[K, V], n int) []Entry[K, V] {
	if n <= 0 {
		return []Entry[K, V]{}
	}
	entries := g.entries()
	slices.SortStableFunc(entries, func(a, b Entry[K, V]) int {
		return cmp.Compare(b.Value, a.Value)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// partition splits items by pred, preserving order within each side.
func partition[T any](items []T, pred func(T) bool) (in, out []T) {
	in, out = []T{}, []T{}
	for _, it := range items {
		if pred(it) {
			in = append(in, it)
		} else {
			out = append(out, it)
		}
	}
	return in, out
}

// sharePct converts per-key amounts into percentages of total. An empty map
// is returned when total is zero.
func sharePct[K comparable](g *group[K, float64], total float64) map[K]float64 {
	if total == 0 {
		return map[K]float64{}
	}
	return toMap(g, func(v float64) float64 { return v / total * 100 })
}

// setMembers lists a set in sorted order.
func setMembers(s set) []string {
	return slices.Sorted(maps.Keys(s))
}
