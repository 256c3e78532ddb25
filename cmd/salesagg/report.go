package main

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/bjaus/salesagg"
)

// report writes plain-text sections. The first write error is kept and all
// later writes become no-ops.
type report struct {
	w   io.Writer
	err error
}

func newReport(w io.Writer) *report {
	return &report{w: w}
}

func (r *report) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *report) heading(title string) {
	r.printf("\n%s\n%s\n", title, strings.Repeat("=", len(title)))
}

func (r *report) section(title string) {
	r.printf("\n%s\n", title)
}

// table writes aligned rows through a tabwriter.
func (r *report) table(rows [][]string) {
	if r.err != nil {
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, "  "+strings.Join(row, "\t")); err != nil {
			r.err = err
			return
		}
	}
	r.err = tw.Flush()
}

func (r *report) metrics(title string, m salesagg.Metrics, top int) {
	r.heading(title)
	r.printf("Total revenue: %s\n", money(m.TotalRevenue()))

	r.section("Revenue by category")
	r.table(floatRows(m.RevenueByCategory(), money))

	r.section("Orders by region")
	orders := m.OrderCountByRegion()
	aov := m.AverageOrderValueByRegion()
	share := m.RevenueSharePctByRegion()
	distinct := m.DistinctProductCountByRegion()
	rows := [][]string{{"region", "orders", "avg order", "share", "products"}}
	for _, region := range sortedKeys(orders) {
		rows = append(rows, []string{
			region,
			fmt.Sprint(orders[region]),
			money(aov[region]),
			fmt.Sprintf("%.1f%%", share[region]),
			fmt.Sprint(distinct[region]),
		})
	}
	r.table(rows)

	r.section("Category statistics")
	stats := m.StatisticsByCategory()
	price := m.AverageUnitPriceByCategory()
	products := m.UniqueProductsByCategory()
	rows = [][]string{{"category", "count", "sum", "avg", "min", "max", "avg unit price", "products"}}
	for _, cat := range sortedKeys(stats) {
		s := stats[cat]
		rows = append(rows, []string{
			cat,
			fmt.Sprint(s.Count),
			money(s.Sum),
			money(s.Average()),
			money(s.Min),
			money(s.Max),
			money(price[cat]),
			strings.Join(products[cat], ", "),
		})
	}
	r.table(rows)

	r.section("Products")
	if e, ok := m.TopProductByQuantity(); ok {
		r.printf("  Top by quantity: %s (%d units)\n", e.Key, e.Value)
	}
	for i, e := range m.TopProductsByRevenue(top) {
		r.printf("  #%d by revenue: %s (%s)\n", i+1, e.Key, money(e.Value))
	}
	if s, ok := m.HighestValueOrder(); ok {
		r.printf("  Highest value order: %s %s %s (%s)\n", s.ID, s.Date, s.Product, money(s.TotalAmount()))
	}

	r.section("Monthly trend")
	rows = rows[:0]
	for _, e := range m.MonthlyTrend() {
		rows = append(rows, []string{e.Key, money(e.Value)})
	}
	r.table(rows)

	r.section("Yearly totals")
	years := m.YearlyTotals()
	rows = rows[:0]
	for _, y := range sortedKeys(years) {
		rows = append(rows, []string{fmt.Sprint(y), money(years[y])})
	}
	r.table(rows)
}

func (r *report) partition(a *salesagg.Analyzer, threshold float64) {
	high, low := a.PartitionByValue(threshold)
	r.section(fmt.Sprintf("Orders split at %s", money(threshold)))
	r.printf("  High value: %d\n  Low value:  %d\n", len(high), len(low))
}

func (r *report) summary(s *salesagg.RunSummary) {
	r.heading("Run summary")
	r.table([][]string{
		{"run id", s.RunID.String()},
		{"status", string(s.Status)},
		{"chunks", fmt.Sprint(s.Chunks)},
		{"failed chunks", fmt.Sprintf("%d %v", s.FailedChunks, s.FailedChunkIDs)},
		{"records", fmt.Sprint(s.Records)},
		{"lines", fmt.Sprint(s.Stats.Lines())},
		{"skipped", fmt.Sprint(s.Stats.Skipped())},
		{"retries", fmt.Sprint(s.Stats.Retries())},
		{"elapsed", s.Elapsed.String()},
	})
}

func (r *report) differences(diffs []salesagg.Difference) {
	r.heading("Comparison")
	if len(diffs) == 0 {
		r.printf("  One-shot and chunked results match.\n")
		return
	}
	r.printf("  %d difference(s):\n", len(diffs))
	for _, d := range diffs {
		r.printf("  - %s\n", d)
	}
}

func floatRows(m map[string]float64, format func(float64) string) [][]string {
	rows := make([][]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		rows = append(rows, []string{k, format(m[k])})
	}
	return rows
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	return slices.Sorted(maps.Keys(m))
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
