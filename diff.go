package salesagg

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
)

// DiffTopN is how deep Diff compares TopProductsByRevenue.
const DiffTopN = 10

// Difference is one mismatch found by Diff.
type Difference struct {
	Metric string
	Key    string
	Want   string
	Got    string
}

// String formats the difference as "Metric[Key]: want W, got G".
func (d Difference) String() string {
	if d.Key == "" {
		return fmt.Sprintf("%s: want %s, got %s", d.Metric, d.Want, d.Got)
	}
	return fmt.Sprintf("%s[%s]: want %s, got %s", d.Metric, d.Key, d.Want, d.Got)
}

// Diff compares every Metrics accessor of want and got and returns one
// Difference per mismatch, in a stable order. Floating-point values match
// when they are within tol of each other; counts and keys must match
// exactly. A nil result means the two are equivalent.
//
// Top-N entries are compared by position on their values. A position whose
// keys differ but whose values are within tol is accepted, since equal
// revenues may be ordered differently after rounding.
func Diff(want, got Metrics, tol float64) []Difference {
	d := &differ{tol: tol}

	d.float("TotalRevenue", "", want.TotalRevenue(), got.TotalRevenue())
	diffMap(d, "RevenueByCategory", want.RevenueByCategory(), got.RevenueByCategory(), d.float)
	diffMap(d, "OrderCountByRegion", want.OrderCountByRegion(), got.OrderCountByRegion(), exact[int64](d))
	diffMap(d, "AverageOrderValueByRegion", want.AverageOrderValueByRegion(), got.AverageOrderValueByRegion(), d.float)
	diffMap(d, "RevenueSharePctByRegion", want.RevenueSharePctByRegion(), got.RevenueSharePctByRegion(), d.float)
	diffMap(d, "DistinctProductCountByRegion", want.DistinctProductCountByRegion(), got.DistinctProductCountByRegion(), exact[int](d))
	diffMap(d, "AverageUnitPriceByCategory", want.AverageUnitPriceByCategory(), got.AverageUnitPriceByCategory(), d.float)
	diffMap(d, "StatisticsByCategory", want.StatisticsByCategory(), got.StatisticsByCategory(), d.summary)
	diffMap(d, "UniqueProductsByCategory", want.UniqueProductsByCategory(), got.UniqueProductsByCategory(), d.members)

	wq, wok := want.TopProductByQuantity()
	gq, gok := got.TopProductByQuantity()
	switch {
	case wok != gok:
		d.add("TopProductByQuantity", "", presence(wok), presence(gok))
	case wok && (wq.Key != gq.Key || wq.Value != gq.Value):
		d.add("TopProductByQuantity", "", fmt.Sprintf("%s=%d", wq.Key, wq.Value), fmt.Sprintf("%s=%d", gq.Key, gq.Value))
	}

	d.topN(want.TopProductsByRevenue(DiffTopN), got.TopProductsByRevenue(DiffTopN))

	wh, wok := want.HighestValueOrder()
	gh, gok := got.HighestValueOrder()
	switch {
	case wok != gok:
		d.add("HighestValueOrder", "", presence(wok), presence(gok))
	case wok && (wh.ID != gh.ID || !d.close(wh.TotalAmount(), gh.TotalAmount())):
		d.add("HighestValueOrder", "", orderString(wh), orderString(gh))
	}

	d.monthly(want.MonthlyTrend(), got.MonthlyTrend())
	diffMap(d, "YearlyTotals", want.YearlyTotals(), got.YearlyTotals(), d.float)

	return d.out
}

type differ struct {
	tol float64
	out []Difference
}

func (d *differ) add(metric, key, want, got string) {
	d.out = append(d.out, Difference{Metric: metric, Key: key, Want: want, Got: got})
}

func (d *differ) close(a, b float64) bool {
	return math.Abs(a-b) <= d.tol
}

func (d *differ) float(metric, key string, want, got float64) {
	if !d.close(want, got) {
		d.add(metric, key, formatFloat(want), formatFloat(got))
	}
}

func exact[V comparable](d *differ) func(metric, key string, want, got V) {
	return func(metric, key string, want, got V) {
		if want != got {
			d.add(metric, key, fmt.Sprint(want), fmt.Sprint(got))
		}
	}
}

func (d *differ) summary(metric, key string, want, got Summary) {
	if want.Count != got.Count ||
		!d.close(want.Sum, got.Sum) ||
		!d.close(want.Min, got.Min) ||
		!d.close(want.Max, got.Max) {
		d.add(metric, key, summaryString(want), summaryString(got))
	}
}

func (d *differ) members(metric, key string, want, got []string) {
	if !slices.Equal(want, got) {
		d.add(metric, key, fmt.Sprint(want), fmt.Sprint(got))
	}
}

func (d *differ) topN(want, got []Entry[string, float64]) {
	for i := range max(len(want), len(got)) {
		key := strconv.Itoa(i + 1)
		switch {
		case i >= len(got):
			d.add("TopProductsByRevenue", key, entryString(want[i]), "absent")
		case i >= len(want):
			d.add("TopProductsByRevenue", key, "absent", entryString(got[i]))
		case !d.close(want[i].Value, got[i].Value):
			d.add("TopProductsByRevenue", key, entryString(want[i]), entryString(got[i]))
		}
	}
}

func (d *differ) monthly(want, got []Entry[string, float64]) {
	wm := make(map[string]float64, len(want))
	for _, e := range want {
		wm[e.Key] = e.Value
	}
	gm := make(map[string]float64, len(got))
	for _, e := range got {
		gm[e.Key] = e.Value
	}
	diffMap(d, "MonthlyTrend", wm, gm, d.float)
}

// diffMap compares two keyed results in sorted key order. Keys present on
// only one side are reported as absent on the other.
func diffMap[K cmp.Ordered, V any](d *differ, metric string, want, got map[K]V, eq func(metric, key string, want, got V)) {
	keys := slices.Sorted(maps.Keys(want))
	for k := range got {
		if _, ok := want[k]; !ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		key := fmt.Sprint(k)
		w, wok := want[k]
		g, gok := got[k]
		switch {
		case !gok:
			d.add(metric, key, fmt.Sprint(w), "absent")
		case !wok:
			d.add(metric, key, "absent", fmt.Sprint(g))
		default:
			eq(metric, key, w, g)
		}
	}
}

func presence(ok bool) string {
	if ok {
		return "present"
	}
	return "absent"
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func entryString(e Entry[string, float64]) string {
	return e.Key + "=" + formatFloat(e.Value)
}

func orderString(s Sale) string {
	return s.ID + "=" + formatFloat(s.TotalAmount())
}

func summaryString(s Summary) string {
	return fmt.Sprintf("{count=%d sum=%s min=%s max=%s}",
		s.Count, formatFloat(s.Sum), formatFloat(s.Min), formatFloat(s.Max))
}
