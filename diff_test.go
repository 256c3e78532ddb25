package salesagg_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/salesagg"
)

func TestDiff_Equal(t *testing.T) {
	a := salesagg.NewAnalyzer(parseAll(scenario...))
	b := salesagg.NewAnalyzer(parseAll(scenario...))
	require.Nil(t, salesagg.Diff(a, b, delta))
}

func TestDiff_Empty(t *testing.T) {
	require.Nil(t, salesagg.Diff(salesagg.NewAnalyzer(nil), salesagg.NewState(), delta))
}

func TestDiff_ChangedValue(t *testing.T) {
	want := salesagg.NewAnalyzer(parseAll(scenario...))

	changed := parseAll(scenario...)
	changed[1].UnitPrice = 21 // Mouse: 100 -> 105
	got := salesagg.NewAnalyzer(changed)

	diffs := salesagg.Diff(want, got, delta)
	require.Contains(t, diffs, salesagg.Difference{Metric: "TotalRevenue", Want: "1300.00", Got: "1305.00"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "RevenueByCategory", Key: "Electronics", Want: "1100.00", Got: "1105.00"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "AverageUnitPriceByCategory", Key: "Electronics", Want: "510.00", Got: "510.50"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "YearlyTotals", Key: "2024", Want: "1300.00", Got: "1305.00"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "MonthlyTrend", Key: "2024-01", Want: "1100.00", Got: "1105.00"})

	for _, d := range diffs {
		require.NotEqual(t, "OrderCountByRegion", d.Metric)
		require.NotEqual(t, "TopProductByQuantity", d.Metric)
	}
}

func TestDiff_WithinTolerance(t *testing.T) {
	want := salesagg.NewAnalyzer(parseAll(scenario...))

	changed := parseAll(scenario...)
	changed[0].UnitPrice = 1000.004
	got := salesagg.NewAnalyzer(changed)

	require.Nil(t, salesagg.Diff(want, got, delta))
	require.NotNil(t, salesagg.Diff(want, got, 0))
}

func TestDiff_MissingKeys(t *testing.T) {
	want := salesagg.NewAnalyzer(parseAll(scenario...))
	got := salesagg.NewAnalyzer(parseAll(scenario[:4]...))

	diffs := salesagg.Diff(want, got, delta)
	require.Contains(t, diffs, salesagg.Difference{Metric: "OrderCountByRegion", Key: "East", Want: "1", Got: "absent"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "TopProductByQuantity", Want: "Sticker=10", Got: "Mouse=5"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "UniqueProductsByCategory", Key: "Promo", Want: "[Sticker]", Got: "absent"})

	diffs = salesagg.Diff(got, want, delta)
	require.Contains(t, diffs, salesagg.Difference{Metric: "OrderCountByRegion", Key: "East", Want: "absent", Got: "1"})
}

func TestDiff_Presence(t *testing.T) {
	diffs := salesagg.Diff(salesagg.NewAnalyzer(parseAll(scenario...)), salesagg.NewAnalyzer(nil), delta)
	require.Contains(t, diffs, salesagg.Difference{Metric: "HighestValueOrder", Want: "present", Got: "absent"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "TopProductByQuantity", Want: "present", Got: "absent"})
	require.Contains(t, diffs, salesagg.Difference{Metric: "TopProductsByRevenue", Key: "1", Want: "Laptop=1000.00", Got: "absent"})
}

func TestDifference_String(t *testing.T) {
	d := salesagg.Difference{Metric: "TotalRevenue", Want: "1.00", Got: "2.00"}
	require.Equal(t, "TotalRevenue: want 1.00, got 2.00", d.String())

	d = salesagg.Difference{Metric: "RevenueByCategory", Key: "Books", Want: "1.00", Got: "absent"}
	require.Equal(t, "RevenueByCategory[Books]: want 1.00, got absent", d.String())
}
