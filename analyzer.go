package salesagg

import "slices"

// Analyzer answers analytics queries over a fully materialised set of sales.
//
// Each method is an independent pass over the captured records with no
// caching and no side effects, so calling the same method twice returns the
// same result. Analyzer is safe for concurrent use.
type Analyzer struct {
	sales []Sale
}

var _ Metrics = (*Analyzer)(nil)

// NewAnalyzer captures a private copy of sales. Later changes to the caller's
// slice are not visible to the Analyzer.
func NewAnalyzer(sales []Sale) *Analyzer {
	return &Analyzer{sales: slices.Clone(sales)}
}

// Len returns the number of captured sales.
func (a *Analyzer) Len() int { return len(a.sales) }

// Sales returns a copy of the captured sales in source order.
func (a *Analyzer) Sales() []Sale { return slices.Clone(a.sales) }

// TotalRevenue returns the sum of TotalAmount over all sales.
func (a *Analyzer) TotalRevenue() float64 {
	total := 0.0
	for _, s := range a.sales {
		total = addFloat(total, s.TotalAmount())
	}
	return total
}

// RevenueByCategory returns summed revenue per category.
func (a *Analyzer) RevenueByCategory() map[string]float64 {
	return toMap(sumBy(a.sales, saleCategory, Sale.TotalAmount), identity[float64])
}

// OrderCountByRegion returns the number of sales per region.
func (a *Analyzer) OrderCountByRegion() map[string]int64 {
	return toMap(countBy(a.sales, saleRegion, one), identity[int64])
}

// AverageOrderValueByRegion returns mean TotalAmount per region.
func (a *Analyzer) AverageOrderValueByRegion() map[string]float64 {
	return toMap(meanBy(a.sales, saleRegion, Sale.TotalAmount), Mean.Value)
}

// RevenueSharePctByRegion returns each region's share of total revenue as a
// percentage. The result is empty when total revenue is zero.
func (a *Analyzer) RevenueSharePctByRegion() map[string]float64 {
	return sharePct(sumBy(a.sales, saleRegion, Sale.TotalAmount), a.TotalRevenue())
}

// DistinctProductCountByRegion returns the number of distinct products sold
// per region.
func (a *Analyzer) DistinctProductCountByRegion() map[string]int {
	return toMap(distinctBy(a.sales, saleRegion, saleProduct), setLen)
}

// AverageUnitPriceByCategory averages UnitPrice, not TotalAmount.
func (a *Analyzer) AverageUnitPriceByCategory() map[string]float64 {
	return toMap(meanBy(a.sales, saleCategory, saleUnitPrice), Mean.Value)
}

// StatisticsByCategory returns count, sum, min and max of TotalAmount per
// category.
func (a *Analyzer) StatisticsByCategory() map[string]Summary {
	return toMap(summarizeBy(a.sales, saleCategory, Sale.TotalAmount), identity[Summary])
}

// UniqueProductsByCategory returns the sorted distinct products per category.
func (a *Analyzer) UniqueProductsByCategory() map[string][]string {
	return toMap(distinctBy(a.sales, saleCategory, saleProduct), setMembers)
}

// TopProductByQuantity returns the product with the greatest summed
// quantity. Ties go to the product seen first.
func (a *Analyzer) TopProductByQuantity() (Entry[string, int64], bool) {
	return topEntry(countBy(a.sales, saleProduct, saleQuantity))
}

// TopProductsByRevenue returns at most n products ordered by revenue
// descending, ties in first-seen order.
func (a *Analyzer) TopProductsByRevenue(n int) []Entry[string, float64] {
	return topN(sumBy(a.sales, saleProduct, Sale.TotalAmount), n)
}

// HighestValueOrder returns the first sale with the greatest TotalAmount.
func (a *Analyzer) HighestValueOrder() (Sale, bool) {
	return maxBy(a.sales, Sale.TotalAmount)
}

// MonthlyTrend returns revenue per "YYYY-MM" in the order months first
// appear in the source.
func (a *Analyzer) MonthlyTrend() []Entry[string, float64] {
	return sumBy(a.sales, Sale.MonthKey, Sale.TotalAmount).entries()
}

// YearlyTotals returns summed revenue per calendar year.
func (a *Analyzer) YearlyTotals() map[int]float64 {
	return toMap(sumBy(a.sales, Sale.Year, Sale.TotalAmount), identity[float64])
}

// PartitionByValue splits sales into those with TotalAmount >= threshold and
// the rest. Every sale lands in exactly one side; both sides keep source
// order and are non-nil.
func (a *Analyzer) PartitionByValue(threshold float64) (high, low []Sale) {
	return partition(a.sales, func(s Sale) bool { return s.TotalAmount() >= threshold })
}

// Key and value projections shared with State.

func saleCategory(s Sale) string   { return s.Category }
func saleRegion(s Sale) string     { return s.Region }
func saleProduct(s Sale) string    { return s.Product }
func saleUnitPrice(s Sale) float64 { return s.UnitPrice }
func saleQuantity(s Sale) int64    { return int64(s.Quantity) }
func one(Sale) int64               { return 1 }
func setLen(s set) int             { return len(s) }
