package salesagg

// State is the running aggregate built by a chunked run.
//
// A run creates one empty State, folds each successfully processed batch
// into it with a single Merge, and hands it back read-only in the
// [RunSummary]. Its size is bounded by the number of distinct categories,
// regions, products, months and years, never by the number of records.
//
// State is not safe for concurrent mutation. Readers may share a State once
// the run that owns it has returned.
type State struct {
	revenue float64
	highest *Sale

	categoryRevenue  *group[string, float64]
	categoryStats    *group[string, Summary]
	categoryPrice    *group[string, Mean]
	categoryProducts *group[string, set]

	regionOrders   *group[string, int64]
	regionRevenue  *group[string, float64]
	regionProducts *group[string, set]

	productQuantity *group[string, int64]
	productRevenue  *group[string, float64]

	monthly *group[string, float64]
	yearly  *group[int, float64]
}

var _ Metrics = (*State)(nil)

// NewState returns an empty State.
func NewState() *State {
	return &State{
		categoryRevenue:  newGroup[string, float64](),
		categoryStats:    newGroup[string, Summary](),
		categoryPrice:    newGroup[string, Mean](),
		categoryProducts: newGroup[string, set](),
		regionOrders:     newGroup[string, int64](),
		regionRevenue:    newGroup[string, float64](),
		regionProducts:   newGroup[string, set](),
		productQuantity:  newGroup[string, int64](),
		productRevenue:   newGroup[string, float64](),
		monthly:          newGroup[string, float64](),
		yearly:           newGroup[int, float64](),
	}
}

// partialState computes a batch's contribution in one traversal: every
// keyed accumulator is updated per record, instead of one pass per metric.
func partialState(batch []Sale) *State {
	p := NewState()
	for _, s := range batch {
		amount := s.TotalAmount()
		qty := int64(s.Quantity)

		p.revenue = addFloat(p.revenue, amount)

		p.categoryRevenue.update(s.Category, func(v float64) float64 { return addFloat(v, amount) })
		p.categoryStats.update(s.Category, func(v Summary) Summary { return v.Add(amount) })
		p.categoryPrice.update(s.Category, func(v Mean) Mean { return v.Add(s.UnitPrice) })
		p.categoryProducts.update(s.Category, addToSet(s.Product))

		p.regionOrders.update(s.Region, func(v int64) int64 { return addInt(v, 1) })
		p.regionRevenue.update(s.Region, func(v float64) float64 { return addFloat(v, amount) })
		p.regionProducts.update(s.Region, addToSet(s.Product))

		p.productQuantity.update(s.Product, func(v int64) int64 { return addInt(v, qty) })
		p.productRevenue.update(s.Product, func(v float64) float64 { return addFloat(v, amount) })

		p.monthly.update(s.MonthKey(), func(v float64) float64 { return addFloat(v, amount) })
		p.yearly.update(s.Year(), func(v float64) float64 { return addFloat(v, amount) })
	}
	if hi, ok := maxBy(batch, Sale.TotalAmount); ok {
		p.highest = &hi
	}
	return p
}

// Merge folds o into s. Merge is associative: sums and counts add, min and
// max take the extreme, mean accumulators add their parts, product sets
// union. The highest-value order is replaced only when o holds a strictly
// greater one, so earlier records win ties. Keys first seen in o are appended
// after those already in s.
//
// o is not modified and shares no mutable data with s afterwards.
func (s *State) Merge(o *State) {
	s.revenue = addFloat(s.revenue, o.revenue)

	s.categoryRevenue.merge(o.categoryRevenue, addFloat)
	s.categoryStats.merge(o.categoryStats, mergeSummary)
	s.categoryPrice.merge(o.categoryPrice, mergeMean)
	s.categoryProducts.merge(o.categoryProducts, unionSet)

	s.regionOrders.merge(o.regionOrders, addInt)
	s.regionRevenue.merge(o.regionRevenue, addFloat)
	s.regionProducts.merge(o.regionProducts, unionSet)

	s.productQuantity.merge(o.productQuantity, addInt)
	s.productRevenue.merge(o.productRevenue, addFloat)

	s.monthly.merge(o.monthly, addFloat)
	s.yearly.merge(o.yearly, addFloat)

	if o.highest != nil && (s.highest == nil || o.highest.TotalAmount() > s.highest.TotalAmount()) {
		hi := *o.highest
		s.highest = &hi
	}
}

// TotalRevenue returns the sum of TotalAmount over all sales.
func (s *State) TotalRevenue() float64 { return s.revenue }

// RevenueByCategory returns summed revenue per category.
func (s *State) RevenueByCategory() map[string]float64 {
	return toMap(s.categoryRevenue, identity[float64])
}

// OrderCountByRegion returns the number of sales per region.
func (s *State) OrderCountByRegion() map[string]int64 {
	return toMap(s.regionOrders, identity[int64])
}

// AverageOrderValueByRegion returns mean TotalAmount per region.
func (s *State) AverageOrderValueByRegion() map[string]float64 {
	out := make(map[string]float64, s.regionOrders.len())
	for region, orders := range s.regionOrders.all() {
		out[region] = Mean{Sum: s.regionRevenue.values[region], Count: orders}.Value()
	}
	return out
}

// RevenueSharePctByRegion returns each region's share of total revenue as a
// percentage. The result is empty when total revenue is zero.
func (s *State) RevenueSharePctByRegion() map[string]float64 {
	return sharePct(s.regionRevenue, s.revenue)
}

// DistinctProductCountByRegion returns the number of distinct products sold
// per region.
func (s *State) DistinctProductCountByRegion() map[string]int {
	return toMap(s.regionProducts, setLen)
}

// AverageUnitPriceByCategory averages UnitPrice, not TotalAmount.
func (s *State) AverageUnitPriceByCategory() map[string]float64 {
	return toMap(s.categoryPrice, Mean.Value)
}

// StatisticsByCategory returns count, sum, min and max of TotalAmount per
// category.
func (s *State) StatisticsByCategory() map[string]Summary {
	return toMap(s.categoryStats, identity[Summary])
}

// UniqueProductsByCategory returns the sorted distinct products per category.
func (s *State) UniqueProductsByCategory() map[string][]string {
	return toMap(s.categoryProducts, setMembers)
}

// TopProductByQuantity returns the product with the greatest summed
// quantity. Ties go to the product seen first.
func (s *State) TopProductByQuantity() (Entry[string, int64], bool) {
	return topEntry(s.productQuantity)
}

// TopProductsByRevenue returns at most n products ordered by revenue
// descending, ties in first-seen order.
func (s *State) TopProductsByRevenue(n int) []Entry[string, float64] {
	return topN(s.productRevenue, n)
}

// HighestValueOrder returns the first sale with the greatest TotalAmount.
func (s *State) HighestValueOrder() (Sale, bool) {
	if s.highest == nil {
		return Sale{}, false
	}
	return *s.highest, true
}

// MonthlyTrend returns revenue per "YYYY-MM" in the order months first
// appear.
func (s *State) MonthlyTrend() []Entry[string, float64] {
	return s.monthly.entries()
}

// YearlyTotals returns summed revenue per calendar year.
func (s *State) YearlyTotals() map[int]float64 {
	return toMap(s.yearly, identity[float64])
}
