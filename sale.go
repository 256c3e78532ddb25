package salesagg

import (
	"fmt"

	"cloud.google.com/go/civil"
)

// Sale is one parsed transaction line. It is a value type; copies are
// independent and nothing in this package mutates a Sale after parsing.
//
// The total amount is derived on demand from Quantity and UnitPrice rather than
// stored, so it can never drift out of sync with its inputs.
type Sale struct {
	ID        string
	Date      civil.Date
	Category  string
	Product   string
	Region    string
	Quantity  int
	UnitPrice float64
}

// TotalAmount returns Quantity × UnitPrice.
func (s Sale) TotalAmount() float64 {
	return float64(s.Quantity) * s.UnitPrice
}

// Year returns the calendar year of the sale date.
func (s Sale) Year() int {
	return s.Date.Year
}

// MonthKey returns the sale month as a zero-padded "YYYY-MM" key.
func (s Sale) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", s.Date.Year, int(s.Date.Month))
}
