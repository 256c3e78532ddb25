package salesagg

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
)

// FieldCount is the number of comma-separated fields in a transaction line:
// id, date, category, product, region, quantity, unit price.
const FieldCount = 7

// Sentinel causes wrapped by ParseError. Match with errors.Is.
var (
	ErrFieldCount    = errors.New("wrong number of fields")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidNumber = errors.New("invalid number")
	ErrNegativeValue = errors.New("negative value")
)

// Parser converts one raw line into a Sale. ParseLine is the default.
type Parser func(line string) (Sale, error)

// ParseError describes a line that could not be converted into a Sale.
type ParseError struct {
	// Line is the 1-based line number in the source, header included.
	// Zero when the error came from a direct ParseLine call.
	Line int

	// Field names the offending column, empty for field-count errors.
	Field string

	// Raw is the unmodified input line.
	Raw string

	// Err is one of the Err* sentinels, possibly wrapping a strconv or
	// time parse error.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	fmt.Fprint(&b, e.Err)
	return b.String()
}

// Unwrap returns the sentinel cause.
func (e *ParseError) Unwrap() error { return e.Err }

// ParseLine parses "id,date,category,product,region,quantity,unitPrice".
// Fields are trimmed of surrounding whitespace. Quoted fields and embedded
// delimiters are not supported.
func ParseLine(line string) (Sale, error) {
	parts := strings.Split(line, ",")
	if len(parts) != FieldCount {
		return Sale{}, &ParseError{
			Raw: line,
			Err: fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(parts), FieldCount),
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	date, err := civil.ParseDate(parts[1])
	if err != nil {
		return Sale{}, &ParseError{Field: "date", Raw: line, Err: fmt.Errorf("%w: %w", ErrInvalidDate, err)}
	}

	qty, err := strconv.Atoi(parts[5])
	if err != nil {
		return Sale{}, &ParseError{Field: "quantity", Raw: line, Err: fmt.Errorf("%w: %w", ErrInvalidNumber, err)}
	}
	if qty < 0 {
		return Sale{}, &ParseError{Field: "quantity", Raw: line, Err: fmt.Errorf("%w: %d", ErrNegativeValue, qty)}
	}

	price, err := strconv.ParseFloat(parts[6], 64)
	if err != nil {
		return Sale{}, &ParseError{Field: "unit_price", Raw: line, Err: fmt.Errorf("%w: %w", ErrInvalidNumber, err)}
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Sale{}, &ParseError{Field: "unit_price", Raw: line, Err: fmt.Errorf("%w: %q", ErrInvalidNumber, parts[6])}
	}
	if price < 0 {
		return Sale{}, &ParseError{Field: "unit_price", Raw: line, Err: fmt.Errorf("%w: %v", ErrNegativeValue, price)}
	}

	return Sale{
		ID:        parts[0],
		Date:      date,
		Category:  parts[2],
		Product:   parts[3],
		Region:    parts[4],
		Quantity:  qty,
		UnitPrice: price,
	}, nil
}
