package inventory

// DefaultLowStockThreshold is used when callers do not supply their own.
const DefaultLowStockThreshold = 10

// StockLevel is an on-hand quantity. It can never go below zero; every
// derivation returns a new value instead of mutating in place.
type StockLevel int

// NewStockLevel validates v as a stock level.
func NewStockLevel(v int) (StockLevel, error) {
	if v < 0 {
		return 0, ErrNegativeStock
	}
	return StockLevel(v), nil
}

// Add returns the level increased by qty.
func (s StockLevel) Add(qty int) (StockLevel, error) {
	if qty < 0 {
		return 0, ErrInvalidQuantity
	}
	return s + StockLevel(qty), nil
}

// Subtract returns the level decreased by qty. Going below zero is rejected
// so callers cannot silently overdraw stock.
func (s StockLevel) Subtract(qty int) (StockLevel, error) {
	if qty < 0 {
		return 0, ErrInvalidQuantity
	}
	if StockLevel(qty) > s {
		return 0, ErrNegativeStock
	}
	return s - StockLevel(qty), nil
}

// IsLow reports whether the level is at or under threshold.
func (s StockLevel) IsLow(threshold int) bool {
	return int(s) <= threshold
}

// IsOutOfStock reports whether nothing is left.
func (s StockLevel) IsOutOfStock() bool {
	return s == 0
}

// Int returns the plain integer value.
func (s StockLevel) Int() int {
	return int(s)
}
