package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TransactionType enumerates supported inventory movements.
type TransactionType string

const (
	// TransactionTypeStockIn represents goods received into stock.
	TransactionTypeStockIn TransactionType = "stock_in"
	// TransactionTypeStockOut represents goods issued out of stock.
	TransactionTypeStockOut TransactionType = "stock_out"
	// TransactionTypeAdjustment records an authoritative stock correction.
	TransactionTypeAdjustment TransactionType = "adjustment"
	// TransactionTypeSale is a stock-out posted by order fulfilment.
	TransactionTypeSale TransactionType = "sales"
	// TransactionTypeReturn is a stock-in posted by returns processing.
	TransactionTypeReturn TransactionType = "return"
	// TransactionTypeExpired writes off stock past its expiry date.
	TransactionTypeExpired TransactionType = "expired"
)

// Direction classifies how a transaction type moves stock.
type Direction int

const (
	// DirectionNeutral means the sign comes from the operation, not the type.
	DirectionNeutral Direction = iota
	// DirectionIn increases stock.
	DirectionIn
	// DirectionOut decreases stock.
	DirectionOut
)

// ParseTransactionType validates a raw string against the enumeration.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransactionType, s)
	}
	return t, nil
}

// Valid reports whether t is part of the enumeration.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeStockIn, TransactionTypeStockOut, TransactionTypeAdjustment,
		TransactionTypeSale, TransactionTypeReturn, TransactionTypeExpired:
		return true
	}
	return false
}

// Direction returns the stock direction of the type.
func (t TransactionType) Direction() Direction {
	switch t {
	case TransactionTypeStockIn, TransactionTypeReturn:
		return DirectionIn
	case TransactionTypeStockOut, TransactionTypeSale, TransactionTypeExpired:
		return DirectionOut
	default:
		return DirectionNeutral
	}
}

// ReferenceType enumerates external documents a transaction may point at.
type ReferenceType string

const (
	// ReferenceSalesOrder links a movement to a sales order.
	ReferenceSalesOrder ReferenceType = "sales_order"
	// ReferencePurchaseOrder links a movement to a purchase order.
	ReferencePurchaseOrder ReferenceType = "purchase_order"
	// ReferenceStockOpname links a movement to a physical stock count.
	ReferenceStockOpname ReferenceType = "stock_opname"
)

// ParseReferenceType validates a raw string against the enumeration.
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(s)
	switch t {
	case ReferenceSalesOrder, ReferencePurchaseOrder, ReferenceStockOpname:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReferenceType, s)
}

// Reference is a typed link to an external document.
type Reference struct {
	Type ReferenceType
	ID   uuid.UUID
}

// NewReference builds a validated reference.
func NewReference(t ReferenceType, id uuid.UUID) (Reference, error) {
	if _, err := ParseReferenceType(string(t)); err != nil {
		return Reference{}, err
	}
	if id == uuid.Nil {
		return Reference{}, ErrReferenceIDRequired
	}
	return Reference{Type: t, ID: id}, nil
}

// Transaction is one immutable ledger entry. ID is zero until persisted;
// entries are never updated or deleted afterwards.
type Transaction struct {
	ID        int64
	ProductID int64
	Type      TransactionType
	Quantity  int
	Note      string
	Reference *Reference
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NewTransaction builds a validated, not-yet-persisted ledger entry.
// Quantity is the signed stock delta and must agree with the direction of
// the type; adjustments may carry either sign.
func NewTransaction(productID int64, t TransactionType, quantity int, note string, ref *Reference) (Transaction, error) {
	if productID <= 0 {
		return Transaction{}, ErrProductRequired
	}
	if !t.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrUnknownTransactionType, t)
	}
	switch t.Direction() {
	case DirectionIn:
		if quantity <= 0 {
			return Transaction{}, ErrInvalidQuantity
		}
	case DirectionOut:
		if quantity >= 0 {
			return Transaction{}, ErrInvalidQuantity
		}
	}
	if ref != nil {
		validated, err := NewReference(ref.Type, ref.ID)
		if err != nil {
			return Transaction{}, err
		}
		ref = &validated
	}
	return Transaction{
		ProductID: productID,
		Type:      t,
		Quantity:  quantity,
		Note:      note,
		Reference: ref,
	}, nil
}

// ErrNegativeStock triggered when a movement would result in negative qty.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = errors.New("inventory: quantity must be positive")

// ErrReferenceIDRequired indicates a reference without a document id.
var ErrReferenceIDRequired = errors.New("inventory: reference id required")

// ErrProductRequired indicates a missing or non-positive product id.
var ErrProductRequired = errors.New("inventory: product required")

// ErrInvalidDateRange indicates a malformed query range.
var ErrInvalidDateRange = errors.New("inventory: invalid date range")

// ErrUnknownTransactionType indicates a value outside the enumeration.
var ErrUnknownTransactionType = errors.New("inventory: unknown transaction type")

// ErrUnknownReferenceType indicates a reference kind outside the enumeration.
var ErrUnknownReferenceType = errors.New("inventory: unknown reference type")

// ErrTransactionNotFound indicates a missing ledger entry.
var ErrTransactionNotFound = errors.New("inventory: transaction not found")

// ErrProductNotFound indicates a missing product row.
var ErrProductNotFound = errors.New("inventory: product not found")

// InsufficientStockError rejects a stock-out larger than the available
// quantity. It unwraps to ErrNegativeStock.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrNegativeStock
}
