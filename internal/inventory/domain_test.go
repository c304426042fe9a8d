package inventory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionType(t *testing.T) {
	for _, raw := range []string{"stock_in", "stock_out", "adjustment", "sales", "return", "expired"} {
		parsed, err := ParseTransactionType(raw)
		require.NoError(t, err)
		require.Equal(t, raw, string(parsed))
	}

	_, err := ParseTransactionType("transfer")
	require.ErrorIs(t, err, ErrUnknownTransactionType)
	_, err = ParseTransactionType("")
	require.ErrorIs(t, err, ErrUnknownTransactionType)
}

func TestTransactionTypeDirection(t *testing.T) {
	require.Equal(t, DirectionIn, TransactionTypeStockIn.Direction())
	require.Equal(t, DirectionIn, TransactionTypeReturn.Direction())
	require.Equal(t, DirectionOut, TransactionTypeStockOut.Direction())
	require.Equal(t, DirectionOut, TransactionTypeSale.Direction())
	require.Equal(t, DirectionOut, TransactionTypeExpired.Direction())
	require.Equal(t, DirectionNeutral, TransactionTypeAdjustment.Direction())
}

func TestNewReference(t *testing.T) {
	id := uuid.New()
	ref, err := NewReference(ReferenceSalesOrder, id)
	require.NoError(t, err)
	require.Equal(t, id, ref.ID)

	_, err = NewReference("invoice", id)
	require.ErrorIs(t, err, ErrUnknownReferenceType)

	_, err = NewReference(ReferencePurchaseOrder, uuid.Nil)
	require.ErrorIs(t, err, ErrReferenceIDRequired)
}

func TestNewTransaction(t *testing.T) {
	entry, err := NewTransaction(1, TransactionTypeStockIn, 10, "goods received", nil)
	require.NoError(t, err)
	require.Equal(t, int64(1), entry.ProductID)
	require.Equal(t, 10, entry.Quantity)
	require.Zero(t, entry.ID)

	_, err = NewTransaction(0, TransactionTypeStockIn, 10, "", nil)
	require.ErrorIs(t, err, ErrProductRequired)

	_, err = NewTransaction(1, "transfer", 10, "", nil)
	require.ErrorIs(t, err, ErrUnknownTransactionType)
}

func TestNewTransactionSignAgreement(t *testing.T) {
	_, err := NewTransaction(1, TransactionTypeStockIn, -5, "", nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewTransaction(1, TransactionTypeSale, 5, "", nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = NewTransaction(1, TransactionTypeExpired, 0, "", nil)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	// Adjustments carry the sign of the correction, any sign is fine.
	up, err := NewTransaction(1, TransactionTypeAdjustment, 4, "count up", nil)
	require.NoError(t, err)
	require.Equal(t, 4, up.Quantity)

	down, err := NewTransaction(1, TransactionTypeAdjustment, -4, "count down", nil)
	require.NoError(t, err)
	require.Equal(t, -4, down.Quantity)
}

func TestNewTransactionValidatesReference(t *testing.T) {
	_, err := NewTransaction(1, TransactionTypeSale, -2, "", &Reference{Type: "invoice", ID: uuid.New()})
	require.ErrorIs(t, err, ErrUnknownReferenceType)

	ref := &Reference{Type: ReferenceSalesOrder, ID: uuid.New()}
	entry, err := NewTransaction(1, TransactionTypeSale, -2, "", ref)
	require.NoError(t, err)
	require.NotNil(t, entry.Reference)
	require.Equal(t, ref.ID, entry.Reference.ID)
}

func TestInsufficientStockErrorUnwrap(t *testing.T) {
	err := &InsufficientStockError{ProductID: 7, Requested: 12, Available: 3}
	require.ErrorIs(t, err, ErrNegativeStock)
	require.Contains(t, err.Error(), "requested 12")
	require.Contains(t, err.Error(), "available 3")
}
