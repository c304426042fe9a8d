package products

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func validForm() ProductForm {
	return ProductForm{
		Code:  "PARA500",
		Name:  "Paracetamol 500mg",
		Unit:  "tablet",
		Price: "12.50",
		Cost:  "7.25",
	}
}

func TestProductFormToProduct(t *testing.T) {
	product, err := validForm().ToProduct()
	require.NoError(t, err)
	require.Equal(t, StatusActive, product.Status)
	require.Equal(t, "12.5", product.Price.String())
	require.Equal(t, "7.25", product.Cost.String())
	require.Zero(t, product.Stock)
}

func TestProductFormValidation(t *testing.T) {
	form := validForm()
	form.Code = ""
	_, err := form.ToProduct()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	form = validForm()
	form.Price = "not-a-number"
	_, err = form.ToProduct()
	require.ErrorIs(t, err, errInvalidPrice)

	form = validForm()
	form.Price = "-1"
	_, err = form.ToProduct()
	require.ErrorIs(t, err, errInvalidPrice)

	form = validForm()
	form.Cost = "-0.01"
	_, err = form.ToProduct()
	require.ErrorIs(t, err, errInvalidCost)
}

func TestProductExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	fresh := Product{}
	require.False(t, fresh.Expired(now))

	future := now.Add(24 * time.Hour)
	require.False(t, Product{ExpiresAt: &future}.Expired(now))

	past := now.Add(-24 * time.Hour)
	require.True(t, Product{ExpiresAt: &past}.Expired(now))
	require.True(t, Product{ExpiresAt: &now}.Expired(now))
}
