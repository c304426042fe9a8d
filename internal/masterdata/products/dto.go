package products

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// ProductForm is the create/update request payload.
type ProductForm struct {
	Code        string     `json:"code" validate:"required,max=32"`
	Name        string     `json:"name" validate:"required,max=255"`
	GenericName string     `json:"generic_name" validate:"max=255"`
	Unit        string     `json:"unit" validate:"required,max=32"`
	Price       string     `json:"price" validate:"required"`
	Cost        string     `json:"cost" validate:"required"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// ToProduct validates the form and converts it into a Product.
func (f ProductForm) ToProduct() (Product, error) {
	if err := validate.Struct(f); err != nil {
		return Product{}, err
	}
	price, err := decimal.NewFromString(f.Price)
	if err != nil || price.IsNegative() {
		return Product{}, errInvalidPrice
	}
	cost, err := decimal.NewFromString(f.Cost)
	if err != nil || cost.IsNegative() {
		return Product{}, errInvalidCost
	}
	return Product{
		Code:        f.Code,
		Name:        f.Name,
		GenericName: f.GenericName,
		Unit:        f.Unit,
		Price:       price,
		Cost:        cost,
		Status:      StatusActive,
		ExpiresAt:   f.ExpiresAt,
	}, nil
}
