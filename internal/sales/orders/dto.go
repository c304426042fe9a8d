package orders

import "github.com/go-playground/validator/v10"

var validate = validator.New()

// CreateOrderForm is the payload for registering a draft order. Unit prices
// come from the product master at creation time, never from the client.
type CreateOrderForm struct {
	CustomerID int64           `json:"customer_id" validate:"required,gt=0"`
	Notes      string          `json:"notes" validate:"max=500"`
	Lines      []OrderLineForm `json:"lines" validate:"required,min=1,dive"`
}

// OrderLineForm is one requested product position.
type OrderLineForm struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}
