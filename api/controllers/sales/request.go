package sales

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID   uuid.UUID       `json:"product_id" validate:"required"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

type finalizeRequest struct {
	PaymentMethodID uuid.UUID       `json:"payment_method_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
}
