package purchasing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type addItemRequest struct {
	ProductID   uuid.UUID        `json:"product_id" validate:"required"`
	ProductName string           `json:"product_name"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	Unit        string           `json:"unit"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
}

type setCostRequest struct {
	UnitCost decimal.Decimal `json:"unit_cost" validate:"required"`
}

type confirmRequest struct {
	PaymentMethodID uuid.UUID `json:"payment_method_id" validate:"required"`
}

type recordPaymentRequest struct {
	OrderID         uuid.UUID       `json:"order_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id" validate:"required"`
}
