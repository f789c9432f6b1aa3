package backend

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
)

// Product is a catalog row as the backend reports it. Quantity is nil when
// the product has no inventory record, which is distinct from zero.
type Product struct {
	ID           uuid.UUID           `json:"id"`
	Name         string              `json:"name"`
	Category     string              `json:"category"`
	SalePrice    decimal.Decimal     `json:"sale_price"`
	Quantity     *int                `json:"quantity"`
	Status       enums.ProductStatus `json:"status"`
	SupplierID   uuid.UUID           `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Category   string
	SupplierID uuid.UUID
	ActiveOnly bool
}

// DraftLine is one persisted line of a workspace's draft order.
type DraftLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PieceQty    decimal.Decimal `json:"piece_qty"`
	WeightQty   decimal.Decimal `json:"weight_qty"`
}

// PurchaseLine is one line of a purchase order submission.
type PurchaseLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	PieceQty  decimal.Decimal `json:"piece_qty"`
	WeightQty decimal.Decimal `json:"weight_qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// SaleRecord is one historical sale row used for consumption estimates and
// forecasting input.
type SaleRecord struct {
	OrderDate time.Time        `json:"order_date"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
}

// SupplierDebt summarizes what is owed to one supplier.
type SupplierDebt struct {
	SupplierID      uuid.UUID        `json:"supplier_id"`
	SupplierName    string           `json:"supplier_name"`
	Phone           string           `json:"phone,omitempty"`
	Email           string           `json:"email,omitempty"`
	TotalPurchases  decimal.Decimal  `json:"total_purchases"`
	TotalPayments   decimal.Decimal  `json:"total_payments"`
	Pending         decimal.Decimal  `json:"pending"`
	Status          enums.DebtStatus `json:"status"`
	OldestOrderDate *time.Time       `json:"oldest_order_date,omitempty"`
	PendingOrders   int              `json:"pending_orders"`
}

// PaymentMethod is a backend-defined settlement method.
type PaymentMethod struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type stockResponse struct {
	Quantity int `json:"quantity"`
}

type lastCostResponse struct {
	Cost decimal.Decimal `json:"cost"`
}

type confirmResponse struct {
	OrderID uuid.UUID `json:"order_id"`
}

type finalizeResponse struct {
	SaleID uuid.UUID `json:"sale_id"`
}

type draftRequest struct {
	Lines []DraftLine `json:"lines"`
}

type settlementRequest struct {
	Requested bool `json:"requested"`
}

type finalizeRequest struct {
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
	Amount          decimal.Decimal `json:"amount"`
}

type confirmPurchaseRequest struct {
	SupplierID      uuid.UUID      `json:"supplier_id"`
	PaymentMethodID uuid.UUID      `json:"payment_method_id"`
	Lines           []PurchaseLine `json:"lines"`
}

type recordPaymentRequest struct {
	OrderID         uuid.UUID       `json:"order_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID uuid.UUID       `json:"payment_method_id"`
}
