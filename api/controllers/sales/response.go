package sales

import (
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/internal/cart"
	"github.com/posfin/pos-engine/pkg/enums"
)

type lineView struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PieceQty    decimal.Decimal `json:"piece_qty"`
	WeightQty   decimal.Decimal `json:"weight_qty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type cartView struct {
	WorkspaceID string          `json:"workspace_id"`
	Phase       string          `json:"phase"`
	Dirty       bool            `json:"dirty"`
	Revision    uint64          `json:"revision"`
	Lines       []lineView      `json:"lines"`
	Total       decimal.Decimal `json:"total"`
}

func newCartView(snap cart.Snapshot) cartView {
	view := cartView{
		WorkspaceID: snap.WorkspaceID,
		Phase:       string(snap.Phase),
		Dirty:       snap.Dirty,
		Revision:    snap.Revision,
		Lines:       make([]lineView, 0, len(snap.Lines)),
		Total:       snap.Total,
	}
	for _, line := range snap.Lines {
		view.Lines = append(view.Lines, lineView{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			PieceQty:    line.Quantity(enums.UnitPiece),
			WeightQty:   line.Quantity(enums.UnitWeight),
			Subtotal:    line.Subtotal,
		})
	}
	return view
}

type finalizeView struct {
	SaleID string `json:"sale_id"`
}
