package cart

import (
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
)

// Contribution is one incoming addition to a cart. Unit may be left empty,
// in which case the merger resolves it against the line the contribution
// lands on.
type Contribution struct {
	ProductID   string
	ProductName string
	Quantity    decimal.Decimal
	Unit        enums.UnitOfMeasure
	UnitPrice   decimal.Decimal
}

func (c Contribution) validate() error {
	if c.ProductID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contribution is missing a product id")
	}
	if !c.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "contribution quantity must be greater than zero")
	}
	if c.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "contribution unit price cannot be negative")
	}
	if c.Unit != "" && !c.Unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "contribution unit of measure is unknown")
	}
	return nil
}

// Merger folds a contribution into a cart. Implementations own unit
// resolution; the cart itself has no opinion on which unit a quantity
// belongs to.
type Merger interface {
	Merge(cart *Cart, c Contribution) (*Line, error)
	ResolveUnit(existing *Line, requested enums.UnitOfMeasure) enums.UnitOfMeasure
}

// StickyUnitMerger merges contributions with unit stickiness: once a line
// has settled on a single unit, further contributions fold into that unit
// even when they nominally name the other one, so a weight-sold product
// stays in weight regardless of what the caller states. The contribution's
// unit only matters for a new line or a line already split across both
// units; absent that signal the merger falls back to piece.
//
// Price is last-write-wins. The incoming unit price replaces the line's and
// the whole subtotal is recomputed at the new price, matching how a price
// correction mid-order is expected to behave at the till.
type StickyUnitMerger struct {
	// DefaultUnit is used when neither the contribution nor the existing
	// line determines a unit. Zero value means piece.
	DefaultUnit enums.UnitOfMeasure
}

// ResolveUnit applies the stickiness heuristic for a contribution that would
// land on the given line (nil for a new line).
func (m StickyUnitMerger) ResolveUnit(existing *Line, requested enums.UnitOfMeasure) enums.UnitOfMeasure {
	if existing != nil {
		if units := existing.Units(); len(units) == 1 {
			return units[0]
		}
	}
	if requested != "" {
		return requested
	}
	if m.DefaultUnit != "" {
		return m.DefaultUnit
	}
	return enums.UnitPiece
}

// Merge folds the contribution into the cart, creating or extending the
// product's line, and returns the resulting line.
func (m StickyUnitMerger) Merge(cart *Cart, c Contribution) (*Line, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	line := cart.Line(c.ProductID)
	unit := m.ResolveUnit(line, c.Unit)

	if line == nil {
		line = newLine(c.ProductID, c.ProductName, c.UnitPrice)
		cart.appendLine(line)
	} else {
		line.UnitPrice = c.UnitPrice
		if c.ProductName != "" {
			line.ProductName = c.ProductName
		}
	}
	line.addQuantity(unit, c.Quantity)
	cart.touch()
	return line, nil
}
