package cart

import (
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
)

// Line is one product line in a cart. A line can carry quantities in both
// units at once (bought by piece and by weight in the same order); the
// subtotal covers both at the line's current unit price.
type Line struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantities  map[enums.UnitOfMeasure]decimal.Decimal
	Subtotal    decimal.Decimal
}

func newLine(productID, productName string, unitPrice decimal.Decimal) *Line {
	return &Line{
		ProductID:   productID,
		ProductName: productName,
		UnitPrice:   unitPrice,
		Quantities:  make(map[enums.UnitOfMeasure]decimal.Decimal, 2),
	}
}

// Quantity returns the line's quantity in the given unit, zero if absent.
func (l *Line) Quantity(unit enums.UnitOfMeasure) decimal.Decimal {
	return l.Quantities[unit]
}

// TotalQuantity sums the line's quantities across both units.
func (l *Line) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, qty := range l.Quantities {
		total = total.Add(qty)
	}
	return total
}

// Units returns the units this line currently holds a positive quantity in.
func (l *Line) Units() []enums.UnitOfMeasure {
	units := make([]enums.UnitOfMeasure, 0, len(l.Quantities))
	for _, unit := range []enums.UnitOfMeasure{enums.UnitPiece, enums.UnitWeight} {
		if qty, ok := l.Quantities[unit]; ok && qty.IsPositive() {
			units = append(units, unit)
		}
	}
	return units
}

func (l *Line) setQuantity(unit enums.UnitOfMeasure, qty decimal.Decimal) {
	if qty.IsPositive() {
		l.Quantities[unit] = qty
	} else {
		delete(l.Quantities, unit)
	}
	l.recompute()
}

func (l *Line) addQuantity(unit enums.UnitOfMeasure, qty decimal.Decimal) {
	l.setQuantity(unit, l.Quantities[unit].Add(qty))
}

// Reprice replaces the line's unit price and recomputes the subtotal.
func (l *Line) Reprice(price decimal.Decimal) {
	l.UnitPrice = price
	l.recompute()
}

// empty reports whether the line holds no quantity in any unit.
func (l *Line) empty() bool {
	return len(l.Quantities) == 0
}

func (l *Line) recompute() {
	l.Subtotal = l.UnitPrice.Mul(l.TotalQuantity())
}

func (l *Line) clone() *Line {
	copied := &Line{
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		UnitPrice:   l.UnitPrice,
		Quantities:  make(map[enums.UnitOfMeasure]decimal.Decimal, len(l.Quantities)),
		Subtotal:    l.Subtotal,
	}
	for unit, qty := range l.Quantities {
		copied.Quantities[unit] = qty
	}
	return copied
}
