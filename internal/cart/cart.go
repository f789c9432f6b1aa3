package cart

import (
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/enums"
)

// Cart holds an order under construction. Lines keep their insertion order;
// merging into an existing line never moves it. Dirty tracks whether the
// cart has diverged from the last persisted draft, Revision increments on
// every mutation so readers can detect concurrent change.
type Cart struct {
	WorkspaceID string
	Phase       enums.OrderPhase
	Dirty       bool
	Revision    uint64

	lines []*Line
	index map[string]*Line
}

// New returns an empty cart in the Empty phase.
func New(workspaceID string) *Cart {
	return &Cart{
		WorkspaceID: workspaceID,
		Phase:       enums.PhaseEmpty,
		index:       make(map[string]*Line),
	}
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

// Line returns the line for the product, or nil.
func (c *Cart) Line(productID string) *Line {
	return c.index[productID]
}

// Lines returns copies of the cart's lines in insertion order. Mutating the
// returned slice does not touch the cart.
func (c *Cart) Lines() []*Line {
	out := make([]*Line, 0, len(c.lines))
	for _, line := range c.lines {
		out = append(out, line.clone())
	}
	return out
}

// Total sums the line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

// RequestedQuantity returns the quantity the cart already holds for the
// product in the given unit. Stock checks add the incoming contribution to
// this value, reading it at resolution time rather than trusting a quantity
// captured before the merge.
func (c *Cart) RequestedQuantity(productID string, unit enums.UnitOfMeasure) decimal.Decimal {
	if line := c.index[productID]; line != nil {
		return line.Quantity(unit)
	}
	return decimal.Zero
}

func (c *Cart) appendLine(line *Line) {
	c.lines = append(c.lines, line)
	c.index[line.ProductID] = line
}

// Remove deletes the product's line. Returns false when absent.
func (c *Cart) Remove(productID string) bool {
	line := c.index[productID]
	if line == nil {
		return false
	}
	c.removeLine(line)
	return true
}

func (c *Cart) removeLine(line *Line) {
	delete(c.index, line.ProductID)
	for i, candidate := range c.lines {
		if candidate == line {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// Clear drops every line and resets the cart to the Empty phase.
func (c *Cart) Clear() {
	c.lines = c.lines[:0]
	c.index = make(map[string]*Line)
	c.Phase = enums.PhaseEmpty
	c.Dirty = false
	c.Revision++
}

// Deduct subtracts the given snapshot line's quantities from the product's
// line, dropping the line once nothing remains. This settles a finalized
// sale against a cart that kept moving while the backend call was in
// flight: the sold quantities leave, later additions stay.
func (c *Cart) Deduct(sold *Line) {
	line := c.index[sold.ProductID]
	if line == nil {
		return
	}
	for unit, qty := range sold.Quantities {
		line.addQuantity(unit, qty.Neg())
	}
	if line.empty() {
		c.removeLine(line)
	}
}

func (c *Cart) touch() {
	c.Dirty = true
	c.Revision++
}

// Touch marks the cart dirty after an out-of-band line mutation.
func (c *Cart) Touch() {
	c.touch()
}

// MarkSaved records that the backend draft now matches the cart.
func (c *Cart) MarkSaved() {
	c.Dirty = false
}
