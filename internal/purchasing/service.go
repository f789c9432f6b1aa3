package purchasing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/cart"
	"github.com/posfin/pos-engine/internal/lifecycle"
	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
	"github.com/posfin/pos-engine/pkg/metrics"
)

var (
	errBackendRequired = errors.New("purchasing backend is required")
	errLoggerRequired  = errors.New("purchasing logger is required")
)

// Backend is the slice of the backend API the purchasing flow needs.
type Backend interface {
	ListProducts(ctx context.Context, filter backend.ProductFilter) ([]backend.Product, error)
	LastPurchasePrice(ctx context.Context, productID uuid.UUID) (*decimal.Decimal, error)
	ConfirmPurchaseOrder(ctx context.Context, supplierID, paymentMethodID uuid.UUID, lines []backend.PurchaseLine) (uuid.UUID, error)
	RecordPayment(ctx context.Context, supplierID, orderID uuid.UUID, amount decimal.Decimal, paymentMethodID uuid.UUID) error
	SupplierDebts(ctx context.Context) ([]backend.SupplierDebt, error)
}

// AddInput is one product addition to a purchase cart. Unit may be empty,
// in which case it follows the existing line's unit. A nil UnitCost asks
// the service to prefill from the product's last purchase price.
type AddInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	Unit        enums.UnitOfMeasure
	UnitCost    *decimal.Decimal
}

// Service builds purchase carts per supplier and submits them as purchase
// orders. No stock gate applies here; buying more than is on hand is the
// point.
type Service interface {
	Open(ctx context.Context, supplierID uuid.UUID) (cart.Snapshot, error)
	CatalogFor(ctx context.Context, supplierID uuid.UUID) ([]backend.Product, error)
	Add(ctx context.Context, supplierID uuid.UUID, input AddInput) (cart.Snapshot, error)
	SetUnitCost(ctx context.Context, supplierID, productID uuid.UUID, cost decimal.Decimal) (cart.Snapshot, error)
	Remove(ctx context.Context, supplierID, productID uuid.UUID) (cart.Snapshot, error)
	Confirm(ctx context.Context, supplierID, paymentMethodID uuid.UUID) (uuid.UUID, error)
	RecordPayment(ctx context.Context, supplierID, orderID uuid.UUID, amount decimal.Decimal, paymentMethodID uuid.UUID) error
	Debts(ctx context.Context) ([]backend.SupplierDebt, error)
}

type service struct {
	backend  Backend
	sessions *cart.SessionStore
	merger   cart.Merger
	metrics  *metrics.EngineMetrics
	logger   *logger.Logger
}

// NewService validates its dependencies and builds the purchasing service.
// Metrics may be nil.
func NewService(be Backend, logg *logger.Logger, em *metrics.EngineMetrics) (Service, error) {
	if be == nil {
		return nil, errBackendRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &service{
		backend:  be,
		sessions: cart.NewSessionStore(),
		merger:   cart.StickyUnitMerger{DefaultUnit: enums.UnitPiece},
		metrics:  em,
		logger:   logg,
	}, nil
}

// Open returns the supplier's purchase cart. Purchase carts are not
// persisted as drafts; a fresh session starts empty.
func (s *service) Open(_ context.Context, supplierID uuid.UUID) (cart.Snapshot, error) {
	session := s.sessions.Get(supplierID.String())
	var snap cart.Snapshot
	err := session.WithCart(func(c *cart.Cart) error {
		snap = c.Snapshot()
		return nil
	})
	return snap, err
}

// CatalogFor lists the active products the supplier carries.
func (s *service) CatalogFor(ctx context.Context, supplierID uuid.UUID) ([]backend.Product, error) {
	return s.backend.ListProducts(ctx, backend.ProductFilter{
		SupplierID: supplierID,
		ActiveOnly: true,
	})
}

// Add merges the contribution into the supplier's cart. When no unit cost is
// given the product's last purchase price is used, zero if the product was
// never bought before.
func (s *service) Add(ctx context.Context, supplierID uuid.UUID, input AddInput) (cart.Snapshot, error) {
	ctx = s.logger.WithProductID(s.logger.WithSupplierID(ctx, supplierID.String()), input.ProductID.String())

	cost := decimal.Zero
	if input.UnitCost != nil {
		cost = *input.UnitCost
	} else {
		last, err := s.backend.LastPurchasePrice(ctx, input.ProductID)
		if err != nil {
			return cart.Snapshot{}, err
		}
		if last != nil {
			cost = *last
		}
	}

	session := s.sessions.Get(supplierID.String())
	var snap cart.Snapshot
	err := session.WithCart(func(c *cart.Cart) error {
		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		if _, err := s.merger.Merge(c, cart.Contribution{
			ProductID:   input.ProductID.String(),
			ProductName: input.ProductName,
			Quantity:    input.Quantity,
			Unit:        input.Unit,
			UnitPrice:   cost,
		}); err != nil {
			return err
		}
		c.Phase = phase
		snap = c.Snapshot()
		return nil
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	s.metrics.IncCartMutation("purchase_add")
	return snap, nil
}

// SetUnitCost corrects a line's unit cost. Last write wins.
func (s *service) SetUnitCost(_ context.Context, supplierID, productID uuid.UUID, cost decimal.Decimal) (cart.Snapshot, error) {
	if cost.IsNegative() {
		return cart.Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}

	session := s.sessions.Get(supplierID.String())
	var snap cart.Snapshot
	err := session.WithCart(func(c *cart.Cart) error {
		line := c.Line(productID.String())
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the purchase cart")
		}
		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		line.Reprice(cost)
		c.Phase = phase
		c.Touch()
		snap = c.Snapshot()
		return nil
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	s.metrics.IncCartMutation("purchase_reprice")
	return snap, nil
}

// Remove drops the product's line from the purchase cart.
func (s *service) Remove(_ context.Context, supplierID, productID uuid.UUID) (cart.Snapshot, error) {
	session := s.sessions.Get(supplierID.String())
	var snap cart.Snapshot
	err := session.WithCart(func(c *cart.Cart) error {
		if !c.Remove(productID.String()) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the purchase cart")
		}
		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		c.Phase = phase
		c.Touch()
		snap = c.Snapshot()
		return nil
	})
	if err != nil {
		return cart.Snapshot{}, err
	}

	s.metrics.IncCartMutation("purchase_remove")
	return snap, nil
}

// Confirm validates every line, then submits the whole order in one backend
// call. Validation reports all problems at once rather than the first one;
// a failed submission leaves the cart intact for retry.
func (s *service) Confirm(ctx context.Context, supplierID, paymentMethodID uuid.UUID) (uuid.UUID, error) {
	ctx = s.logger.WithSupplierID(ctx, supplierID.String())
	session := s.sessions.Get(supplierID.String())

	var (
		lines    []backend.PurchaseLine
		ordered  []*cart.Line
		revision uint64
	)
	release, err := session.BeginTransition(func(c *cart.Cart) error {
		if _, err := lifecycle.Confirm(c.Phase, c.Empty()); err != nil {
			return err
		}
		if err := validateLines(c.Lines()); err != nil {
			return err
		}
		lines = purchaseLines(c)
		ordered = c.Lines()
		revision = c.Revision
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	orderID, err := s.backend.ConfirmPurchaseOrder(ctx, supplierID, paymentMethodID, lines)
	if err != nil {
		return uuid.Nil, err
	}

	// The order covers the lines captured above. Additions made while the
	// call was in flight are deducted from, not wiped with, the cart.
	if err := session.WithCart(func(c *cart.Cart) error {
		if c.Revision != revision {
			for _, line := range ordered {
				c.Deduct(line)
			}
			if !c.Empty() {
				s.logger.Warn(ctx, "purchase cart changed while the order was in flight, keeping later additions")
				return nil
			}
		}
		c.Clear()
		c.Phase = enums.PhaseConfirmed
		return nil
	}); err != nil {
		return uuid.Nil, err
	}

	s.metrics.IncTransition(string(enums.PhaseConfirmed))
	s.logger.Info(ctx, fmt.Sprintf("purchase order %s confirmed with %d lines", orderID, len(lines)))
	return orderID, nil
}

// RecordPayment registers a payment against a confirmed order. Optional;
// skipping it leaves the amount in the supplier's pending balance.
func (s *service) RecordPayment(ctx context.Context, supplierID, orderID uuid.UUID, amount decimal.Decimal, paymentMethodID uuid.UUID) error {
	ctx = s.logger.WithSupplierID(ctx, supplierID.String())

	session := s.sessions.Get(supplierID.String())
	if err := session.WithCart(func(c *cart.Cart) error {
		phase, err := lifecycle.RecordPayment(c.Phase, amount)
		if err != nil {
			return err
		}
		c.Phase = phase
		return nil
	}); err != nil {
		return err
	}

	if err := s.backend.RecordPayment(ctx, supplierID, orderID, amount, paymentMethodID); err != nil {
		// Roll the phase back so the payment can be retried.
		rollbackErr := session.WithCart(func(c *cart.Cart) error {
			c.Phase = enums.PhaseConfirmed
			return nil
		})
		return multierr.Append(err, rollbackErr)
	}

	s.sessions.Drop(supplierID.String())
	s.metrics.IncTransition(string(enums.PhasePaymentRecorded))
	s.logger.Info(ctx, fmt.Sprintf("payment of %s recorded for order %s", amount, orderID))
	return nil
}

// Debts returns the supplier balances with their display tier filled in.
// The tier is recomputed here regardless of what the backend sent.
func (s *service) Debts(ctx context.Context) ([]backend.SupplierDebt, error) {
	debts, err := s.backend.SupplierDebts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range debts {
		debts[i].Status = enums.DebtStatusFor(debts[i].Pending)
	}
	return debts, nil
}

func validateLines(lines []*cart.Line) error {
	var combined error
	for _, line := range lines {
		if !line.TotalQuantity().IsPositive() {
			combined = multierr.Append(combined, fmt.Errorf("line %s: quantity must be greater than zero", line.ProductID))
		}
		if !line.UnitPrice.IsPositive() {
			combined = multierr.Append(combined, fmt.Errorf("line %s: unit cost must be greater than zero", line.ProductID))
		}
	}
	if combined == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, combined, "purchase order has invalid lines")
}

func purchaseLines(c *cart.Cart) []backend.PurchaseLine {
	lines := make([]backend.PurchaseLine, 0, c.Len())
	for _, line := range c.Lines() {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			continue
		}
		lines = append(lines, backend.PurchaseLine{
			ProductID: productID,
			PieceQty:  line.Quantity(enums.UnitPiece),
			WeightQty: line.Quantity(enums.UnitWeight),
			UnitCost:  line.UnitPrice,
		})
	}
	return lines
}
