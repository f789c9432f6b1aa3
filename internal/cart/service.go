package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/lifecycle"
	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
	"github.com/posfin/pos-engine/pkg/metrics"
)

var (
	errBackendRequired = errors.New("sales backend is required")
	errLoggerRequired  = errors.New("sales logger is required")
)

// Backend is the slice of the backend API the sales flow needs.
type Backend interface {
	CurrentStock(ctx context.Context, productID uuid.UUID) (int, error)
	FetchDraft(ctx context.Context, workspaceID uuid.UUID) ([]backend.DraftLine, error)
	SaveDraftOrder(ctx context.Context, workspaceID uuid.UUID, lines []backend.DraftLine) error
	ClearDraft(ctx context.Context, workspaceID uuid.UUID) error
	RequestSettlement(ctx context.Context, workspaceID uuid.UUID, requested bool) error
	FinalizeSale(ctx context.Context, workspaceID, paymentMethodID uuid.UUID, amount decimal.Decimal) (uuid.UUID, error)
}

// AddInput is one product addition to a sales cart. Sales are piece only;
// the quantity is a whole number of pieces.
type AddInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Snapshot is a read-only copy of a cart handed to callers.
type Snapshot struct {
	WorkspaceID string
	Phase       enums.OrderPhase
	Dirty       bool
	Revision    uint64
	Lines       []*Line
	Total       decimal.Decimal
}

// Service runs the sales cart flow for a workspace: build the cart against
// live stock, persist it as the backend draft, then walk it through
// settlement and finalization.
type Service interface {
	Open(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error)
	Add(ctx context.Context, workspaceID uuid.UUID, input AddInput) (Snapshot, error)
	UpdateQuantity(ctx context.Context, workspaceID, productID uuid.UUID, quantity int) (Snapshot, error)
	Remove(ctx context.Context, workspaceID, productID uuid.UUID) (Snapshot, error)
	Save(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error)
	RequestSettlement(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error)
	Finalize(ctx context.Context, workspaceID, paymentMethodID uuid.UUID, amount decimal.Decimal) (uuid.UUID, error)
	Discard(ctx context.Context, workspaceID uuid.UUID) error
}

type service struct {
	backend  Backend
	sessions *SessionStore
	merger   Merger
	metrics  *metrics.EngineMetrics
	logger   *logger.Logger
}

// NewService validates its dependencies and builds the sales service.
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
		sessions: NewSessionStore(),
		merger:   StickyUnitMerger{DefaultUnit: enums.UnitPiece},
		metrics:  em,
		logger:   logg,
	}, nil
}

// Open returns the workspace's current cart, hydrating it from the backend
// draft on first use. Reopening an active session does not re-fetch.
func (s *service) Open(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error) {
	session := s.sessions.Get(workspaceID.String())

	var snap Snapshot
	err := session.WithCart(func(c *Cart) error {
		if c.Phase != enums.PhaseEmpty {
			snap = snapshot(c)
			return nil
		}
		lines, err := s.backend.FetchDraft(ctx, workspaceID)
		if err != nil {
			return err
		}
		for _, dl := range lines {
			hydrateLine(c, dl)
		}
		if !c.Empty() {
			c.Phase = enums.PhaseSaved
			c.Dirty = false
		}
		snap = snapshot(c)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Add verifies live stock for the product and merges the pieces into the
// cart. The stock read happens before the session lock; the quantity it is
// compared against is recomputed inside the lock so a concurrent merge on
// the same line cannot slip past the check.
func (s *service) Add(ctx context.Context, workspaceID uuid.UUID, input AddInput) (Snapshot, error) {
	ctx = s.logger.WithProductID(s.logger.WithWorkspaceID(ctx, workspaceID.String()), input.ProductID.String())

	if input.Quantity <= 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}

	available, err := s.backend.CurrentStock(ctx, input.ProductID)
	if err != nil {
		return Snapshot{}, err
	}

	session := s.sessions.Get(workspaceID.String())
	var snap Snapshot
	err = session.WithCart(func(c *Cart) error {
		requested := c.RequestedQuantity(input.ProductID.String(), enums.UnitPiece).
			Add(decimal.NewFromInt(int64(input.Quantity)))
		if requested.GreaterThan(decimal.NewFromInt(int64(available))) {
			s.metrics.IncStockDenial()
			return pkgerrors.StockInsufficient(available)
		}

		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		if _, err := s.merger.Merge(c, Contribution{
			ProductID:   input.ProductID.String(),
			ProductName: input.ProductName,
			Quantity:    decimal.NewFromInt(int64(input.Quantity)),
			Unit:        enums.UnitPiece,
			UnitPrice:   input.UnitPrice,
		}); err != nil {
			return err
		}
		c.Phase = phase
		snap = snapshot(c)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.metrics.IncCartMutation("add")
	s.logger.Info(ctx, fmt.Sprintf("added %d piece(s) to sales cart", input.Quantity))
	return snap, nil
}

// UpdateQuantity sets the line's piece quantity outright. Increases are
// checked against live stock the same way Add is; zero removes the line.
func (s *service) UpdateQuantity(ctx context.Context, workspaceID, productID uuid.UUID, quantity int) (Snapshot, error) {
	if quantity < 0 {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if quantity == 0 {
		return s.Remove(ctx, workspaceID, productID)
	}

	available, err := s.backend.CurrentStock(ctx, productID)
	if err != nil {
		return Snapshot{}, err
	}

	session := s.sessions.Get(workspaceID.String())
	var snap Snapshot
	err = session.WithCart(func(c *Cart) error {
		line := c.Line(productID.String())
		if line == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		if quantity > available {
			s.metrics.IncStockDenial()
			return pkgerrors.StockInsufficient(available)
		}
		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		line.setQuantity(enums.UnitPiece, decimal.NewFromInt(int64(quantity)))
		c.Phase = phase
		c.touch()
		snap = snapshot(c)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.metrics.IncCartMutation("update")
	return snap, nil
}

// Remove drops the product's line from the cart.
func (s *service) Remove(ctx context.Context, workspaceID, productID uuid.UUID) (Snapshot, error) {
	session := s.sessions.Get(workspaceID.String())
	var snap Snapshot
	err := session.WithCart(func(c *Cart) error {
		if !c.Remove(productID.String()) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		phase, err := lifecycle.Mutate(c.Phase)
		if err != nil {
			return err
		}
		c.Phase = phase
		c.touch()
		snap = snapshot(c)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	s.metrics.IncCartMutation("remove")
	return snap, nil
}

// Save persists the cart as the backend draft. The draft is replaced whole,
// cleared then re-sent, so the backend never holds a partial mix of old and
// new lines.
func (s *service) Save(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error) {
	ctx = s.logger.WithWorkspaceID(ctx, workspaceID.String())
	session := s.sessions.Get(workspaceID.String())

	var (
		lines    []backend.DraftLine
		revision uint64
	)
	release, err := session.BeginTransition(func(c *Cart) error {
		if _, err := lifecycle.Save(c.Phase, c.Empty()); err != nil {
			return err
		}
		lines = draftLines(c)
		revision = c.Revision
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	defer release()

	if err := s.backend.SaveDraftOrder(ctx, workspaceID, lines); err != nil {
		return Snapshot{}, err
	}

	// The draft only covers the lines captured above. A cart that moved
	// while the call was in flight stays dirty so settlement keeps waiting
	// for a fresh save.
	var snap Snapshot
	saved := false
	if err := session.WithCart(func(c *Cart) error {
		if c.Revision == revision {
			phase, err := lifecycle.Save(c.Phase, c.Empty())
			if err != nil {
				return err
			}
			c.Phase = phase
			c.MarkSaved()
			saved = true
		}
		snap = snapshot(c)
		return nil
	}); err != nil {
		return Snapshot{}, err
	}

	if !saved {
		s.logger.Warn(ctx, "cart changed while the draft save was in flight, draft is stale")
		return snap, nil
	}
	s.metrics.IncTransition(string(enums.PhaseSaved))
	s.logger.Info(ctx, "sales draft saved")
	return snap, nil
}

// RequestSettlement asks the backend to print the bill for the saved order.
func (s *service) RequestSettlement(ctx context.Context, workspaceID uuid.UUID) (Snapshot, error) {
	ctx = s.logger.WithWorkspaceID(ctx, workspaceID.String())
	session := s.sessions.Get(workspaceID.String())

	var revision uint64
	release, err := session.BeginTransition(func(c *Cart) error {
		if _, err := lifecycle.RequestSettlement(c.Phase, c.Dirty, c.Empty()); err != nil {
			return err
		}
		revision = c.Revision
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	defer release()

	if err := s.backend.RequestSettlement(ctx, workspaceID, true); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	if err := session.WithCart(func(c *Cart) error {
		if c.Revision != revision {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed while the settlement request was in flight")
		}
		phase, err := lifecycle.RequestSettlement(c.Phase, c.Dirty, c.Empty())
		if err != nil {
			return err
		}
		c.Phase = phase
		snap = snapshot(c)
		return nil
	}); err != nil {
		return Snapshot{}, err
	}

	s.metrics.IncTransition(string(enums.PhaseSettlementRequested))
	s.logger.Info(ctx, "settlement requested")
	return snap, nil
}

// Finalize records the sale and retires the session. The workspace starts
// from an empty cart afterwards.
func (s *service) Finalize(ctx context.Context, workspaceID, paymentMethodID uuid.UUID, amount decimal.Decimal) (uuid.UUID, error) {
	ctx = s.logger.WithWorkspaceID(ctx, workspaceID.String())
	session := s.sessions.Get(workspaceID.String())

	var (
		revision uint64
		sold     []*Line
	)
	release, err := session.BeginTransition(func(c *Cart) error {
		if _, err := lifecycle.Finalize(c.Phase, paymentMethodID != uuid.Nil, amount); err != nil {
			return err
		}
		revision = c.Revision
		sold = c.Lines()
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	saleID, err := s.backend.FinalizeSale(ctx, workspaceID, paymentMethodID, amount)
	if err != nil {
		return uuid.Nil, err
	}

	// The sale covered the lines captured above. If the cart moved while
	// the call was in flight, only the sold quantities leave; whatever was
	// added since starts the next order.
	retired := false
	if err := session.WithCart(func(c *Cart) error {
		if c.Revision == revision {
			c.Clear()
			retired = true
			return nil
		}
		for _, line := range sold {
			c.Deduct(line)
		}
		if c.Empty() {
			c.Clear()
			retired = true
		}
		return nil
	}); err != nil {
		return uuid.Nil, err
	}
	if retired {
		s.sessions.Drop(workspaceID.String())
	} else {
		s.logger.Warn(ctx, "cart changed while the sale was in flight, keeping later additions")
	}

	s.metrics.IncTransition(string(enums.PhaseFinalized))
	s.logger.Info(ctx, fmt.Sprintf("sale %s finalized", saleID))
	return saleID, nil
}

// Discard abandons the cart and clears the backend draft.
func (s *service) Discard(ctx context.Context, workspaceID uuid.UUID) error {
	ctx = s.logger.WithWorkspaceID(ctx, workspaceID.String())
	if err := s.backend.ClearDraft(ctx, workspaceID); err != nil {
		return err
	}
	s.sessions.Drop(workspaceID.String())
	s.logger.Info(ctx, "sales cart discarded")
	return nil
}

// Snapshot returns a read-only copy of the cart's current state.
func (c *Cart) Snapshot() Snapshot {
	return snapshot(c)
}

func snapshot(c *Cart) Snapshot {
	return Snapshot{
		WorkspaceID: c.WorkspaceID,
		Phase:       c.Phase,
		Dirty:       c.Dirty,
		Revision:    c.Revision,
		Lines:       c.Lines(),
		Total:       c.Total(),
	}
}

func draftLines(c *Cart) []backend.DraftLine {
	lines := make([]backend.DraftLine, 0, c.Len())
	for _, line := range c.Lines() {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			continue
		}
		lines = append(lines, backend.DraftLine{
			ProductID:   productID,
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			PieceQty:    line.Quantity(enums.UnitPiece),
			WeightQty:   line.Quantity(enums.UnitWeight),
		})
	}
	return lines
}

func hydrateLine(c *Cart, dl backend.DraftLine) {
	line := newLine(dl.ProductID.String(), dl.ProductName, dl.UnitPrice)
	if dl.PieceQty.IsPositive() {
		line.Quantities[enums.UnitPiece] = dl.PieceQty
	}
	if dl.WeightQty.IsPositive() {
		line.Quantities[enums.UnitWeight] = dl.WeightQty
	}
	line.recompute()
	if !line.empty() {
		c.appendLine(line)
	}
}
