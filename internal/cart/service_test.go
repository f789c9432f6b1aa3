package cart

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
)

type stubBackend struct {
	stock map[uuid.UUID]int
	draft map[uuid.UUID][]backend.DraftLine

	savedDrafts   int
	settlements   int
	finalizations int
	saleID        uuid.UUID

	stockErr    error
	saveErr     error
	finalizeErr error

	saveHook     func()
	finalizeHook func()
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		stock:  make(map[uuid.UUID]int),
		draft:  make(map[uuid.UUID][]backend.DraftLine),
		saleID: uuid.New(),
	}
}

func (s *stubBackend) CurrentStock(_ context.Context, productID uuid.UUID) (int, error) {
	if s.stockErr != nil {
		return 0, s.stockErr
	}
	return s.stock[productID], nil
}

func (s *stubBackend) FetchDraft(_ context.Context, workspaceID uuid.UUID) ([]backend.DraftLine, error) {
	return s.draft[workspaceID], nil
}

func (s *stubBackend) SaveDraftOrder(_ context.Context, workspaceID uuid.UUID, lines []backend.DraftLine) error {
	if s.saveHook != nil {
		s.saveHook()
	}
	if s.saveErr != nil {
		return s.saveErr
	}
	s.savedDrafts++
	s.draft[workspaceID] = lines
	return nil
}

func (s *stubBackend) ClearDraft(_ context.Context, workspaceID uuid.UUID) error {
	delete(s.draft, workspaceID)
	return nil
}

func (s *stubBackend) RequestSettlement(_ context.Context, _ uuid.UUID, _ bool) error {
	s.settlements++
	return nil
}

func (s *stubBackend) FinalizeSale(_ context.Context, _, _ uuid.UUID, _ decimal.Decimal) (uuid.UUID, error) {
	if s.finalizeHook != nil {
		s.finalizeHook()
	}
	if s.finalizeErr != nil {
		return uuid.Nil, s.finalizeErr
	}
	s.finalizations++
	return s.saleID, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestAddDeniedWhenStockInsufficient(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	productID := uuid.New()
	be.stock[productID] = 4

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, workspaceID, AddInput{
		ProductID: productID,
		Quantity:  3,
		UnitPrice: decimal.NewFromInt(10),
	}); err != nil {
		t.Fatal(err)
	}

	// 3 already in the cart, 2 more would exceed the 4 available.
	_, err = svc.Add(ctx, workspaceID, AddInput{
		ProductID: productID,
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(10),
	})
	if err == nil {
		t.Fatal("expected stock denial")
	}
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeStockInsufficient {
		t.Fatalf("expected stock code, got %s", code)
	}
	if available := pkgerrors.DetailsOf(err)["available"]; available != 4 {
		t.Fatalf("details available = %v, want 4", available)
	}

	// The denied contribution must not have changed the cart.
	snap, err := svc.Open(ctx, workspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Lines[0].Quantity(enums.UnitPiece).Equal(decimal.NewFromInt(3)) {
		t.Fatalf("cart quantity changed after denial: %s", snap.Lines[0].Quantity(enums.UnitPiece))
	}
}

func TestSaveReplacesDraftWholesale(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	first, second := uuid.New(), uuid.New()
	be.stock[first] = 10
	be.stock[second] = 10

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	for _, id := range []uuid.UUID{first, second} {
		if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: id, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	if len(be.draft[workspaceID]) != 2 {
		t.Fatalf("draft has %d lines, want 2", len(be.draft[workspaceID]))
	}

	if _, err := svc.Remove(ctx, workspaceID, second); err != nil {
		t.Fatal(err)
	}
	snap, err := svc.Save(ctx, workspaceID)
	if err != nil {
		t.Fatal(err)
	}

	// The removed line is gone from the backend too, not merely absent
	// from the additions.
	if len(be.draft[workspaceID]) != 1 {
		t.Fatalf("draft has %d lines after re-save, want 1", len(be.draft[workspaceID]))
	}
	if snap.Phase != enums.PhaseSaved || snap.Dirty {
		t.Fatalf("snapshot phase=%s dirty=%v", snap.Phase, snap.Dirty)
	}
}

func TestSaveKeepsCartDirtyWhenMutatedMidFlight(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	first, second := uuid.New(), uuid.New()
	be.stock[first] = 10
	be.stock[second] = 10

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: first, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}

	saving := make(chan struct{})
	proceed := make(chan struct{})
	be.saveHook = func() {
		close(saving)
		<-proceed
	}

	type result struct {
		snap Snapshot
		err  error
	}
	done := make(chan result, 1)
	go func() {
		snap, err := svc.Save(ctx, workspaceID)
		done <- result{snap, err}
	}()

	<-saving
	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: second, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}
	close(proceed)

	res := <-done
	if res.err != nil {
		t.Fatal(res.err)
	}

	// The draft only holds the line captured before the save went out; the
	// cart diverged from it and must still read dirty so the settlement
	// gate holds.
	if len(be.draft[workspaceID]) != 1 {
		t.Fatalf("draft has %d lines, want 1", len(be.draft[workspaceID]))
	}
	if !res.snap.Dirty {
		t.Fatal("cart reported clean while it diverged from the saved draft")
	}
	if res.snap.Phase != enums.PhaseBuilding {
		t.Fatalf("phase = %s, want %s", res.snap.Phase, enums.PhaseBuilding)
	}

	_, err = svc.RequestSettlement(ctx, workspaceID)
	if code := pkgerrors.CodeOf(err); code != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// A fresh save catches the draft up and unblocks settlement.
	be.saveHook = nil
	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	if len(be.draft[workspaceID]) != 2 {
		t.Fatalf("draft has %d lines after re-save, want 2", len(be.draft[workspaceID]))
	}
	if _, err := svc.RequestSettlement(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
}

func TestFinalizeKeepsMidFlightAdditions(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	first, second := uuid.New(), uuid.New()
	be.stock[first] = 10
	be.stock[second] = 10

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: first, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RequestSettlement(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}

	finalizing := make(chan struct{})
	proceed := make(chan struct{})
	be.finalizeHook = func() {
		close(finalizing)
		<-proceed
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Finalize(ctx, workspaceID, uuid.New(), decimal.NewFromInt(10))
		done <- err
	}()

	<-finalizing
	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: second, Quantity: 3, UnitPrice: decimal.NewFromInt(7)}); err != nil {
		t.Fatal(err)
	}
	close(proceed)

	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if be.finalizations != 1 {
		t.Fatalf("finalizations = %d, want 1", be.finalizations)
	}

	// Only the sold line leaves; the addition made while the sale was in
	// flight starts the next order.
	snap, err := svc.Open(ctx, workspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Lines) != 1 {
		t.Fatalf("cart has %d lines, want 1", len(snap.Lines))
	}
	if snap.Lines[0].ProductID != second.String() {
		t.Fatalf("line product = %s, want %s", snap.Lines[0].ProductID, second)
	}
	if snap.Phase != enums.PhaseBuilding || !snap.Dirty {
		t.Fatalf("snapshot phase=%s dirty=%v, want building and dirty", snap.Phase, snap.Dirty)
	}
}

func TestSettlementRequiresCleanSave(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	productID := uuid.New()
	be.stock[productID] = 10

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: productID, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}

	// Settlement before any save.
	if _, err := svc.RequestSettlement(ctx, workspaceID); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	// Mutating after the save dirties the cart and blocks settlement again.
	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RequestSettlement(ctx, workspaceID); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict after dirtying, got %v", err)
	}

	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	snap, err := svc.RequestSettlement(ctx, workspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != enums.PhaseSettlementRequested {
		t.Fatalf("phase = %s", snap.Phase)
	}
	if be.settlements != 1 {
		t.Fatalf("settlements = %d, want 1", be.settlements)
	}
}

func TestFinalizeRetiresSession(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	productID := uuid.New()
	be.stock[productID] = 10

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	workspaceID := uuid.New()
	ctx := context.Background()

	if _, err := svc.Add(ctx, workspaceID, AddInput{ProductID: productID, Quantity: 2, UnitPrice: decimal.NewFromInt(5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Save(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RequestSettlement(ctx, workspaceID); err != nil {
		t.Fatal(err)
	}

	// No payment method.
	if _, err := svc.Finalize(ctx, workspaceID, uuid.Nil, decimal.NewFromInt(10)); pkgerrors.CodeOf(err) != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	saleID, err := svc.Finalize(ctx, workspaceID, uuid.New(), decimal.NewFromInt(10))
	if err != nil {
		t.Fatal(err)
	}
	if saleID != be.saleID {
		t.Fatalf("sale id mismatch: %s", saleID)
	}

	// Backend draft was cleared before finalizing, so the next open starts
	// an empty cart.
	be.draft[workspaceID] = nil
	snap, err := svc.Open(ctx, workspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Phase.IsValid() || snap.Phase != enums.PhaseEmpty || len(snap.Lines) != 0 {
		t.Fatalf("expected a fresh empty cart, got phase=%s lines=%d", snap.Phase, len(snap.Lines))
	}
}

func TestOpenHydratesFromDraft(t *testing.T) {
	t.Parallel()

	be := newStubBackend()
	productID := uuid.New()
	workspaceID := uuid.New()
	be.draft[workspaceID] = []backend.DraftLine{{
		ProductID:   productID,
		ProductName: "Tomato",
		UnitPrice:   decimal.NewFromInt(18),
		PieceQty:    decimal.NewFromInt(4),
	}}

	svc, err := NewService(be, testLogger(), nil)
	if err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Open(context.Background(), workspaceID)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Phase != enums.PhaseSaved || snap.Dirty {
		t.Fatalf("hydrated phase=%s dirty=%v", snap.Phase, snap.Dirty)
	}
	if len(snap.Lines) != 1 || !snap.Lines[0].Subtotal.Equal(decimal.NewFromInt(72)) {
		t.Fatalf("unexpected hydrated lines: %+v", snap.Lines)
	}
}
