package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/pkg/config"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.BackendConfig{BaseURL: server.URL, Timeout: time.Second}, testLogger())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test"})
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(config.BackendConfig{}, testLogger()); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient(config.BackendConfig{BaseURL: "http://x"}, nil); err == nil {
		t.Fatal("expected error for missing logger")
	}
}

func TestCurrentStock(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/"+productID.String()+"/stock" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(stockResponse{Quantity: 7})
	}))

	qty, err := client.CurrentStock(context.Background(), productID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 7 {
		t.Fatalf("expected 7, got %d", qty)
	}
}

func TestSaveDraftOrderReplacesAll(t *testing.T) {
	t.Parallel()

	workspaceID := uuid.New()
	var calls []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method)
		if r.Method == http.MethodPost {
			var payload draftRequest
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decode draft: %v", err)
			}
			if len(payload.Lines) != 1 {
				t.Errorf("expected 1 line, got %d", len(payload.Lines))
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	lines := []DraftLine{{
		ProductID: uuid.New(),
		UnitPrice: decimal.NewFromInt(10),
		PieceQty:  decimal.NewFromInt(3),
	}}
	if err := client.SaveDraftOrder(context.Background(), workspaceID, lines); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 || calls[0] != http.MethodDelete || calls[1] != http.MethodPost {
		t.Fatalf("expected delete-then-post, got %v", calls)
	}
}

func TestBackendErrorSurfacedVerbatim(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "stock moved underneath you"},
		})
	}))

	err := client.RequestSettlement(context.Background(), uuid.New(), true)
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if typed.Message() != "stock moved underneath you" {
		t.Fatalf("backend message should pass through verbatim, got %q", typed.Message())
	}
}

func TestLastPurchasePriceNoneIsNil(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	price, err := client.LastPurchasePrice(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("no history should not be an error: %v", err)
	}
	if price != nil {
		t.Fatalf("expected nil price, got %v", price)
	}
}

func TestConfirmPurchaseOrderReturnsID(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload confirmPurchaseRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode confirm: %v", err)
		}
		if len(payload.Lines) != 2 {
			t.Errorf("expected all lines in one submission, got %d", len(payload.Lines))
		}
		json.NewEncoder(w).Encode(confirmResponse{OrderID: orderID})
	}))

	lines := []PurchaseLine{
		{ProductID: uuid.New(), PieceQty: decimal.NewFromInt(5)},
		{ProductID: uuid.New(), WeightQty: decimal.NewFromFloat(1.5)},
	}
	got, err := client.ConfirmPurchaseOrder(context.Background(), uuid.New(), uuid.New(), lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != orderID {
		t.Fatalf("expected %s, got %s", orderID, got)
	}
}

func TestSalesHistorySinceParam(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since"); got != "2026-06-01" {
			t.Errorf("unexpected since param %q", got)
		}
		json.NewEncoder(w).Encode([]SaleRecord{})
	}))

	since := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	if _, err := client.SalesHistory(context.Background(), since); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
