package forecast

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/enums"
	pkgerrors "github.com/posfin/pos-engine/pkg/errors"
	"github.com/posfin/pos-engine/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func sale(productID uuid.UUID, daysAgo int, qty int64, now time.Time) backend.SaleRecord {
	return backend.SaleRecord{
		OrderDate: now.AddDate(0, 0, -daysAgo),
		ProductID: productID,
		Quantity:  decimal.NewFromInt(qty),
	}
}

func TestConsumptionRates(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	productID := uuid.New()
	other := uuid.New()

	rates := ConsumptionRates([]backend.SaleRecord{
		sale(productID, 1, 30, now),
		sale(productID, 10, 30, now),
		sale(productID, 45, 99, now), // outside the window
		sale(other, 5, 15, now),
	}, 30, now)

	// 60 pieces over a 30 day window, quiet days included.
	if !rates[productID].Equal(decimal.NewFromInt(2)) {
		t.Fatalf("rate = %s, want 2", rates[productID])
	}
	if !rates[other].Equal(decimal.NewFromFloat(0.5)) {
		t.Fatalf("other rate = %s, want 0.5", rates[other])
	}
}

func TestDaysOfStock(t *testing.T) {
	t.Parallel()

	days, ok := DaysOfStock(7, decimal.NewFromInt(2))
	if !ok || days != 3 {
		t.Fatalf("days = %d ok = %v, want 3 true", days, ok)
	}

	// No consumption: stock never runs out.
	if _, ok := DaysOfStock(7, decimal.Zero); ok {
		t.Fatal("zero rate must report no estimate")
	}
}

func TestBuildSuggestion(t *testing.T) {
	t.Parallel()

	productID := uuid.New()
	suggestion := BuildSuggestion("eggs", 7, decimal.NewFromInt(2), Prediction{
		ProductID:         productID,
		SuggestedQuantity: 2.5,
		Score:             0.85,
		Confidence:        0.914,
	})

	if suggestion.SuggestedQuantity != 3 {
		t.Fatalf("suggested quantity = %d, want 3", suggestion.SuggestedQuantity)
	}
	if suggestion.Priority != enums.PriorityHigh {
		t.Fatalf("priority = %s, want high", suggestion.Priority)
	}
	if suggestion.Confidence != "91%" {
		t.Fatalf("confidence = %s, want 91%%", suggestion.Confidence)
	}
	if suggestion.DaysOfStock == nil || *suggestion.DaysOfStock != 3 {
		t.Fatalf("days of stock = %v, want 3", suggestion.DaysOfStock)
	}
	if suggestion.Recommendation != "Reorder now, stock runs out in about 3 day(s)" {
		t.Fatalf("recommendation = %q", suggestion.Recommendation)
	}
}

func TestPriorityBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  enums.PriorityLevel
	}{
		{0.7, enums.PriorityHigh},
		{0.69, enums.PriorityMedium},
		{0.4, enums.PriorityMedium},
		{0.39, enums.PriorityLow},
	}
	for _, tc := range cases {
		if got := enums.PriorityFromScore(tc.score); got != tc.want {
			t.Errorf("PriorityFromScore(%v) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestClientSurfacesUnavailability(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := NewClient(config.ForecastConfig{BaseURL: server.URL, Timeout: time.Second}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Predict(context.Background(), PredictRequest{})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeForecastUnavailable {
		t.Fatalf("expected forecast-unavailable, got %v", err)
	}
	if err := client.Health(context.Background()); pkgerrors.CodeOf(err) != pkgerrors.CodeForecastUnavailable {
		t.Fatalf("expected forecast-unavailable health, got %v", err)
	}
}

type stubHistory struct {
	records  []backend.SaleRecord
	products []backend.Product
}

func (s *stubHistory) SalesHistory(context.Context, time.Time) ([]backend.SaleRecord, error) {
	return s.records, nil
}

func (s *stubHistory) ListProducts(context.Context, backend.ProductFilter) ([]backend.Product, error) {
	return s.products, nil
}

type stubPredictor struct {
	predictions []Prediction
	err         error
}

func (s *stubPredictor) Predict(context.Context, PredictRequest) ([]Prediction, error) {
	return s.predictions, s.err
}

func (s *stubPredictor) Health(context.Context) error { return s.err }

func intPtr(v int) *int { return &v }

func TestSuggestionsSortHighPriorityFirst(t *testing.T) {
	t.Parallel()

	calm, urgent := uuid.New(), uuid.New()
	history := &stubHistory{
		products: []backend.Product{
			{ID: calm, Name: "calm", Quantity: intPtr(50), Status: enums.ProductStatusActive},
			{ID: urgent, Name: "urgent", Quantity: intPtr(2), Status: enums.ProductStatusActive},
		},
	}
	predictor := &stubPredictor{predictions: []Prediction{
		{ProductID: calm, SuggestedQuantity: 5, Score: 0.2, Confidence: 0.6},
		{ProductID: urgent, SuggestedQuantity: 10, Score: 0.9, Confidence: 0.8},
	}}

	svc, err := NewService(history, predictor, config.ForecastConfig{
		HistoryWindowDays:     90,
		ConsumptionWindowDays: 30,
	}, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	suggestions, err := svc.Suggestions(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %d, want 2", len(suggestions))
	}
	if suggestions[0].ProductName != "urgent" {
		t.Fatalf("first suggestion = %s, want urgent", suggestions[0].ProductName)
	}
}
