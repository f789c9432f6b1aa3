package alerts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/enums"
	"github.com/posfin/pos-engine/pkg/logger"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestMemoryThrottleWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	throttle := NewMemoryThrottle(30*time.Minute, clock.Now)
	ctx := context.Background()

	ok, err := throttle.Admit(ctx, "p-1")
	if err != nil || !ok {
		t.Fatalf("first admit: ok=%v err=%v", ok, err)
	}

	clock.Advance(29 * time.Minute)
	if ok, _ := throttle.Admit(ctx, "p-1"); ok {
		t.Fatal("admit inside the window")
	}
	// A different product has its own window.
	if ok, _ := throttle.Admit(ctx, "p-2"); !ok {
		t.Fatal("unrelated product throttled")
	}

	clock.Advance(time.Minute)
	if ok, _ := throttle.Admit(ctx, "p-1"); !ok {
		t.Fatal("admit after the window elapsed")
	}
}

func TestMemoryThrottleReset(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	throttle := NewMemoryThrottle(30*time.Minute, clock.Now)
	ctx := context.Background()

	if ok, _ := throttle.Admit(ctx, "p-1"); !ok {
		t.Fatal("first admit")
	}
	if err := throttle.Reset(ctx, "p-1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := throttle.Admit(ctx, "p-1"); !ok {
		t.Fatal("admit after reset")
	}
}

func TestMemoryThrottleSweep(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	throttle := NewMemoryThrottle(30*time.Minute, clock.Now)
	ctx := context.Background()

	throttle.Admit(ctx, "p-1")
	clock.Advance(20 * time.Minute)
	throttle.Admit(ctx, "p-2")
	clock.Advance(10 * time.Minute)

	if removed := throttle.Sweep(); removed != 1 {
		t.Fatalf("sweep removed %d, want 1", removed)
	}
	if ok, _ := throttle.Admit(ctx, "p-2"); ok {
		t.Fatal("p-2 window should survive the sweep")
	}
}

type stubCatalog struct {
	products []backend.Product
	err      error
}

func (s *stubCatalog) ListProducts(context.Context, backend.ProductFilter) ([]backend.Product, error) {
	return s.products, s.err
}

type recordingNotifier struct {
	products []Alert
	grouped  [][]Alert
}

func (n *recordingNotifier) NotifyProduct(_ context.Context, alert Alert) error {
	n.products = append(n.products, alert)
	return nil
}

func (n *recordingNotifier) NotifyGrouped(_ context.Context, alerts []Alert) error {
	n.grouped = append(n.grouped, alerts)
	return nil
}

func intPtr(v int) *int { return &v }

func lowProduct(name string, qty int) backend.Product {
	return backend.Product{
		ID:       uuid.New(),
		Name:     name,
		Quantity: intPtr(qty),
		Status:   enums.ProductStatusActive,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func newTestService(t *testing.T, catalog Catalog, throttle Throttle, notifier Notifier) Service {
	t.Helper()
	svc, err := NewService(
		catalog,
		stock.Thresholds{CriticalMax: 3, LowMax: 5, MediumMax: 10},
		throttle,
		notifier,
		testLogger(),
		nil,
	)
	if err != nil {
		t.Fatal(err)
	}
	return svc
}

func TestSweepNotifiesIndividually(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{products: []backend.Product{
		lowProduct("eggs", 2),
		lowProduct("milk", 5),
		lowProduct("flour", 50),
	}}
	notifier := &recordingNotifier{}
	svc := newTestService(t, catalog, NewMemoryThrottle(30*time.Minute, nil), notifier)

	summary, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Evaluated != 3 || summary.LowStock != 2 || summary.Admitted != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Grouped {
		t.Fatal("two alerts must not group")
	}
	if len(notifier.products) != 2 || len(notifier.grouped) != 0 {
		t.Fatalf("notifications: %d individual, %d grouped", len(notifier.products), len(notifier.grouped))
	}
}

func TestSweepGroupsPastThreshold(t *testing.T) {
	t.Parallel()

	catalog := &stubCatalog{products: []backend.Product{
		lowProduct("a", 1),
		lowProduct("b", 2),
		lowProduct("c", 4),
		lowProduct("d", 5),
	}}
	notifier := &recordingNotifier{}
	svc := newTestService(t, catalog, NewMemoryThrottle(30*time.Minute, nil), notifier)

	summary, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !summary.Grouped {
		t.Fatal("four alerts must group")
	}
	if len(notifier.grouped) != 1 || len(notifier.grouped[0]) != 4 {
		t.Fatalf("grouped notifications: %+v", notifier.grouped)
	}
	if len(notifier.products) != 0 {
		t.Fatal("no individual notifications expected when grouping")
	}
}

func TestSweepSuppressesInsideWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Now()}
	catalog := &stubCatalog{products: []backend.Product{lowProduct("eggs", 1)}}
	notifier := &recordingNotifier{}
	svc := newTestService(t, catalog, NewMemoryThrottle(30*time.Minute, clock.Now), notifier)
	ctx := context.Background()

	if _, err := svc.Sweep(ctx); err != nil {
		t.Fatal(err)
	}

	clock.Advance(10 * time.Minute)
	summary, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Admitted != 0 || summary.Suppressed != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(notifier.products) != 1 {
		t.Fatalf("repeat alert slipped the throttle: %d", len(notifier.products))
	}

	clock.Advance(30 * time.Minute)
	if _, err := svc.Sweep(ctx); err != nil {
		t.Fatal(err)
	}
	if len(notifier.products) != 2 {
		t.Fatal("alert should fire again after the window")
	}
}
