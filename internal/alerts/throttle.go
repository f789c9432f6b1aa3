package alerts

import (
	"context"
	"sync"
	"time"
)

// Throttle answers whether a product may alert again. Admit is first-wins:
// the first caller inside a window gets true and opens the window, every
// later caller inside it gets false.
type Throttle interface {
	Admit(ctx context.Context, productID string) (bool, error)
	Reset(ctx context.Context, productID string) error
}

// MemoryThrottle is the in-process throttle. The clock is injectable so the
// window can be tested without sleeping.
type MemoryThrottle struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewMemoryThrottle builds a throttle with the given window. A nil clock
// uses time.Now.
func NewMemoryThrottle(window time.Duration, now func() time.Time) *MemoryThrottle {
	if now == nil {
		now = time.Now
	}
	return &MemoryThrottle{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

func (t *MemoryThrottle) Admit(_ context.Context, productID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if opened, ok := t.last[productID]; ok && now.Sub(opened) < t.window {
		return false, nil
	}
	t.last[productID] = now
	return true, nil
}

func (t *MemoryThrottle) Reset(_ context.Context, productID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, productID)
	return nil
}

// Sweep drops expired windows so the map does not grow with the catalog
// forever. Returns how many entries were removed.
func (t *MemoryThrottle) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	removed := 0
	for productID, opened := range t.last {
		if now.Sub(opened) >= t.window {
			delete(t.last, productID)
			removed++
		}
	}
	return removed
}
