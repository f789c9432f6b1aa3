package forecast

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/posfin/pos-engine/internal/backend"
)

// ConsumptionRates computes each product's average daily consumption over
// the window: total quantity sold inside the window divided by the window
// length in days. Days without sales still count; a product sold once in a
// thirty day window consumes slowly, not quickly.
func ConsumptionRates(records []backend.SaleRecord, windowDays int, now time.Time) map[uuid.UUID]decimal.Decimal {
	rates := make(map[uuid.UUID]decimal.Decimal)
	if windowDays <= 0 {
		return rates
	}

	cutoff := now.AddDate(0, 0, -windowDays)
	totals := make(map[uuid.UUID]decimal.Decimal)
	for _, record := range records {
		if record.OrderDate.Before(cutoff) {
			continue
		}
		totals[record.ProductID] = totals[record.ProductID].Add(record.Quantity)
	}

	days := decimal.NewFromInt(int64(windowDays))
	for productID, total := range totals {
		rates[productID] = total.Div(days)
	}
	return rates
}

// DaysOfStock estimates how many whole days the current stock lasts at the
// given daily rate. Returns false when the rate is zero, stock without
// consumption does not run out.
func DaysOfStock(stock int, rate decimal.Decimal) (int, bool) {
	if !rate.IsPositive() {
		return 0, false
	}
	days := decimal.NewFromInt(int64(stock)).Div(rate).Floor()
	return int(days.IntPart()), true
}
