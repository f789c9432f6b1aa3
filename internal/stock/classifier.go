package stock

import (
	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/enums"
)

// Thresholds are the inclusive upper bounds of the severity tiers. A
// quantity at exactly LowMax is still low, the next tier starts one above.
type Thresholds struct {
	CriticalMax int
	LowMax      int
	MediumMax   int
}

// ThresholdsFromConfig copies the configured bounds.
func ThresholdsFromConfig(cfg config.StockConfig) Thresholds {
	return Thresholds{
		CriticalMax: cfg.CriticalMax,
		LowMax:      cfg.LowMax,
		MediumMax:   cfg.MediumMax,
	}
}

// Classify buckets a quantity. Bounds are inclusive on the upper edge.
func (t Thresholds) Classify(quantity int) enums.SeverityTier {
	switch {
	case quantity <= t.CriticalMax:
		return enums.TierCritical
	case quantity <= t.LowMax:
		return enums.TierLow
	case quantity <= t.MediumMax:
		return enums.TierMedium
	default:
		return enums.TierOK
	}
}

// Item is one classified product.
type Item struct {
	Product  backend.Product
	Quantity int
	Tier     enums.SeverityTier
}

// Report is the outcome of classifying a catalog snapshot. Skipped counts
// products excluded from classification, inactive ones and those without an
// inventory record.
type Report struct {
	Items   []Item
	Counts  map[enums.SeverityTier]int
	Skipped int
}

// LowStock returns the items in the alerting tiers, critical first within
// the original catalog order.
func (r Report) LowStock() []Item {
	out := make([]Item, 0, r.Counts[enums.TierCritical]+r.Counts[enums.TierLow])
	for _, item := range r.Items {
		if item.Tier == enums.TierCritical {
			out = append(out, item)
		}
	}
	for _, item := range r.Items {
		if item.Tier == enums.TierLow {
			out = append(out, item)
		}
	}
	return out
}

// Eligible reports whether the product participates in classification. A nil
// quantity means no inventory record, which is not the same as zero stock.
func Eligible(p backend.Product) bool {
	return p.Status.IsActive() && p.Quantity != nil
}

// Evaluate classifies every eligible product in the snapshot.
func Evaluate(products []backend.Product, t Thresholds) Report {
	report := Report{
		Counts: make(map[enums.SeverityTier]int, 4),
	}
	for _, product := range products {
		if !Eligible(product) {
			report.Skipped++
			continue
		}
		tier := t.Classify(*product.Quantity)
		report.Items = append(report.Items, Item{
			Product:  product,
			Quantity: *product.Quantity,
			Tier:     tier,
		})
		report.Counts[tier]++
	}
	return report
}
