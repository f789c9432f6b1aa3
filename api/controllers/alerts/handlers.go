package alerts

import (
	"net/http"

	"github.com/posfin/pos-engine/api/responses"
	alertsvc "github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/logger"
)

type tierView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Tier      string `json:"tier"`
}

type reportView struct {
	Items    []tierView     `json:"items"`
	LowStock []tierView     `json:"low_stock"`
	Counts   map[string]int `json:"counts"`
	Skipped  int            `json:"skipped"`
}

// StockReport classifies the current catalog snapshot on demand.
func StockReport(catalog alertsvc.Catalog, thresholds stock.Thresholds, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := catalog.ListProducts(r.Context(), backend.ProductFilter{ActiveOnly: true})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report := stock.Evaluate(products, thresholds)

		view := reportView{
			Items:    make([]tierView, 0, len(report.Items)),
			LowStock: make([]tierView, 0),
			Counts:   make(map[string]int, len(report.Counts)),
			Skipped:  report.Skipped,
		}
		for _, item := range report.Items {
			view.Items = append(view.Items, newTierView(item))
		}
		for _, item := range report.LowStock() {
			view.LowStock = append(view.LowStock, newTierView(item))
		}
		for tier, count := range report.Counts {
			view.Counts[string(tier)] = count
		}
		responses.WriteSuccess(w, view)
	}
}

func newTierView(item stock.Item) tierView {
	return tierView{
		ProductID: item.Product.ID.String(),
		Name:      item.Product.Name,
		Quantity:  item.Quantity,
		Tier:      string(item.Tier),
	}
}

// TriggerSweep runs one alert sweep on demand, outside the worker cadence.
func TriggerSweep(svc alertsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Sweep(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
