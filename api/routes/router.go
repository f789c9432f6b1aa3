package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posfin/pos-engine/api/controllers"
	alertcontrollers "github.com/posfin/pos-engine/api/controllers/alerts"
	forecastcontrollers "github.com/posfin/pos-engine/api/controllers/forecast"
	purchasingcontrollers "github.com/posfin/pos-engine/api/controllers/purchasing"
	salescontrollers "github.com/posfin/pos-engine/api/controllers/sales"
	"github.com/posfin/pos-engine/api/middleware"
	alertsvc "github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/internal/cart"
	forecastsvc "github.com/posfin/pos-engine/internal/forecast"
	purchasingsvc "github.com/posfin/pos-engine/internal/purchasing"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/logger"
)

// Deps carries everything the router wires into handlers. Forecast is
// optional; its routes respond forecast-unavailable when it is absent.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Sales      cart.Service
	Purchasing purchasingsvc.Service
	Alerts     alertsvc.Service
	Catalog    alertsvc.Catalog
	Thresholds stock.Thresholds
	Forecast   forecastsvc.Service
	Pingers    map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.Pingers))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/workspaces/{workspaceID}", func(r chi.Router) {
			r.Get("/cart", salescontrollers.Fetch(deps.Sales, deps.Logger))
			r.Delete("/cart", salescontrollers.Discard(deps.Sales, deps.Logger))
			r.Post("/cart/items", salescontrollers.AddItem(deps.Sales, deps.Logger))
			r.Put("/cart/items/{productID}", salescontrollers.UpdateItem(deps.Sales, deps.Logger))
			r.Delete("/cart/items/{productID}", salescontrollers.RemoveItem(deps.Sales, deps.Logger))
			r.Post("/cart/save", salescontrollers.Save(deps.Sales, deps.Logger))
			r.Post("/settlement", salescontrollers.RequestSettlement(deps.Sales, deps.Logger))
			r.Post("/finalize", salescontrollers.Finalize(deps.Sales, deps.Logger))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/debts", purchasingcontrollers.Debts(deps.Purchasing, deps.Logger))
			r.Route("/{supplierID}", func(r chi.Router) {
				r.Get("/catalog", purchasingcontrollers.Catalog(deps.Purchasing, deps.Logger))
				r.Get("/cart", purchasingcontrollers.Fetch(deps.Purchasing, deps.Logger))
				r.Post("/cart/items", purchasingcontrollers.AddItem(deps.Purchasing, deps.Logger))
				r.Put("/cart/items/{productID}/cost", purchasingcontrollers.SetCost(deps.Purchasing, deps.Logger))
				r.Delete("/cart/items/{productID}", purchasingcontrollers.RemoveItem(deps.Purchasing, deps.Logger))
				r.Post("/cart/confirm", purchasingcontrollers.Confirm(deps.Purchasing, deps.Logger))
				r.Post("/payments", purchasingcontrollers.RecordPayment(deps.Purchasing, deps.Logger))
			})
		})

		r.Route("/stock", func(r chi.Router) {
			r.Get("/report", alertcontrollers.StockReport(deps.Catalog, deps.Thresholds, deps.Logger))
		})
		r.Post("/alerts/sweep", alertcontrollers.TriggerSweep(deps.Alerts, deps.Logger))

		if deps.Forecast != nil {
			r.Route("/forecast", func(r chi.Router) {
				r.Get("/suggestions", forecastcontrollers.Suggestions(deps.Forecast, deps.Logger))
				r.Get("/health", forecastcontrollers.Health(deps.Forecast, deps.Logger))
			})
		}
	})

	return r
}
