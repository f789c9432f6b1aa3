package forecast

import (
	"net/http"

	"github.com/posfin/pos-engine/api/responses"
	forecastsvc "github.com/posfin/pos-engine/internal/forecast"
	"github.com/posfin/pos-engine/pkg/logger"
)

// Suggestions returns reorder advice for the active catalog.
func Suggestions(svc forecastsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		suggestions, err := svc.Suggestions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}

// Health reports the external forecasting service's availability.
func Health(svc forecastsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Health(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
