package controllers

import (
	"context"
	"net/http"

	"github.com/posfin/pos-engine/api/responses"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/logger"
)

// Pinger is anything that can answer a readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PosEngine-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady probes the dependencies the engine cannot serve without. Nil
// pingers are skipped, not every deployment wires Redis.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PosEngine-Env", cfg.App.Env)

		status := map[string]string{"status": "ready"}
		healthy := true
		for name, pinger := range pingers {
			if pinger == nil {
				continue
			}
			if err := pinger.Ping(r.Context()); err != nil {
				logg.Error(r.Context(), "readiness probe failed: "+name, err)
				status[name] = "unreachable"
				healthy = false
				continue
			}
			status[name] = "ok"
		}

		if !healthy {
			status["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, status)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
