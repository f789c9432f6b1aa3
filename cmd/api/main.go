package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/posfin/pos-engine/api/controllers"
	"github.com/posfin/pos-engine/api/routes"
	"github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/cart"
	"github.com/posfin/pos-engine/internal/forecast"
	"github.com/posfin/pos-engine/internal/purchasing"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/logger"
	"github.com/posfin/pos-engine/pkg/metrics"
	"github.com/posfin/pos-engine/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	backendClient, err := backend.NewClient(cfg.Backend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap backend client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	engineMetrics := metrics.NewEngineMetrics(registry)

	salesService, err := cart.NewService(backendClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
		os.Exit(1)
	}

	purchasingService, err := purchasing.NewService(backendClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchasing service", err)
		os.Exit(1)
	}

	thresholds := stock.ThresholdsFromConfig(cfg.Stock)
	pingers := map[string]controllers.Pinger{"backend": backendClient}

	var throttle alerts.Throttle
	if cfg.Alerts.UseRedis {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		throttle = alerts.NewRedisThrottle(redisClient, cfg.Alerts.ThrottleWindow)
		pingers["redis"] = redisClient
	} else {
		throttle = alerts.NewMemoryThrottle(cfg.Alerts.ThrottleWindow, nil)
	}

	alertService, err := alerts.NewService(backendClient, thresholds, throttle, alerts.NewLogNotifier(logg), logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	var forecastService forecast.Service
	if cfg.Forecast.BaseURL != "" {
		forecastClient, err := forecast.NewClient(cfg.Forecast, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create forecast client", err)
			os.Exit(1)
		}
		forecastService, err = forecast.NewService(backendClient, forecastClient, cfg.Forecast, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create forecast service", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:     cfg,
			Logger:     logg,
			Sales:      salesService,
			Purchasing: purchasingService,
			Alerts:     alertService,
			Catalog:    backendClient,
			Thresholds: thresholds,
			Forecast:   forecastService,
			Pingers:    pingers,
			Gatherer:   registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
