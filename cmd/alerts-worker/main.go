package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/cron"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/instance"
	"github.com/posfin/pos-engine/pkg/logger"
	"github.com/posfin/pos-engine/pkg/metrics"
	"github.com/posfin/pos-engine/pkg/redis"
)

const lockKeyFormat = "pos:lock:alerts-worker:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "alerts-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "alerts-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	backendClient, err := backend.NewClient(cfg.Backend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap backend client", err)
		os.Exit(1)
	}

	engineMetrics := metrics.NewEngineMetrics(prometheus.DefaultRegisterer)
	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	registry := cron.NewRegistry()

	var (
		throttle alerts.Throttle
		lock     cron.Lock
	)
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
		lock, err = cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
		if err != nil {
			logg.Error(context.Background(), "failed to create worker lock", err)
			os.Exit(1)
		}
	} else {
		memoryThrottle := alerts.NewMemoryThrottle(cfg.Alerts.ThrottleWindow, nil)
		throttle = memoryThrottle
		lock = cron.NewLocalLock()

		sweepJob, err := cron.NewThrottleSweepJob(memoryThrottle)
		if err != nil {
			logg.Error(context.Background(), "failed to create throttle sweep job", err)
			os.Exit(1)
		}
		registry.Register(sweepJob)
	}

	alertService, err := alerts.NewService(
		backendClient,
		stock.ThresholdsFromConfig(cfg.Stock),
		throttle,
		alerts.NewLogNotifier(logg),
		logg,
		engineMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create alert service", err)
		os.Exit(1)
	}

	alertJob, err := cron.NewStockAlertJob(alertService, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock alert job", err)
		os.Exit(1)
	}
	registry.Register(alertJob)

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Alerts.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "instance_id": instance.GetID()})
	logg.Info(ctx, "starting alerts worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "alerts worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "alerts worker shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
