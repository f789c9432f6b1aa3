package cron

import (
	"context"
	"errors"
	"time"

	"github.com/posfin/pos-engine/internal/alerts"
	"github.com/posfin/pos-engine/pkg/metrics"
)

// StockAlertJob runs one low-stock evaluation sweep per cycle.
type StockAlertJob struct {
	alerts  alerts.Service
	metrics *metrics.EngineMetrics
}

// NewStockAlertJob wires the sweep service into the worker. Metrics may be
// nil.
func NewStockAlertJob(svc alerts.Service, em *metrics.EngineMetrics) (*StockAlertJob, error) {
	if svc == nil {
		return nil, errors.New("alerts service required")
	}
	return &StockAlertJob{alerts: svc, metrics: em}, nil
}

func (j *StockAlertJob) Name() string { return "stock_alert_sweep" }

func (j *StockAlertJob) Run(ctx context.Context) error {
	start := time.Now()
	_, err := j.alerts.Sweep(ctx)
	j.metrics.ObserveSweep(time.Since(start))
	return err
}

// ThrottleSweepJob trims expired windows out of the in-memory throttle.
// Pointless when the throttle is Redis-backed, TTLs expire on their own
// there, so it is only registered alongside the memory throttle.
type ThrottleSweepJob struct {
	throttle *alerts.MemoryThrottle
}

// NewThrottleSweepJob wires the throttle cleanup into the worker.
func NewThrottleSweepJob(throttle *alerts.MemoryThrottle) (*ThrottleSweepJob, error) {
	if throttle == nil {
		return nil, errors.New("memory throttle required")
	}
	return &ThrottleSweepJob{throttle: throttle}, nil
}

func (j *ThrottleSweepJob) Name() string { return "throttle_sweep" }

func (j *ThrottleSweepJob) Run(context.Context) error {
	j.throttle.Sweep()
	return nil
}
