package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/internal/stock"
	"github.com/posfin/pos-engine/pkg/logger"
	"github.com/posfin/pos-engine/pkg/metrics"
)

// groupThreshold is the point past which a sweep collapses into one grouped
// notification instead of a message per product.
const groupThreshold = 3

var (
	errCatalogRequired  = errors.New("alerts catalog is required")
	errThrottleRequired = errors.New("alerts throttle is required")
	errNotifierRequired = errors.New("alerts notifier is required")
	errLoggerRequired   = errors.New("alerts logger is required")
)

// Catalog is the slice of the backend the alert sweep reads.
type Catalog interface {
	ListProducts(ctx context.Context, filter backend.ProductFilter) ([]backend.Product, error)
}

// Summary is what one sweep did.
type Summary struct {
	Evaluated  int
	LowStock   int
	Admitted   int
	Suppressed int
	Grouped    bool
}

// Service runs stock alert sweeps: classify the catalog, drop products still
// inside their throttle window, deliver the rest.
type Service interface {
	Sweep(ctx context.Context) (Summary, error)
}

type service struct {
	catalog    Catalog
	thresholds stock.Thresholds
	throttle   Throttle
	notifier   Notifier
	metrics    *metrics.EngineMetrics
	logger     *logger.Logger
}

// NewService validates its dependencies and builds the sweep service.
// Metrics may be nil.
func NewService(catalog Catalog, thresholds stock.Thresholds, throttle Throttle, notifier Notifier, logg *logger.Logger, em *metrics.EngineMetrics) (Service, error) {
	if catalog == nil {
		return nil, errCatalogRequired
	}
	if throttle == nil {
		return nil, errThrottleRequired
	}
	if notifier == nil {
		return nil, errNotifierRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}
	return &service{
		catalog:    catalog,
		thresholds: thresholds,
		throttle:   throttle,
		notifier:   notifier,
		metrics:    em,
		logger:     logg,
	}, nil
}

// Sweep classifies the current catalog and alerts on what the throttle
// admits. A throttle error on one product suppresses that product only;
// the sweep keeps going.
func (s *service) Sweep(ctx context.Context) (Summary, error) {
	products, err := s.catalog.ListProducts(ctx, backend.ProductFilter{ActiveOnly: true})
	if err != nil {
		return Summary{}, err
	}

	report := stock.Evaluate(products, s.thresholds)
	low := report.LowStock()

	summary := Summary{
		Evaluated: len(report.Items),
		LowStock:  len(low),
	}

	admitted := make([]Alert, 0, len(low))
	for _, item := range low {
		ok, err := s.throttle.Admit(ctx, item.Product.ID.String())
		if err != nil {
			s.logger.Error(ctx, fmt.Sprintf("throttle check failed for %s", item.Product.ID), err)
			summary.Suppressed++
			continue
		}
		if !ok {
			summary.Suppressed++
			continue
		}
		admitted = append(admitted, Alert{
			ProductID:   item.Product.ID.String(),
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			Tier:        item.Tier,
		})
	}
	summary.Admitted = len(admitted)

	switch {
	case len(admitted) == 0:
		return summary, nil
	case len(admitted) > groupThreshold:
		summary.Grouped = true
		if err := s.notifier.NotifyGrouped(ctx, admitted); err != nil {
			return summary, err
		}
		s.metrics.IncAlert("grouped")
	default:
		for _, alert := range admitted {
			if err := s.notifier.NotifyProduct(ctx, alert); err != nil {
				return summary, err
			}
			s.metrics.IncAlert("individual")
		}
	}

	s.logger.Info(ctx, fmt.Sprintf(
		"alert sweep: %d evaluated, %d low, %d alerted, %d suppressed",
		summary.Evaluated, summary.LowStock, summary.Admitted, summary.Suppressed,
	))
	return summary, nil
}
