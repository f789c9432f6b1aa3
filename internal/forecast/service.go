package forecast

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/posfin/pos-engine/internal/backend"
	"github.com/posfin/pos-engine/pkg/config"
	"github.com/posfin/pos-engine/pkg/enums"
	"github.com/posfin/pos-engine/pkg/logger"
)

var (
	errHistoryRequired   = errors.New("forecast history source is required")
	errPredictorRequired = errors.New("forecast predictor is required")
	errSvcLoggerRequired = errors.New("forecast service logger is required")
)

// History is the slice of the backend API the forecast flow reads.
type History interface {
	SalesHistory(ctx context.Context, since time.Time) ([]backend.SaleRecord, error)
	ListProducts(ctx context.Context, filter backend.ProductFilter) ([]backend.Product, error)
}

// Service produces reorder suggestions by combining backend sales history
// with the external forecasting service's predictions.
type Service interface {
	Suggestions(ctx context.Context) ([]Suggestion, error)
	Health(ctx context.Context) error
}

type service struct {
	history   History
	predictor Predictor
	cfg       config.ForecastConfig
	logger    *logger.Logger
	now       func() time.Time
}

// NewService validates its dependencies and builds the forecast service.
func NewService(history History, predictor Predictor, cfg config.ForecastConfig, logg *logger.Logger) (Service, error) {
	if history == nil {
		return nil, errHistoryRequired
	}
	if predictor == nil {
		return nil, errPredictorRequired
	}
	if logg == nil {
		return nil, errSvcLoggerRequired
	}
	return &service{
		history:   history,
		predictor: predictor,
		cfg:       cfg,
		logger:    logg,
		now:       time.Now,
	}, nil
}

// Suggestions gathers history and the active catalog, asks the predictor,
// and formats its answers. Products the predictor does not mention are left
// out; the advice list is sorted high priority first, then by days of stock.
func (s *service) Suggestions(ctx context.Context) ([]Suggestion, error) {
	now := s.now()

	records, err := s.history.SalesHistory(ctx, now.AddDate(0, 0, -s.cfg.HistoryWindowDays))
	if err != nil {
		return nil, err
	}
	products, err := s.history.ListProducts(ctx, backend.ProductFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}

	req := PredictRequest{History: records}
	stocks := make(map[string]backend.Product, len(products))
	for _, product := range products {
		if product.Quantity == nil {
			continue
		}
		stocks[product.ID.String()] = product
		req.Products = append(req.Products, PredictProduct{
			ProductID:    product.ID,
			CurrentStock: *product.Quantity,
		})
	}

	predictions, err := s.predictor.Predict(ctx, req)
	if err != nil {
		return nil, err
	}

	rates := ConsumptionRates(records, s.cfg.ConsumptionWindowDays, now)

	suggestions := make([]Suggestion, 0, len(predictions))
	for _, prediction := range predictions {
		product, ok := stocks[prediction.ProductID.String()]
		if !ok {
			continue
		}
		suggestions = append(suggestions, BuildSuggestion(
			product.Name,
			*product.Quantity,
			rates[prediction.ProductID],
			prediction,
		))
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Priority != b.Priority {
			return priorityRank(a.Priority) < priorityRank(b.Priority)
		}
		return daysRank(a.DaysOfStock) < daysRank(b.DaysOfStock)
	})

	s.logger.Info(ctx, fmt.Sprintf("forecast produced %d suggestions from %d predictions", len(suggestions), len(predictions)))
	return suggestions, nil
}

// Health reports whether the external forecasting service can serve.
func (s *service) Health(ctx context.Context) error {
	return s.predictor.Health(ctx)
}

func priorityRank(p enums.PriorityLevel) int {
	switch p {
	case enums.PriorityHigh:
		return 0
	case enums.PriorityMedium:
		return 1
	default:
		return 2
	}
}

func daysRank(days *int) int {
	if days == nil {
		return 1 << 30
	}
	return *days
}
